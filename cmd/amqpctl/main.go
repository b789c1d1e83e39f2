// Command amqpctl parses AMQP broker address lists and runs commands against
// the brokers they name.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jongio/amqp-core/cli"
	"github.com/jongio/amqp-core/cliout"
	"github.com/jongio/amqp-core/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand(version.New("amqpctl")).ExecuteContext(ctx)
	stop()

	if err != nil {
		cliout.Error("%v", err)
		os.Exit(cli.ExitCode(err))
	}
}
