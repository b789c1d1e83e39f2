package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jongio/amqp-core/amqpaddr"
	"github.com/jongio/amqp-core/cliout"
	"github.com/jongio/amqp-core/cmdutil"
	"github.com/jongio/amqp-core/env"
	"github.com/jongio/amqp-core/failover"
	"github.com/jongio/amqp-core/logutil"
)

// execView is the structured result of an exec run.
type execView struct {
	Address  string `json:"address" yaml:"address"`
	Index    int    `json:"index" yaml:"index"`
	ExitCode int    `json:"exitCode" yaml:"exitCode"`
	Stdout   string `json:"stdout" yaml:"stdout"`
	Stderr   string `json:"stderr" yaml:"stderr"`
	Duration string `json:"duration" yaml:"duration"`
}

type execOptions struct {
	index       int
	shell       string
	dir         string
	timeout     time.Duration
	metricsAddr string
}

func newExecCommand(a *app) *cobra.Command {
	o := execOptions{}

	cmd := &cobra.Command{
		Use:   "exec [flags] -- command [args...]",
		Short: "Run a shell command with a broker exported as AMQP_* variables",
		Long: `Run a shell command with one broker address exported as AMQP_URI,
AMQP_SCHEME, AMQP_HOST, AMQP_PORT, AMQP_VHOST, AMQP_USERNAME and AMQP_PASSWORD.

With --address-index the command runs against that list entry. Without it the
addresses are tried in list order and the first run that exits 0 wins.`,
		Example: `  amqpctl exec -a amqp://h1,amqp://h2 --address-index 1 -- rabbitmqadmin -H '$AMQP_HOST' list queues
  amqpctl exec -- ./check-broker.sh`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.brokers(nil)
			if err != nil {
				return err
			}
			command := strings.Join(args, " ")

			if o.metricsAddr != "" {
				stop, err := startMetrics(o.metricsAddr)
				if err != nil {
					return err
				}
				defer stop()
			}

			var (
				res   cmdutil.Result
				addr  amqpaddr.Address
				index int
			)
			if o.index >= 0 {
				index = o.index
				addr, err = list.Get(o.index)
				if err != nil {
					return err
				}
				res, err = runAgainst(cmd.Context(), o, command, addr)
			} else {
				res, addr, index, err = runWithFailover(cmd.Context(), a, o, command, list)
			}

			writeOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), res)
			if err != nil {
				return err
			}

			if cliout.IsStructured() {
				return cliout.Print(execView{
					Address:  addr.String(),
					Index:    index,
					ExitCode: res.ExitCode,
					Stdout:   res.Stdout,
					Stderr:   res.Stderr,
					Duration: res.Duration.String(),
				}, func() {})
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&o.index, "address-index", "i", -1, "Run against this list entry instead of failing over in list order")
	cmd.Flags().StringVar(&o.shell, "shell", cmdutil.DefaultShell(), "Shell used to run the command")
	cmd.Flags().StringVar(&o.dir, "dir", "", "Working directory for the command")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 0, "Stop the command after this long (0 means no limit)")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "Serve failover metrics on /metrics at this address while the command runs")
	return cmd
}

func runAgainst(ctx context.Context, o execOptions, command string, addr amqpaddr.Address) (cmdutil.Result, error) {
	return cmdutil.Run(ctx, cmdutil.Options{
		Command: command,
		Shell:   o.shell,
		Dir:     o.dir,
		Env:     env.FromAddress(addr),
		Timeout: o.timeout,
		Stdin:   os.Stdin,
	})
}

func runWithFailover(ctx context.Context, a *app, o execOptions, command string, list amqpaddr.List) (cmdutil.Result, amqpaddr.Address, int, error) {
	logger := logutil.NewLogger("cli").WithOperation("exec")

	settings := a.cfg.FailoverSettings()
	if o.metricsAddr != "" {
		settings.EnableMetrics = true
	}

	sel, err := failover.NewSelector(list, func(ctx context.Context, addr amqpaddr.Address) (cmdutil.Result, error) {
		return runAgainst(ctx, o, command, addr)
	}, settings)
	if err != nil {
		return cmdutil.Result{}, amqpaddr.Address{}, -1, err
	}

	res, index, err := sel.ConnectIndex(ctx)
	if err != nil {
		return cmdutil.Result{}, amqpaddr.Address{}, -1, err
	}
	addr, err := list.Get(index)
	if err != nil {
		return cmdutil.Result{}, amqpaddr.Address{}, -1, err
	}
	logger.Debug("command succeeded", "endpoint", addr.String(), "index", index)
	return res, addr, index, nil
}

// startMetrics serves failover metrics on addr until the returned stop
// function is called.
func startMetrics(addr string) (func(), error) {
	logger := logutil.NewLogger("cli").WithOperation("metrics")

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	logger.Info("serving metrics", "addr", ln.Addr().String())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- failover.ServeMetrics(ctx, ln)
	}()

	return func() {
		cancel()
		if err := <-done; err != nil {
			logger.Warn("metrics server stopped with error", "error", err)
		}
	}, nil
}

func writeOutput(stdout, stderr io.Writer, res cmdutil.Result) {
	if cliout.IsStructured() {
		return
	}
	if res.Stdout != "" {
		fmt.Fprint(stdout, res.Stdout)
	}
	if res.Stderr != "" {
		fmt.Fprint(stderr, res.Stderr)
	}
}
