// Package cli implements the amqpctl command tree.
package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jongio/amqp-core/amqpaddr"
	"github.com/jongio/amqp-core/cliout"
	"github.com/jongio/amqp-core/cmdutil"
	"github.com/jongio/amqp-core/config"
	"github.com/jongio/amqp-core/logutil"
	"github.com/jongio/amqp-core/version"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	envFiles   []string
	output     string
	addresses  string
	debug      bool
}

// app is the state resolved before a command runs.
type app struct {
	opts globalOptions
	cfg  *config.Config
}

func bindGlobalFlags(fs *pflag.FlagSet, o *globalOptions) {
	fs.StringVar(&o.configFile, "config", "", "Config file (default: ./amqp.yaml when present)")
	fs.StringSliceVar(&o.envFiles, "env-file", nil, "Load AMQP_* settings from a .env file (repeatable)")
	fs.StringVarP(&o.output, "output", "o", "default", "Output format: default, json, yaml")
	fs.StringVarP(&o.addresses, "addresses", "a", "", "Comma-separated broker addresses (overrides config)")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
}

// NewRootCommand builds amqpctl.
func NewRootCommand(info *version.Info) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "amqpctl",
		Short: "Parse AMQP broker address lists and run commands against brokers",
		Long: `amqpctl parses comma-separated AMQP broker address lists, applies the
standard defaults (guest/guest@localhost, vhost "/", port 5672 or 5671) and
runs shell commands with a chosen broker exported as AMQP_* variables.`,
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	bindGlobalFlags(root.PersistentFlags(), &a.opts)

	root.AddCommand(
		newParseCommand(a),
		newExecCommand(a),
		newConfigCommand(a),
		newCommandsCommand(root),
		version.NewCommand(info),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := cliout.SetFormat(a.opts.output); err != nil {
		return err
	}

	cfg, err := config.Load(config.Options{
		ConfigFile: a.opts.configFile,
		EnvFiles:   a.opts.envFiles,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Level()
	if a.opts.debug {
		level = logutil.LevelDebug
	}
	logutil.Configure(cmd.ErrOrStderr(), level, cfg.Structured())
	logutil.Debug("configuration loaded", "file", cfg.File, "output", a.opts.output)
	return nil
}

// brokers resolves the address list from positional args, --addresses or
// the configuration, in that order.
func (a *app) brokers(args []string) (amqpaddr.List, error) {
	switch {
	case len(args) > 0:
		return amqpaddr.ParseList(strings.Join(args, ","))
	case strings.TrimSpace(a.opts.addresses) != "":
		return amqpaddr.ParseList(a.opts.addresses)
	default:
		return a.cfg.Brokers()
	}
}

// ExitCode maps an error returned by the root command to a process exit code.
// A failed exec command passes its exit status through.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cmdErr *cmdutil.CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode
	}
	return 1
}
