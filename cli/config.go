package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jongio/amqp-core/cliout"
	"github.com/jongio/amqp-core/config"
)

// configView is the resolved configuration with credentials removed.
type configView struct {
	File      string                `json:"file" yaml:"file"`
	Addresses []string              `json:"addresses" yaml:"addresses"`
	LogLevel  string                `json:"logLevel" yaml:"logLevel"`
	LogFormat string                `json:"logFormat" yaml:"logFormat"`
	Failover  config.FailoverConfig `json:"failover" yaml:"failover"`
}

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write amqpctl configuration",
	}
	cmd.AddCommand(newConfigShowCommand(a), newConfigInitCommand(a))
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration without credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view := configView{
				File:      a.cfg.File,
				Addresses: []string{},
				LogLevel:  a.cfg.LogLevel,
				LogFormat: a.cfg.LogFormat,
				Failover:  a.cfg.Failover,
			}
			if list, err := a.brokers(nil); err == nil {
				for _, addr := range list.All() {
					view.Addresses = append(view.Addresses, addr.String())
				}
			}

			return cliout.Print(view, func() {
				cliout.Header("Configuration")
				file := view.File
				if file == "" {
					file = "(none)"
				}
				cliout.Label("File", file)
				cliout.Label("Log level", view.LogLevel)
				cliout.Label("Log format", view.LogFormat)
				cliout.Label("Breaker", fmt.Sprintf("%d failures, %s open", view.Failover.BreakerFailures, view.Failover.BreakerTimeout))
				cliout.Label("Pacing", strconv.FormatFloat(view.Failover.AttemptsPerSecond, 'g', -1, 64)+"/s")
				cliout.Label("Metrics", strconv.FormatBool(view.Failover.EnableMetrics))
				cliout.Newline()
				cliout.Plain("Brokers:")
				for _, addr := range view.Addresses {
					cliout.Bullet("%s", addr)
				}
			})
		},
	}
}

func newConfigInitCommand(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the resolved configuration to a YAML file",
		Long: `Write the resolved configuration, including --addresses when given, to
path (default amqp.yaml). The file is created with owner-only permissions
because addresses may carry credentials.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName + "." + config.FileType
			if len(args) == 1 {
				path = args[0]
			}

			cfg := *a.cfg
			if a.opts.addresses != "" {
				list, err := a.brokers(nil)
				if err != nil {
					return err
				}
				cfg.Addresses = a.opts.addresses
				cliout.Info("Saving %d broker addresses", list.Len())
			}

			if err := config.Save(path, &cfg, force); err != nil {
				return err
			}
			cliout.Success("Wrote %s", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
