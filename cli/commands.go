package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jongio/amqp-core/cliout"
	"github.com/jongio/amqp-core/config"
)

// CommandMetadata describes one command of the tree.
type CommandMetadata struct {
	Name        []string          `json:"name" yaml:"name"`
	Short       string            `json:"short" yaml:"short"`
	Usage       string            `json:"usage,omitempty" yaml:"usage,omitempty"`
	Flags       []FlagMetadata    `json:"flags,omitempty" yaml:"flags,omitempty"`
	Subcommands []CommandMetadata `json:"subcommands,omitempty" yaml:"subcommands,omitempty"`
}

// FlagMetadata describes a flag for a command.
type FlagMetadata struct {
	Name        string `json:"name" yaml:"name"`
	Shorthand   string `json:"shorthand,omitempty" yaml:"shorthand,omitempty"`
	Description string `json:"description" yaml:"description"`
	Type        string `json:"type" yaml:"type"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
}

// EnvVarMetadata describes an environment variable read by the config loader.
type EnvVarMetadata struct {
	Name string `json:"name" yaml:"name"`
	Key  string `json:"key" yaml:"key"`
}

// Metadata is the output of the commands command.
type Metadata struct {
	Commands             []CommandMetadata `json:"commands" yaml:"commands"`
	EnvironmentVariables []EnvVarMetadata  `json:"environmentVariables" yaml:"environmentVariables"`
}

// GenerateMetadata introspects the command tree under root.
func GenerateMetadata(root *cobra.Command) *Metadata {
	m := &Metadata{Commands: generateCommands(root)}
	for _, key := range config.Keys() {
		m.EnvironmentVariables = append(m.EnvironmentVariables, EnvVarMetadata{
			Name: config.EnvVarName(key),
			Key:  key,
		})
	}
	return m
}

func newCommandsCommand(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:    "commands",
		Short:  "Describe the command tree, flags and environment variables",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := GenerateMetadata(root)
			return cliout.Print(m, func() {
				for _, c := range m.Commands {
					printCommand(c)
				}
				cliout.Header("Environment")
				for _, e := range m.EnvironmentVariables {
					cliout.Label(e.Name, e.Key)
				}
			})
		},
	}
}

func printCommand(c CommandMetadata) {
	cliout.Bullet("%s: %s", c.Usage, c.Short)
	for _, f := range c.Flags {
		cliout.Item("--%s (%s) %s", f.Name, f.Type, f.Description)
	}
	for _, sub := range c.Subcommands {
		printCommand(sub)
	}
}

func generateCommands(cmd *cobra.Command) []CommandMetadata {
	var commands []CommandMetadata
	for _, child := range cmd.Commands() {
		if child.Hidden || child.Name() == "help" || child.Name() == "completion" {
			continue
		}
		commands = append(commands, generateCommand(cmd, child))
	}
	return commands
}

func generateCommand(parent *cobra.Command, cmd *cobra.Command) CommandMetadata {
	meta := CommandMetadata{
		Name:  buildCommandPath(parent, cmd),
		Short: cmd.Short,
		Usage: cmd.UseLine(),
	}

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		meta.Flags = append(meta.Flags, FlagMetadata{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Description: f.Usage,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
		})
	})

	meta.Subcommands = generateCommands(cmd)
	return meta
}

func buildCommandPath(parent *cobra.Command, cmd *cobra.Command) []string {
	if parent != nil && parent.Name() != "" && parent.HasParent() {
		return append(buildCommandPath(parent.Parent(), parent), cmd.Name())
	}
	return []string{cmd.Name()}
}
