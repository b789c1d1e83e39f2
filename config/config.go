// Package config loads amqpctl settings from defaults, an optional YAML file,
// optional .env files and AMQP_* environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"braces.dev/errtrace"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jongio/amqp-core/amqpaddr"
	"github.com/jongio/amqp-core/env"
	"github.com/jongio/amqp-core/failover"
	"github.com/jongio/amqp-core/fileutil"
	"github.com/jongio/amqp-core/logutil"
	"github.com/jongio/amqp-core/security"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "AMQP"
	// FileName is the config file name searched for when Options.ConfigFile is empty.
	FileName = "amqp"
	// FileType is the only supported config file format.
	FileType = "yaml"
)

// Log formats accepted in log_format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// ErrNoAddresses is returned by Brokers when no addresses are configured.
var ErrNoAddresses = errors.New("no broker addresses configured")

// Options controls where Load looks for settings.
type Options struct {
	// ConfigFile is an explicit config file. It must exist when set.
	ConfigFile string
	// SearchPaths are searched for amqp.yaml when ConfigFile is empty.
	// Defaults to the current directory.
	SearchPaths []string
	// EnvFiles are .env files applied below the process environment.
	EnvFiles []string
}

// FailoverConfig mirrors failover.Config.
type FailoverConfig struct {
	BreakerFailures   int           `mapstructure:"breaker_failures" yaml:"breaker_failures" json:"breakerFailures"`
	BreakerTimeout    time.Duration `mapstructure:"breaker_timeout" yaml:"breaker_timeout" json:"breakerTimeout"`
	AttemptsPerSecond float64       `mapstructure:"attempts_per_second" yaml:"attempts_per_second" json:"attemptsPerSecond"`
	EnableMetrics     bool          `mapstructure:"enable_metrics" yaml:"enable_metrics" json:"enableMetrics"`
}

// Config holds the resolved settings.
type Config struct {
	// Addresses is a comma-separated broker address list.
	Addresses string         `mapstructure:"addresses" yaml:"addresses" json:"addresses"`
	LogLevel  string         `mapstructure:"log_level" yaml:"log_level" json:"logLevel"`
	LogFormat string         `mapstructure:"log_format" yaml:"log_format" json:"logFormat"`
	Failover  FailoverConfig `mapstructure:"failover" yaml:"failover" json:"failover"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-" json:"file,omitempty"`
}

func defaults() map[string]any {
	d := failover.DefaultConfig()
	return map[string]any{
		"addresses":                    "",
		"log_level":                    logutil.LevelInfo.String(),
		"log_format":                   LogFormatText,
		"failover.breaker_failures":    d.BreakerFailures,
		"failover.breaker_timeout":     d.BreakerTimeout,
		"failover.attempts_per_second": d.AttemptsPerSecond,
		"failover.enable_metrics":      d.EnableMetrics,
	}
}

// Keys returns every config key, sorted.
func Keys() []string {
	return slices.Sorted(maps.Keys(defaults()))
}

// Load resolves the configuration described by opts.
func Load(opts Options) (*Config, error) {
	v := viper.New()

	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	if err := readConfigFile(v, opts); err != nil {
		return nil, errtrace.Wrap(err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := applyEnvFiles(v, opts.EnvFiles); err != nil {
		return nil, errtrace.Wrap(err)
	}

	if list, ok := v.Get("addresses").([]any); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, fmt.Sprint(item))
		}
		v.Set("addresses", strings.Join(parts, ","))
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errtrace.Errorf("failed to decode config: %w", err)
	}
	c.File = v.ConfigFileUsed()

	if err := c.Validate(); err != nil {
		return nil, errtrace.Wrap(err)
	}

	return &c, nil
}

func readConfigFile(v *viper.Viper, opts Options) error {
	v.SetConfigType(FileType)

	if opts.ConfigFile != "" {
		if err := security.ValidatePath(opts.ConfigFile); err != nil {
			return errtrace.Errorf("invalid config file path: %w", err)
		}
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(FileName)
		paths := opts.SearchPaths
		if len(paths) == 0 {
			paths = []string{"."}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return errtrace.Errorf("failed to read config file: %w", err)
	}

	if used := v.ConfigFileUsed(); used != "" {
		if err := security.ValidateFilePermissions(used); err != nil {
			logutil.Warn("config file may expose broker credentials", "file", used, "error", err)
		}
	}
	return nil
}

// applyEnvFiles sets every known key found in the .env files, unless the
// process environment already defines it.
func applyEnvFiles(v *viper.Viper, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	values, err := env.ReadFiles(paths...)
	if err != nil {
		return errtrace.Wrap(err)
	}

	for _, key := range v.AllKeys() {
		name := EnvVarName(key)
		value, ok := values[name]
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		v.Set(key, value)
	}
	return nil
}

// EnvVarName returns the environment variable that overrides a config key,
// for example failover.breaker_timeout becomes AMQP_FAILOVER_BREAKER_TIMEOUT.
func EnvVarName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	levels := []string{"debug", "info", "warn", "warning", "error"}
	if !slices.Contains(levels, strings.ToLower(strings.TrimSpace(c.LogLevel))) {
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("invalid log_format %q: must be %s or %s", c.LogFormat, LogFormatText, LogFormatJSON)
	}
	if c.Failover.BreakerFailures < 0 {
		return fmt.Errorf("invalid failover.breaker_failures %d: must not be negative", c.Failover.BreakerFailures)
	}
	if c.Failover.BreakerTimeout < 0 {
		return fmt.Errorf("invalid failover.breaker_timeout %s: must not be negative", c.Failover.BreakerTimeout)
	}
	if c.Failover.AttemptsPerSecond < 0 {
		return fmt.Errorf("invalid failover.attempts_per_second %g: must not be negative", c.Failover.AttemptsPerSecond)
	}
	if strings.TrimSpace(c.Addresses) != "" {
		if _, err := c.Brokers(); err != nil {
			return fmt.Errorf("invalid addresses: %w", err)
		}
	}
	return nil
}

// Brokers parses Addresses.
func (c *Config) Brokers() (amqpaddr.List, error) {
	if strings.TrimSpace(c.Addresses) == "" {
		return amqpaddr.List{}, ErrNoAddresses
	}
	return amqpaddr.ParseList(c.Addresses)
}

// Level returns the configured log level.
func (c *Config) Level() logutil.Level {
	return logutil.ParseLevel(c.LogLevel)
}

// Structured reports whether logs should be JSON.
func (c *Config) Structured() bool {
	return c.LogFormat == LogFormatJSON
}

// FailoverSettings converts the failover section for failover.NewSelector.
func (c *Config) FailoverSettings() failover.Config {
	return failover.Config{
		BreakerFailures:   c.Failover.BreakerFailures,
		BreakerTimeout:    c.Failover.BreakerTimeout,
		AttemptsPerSecond: c.Failover.AttemptsPerSecond,
		EnableMetrics:     c.Failover.EnableMetrics,
	}
}

// Save writes c to path as YAML with owner-only permissions. An existing
// file is replaced only when overwrite is set.
func Save(path string, c *Config, overwrite bool) error {
	if err := security.ValidatePath(path); err != nil {
		return errtrace.Errorf("invalid config file path: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errtrace.Errorf("failed to encode config: %w", err)
	}

	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return errtrace.Wrap(err)
	}

	write := fileutil.WriteNew
	if overwrite {
		write = fileutil.AtomicWriteFile
	}
	if err := write(path, data, fileutil.SecretFilePermission); err != nil {
		return errtrace.Errorf("failed to write config file: %w", err)
	}
	return nil
}
