package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/outfleet/bget/pkg/optname"
)

// Config carries the validated run settings for a batch download. It is
// assembled from flags, environment and defaults in Load and handed to the
// download engine as a plain struct.
type Config struct {
	OutputDir      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxWorkers     int
	RetryCount     int
	RetryDelay     time.Duration
	LogFile        string
}

// AddRootPersistentFlags registers the flags shared by all commands and binds
// them through viper so every option can also be supplied via BGET_* env vars.
func AddRootPersistentFlags(cmd *cobra.Command) error {
	cmd.PersistentFlags().StringP(optname.OutputDir, "o", "downloads", "Directory downloaded files are written to")
	cmd.PersistentFlags().Duration(optname.ConnTimeout, 5*time.Second, "Timeout for establishing a connection, format is <number><unit>, e.g. 10s")
	cmd.PersistentFlags().Duration(optname.ReadTimeout, 30*time.Second, "Timeout for a single read from a response body")
	cmd.PersistentFlags().IntP(optname.MaxWorkers, "w", runtime.GOMAXPROCS(0), "Number of parallel download workers")
	cmd.PersistentFlags().IntP(optname.RetryCount, "r", 3, "Number of retries for a transiently failing download")
	cmd.PersistentFlags().Duration(optname.RetryDelay, 2*time.Second, "Fixed delay between retry attempts")
	cmd.PersistentFlags().String(optname.LogFile, "", "Also write log events to this file")
	cmd.PersistentFlags().BoolP(optname.Verbose, "v", false, "Verbose mode (equivalent to --log-level debug)")
	cmd.PersistentFlags().String(optname.LoggingLevel, "info", "Log level (debug, info, warn, error)")

	viper.SetEnvPrefix("BGET")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	return nil
}

// PersistentStartupProcessFlags applies the settings that must take effect
// before any command runs, currently just the log level.
func PersistentStartupProcessFlags() error {
	if viper.GetBool(optname.Verbose) {
		viper.Set(optname.LoggingLevel, "debug")
	}
	setLogLevel(viper.GetString(optname.LoggingLevel))
	return nil
}

// Load collects the bound options into a Config and validates them. A
// validation failure aborts the run before any download starts.
func Load() (Config, error) {
	cfg := Config{
		OutputDir:      viper.GetString(optname.OutputDir),
		ConnectTimeout: viper.GetDuration(optname.ConnTimeout),
		ReadTimeout:    viper.GetDuration(optname.ReadTimeout),
		MaxWorkers:     viper.GetInt(optname.MaxWorkers),
		RetryCount:     viper.GetInt(optname.RetryCount),
		RetryDelay:     viper.GetDuration(optname.RetryDelay),
		LogFile:        viper.GetString(optname.LogFile),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants the engine relies on.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("invalid config: output directory must not be empty")
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("invalid config: max workers must be >= 1, got %d", c.MaxWorkers)
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("invalid config: retry count must be >= 0, got %d", c.RetryCount)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("invalid config: retry delay must be >= 0, got %s", c.RetryDelay)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("invalid config: connect timeout must be >= 0, got %s", c.ConnectTimeout)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("invalid config: read timeout must be >= 0, got %s", c.ReadTimeout)
	}
	return nil
}

func setLogLevel(logLevel string) {
	switch logLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
