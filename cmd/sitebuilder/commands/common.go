package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitebuilder.yaml" env:"SITEBUILDER_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build     BuildCmd     `cmd:"" help:"Build the site once"`
	Watch     WatchCmd     `cmd:"" help:"Rebuild the site whenever sources change"`
	Init      InitCmd      `cmd:"" help:"Initialize a new configuration file"`
	Resources ResourcesCmd `cmd:"" help:"List the resources a build would generate"`
	History   HistoryCmd   `cmd:"" help:"Show recorded builds"`
}

// AfterApply runs after flag parsing; logging is configured from the
// environment until a configuration file has been loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	c.configureLogging(config.LoggingConfig{Level: config.LogLevelInfo, Format: config.LogFormatText})
	return nil
}

// loadConfig reads the configuration file and reapplies logging settings.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	c.configureLogging(cfg.Logging)
	slog.Debug("Loaded configuration", "config", cfg.String())
	return cfg, nil
}

// configureLogging installs the default logger. Precedence: --verbose, then
// SITEBUILDER_LOG_LEVEL / SITEBUILDER_LOG_FORMAT, then configuration.
func (c *CLI) configureLogging(lc config.LoggingConfig) {
	level := lc.Level
	if env := os.Getenv("SITEBUILDER_LOG_LEVEL"); env != "" {
		level = config.NormalizeLogLevel(env)
	}
	if c.Verbose {
		level = config.LogLevelDebug
	}
	format := lc.Format
	if env := os.Getenv("SITEBUILDER_LOG_FORMAT"); env != "" {
		format = config.NormalizeLogFormat(env)
	}
	slog.SetDefault(newLogger(os.Stderr, level, format))
}

func newLogger(w io.Writer, level config.LogLevel, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
