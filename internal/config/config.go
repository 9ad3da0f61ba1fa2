// Package config loads and validates the sitebuilder YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Config is the complete sitebuilder configuration.
type Config struct {
	Project   ProjectConfig     `yaml:"project"`
	Output    OutputConfig      `yaml:"output"`
	Variables map[string]string `yaml:"variables,omitempty"`
	Links     LinksConfig       `yaml:"links"`
	Math      MathConfig        `yaml:"math"`
	Highlight HighlightConfig   `yaml:"highlight"`
	Markdown  MarkdownConfig    `yaml:"markdown"`
	Build     BuildConfig       `yaml:"build"`
	Watch     WatchConfig       `yaml:"watch"`
	Metrics   MetricsConfig     `yaml:"metrics"`
	History   HistoryConfig     `yaml:"history"`
	Events    EventsConfig      `yaml:"events"`
	Source    *SourceConfig     `yaml:"source,omitempty"`
	Logging   LoggingConfig     `yaml:"logging"`
}

// ProjectConfig describes where sources live and how files are classified.
type ProjectConfig struct {
	Root       string           `yaml:"root"`
	Sources    []SourceDir      `yaml:"sources"`
	Extensions ExtensionsConfig `yaml:"extensions"`
}

// SourceDir is a directory registered relative to the project root.
type SourceDir struct {
	Path    string `yaml:"path"`
	Recurse bool   `yaml:"recurse"`
}

// ExtensionsConfig lists the file extensions per resource kind. Files with
// any other extension are not registered.
type ExtensionsConfig struct {
	HTML     []string `yaml:"html"`
	Markdown []string `yaml:"markdown"`
	Static   []string `yaml:"static"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
	Trim      bool   `yaml:"trim"`  // Strip insignificant whitespace from documents
}

type LinksConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MathConfig configures the katex command line renderer.
type MathConfig struct {
	Enabled bool   `yaml:"enabled"`
	Binary  string `yaml:"binary"`
	// Version pins the stylesheet version. Detected from the binary when empty.
	Version string `yaml:"version,omitempty"`
}

type HighlightConfig struct {
	Enabled bool   `yaml:"enabled"`
	Theme   string `yaml:"theme"`
}

type MarkdownConfig struct {
	Enabled bool `yaml:"enabled"`
}

type BuildConfig struct {
	Workers int `yaml:"workers"`
}

// WatchConfig controls the watch command. An Interval of zero disables
// scheduled rebuilds.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Interval time.Duration `yaml:"interval"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// HistoryConfig enables the SQLite build history when Path is set.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// EventsConfig enables build event publishing when NATSURL is set.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject"`
}

// SourceConfig checks the project out of a git repository before building.
type SourceConfig struct {
	URL       string `yaml:"url"`
	Branch    string `yaml:"branch,omitempty"`
	Directory string `yaml:"directory,omitempty"`
	Token     string `yaml:"token,omitempty"`
	// Retries is how often a failed clone or fetch is retried.
	Retries    int           `yaml:"retries"`
	Backoff    string        `yaml:"backoff,omitempty"` // fixed|linear|exponential
	RetryDelay time.Duration `yaml:"retry_delay,omitempty"`
}

type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads configPath, expands environment variables, applies defaults and
// validates the result. Relative root and output paths are resolved against
// the directory holding the configuration file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext(errors.ContextPath, configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext(errors.ContextPath, configPath).
			Fatal().
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Annotate(err, errors.ContextPath, configPath)
	}
	cfg.resolvePaths(filepath.Dir(configPath))
	return cfg, nil
}

// Parse decodes YAML on top of Default, then normalizes and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandEnv(string(data))), cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
			Fatal().
			Build()
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references. Bare $name is left alone since it is
// the variable sigil used inside documents.
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(m[2 : len(m)-1])
	})
}

// resolvePaths makes relative paths absolute. With a git source the project
// root is relative to the checkout directory.
func (c *Config) resolvePaths(base string) {
	rootBase := base
	if c.Source != nil {
		if !filepath.IsAbs(c.Source.Directory) {
			c.Source.Directory = filepath.Join(base, c.Source.Directory)
		}
		rootBase = c.Source.Directory
	}
	if !filepath.IsAbs(c.Project.Root) {
		c.Project.Root = filepath.Join(rootBase, c.Project.Root)
	}
	if !filepath.IsAbs(c.Output.Directory) {
		c.Output.Directory = filepath.Join(base, c.Output.Directory)
	}
	if c.History.Path != "" && !filepath.IsAbs(c.History.Path) {
		c.History.Path = filepath.Join(base, c.History.Path)
	}
}

// String renders a one-line summary for logs.
func (c *Config) String() string {
	return fmt.Sprintf("root=%s output=%s sources=%d workers=%d", c.Project.Root, c.Output.Directory, len(c.Project.Sources), c.Build.Workers)
}

// UnmarshalYAML accepts either a bare path or a mapping. Recurse defaults to true.
func (s *SourceDir) UnmarshalYAML(value *yaml.Node) error {
	type plain SourceDir
	p := plain{Recurse: true}
	if value.Kind == yaml.ScalarNode {
		p.Path = value.Value
		*s = SourceDir(p)
		return nil
	}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = SourceDir(p)
	return nil
}
