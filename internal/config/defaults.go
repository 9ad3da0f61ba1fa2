package config

import (
	"strings"
	"time"
)

const (
	DefaultOutputDirectory = "site"
	DefaultTheme           = "monokai"
	DefaultMathBinary      = "katex"
	DefaultEventsSubject   = "sitebuilder.builds"
	DefaultDebounce        = 500 * time.Millisecond
	DefaultSourceDirectory = ".sitebuilder/checkout"
)

// Default returns the configuration used for keys absent from the YAML file.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Root:    ".",
			Sources: []SourceDir{{Path: ".", Recurse: true}},
			Extensions: ExtensionsConfig{
				HTML:     []string{".html", ".htm"},
				Markdown: []string{".md", ".markdown"},
				Static:   []string{".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".woff", ".woff2", ".txt"},
			},
		},
		Output:    OutputConfig{Directory: DefaultOutputDirectory, Clean: true},
		Links:     LinksConfig{Enabled: true},
		Math:      MathConfig{Enabled: false, Binary: DefaultMathBinary},
		Highlight: HighlightConfig{Enabled: true, Theme: DefaultTheme},
		Markdown:  MarkdownConfig{Enabled: true},
		Build:     BuildConfig{Workers: 1},
		Watch:     WatchConfig{Debounce: DefaultDebounce},
		Events:    EventsConfig{Subject: DefaultEventsSubject},
		Logging:   LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}

// applyDefaults fills values that were explicitly set to their zero value
// and normalizes loosely written fields.
func applyDefaults(cfg *Config) {
	if cfg.Project.Root == "" {
		cfg.Project.Root = "."
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDirectory
	}
	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = 1
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
	if cfg.Highlight.Theme == "" {
		cfg.Highlight.Theme = DefaultTheme
	}
	if cfg.Math.Binary == "" {
		cfg.Math.Binary = DefaultMathBinary
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultEventsSubject
	}
	if cfg.Source != nil {
		if cfg.Source.Branch == "" {
			cfg.Source.Branch = "main"
		}
		if cfg.Source.Directory == "" {
			cfg.Source.Directory = DefaultSourceDirectory
		}
	}

	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))

	ext := &cfg.Project.Extensions
	ext.HTML = normalizeExtensions(ext.HTML)
	ext.Markdown = normalizeExtensions(ext.Markdown)
	ext.Static = normalizeExtensions(ext.Static)
}

// normalizeExtensions lowercases entries and ensures a leading dot.
func normalizeExtensions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
