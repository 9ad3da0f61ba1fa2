package config

import (
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Validate checks the configuration for values that cannot produce a build.
func Validate(cfg *Config) error {
	if err := validateProject(&cfg.Project); err != nil {
		return err
	}
	if cfg.Build.Workers < 1 {
		return errors.ValidationError("build.workers must be at least 1").
			WithContext("workers", cfg.Build.Workers).
			Build()
	}
	if cfg.Watch.Interval < 0 {
		return errors.ValidationError("watch.interval must not be negative").Build()
	}
	if cfg.Source != nil && cfg.Source.URL == "" {
		return errors.ValidationError("source.url is required when source is configured").Build()
	}
	if cfg.Source != nil && cfg.Source.Retries < 0 {
		return errors.ValidationError("source.retries must not be negative").Build()
	}
	if strings.TrimSpace(cfg.Events.Subject) == "" && cfg.Events.NATSURL != "" {
		return errors.ValidationError("events.subject is required when events.nats_url is set").Build()
	}
	for name := range cfg.Variables {
		if name == "" || strings.ContainsAny(name, " \t\n/>") {
			return errors.ValidationError("invalid variable name").
				WithContext(errors.ContextReference, name).
				Build()
		}
	}
	return nil
}

func validateProject(p *ProjectConfig) error {
	if len(p.Sources) == 0 {
		return errors.ValidationError("project.sources must list at least one directory").Build()
	}
	for _, src := range p.Sources {
		if src.Path == "" {
			return errors.ValidationError("source directory path cannot be empty").Build()
		}
		clean := path.Clean(filepath.ToSlash(src.Path))
		if filepath.IsAbs(src.Path) || clean == ".." || strings.HasPrefix(clean, "../") {
			return errors.ValidationError("source directory must be inside the project root").
				WithContext(errors.ContextPath, src.Path).
				Build()
		}
	}

	seen := make(map[string]string)
	for kind, list := range map[string][]string{
		"html":     p.Extensions.HTML,
		"markdown": p.Extensions.Markdown,
		"static":   p.Extensions.Static,
	} {
		for _, ext := range list {
			if other, ok := seen[ext]; ok && other != kind {
				return errors.ValidationError("extension listed for more than one kind").
					WithContext("extension", ext).
					Build()
			}
			seen[ext] = kind
		}
	}
	return nil
}
