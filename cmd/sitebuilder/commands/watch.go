package commands

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Interval string `help:"Override watch.interval (e.g. 10m); 0 disables scheduled rebuilds"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if w.Interval != "" {
		d, err := parseInterval(w.Interval)
		if err != nil {
			return err
		}
		cfg.Watch.Interval = d
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	watcher := watch.New(func(ctx context.Context) error {
		_, err := s.build(ctx)
		return err
	}, watchOptions(cfg, s))
	return watcher.Run(ctx)
}

func watchOptions(cfg *config.Config, s *session) watch.Options {
	root, _ := filepath.Abs(cfg.Project.Root)
	output, _ := filepath.Abs(cfg.Output.Directory)
	opts := watch.Options{
		Root:          root,
		Ignore:        []string{output},
		Debounce:      cfg.Watch.Debounce,
		Interval:      cfg.Watch.Interval,
		MetricsListen: cfg.Metrics.Listen,
	}
	if h := s.metricsHandler(); h != nil {
		opts.MetricsHandler = h
	}
	// Writing the history database must not trigger another build.
	if cfg.History.Path != "" {
		db, _ := filepath.Abs(cfg.History.Path)
		opts.Ignore = append(opts.Ignore, db, db+"-journal", db+"-wal", db+"-shm")
	}
	return opts
}

func parseInterval(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, errors.ValidationError("invalid interval").
			WithContext("interval", raw).
			Build()
	}
	return d, nil
}
