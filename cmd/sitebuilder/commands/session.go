package commands

import (
	"context"
	"log/slog"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/events"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
	"git.home.luguber.info/inful/sitebuilder/internal/source"
)

// session holds what survives across builds of one process: the rendering
// engines, the transform pipeline and the optional sinks.
type session struct {
	cfg      *config.Config
	pipeline *site.Pipeline
	recorder metrics.Recorder
	promReg  *prom.Registry
	history  history.Store
	events   events.Publisher
}

func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	engines, err := site.NewEngines(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, recorder: metrics.NoopRecorder{}}
	if cfg.Metrics.Listen != "" {
		s.promReg = prom.NewRegistry()
		s.recorder = metrics.NewPrometheusRecorder(s.promReg)
	}
	s.pipeline = site.NewPipeline(cfg, engines, s.recorder)

	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		s.history = store
	}
	if cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.events = pub
	}
	return s, nil
}

// registry syncs the git source, if any, and registers the project files.
func (s *session) registry(ctx context.Context) (*resource.Registry, error) {
	if s.cfg.Source != nil {
		if _, err := source.New(s.cfg.Source).Sync(ctx); err != nil {
			return nil, err
		}
	}
	reg := resource.NewRegistry(s.cfg.Project.Root)
	if err := site.Register(reg, s.cfg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *session) build(ctx context.Context) (*build.Report, error) {
	reg, err := s.registry(ctx)
	if err != nil {
		return nil, err
	}
	b := &build.Builder{
		OutputRoot:   s.cfg.Output.Directory,
		Registry:     reg,
		ProcessorFor: s.pipeline.ProcessorFor,
		Workers:      s.cfg.Build.Workers,
		Clean:        s.cfg.Output.Clean,
		ConfigHash:   s.cfg.Snapshot(),
		Recorder:     s.recorder,
		History:      s.history,
		Events:       s.events,
	}
	return b.Run(ctx)
}

// metricsHandler returns nil when metrics are disabled.
func (s *session) metricsHandler() http.Handler {
	if s.promReg == nil {
		return nil
	}
	return metrics.HTTPHandler(s.promReg)
}

func (s *session) Close() {
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			slog.Warn("Failed to close build history", logfields.Error(err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			slog.Warn("Failed to close event publisher", logfields.Error(err))
		}
	}
}
