// Package watch rebuilds a project whenever its files change, and optionally
// on a fixed interval.
package watch

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// BuildFunc performs one complete build.
type BuildFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	// Root is watched recursively.
	Root string
	// Ignore lists absolute directories whose events never trigger a build.
	Ignore []string
	// Debounce is the quiet period after the last event before rebuilding.
	Debounce time.Duration
	// Interval schedules additional rebuilds when positive.
	Interval time.Duration
	// MetricsListen, when set, serves MetricsHandler at /metrics.
	MetricsListen  string
	MetricsHandler http.Handler
}

// Watcher serializes builds triggered by filesystem events and the scheduler.
// At most one build runs at a time and requests arriving meanwhile collapse
// into a single follow-up build.
type Watcher struct {
	opts  Options
	build BuildFunc

	requests chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a Watcher that calls build for every rebuild.
func New(build BuildFunc, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	return &Watcher{opts: opts, build: build, requests: make(chan struct{}, 1)}
}

// Run builds once, then watches until ctx is canceled. Build failures are
// logged and do not stop watching.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create file watcher").Build()
	}
	defer func() { _ = fsw.Close() }()
	w.addDirsRecursive(fsw, w.opts.Root)

	if w.opts.Interval > 0 {
		sched, err := w.startScheduler()
		if err != nil {
			return err
		}
		defer func() { _ = sched.Shutdown() }()
	}

	if w.opts.MetricsListen != "" && w.opts.MetricsHandler != nil {
		srv := w.startMetricsServer()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("Metrics server shutdown error", logfields.Error(err))
			}
		}()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.rebuildLoop(ctx)
	}()
	w.request()

	slog.Info("Watching for changes", logfields.Path(w.opts.Root))
	err = w.eventLoop(ctx, fsw)
	w.stopTimer()
	wg.Wait()
	return err
}

// Trigger schedules a rebuild after the debounce period.
func (w *Watcher) Trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, w.request)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// request queues a rebuild without waiting; a queued request absorbs later ones.
func (w *Watcher) request() {
	select {
	case w.requests <- struct{}{}:
	default:
	}
}

func (w *Watcher) rebuildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.requests:
			if err := w.build(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping watcher")
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if w.shouldIgnore(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(fsw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.Trigger()
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != w.opts.Root && w.shouldIgnore(p) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			slog.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnore reports whether an event for p must not trigger a build:
// anything below an ignored directory, hidden entries and editor leftovers.
func (w *Watcher) shouldIgnore(p string) bool {
	for _, dir := range w.opts.Ignore {
		if rel, err := filepath.Rel(dir, p); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}

	if rel, err := filepath.Rel(w.opts.Root, p); err == nil && rel != "." {
		for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
			if strings.HasPrefix(seg, ".") {
				return true
			}
		}
	}

	base := filepath.Base(p)
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) ||
		base == "Thumbs.db"
}

func (w *Watcher) startScheduler() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create scheduler").Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(w.request),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to schedule periodic rebuild").
			WithContext("interval", w.opts.Interval.String()).
			Build()
	}
	slog.Info("Scheduled periodic rebuild", slog.Duration("interval", w.opts.Interval))
	s.Start()
	return s, nil
}

func (w *Watcher) startMetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", w.opts.MetricsHandler)
	srv := &http.Server{Addr: w.opts.MetricsListen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("Serving metrics", slog.String("listen", w.opts.MetricsListen))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	return srv
}
