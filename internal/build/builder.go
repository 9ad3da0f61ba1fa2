package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/events"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/processor"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
)

// ProcessorFunc selects the processor for a registered resource.
type ProcessorFunc func(sourcePath string, res resource.Resource) processor.Processor

// Status represents the outcome of a build.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Report summarizes a finished build.
type Report struct {
	BuildID   string
	StartTime time.Time
	Duration  time.Duration
	Resources int
	Bytes     int64
	Status    Status
	Err       error
}

// Builder writes every resource of Registry below OutputRoot.
type Builder struct {
	OutputRoot   string
	Registry     *resource.Registry
	ProcessorFor ProcessorFunc

	// Workers bounds concurrent processing; values below 1 mean sequential.
	Workers int
	// Clean removes OutputRoot before writing.
	Clean bool
	// ConfigHash is stored with the history record.
	ConfigHash string

	Recorder metrics.Recorder
	History  history.Store
	Events   events.Publisher
}

// Run performs one build. The returned report is never nil; err is the first
// failure encountered, if any.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	report := &Report{BuildID: uuid.NewString(), StartTime: time.Now()}
	log := slog.With(logfields.BuildID(report.BuildID))
	rec := b.recorder()

	rec.SetResourcesRegistered(b.Registry.Len())
	log.Info("Starting build", logfields.Output(b.OutputRoot), logfields.Count(b.Registry.Len()), "workers", b.workers())
	b.publish(ctx, log, events.BuildEvent{
		Type:      events.TypeBuildStarted,
		BuildID:   report.BuildID,
		Timestamp: report.StartTime,
		Resources: b.Registry.Len(),
	})

	err := b.run(ctx, report)
	report.Duration = time.Since(report.StartTime)
	report.Err = err
	switch {
	case err == nil:
		report.Status = StatusSuccess
	case stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded):
		report.Status = StatusCanceled
	default:
		report.Status = StatusFailed
	}

	rec.ObserveBuildDuration(report.Duration)
	rec.IncBuildOutcome(metrics.BuildOutcomeLabel(report.Status))
	b.persist(ctx, log, report)
	b.publish(ctx, log, finishedEvent(report))

	if err != nil {
		log.Error("Build failed", logfields.Error(err), logfields.DurationMS(float64(report.Duration.Milliseconds())))
		return report, err
	}
	log.Info("Build completed",
		logfields.Count(report.Resources),
		"bytes", report.Bytes,
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, nil
}

func (b *Builder) run(ctx context.Context, report *Report) error {
	if b.Clean {
		if err := b.cleanOutput(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(b.OutputRoot, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext(errors.ContextPath, b.OutputRoot).
			Build()
	}

	var resources, written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())
	for _, sourcePath := range b.Registry.Paths() {
		if gctx.Err() != nil {
			break
		}
		res, _ := b.Registry.Get(sourcePath)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := b.processOne(sourcePath, res)
			if err != nil {
				return err
			}
			resources.Add(1)
			written.Add(int64(n))
			return nil
		})
	}
	err := g.Wait()
	report.Resources = int(resources.Load())
	report.Bytes = written.Load()
	if err == nil {
		err = ctx.Err()
	}
	return err
}

func (b *Builder) processOne(sourcePath string, res resource.Resource) (int, error) {
	proc := b.ProcessorFor(sourcePath, res)
	rec := b.recorder()

	start := time.Now()
	data, err := proc.Process(res, sourcePath, b.Registry)
	rec.ObserveResourceDuration(proc.Name(), time.Since(start))
	if err != nil {
		rec.IncResourceResult(proc.Name(), metrics.ResultFailed)
		return 0, errors.Annotate(err, errors.ContextPath, sourcePath)
	}

	dest, err := b.destination(res)
	if err == nil {
		err = writeFile(dest, data)
	}
	if err != nil {
		rec.IncResourceResult(proc.Name(), metrics.ResultFailed)
		return 0, err
	}
	rec.IncResourceResult(proc.Name(), metrics.ResultSuccess)
	slog.Debug("Wrote resource",
		logfields.Path(sourcePath),
		logfields.Output(res.OutputPath()),
		logfields.Processor(proc.Name()),
		logfields.Bytes(len(data)))
	return len(data), nil
}

// destination maps a resource output path below OutputRoot, rejecting paths
// that would escape it.
func (b *Builder) destination(res resource.Resource) (string, error) {
	out := path.Clean(filepath.ToSlash(res.OutputPath()))
	if out == "." || out == ".." || strings.HasPrefix(out, "../") || path.IsAbs(out) {
		return "", errors.ValidationError("resource output path escapes the output directory").
			WithContext(errors.ContextPath, res.OutputPath()).
			WithContext(errors.ContextReference, res.Identifier()).
			Build()
	}
	return filepath.Join(b.OutputRoot, filepath.FromSlash(out)), nil
}

func writeFile(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext(errors.ContextPath, filepath.Dir(dest)).
			Build()
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write output file").
			WithContext(errors.ContextPath, dest).
			Build()
	}
	return nil
}

// cleanOutput removes the output directory unless it holds the project root.
func (b *Builder) cleanOutput() error {
	rel, err := filepath.Rel(b.OutputRoot, b.Registry.Root())
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.ValidationError("refusing to clean an output directory that contains the project root").
			WithContext(errors.ContextPath, b.OutputRoot).
			Build()
	}
	if err := os.RemoveAll(b.OutputRoot); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to clean output directory").
			WithContext(errors.ContextPath, b.OutputRoot).
			Build()
	}
	return nil
}

func (b *Builder) workers() int {
	if b.Workers < 1 {
		return 1
	}
	return b.Workers
}

func (b *Builder) recorder() metrics.Recorder {
	if b.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return b.Recorder
}
