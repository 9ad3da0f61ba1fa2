package metrics

import "time"

// ResultLabel enumerates per-resource and per-transformer result categories.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// BuildOutcomeLabel enumerates final build outcomes.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for builds, resources and transformers.
// Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveResourceDuration(processor string, d time.Duration)
	IncResourceResult(processor string, result ResultLabel)
	IncTransform(transformer string, result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	SetResourcesRegistered(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveResourceDuration(string, time.Duration) {}
func (NoopRecorder) IncResourceResult(string, ResultLabel)         {}
func (NoopRecorder) IncTransform(string, ResultLabel)              {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)            {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)             {}
func (NoopRecorder) SetResourcesRegistered(int)                    {}
