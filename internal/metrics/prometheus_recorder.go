package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	resourceDuration *prom.HistogramVec
	resourceResults  *prom.CounterVec
	transforms       *prom.CounterVec
	buildDuration    prom.Histogram
	buildOutcome     *prom.CounterVec
	registered       prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		resourceDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "resource_duration_seconds",
			Help:      "Duration of processing a single resource",
			Buckets:   prom.DefBuckets,
		}, []string{"processor"}),
		resourceResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "resource_results_total",
			Help:      "Processed resources by processor and result",
		}, []string{"processor", "result"}),
		transforms: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "transform_replacements_total",
			Help:      "Element replacements by transformer and result",
		}, []string{"transformer", "result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		registered: prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitebuilder",
			Name:      "resources_registered",
			Help:      "Resources registered for the last build",
		}),
	}
	reg.MustRegister(pr.resourceDuration, pr.resourceResults, pr.transforms, pr.buildDuration, pr.buildOutcome, pr.registered)
	return pr
}

func (p *PrometheusRecorder) ObserveResourceDuration(processor string, d time.Duration) {
	p.resourceDuration.WithLabelValues(processor).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncResourceResult(processor string, result ResultLabel) {
	p.resourceResults.WithLabelValues(processor, string(result)).Inc()
}

func (p *PrometheusRecorder) IncTransform(transformer string, result ResultLabel) {
	p.transforms.WithLabelValues(transformer, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetResourcesRegistered(n int) {
	p.registered.Set(float64(n))
}
