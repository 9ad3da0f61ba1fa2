// Package metrics provides build observability for sitebuilder.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	b := &build.Builder{Recorder: metrics.NoopRecorder{}}
//
// When a listen address is configured the watch command swaps in a
// PrometheusRecorder and serves its registry through HTTPHandler.
package metrics
