// Package build drives a full site build: every registered resource is run
// through its processor and written below the output root.
//
// Builds are fail-fast. The first resource error cancels the remaining work
// and is returned from Run. Metrics, history and events are optional sinks;
// their failures are logged and never fail a build.
package build
