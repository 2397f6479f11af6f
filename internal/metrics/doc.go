// Package metrics provides the observability hooks for partsd.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so callers never nil-check:
//
//	sweeper := forcestop.NewSweeper(registry, host, metrics.NoopRecorder{})
//
// When the daemon exposes /metrics it swaps in a PrometheusRecorder bound to the
// registry served by HTTPHandler.
package metrics
