package metrics

// Compile-time checks that both recorders satisfy the interface.
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)
