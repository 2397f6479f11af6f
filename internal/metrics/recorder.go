package metrics

import "time"

// StopReason labels why a package was force-stopped.
type StopReason string

const (
	StopImmediate StopReason = "immediate" // no playing media session at sweep time
	StopDeferred  StopReason = "deferred"  // playback paused/stopped after the sweep
	StopManual    StopReason = "manual"    // requested through the CLI/API
)

// Recorder defines observability hooks for sweeps, thermal profile changes and
// host calls. All methods must be safe on NoopRecorder.
type Recorder interface {
	IncSweep()
	IncForceStop(reason StopReason, success bool)
	IncDeferredCancelled()
	SetWatching(n int)
	IncProfileApplied(profile string)
	ObserveHostCommand(command string, d time.Duration, success bool)
	IncPrefsWriteFailure(key string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncSweep() {}
func (NoopRecorder) IncForceStop(StopReason, bool) {}
func (NoopRecorder) IncDeferredCancelled() {}
func (NoopRecorder) SetWatching(int) {}
func (NoopRecorder) IncProfileApplied(string) {}
func (NoopRecorder) ObserveHostCommand(string, time.Duration, bool) {}
func (NoopRecorder) IncPrefsWriteFailure(string) {}
