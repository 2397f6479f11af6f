package events

import "time"

// Event is implemented by every event published on the bus.
type Event interface {
	// Name is the dotted event name used for logs and notification subjects.
	Name() string
}

// ScreenEvent is implemented by ScreenOff and ScreenOn. A subscription to it
// receives both on one channel in publish order.
type ScreenEvent interface {
	Event
	IsOn() bool
}

// ScreenOff is published when the display turns off.
type ScreenOff struct {
	At time.Time `json:"at"`
}

// ScreenOn is published when the display turns on.
type ScreenOn struct {
	At time.Time `json:"at"`
}

// ForegroundChanged carries the new foreground package; empty when unknown.
type ForegroundChanged struct {
	Package  string    `json:"package"`
	Previous string    `json:"previous,omitempty"`
	At       time.Time `json:"at"`
}

// PackagesChanged reports the installed-package delta between two polls.
type PackagesChanged struct {
	Added   []string  `json:"added,omitempty"`
	Removed []string  `json:"removed,omitempty"`
	At      time.Time `json:"at"`
}

// PlaybackStateChanged reports a media session whose playback state moved.
type PlaybackStateChanged struct {
	Package  string    `json:"package"`
	State    string    `json:"state"`
	Previous string    `json:"previous,omitempty"`
	At       time.Time `json:"at"`
}

// SweepCompleted is published after a screen-off sweep was dispatched.
type SweepCompleted struct {
	SweepID  string    `json:"sweep_id"`
	Stopped  []string  `json:"stopped,omitempty"`
	Watching []string  `json:"watching,omitempty"`
	Failed   []string  `json:"failed,omitempty"`
	At       time.Time `json:"at"`
}

// PackageStopped is published for every force-stop the daemon issued.
type PackageStopped struct {
	SweepID string    `json:"sweep_id,omitempty"`
	Package string    `json:"package"`
	Reason  string    `json:"reason"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// ProfileApplied is published when a thermal profile was written to the device.
type ProfileApplied struct {
	Package string    `json:"package,omitempty"`
	Profile string    `json:"profile"`
	At      time.Time `json:"at"`
}

func (ScreenOff) IsOn() bool { return false }
func (ScreenOn) IsOn() bool  { return true }

func (ScreenOff) Name() string            { return "screen.off" }
func (ScreenOn) Name() string             { return "screen.on" }
func (ForegroundChanged) Name() string    { return "foreground.changed" }
func (PackagesChanged) Name() string      { return "packages.changed" }
func (PlaybackStateChanged) Name() string { return "playback.changed" }
func (SweepCompleted) Name() string       { return "sweep.completed" }
func (PackageStopped) Name() string       { return "package.stopped" }
func (ProfileApplied) Name() string       { return "profile.applied" }
