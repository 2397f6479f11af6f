package host

import "strconv"

// PlaybackState mirrors the platform's playback state codes.
type PlaybackState int

const (
	StateNone PlaybackState = iota
	StateStopped
	StatePaused
	StatePlaying
	StateFastForwarding
	StateRewinding
	StateBuffering
	StateError
	StateConnecting
	StateSkippingToPrevious
	StateSkippingToNext
	StateSkippingToQueueItem
)

var stateNames = [...]string{
	"none", "stopped", "paused", "playing", "fast_forwarding", "rewinding",
	"buffering", "error", "connecting", "skipping_to_previous", "skipping_to_next",
	"skipping_to_queue_item",
}

func (s PlaybackState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Idle reports whether the session is paused or stopped.
func (s PlaybackState) Idle() bool {
	return s == StatePaused || s == StateStopped
}

// Session is one active media session.
type Session struct {
	Package string        `json:"package"`
	State   PlaybackState `json:"state"`
}

// FindSession returns the first session owned by pkg.
func FindSession(sessions []Session, pkg string) (Session, bool) {
	for _, s := range sessions {
		if s.Package == pkg {
			return s, true
		}
	}
	return Session{}, false
}
