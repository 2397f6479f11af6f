package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPackage    = "package"
	KeyProfile    = "profile"
	KeySweepID    = "sweep_id"
	KeyComponent  = "component"
	KeyEvent      = "event"
	KeyState      = "playback_state"
	KeyPath       = "path"
	KeyCommand    = "command"
	KeyDurationMS = "duration_ms"
	KeyScheduleID = "schedule_id"
	KeySchedule   = "schedule_name"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Package(p string) slog.Attr      { return slog.String(KeyPackage, p) }
func Profile(p string) slog.Attr      { return slog.String(KeyProfile, p) }
func SweepID(id string) slog.Attr     { return slog.String(KeySweepID, id) }
func Component(c string) slog.Attr    { return slog.String(KeyComponent, c) }
func Event(e string) slog.Attr        { return slog.String(KeyEvent, e) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func ScheduleID(id string) slog.Attr  { return slog.String(KeyScheduleID, id) }
func ScheduleName(n string) slog.Attr { return slog.String(KeySchedule, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
