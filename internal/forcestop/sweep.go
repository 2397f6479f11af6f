package forcestop

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/partsd/internal/events"
	"git.home.luguber.info/inful/partsd/internal/host"
	"git.home.luguber.info/inful/partsd/internal/logfields"
	"git.home.luguber.info/inful/partsd/internal/metrics"
)

// DeferredState is the lifecycle of one deferred stop.
type DeferredState int32

const (
	Pending DeferredState = iota
	Watching
	Stopped
	Cancelled
)

func (s DeferredState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Watching:
		return "watching"
	case Stopped:
		return "stopped"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the per-package result recorded in a sweep report.
type Outcome string

const (
	OutcomeStopped         Outcome = "stopped"          // stopped during the sweep
	OutcomeWatching        Outcome = "watching"         // waiting for playback to pause
	OutcomeDeferredStopped Outcome = "deferred_stopped" // stopped after playback paused
	OutcomeCancelled       Outcome = "cancelled"        // screen turned on first
	OutcomeFailed          Outcome = "failed"
)

// PackageResult is one package's entry in a Report.
type PackageResult struct {
	Package string    `json:"package"`
	Outcome Outcome   `json:"outcome"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// Report summarizes one sweep.
type Report struct {
	ID        string          `json:"id"`
	StartedAt time.Time       `json:"started_at"`
	Results   []PackageResult `json:"results"`
}

// Publisher receives sweep events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, evt any) error
}

// SweeperOptions configures a Sweeper.
type SweeperOptions struct {
	Recorder      metrics.Recorder
	Publisher     Publisher // optional
	ReportHistory int
}

// Sweeper runs screen-off sweeps over the Registry.
type Sweeper struct {
	registry   *Registry
	activities host.Activities
	sessions   host.MediaSessions
	recorder   metrics.Recorder
	publisher  Publisher
	history    int

	screenOn atomic.Bool
	watching atomic.Int64

	mu      sync.Mutex
	current *sweep
	reports []*Report
}

type sweep struct {
	id        string
	cancelled atomic.Bool

	mu    sync.Mutex
	stops []*deferredStop
}

type deferredStop struct {
	pkg   string
	sweep *sweep
	state atomic.Int32

	mu         sync.Mutex
	unregister func()
	released   bool
}

func (d *deferredStop) cas(from, to DeferredState) bool {
	return d.state.CompareAndSwap(int32(from), int32(to))
}

// setUnregister stores the observer's unregister func, calling it at once when
// the stop was already released.
func (d *deferredStop) setUnregister(fn func()) {
	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		fn()
		return
	}
	d.unregister = fn
	d.mu.Unlock()
}

func (d *deferredStop) release() {
	d.mu.Lock()
	d.released = true
	fn := d.unregister
	d.unregister = nil
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// NewSweeper returns a Sweeper. The screen is assumed on until the first Sweep.
func NewSweeper(registry *Registry, activities host.Activities, sessions host.MediaSessions, opts SweeperOptions) *Sweeper {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.ReportHistory <= 0 {
		opts.ReportHistory = 20
	}
	s := &Sweeper{
		registry:   registry,
		activities: activities,
		sessions:   sessions,
		recorder:   opts.Recorder,
		publisher:  opts.Publisher,
		history:    opts.ReportHistory,
	}
	s.screenOn.Store(true)
	return s
}

// ScreenIsOn reports the power state last seen by the sweeper.
func (s *Sweeper) ScreenIsOn() bool { return s.screenOn.Load() }

// Watching returns the number of deferred stops still waiting.
func (s *Sweeper) Watching() int { return int(s.watching.Load()) }

// Sweep stops every flagged package, deferring those with a playing media
// session until playback pauses or stops. Any previous sweep is cancelled
// first. It returns the sweep id.
func (s *Sweeper) Sweep(ctx context.Context) string {
	s.screenOn.Store(false)

	sw := &sweep{id: uuid.NewString()}
	report := &Report{ID: sw.id, StartedAt: time.Now()}

	s.mu.Lock()
	previous := s.current
	s.current = sw
	s.reports = append(s.reports, report)
	if len(s.reports) > s.history {
		s.reports = slices.Delete(s.reports, 0, len(s.reports)-s.history)
	}
	s.mu.Unlock()

	if previous != nil {
		s.cancel(previous)
	}

	s.recorder.IncSweep()
	if err := s.registry.Reload(ctx); err != nil {
		slog.Warn("Force-stop set reload failed, using cached set",
			logfields.SweepID(sw.id), logfields.Error(err))
	}
	flagged := s.registry.List()
	sessions, err := s.sessions.ActiveSessions(ctx)
	if err != nil {
		slog.Warn("Active media sessions unavailable, stopping all flagged packages",
			logfields.SweepID(sw.id), logfields.Error(err))
		sessions = nil
	}

	slog.Info("Screen-off sweep started",
		logfields.SweepID(sw.id),
		slog.Int("flagged", len(flagged)),
		slog.Int("sessions", len(sessions)))

	for _, pkg := range flagged {
		if session, ok := host.FindSession(sessions, pkg); ok && !session.State.Idle() {
			s.deferStop(sw, pkg, session.State)
			continue
		}
		s.stop(ctx, sw.id, pkg, metrics.StopImmediate, OutcomeStopped)
	}

	completed := events.SweepCompleted{SweepID: sw.id, At: time.Now()}
	for _, r := range s.report(sw.id).Results {
		switch r.Outcome {
		case OutcomeStopped:
			completed.Stopped = append(completed.Stopped, r.Package)
		case OutcomeWatching:
			completed.Watching = append(completed.Watching, r.Package)
		case OutcomeFailed:
			completed.Failed = append(completed.Failed, r.Package)
		}
	}
	s.emit(completed)
	return sw.id
}

// ScreenOn marks the screen on and cancels every deferred stop of the current sweep.
func (s *Sweeper) ScreenOn() {
	s.screenOn.Store(true)

	s.mu.Lock()
	sw := s.current
	s.current = nil
	s.mu.Unlock()

	if sw != nil {
		s.cancel(sw)
	}
}

func (s *Sweeper) deferStop(sw *sweep, pkg string, state host.PlaybackState) {
	d := &deferredStop{pkg: pkg, sweep: sw}

	sw.mu.Lock()
	if sw.cancelled.Load() {
		sw.mu.Unlock()
		s.record(sw.id, pkg, OutcomeCancelled, nil)
		return
	}
	// Record before d is visible to cancel.
	d.state.Store(int32(Watching))
	s.recorder.SetWatching(int(s.watching.Add(1)))
	s.record(sw.id, pkg, OutcomeWatching, nil)
	sw.stops = append(sw.stops, d)
	sw.mu.Unlock()

	slog.Info("Deferring force-stop until playback pauses",
		logfields.SweepID(sw.id),
		logfields.Package(pkg),
		logfields.State(state.String()))

	d.setUnregister(s.sessions.Watch(pkg, func(st host.PlaybackState) {
		s.onPlayback(d, st)
	}))
}

// onPlayback is the one-shot observer registered for a deferred stop.
func (s *Sweeper) onPlayback(d *deferredStop, state host.PlaybackState) {
	if d.sweep.cancelled.Load() || s.screenOn.Load() {
		s.cancelStop(d)
		return
	}
	if !state.Idle() {
		return
	}
	if !d.cas(Watching, Stopped) {
		return
	}
	d.release()
	s.recorder.SetWatching(int(s.watching.Add(-1)))
	s.stop(context.Background(), d.sweep.id, d.pkg, metrics.StopDeferred, OutcomeDeferredStopped)
}

func (s *Sweeper) cancel(sw *sweep) {
	sw.cancelled.Store(true)

	sw.mu.Lock()
	stops := slices.Clone(sw.stops)
	sw.mu.Unlock()

	for _, d := range stops {
		s.cancelStop(d)
	}
}

func (s *Sweeper) cancelStop(d *deferredStop) {
	if !d.cas(Watching, Cancelled) {
		return
	}
	d.release()
	s.recorder.SetWatching(int(s.watching.Add(-1)))
	s.recorder.IncDeferredCancelled()
	s.record(d.sweep.id, d.pkg, OutcomeCancelled, nil)
	slog.Info("Deferred force-stop cancelled", logfields.SweepID(d.sweep.id), logfields.Package(d.pkg))
}

func (s *Sweeper) stop(ctx context.Context, sweepID, pkg string, reason metrics.StopReason, outcome Outcome) {
	err := s.activities.ForceStop(ctx, pkg)
	s.recorder.IncForceStop(reason, err == nil)

	evt := events.PackageStopped{SweepID: sweepID, Package: pkg, Reason: string(reason), At: time.Now()}
	if err != nil {
		slog.Warn("Force-stop failed",
			logfields.SweepID(sweepID), logfields.Package(pkg), logfields.Error(err))
		s.record(sweepID, pkg, OutcomeFailed, err)
		evt.Error = err.Error()
	} else {
		slog.Info("Package force-stopped",
			logfields.SweepID(sweepID), logfields.Package(pkg), slog.String("reason", string(reason)))
		s.record(sweepID, pkg, outcome, nil)
	}
	s.emit(evt)
}

// StopNow force-stops pkg outside of a sweep.
func (s *Sweeper) StopNow(ctx context.Context, pkg string) error {
	err := s.activities.ForceStop(ctx, pkg)
	s.recorder.IncForceStop(metrics.StopManual, err == nil)
	evt := events.PackageStopped{Package: pkg, Reason: string(metrics.StopManual), At: time.Now()}
	if err != nil {
		evt.Error = err.Error()
	}
	s.emit(evt)
	return err
}

func (s *Sweeper) record(sweepID, pkg string, outcome Outcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.ID != sweepID {
			continue
		}
		res := PackageResult{Package: pkg, Outcome: outcome, At: time.Now()}
		if err != nil {
			res.Error = err.Error()
		}
		if i := slices.IndexFunc(r.Results, func(p PackageResult) bool { return p.Package == pkg }); i >= 0 {
			r.Results[i] = res
		} else {
			r.Results = append(r.Results, res)
		}
		return
	}
}

func (s *Sweeper) report(id string) Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.ID == id {
			return copyReport(r)
		}
	}
	return Report{ID: id}
}

// Reports returns the retained sweep reports, newest first.
func (s *Sweeper) Reports() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Report, 0, len(s.reports))
	for i := len(s.reports) - 1; i >= 0; i-- {
		out = append(out, copyReport(s.reports[i]))
	}
	return out
}

func copyReport(r *Report) Report {
	c := *r
	c.Results = slices.Clone(r.Results)
	return c
}

func (s *Sweeper) emit(evt any) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.Debug("Sweep event not published", logfields.Error(err))
	}
}
