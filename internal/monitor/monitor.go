// Package monitor polls device state and publishes change events on the bus.
package monitor

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/partsd/internal/config"
	"git.home.luguber.info/inful/partsd/internal/events"
	"git.home.luguber.info/inful/partsd/internal/host"
	"git.home.luguber.info/inful/partsd/internal/logfields"
	"git.home.luguber.info/inful/partsd/internal/util/sets"
)

// Source is the part of the host the monitor polls.
type Source interface {
	host.Display
	host.Foreground
	host.Packages
	ActiveSessions(ctx context.Context) ([]host.Session, error)
}

// Publisher receives change events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, evt any) error
}

// Intervals are the poll periods per observed state.
type Intervals struct {
	Screen     time.Duration
	Foreground time.Duration
	Packages   time.Duration
	Sessions   time.Duration
}

// IntervalsFromConfig maps the monitor config section.
func IntervalsFromConfig(cfg config.MonitorConfig) Intervals {
	return Intervals{
		Screen:     config.ParseDuration(cfg.ScreenInterval, time.Second),
		Foreground: config.ParseDuration(cfg.ForegroundInterval, 2*time.Second),
		Packages:   config.ParseDuration(cfg.PackagesInterval, time.Minute),
		Sessions:   config.ParseDuration(cfg.SessionsInterval, 5*time.Second),
	}
}

// Monitor tracks the last observed state and emits events only on change.
// The first observation of each state is a baseline and emits nothing, except
// for the foreground package, which is reported once known.
type Monitor struct {
	src   Source
	pub   Publisher
	sched *Scheduler

	mu         sync.Mutex
	ctx        context.Context
	intervals  Intervals
	jobs       []uuid.UUID
	screenOn   *bool
	foreground string
	packages   sets.Set[string]
	playback   map[string]host.PlaybackState
}

// New returns a stopped Monitor.
func New(src Source, pub Publisher, intervals Intervals) (*Monitor, error) {
	sched, err := NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Monitor{src: src, pub: pub, sched: sched, intervals: intervals, ctx: context.Background()}, nil
}

// Start takes a baseline of every state and schedules the poll jobs.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	m.CheckScreen(ctx)
	m.CheckPackages(ctx)
	m.CheckSessions(ctx)
	m.CheckForeground(ctx)

	if err := m.schedule(m.intervals); err != nil {
		return err
	}
	m.sched.Start()
	slog.Info("Device monitor started")
	return nil
}

// Stop shuts the poll jobs down.
func (m *Monitor) Stop() error {
	slog.Info("Stopping device monitor")
	return m.sched.Stop()
}

// Reschedule replaces the poll jobs with new intervals.
func (m *Monitor) Reschedule(intervals Intervals) error {
	m.mu.Lock()
	if intervals == m.intervals {
		m.mu.Unlock()
		return nil
	}
	old := m.jobs
	m.jobs = nil
	m.mu.Unlock()

	for _, id := range old {
		if err := m.sched.Remove(id); err != nil {
			slog.Warn("Failed to remove poll job", logfields.ScheduleID(id.String()), logfields.Error(err))
		}
	}
	if err := m.schedule(intervals); err != nil {
		return err
	}
	slog.Info("Device monitor rescheduled",
		slog.Duration("screen", intervals.Screen),
		slog.Duration("foreground", intervals.Foreground),
		slog.Duration("packages", intervals.Packages),
		slog.Duration("sessions", intervals.Sessions))
	return nil
}

func (m *Monitor) schedule(intervals Intervals) error {
	jobs := []struct {
		name     string
		interval time.Duration
		fn       func(context.Context)
	}{
		{"screen", intervals.Screen, m.CheckScreen},
		{"foreground", intervals.Foreground, m.CheckForeground},
		{"packages", intervals.Packages, m.CheckPackages},
		{"sessions", intervals.Sessions, m.CheckSessions},
	}

	ids := make([]uuid.UUID, 0, len(jobs))
	for _, j := range jobs {
		fn := j.fn
		id, err := m.sched.ScheduleEvery("poll-"+j.name, j.interval, func() { fn(m.context()) })
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	m.mu.Lock()
	m.intervals = intervals
	m.jobs = ids
	m.mu.Unlock()
	return nil
}

func (m *Monitor) context() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx
}

func (m *Monitor) publish(ctx context.Context, evt events.Event) {
	slog.Debug("Device event", logfields.Event(evt.Name()))
	if err := m.pub.Publish(ctx, evt); err != nil {
		slog.Warn("Failed to publish device event", logfields.Event(evt.Name()), logfields.Error(err))
	}
}

// CheckScreen polls the display state.
func (m *Monitor) CheckScreen(ctx context.Context) {
	on, err := m.src.ScreenOn(ctx)
	if err != nil {
		slog.Debug("Screen state poll failed", logfields.Error(err))
		return
	}

	m.mu.Lock()
	prev := m.screenOn
	m.screenOn = &on
	if !on {
		// The next foreground observation after wake is reported again.
		m.foreground = ""
	}
	m.mu.Unlock()

	if prev == nil || *prev == on {
		return
	}
	now := time.Now()
	if on {
		m.publish(ctx, events.ScreenOn{At: now})
	} else {
		m.publish(ctx, events.ScreenOff{At: now})
	}
}

// CheckForeground polls the resumed package while the screen is on.
func (m *Monitor) CheckForeground(ctx context.Context) {
	m.mu.Lock()
	off := m.screenOn != nil && !*m.screenOn
	m.mu.Unlock()
	if off {
		return
	}

	pkg, err := m.src.ForegroundPackage(ctx)
	if err != nil {
		slog.Debug("Foreground poll failed", logfields.Error(err))
		return
	}
	if pkg == "" {
		return
	}

	m.mu.Lock()
	prev := m.foreground
	m.foreground = pkg
	m.mu.Unlock()

	if prev != pkg {
		m.publish(ctx, events.ForegroundChanged{Package: pkg, Previous: prev, At: time.Now()})
	}
}

// CheckPackages polls the installed package list.
func (m *Monitor) CheckPackages(ctx context.Context) {
	installed, err := m.src.InstalledPackages(ctx)
	if err != nil {
		slog.Debug("Package list poll failed", logfields.Error(err))
		return
	}
	current := sets.New[string]()
	for _, p := range installed {
		current.Add(p.Name)
	}

	m.mu.Lock()
	prev := m.packages
	m.packages = current
	m.mu.Unlock()

	if prev == nil {
		return
	}
	var added, removed []string
	for name := range current {
		if !prev.Has(name) {
			added = append(added, name)
		}
	}
	for name := range prev {
		if !current.Has(name) {
			removed = append(removed, name)
		}
	}
	if len(added) == 0 && len(removed) == 0 {
		return
	}
	slices.Sort(added)
	slices.Sort(removed)
	m.publish(ctx, events.PackagesChanged{Added: added, Removed: removed, At: time.Now()})
}

// CheckSessions polls active media sessions and reports playback changes.
func (m *Monitor) CheckSessions(ctx context.Context) {
	sessions, err := m.src.ActiveSessions(ctx)
	if err != nil {
		slog.Debug("Media session poll failed", logfields.Error(err))
		return
	}
	current := make(map[string]host.PlaybackState, len(sessions))
	for _, s := range sessions {
		if _, ok := current[s.Package]; !ok {
			current[s.Package] = s.State
		}
	}

	m.mu.Lock()
	prev := m.playback
	m.playback = current
	m.mu.Unlock()

	if prev == nil {
		return
	}
	names := make([]string, 0, len(current))
	for pkg := range current {
		names = append(names, pkg)
	}
	slices.Sort(names)
	for _, pkg := range names {
		state := current[pkg]
		old, seen := prev[pkg]
		if seen && old == state {
			continue
		}
		evt := events.PlaybackStateChanged{Package: pkg, State: state.String(), At: time.Now()}
		if seen {
			evt.Previous = old.String()
		}
		m.publish(ctx, evt)
	}
}

// ScreenState returns the last observed display state and whether one is known.
func (m *Monitor) ScreenState() (on bool, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.screenOn == nil {
		return false, false
	}
	return *m.screenOn, true
}

// Foreground returns the last observed foreground package.
func (m *Monitor) Foreground() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.foreground
}
