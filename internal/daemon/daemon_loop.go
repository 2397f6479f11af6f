package daemon

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/partsd/internal/events"
	"git.home.luguber.info/inful/partsd/internal/logfields"
)

// subscriptions are the event types the loop consumes. The loop never
// subscribes to the events it emits itself. Screen transitions share one
// channel so an off/on pair is handled in the order it was published.
type subscriptions struct {
	screen     <-chan events.ScreenEvent
	foreground <-chan events.ForegroundChanged
	packages   <-chan events.PackagesChanged
	unsub      []func()
}

func subscribe(bus *events.Bus) *subscriptions {
	s := &subscriptions{}
	var u func()
	s.screen, u = events.Subscribe[events.ScreenEvent](bus, 16)
	s.unsub = append(s.unsub, u)
	s.foreground, u = events.Subscribe[events.ForegroundChanged](bus, 16)
	s.unsub = append(s.unsub, u)
	s.packages, u = events.Subscribe[events.PackagesChanged](bus, 16)
	s.unsub = append(s.unsub, u)
	return s
}

func (s *subscriptions) close() {
	for _, u := range s.unsub {
		u()
	}
	s.unsub = nil
}

// mainLoop dispatches device events until ctx is done, Stop is called or the
// bus closes.
func (d *Daemon) mainLoop(ctx context.Context, subs *subscriptions) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("Main loop stopped by context cancellation")
			return
		case <-d.stopChan:
			slog.Info("Main loop stopped by stop signal")
			return
		case evt, ok := <-subs.screen:
			if !ok {
				return
			}
			if evt.IsOn() {
				d.handleScreenOn()
			} else {
				d.handleScreenOff(ctx)
			}
		case evt, ok := <-subs.foreground:
			if !ok {
				return
			}
			d.handleForeground(ctx, evt)
		case evt, ok := <-subs.packages:
			if !ok {
				return
			}
			d.handlePackages(evt)
		}
	}
}

func (d *Daemon) handleScreenOff(ctx context.Context) {
	if d.thermal != nil {
		if err := d.thermal.OnScreenOff(); err != nil {
			slog.Warn("Failed to reset thermal profile on screen off", logfields.Error(err))
		} else {
			d.publish(ctx, events.ProfileApplied{Profile: "default", At: time.Now()})
		}
	}
	id := d.sweeper.Sweep(ctx)
	slog.Debug("Screen off sweep dispatched", logfields.SweepID(id))
}

func (d *Daemon) handleScreenOn() {
	d.sweeper.ScreenOn()
}

func (d *Daemon) handleForeground(ctx context.Context, evt events.ForegroundChanged) {
	if d.thermal == nil {
		return
	}
	profile, applied, err := d.thermal.OnForeground(ctx, evt.Package)
	if err != nil {
		slog.Warn("Failed to apply thermal profile", logfields.Package(evt.Package), logfields.Error(err))
		return
	}
	if !applied {
		return
	}
	d.publish(ctx, events.ProfileApplied{Package: evt.Package, Profile: profile.String(), At: time.Now()})
}

// handlePackages only logs: flags and profiles of removed packages are kept so
// a reinstall restores them.
func (d *Daemon) handlePackages(evt events.PackagesChanged) {
	for _, pkg := range evt.Added {
		slog.Info("Package installed", logfields.Package(pkg))
	}
	for _, pkg := range evt.Removed {
		slog.Info("Package removed", logfields.Package(pkg), slog.Bool("forcestop", d.registry.GetFlag(pkg)))
	}
}

func (d *Daemon) publish(ctx context.Context, evt events.Event) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := d.bus.Publish(ctx, evt); err != nil {
		slog.Debug("Event not delivered", logfields.Event(evt.Name()), logfields.Error(err))
	}
}
