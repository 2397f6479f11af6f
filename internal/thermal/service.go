package thermal

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/partsd/internal/logfields"
	"git.home.luguber.info/inful/partsd/internal/metrics"
)

// Service applies the foreground package's profile to the control node.
type Service struct {
	store    *Store
	control  *Control
	recorder metrics.Recorder

	mu       sync.Mutex
	previous string
}

// NewService wires a Store to a Control.
func NewService(store *Store, control *Control, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Service{store: store, control: control, recorder: recorder}
}

// Available reports whether the device exposes the thermal control node.
func (s *Service) Available() bool { return s.control.Available() }

// Apply writes pkg's profile code and returns the profile written.
func (s *Service) Apply(ctx context.Context, pkg string) (Profile, error) {
	profile, err := s.store.GetProfile(ctx, pkg)
	if err != nil {
		return Default, err
	}
	if err := s.control.Write(profile.Code()); err != nil {
		return profile, err
	}
	s.recorder.IncProfileApplied(profile.String())
	slog.Debug("Thermal profile applied",
		logfields.Package(pkg),
		logfields.Profile(profile.String()),
		logfields.Path(s.control.Path()))
	return profile, nil
}

// ApplyDefault writes the default profile code.
func (s *Service) ApplyDefault() error {
	if err := s.control.Write(Default.Code()); err != nil {
		return err
	}
	s.recorder.IncProfileApplied(Default.String())
	return nil
}

// OnForeground applies pkg's profile when the foreground package changed. It
// returns the profile and whether the node was written.
func (s *Service) OnForeground(ctx context.Context, pkg string) (Profile, bool, error) {
	s.mu.Lock()
	if pkg == s.previous {
		s.mu.Unlock()
		return Default, false, nil
	}
	s.previous = pkg
	s.mu.Unlock()

	if pkg == "" {
		if err := s.ApplyDefault(); err != nil {
			return Default, false, err
		}
		return Default, true, nil
	}
	profile, err := s.Apply(ctx, pkg)
	if err != nil {
		return profile, false, err
	}
	return profile, true, nil
}

// OnScreenOff resets the node to the default profile and forgets the previous
// foreground package so the next foreground change re-applies.
func (s *Service) OnScreenOff() error {
	s.mu.Lock()
	s.previous = ""
	s.mu.Unlock()
	return s.ApplyDefault()
}
