// Package freeze disables ("freezes") a fixed list of system components.
package freeze

import (
	"context"
	"log/slog"
	"slices"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/host"
	"git.home.luguber.info/inful/partsd/internal/logfields"
)

// Component is an extra component with its frozen state.
type Component struct {
	Name   string `json:"name"`
	Frozen bool   `json:"frozen"`
	Error  string `json:"error,omitempty"`
}

// Service manages the configured components.
type Service struct {
	components host.Components
	names      []string
}

func NewService(components host.Components, names []string) *Service {
	return &Service{components: components, names: slices.Clone(names)}
}

// List returns every configured component. A component whose state cannot be
// read is reported not frozen with the error attached.
func (s *Service) List(ctx context.Context) []Component {
	out := make([]Component, 0, len(s.names))
	for _, name := range s.names {
		c := Component{Name: name}
		enabled, err := s.components.ComponentEnabled(ctx, name)
		if err != nil {
			slog.Warn("Component state unavailable", logfields.Component(name), logfields.Error(err))
			c.Error = err.Error()
		} else {
			c.Frozen = !enabled
		}
		out = append(out, c)
	}
	return out
}

// SetFrozen disables (frozen) or enables a configured component.
func (s *Service) SetFrozen(ctx context.Context, name string, frozen bool) error {
	if !slices.Contains(s.names, name) {
		return errors.NotFoundError("component is not configured").
			WithContext("component", name).
			Build()
	}
	if err := s.components.SetComponentEnabled(ctx, name, !frozen); err != nil {
		return err
	}
	slog.Info("Component state changed", logfields.Component(name), slog.Bool("frozen", frozen))
	return nil
}
