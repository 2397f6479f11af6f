// Package forcestop keeps the set of packages flagged "force-stop when idle"
// and stops them when the screen turns off.
package forcestop

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/host"
	"git.home.luguber.info/inful/partsd/internal/logfields"
	"git.home.luguber.info/inful/partsd/internal/metrics"
	"git.home.luguber.info/inful/partsd/internal/prefs"
	"git.home.luguber.info/inful/partsd/internal/util/sets"
)

// PrefsKey is the preference key holding the flagged package set.
const PrefsKey = "forcestop_control"

// Registry is the in-memory StopSet backed by prefs. Other processes may write
// the same key, so every mutation re-reads the stored set before writing it
// back, and Reload picks up changes made elsewhere.
type Registry struct {
	prefs    prefs.Store
	recorder metrics.Recorder

	mu        sync.RWMutex
	set       sets.Set[string]
	persisted bool // a value existed in prefs or was written since
}

// NewRegistry loads the persisted set.
func NewRegistry(ctx context.Context, p prefs.Store, recorder metrics.Recorder) (*Registry, error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	set, found, err := p.GetStringSet(ctx, PrefsKey)
	if err != nil {
		return nil, err
	}
	if set == nil {
		set = sets.New[string]()
	}
	return &Registry{prefs: p, recorder: recorder, set: set, persisted: found}, nil
}

// GetFlag reports whether pkg is flagged.
func (r *Registry) GetFlag(pkg string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.Has(pkg)
}

// SetFlag adds or removes pkg and persists the set. A persistence failure is
// logged and returned; the in-memory set keeps the change.
func (r *Registry) SetFlag(ctx context.Context, pkg string, enabled bool) error {
	if pkg == "" {
		return errors.ValidationError("package name is empty").Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reloadLocked(ctx); err != nil {
		return err
	}
	if enabled {
		r.set.Add(pkg)
	} else {
		r.set.Delete(pkg)
	}
	return r.persistLocked(ctx)
}

// List returns the flagged packages sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sets.Sorted(r.set)
}

// Snapshot returns a copy of the flagged set.
func (r *Registry) Snapshot() sets.Set[string] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.Clone()
}

// SeedDefaults flags the installed packages among defaults, but only when no
// set was ever persisted. Lookup failures count as "not installed". It returns
// the packages flagged.
func (r *Registry) SeedDefaults(ctx context.Context, packages host.Packages, defaults []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reloadLocked(ctx); err != nil {
		return nil, err
	}
	if r.persisted {
		return nil, nil
	}

	var seeded []string
	for _, pkg := range defaults {
		installed, err := packages.IsInstalled(ctx, pkg)
		if err != nil {
			slog.Warn("Package lookup failed while seeding force-stop defaults",
				logfields.Package(pkg), logfields.Error(err))
			continue
		}
		if installed {
			r.set.Add(pkg)
			seeded = append(seeded, pkg)
		}
	}
	if err := r.persistLocked(ctx); err != nil {
		return seeded, err
	}
	if len(seeded) > 0 {
		slog.Info("Seeded force-stop defaults", slog.Any("packages", seeded))
	}
	return seeded, nil
}

// Reload replaces the in-memory set with the stored one. On a read failure the
// in-memory set is kept.
func (r *Registry) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reloadLocked(ctx)
}

func (r *Registry) reloadLocked(ctx context.Context) error {
	set, found, err := r.prefs.GetStringSet(ctx, PrefsKey)
	if err != nil {
		return err
	}
	if !found {
		// Nothing stored yet: keep what this process holds.
		return nil
	}
	if set == nil {
		set = sets.New[string]()
	}
	r.set = set
	r.persisted = true
	return nil
}

func (r *Registry) persistLocked(ctx context.Context) error {
	if err := r.prefs.PutStringSet(ctx, PrefsKey, r.set); err != nil {
		r.recorder.IncPrefsWriteFailure(PrefsKey)
		slog.Error("Failed to persist force-stop set", logfields.Error(err))
		return err
	}
	r.persisted = true
	return nil
}
