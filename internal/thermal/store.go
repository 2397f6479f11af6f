package thermal

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/logfields"
	"git.home.luguber.info/inful/partsd/internal/prefs"
)

// PrefsKey is the preference key holding the serialized profile table.
const PrefsKey = "thermal_control"

// Assignment pairs a package with its profile.
type Assignment struct {
	Package string  `json:"package"`
	Profile Profile `json:"profile"`
}

// Store reads and writes the package-to-profile table.
type Store struct {
	prefs prefs.Store
	mu    sync.Mutex
}

// NewStore returns a Store persisting to p.
func NewStore(p prefs.Store) *Store {
	return &Store{prefs: p}
}

// Value returns the stored table string, first replacing a missing or
// malformed value with six empty buckets.
func (s *Store) Value(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// GetProfile returns the profile assigned to pkg, Default when unassigned.
func (s *Store) GetProfile(ctx context.Context, pkg string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.load(ctx)
	if err != nil {
		return Default, err
	}
	return t.Lookup(pkg), nil
}

// SetProfile assigns pkg to profile and persists the whole table.
func (s *Store) SetProfile(ctx context.Context, pkg string, profile Profile) error {
	if err := ValidatePackageName(pkg); err != nil {
		return err
	}
	if !profile.Valid() {
		return errors.ValidationError("unknown thermal profile").WithContext("profile", int(profile)).Build()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.load(ctx)
	if err != nil {
		return err
	}
	t.Assign(pkg, profile)
	if err := s.prefs.PutString(ctx, PrefsKey, t.String()); err != nil {
		return err
	}
	slog.Debug("Thermal profile assigned", logfields.Package(pkg), logfields.Profile(profile.String()))
	return nil
}

// List returns every non-default assignment in profile order.
func (s *Store) List(ctx context.Context) ([]Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []Assignment
	for _, p := range Profiles[1:] {
		for _, pkg := range t.Packages(p) {
			out = append(out, Assignment{Package: pkg, Profile: p})
		}
	}
	return out, nil
}

// load must be called with s.mu held.
func (s *Store) load(ctx context.Context) (Table, error) {
	value, found, err := s.prefs.GetString(ctx, PrefsKey)
	if err != nil {
		return Table{}, err
	}
	if t, ok := ParseTable(value); found && ok {
		return t, nil
	}
	if found {
		slog.Warn("Discarding malformed thermal profile table", slog.Int("length", len(value)))
	}
	var empty Table
	if err := s.prefs.PutString(ctx, PrefsKey, empty.String()); err != nil {
		return Table{}, err
	}
	return empty, nil
}
