package prefs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/partsd/internal/util/sets"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func TestStore_Strings(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, found, err := s.GetString(ctx, "thermal_control")
			require.NoError(t, err)
			require.False(t, found)

			require.NoError(t, s.PutString(ctx, "thermal_control", "a,:::::"))
			v, found, err := s.GetString(ctx, "thermal_control")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, "a,:::::", v)

			require.NoError(t, s.PutString(ctx, "thermal_control", ""))
			v, found, err = s.GetString(ctx, "thermal_control")
			require.NoError(t, err)
			require.True(t, found, "empty string is still a stored value")
			require.Empty(t, v)

			require.NoError(t, s.Remove(ctx, "thermal_control"))
			_, found, err = s.GetString(ctx, "thermal_control")
			require.NoError(t, err)
			require.False(t, found)
		})
	}
}

func TestStore_StringSets(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.PutStringSet(ctx, "forcestop_control", sets.New("b", "a")))
			got, found, err := s.GetStringSet(ctx, "forcestop_control")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, []string{"a", "b"}, sets.Sorted(got))

			// Empty sets are distinct from absent ones.
			require.NoError(t, s.PutStringSet(ctx, "forcestop_control", sets.New[string]()))
			got, found, err = s.GetStringSet(ctx, "forcestop_control")
			require.NoError(t, err)
			require.True(t, found)
			require.Empty(t, got)
		})
	}
}

func TestStore_KindMismatch(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.PutString(ctx, "k", "v"))
			_, _, err := s.GetStringSet(ctx, "k")
			require.True(t, errors.Is(err, ErrKindMismatch))
		})
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.PutStringSet(ctx, "forcestop_control", sets.New("tv.danmaku.bili")))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, found, err := s.GetStringSet(ctx, "forcestop_control")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, got.Has("tv.danmaku.bili"))
}

func TestMemoryStore_FailWrites(t *testing.T) {
	m := NewMemoryStore()
	m.FailWrites = true
	err := m.PutString(context.Background(), "k", "v")
	require.ErrorIs(t, err, ErrWriteFailed)
}
