package thermal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/partsd/internal/prefs"
)

func TestStoreSetGetProfile(t *testing.T) {
	ctx := context.Background()
	s := NewStore(prefs.NewMemoryStore())

	for _, p := range Profiles {
		require.NoError(t, s.SetProfile(ctx, "com.example", p))
		got, err := s.GetProfile(ctx, "com.example")
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestStoreResetSetsAtMostOneBucket(t *testing.T) {
	ctx := context.Background()
	mem := prefs.NewMemoryStore()
	s := NewStore(mem)

	require.NoError(t, s.SetProfile(ctx, "com.example", Gaming))
	require.NoError(t, s.SetProfile(ctx, "com.example", Camera))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Assignment{{Package: "com.example", Profile: Camera}}, list)
}

func TestStoreValueInitialisesEmptyTable(t *testing.T) {
	ctx := context.Background()
	mem := prefs.NewMemoryStore()
	s := NewStore(mem)

	v, err := s.Value(ctx)
	require.NoError(t, err)
	var empty Table
	assert.Equal(t, empty.String(), v)

	stored, found, err := mem.GetString(ctx, PrefsKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, empty.String(), stored)
}

func TestStoreMalformedValueReadsAsDefaults(t *testing.T) {
	ctx := context.Background()
	mem := prefs.NewMemoryStore()
	require.NoError(t, mem.PutString(ctx, PrefsKey, "com.a,:com.b,:com.c,"))
	s := NewStore(mem)

	got, err := s.GetProfile(ctx, "com.a")
	require.NoError(t, err)
	assert.Equal(t, Default, got)

	stored, _, err := mem.GetString(ctx, PrefsKey)
	require.NoError(t, err)
	_, ok := ParseTable(stored)
	assert.True(t, ok)
}

func TestStoreSetProfileValidates(t *testing.T) {
	ctx := context.Background()
	s := NewStore(prefs.NewMemoryStore())
	require.Error(t, s.SetProfile(ctx, "bad:name", Gaming))
	require.Error(t, s.SetProfile(ctx, "com.ok", Profile(99)))
}

func TestStoreSetProfileReturnsWriteFailure(t *testing.T) {
	ctx := context.Background()
	mem := prefs.NewMemoryStore()
	s := NewStore(mem)
	_, err := s.Value(ctx)
	require.NoError(t, err)

	mem.FailWrites = true
	require.Error(t, s.SetProfile(ctx, "com.example", Gaming))
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	db, err := prefs.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, NewStore(db).SetProfile(ctx, "com.game", Gaming))
	require.NoError(t, db.Close())

	db, err = prefs.NewSQLiteStore(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := NewStore(db).GetProfile(ctx, "com.game")
	require.NoError(t, err)
	assert.Equal(t, Gaming, got)
}

func TestControlWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sconfig")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	c := NewControl(path)
	assert.True(t, c.Available())
	require.NoError(t, c.Write("9"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "9\n", string(b))
}

func TestControlMissingNodeIsNoop(t *testing.T) {
	c := NewControl(filepath.Join(t.TempDir(), "missing"))
	assert.False(t, c.Available())
	require.NoError(t, c.Write("0"))
}
