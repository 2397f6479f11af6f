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

func newTestService(t *testing.T) (*Service, *Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sconfig")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	store := NewStore(prefs.NewMemoryStore())
	return NewService(store, NewControl(path), nil), store, path
}

func readNode(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestServiceApply(t *testing.T) {
	ctx := context.Background()
	svc, store, path := newTestService(t)
	require.NoError(t, store.SetProfile(ctx, "com.cam", Camera))

	p, err := svc.Apply(ctx, "com.cam")
	require.NoError(t, err)
	assert.Equal(t, Camera, p)
	assert.Equal(t, "12\n", readNode(t, path))

	p, err = svc.Apply(ctx, "com.unknown")
	require.NoError(t, err)
	assert.Equal(t, Default, p)
	assert.Equal(t, "0\n", readNode(t, path))
}

func TestServiceForegroundOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	svc, store, path := newTestService(t)
	require.NoError(t, store.SetProfile(ctx, "com.game", Gaming))

	p, applied, err := svc.OnForeground(ctx, "com.game")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, Gaming, p)
	assert.Equal(t, "9\n", readNode(t, path))

	// Overwrite externally; an unchanged foreground must not rewrite the node.
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o600))
	_, applied, err = svc.OnForeground(ctx, "com.game")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, "x\n", readNode(t, path))
}

func TestServiceScreenOffForgetsPrevious(t *testing.T) {
	ctx := context.Background()
	svc, store, path := newTestService(t)
	require.NoError(t, store.SetProfile(ctx, "com.game", Gaming))

	_, _, err := svc.OnForeground(ctx, "com.game")
	require.NoError(t, err)
	require.NoError(t, svc.OnScreenOff())
	assert.Equal(t, "0\n", readNode(t, path))

	_, applied, err := svc.OnForeground(ctx, "com.game")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "9\n", readNode(t, path))
}

func TestServiceUnavailableNode(t *testing.T) {
	svc := NewService(NewStore(prefs.NewMemoryStore()), NewControl(filepath.Join(t.TempDir(), "nope")), nil)
	assert.False(t, svc.Available())
	require.NoError(t, svc.ApplyDefault())
}
