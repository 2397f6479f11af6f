package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitComponent(t *testing.T) {
	pkg, cls, err := SplitComponent("com.google.android.gms/.chimera.GmsIntentOperationService")
	require.NoError(t, err)
	assert.Equal(t, "com.google.android.gms", pkg)
	assert.Equal(t, "com.google.android.gms.chimera.GmsIntentOperationService", cls)

	pkg, cls, err = SplitComponent("a.b/c.D")
	require.NoError(t, err)
	assert.Equal(t, "a.b", pkg)
	assert.Equal(t, "c.D", cls)

	for _, bad := range []string{"", "a.b", "/c", "a.b/"} {
		_, _, err := SplitComponent(bad)
		assert.Error(t, err, bad)
	}
}

func TestPlaybackStateIdle(t *testing.T) {
	assert.True(t, StatePaused.Idle())
	assert.True(t, StateStopped.Idle())
	assert.False(t, StatePlaying.Idle())
	assert.False(t, StateNone.Idle())
	assert.Equal(t, "buffering", StateBuffering.String())
	assert.Equal(t, "state(42)", PlaybackState(42).String())
}

func TestFindSession(t *testing.T) {
	sessions := []Session{{Package: "a", State: StatePlaying}, {Package: "b", State: StatePaused}, {Package: "a", State: StatePaused}}
	s, ok := FindSession(sessions, "a")
	require.True(t, ok)
	assert.Equal(t, StatePlaying, s.State)
	_, ok = FindSession(sessions, "c")
	assert.False(t, ok)
}
