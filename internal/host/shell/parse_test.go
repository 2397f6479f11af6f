package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/partsd/internal/host"
)

func TestParsePackageList(t *testing.T) {
	out := "package:com.android.settings\n" +
		"package:/data/app/~~abc==/tv.danmaku.bili-xyz==/base.apk=tv.danmaku.bili\r\n" +
		"garbage\n" +
		"package:\n"
	assert.Equal(t, []string{"com.android.settings", "tv.danmaku.bili"}, parsePackageList(out))
}

const mediaSessionDump = `MEDIA SESSION SERVICE (dumpsys media_session)

  Sessions Stack - have 3 sessions:
    tv.danmaku.bili/player (userId=0)
      ownerPid=1234, ownerUid=10123, userId=0
      package=tv.danmaku.bili
      launchIntent=null
      active=true
      flags=3
      state=PlaybackState {state=3, position=1200, buffered position=0, speed=1.0, updated=99, actions=823, custom actions=[], active item id=-1, error=null}
    com.spotify.music/spotify (userId=0)
      package=com.spotify.music
      active=true
      state=PlaybackState {state=2, position=0, buffered position=0, speed=0.0, updated=1, actions=0, custom actions=[], active item id=-1, error=null}
    com.stale/media (userId=0)
      package=com.stale
      active=false
      state=PlaybackState {state=3, position=0}
`

func TestParseMediaSessions(t *testing.T) {
	got := parseMediaSessions(mediaSessionDump)
	assert.Equal(t, []host.Session{
		{Package: "tv.danmaku.bili", State: host.StatePlaying},
		{Package: "com.spotify.music", State: host.StatePaused},
	}, got)

	assert.Empty(t, parseMediaSessions("Sessions Stack - have 0 sessions:\n"))
}

func TestParseScreenOn(t *testing.T) {
	tests := []struct {
		name   string
		out    string
		on, ok bool
	}{
		{"awake", "  mWakefulness=Awake\n", true, true},
		{"dreaming", "mWakefulness=Dreaming", true, true},
		{"asleep", "mWakefulness=Asleep\n", false, true},
		{"dozing", "mWakefulness=Dozing", false, true},
		{"display-fallback", "Display Power: state=ON\n", true, true},
		{"display-off", "Display Power: state=OFF\n", false, true},
		{"unknown", "nothing useful", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			on, ok := parseScreenOn(tt.out)
			assert.Equal(t, tt.on, on)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestParseForeground(t *testing.T) {
	assert.Equal(t, "com.android.chrome",
		parseForeground("    mResumedActivity: ActivityRecord{8f3c2a1 u0 com.android.chrome/com.google.android.apps.chrome.Main t42}\n"))
	assert.Equal(t, "tv.danmaku.bili",
		parseForeground("  topResumedActivity=ActivityRecord{1a2b u0 tv.danmaku.bili/.MainActivityV2 t7}\n"))
	assert.Equal(t, "", parseForeground("no activity"))
}

func TestParseDisabledComponents(t *testing.T) {
	out := `Packages:
  Package [com.google.android.gms] (abc):
    User 0: ceDataInode=123 installed=true hidden=false
      gids=[3003]
      disabledComponents:
        com.google.android.gms.chimera.GmsIntentOperationService
        com.google.android.gms.other.Receiver
      enabledComponents:
        com.google.android.gms.enabled.Thing
`
	disabled := parseDisabledComponents(out)
	assert.True(t, disabled.Has("com.google.android.gms.chimera.GmsIntentOperationService"))
	assert.True(t, disabled.Has("com.google.android.gms.other.Receiver"))
	assert.False(t, disabled.Has("com.google.android.gms.enabled.Thing"))
	assert.Len(t, disabled, 2)
}

func TestParseSetting(t *testing.T) {
	v, ok := parseSetting("1\n")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = parseSetting("null\n")
	assert.False(t, ok)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `'plain'`, quote("plain"))
	assert.Equal(t, `'it'\''s'`, quote("it's"))
}
