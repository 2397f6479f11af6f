package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("version: \"1.0\"\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPrefsPath, cfg.Storage.PrefsPath)
	assert.Equal(t, DefaultThermalControlPath, cfg.Thermal.ControlPath)
	assert.Equal(t, DefaultForceStopPackages, cfg.ForceStop.Defaults)
	assert.Equal(t, HostModeLocal, cfg.Host.Mode)
	assert.Equal(t, RetryBackoffExponential, cfg.Host.RetryBackoff)
	assert.Equal(t, 2, cfg.Host.MaxRetries)
	assert.Equal(t, DefaultComponents, cfg.Components)
	assert.Equal(t, DefaultTouchDevicePath, cfg.Touch.DevicePath)
	assert.Equal(t, DefaultCommandTimeout, cfg.Host.CommandTimeoutDuration())
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("PARTSD_TEST_SERIAL", "emulator-5554")
	cfg, err := Parse([]byte("host:\n  mode: ADB\n  serial: ${PARTSD_TEST_SERIAL}\n  command_timeout: 5s\n"))
	require.NoError(t, err)
	assert.Equal(t, HostModeADB, cfg.Host.Mode)
	assert.Equal(t, "emulator-5554", cfg.Host.Serial)
	assert.Equal(t, 5*time.Second, cfg.Host.CommandTimeoutDuration())
}

func TestParseKeepsExplicitEmptyDefaults(t *testing.T) {
	cfg, err := Parse([]byte("forcestop:\n  defaults: []\ncomponents: []\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.ForceStop.Defaults)
	assert.Empty(t, cfg.Components)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"version":   "version: \"9\"\n",
		"duration":  "monitor:\n  screen_interval: soon\n",
		"negative":  "host:\n  command_timeout: -1s\n",
		"component": "components: [\"no-class\"]\n",
		"package":   "forcestop:\n  defaults: [\"a b\"]\n",
		"nats":      "nats:\n  enabled: true\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content))
			require.Error(t, err)
		})
	}
}

func TestInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partsd.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Version, cfg.Version)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Second, ParseDuration("", time.Second))
	assert.Equal(t, time.Second, ParseDuration("bogus", time.Second))
	assert.Equal(t, 3*time.Minute, ParseDuration("3m", time.Second))
}

func TestLoadEnvFilesDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PARTSD_ENV_A=file\nPARTSD_ENV_B=file\n"), 0o600))
	t.Setenv("PARTSD_ENV_A", "process")
	t.Setenv("PARTSD_ENV_B", "")
	require.NoError(t, os.Unsetenv("PARTSD_ENV_B"))

	loadEnvFiles()
	assert.Equal(t, "process", os.Getenv("PARTSD_ENV_A"))
	assert.Equal(t, "file", os.Getenv("PARTSD_ENV_B"))
}
