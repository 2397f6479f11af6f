package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the only configuration format version this build understands.
const Version = "1.0"

// Config is the daemon and CLI configuration.
type Config struct {
	Version    string          `yaml:"version"`
	Storage    StorageConfig   `yaml:"storage"`
	Thermal    ThermalConfig   `yaml:"thermal"`
	ForceStop  ForceStopConfig `yaml:"forcestop"`
	Host       HostConfig      `yaml:"host"`
	Monitor    MonitorConfig   `yaml:"monitor"`
	Daemon     DaemonConfig    `yaml:"daemon"`
	NATS       NATSConfig      `yaml:"nats"`
	Components []string        `yaml:"components"` // fixed extra components, "package/class"
	Touch      TouchConfig     `yaml:"touch"`
}

// StorageConfig locates the preferences database.
type StorageConfig struct {
	PrefsPath string `yaml:"prefs_path"`
}

// ThermalConfig configures the thermal control node.
type ThermalConfig struct {
	ControlPath string `yaml:"control_path"`
}

// ForceStopConfig configures the force-stop registry and sweeper.
type ForceStopConfig struct {
	Defaults      []string `yaml:"defaults"`       // seeded when nothing is persisted yet
	ReportHistory int      `yaml:"report_history"` // sweep reports kept for status
}

// HostConfig selects and tunes the host command runner.
type HostConfig struct {
	Mode                HostMode         `yaml:"mode"`
	ADBPath             string           `yaml:"adb_path"`
	Serial              string           `yaml:"serial"`
	CommandTimeout      string           `yaml:"command_timeout"`
	SessionPollInterval string           `yaml:"session_poll_interval"`
	MaxRetries          int              `yaml:"max_retries"`
	RetryBackoff        RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay   string           `yaml:"retry_initial_delay"`
	RetryMaxDelay       string           `yaml:"retry_max_delay"`
}

// MonitorConfig holds the poll intervals for host state.
type MonitorConfig struct {
	ScreenInterval     string `yaml:"screen_interval"`
	ForegroundInterval string `yaml:"foreground_interval"`
	PackagesInterval   string `yaml:"packages_interval"`
	SessionsInterval   string `yaml:"sessions_interval"`
}

// DaemonConfig configures the daemon's HTTP surface.
type DaemonConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// NATSConfig configures the optional event publisher.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
	Subject string `yaml:"subject"`
}

// TouchConfig locates the touch controller device node.
type TouchConfig struct {
	DevicePath string `yaml:"device_path"`
}

// Load reads, expands, defaults and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration content after ${ENV} expansion.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Version != "" && cfg.Version != Version {
		return nil, fmt.Errorf("unsupported configuration version: %s (expected %s)", cfg.Version, Version)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns a fully defaulted configuration, used when no file is given.
func Default() *Config {
	cfg := &Config{Version: Version}
	ApplyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Default()
	example.Host.Serial = "${ANDROID_SERIAL}"
	example.NATS.URL = "${NATS_URL}"

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ParseDuration parses a duration string, returning fallback when empty or invalid.
func ParseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (h HostConfig) CommandTimeoutDuration() time.Duration {
	return ParseDuration(h.CommandTimeout, DefaultCommandTimeout)
}

func (h HostConfig) SessionPollDuration() time.Duration {
	return ParseDuration(h.SessionPollInterval, DefaultSessionPollInterval)
}

func (h HostConfig) RetryInitialDuration() time.Duration {
	return ParseDuration(h.RetryInitialDelay, DefaultRetryInitialDelay)
}

func (h HostConfig) RetryMaxDuration() time.Duration {
	return ParseDuration(h.RetryMaxDelay, DefaultRetryMaxDelay)
}
