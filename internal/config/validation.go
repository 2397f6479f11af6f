package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate checks a defaulted configuration.
func Validate(cfg *Config) error {
	if cfg.Storage.PrefsPath == "" {
		return errors.New("storage.prefs_path cannot be empty")
	}
	if cfg.Host.Mode == HostModeADB && cfg.Host.ADBPath == "" {
		return errors.New("host.adb_path is required in adb mode")
	}

	durations := map[string]string{
		"host.command_timeout":        cfg.Host.CommandTimeout,
		"host.session_poll_interval":  cfg.Host.SessionPollInterval,
		"host.retry_initial_delay":    cfg.Host.RetryInitialDelay,
		"host.retry_max_delay":        cfg.Host.RetryMaxDelay,
		"monitor.screen_interval":     cfg.Monitor.ScreenInterval,
		"monitor.foreground_interval": cfg.Monitor.ForegroundInterval,
		"monitor.packages_interval":   cfg.Monitor.PackagesInterval,
		"monitor.sessions_interval":   cfg.Monitor.SessionsInterval,
	}
	for field, raw := range durations {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", field, raw, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", field)
		}
	}

	for _, pkg := range cfg.ForceStop.Defaults {
		if pkg == "" || strings.ContainsAny(pkg, " /:,=") {
			return fmt.Errorf("invalid forcestop.defaults entry %q", pkg)
		}
	}
	for _, c := range cfg.Components {
		pkg, cls, ok := strings.Cut(c, "/")
		if !ok || pkg == "" || cls == "" {
			return fmt.Errorf("invalid component %q (expected package/class)", c)
		}
	}

	if cfg.NATS.Enabled {
		if cfg.NATS.URL == "" {
			return errors.New("nats.url is required when nats is enabled")
		}
		if strings.ContainsAny(cfg.NATS.Subject, " *>") {
			return fmt.Errorf("invalid nats.subject %q", cfg.NATS.Subject)
		}
	}
	return nil
}
