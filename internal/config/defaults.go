package config

import "time"

const (
	DefaultPrefsPath           = "/data/local/tmp/partsd/prefs.db"
	DefaultThermalControlPath  = "/sys/class/thermal/thermal_message/sconfig"
	DefaultTouchDevicePath     = "/dev/xiaomi-touch"
	DefaultHTTPAddr            = "127.0.0.1:8765"
	DefaultADBPath             = "adb"
	DefaultReportHistory       = 20
	DefaultCommandTimeout      = 3 * time.Second
	DefaultSessionPollInterval = time.Second
	DefaultRetryInitialDelay   = 200 * time.Millisecond
	DefaultRetryMaxDelay       = 2 * time.Second
	DefaultNATSStream          = "PARTSD"
	DefaultNATSSubject         = "partsd"
)

// DefaultForceStopPackages are flagged on first run when installed.
var DefaultForceStopPackages = []string{
	"tv.danmaku.bili",
	"tv.danmaku.bilibilihd",
	"com.bilibili.app.in",
}

// DefaultComponents are the fixed extra components offered for freezing.
var DefaultComponents = []string{
	"com.google.android.gms/com.google.android.gms.chimera.GmsIntentOperationService",
}

// ApplyDefaults fills every unset field. Unknown enumerations fall back to defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = Version
	}
	if cfg.Storage.PrefsPath == "" {
		cfg.Storage.PrefsPath = DefaultPrefsPath
	}
	if cfg.Thermal.ControlPath == "" {
		cfg.Thermal.ControlPath = DefaultThermalControlPath
	}
	if cfg.ForceStop.Defaults == nil {
		cfg.ForceStop.Defaults = append([]string(nil), DefaultForceStopPackages...)
	}
	if cfg.ForceStop.ReportHistory <= 0 {
		cfg.ForceStop.ReportHistory = DefaultReportHistory
	}

	if m := NormalizeHostMode(string(cfg.Host.Mode)); m != "" {
		cfg.Host.Mode = m
	} else {
		cfg.Host.Mode = HostModeLocal
	}
	if cfg.Host.ADBPath == "" {
		cfg.Host.ADBPath = DefaultADBPath
	}
	if cfg.Host.CommandTimeout == "" {
		cfg.Host.CommandTimeout = DefaultCommandTimeout.String()
	}
	if cfg.Host.SessionPollInterval == "" {
		cfg.Host.SessionPollInterval = DefaultSessionPollInterval.String()
	}
	if cfg.Host.MaxRetries < 0 {
		cfg.Host.MaxRetries = 0
	}
	if cfg.Host.MaxRetries == 0 {
		cfg.Host.MaxRetries = 2
	}
	if b := NormalizeRetryBackoff(string(cfg.Host.RetryBackoff)); b != "" {
		cfg.Host.RetryBackoff = b
	} else {
		cfg.Host.RetryBackoff = RetryBackoffExponential
	}
	if cfg.Host.RetryInitialDelay == "" {
		cfg.Host.RetryInitialDelay = DefaultRetryInitialDelay.String()
	}
	if cfg.Host.RetryMaxDelay == "" {
		cfg.Host.RetryMaxDelay = DefaultRetryMaxDelay.String()
	}

	if cfg.Monitor.ScreenInterval == "" {
		cfg.Monitor.ScreenInterval = "1s"
	}
	if cfg.Monitor.ForegroundInterval == "" {
		cfg.Monitor.ForegroundInterval = "2s"
	}
	if cfg.Monitor.PackagesInterval == "" {
		cfg.Monitor.PackagesInterval = "1m"
	}
	if cfg.Monitor.SessionsInterval == "" {
		cfg.Monitor.SessionsInterval = "5s"
	}

	if cfg.Daemon.HTTPAddr == "" {
		cfg.Daemon.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.NATS.Stream == "" {
		cfg.NATS.Stream = DefaultNATSStream
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = DefaultNATSSubject
	}
	if cfg.Components == nil {
		cfg.Components = append([]string(nil), DefaultComponents...)
	}
	if cfg.Touch.DevicePath == "" {
		cfg.Touch.DevicePath = DefaultTouchDevicePath
	}
}
