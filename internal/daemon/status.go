package daemon

import (
	"time"

	"git.home.luguber.info/inful/partsd/internal/forcestop"
	"git.home.luguber.info/inful/partsd/internal/version"
)

// StatusReport is served by GET /status.
type StatusReport struct {
	Status    Status          `json:"status"`
	Version   string          `json:"version"`
	Uptime    string          `json:"uptime"`
	Thermal   ThermalStatus   `json:"thermal"`
	ForceStop ForceStopStatus `json:"forcestop"`
	Device    DeviceStatus    `json:"device"`
	Notify    bool            `json:"notify"`
}

// ThermalStatus reports whether profiles are applied to the device.
type ThermalStatus struct {
	Enabled     bool   `json:"enabled"`
	ControlPath string `json:"control_path"`
}

// ForceStopStatus summarizes the registry and the sweeper.
type ForceStopStatus struct {
	Packages  []string          `json:"packages"`
	Watching  int               `json:"watching"`
	LastSweep *forcestop.Report `json:"last_sweep,omitempty"`
}

// DeviceStatus is the last observed device state.
type DeviceStatus struct {
	ScreenOn   *bool  `json:"screen_on,omitempty"`
	Foreground string `json:"foreground,omitempty"`
	DoubleTap  bool   `json:"double_tap_supported"`
}

// Status snapshots the daemon for the status endpoint and CLI.
func (d *Daemon) Status() StatusReport {
	cfg := d.GetConfig()
	r := StatusReport{
		Status:  d.GetStatus(),
		Version: version.Version,
		Uptime:  d.uptime().Round(time.Second).String(),
		Thermal: ThermalStatus{
			Enabled:     d.thermal != nil,
			ControlPath: cfg.Thermal.ControlPath,
		},
		ForceStop: ForceStopStatus{
			Packages: d.registry.List(),
			Watching: d.sweeper.Watching(),
		},
		Device: DeviceStatus{
			Foreground: d.monitor.Foreground(),
			DoubleTap:  d.touch.Supported(),
		},
		Notify: d.sink != nil,
	}
	if reports := d.sweeper.Reports(); len(reports) > 0 {
		r.ForceStop.LastSweep = &reports[0]
	}
	if on, known := d.monitor.ScreenState(); known {
		r.Device.ScreenOn = &on
	}
	return r
}
