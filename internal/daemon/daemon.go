// Package daemon wires the parts services together and drives them from
// device events.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/partsd/internal/api"
	"git.home.luguber.info/inful/partsd/internal/apps"
	"git.home.luguber.info/inful/partsd/internal/config"
	"git.home.luguber.info/inful/partsd/internal/events"
	"git.home.luguber.info/inful/partsd/internal/forcestop"
	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/freeze"
	"git.home.luguber.info/inful/partsd/internal/host"
	"git.home.luguber.info/inful/partsd/internal/host/shell"
	"git.home.luguber.info/inful/partsd/internal/logfields"
	"git.home.luguber.info/inful/partsd/internal/metrics"
	"git.home.luguber.info/inful/partsd/internal/monitor"
	"git.home.luguber.info/inful/partsd/internal/notify"
	"git.home.luguber.info/inful/partsd/internal/prefs"
	"git.home.luguber.info/inful/partsd/internal/rotate"
	"git.home.luguber.info/inful/partsd/internal/thermal"
	"git.home.luguber.info/inful/partsd/internal/touch"
	"git.home.luguber.info/inful/partsd/internal/version"
)

// Status represents the current state of the daemon
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Options override the daemon's collaborators. Zero values build the real ones
// from the configuration.
type Options struct {
	ConfigPath string      // enables the config watcher when set
	Host       host.Host   // defaults to a shell host
	Prefs      prefs.Store // defaults to the SQLite store at storage.prefs_path
}

// Daemon represents the main daemon service
type Daemon struct {
	config     *config.Config
	configPath string
	cfgMu      sync.RWMutex
	status     atomic.Value // Status
	startTime  atomic.Int64 // unix nanos
	stopChan   chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex // serializes Start and Stop

	host      host.Host
	closeHost func()
	prefs     prefs.Store
	bus       *events.Bus
	recorder  metrics.Recorder

	profiles *thermal.Store
	thermal  *thermal.Service // nil when the control node is missing
	registry *forcestop.Registry
	sweeper  *forcestop.Sweeper
	monitor  *monitor.Monitor
	apps     *apps.Lister
	freeze   *freeze.Service
	rotate   *rotate.Service
	touch    *touch.Device

	httpServer    *api.Server
	sink          *notify.JetStreamSink
	configWatcher *ConfigWatcher
	cancelMonitor context.CancelFunc
	wg            sync.WaitGroup
}

// New builds a daemon from cfg. Nothing runs until Start.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.ConfigError("configuration is required").Build()
	}

	d := &Daemon{
		config:     cfg,
		configPath: opts.ConfigPath,
		stopChan:   make(chan struct{}),
		bus:        events.NewBus(),
	}
	d.status.Store(StatusStopped)

	promReg := metrics.NewRegistry()
	d.recorder = metrics.NewPrometheusRecorder(promReg)

	d.host = opts.Host
	if d.host == nil {
		sh := shell.New(shell.NewRunner(cfg.Host), shell.OptionsFromConfig(cfg.Host, d.recorder))
		d.host = sh
		d.closeHost = sh.Close
	}

	d.prefs = opts.Prefs
	if d.prefs == nil {
		store, err := prefs.NewSQLiteStore(cfg.Storage.PrefsPath)
		if err != nil {
			d.shutdownHost()
			return nil, err
		}
		d.prefs = store
	}

	registry, err := forcestop.NewRegistry(ctx, d.prefs, d.recorder)
	if err != nil {
		d.close()
		return nil, err
	}
	d.registry = registry
	d.sweeper = forcestop.NewSweeper(registry, d.host, d.host, forcestop.SweeperOptions{
		Recorder:      d.recorder,
		Publisher:     d.bus,
		ReportHistory: cfg.ForceStop.ReportHistory,
	})

	d.profiles = thermal.NewStore(d.prefs)
	control := thermal.NewControl(cfg.Thermal.ControlPath)
	if control.Available() {
		d.thermal = thermal.NewService(d.profiles, control, d.recorder)
	} else {
		slog.Info("Thermal control node missing, thermal service disabled", logfields.Path(control.Path()))
	}

	mon, err := monitor.New(d.host, d.bus, monitor.IntervalsFromConfig(cfg.Monitor))
	if err != nil {
		d.close()
		return nil, errors.WrapError(err, errors.CategoryDaemon, "failed to create monitor").Build()
	}
	d.monitor = mon

	d.apps = &apps.Lister{
		Packages:   d.host,
		Components: d.host,
		Profiles:   d.profiles,
		Flags:      d.registry,
		Extra:      cfg.Components,
	}
	d.freeze = freeze.NewService(d.host, cfg.Components)
	d.rotate = rotate.NewService(d.host)
	d.touch = touch.NewDevice(cfg.Touch.DevicePath)

	d.httpServer = api.NewServer(cfg.Daemon.HTTPAddr, api.Deps{
		Profiles: d.profiles,
		Thermal:  d.thermal,
		Registry: d.registry,
		Sweeper:  d.sweeper,
		Apps:     d.apps,
		Freeze:   d.freeze,
		Rotate:   d.rotate,
		Touch:    d.touch,
		Status:   func() any { return d.Status() },
		Metrics:  metrics.HTTPHandler(promReg),
	})

	if opts.ConfigPath != "" {
		watcher, err := NewConfigWatcher(opts.ConfigPath, d)
		if err != nil {
			slog.Warn("Config watcher unavailable", logfields.Error(err))
		} else {
			d.configWatcher = watcher
		}
	}
	return d, nil
}

// Start seeds defaults, starts the monitor, HTTP server, notifier and config
// watcher, then runs the event loop until ctx is done or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.GetStatus() != StatusStopped {
		d.mu.Unlock()
		return errors.DaemonError("daemon is not in stopped state").WithContext("status", string(d.GetStatus())).Build()
	}
	d.status.Store(StatusStarting)
	d.startTime.Store(time.Now().UnixNano())
	slog.Info("Starting partsd daemon", slog.String("version", version.Version))
	cfg := d.GetConfig()

	if _, err := d.registry.SeedDefaults(ctx, d.host, cfg.ForceStop.Defaults); err != nil {
		slog.Warn("Failed to seed default force-stop packages", logfields.Error(err))
	}

	if d.thermal != nil {
		if err := d.thermal.ApplyDefault(); err != nil {
			slog.Warn("Failed to apply default thermal profile", logfields.Error(err))
		}
	}

	// Subscribe before the monitor runs so no early event is lost.
	subs := subscribe(d.bus)

	monCtx, monCancel := d.stopAwareContext(ctx)
	d.cancelMonitor = monCancel
	if err := d.monitor.Start(monCtx); err != nil {
		monCancel()
		subs.close()
		d.status.Store(StatusError)
		d.mu.Unlock()
		return errors.WrapError(err, errors.CategoryDaemon, "failed to start monitor").Build()
	}

	if addr := cfg.Daemon.HTTPAddr; addr != "" {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			slog.Info("HTTP server listening", slog.String("addr", addr))
			if err := d.httpServer.Start(); err != nil {
				slog.Error("HTTP server failed", logfields.Error(err))
			}
		}()
	}

	if cfg.NATS.Enabled {
		d.startNotifier(ctx, cfg.NATS)
	}

	if d.configWatcher != nil {
		if err := d.configWatcher.Start(ctx); err != nil {
			slog.Error("Failed to start config watcher", logfields.Error(err))
		} else {
			slog.Info("Config watcher started")
		}
	}

	d.status.Store(StatusRunning)
	slog.Info("partsd daemon started",
		slog.Bool("thermal", d.thermal != nil),
		slog.Int("forcestop_packages", len(d.registry.List())),
		slog.Bool("nats", d.sink != nil))

	d.mu.Unlock()

	d.mainLoop(ctx, subs)
	subs.close()

	d.status.CompareAndSwap(StatusRunning, StatusStopping)
	slog.Info("Main loop exited, daemon stopping")
	return nil
}

func (d *Daemon) startNotifier(ctx context.Context, cfg config.NATSConfig) {
	sink, err := notify.Connect(ctx, cfg)
	if err != nil {
		slog.Warn("NATS unavailable, event publishing disabled", logfields.Error(err))
		return
	}
	d.sink = sink
	n := notify.New(sink, cfg.Subject)

	runCtx, cancel := d.stopAwareContext(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		n.Run(runCtx, d.bus)
	}()
}

// Stop shuts the daemon down and releases the host and the prefs store.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := d.GetStatus()
	if status == StatusStopped {
		return nil
	}
	d.status.Store(StatusStopping)
	slog.Info("Stopping partsd daemon")

	d.stopOnce.Do(func() { close(d.stopChan) })

	if d.configWatcher != nil {
		if err := d.configWatcher.Stop(ctx); err != nil {
			slog.Error("Failed to stop config watcher", logfields.Error(err))
		}
	}
	if err := d.monitor.Stop(); err != nil {
		slog.Warn("Failed to stop monitor", logfields.Error(err))
	}
	if d.cancelMonitor != nil {
		d.cancelMonitor()
	}
	if err := d.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Failed to shut down HTTP server", logfields.Error(err))
	}

	d.bus.Close()
	d.wg.Wait()

	if d.sink != nil {
		if err := d.sink.Close(); err != nil {
			slog.Warn("Failed to close NATS connection", logfields.Error(err))
		}
	}
	d.close()

	d.status.Store(StatusStopped)
	slog.Info("partsd daemon stopped", slog.Duration("uptime", d.uptime()))
	return nil
}

func (d *Daemon) close() {
	d.shutdownHost()
	if d.prefs != nil {
		if err := d.prefs.Close(); err != nil {
			slog.Warn("Failed to close prefs store", logfields.Error(err))
		}
	}
}

func (d *Daemon) shutdownHost() {
	if d.closeHost != nil {
		d.closeHost()
	}
}

// GetStatus returns the lifecycle state.
func (d *Daemon) GetStatus() Status {
	if s, ok := d.status.Load().(Status); ok {
		return s
	}
	return StatusError
}

// GetConfig returns the active configuration.
func (d *Daemon) GetConfig() *config.Config {
	d.cfgMu.RLock()
	defer d.cfgMu.RUnlock()
	return d.config
}

func (d *Daemon) uptime() time.Duration {
	started := d.startTime.Load()
	if started == 0 {
		return 0
	}
	return time.Since(time.Unix(0, started))
}

// stopAwareContext returns a context that is canceled when either the parent
// is done or Stop closes the stop channel.
func (d *Daemon) stopAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-d.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
