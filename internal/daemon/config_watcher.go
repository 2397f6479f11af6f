package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/partsd/internal/config"
	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/logfields"
	"git.home.luguber.info/inful/partsd/internal/monitor"
)

// ConfigWatcher monitors configuration file changes and triggers reloads
type ConfigWatcher struct {
	configPath   string
	daemon       *Daemon
	watcher      *fsnotify.Watcher
	mu           sync.Mutex
	stopChan     chan struct{}
	stopOnce     sync.Once
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewConfigWatcher creates a new configuration file watcher
func NewConfigWatcher(configPath string, daemon *Daemon) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDaemon, "failed to create file watcher").Build()
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = watcher.Close()
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to resolve config path").Build()
	}

	return &ConfigWatcher{
		configPath:   absPath,
		daemon:       daemon,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second,
	}, nil
}

// Start begins monitoring the configuration file
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	// Editors replace files, so the directory is watched rather than the file.
	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to watch config directory").
			WithContext("dir", configDir).Build()
	}

	slog.Info("Starting configuration watcher", logfields.Path(cw.configPath))

	go cw.watchLoop(ctx)
	go cw.reloadLoop(ctx)
	return nil
}

// Stop stops the configuration watcher
func (cw *ConfigWatcher) Stop(_ context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	slog.Info("Stopping configuration watcher")
	cw.stopOnce.Do(func() { close(cw.stopChan) })

	if err := cw.watcher.Close(); err != nil {
		slog.Error("Error closing file watcher", logfields.Error(err))
	}
	return nil
}

func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(cw.configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}

			switch {
			case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Rename):
				slog.Debug("Config file change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
				cw.triggerReload()
			case event.Op.Has(fsnotify.Remove):
				slog.Warn("Config file removed", logfields.Path(event.Name))
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", logfields.Error(err))
		}
	}
}

// reloadLoop debounces bursts of file events into one reload.
func (cw *ConfigWatcher) reloadLoop(ctx context.Context) {
	var reloadTimer *time.Timer
	stopTimer := func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return
		case <-cw.stopChan:
			stopTimer()
			return
		case <-cw.reloadChan:
			stopTimer()
			reloadTimer = time.AfterFunc(cw.debounceTime, func() {
				if err := cw.performReload(ctx); err != nil {
					slog.Error("Failed to reload configuration", logfields.Error(err))
				}
			})
		}
	}
}

func (cw *ConfigWatcher) triggerReload() {
	select {
	case cw.reloadChan <- struct{}{}:
	default:
	}
}

func (cw *ConfigWatcher) performReload(ctx context.Context) error {
	slog.Info("Reloading configuration", logfields.Path(cw.configPath))

	newConfig, err := config.Load(cw.configPath)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to load new configuration").Build()
	}
	if err := cw.daemon.ReloadConfig(ctx, newConfig); err != nil {
		return err
	}

	slog.Info("Configuration reloaded successfully")
	return nil
}

// ReloadConfig applies the parts of newConfig that can change at runtime: the
// monitor poll intervals. Other changes are logged and take effect on restart.
func (d *Daemon) ReloadConfig(_ context.Context, newConfig *config.Config) error {
	current := d.GetConfig()
	if newConfig.Version != current.Version {
		return errors.ConfigError("configuration version change requires daemon restart").
			WithContext("current", current.Version).
			WithContext("new", newConfig.Version).
			Build()
	}

	if newConfig.Monitor != current.Monitor {
		if err := d.monitor.Reschedule(monitor.IntervalsFromConfig(newConfig.Monitor)); err != nil {
			return errors.WrapError(err, errors.CategoryDaemon, "failed to reschedule monitor").Build()
		}
		slog.Info("Monitor intervals updated")
	}

	for _, change := range restartRequired(current, newConfig) {
		slog.Warn("Configuration change requires restart", slog.String("section", change))
	}

	d.cfgMu.Lock()
	d.config = newConfig
	d.cfgMu.Unlock()
	return nil
}

func restartRequired(old, cur *config.Config) []string {
	var changed []string
	if old.Storage != cur.Storage {
		changed = append(changed, "storage")
	}
	if old.Thermal != cur.Thermal {
		changed = append(changed, "thermal")
	}
	if old.Host.Mode != cur.Host.Mode || old.Host.ADBPath != cur.Host.ADBPath || old.Host.Serial != cur.Host.Serial {
		changed = append(changed, "host")
	}
	if old.Daemon != cur.Daemon {
		changed = append(changed, "daemon")
	}
	if old.NATS != cur.NATS {
		changed = append(changed, "nats")
	}
	if old.Touch != cur.Touch {
		changed = append(changed, "touch")
	}
	if !slices.Equal(old.Components, cur.Components) {
		changed = append(changed, "components")
	}
	return changed
}
