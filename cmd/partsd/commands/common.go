// Package commands implements the partsd CLI.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/partsd/internal/config"
	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/host"
	"git.home.luguber.info/inful/partsd/internal/host/shell"
	"git.home.luguber.info/inful/partsd/internal/logfields"
	"git.home.luguber.info/inful/partsd/internal/metrics"
	"git.home.luguber.info/inful/partsd/internal/prefs"
)

// Global is shared with every subcommand. Host and Out are overridable for tests.
type Global struct {
	Logger *slog.Logger
	Host   host.Host
	Out    io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"partsd.yaml" env:"PARTSD_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Daemon    DaemonCmd    `cmd:"" help:"Run the parts daemon"`
	Init      InitCmd      `cmd:"" help:"Write an example configuration file"`
	Profile   ProfileCmd   `cmd:"" help:"Manage per-package thermal profiles"`
	ForceStop ForceStopCmd `cmd:"" name:"forcestop" help:"Manage screen-off force-stop packages"`
	Freeze    FreezeCmd    `cmd:"" help:"Freeze or unfreeze the extra system components"`
	Rotate    RotateCmd    `cmd:"" help:"Read or set the rotation policy"`
	DoubleTap DoubleTapCmd `cmd:"" name:"doubletap" help:"Enable or disable double-tap-to-wake"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// LoadConfig loads the configuration file, falling back to defaults when the
// file does not exist.
func LoadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Debug("No configuration file, using defaults", logfields.Path(path))
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to load configuration").
			WithContext("path", path).Build()
	}
	return cfg, nil
}

// session is what one-shot commands operate on: the configuration, the prefs
// database and the device host.
type session struct {
	cfg       *config.Config
	prefs     prefs.Store
	host      host.Host
	closeHost func()
}

func openSession(g *Global, root *CLI) (*session, error) {
	cfg, err := LoadConfig(root.Config)
	if err != nil {
		return nil, err
	}
	store, err := prefs.NewSQLiteStore(cfg.Storage.PrefsPath)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, prefs: store}
	if g != nil && g.Host != nil {
		s.host = g.Host
	} else {
		sh := shell.New(shell.NewRunner(cfg.Host), shell.OptionsFromConfig(cfg.Host, metrics.NoopRecorder{}))
		s.host = sh
		s.closeHost = sh.Close
	}
	return s, nil
}

func (s *session) Close() {
	if s.closeHost != nil {
		s.closeHost()
	}
	if err := s.prefs.Close(); err != nil {
		slog.Warn("Failed to close prefs store", logfields.Error(err))
	}
}

func onOff(v string) bool { return v == "on" }
