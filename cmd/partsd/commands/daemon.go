package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/partsd/internal/daemon"
	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Addr    string `help:"HTTP listen address (overrides daemon.http_addr)"`
	NoWatch  bool   `name:"no-watch" help:"Do not reload the configuration file on change"`
}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root.Config)
	if err != nil {
		return err
	}
	if d.Addr != "" {
		cfg.Daemon.HTTPAddr = d.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := daemon.Options{Host: g.Host}
	if !d.NoWatch {
		opts.ConfigPath = root.Config
	}
	dm, err := daemon.New(ctx, cfg, opts)
	if err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to create daemon").Build()
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- dm.Start(ctx)
	}()

	slog.Info("Daemon started, waiting for shutdown signal...")

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := dm.Stop(stopCtx); err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to stop daemon").Build()
	}

	slog.Info("Daemon stopped successfully")
	return nil
}
