package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/partsd/internal/forcestop"
	"git.home.luguber.info/inful/partsd/internal/metrics"
)

// ForceStopCmd groups the force-stop subcommands.
type ForceStopCmd struct {
	Get   ForceStopGetCmd   `cmd:"" help:"Print whether a package is force-stopped on screen off"`
	Set   ForceStopSetCmd   `cmd:"" help:"Flag or unflag a package"`
	List  ForceStopListCmd  `cmd:"" help:"List flagged packages"`
	Seed  ForceStopSeedCmd  `cmd:"" help:"Flag the configured default packages if nothing is flagged yet"`
	Sweep ForceStopSweepCmd `cmd:"" help:"Force-stop flagged packages now, as on screen off"`
}

func openRegistry(ctx context.Context, s *session) (*forcestop.Registry, error) {
	return forcestop.NewRegistry(ctx, s.prefs, metrics.NoopRecorder{})
}

type ForceStopGetCmd struct {
	Package string `arg:"" help:"Package name"`
}

func (c *ForceStopGetCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	reg, err := openRegistry(ctx, s)
	if err != nil {
		return err
	}
	state := "off"
	if reg.GetFlag(c.Package) {
		state = "on"
	}
	_, _ = fmt.Fprintln(g.out(), state)
	return nil
}

type ForceStopSetCmd struct {
	Package string `arg:"" help:"Package name"`
	State   string `arg:"" enum:"on,off" help:"on or off"`
}

func (c *ForceStopSetCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	reg, err := openRegistry(ctx, s)
	if err != nil {
		return err
	}
	if err := reg.SetFlag(ctx, c.Package, onOff(c.State)); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "%s\t%s\n", c.Package, c.State)
	return nil
}

type ForceStopListCmd struct{}

func (c *ForceStopListCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	reg, err := openRegistry(ctx, s)
	if err != nil {
		return err
	}
	for _, pkg := range reg.List() {
		_, _ = fmt.Fprintln(g.out(), pkg)
	}
	return nil
}

type ForceStopSeedCmd struct{}

func (c *ForceStopSeedCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	reg, err := openRegistry(ctx, s)
	if err != nil {
		return err
	}
	seeded, err := reg.SeedDefaults(ctx, s.host, s.cfg.ForceStop.Defaults)
	if err != nil {
		return err
	}
	for _, pkg := range seeded {
		_, _ = fmt.Fprintln(g.out(), pkg)
	}
	return nil
}

type ForceStopSweepCmd struct {
	Wait time.Duration `help:"How long to wait for playing packages to pause" default:"0s"`
}

func (c *ForceStopSweepCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	reg, err := openRegistry(ctx, s)
	if err != nil {
		return err
	}
	sweeper := forcestop.NewSweeper(reg, s.host, s.host, forcestop.SweeperOptions{})
	sweeper.Sweep(ctx)

	deadline := time.Now().Add(c.Wait)
	for sweeper.Watching() > 0 && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	// Ends the sweep; packages still playing are left running.
	sweeper.ScreenOn()

	reports := sweeper.Reports()
	if len(reports) == 0 {
		return nil
	}
	for _, r := range reports[0].Results {
		line := fmt.Sprintf("%s\t%s", r.Package, r.Outcome)
		if r.Error != "" {
			line += "\t" + r.Error
		}
		_, _ = fmt.Fprintln(g.out(), line)
	}
	return nil
}
