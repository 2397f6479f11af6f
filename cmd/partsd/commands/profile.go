package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/metrics"
	"git.home.luguber.info/inful/partsd/internal/thermal"
)

// ProfileCmd groups the thermal profile subcommands.
type ProfileCmd struct {
	Get   ProfileGetCmd   `cmd:"" help:"Print a package's thermal profile"`
	Set   ProfileSetCmd   `cmd:"" help:"Assign a thermal profile to a package"`
	List  ProfileListCmd  `cmd:"" help:"List packages with a non-default profile"`
	Apply ProfileApplyCmd `cmd:"" help:"Write a package's profile to the thermal control node"`
}

type ProfileGetCmd struct {
	Package string `arg:"" help:"Package name"`
}

func (c *ProfileGetCmd) Run(g *Global, root *CLI) error {
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := thermal.NewStore(s.prefs).GetProfile(context.Background(), c.Package)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.out(), p)
	return nil
}

type ProfileSetCmd struct {
	Package string `arg:"" help:"Package name"`
	Profile string `arg:"" help:"default, benchmark, browser, camera, dialer, gaming or streaming"`
}

func (c *ProfileSetCmd) Run(g *Global, root *CLI) error {
	profile, err := thermal.ParseProfile(c.Profile)
	if err != nil {
		return err
	}
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := thermal.NewStore(s.prefs).SetProfile(context.Background(), c.Package, profile); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "%s\t%s\n", c.Package, profile)
	return nil
}

type ProfileListCmd struct {
	Profile string `help:"Only list packages with this profile"`
}

func (c *ProfileListCmd) Run(g *Global, root *CLI) error {
	var filter *thermal.Profile
	if c.Profile != "" {
		p, err := thermal.ParseProfile(c.Profile)
		if err != nil {
			return err
		}
		filter = &p
	}

	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := thermal.NewStore(s.prefs).List(context.Background())
	if err != nil {
		return err
	}
	for _, a := range list {
		if filter != nil && a.Profile != *filter {
			continue
		}
		_, _ = fmt.Fprintf(g.out(), "%s\t%s\n", a.Package, a.Profile)
	}
	return nil
}

type ProfileApplyCmd struct {
	Package string `arg:"" optional:"" help:"Package name; the default profile when omitted"`
}

func (c *ProfileApplyCmd) Run(g *Global, root *CLI) error {
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	control := thermal.NewControl(s.cfg.Thermal.ControlPath)
	if !control.Available() {
		return errors.DeviceError("thermal control node not present").
			WithContext("path", control.Path()).Build()
	}
	svc := thermal.NewService(thermal.NewStore(s.prefs), control, metrics.NoopRecorder{})

	if c.Package == "" {
		if err := svc.ApplyDefault(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(g.out(), thermal.Default)
		return nil
	}
	p, err := svc.Apply(context.Background(), c.Package)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.out(), p)
	return nil
}
