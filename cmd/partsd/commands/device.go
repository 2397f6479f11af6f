package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/freeze"
	"git.home.luguber.info/inful/partsd/internal/rotate"
	"git.home.luguber.info/inful/partsd/internal/touch"
)

// FreezeCmd groups the component freeze subcommands.
type FreezeCmd struct {
	List FreezeListCmd `cmd:"" help:"List the extra components and whether they are frozen"`
	Set  FreezeSetCmd  `cmd:"" help:"Freeze (on) or unfreeze (off) a component"`
}

type FreezeListCmd struct{}

func (c *FreezeListCmd) Run(g *Global, root *CLI) error {
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, comp := range freeze.NewService(s.host, s.cfg.Components).List(context.Background()) {
		state := "off"
		switch {
		case comp.Error != "":
			state = "unknown"
		case comp.Frozen:
			state = "on"
		}
		_, _ = fmt.Fprintf(g.out(), "%s\t%s\n", comp.Name, state)
	}
	return nil
}

type FreezeSetCmd struct {
	Component string `arg:"" help:"Component as package/class"`
	State     string `arg:"" enum:"on,off" help:"on or off"`
}

func (c *FreezeSetCmd) Run(g *Global, root *CLI) error {
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	return freeze.NewService(s.host, s.cfg.Components).SetFrozen(context.Background(), c.Component, onOff(c.State))
}

// RotateCmd groups the rotation policy subcommands.
type RotateCmd struct {
	Get RotateGetCmd `cmd:"" help:"Print the rotation policy"`
	Set RotateSetCmd `cmd:"" help:"Set the rotation policy"`
}

type RotateGetCmd struct{}

func (c *RotateGetCmd) Run(g *Global, root *CLI) error {
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := rotate.NewService(s.host).Get(context.Background())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "%s\t%s\n", string(p), p.Name())
	return nil
}

type RotateSetCmd struct {
	Policy string `arg:"" help:"default, lock or restore (or 0, 1, 2)"`
}

func (c *RotateSetCmd) Run(g *Global, root *CLI) error {
	s, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := rotate.NewService(s.host).Set(context.Background(), c.Policy)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "%s\t%s\n", string(p), p.Name())
	return nil
}

// DoubleTapCmd implements the 'doubletap' command.
type DoubleTapCmd struct {
	State string `arg:"" enum:"on,off" help:"on or off"`
}

func (c *DoubleTapCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root.Config)
	if err != nil {
		return err
	}
	dev := touch.NewDevice(cfg.Touch.DevicePath)
	if !dev.Supported() {
		return errors.NotFoundError("touch device not present").WithContext("path", cfg.Touch.DevicePath).Build()
	}
	if err := dev.SetDoubleTapToWake(onOff(c.State)); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "doubletap\t%s\n", c.State)
	return nil
}
