// Package host declares the device services partsd depends on. Implementations
// live in subpackages: shell drives a real device, hosttest is an in-memory fake.
package host

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
)

// PackageInfo describes one installed package.
type PackageInfo struct {
	Name   string `json:"name"`
	System bool   `json:"system"`
}

// Packages enumerates installed packages.
type Packages interface {
	InstalledPackages(ctx context.Context) ([]PackageInfo, error)
	IsInstalled(ctx context.Context, pkg string) (bool, error)
}

// Activities stops applications.
type Activities interface {
	ForceStop(ctx context.Context, pkg string) error
}

// Components reads and changes component enabled state. Component names are
// "package/class"; a class starting with "." is relative to the package.
type Components interface {
	ComponentEnabled(ctx context.Context, component string) (bool, error)
	SetComponentEnabled(ctx context.Context, component string, enabled bool) error
}

// MediaSessions exposes active media sessions and per-package playback observers.
type MediaSessions interface {
	ActiveSessions(ctx context.Context) ([]Session, error)
	// Watch calls fn on every playback state change of pkg's session until
	// the returned func is called. fn runs on the implementation's delivery
	// goroutine and must not block.
	Watch(pkg string, fn func(PlaybackState)) (unregister func())
}

// Display reports the power state of the display.
type Display interface {
	ScreenOn(ctx context.Context) (bool, error)
}

// Foreground reports the package of the resumed activity.
type Foreground interface {
	ForegroundPackage(ctx context.Context) (string, error)
}

// Settings reads and writes the system settings table.
type Settings interface {
	GetSystem(ctx context.Context, key string) (value string, found bool, err error)
	PutSystem(ctx context.Context, key, value string) error
}

// Host bundles every service.
type Host interface {
	Packages
	Activities
	Components
	MediaSessions
	Display
	Foreground
	Settings
}

// SplitComponent splits "package/class" and expands a relative class name.
func SplitComponent(component string) (pkg, class string, err error) {
	pkg, class, ok := strings.Cut(component, "/")
	if !ok || pkg == "" || class == "" {
		return "", "", errors.ValidationError("invalid component name").
			WithContext("component", component).
			Build()
	}
	if strings.HasPrefix(class, ".") {
		class = pkg + class
	}
	return pkg, class, nil
}
