// Package hosttest provides an in-memory host.Host for tests.
package hosttest

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/host"
)

var _ host.Host = (*Fake)(nil)

type watcher struct {
	id  int
	pkg string
	fn  func(host.PlaybackState)
}

// Fake is a scriptable host. Watch callbacks run synchronously inside
// SetPlayback on the caller's goroutine.
type Fake struct {
	mu         sync.Mutex
	packages   map[string]bool // name -> system
	sessions   []host.Session
	watchers   []watcher
	nextID     int
	stopped    []string
	disabled   map[string]bool
	settings   map[string]string
	screenOn   bool
	foreground string

	// Errors injected per operation, keyed by method name ("ForceStop", ...).
	Errs map[string]error
	// StopErrs fails ForceStop for specific packages.
	StopErrs map[string]error
}

func NewFake() *Fake {
	return &Fake{
		packages: make(map[string]bool),
		disabled: make(map[string]bool),
		settings: make(map[string]string),
		screenOn: true,
		Errs:     make(map[string]error),
		StopErrs: make(map[string]error),
	}
}

func (f *Fake) injected(op string) error {
	return f.Errs[op]
}

// Install adds user packages.
func (f *Fake) Install(pkgs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range pkgs {
		f.packages[p] = false
	}
}

// InstallSystem adds system packages.
func (f *Fake) InstallSystem(pkgs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range pkgs {
		f.packages[p] = true
	}
}

func (f *Fake) Uninstall(pkg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.packages, pkg)
}

func (f *Fake) InstalledPackages(context.Context) ([]host.PackageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("InstalledPackages"); err != nil {
		return nil, err
	}
	out := make([]host.PackageInfo, 0, len(f.packages))
	for name, system := range f.packages {
		out = append(out, host.PackageInfo{Name: name, System: system})
	}
	slices.SortFunc(out, func(a, b host.PackageInfo) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (f *Fake) IsInstalled(_ context.Context, pkg string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("IsInstalled"); err != nil {
		return false, err
	}
	_, ok := f.packages[pkg]
	return ok, nil
}

func (f *Fake) ForceStop(_ context.Context, pkg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("ForceStop"); err != nil {
		return err
	}
	if err := f.StopErrs[pkg]; err != nil {
		return err
	}
	f.stopped = append(f.stopped, pkg)
	return nil
}

// Stopped returns the packages force-stopped so far, in call order.
func (f *Fake) Stopped() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.stopped)
}

func (f *Fake) ComponentEnabled(_ context.Context, component string) (bool, error) {
	if _, _, err := host.SplitComponent(component); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("ComponentEnabled"); err != nil {
		return false, err
	}
	return !f.disabled[component], nil
}

func (f *Fake) SetComponentEnabled(_ context.Context, component string, enabled bool) error {
	if _, _, err := host.SplitComponent(component); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("SetComponentEnabled"); err != nil {
		return err
	}
	f.disabled[component] = !enabled
	return nil
}

// SetSessions replaces the active session list without notifying watchers.
func (f *Fake) SetSessions(sessions ...host.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = slices.Clone(sessions)
}

func (f *Fake) ActiveSessions(context.Context) ([]host.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("ActiveSessions"); err != nil {
		return nil, err
	}
	return slices.Clone(f.sessions), nil
}

func (f *Fake) Watch(pkg string, fn func(host.PlaybackState)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.watchers = append(f.watchers, watcher{id: id, pkg: pkg, fn: fn})
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.watchers = slices.DeleteFunc(f.watchers, func(w watcher) bool { return w.id == id })
	}
}

// Watchers returns the number of registered playback observers.
func (f *Fake) Watchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

// SetPlayback updates pkg's session state and invokes its observers.
func (f *Fake) SetPlayback(pkg string, state host.PlaybackState) {
	f.mu.Lock()
	for i := range f.sessions {
		if f.sessions[i].Package == pkg {
			f.sessions[i].State = state
		}
	}
	var fns []func(host.PlaybackState)
	for _, w := range f.watchers {
		if w.pkg == pkg {
			fns = append(fns, w.fn)
		}
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

func (f *Fake) SetScreen(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screenOn = on
}

func (f *Fake) ScreenOn(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("ScreenOn"); err != nil {
		return false, err
	}
	return f.screenOn, nil
}

func (f *Fake) SetForeground(pkg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.foreground = pkg
}

func (f *Fake) ForegroundPackage(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("ForegroundPackage"); err != nil {
		return "", err
	}
	return f.foreground, nil
}

func (f *Fake) GetSystem(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("GetSystem"); err != nil {
		return "", false, err
	}
	v, ok := f.settings[key]
	return v, ok, nil
}

func (f *Fake) PutSystem(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.injected("PutSystem"); err != nil {
		return err
	}
	if key == "" {
		return errors.ValidationError("setting key is empty").Build()
	}
	f.settings[key] = value
	return nil
}
