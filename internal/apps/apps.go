// Package apps builds the user-facing application list: every user package
// with its thermal profile and force-stop flag.
package apps

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"git.home.luguber.info/inful/partsd/internal/host"
	"git.home.luguber.info/inful/partsd/internal/thermal"
	"git.home.luguber.info/inful/partsd/internal/util/sets"
)

// DisabledSection is the section index of packages whose components are disabled.
const DisabledSection = "--"

// App is one row of the list.
type App struct {
	Package   string          `json:"package"`
	Profile   thermal.Profile `json:"profile"`
	ForceStop bool            `json:"force_stop"`
	Disabled  bool            `json:"disabled"`
	Section   string          `json:"section"`
}

// Flags is the force-stop lookup the list needs.
type Flags interface {
	GetFlag(pkg string) bool
}

// Lister assembles the list from the host and the two stores.
type Lister struct {
	Packages   host.Packages
	Components host.Components
	Profiles   *thermal.Store
	Flags      Flags
	// Extra lists fixed "package/class" components whose packages are always
	// included, even when they are system packages.
	Extra []string
}

// UserApps returns the non-system packages plus the packages of the extra
// components, sorted by name.
func (l *Lister) UserApps(ctx context.Context) ([]App, error) {
	installed, err := l.Packages.InstalledPackages(ctx)
	if err != nil {
		return nil, err
	}

	names := sets.New[string]()
	all := sets.New[string]()
	for _, p := range installed {
		all.Add(p.Name)
		if !p.System {
			names.Add(p.Name)
		}
	}

	disabled := sets.New[string]()
	for _, c := range l.Extra {
		pkg, _, err := host.SplitComponent(c)
		if err != nil || !all.Has(pkg) {
			continue
		}
		names.Add(pkg)
		if l.Components == nil {
			continue
		}
		if enabled, err := l.Components.ComponentEnabled(ctx, c); err == nil && !enabled {
			disabled.Add(pkg)
		}
	}

	out := make([]App, 0, len(names))
	for name := range names {
		profile, err := l.Profiles.GetProfile(ctx, name)
		if err != nil {
			return nil, err
		}
		app := App{
			Package:   name,
			Profile:   profile,
			ForceStop: l.Flags.GetFlag(name),
			Disabled:  disabled.Has(name),
		}
		app.Section = SectionIndex(app.Package, app.Disabled)
		out = append(out, app)
	}
	slices.SortFunc(out, func(a, b App) int {
		return cmp.Or(cmp.Compare(strings.ToLower(a.Package), strings.ToLower(b.Package)), cmp.Compare(a.Package, b.Package))
	})
	return out, nil
}

// SectionIndex returns the upper-cased first letter of label, or "--" when disabled.
func SectionIndex(label string, disabled bool) string {
	if disabled {
		return DisabledSection
	}
	r, _ := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return "#"
	}
	return string(unicode.ToUpper(r))
}
