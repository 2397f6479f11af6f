// Package thermal maps installed packages to thermal profiles and writes the
// active profile to the kernel's thermal control node.
package thermal

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
)

// Profile is a thermal throttling profile.
type Profile int

const (
	Default Profile = iota
	Benchmark
	Browser
	Camera
	Dialer
	Gaming
	Streaming
)

// Profiles lists every profile in bucket lookup order, Default first.
var Profiles = []Profile{Default, Benchmark, Browser, Camera, Dialer, Gaming, Streaming}

var profileNames = [...]string{"default", "benchmark", "browser", "camera", "dialer", "gaming", "streaming"}

// Values written to the thermal control node.
var profileCodes = [...]string{"0", "10", "11", "12", "8", "9", "14"}

// String returns the lowercase profile name.
func (p Profile) String() string {
	if !p.Valid() {
		return "unknown(" + strconv.Itoa(int(p)) + ")"
	}
	return profileNames[p]
}

// Code returns the value written to the thermal control node for p.
func (p Profile) Code() string {
	if !p.Valid() {
		return profileCodes[Default]
	}
	return profileCodes[p]
}

// Valid reports whether p is one of the known profiles.
func (p Profile) Valid() bool {
	return p >= Default && p <= Streaming
}

// MarshalText implements encoding.TextMarshaler.
func (p Profile) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, errors.ValidationError("unknown thermal profile").WithContext("profile", int(p)).Build()
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Profile) UnmarshalText(text []byte) error {
	parsed, err := ParseProfile(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParseProfile accepts a profile name (case-insensitive) or its index 0..6.
func ParseProfile(s string) (Profile, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range profileNames {
		if s == name {
			return Profile(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Profile(n).Valid() {
		return Profile(n), nil
	}
	return Default, errors.ValidationError("unknown thermal profile").
		WithContext("profile", s).
		WithContext("valid", profileNames[:]).
		Build()
}
