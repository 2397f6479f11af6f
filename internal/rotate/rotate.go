// Package rotate reads and writes the rotation policy system setting.
package rotate

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/partsd/internal/foundation/normalization"
	"git.home.luguber.info/inful/partsd/internal/host"
)

// SettingKey is the system setting holding the policy.
const SettingKey = "aragaki.rotate.policy"

// Policy is the rotation policy.
type Policy string

const (
	PolicyDefault Policy = "0"
	PolicyLock    Policy = "1"
	PolicyRestore Policy = "2"
)

var policies = normalization.New("rotate policy", map[string]Policy{
	"0": PolicyDefault, "default": PolicyDefault,
	"1": PolicyLock, "lock": PolicyLock,
	"2": PolicyRestore, "restore": PolicyRestore,
}, PolicyDefault)

// ParsePolicy accepts the stored code or its name, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	return policies.Parse(s)
}

func (p Policy) Name() string {
	switch p {
	case PolicyLock:
		return "lock"
	case PolicyRestore:
		return "restore"
	default:
		return "default"
	}
}

// Service wraps the settings host.
type Service struct {
	settings host.Settings
}

func NewService(settings host.Settings) *Service {
	return &Service{settings: settings}
}

// Get returns the stored policy; unset or unknown values read as PolicyDefault.
func (s *Service) Get(ctx context.Context) (Policy, error) {
	v, found, err := s.settings.GetSystem(ctx, SettingKey)
	if err != nil {
		return PolicyDefault, err
	}
	if !found {
		return PolicyDefault, nil
	}
	switch p := Policy(v); p {
	case PolicyDefault, PolicyLock, PolicyRestore:
		return p, nil
	default:
		slog.Debug("Ignoring unknown rotate policy value", slog.String("value", v))
		return PolicyDefault, nil
	}
}

// Set validates and writes the policy.
func (s *Service) Set(ctx context.Context, policy string) (Policy, error) {
	p, err := ParsePolicy(policy)
	if err != nil {
		return PolicyDefault, err
	}
	if err := s.settings.PutSystem(ctx, SettingKey, string(p)); err != nil {
		return PolicyDefault, err
	}
	return p, nil
}
