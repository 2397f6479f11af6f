package shell

import (
	"context"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"git.home.luguber.info/inful/partsd/internal/config"
	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
	"git.home.luguber.info/inful/partsd/internal/host"
	"git.home.luguber.info/inful/partsd/internal/logfields"
	"git.home.luguber.info/inful/partsd/internal/metrics"
	"git.home.luguber.info/inful/partsd/internal/retry"
	"git.home.luguber.info/inful/partsd/internal/util/sets"
)

var _ host.Host = (*Host)(nil)

var (
	packageNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)
	settingKeyRe  = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
)

// Options tune a Host. Zero values select defaults.
type Options struct {
	Timeout      time.Duration // per command
	PollInterval time.Duration // media session observers
	Retry        retry.Policy  // read-only queries only
	Recorder     metrics.Recorder
}

// OptionsFromConfig maps the host config section.
func OptionsFromConfig(cfg config.HostConfig, recorder metrics.Recorder) Options {
	return Options{
		Timeout:      cfg.CommandTimeoutDuration(),
		PollInterval: cfg.SessionPollDuration(),
		Retry:        retry.FromHostConfig(cfg),
		Recorder:     recorder,
	}
}

// Host runs platform commands through a Runner.
type Host struct {
	runner   Runner
	timeout  time.Duration
	policy   retry.Policy
	recorder metrics.Recorder
	sessions *sessionPoller

	closeOnce sync.Once
}

// New returns a Host. Close stops the media session poller.
func New(runner Runner, opts Options) *Host {
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultCommandTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = config.DefaultSessionPollInterval
	}
	if opts.Retry == (retry.Policy{}) {
		opts.Retry = retry.DefaultPolicy()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	h := &Host{
		runner:   runner,
		timeout:  opts.Timeout,
		policy:   opts.Retry,
		recorder: opts.Recorder,
	}
	h.sessions = newSessionPoller(h.ActiveSessions, opts.PollInterval)
	return h
}

// Close stops background polling. Registered observers receive nothing further.
func (h *Host) Close() {
	h.closeOnce.Do(h.sessions.close)
}

// query runs a read-only command with retries.
func (h *Host) query(ctx context.Context, op, command string) (string, error) {
	var out string
	err := h.policy.Do(ctx, retryable, func(ctx context.Context) error {
		var err error
		out, err = h.exec(ctx, op, command)
		return err
	})
	return out, err
}

// exec runs a command once under the per-command timeout.
func (h *Host) exec(ctx context.Context, op, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	out, err := h.runner.Run(ctx, command)
	d := time.Since(start)
	h.recorder.ObserveHostCommand(op, d, err == nil)
	if err != nil {
		slog.Debug("Host command failed",
			logfields.Command(op),
			logfields.DurationMS(float64(d.Microseconds())/1000),
			logfields.Error(err))
	}
	return out, err
}

func retryable(err error) bool {
	ce, ok := errors.AsClassified(err)
	return !ok || ce.CanRetry()
}

func validatePackage(pkg string) error {
	if !packageNameRe.MatchString(pkg) {
		return errors.ValidationError("invalid package name").WithContext("package", pkg).Build()
	}
	return nil
}

func (h *Host) InstalledPackages(ctx context.Context) ([]host.PackageInfo, error) {
	all, err := h.query(ctx, "list_packages", "pm list packages")
	if err != nil {
		return nil, err
	}
	third, err := h.query(ctx, "list_packages", "pm list packages -3")
	if err != nil {
		return nil, err
	}
	user := sets.New(parsePackageList(third)...)
	names := sets.New(parsePackageList(all)...)

	out := make([]host.PackageInfo, 0, len(names))
	for _, name := range sets.Sorted(names) {
		out = append(out, host.PackageInfo{Name: name, System: !user.Has(name)})
	}
	return out, nil
}

func (h *Host) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	if err := validatePackage(pkg); err != nil {
		return false, err
	}
	out, err := h.query(ctx, "list_packages", "pm list packages "+quote(pkg))
	if err != nil {
		return false, err
	}
	for _, name := range parsePackageList(out) {
		if name == pkg {
			return true, nil
		}
	}
	return false, nil
}

func (h *Host) ForceStop(ctx context.Context, pkg string) error {
	if err := validatePackage(pkg); err != nil {
		return err
	}
	_, err := h.exec(ctx, "force_stop", "am force-stop "+quote(pkg))
	return err
}

func (h *Host) ComponentEnabled(ctx context.Context, component string) (bool, error) {
	pkg, class, err := host.SplitComponent(component)
	if err != nil {
		return false, err
	}
	if err := validatePackage(pkg); err != nil {
		return false, err
	}
	out, err := h.query(ctx, "dumpsys_package", "dumpsys package "+quote(pkg))
	if err != nil {
		return false, err
	}
	return !parseDisabledComponents(out).Has(class), nil
}

func (h *Host) SetComponentEnabled(ctx context.Context, component string, enabled bool) error {
	pkg, class, err := host.SplitComponent(component)
	if err != nil {
		return err
	}
	if err := validatePackage(pkg); err != nil {
		return err
	}
	verb := "disable"
	if enabled {
		verb = "enable"
	}
	_, err = h.exec(ctx, "set_component", "pm "+verb+" "+quote(pkg+"/"+class))
	return err
}

func (h *Host) ActiveSessions(ctx context.Context) ([]host.Session, error) {
	out, err := h.query(ctx, "dumpsys_media_session", "dumpsys media_session")
	if err != nil {
		return nil, err
	}
	return parseMediaSessions(out), nil
}

func (h *Host) Watch(pkg string, fn func(host.PlaybackState)) func() {
	return h.sessions.watch(pkg, fn)
}

func (h *Host) ScreenOn(ctx context.Context) (bool, error) {
	out, err := h.query(ctx, "dumpsys_power", "dumpsys power")
	if err != nil {
		return false, err
	}
	on, ok := parseScreenOn(out)
	if !ok {
		return false, errors.HostError("unrecognized power state output").Build()
	}
	return on, nil
}

func (h *Host) ForegroundPackage(ctx context.Context) (string, error) {
	out, err := h.query(ctx, "dumpsys_activity", "dumpsys activity activities")
	if err != nil {
		return "", err
	}
	return parseForeground(out), nil
}

func (h *Host) GetSystem(ctx context.Context, key string) (string, bool, error) {
	if !settingKeyRe.MatchString(key) {
		return "", false, errors.ValidationError("invalid setting key").WithContext("key", key).Build()
	}
	out, err := h.query(ctx, "settings_get", "settings get system "+quote(key))
	if err != nil {
		return "", false, err
	}
	v, found := parseSetting(out)
	return v, found, nil
}

func (h *Host) PutSystem(ctx context.Context, key, value string) error {
	if !settingKeyRe.MatchString(key) {
		return errors.ValidationError("invalid setting key").WithContext("key", key).Build()
	}
	_, err := h.exec(ctx, "settings_put", "settings put system "+quote(key)+" "+quote(value))
	return err
}
