// Package shell implements host.Host by running platform shell commands, either
// locally on the device or through adb from a workstation.
package shell

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/partsd/internal/config"
	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
)

// Runner executes one shell command line and returns its standard output.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// LocalRunner runs commands with sh -c on the current machine.
type LocalRunner struct {
	Shell string
}

func (r LocalRunner) Run(ctx context.Context, command string) (string, error) {
	sh := r.Shell
	if sh == "" {
		sh = "sh"
	}
	return run(ctx, command, sh, "-c", command)
}

// ADBRunner runs commands through adb shell on the device with Serial.
type ADBRunner struct {
	ADB    string
	Serial string
}

func (r ADBRunner) Run(ctx context.Context, command string) (string, error) {
	bin := r.ADB
	if bin == "" {
		bin = config.DefaultADBPath
	}
	args := make([]string, 0, 4)
	if r.Serial != "" {
		args = append(args, "-s", r.Serial)
	}
	args = append(args, "shell", command)
	return run(ctx, command, bin, args...)
}

// NewRunner returns the runner selected by cfg.Mode.
func NewRunner(cfg config.HostConfig) Runner {
	if cfg.Mode == config.HostModeADB {
		return ADBRunner{ADB: cfg.ADBPath, Serial: cfg.Serial}
	}
	return LocalRunner{}
}

func run(ctx context.Context, command, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		b := errors.WrapError(err, errors.CategoryHost, "host command failed").
			Retryable().
			WithContext("command", command).
			WithContext("stderr", strings.TrimSpace(stderr.String()))
		if ctx.Err() != nil {
			b = b.WithContext("timeout", true)
		}
		return stdout.String(), b.Build()
	}
	return stdout.String(), nil
}

// quote single-quotes s for sh.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
