package config

import "git.home.luguber.info/inful/partsd/internal/foundation/normalization"

// RetryBackoffMode enumerates supported backoff strategies for host query retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.New("retry backoff", map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, "")

// NormalizeRetryBackoff converts user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}

// HostMode selects how host commands are executed.
type HostMode string

const (
	HostModeLocal HostMode = "local" // sh -c on the device itself
	HostModeADB   HostMode = "adb"   // adb -s <serial> shell from a workstation
)

var hostModeNormalizer = normalization.New("host mode", map[string]HostMode{
	"local": HostModeLocal,
	"adb":   HostModeADB,
}, "")

// NormalizeHostMode returns the typed mode or empty string for unknown input.
func NormalizeHostMode(raw string) HostMode {
	return hostModeNormalizer.Normalize(raw)
}
