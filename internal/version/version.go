// Package version carries build metadata injected with ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/partsd/internal/version.Version=v0.3.0"
package version

// Version is the partsd release.
var Version = "unknown"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version line shown by the CLI and /status.
func String() string {
	return Version + " (" + GitCommit + ", built " + BuildTime + ")"
}
