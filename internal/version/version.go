// Package version carries the build's version, stamped at link time:
//
//	go build -ldflags "-X git.home.luguber.info/inful/quire/internal/version.Version=v0.3.0" ./cmd/quire
package version

import "fmt"

// Version is exposed to templates as the version variable.
var Version = "unknown"

// Build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by `quire version`.
func String() string {
	return fmt.Sprintf("quire %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
