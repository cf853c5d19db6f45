// Package version exposes build metadata set via -ldflags.
package version

import "fmt"

// Set at build time:
//
//	go build -ldflags "-X .../internal/version.Version=1.2.0 -X .../internal/version.Commit=abc1234"
var (
	Version = "dev"
	Commit  = ""
)

// Short returns the bare version string.
func Short() string {
	return Version
}

// Info returns the version with the commit hash when available.
func Info() string {
	if Commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
