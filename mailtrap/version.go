package mailtrap

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version information, injected at build time via ldflags.
var (
	// Version is the semantic version of the module.
	Version = "dev"

	// GitCommit is the git commit hash when the binary was built.
	GitCommit = "unknown"
)

// GetVersion returns the current version string. Development builds fall back
// to the VCS revision recorded by the Go toolchain.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}

	commit := GitCommit
	if buildInfo, ok := debug.ReadBuildInfo(); ok && commit == "unknown" {
		for _, setting := range buildInfo.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
				commit = setting.Value[:12]
			}
		}
	}

	if commit == "unknown" {
		return Version
	}
	return Version + "+" + commit
}

// UserAgent returns the User-Agent sent with Mailtrap API requests.
func UserAgent() string {
	return fmt.Sprintf("authshield-mailtrap/%s (%s/%s)", GetVersion(), runtime.GOOS, runtime.GOARCH)
}
