// Package version reports the build's version and VCS details.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is overridden at build time with
// -ldflags "-X github.com/tesh254/webmd/internal/version.Version=x.y.z".
var Version = "2.0.0"

// Name is the binary name shown in version output.
const Name = "webmd"

// BuildInfo holds what the Go toolchain embedded in the binary.
type BuildInfo struct {
	Version    string
	GitCommit  string
	IsModified bool
	GoVersion  string
	Platform   string
}

// GetVersion returns the version prefixed with "v".
func GetVersion() string {
	return "v" + Version
}

// GetShortVersion is the one-line string printed by --version.
func GetShortVersion() string {
	return Name + " " + GetVersion()
}

// GetBuildInfo collects VCS settings from the embedded build information.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   GetVersion(),
		GitCommit: "unknown",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.GitCommit = s.Value
			if len(info.GitCommit) > 7 {
				info.GitCommit = info.GitCommit[:7]
			}
		case "vcs.modified":
			info.IsModified = s.Value == "true"
		}
	}
	return info
}

// GetDetailedVersion adds commit and toolchain details to the short version.
// It is what --version prints together with --verbose.
func GetDetailedVersion() string {
	info := GetBuildInfo()
	commit := info.GitCommit
	if info.IsModified {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (commit %s, %s, %s)", GetShortVersion(), commit, info.GoVersion, info.Platform)
}
