// Package version exposes build metadata injected via ldflags.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	// Version is the semantic version number
	Version = "0.3.0"

	// GitCommit is the git commit hash (injected at build time)
	GitCommit = "unknown"

	// BuildDate is the build date (injected at build time)
	BuildDate = "unknown"
)

// Info bundles everything reported by --version.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo snapshots the build metadata plus the runtime platform.
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetVersionString returns the one-line form, with a short commit hash
// when a build injected one.
func GetVersionString() string {
	if GitCommit == "unknown" {
		return "mailterm " + Version
	}
	short := GitCommit
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("mailterm %s (%s)", Version, short)
}

// GetDetailedVersionString returns the multi-line --version output.
func GetDetailedVersionString() string {
	info := GetInfo()
	build := "dev"
	if IsRelease() {
		build = "release"
	}
	lines := []string{
		"mailterm " + info.Version,
		"Git commit: " + info.GitCommit,
		"Build date: " + info.BuildDate,
		"Go version: " + info.GoVersion,
		"Platform: " + info.Platform,
		"Build type: " + build,
	}
	return strings.Join(lines, "\n")
}

// IsRelease reports whether this binary came from a tagged build
// rather than a dev tree.
func IsRelease() bool {
	return Version != "" && GitCommit != "unknown" && !strings.Contains(Version, "dev")
}
