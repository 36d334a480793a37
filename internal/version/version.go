package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the current version of the application (set during build)
	Version = "dev"

	// GitCommit is the git commit hash (set during build)
	GitCommit = "unknown"

	// BuildDate is the build date (set during build)
	BuildDate = "unknown"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build information. Binaries installed with "go install"
// carry no ldflags, so the module version and VCS stamp are used instead.
func Get() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" && len(setting.Value) >= 7 {
				info.GitCommit = setting.Value[:7]
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = setting.Value
			}
		}
	}
	return info
}

// Short returns the version string only
func Short() string {
	return Get().Version
}

// UserAgent identifies shelly to remote services
func UserAgent() string {
	return "shelly/" + Short()
}

// String returns detailed version information
func (b BuildInfo) String() string {
	return fmt.Sprintf(`shelly %s
Git Commit: %s
Build Date: %s
Go Version: %s
OS/Arch:    %s`,
		b.Version,
		b.GitCommit,
		b.BuildDate,
		b.GoVersion,
		b.Platform,
	)
}
