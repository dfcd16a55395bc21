// Package version provides build information for the nescore binary
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

var (
	// These will be set at build time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	Arch       string `json:"arch"`
	CGOEnabled bool   `json:"cgo_enabled"`
	Tags       string `json:"tags"`
}

// GetBuildInfo returns detailed build information. VCS settings embedded
// by the go tool fill in whatever ldflags left unset.
func GetBuildInfo() BuildInfo {
	buildInfo := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if GitCommit == "unknown" {
					buildInfo.GitCommit = setting.Value
				}
			case "vcs.time":
				if BuildDate == "unknown" {
					buildInfo.BuildDate = setting.Value
				}
			case "CGO_ENABLED":
				buildInfo.CGOEnabled = setting.Value == "1"
			case "-tags":
				buildInfo.Tags = setting.Value
			}
		}
	}

	return buildInfo
}

// GetVersion returns a simple version string
func GetVersion() string {
	if Version == "dev" {
		buildInfo := GetBuildInfo()
		if buildInfo.GitCommit != "unknown" && len(buildInfo.GitCommit) >= 7 {
			return fmt.Sprintf("dev-%s", buildInfo.GitCommit[:7])
		}
	}
	return Version
}

// GetDetailedVersion returns a detailed version string
func GetDetailedVersion() string {
	return buildInfo(GetBuildInfo()).detailed()
}

type buildInfo BuildInfo

func (b buildInfo) detailed() string {
	var s strings.Builder
	fmt.Fprintf(&s, "nescore version %s", b.Version)

	if b.GitCommit != "unknown" {
		commit := b.GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		fmt.Fprintf(&s, " (commit %s)", commit)
	}

	if b.BuildDate != "unknown" {
		if parsed, err := time.Parse(time.RFC3339, b.BuildDate); err == nil {
			fmt.Fprintf(&s, " built on %s", parsed.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Fprintf(&s, " built on %s", b.BuildDate)
		}
	}

	fmt.Fprintf(&s, " with %s for %s/%s", b.GoVersion, b.Platform, b.Arch)
	if b.Tags != "" {
		fmt.Fprintf(&s, " [%s]", b.Tags)
	}
	return s.String()
}

// PrintBuildInfo prints formatted build information
func PrintBuildInfo() {
	b := GetBuildInfo()

	fmt.Printf("nescore - NES CPU and memory-mapping core\n")
	fmt.Printf("Version:     %s\n", b.Version)
	fmt.Printf("Git Commit:  %s\n", b.GitCommit)
	fmt.Printf("Build Date:  %s\n", b.BuildDate)
	fmt.Printf("Go Version:  %s\n", b.GoVersion)
	fmt.Printf("Platform:    %s/%s\n", b.Platform, b.Arch)
	fmt.Printf("CGO Enabled: %t\n", b.CGOEnabled)
	if b.Tags != "" {
		fmt.Printf("Build Tags:  %s\n", b.Tags)
	}
}
