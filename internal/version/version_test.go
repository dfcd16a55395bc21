package version

import (
	"strings"
	"testing"
)

func TestDetailedVersion(t *testing.T) {
	tests := []struct {
		name     string
		info     BuildInfo
		expected string
	}{
		{
			"dev build",
			BuildInfo{Version: "dev", GitCommit: "unknown", BuildDate: "unknown", GoVersion: "go1.23.4", Platform: "linux", Arch: "amd64"},
			"nescore version dev with go1.23.4 for linux/amd64",
		},
		{
			"release build",
			BuildInfo{Version: "v0.3.0", GitCommit: "0123456789abcdef", BuildDate: "2024-05-01T10:20:30Z", GoVersion: "go1.23.4", Platform: "darwin", Arch: "arm64"},
			"nescore version v0.3.0 (commit 0123456) built on 2024-05-01 10:20:30 with go1.23.4 for darwin/arm64",
		},
		{
			"short commit and free-form date",
			BuildInfo{Version: "v1", GitCommit: "abc", BuildDate: "yesterday", GoVersion: "go1.23.4", Platform: "linux", Arch: "arm", Tags: "headless"},
			"nescore version v1 (commit abc) built on yesterday with go1.23.4 for linux/arm [headless]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildInfo(tt.info).detailed(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	v := GetVersion()
	if v != "dev" && !strings.HasPrefix(v, "dev-") {
		t.Errorf("Expected a dev version, got %q", v)
	}
}
