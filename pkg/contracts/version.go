package contracts

import (
	"fmt"
	"runtime"
)

// Version is the salescli release
const Version = "0.3.0"

// FeatureSetVersion identifies the column layout of the feature tables.
// Bump it when a column is added, removed or reordered.
const FeatureSetVersion = "v1"

// Set with -ldflags "-X .../pkg/contracts.GitCommit=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version    string `json:"version"`
	FeatureSet string `json:"feature_set"`
	BuildTime  string `json:"build_time"`
	GitCommit  string `json:"git_commit"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// GetVersionInfo returns the build details of the binary
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:    Version,
		FeatureSet: FeatureSetVersion,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetVersionString returns "salescli v<version>"
func GetVersionString() string {
	return "salescli v" + Version
}

// GetFullVersionString returns the version line printed by salescli version
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s (features: %s, built: %s, commit: %s, go: %s, %s)",
		GetVersionString(), info.FeatureSet, info.BuildTime, info.GitCommit, info.GoVersion, info.Platform)
}
