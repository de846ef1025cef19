// SPDX-License-Identifier: MIT
//
// Package build carries the version metadata stamped into the binary at link
// time: the program name, build timestamp, Git commit and semantic version.
// The CLI prints it for --version and the control API reports it from
// /health, so a running visualizer can always be traced back to the commit
// it was built from.
//
// Release builds set the values with linker flags:
//
//	go build -ldflags "-X audiovis/pkg/build.buildVersion=0.3.0 \
//	    -X audiovis/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	    -X audiovis/pkg/build.buildTime=$(date -u +%FT%TZ)"
//
// Development builds carry no flags at all and report "dev"/"unknown".
// Initialize must run before GetBuildFlags or String are used.
package build

import "fmt"

const (
	defaultName        = "audiovis"
	defaultDescription = "Audio-reactive 3D visualization engine"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        defaultName,
		Description: defaultDescription,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize copies the linker-provided values into the build flags. A
// build with no flags is accepted as a development build; a build that sets
// some flags but not the version/commit pair is rejected because release
// tooling forgot something.
func Initialize() error {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}

	stamped := buildName != "" || buildTime != "" || buildCommit != "" || buildVersion != ""
	if !stamped {
		return nil
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}

	buildFlags.Version = buildVersion
	buildFlags.Commit = buildCommit
	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String renders the build information as a single line for --version and /health.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}
