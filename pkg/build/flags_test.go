// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origFlags   ldFlags
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	origFlags = *buildFlags

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	*buildFlags = origFlags

	os.Exit(exitCode)
}

func resetFlags() {
	buildFlags = &ldFlags{
		Name:        defaultName,
		Description: defaultDescription,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErrMsg  string
		wantVersion string
	}{
		{"Development build", "", "", "", "", "", "dev"},
		{"Missing BuildVersion", "audiovis", "2026-10-01", "abcdef1", "", "BuildVersion is required", ""},
		{"Missing BuildCommit", "audiovis", "2026-10-01", "", "v0.3.0", "BuildCommit is required", ""},
		{"Release build", "audiovis", "2026-10-01", "abcdef1", "v0.3.0", "", "v0.3.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()

			if tt.wantErrMsg != "" {
				if err == nil {
					t.Fatalf("Initialize() expected error, got nil")
				}
				if err.Error() != tt.wantErrMsg {
					t.Errorf("Initialize() error = %v, want %v", err, tt.wantErrMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("Initialize() unexpected error: %v", err)
			}
			if buildFlags.Version != tt.wantVersion {
				t.Errorf("buildFlags.Version = %v, want %v", buildFlags.Version, tt.wantVersion)
			}
			if buildFlags.Description == "" {
				t.Error("buildFlags.Description should never be empty")
			}
		})
	}
}

func TestGetBuildFlagsString(t *testing.T) {
	buildFlags = &ldFlags{
		Name:    "audiovis",
		Time:    "2026-10-01",
		Commit:  "abcdef1",
		Version: "v0.3.0",
	}

	want := "audiovis v0.3.0 (commit abcdef1, built 2026-10-01)"
	if got := GetBuildFlags().String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
