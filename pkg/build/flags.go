// SPDX-License-Identifier: MIT
//
// Package build provides functionality to manage and retrieve build information
// for a Go application. It allows embedding metadata such as the application
// name, build timestamp, Git commit hash, and semantic version into the binary
// at compile time using linker flags. Flags left unset fall back to the VCS
// stamp the Go toolchain records, so development builds still report something
// useful.
package build

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrMissingFlag is returned by Initialize for every linker flag left unset.
var ErrMissingFlag = errors.New("build flag not set")

const (
	defaultName        = "spectrum"
	defaultDescription = "Real-time audio spectrum analyser"
	unknown            = "unknown"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation, for example:
//
//	go build -ldflags "-X spectrum/pkg/build.buildVersion=0.2.0"
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        defaultName,
		Description: defaultDescription,
		Time:        unknown,
		Commit:      unknown,
		Version:     unknown,
	}
)

// readBuildInfo is swapped out in tests.
var readBuildInfo = debug.ReadBuildInfo

// Initialize copies build information from the ldflags variables into the
// buildFlags struct. Missing flags are filled from the binary's embedded
// build info where possible and reported together as ErrMissingFlag. The
// returned error is informational: buildFlags is always usable afterwards.
func Initialize() error {
	fallback := vcsInfo()
	var errs []error

	resolve := func(flag, value, alt, def string) string {
		if value != "" {
			return value
		}
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingFlag, flag))
		if alt != "" {
			return alt
		}
		return def
	}

	buildFlags.Name = resolve("BuildName", buildName, "", defaultName)
	buildFlags.Time = resolve("BuildTime", buildTime, fallback.Time, unknown)
	buildFlags.Commit = resolve("BuildCommit", buildCommit, fallback.Commit, unknown)
	buildFlags.Version = resolve("BuildVersion", buildVersion, fallback.Version, unknown)

	return errors.Join(errs...)
}

// vcsInfo extracts the module version and VCS stamp from the binary.
func vcsInfo() ldFlags {
	var f ldFlags
	info, ok := readBuildInfo()
	if !ok {
		return f
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		f.Version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			f.Commit = s.Value
		case "vcs.time":
			f.Time = s.Value
		}
	}
	return f
}

// GetBuildFlags returns the current build information. Initialize()
// should be called first; before that only the defaults are set.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
