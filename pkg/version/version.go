// Package version reports the build identity of the lineheight binary.
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "unknown"

// Build identity, normally set with -ldflags "-X".
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills Version, Commit and Date from the embedded build
// info when they were not set at link time.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && Commit == unknown:
			Commit = s.Value
		case s.Key == "vcs.time" && Date == unknown:
			Date = s.Value
		}
	}
}

// String formats the identity for the version command.
func String() string {
	return fmt.Sprintf("lineheight %s (commit: %s, built: %s)", Version, Commit, Date)
}
