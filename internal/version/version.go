// Package version holds build metadata, set with -ldflags at release time.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func init() {
	if Version != "dev" {
		return
	}
	// go install builds carry the module version instead
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
}

// String returns the version with commit and build date.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, engine: goja)", Version, Commit, BuildDate)
}
