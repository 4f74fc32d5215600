// Package buildinfo identifies the running build.
package buildinfo

import (
	"runtime/debug"
	"sync"
)

// Version, Commit and Date are set at build time via -ldflags, e.g.
//
//	-X duet/internal/buildinfo.Version=v0.3.0
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var vcsOnce sync.Once

// fillFromVCS takes Commit and Date from the toolchain's VCS stamp when
// ldflags did not set them.
func fillFromVCS() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "unknown" && len(s.Value) >= 12 {
				Commit = s.Value[:12]
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = s.Value
			}
		}
	}
}

// Short returns a compact build identifier for UI/logging.
func Short() string {
	vcsOnce.Do(fillFromVCS)
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return "dev-" + Commit
	}
	return "dev"
}
