// Package buildinfo carries version metadata stamped at link time:
//
//	go build -ldflags "-X github.com/12farit21/nosql-telegram-bot/core/buildinfo.Version=v1.2.3 \
//	    -X github.com/12farit21/nosql-telegram-bot/core/buildinfo.Commit=abcdef0"
//
// Unstamped builds fall back to the VCS data the Go toolchain embeds.
package buildinfo

import (
	"runtime/debug"
	"sync"
)

var (
	Version = "dev"
	Commit  = "local"
	// Date is an RFC 3339 build timestamp.
	Date = ""
)

var vcsOnce sync.Once

// Resolve returns Version, Commit and Date, filling unstamped values from
// the embedded VCS settings when present.
func Resolve() (version, commit, date string) {
	vcsOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		fromVCS(info)
	})
	return Version, Commit, Date
}

func fromVCS(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "local" && len(s.Value) >= 7 {
				Commit = s.Value[:7]
			}
		case "vcs.time":
			if Date == "" {
				Date = s.Value
			}
		}
	}
}
