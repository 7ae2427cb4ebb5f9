// Package buildinfo reports which flowmap build is running.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/flowmap/pkg/buildinfo.Version=v0.4.0 \
//	    -X github.com/matzehuels/flowmap/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/flowmap/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/flowmap
//
// Binaries built with go install carry no ldflags; [Get] then falls back to
// the module version and VCS stamp the Go toolchain embeds.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Placeholders left in unstamped builds.
const (
	devVersion  = "dev"
	noCommit    = "none"
	unknownDate = "unknown"
)

// Stamped by ldflags.
var (
	Version = devVersion
	Commit  = noCommit
	Date    = unknownDate
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info describes a flowmap binary. The server reports it on /healthz.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"built"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified,omitempty"` // built from a dirty tree
}

// Get returns the stamped build information, filling unstamped fields from
// the toolchain's embedded module and VCS data.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == devVersion && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == noCommit {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == unknownDate {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// ShortCommit trims a full SHA to twelve characters.
func (i Info) ShortCommit() string {
	if len(i.Commit) > 12 {
		return i.Commit[:12]
	}
	return i.Commit
}

func (i Info) String() string {
	commit := i.ShortCommit()
	if i.Modified {
		commit += " (modified)"
	}
	return fmt.Sprintf("flowmap %s\ncommit: %s\nbuilt: %s\ngo: %s", i.Version, commit, i.Date, i.GoVersion)
}

// String returns the formatted build information.
func String() string {
	return Get().String()
}

// Template returns the --version template for the root command.
func Template() string {
	return String() + "\n"
}
