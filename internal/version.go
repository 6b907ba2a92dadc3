package internal

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version of the SDTP server and tools. Release builds override it with
// -ldflags "-X github.com/engagelively/sdtp/internal.version=...".
var Version = newVersion()

var version = "0.1.0-dev"

type VersionInfo struct {
	Version string
	Commit  string
}

func newVersion() VersionInfo {
	v := VersionInfo{Version: version}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				v.Commit = setting.Value
			}
		}
	}

	return v
}

// Print writes the version and build information of project to stdout.
func (v VersionInfo) Print(project string) {
	fmt.Println(project, "version:", v.Version)
	fmt.Println()

	fmt.Println("Build information:")
	fmt.Printf("  Go version: %s (%s, %s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if v.Commit != "" {
		fmt.Println("  Git commit:", v.Commit)
	}
}
