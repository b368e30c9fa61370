// mediadesk - media library and distributor report client
package main

import (
	"os"

	"github.com/distrohub/mediadesk/internal/cli"
	"github.com/distrohub/mediadesk/internal/version"
)

// Set by ldflags; empty values keep the internal/version defaults.
var (
	Version   = ""
	BuildTime = ""
)

func main() {
	if Version != "" {
		version.Version = Version
	}
	if BuildTime != "" {
		version.BuildTime = BuildTime
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
