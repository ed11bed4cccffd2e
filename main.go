package main

import (
	"os"

	"github.com/fluxled/flux2mqtt/cmd"
)

// version is overridden at build time with -ldflags.
var version = "dev"

func main() {
	if err := cmd.Execute(version); err != nil {
		os.Exit(1)
	}
}
