// SPDX-License-Identifier: MIT
package main

import (
	"os"

	"audiovis/cmd"
	applog "audiovis/internal/log"
	"audiovis/pkg/build"

	"github.com/fatih/color"
)

// main stamps the build information and hands over to the command line.
// Long-running work (the audio callback, the frame loop, the control API)
// is started by the play command and torn down before Execute returns.
func main() {
	if err := build.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}

	if err := cmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
