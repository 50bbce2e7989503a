// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"spectrum/cmd"
	applog "spectrum/internal/log"
	"spectrum/pkg/build"
)

// main is the entry point for the spectrum analyser.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse configuration file, environment and command line
//
// 2. Concurrent Phase (Hot Path):
//   - Capture or decode audio into blocks
//   - Project each block into waveform and spectrum curves
//   - Fan frames out to the UI and transports
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop recording if active
//   - Clean up resources
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	buildErr := build.Initialize()

	// Limit OS threads: one for the audio callback, one for the projector,
	// UI and I/O.
	runtime.GOMAXPROCS(2)

	config, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if config == nil {
		// Help or version was printed.
		return
	}

	applog.Configure(config.LogLevel, config.Debug)
	if buildErr != nil {
		applog.Debugf("Build: %v", buildErr)
	}
	if config.ConfigPath != "" {
		applog.Infof("Config: Loaded %s", config.ConfigPath)
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute blocks until the command finishes or a termination signal
	// arrives. Recording, streams and transports are released as it unwinds.
	err = cmd.Execute(ctx, config)

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	stop()
	if err != nil {
		applog.Fatalf("%v", err)
	}
}
