package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"barvis/cmd"
	"barvis/internal/app"
	"barvis/internal/fft"
	applog "barvis/internal/log"
	"barvis/internal/visual"
	"barvis/pkg/build"
)

// main is the entry point for the bar visualizer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase:
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Execute one-off commands if requested
//
// 2. Render Phase:
//   - Decode the input audio
//   - Analyze every sample and render a frame per video tick
//   - Encode frames and mux the input audio back in
//
// 3. Shutdown Phase:
//   - Handle termination signals
//   - Close transports and remove intermediate files
func main() {
	// ==================== STARTUP PHASE ====================

	// Build info is injected by ldflags; development builds keep the defaults.
	if err := build.Initialize(); err != nil {
		applog.Debugf("build info not set: %v", err)
	}

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if cfg == nil {
		return
	}
	applog.SetLevel(cfg.Level())

	if cfg.Command != "" {
		if err := executeCommand(cfg.Command); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	// ==================== RENDER PHASE ====================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = app.Run(ctx, cfg)

	// ==================== SHUTDOWN PHASE ====================

	switch {
	case err == nil:
		if cfg.Paths.Output != "" && cfg.Video.Enabled && cfg.Video.FramesDir == "" {
			fmt.Printf("Video saved to: %s\n", cfg.Paths.Output)
		}
	case errors.Is(err, context.Canceled):
		applog.Warn("render interrupted")
		stop()
		os.Exit(130)
	default:
		stop()
		applog.Fatalf("%v", err)
	}
}

// executeCommand handles one-off commands that don't render anything.
func executeCommand(command string) error {
	switch command {
	case cmd.CommandWindows:
		fmt.Println(strings.Join(fft.WindowNames(), "\n"))
	case cmd.CommandStyles:
		fmt.Println(strings.Join(visual.StyleNames(), "\n"))
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}
