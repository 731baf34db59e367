// SPDX-License-Identifier: MIT
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"barvis/internal/analysis"
	"barvis/internal/audio"
	"barvis/internal/config"
	"barvis/internal/fft"
	applog "barvis/internal/log"
	"barvis/internal/progress"
	"barvis/internal/transport"
	"barvis/internal/transport/udp"
	"barvis/internal/tui"
	"barvis/internal/video"
	"barvis/internal/visual"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

// Run decodes the input, renders frames, and muxes the result as configured.
func Run(ctx context.Context, cfg *config.Config) error {
	clip, err := audio.Decode(cfg.Paths.Input)
	if err != nil {
		return err
	}
	applog.Infof("Run: Decoded %s (%d samples, %d Hz, %s)", cfg.Paths.Input, len(clip.Samples), clip.SampleRate, clip.Duration())

	buckets, err := analysis.NewLogBuckets(cfg.Analysis.BucketCount, cfg.Analysis.FreqRangeHz)
	if err != nil {
		return err
	}
	window, err := fft.ParseWindowFunc(cfg.Analysis.FFTWindow)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var session *tui.Session
	if cfg.Progress.Mode == config.ProgressTUI {
		session = tui.NewSession("barvis: "+filepath.Base(cfg.Paths.Input), len(clip.Samples), cancel, tea.WithContext(ctx))
	}

	vis, err := buildVisualizer(cfg, session)
	if err != nil {
		return err
	}

	var sink video.FrameSink
	var tempPath string
	if vis != nil {
		sink, tempPath, err = openSink(ctx, cfg)
		if err != nil {
			return err
		}
	}

	reporter := buildReporter(cfg, session, len(clip.Samples))
	analyzer := analysis.NewStreamAnalyzer(analysis.StreamConfig{
		WindowSize:   cfg.Analysis.WindowSize,
		SampleRateHz: uint32(clip.SampleRate),
		Window:       window,
	}, buckets, vis, reporter)

	pipeline := &Pipeline{
		Analyzer:   analyzer,
		Sink:       sink,
		FPS:        cfg.Video.FPS,
		WindowSize: cfg.Analysis.WindowSize,
	}

	stats, err := process(ctx, pipeline, clip, session)
	reporter.Finish()
	if sink != nil {
		if closeErr := sink.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	if err != nil {
		removeTemp(cfg, tempPath)
		return err
	}
	applog.Infof("Run: %d frames written, %d dropped", stats.Frames, stats.Dropped)

	if vis == nil {
		// Analysis only: report the spectrum of the final window.
		if err := analyzer.Analyze(); err == nil {
			applog.Infof("Run: Final buckets %s", buckets)
		}
		return nil
	}

	if tempPath == "" || cfg.Paths.Output == "" {
		return nil
	}
	if err := video.Mux(ctx, cfg.Video.FFmpegPath, tempPath, cfg.Paths.Input, cfg.Paths.Output); err != nil {
		return err
	}
	removeTemp(cfg, tempPath)
	return nil
}

// process runs the pipeline, alongside the TUI when one is attached.
func process(ctx context.Context, p *Pipeline, clip *audio.Clip, session *tui.Session) (Stats, error) {
	if session == nil {
		return p.Process(ctx, clip)
	}

	// The TUI owns the terminal while it runs.
	release := applog.Hold()
	defer release()

	var stats Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(session.Run)
	g.Go(func() error {
		var err error
		stats, err = p.Process(gctx, clip)
		session.Done(err)
		return err
	})
	return stats, g.Wait()
}

// buildVisualizer returns nil when video is disabled. Every enabled preview
// transport wraps the bar visualizer in a visual.Tap.
func buildVisualizer(cfg *config.Config, session *tui.Session) (visual.Visualizer, error) {
	if !cfg.Video.Enabled {
		return nil, nil
	}

	bars, err := visual.NewBarVisualizer(cfg.VisualConfig(), cfg.Video.Style)
	if err != nil {
		return nil, err
	}

	var vis visual.Visualizer = bars

	if cfg.Transport.WSEnabled {
		vis = visual.NewTap(vis, transport.NewWebSocketTransport(cfg.Transport.WSAddress))
	}
	if cfg.Transport.UDPEnabled {
		vis = visual.NewTap(vis, udp.NewBucketPublisher(cfg.Transport.UDPTargetAddress))
	}
	if cfg.Transport.LogEnabled {
		vis = visual.NewTap(vis, transport.NewLoggingTransport())
	}
	if session != nil {
		vis = visual.NewTap(vis, session)
	}
	return vis, nil
}

func buildReporter(cfg *config.Config, session *tui.Session, total int) progress.Reporter {
	switch {
	case session != nil:
		return session
	case cfg.Progress.Mode == config.ProgressBar:
		return progress.NewBar(total, "Rendering: ", nil)
	default:
		return progress.Nop{}
	}
}

// openSink returns a PNG sink when frames_dir is set, else an ffmpeg encoder
// writing to the temp path (created next to the output when not given).
func openSink(ctx context.Context, cfg *config.Config) (video.FrameSink, string, error) {
	if cfg.Video.FramesDir != "" {
		sink, err := video.NewPNGSink(cfg.Video.FramesDir)
		return sink, "", err
	}

	tempPath := cfg.Paths.Temp
	if tempPath == "" {
		f, err := os.CreateTemp(filepath.Dir(cfg.Paths.Output), "barvis-*.mp4")
		if err != nil {
			return nil, "", fmt.Errorf("create temp video: %w", err)
		}
		tempPath = f.Name()
		f.Close()
	}

	enc, err := video.NewEncoder(ctx, video.EncoderOptions{
		FFmpegPath: cfg.Video.FFmpegPath,
		Width:      cfg.Video.Width,
		Height:     cfg.Video.Height,
		FPS:        cfg.Video.FPS,
		Codec:      cfg.Video.Codec,
		OutPath:    tempPath,
	})
	if err != nil {
		removeTemp(cfg, tempPath)
		return nil, "", err
	}
	return enc, tempPath, nil
}

func removeTemp(cfg *config.Config, path string) {
	if path == "" || cfg.Video.KeepTemp {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		applog.Warnf("Run: Could not remove %s: %v", path, err)
	}
}
