// SPDX-License-Identifier: MIT
package app

import (
	"context"
	"fmt"

	"barvis/internal/analysis"
	"barvis/internal/audio"
	applog "barvis/internal/log"
	"barvis/internal/video"
	"barvis/pkg/bitint"
)

// Stats summarises one pass over a clip.
type Stats struct {
	Samples int // Samples pushed.
	Frames  int // Frames written to the sink.
	Dropped int // Frames whose production failed.
}

// FrameInterval returns how many samples separate two frames.
func FrameInterval(sampleRate, fps int) int {
	return max(1, sampleRate/max(1, fps))
}

// Pipeline drives a StreamAnalyzer over a decoded clip and hands frames to a
// sink at a fixed frame rate.
type Pipeline struct {
	Analyzer   *analysis.StreamAnalyzer
	Sink       video.FrameSink // May be nil when frames are not kept.
	FPS        int
	WindowSize int
}

// Process pushes every sample of clip once. After sample t a frame is
// requested when t is a multiple of the frame interval and the rolling
// window has warmed up. Frame errors are logged and skipped; sink errors and
// ctx cancellation stop the pass. The visualizer is switched off exactly once
// on return.
func (p *Pipeline) Process(ctx context.Context, clip *audio.Clip) (stats Stats, err error) {
	a := p.Analyzer
	interval := FrameInterval(clip.SampleRate, p.FPS)
	warmup := bitint.WarmupLength(p.WindowSize, len(clip.Samples))
	applog.Infof("Pipeline: %d samples at %d Hz, frame every %d samples after %d", len(clip.Samples), clip.SampleRate, interval, warmup)

	if err := a.Start(); err != nil {
		return stats, err
	}
	defer func() {
		if offErr := a.Shutdown(); offErr != nil && err == nil {
			err = offErr
		}
	}()

	for t, s := range clip.Samples {
		a.PushSample(s)
		stats.Samples++

		if t%interval != 0 || t <= warmup {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		frame, err := a.RequestFrame()
		if err != nil {
			stats.Dropped++
			applog.Warnf("Pipeline: Skipping frame at sample %d: %v", t, err)
			continue
		}
		if frame == nil {
			continue
		}
		if p.Sink != nil {
			if err := p.Sink.WriteFrame(frame); err != nil {
				return stats, fmt.Errorf("write frame %d: %w", stats.Frames, err)
			}
		}
		stats.Frames++
	}
	return stats, nil
}
