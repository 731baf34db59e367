// SPDX-License-Identifier: MIT
/*
Package analysis turns a stream of mono samples into bucketed spectra and,
when a visualizer is attached, into frames.

A StreamAnalyzer keeps the most recent window of samples in a ring. Pushing a
sample is O(1); requesting a frame re-derives the whole spectrum from the
ring, rebuckets it and renders it. Nothing is carried over between frames
except the ring itself.

Thread Safety:
- A StreamAnalyzer is not safe for concurrent use. PushSample and
  RequestFrame must be called from one goroutine, in order.
*/
package analysis

import (
	"fmt"

	"barvis/internal/audio"
	"barvis/internal/fft"
	applog "barvis/internal/log"
	"barvis/internal/progress"
	"barvis/internal/visual"
)

// StreamConfig sizes a StreamAnalyzer.
type StreamConfig struct {
	WindowSize   int            // Requested ring capacity, rounded up to a power of two.
	SampleRateHz uint32         // Sample rate of the pushed stream.
	Window       fft.WindowFunc // Analysis window; Rectangular for none.
}

type StreamAnalyzer struct {
	sampleRate uint32
	ring       *audio.RollingWindow
	engine     *fft.Engine
	buckets    FrequencyContainer
	vis        visual.Visualizer // nil when no frames are wanted
	reporter   progress.Reporter

	// Pre-allocated snapshot of the ring, reused by every frame.
	snapshot []float32

	pushed  int
	started bool
	stopped bool
}

// NewStreamAnalyzer wires a ring, an FFT engine, buckets and an optional
// visualizer. A nil reporter discards progress.
func NewStreamAnalyzer(cfg StreamConfig, buckets FrequencyContainer, vis visual.Visualizer, reporter progress.Reporter) *StreamAnalyzer {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	ring := audio.NewRollingWindow(cfg.WindowSize)
	return &StreamAnalyzer{
		sampleRate: cfg.SampleRateHz,
		ring:       ring,
		engine:     fft.NewEngine(cfg.Window),
		buckets:    buckets,
		vis:        vis,
		reporter:   reporter,
		snapshot:   make([]float32, 0, ring.Cap()),
	}
}

// WindowCap returns the effective ring capacity.
func (a *StreamAnalyzer) WindowCap() int { return a.ring.Cap() }

// Count returns the number of samples pushed so far.
func (a *StreamAnalyzer) Count() int { return a.pushed }

// Active reports whether frames will be produced.
func (a *StreamAnalyzer) Active() bool { return a.vis != nil }

// Buckets returns the aggregator frames are computed with.
func (a *StreamAnalyzer) Buckets() FrequencyContainer { return a.buckets }

// Start switches the visualizer on. It is a no-op without a visualizer or
// when already started.
func (a *StreamAnalyzer) Start() error {
	if a.vis == nil || a.started {
		return nil
	}
	if err := a.vis.On(); err != nil {
		return fmt.Errorf("analyzer: visualizer on: %w", err)
	}
	a.started = true
	return nil
}

// PushSample appends s to the ring and reports progress.
func (a *StreamAnalyzer) PushSample(s float32) {
	a.ring.Push(s)
	a.pushed++
	a.reporter.Update(a.pushed)
}

// Analyze recomputes the buckets from the current ring contents.
func (a *StreamAnalyzer) Analyze() error {
	a.buckets.Clear()
	a.snapshot = a.ring.SnapshotInto(a.snapshot)

	points, err := a.engine.Analyze(a.snapshot, a.sampleRate)
	if err != nil {
		return err
	}
	for _, p := range points {
		a.buckets.Update(p.FrequencyHz, p.Magnitude)
	}
	return nil
}

// RequestFrame analyzes the ring and renders the buckets. Without a
// visualizer it returns (nil, nil). An error affects only this frame: the
// ring is untouched and the buckets are rebuilt by the next call.
func (a *StreamAnalyzer) RequestFrame() (*visual.Frame, error) {
	if a.vis == nil {
		return nil, nil
	}
	if err := a.Analyze(); err != nil {
		return nil, fmt.Errorf("analyzer: frame at sample %d: %w", a.pushed, err)
	}
	frame, err := a.vis.NextFrame(a.buckets.Values())
	if err != nil {
		return nil, fmt.Errorf("analyzer: render at sample %d: %w", a.pushed, err)
	}
	return frame, nil
}

// Shutdown switches the visualizer off exactly once. It is safe to call any
// number of times, with or without a visualizer.
func (a *StreamAnalyzer) Shutdown() error {
	if a.vis == nil || a.stopped {
		return nil
	}
	a.stopped = true
	applog.Debugf("Analyzer: Shutting down visualizer after %d samples", a.pushed)
	if err := a.vis.Off(); err != nil {
		return fmt.Errorf("analyzer: visualizer off: %w", err)
	}
	return nil
}
