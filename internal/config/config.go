// SPDX-License-Identifier: MIT
package config

// Core configuration constants that define the boundaries and defaults
// for the render pipeline.
const (
	// Analysis defaults
	DefaultWindowSize  = 1024    // Rolling window, samples (power of two)
	DefaultBucketCount = 50      // Logarithmic frequency buckets
	DefaultFreqRangeHz = 24000.0 // Upper bound of the bucketed range (Hz)
	DefaultFFTWindow   = "none"  // Plain unwindowed transform

	// Video defaults
	DefaultWidth            = 720       // Frame width in pixels
	DefaultHeight           = 220       // Frame height in pixels
	DefaultBucketSeparation = 0         // Gap between bars in pixels
	DefaultFPS              = 60        // Frames per second of audio
	DefaultStyle            = "outline" // Hollow bars
	DefaultFFmpegPath       = "ffmpeg"  // Looked up on PATH
	DefaultCodec            = "mpeg4"   // Silent video codec

	// Transport defaults
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultWSAddress        = "127.0.0.1:8080"

	DefaultProgressMode = ProgressBar
	DefaultLogLevel     = "info"

	// Processing limits
	MaxWindowSize = 1 << 16 // Largest rolling window accepted
	MaxFPS        = 240     // Highest frame rate accepted
)

// Progress modes.
const (
	ProgressBar  = "bar"
	ProgressTUI  = "tui"
	ProgressNone = "none"
)

// Paths holds the per-run file locations given on the command line.
type Paths struct {
	Input  string // Audio file to visualize
	Temp   string // Silent video written before muxing; empty picks a temp file
	Output string // Final muxed video
}
