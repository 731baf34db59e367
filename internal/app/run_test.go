// SPDX-License-Identifier: MIT
package app

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"barvis/internal/config"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeToneWAV writes one second of a 440 Hz mono tone at 8 kHz.
func writeToneWAV(t *testing.T, dir string) string {
	t.Helper()
	const rate = 8000
	path := filepath.Join(dir, "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	data := make([]int, rate)
	for i := range data {
		data[i] = int(12000 * math.Sin(2*math.Pi*440*float64(i)/rate))
	}
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	return path
}

func testConfig(t *testing.T, input string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.Input = input
	cfg.Analysis.WindowSize = 256
	cfg.Analysis.BucketCount = 10
	cfg.Analysis.FreqRangeHz = 4000
	cfg.Video.Width = 100
	cfg.Video.Height = 20
	cfg.Video.FPS = 10
	cfg.Progress.Mode = config.ProgressNone
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return &cfg
}

func TestRunWritesPNGFrames(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, writeToneWAV(t, dir))
	cfg.Video.FramesDir = filepath.Join(dir, "frames")

	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Interval 800, warm-up 256: frames at t = 800..7200.
	matches, err := filepath.Glob(filepath.Join(cfg.Video.FramesDir, "frame*.png"))
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	if len(matches) != 9 {
		t.Errorf("wrote %d frames, want 9", len(matches))
	}
}

func TestRunAnalysisOnly(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, writeToneWAV(t, dir))
	cfg.Video.Enabled = false

	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRunEncodesAndMuxes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg needs a POSIX shell")
	}
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, "ffmpeg")
	script := "#!/bin/sh\nfor a; do out=$a; done\ncat > \"$out\"\n"
	if err := os.WriteFile(ffmpeg, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}

	cfg := testConfig(t, writeToneWAV(t, dir))
	cfg.Video.FFmpegPath = ffmpeg
	cfg.Paths.Temp = filepath.Join(dir, "temp.mp4")
	cfg.Paths.Output = filepath.Join(dir, "out.mp4")

	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(cfg.Paths.Output); err != nil {
		t.Errorf("output missing: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.Temp); !os.IsNotExist(err) {
		t.Errorf("temp video not removed: %v", err)
	}
}

func TestRunKeepTemp(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg needs a POSIX shell")
	}
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, "ffmpeg")
	script := "#!/bin/sh\nfor a; do out=$a; done\ncat > \"$out\"\n"
	if err := os.WriteFile(ffmpeg, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}

	cfg := testConfig(t, writeToneWAV(t, dir))
	cfg.Video.FFmpegPath = ffmpeg
	cfg.Video.KeepTemp = true
	cfg.Paths.Temp = filepath.Join(dir, "temp.mp4")
	cfg.Paths.Output = filepath.Join(dir, "out.mp4")

	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	info, err := os.Stat(cfg.Paths.Temp)
	if err != nil {
		t.Fatalf("temp video missing: %v", err)
	}
	if want := int64(9 * 100 * 20 * 3); info.Size() != want {
		t.Errorf("temp video size = %d, want %d raw bytes", info.Size(), want)
	}
}

func TestRunMissingInput(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing.wav"))
	if err := Run(context.Background(), cfg); err == nil {
		t.Error("Run() with missing input should fail")
	}
}
