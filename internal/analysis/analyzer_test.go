// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"math"
	"testing"

	"barvis/internal/fft"
	"barvis/internal/progress"
	"barvis/internal/visual"
	"barvis/pkg/utils"
)

const (
	testWindow     = 1024
	testSampleRate = 48000
	testBuckets    = 50
	testRangeHz    = 24000
)

// recordingVisualizer keeps every bucket vector it is asked to draw.
type recordingVisualizer struct {
	on, off int
	seen    [][]float32
	failOn  int // NextFrame call (1-based) that fails; 0 never
	calls   int
}

var errRender = errors.New("render failed")

func (v *recordingVisualizer) On() error  { v.on++; return nil }
func (v *recordingVisualizer) Off() error { v.off++; return nil }
func (v *recordingVisualizer) NextFrame(b []float32) (*visual.Frame, error) {
	v.calls++
	if v.calls == v.failOn {
		return nil, errRender
	}
	v.seen = append(v.seen, append([]float32(nil), b...))
	return visual.NewFrame(4, 4), nil
}

func newAnalyzer(t *testing.T, vis visual.Visualizer, rep progress.Reporter) *StreamAnalyzer {
	t.Helper()
	buckets, err := NewLogBuckets(testBuckets, testRangeHz)
	if err != nil {
		t.Fatalf("NewLogBuckets() error = %v", err)
	}
	cfg := StreamConfig{WindowSize: testWindow, SampleRateHz: testSampleRate, Window: fft.Rectangular}
	return NewStreamAnalyzer(cfg, buckets, vis, rep)
}

func argmax(v []float32) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func expectedBucket(freq float64) int {
	return int(math.Floor(math.Log2(freq/testRangeHz+1) * (testBuckets / math.Log2(testRangeHz))))
}

func TestStreamAnalyzerSinePeak(t *testing.T) {
	tests := []struct {
		name string
		bin  int
	}{
		{"3 kHz", 64},
		{"9.375 kHz", 200},
		{"15 kHz", 320},
		{"22.5 kHz", 480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			freq := utils.BinFrequency(tt.bin, testWindow, testSampleRate)
			samples := utils.GenerateSineWave(testWindow, testSampleRate, freq)

			var first []float32
			for run := range 2 {
				vis := &recordingVisualizer{}
				a := newAnalyzer(t, vis, nil)
				for _, s := range samples {
					a.PushSample(s)
				}
				frame, err := a.RequestFrame()
				if err != nil || frame == nil {
					t.Fatalf("RequestFrame() = %v, %v", frame, err)
				}

				got := vis.seen[0]
				if peak := argmax(got); peak != expectedBucket(freq) {
					t.Fatalf("peak bucket = %d, want %d (buckets %v)", peak, expectedBucket(freq), got)
				}
				if run == 0 {
					first = got
					continue
				}
				for i := range got {
					if math.Abs(float64(got[i]-first[i])) > 1e-3 {
						t.Errorf("bucket %d differs between runs: %v vs %v", i, first[i], got[i])
					}
				}
			}
		})
	}
}

func TestStreamAnalyzerWithoutVisualizer(t *testing.T) {
	var counter progress.Counter
	a := newAnalyzer(t, nil, &counter)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	samples := utils.GenerateComplexWave(5000, testSampleRate)
	for i, s := range samples {
		a.PushSample(s)
		if i%100 == 0 {
			frame, err := a.RequestFrame()
			if frame != nil || err != nil {
				t.Fatalf("RequestFrame() = %v, %v; want nil, nil", frame, err)
			}
		}
	}
	if a.Active() {
		t.Error("Active() = true without visualizer")
	}
	if counter.Last != len(samples) || counter.Updates != len(samples) {
		t.Errorf("progress = %+v, want %d updates", counter, len(samples))
	}
	if err := a.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestStreamAnalyzerEmptyRing(t *testing.T) {
	vis := &recordingVisualizer{}
	a := newAnalyzer(t, vis, nil)

	_, err := a.RequestFrame()
	if !errors.Is(err, fft.ErrEmptyInput) {
		t.Fatalf("RequestFrame() on empty ring error = %v, want ErrEmptyInput", err)
	}

	// The failure is frame-local.
	a.PushSample(0.5)
	if _, err := a.RequestFrame(); err != nil {
		t.Fatalf("RequestFrame() after push error = %v", err)
	}
}

func TestStreamAnalyzerRenderErrorIsFrameLocal(t *testing.T) {
	vis := &recordingVisualizer{failOn: 1}
	a := newAnalyzer(t, vis, nil)

	freq := utils.BinFrequency(64, testWindow, testSampleRate)
	for _, s := range utils.GenerateSineWave(testWindow, testSampleRate, freq) {
		a.PushSample(s)
	}

	if _, err := a.RequestFrame(); !errors.Is(err, errRender) {
		t.Fatalf("first RequestFrame() error = %v, want errRender", err)
	}
	frame, err := a.RequestFrame()
	if err != nil || frame == nil {
		t.Fatalf("second RequestFrame() = %v, %v", frame, err)
	}
	if peak := argmax(vis.seen[0]); peak != expectedBucket(freq) {
		t.Errorf("peak bucket after failure = %d, want %d", peak, expectedBucket(freq))
	}
}

func TestStreamAnalyzerBucketsClearedPerFrame(t *testing.T) {
	vis := &recordingVisualizer{}
	a := newAnalyzer(t, vis, nil)
	for _, s := range utils.GenerateComplexWave(testWindow, testSampleRate) {
		a.PushSample(s)
	}

	for range 3 {
		if _, err := a.RequestFrame(); err != nil {
			t.Fatalf("RequestFrame() error = %v", err)
		}
	}
	for i := range vis.seen[0] {
		if vis.seen[0][i] != vis.seen[2][i] {
			t.Fatalf("bucket %d accumulated across frames: %v then %v", i, vis.seen[0][i], vis.seen[2][i])
		}
	}
}

func TestStreamAnalyzerLifecycle(t *testing.T) {
	vis := &recordingVisualizer{}
	a := newAnalyzer(t, vis, nil)

	if a.WindowCap() != testWindow {
		t.Errorf("WindowCap() = %d, want %d", a.WindowCap(), testWindow)
	}
	for range 2 {
		if err := a.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	}
	for range 3 {
		if err := a.Shutdown(); err != nil {
			t.Fatalf("Shutdown() error = %v", err)
		}
	}
	if vis.on != 1 || vis.off != 1 {
		t.Errorf("On/Off calls = %d/%d, want 1/1", vis.on, vis.off)
	}
}

func TestStreamAnalyzerShutdownWithoutStart(t *testing.T) {
	vis := &recordingVisualizer{}
	a := newAnalyzer(t, vis, nil)
	if err := a.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if vis.off != 1 {
		t.Errorf("Off calls = %d, want 1", vis.off)
	}
}

func TestPushSampleHotPath(t *testing.T) {
	a := newAnalyzer(t, nil, nil)
	allocs := testing.AllocsPerRun(1000, func() {
		a.PushSample(0.25)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in PushSample, got %.1f", allocs)
	}
}

func BenchmarkAnalyze(b *testing.B) {
	buckets, _ := NewLogBuckets(testBuckets, testRangeHz)
	a := NewStreamAnalyzer(StreamConfig{WindowSize: testWindow, SampleRateHz: testSampleRate}, buckets, nil, nil)
	for _, s := range utils.GenerateComplexWave(testWindow, testSampleRate) {
		a.PushSample(s)
	}

	b.ReportAllocs()
	for b.Loop() {
		_ = a.Analyze()
	}
}
