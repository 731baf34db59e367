// SPDX-License-Identifier: MIT
package visual

import (
	"errors"
	"testing"

	"barvis/internal/transport"
	"barvis/pkg/utils"
)

type failingTransport struct{ closed int }

func (f *failingTransport) Send(any) error { return errors.New("unreachable") }
func (f *failingTransport) Close() error   { f.closed++; return nil }

func TestNewBarVisualizer(t *testing.T) {
	if _, err := NewBarVisualizer(Config{Width: 0, Height: 10}, ""); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("zero width error = %v, want ErrInvalidGeometry", err)
	}
	if _, err := NewBarVisualizer(defaultGeometry, "spiral"); err == nil {
		t.Error("unknown style should fail")
	}

	v, err := NewBarVisualizer(defaultGeometry, "solid")
	if err != nil {
		t.Fatalf("NewBarVisualizer() error = %v", err)
	}
	if v.Config() != defaultGeometry {
		t.Errorf("Config() = %+v, want %+v", v.Config(), defaultGeometry)
	}
	frame, err := v.NextFrame(make([]float32, 50))
	if err != nil {
		t.Fatalf("NextFrame() error = %v", err)
	}
	if frame.Width() != 720 || frame.Height() != 220 {
		t.Errorf("frame size = %dx%d", frame.Width(), frame.Height())
	}
}

func TestTapForwardsSnapshots(t *testing.T) {
	inner, err := NewBarVisualizer(Config{Width: 40, Height: 20}, "outline")
	if err != nil {
		t.Fatalf("NewBarVisualizer() error = %v", err)
	}
	mt := &utils.MockTransport{}
	tap := NewTap(inner, mt)

	if err := tap.On(); err != nil {
		t.Fatalf("On() error = %v", err)
	}

	buckets := []float32{1, 2, 3, 4}
	for range 2 {
		if _, err := tap.NextFrame(buckets); err != nil {
			t.Fatalf("NextFrame() error = %v", err)
		}
	}
	buckets[0] = 100

	if len(mt.Sent) != 2 {
		t.Fatalf("sent %d snapshots, want 2", len(mt.Sent))
	}
	snap, ok := mt.Last().(transport.Snapshot)
	if !ok {
		t.Fatalf("Last() = %T, want transport.Snapshot", mt.Last())
	}
	if snap.Frame != 1 || snap.Type != transport.SnapshotType {
		t.Errorf("snapshot = %+v, want frame 1", snap)
	}
	if snap.Values[0] != 1 {
		t.Error("snapshot aliases the caller's buckets")
	}

	if err := tap.Off(); err != nil {
		t.Fatalf("Off() error = %v", err)
	}
	if mt.Started != 1 || mt.Closed != 1 {
		t.Errorf("transport lifecycle = %d/%d, want 1/1", mt.Started, mt.Closed)
	}
}

func TestTapSendErrorDoesNotFailFrame(t *testing.T) {
	inner, _ := NewBarVisualizer(Config{Width: 10, Height: 10}, "")
	ft := &failingTransport{}
	tap := NewTap(inner, ft)

	// failingTransport has no Start; On must still succeed.
	if err := tap.On(); err != nil {
		t.Fatalf("On() error = %v", err)
	}
	frame, err := tap.NextFrame([]float32{1})
	if err != nil || frame == nil {
		t.Fatalf("NextFrame() = %v, %v", frame, err)
	}
	if err := tap.Off(); err != nil || ft.closed != 1 {
		t.Errorf("Off() = %v, closed %d", err, ft.closed)
	}
}

func TestTapRenderErrorNotSent(t *testing.T) {
	inner, _ := NewBarVisualizer(Config{Width: 2, Height: 10}, "")
	mt := &utils.MockTransport{}
	tap := NewTap(inner, mt)

	if _, err := tap.NextFrame(make([]float32, 3)); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("NextFrame() error = %v, want ErrInvalidGeometry", err)
	}
	if len(mt.Sent) != 0 {
		t.Errorf("sent %d snapshots for a failed frame", len(mt.Sent))
	}
}

func TestFrameRGB24(t *testing.T) {
	f := NewFrame(2, 2)
	f.Image.Pix[0] = 10     // (0,0) red
	f.Image.Pix[4*3+2] = 30 // (1,1) blue

	got := f.RGB24(nil)
	want := []byte{10, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 30}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RGB24()[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	buf := make([]byte, 0, 64)
	allocs := testing.AllocsPerRun(100, func() {
		buf = f.RGB24(buf)
	})
	if allocs > 0 {
		t.Errorf("RGB24 with a large enough buffer allocated %.1f times", allocs)
	}
}

type failingStarter struct{ utils.MockTransport }

func (f *failingStarter) Start() error { return errors.New("address in use") }

func TestTapOnFailureClosesStartedTransports(t *testing.T) {
	inner, err := NewBarVisualizer(Config{Width: 40, Height: 20}, "outline")
	if err != nil {
		t.Fatalf("NewBarVisualizer() error = %v", err)
	}
	started := &utils.MockTransport{}
	broken := &failingStarter{}
	// The outer tap starts first; the inner one fails to start.
	tap := NewTap(NewTap(inner, broken), started)

	if err := tap.On(); err == nil {
		t.Fatal("On() error = nil, want inner start failure")
	}
	if started.Started != 1 || started.Closed != 1 {
		t.Errorf("outer transport lifecycle = %d/%d, want 1/1", started.Started, started.Closed)
	}
	if broken.Closed != 0 {
		t.Errorf("transport that never started was closed %d times", broken.Closed)
	}
}
