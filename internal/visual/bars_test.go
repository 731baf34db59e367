// SPDX-License-Identifier: MIT
package visual

import (
	"errors"
	"testing"
)

var defaultGeometry = Config{Width: 720, Height: 220, BucketSeparation: 0}

func lit(f *Frame, x, y int) bool {
	return f.RGBAt(x, y).R > 127
}

// columnTop returns the topmost lit row in column x, or Height if none.
func columnTop(f *Frame, x int) int {
	for y := 0; y < f.Height(); y++ {
		if lit(f, x, y) {
			return y
		}
	}
	return f.Height()
}

func TestBarHeight(t *testing.T) {
	tests := []struct {
		name   string
		v      float32
		height int
		want   int
	}{
		{"Silent floors at minimum", 0, 220, MinBarHeight},
		{"Negative floors at minimum", -50, 220, MinBarHeight},
		{"Scaled", 99, 220, 110},
		{"Full scale", BarMaxHeight - 1, 220, 220},
		{"Clipped", 1e9, 220, 220},
		{"Short frame clips minimum", 0, 3, 3},
		{"Truncates", 9, 100, 5},
		{"Truncates above minimum", 13, 100, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BarHeight(tt.v, tt.height); got != tt.want {
				t.Errorf("BarHeight(%v, %d) = %d, want %d", tt.v, tt.height, got, tt.want)
			}
		})
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		n       int
		want    int
		wantErr bool
	}{
		{"Default geometry", defaultGeometry, 50, 14, false},
		{"With separation", Config{Width: 100, Height: 10, BucketSeparation: 2}, 10, 8, false},
		{"Exactly one pixel", Config{Width: 10, Height: 10}, 10, 1, false},
		{"Too many buckets", Config{Width: 10, Height: 10}, 11, 0, true},
		{"Separation eats width", Config{Width: 20, Height: 10, BucketSeparation: 6}, 4, 0, true},
		{"No buckets", defaultGeometry, 0, 0, true},
		{"Zero width", Config{Width: 0, Height: 10}, 1, 0, true},
		{"Negative height", Config{Width: 10, Height: -1}, 1, 0, true},
		{"Negative separation", Config{Width: 10, Height: 10, BucketSeparation: -1}, 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.BarWidth(tt.n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BarWidth(%d) error = %v, wantErr %v", tt.n, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("error = %v, want ErrInvalidGeometry", err)
			}
			if got != tt.want {
				t.Errorf("BarWidth(%d) = %d, want %d", tt.n, got, tt.want)
			}
		})
	}
}

func TestRenderBarsSilentBuckets(t *testing.T) {
	buckets := make([]float32, 50)
	frame, err := RenderBars(buckets, defaultGeometry)
	if err != nil {
		t.Fatalf("RenderBars() error = %v", err)
	}
	if frame.Width() != 720 || frame.Height() != 220 {
		t.Fatalf("frame size = %dx%d, want 720x220", frame.Width(), frame.Height())
	}

	const barWidth = 14
	for i := range buckets {
		left := i * barWidth
		if top := columnTop(frame, left); top != 220-MinBarHeight {
			t.Errorf("bar %d top = %d, want %d", i, top, 220-MinBarHeight)
		}
	}

	// Everything above the bars is black.
	for y := 0; y < 220-MinBarHeight; y++ {
		for x := 0; x < 720; x++ {
			if lit(frame, x, y) {
				t.Fatalf("pixel (%d,%d) lit above the bars", x, y)
			}
		}
	}
}

func TestRenderBarsOutline(t *testing.T) {
	cfg := Config{Width: 30, Height: 40, BucketSeparation: 0}
	frame, err := RenderBars([]float32{99}, cfg)
	if err != nil {
		t.Fatalf("RenderBars() error = %v", err)
	}

	// 100 * 40/200 = 20 pixels tall, rows 20..39, columns 0..29.
	checks := []struct {
		x, y int
		want bool
	}{
		{0, 20, true},   // top-left corner
		{29, 39, true},  // bottom-right corner
		{15, 20, true},  // top edge
		{15, 39, true},  // bottom edge
		{0, 30, true},   // left edge
		{29, 30, true},  // right edge
		{15, 30, false}, // hollow interior
		{15, 19, false}, // above the bar
	}
	for _, c := range checks {
		if got := lit(frame, c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d) lit = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestRenderSolidBars(t *testing.T) {
	cfg := Config{Width: 30, Height: 40}
	frame, err := RenderSolidBars([]float32{99}, cfg)
	if err != nil {
		t.Fatalf("RenderSolidBars() error = %v", err)
	}
	if !lit(frame, 15, 30) {
		t.Error("solid bar interior not filled")
	}
	if lit(frame, 15, 19) {
		t.Error("pixel above solid bar lit")
	}
}

func TestRenderBarsClipping(t *testing.T) {
	cfg := Config{Width: 20, Height: 50, BucketSeparation: 2}
	frame, err := RenderBars([]float32{1e12, 0}, cfg)
	if err != nil {
		t.Fatalf("RenderBars() error = %v", err)
	}
	if top := columnTop(frame, 0); top != 0 {
		t.Errorf("clipped bar top = %d, want 0", top)
	}
	if top := columnTop(frame, 11); top != 50-MinBarHeight {
		t.Errorf("silent bar top = %d, want %d", top, 50-MinBarHeight)
	}
	// Bar width (20-2)/2 = 9: columns 9 and 10 are the gap.
	for _, x := range []int{9, 10} {
		if top := columnTop(frame, x); top != 50 {
			t.Errorf("gap column %d lit from row %d", x, top)
		}
	}
}

func TestRenderBarsGeometryErrors(t *testing.T) {
	if _, err := RenderBars(make([]float32, 11), Config{Width: 10, Height: 10}); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("too many buckets error = %v, want ErrInvalidGeometry", err)
	}
	if _, err := RenderBars(nil, defaultGeometry); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("no buckets error = %v, want ErrInvalidGeometry", err)
	}
	if _, err := RenderSolidBars([]float32{1}, Config{Width: 10}); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("zero height error = %v, want ErrInvalidGeometry", err)
	}
}

func TestRenderBarsIsPure(t *testing.T) {
	buckets := []float32{3, 150, 40, 0, 1000}
	cfg := Config{Width: 100, Height: 60, BucketSeparation: 1}
	a, err := RenderBars(buckets, cfg)
	if err != nil {
		t.Fatalf("RenderBars() error = %v", err)
	}
	b, _ := RenderBars(buckets, cfg)
	if a == b || &a.Image.Pix[0] == &b.Image.Pix[0] {
		t.Fatal("RenderBars() reused a frame")
	}
	for i := range a.Image.Pix {
		if a.Image.Pix[i] != b.Image.Pix[i] {
			t.Fatalf("renders differ at byte %d", i)
		}
	}
}

func TestParseStyle(t *testing.T) {
	for _, name := range append(StyleNames(), "", "OUTLINE") {
		if _, err := ParseStyle(name); err != nil {
			t.Errorf("ParseStyle(%q) error = %v", name, err)
		}
	}
	if _, err := ParseStyle("spiral"); err == nil {
		t.Error("ParseStyle(spiral) should fail")
	}
}

func BenchmarkRenderBars(b *testing.B) {
	buckets := make([]float32, 50)
	for i := range buckets {
		buckets[i] = float32(i * 4)
	}
	b.ReportAllocs()
	for b.Loop() {
		_, _ = RenderBars(buckets, defaultGeometry)
	}
}
