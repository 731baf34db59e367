// SPDX-License-Identifier: MIT
package visual

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
	"sort"
	"strings"

	"github.com/fogleman/gg"
)

const (
	// BarMaxHeight is the bucket energy that fills the full frame height.
	// Louder buckets clip.
	BarMaxHeight = 200
	// MinBarHeight keeps silent buckets visible.
	MinBarHeight = 5
)

// ErrInvalidGeometry is returned when bars cannot be laid out on the frame.
var ErrInvalidGeometry = errors.New("visual: invalid geometry")

// Config is the fixed output geometry of a visualizer.
type Config struct {
	Width            int // Frame width in pixels.
	Height           int // Frame height in pixels.
	BucketSeparation int // Gap between adjacent bars in pixels.
}

// Validate checks the resolution alone; bar layout is checked per render.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: resolution %dx%d", ErrInvalidGeometry, c.Width, c.Height)
	}
	if c.BucketSeparation < 0 {
		return fmt.Errorf("%w: negative bucket separation %d", ErrInvalidGeometry, c.BucketSeparation)
	}
	return nil
}

// BarWidth returns the width of each of n bars.
func (c Config) BarWidth(n int) (int, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: no buckets to draw", ErrInvalidGeometry)
	}
	w := (c.Width - (n-1)*c.BucketSeparation) / n
	if w < 1 {
		return 0, fmt.Errorf("%w: %d buckets do not fit in %d pixels", ErrInvalidGeometry, n, c.Width)
	}
	return w, nil
}

// BarHeight maps a bucket energy to a bar height in pixels for a frame of
// the given height.
func BarHeight(v float32, frameHeight int) int {
	if math.IsNaN(float64(v)) {
		v = 0
	}
	scaled := min(max(v+1, 0), BarMaxHeight) * (float32(frameHeight) / BarMaxHeight)
	h := int(max(scaled, MinBarHeight))
	return min(h, frameHeight)
}

// RenderFunc draws a bucket snapshot into a new frame.
type RenderFunc func(buckets []float32, cfg Config) (*Frame, error)

// Styles lists the available bar styles by name.
var Styles = map[string]RenderFunc{
	"outline": RenderBars,
	"solid":   RenderSolidBars,
}

// StyleNames returns the sorted style names.
func StyleNames() []string {
	names := make([]string, 0, len(Styles))
	for name := range Styles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseStyle looks up a style by name. An empty name selects "outline".
func ParseStyle(name string) (RenderFunc, error) {
	if name == "" {
		name = "outline"
	}
	fn, ok := Styles[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown bar style: '%s'", name)
	}
	return fn, nil
}

// RenderBars draws one white, 1px outlined bar per bucket on black, bottom
// anchored and left to right in bucket order.
func RenderBars(buckets []float32, cfg Config) (*Frame, error) {
	return renderWith(buckets, cfg, func(dc *gg.Context, x, y, w, h int) {
		fillRect(dc, x, y, w, 1)
		fillRect(dc, x, y+h-1, w, 1)
		fillRect(dc, x, y, 1, h)
		fillRect(dc, x+w-1, y, 1, h)
	})
}

// RenderSolidBars uses the RenderBars layout with filled bars.
func RenderSolidBars(buckets []float32, cfg Config) (*Frame, error) {
	return renderWith(buckets, cfg, fillRect)
}

func fillRect(dc *gg.Context, x, y, w, h int) {
	dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	dc.Fill()
}

func renderWith(buckets []float32, cfg Config, bar func(dc *gg.Context, x, y, w, h int)) (*Frame, error) {
	barWidth, err := cfg.BarWidth(len(buckets))
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(cfg.Width, cfg.Height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)

	for i, v := range buckets {
		h := BarHeight(v, cfg.Height)
		x := i * (barWidth + cfg.BucketSeparation)
		bar(dc, x, cfg.Height-h, barWidth, h)
	}

	return toFrame(dc.Image()), nil
}

func toFrame(img image.Image) *Frame {
	if rgba, ok := img.(*image.RGBA); ok {
		return &Frame{Image: rgba}
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return &Frame{Image: rgba}
}
