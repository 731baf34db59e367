// SPDX-License-Identifier: MIT
package visual

import (
	"image"
	"image/color"
)

// Frame is one rendered raster. The caller owns it once it is returned.
type Frame struct {
	Image *image.RGBA
}

// NewFrame returns an opaque black frame of the given size.
func NewFrame(width, height int) *Frame {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return &Frame{Image: img}
}

func (f *Frame) Width() int  { return f.Image.Bounds().Dx() }
func (f *Frame) Height() int { return f.Image.Bounds().Dy() }

// RGBAt returns the colour of pixel (x, y) without alpha.
func (f *Frame) RGBAt(x, y int) color.RGBA {
	c := f.Image.RGBAAt(x, y)
	c.A = 0xff
	return c
}

// RGB24 packs the frame as tightly packed 3-byte pixels, row by row, into
// dst (grown if too small) and returns the filled slice.
func (f *Frame) RGB24(dst []byte) []byte {
	w, h := f.Width(), f.Height()
	n := w * h * 3
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]

	b := f.Image.Bounds()
	o := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := f.Image.Pix[f.Image.PixOffset(b.Min.X, y):]
		for x := 0; x < w; x++ {
			dst[o] = row[x*4]
			dst[o+1] = row[x*4+1]
			dst[o+2] = row[x*4+2]
			o += 3
		}
	}
	return dst
}
