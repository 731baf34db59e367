// SPDX-License-Identifier: MIT
package video

import (
	"fmt"
	"os"
	"path/filepath"

	applog "barvis/internal/log"
	"barvis/internal/visual"

	"github.com/fogleman/gg"
)

// FrameSink consumes frames in emission order.
type FrameSink interface {
	WriteFrame(f *visual.Frame) error
	Close() error
}

// PNGSink writes every frame as a numbered PNG file (frame000000.png, ...).
type PNGSink struct {
	dir    string
	frames int
}

// NewPNGSink creates dir if needed.
func NewPNGSink(dir string) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}
	applog.Infof("PNGSink: Writing frames to %s", dir)
	return &PNGSink{dir: dir}, nil
}

// FramePath returns the file frame n is written to.
func (s *PNGSink) FramePath(n int) string {
	return filepath.Join(s.dir, fmt.Sprintf("frame%06d.png", n))
}

func (s *PNGSink) WriteFrame(f *visual.Frame) error {
	path := s.FramePath(s.frames)
	if err := gg.SavePNG(path, f.Image); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	s.frames++
	return nil
}

// Frames returns the number of frames written.
func (s *PNGSink) Frames() int { return s.frames }

func (s *PNGSink) Close() error {
	applog.Infof("PNGSink: Wrote %d frames", s.frames)
	return nil
}

var _ FrameSink = (*PNGSink)(nil)
