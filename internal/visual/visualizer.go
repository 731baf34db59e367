// SPDX-License-Identifier: MIT
package visual

import (
	"errors"

	applog "barvis/internal/log"
	"barvis/internal/transport"
)

// Visualizer turns bucket snapshots into frames. On and Off bracket the
// period during which frames are requested.
type Visualizer interface {
	On() error
	Off() error
	NextFrame(buckets []float32) (*Frame, error)
}

// BarVisualizer renders buckets as bars in one of the registered Styles.
type BarVisualizer struct {
	cfg    Config
	render RenderFunc
}

// NewBarVisualizer validates cfg and resolves style (see ParseStyle).
func NewBarVisualizer(cfg Config, style string) (*BarVisualizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	render, err := ParseStyle(style)
	if err != nil {
		return nil, err
	}
	return &BarVisualizer{cfg: cfg, render: render}, nil
}

// Config returns the geometry frames are rendered at.
func (v *BarVisualizer) Config() Config { return v.cfg }

// On is a no-op; bars hold no display resources.
func (v *BarVisualizer) On() error { return nil }

// Off is a no-op.
func (v *BarVisualizer) Off() error { return nil }

func (v *BarVisualizer) NextFrame(buckets []float32) (*Frame, error) {
	return v.render(buckets, v.cfg)
}

// Tap forwards every rendered bucket snapshot to a transport. The transport
// is started by On (when it implements transport.Starter) and closed by Off.
type Tap struct {
	Visualizer
	out    transport.Transport
	frames int
}

// NewTap wraps v so that its bucket snapshots are also sent to out.
func NewTap(v Visualizer, out transport.Transport) *Tap {
	return &Tap{Visualizer: v, out: out}
}

func (t *Tap) On() error {
	if s, ok := t.out.(transport.Starter); ok {
		if err := s.Start(); err != nil {
			return err
		}
	}
	if err := t.Visualizer.On(); err != nil {
		return errors.Join(err, t.out.Close())
	}
	return nil
}

func (t *Tap) Off() error {
	return errors.Join(t.Visualizer.Off(), t.out.Close())
}

// NextFrame renders through the wrapped visualizer, then publishes the
// snapshot. Transport failures are logged and never fail the frame.
func (t *Tap) NextFrame(buckets []float32) (*Frame, error) {
	frame, err := t.Visualizer.NextFrame(buckets)
	if err != nil {
		return nil, err
	}
	snap := transport.Snapshot{
		Type:   transport.SnapshotType,
		Frame:  t.frames,
		Values: append([]float32(nil), buckets...),
	}
	t.frames++
	if err := t.out.Send(snap); err != nil {
		applog.Warnf("Tap: Error sending bucket snapshot %d: %v", snap.Frame, err)
	}
	return frame, nil
}

var (
	_ Visualizer = (*BarVisualizer)(nil)
	_ Visualizer = (*Tap)(nil)
)
