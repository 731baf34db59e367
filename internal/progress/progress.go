// SPDX-License-Identifier: MIT
package progress

import (
	"io"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Reporter observes how many samples of a known total have been consumed.
type Reporter interface {
	Update(n int)
	Finish()
}

// Nop discards progress.
type Nop struct{}

func (Nop) Update(int) {}
func (Nop) Finish()    {}

// Bar renders progress as a terminal bar. Update is called once per sample,
// so the bar is only advanced every step samples.
type Bar struct {
	p     *mpb.Progress
	bar   *mpb.Bar
	total int
	step  int
	last  int
	tick  time.Time
}

// NewBar starts a bar for total samples, drawing to w (stdout when nil).
func NewBar(total int, label string, w io.Writer) *Bar {
	opts := []mpb.ContainerOption{mpb.WithWidth(64), mpb.WithAutoRefresh()}
	if w != nil {
		opts = append(opts, mpb.WithOutput(w))
	}
	p := mpb.New(opts...)
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(label),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)
	return &Bar{
		p:     p,
		bar:   bar,
		total: total,
		step:  max(1, total/1000),
		tick:  time.Now(),
	}
}

// Update moves the bar to n. Calls between steps are coalesced.
func (b *Bar) Update(n int) {
	if n-b.last < b.step && n < b.total {
		return
	}
	now := time.Now()
	b.bar.EwmaSetCurrent(int64(n), now.Sub(b.tick))
	b.last, b.tick = n, now
}

// Finish waits for the final render. A bar stopped short of its total is
// aborted in place so Wait returns.
func (b *Bar) Finish() {
	if !b.bar.Completed() {
		b.bar.Abort(false)
	}
	b.p.Wait()
}

// Counter records the latest update; used where progress is polled.
type Counter struct {
	Last     int
	Updates  int
	Finished bool
}

func (c *Counter) Update(n int) { c.Last = n; c.Updates++ }
func (c *Counter) Finish()      { c.Finished = true }

var (
	_ Reporter = Nop{}
	_ Reporter = (*Bar)(nil)
	_ Reporter = (*Counter)(nil)
)
