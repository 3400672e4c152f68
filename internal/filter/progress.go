package filter

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progress renders a bar per filtering pass. A nil progress renders nothing.
type progress struct {
	p    *mpb.Progress
	bars []*mpb.Bar
}

func newProgress(w io.Writer) *progress {
	if w == nil {
		return nil
	}

	return &progress{
		p: mpb.New(
			mpb.WithOutput(w),
			mpb.WithWidth(60),
			mpb.WithAutoRefresh(),
		),
	}
}

// bar adds a bar that completes after total probes have been filtered. It
// returns a func to advance the bar, nil if there is nothing to render.
func (p *progress) bar(name string, total int) func(n int) {
	if p == nil || total < 1 {
		return nil
	}

	bar := p.p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done"),
		),
	)
	p.bars = append(p.bars, bar)

	return bar.IncrBy
}

// wait for the bars to render. Bars that never completed are aborted
func (p *progress) wait() {
	if p == nil {
		return
	}

	for _, bar := range p.bars {
		bar.Abort(false) // no-op on complete bars
	}
	p.p.Wait()
}
