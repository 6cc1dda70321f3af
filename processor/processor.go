// Package processor runs the per-frame spectral chain: snapshot the ring,
// window, transform, aggregate into bands and smooth.
package processor

import (
	"context"

	"github.com/noriah/fbspectrum/dsp"
	"github.com/noriah/fbspectrum/dsp/window"
	"github.com/noriah/fbspectrum/fft"
	"github.com/noriah/fbspectrum/input"
)

type Processor interface {
	Start(ctx context.Context) context.Context
	Stop()
	// Process runs the chain once and returns the band powers of every
	// channel. The slices are reused by the next call.
	Process() [][]int
	// Close releases the transform plans. The processor must be stopped.
	Close()
}

type Config struct {
	SampleSize   int             // number of samples per transform
	ChannelCount int             // number of channels
	BarCount     int             // number of bands per channel
	Source       *input.Ring     // audio source
	Windower     window.Function // data windower
	Analyzer     dsp.Analyzer    // audio analyzer
	Monstercat   float64         // monstercat decay factor, 1 disables it
}

type processor struct {
	channelCount int
	bars         int

	barBufs [][]int
	plans   []*fft.Plan

	src        *input.Ring
	anlz       dsp.Analyzer
	wndwr      window.Function
	monstercat float64
}

func New(cfg Config) *processor {
	vis := &processor{
		channelCount: cfg.ChannelCount,
		barBufs:      make([][]int, cfg.ChannelCount),
		plans:        make([]*fft.Plan, cfg.ChannelCount),
		src:          cfg.Source,
		anlz:         cfg.Analyzer,
		wndwr:        cfg.Windower,
		monstercat:   cfg.Monstercat,
	}

	vis.bars = vis.anlz.Recalculate(cfg.BarCount)

	for idx := range vis.barBufs {
		vis.barBufs[idx] = make([]int, vis.bars)
		vis.plans[idx] = fft.NewPlan(cfg.SampleSize)
	}

	return vis
}

func (vis *processor) Start(ctx context.Context) context.Context {
	return ctx
}

func (vis *processor) Stop() {}

// channel runs the chain for one channel.
func channel(ch int, src *input.Ring, plan *fft.Plan, wndwr window.Function, anlz dsp.Analyzer, monstercat float64, dst []int) {
	buf := plan.Input()

	src.Snapshot(ch, buf)
	if wndwr != nil {
		wndwr(buf)
	}

	plan.Execute()

	anlz.Process(dst, plan.Output())
	dsp.Monstercat(dst, monstercat)
}

func (vis *processor) Process() [][]int {
	for idx := range vis.barBufs {
		channel(idx, vis.src, vis.plans[idx], vis.wndwr, vis.anlz, vis.monstercat, vis.barBufs[idx])
	}

	return vis.barBufs
}

func (vis *processor) Close() {
	for _, plan := range vis.plans {
		plan.Destroy()
	}
}
