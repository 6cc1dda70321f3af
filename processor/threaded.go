package processor

import (
	"context"
	"sync"

	"github.com/noriah/fbspectrum/dsp"
	"github.com/noriah/fbspectrum/dsp/window"
	"github.com/noriah/fbspectrum/fft"
	"github.com/noriah/fbspectrum/input"
)

type threadedProcessor struct {
	channelCount int
	bars         int

	barBufs [][]int
	kicks   []chan bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	plans []*fft.Plan

	src        *input.Ring
	anlz       dsp.Analyzer
	wndwr      window.Function
	monstercat float64
}

// NewThreaded returns a processor that runs each channel on its own
// goroutine. Start must be called before Process.
func NewThreaded(cfg Config) *threadedProcessor {
	vis := &threadedProcessor{
		channelCount: cfg.ChannelCount,
		barBufs:      make([][]int, cfg.ChannelCount),
		kicks:        make([]chan bool, cfg.ChannelCount),
		plans:        make([]*fft.Plan, cfg.ChannelCount),
		src:          cfg.Source,
		anlz:         cfg.Analyzer,
		wndwr:        cfg.Windower,
		monstercat:   cfg.Monstercat,
	}

	vis.bars = vis.anlz.Recalculate(cfg.BarCount)

	for idx := range vis.barBufs {
		vis.barBufs[idx] = make([]int, vis.bars)
		vis.kicks[idx] = make(chan bool, 1)
		vis.plans[idx] = fft.NewPlan(cfg.SampleSize)
	}

	return vis
}

func (vis *threadedProcessor) channelProcessor(ch int, kick <-chan bool) {
	plan := vis.plans[ch]
	barBuf := vis.barBufs[ch]

	for {
		select {
		case <-vis.ctx.Done():
			return
		case <-kick:
		}

		channel(ch, vis.src, plan, vis.wndwr, vis.anlz, vis.monstercat, barBuf)

		vis.wg.Done()
	}
}

// Start launches the channel workers. They only exit on Stop, so a Process
// call in flight always completes.
func (vis *threadedProcessor) Start(ctx context.Context) context.Context {
	vis.ctx, vis.cancel = context.WithCancel(context.WithoutCancel(ctx))

	for i, kick := range vis.kicks {
		go vis.channelProcessor(i, kick)
	}

	return ctx
}

func (vis *threadedProcessor) Stop() {
	if vis.cancel != nil {
		vis.cancel()
	}
}

// Process kicks every channel and waits for all of them to finish.
func (vis *threadedProcessor) Process() [][]int {
	if vis.ctx == nil || vis.ctx.Err() != nil {
		return vis.barBufs
	}

	vis.wg.Add(vis.channelCount)

	for _, kick := range vis.kicks {
		kick <- true
	}

	vis.wg.Wait()

	return vis.barBufs
}

func (vis *threadedProcessor) Close() {
	for _, plan := range vis.plans {
		plan.Destroy()
	}
}
