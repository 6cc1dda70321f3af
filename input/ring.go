package input

import (
	"math"
	"sync"
	"sync/atomic"
)

// FullScale is the magnitude of a full-scale signed 16 bit sample. Backends
// scale normalized input by it before writing.
const FullScale = 1 << 15

// MaxChannels is the number of channels a Ring stores.
const MaxChannels = 2

// Ring is the audio state shared between a capture session and the frame
// loop. There is exactly one writer.
//
// Samples are stored per channel as float64 bits in atomically accessed
// slots, so a reader may observe a mix of old and new samples but never a
// torn one. The write index only ever advances.
type Ring struct {
	capacity int
	bufs     [MaxChannels][]uint64

	written  atomic.Uint64 // total frames written
	rate     atomic.Uint64 // float64 bits, 0 until known
	channels atomic.Int32

	running   atomic.Bool
	terminate atomic.Bool

	mu  sync.Mutex
	err error
}

// NewRing returns a ring holding capacity frames per channel.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}

	r := &Ring{capacity: capacity}
	for ch := range r.bufs {
		r.bufs[ch] = make([]uint64, capacity)
	}

	return r
}

// Capacity returns the number of frames kept per channel.
func (r *Ring) Capacity() int { return r.capacity }

// SetFormat publishes the sample rate and channel count of the stream. A
// non-zero rate completes the startup handshake.
func (r *Ring) SetFormat(rate float64, channels int) {
	r.channels.Store(int32(channels))
	r.rate.Store(math.Float64bits(rate))
}

// Rate returns the sample rate, or 0 while it is unknown.
func (r *Ring) Rate() float64 {
	return math.Float64frombits(r.rate.Load())
}

// Channels returns the channel count of the stream.
func (r *Ring) Channels() int {
	return int(r.channels.Load())
}

// Write stores interleaved frames of the given channel count. Mono input is
// duplicated into both channels; channels past MaxChannels are dropped.
func (r *Ring) Write(samples []float64, channels int) {
	if channels < 1 {
		return
	}

	frames := len(samples) / channels
	pos := int(r.written.Load() % uint64(r.capacity))

	for f := 0; f < frames; f++ {
		frame := samples[f*channels : (f+1)*channels]
		for ch := range r.bufs {
			v := frame[min(ch, channels-1)]
			atomic.StoreUint64(&r.bufs[ch][pos], math.Float64bits(v))
		}

		if pos++; pos == r.capacity {
			pos = 0
		}
	}

	r.written.Add(uint64(frames))
}

// WriteSilence stores n frames of zeros.
func (r *Ring) WriteSilence(n int) {
	pos := int(r.written.Load() % uint64(r.capacity))

	for f := 0; f < n; f++ {
		for ch := range r.bufs {
			atomic.StoreUint64(&r.bufs[ch][pos], 0)
		}

		if pos++; pos == r.capacity {
			pos = 0
		}
	}

	r.written.Add(uint64(n))
}

// Written returns the total number of frames written.
func (r *Ring) Written() uint64 {
	return r.written.Load()
}

// Index returns the slot the next frame will be written to.
func (r *Ring) Index() int {
	return int(r.written.Load() % uint64(r.capacity))
}

// Snapshot copies the most recent len(dst) frames of channel ch into dst,
// oldest first. len(dst) is capped at the ring capacity.
func (r *Ring) Snapshot(ch int, dst []float64) {
	if ch < 0 || ch >= MaxChannels {
		ch = 0
	}

	n := min(len(dst), r.capacity)
	buf := r.bufs[ch]

	start := (r.Index() - n + r.capacity) % r.capacity
	for i := 0; i < n; i++ {
		dst[i] = math.Float64frombits(atomic.LoadUint64(&buf[(start+i)%r.capacity]))
	}
}

// SetRunning marks whether audio is currently flowing.
func (r *Ring) SetRunning(v bool) { r.running.Store(v) }

// Running reports whether audio is currently flowing.
func (r *Ring) Running() bool { return r.running.Load() }

// Terminate asks both sides to stop.
func (r *Ring) Terminate() { r.terminate.Store(true) }

// Terminated reports whether a stop was requested.
func (r *Ring) Terminated() bool { return r.terminate.Load() }

// Fail records err and requests termination. Only the first error is kept.
func (r *Ring) Fail(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()

	r.running.Store(false)
	r.Terminate()
}

// Err returns the error recorded by Fail.
func (r *Ring) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.err
}
