package dsp

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonstercat(t *testing.T) {
	tests := []struct {
		name   string
		in     []int
		factor float64
		want   []int
	}{
		{
			name:   "single peak",
			in:     []int{1, 1, 1, 1, 100, 1, 1, 1},
			factor: 5,
			want:   []int{1, 1, 4, 20, 100, 20, 4, 1},
		},
		{
			name:   "factor one is a no-op",
			in:     []int{0, 9, 0},
			factor: 1,
			want:   []int{0, 9, 0},
		},
		{
			name:   "edges",
			in:     []int{64, 0, 0, 0},
			factor: 2,
			want:   []int{64, 32, 16, 8},
		},
		{
			name:   "empty",
			in:     []int{},
			factor: 3,
			want:   []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bins := append([]int(nil), tt.in...)
			Monstercat(bins, tt.factor)
			assert.Equal(t, tt.want, append([]int{}, bins...))
		})
	}
}

func TestMonstercatNeverLowers(t *testing.T) {
	in := []int{5, 300, 2, 80, 80, 0, 1000, 3}
	bins := append([]int(nil), in...)

	Monstercat(bins, 1.5)

	for i := range in {
		assert.GreaterOrEqual(t, bins[i], in[i])
	}
}

func TestPeak(t *testing.T) {
	p := NewPeak()
	assert.Equal(t, InitialPeak, p.Value())

	// 10dB is above the initial peak
	assert.InDelta(t, 10, p.Observe([]int{0, 10}, []int{1, 2}), 1e-9)

	// quieter frames never lower it
	assert.InDelta(t, 10, p.Observe([]int{1}, []int{0}), 1e-9)

	assert.InDelta(t, 30, p.Observe([]int{3, 1000}, []int{4, 0}), 1e-9)

	lo, hi := p.Domain(-70)
	assert.InDelta(t, -40, lo, 1e-9)
	assert.InDelta(t, 30, hi, 1e-9)
}

func TestPeakSilence(t *testing.T) {
	p := NewPeak()
	p.Observe([]int{0, 0}, []int{0, 0})

	assert.Equal(t, InitialPeak, p.Value())
	assert.True(t, math.IsInf(Decibels(0), -1))
}

func TestWindowLength(t *testing.T) {
	assert.Equal(t, 220, WindowLength(44100))
	assert.Equal(t, 240, WindowLength(48000))
	assert.Equal(t, 1, WindowLength(1))
}

func TestMeanAbs(t *testing.T) {
	assert.Zero(t, MeanAbs(nil))
	assert.InDelta(t, 2, MeanAbs([]float64{-1, 3, -2, 2}), 1e-12)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, -60.0, Level(0, -60))
	assert.Equal(t, -60.0, Level(1, -60))
	assert.InDelta(t, 20*math.Log10(FullScale)-MeterCalibration, Level(FullScale, -60), 1e-9)
}

func TestDetectClip(t *testing.T) {
	assert.False(t, DetectClip([]float64{0, 1000, -ClipThreshold + 1}))
	assert.True(t, DetectClip([]float64{0}, []float64{-ClipThreshold}))
	assert.True(t, DetectClip([]float64{FullScale}))
	assert.False(t, DetectClip())
}

func TestBallisticClosedForm(t *testing.T) {
	const (
		target = -20.0
		dt     = 1.0 / 60.0
		frames = 240
	)

	a := math.Exp(-MeterPole * dt)

	m := 0.0
	for n := 1; n <= frames; n++ {
		m = Ballistic(m, target, dt)

		want := target * dt * (1 - math.Pow(a, float64(n))) / (1 - a)
		require.InDelta(t, want, m, 1e-9, "frame %d", n)
	}

	// the fixed point
	fixed := target * dt / (1 - a)
	assert.InDelta(t, fixed, Ballistic(fixed, target, dt), 1e-9)
}

func TestMeterFloor(t *testing.T) {
	m := NewMeter(2, -60)

	silence := [][]float64{make([]float64, 220), make([]float64, 220)}
	for i := 0; i < 1000; i++ {
		m.Update(silence, 1.0/60.0)
	}

	for ch := 0; ch < 2; ch++ {
		v := m.Value(ch)
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, m.Floor())
	}

	assert.False(t, m.Clip())

	// a huge frame interval pushes the raw update under the floor
	m.Update(silence, 100)
	assert.Equal(t, -60.0, m.Value(0))

	m.Update(silence, math.Inf(1))
	assert.Equal(t, -60.0, m.Value(1))
}

func TestMeterClip(t *testing.T) {
	m := NewMeter(2, -60)

	loud := make([]float64, 220)
	loud[100] = -FullScale

	m.Update([][]float64{make([]float64, 220), loud}, 0.01)
	assert.True(t, m.Clip())

	m.Update([][]float64{make([]float64, 220), make([]float64, 220)}, 0.01)
	assert.False(t, m.Clip())
}

func TestMeterRisesWithLevel(t *testing.T) {
	quiet := NewMeter(1, -60)
	loud := NewMeter(1, -60)

	q := make([]float64, 220)
	l := make([]float64, 220)
	for i := range q {
		q[i] = 100
		l[i] = 20000
	}

	for i := 0; i < 200; i++ {
		quiet.Update([][]float64{q}, 1.0/60.0)
		loud.Update([][]float64{l}, 1.0/60.0)
	}

	assert.Greater(t, loud.Value(0), quiet.Value(0))
}

func newTestAnalyzer(size int) Analyzer {
	return NewAnalyzer(AnalyzerConfig{
		SampleRate: 48000,
		SampleSize: size,
		LowCut:     20,
		HighCut:    20000,
	})
}

func TestAnalyzerRecalculate(t *testing.T) {
	az := newTestAnalyzer(8192)

	assert.Equal(t, 30, az.Recalculate(30))
	assert.Equal(t, 30, az.BinCount())

	// cannot have more bands than transform bins
	assert.Equal(t, 4096, az.Recalculate(100000))
	assert.Equal(t, 1, az.Recalculate(0))
}

func TestAnalyzerBandsAreContiguous(t *testing.T) {
	az := newTestAnalyzer(8192).(*analyzer)
	az.Recalculate(30)

	for idx := 0; idx < az.binCount; idx++ {
		b := az.bins[idx]
		assert.Less(t, b.floorFFT, b.ceilFFT, "band %d", idx)

		if idx > 0 {
			assert.Equal(t, az.bins[idx-1].ceilFFT, b.floorFFT)
		}
	}
}

func TestAnalyzerTone(t *testing.T) {
	const size = 8192

	az := newTestAnalyzer(size)
	bands := az.Recalculate(30)

	// a pure 1kHz tone in the transform domain
	src := make([]complex128, size/2+1)
	tone := 1000.0
	k := int(tone / (48000.0 / size))
	src[k] = cmplx.Rect(size, 0)

	dst := make([]int, bands)
	az.Process(dst, src)

	loudest := 0
	for i, v := range dst {
		if v > dst[loudest] {
			loudest = i
		}
	}

	assert.Equal(t, size, dst[loudest])

	// 1kHz sits just short of the middle of the 20Hz-20kHz log range
	assert.InDelta(t, 16, loudest, 1)

	zero := 0
	for _, v := range dst {
		if v == 0 {
			zero++
		}
	}

	assert.Equal(t, bands-1, zero)
}
