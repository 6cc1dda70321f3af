package fft

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputSize(t *testing.T) {
	assert.Equal(t, 4097, OutputSize(8192))
	assert.Equal(t, 3, OutputSize(5))
}

func TestPlanTone(t *testing.T) {
	const (
		size = 1024
		bin  = 37
	)

	plan := NewPlan(size)
	defer plan.Destroy()

	require.Len(t, plan.Input(), size)
	require.Len(t, plan.Output(), OutputSize(size))

	for i := range plan.Input() {
		plan.Input()[i] = math.Cos(2 * math.Pi * bin * float64(i) / size)
	}

	plan.Execute()

	out := plan.Output()
	assert.InDelta(t, size/2, cmplx.Abs(out[bin]), 1e-6)

	for k, c := range out {
		if k != bin {
			assert.InDelta(t, 0, cmplx.Abs(c), 1e-6, "bin %d", k)
		}
	}
}

func TestPlanDC(t *testing.T) {
	plan := NewPlan(64)
	defer plan.Destroy()

	for i := range plan.Input() {
		plan.Input()[i] = 2
	}

	plan.Execute()

	assert.InDelta(t, 128, real(plan.Output()[0]), 1e-9)
	assert.InDelta(t, 0, cmplx.Abs(plan.Output()[1]), 1e-9)
}

func Benchmark(b *testing.B) {
	if FFTW {
		b.Log("Benchmarking FFTW.")
	} else {
		b.Log("Benchmarking gonum (built without the fftw tag).")
	}

	plan := NewPlan(numReals)
	defer plan.Destroy()

	generateReals(plan.Input())

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		plan.Execute()
	}
}

// Adapted from https://github.com/project-gemmi/benchmarking-fft/blob/master/1d-r.cpp

const numReals = 8192

func generateReals(input []float64) {
	c := 3.1
	for i := range input {
		c += 0.3
		input[i] = 2*c - c*c
	}
}
