//go:build !(fftw && cgo)

package fft

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFTW is false if fbspectrum is not built with the fftw tag. It will use
// gonum instead.
const FFTW = false

// Plan holds a gonum FFT plan.
type Plan struct {
	input  []float64
	output []complex128
	fft    *fourier.FFT
}

// NewPlan returns a real-to-complex plan of the given size.
func NewPlan(size int) *Plan {
	return &Plan{
		input:  make([]float64, size),
		output: make([]complex128, OutputSize(size)),
		fft:    fourier.NewFFT(size),
	}
}

// Input is the real sample buffer.
func (p *Plan) Input() []float64 { return p.input }

// Output is the coefficient buffer.
func (p *Plan) Output() []complex128 { return p.output }

// Execute executes the gonum plan.
func (p *Plan) Execute() {
	p.fft.Coefficients(p.output, p.input)
}

// Destroy is a no-op for gonum plans.
func (p *Plan) Destroy() {}
