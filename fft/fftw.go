//go:build fftw && cgo

package fft

// The only included bindings are those needed for a real-to-complex 1d
// transform. Buffers are allocated by FFTW so the plan can keep pointers to
// them.

// #cgo pkg-config: fftw3
// #include <fftw3.h>
import "C"

import (
	"runtime"
	"unsafe"
)

// FFTW is true if fbspectrum is built with the fftw tag and cgo.
const FFTW = true

// Plan holds an FFTW C plan
type Plan struct {
	input  []float64
	output []complex128
	cIn    *C.double
	cOut   *C.fftw_complex
	cPlan  C.fftw_plan
}

// NewPlan returns a new FFTW Plan of the given size.
func NewPlan(size int) *Plan {
	n := OutputSize(size)

	in := C.fftw_alloc_real(C.size_t(size))
	out := C.fftw_alloc_complex(C.size_t(n))

	plan := &Plan{
		input:  unsafe.Slice((*float64)(unsafe.Pointer(in)), size),
		output: unsafe.Slice((*complex128)(unsafe.Pointer(out)), n),
		cIn:    in,
		cOut:   out,
		cPlan:  C.fftw_plan_dft_r2c_1d(C.int(size), in, out, C.FFTW_MEASURE),
	}

	// planning may scribble over the buffers
	for i := range plan.input {
		plan.input[i] = 0
	}

	// Rely on the runtime to free memory if Destroy is never called.
	runtime.SetFinalizer(plan, (*Plan).Destroy)

	return plan
}

// Input is the real sample buffer.
func (p *Plan) Input() []float64 { return p.input }

// Output is the coefficient buffer.
func (p *Plan) Output() []complex128 { return p.output }

// Execute runs the plan
func (p *Plan) Execute() {
	C.fftw_execute(p.cPlan)
}

// Destroy releases the plan and its buffers.
func (p *Plan) Destroy() {
	if p.cPlan == nil {
		return
	}

	C.fftw_destroy_plan(p.cPlan)
	C.fftw_free(unsafe.Pointer(p.cIn))
	C.fftw_free(unsafe.Pointer(p.cOut))

	p.cPlan = nil
	p.input = nil
	p.output = nil
}
