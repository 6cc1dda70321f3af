// Package fft provides generic abstractions around fourier transformers.
//
// Plans own their buffers. Fill Input, call Execute and read Output.
package fft

// OutputSize returns the number of coefficients of a real transform of size n.
func OutputSize(n int) int {
	return n/2 + 1
}
