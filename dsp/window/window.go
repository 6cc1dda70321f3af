// Package window provides Window Functions for singnal analysis
//
// See https://wikipedia.org/wiki/Window_function
package window

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	gw "gonum.org/v1/gonum/dsp/window"
)

// Function is a function that will do window things for you
type Function func(buf []float64)

// Rectangle is just do nothing
func Rectangle(buf []float64) {
	// do nothing
}

// Hann modifies the buffer to a Hann window
func Hann(buf []float64) { gw.Hann(buf) }

// Hamming modifies the buffer to a Hamming window
func Hamming(buf []float64) { gw.Hamming(buf) }

// Blackman modifies the buffer to a Blackman window
func Blackman(buf []float64) { gw.Blackman(buf) }

// BlackmanHarris modifies the buffer to a Blackman-Harris window
func BlackmanHarris(buf []float64) { gw.BlackmanHarris(buf) }

// Nuttall modifies the buffer to a Nuttall window
func Nuttall(buf []float64) { gw.Nuttall(buf) }

// FlatTop modifies the buffer to a flat top window
func FlatTop(buf []float64) { gw.FlatTop(buf) }

// Bartlett modifies the buffer to a triangular window
func Bartlett(buf []float64) { gw.Triangular(buf) }

// Lanczos modifies the buffer to a Lanczos window
func Lanczos(buf []float64) { gw.Lanczos(buf) }

var functions = map[string]Function{
	"rectangle":      Rectangle,
	"hann":           Hann,
	"hamming":        Hamming,
	"blackman":       Blackman,
	"blackmanharris": BlackmanHarris,
	"nuttall":        Nuttall,
	"flattop":        FlatTop,
	"bartlett":       Bartlett,
	"lanczos":        Lanczos,
}

// Lookup returns the window function registered under name.
func Lookup(name string) (Function, error) {
	if fn, ok := functions[strings.ToLower(name)]; ok {
		return fn, nil
	}

	return nil, errors.Errorf("unknown window function '%s'", name)
}

// Names lists every known window function.
func Names() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
