package dsp

import "math"

// InitialPeak is the starting value of a Peak tracker, in dB.
const InitialPeak = -10.0

// Decibels converts a band power to 10*log10(power). Zero maps to -Inf.
func Decibels(power int) float64 {
	return 10.0 * math.Log10(float64(power))
}

// Peak is a running maximum of band levels in dB. It only ever grows.
type Peak struct {
	value float64
}

// NewPeak returns a tracker starting at InitialPeak.
func NewPeak() *Peak {
	return &Peak{value: InitialPeak}
}

// Value returns the current peak in dB.
func (p *Peak) Value() float64 {
	return p.value
}

// Observe folds the louder of each left/right band pair into the peak and
// returns it.
func (p *Peak) Observe(left, right []int) float64 {
	n := min(len(left), len(right))

	for i := 0; i < n; i++ {
		db := Decibels(max(left[i], right[i]))
		if db > p.value {
			p.value = db
		}
	}

	return p.value
}

// Domain returns the vertical plot range: from peak+noiseFloor up to peak.
func (p *Peak) Domain(noiseFloor float64) (lo, hi float64) {
	return p.value + noiseFloor, p.value
}
