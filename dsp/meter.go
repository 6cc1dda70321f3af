package dsp

import (
	"math"
	"time"
)

const (
	// MeterWindow is the span of audio each meter update integrates.
	MeterWindow = 5 * time.Millisecond
	// MeterPole is the decay coefficient of the meter ballistics, per second.
	MeterPole = 1.3545
	// MeterCalibration is subtracted from 20*log10 of the mean magnitude so a
	// full-scale signal reads around 0dB.
	MeterCalibration = 80.3
	// MeterFloor is the default lowest meter reading.
	MeterFloor = -60.0

	// FullScale is the magnitude of a full-scale 16 bit sample.
	FullScale = 1 << 15
	// ClipThreshold is the magnitude at which a sample counts as clipped.
	ClipThreshold = FullScale - 2
)

// WindowLength returns the number of samples in a MeterWindow at rate.
func WindowLength(rate float64) int {
	n := int(MeterWindow.Seconds() * rate)
	if n < 1 {
		return 1
	}

	return n
}

// MeanAbs returns the mean magnitude of buf.
func MeanAbs(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range buf {
		sum += math.Abs(v)
	}

	return sum / float64(len(buf))
}

// Level converts a mean magnitude to a calibrated dB target, never below
// floor.
func Level(mean, floor float64) float64 {
	db := 20.0*math.Log10(mean) - MeterCalibration
	if !(db > floor) {
		return floor
	}

	return db
}

// DetectClip reports whether any sample reaches ClipThreshold.
func DetectClip(bufs ...[]float64) bool {
	for _, buf := range bufs {
		for _, v := range buf {
			if math.Abs(v) >= ClipThreshold {
				return true
			}
		}
	}

	return false
}

// Ballistic advances a meter reading by dt seconds towards target.
//
// next = exp(-MeterPole*dt)*prev + target*dt
func Ballistic(prev, target, dt float64) float64 {
	return math.Exp(-MeterPole*dt)*prev + target*dt
}

// Meter is a stereo peak programme meter.
type Meter struct {
	floor  float64
	values []float64
	clip   bool
}

// NewMeter returns a meter for channels, every reading starting at floor.
func NewMeter(channels int, floor float64) *Meter {
	m := &Meter{
		floor:  floor,
		values: make([]float64, channels),
	}

	m.Reset()

	return m
}

// Reset puts every reading back to the floor.
func (m *Meter) Reset() {
	for i := range m.values {
		m.values[i] = m.floor
	}

	m.clip = false
}

// Floor returns the lowest reading of the meter.
func (m *Meter) Floor() float64 { return m.floor }

// Value returns the reading of channel ch in dB.
func (m *Meter) Value(ch int) float64 { return m.values[ch] }

// Clip reports whether the last update saw a clipped sample.
func (m *Meter) Clip() bool { return m.clip }

// Update integrates the most recent window of samples of each channel over dt
// seconds. Readings never drop below the floor and are never NaN.
func (m *Meter) Update(windows [][]float64, dt float64) {
	n := min(len(windows), len(m.values))

	for ch := 0; ch < n; ch++ {
		target := Level(MeanAbs(windows[ch]), m.floor)

		next := Ballistic(m.values[ch], target, dt)
		if math.IsNaN(next) || math.IsInf(next, 0) || next < m.floor {
			next = m.floor
		}

		m.values[ch] = next
	}

	m.clip = DetectClip(windows...)
}
