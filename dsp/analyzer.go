// Package dsp provides audio analysis
//
// Some notes:
//
// https://dlbeer.co.nz/articles/fftvis.html
// https://www.cg.tuwien.ac.at/courses/WissArbeiten/WS2010/processing.pdf
// https://stackoverflow.com/questions/3694918/how-to-extract-frequency-associated-with-fft-values-in-python
//   - https://stackoverflow.com/a/27191172
package dsp

import "math"

const (
	// DefaultLowCut is the lowest frequency shown.
	DefaultLowCut = 20.0
	// DefaultHighCut is the highest frequency shown.
	DefaultHighCut = 20000.0
)

type AnalyzerConfig struct {
	SampleRate float64 // audio sample rate
	SampleSize int     // number of samples per transform
	LowCut     float64 // lower frequency bound in Hz
	HighCut    float64 // upper frequency bound in Hz
}

// Analyzer aggregates transform bins into log-spaced bands.
type Analyzer interface {
	BinCount() int
	// ProcessBin returns the integer power of band idx.
	ProcessBin(int, []complex128) int
	// Process fills dst with the power of every band.
	Process(dst []int, src []complex128)
	Recalculate(int) int
}

// analyzer is an audio spectrum in a buffer
type analyzer struct {
	cfg      AnalyzerConfig // the analyzer config
	bins     []bin          // bins for processing
	binCount int            // number of bins we look at
	fftSize  int            // number of fft bins
}

// Bin is a helper struct for spectrum
type bin struct {
	floorFFT int // floor fft index
	ceilFFT  int // ceiling fft index
}

func NewAnalyzer(cfg AnalyzerConfig) Analyzer {
	if cfg.LowCut <= 0 {
		cfg.LowCut = DefaultLowCut
	}

	if cfg.HighCut <= cfg.LowCut {
		cfg.HighCut = DefaultHighCut
	}

	return &analyzer{
		cfg:     cfg,
		bins:    make([]bin, cfg.SampleSize/2+2),
		fftSize: cfg.SampleSize/2 + 1,
	}
}

// BinCount returns the number of bins each stream has
func (az *analyzer) BinCount() int {
	return az.binCount
}

// ProcessBin sums |X|^2 / N over the transform bins of band idx.
func (az *analyzer) ProcessBin(idx int, src []complex128) int {
	b := az.bins[idx]

	fftFloor, fftCeil := b.floorFFT, b.ceilFFT
	if fftCeil > len(src) {
		fftCeil = len(src)
	}

	if fftFloor >= fftCeil {
		return 0
	}

	power := 0.0
	for _, cmplx := range src[fftFloor:fftCeil] {
		re, im := real(cmplx), imag(cmplx)
		power += re*re + im*im
	}

	power /= float64(az.cfg.SampleSize)

	if !(power < math.MaxInt64) {
		return math.MaxInt64
	}

	return int(power)
}

func (az *analyzer) Process(dst []int, src []complex128) {
	n := min(len(dst), az.binCount)
	for idx := 0; idx < n; idx++ {
		dst[idx] = az.ProcessBin(idx, src)
	}

	for idx := n; idx < len(dst); idx++ {
		dst[idx] = 0
	}
}

// Recalculate rebuilds our frequency bins
func (az *analyzer) Recalculate(binCount int) int {
	switch {
	case binCount >= az.fftSize:
		binCount = az.fftSize - 1
	case binCount < 1:
		binCount = 1
	case binCount == az.binCount:
		return binCount
	}

	az.binCount = binCount

	az.distribute(binCount)

	for idx, b := range az.bins[:binCount] {
		if b.ceilFFT > az.fftSize {
			az.bins[idx].ceilFFT = az.fftSize
		}
	}

	return binCount
}

// distribute spaces the band edges evenly on a log scale between the cutoffs.
// Each band covers at least one transform bin.
func (az *analyzer) distribute(bins int) {
	lo := az.cfg.LowCut
	hi := math.Min(az.cfg.SampleRate/2, az.cfg.HighCut)

	loLog := math.Log10(lo)
	hiLog := math.Log10(hi)

	cF := (hiLog - loLog) / float64(bins)

	for idx := range az.bins[:bins+1] {
		frequency := math.Pow(10.0, (float64(idx)*cF)+loLog)

		az.bins[idx].floorFFT = az.freqToIdx(frequency, math.Floor)

		if idx > 0 {
			if az.bins[idx-1].floorFFT >= az.bins[idx].floorFFT {
				az.bins[idx].floorFFT = az.bins[idx-1].floorFFT + 1
			}

			az.bins[idx-1].ceilFFT = az.bins[idx].floorFFT
		}
	}
}

type mathFunc func(float64) float64

func (az *analyzer) freqToIdx(freq float64, round mathFunc) int {
	b := int(round(freq / (az.cfg.SampleRate / float64(az.cfg.SampleSize))))

	if b < az.fftSize {
		return b
	}

	return az.fftSize - 1
}
