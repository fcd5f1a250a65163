package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// PowerSpectrum returns the magnitude of the first half of the FFT of data,
// zero-padded to a power of two. Bin k corresponds to k/(N*dt) hz where N is
// the padded length.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	padded := make([]float64, nextPow2(len(data)))
	copy(padded, data)

	spectrum := fft.FFTReal(padded)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency in hz of the strongest non-DC bin
// of data sampled every dt seconds, and its magnitude. The mean is removed
// first so an offset does not mask the oscillation.
func DominantFrequency(data []float64, dt float64) (float64, float64) {
	if len(data) < 2 || dt <= 0 {
		return 0, 0
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	ps := PowerSpectrum(centered)
	maxIdx := 0
	maxPower := 0.0
	for i := 1; i < len(ps); i++ {
		if ps[i] > maxPower {
			maxPower = ps[i]
			maxIdx = i
		}
	}

	n := nextPow2(len(data))
	return float64(maxIdx) / (float64(n) * dt), maxPower
}
