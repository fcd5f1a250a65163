// Package analysis characterizes recorded signal traces.
//
// The package works on plain sample slices, usually a column of a run:
//
//   - [PowerSpectrum]: magnitude spectrum via FFT
//   - [DominantFrequency]: strongest non-DC frequency of a signal
//   - [StepResponse]: rise time, overshoot and settling time
//   - [NewPhasePortrait]: one signal paired against another
//
// # Oscillation
//
// A sampled loop that rings shows up as a spectral peak:
//
//	hz, power := analysis.DominantFrequency(theta, minorFrame)
//	if power > 0 {
//	    fmt.Printf("ringing at %.2f hz\n", hz)
//	}
package analysis
