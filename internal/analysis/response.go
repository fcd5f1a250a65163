package analysis

import "math"

// Response summarizes a step response against its final value.
type Response struct {
	Final float64
	// RiseTime is the time from 10% to 90% of the final value.
	RiseTime float64
	// Overshoot is the peak excursion past the final value, as a fraction
	// of the total change.
	Overshoot float64
	// SettlingTime is the first time after which the signal stays inside
	// the band.
	SettlingTime float64
}

// StepResponse measures y over times. The initial sample is the starting
// level and the last sample is taken as the final value. band is the
// settling tolerance as a fraction of the change, 0.02 when <= 0.
func StepResponse(times, y []float64, band float64) Response {
	var r Response
	if len(y) < 2 || len(times) != len(y) {
		return r
	}
	if band <= 0 {
		band = 0.02
	}

	start := y[0]
	r.Final = y[len(y)-1]
	delta := r.Final - start
	if delta == 0 {
		return r
	}

	level := func(v float64) float64 { return (v - start) / delta }

	t10, t90 := math.NaN(), math.NaN()
	peak := 0.0
	for i, v := range y {
		l := level(v)
		if math.IsNaN(t10) && l >= 0.1 {
			t10 = times[i]
		}
		if math.IsNaN(t90) && l >= 0.9 {
			t90 = times[i]
		}
		peak = max(peak, l)
	}
	if !math.IsNaN(t10) && !math.IsNaN(t90) {
		r.RiseTime = t90 - t10
	}
	r.Overshoot = max(0, peak-1)

	for i := len(y) - 1; i >= 0; i-- {
		if math.Abs(level(y[i])-1) > band {
			r.SettlingTime = times[i+1]
			break
		}
	}
	return r
}
