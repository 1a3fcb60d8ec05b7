package wave

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// SpectrumStep is the horizontal distance between spectrum bins.
const SpectrumStep = 6

// Spectrum draws the magnitude of the real FFT of samples. Only the lowest
// quarter of the bins is kept; magnitudes are scaled so the largest reaches
// p.Amplitude. vscale multiplies the height. The path starts on the
// baseline and the DC bin is never drawn.
func Spectrum(p Policy, samples []int16, vscale float64) []Point {
	if len(samples) < 2 {
		return nil
	}

	in := make([]float64, len(samples))
	for i, s := range samples {
		in[i] = float64(s)
	}
	coeffs := fft.FFTReal(in)

	// Real input: bins above n/2 mirror the lower half.
	bins := len(coeffs)/2 + 1
	mags := make([]float64, bins)
	peak := 0.0
	for i := 0; i < bins; i++ {
		mags[i] = cmplx.Abs(coeffs[i])
		if mags[i] > peak {
			peak = mags[i]
		}
	}

	keep := bins / 4
	if keep < 1 {
		keep = 1
	}

	pts := make([]Point, keep)
	pts[0] = Point{X: float32(p.OriginX), Y: float32(p.Baseline)}
	for i := 1; i < keep; i++ {
		h := 0.0
		if peak > 0 {
			h = mags[i] / peak * p.Amplitude
		}
		pts[i] = Point{
			X: float32(p.OriginX + float64(i*SpectrumStep)),
			Y: float32(p.Baseline - h*vscale),
		}
	}
	return pts
}
