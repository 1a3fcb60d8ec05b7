// Package wave turns buffered samples into the polyline drawn by the overlay.
// Everything here is a pure function of its inputs.
package wave

import (
	"fmt"
	"math"
	"strings"
)

// Point is a vertex of the rendered path in window pixels, y pointing down.
type Point struct {
	X, Y float32
}

// Normalization selects how sample values map to vertical pixels.
type Normalization int

const (
	// NormalizePeak scales the loudest sample in the buffer to Amplitude.
	NormalizePeak Normalization = iota
	// NormalizeFixed divides every sample by Divisor.
	NormalizeFixed
)

func (n Normalization) String() string {
	switch n {
	case NormalizePeak:
		return "peak"
	case NormalizeFixed:
		return "fixed"
	default:
		return fmt.Sprintf("Normalization(%d)", int(n))
	}
}

// ParseNormalization accepts "peak" or "fixed".
func ParseNormalization(s string) (Normalization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "peak":
		return NormalizePeak, nil
	case "fixed":
		return NormalizeFixed, nil
	}
	return 0, fmt.Errorf("unknown normalization %q", s)
}

// Mode selects what the overlay draws.
type Mode int

const (
	ModeWaveform Mode = iota
	ModeSpectrum
)

func (m Mode) String() string {
	switch m {
	case ModeWaveform:
		return "waveform"
	case ModeSpectrum:
		return "spectrum"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "waveform" or "spectrum".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "waveform":
		return ModeWaveform, nil
	case "spectrum":
		return ModeSpectrum, nil
	}
	return 0, fmt.Errorf("unknown render mode %q", s)
}

// Policy fixes the geometry and normalization of a path.
type Policy struct {
	Normalization Normalization
	Amplitude     float64 // peak height in pixels for NormalizePeak
	Divisor       float64 // for NormalizeFixed
	OriginX       float64
	Baseline      float64
}

// DefaultPolicy returns the overlay's standard geometry: paths start at
// x=50 on a baseline at y=200, peaks reach 100 pixels.
func DefaultPolicy() Policy {
	return Policy{
		Normalization: NormalizePeak,
		Amplitude:     100,
		Divisor:       10,
		OriginX:       50,
		Baseline:      200,
	}
}

// Normalize returns the vertical offset of every sample under p.
func (p Policy) Normalize(samples []int16) []float64 {
	out := make([]float64, len(samples))

	switch p.Normalization {
	case NormalizeFixed:
		div := p.Divisor
		if div == 0 {
			div = 1
		}
		for i, s := range samples {
			out[i] = float64(s) / div
		}
	default:
		peak := 0.0
		for _, s := range samples {
			if a := math.Abs(float64(s)); a > peak {
				peak = a
			}
		}
		// Quiet buffers are drawn as-is; this also keeps silence at zero.
		if peak <= 1 {
			for i, s := range samples {
				out[i] = float64(s)
			}
			return out
		}
		for i, s := range samples {
			out[i] = float64(s) / peak * p.Amplitude
		}
	}
	return out
}

// Build maps samples, oldest first, to one point each. Point i sits at
// OriginX + i*hscale horizontally and Baseline minus the normalized sample
// times vscale vertically.
func Build(p Policy, samples []int16, hscale, vscale float64) []Point {
	return BuildInto(nil, p, samples, hscale, vscale)
}

// BuildInto is Build reusing dst when it is large enough.
func BuildInto(dst []Point, p Policy, samples []int16, hscale, vscale float64) []Point {
	if cap(dst) < len(samples) {
		dst = make([]Point, len(samples))
	}
	dst = dst[:len(samples)]

	norm := p.Normalize(samples)
	for i, v := range norm {
		dst[i] = Point{
			X: float32(p.OriginX + float64(i)*hscale),
			Y: float32(p.Baseline - v*vscale),
		}
	}
	return dst
}
