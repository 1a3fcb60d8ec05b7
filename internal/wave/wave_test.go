package wave

import (
	"math"
	"testing"
)

func TestBuildGeometry(t *testing.T) {
	p := DefaultPolicy()
	samples := []int16{0, 10, -10, 5}

	pts := Build(p, samples, 1.0, 1.0)
	if len(pts) != len(samples) {
		t.Fatalf("expected %d points, got %d", len(samples), len(pts))
	}

	// Peak is 10, so samples scale by 100/10.
	wantX := []float32{50, 51, 52, 53}
	wantY := []float32{200, 100, 300, 150}
	for i := range pts {
		if pts[i].X != wantX[i] || pts[i].Y != wantY[i] {
			t.Errorf("point %d: expected (%v, %v), got (%v, %v)", i, wantX[i], wantY[i], pts[i].X, pts[i].Y)
		}
	}
}

func TestBuildFixedDivisor(t *testing.T) {
	p := DefaultPolicy()
	p.Normalization = NormalizeFixed

	pts := Build(p, []int16{0, 10, -10, 5}, 1.0, 1.0)
	wantY := []float32{200, 199, 201, 199.5}
	for i := range pts {
		if pts[i].Y != wantY[i] {
			t.Errorf("point %d: expected y %v, got %v", i, wantY[i], pts[i].Y)
		}
	}
}

func TestBuildHorizontalScaling(t *testing.T) {
	pts := Build(DefaultPolicy(), []int16{1, 1, 1}, 0.5, 1.0)
	want := []float32{50, 50.5, 51}
	for i := range pts {
		if pts[i].X != want[i] {
			t.Errorf("point %d: expected x %v, got %v", i, want[i], pts[i].X)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	samples := []int16{3, -900, 32767, -32768, 12, 0, 44}
	for _, norm := range []Normalization{NormalizePeak, NormalizeFixed} {
		p := DefaultPolicy()
		p.Normalization = norm

		a := Build(p, samples, 0.05, 1.5)
		b := Build(p, samples, 0.05, 1.5)
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("%s: point %d differs: %v vs %v", norm, i, a[i], b[i])
			}
		}
	}
}

func TestPeakNormalizationOfSilence(t *testing.T) {
	p := DefaultPolicy()

	for _, samples := range [][]int16{{0, 0, 0, 0}, {}, {1, -1, 0}} {
		norm := p.Normalize(samples)
		for i, v := range norm {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("sample %d normalized to %v", i, v)
			}
			if v != float64(samples[i]) {
				t.Fatalf("expected quiet sample %d to stay %d, got %v", i, samples[i], v)
			}
		}
	}

	if pts := Build(p, nil, 1, 1); len(pts) != 0 {
		t.Fatalf("expected no points for empty input, got %d", len(pts))
	}
}

func TestPeakNormalizationHandlesMinInt16(t *testing.T) {
	norm := DefaultPolicy().Normalize([]int16{-32768, 16384})
	if norm[0] != -100 {
		t.Fatalf("expected -100, got %v", norm[0])
	}
	if norm[1] != 50 {
		t.Fatalf("expected 50, got %v", norm[1])
	}
}

func TestBuildIntoReusesSlice(t *testing.T) {
	dst := make([]Point, 0, 16)
	pts := BuildInto(dst, DefaultPolicy(), []int16{1, 2}, 1, 1)
	if cap(pts) != 16 {
		t.Fatalf("expected destination to be reused, cap %d", cap(pts))
	}
}

func TestParseNormalizationAndMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Normalization
		wantErr bool
	}{
		{"peak", NormalizePeak, false},
		{"FIXED", NormalizeFixed, false},
		{"", NormalizePeak, false},
		{"rms", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseNormalization(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%q: unexpected error %v", tt.in, err)
		}
		if err == nil && got != tt.want {
			t.Fatalf("%q: expected %s, got %s", tt.in, tt.want, got)
		}
	}

	if m, err := ParseMode("spectrum"); err != nil || m != ModeSpectrum {
		t.Fatalf("expected spectrum mode, got %v %v", m, err)
	}
	if _, err := ParseMode("bars"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestSpectrumPeaksAtToneBin(t *testing.T) {
	const n = 256
	const bin = 8
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(10000 * math.Sin(2*math.Pi*bin*float64(i)/n))
	}

	pts := Spectrum(DefaultPolicy(), samples, 1)
	if len(pts) != (n/2+1)/4 {
		t.Fatalf("expected %d bins, got %d", (n/2+1)/4, len(pts))
	}

	highest := 0
	for i := range pts {
		if pts[i].Y < pts[highest].Y {
			highest = i
		}
	}
	if highest != bin {
		t.Fatalf("expected peak at bin %d, got %d", bin, highest)
	}
	if math.Abs(float64(pts[bin].Y)-100) > 1e-3 {
		t.Fatalf("expected peak to reach amplitude, got y=%v", pts[bin].Y)
	}
	if pts[1].X != 56 {
		t.Fatalf("expected bin spacing of %d, got x=%v", SpectrumStep, pts[1].X)
	}
}

func TestSpectrumOfSilence(t *testing.T) {
	pts := Spectrum(DefaultPolicy(), make([]int16, 64), 1)
	for i, p := range pts {
		if p.Y != 200 {
			t.Fatalf("bin %d: expected baseline, got %v", i, p.Y)
		}
	}
	if Spectrum(DefaultPolicy(), []int16{1}, 1) != nil {
		t.Fatal("expected nil spectrum for a single sample")
	}
}

func TestSpectrumSkipsDC(t *testing.T) {
	samples := make([]int16, 64)
	for i := range samples {
		samples[i] = 1000
	}

	pts := Spectrum(DefaultPolicy(), samples, 1)
	if pts[0].X != 50 || pts[0].Y != 200 {
		t.Fatalf("expected the path to start on the baseline, got %+v", pts[0])
	}
	for i, p := range pts {
		if math.Abs(float64(p.Y)-200) > 1e-3 {
			t.Fatalf("bin %d: a constant offset should not leave the baseline, got y=%v", i, p.Y)
		}
	}
}
