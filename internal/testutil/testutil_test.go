package testutil

import "testing"

func TestAxis(t *testing.T) {
	t.Parallel()

	got := Axis(400, 402, 0.5)
	AssertFloatsInDelta(t, []float64{400, 400.5, 401, 401.5, 402}, got, 0)

	if n := len(Axis(0, 1, 0.1)); n != 11 {
		t.Errorf("len(Axis(0,1,0.1)) = %d, want 11", n)
	}
}

func TestGaussianIntensities(t *testing.T) {
	t.Parallel()

	w := []float64{-1, 0, 1}
	got := GaussianIntensities(w, []Line{{Center: 0, Height: 10, Width: 1}})
	if got[1] != 10 {
		t.Errorf("peak = %g, want 10", got[1])
	}
	if got[0] != got[2] {
		t.Errorf("line not symmetric: %g != %g", got[0], got[2])
	}
}

func TestGaussianSpectrum(t *testing.T) {
	t.Parallel()

	s := GaussianSpectrum(t, 500, 510, 1, []Line{{Center: 505, Height: 3, Width: 1}})
	if s.Len() != 11 {
		t.Fatalf("Len = %d, want 11", s.Len())
	}
	if _, v := s.At(5); v != 3 {
		t.Errorf("intensity at centre = %g, want 3", v)
	}
}

func TestRamp(t *testing.T) {
	t.Parallel()
	AssertFloatsInDelta(t, []float64{2, 3, 4}, Ramp(3, 2), 0)
}
