package testutil

import (
	"math"
	"testing"
)

func TestGaussianPixelsDeterministic(t *testing.T) {
	a := GaussianPixels(64, 64, 8, 128, 20, 42)
	b := GaussianPixels(64, 64, 8, 128, 20, 42)

	if len(a) != 64*64 {
		t.Fatalf("len = %d, want %d", len(a), 64*64)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different buffers at index %d", i)
		}
	}

	c := GaussianPixels(64, 64, 8, 128, 20, 43)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical buffers")
	}
}

func TestGaussianPixelsStatistics(t *testing.T) {
	pix := GaussianPixels(256, 256, 8, 128, 20, 1)

	var sum float64
	for _, v := range pix {
		if v > 255 {
			t.Fatalf("sample %d exceeds 8-bit range", v)
		}
		sum += float64(v)
	}
	mean := sum / float64(len(pix))
	if math.Abs(mean-128) > 1 {
		t.Errorf("sample mean = %v, want about 128", mean)
	}

	var ss float64
	for _, v := range pix {
		d := float64(v) - mean
		ss += d * d
	}
	stddev := math.Sqrt(ss / float64(len(pix)))
	if math.Abs(stddev-20) > 1 {
		t.Errorf("sample stddev = %v, want about 20", stddev)
	}
}

func TestRampPixels(t *testing.T) {
	pix := RampPixels(16, 16, 256)
	if len(pix) != 256 {
		t.Fatalf("len = %d, want 256", len(pix))
	}
	seen := make(map[uint16]bool)
	for _, v := range pix {
		seen[v] = true
	}
	if len(seen) != 256 {
		t.Errorf("ramp covered %d distinct levels, want 256", len(seen))
	}
}

func TestFlatPixels(t *testing.T) {
	pix := FlatPixels(4, 4, 77)
	for i, v := range pix {
		if v != 77 {
			t.Fatalf("pix[%d] = %d, want 77", i, v)
		}
	}
}
