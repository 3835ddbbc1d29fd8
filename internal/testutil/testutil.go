// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"math/rand"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// GaussianPixels generates a deterministic pixel buffer of width*height
// samples drawn from a normal distribution with the given mean and standard
// deviation, clipped to the representable range of bitDepth. The seed fixes
// the sequence so fit-recovery tests are repeatable.
func GaussianPixels(width, height, bitDepth int, mean, stddev float64, seed int64) []uint16 {
	rng := rand.New(rand.NewSource(seed))
	maxVal := float64(uint64(1)<<uint(bitDepth) - 1)

	pix := make([]uint16, width*height)
	for i := range pix {
		v := math.Round(rng.NormFloat64()*stddev + mean)
		if v < 0 {
			v = 0
		}
		if v > maxVal {
			v = maxVal
		}
		pix[i] = uint16(v)
	}
	return pix
}

// FlatPixels generates width*height samples all set to the same value.
// Useful for exercising degenerate histograms.
func FlatPixels(width, height int, value uint16) []uint16 {
	pix := make([]uint16, width*height)
	for i := range pix {
		pix[i] = value
	}
	return pix
}

// RampPixels generates width*height samples cycling 0..levels-1. Every
// intensity below levels appears, which makes full-domain histogram
// assertions straightforward.
func RampPixels(width, height int, levels uint64) []uint16 {
	pix := make([]uint16, width*height)
	for i := range pix {
		pix[i] = uint16(uint64(i) % levels)
	}
	return pix
}
