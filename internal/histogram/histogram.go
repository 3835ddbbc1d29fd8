// Package histogram turns captured frames into intensity distributions and
// fits a Gaussian profile to them, the quick health check for a beam
// profile: a clean beam shows a smooth peak, clipping piles up in the top
// bin.
package histogram

import (
	"fmt"

	"github.com/banshee-data/beam.report/internal/camera"
	"github.com/banshee-data/beam.report/internal/units"
)

// DefaultBinCount matches the resolution beam profiles are usually
// inspected at.
const DefaultBinCount = 256

// Bin is one bucket over the half-open intensity interval [Lo, Hi). The
// final bin also includes its upper edge so the top level is counted.
type Bin struct {
	Lo    float64
	Hi    float64
	Count int
}

// Center returns the bin midpoint.
func (b Bin) Center() float64 {
	return (b.Lo + b.Hi) / 2
}

// Width returns the bin width in intensity levels.
func (b Bin) Width() float64 {
	return b.Hi - b.Lo
}

// Histogram is a distribution over a frame's full representable intensity
// range, not just the values present in it.
type Histogram struct {
	BitDepth int
	Bins     []Bin
}

// Build sorts a frame's samples into binCount equal-width bins spanning
// [0, 2^BitDepth). Every sample lands in exactly one bin.
func Build(f camera.Frame, binCount int) (Histogram, error) {
	if err := f.Validate(); err != nil {
		return Histogram{}, err
	}
	levels := units.IntensityLevels(f.BitDepth)
	if binCount < 1 {
		return Histogram{}, &camera.ParamError{Field: "bins", Reason: fmt.Sprintf("bin count %d is not positive", binCount)}
	}
	if uint64(binCount) > levels {
		return Histogram{}, &camera.ParamError{Field: "bins", Reason: fmt.Sprintf("bin count %d exceeds the %d intensity levels of a %d bit frame", binCount, levels, f.BitDepth)}
	}

	h := Histogram{BitDepth: f.BitDepth, Bins: make([]Bin, binCount)}
	width := float64(levels) / float64(binCount)
	for i := range h.Bins {
		h.Bins[i].Lo = float64(i) * width
		h.Bins[i].Hi = float64(i+1) * width
	}
	h.Bins[binCount-1].Hi = float64(levels)

	// integer bin mapping, consistent with the float edges: v*n/levels
	// truncates exactly where bin i ends
	n := uint64(binCount)
	for _, v := range f.Pix {
		idx := uint64(v) * n / levels
		if idx >= n {
			idx = n - 1
		}
		h.Bins[idx].Count++
	}
	return h, nil
}

// PixelCount returns the total number of samples counted.
func (h Histogram) PixelCount() int {
	total := 0
	for _, b := range h.Bins {
		total += b.Count
	}
	return total
}

// NonEmptyBins returns how many bins hold at least one sample.
func (h Histogram) NonEmptyBins() int {
	n := 0
	for _, b := range h.Bins {
		if b.Count > 0 {
			n++
		}
	}
	return n
}

// Peak returns the index and count of the fullest bin. Ties go to the
// lowest intensity.
func (h Histogram) Peak() (int, int) {
	idx, max := 0, 0
	for i, b := range h.Bins {
		if b.Count > max {
			idx, max = i, b.Count
		}
	}
	return idx, max
}
