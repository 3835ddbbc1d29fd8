// Package units provides shared constants and conversions for camera
// quantities: exposure time, gain, frame rate and pixel intensity domains.
package units

import (
	"math"
	"time"
)

// Frame rate bounds supported by the acquisition hardware, in frames per
// second. Values outside this range are rejected, not clamped.
const (
	MinFrameRate = 1.0
	MaxFrameRate = 14.0
)

// MillisecondsToDuration converts a user-facing exposure value in
// milliseconds to a duration. Fractional milliseconds are preserved.
func MillisecondsToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// DurationToMicroseconds converts a duration to the endpoint's native
// exposure unit, microseconds.
func DurationToMicroseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

// MicrosecondsToDuration converts an endpoint-reported exposure in
// microseconds to a duration.
func MicrosecondsToDuration(us float64) time.Duration {
	return time.Duration(us * float64(time.Microsecond))
}

// DurationToMilliseconds converts a duration back to the user-facing
// millisecond representation.
func DurationToMilliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// LinearToDecibels converts a linear gain multiplier to decibels.
// A multiplier of 2.5x is roughly 8 dB.
func LinearToDecibels(mult float64) float64 {
	return 20 * math.Log10(mult)
}

// DecibelsToLinear converts a gain in decibels to a linear multiplier.
func DecibelsToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// MaxPixelValue returns the largest representable intensity sample for the
// given bit depth, i.e. 2^depth - 1.
func MaxPixelValue(bitDepth int) uint64 {
	return (uint64(1) << uint(bitDepth)) - 1
}

// IntensityLevels returns the number of representable intensity levels for
// the given bit depth, i.e. 2^depth. This is the exclusive upper edge of the
// histogram domain.
func IntensityLevels(bitDepth int) uint64 {
	return uint64(1) << uint(bitDepth)
}
