// Package camera models acquisition settings for a beam-profiling camera and
// validates user requests before they reach the instrument endpoint.
package camera

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/beam.report/internal/units"
)

// ErrInvalidParameter marks local validation failures. These are always
// raised before any network traffic so a bad request never disturbs the
// device state.
var ErrInvalidParameter = errors.New("invalid parameter")

// ParamError reports which field failed validation and why.
type ParamError struct {
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParameter }

func invalidParam(field, format string, args ...interface{}) error {
	return &ParamError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Rotation selects the image rotation applied in the endpoint's processing
// pipeline. The numeric values are the endpoint's own method codes.
type Rotation int

const (
	RotationNone  Rotation = 0
	RotationLeft  Rotation = 1
	RotationRight Rotation = 2
)

func (r Rotation) String() string {
	switch r {
	case RotationNone:
		return "none"
	case RotationLeft:
		return "left"
	case RotationRight:
		return "right"
	default:
		return fmt.Sprintf("rotation(%d)", int(r))
	}
}

// Valid reports whether r is one of the three defined rotations.
func (r Rotation) Valid() bool {
	return r == RotationNone || r == RotationLeft || r == RotationRight
}

// Settings is the full acquisition configuration for one invocation. The
// value fields are meaningful only when the corresponding automatic flag is
// off; Validate zeroes them otherwise so equal configurations compare equal.
type Settings struct {
	ExposureAuto bool
	ExposureTime time.Duration

	GainAuto bool
	Gain     float64 // linear multiplier, e.g. 2.5 for roughly 8 dB

	FrameRateAuto bool
	FrameRate     float64 // frames per second

	PixelClockReduced bool

	FlipHorizontal bool
	FlipVertical   bool
	Rotation       Rotation
}

// Validate checks the static constraints on s and returns a normalized copy.
// It is idempotent: validating an already-validated Settings returns an
// identical value. Range checks against device-reported limits are separate,
// see Limits.Check.
func (s Settings) Validate() (Settings, error) {
	if s.ExposureAuto {
		s.ExposureTime = 0
	} else if s.ExposureTime <= 0 {
		return Settings{}, invalidParam("exposure", "exposure time must be positive, got %s", s.ExposureTime)
	}

	if s.GainAuto {
		s.Gain = 0
	} else if s.Gain <= 0 {
		return Settings{}, invalidParam("gain", "gain multiplier must be positive, got %g", s.Gain)
	}

	if s.FrameRateAuto {
		s.FrameRate = 0
	} else if s.FrameRate < units.MinFrameRate || s.FrameRate > units.MaxFrameRate {
		return Settings{}, invalidParam("fps", "frame rate %g outside supported range %g-%g",
			s.FrameRate, units.MinFrameRate, units.MaxFrameRate)
	}

	if !s.Rotation.Valid() {
		return Settings{}, invalidParam("rotate", "unknown rotation %d", int(s.Rotation))
	}

	return s, nil
}

// Limits holds the device-reported bounds for manually set parameters.
type Limits struct {
	ExposureMin time.Duration
	ExposureMax time.Duration
	GainMin     float64
	GainMax     float64
	FrameMin    float64
	FrameMax    float64
}

// Check rejects settings whose manual values fall outside the device-reported
// bounds. Values are never clamped: silently altering an out-of-range request
// would hide operator intent in a measurement context.
func (l Limits) Check(s Settings) error {
	if !s.ExposureAuto && l.ExposureMax > 0 {
		if s.ExposureTime < l.ExposureMin || s.ExposureTime > l.ExposureMax {
			return invalidParam("exposure", "exposure %s outside device range %s-%s",
				s.ExposureTime, l.ExposureMin, l.ExposureMax)
		}
	}
	if !s.GainAuto && l.GainMax > 0 {
		if s.Gain < l.GainMin || s.Gain > l.GainMax {
			return invalidParam("gain", "gain %gx outside device range %gx-%gx (%.1f-%.1f dB)",
				s.Gain, l.GainMin, l.GainMax,
				units.LinearToDecibels(l.GainMin), units.LinearToDecibels(l.GainMax))
		}
	}
	if !s.FrameRateAuto && l.FrameMax > 0 {
		if s.FrameRate < l.FrameMin || s.FrameRate > l.FrameMax {
			return invalidParam("fps", "frame rate %g outside device range %g-%g",
				s.FrameRate, l.FrameMin, l.FrameMax)
		}
	}
	return nil
}
