package camera

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/beam.report/internal/units"
)

// Request carries raw string values from the command line. A nil field means
// the user left that parameter alone, so the device's current value is kept.
type Request struct {
	Exposure       *string // "auto" or milliseconds, e.g. "5" or "2.5"
	Gain           *string // "auto", a linear multiplier ("2.5", "2.5x") or decibels ("8dB")
	FrameRate      *string // "auto" or frames per second
	PixelClock     *string // flexible boolean: reduce the pixel clock
	FlipHorizontal *string // flexible boolean
	FlipVertical   *string // flexible boolean
	Rotate         *string // "none", "left" or "right"
}

// Patch is the typed form of a Request: the set of parameter changes to
// apply over the device's current settings. All values have passed static
// validation, so building a Patch performs no network traffic and a request
// that fails here never reaches the endpoint.
type Patch struct {
	ExposureAuto *bool
	ExposureTime *time.Duration

	GainAuto *bool
	Gain     *float64

	FrameRateAuto *bool
	FrameRate     *float64

	PixelClockReduced *bool

	FlipHorizontal *bool
	FlipVertical   *bool
	Rotation       *Rotation
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.ExposureAuto == nil && p.ExposureTime == nil &&
		p.GainAuto == nil && p.Gain == nil &&
		p.FrameRateAuto == nil && p.FrameRate == nil &&
		p.PixelClockReduced == nil &&
		p.FlipHorizontal == nil && p.FlipVertical == nil && p.Rotation == nil
}

// Apply merges the patch over current settings and returns the result.
func (p Patch) Apply(cur Settings) Settings {
	if p.ExposureAuto != nil {
		cur.ExposureAuto = *p.ExposureAuto
	}
	if p.ExposureTime != nil {
		cur.ExposureTime = *p.ExposureTime
	}
	if p.GainAuto != nil {
		cur.GainAuto = *p.GainAuto
	}
	if p.Gain != nil {
		cur.Gain = *p.Gain
	}
	if p.FrameRateAuto != nil {
		cur.FrameRateAuto = *p.FrameRateAuto
	}
	if p.FrameRate != nil {
		cur.FrameRate = *p.FrameRate
	}
	if p.PixelClockReduced != nil {
		cur.PixelClockReduced = *p.PixelClockReduced
	}
	if p.FlipHorizontal != nil {
		cur.FlipHorizontal = *p.FlipHorizontal
	}
	if p.FlipVertical != nil {
		cur.FlipVertical = *p.FlipVertical
	}
	if p.Rotation != nil {
		cur.Rotation = *p.Rotation
	}
	return cur
}

// ParseRequest translates raw user values into a typed Patch, performing
// unit conversion and static range validation. Returns a ParamError wrapping
// ErrInvalidParameter on the first bad field.
func ParseRequest(req Request) (Patch, error) {
	var p Patch

	if req.Exposure != nil {
		if isAuto(*req.Exposure) {
			p.ExposureAuto = boolPtr(true)
		} else {
			ms, err := parsePositiveFloat(*req.Exposure)
			if err != nil {
				return Patch{}, invalidParam("exposure", "%q is not *auto* or a positive millisecond value", *req.Exposure)
			}
			d := units.MillisecondsToDuration(ms)
			p.ExposureAuto = boolPtr(false)
			p.ExposureTime = &d
		}
	}

	if req.Gain != nil {
		if isAuto(*req.Gain) {
			p.GainAuto = boolPtr(true)
		} else {
			mult, err := parseGain(*req.Gain)
			if err != nil {
				return Patch{}, invalidParam("gain", "%q is not *auto*, a positive multiplier or a decibel value", *req.Gain)
			}
			p.GainAuto = boolPtr(false)
			p.Gain = &mult
		}
	}

	if req.FrameRate != nil {
		if isAuto(*req.FrameRate) {
			p.FrameRateAuto = boolPtr(true)
		} else {
			fps, err := parsePositiveFloat(*req.FrameRate)
			if err != nil {
				return Patch{}, invalidParam("fps", "%q is not *auto* or a frame rate", *req.FrameRate)
			}
			if fps < units.MinFrameRate || fps > units.MaxFrameRate {
				return Patch{}, invalidParam("fps", "frame rate %g outside supported range %g-%g",
					fps, units.MinFrameRate, units.MaxFrameRate)
			}
			p.FrameRateAuto = boolPtr(false)
			p.FrameRate = &fps
		}
	}

	if req.PixelClock != nil {
		b, err := ParseBoolFlag(*req.PixelClock)
		if err != nil {
			return Patch{}, invalidParam("clock", "%q is not a boolean, use *true* or *false*", *req.PixelClock)
		}
		p.PixelClockReduced = &b
	}

	if req.FlipHorizontal != nil {
		b, err := ParseBoolFlag(*req.FlipHorizontal)
		if err != nil {
			return Patch{}, invalidParam("fliph", "%q is not a boolean, use *true* or *false*", *req.FlipHorizontal)
		}
		p.FlipHorizontal = &b
	}

	if req.FlipVertical != nil {
		b, err := ParseBoolFlag(*req.FlipVertical)
		if err != nil {
			return Patch{}, invalidParam("flipv", "%q is not a boolean, use *true* or *false*", *req.FlipVertical)
		}
		p.FlipVertical = &b
	}

	if req.Rotate != nil {
		r, err := ParseRotation(*req.Rotate)
		if err != nil {
			return Patch{}, invalidParam("rotate", "%q is not a rotation, use *none*, *left* or *right*", *req.Rotate)
		}
		p.Rotation = &r
	}

	return p, nil
}

// ParseRotation maps a user-facing rotation selector onto a Rotation.
// Accepts none/false (no rotation), left/l and right/r, case-insensitively.
func ParseRotation(s string) (Rotation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "false", "f":
		return RotationNone, nil
	case "left", "l":
		return RotationLeft, nil
	case "right", "r":
		return RotationRight, nil
	default:
		return RotationNone, invalidParam("rotate", "unknown rotation %q", s)
	}
}

// ParseBoolFlag interprets flexible boolean input: true/t and false/f in any
// case.
func ParseBoolFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t":
		return true, nil
	case "false", "f":
		return false, nil
	default:
		return false, invalidParam("flag", "%q is not a boolean", s)
	}
}

func isAuto(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "auto")
}

func parsePositiveFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalidParam("value", "must be positive and finite")
	}
	return v, nil
}

// parseGain reads a gain as a linear multiplier ("2.5", "2.5x") or in
// decibels ("8dB"). Decibel values may be negative, which attenuates.
func parseGain(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if db, ok := strings.CutSuffix(strings.ToLower(s), "db"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(db), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, invalidParam("gain", "bad decibel value")
		}
		return units.DecibelsToLinear(v), nil
	}
	return parsePositiveFloat(strings.TrimSuffix(s, "x"))
}

func boolPtr(b bool) *bool { return &b }
