package rayci

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/beam.report/internal/camera"
	"github.com/banshee-data/beam.report/internal/units"
)

// Vendor method tree. Camera setting methods take the live-mode document id
// as their first argument; Single.Data methods take a measurement id.
const (
	MethodLiveModeList     = "RayCi.LiveMode.list"
	MethodLiveModeOpen     = "RayCi.LiveMode.open"
	MethodGetCurrentCam    = "RayCi.LiveMode.Camera.getIdCurrentCam"
	MethodGetCamListSize   = "RayCi.LiveMode.Camera.getIdCamListSize"
	MethodGetCamListItem   = "RayCi.LiveMode.Camera.getIdCamListItem"
	MethodExposureSetAuto  = "RayCi.LiveMode.Camera.ExposureTime.setAutomatic"
	MethodExposureGetAuto  = "RayCi.LiveMode.Camera.ExposureTime.getAutomatic"
	MethodExposureSet      = "RayCi.LiveMode.Camera.ExposureTime.setExposureTime"
	MethodExposureGet      = "RayCi.LiveMode.Camera.ExposureTime.getExposureTime"
	MethodExposureRange    = "RayCi.LiveMode.Camera.ExposureTime.getRange"
	MethodGainSetAuto      = "RayCi.LiveMode.Camera.Gain.setAutomatic"
	MethodGainGetAuto      = "RayCi.LiveMode.Camera.Gain.getAutomatic"
	MethodGainSet          = "RayCi.LiveMode.Camera.Gain.setGain"
	MethodGainGet          = "RayCi.LiveMode.Camera.Gain.getGain"
	MethodGainRange        = "RayCi.LiveMode.Camera.Gain.getRange"
	MethodFrameRateSetAuto = "RayCi.LiveMode.Camera.FrameRate.setAutomatic"
	MethodFrameRateGetAuto = "RayCi.LiveMode.Camera.FrameRate.getAutomatic"
	MethodFrameRateSet     = "RayCi.LiveMode.Camera.FrameRate.setFrameRate"
	MethodFrameRateGet     = "RayCi.LiveMode.Camera.FrameRate.getFrameRate"
	MethodFrameRateRange   = "RayCi.LiveMode.Camera.FrameRate.getRange"
	MethodPixelClockSet    = "RayCi.LiveMode.Camera.PixelClock.setReduce"
	MethodPixelClockGet    = "RayCi.LiveMode.Camera.PixelClock.getReduce"
	MethodFlipHSet         = "RayCi.LiveMode.Processing.Transform.setHorizontalFlip"
	MethodFlipHGet         = "RayCi.LiveMode.Processing.Transform.getHorizontalFlip"
	MethodFlipVSet         = "RayCi.LiveMode.Processing.Transform.setVerticalFlip"
	MethodFlipVGet         = "RayCi.LiveMode.Processing.Transform.getVerticalFlip"
	MethodRotateSet        = "RayCi.LiveMode.Processing.Transform.Rotate.setMethod"
	MethodRotateGet        = "RayCi.LiveMode.Processing.Transform.Rotate.getMethod"
	MethodNewSnapshot      = "RayCi.LiveMode.Measurement.newSnapshot"
	MethodDataResolution   = "RayCi.Single.Data.getResolution"
	MethodDataGet          = "RayCi.Single.Data.getData"
	MethodSingleCloseAll   = "RayCi.Single.closeAll"
)

// ErrNoCamera means the endpoint reported no connected camera to open.
var ErrNoCamera = errors.New("no camera found")

// liveModeVideoStream is the camera name the endpoint reports for a
// live-mode document that is streaming video rather than driving a stills
// camera. Such documents cannot take snapshots.
const liveModeVideoStream = "Video Stream"

// liveModeDisconnected is the document name for a live-mode window whose
// camera has gone away.
const liveModeDisconnected = "not connected"

// Caller is the call surface Device needs from a Client.
type Caller interface {
	Call(ctx context.Context, method string, args ...interface{}) (Value, error)
}

// Device drives one camera through its live-mode document.
type Device struct {
	rpc Caller
	doc int
}

// NewDevice wraps a caller. SelectCamera (or SetDocument) must run before
// any setting or measurement method.
func NewDevice(rpc Caller) *Device {
	return &Device{rpc: rpc, doc: -1}
}

// SetDocument pins the live-mode document id directly, bypassing discovery.
func (d *Device) SetDocument(doc int) {
	d.doc = doc
}

// Document returns the live-mode document id in use, or -1 before
// selection.
func (d *Device) Document() int {
	return d.doc
}

// CameraInfo describes the camera a Device ended up bound to.
type CameraInfo struct {
	Name string
	Doc  int

	// OpenedLiveMode is true when no usable live-mode document existed and
	// the device opened a fresh one.
	OpenedLiveMode bool
}

// SelectCamera finds a usable camera and binds the device to its live-mode
// document. Existing live-mode documents are preferred; when none drives a
// camera, the first entry of the camera list is opened. Returns ErrNoCamera
// when the endpoint knows of no camera at all.
func (d *Device) SelectCamera(ctx context.Context) (CameraInfo, error) {
	list, err := d.rpc.Call(ctx, MethodLiveModeList)
	if err != nil {
		return CameraInfo{}, err
	}

	for _, entry := range list.Values() {
		name, _ := stringMember(entry, "sName")
		if name == liveModeDisconnected {
			continue
		}
		doc, ok := intMember(entry, "nIdDoc")
		if !ok {
			continue
		}

		cam, err := d.rpc.Call(ctx, MethodGetCurrentCam, doc)
		if err != nil {
			return CameraInfo{}, err
		}
		camName, _ := stringMember(cam, "sName")
		if camName == liveModeVideoStream {
			continue
		}

		d.doc = doc
		return CameraInfo{Name: camName, Doc: doc}, nil
	}

	// no usable live-mode document; open one for the first listed camera
	size, err := d.rpc.Call(ctx, MethodGetCamListSize)
	if err != nil {
		return CameraInfo{}, err
	}
	if n, ok := size.IntVal(); !ok || n == 0 {
		return CameraInfo{}, ErrNoCamera
	}

	item, err := d.rpc.Call(ctx, MethodGetCamListItem, -1, 0)
	if err != nil {
		return CameraInfo{}, err
	}
	high, okHigh := intMember(item, "nIdCamHigh")
	low, okLow := intMember(item, "nIdCamLow")
	if !okHigh || !okLow {
		return CameraInfo{}, fmt.Errorf("%w: malformed camera list entry", ErrUnavailable)
	}
	name, _ := stringMember(item, "sName")

	doc, err := d.rpc.Call(ctx, MethodLiveModeOpen, high, low)
	if err != nil {
		return CameraInfo{}, err
	}
	id, ok := doc.IntVal()
	if !ok {
		return CameraInfo{}, fmt.Errorf("%w: %s returned no document id", ErrUnavailable, MethodLiveModeOpen)
	}

	d.doc = id
	return CameraInfo{Name: name, Doc: id, OpenedLiveMode: true}, nil
}

// Apply pushes a full settings snapshot to the camera. Each quantity is
// switched between automatic and manual first, then given its manual value,
// in a fixed order the endpoint is known to accept.
func (d *Device) Apply(ctx context.Context, s camera.Settings) error {
	if err := d.setAutomatic(ctx, MethodExposureSetAuto, s.ExposureAuto); err != nil {
		return err
	}
	if !s.ExposureAuto {
		if err := d.set(ctx, MethodExposureSet, units.DurationToMicroseconds(s.ExposureTime)); err != nil {
			return err
		}
	}

	if err := d.setAutomatic(ctx, MethodGainSetAuto, s.GainAuto); err != nil {
		return err
	}
	if !s.GainAuto {
		if err := d.set(ctx, MethodGainSet, s.Gain); err != nil {
			return err
		}
	}

	if err := d.setAutomatic(ctx, MethodFrameRateSetAuto, s.FrameRateAuto); err != nil {
		return err
	}
	if !s.FrameRateAuto {
		if err := d.set(ctx, MethodFrameRateSet, s.FrameRate); err != nil {
			return err
		}
	}

	if err := d.set(ctx, MethodPixelClockSet, s.PixelClockReduced); err != nil {
		return err
	}
	if err := d.set(ctx, MethodFlipHSet, s.FlipHorizontal); err != nil {
		return err
	}
	if err := d.set(ctx, MethodFlipVSet, s.FlipVertical); err != nil {
		return err
	}
	return d.set(ctx, MethodRotateSet, int(s.Rotation))
}

// Current reads the camera's live settings.
func (d *Device) Current(ctx context.Context) (camera.Settings, error) {
	var s camera.Settings
	var err error

	if s.ExposureAuto, err = d.getBool(ctx, MethodExposureGetAuto); err != nil {
		return camera.Settings{}, err
	}
	us, err := d.getFloat(ctx, MethodExposureGet)
	if err != nil {
		return camera.Settings{}, err
	}
	s.ExposureTime = units.MicrosecondsToDuration(us)

	if s.GainAuto, err = d.getBool(ctx, MethodGainGetAuto); err != nil {
		return camera.Settings{}, err
	}
	if s.Gain, err = d.getFloat(ctx, MethodGainGet); err != nil {
		return camera.Settings{}, err
	}

	if s.FrameRateAuto, err = d.getBool(ctx, MethodFrameRateGetAuto); err != nil {
		return camera.Settings{}, err
	}
	if s.FrameRate, err = d.getFloat(ctx, MethodFrameRateGet); err != nil {
		return camera.Settings{}, err
	}

	if s.PixelClockReduced, err = d.getBool(ctx, MethodPixelClockGet); err != nil {
		return camera.Settings{}, err
	}
	if s.FlipHorizontal, err = d.getBool(ctx, MethodFlipHGet); err != nil {
		return camera.Settings{}, err
	}
	if s.FlipVertical, err = d.getBool(ctx, MethodFlipVGet); err != nil {
		return camera.Settings{}, err
	}

	rot, err := d.getInt(ctx, MethodRotateGet)
	if err != nil {
		return camera.Settings{}, err
	}
	s.Rotation = camera.Rotation(rot)

	return s, nil
}

// Limits reads the device's supported ranges for the manual quantities.
// Exposure bounds arrive in microseconds and are converted to durations.
func (d *Device) Limits(ctx context.Context) (camera.Limits, error) {
	var l camera.Limits

	lo, hi, err := d.getRange(ctx, MethodExposureRange)
	if err != nil {
		return camera.Limits{}, err
	}
	l.ExposureMin = units.MicrosecondsToDuration(lo)
	l.ExposureMax = units.MicrosecondsToDuration(hi)

	if l.GainMin, l.GainMax, err = d.getRange(ctx, MethodGainRange); err != nil {
		return camera.Limits{}, err
	}
	if l.FrameMin, l.FrameMax, err = d.getRange(ctx, MethodFrameRateRange); err != nil {
		return camera.Limits{}, err
	}
	return l, nil
}

// NewSnapshot captures one frame into a new single measurement and returns
// its id.
func (d *Device) NewSnapshot(ctx context.Context) (int, error) {
	v, err := d.rpc.Call(ctx, MethodNewSnapshot, d.doc)
	if err != nil {
		return 0, err
	}
	id, ok := v.IntVal()
	if !ok {
		return 0, fmt.Errorf("%w: %s returned no measurement id", ErrUnavailable, MethodNewSnapshot)
	}
	return id, nil
}

// FrameData pulls the pixel payload of a single measurement.
func (d *Device) FrameData(ctx context.Context, single int) (FrameData, error) {
	res, err := d.rpc.Call(ctx, MethodDataResolution, single)
	if err != nil {
		return FrameData{}, err
	}
	var fd FrameData
	var ok bool
	if fd.Width, ok = intMember(res, "nWidth"); !ok {
		return FrameData{}, fmt.Errorf("%w: resolution reply missing nWidth", ErrUnavailable)
	}
	if fd.Height, ok = intMember(res, "nHeight"); !ok {
		return FrameData{}, fmt.Errorf("%w: resolution reply missing nHeight", ErrUnavailable)
	}
	if fd.BitsPerPixel, ok = intMember(res, "nBitsPerPixel"); !ok {
		return FrameData{}, fmt.Errorf("%w: resolution reply missing nBitsPerPixel", ErrUnavailable)
	}

	data, err := d.rpc.Call(ctx, MethodDataGet, single)
	if err != nil {
		return FrameData{}, err
	}
	if fd.Data, ok = data.BytesVal(); !ok {
		return FrameData{}, fmt.Errorf("%w: %s returned no payload", ErrUnavailable, MethodDataGet)
	}
	return fd, nil
}

// CloseAll closes every open single measurement without saving.
func (d *Device) CloseAll(ctx context.Context) error {
	_, err := d.rpc.Call(ctx, MethodSingleCloseAll, true)
	return err
}

// FrameData is a raw frame as the endpoint ships it: little-endian uint16
// samples regardless of bit depth.
type FrameData struct {
	Width        int
	Height       int
	BitsPerPixel int
	Data         []byte
}

// Frame decodes the payload into a timestamped frame.
func (fd FrameData) Frame(ts time.Time) (camera.Frame, error) {
	want := 2 * fd.Width * fd.Height
	if fd.Width <= 0 || fd.Height <= 0 || len(fd.Data) != want {
		return camera.Frame{}, fmt.Errorf("frame payload is %d bytes, want %d for %dx%d",
			len(fd.Data), want, fd.Width, fd.Height)
	}

	pix := make([]uint16, fd.Width*fd.Height)
	for i := range pix {
		pix[i] = uint16(fd.Data[2*i]) | uint16(fd.Data[2*i+1])<<8
	}

	f := camera.Frame{
		Width:     fd.Width,
		Height:    fd.Height,
		BitDepth:  fd.BitsPerPixel,
		Pix:       pix,
		Timestamp: ts,
	}
	if err := f.Validate(); err != nil {
		return camera.Frame{}, err
	}
	return f, nil
}

func (d *Device) setAutomatic(ctx context.Context, method string, on bool) error {
	return d.set(ctx, method, on)
}

func (d *Device) set(ctx context.Context, method string, value interface{}) error {
	_, err := d.rpc.Call(ctx, method, d.doc, value)
	return err
}

func (d *Device) getBool(ctx context.Context, method string) (bool, error) {
	v, err := d.rpc.Call(ctx, method, d.doc)
	if err != nil {
		return false, err
	}
	b, ok := v.BoolVal()
	if !ok {
		return false, fmt.Errorf("%w: %s returned no boolean", ErrUnavailable, method)
	}
	return b, nil
}

func (d *Device) getFloat(ctx context.Context, method string) (float64, error) {
	v, err := d.rpc.Call(ctx, method, d.doc)
	if err != nil {
		return 0, err
	}
	f, ok := v.FloatVal()
	if !ok {
		return 0, fmt.Errorf("%w: %s returned no number", ErrUnavailable, method)
	}
	return f, nil
}

func (d *Device) getInt(ctx context.Context, method string) (int, error) {
	v, err := d.rpc.Call(ctx, method, d.doc)
	if err != nil {
		return 0, err
	}
	i, ok := v.IntVal()
	if !ok {
		return 0, fmt.Errorf("%w: %s returned no integer", ErrUnavailable, method)
	}
	return i, nil
}

func (d *Device) getRange(ctx context.Context, method string) (float64, float64, error) {
	v, err := d.rpc.Call(ctx, method, d.doc)
	if err != nil {
		return 0, 0, err
	}
	lo, okLo := floatMember(v, "dMin")
	hi, okHi := floatMember(v, "dMax")
	if !okLo || !okHi {
		return 0, 0, fmt.Errorf("%w: %s returned no range", ErrUnavailable, method)
	}
	return lo, hi, nil
}

func stringMember(v Value, name string) (string, bool) {
	m, ok := v.Member(name)
	if !ok {
		return "", false
	}
	return m.StringVal()
}

func intMember(v Value, name string) (int, bool) {
	m, ok := v.Member(name)
	if !ok {
		return 0, false
	}
	return m.IntVal()
}

func floatMember(v Value, name string) (float64, bool) {
	m, ok := v.Member(name)
	if !ok {
		return 0, false
	}
	return m.FloatVal()
}
