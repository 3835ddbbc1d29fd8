package dispatch

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/beam.report/internal/camera"
	"github.com/banshee-data/beam.report/internal/capture"
	"github.com/banshee-data/beam.report/internal/capturelog"
	"github.com/banshee-data/beam.report/internal/config"
	"github.com/banshee-data/beam.report/internal/fsutil"
	"github.com/banshee-data/beam.report/internal/rayci"
	"github.com/banshee-data/beam.report/internal/testutil"
	"github.com/banshee-data/beam.report/internal/timeutil"
)

var testCaptureTime = time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)

type runEnv struct {
	mock   *rayci.Mock
	fs     *fsutil.MemoryFileSystem
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	cfg    *config.Config
}

func newRunEnv() *runEnv {
	return &runEnv{
		mock:   rayci.NewMock(),
		fs:     fsutil.NewMemoryFileSystem(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		cfg:    config.EmptyConfig(),
	}
}

func (e *runEnv) run(args ...string) int {
	return Run(args, Options{
		Config: e.cfg,
		Stdout: e.stdout,
		Stderr: e.stderr,
		FS:     e.fs,
		Clock:  timeutil.NewMockClock(testCaptureTime),
		Caller: e.mock,
	})
}

func (e *runEnv) readFile(t *testing.T, path string) []byte {
	t.Helper()
	f, err := e.fs.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func stubSelect(m *rayci.Mock) {
	m.Stub(rayci.MethodLiveModeList, rayci.ArrayValue(
		rayci.StructValue(map[string]rayci.Value{
			"sName":  rayci.StringValue("cam live"),
			"nIdDoc": rayci.IntValue(3),
		}),
	))
	m.Stub(rayci.MethodGetCurrentCam, rayci.StructValue(map[string]rayci.Value{
		"sName": rayci.StringValue("WinCamD"),
	}))
}

func stubCurrentSettings(m *rayci.Mock) {
	m.Stub(rayci.MethodExposureGetAuto, rayci.BoolValue(false))
	m.Stub(rayci.MethodExposureGet, rayci.DoubleValue(5000))
	m.Stub(rayci.MethodGainGetAuto, rayci.BoolValue(false))
	m.Stub(rayci.MethodGainGet, rayci.DoubleValue(2))
	m.Stub(rayci.MethodFrameRateGetAuto, rayci.BoolValue(false))
	m.Stub(rayci.MethodFrameRateGet, rayci.DoubleValue(10))
	m.Stub(rayci.MethodPixelClockGet, rayci.BoolValue(false))
	m.Stub(rayci.MethodFlipHGet, rayci.BoolValue(false))
	m.Stub(rayci.MethodFlipVGet, rayci.BoolValue(false))
	m.Stub(rayci.MethodRotateGet, rayci.IntValue(0))
}

func stubLimits(m *rayci.Mock) {
	stubRange := func(method string, lo, hi float64) {
		m.Stub(method, rayci.StructValue(map[string]rayci.Value{
			"dMin": rayci.DoubleValue(lo),
			"dMax": rayci.DoubleValue(hi),
		}))
	}
	stubRange(rayci.MethodExposureRange, 40, 2e6)
	stubRange(rayci.MethodGainRange, 1, 16)
	stubRange(rayci.MethodFrameRateRange, 1, 14)
}

func frameBytes(pix []uint16) []byte {
	b := make([]byte, 2*len(pix))
	for i, v := range pix {
		b[2*i] = byte(v)
		b[2*i+1] = byte(v >> 8)
	}
	return b
}

func stubFrame(m *rayci.Mock, w, h, depth int, pix []uint16) {
	m.Stub(rayci.MethodNewSnapshot, rayci.IntValue(12))
	m.Stub(rayci.MethodDataResolution, rayci.StructValue(map[string]rayci.Value{
		"nWidth":        rayci.IntValue(w),
		"nHeight":       rayci.IntValue(h),
		"nBitsPerPixel": rayci.IntValue(depth),
	}))
	m.Stub(rayci.MethodDataGet, rayci.Base64Value(frameBytes(pix)))
}

func stubCaptureFlow(m *rayci.Mock) {
	stubSelect(m)
	stubCurrentSettings(m)
	stubFrame(m, 2, 2, 12, []uint16{100, 200, 300, 400})
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func TestRunCaptureWritesImage(t *testing.T) {
	e := newRunEnv()
	stubCaptureFlow(e.mock)

	code := e.run("capture", "-dir", "shots")
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitOK, e.stderr)
	}

	path := firstLine(e.stdout.String())
	if filepath.Dir(path) != "shots" || !strings.HasSuffix(path, ".png") {
		t.Errorf("unexpected capture path %q", path)
	}
	if !e.fs.Exists(path) {
		t.Errorf("capture file %s does not exist", path)
	}
	if n := e.mock.CallCount(); n == 0 {
		t.Error("expected RPC traffic for a capture")
	}
	if got := e.mock.CallsFor(rayci.MethodSingleCloseAll); got != 1 {
		t.Errorf("closeAll called %d times, want 1", got)
	}
}

func TestRunCaptureWithSettingsFlags(t *testing.T) {
	e := newRunEnv()
	stubSelect(e.mock)
	stubCurrentSettings(e.mock)
	stubLimits(e.mock)
	stubFrame(e.mock, 2, 2, 12, []uint16{1, 2, 3, 4})

	code := e.run("capture", "-exposure", "8", "-dir", "shots")
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitOK, e.stderr)
	}

	sets := e.mock.ArgsFor(rayci.MethodExposureSet)
	if len(sets) != 1 {
		t.Fatalf("exposure set %d times, want 1", len(sets))
	}
	if diff := cmp.Diff([]interface{}{3, 8000.0}, sets[0]); diff != "" {
		t.Errorf("exposure set args mismatch (-want +got):\n%s", diff)
	}
	// Unchanged parameters are pushed back at their current values.
	gains := e.mock.ArgsFor(rayci.MethodGainSet)
	if len(gains) != 1 {
		t.Fatalf("gain set %d times, want 1", len(gains))
	}
	if diff := cmp.Diff([]interface{}{3, 2.0}, gains[0]); diff != "" {
		t.Errorf("gain set args mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCaptureFITSFormat(t *testing.T) {
	e := newRunEnv()
	stubCaptureFlow(e.mock)

	code := e.run("capture", "-dir", "shots", "-format", "fits")
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitOK, e.stderr)
	}

	path := firstLine(e.stdout.String())
	if !strings.HasSuffix(path, ".fits") {
		t.Fatalf("expected a .fits path, got %q", path)
	}
	if data := e.readFile(t, path); !bytes.HasPrefix(data, []byte("SIMPLE")) {
		t.Error("FITS file does not start with a SIMPLE card")
	}
}

func TestRunCaptureNoOverwrite(t *testing.T) {
	e := newRunEnv()
	dir := t.TempDir()

	stubCaptureFlow(e.mock)
	if code := e.run("capture", "-dir", dir, "-name", "beam.png"); code != ExitOK {
		t.Fatalf("first capture exit code = %d (stderr: %s)", code, e.stderr)
	}

	stubCaptureFlow(e.mock)
	e.stdout.Reset()
	code := e.run("capture", "-dir", dir, "-name", "beam.png")
	if code != ExitInvalidParam {
		t.Fatalf("second capture exit code = %d, want %d", code, ExitInvalidParam)
	}
	if !strings.Contains(e.stderr.String(), "refusing to overwrite") {
		t.Errorf("stderr %q does not explain the collision", e.stderr.String())
	}
}

func TestRunCaptureRandomIgnoresName(t *testing.T) {
	e := newRunEnv()
	stubCaptureFlow(e.mock)

	code := e.run("capture", "-dir", "shots", "-name", "beam.png", "-random")
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitOK, e.stderr)
	}
	path := firstLine(e.stdout.String())
	if filepath.Base(path) == "beam.png" {
		t.Errorf("random capture used the explicit name %q", path)
	}
	if !e.fs.Exists(path) {
		t.Errorf("no file at %s", path)
	}
}

func TestRunCaptureInvalidValueBeforeAnyCall(t *testing.T) {
	e := newRunEnv()

	code := e.run("capture", "-exposure", "banana")
	if code != ExitInvalidParam {
		t.Fatalf("exit code = %d, want %d", code, ExitInvalidParam)
	}
	if n := e.mock.CallCount(); n != 0 {
		t.Errorf("invalid value still made %d RPC calls", n)
	}
}

func TestRunAdjustPrintsSettings(t *testing.T) {
	e := newRunEnv()
	stubSelect(e.mock)
	stubCurrentSettings(e.mock)

	code := e.run("adjust")
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitOK, e.stderr)
	}

	out := e.stdout.String()
	for _, want := range []string{"Camera: WinCamD", "exposure:    5ms", "gain:        2x", "frame rate:  10 fps", "rotation:    none"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}

	// A bare adjust only reads; nothing is pushed and no ranges are
	// queried.
	if n := e.mock.CallsFor(rayci.MethodExposureSet); n != 0 {
		t.Errorf("bare adjust pushed exposure %d times", n)
	}
	if n := e.mock.CallsFor(rayci.MethodExposureRange); n != 0 {
		t.Errorf("bare adjust queried limits %d times", n)
	}
}

func TestRunAdjustUnknownFlag(t *testing.T) {
	e := newRunEnv()

	code := e.run("adjust", "-bogus")
	if code != ExitInvalidParam {
		t.Fatalf("exit code = %d, want %d", code, ExitInvalidParam)
	}
	if n := e.mock.CallCount(); n != 0 {
		t.Errorf("unknown flag still made %d RPC calls", n)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	e := newRunEnv()

	code := e.run("frobnicate")
	if code != ExitInvalidParam {
		t.Fatalf("exit code = %d, want %d", code, ExitInvalidParam)
	}
	if !strings.Contains(e.stderr.String(), "Unknown command") {
		t.Errorf("stderr %q does not name the problem", firstLine(e.stderr.String()))
	}
}

func TestRunNoArgs(t *testing.T) {
	e := newRunEnv()

	code := e.run()
	if code != ExitInvalidParam {
		t.Fatalf("exit code = %d, want %d", code, ExitInvalidParam)
	}
	if !strings.Contains(e.stderr.String(), "Usage:") {
		t.Error("expected usage on stderr")
	}
}

func TestRunVersionAndHelp(t *testing.T) {
	e := newRunEnv()
	if code := e.run("version"); code != ExitOK {
		t.Fatalf("version exit code = %d", code)
	}
	if !strings.Contains(e.stdout.String(), "beamctl version") {
		t.Errorf("version output %q", e.stdout.String())
	}
	if !strings.Contains(e.stdout.String(), "built ") {
		t.Errorf("version output %q missing build time", e.stdout.String())
	}

	e.stdout.Reset()
	if code := e.run("help"); code != ExitOK {
		t.Fatalf("help exit code = %d", code)
	}
	if !strings.Contains(e.stdout.String(), "Usage:") {
		t.Error("help output missing usage")
	}
	if n := e.mock.CallCount(); n != 0 {
		t.Errorf("version/help made %d RPC calls", n)
	}
}

func TestRunExitUnavailable(t *testing.T) {
	e := newRunEnv()
	e.mock.StubErr(rayci.MethodLiveModeList, fmt.Errorf("%w: connection refused", rayci.ErrUnavailable))

	code := e.run("capture")
	if code != ExitUnavailable {
		t.Fatalf("exit code = %d, want %d", code, ExitUnavailable)
	}
}

func TestRunExitRejected(t *testing.T) {
	e := newRunEnv()
	stubSelect(e.mock)
	stubCurrentSettings(e.mock)
	e.mock.StubErr(rayci.MethodNewSnapshot, &rayci.Fault{
		Method:  rayci.MethodNewSnapshot,
		Code:    2,
		Message: "camera is busy",
	})

	code := e.run("capture", "-dir", "shots")
	if code != ExitRejected {
		t.Fatalf("exit code = %d, want %d", code, ExitRejected)
	}
	if !strings.Contains(e.stderr.String(), "camera is busy") {
		t.Errorf("stderr %q does not carry the fault message", e.stderr.String())
	}
	if !strings.HasPrefix(e.stderr.String(), "beamctl: error: kind=remote_rejected:") {
		t.Errorf("stderr %q does not lead with the error kind", firstLine(e.stderr.String()))
	}
}

func TestRunHistogramOfflineInput(t *testing.T) {
	e := newRunEnv()

	pix := testutil.GaussianPixels(32, 32, 8, 128, 20, 42)
	frame := camera.Frame{Width: 32, Height: 32, BitDepth: 8, Pix: pix}
	data, err := capture.EncodeFrame(frame, capture.FormatPNG)
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	if err := e.fs.WriteFile("shots/beam.png", data, 0o644); err != nil {
		t.Fatalf("seed png: %v", err)
	}

	code := e.run("histogram", "-input", "shots/beam.png", "-bins", "64")
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitOK, e.stderr)
	}

	for _, artifact := range []string{"shots/beam-histogram.csv", "shots/beam-histogram.png", "shots/beam-histogram.html"} {
		if !e.fs.Exists(artifact) {
			t.Errorf("artifact %s was not written", artifact)
		}
	}
	if !strings.Contains(e.stdout.String(), "Gaussian fit: mean") {
		t.Errorf("stdout missing fit summary:\n%s", e.stdout.String())
	}
	if n := e.mock.CallCount(); n != 0 {
		t.Errorf("offline analysis made %d RPC calls", n)
	}
}

func TestRunHistogramInsufficientData(t *testing.T) {
	e := newRunEnv()

	frame := camera.Frame{Width: 8, Height: 8, BitDepth: 8, Pix: testutil.FlatPixels(8, 8, 7)}
	data, err := capture.EncodeFrame(frame, capture.FormatPNG)
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	if err := e.fs.WriteFile("flat.png", data, 0o644); err != nil {
		t.Fatalf("seed png: %v", err)
	}

	code := e.run("histogram", "-input", "flat.png", "-bins", "64")
	if code != ExitInsufficientData {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitInsufficientData, e.stderr)
	}
	// The distribution itself is still usable and written out.
	if !e.fs.Exists("flat-histogram.csv") {
		t.Error("histogram CSV missing after failed fit")
	}
}

func TestRunHistogramInputConflicts(t *testing.T) {
	e := newRunEnv()

	code := e.run("histogram", "-input", "beam.png", "-exposure", "5")
	if code != ExitInvalidParam {
		t.Fatalf("exit code = %d, want %d", code, ExitInvalidParam)
	}
	if n := e.mock.CallCount(); n != 0 {
		t.Errorf("conflicting flags still made %d RPC calls", n)
	}
}

func TestRunHistogramCaptureFlow(t *testing.T) {
	e := newRunEnv()
	stubSelect(e.mock)
	stubCurrentSettings(e.mock)
	pix := testutil.GaussianPixels(32, 32, 8, 128, 20, 7)
	stubFrame(e.mock, 32, 32, 8, pix)

	code := e.run("histogram", "-dir", "shots", "-bins", "64")
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitOK, e.stderr)
	}

	path := firstLine(e.stdout.String())
	if !strings.HasSuffix(path, ".png") {
		t.Fatalf("expected image path first, got %q", path)
	}
	base := strings.TrimSuffix(path, ".png")
	for _, artifact := range []string{path, base + "-histogram.csv", base + "-histogram.png", base + "-histogram.html"} {
		if !e.fs.Exists(artifact) {
			t.Errorf("expected %s to exist", artifact)
		}
	}
}

// Full pipeline: settings pushed to the device, named capture written,
// 256-bin histogram with a fit, every pixel accounted for.
func TestRunHistogramFullPipeline(t *testing.T) {
	e := newRunEnv()
	stubSelect(e.mock)
	stubCurrentSettings(e.mock)
	stubLimits(e.mock)
	stubFrame(e.mock, 32, 32, 8, testutil.GaussianPixels(32, 32, 8, 128, 20, 11))

	dir := t.TempDir()
	code := e.run("histogram", "-exposure", "5", "-gain", "10", "-dir", dir, "-name", "beam.png", "-bins", "256")
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitOK, e.stderr)
	}

	wireValue := func(method string) interface{} {
		t.Helper()
		calls := e.mock.ArgsFor(method)
		if len(calls) == 0 || len(calls[0]) < 2 {
			t.Fatalf("%s never called with a value", method)
		}
		return calls[0][1]
	}
	if got := wireValue(rayci.MethodExposureSet); got != float64(5000) {
		t.Errorf("exposure on the wire = %v, want 5000 microseconds", got)
	}
	if got := wireValue(rayci.MethodGainSet); got != float64(10) {
		t.Errorf("gain on the wire = %v, want 10", got)
	}
	if got := wireValue(rayci.MethodRotateSet); got != 0 {
		t.Errorf("rotation on the wire = %v, want 0", got)
	}

	if !e.fs.Exists(filepath.Join(dir, "beam.png")) {
		t.Fatal("named capture missing")
	}

	rows, err := csv.NewReader(bytes.NewReader(e.readFile(t, filepath.Join(dir, "beam-histogram.csv")))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	total, bins := 0, 0
	for _, row := range rows[1:] {
		if strings.HasPrefix(row[0], "fit_") {
			continue
		}
		n, err := strconv.Atoi(row[2])
		if err != nil {
			t.Fatalf("bad count %q: %v", row[2], err)
		}
		total += n
		bins++
	}
	if bins != 256 {
		t.Errorf("csv has %d bins, want 256", bins)
	}
	if total != 32*32 {
		t.Errorf("bin counts sum to %d, want %d", total, 32*32)
	}
	if !strings.Contains(e.stdout.String(), "Gaussian fit: mean") {
		t.Errorf("fit summary missing from output:\n%s", e.stdout.String())
	}
}

func TestRunHistogramNoRender(t *testing.T) {
	e := newRunEnv()

	frame := camera.Frame{Width: 32, Height: 32, BitDepth: 8, Pix: testutil.GaussianPixels(32, 32, 8, 128, 20, 3)}
	data, err := capture.EncodeFrame(frame, capture.FormatPNG)
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	if err := e.fs.WriteFile("beam.png", data, 0o644); err != nil {
		t.Fatalf("seed png: %v", err)
	}

	code := e.run("histogram", "-input", "beam.png", "-render=false", "-no-fit")
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitOK, e.stderr)
	}
	if !e.fs.Exists("beam-histogram.csv") {
		t.Error("CSV artifact missing")
	}
	if e.fs.Exists("beam-histogram.png") || e.fs.Exists("beam-histogram.html") {
		t.Error("plot artifacts written despite -render=false")
	}
}

func TestRunCapturesListsJournal(t *testing.T) {
	e := newRunEnv()
	index := filepath.Join(t.TempDir(), "index.db")
	e.cfg.CaptureIndex = &index

	stubCaptureFlow(e.mock)
	if code := e.run("capture", "-dir", "shots"); code != ExitOK {
		t.Fatalf("capture exit code = %d (stderr: %s)", code, e.stderr)
	}
	imagePath := firstLine(e.stdout.String())

	e.stdout.Reset()
	if code := e.run("captures"); code != ExitOK {
		t.Fatalf("captures exit code = %d (stderr: %s)", code, e.stderr)
	}
	out := e.stdout.String()
	if !strings.Contains(out, imagePath) {
		t.Errorf("listing %q misses the recorded capture %q", out, imagePath)
	}
	if !strings.Contains(out, "WinCamD") && !strings.Contains(out, "5ms") {
		t.Errorf("listing %q misses the capture settings", out)
	}
}

func TestRunHistogramRecordsFit(t *testing.T) {
	e := newRunEnv()
	index := filepath.Join(t.TempDir(), "index.db")
	e.cfg.CaptureIndex = &index

	stubSelect(e.mock)
	stubCurrentSettings(e.mock)
	stubFrame(e.mock, 32, 32, 8, testutil.GaussianPixels(32, 32, 8, 128, 20, 7))
	if code := e.run("histogram", "-dir", "shots", "-bins", "64"); code != ExitOK {
		t.Fatalf("histogram exit code = %d (stderr: %s)", code, e.stderr)
	}

	e.stdout.Reset()
	if code := e.run("captures"); code != ExitOK {
		t.Fatalf("captures exit code = %d (stderr: %s)", code, e.stderr)
	}
	if !strings.Contains(e.stdout.String(), "fit 1") {
		t.Errorf("listing %q misses the fit summary", e.stdout.String())
	}
}

func TestRunCapturesWithoutIndex(t *testing.T) {
	e := newRunEnv()

	code := e.run("captures")
	if code != ExitInvalidParam {
		t.Fatalf("exit code = %d, want %d", code, ExitInvalidParam)
	}
	if !strings.Contains(e.stderr.String(), "capture index") {
		t.Errorf("stderr %q does not explain the missing index", e.stderr.String())
	}
}

func TestRunCaptureJournalFailureIsBestEffort(t *testing.T) {
	e := newRunEnv()
	index := "/nowhere/index.db"
	e.cfg.CaptureIndex = &index
	stubCaptureFlow(e.mock)

	code := Run([]string{"capture", "-dir", "shots"}, Options{
		Config: e.cfg,
		Stdout: e.stdout,
		Stderr: e.stderr,
		FS:     e.fs,
		Clock:  timeutil.NewMockClock(testCaptureTime),
		Caller: e.mock,
		OpenJournal: func(path string) (*capturelog.DB, error) {
			return nil, fmt.Errorf("disk on fire")
		},
	})
	if code != ExitOK {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitOK, e.stderr)
	}
	if !strings.Contains(e.stderr.String(), "capture index unavailable") {
		t.Errorf("stderr %q misses the journal warning", e.stderr.String())
	}
	if !e.fs.Exists(firstLine(e.stdout.String())) {
		t.Error("capture file missing despite journal-only failure")
	}
}

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"invalid", fmt.Errorf("bad: %w", camera.ErrInvalidParameter), ExitInvalidParam},
		{"unavailable", fmt.Errorf("down: %w", rayci.ErrUnavailable), ExitUnavailable},
		{"no camera", rayci.ErrNoCamera, ExitUnavailable},
		{"rejected", &rayci.Fault{Method: "m", Code: 1, Message: "no"}, ExitRejected},
		{"name exhausted", &capture.NameExhaustedError{Dir: "d", Attempts: 3}, ExitNameExhausted},
		{"other", fmt.Errorf("boom"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestKindLabels(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{ExitError, "error"},
		{ExitInvalidParam, "invalid_parameter"},
		{ExitUnavailable, "remote_unavailable"},
		{ExitRejected, "remote_rejected"},
		{ExitNameExhausted, "name_generation_exhausted"},
		{ExitInsufficientData, "insufficient_data"},
	}
	for _, tt := range tests {
		if got := kindLabel(tt.code); got != tt.want {
			t.Errorf("kindLabel(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
