// Package dispatch routes CLI verbs onto the capture and analysis
// services and maps failures onto stable exit codes for scripting.
package dispatch

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/banshee-data/beam.report/internal/camera"
	"github.com/banshee-data/beam.report/internal/capture"
	"github.com/banshee-data/beam.report/internal/capturelog"
	"github.com/banshee-data/beam.report/internal/config"
	"github.com/banshee-data/beam.report/internal/fsutil"
	"github.com/banshee-data/beam.report/internal/histogram"
	"github.com/banshee-data/beam.report/internal/httputil"
	"github.com/banshee-data/beam.report/internal/rayci"
	"github.com/banshee-data/beam.report/internal/timeutil"
	"github.com/banshee-data/beam.report/internal/version"
)

// Exit codes. Scripts branch on these, so they are part of the CLI
// contract and never change meaning.
const (
	ExitOK               = 0
	ExitError            = 1
	ExitInvalidParam     = 2
	ExitUnavailable      = 3
	ExitRejected         = 4
	ExitNameExhausted    = 5
	ExitInsufficientData = 6
)

// Options carries the resolved configuration and the seams tests use to
// run verbs without a live endpoint or a real filesystem.
type Options struct {
	Config *config.Config
	Stdout io.Writer
	Stderr io.Writer
	FS     fsutil.FileSystem
	Clock  timeutil.Clock

	// Caller overrides the XML-RPC transport. Nil builds a real client
	// for the configured endpoint.
	Caller rayci.Caller

	// OpenJournal overrides how the capture index is opened.
	OpenJournal func(path string) (*capturelog.DB, error)
}

func (o *Options) setDefaults() {
	if o.Config == nil {
		o.Config = config.EmptyConfig()
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.FS == nil {
		o.FS = fsutil.OSFileSystem{}
	}
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	if o.OpenJournal == nil {
		o.OpenJournal = capturelog.Open
	}
}

// Run executes one CLI command and returns its exit code.
func Run(args []string, opts Options) int {
	opts.setDefaults()

	if len(args) < 1 {
		PrintUsage(opts.Stderr)
		return ExitInvalidParam
	}

	command := args[0]
	rest := args[1:]

	var err error
	switch command {
	case "adjust":
		err = runAdjust(rest, &opts)
	case "capture":
		err = runCapture(rest, &opts)
	case "histogram":
		err = runHistogram(rest, &opts)
	case "captures":
		err = runCaptures(rest, &opts)
	case "version":
		fmt.Fprintf(opts.Stdout, "beamctl version %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return ExitOK
	case "help":
		PrintUsage(opts.Stdout)
		return ExitOK
	default:
		fmt.Fprintf(opts.Stderr, "Unknown command: %s\n\n", command)
		PrintUsage(opts.Stderr)
		return ExitInvalidParam
	}

	if err != nil {
		code := exitCode(err)
		fmt.Fprintf(opts.Stderr, "beamctl: error: kind=%s: %v\n", kindLabel(code), err)
		return code
	}
	return ExitOK
}

// kindLabel names the failure class for scripts that parse stderr
// rather than exit codes.
func kindLabel(code int) string {
	switch code {
	case ExitInvalidParam:
		return "invalid_parameter"
	case ExitUnavailable:
		return "remote_unavailable"
	case ExitRejected:
		return "remote_rejected"
	case ExitNameExhausted:
		return "name_generation_exhausted"
	case ExitInsufficientData:
		return "insufficient_data"
	}
	return "error"
}

// exitCode maps an error chain onto the exit code contract. Invalid
// parameters are checked first so a bad value that also mentions a
// remote condition still reads as a usage problem.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, camera.ErrInvalidParameter):
		return ExitInvalidParam
	case errors.Is(err, fs.ErrExist):
		// a -name that points at an existing file is an unusable input
		return ExitInvalidParam
	case errors.Is(err, rayci.ErrRejected):
		return ExitRejected
	case errors.Is(err, rayci.ErrUnavailable):
		return ExitUnavailable
	case errors.Is(err, rayci.ErrNoCamera):
		return ExitUnavailable
	case errors.Is(err, capture.ErrNameExhausted):
		return ExitNameExhausted
	case errors.Is(err, histogram.ErrInsufficientData):
		return ExitInsufficientData
	}
	return ExitError
}

// parseFlags runs fset over args, turning parse failures into invalid
// parameter errors and -h into a clean exit.
func parseFlags(fset *flag.FlagSet, args []string, opts *Options) (helped bool, err error) {
	fset.SetOutput(opts.Stderr)
	if err := fset.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return true, nil
		}
		return false, fmt.Errorf("%w: %v", camera.ErrInvalidParameter, err)
	}
	return false, nil
}

// settingsFlags registers the camera parameter flags on fset and returns
// a collector that picks up only the flags the user actually set. Unset
// parameters stay nil so the camera keeps its current values for them.
func settingsFlags(fset *flag.FlagSet) func() camera.Request {
	vals := map[string]*string{
		"exposure": fset.String("exposure", "", "exposure time in milliseconds, or 'auto'"),
		"gain":     fset.String("gain", "", "gain as a multiplier (2.5) or decibels (8dB), or 'auto'"),
		"fps":      fset.String("fps", "", "frame rate in frames per second, or 'auto'"),
		"clock":    fset.String("clock", "", "reduce the pixel clock: true or false"),
		"fliph":    fset.String("fliph", "", "mirror the image horizontally: true or false"),
		"flipv":    fset.String("flipv", "", "mirror the image vertically: true or false"),
		"rotate":   fset.String("rotate", "", "rotate the image: none, left or right"),
	}

	return func() camera.Request {
		var req camera.Request
		fset.Visit(func(f *flag.Flag) {
			v, ok := vals[f.Name]
			if !ok {
				return
			}
			switch f.Name {
			case "exposure":
				req.Exposure = v
			case "gain":
				req.Gain = v
			case "fps":
				req.FrameRate = v
			case "clock":
				req.PixelClock = v
			case "fliph":
				req.FlipHorizontal = v
			case "flipv":
				req.FlipVertical = v
			case "rotate":
				req.Rotate = v
			}
		})
		return req
	}
}

// connect builds a device bound to the endpoint's current camera.
func connect(ctx context.Context, opts *Options) (*rayci.Device, rayci.CameraInfo, error) {
	rc := opts.Caller
	if rc == nil {
		httpClient := httputil.NewStandardClient(&http.Client{Timeout: opts.Config.GetRequestTimeout()})
		rc = rayci.NewClient(opts.Config.GetEndpoint(), httpClient)
	}
	if retries := opts.Config.GetRetries(); retries > 0 {
		rc = newRetryingCaller(rc, retries)
	}

	dev := rayci.NewDevice(rc)
	info, err := dev.SelectCamera(ctx)
	if err != nil {
		return nil, rayci.CameraInfo{}, err
	}
	return dev, info, nil
}

func (o *Options) newService(dev *rayci.Device) *capture.Service {
	svc := capture.NewService(dev, o.FS, o.Clock)
	svc.NameAttempts = o.Config.GetNameAttempts()
	return svc
}

// PrintUsage writes the full command reference.
func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, `beamctl - beam profiler camera control

Usage: beamctl [global flags] <command> [options]

Commands:
  adjust      Change camera settings and show the resulting state
  capture     Take a snapshot and write it to disk
  histogram   Capture (or load) a frame and analyze its intensity distribution
  captures    List recent captures from the capture index
  version     Show beamctl version
  help        Show this help message

Global Flags:
  -config <file>      JSON configuration file
  -endpoint <url>     XML-RPC control endpoint (default http://localhost:8080/RPC2)
  -retries <n>        Retry transport failures n times with backoff
  -quiet              Suppress diagnostic log output

Camera Flags (adjust, capture, histogram):
  -exposure <ms|auto>   Exposure time in milliseconds
  -gain <mult|auto>     Gain as a multiplier ("2.5", "2.5x") or decibels ("8dB")
  -fps <rate|auto>      Frame rate in frames per second
  -clock <bool>         Reduce the pixel clock
  -fliph <bool>         Mirror the image horizontally
  -flipv <bool>         Mirror the image vertically
  -rotate <dir>         Rotate the image: none, left or right

Output Flags (capture, histogram):
  -dir <path>           Output directory (default from config)
  -name <file>          File name; existing files are never overwritten
  -random               Generate a collision-checked random name (ignores -name)
  -format <png|fits>    Image format when -name carries no extension

Histogram Flags:
  -bins <n>             Number of bins (default 256)
  -input <file>         Analyze an existing PNG instead of capturing
  -no-fit               Skip the gaussian fit
  -render=false         Skip the PNG/HTML plot artifacts

Parameters not given on the command line keep the camera's current
values. Values outside the device's supported range are rejected, never
clamped.

Exit Codes:
  0  success
  2  invalid parameter or usage
  3  control endpoint unreachable
  4  request rejected by the endpoint
  5  could not find a free file name
  6  too little data for a gaussian fit

Examples:
  beamctl adjust -exposure 5 -gain 2
  beamctl capture -exposure auto -dir shots -format fits
  beamctl histogram -name beam.png -bins 128
  beamctl histogram -input shots/beam.png
  beamctl captures -limit 10`)
}
