package dispatch

import (
	"context"
	"flag"
	"fmt"

	"github.com/banshee-data/beam.report/internal/camera"
	"github.com/banshee-data/beam.report/internal/capture"
	"github.com/banshee-data/beam.report/internal/capturelog"
	"github.com/banshee-data/beam.report/internal/config"
	"github.com/banshee-data/beam.report/internal/rayci"
)

// runCapture applies any setting flags, takes a snapshot and prints the
// path the image landed at.
func runCapture(args []string, opts *Options) error {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	collect := settingsFlags(fs)
	dir := fs.String("dir", "", "output directory (default from config)")
	name := fs.String("name", "", "output file name; random when empty")
	random := fs.Bool("random", false, "generate a random name even when -name is set")
	format := fs.String("format", "", "image format: png or fits")
	helped, err := parseFlags(fs, args, opts)
	if helped || err != nil {
		return err
	}

	patch, err := camera.ParseRequest(collect())
	if err != nil {
		return err
	}
	req := captureRequest(opts.Config, *dir, *name, *format, *random)

	ctx := context.Background()
	dev, info, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	res, err := opts.newService(dev).Capture(ctx, patch, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(opts.Stdout, res.Path)
	recordCapture(opts, info, res)
	return nil
}

// captureRequest fills unset output flags from the configuration. A
// -name extension still beats the format, so `-name beam.fits` wins over
// a png default.
func captureRequest(cfg *config.Config, dir, name, format string, random bool) capture.Request {
	if dir == "" {
		dir = cfg.GetOutputDir()
	}
	if format == "" {
		format = cfg.GetDefaultFormat().String()
	}
	return capture.Request{Directory: dir, Name: name, RandomName: random, Format: format}
}

// recordCapture journals the shot when a capture index is configured.
// Journal trouble never fails the capture; the image is already on disk.
// The returned row id is 0 when nothing was recorded.
func recordCapture(opts *Options, info rayci.CameraInfo, res capture.Result) int64 {
	path := opts.Config.GetCaptureIndex()
	if path == "" {
		return 0
	}

	db, err := opts.OpenJournal(path)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "Warning: capture index unavailable: %v\n", err)
		return 0
	}
	defer db.Close()

	id, err := db.RecordCapture(capturelog.NewRecord(res.Path, info.Name, res.Frame, res.Settings))
	if err != nil {
		fmt.Fprintf(opts.Stderr, "Warning: failed to record capture: %v\n", err)
		return 0
	}
	return id
}
