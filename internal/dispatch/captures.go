package dispatch

import (
	"flag"
	"fmt"
	"time"

	"github.com/banshee-data/beam.report/internal/camera"
	"github.com/banshee-data/beam.report/internal/capturelog"
)

// runCaptures lists recent rows from the capture index, newest first.
func runCaptures(args []string, opts *Options) error {
	fs := flag.NewFlagSet("captures", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum number of captures to show")
	index := fs.String("index", "", "capture index path (default from config)")
	helped, err := parseFlags(fs, args, opts)
	if helped || err != nil {
		return err
	}

	if *limit < 1 {
		return fmt.Errorf("%w: -limit must be at least 1, got %d", camera.ErrInvalidParameter, *limit)
	}

	path := *index
	if path == "" {
		path = opts.Config.GetCaptureIndex()
	}
	if path == "" {
		return fmt.Errorf("%w: no capture index configured; set capture_index in the config or pass -index", camera.ErrInvalidParameter)
	}

	db, err := opts.OpenJournal(path)
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := db.Recent(*limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(opts.Stdout, "No captures recorded.")
		return nil
	}

	for _, r := range recs {
		fmt.Fprintf(opts.Stdout, "%s  %s  %dx%d %d-bit  %s\n",
			r.RecordedAt.Format(time.RFC3339), r.Path, r.Width, r.Height, r.BitDepth, settingsColumn(r))
	}
	return nil
}

func settingsColumn(r capturelog.Record) string {
	exposure := "auto exposure"
	if !r.ExposureAuto {
		exposure = fmt.Sprintf("%gms", r.ExposureUS/1000)
	}
	gain := "auto gain"
	if !r.GainAuto {
		gain = fmt.Sprintf("gain %gx", r.Gain)
	}
	col := exposure + " " + gain
	if r.FitMean != nil && r.FitStdDev != nil {
		col += fmt.Sprintf("  fit %.1f/%.1f", *r.FitMean, *r.FitStdDev)
	}
	return col
}
