package dispatch

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/banshee-data/beam.report/internal/camera"
	"github.com/banshee-data/beam.report/internal/capture"
	"github.com/banshee-data/beam.report/internal/histogram"
)

// runHistogram analyzes a frame's intensity distribution. By default it
// captures a fresh frame first; -input analyzes an existing PNG instead.
// The data and plots land next to the image as derived artifacts.
func runHistogram(args []string, opts *Options) error {
	fs := flag.NewFlagSet("histogram", flag.ContinueOnError)
	collect := settingsFlags(fs)
	dir := fs.String("dir", "", "output directory (default from config)")
	name := fs.String("name", "", "output file name; random when empty")
	random := fs.Bool("random", false, "generate a random name even when -name is set")
	format := fs.String("format", "", "image format: png or fits")
	bins := fs.Int("bins", 0, "number of histogram bins (default from config)")
	input := fs.String("input", "", "analyze an existing PNG instead of capturing")
	noFit := fs.Bool("no-fit", false, "skip the gaussian fit")
	render := fs.Bool("render", true, "write plot artifacts next to the data")
	helped, err := parseFlags(fs, args, opts)
	if helped || err != nil {
		return err
	}

	patch, err := camera.ParseRequest(collect())
	if err != nil {
		return err
	}

	binCount := *bins
	if binCount == 0 {
		binCount = opts.Config.GetHistogramBins()
	}

	var frame camera.Frame
	var base string
	var captureID int64
	if *input != "" {
		if !patch.Empty() || *dir != "" || *name != "" || *random || *format != "" {
			return fmt.Errorf("%w: camera and output flags cannot be combined with -input", camera.ErrInvalidParameter)
		}
		frame, err = capture.LoadFrame(opts.FS, *input)
		if err != nil {
			return err
		}
		base = strings.TrimSuffix(*input, filepath.Ext(*input))
	} else {
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
		captureID = recordCapture(opts, info, res)

		frame = res.Frame
		base = strings.TrimSuffix(res.Path, filepath.Ext(res.Path))
	}

	h, err := histogram.Build(frame, binCount)
	if err != nil {
		return err
	}

	// A failed fit still gets its histogram artifacts written; the data
	// is good even when it is too sparse for a stable gaussian.
	var fit *histogram.Fit
	var fitErr error
	if !*noFit {
		f, err := histogram.FitGaussian(h)
		if err != nil {
			fitErr = err
		} else {
			fit = &f
		}
	}
	if fit != nil && captureID != 0 {
		recordFit(opts, captureID, *fit)
	}

	if err := writeArtifacts(opts, base, h, fit, *render); err != nil {
		return err
	}
	printHistogramSummary(opts.Stdout, h, fit)
	return fitErr
}

// recordFit attaches the fit summary to a journaled capture row, with
// the same best effort policy as recordCapture.
func recordFit(opts *Options, id int64, fit histogram.Fit) {
	db, err := opts.OpenJournal(opts.Config.GetCaptureIndex())
	if err != nil {
		fmt.Fprintf(opts.Stderr, "Warning: capture index unavailable: %v\n", err)
		return
	}
	defer db.Close()

	if err := db.SetFitSummary(id, fit.Mean, fit.StdDev, fit.Amplitude); err != nil {
		fmt.Fprintf(opts.Stderr, "Warning: failed to record fit: %v\n", err)
	}
}

// writeArtifacts writes the bin counts as CSV beside the image, plus PNG
// and HTML plots when rendering is on. Derived artifacts are regenerated
// freely; only captures themselves are never overwritten.
func writeArtifacts(opts *Options, base string, h histogram.Histogram, fit *histogram.Fit, render bool) error {
	var buf bytes.Buffer
	if err := histogram.WriteCSV(&buf, h, fit); err != nil {
		return err
	}
	csvPath := base + "-histogram.csv"
	if err := opts.FS.WriteFile(csvPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", csvPath, err)
	}
	fmt.Fprintln(opts.Stdout, csvPath)

	if !render {
		return nil
	}

	pngData, err := histogram.RenderPNG(h, fit)
	if err != nil {
		return err
	}
	pngPath := base + "-histogram.png"
	if err := opts.FS.WriteFile(pngPath, pngData, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", pngPath, err)
	}
	fmt.Fprintln(opts.Stdout, pngPath)

	htmlData, err := histogram.RenderHTML(h, fit, filepath.Base(base))
	if err != nil {
		return err
	}
	htmlPath := base + "-histogram.html"
	if err := opts.FS.WriteFile(htmlPath, htmlData, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", htmlPath, err)
	}
	fmt.Fprintln(opts.Stdout, htmlPath)
	return nil
}

func printHistogramSummary(w io.Writer, h histogram.Histogram, fit *histogram.Fit) {
	idx, peak := h.Peak()
	fmt.Fprintf(w, "Histogram: %d pixels in %d bins, peak %d at [%g, %g)\n",
		h.PixelCount(), len(h.Bins), peak, h.Bins[idx].Lo, h.Bins[idx].Hi)
	if fit != nil {
		fmt.Fprintf(w, "Gaussian fit: mean %.1f, stddev %.1f, amplitude %.1f (rms %.2f)\n",
			fit.Mean, fit.StdDev, fit.Amplitude, fit.Residual)
	}
}
