package dispatch

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/banshee-data/beam.report/internal/camera"
	"github.com/banshee-data/beam.report/internal/units"
)

// runAdjust pushes the requested setting changes and prints the camera's
// resulting state. With no flags it just reads and prints.
func runAdjust(args []string, opts *Options) error {
	fs := flag.NewFlagSet("adjust", flag.ContinueOnError)
	collect := settingsFlags(fs)
	helped, err := parseFlags(fs, args, opts)
	if helped || err != nil {
		return err
	}

	patch, err := camera.ParseRequest(collect())
	if err != nil {
		return err
	}

	ctx := context.Background()
	dev, info, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	settings, err := opts.newService(dev).Adjust(ctx, patch)
	if err != nil {
		return err
	}

	fmt.Fprintf(opts.Stdout, "Camera: %s\n", info.Name)
	printSettings(opts.Stdout, settings)
	return nil
}

func printSettings(w io.Writer, s camera.Settings) {
	fmt.Fprintf(w, "  exposure:    %s\n", exposureLabel(s))
	fmt.Fprintf(w, "  gain:        %s\n", gainLabel(s))
	fmt.Fprintf(w, "  frame rate:  %s\n", frameRateLabel(s))
	fmt.Fprintf(w, "  pixel clock: %s\n", pixelClockLabel(s.PixelClockReduced))
	fmt.Fprintf(w, "  flip:        %s\n", flipLabel(s.FlipHorizontal, s.FlipVertical))
	fmt.Fprintf(w, "  rotation:    %s\n", s.Rotation)
}

func exposureLabel(s camera.Settings) string {
	if s.ExposureAuto {
		return "auto"
	}
	return fmt.Sprintf("%gms", units.DurationToMilliseconds(s.ExposureTime))
}

func gainLabel(s camera.Settings) string {
	if s.GainAuto {
		return "auto"
	}
	return fmt.Sprintf("%gx", s.Gain)
}

func frameRateLabel(s camera.Settings) string {
	if s.FrameRateAuto {
		return "auto"
	}
	return fmt.Sprintf("%g fps", s.FrameRate)
}

func pixelClockLabel(reduced bool) string {
	if reduced {
		return "reduced"
	}
	return "full"
}

func flipLabel(h, v bool) string {
	switch {
	case h && v:
		return "horizontal and vertical"
	case h:
		return "horizontal"
	case v:
		return "vertical"
	}
	return "none"
}
