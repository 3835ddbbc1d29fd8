package histogram

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"image/color"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/beam.report/internal/units"
)

// WriteCSV writes one row per bin: lower edge, upper edge, pixel count.
// A non-nil fit appends its parameters as a footer, padded to the same
// field count so the file stays readable with a strict CSV reader.
func WriteCSV(w io.Writer, h Histogram, fit *Fit) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"bin_lo", "bin_hi", "count"}); err != nil {
		return err
	}
	for _, b := range h.Bins {
		row := []string{
			strconv.FormatFloat(b.Lo, 'f', -1, 64),
			strconv.FormatFloat(b.Hi, 'f', -1, 64),
			strconv.Itoa(b.Count),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	if fit != nil {
		footer := [][]string{
			{"fit_mean", strconv.FormatFloat(fit.Mean, 'f', -1, 64), ""},
			{"fit_stddev", strconv.FormatFloat(fit.StdDev, 'f', -1, 64), ""},
			{"fit_amplitude", strconv.FormatFloat(fit.Amplitude, 'f', -1, 64), ""},
			{"fit_residual", strconv.FormatFloat(fit.Residual, 'f', -1, 64), ""},
		}
		for _, row := range footer {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderPNG draws the distribution as a line over the full intensity range,
// with the fitted profile overlaid when fit is non-nil.
func RenderPNG(h Histogram, fit *Fit) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "Intensity distribution"
	p.X.Label.Text = fmt.Sprintf("Intensity (%d bit)", h.BitDepth)
	p.Y.Label.Text = "Pixels"
	p.X.Min = 0
	p.X.Max = float64(units.IntensityLevels(h.BitDepth))

	pts := make(plotter.XYs, len(h.Bins))
	for i, b := range h.Bins {
		pts[i] = plotter.XY{X: b.Center(), Y: float64(b.Count)}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("histogram line: %w", err)
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("counts", line)

	if fit != nil {
		curve := plotter.NewFunction(fit.Eval)
		curve.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
		curve.Width = vg.Points(1)
		curve.Samples = 200
		p.Add(curve)
		p.Legend.Add(fmt.Sprintf("fit mean=%.1f sd=%.1f", fit.Mean, fit.StdDev), curve)
	}

	p.Legend.Top = true
	p.Legend.Left = false

	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("render histogram: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode histogram: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderHTML builds a self-contained interactive page with the bin counts
// as bars and the fitted profile as an overlaid line.
func RenderHTML(h Histogram, fit *Fit, title string) ([]byte, error) {
	x := make([]string, len(h.Bins))
	counts := make([]opts.BarData, len(h.Bins))
	for i, b := range h.Bins {
		x[i] = strconv.Itoa(int(b.Lo))
		counts[i] = opts.BarData{Value: b.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d bins over %d intensity levels", len(h.Bins), units.IntensityLevels(h.BitDepth)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("pixels", counts)

	if fit != nil {
		curve := make([]opts.LineData, len(h.Bins))
		for i, b := range h.Bins {
			curve[i] = opts.LineData{Value: fit.Eval(b.Center())}
		}
		line := charts.NewLine()
		line.SetXAxis(x).AddSeries("gaussian fit", curve)
		bar.Overlap(line)
	}

	page := components.NewPage()
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("render chart page: %w", err)
	}
	return buf.Bytes(), nil
}
