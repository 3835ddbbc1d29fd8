package histogram

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// MinFitBins is the fewest populated bins a fit will run on. Below this the
// three fit parameters are underdetermined.
const MinFitBins = 5

// ErrInsufficientData means the distribution is too concentrated to fit,
// e.g. a flat or fully saturated frame.
var ErrInsufficientData = errors.New("too few populated bins for a stable fit")

// Fit is a Gaussian profile fitted to a histogram's bin counts.
type Fit struct {
	// Mean and StdDev are in intensity levels.
	Mean   float64
	StdDev float64

	// Amplitude is the curve height at the mean, in pixels per bin.
	Amplitude float64

	// Residual is the root mean square difference between the curve and
	// the bin counts, in pixels.
	Residual float64
}

// Eval returns the fitted curve at intensity x.
func (g Fit) Eval(x float64) float64 {
	d := (x - g.Mean) / g.StdDev
	return g.Amplitude * math.Exp(-0.5*d*d)
}

// FitGaussian fits amplitude, mean and width to the bin counts. The start
// point comes from the distribution's weighted moments and is refined with
// Nelder-Mead, so identical histograms always produce identical fits.
func FitGaussian(h Histogram) (Fit, error) {
	populated := h.NonEmptyBins()
	if populated < MinFitBins {
		return Fit{}, fmt.Errorf("%w: %d of %d bins populated, need %d", ErrInsufficientData, populated, len(h.Bins), MinFitBins)
	}

	_, peak := h.Peak()
	peakF := float64(peak)

	// normalise counts to the peak so the optimizer works near unit scale
	centers := make([]float64, len(h.Bins))
	counts := make([]float64, len(h.Bins))
	for i, b := range h.Bins {
		centers[i] = b.Center()
		counts[i] = float64(b.Count) / peakF
	}

	mean := stat.Mean(centers, counts)
	sigma := stat.StdDev(centers, counts)
	if math.IsNaN(sigma) || sigma <= 0 {
		sigma = h.Bins[0].Width()
	}

	objective := func(p []float64) float64 {
		amp, mu, sd := p[0], p[1], p[2]
		if sd <= 0 {
			return math.Inf(1)
		}
		var sum float64
		for i, x := range centers {
			d := (x - mu) / sd
			r := amp*math.Exp(-0.5*d*d) - counts[i]
			sum += r * r
		}
		return sum
	}

	problem := optimize.Problem{Func: objective}
	start := []float64{1, mean, sigma}
	result, err := optimize.Minimize(problem, start, nil, &optimize.NelderMead{})
	if err != nil {
		return Fit{}, fmt.Errorf("fit did not converge: %w", err)
	}

	fit := Fit{
		Mean:      result.X[1],
		StdDev:    math.Abs(result.X[2]),
		Amplitude: result.X[0] * peakF,
	}
	if err := checkFitParams(fit); err != nil {
		return Fit{}, err
	}

	var sum float64
	for i, x := range centers {
		r := fit.Eval(x) - float64(h.Bins[i].Count)
		sum += r * r
	}
	fit.Residual = math.Sqrt(sum / float64(len(centers)))

	return fit, nil
}

// checkFitParams rejects fit parameters downstream consumers cannot use.
// Eval divides by StdDev, so a zero width is as unusable as a non-finite
// value.
func checkFitParams(f Fit) error {
	for _, v := range []float64{f.Mean, f.StdDev, f.Amplitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("fit produced a non-finite parameter (mean %g, stddev %g, amplitude %g)", f.Mean, f.StdDev, f.Amplitude)
		}
	}
	if f.StdDev == 0 {
		return fmt.Errorf("fit width collapsed to zero at mean %g", f.Mean)
	}
	if f.Amplitude <= 0 {
		return fmt.Errorf("fit amplitude %g is not a peak", f.Amplitude)
	}
	return nil
}
