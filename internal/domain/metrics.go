package domain

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/interp"
)

// minCubicSamples is the smallest series a not-a-knot cubic spline can be fitted to.
const minCubicSamples = 4

// Sample is a single hydrograph reading.
type Sample struct {
	Time float64 // seconds since the start of the event
	Flow float64 // m³/s, or the water level for lakes
}

// Metrics is the result of integrating a sample series.
type Metrics struct {
	Peak   float64
	Volume int64

	// Interpolation is the interpolant actually used, which may be linear even
	// when cubic was requested.
	Interpolation Interpolation
}

// ComputeMetrics returns the peak flow and the integrated volume of series.
// The series must hold at least two samples with strictly increasing, finite,
// non-negative times and finite, non-negative flows. series is not modified.
func ComputeMetrics(series []Sample, kind Interpolation) (Metrics, error) {
	if err := ValidateSeries(series); err != nil {
		return Metrics{}, err
	}

	times := make([]float64, len(series))
	flows := make([]float64, len(series))
	for i, s := range series {
		times[i] = s.Time
		flows[i] = s.Flow
	}

	if kind == InterpolationCubic && len(series) < minCubicSamples {
		kind = InterpolationLinear
	}

	predictor, err := fitInterpolant(kind, times, flows)
	if err != nil {
		return Metrics{}, err
	}

	volume := math.RoundToEven(integratePiecewise(predictor, times))
	if math.IsNaN(volume) || volume >= float64(math.MaxInt64) || volume < float64(math.MinInt64) {
		return Metrics{}, &InvalidInputError{Index: -1, Reason: fmt.Sprintf("volume %v does not fit in int64", volume)}
	}

	return Metrics{
		Peak:          floats.Max(flows),
		Volume:        int64(volume),
		Interpolation: kind,
	}, nil
}

// ValidateSeries reports the first reason series cannot be integrated.
func ValidateSeries(series []Sample) error {
	if len(series) < 2 {
		return &InvalidInputError{Index: -1, Reason: fmt.Sprintf("need at least 2 samples, got %d", len(series))}
	}
	for i, s := range series {
		if math.IsNaN(s.Time) || math.IsInf(s.Time, 0) || s.Time < 0 {
			return &InvalidInputError{Index: i, Reason: fmt.Sprintf("time %v is not a finite non-negative number", s.Time)}
		}
		if math.IsNaN(s.Flow) || math.IsInf(s.Flow, 0) || s.Flow < 0 {
			return &InvalidInputError{Index: i, Reason: fmt.Sprintf("flow %v is not a finite non-negative number", s.Flow)}
		}
		if i > 0 && s.Time <= series[i-1].Time {
			return &InvalidInputError{Index: i, Reason: fmt.Sprintf("time %v does not increase after %v", s.Time, series[i-1].Time)}
		}
	}
	return nil
}

// SortByTime returns a copy of series ordered by ascending time.
func SortByTime(series []Sample) []Sample {
	sorted := slices.Clone(series)
	slices.SortStableFunc(sorted, func(a, b Sample) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		default:
			return 0
		}
	})
	return sorted
}

func fitInterpolant(kind Interpolation, times, flows []float64) (interp.Predictor, error) {
	var fp interp.FittablePredictor
	switch kind {
	case InterpolationLinear:
		fp = &interp.PiecewiseLinear{}
	case InterpolationCubic:
		fp = &interp.NotAKnotCubic{}
	default:
		return nil, fmt.Errorf("unsupported interpolation %q", kind)
	}
	if err := fp.Fit(times, flows); err != nil {
		return nil, fmt.Errorf("fit %s interpolant: %w", kind, err)
	}
	return fp, nil
}

// integratePiecewise integrates a piecewise polynomial of degree <= 3 knot
// interval by knot interval. Two-point Gauss-Legendre is exact on each interval.
func integratePiecewise(p interp.Predictor, knots []float64) float64 {
	var total float64
	for i := 1; i < len(knots); i++ {
		total += quad.Fixed(p.Predict, knots[i-1], knots[i], 2, quad.Legendre{}, 0)
	}
	return total
}
