// Package classify computes class boundaries and color assignments for
// choropleth display. All functions are pure: identical inputs always give
// identical breaks and colors.
package classify

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// Method names a class-break computation scheme.
type Method string

const (
	MethodEqualInterval Method = "equal"
	MethodQuantile      Method = "quantile"
	MethodJenks         Method = "jenks"
)

// BreakEpsilon bounds floating-point comparisons against class boundaries.
const BreakEpsilon = 1e-9

var (
	// ErrInsufficientData means fewer valid values than requested classes.
	// The class count is never silently reduced.
	ErrInsufficientData = eris.New("classify: fewer values than classes")

	// ErrUnknownMethod means the method string did not name a scheme.
	ErrUnknownMethod = eris.New("classify: unknown method")
)

// ParseMethod maps a config string to a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodEqualInterval, MethodQuantile, MethodJenks:
		return Method(s), nil
	}
	return "", eris.Wrapf(ErrUnknownMethod, "%q", s)
}

// ComputeBreaks returns nClasses+1 non-decreasing boundaries covering
// [min(values), max(values)] exactly; no method extrapolates past the
// observed range. Boundaries define half-open intervals [b_i, b_{i+1}),
// except the top interval which is closed at the maximum.
//
// Values must be finite; callers filter missing data out beforehand.
// Duplicate boundaries can occur under MethodQuantile with heavily repeated
// values; that yields fewer effective classes and is not an error.
func ComputeBreaks(values []float64, nClasses int, method Method) ([]float64, error) {
	if nClasses < 2 {
		return nil, eris.Errorf("classify: need at least 2 classes, got %d", nClasses)
	}
	if len(values) < nClasses {
		return nil, eris.Wrapf(ErrInsufficientData, "%d values for %d classes", len(values), nClasses)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, eris.Errorf("classify: non-finite value %v", v)
		}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	switch method {
	case MethodEqualInterval:
		return equalIntervalBreaks(sorted, nClasses), nil
	case MethodQuantile:
		return quantileBreaks(sorted, nClasses), nil
	case MethodJenks:
		return jenksBreaks(sorted, nClasses), nil
	}
	return nil, eris.Wrapf(ErrUnknownMethod, "%q", method)
}

// equalIntervalBreaks splits [min, max] into nClasses equal-width classes.
// When min == max every boundary collapses to that value; AssignColor treats
// that as a single class.
func equalIntervalBreaks(sorted []float64, nClasses int) []float64 {
	lo := sorted[0]
	hi := sorted[len(sorted)-1]
	step := (hi - lo) / float64(nClasses)

	breaks := make([]float64, nClasses+1)
	for k := 0; k <= nClasses; k++ {
		breaks[k] = lo + float64(k)*step
	}
	// Pin the top boundary to the observed maximum so FP drift in the
	// multiplication can never leave the maximum outside the last class.
	breaks[nClasses] = hi
	return breaks
}

// quantileBreaks places boundaries at the empirical quantiles k/nClasses.
func quantileBreaks(sorted []float64, nClasses int) []float64 {
	breaks := make([]float64, nClasses+1)
	for k := 0; k <= nClasses; k++ {
		breaks[k] = quantile(sorted, float64(k)/float64(nClasses))
	}
	breaks[0] = sorted[0]
	breaks[nClasses] = sorted[len(sorted)-1]
	return breaks
}

// quantile interpolates linearly between order statistics, the conventional
// h = p*(n-1) definition. The 0.5 quantile equals the usual median.
func quantile(sorted []float64, p float64) float64 {
	h := p * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// ClampUpper winsorizes values at an upper quantile, e.g. fraction 0.95 caps
// the top 5% at the 95th percentile. Used to keep a handful of extreme
// sectors from washing out the class ramp; the returned slice is a copy and
// the input is never mutated. A fraction outside (0, 1) disables the cap.
func ClampUpper(values []float64, fraction float64) []float64 {
	out := append([]float64(nil), values...)
	if fraction <= 0 || fraction >= 1 || len(values) == 0 {
		return out
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	cap := quantile(sorted, fraction)
	for i, v := range out {
		if v > cap {
			out[i] = cap
		}
	}
	return out
}
