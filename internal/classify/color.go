package classify

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/setorlab/choromap/internal/model"
	"github.com/setorlab/choromap/internal/ramp"
)

// ErrRampSizeMismatch means the ramp length does not equal the class count.
// That is a caller bug, not bad data, and always aborts the coloring call.
var ErrRampSizeMismatch = eris.New("classify: ramp length must equal class count")

// AssignColor maps one metric value to its class color. Intervals are
// closed on the left and open on the right, except the top interval which
// is closed at the maximum so the largest value lands in the last class.
// Values outside [breaks[0], breaks[last]] are clamped to the first or last
// class. A missing value always maps to ramp.NoData and never to a ramp
// color.
func AssignColor(v model.Value, breaks []float64, r ramp.Ramp) (ramp.Token, error) {
	if err := checkRamp(breaks, r); err != nil {
		return "", err
	}
	if !v.Valid {
		return ramp.NoData, nil
	}
	return colorFor(v.Float64, breaks, r), nil
}

// AssignAll resolves a color for every unit. Units listed in unitIDs but
// absent from metrics get ramp.NoData. The ramp is validated once up front.
func AssignAll(unitIDs []string, metrics map[string]float64, breaks []float64, r ramp.Ramp) (map[string]ramp.Token, error) {
	if err := checkRamp(breaks, r); err != nil {
		return nil, err
	}
	out := make(map[string]ramp.Token, len(unitIDs))
	for _, id := range unitIDs {
		v, ok := metrics[id]
		if !ok {
			out[id] = ramp.NoData
			continue
		}
		out[id] = colorFor(v, breaks, r)
	}
	return out, nil
}

func checkRamp(breaks []float64, r ramp.Ramp) error {
	if len(breaks) < 2 {
		return eris.New("classify: need at least two breaks")
	}
	if len(r) != len(breaks)-1 {
		return eris.Wrapf(ErrRampSizeMismatch, "%d colors for %d classes", len(r), len(breaks)-1)
	}
	return nil
}

func colorFor(x float64, breaks []float64, r ramp.Ramp) ramp.Token {
	// Collapsed classification (every break equal): one class, one color.
	if degenerate(breaks) {
		return r[0]
	}
	if x <= breaks[0] {
		return r[0]
	}
	if x >= breaks[len(breaks)-1]-BreakEpsilon {
		return r[len(r)-1]
	}
	for i := 1; i < len(breaks)-1; i++ {
		// Strict < keeps boundary values in the upper class
		// (closed-left convention).
		if x < breaks[i] {
			return r[i-1]
		}
	}
	return r[len(r)-1]
}

// degenerate reports fewer than two distinct break values, which happens
// when every classified value is identical.
func degenerate(breaks []float64) bool {
	for i := 1; i < len(breaks); i++ {
		if math.Abs(breaks[i]-breaks[0]) > BreakEpsilon {
			return false
		}
	}
	return true
}
