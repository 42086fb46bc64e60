package metric

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// Mode selects the transform applied to raw counts before classification.
type Mode string

const (
	ModeRaw     Mode = "raw"     // identity
	ModeDensity Mode = "density" // count / area (km²)
	ModeLog     Mode = "log"     // log10(count)
)

// Sentinel errors for per-unit normalization failures.
var (
	// ErrInvalidArea means a unit requiring density normalization has a
	// missing or non-positive area. That signals corrupt reference data,
	// not absence of data.
	ErrInvalidArea = eris.New("metric: area must be positive")

	// ErrInvalidDomain means a log transform was requested for a
	// non-positive count, where log10 is undefined.
	ErrInvalidDomain = eris.New("metric: log10 undefined for non-positive count")

	// ErrUnknownMode means the mode string did not name a transform.
	ErrUnknownMode = eris.New("metric: unknown mode")
)

// UnitError records a per-unit normalization failure. Bad data for one
// sector never aborts the batch; the unit is skipped, rendered as no-data,
// and reported here so callers can surface the count.
type UnitError struct {
	UnitID string
	Err    error
}

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRaw, ModeDensity, ModeLog:
		return Mode(s), nil
	}
	return "", eris.Wrapf(ErrUnknownMode, "%q", s)
}

// Normalize converts raw counts into the classification metric. Units absent
// from counts stay absent in the output; they are never synthesized as zero.
// Per-unit failures (non-positive area under ModeDensity, non-positive count
// under ModeLog) are contained: the unit is dropped from the result and
// returned in the UnitError list, in unit-ID order.
func Normalize(counts map[string]int, areas map[string]float64, mode Mode) (map[string]float64, []UnitError) {
	out := make(map[string]float64, len(counts))
	var unitErrs []UnitError

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		count := counts[id]
		switch mode {
		case ModeRaw:
			out[id] = float64(count)
		case ModeDensity:
			area, ok := areas[id]
			if !ok || area <= 0 {
				unitErrs = append(unitErrs, UnitError{
					UnitID: id,
					Err:    eris.Wrapf(ErrInvalidArea, "unit %s area %v", id, area),
				})
				continue
			}
			out[id] = float64(count) / area
		case ModeLog:
			if count <= 0 {
				unitErrs = append(unitErrs, UnitError{
					UnitID: id,
					Err:    eris.Wrapf(ErrInvalidDomain, "unit %s count %d", id, count),
				})
				continue
			}
			out[id] = math.Log10(float64(count))
		}
	}
	return out, unitErrs
}
