// Package analysis orchestrates a full classification run: aggregate raw
// events per sector, normalize into the chosen metric, compute class breaks
// under every requested method, resolve colors, and join the result back
// onto the geometry. The classification variants run over an immutable
// snapshot of the value set, so computing them concurrently is safe.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aclements/go-moremath/stats"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/setorlab/choromap/internal/classify"
	"github.com/setorlab/choromap/internal/geo"
	"github.com/setorlab/choromap/internal/metric"
	"github.com/setorlab/choromap/internal/model"
	"github.com/setorlab/choromap/internal/ramp"
)

// VariantLog names the extra log10(count) equal-interval variant.
const VariantLog = "log"

// Spec is everything a run needs beyond the data itself.
type Spec struct {
	Categories  []int             // event categories to count; empty = all
	Classes     int               // number of display classes
	Methods     []classify.Method // break schemes to compare
	Mode        metric.Mode       // metric transform
	Ramp        ramp.Ramp         // exactly Classes colors
	RampName    string            // recorded in run params
	CapFraction float64           // upper winsorization quantile; 0 disables
	LogVariant  bool              // add a log10(count) equal-interval variant
}

// Variant is the classification outcome for one break scheme.
type Variant struct {
	Breaks []float64
	Colors map[string]ramp.Token
}

// Result is the full outcome of a run.
type Result struct {
	RunID    string
	Params   model.RunParams
	Counts   map[string]int
	Metrics  map[string]model.Value
	Variants map[string]Variant
	Enriched []model.EnrichedTract
	Report   geo.Report
	Summary  model.MetricSummary
	Warnings []string
	Started  time.Time
}

// Run executes the pipeline over in-memory tracts and events. Per-unit data
// problems become warnings and no-data sectors; structural problems (too few
// values for the class count, ramp size mismatch) fail the run.
func Run(ctx context.Context, tracts []model.Tract, events []model.RawEvent, spec Spec) (*Result, error) {
	if len(tracts) == 0 {
		return nil, eris.New("analysis: no tracts loaded")
	}
	if len(spec.Methods) == 0 {
		return nil, eris.New("analysis: no classification methods requested")
	}

	res := &Result{
		RunID:   uuid.New().String(),
		Started: time.Now().UTC(),
		Params: model.RunParams{
			Mode:        string(spec.Mode),
			Classes:     spec.Classes,
			Methods:     methodNames(spec.Methods),
			Ramp:        spec.RampName,
			Categories:  spec.Categories,
			CapFraction: spec.CapFraction,
			LogVariant:  spec.LogVariant,
		},
	}
	log := zap.L().With(zap.String("component", "analysis"), zap.String("run_id", res.RunID))

	// Reference data, keyed by normalized sector id.
	areas := make(map[string]float64, len(tracts))
	unitIDs := make([]string, 0, len(tracts))
	for _, t := range tracts {
		key := geo.NormalizeKey(t.ID)
		areas[key] = t.AreaKM2
		unitIDs = append(unitIDs, key)
	}

	counts := metric.Aggregate(events, metric.NewCategorySet(spec.Categories...))

	// Published counts are the raw aggregation; the geometry filter below
	// only narrows the working copy.
	res.Counts = make(map[string]int, len(counts))
	for id, n := range counts {
		res.Counts[id] = n
	}

	// Events in sectors the geometry does not know cannot render; drop them
	// with a diagnostic rather than classifying invisible values.
	unknown := 0
	for id := range counts {
		if _, ok := areas[id]; !ok {
			unknown++
			delete(counts, id)
		}
	}
	if unknown > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d counted sectors missing from geometry", unknown))
	}

	values, unitErrs := metric.Normalize(counts, areas, spec.Mode)
	for _, ue := range unitErrs {
		res.Warnings = append(res.Warnings, fmt.Sprintf("unit %s: %s", ue.UnitID, eris.Cause(ue.Err).Error()))
	}

	res.Metrics = make(map[string]model.Value, len(values))
	for id, v := range values {
		res.Metrics[id] = model.Some(v)
	}

	valid := make([]float64, 0, len(values))
	for _, id := range sortedKeys(values) {
		valid = append(valid, values[id])
	}
	if spec.CapFraction > 0 {
		valid = classify.ClampUpper(valid, spec.CapFraction)
	}

	res.Summary = summarize(valid)

	variants, err := computeVariants(ctx, valid, values, unitIDs, spec)
	if err != nil {
		return nil, err
	}
	res.Variants = variants

	if spec.LogVariant {
		v, warn, err := logVariant(counts, unitIDs, spec)
		if err != nil {
			return nil, err
		}
		if warn != "" {
			res.Warnings = append(res.Warnings, warn)
		}
		res.Variants[VariantLog] = v
	}

	colorsByVariant := make(map[string]map[string]ramp.Token, len(res.Variants))
	for name, v := range res.Variants {
		colorsByVariant[name] = v.Colors
	}
	res.Enriched, res.Report = geo.Enrich(tracts, res.Metrics, colorsByVariant)

	log.Info("analysis: run complete",
		zap.Int("tracts", len(tracts)),
		zap.Int("events", len(events)),
		zap.Int("units_with_data", res.Report.UnitsWithData),
		zap.Int("units_missing", len(res.Report.Missing)),
		zap.Int("variants", len(res.Variants)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

// computeVariants classifies the value snapshot under each method. Each
// goroutine works on its own copy of the data; nothing here is shared
// mutable state.
func computeVariants(ctx context.Context, valid []float64, values map[string]float64, unitIDs []string, spec Spec) (map[string]Variant, error) {
	type slot struct {
		name string
		v    Variant
	}
	slots := make([]slot, len(spec.Methods))

	g, _ := errgroup.WithContext(ctx)
	for i, m := range spec.Methods {
		g.Go(func() error {
			breaks, err := classify.ComputeBreaks(valid, spec.Classes, m)
			if err != nil {
				return eris.Wrapf(err, "analysis: %s breaks", m)
			}
			colors, err := classify.AssignAll(unitIDs, values, breaks, spec.Ramp)
			if err != nil {
				return eris.Wrapf(err, "analysis: %s colors", m)
			}
			slots[i] = slot{name: string(m), v: Variant{Breaks: breaks, Colors: colors}}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]Variant, len(slots))
	for _, s := range slots {
		out[s.name] = s.v
	}
	return out, nil
}

// logVariant classifies log10 of the raw counts under equal intervals, the
// notebook-style comparison against the linear scale. Sectors with
// non-positive counts cannot take the log and fall out as no-data for this
// variant only.
func logVariant(counts map[string]int, unitIDs []string, spec Spec) (Variant, string, error) {
	logValues, unitErrs := metric.Normalize(counts, nil, metric.ModeLog)

	var warn string
	if n := len(unitErrs); n > 0 {
		warn = fmt.Sprintf("%d sectors excluded from log variant (count <= 0)", n)
	}

	valid := make([]float64, 0, len(logValues))
	for _, id := range sortedKeys(logValues) {
		valid = append(valid, logValues[id])
	}
	breaks, err := classify.ComputeBreaks(valid, spec.Classes, classify.MethodEqualInterval)
	if err != nil {
		return Variant{}, "", eris.Wrap(err, "analysis: log variant breaks")
	}
	colors, err := classify.AssignAll(unitIDs, logValues, breaks, spec.Ramp)
	if err != nil {
		return Variant{}, "", eris.Wrap(err, "analysis: log variant colors")
	}
	return Variant{Breaks: breaks, Colors: colors}, warn, nil
}

func summarize(values []float64) model.MetricSummary {
	if len(values) == 0 {
		return model.MetricSummary{}
	}
	s := stats.Sample{Xs: values}
	min, max := s.Bounds()
	return model.MetricSummary{
		Count:  len(values),
		Mean:   s.Mean(),
		StdDev: s.StdDev(),
		Min:    min,
		Max:    max,
	}
}

func methodNames(methods []classify.Method) []string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	return names
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
