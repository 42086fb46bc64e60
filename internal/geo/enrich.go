package geo

import (
	"sort"

	"go.uber.org/zap"

	"github.com/setorlab/choromap/internal/model"
	"github.com/setorlab/choromap/internal/ramp"
)

// Report summarizes a join: how many sectors ended up with data and which
// did not. The missing list is what the "N setores com dados ausentes"
// diagnostic is printed from.
type Report struct {
	UnitsTotal    int      `json:"units_total"`
	UnitsWithData int      `json:"units_with_data"`
	Missing       []string `json:"missing,omitempty"`
}

// Enrich attaches metric values and per-variant colors onto tracts by
// normalized identifier. Tracts without a metric keep an invalid Value and
// get the no-data token for every variant; they are counted and listed in
// the report, never dropped. Tract order is preserved.
func Enrich(tracts []model.Tract, metrics map[string]model.Value, colors map[string]map[string]ramp.Token) ([]model.EnrichedTract, Report) {
	enriched := make([]model.EnrichedTract, 0, len(tracts))
	report := Report{UnitsTotal: len(tracts)}

	for _, t := range tracts {
		key := NormalizeKey(t.ID)

		et := model.EnrichedTract{
			Tract:  t,
			Metric: metrics[key],
			Colors: make(map[string]string, len(colors)),
		}
		for variant, assignment := range colors {
			tok, ok := assignment[key]
			if !ok {
				tok = ramp.NoData
			}
			et.Colors[variant] = string(tok)
		}

		if et.Metric.Valid {
			report.UnitsWithData++
		} else {
			report.Missing = append(report.Missing, t.ID)
		}
		enriched = append(enriched, et)
	}

	sort.Strings(report.Missing)
	if len(report.Missing) > 0 {
		zap.L().Info("geo: sectors without data",
			zap.Int("missing", len(report.Missing)),
			zap.Int("total", report.UnitsTotal),
		)
	}
	return enriched, report
}
