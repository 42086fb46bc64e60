package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setorlab/choromap/internal/model"
	"github.com/setorlab/choromap/internal/ramp"
)

func TestEnrich(t *testing.T) {
	tracts := []model.Tract{
		{ID: "355030805000001", Name: "Sé"},
		{ID: "355030805000002", Name: "República"},
		{ID: "355030805000003", Name: "Liberdade"},
	}
	metrics := map[string]model.Value{
		"355030805000001": model.Some(1.5),
		"355030805000003": model.Some(0.2),
	}
	colors := map[string]map[string]ramp.Token{
		"equal": {
			"355030805000001": "#ff0000",
			"355030805000003": "#00ff00",
		},
	}

	enriched, report := Enrich(tracts, metrics, colors)

	require.Len(t, enriched, 3)
	assert.Equal(t, 3, report.UnitsTotal)
	assert.Equal(t, 2, report.UnitsWithData)
	assert.Equal(t, []string{"355030805000002"}, report.Missing)

	// Order follows the input tracts.
	assert.Equal(t, "355030805000001", enriched[0].ID)
	assert.Equal(t, 1.5, enriched[0].Metric.Float64)
	assert.Equal(t, "#ff0000", enriched[0].Colors["equal"])

	assert.False(t, enriched[1].Metric.Valid)
	assert.Equal(t, string(ramp.NoData), enriched[1].Colors["equal"])
}

func TestEnrich_JoinOnNormalizedKey(t *testing.T) {
	// The shapefile carries a preliminary-sector suffix; the metric side
	// is already normalized. The join must still land.
	tracts := []model.Tract{{ID: "355030805000001P"}}
	metrics := map[string]model.Value{"355030805000001": model.Some(3)}

	enriched, report := Enrich(tracts, metrics, nil)

	require.Len(t, enriched, 1)
	assert.True(t, enriched[0].Metric.Valid)
	assert.Equal(t, 1, report.UnitsWithData)
	// The original identifier is preserved on the output.
	assert.Equal(t, "355030805000001P", enriched[0].ID)
}

func TestEnrich_MissingSorted(t *testing.T) {
	tracts := []model.Tract{{ID: "C"}, {ID: "A"}, {ID: "B"}}

	_, report := Enrich(tracts, nil, nil)

	assert.Equal(t, []string{"A", "B", "C"}, report.Missing)
	assert.Equal(t, 0, report.UnitsWithData)
}

func TestEnrich_NoTracts(t *testing.T) {
	enriched, report := Enrich(nil, nil, nil)

	assert.Empty(t, enriched)
	assert.Equal(t, 0, report.UnitsTotal)
	assert.Empty(t, report.Missing)
}
