package metric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"raw", "density", "log"} {
		m, err := ParseMode(s)
		assert.NoError(t, err)
		assert.Equal(t, Mode(s), m)
	}

	_, err := ParseMode("sqrt")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestNormalize_Raw(t *testing.T) {
	out, unitErrs := Normalize(map[string]int{"A": 3, "B": 0}, nil, ModeRaw)

	assert.Empty(t, unitErrs)
	assert.Equal(t, map[string]float64{"A": 3, "B": 0}, out)
}

func TestNormalize_Density(t *testing.T) {
	counts := map[string]int{"A": 10}
	areas := map[string]float64{"A": 2}

	out, unitErrs := Normalize(counts, areas, ModeDensity)

	assert.Empty(t, unitErrs)
	assert.Equal(t, 5.0, out["A"])
}

func TestNormalize_DensityBadArea(t *testing.T) {
	counts := map[string]int{"A": 10, "B": 4, "C": 7}
	areas := map[string]float64{"A": 2, "B": 0}

	out, unitErrs := Normalize(counts, areas, ModeDensity)

	// A survives; B (zero area) and C (missing area) are contained
	// failures, reported in unit-ID order.
	assert.Equal(t, map[string]float64{"A": 5}, out)
	require.Len(t, unitErrs, 2)
	assert.Equal(t, "B", unitErrs[0].UnitID)
	assert.Equal(t, "C", unitErrs[1].UnitID)
	assert.ErrorIs(t, unitErrs[0].Err, ErrInvalidArea)
	assert.ErrorIs(t, unitErrs[1].Err, ErrInvalidArea)
}

func TestNormalize_Log(t *testing.T) {
	out, unitErrs := Normalize(map[string]int{"A": 100, "B": 1}, nil, ModeLog)

	assert.Empty(t, unitErrs)
	assert.InDelta(t, 2.0, out["A"], 1e-12)
	assert.Equal(t, 0.0, out["B"])
}

func TestNormalize_LogZeroCount(t *testing.T) {
	out, unitErrs := Normalize(map[string]int{"A": 0, "B": 10}, nil, ModeLog)

	assert.Equal(t, map[string]float64{"B": 1}, out)
	require.Len(t, unitErrs, 1)
	assert.Equal(t, "A", unitErrs[0].UnitID)
	assert.ErrorIs(t, unitErrs[0].Err, ErrInvalidDomain)
}

func TestNormalize_AbsentStaysAbsent(t *testing.T) {
	counts := map[string]int{"A": 1}
	areas := map[string]float64{"A": 1, "Z": 99}

	out, _ := Normalize(counts, areas, ModeDensity)

	// Z has geometry but no events; it must not appear as zero.
	_, ok := out["Z"]
	assert.False(t, ok)
	assert.False(t, math.IsNaN(out["A"]))
}
