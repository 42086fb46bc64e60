package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	v := Some(2.5)
	assert.True(t, v.Valid)
	assert.Equal(t, 2.5, v.Float64)

	n := None()
	assert.False(t, n.Valid)
	assert.Zero(t, n.Float64)
}

func TestValue_ZeroIsNotAbsent(t *testing.T) {
	// A sector with zero counted events is data; an absent sector is not.
	assert.NotEqual(t, Some(0), None())
}

func TestRun_JSONRoundTrip(t *testing.T) {
	run := Run{
		ID:     "run-1",
		Status: RunStatusComplete,
		Params: RunParams{Mode: "density", Classes: 5, Methods: []string{"jenks"}},
		Result: &RunResult{
			UnitsTotal:    10,
			UnitsWithData: 9,
			UnitsMissing:  1,
			MissingIDs:    []string{"355030805000099"},
			Variants: map[string]VariantBreak{
				"jenks": {Breaks: []float64{0, 1, 2}, Legend: []string{"0,00 – 1,00", "1,00 – 2,00"}},
			},
		},
	}

	data, err := json.Marshal(run)
	require.NoError(t, err)

	var got Run
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, run, got)
}
