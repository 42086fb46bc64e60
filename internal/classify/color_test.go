package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setorlab/choromap/internal/model"
	"github.com/setorlab/choromap/internal/ramp"
)

var testRamp = ramp.Ramp{"#aaa111", "#bbb222", "#ccc333"}

func TestAssignColor_Intervals(t *testing.T) {
	breaks := []float64{0, 10, 20, 30}

	cases := []struct {
		name string
		v    float64
		want ramp.Token
	}{
		{"minimum", 0, "#aaa111"},
		{"inside first", 5, "#aaa111"},
		{"boundary goes to upper class", 10, "#bbb222"},
		{"just below boundary", 9.999, "#aaa111"},
		{"inside middle", 15, "#bbb222"},
		{"second boundary", 20, "#ccc333"},
		{"maximum closed", 30, "#ccc333"},
		{"clamped below", -4, "#aaa111"},
		{"clamped above", 99, "#ccc333"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AssignColor(model.Some(tc.v), breaks, testRamp)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAssignColor_MissingIsNeverAColor(t *testing.T) {
	breaks := []float64{0, 10, 20, 30}

	got, err := AssignColor(model.None(), breaks, testRamp)
	require.NoError(t, err)

	assert.Equal(t, ramp.NoData, got)
	assert.NotContains(t, testRamp, got)
}

func TestAssignColor_Degenerate(t *testing.T) {
	// Every value identical: one class, the low end of the ramp.
	breaks := []float64{7, 7, 7, 7}

	got, err := AssignColor(model.Some(7), breaks, testRamp)
	require.NoError(t, err)
	assert.Equal(t, ramp.Token("#aaa111"), got)
}

func TestAssignColor_RampMismatch(t *testing.T) {
	breaks := []float64{0, 10, 20, 30}

	_, err := AssignColor(model.Some(5), breaks, ramp.Ramp{"#aaa111"})
	assert.ErrorIs(t, err, ErrRampSizeMismatch)
}

func TestAssignAll(t *testing.T) {
	breaks := []float64{0, 10, 20, 30}
	metrics := map[string]float64{"A": 5, "B": 25}

	colors, err := AssignAll([]string{"A", "B", "C"}, metrics, breaks, testRamp)
	require.NoError(t, err)

	assert.Equal(t, ramp.Token("#aaa111"), colors["A"])
	assert.Equal(t, ramp.Token("#ccc333"), colors["B"])
	assert.Equal(t, ramp.NoData, colors["C"])
}

func TestAssignAll_RampValidatedUpFront(t *testing.T) {
	_, err := AssignAll([]string{"A"}, nil, []float64{0, 1, 2}, testRamp)
	assert.ErrorIs(t, err, ErrRampSizeMismatch)
}

// TestClassifyAndColor_EndToEnd walks counts through breaks to colors the
// way the analysis runner does.
func TestClassifyAndColor_EndToEnd(t *testing.T) {
	metrics := map[string]float64{"A": 1, "B": 10, "C": 100}
	values := []float64{1, 10, 100}

	breaks, err := ComputeBreaks(values, 3, MethodEqualInterval)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 34, 67, 100}, breaks)

	colors, err := AssignAll([]string{"A", "B", "C"}, metrics, breaks, testRamp)
	require.NoError(t, err)

	assert.Equal(t, ramp.Token("#aaa111"), colors["A"])
	assert.Equal(t, ramp.Token("#aaa111"), colors["B"])
	assert.Equal(t, ramp.Token("#ccc333"), colors["C"])
}
