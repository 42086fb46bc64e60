package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"

	"github.com/setorlab/choromap/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testPolygon() *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{-46.64, -23.56}, {-46.64, -23.55}, {-46.63, -23.55}, {-46.63, -23.56}, {-46.64, -23.56},
	}})
}

func TestSQLite_TractsRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	tracts := []model.Tract{
		{ID: "002", Name: "República", AreaKM2: 0.8},
		{ID: "001", Name: "Sé", AreaKM2: 1.25, Geometry: testPolygon()},
	}

	n, err := s.ReplaceTracts(ctx, tracts)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.LoadTracts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by id.
	assert.Equal(t, "001", got[0].ID)
	assert.Equal(t, "Sé", got[0].Name)
	assert.Equal(t, 1.25, got[0].AreaKM2)
	require.NotNil(t, got[0].Geometry)

	poly, ok := got[0].Geometry.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, testPolygon().FlatCoords(), poly.FlatCoords())

	assert.Nil(t, got[1].Geometry)
}

func TestSQLite_ReplaceTractsClearsOldData(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.ReplaceTracts(ctx, []model.Tract{{ID: "old", AreaKM2: 1}})
	require.NoError(t, err)
	_, err = s.ReplaceTracts(ctx, []model.Tract{{ID: "new", AreaKM2: 2}})
	require.NoError(t, err)

	got, err := s.LoadTracts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestSQLite_EventsRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	events := []model.RawEvent{
		{UnitID: "001", Category: 4711, Name: "Padaria", Lat: -23.55, Lon: -46.63},
		{UnitID: "002", Category: 4712},
	}

	n, err := s.ReplaceEvents(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.LoadEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestSQLite_RunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run := &model.Run{
		ID:     "run-1",
		Status: model.RunStatusRunning,
		Params: model.RunParams{Mode: "density", Classes: 5, Methods: []string{"equal", "jenks"}},
	}
	require.NoError(t, s.SaveRun(ctx, run))

	// Upsert: same id, new status and result.
	run.Status = model.RunStatusComplete
	run.Result = &model.RunResult{UnitsTotal: 10, UnitsWithData: 8, UnitsMissing: 2}
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, 5, got.Params.Classes)
	require.NotNil(t, got.Result)
	assert.Equal(t, 8, got.Result.UnitsWithData)
}

func TestSQLite_GetRunNotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.SaveRun(ctx, &model.Run{
			ID:     id,
			Status: model.RunStatusComplete,
			Params: model.RunParams{Mode: "raw", Classes: 3},
		}))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "open.db")

	s, err := Open(context.Background(), Config{DSN: dsn})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, ok := s.(*SQLiteStore)
	assert.True(t, ok)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	assert.Error(t, err)
}
