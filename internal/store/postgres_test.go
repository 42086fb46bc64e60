package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setorlab/choromap/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPostgresFromPool(mock), mock
}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS tracts").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ReplaceTracts(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("TRUNCATE tracts").
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(
		pgx.Identifier{"tracts"},
		[]string{"id", "name", "area_km2", "geometry"},
	).WillReturnResult(2)

	n, err := s.ReplaceTracts(context.Background(), []model.Tract{
		{ID: "001", Name: "Sé", AreaKM2: 1.25, Geometry: testPolygon()},
		{ID: "002", AreaKM2: 0.8},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ReplaceEvents_Empty(t *testing.T) {
	s, mock := newMockStore(t)

	// Only the TRUNCATE runs; COPY of zero rows is skipped.
	mock.ExpectExec("TRUNCATE events").
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))

	n, err := s.ReplaceEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadEvents(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT unit_id, category, name, lat, lon FROM events").
		WillReturnRows(pgxmock.NewRows([]string{"unit_id", "category", "name", "lat", "lon"}).
			AddRow("001", 4711, "Padaria", -23.55, -46.63).
			AddRow("002", 4712, "", 0.0, 0.0))

	events, err := s.LoadEvents(context.Background())
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, model.RawEvent{UnitID: "001", Category: 4711, Name: "Padaria", Lat: -23.55, Lon: -46.63}, events[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveRun(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO runs").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "complete", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run := &model.Run{
		ID:     "run-1",
		Status: model.RunStatusComplete,
		Params: model.RunParams{Mode: "density", Classes: 5},
		Result: &model.RunResult{UnitsTotal: 3},
	}
	require.NoError(t, s.SaveRun(context.Background(), run))
	assert.False(t, run.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRun(t *testing.T) {
	s, mock := newMockStore(t)

	params, _ := json.Marshal(model.RunParams{Mode: "raw", Classes: 3})
	result, _ := json.Marshal(model.RunResult{UnitsTotal: 7, UnitsWithData: 6})
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, params, status, result, created_at, updated_at FROM runs").
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "params", "status", "result", "created_at", "updated_at"}).
			AddRow("run-1", params, "complete", result, now, now))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, 3, run.Params.Classes)
	require.NotNil(t, run.Result)
	assert.Equal(t, 6, run.Result.UnitsWithData)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRunNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, params, status, result, created_at, updated_at FROM runs").
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_ListRuns(t *testing.T) {
	s, mock := newMockStore(t)

	params, _ := json.Marshal(model.RunParams{Mode: "raw", Classes: 3})
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, params, status, result, created_at, updated_at").
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "params", "status", "result", "created_at", "updated_at"}).
			AddRow("b", params, "complete", []byte(nil), now, now).
			AddRow("a", params, "failed", []byte(nil), now.Add(-time.Hour), now))

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID)
	assert.Equal(t, model.RunStatusFailed, runs[1].Status)
	assert.Nil(t, runs[1].Result)
	require.NoError(t, mock.ExpectationsWereMet())
}
