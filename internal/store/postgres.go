package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/setorlab/choromap/internal/db"
	"github.com/setorlab/choromap/internal/model"
)

// PostgresStore implements Store on pgx. Bulk loads go through COPY.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; tests inject pgxmock here.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS tracts (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL DEFAULT '',
	area_km2 DOUBLE PRECISION NOT NULL,
	geometry TEXT
);

CREATE TABLE IF NOT EXISTS events (
	seq      BIGSERIAL PRIMARY KEY,
	unit_id  TEXT NOT NULL,
	category INTEGER NOT NULL,
	name     TEXT NOT NULL DEFAULT '',
	lat      DOUBLE PRECISION NOT NULL DEFAULT 0,
	lon      DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	params     JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_events_unit_id ON events(unit_id);
CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ReplaceTracts(ctx context.Context, tracts []model.Tract) (int, error) {
	if _, err := s.pool.Exec(ctx, `TRUNCATE tracts`); err != nil {
		return 0, eris.Wrap(err, "postgres: clear tracts")
	}

	rows := make([][]any, 0, len(tracts))
	for _, t := range tracts {
		gj, err := encodeGeometry(t.Geometry)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: encode geometry for %s", t.ID)
		}
		rows = append(rows, []any{t.ID, t.Name, t.AreaKM2, gj})
	}

	n, err := db.CopyFrom(ctx, s.pool, "tracts", []string{"id", "name", "area_km2", "geometry"}, rows)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *PostgresStore) LoadTracts(ctx context.Context) ([]model.Tract, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, area_km2, geometry FROM tracts ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query tracts")
	}
	defer rows.Close()

	var tracts []model.Tract
	for rows.Next() {
		var t model.Tract
		var gj *string
		if err := rows.Scan(&t.ID, &t.Name, &t.AreaKM2, &gj); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tract")
		}
		if gj != nil && *gj != "" {
			g, err := decodeGeometry(*gj)
			if err != nil {
				return nil, eris.Wrapf(err, "postgres: decode geometry for %s", t.ID)
			}
			t.Geometry = g
		}
		tracts = append(tracts, t)
	}
	return tracts, eris.Wrap(rows.Err(), "postgres: iterate tracts")
}

func (s *PostgresStore) ReplaceEvents(ctx context.Context, events []model.RawEvent) (int, error) {
	if _, err := s.pool.Exec(ctx, `TRUNCATE events`); err != nil {
		return 0, eris.Wrap(err, "postgres: clear events")
	}

	rows := make([][]any, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []any{ev.UnitID, ev.Category, ev.Name, ev.Lat, ev.Lon})
	}

	n, err := db.CopyFrom(ctx, s.pool, "events", []string{"unit_id", "category", "name", "lat", "lon"}, rows)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *PostgresStore) LoadEvents(ctx context.Context) ([]model.RawEvent, error) {
	rows, err := s.pool.Query(ctx, `SELECT unit_id, category, name, lat, lon FROM events ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query events")
	}
	defer rows.Close()

	var events []model.RawEvent
	for rows.Next() {
		var ev model.RawEvent
		if err := rows.Scan(&ev.UnitID, &ev.Category, &ev.Name, &ev.Lat, &ev.Lon); err != nil {
			return nil, eris.Wrap(err, "postgres: scan event")
		}
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "postgres: iterate events")
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run params")
	}
	var result []byte
	if run.Result != nil {
		result, err = json.Marshal(run.Result)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal run result")
		}
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now

	_, err = s.pool.Exec(ctx, `
		INSERT INTO runs (id, params, status, result, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status,
			result = EXCLUDED.result, updated_at = EXCLUDED.updated_at`,
		run.ID, params, string(run.Status), nullable(result), run.CreatedAt, run.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: save run")
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, params, status, result, created_at, updated_at FROM runs WHERE id = $1`, id)
	run, err := scanRunPG(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "run %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, params, status, result, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRunPG(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

// scanRunPG decodes one runs row; params and result arrive as JSONB bytes.
func scanRunPG(scan func(dest ...any) error) (*model.Run, error) {
	var run model.Run
	var params []byte
	var result []byte
	var status string
	if err := scan(&run.ID, &params, &status, &result, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	if err := json.Unmarshal(params, &run.Params); err != nil {
		return nil, eris.Wrap(err, "unmarshal run params")
	}
	if len(result) > 0 {
		run.Result = &model.RunResult{}
		if err := json.Unmarshal(result, run.Result); err != nil {
			return nil, eris.Wrap(err, "unmarshal run result")
		}
	}
	return &run, nil
}
