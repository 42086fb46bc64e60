package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	_ "modernc.org/sqlite"

	"github.com/setorlab/choromap/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Geometry is stored
// as GeoJSON text; at census-sector volumes that is plenty fast and keeps
// the file inspectable.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS tracts (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL DEFAULT '',
	area_km2 REAL NOT NULL,
	geometry TEXT
);

CREATE TABLE IF NOT EXISTS events (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	unit_id  TEXT NOT NULL,
	category INTEGER NOT NULL,
	name     TEXT NOT NULL DEFAULT '',
	lat      REAL NOT NULL DEFAULT 0,
	lon      REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	params     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_events_unit_id ON events(unit_id);
CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceTracts(ctx context.Context, tracts []model.Tract) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tracts`); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear tracts")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tracts (id, name, area_km2, geometry) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare tract insert")
	}
	defer func() { _ = stmt.Close() }()

	for _, t := range tracts {
		gj, err := encodeGeometry(t.Geometry)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: encode geometry for %s", t.ID)
		}
		if _, err := stmt.ExecContext(ctx, t.ID, t.Name, t.AreaKM2, gj); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert tract %s", t.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tracts")
	}
	return len(tracts), nil
}

func (s *SQLiteStore) LoadTracts(ctx context.Context) ([]model.Tract, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, area_km2, geometry FROM tracts ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query tracts")
	}
	defer func() { _ = rows.Close() }()

	var tracts []model.Tract
	for rows.Next() {
		var t model.Tract
		var gj sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &t.AreaKM2, &gj); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tract")
		}
		if gj.Valid && gj.String != "" {
			g, err := decodeGeometry(gj.String)
			if err != nil {
				return nil, eris.Wrapf(err, "sqlite: decode geometry for %s", t.ID)
			}
			t.Geometry = g
		}
		tracts = append(tracts, t)
	}
	return tracts, eris.Wrap(rows.Err(), "sqlite: iterate tracts")
}

func (s *SQLiteStore) ReplaceEvents(ctx context.Context, events []model.RawEvent) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear events")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (unit_id, category, name, lat, lon) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare event insert")
	}
	defer func() { _ = stmt.Close() }()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, ev.UnitID, ev.Category, ev.Name, ev.Lat, ev.Lon); err != nil {
			return 0, eris.Wrap(err, "sqlite: insert event")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit events")
	}
	return len(events), nil
}

func (s *SQLiteStore) LoadEvents(ctx context.Context) ([]model.RawEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT unit_id, category, name, lat, lon FROM events ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query events")
	}
	defer func() { _ = rows.Close() }()

	var events []model.RawEvent
	for rows.Next() {
		var ev model.RawEvent
		if err := rows.Scan(&ev.UnitID, &ev.Category, &ev.Name, &ev.Lat, &ev.Lon); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: iterate events")
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run params")
	}
	var result []byte
	if run.Result != nil {
		result, err = json.Marshal(run.Result)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal run result")
		}
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, params, status, result, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status,
			result = excluded.result, updated_at = excluded.updated_at`,
		run.ID, string(params), string(run.Status), nullable(result), run.CreatedAt, run.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: save run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, params, status, result, created_at, updated_at FROM runs WHERE id = ?`, id)
	run, err := scanRunSQL(row.Scan)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "run %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get run")
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, params, status, result, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRunSQL(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// scanRunSQL decodes one runs row from any Scan-shaped function.
func scanRunSQL(scan func(dest ...any) error) (*model.Run, error) {
	var run model.Run
	var params string
	var result sql.NullString
	var status string
	if err := scan(&run.ID, &params, &status, &result, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	if err := json.Unmarshal([]byte(params), &run.Params); err != nil {
		return nil, eris.Wrap(err, "unmarshal run params")
	}
	if result.Valid && result.String != "" {
		run.Result = &model.RunResult{}
		if err := json.Unmarshal([]byte(result.String), run.Result); err != nil {
			return nil, eris.Wrap(err, "unmarshal run result")
		}
	}
	return &run, nil
}

func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func encodeGeometry(g geom.T) (any, error) {
	if g == nil {
		return nil, nil
	}
	data, err := geojson.Marshal(g)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func decodeGeometry(s string) (geom.T, error) {
	var g geom.T
	if err := geojson.Unmarshal([]byte(s), &g); err != nil {
		return nil, err
	}
	return g, nil
}
