// Package store persists imported reference data (tracts, events) and
// analysis run history, behind SQLite for local use and PostgreSQL for
// shared deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/setorlab/choromap/internal/model"
)

// Store is the persistence interface for choromap. Replace methods swap the
// whole dataset: imports are idempotent full loads, not increments.
type Store interface {
	// Reference data
	ReplaceTracts(ctx context.Context, tracts []model.Tract) (int, error)
	LoadTracts(ctx context.Context) ([]model.Tract, error)
	ReplaceEvents(ctx context.Context, events []model.RawEvent) (int, error)
	LoadEvents(ctx context.Context) ([]model.RawEvent, error)

	// Run history
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = eris.New("store: not found")

// Config selects and configures the backend.
type Config struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// Open builds a Store from config.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "choromap.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, cfg.DSN)
	}
	return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
}
