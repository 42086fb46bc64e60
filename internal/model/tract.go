// Package model defines the domain types shared across choromap packages.
package model

import (
	"time"

	"github.com/twpayne/go-geom"
)

// Tract is a census sector, the smallest spatial unit choropleths are drawn
// over. Reference data loaded from IBGE geometry; never mutated after load.
type Tract struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	AreaKM2  float64 `json:"area_km2"`
	Geometry geom.T  `json:"-"`
}

// RawEvent is a single point-of-interest record keyed to a sector. The unit
// ID may not match any loaded Tract; unmatched events simply never join.
type RawEvent struct {
	UnitID   string  `json:"unit_id"`
	Category int     `json:"category"`
	Name     string  `json:"name,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
}

// EnrichedTract is a Tract with its resolved metric and display colors, the
// artifact handed to the rendering layer. Colors is keyed by variant name
// (e.g. "equal", "quantile", "jenks") and holds hex colors or the no-data
// sentinel.
type EnrichedTract struct {
	Tract
	Metric Value             `json:"metric"`
	Colors map[string]string `json:"colors"`
}

// RunStatus represents the state of an analysis run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunParams records the knobs an analysis run was started with.
type RunParams struct {
	Mode        string   `json:"mode"`
	Classes     int      `json:"classes"`
	Methods     []string `json:"methods"`
	Ramp        string   `json:"ramp"`
	Categories  []int    `json:"categories,omitempty"`
	CapFraction float64  `json:"cap_fraction,omitempty"`
	LogVariant  bool     `json:"log_variant,omitempty"`
}

// Run is one persisted analysis run.
type Run struct {
	ID        string     `json:"id"`
	Params    RunParams  `json:"params"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult is the persisted outcome of a run: breaks and colors per
// classification variant plus join diagnostics. Geometry is not repeated
// here; the GeoJSON artifact carries it.
type RunResult struct {
	UnitsTotal    int                     `json:"units_total"`
	UnitsWithData int                     `json:"units_with_data"`
	UnitsMissing  int                     `json:"units_missing"`
	MissingIDs    []string                `json:"missing_ids,omitempty"`
	Variants      map[string]VariantBreak `json:"variants"`
	Summary       MetricSummary           `json:"summary"`
	Warnings      []string                `json:"warnings,omitempty"`
	Error         string                  `json:"error,omitempty"`
}

// VariantBreak holds the class boundaries and legend labels computed for one
// classification variant.
type VariantBreak struct {
	Breaks []float64 `json:"breaks"`
	Legend []string  `json:"legend,omitempty"`
}

// MetricSummary describes the distribution of the classified metric.
type MetricSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}
