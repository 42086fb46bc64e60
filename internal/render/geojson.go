// Package render turns enriched tracts into display artifacts: a GeoJSON
// FeatureCollection for the map layer and legend labels for the sidebar.
// The map renderer itself (tiles, pan/zoom, layer switching) lives outside
// this repository; it only ever sees these artifacts.
package render

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/setorlab/choromap/internal/model"
	"github.com/setorlab/choromap/internal/ramp"
)

// FeatureCollection builds a GeoJSON feature per tract. The metric is
// emitted as null for no-data sectors so viewers can distinguish absence
// from zero, and each classification variant contributes a fill_<variant>
// property holding either a hex color or the neutral no-data fill.
func FeatureCollection(enriched []model.EnrichedTract) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{}
	for _, et := range enriched {
		props := map[string]interface{}{
			"id":       et.ID,
			"area_km2": et.AreaKM2,
		}
		if et.Name != "" {
			props["name"] = et.Name
		}
		if et.Metric.Valid {
			props["value"] = et.Metric.Float64
		} else {
			props["value"] = nil
		}
		for variant, color := range et.Colors {
			props["fill_"+variant] = fillColor(color)
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         et.ID,
			Geometry:   et.Geometry,
			Properties: props,
		})
	}
	return fc, nil
}

// fillColor resolves the no-data token to the neutral fill; hex colors pass
// through untouched.
func fillColor(c string) string {
	if c == string(ramp.NoData) {
		return ramp.NoDataFill
	}
	return c
}

// WriteFile marshals the enriched tracts to a GeoJSON file.
func WriteFile(path string, enriched []model.EnrichedTract) error {
	fc, err := FeatureCollection(enriched)
	if err != nil {
		return err
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "render: marshal feature collection")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "render: write %s", path)
	}
	return nil
}
