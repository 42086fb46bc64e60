// Package ibge loads census-sector geometry from IBGE shapefile
// distributions, over HTTP mirrors or the IBGE FTP tree.
package ibge

import (
	"math"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	geokey "github.com/setorlab/choromap/internal/geo"
	"github.com/setorlab/choromap/internal/model"
)

// Attribute names tried, in order, for each tract field. IBGE renamed the
// sector id column between the 2010 and 2022 releases.
var (
	idFields   = []string{"CD_SETOR", "CD_GEOCODI", "CD_GEOCODB", "GEOID", "ID"}
	nameFields = []string{"NM_BAIRRO", "NM_DIST", "NM_SUBDIST", "NAME"}
	areaFields = []string{"AREA_KM2", "AREA_KM", "AREA"}
)

// LoadTracts reads a census-sector shapefile into reference tracts. Sector
// ids are key-normalized here, at the boundary. Area comes from the DBF
// attribute when present; otherwise it is approximated from the polygon in
// geographic coordinates. Records without an id or a usable polygon are
// skipped and counted.
func LoadTracts(shpPath string) ([]model.Tract, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ibge: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map.
	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToUpper(name)] = i
	}
	idIdx := firstField(fieldIdx, idFields)
	if idIdx < 0 {
		return nil, eris.Errorf("ibge: no sector id field found (tried %v)", idFields)
	}
	nameIdx := firstField(fieldIdx, nameFields)
	areaIdx := firstField(fieldIdx, areaFields)

	var tracts []model.Tract
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		id := geokey.NormalizeKey(attr(reader, idIdx))
		if id == "" {
			skipped++
			continue
		}

		poly, ok := toPolygon(shape)
		if !ok {
			skipped++
			continue
		}

		area := 0.0
		if areaIdx >= 0 {
			area, _ = strconv.ParseFloat(strings.ReplaceAll(attr(reader, areaIdx), ",", "."), 64)
		}
		if area <= 0 {
			area = approxAreaKM2(poly)
		}

		tracts = append(tracts, model.Tract{
			ID:       id,
			Name:     attr(reader, nameIdx),
			AreaKM2:  area,
			Geometry: poly,
		})
	}

	if skipped > 0 {
		zap.L().Debug("ibge: skipped shapefile records", zap.Int("skipped", skipped))
	}
	zap.L().Info("ibge: shapefile loaded",
		zap.String("path", shpPath),
		zap.Int("tracts", len(tracts)),
	)
	return tracts, nil
}

func firstField(fieldIdx map[string]int, candidates []string) int {
	for _, name := range candidates {
		if i, ok := fieldIdx[name]; ok {
			return i
		}
	}
	return -1
}

func attr(reader *shp.Reader, idx int) string {
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
}

// toPolygon converts a shapefile polygon record into a go-geom polygon.
// Multi-part records keep all rings; non-polygon shapes are rejected.
func toPolygon(shape shp.Shape) (*geom.Polygon, bool) {
	p, ok := shape.(*shp.Polygon)
	if !ok || len(p.Points) == 0 {
		return nil, false
	}

	parts := append([]int32(nil), p.Parts...)
	if len(parts) == 0 {
		parts = []int32{0}
	}

	poly := geom.NewPolygon(geom.XY)
	for i, start := range parts {
		end := len(p.Points)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		ring := make([]geom.Coord, 0, end-int(start))
		for _, pt := range p.Points[start:end] {
			ring = append(ring, geom.Coord{pt.X, pt.Y})
		}
		if len(ring) < 4 {
			continue
		}
		poly.Push(geom.NewLinearRing(geom.XY).MustSetCoords(ring))
	}
	if poly.NumLinearRings() == 0 {
		return nil, false
	}
	return poly, true
}

// Kilometers per degree of latitude (longitude scales by cos of latitude).
const (
	kmPerDegLat = 110.574
	kmPerDegLon = 111.320
)

// approxAreaKM2 estimates a polygon's area from geographic coordinates by
// the shoelace formula scaled at the polygon's mean latitude. Rough, but
// only used when the DBF carries no area attribute; census sectors are
// small enough that the flat-earth error is well under a percent.
func approxAreaKM2(poly *geom.Polygon) float64 {
	if poly.NumLinearRings() == 0 {
		return 0
	}

	total := 0.0
	for r := 0; r < poly.NumLinearRings(); r++ {
		coords := poly.LinearRing(r).Coords()
		if len(coords) < 3 {
			continue
		}
		meanLat := 0.0
		for _, c := range coords {
			meanLat += c[1]
		}
		meanLat /= float64(len(coords))

		shoelace := 0.0
		for i := 0; i < len(coords); i++ {
			j := (i + 1) % len(coords)
			shoelace += coords[i][0]*coords[j][1] - coords[j][0]*coords[i][1]
		}
		areaDeg2 := math.Abs(shoelace) / 2
		ringArea := areaDeg2 * kmPerDegLat * kmPerDegLon * math.Cos(meanLat*math.Pi/180)

		// First ring is the shell; the rest are holes.
		if r == 0 {
			total += ringArea
		} else {
			total -= ringArea
		}
	}
	if total < 0 {
		return 0
	}
	return total
}
