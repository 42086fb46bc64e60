// Package source reads point-of-interest event extracts from CSV and XLSX
// files. Sector identifiers are key-normalized at this boundary so every
// downstream join sees one identifier scheme.
package source

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/setorlab/choromap/internal/geo"
	"github.com/setorlab/choromap/internal/model"
)

// Columns names the spreadsheet columns holding each event field. UnitID
// and Category are required; the rest are optional provenance.
type Columns struct {
	UnitID   string
	Category string
	Name     string
	Lat      string
	Lon      string
}

// CSVOptions configures the CSV event reader.
type CSVOptions struct {
	Columns   Columns
	Delimiter rune // default ','
}

// ReadCSV parses events from a CSV stream with a header row. Rows with an
// empty unit id or an unparsable category are skipped and counted, not
// fatal: a handful of malformed rows must not abort a municipal extract.
func ReadCSV(r io.Reader, opts CSVOptions) ([]model.RawEvent, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "source: read csv header")
	}
	idx, err := headerIndex(header, opts.Columns)
	if err != nil {
		return nil, err
	}

	var events []model.RawEvent
	var skipped int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "source: read csv row")
		}
		ev, ok := parseEvent(record, idx)
		if !ok {
			skipped++
			continue
		}
		events = append(events, ev)
	}

	if skipped > 0 {
		zap.L().Warn("source: skipped malformed csv rows", zap.Int("skipped", skipped))
	}
	return events, nil
}

// colIndex maps event fields to column positions; -1 means absent.
type colIndex struct {
	unitID, category, name, lat, lon int
}

func headerIndex(header []string, cols Columns) (colIndex, error) {
	if cols.UnitID == "" || cols.Category == "" {
		return colIndex{}, eris.New("source: unit id and category column names are required")
	}

	find := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	idx := colIndex{
		unitID:   find(cols.UnitID),
		category: find(cols.Category),
		name:     -1,
		lat:      -1,
		lon:      -1,
	}
	if idx.unitID < 0 {
		return colIndex{}, eris.Errorf("source: unit id column %q not found", cols.UnitID)
	}
	if idx.category < 0 {
		return colIndex{}, eris.Errorf("source: category column %q not found", cols.Category)
	}
	if cols.Name != "" {
		idx.name = find(cols.Name)
	}
	if cols.Lat != "" {
		idx.lat = find(cols.Lat)
	}
	if cols.Lon != "" {
		idx.lon = find(cols.Lon)
	}
	return idx, nil
}

func parseEvent(record []string, idx colIndex) (model.RawEvent, bool) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	id := geo.NormalizeKey(field(idx.unitID))
	if id == "" {
		return model.RawEvent{}, false
	}

	catField := field(idx.category)
	// Category codes sometimes arrive float-formatted ("4711.0").
	if i := strings.IndexByte(catField, '.'); i >= 0 {
		catField = catField[:i]
	}
	category, err := strconv.Atoi(catField)
	if err != nil {
		return model.RawEvent{}, false
	}

	ev := model.RawEvent{
		UnitID:   id,
		Category: category,
		Name:     field(idx.name),
	}
	if v, err := strconv.ParseFloat(field(idx.lat), 64); err == nil {
		ev.Lat = v
	}
	if v, err := strconv.ParseFloat(field(idx.lon), 64); err == nil {
		ev.Lon = v
	}
	return ev, true
}
