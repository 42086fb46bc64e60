package source

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/setorlab/choromap/internal/model"
)

// XLSXOptions configures the XLSX event reader.
type XLSXOptions struct {
	Columns    Columns
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadXLSX parses events from a spreadsheet. The first row of the sheet is
// the header; malformed rows are skipped and counted like in ReadCSV.
func ReadXLSX(path string, opts XLSXOptions) ([]model.RawEvent, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open xlsx %s", path)
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("source: sheet %q is empty", sheet.Name)
	}

	idx, err := headerIndex(rowToStrings(sheet.Rows[0]), opts.Columns)
	if err != nil {
		return nil, err
	}

	var events []model.RawEvent
	var skipped int
	for _, row := range sheet.Rows[1:] {
		ev, ok := parseEvent(rowToStrings(row), idx)
		if !ok {
			skipped++
			continue
		}
		events = append(events, ev)
	}

	if skipped > 0 {
		zap.L().Warn("source: skipped malformed xlsx rows",
			zap.String("sheet", sheet.Name),
			zap.Int("skipped", skipped),
		)
	}
	return events, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("source: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("source: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
