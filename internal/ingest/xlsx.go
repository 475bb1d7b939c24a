package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/tablefare/enrich-cli/internal/model"
)

// ReadXLSX decodes a restaurant dataset from the first sheet of an XLSX
// workbook. The first row is the header.
func ReadXLSX(path string) ([]model.SourceRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, ErrEmptyDataset
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) < 1 {
		return nil, ErrEmptyDataset
	}

	header := headerIndex(rowToStrings(sheet.Rows[0]))

	var records []model.SourceRecord
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if allEmpty(cells) {
			continue
		}
		records = append(records, parseRow(header, cells))
	}
	return records, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
