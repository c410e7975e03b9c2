// Package xlsx is the spreadsheet boundary of the pipeline: it reads ledger
// exports into tables and writes result tables as workbook sheets.
//
// Cell-level encoding is its concern alone: numeric-looking cells become
// float64, everything else string, and sheet names are sanitized to what
// the workbook format accepts.
package xlsx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/habitat-rural/ovreport/internal/table"
)

// maxSheetName is the workbook format's sheet title limit.
const maxSheetName = 31

// ReadTable reads the first sheet of the workbook at path. The first row is
// the header; data rows are trimmed or padded to the header width.
func ReadTable(path string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s: no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheets[0], path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook %s: sheet %q is empty", path, sheets[0])
	}

	header := trimTrailingEmpty(rows[0])
	if len(header) == 0 {
		return nil, fmt.Errorf("workbook %s: header row is empty", path)
	}

	tbl := table.New(header...)
	for _, raw := range rows[1:] {
		if allEmpty(raw) {
			continue
		}
		row := make([]any, len(header))
		for i := range header {
			if i < len(raw) {
				row[i] = parseCell(raw[i])
			}
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl, nil
}

// parseCell maps a raw cell onto the Table cell types: nil for empty,
// float64 for numeric-looking values, string otherwise.
func parseCell(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}

func trimTrailingEmpty(cells []string) []string {
	end := len(cells)
	for end > 0 && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}
	return cells[:end]
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Workbook accumulates sheets and saves them as one output artifact.
type Workbook struct {
	f      *excelize.File
	sheets int
}

// NewWorkbook creates an empty workbook. Callers must Close it.
func NewWorkbook() *Workbook {
	return &Workbook{f: excelize.NewFile()}
}

// WriteSheet appends one sheet: a header row with the table's column names,
// then one row per record, both in source order. The sheet title is
// sanitized and truncated to the format's limit.
func (w *Workbook) WriteSheet(name string, tbl *table.Table) error {
	title := sanitizeSheetName(name)

	if w.sheets == 0 {
		// Reuse the default sheet excelize creates.
		if err := w.f.SetSheetName(w.f.GetSheetName(0), title); err != nil {
			return fmt.Errorf("rename sheet to %q: %w", title, err)
		}
	} else {
		if _, err := w.f.NewSheet(title); err != nil {
			return fmt.Errorf("create sheet %q: %w", title, err)
		}
	}
	w.sheets++

	header := make([]any, len(tbl.Columns))
	for i, c := range tbl.Columns {
		header[i] = c
	}
	if err := w.f.SetSheetRow(title, "A1", &header); err != nil {
		return fmt.Errorf("write header of %q: %w", title, err)
	}

	for i, row := range tbl.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("sheet %q row %d: %w", title, i+2, err)
		}
		if err := w.f.SetSheetRow(title, cell, &row); err != nil {
			return fmt.Errorf("write row %d of %q: %w", i+2, title, err)
		}
	}
	return nil
}

// Save writes the workbook to path.
func (w *Workbook) Save(path string) error {
	if w.sheets == 0 {
		return fmt.Errorf("save workbook: no sheets written")
	}
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying file resources.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// invalidSheetChars are forbidden in workbook sheet titles.
const invalidSheetChars = `[]:*?/\`

// sanitizeSheetName strips forbidden characters and truncates to the
// format's length limit.
func sanitizeSheetName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(invalidSheetChars, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	title := b.String()
	if title == "" {
		title = "Sheet"
	}
	if len(title) > maxSheetName {
		title = title[:maxSheetName]
	}
	return title
}
