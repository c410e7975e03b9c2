// Package table defines the tabular value type shared by every pipeline
// stage: the spreadsheet reader produces it, the analytic dataset loads and
// returns it, and the export strategy serializes it.
package table

// Table is an ordered, rectangular result: column names in declaration
// order and rows in source order. Cell values are either string or float64;
// nil marks an empty cell.
type Table struct {
	Columns []string
	Rows    [][]any
}

// New creates a Table with the given columns and no rows.
func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds one row. The row is stored as-is; callers are responsible
// for matching the column count.
func (t *Table) Append(row ...any) {
	t.Rows = append(t.Rows, row)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// NumRows returns the number of data rows (header excluded).
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// IsEmpty reports whether the table has no data rows.
func (t *Table) IsEmpty() bool {
	return len(t.Rows) == 0
}
