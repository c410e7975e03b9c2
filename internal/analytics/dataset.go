// Package analytics provides the SQLite-backed analytic dataset the report
// queries run against.
//
// A Dataset is a single exclusively-owned in-memory database scoped to one
// pipeline run: acquired before loading, closed on every exit path. Loading
// creates one table per matched input file; execution runs the report SQL
// strictly sequentially against that one handle.
package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/habitat-rural/ovreport/internal/table"
)

// Dataset owns one SQLite connection for the duration of a pipeline run.
type Dataset struct {
	db *sql.DB
}

// LoadError wraps a storage-engine failure during table loading, together
// with the table (and source path, when known) that caused it.
type LoadError struct {
	Table string
	Path  string
	Err   error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load table %q from %s: %v", e.Table, e.Path, e.Err)
	}
	return fmt.Sprintf("load table %q: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ExecError wraps a storage-engine failure during query execution together
// with the SQL text that caused it.
type ExecError struct {
	SQL string
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("execute query: %v\nsql: %s", e.Err, e.SQL)
}

func (e *ExecError) Unwrap() error { return e.Err }

// IsExecError reports whether err is a query execution failure.
func IsExecError(err error) bool {
	var ee *ExecError
	return errors.As(err, &ee)
}

// Open creates a fresh in-memory dataset.
//
// SQLite is restricted to a single connection: the pipeline is strictly
// sequential, and :memory: databases are per-connection anyway.
func Open() (*Dataset, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open analytic store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect analytic store: %w", err)
	}
	return &Dataset{db: db}, nil
}

// Close releases the dataset. Safe to call on a nil-db dataset.
func (d *Dataset) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Load creates tableName from tbl and inserts every row inside one
// transaction. Column names are sanitized to SQL identifiers; columns whose
// values are all numeric become REAL, everything else TEXT.
func (d *Dataset) Load(ctx context.Context, tableName string, tbl *table.Table) error {
	if len(tbl.Columns) == 0 {
		return &LoadError{Table: tableName, Err: fmt.Errorf("table has no columns")}
	}

	cols := make([]string, len(tbl.Columns))
	seen := make(map[string]bool, len(tbl.Columns))
	for i, c := range tbl.Columns {
		name := sanitizeIdentifier(c)
		for seen[name] {
			name += "_"
		}
		seen[name] = true
		cols[i] = name
	}

	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%q %s", c, columnType(tbl, i))
	}
	createSQL := fmt.Sprintf("CREATE TABLE %q (%s)", tableName, strings.Join(defs, ", "))
	if _, err := d.db.ExecContext(ctx, createSQL); err != nil {
		return &LoadError{Table: tableName, Err: fmt.Errorf("create table: %w", err)}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %q VALUES (%s)", tableName, placeholders)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return &LoadError{Table: tableName, Err: fmt.Errorf("begin transaction: %w", err)}
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		tx.Rollback()
		return &LoadError{Table: tableName, Err: fmt.Errorf("prepare insert: %w", err)}
	}
	defer stmt.Close()

	for _, row := range tbl.Rows {
		vals := make([]any, len(cols))
		for i := range cols {
			if i < len(row) {
				vals[i] = row[i]
			}
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			tx.Rollback()
			return &LoadError{Table: tableName, Err: fmt.Errorf("insert row: %w", err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &LoadError{Table: tableName, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// Execute runs sqlText against the loaded tables and materializes the
// result. Column order and row order are exactly what the engine returned.
func (d *Dataset) Execute(ctx context.Context, sqlText string) (*table.Table, error) {
	rows, err := d.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, &ExecError{SQL: sqlText, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &ExecError{SQL: sqlText, Err: fmt.Errorf("read columns: %w", err)}
	}

	result := table.New(columns...)
	for rows.Next() {
		scan := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range scan {
			ptrs[i] = &scan[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &ExecError{SQL: sqlText, Err: fmt.Errorf("scan row: %w", err)}
		}
		result.Append(normalizeRow(scan)...)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecError{SQL: sqlText, Err: fmt.Errorf("iterate rows: %w", err)}
	}
	return result, nil
}

// normalizeRow maps driver values onto the Table cell types
// (string, float64 or nil).
func normalizeRow(scan []any) []any {
	out := make([]any, len(scan))
	for i, v := range scan {
		switch val := v.(type) {
		case nil:
			out[i] = nil
		case []byte:
			out[i] = string(val)
		case int64:
			out[i] = float64(val)
		case float64:
			out[i] = val
		case bool:
			if val {
				out[i] = float64(1)
			} else {
				out[i] = float64(0)
			}
		default:
			out[i] = fmt.Sprintf("%v", val)
		}
	}
	return out
}

var identifierClean = regexp.MustCompile(`[^a-z0-9_]+`)

// sanitizeIdentifier turns a spreadsheet header into a stable SQL column
// name: lower-cased, non-alphanumerics collapsed to underscores.
func sanitizeIdentifier(header string) string {
	name := strings.ToLower(strings.TrimSpace(header))
	name = identifierClean.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "col"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "c_" + name
	}
	return name
}

// columnType picks REAL when every non-nil value in the column is numeric,
// TEXT otherwise (including fully empty columns).
func columnType(tbl *table.Table, col int) string {
	numeric := false
	for _, row := range tbl.Rows {
		if col >= len(row) || row[col] == nil {
			continue
		}
		if _, ok := row[col].(float64); !ok {
			return "TEXT"
		}
		numeric = true
	}
	if numeric {
		return "REAL"
	}
	return "TEXT"
}
