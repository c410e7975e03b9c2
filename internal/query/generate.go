package query

import (
	"context"
	"log/slog"

	"github.com/habitat-rural/ovreport/internal/analytics"
	"github.com/habitat-rural/ovreport/internal/table"
)

// ResultSet maps query names to their result tables. Iteration order is the
// order the names were requested in; skipped queries leave no entry.
type ResultSet struct {
	names  []string
	tables map[string]*table.Table
}

// NewResultSet creates an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{tables: make(map[string]*table.Table)}
}

// Put appends a named result. A repeated name overwrites the table but
// keeps the original position.
func (rs *ResultSet) Put(name string, tbl *table.Table) {
	if _, ok := rs.tables[name]; !ok {
		rs.names = append(rs.names, name)
	}
	rs.tables[name] = tbl
}

// Names returns the result names in insertion order (copied).
func (rs *ResultSet) Names() []string {
	out := make([]string, len(rs.names))
	copy(out, rs.names)
	return out
}

// Get returns the table for a name.
func (rs *ResultSet) Get(name string) (*table.Table, bool) {
	tbl, ok := rs.tables[name]
	return tbl, ok
}

// Len returns the number of results.
func (rs *ResultSet) Len() int {
	return len(rs.names)
}

// Empty reports whether the set holds no results.
func (rs *ResultSet) Empty() bool {
	return len(rs.names) == 0
}

// outcome tags one query's fate during batch generation. Only successes
// reach the returned ResultSet; skips are logged and dropped.
type outcome struct {
	name       string
	tbl        *table.Table
	skipReason string
}

// Generate runs the named queries sequentially against the dataset and
// returns only the successful results.
//
// A nil names slice means every catalog entry, in catalog order. For each
// name the stages are: resolve the template, check the mutation guard,
// render placeholders, execute. A failure at any stage skips the name; the
// three failure paths are indistinguishable to the caller. The skip reason
// is logged at debug level only.
func (c *Catalog) Generate(ctx context.Context, ds *analytics.Dataset, names []string, params map[string]string) *ResultSet {
	if names == nil {
		names = c.Names()
	}

	results := NewResultSet()
	for _, name := range names {
		o := c.runOne(ctx, ds, name, params)
		if o.skipReason != "" {
			slog.Debug("query skipped", "query", o.name, "reason", o.skipReason)
			continue
		}
		results.Put(o.name, o.tbl)
	}
	return results
}

// runOne resolves, guards, renders and executes a single query.
func (c *Catalog) runOne(ctx context.Context, ds *analytics.Dataset, name string, params map[string]string) outcome {
	tmpl, err := c.Get(name)
	if err != nil {
		return outcome{name: name, skipReason: err.Error()}
	}
	if !ValidateQuery(tmpl) {
		return outcome{name: name, skipReason: "template rejected by mutation guard"}
	}
	sqlText, err := Render(tmpl, params)
	if err != nil {
		return outcome{name: name, skipReason: err.Error()}
	}
	tbl, err := ds.Execute(ctx, sqlText)
	if err != nil {
		return outcome{name: name, skipReason: err.Error()}
	}
	return outcome{name: name, tbl: tbl}
}
