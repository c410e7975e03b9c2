// Package query holds a report's named SQL templates and runs them against
// the loaded dataset.
//
// Batch generation is resilient by contract: a query that fails to resolve,
// fails the mutation guard, or raises during execution is skipped, and the
// result set simply omits its name. One bad query never aborts the batch.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/habitat-rural/ovreport/internal/report"
)

// NotFoundError is returned when a query name is not in the catalog.
// The message enumerates every available name.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown query %q: available queries are %s",
		e.Name, strings.Join(e.Available, ", "))
}

// IsNotFound reports whether err is a catalog NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Catalog is the static set of SQL templates of one report specification.
// Catalog order is the specification's query declaration order.
type Catalog struct {
	spec *report.Specification
}

// NewCatalog builds the catalog for a specification.
func NewCatalog(spec *report.Specification) *Catalog {
	return &Catalog{spec: spec}
}

// Names returns every query name in catalog order.
func (c *Catalog) Names() []string {
	return c.spec.QueryNames()
}

// Available returns the full name → template mapping (copied).
func (c *Catalog) Available() map[string]string {
	out := make(map[string]string, len(c.spec.QueryNames()))
	for _, name := range c.spec.QueryNames() {
		sql, _ := c.spec.QuerySQL(name)
		out[name] = sql
	}
	return out
}

// Get returns the template for a name, or NotFoundError listing the
// available names.
func (c *Catalog) Get(name string) (string, error) {
	sql, ok := c.spec.QuerySQL(name)
	if !ok {
		return "", &NotFoundError{Name: name, Available: c.spec.QueryNames()}
	}
	return sql, nil
}

// deniedKeywords is the lexical mutation guard. Matching is coarse by
// design: a substring check on the upper-cased template, so a column
// literally named UPDATED_AT trips it. Do not replace with a parser.
var deniedKeywords = []string{"DROP", "DELETE", "TRUNCATE", "INSERT", "UPDATE", "ALTER"}

// ValidateQuery reports whether a template passes the mutation guard:
// false if the upper-cased text contains any denied keyword as a substring.
func ValidateQuery(sqlTemplate string) bool {
	upper := strings.ToUpper(sqlTemplate)
	for _, kw := range deniedKeywords {
		if strings.Contains(upper, kw) {
			return false
		}
	}
	return true
}
