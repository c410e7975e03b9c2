package report

import (
	"fmt"
	"regexp"
)

// RequiredFile declares one mandatory input of a report: a file-name pattern
// and the analytic table its contents become queryable under.
type RequiredFile struct {
	// Name identifies the requirement (for diagnostics).
	Name string

	// Pattern is the regular expression a candidate's base name must match.
	// Matching is always case-insensitive.
	Pattern string

	// ReadablePattern is the human-readable form of Pattern, shown in
	// error messages (e.g. "Journal_paiements__Agence_WILAYA_JJ.MM.AAAA_CODE.xlsx").
	ReadablePattern string

	// TableName is the key under which a matched file's contents are loaded
	// into the analytic dataset. Distinct within one specification.
	TableName string

	re *regexp.Regexp
}

// NewRequiredFile compiles the pattern (case-insensitive) and returns the
// requirement. Fails if the pattern is not a valid regular expression.
func NewRequiredFile(name, pattern, readable, tableName string) (RequiredFile, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return RequiredFile{}, fmt.Errorf("required file %q: compile pattern %q: %w", name, pattern, err)
	}
	return RequiredFile{
		Name:            name,
		Pattern:         pattern,
		ReadablePattern: readable,
		TableName:       tableName,
		re:              re,
	}, nil
}

// MustRequiredFile is NewRequiredFile that panics on an invalid pattern.
// Intended for the builtin specifications, where patterns are constants.
func MustRequiredFile(name, pattern, readable, tableName string) RequiredFile {
	rf, err := NewRequiredFile(name, pattern, readable, tableName)
	if err != nil {
		panic(err)
	}
	return rf
}

// Matches reports whether the given base name satisfies the pattern.
func (rf RequiredFile) Matches(baseName string) bool {
	return rf.re.MatchString(baseName)
}

// Specification is the declarative definition of one report: its inputs,
// its queries and its output shape. Immutable after construction.
type Specification struct {
	// Name is the unique registry key.
	Name string

	// DisplayName is the human-facing title.
	DisplayName string

	// Category groups related reports (e.g. "paiements", "programmes").
	Category string

	// Description explains what the report shows.
	Description string

	// RequiredFiles lists the mandatory inputs in declaration order.
	// The validator scans them in this order; the first matching pattern
	// wins for a given candidate file.
	RequiredFiles []RequiredFile

	// OutputFilename is the template for the produced workbook's name
	// (placeholders resolved by the caller, same brace convention as
	// query templates).
	OutputFilename string

	// Generator names the downstream formatter that post-processes the
	// workbook. Informational only; resolution happens outside the
	// pipeline.
	Generator string

	queryNames []string
	queries    map[string]string
}

// NewSpecification validates and builds a Specification. Query templates
// are given as ordered (name, sql) pairs; their order is the catalog order
// used when no explicit query selection is made.
func NewSpecification(name, displayName, category, description, outputFilename string, required []RequiredFile, queries []Query) (*Specification, error) {
	if name == "" {
		return nil, fmt.Errorf("specification: name is required")
	}
	if len(required) == 0 {
		return nil, fmt.Errorf("specification %q: at least one required file", name)
	}
	seen := make(map[string]bool, len(required))
	for _, rf := range required {
		if rf.TableName == "" {
			return nil, fmt.Errorf("specification %q: required file %q: empty table name", name, rf.Name)
		}
		if seen[rf.TableName] {
			return nil, fmt.Errorf("specification %q: duplicate table name %q", name, rf.TableName)
		}
		seen[rf.TableName] = true
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("specification %q: at least one query", name)
	}
	spec := &Specification{
		Name:           name,
		DisplayName:    displayName,
		Category:       category,
		Description:    description,
		RequiredFiles:  required,
		OutputFilename: outputFilename,
		queryNames:     make([]string, 0, len(queries)),
		queries:        make(map[string]string, len(queries)),
	}
	for _, q := range queries {
		if q.Name == "" {
			return nil, fmt.Errorf("specification %q: query with empty name", name)
		}
		if _, dup := spec.queries[q.Name]; dup {
			return nil, fmt.Errorf("specification %q: duplicate query %q", name, q.Name)
		}
		spec.queryNames = append(spec.queryNames, q.Name)
		spec.queries[q.Name] = q.SQL
	}
	return spec, nil
}

// Query is one named SQL template of a specification.
type Query struct {
	Name string
	SQL  string
}

// QueryNames returns the query names in catalog order (copied).
func (s *Specification) QueryNames() []string {
	out := make([]string, len(s.queryNames))
	copy(out, s.queryNames)
	return out
}

// QuerySQL returns the template for a query name.
func (s *Specification) QuerySQL(name string) (string, bool) {
	sql, ok := s.queries[name]
	return sql, ok
}
