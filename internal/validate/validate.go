// Package validate matches candidate input files against a report
// specification's required-file patterns.
//
// Matching is deterministic: candidates are processed in input order, and
// for each candidate the specification's required files are scanned in
// declaration order; the first pattern that matches the candidate's base
// name wins. When two candidates land on the same table, the later one
// overwrites the earlier (last-match-wins).
package validate

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/habitat-rural/ovreport/internal/report"
)

// MatchResult holds the outcome of one validation call. Built fresh per
// call; not persisted.
type MatchResult struct {
	// Matched maps a required file's TableName to the candidate path that
	// satisfied it. Keys are always TableNames of the specification.
	Matched map[string]string

	// Unmatched lists candidates that satisfied no pattern, in input order.
	// An unmatched file is not an error.
	Unmatched []string
}

// MissingInputError is returned when a candidate file does not exist on
// the filesystem. Validation aborts before any matching is attempted.
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("input file does not exist: %s", e.Path)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// UnsatisfiedError is returned when one or more required files have no
// match after all candidates are processed. It aggregates every unmet
// requirement; satisfied ones are never listed.
type UnsatisfiedError struct {
	Report string
	Unmet  []report.RequiredFile
}

func (e *UnsatisfiedError) Error() string {
	parts := make([]string, len(e.Unmet))
	for i, rf := range e.Unmet {
		parts[i] = fmt.Sprintf("%s (table %s)", rf.ReadablePattern, rf.TableName)
	}
	return fmt.Sprintf("report %q: missing required files: %s",
		e.Report, strings.Join(parts, "; "))
}

// IsUnsatisfied reports whether err is an UnsatisfiedError.
func IsUnsatisfied(err error) bool {
	var ue *UnsatisfiedError
	return errors.As(err, &ue)
}

// Validate matches candidateFiles against the named report's requirements.
//
// Fails with report.NotFoundError for an unknown report, MissingInputError
// if any candidate does not exist (checked before matching, fail-fast), and
// UnsatisfiedError if some required table has no matched file afterwards.
func Validate(reg *report.Registry, reportName string, candidateFiles []string) (*MatchResult, error) {
	spec, err := reg.Get(reportName)
	if err != nil {
		return nil, err
	}

	// Existence check over every candidate before any matching.
	for _, path := range candidateFiles {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, &MissingInputError{Path: path, Err: statErr}
		}
	}

	result := &MatchResult{Matched: make(map[string]string, len(spec.RequiredFiles))}
	for _, path := range candidateFiles {
		// Accented filenames arrive in mixed Unicode forms depending on
		// the uploader's platform; normalize before matching.
		base := norm.NFC.String(filepath.Base(path))

		matched := false
		for _, rf := range spec.RequiredFiles {
			if !rf.Matches(base) {
				continue
			}
			if prev, dup := result.Matched[rf.TableName]; dup {
				slog.Debug("duplicate match, keeping later file",
					"table", rf.TableName, "replaced", prev, "kept", path)
			}
			result.Matched[rf.TableName] = path
			matched = true
			break
		}
		if !matched {
			result.Unmatched = append(result.Unmatched, path)
		}
	}

	var unmet []report.RequiredFile
	for _, rf := range spec.RequiredFiles {
		if _, ok := result.Matched[rf.TableName]; !ok {
			unmet = append(unmet, rf)
		}
	}
	if len(unmet) > 0 {
		return nil, &UnsatisfiedError{Report: spec.Name, Unmet: unmet}
	}

	return result, nil
}
