// Package export serializes a result set into one output artifact.
//
// The service is polymorphic over exactly one capability: writing a named
// table as a worksheet. The workbook strategy is the standard sink; other
// sinks plug in through the Strategy interface.
package export

import (
	"errors"
	"fmt"

	"github.com/habitat-rural/ovreport/internal/query"
	"github.com/habitat-rural/ovreport/internal/xlsx"
)

// ExportError wraps any writer-level failure during export. No partial
// artifact is guaranteed to be left on disk.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// IsExportError reports whether err is an ExportError.
func IsExportError(err error) bool {
	var ee *ExportError
	return errors.As(err, &ee)
}

// Strategy writes a full result set to an output path, one named table at
// a time, in result-set order.
type Strategy interface {
	Export(results *query.ResultSet, outputPath string) error
}

// Service exports result sets through a pluggable strategy.
type Service struct {
	strategy Strategy
}

// NewService creates a Service. A nil strategy defaults to the workbook
// strategy.
func NewService(strategy Strategy) *Service {
	if strategy == nil {
		strategy = WorkbookStrategy{}
	}
	return &Service{strategy: strategy}
}

// ExportResults writes results to outputPath. An empty result set is a
// no-op: the service returns without creating or touching any file.
func (s *Service) ExportResults(results *query.ResultSet, outputPath string) error {
	if results == nil || results.Empty() {
		return nil
	}
	if err := s.strategy.Export(results, outputPath); err != nil {
		var ee *ExportError
		if errors.As(err, &ee) {
			return err
		}
		return &ExportError{Path: outputPath, Err: err}
	}
	return nil
}

// WorkbookStrategy writes one worksheet per result, in result-set order:
// a header row with the table's column names, then one row per record.
type WorkbookStrategy struct{}

// Export implements Strategy.
func (WorkbookStrategy) Export(results *query.ResultSet, outputPath string) error {
	wb := xlsx.NewWorkbook()
	defer wb.Close()

	for _, name := range results.Names() {
		tbl, ok := results.Get(name)
		if !ok {
			// Names() and Get agree by construction.
			continue
		}
		if err := wb.WriteSheet(name, tbl); err != nil {
			return &ExportError{Path: outputPath, Err: err}
		}
	}
	if err := wb.Save(outputPath); err != nil {
		return &ExportError{Path: outputPath, Err: err}
	}
	return nil
}
