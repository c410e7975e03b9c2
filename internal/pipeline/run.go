// Package pipeline runs one full report generation: validate the input
// files, load them into a fresh analytic dataset, execute the report's
// queries and export the surviving results as a workbook.
//
// A run is fully synchronous and single-threaded. The dataset is the only
// scoped resource: acquired after validation, released on every exit path.
// There is no retry anywhere; per-query failures are skipped inside
// generation, everything else propagates immediately.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/habitat-rural/ovreport/internal/analytics"
	"github.com/habitat-rural/ovreport/internal/export"
	"github.com/habitat-rural/ovreport/internal/query"
	"github.com/habitat-rural/ovreport/internal/report"
	"github.com/habitat-rural/ovreport/internal/validate"
	"github.com/habitat-rural/ovreport/internal/xlsx"
)

// Options configures one pipeline run.
type Options struct {
	// Registry resolves the report name. Required.
	Registry *report.Registry

	// Report is the registry name of the report to generate. Required.
	Report string

	// Files are the candidate input paths.
	Files []string

	// OutputPath is where the workbook is written.
	OutputPath string

	// QueryNames restricts generation to a subset of the report's
	// queries. Nil means every catalog entry.
	QueryNames []string

	// Params are the template substitution values ({month}, {year}, ...).
	Params map[string]string

	// Strategy overrides the export sink. Nil means the workbook strategy.
	Strategy export.Strategy
}

// Summary describes a completed run.
type Summary struct {
	RunToken  string
	Report    string
	Loaded    int
	Generated []string
	Output    string
}

// Run executes the whole pipeline for one report.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	token := uuid.NewString()
	log := slog.With("run", token, "report", opts.Report)

	spec, err := opts.Registry.Get(opts.Report)
	if err != nil {
		return nil, err
	}

	log.Info("validating input files", "candidates", len(opts.Files))
	match, err := validate.Validate(opts.Registry, opts.Report, opts.Files)
	if err != nil {
		return nil, err
	}
	for _, extra := range match.Unmatched {
		log.Debug("ignoring unmatched file", "path", extra)
	}

	ds, err := analytics.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := ds.Close(); closeErr != nil {
			log.Error("closing analytic store", "error", closeErr)
		}
	}()

	// Load in required-file declaration order for reproducible runs.
	loaded := 0
	for _, rf := range spec.RequiredFiles {
		path := match.Matched[rf.TableName]
		tbl, err := xlsx.ReadTable(path)
		if err != nil {
			return nil, &analytics.LoadError{Table: rf.TableName, Path: path, Err: err}
		}
		if err := ds.Load(ctx, rf.TableName, tbl); err != nil {
			if le, ok := err.(*analytics.LoadError); ok {
				le.Path = path
			}
			return nil, err
		}
		log.Info("table loaded", "table", rf.TableName, "rows", tbl.NumRows())
		loaded++
	}

	catalog := query.NewCatalog(spec)
	results := catalog.Generate(ctx, ds, opts.QueryNames, opts.Params)
	log.Info("queries generated", "requested", requestedCount(opts.QueryNames, catalog), "produced", results.Len())

	svc := export.NewService(opts.Strategy)
	if err := svc.ExportResults(results, opts.OutputPath); err != nil {
		return nil, err
	}
	if results.Empty() {
		log.Warn("no query produced a result, nothing exported")
	} else {
		log.Info("workbook written", "path", opts.OutputPath, "sheets", results.Len())
	}

	return &Summary{
		RunToken:  token,
		Report:    spec.Name,
		Loaded:    loaded,
		Generated: results.Names(),
		Output:    opts.OutputPath,
	}, nil
}

func requestedCount(names []string, catalog *query.Catalog) int {
	if names == nil {
		return len(catalog.Names())
	}
	return len(names)
}

// DescribeRun renders a short human-readable summary for CLI output.
func DescribeRun(s *Summary) string {
	if len(s.Generated) == 0 {
		return fmt.Sprintf("report %s: no results produced, no workbook written", s.Report)
	}
	return fmt.Sprintf("report %s: %d tables loaded, %d sheets written to %s",
		s.Report, s.Loaded, len(s.Generated), s.Output)
}
