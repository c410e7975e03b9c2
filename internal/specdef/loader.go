// Package specdef loads declarative report definitions from CUE files and
// compiles them into immutable report specifications.
//
// A definition file declares reports under a top-level "report" struct:
//
//	report: etat_avancement: {
//		display_name: "Etat d'avancement"
//		category:     "programmes"
//		output:       "etat_avancement_{year}.xlsx"
//		requires: [
//			{name: "journal", pattern: "^journal_.*\\.xlsx$", readable: "Journal_*.xlsx", table: "journal"},
//		]
//		queries: [
//			{name: "overview", sql: "SELECT * FROM journal"},
//		]
//	}
//
// Compilation validates what the registry cannot express declaratively:
// patterns must compile as regular expressions, table names must be
// distinct, and every report needs at least one required file and one
// query.
package specdef

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/habitat-rural/ovreport/internal/report"
)

// LoadMode controls how compile errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadError is an error that occurred while loading definition files.
type LoadError struct {
	Report  string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Report, e.Message)
	}
	if e.Report != "" {
		return fmt.Sprintf("%s: %s", e.Report, e.Message)
	}
	return e.Message
}

// LoadResult holds the compiled specifications of one load call.
type LoadResult struct {
	Specs     []*report.Specification
	FileCount int
}

// requiredDef mirrors one entry of a definition's requires list.
type requiredDef struct {
	Name     string `json:"name"`
	Pattern  string `json:"pattern"`
	Readable string `json:"readable"`
	Table    string `json:"table"`
}

// queryDef mirrors one entry of a definition's queries list.
type queryDef struct {
	Name string `json:"name"`
	SQL  string `json:"sql"`
}

// reportDef mirrors one report definition as written in CUE.
type reportDef struct {
	DisplayName string        `json:"display_name"`
	Category    string        `json:"category"`
	Description string        `json:"description"`
	Output      string        `json:"output"`
	Generator   string        `json:"generator"`
	Requires    []requiredDef `json:"requires"`
	Queries     []queryDef    `json:"queries"`
}

// Load reads every .cue file in dir and compiles the declared reports.
// In fail-fast mode the first error aborts; in collect-all mode every
// compilable report is returned alongside the accumulated errors.
func Load(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Message: fmt.Sprintf("definitions directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Message: fmt.Sprintf("access definitions directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Message: fmt.Sprintf("scan directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{FileCount: len(cueFiles)}
	var errs []error

	reports := value.LookupPath(cue.ParsePath("report"))
	if !reports.Exists() {
		return result, []error{&LoadError{Message: `no top-level "report" struct found`}}
	}

	iter, err := reports.Fields()
	if err != nil {
		return result, []error{&LoadError{Message: fmt.Sprintf("iterating reports: %v", err)}}
	}
	for iter.Next() {
		spec, compileErr := compileReport(iter.Label(), iter.Value())
		if compileErr != nil {
			errs = append(errs, compileErr)
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Specs = append(result.Specs, spec)
	}

	if len(result.Specs) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Message: "no reports found in definitions"})
	}
	return result, errs
}

// compileReport turns one CUE report definition into a Specification.
func compileReport(name string, v cue.Value) (*report.Specification, error) {
	var def reportDef
	if err := v.Decode(&def); err != nil {
		return nil, &LoadError{Report: name, Message: fmt.Sprintf("decode definition: %v", err), Pos: v.Pos()}
	}

	required := make([]report.RequiredFile, 0, len(def.Requires))
	for _, r := range def.Requires {
		rf, err := report.NewRequiredFile(r.Name, r.Pattern, r.Readable, r.Table)
		if err != nil {
			return nil, &LoadError{Report: name, Message: err.Error(), Pos: v.Pos()}
		}
		required = append(required, rf)
	}

	queries := make([]report.Query, 0, len(def.Queries))
	for _, q := range def.Queries {
		queries = append(queries, report.Query{Name: q.Name, SQL: q.SQL})
	}

	spec, err := report.NewSpecification(name, def.DisplayName, def.Category,
		def.Description, def.Output, required, queries)
	if err != nil {
		return nil, &LoadError{Report: name, Message: err.Error(), Pos: v.Pos()}
	}
	spec.Generator = def.Generator
	return spec, nil
}

// BuildRegistry merges the builtin specifications with the definitions of
// an optional CUE directory. A loaded report may not reuse a builtin name.
func BuildRegistry(specsDir string) (*report.Registry, error) {
	builtin, err := report.BuiltinRegistry()
	if err != nil {
		return nil, err
	}
	if specsDir == "" {
		return builtin, nil
	}

	loaded, errs := Load(specsDir, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}

	all := make([]*report.Specification, 0, len(loaded.Specs)+2)
	for _, name := range builtin.Names() {
		spec, err := builtin.Get(name)
		if err != nil {
			return nil, err
		}
		all = append(all, spec)
	}
	all = append(all, loaded.Specs...)
	return report.NewRegistry(all...)
}

// findCUEFiles walks dir and returns every .cue file path.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
