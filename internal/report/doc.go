// Package report defines the immutable report specification model and the
// process-wide registry.
//
// A Specification declares everything one report needs: which input files
// must be present (RequiredFile patterns), which SQL templates run against
// the loaded dataset, and how the output workbook is named. Specifications
// are built once at startup, validated at construction, and shared read-only
// by every pipeline stage.
//
// The registry has no mutation operations: registration is fixed at
// construction, and there is no hot-reload.
package report
