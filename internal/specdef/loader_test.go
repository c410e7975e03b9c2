package specdef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitat-rural/ovreport/internal/report"
)

const validDef = `
report: etat_avancement: {
	display_name: "Etat d'avancement"
	category:     "programmes"
	description:  "Avancement des chantiers par wilaya."
	output:       "etat_avancement_{year}.xlsx"
	requires: [
		{name: "journal_chantiers", pattern: "^journal_chantiers.*\\.xlsx$", readable: "Journal_chantiers_*.xlsx", table: "chantiers"},
	]
	queries: [
		{name: "overview", sql: "SELECT wilaya, COUNT(*) AS nb FROM chantiers GROUP BY wilaya"},
		{name: "retards", sql: "SELECT * FROM chantiers WHERE etat = 'retard'"},
	]
}
`

func writeDefs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoad_ValidDefinition(t *testing.T) {
	dir := writeDefs(t, map[string]string{"reports.cue": validDef})

	result, errs := Load(dir, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, result.Specs, 1)
	assert.Equal(t, 1, result.FileCount)

	spec := result.Specs[0]
	assert.Equal(t, "etat_avancement", spec.Name)
	assert.Equal(t, "Etat d'avancement", spec.DisplayName)
	require.Len(t, spec.RequiredFiles, 1)
	assert.Equal(t, "chantiers", spec.RequiredFiles[0].TableName)
	assert.True(t, spec.RequiredFiles[0].Matches("Journal_chantiers__ADRAR.xlsx"))
	assert.Equal(t, []string{"overview", "retards"}, spec.QueryNames())
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, errs := Load(filepath.Join(t.TempDir(), "nope"), LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "not found")
}

func TestLoad_NoCUEFiles(t *testing.T) {
	_, errs := Load(t.TempDir(), LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no CUE files")
}

func TestLoad_InvalidPattern(t *testing.T) {
	dir := writeDefs(t, map[string]string{"bad.cue": `
report: broken: {
	display_name: "Broken"
	category:     "test"
	output:       "out.xlsx"
	requires: [
		{name: "bad", pattern: "[unclosed", readable: "bad", table: "bad"},
	]
	queries: [
		{name: "q", sql: "SELECT 1"},
	]
}
`})

	_, errs := Load(dir, LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "compile pattern")
}

func TestLoad_CollectAllKeepsGoodReports(t *testing.T) {
	dir := writeDefs(t, map[string]string{"mixed.cue": validDef + `
report: broken: {
	display_name: "Broken"
	category:     "test"
	output:       "out.xlsx"
	requires: []
	queries: [
		{name: "q", sql: "SELECT 1"},
	]
}
`})

	result, errs := Load(dir, LoadModeCollectAll)
	require.Len(t, errs, 1)
	require.Len(t, result.Specs, 1)
	assert.Equal(t, "etat_avancement", result.Specs[0].Name)
}

func TestBuildRegistry_BuiltinOnly(t *testing.T) {
	reg, err := BuildRegistry("")
	require.NoError(t, err)
	assert.True(t, reg.Has(report.SuiviPaiements))
	assert.True(t, reg.Has(report.SituationProgramme))
}

func TestBuildRegistry_MergesLoadedDefinitions(t *testing.T) {
	dir := writeDefs(t, map[string]string{"reports.cue": validDef})

	reg, err := BuildRegistry(dir)
	require.NoError(t, err)
	assert.True(t, reg.Has(report.SuiviPaiements))
	assert.True(t, reg.Has("etat_avancement"))
}

func TestBuildRegistry_RejectsBuiltinNameCollision(t *testing.T) {
	dir := writeDefs(t, map[string]string{"clash.cue": `
report: suivi_paiements: {
	display_name: "Clash"
	category:     "test"
	output:       "out.xlsx"
	requires: [
		{name: "f", pattern: "^f\\.xlsx$", readable: "f.xlsx", table: "f"},
	]
	queries: [
		{name: "q", sql: "SELECT 1"},
	]
}
`})

	_, err := BuildRegistry(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate report name")
}
