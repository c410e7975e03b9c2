package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpec(t *testing.T, name string) *Specification {
	t.Helper()
	rf := MustRequiredFile("input", `^`+name+`.*\.xlsx$`, name+".xlsx", name)
	spec, err := NewSpecification(name, name, "test", "", "out.xlsx",
		[]RequiredFile{rf},
		[]Query{{Name: "q", SQL: "SELECT 1"}})
	require.NoError(t, err)
	return spec
}

func TestRegistry_Get(t *testing.T) {
	reg, err := NewRegistry(testSpec(t, "alpha"), testSpec(t, "beta"))
	require.NoError(t, err)

	spec, err := reg.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", spec.Name)
}

func TestRegistry_GetUnknown_ListsAllNames(t *testing.T) {
	reg, err := NewRegistry(testSpec(t, "alpha"), testSpec(t, "beta"))
	require.NoError(t, err)

	_, err = reg.Get("unknown")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "alpha")
	assert.Contains(t, err.Error(), "beta")
}

func TestRegistry_Has(t *testing.T) {
	reg, err := NewRegistry(testSpec(t, "alpha"))
	require.NoError(t, err)

	assert.True(t, reg.Has("alpha"))
	assert.False(t, reg.Has("beta"))
}

func TestRegistry_All_IsSnapshot(t *testing.T) {
	reg, err := NewRegistry(testSpec(t, "alpha"), testSpec(t, "beta"))
	require.NoError(t, err)

	all := reg.All()
	assert.Len(t, all, 2)

	// Mutating the snapshot must not affect the registry.
	delete(all, "alpha")
	assert.True(t, reg.Has("alpha"))
}

func TestRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry(testSpec(t, "alpha"), testSpec(t, "alpha"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate report name "alpha"`)
}

func TestBuiltinRegistry(t *testing.T) {
	reg, err := BuiltinRegistry()
	require.NoError(t, err)

	assert.True(t, reg.Has(SuiviPaiements))
	assert.True(t, reg.Has(SituationProgramme))

	spec, err := reg.Get(SuiviPaiements)
	require.NoError(t, err)
	assert.Len(t, spec.RequiredFiles, 2)
	assert.Equal(t, TablePaiements, spec.RequiredFiles[0].TableName)
	assert.Equal(t, TableDecisions, spec.RequiredFiles[1].TableName)
	assert.NotEmpty(t, spec.QueryNames())
}
