package xlsx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitat-rural/ovreport/internal/table"
)

func TestWorkbookRoundTrip(t *testing.T) {
	tbl := table.New("wilaya", "commune", "montant")
	tbl.Append("Adrar", "Reggane", float64(700000))
	tbl.Append("Bechar", "Abadla", float64(500000))

	path := filepath.Join(t.TempDir(), "out.xlsx")

	wb := NewWorkbook()
	require.NoError(t, wb.WriteSheet("overview", tbl))
	require.NoError(t, wb.Save(path))
	require.NoError(t, wb.Close())

	got, err := ReadTable(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"wilaya", "commune", "montant"}, got.Columns)
	require.Equal(t, 2, got.NumRows())
	assert.Equal(t, []any{"Adrar", "Reggane", float64(700000)}, got.Rows[0])
	assert.Equal(t, []any{"Bechar", "Abadla", float64(500000)}, got.Rows[1])
}

func TestWorkbook_MultipleSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multi.xlsx")

	first := table.New("a")
	first.Append("1")
	second := table.New("b")
	second.Append("2")

	wb := NewWorkbook()
	require.NoError(t, wb.WriteSheet("first", first))
	require.NoError(t, wb.WriteSheet("second", second))
	require.NoError(t, wb.Save(path))
	require.NoError(t, wb.Close())

	// The first written sheet stays first.
	got, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Columns)
}

func TestWorkbook_SaveWithoutSheets(t *testing.T) {
	wb := NewWorkbook()
	defer wb.Close()

	err := wb.Save(filepath.Join(t.TempDir(), "empty.xlsx"))
	require.Error(t, err)
}

func TestReadTable_MissingFile(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
}

func TestReadTable_SkipsBlankRowsAndPads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gaps.xlsx")

	tbl := table.New("a", "b", "c")
	tbl.Append("x", nil, nil)

	wb := NewWorkbook()
	require.NoError(t, wb.WriteSheet("data", tbl))
	require.NoError(t, wb.Save(path))
	require.NoError(t, wb.Close())

	got, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got.Columns)
	require.Equal(t, 1, got.NumRows())
	assert.Equal(t, []any{"x", nil, nil}, got.Rows[0])
}

func TestSanitizeSheetName(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"overview", "overview"},
		{"totaux/wilaya", "totaux_wilaya"},
		{"a[b]c:d", "a_b_c_d"},
		{"", "Sheet"},
		{"this_query_name_is_way_longer_than_the_limit", "this_query_name_is_way_longer_t"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got := sanitizeSheetName(tc.in)
			assert.Equal(t, tc.want, got)
			assert.LessOrEqual(t, len(got), maxSheetName)
		})
	}
}
