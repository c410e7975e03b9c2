package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitat-rural/ovreport/internal/query"
	"github.com/habitat-rural/ovreport/internal/table"
	"github.com/habitat-rural/ovreport/internal/xlsx"
)

// recordingStrategy captures calls for assertions.
type recordingStrategy struct {
	calls int
	err   error
}

func (s *recordingStrategy) Export(results *query.ResultSet, outputPath string) error {
	s.calls++
	return s.err
}

func TestExportResults_EmptySetIsNoOp(t *testing.T) {
	strategy := &recordingStrategy{}
	svc := NewService(strategy)
	path := filepath.Join(t.TempDir(), "out.xlsx")

	require.NoError(t, svc.ExportResults(query.NewResultSet(), path))
	require.NoError(t, svc.ExportResults(nil, path))

	// No delegation, no file.
	assert.Zero(t, strategy.calls)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestExportResults_WrapsStrategyError(t *testing.T) {
	cause := errors.New("disk full")
	svc := NewService(&recordingStrategy{err: cause})

	rs := query.NewResultSet()
	rs.Put("sheet1", table.New("a"))

	err := svc.ExportResults(rs, "/tmp/out.xlsx")
	require.Error(t, err)
	assert.True(t, IsExportError(err))
	assert.ErrorIs(t, err, cause)
}

func TestWorkbookStrategy_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	tbl := table.New("a", "b")
	tbl.Append("x", float64(1))
	tbl.Append("y", float64(2))

	rs := query.NewResultSet()
	rs.Put("sheet1", tbl)

	svc := NewService(nil)
	require.NoError(t, svc.ExportResults(rs, path))

	// Re-reading the produced workbook reproduces column order and values.
	got, err := xlsx.ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Columns)
	require.Equal(t, 2, got.NumRows())
	assert.Equal(t, []any{"x", float64(1)}, got.Rows[0])
	assert.Equal(t, []any{"y", float64(2)}, got.Rows[1])
}

func TestWorkbookStrategy_BadOutputPath(t *testing.T) {
	rs := query.NewResultSet()
	rs.Put("sheet1", table.New("a"))

	err := WorkbookStrategy{}.Export(rs, filepath.Join(t.TempDir(), "missing_dir", "out.xlsx"))
	require.Error(t, err)
	assert.True(t, IsExportError(err))
}
