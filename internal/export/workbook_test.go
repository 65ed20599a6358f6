package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JonMunkholm/emrexport/internal/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testSet(t *testing.T) *core.TableSet {
	t.Helper()

	patients := core.MustTable("patient_data", []string{"pubpid", "sex"}, [][]any{
		{"P1", "Female"},
		{"P2", "Male"},
		{"P3", "Female"},
	})

	rows := make([][]any, 5)
	for i := range rows {
		rows[i] = []any{int64(i + 1), decimal.RequireFromString("177.8"), "note"}
	}
	vitals := core.MustTable("form_vitals", []string{"id", "height", "note"}, rows)

	set := core.NewTableSet()
	require.NoError(t, set.Add("patient_data", patients))
	require.NoError(t, set.Add("vitals", vitals))
	return set
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	name := Filename(ts)

	assert.Equal(t, "patient_data_export_20240309_140507.xlsx", name)
	assert.True(t, FileNameRegex.MatchString(name))
}

func TestWorkbook_Export(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewWorkbook(dir)
	w.now = fixedClock(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	path, err := w.Export(testSet(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "patient_data_export_20240102_030405.xlsx"), path)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	assert.Equal(t, "patient_data", f.Sheets[0].Name)
	assert.Equal(t, "vitals", f.Sheets[1].Name)

	patients := f.Sheets[0]
	require.Len(t, patients.Rows, 4)
	header := patients.Rows[0]
	require.Len(t, header.Cells, 2)
	assert.Equal(t, "pubpid", header.Cells[0].String())
	assert.Equal(t, "sex", header.Cells[1].String())
	assert.Equal(t, "P2", patients.Rows[2].Cells[0].String())

	vitals := f.Sheets[1]
	require.Len(t, vitals.Rows, 6)
	vh := vitals.Rows[0]
	require.Len(t, vh.Cells, 3)
	assert.Equal(t, "id", vh.Cells[0].String())
	assert.Equal(t, "note", vh.Cells[2].String())

	height, err := vitals.Rows[1].Cells[1].Float()
	require.NoError(t, err)
	assert.InDelta(t, 177.8, height, 1e-9)
}

func TestWorkbook_Export_KeepsWallClock(t *testing.T) {
	dob := time.Date(1980, 1, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600))
	seen := time.Date(2024, 5, 2, 14, 30, 0, 0, time.FixedZone("PKT", 5*3600))
	tbl := core.MustTable("patient_data", []string{"DOB", "date"}, [][]any{{dob, seen}})
	set := core.NewTableSet()
	require.NoError(t, set.Add("patient_data", tbl))

	w := NewWorkbook(t.TempDir())
	path, err := w.Export(set)
	require.NoError(t, err)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	cells := f.Sheets[0].Rows[1].Cells

	gotDOB, err := cells[0].GetTime(false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), gotDOB.Round(time.Second))

	gotSeen, err := cells[1].GetTime(false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 14, 30, 0, 0, time.UTC), gotSeen.Round(time.Second))
}

func TestWorkbook_Export_SameSecond(t *testing.T) {
	dir := t.TempDir()
	w := NewWorkbook(dir)
	w.now = fixedClock(time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC))

	first, err := w.Export(testSet(t))
	require.NoError(t, err)
	second, err := w.Export(testSet(t))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "patient_data_export_20240309_140507.xlsx", filepath.Base(first))
	assert.Equal(t, "patient_data_export_20240309_140507_1.xlsx", filepath.Base(second))
	assert.FileExists(t, first)
	assert.FileExists(t, second)

	files, err := w.List()
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = w.Path(filepath.Base(second))
	assert.NoError(t, err)
}

func TestWorkbook_Export_DoesNotModifySet(t *testing.T) {
	w := NewWorkbook(t.TempDir())
	set := testSet(t)

	_, err := w.Export(set)
	require.NoError(t, err)

	tbl, ok := set.Get("patient_data")
	require.True(t, ok)
	assert.Equal(t, []string{"pubpid", "sex"}, tbl.Columns())
	assert.Equal(t, 3, tbl.Len())
}

func TestWorkbook_Export_OutputDirIsFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewWorkbook(blocker).Export(testSet(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExport)
}

func TestWorkbook_ListAndPath(t *testing.T) {
	dir := t.TempDir()
	w := NewWorkbook(dir)

	files, err := w.List()
	require.NoError(t, err)
	assert.Empty(t, files)

	w.now = fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err = w.Export(testSet(t))
	require.NoError(t, err)
	w.now = fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	_, err = w.Export(testSet(t))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	files, err = w.List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "patient_data_export_20240601_000000.xlsx", files[0].Name)
	assert.Equal(t, "patient_data_export_20240101_000000.xlsx", files[1].Name)

	path, err := w.Path(files[0].Name)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, files[0].Name), path)

	_, err = w.Path("../secret.xlsx")
	assert.ErrorIs(t, err, core.ErrExport)

	_, err = w.Path("patient_data_export_19990101_000000.xlsx")
	assert.ErrorIs(t, err, core.ErrExport)
}

func TestWorkbook_List_MissingDir(t *testing.T) {
	files, err := NewWorkbook(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	assert.Empty(t, files)
}
