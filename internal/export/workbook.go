// Package export writes a TableSet to an .xlsx workbook.
package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/JonMunkholm/emrexport/internal/core"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

const (
	// FilePrefix starts every workbook file name.
	FilePrefix = "patient_data_export_"
	// FileExt is the workbook extension.
	FileExt = ".xlsx"
	// TimestampLayout is the timestamp embedded in the file name.
	TimestampLayout = "20060102_150405"
)

// FileNameRegex matches workbook names produced by Filename, including the
// numeric suffix added when a name is already taken.
var FileNameRegex = regexp.MustCompile(`^patient_data_export_\d{8}_\d{6}(_\d+)?\.xlsx$`)

// maxNameAttempts bounds the suffixes tried for a free file name.
const maxNameAttempts = 100

// Filename returns the workbook name for a run started at t.
func Filename(t time.Time) string {
	return FilePrefix + t.Format(TimestampLayout) + FileExt
}

// Workbook writes table sets into an output directory.
type Workbook struct {
	dir string
	now func() time.Time
}

// NewWorkbook creates a writer for dir.
func NewWorkbook(dir string) *Workbook {
	return &Workbook{dir: dir, now: time.Now}
}

// Dir returns the output directory.
func (w *Workbook) Dir() string { return w.dir }

// Export writes one sheet per table, in the set's order, and returns the
// path of the workbook. Each sheet starts with a header row of column names
// followed by the data rows. The set is only read.
func (w *Workbook) Export(set *core.TableSet) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output directory: %w", core.ErrExport, err)
	}

	file := xlsx.NewFile()
	err := set.Each(func(name string, t core.Table) error {
		sheet, err := file.AddSheet(name)
		if err != nil {
			return fmt.Errorf("%w: add sheet %s: %w", core.ErrExport, name, err)
		}
		writeTable(sheet, t)
		return nil
	})
	if err != nil {
		return "", err
	}

	path, err := w.freePath(w.now())
	if err != nil {
		return "", err
	}
	if err := file.Save(path); err != nil {
		return "", fmt.Errorf("%w: save %s: %w", core.ErrExport, path, err)
	}

	return path, nil
}

// freePath returns a workbook path that does not exist yet. A run started
// in the same second as an earlier one gets a _1, _2, ... suffix.
func (w *Workbook) freePath(t time.Time) (string, error) {
	base := FilePrefix + t.Format(TimestampLayout)
	for i := 0; i < maxNameAttempts; i++ {
		name := base + FileExt
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, FileExt)
		}
		path := filepath.Join(w.dir, name)
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: stat %s: %w", core.ErrExport, path, err)
		}
	}
	return "", fmt.Errorf("%w: no free file name for %s", core.ErrExport, base)
}

func writeTable(sheet *xlsx.Sheet, t core.Table) {
	header := sheet.AddRow()
	for _, col := range t.Columns() {
		header.AddCell().SetString(col)
	}

	for i := 0; i < t.Len(); i++ {
		row := sheet.AddRow()
		for _, v := range t.Row(i) {
			setCell(row.AddCell(), v)
		}
	}
}

// setCell writes a cell value with its spreadsheet type.
func setCell(cell *xlsx.Cell, v any) {
	switch val := v.(type) {
	case nil:
		// empty cell
	case string:
		cell.SetString(val)
	case int64:
		cell.SetInt64(val)
	case decimal.Decimal:
		cell.SetFloat(val.InexactFloat64())
	case time.Time:
		setTime(cell, val)
	case bool:
		cell.SetBool(val)
	default:
		cell.SetString(fmt.Sprint(val))
	}
}

// setTime writes the wall clock the database returned. The writer treats
// times as UTC, so the fields are moved to UTC unchanged rather than
// converted. Midnight values are written as dates.
func setTime(cell *xlsx.Cell, t time.Time) {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	if wall.Equal(wall.Truncate(24 * time.Hour)) {
		cell.SetDate(wall)
		return
	}
	cell.SetDateTime(wall)
}
