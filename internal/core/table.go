package core

import (
	"fmt"
)

// Table is a named, column-ordered set of rows extracted from one source.
//
// Tables are values: every operation in this package returns a new Table and
// leaves the receiver untouched, so a Table handed to a transformation can
// still be read safely by the caller afterwards.
type Table struct {
	Name    string
	columns []string
	index   map[string]int
	rows    [][]any
}

// NewTable builds a Table from column names and positional rows.
// Column names must be unique and every row must have one value per column.
// The inputs are copied.
func NewTable(name string, columns []string, rows [][]any) (Table, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, dup := index[col]; dup {
			return Table{}, fmt.Errorf("table %s: duplicate column %q", name, col)
		}
		index[col] = i
	}

	copied := make([][]any, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return Table{}, fmt.Errorf("table %s: row %d has %d values, want %d", name, i, len(row), len(columns))
		}
		copied[i] = append([]any(nil), row...)
	}

	return Table{
		Name:    name,
		columns: append([]string(nil), columns...),
		index:   index,
		rows:    copied,
	}, nil
}

// MustTable is NewTable for literal tables whose shape is known to be valid.
func MustTable(name string, columns []string, rows [][]any) Table {
	t, err := NewTable(name, columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns the column names in order.
func (t Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.rows) }

// Width returns the number of columns.
func (t Table) Width() int { return len(t.columns) }

// ColumnIndex returns the position of a column, or -1 if it does not exist.
func (t Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the table has the named column.
func (t Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Row returns a copy of the values of row i in column order.
func (t Table) Row(i int) []any {
	return append([]any(nil), t.rows[i]...)
}

// Value returns the cell at row i for the named column.
func (t Table) Value(i int, column string) (any, bool) {
	c, ok := t.index[column]
	if !ok || i < 0 || i >= len(t.rows) {
		return nil, false
	}
	return t.rows[i][c], true
}

// Record returns row i as a column name to value map.
func (t Table) Record(i int) map[string]any {
	rec := make(map[string]any, len(t.columns))
	for c, name := range t.columns {
		rec[name] = t.rows[i][c]
	}
	return rec
}

// Column returns a copy of all values of the named column.
func (t Table) Column(name string) []any {
	c, ok := t.index[name]
	if !ok {
		return nil
	}
	values := make([]any, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[c]
	}
	return values
}

// project returns a table made of the columns at the given positions.
func (t Table) project(positions []int) Table {
	columns := make([]string, len(positions))
	for i, p := range positions {
		columns[i] = t.columns[p]
	}

	rows := make([][]any, len(t.rows))
	for r, row := range t.rows {
		out := make([]any, len(positions))
		for i, p := range positions {
			out[i] = row[p]
		}
		rows[r] = out
	}

	return Table{Name: t.Name, columns: columns, index: indexOf(columns), rows: rows}
}

// mapColumn returns a table whose column c has been rewritten by fn.
func (t Table) mapColumn(c int, fn func(any) any) Table {
	out := t.clone()
	for _, row := range out.rows {
		row[c] = fn(row[c])
	}
	return out
}

// renameColumn returns a table with column old renamed to name.
// The caller guarantees name is not already taken.
func (t Table) renameColumn(old, name string) Table {
	c, ok := t.index[old]
	if !ok {
		return t
	}
	out := t.clone()
	out.columns[c] = name
	out.index = indexOf(out.columns)
	return out
}

// insertColumn returns a table with a new column placed at position at.
func (t Table) insertColumn(at int, name string, values []any) Table {
	columns := make([]string, 0, len(t.columns)+1)
	columns = append(columns, t.columns[:at]...)
	columns = append(columns, name)
	columns = append(columns, t.columns[at:]...)

	rows := make([][]any, len(t.rows))
	for r, row := range t.rows {
		out := make([]any, 0, len(row)+1)
		out = append(out, row[:at]...)
		out = append(out, values[r])
		out = append(out, row[at:]...)
		rows[r] = out
	}

	return Table{Name: t.Name, columns: columns, index: indexOf(columns), rows: rows}
}

// dropColumn returns a table without the column at position c.
func (t Table) dropColumn(c int) Table {
	positions := make([]int, 0, len(t.columns)-1)
	for i := range t.columns {
		if i != c {
			positions = append(positions, i)
		}
	}
	return t.project(positions)
}

func (t Table) clone() Table {
	rows := make([][]any, len(t.rows))
	for i, row := range t.rows {
		rows[i] = append([]any(nil), row...)
	}
	columns := append([]string(nil), t.columns...)
	return Table{Name: t.Name, columns: columns, index: indexOf(columns), rows: rows}
}

func indexOf(columns []string) map[string]int {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[col] = i
	}
	return index
}

// TableSet maps sheet names to tables, keeping insertion order.
// The order is the sheet order of the exported workbook.
type TableSet struct {
	order  []string
	tables map[string]Table
}

// NewTableSet returns an empty TableSet.
func NewTableSet() *TableSet {
	return &TableSet{tables: make(map[string]Table)}
}

// Add appends a table under the given sheet name.
func (s *TableSet) Add(name string, t Table) error {
	if _, exists := s.tables[name]; exists {
		return fmt.Errorf("sheet %q already in table set", name)
	}
	s.order = append(s.order, name)
	s.tables[name] = t
	return nil
}

// Get returns the table stored under name.
func (s *TableSet) Get(name string) (Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Names returns sheet names in insertion order.
func (s *TableSet) Names() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of sheets.
func (s *TableSet) Len() int { return len(s.order) }

// Each calls fn for every sheet in insertion order, stopping at the first error.
func (s *TableSet) Each(fn func(name string, t Table) error) error {
	for _, name := range s.order {
		if err := fn(name, s.tables[name]); err != nil {
			return err
		}
	}
	return nil
}
