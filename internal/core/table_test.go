package core

import (
	"reflect"
	"testing"
)

func TestNewTable_Validation(t *testing.T) {
	if _, err := NewTable("t", []string{"a", "a"}, nil); err == nil {
		t.Error("NewTable() expected error for duplicate column")
	}
	if _, err := NewTable("t", []string{"a", "b"}, [][]any{{1}}); err == nil {
		t.Error("NewTable() expected error for short row")
	}
	tbl, err := NewTable("t", []string{"a"}, nil)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	if tbl.Len() != 0 || tbl.Width() != 1 {
		t.Errorf("empty table = %d rows x %d cols, want 0 x 1", tbl.Len(), tbl.Width())
	}
}

func TestNewTable_CopiesInput(t *testing.T) {
	cols := []string{"a", "b"}
	rows := [][]any{{1, 2}}

	tbl := MustTable("t", cols, rows)
	cols[0] = "changed"
	rows[0][0] = 99

	if got := tbl.Columns(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Columns() = %v, want [a b]", got)
	}
	if v, _ := tbl.Value(0, "a"); v != 1 {
		t.Errorf("Value(0, a) = %v, want 1", v)
	}
}

func TestTable_Accessors(t *testing.T) {
	tbl := MustTable("t", []string{"id", "name"}, [][]any{
		{int64(1), "ann"},
		{int64(2), "bob"},
	})

	if tbl.ColumnIndex("name") != 1 || tbl.ColumnIndex("missing") != -1 {
		t.Errorf("ColumnIndex() wrong: name=%d missing=%d", tbl.ColumnIndex("name"), tbl.ColumnIndex("missing"))
	}
	if !tbl.HasColumn("id") || tbl.HasColumn("x") {
		t.Error("HasColumn() wrong")
	}
	if got := tbl.Column("name"); !reflect.DeepEqual(got, []any{"ann", "bob"}) {
		t.Errorf("Column(name) = %v", got)
	}
	if tbl.Column("x") != nil {
		t.Error("Column(x) should be nil for a missing column")
	}
	if rec := tbl.Record(1); rec["id"] != int64(2) || rec["name"] != "bob" {
		t.Errorf("Record(1) = %v", rec)
	}
	if _, ok := tbl.Value(5, "id"); ok {
		t.Error("Value() out of range should report false")
	}

	row := tbl.Row(0)
	row[1] = "mutated"
	if v, _ := tbl.Value(0, "name"); v != "ann" {
		t.Errorf("Row() returned an alias; table now has %v", v)
	}
}

func TestTable_InsertAndDrop(t *testing.T) {
	tbl := MustTable("t", []string{"a", "c"}, [][]any{{1, 3}})

	ins := tbl.insertColumn(1, "b", []any{2})
	if got := ins.Columns(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("insertColumn() columns = %v", got)
	}
	if got := ins.Row(0); !reflect.DeepEqual(got, []any{1, 2, 3}) {
		t.Errorf("insertColumn() row = %v", got)
	}
	if tbl.Width() != 2 {
		t.Error("insertColumn() modified the receiver")
	}

	dropped := ins.dropColumn(0)
	if got := dropped.Columns(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("dropColumn() columns = %v", got)
	}
	if dropped.ColumnIndex("c") != 1 {
		t.Error("dropColumn() did not rebuild the index")
	}
}

func TestTableSet_Order(t *testing.T) {
	set := NewTableSet()
	for _, name := range []string{"z", "a", "m"} {
		if err := set.Add(name, MustTable(name, nil, nil)); err != nil {
			t.Fatalf("Add(%s) error = %v", name, err)
		}
	}
	if err := set.Add("a", MustTable("a", nil, nil)); err == nil {
		t.Error("Add() expected error for duplicate sheet")
	}

	if got := set.Names(); !reflect.DeepEqual(got, []string{"z", "a", "m"}) {
		t.Errorf("Names() = %v, want insertion order", got)
	}

	var visited []string
	_ = set.Each(func(name string, _ Table) error {
		visited = append(visited, name)
		return nil
	})
	if !reflect.DeepEqual(visited, []string{"z", "a", "m"}) {
		t.Errorf("Each() order = %v", visited)
	}
	if set.Len() != 3 {
		t.Errorf("Len() = %d, want 3", set.Len())
	}
}
