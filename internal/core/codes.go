package core

import (
	"sort"

	"gopkg.in/guregu/null.v3"
)

const (
	// IDSuffix is appended to a coded column once its title is attached.
	IDSuffix = "_id"
	// TitleSuffix names the label column inserted after a coded column.
	TitleSuffix = "_title"
)

// CodeEntry is one row of a code reference table.
type CodeEntry struct {
	Category string      `db:"category"`
	Code     string      `db:"code"`
	Label    null.String `db:"label"`
}

// CodeReference resolves (category, code) pairs to labels.
// When a code appears more than once within a category the first entry wins.
type CodeReference struct {
	entries []CodeEntry
	labels  map[string]map[string]null.String
}

// NewCodeReference indexes entries in the given order.
func NewCodeReference(entries []CodeEntry) *CodeReference {
	ref := &CodeReference{
		entries: append([]CodeEntry(nil), entries...),
		labels:  make(map[string]map[string]null.String),
	}
	for _, e := range entries {
		key, ok := CodeKey(e.Code)
		if !ok {
			continue
		}
		byCode := ref.labels[e.Category]
		if byCode == nil {
			byCode = make(map[string]null.String)
			ref.labels[e.Category] = byCode
		}
		if _, seen := byCode[key]; seen {
			continue
		}
		byCode[key] = e.Label
	}
	return ref
}

// Len returns the number of reference entries.
func (r *CodeReference) Len() int { return len(r.entries) }

// Lookup returns the label for a coded value within a category.
func (r *CodeReference) Lookup(category string, code any) (string, bool) {
	if r == nil {
		return "", false
	}
	key, ok := CodeKey(code)
	if !ok {
		return "", false
	}
	label, ok := r.labels[category][key]
	if !ok || !label.Valid {
		return "", false
	}
	return label.String, true
}

// CodeColumn names a coded column and the reference category it draws from.
type CodeColumn struct {
	Column   string
	Category string
}

// IDColumn is the name the coded column carries after resolution.
func (c CodeColumn) IDColumn() string { return c.Column + IDSuffix }

// TitleColumn is the name of the inserted label column.
func (c CodeColumn) TitleColumn() string { return c.Column + TitleSuffix }

func (c CodeColumn) category() string {
	if c.Category != "" {
		return c.Category
	}
	return c.Column
}

// ResolveTitles attaches a label column next to each coded column.
//
// The coded column is renamed with IDSuffix and its label column is placed
// directly to its right. Rows are never added, dropped or reordered; a code
// without a reference entry gets a nil label. Codes whose column is missing
// from the table are skipped.
func ResolveTitles(t Table, codes []CodeColumn, ref *CodeReference) Table {
	type insertion struct {
		at     int
		name   string
		values []any
	}

	out := t
	var pending []CodeColumn
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		if seen[code.IDColumn()] {
			continue
		}
		switch {
		case out.HasColumn(code.IDColumn()):
		case out.HasColumn(code.Column):
			out = out.renameColumn(code.Column, code.IDColumn())
		default:
			continue
		}
		seen[code.IDColumn()] = true
		if c := out.ColumnIndex(code.TitleColumn()); c >= 0 {
			out = out.dropColumn(c)
		}
		pending = append(pending, code)
	}

	// Positions are fixed before any insertion; inserting rightmost first
	// keeps every earlier position valid.
	inserts := make([]insertion, 0, len(pending))
	for _, code := range pending {
		c := out.ColumnIndex(code.IDColumn())
		ids := out.Column(code.IDColumn())
		labels := make([]any, len(ids))
		for i, id := range ids {
			if label, ok := ref.Lookup(code.category(), id); ok {
				labels[i] = label
			}
		}
		inserts = append(inserts, insertion{at: c + 1, name: code.TitleColumn(), values: labels})
	}
	sort.SliceStable(inserts, func(i, j int) bool { return inserts[i].at > inserts[j].at })

	for _, ins := range inserts {
		out = out.insertColumn(ins.at, ins.name, ins.values)
	}
	return out
}
