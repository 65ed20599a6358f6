package core

// BaselineExclude lists internal bookkeeping columns that never leave the
// database unless a policy sets KeepBaseline.
var BaselineExclude = []string{"uuid", "created_by", "updated_by"}

// ColumnPolicy decides which columns of a table are kept.
type ColumnPolicy struct {
	// Include, when non-nil, keeps only these columns in this order.
	// Names that are not in the table are ignored.
	Include []string

	// Exclude drops these columns. Merged with BaselineExclude.
	Exclude []string

	// KeepBaseline disables the implicit BaselineExclude set.
	KeepBaseline bool
}

// ExcludeSet returns the merged set of excluded column names.
func (p ColumnPolicy) ExcludeSet() map[string]bool {
	set := make(map[string]bool, len(BaselineExclude)+len(p.Exclude))
	if !p.KeepBaseline {
		for _, col := range BaselineExclude {
			set[col] = true
		}
	}
	for _, col := range p.Exclude {
		set[col] = true
	}
	return set
}

// Apply returns the table restricted to the columns the policy keeps.
// It never fails: unknown include or exclude names are ignored.
func (p ColumnPolicy) Apply(t Table) Table {
	excluded := p.ExcludeSet()
	var positions []int

	if p.Include != nil {
		seen := make(map[string]bool, len(p.Include))
		for _, col := range p.Include {
			if seen[col] || excluded[col] {
				continue
			}
			seen[col] = true
			if c := t.ColumnIndex(col); c >= 0 {
				positions = append(positions, c)
			}
		}
	} else {
		for c, col := range t.columns {
			if !excluded[col] {
				positions = append(positions, c)
			}
		}
	}

	return t.project(positions)
}
