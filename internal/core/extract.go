package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/JonMunkholm/emrexport/internal/logging"
	"github.com/jmoiron/sqlx"
)

// DB is the query surface the pipeline needs. Satisfied by *sqlx.DB.
type DB interface {
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
	DriverName() string
}

// identifierRegex restricts table and column names to plain SQL identifiers.
// Names are interpolated into queries, so anything else is rejected.
var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// quoteIdent quotes an identifier for the connection's SQL dialect.
func quoteIdent(driver, name string) string {
	switch driver {
	case "pgx", "postgres", "postgresql":
		return `"` + name + `"`
	default:
		return "`" + name + "`"
	}
}

// Extractor reads whole tables through a DB.
type Extractor struct {
	db DB
}

// NewExtractor creates an Extractor over db.
func NewExtractor(db DB) *Extractor {
	return &Extractor{db: db}
}

// BuildQuery returns the SELECT statement for a source table.
// Explicit columns are selected when include is non-empty, otherwise *.
// A column named twice is selected once.
func (e *Extractor) BuildQuery(source string, include []string) (string, error) {
	if !identifierRegex.MatchString(source) {
		return "", fmt.Errorf("%w: invalid table name %q", ErrQuery, source)
	}

	driver := e.db.DriverName()
	cols := "*"
	if len(include) > 0 {
		quoted := make([]string, 0, len(include))
		seen := make(map[string]bool, len(include))
		for _, col := range include {
			if !identifierRegex.MatchString(col) {
				return "", fmt.Errorf("%w: invalid column name %q in %s", ErrQuery, col, source)
			}
			if seen[col] {
				continue
			}
			seen[col] = true
			quoted = append(quoted, quoteIdent(driver, col))
		}
		cols = strings.Join(quoted, ", ")
	}

	return fmt.Sprintf("SELECT %s FROM %s", cols, quoteIdent(driver, source)), nil
}

// Extract runs one query against source and applies policy to the result.
// Any query or scan error fails the whole table; no partial table is returned.
func (e *Extractor) Extract(ctx context.Context, source string, policy ColumnPolicy) (Table, error) {
	query, err := e.BuildQuery(source, policy.Include)
	if err != nil {
		return Table{}, err
	}

	logger := logging.WithFields(ctx, "table", source)
	logger.Debug("extracting records", "query", query)

	rows, err := e.db.QueryxContext(ctx, query)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %s: %w", ErrQuery, source, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Table{}, fmt.Errorf("%w: %s: read columns: %w", ErrQuery, source, err)
	}

	dbTypes := make([]string, len(columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			dbTypes[i] = ct.DatabaseTypeName()
		}
	}

	var data [][]any
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return Table{}, fmt.Errorf("%w: %s: scan row %d: %w", ErrQuery, source, len(data)+1, err)
		}
		for i, v := range values {
			values[i] = normalizeValue(v, dbTypes[i])
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("%w: %s: %w", ErrQuery, source, err)
	}

	table, err := NewTable(source, columns, data)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	table = policy.Apply(table)

	logger.Info("extracted records",
		"rows", table.Len(),
		"columns", table.Width(),
	)

	return table, nil
}

// ReferenceSource describes where coded values are resolved from.
// The defaults match OpenEMR's list_options table.
type ReferenceSource struct {
	Table          string
	CategoryColumn string
	CodeColumn     string
	LabelColumn    string
	OrderColumn    string
}

// DefaultReferenceSource reads OpenEMR's list_options.
var DefaultReferenceSource = ReferenceSource{
	Table:          "list_options",
	CategoryColumn: "list_id",
	CodeColumn:     "option_id",
	LabelColumn:    "title",
	OrderColumn:    "seq",
}

// LoadCodeReference reads the reference rows for the given categories.
// Rows are ordered by category, then OrderColumn, then code, which fixes
// which entry wins when a code is listed twice.
func LoadCodeReference(ctx context.Context, db DB, src ReferenceSource, categories []string) (*CodeReference, error) {
	if len(categories) == 0 {
		return NewCodeReference(nil), nil
	}

	names := []string{src.Table, src.CategoryColumn, src.CodeColumn, src.LabelColumn}
	if src.OrderColumn != "" {
		names = append(names, src.OrderColumn)
	}
	for _, name := range names {
		if !identifierRegex.MatchString(name) {
			return nil, fmt.Errorf("%w: invalid reference identifier %q", ErrQuery, name)
		}
	}

	driver := db.DriverName()
	q := func(name string) string { return quoteIdent(driver, name) }

	order := q(src.CategoryColumn)
	if src.OrderColumn != "" {
		order += ", " + q(src.OrderColumn)
	}
	order += ", " + q(src.CodeColumn)

	query, args, err := sqlx.In(fmt.Sprintf(
		"SELECT %s AS category, %s AS code, %s AS label FROM %s WHERE %s IN (?) ORDER BY %s",
		q(src.CategoryColumn), q(src.CodeColumn), q(src.LabelColumn), q(src.Table), q(src.CategoryColumn), order,
	), categories)
	if err != nil {
		return nil, fmt.Errorf("%w: build reference query: %w", ErrQuery, err)
	}

	var entries []CodeEntry
	if err := db.SelectContext(ctx, &entries, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQuery, src.Table, err)
	}

	logging.FromContext(ctx).Debug("loaded code reference",
		"table", src.Table,
		"categories", len(categories),
		"entries", len(entries),
	)

	return NewCodeReference(entries), nil
}
