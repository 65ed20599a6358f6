package core

// coerce.go turns raw driver values into the cell types a Table carries.
//
// Legacy clinical data is messy: numeric vitals stored as VARCHAR, dates
// stored as text, "0000-00-00" placeholders for unknown dates. Coercion is
// tolerant. A value that cannot be converted is returned unchanged rather
// than rejected, so no row is ever lost to a formatting problem.

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

// ToDecimal converts a cell value to a decimal.
// Returns false for nil, booleans, dates and strings that are not numbers.
func ToDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case int64:
		return decimal.NewFromInt(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt(int64(n)), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0), true
	case float64:
		if !finite(n) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		if !finite(float64(n)) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(n), true
	case string:
		return parseDecimal(n)
	case []byte:
		return parseDecimal(string(n))
	default:
		return decimal.Decimal{}, false
	}
}

// finite reports whether x can be held by a decimal. NaN and the
// infinities, which PostgreSQL float columns can store, cannot.
func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// CodeKey returns the canonical string form of a coded value, used to match
// patient columns against reference codes regardless of their SQL type.
// Numeric values are normalized so that 5, "5" and "5.0" compare equal.
func CodeKey(v any) (string, bool) {
	switch c := v.(type) {
	case nil:
		return "", false
	case string:
		c = strings.TrimSpace(c)
		if c == "" {
			return "", false
		}
		if d, ok := parseDecimal(c); ok {
			return d.String(), true
		}
		return c, true
	case []byte:
		return CodeKey(string(c))
	default:
		if d, ok := ToDecimal(v); ok {
			return d.String(), true
		}
		return fmt.Sprint(v), true
	}
}

// normalizeValue converts a value delivered by database/sql into a cell.
// dbType is the driver's DatabaseTypeName for the column and may be empty.
func normalizeValue(v any, dbType string) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return normalizeText(string(val), dbType)
	case string:
		return normalizeText(val, dbType)
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case uint64:
		if val <= math.MaxInt64 {
			return int64(val)
		}
		d, _ := ToDecimal(val)
		return d
	case int64, bool, decimal.Decimal:
		return val
	case float32:
		if !finite(float64(val)) {
			return float64(val)
		}
		return decimal.NewFromFloat32(val)
	case float64:
		if !finite(val) {
			return val
		}
		return decimal.NewFromFloat(val)
	default:
		return fmt.Sprint(val)
	}
}

// normalizeText handles columns a driver delivers as text. The MySQL
// connection parses DATE and DATETIME itself, so the date branch serves
// drivers or connections that return dates as strings.
func normalizeText(s string, dbType string) any {
	switch columnKind(dbType) {
	case kindInteger:
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i
		}
	case kindDecimal:
		if d, ok := parseDecimal(s); ok {
			return d
		}
	case kindDate:
		if isZeroDate(s) {
			return nil
		}
		if t, err := dateparse.ParseIn(s, time.Local); err == nil {
			return t
		}
	}
	return s
}

type valueKind int

const (
	kindText valueKind = iota
	kindInteger
	kindDecimal
	kindDate
)

// columnKind classifies MySQL and PostgreSQL type names.
func columnKind(dbType string) valueKind {
	switch strings.ToUpper(dbType) {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR",
		"UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT", "UNSIGNED INT", "UNSIGNED BIGINT",
		"INT2", "INT4", "INT8":
		return kindInteger
	case "DECIMAL", "NUMERIC", "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8":
		return kindDecimal
	case "DATE", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return kindDate
	default:
		return kindText
	}
}

// isZeroDate matches MySQL's zero-date placeholders.
func isZeroDate(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.HasPrefix(s, "0000-00-00")
}
