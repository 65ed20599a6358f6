package core

import "github.com/shopspring/decimal"

// Converter maps a numeric value from one unit to another.
type Converter func(decimal.Decimal) decimal.Decimal

var (
	cmPerInch = decimal.RequireFromString("2.54")
	kgPerLb   = decimal.RequireFromString("0.453592")
	freezingF = decimal.NewFromInt(32)
	fPerC     = decimal.RequireFromString("1.8")
)

// LengthToMetric converts inches to centimeters.
func LengthToMetric(x decimal.Decimal) decimal.Decimal { return x.Mul(cmPerInch) }

// MassToMetric converts pounds to kilograms.
func MassToMetric(x decimal.Decimal) decimal.Decimal { return x.Mul(kgPerLb) }

// TemperatureToMetric converts degrees Fahrenheit to degrees Celsius.
func TemperatureToMetric(x decimal.Decimal) decimal.Decimal { return x.Sub(freezingF).Div(fPerC) }

// ColumnConversion binds a converter to a column name.
type ColumnConversion struct {
	Column  string
	Convert Converter
}

// ConversionSpec is an ordered list of per-column conversions.
type ConversionSpec []ColumnConversion

// VitalsConversions converts the imperial measurements of a vitals form.
var VitalsConversions = ConversionSpec{
	{Column: "height", Convert: LengthToMetric},
	{Column: "weight", Convert: MassToMetric},
	{Column: "temperature", Convert: TemperatureToMetric},
	{Column: "head_circ", Convert: LengthToMetric},
	{Column: "waist_circ", Convert: LengthToMetric},
}

// Convert applies fn to every numeric value of column.
// Nil values and values that are not numbers are kept as they are.
// A column that does not exist leaves the table unchanged.
func Convert(t Table, column string, fn Converter) Table {
	c := t.ColumnIndex(column)
	if c < 0 {
		return t
	}
	return t.mapColumn(c, func(v any) any {
		d, ok := ToDecimal(v)
		if !ok {
			return v
		}
		return fn(d)
	})
}

// Apply runs every conversion in order.
func (s ConversionSpec) Apply(t Table) Table {
	for _, conv := range s {
		t = Convert(t, conv.Column, conv.Convert)
	}
	return t
}

// ConvertToMetric converts a vitals table from imperial to metric units.
func ConvertToMetric(t Table) Table {
	return VitalsConversions.Apply(t)
}
