package database

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// NumericToDecimal converts a pgtype.Numeric to decimal.Decimal, zero on
// null or conversion failure.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecimalToNumeric converts a decimal.Decimal to pgtype.Numeric with two
// decimal places.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
