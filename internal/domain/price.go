package domain

import (
	"math/big"
	"regexp"

	"github.com/shopspring/decimal"
)

// displayPrice matches a rand-prefixed amount such as "R150" or "From R 1999.50".
var displayPrice = regexp.MustCompile(`R\s*(\d+(\.\d+)?)`)

// ParsePrice normalizes a numeric value or a display string into a
// non-negative decimal. Anything without an extractable amount yields zero.
func ParsePrice(v any) decimal.Decimal {
	var d decimal.Decimal
	switch p := v.(type) {
	case decimal.Decimal:
		d = p
	case *decimal.Decimal:
		if p != nil {
			d = *p
		}
	case int:
		d = decimal.NewFromInt(int64(p))
	case int32:
		d = decimal.NewFromInt32(p)
	case int64:
		d = decimal.NewFromInt(p)
	case uint:
		d = decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(p)), 0)
	case uint32:
		d = decimal.NewFromInt(int64(p))
	case uint64:
		d = decimal.NewFromBigInt(new(big.Int).SetUint64(p), 0)
	case float32:
		d = decimal.NewFromFloat32(p)
	case float64:
		d = decimal.NewFromFloat(p)
	case string:
		m := displayPrice.FindStringSubmatch(p)
		if m == nil {
			return decimal.Zero
		}
		parsed, err := decimal.NewFromString(m[1])
		if err != nil {
			return decimal.Zero
		}
		d = parsed
	default:
		return decimal.Zero
	}
	return NonNegative(d)
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
