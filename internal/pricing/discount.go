package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountKind enumerates the supported item discount strategies.
type DiscountKind string

const (
	// DiscountNone leaves the sale price untouched.
	DiscountNone DiscountKind = "none"
	// DiscountPercent reduces the sale price by a percentage between 0 and 100.
	DiscountPercent DiscountKind = "percent"
	// DiscountAmount subtracts a fixed amount, floored at zero.
	DiscountAmount DiscountKind = "amount"
)

var hundred = decimal.NewFromInt(100)

// Discount pairs a kind with its value. The zero value means no discount.
type Discount struct {
	Kind  DiscountKind
	Value decimal.Decimal
}

// ParseDiscount converts a stored kind string into a Discount, rejecting
// kinds the engine does not understand so bad data fails loudly at the edge.
func ParseDiscount(kind string, value decimal.Decimal) (Discount, error) {
	switch DiscountKind(strings.ToLower(strings.TrimSpace(kind))) {
	case DiscountNone, "":
		return Discount{Kind: DiscountNone}, nil
	case DiscountPercent:
		return Discount{Kind: DiscountPercent, Value: value}, nil
	case DiscountAmount:
		return Discount{Kind: DiscountAmount, Value: value}, nil
	default:
		return Discount{}, fmt.Errorf("unknown discount kind %q", kind)
	}
}

// ApplyTo returns the discounted price, never below zero.
func (d Discount) ApplyTo(base decimal.Decimal) decimal.Decimal {
	switch d.Kind {
	case DiscountPercent:
		pct := d.Value
		if pct.LessThan(decimal.Zero) {
			pct = decimal.Zero
		}
		if pct.GreaterThan(hundred) {
			pct = hundred
		}
		return base.Mul(hundred.Sub(pct)).Div(hundred)
	case DiscountAmount:
		out := base.Sub(d.Value)
		if out.LessThan(decimal.Zero) {
			return decimal.Zero
		}
		return out
	default:
		return base
	}
}

// AmountOff returns the discount amount for the given base, clamped to [0, base].
func (d Discount) AmountOff(base decimal.Decimal) decimal.Decimal {
	off := base.Sub(d.ApplyTo(base))
	if off.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if off.GreaterThan(base) {
		return base
	}
	return off
}
