package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// Rejection reasons. A rejection is a soft outcome returned as data; the
// validator only errors when a backing read fails.
const (
	ReasonNotFound          = "not found"
	ReasonInactive          = "inactive"
	ReasonExpired           = "expired"
	ReasonBelowMinimum      = "below minimum order amount"
	ReasonUsageLimitReached = "usage limit reached"
)

// Coupon is an order-level discount code. Optional constraints are nil when
// not set.
type Coupon struct {
	Code           string
	Discount       pricing.Discount
	MinOrderAmount *decimal.Decimal
	ExpiresAt      *time.Time
	UsageLimit     *int64
	Active         bool
}

// Source looks a coupon up by code. found is false when the code is unknown.
type Source interface {
	GetByCode(ctx context.Context, code string) (c Coupon, found bool, err error)
}

// UsageCounter reads the current redemption count for a code. Settlement
// increments it at order commit; this engine only ever reads it.
type UsageCounter interface {
	Current(ctx context.Context, code string) (int64, error)
}

// Result is the outcome of validating a coupon against a subtotal.
type Result struct {
	Accepted bool
	Discount decimal.Decimal
	Reason   string
}

func reject(reason string) Result {
	return Result{Discount: decimal.Zero, Reason: reason}
}

// Validator runs the ordered coupon checks and computes the discount.
type Validator struct {
	Source Source
	Usage  UsageCounter
	Now    func() time.Time
}

// Validate checks the code against the item-discounted subtotal. Checks run
// in a fixed order and short-circuit on the first failure. The returned
// discount never exceeds the input subtotal.
func (v *Validator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (Result, error) {
	if v == nil || v.Source == nil {
		return Result{}, errors.New("coupon validator not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return reject(ReasonNotFound), nil
	}
	c, found, err := v.Source.GetByCode(ctx, trimmed)
	if err != nil {
		return Result{}, fmt.Errorf("coupon lookup: %w", err)
	}
	if !found {
		return reject(ReasonNotFound), nil
	}
	if !c.Active {
		return reject(ReasonInactive), nil
	}
	if c.ExpiresAt != nil && v.now().After(*c.ExpiresAt) {
		return reject(ReasonExpired), nil
	}
	if c.MinOrderAmount != nil && subtotal.LessThan(*c.MinOrderAmount) {
		return reject(ReasonBelowMinimum), nil
	}
	if c.UsageLimit != nil {
		if v.Usage == nil {
			return Result{}, errors.New("coupon usage counter not configured")
		}
		used, err := v.Usage.Current(ctx, c.Code)
		if err != nil {
			return Result{}, fmt.Errorf("coupon usage lookup: %w", err)
		}
		if used >= *c.UsageLimit {
			return reject(ReasonUsageLimitReached), nil
		}
	}
	return Result{Accepted: true, Discount: c.Discount.AmountOff(subtotal)}, nil
}

func (v *Validator) now() time.Time {
	if v != nil && v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
