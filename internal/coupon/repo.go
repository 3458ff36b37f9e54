package coupon

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/pricing"
)

const byCodeQuery = `
SELECT code, kind, value::text, min_order_amount::text, expires_at, usage_limit, is_active
FROM coupons
WHERE lower(code) = lower($1)
`

// Repo reads coupons from Postgres. It implements Source.
type Repo struct {
	Pool *pgxpool.Pool
}

// GetByCode fetches a single coupon; code matching is case-insensitive.
func (r Repo) GetByCode(ctx context.Context, code string) (Coupon, bool, error) {
	if r.Pool == nil {
		return Coupon{}, false, errors.New("coupon repo not configured")
	}
	var (
		c         Coupon
		kind      string
		value     string
		minAmount *string
		expiresAt pgtype.Timestamptz
		limit     pgtype.Int8
	)
	row := r.Pool.QueryRow(ctx, byCodeQuery, code)
	err := row.Scan(&c.Code, &kind, &value, &minAmount, &expiresAt, &limit, &c.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Coupon{}, false, nil
	}
	if err != nil {
		return Coupon{}, false, fmt.Errorf("query coupon: %w", err)
	}
	parsedValue, err := decimal.NewFromString(value)
	if err != nil {
		return Coupon{}, false, fmt.Errorf("coupon %s: bad value: %w", c.Code, err)
	}
	c.Discount, err = pricing.ParseDiscount(kind, parsedValue)
	if err != nil {
		return Coupon{}, false, fmt.Errorf("coupon %s: %w", c.Code, err)
	}
	if minAmount != nil {
		min, err := decimal.NewFromString(*minAmount)
		if err != nil {
			return Coupon{}, false, fmt.Errorf("coupon %s: bad min order amount: %w", c.Code, err)
		}
		c.MinOrderAmount = &min
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		c.ExpiresAt = &t
	}
	if limit.Valid {
		n := limit.Int64
		c.UsageLimit = &n
	}
	return c, true, nil
}
