package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/coupon"
	"github.com/noah-isme/backend-kasir/internal/delivery"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// ErrEmptyCart is returned when a totals calculation is requested without items.
var ErrEmptyCart = errors.New("cart is empty")

// LineInput is one client-supplied cart entry. Any price the client sends is
// ignored; pricing is always recomputed from inventory.
type LineInput struct {
	ProductID string `json:"productId" validate:"required"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// TotalsInput is the full input to a totals calculation.
type TotalsInput struct {
	Items      []LineInput `json:"items" validate:"required,min=1,dive"`
	DeliveryID string      `json:"deliveryId,omitempty"`
	CouponCode string      `json:"couponCode,omitempty"`
	Region     string      `json:"region,omitempty"`
}

// LineTotals is the per-line breakdown in the result.
type LineTotals struct {
	ProductID    string          `json:"productId"`
	VariantID    string          `json:"variantId,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	LineSubtotal decimal.Decimal `json:"lineSubtotal"`
	LineDiscount decimal.Decimal `json:"lineDiscount"`
}

// OrderTotals is the deterministic, auditable totals breakdown.
type OrderTotals struct {
	Subtotal          decimal.Decimal `json:"subtotal"`
	ItemDiscountTotal decimal.Decimal `json:"itemDiscountTotal"`
	DeliveryFee       decimal.Decimal `json:"deliveryFee"`
	CouponDiscount    decimal.Decimal `json:"couponDiscount"`
	GrandTotal        decimal.Decimal `json:"grandTotal"`
	Lines             []LineTotals    `json:"lines"`
	Warning           string          `json:"warning,omitempty"`

	// CouponReason carries the raw rejection reason for metrics; the
	// human-readable form is already in Warning.
	CouponReason string `json:"-"`
}

// Service computes order totals. It is a pure function of its inputs and the
// current snapshot of inventory, delivery and coupon data: it holds no state,
// caches nothing and performs no writes.
type Service struct {
	Prices   *pricing.Resolver
	Delivery *delivery.Resolver
	Coupons  *coupon.Validator
}

// CalculateOrderTotals recomputes authoritative pricing for the cart, prices
// the chosen delivery option, applies the coupon if one is given and returns
// the full breakdown. Hard failures abort with an error; a rejected coupon
// degrades to a warning on an otherwise successful result.
func (s *Service) CalculateOrderTotals(ctx context.Context, in TotalsInput) (OrderTotals, error) {
	if s == nil || s.Prices == nil || s.Delivery == nil || s.Coupons == nil {
		return OrderTotals{}, errors.New("checkout service not configured")
	}
	if len(in.Items) == 0 {
		return OrderTotals{}, ErrEmptyCart
	}
	lines := make([]pricing.Line, 0, len(in.Items))
	for _, item := range in.Items {
		lines = append(lines, pricing.Line{ProductID: item.ProductID, VariantID: item.VariantID, Qty: item.Quantity})
	}
	priced, err := s.Prices.Resolve(ctx, lines)
	if err != nil {
		return OrderTotals{}, err
	}

	totals := OrderTotals{
		Subtotal:          decimal.Zero,
		ItemDiscountTotal: decimal.Zero,
		DeliveryFee:       decimal.Zero,
		CouponDiscount:    decimal.Zero,
		Lines:             make([]LineTotals, 0, len(priced)),
	}
	// Subtotal is gross, at original sale prices; item discounts are carried
	// separately so the grand-total identity
	// subtotal - itemDiscountTotal - couponDiscount + deliveryFee holds.
	var weightGram int64
	for _, p := range priced {
		totals.Subtotal = totals.Subtotal.Add(p.LineSubtotal).Add(p.LineDiscount)
		totals.ItemDiscountTotal = totals.ItemDiscountTotal.Add(p.LineDiscount)
		weightGram += p.WeightGram
		totals.Lines = append(totals.Lines, LineTotals{
			ProductID:    p.ProductID,
			VariantID:    p.VariantID,
			Quantity:     p.Qty,
			UnitPrice:    p.FinalUnit,
			LineSubtotal: p.LineSubtotal,
			LineDiscount: p.LineDiscount,
		})
	}

	if in.DeliveryID != "" {
		profile := delivery.CartProfile{Region: in.Region, WeightGram: weightGram}
		opt, err := s.Delivery.GetByID(ctx, in.DeliveryID, &profile)
		if err != nil {
			return OrderTotals{}, err
		}
		totals.DeliveryFee = opt.Cost
	}

	if in.CouponCode != "" {
		discounted := totals.Subtotal.Sub(totals.ItemDiscountTotal)
		res, err := s.Coupons.Validate(ctx, in.CouponCode, discounted)
		if err != nil {
			return OrderTotals{}, err
		}
		if res.Accepted {
			totals.CouponDiscount = res.Discount
		} else {
			totals.CouponReason = res.Reason
			totals.Warning = fmt.Sprintf("coupon %s rejected: %s", in.CouponCode, res.Reason)
		}
	}

	grand := totals.Subtotal.
		Sub(totals.ItemDiscountTotal).
		Sub(totals.CouponDiscount).
		Add(totals.DeliveryFee)
	if grand.LessThan(decimal.Zero) {
		grand = decimal.Zero
	}
	// Half-up rounding, applied exactly once, so per-line rounding error
	// cannot compound.
	totals.GrandTotal = grand.Round(2)
	return totals, nil
}

// DeliveryOptions lists delivery options. With no items the full catalog is
// returned; with items the list is filtered by cart eligibility.
func (s *Service) DeliveryOptions(ctx context.Context, items []LineInput, region string) ([]delivery.Option, error) {
	if s == nil || s.Delivery == nil {
		return nil, errors.New("checkout service not configured")
	}
	if len(items) == 0 {
		return s.Delivery.List(ctx, nil)
	}
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.Line{ProductID: item.ProductID, VariantID: item.VariantID, Qty: item.Quantity})
	}
	priced, err := s.Prices.Resolve(ctx, lines)
	if err != nil {
		return nil, err
	}
	var weightGram int64
	for _, p := range priced {
		weightGram += p.WeightGram
	}
	return s.Delivery.List(ctx, &delivery.CartProfile{Region: region, WeightGram: weightGram})
}
