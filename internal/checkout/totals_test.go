package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/coupon"
	"github.com/noah-isme/backend-kasir/internal/delivery"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

type stubInventory struct {
	records map[pricing.Key]pricing.Record
	err     error
}

func (s stubInventory) Batch(ctx context.Context, keys []pricing.Key) (map[pricing.Key]pricing.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type stubDeliverySource struct {
	options []delivery.Option
	err     error
}

func (s stubDeliverySource) List(ctx context.Context) ([]delivery.Option, error) {
	return s.options, s.err
}

type stubCouponSource struct {
	coupon coupon.Coupon
	found  bool
	err    error
}

func (s stubCouponSource) GetByCode(ctx context.Context, code string) (coupon.Coupon, bool, error) {
	if s.err != nil {
		return coupon.Coupon{}, false, s.err
	}
	if !s.found || !strings.EqualFold(code, s.coupon.Code) {
		return coupon.Coupon{}, false, nil
	}
	return s.coupon, true, nil
}

func newService(inv stubInventory, del stubDeliverySource, cpn stubCouponSource) *Service {
	return &Service{
		Prices:   &pricing.Resolver{Inventory: inv},
		Delivery: &delivery.Resolver{Source: del},
		Coupons: &coupon.Validator{
			Source: cpn,
			Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		},
	}
}

func snapshot() (stubInventory, stubDeliverySource, stubCouponSource) {
	inv := stubInventory{records: map[pricing.Key]pricing.Record{
		{ProductID: "P1"}: {
			Key:               pricing.Key{ProductID: "P1"},
			SalePrice:         decimal.NewFromInt(50),
			Discount:          pricing.Discount{Kind: pricing.DiscountPercent, Value: decimal.NewFromInt(10)},
			QuantityAvailable: 10,
			WeightGram:        250,
		},
	}}
	del := stubDeliverySource{options: []delivery.Option{
		{ID: "standard", Label: "Standard", Cost: decimal.NewFromInt(5)},
		{ID: "express", Label: "Express", Cost: decimal.NewFromInt(12), MaxWeightGram: 300},
	}}
	cpn := stubCouponSource{
		coupon: coupon.Coupon{
			Code:     "HEMAT20",
			Discount: pricing.Discount{Kind: pricing.DiscountAmount, Value: decimal.NewFromInt(20)},
			Active:   true,
		},
		found: true,
	}
	return inv, del, cpn
}

func TestCalculateOrderTotalsEndToEnd(t *testing.T) {
	svc := newService(snapshot())
	totals, err := svc.CalculateOrderTotals(context.Background(), TotalsInput{
		Items:      []LineInput{{ProductID: "P1", Quantity: 2}},
		DeliveryID: "standard",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := totals.Subtotal.String(); got != "100" {
		t.Fatalf("expected subtotal 100, got %s", got)
	}
	if got := totals.ItemDiscountTotal.String(); got != "10" {
		t.Fatalf("expected item discount 10, got %s", got)
	}
	if got := totals.DeliveryFee.String(); got != "5" {
		t.Fatalf("expected delivery fee 5, got %s", got)
	}
	if got := totals.GrandTotal.String(); got != "95" {
		t.Fatalf("expected grand total 95, got %s", got)
	}
	if len(totals.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(totals.Lines))
	}
	line := totals.Lines[0]
	if line.UnitPrice.String() != "45" || line.LineSubtotal.String() != "90" || line.LineDiscount.String() != "10" {
		t.Fatalf("unexpected line breakdown: %+v", line)
	}
}

func TestCalculateOrderTotalsWithCoupon(t *testing.T) {
	svc := newService(snapshot())
	totals, err := svc.CalculateOrderTotals(context.Background(), TotalsInput{
		Items:      []LineInput{{ProductID: "P1", Quantity: 2}},
		DeliveryID: "standard",
		CouponCode: "HEMAT20",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := totals.CouponDiscount.String(); got != "20" {
		t.Fatalf("expected coupon discount 20, got %s", got)
	}
	// 100 - 10 - 20 + 5
	if got := totals.GrandTotal.String(); got != "75" {
		t.Fatalf("expected grand total 75, got %s", got)
	}
	if totals.Warning != "" {
		t.Fatalf("expected no warning, got %q", totals.Warning)
	}
}

func TestRejectedCouponIsSoft(t *testing.T) {
	inv, del, _ := snapshot()
	svc := newService(inv, del, stubCouponSource{found: false})
	totals, err := svc.CalculateOrderTotals(context.Background(), TotalsInput{
		Items:      []LineInput{{ProductID: "P1", Quantity: 2}},
		DeliveryID: "standard",
		CouponCode: "GHOST",
	})
	if err != nil {
		t.Fatalf("a rejected coupon must not fail the calculation: %v", err)
	}
	if !totals.CouponDiscount.IsZero() {
		t.Fatalf("expected zero coupon discount, got %s", totals.CouponDiscount)
	}
	if !strings.Contains(totals.Warning, coupon.ReasonNotFound) {
		t.Fatalf("expected warning mentioning %q, got %q", coupon.ReasonNotFound, totals.Warning)
	}
	if got := totals.GrandTotal.String(); got != "95" {
		t.Fatalf("expected grand total 95, got %s", got)
	}
}

func TestUnknownCouponCodeRejected(t *testing.T) {
	// The source holds HEMAT20; a different code must still resolve to a
	// not-found rejection, not to whatever coupon the source happens to hold.
	svc := newService(snapshot())
	totals, err := svc.CalculateOrderTotals(context.Background(), TotalsInput{
		Items:      []LineInput{{ProductID: "P1", Quantity: 2}},
		DeliveryID: "standard",
		CouponCode: "GHOST-CODE",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.CouponDiscount.IsZero() {
		t.Fatalf("expected zero coupon discount, got %s", totals.CouponDiscount)
	}
	if !strings.Contains(totals.Warning, coupon.ReasonNotFound) {
		t.Fatalf("expected warning mentioning %q, got %q", coupon.ReasonNotFound, totals.Warning)
	}
	if got := totals.GrandTotal.String(); got != "95" {
		t.Fatalf("expected grand total 95, got %s", got)
	}
}

func TestGrandTotalNeverNegative(t *testing.T) {
	inv, del, _ := snapshot()
	cpn := stubCouponSource{
		coupon: coupon.Coupon{
			Code:     "EVERYTHING",
			Discount: pricing.Discount{Kind: pricing.DiscountAmount, Value: decimal.NewFromInt(100000)},
			Active:   true,
		},
		found: true,
	}
	svc := newService(inv, del, cpn)
	totals, err := svc.CalculateOrderTotals(context.Background(), TotalsInput{
		Items:      []LineInput{{ProductID: "P1", Quantity: 2}},
		CouponCode: "EVERYTHING",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.GrandTotal.IsNegative() {
		t.Fatalf("grand total must never be negative, got %s", totals.GrandTotal)
	}
}

func TestInsufficientStockAborts(t *testing.T) {
	inv, del, cpn := snapshot()
	inv.records[pricing.Key{ProductID: "P1"}] = pricing.Record{
		Key:               pricing.Key{ProductID: "P1"},
		SalePrice:         decimal.NewFromInt(50),
		QuantityAvailable: 3,
	}
	svc := newService(inv, del, cpn)
	_, err := svc.CalculateOrderTotals(context.Background(), TotalsInput{
		Items: []LineInput{{ProductID: "P1", Quantity: 5}},
	})
	var stockErr pricing.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
}

func TestUnknownDeliveryOptionAborts(t *testing.T) {
	svc := newService(snapshot())
	_, err := svc.CalculateOrderTotals(context.Background(), TotalsInput{
		Items:      []LineInput{{ProductID: "P1", Quantity: 2}},
		DeliveryID: "drone",
	})
	var notFound delivery.OptionNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected OptionNotFoundError, got %v", err)
	}
}

func TestIneligibleDeliveryOptionAborts(t *testing.T) {
	svc := newService(snapshot())
	// 2 x 250g exceeds the express 300g cap.
	_, err := svc.CalculateOrderTotals(context.Background(), TotalsInput{
		Items:      []LineInput{{ProductID: "P1", Quantity: 2}},
		DeliveryID: "express",
	})
	var notFound delivery.OptionNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected OptionNotFoundError for ineligible option, got %v", err)
	}
}

func TestEmptyCartAborts(t *testing.T) {
	svc := newService(snapshot())
	_, err := svc.CalculateOrderTotals(context.Background(), TotalsInput{})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestNoDeliverySelectedMeansZeroFee(t *testing.T) {
	svc := newService(snapshot())
	totals, err := svc.CalculateOrderTotals(context.Background(), TotalsInput{
		Items: []LineInput{{ProductID: "P1", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.DeliveryFee.IsZero() {
		t.Fatalf("expected zero delivery fee, got %s", totals.DeliveryFee)
	}
	if got := totals.GrandTotal.String(); got != "90" {
		t.Fatalf("expected grand total 90, got %s", got)
	}
}

func TestIdempotentAgainstUnchangedSnapshot(t *testing.T) {
	svc := newService(snapshot())
	in := TotalsInput{
		Items:      []LineInput{{ProductID: "P1", Quantity: 2}},
		DeliveryID: "standard",
		CouponCode: "HEMAT20",
	}
	first, err := svc.CalculateOrderTotals(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.CalculateOrderTotals(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("identical inputs against an unchanged snapshot must produce byte-identical output:\n%s\n%s", a, b)
	}
}

func TestDeliveryOptionsFullCatalogWithoutItems(t *testing.T) {
	svc := newService(snapshot())
	options, err := svc.DeliveryOptions(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected full catalog of 2, got %d", len(options))
	}
}

func TestDeliveryOptionsFilteredByCartWeight(t *testing.T) {
	svc := newService(snapshot())
	options, err := svc.DeliveryOptions(context.Background(), []LineInput{{ProductID: "P1", Quantity: 2}}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, opt := range options {
		if opt.ID == "express" {
			t.Fatal("express must be filtered out for a 500g cart")
		}
	}
}
