package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type stubLookup struct {
	records map[Key]Record
	err     error
	calls   int
}

func (s *stubLookup) Batch(ctx context.Context, keys []Key) (map[Key]Record, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func record(productID string, sale string, d Discount, available int) Record {
	return Record{
		Key:               Key{ProductID: productID},
		SalePrice:         decimal.RequireFromString(sale),
		Discount:          d,
		QuantityAvailable: available,
	}
}

func TestResolvePercentDiscount(t *testing.T) {
	lookup := &stubLookup{records: map[Key]Record{
		{ProductID: "P1"}: record("P1", "50", Discount{Kind: DiscountPercent, Value: decimal.NewFromInt(10)}, 10),
	}}
	r := &Resolver{Inventory: lookup}
	lines, err := r.Resolve(context.Background(), []Line{{ProductID: "P1", Qty: 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lines[0].FinalUnit.String(); got != "45" {
		t.Fatalf("expected final unit 45, got %s", got)
	}
	if got := lines[0].LineSubtotal.String(); got != "90" {
		t.Fatalf("expected line subtotal 90, got %s", got)
	}
	if got := lines[0].LineDiscount.String(); got != "10" {
		t.Fatalf("expected line discount 10, got %s", got)
	}
}

func TestResolveAmountDiscount(t *testing.T) {
	lookup := &stubLookup{records: map[Key]Record{
		{ProductID: "P1"}: record("P1", "100", Discount{Kind: DiscountAmount, Value: decimal.NewFromInt(15)}, 5),
	}}
	r := &Resolver{Inventory: lookup}
	lines, err := r.Resolve(context.Background(), []Line{{ProductID: "P1", Qty: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lines[0].FinalUnit.String(); got != "85" {
		t.Fatalf("expected final unit 85, got %s", got)
	}
}

func TestResolveAmountDiscountClampedAtZero(t *testing.T) {
	lookup := &stubLookup{records: map[Key]Record{
		{ProductID: "P1"}: record("P1", "100", Discount{Kind: DiscountAmount, Value: decimal.NewFromInt(150)}, 5),
	}}
	r := &Resolver{Inventory: lookup}
	lines, err := r.Resolve(context.Background(), []Line{{ProductID: "P1", Qty: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lines[0].FinalUnit.IsZero() {
		t.Fatalf("expected final unit 0, got %s", lines[0].FinalUnit)
	}
	if got := lines[0].LineDiscount.String(); got != "100" {
		t.Fatalf("expected line discount 100, got %s", got)
	}
}

func TestResolveInsufficientStock(t *testing.T) {
	lookup := &stubLookup{records: map[Key]Record{
		{ProductID: "P1"}: record("P1", "50", Discount{}, 3),
	}}
	r := &Resolver{Inventory: lookup}
	_, err := r.Resolve(context.Background(), []Line{{ProductID: "P1", Qty: 5}})
	var stockErr InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 3 {
		t.Fatalf("expected 3 available, got %d", stockErr.Available)
	}
}

func TestResolveAggregatesDuplicateLines(t *testing.T) {
	lookup := &stubLookup{records: map[Key]Record{
		{ProductID: "P1"}: record("P1", "50", Discount{}, 10),
	}}
	r := &Resolver{Inventory: lookup}
	// 6 + 6 exceeds the 10 available even though each line fits on its own.
	_, err := r.Resolve(context.Background(), []Line{
		{ProductID: "P1", Qty: 6},
		{ProductID: "P1", Qty: 6},
	})
	var stockErr InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError for aggregate demand, got %v", err)
	}
	if stockErr.Available != 10 {
		t.Fatalf("expected 10 available, got %d", stockErr.Available)
	}

	// 6 + 4 fits exactly and still prices both lines.
	lines, err := r.Resolve(context.Background(), []Line{
		{ProductID: "P1", Qty: 6},
		{ProductID: "P1", Qty: 4},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 priced lines, got %d", len(lines))
	}
}

func TestResolveMissingRecord(t *testing.T) {
	r := &Resolver{Inventory: &stubLookup{records: map[Key]Record{}}}
	_, err := r.Resolve(context.Background(), []Line{{ProductID: "GHOST", Qty: 1}})
	var unavailable ItemUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ItemUnavailableError, got %v", err)
	}
	if unavailable.ProductID != "GHOST" {
		t.Fatalf("expected offending product GHOST, got %s", unavailable.ProductID)
	}
}

func TestResolveNonPositiveQuantity(t *testing.T) {
	r := &Resolver{Inventory: &stubLookup{}}
	_, err := r.Resolve(context.Background(), []Line{{ProductID: "P1", Qty: 0}})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestResolveBatchesOnce(t *testing.T) {
	lookup := &stubLookup{records: map[Key]Record{
		{ProductID: "P1"}: record("P1", "10", Discount{}, 10),
		{ProductID: "P2"}: record("P2", "20", Discount{}, 10),
	}}
	r := &Resolver{Inventory: lookup}
	_, err := r.Resolve(context.Background(), []Line{
		{ProductID: "P1", Qty: 1},
		{ProductID: "P2", Qty: 2},
		{ProductID: "P1", Qty: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lookup.calls != 1 {
		t.Fatalf("expected a single batched lookup, got %d", lookup.calls)
	}
}

func TestResolveLookupFailure(t *testing.T) {
	boom := errors.New("connection reset")
	r := &Resolver{Inventory: &stubLookup{err: boom}}
	_, err := r.Resolve(context.Background(), []Line{{ProductID: "P1", Qty: 1}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped lookup error, got %v", err)
	}
}
