package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Key identifies a sellable unit. VariantID is empty for products without variants.
type Key struct {
	ProductID string
	VariantID string
}

// Record is the authoritative inventory snapshot for one sellable unit.
type Record struct {
	Key
	SalePrice         decimal.Decimal
	Discount          Discount
	QuantityAvailable int
	WeightGram        int64
}

// Lookup batches inventory reads. Implementations must issue a single query
// per call regardless of how many keys are requested.
type Lookup interface {
	Batch(ctx context.Context, keys []Key) (map[Key]Record, error)
}

// Line is one cart entry to be priced. Client-supplied prices never reach
// this package; the unit price always comes from the inventory record.
type Line struct {
	ProductID string
	VariantID string
	Qty       int
}

// PricedLine is the authoritative pricing for a single cart line.
type PricedLine struct {
	ProductID    string
	VariantID    string
	Qty          int
	OriginalUnit decimal.Decimal
	FinalUnit    decimal.Decimal
	LineSubtotal decimal.Decimal
	LineDiscount decimal.Decimal
	WeightGram   int64
}

// ItemUnavailableError reports a cart line with no inventory record.
type ItemUnavailableError struct {
	ProductID string
}

func (e ItemUnavailableError) Error() string {
	return fmt.Sprintf("product %s is unavailable", e.ProductID)
}

// InsufficientStockError reports a requested quantity above the available stock.
type InsufficientStockError struct {
	ProductID string
	Available int
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: %d available", e.ProductID, e.Available)
}

// ErrInvalidQuantity is returned for lines with a non-positive quantity.
var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// Resolver resolves authoritative per-line pricing from inventory data.
type Resolver struct {
	Inventory Lookup
}

// Resolve prices every line in input order from a single batched inventory
// read. The first offending line aborts the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, lines []Line) ([]PricedLine, error) {
	if r == nil || r.Inventory == nil {
		return nil, errors.New("price resolver not configured")
	}
	keys := make([]Key, 0, len(lines))
	seen := make(map[Key]struct{}, len(lines))
	for _, ln := range lines {
		if ln.Qty <= 0 {
			return nil, fmt.Errorf("product %s: %w", ln.ProductID, ErrInvalidQuantity)
		}
		k := Key{ProductID: ln.ProductID, VariantID: ln.VariantID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	records, err := r.Inventory.Batch(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("inventory lookup: %w", err)
	}
	out := make([]PricedLine, 0, len(lines))
	demand := make(map[Key]int, len(keys))
	for _, ln := range lines {
		k := Key{ProductID: ln.ProductID, VariantID: ln.VariantID}
		rec, ok := records[k]
		if !ok {
			return nil, ItemUnavailableError{ProductID: ln.ProductID}
		}
		// Availability is checked against the cart's aggregate demand for
		// the unit, so duplicate lines cannot oversell it.
		demand[k] += ln.Qty
		if demand[k] > rec.QuantityAvailable {
			return nil, InsufficientStockError{ProductID: ln.ProductID, Available: rec.QuantityAvailable}
		}
		finalUnit := rec.Discount.ApplyTo(rec.SalePrice)
		qty := decimal.NewFromInt(int64(ln.Qty))
		out = append(out, PricedLine{
			ProductID:    ln.ProductID,
			VariantID:    ln.VariantID,
			Qty:          ln.Qty,
			OriginalUnit: rec.SalePrice,
			FinalUnit:    finalUnit,
			LineSubtotal: finalUnit.Mul(qty),
			LineDiscount: rec.SalePrice.Sub(finalUnit).Mul(qty),
			WeightGram:   rec.WeightGram * int64(ln.Qty),
		})
	}
	return out, nil
}
