package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/pricing"
)

const batchQuery = `
SELECT product_id, variant_id, sale_price::text, discount_kind, discount_value::text, quantity_available, weight_gram
FROM inventory
WHERE product_id = ANY($1)
`

// Repo reads inventory records from Postgres. It implements pricing.Lookup.
type Repo struct {
	Pool *pgxpool.Pool
}

// Batch fetches the records for all requested keys with a single query.
// Keys without a matching row are simply absent from the result map.
func (r Repo) Batch(ctx context.Context, keys []pricing.Key) (map[pricing.Key]pricing.Record, error) {
	if r.Pool == nil {
		return nil, errors.New("inventory repo not configured")
	}
	out := make(map[pricing.Key]pricing.Record, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	productIDs := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k.ProductID]; ok {
			continue
		}
		seen[k.ProductID] = struct{}{}
		productIDs = append(productIDs, k.ProductID)
	}
	wanted := make(map[pricing.Key]struct{}, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
	}
	rows, err := r.Pool.Query(ctx, batchQuery, productIDs)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key           pricing.Key
			salePrice     string
			discountKind  string
			discountValue string
			available     int
			weightGram    int64
		)
		if err := rows.Scan(&key.ProductID, &key.VariantID, &salePrice, &discountKind, &discountValue, &available, &weightGram); err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		if _, ok := wanted[key]; !ok {
			continue
		}
		sale, err := decimal.NewFromString(salePrice)
		if err != nil {
			return nil, fmt.Errorf("inventory %s/%s: bad sale price: %w", key.ProductID, key.VariantID, err)
		}
		value, err := decimal.NewFromString(discountValue)
		if err != nil {
			return nil, fmt.Errorf("inventory %s/%s: bad discount value: %w", key.ProductID, key.VariantID, err)
		}
		discount, err := pricing.ParseDiscount(discountKind, value)
		if err != nil {
			return nil, fmt.Errorf("inventory %s/%s: %w", key.ProductID, key.VariantID, err)
		}
		out[key] = pricing.Record{
			Key:               key,
			SalePrice:         sale,
			Discount:          discount,
			QuantityAvailable: available,
			WeightGram:        weightGram,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read inventory rows: %w", err)
	}
	return out, nil
}
