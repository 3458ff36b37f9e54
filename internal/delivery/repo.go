package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const listQuery = `
SELECT id, label, cost::text, regions, max_weight_gram
FROM delivery_options
ORDER BY position, id
`

// Repo reads the delivery catalog from Postgres in display order.
type Repo struct {
	Pool *pgxpool.Pool
}

// List fetches all options with a single query.
func (r Repo) List(ctx context.Context) ([]Option, error) {
	if r.Pool == nil {
		return nil, errors.New("delivery repo not configured")
	}
	rows, err := r.Pool.Query(ctx, listQuery)
	if err != nil {
		return nil, fmt.Errorf("query delivery options: %w", err)
	}
	defer rows.Close()
	var options []Option
	for rows.Next() {
		var (
			opt  Option
			cost string
		)
		if err := rows.Scan(&opt.ID, &opt.Label, &cost, &opt.Regions, &opt.MaxWeightGram); err != nil {
			return nil, fmt.Errorf("scan delivery option: %w", err)
		}
		opt.Cost, err = decimal.NewFromString(cost)
		if err != nil {
			return nil, fmt.Errorf("delivery option %s: bad cost: %w", opt.ID, err)
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read delivery options: %w", err)
	}
	return options, nil
}
