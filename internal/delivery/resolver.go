package delivery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Option is a named shipping method with a flat cost and its eligibility
// constraints. An empty Regions list means the option ships everywhere; a
// zero MaxWeightGram means no weight cap.
type Option struct {
	ID            string          `json:"id"`
	Label         string          `json:"label"`
	Cost          decimal.Decimal `json:"cost"`
	Regions       []string        `json:"regions,omitempty"`
	MaxWeightGram int64           `json:"maxWeightGram,omitempty"`
}

// CartProfile carries the cart-derived facts eligibility is evaluated
// against. It is computed from inventory data, never stored on the cart.
type CartProfile struct {
	Region     string
	WeightGram int64
}

// OptionNotFoundError reports a delivery option that is absent or not
// eligible for the current cart.
type OptionNotFoundError struct {
	ID string
}

func (e OptionNotFoundError) Error() string {
	return fmt.Sprintf("delivery option %s not found", e.ID)
}

// Source lists the delivery catalog in display order.
type Source interface {
	List(ctx context.Context) ([]Option, error)
}

// Resolver lists, filters and validates delivery options.
type Resolver struct {
	Source Source
}

// List returns the ordered catalog. When a cart profile is supplied only
// eligible options are returned; with a nil profile the full catalog comes
// back, for populating a selection UI before totals are known.
func (r *Resolver) List(ctx context.Context, cart *CartProfile) ([]Option, error) {
	if r == nil || r.Source == nil {
		return nil, errors.New("delivery resolver not configured")
	}
	options, err := r.Source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list delivery options: %w", err)
	}
	if cart == nil {
		return options, nil
	}
	eligible := make([]Option, 0, len(options))
	for _, opt := range options {
		if opt.Eligible(*cart) {
			eligible = append(eligible, opt)
		}
	}
	return eligible, nil
}

// GetByID resolves a single option, treating an ineligible option the same
// as an absent one.
func (r *Resolver) GetByID(ctx context.Context, id string, cart *CartProfile) (Option, error) {
	options, err := r.List(ctx, cart)
	if err != nil {
		return Option{}, err
	}
	for _, opt := range options {
		if opt.ID == id {
			return opt, nil
		}
	}
	return Option{}, OptionNotFoundError{ID: id}
}

// Eligible reports whether the option can serve the given cart.
func (o Option) Eligible(cart CartProfile) bool {
	if o.MaxWeightGram > 0 && cart.WeightGram > o.MaxWeightGram {
		return false
	}
	if len(o.Regions) > 0 {
		region := strings.ToLower(strings.TrimSpace(cart.Region))
		if region == "" {
			return false
		}
		return slices.ContainsFunc(o.Regions, func(allowed string) bool {
			return strings.EqualFold(strings.TrimSpace(allowed), region)
		})
	}
	return true
}
