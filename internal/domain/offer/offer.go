// Package offer implements promotional offer lookup and per-line
// discount resolution.
package offer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/vkushwaha/storefront/internal/domain/cart"
)

// DiscountType enumerates the supported offer discount strategies.
type DiscountType string

const (
	// DiscountPercentage discounts a percentage of the line amount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed discounts a fixed amount per unit, capped at the line amount.
	DiscountFixed DiscountType = "fixed"
)

// Scope says what an offer is attached to.
type Scope string

const (
	// ScopeProduct targets a single product.
	ScopeProduct Scope = "product"
	// ScopeCategory targets every product in a category.
	ScopeCategory Scope = "category"
)

// ErrInvalidConfiguration is returned when an offer record violates its
// own invariants. Such a record is excluded from resolution rather than
// failing the whole computation.
var ErrInvalidConfiguration = errors.New("invalid discount configuration")

var hundred = decimal.NewFromInt(100)

// Offer is an administrator-configured, time-bounded discount attached
// to a product or a category. The pricing engine treats offers as
// read-only input for the duration of one computation.
type Offer struct {
	ID           string
	Scope        Scope
	TargetID     string
	DiscountType DiscountType
	Value        decimal.Decimal
	StartsAt     time.Time
	EndsAt       time.Time
	Active       bool
}

// Validate checks the offer's own invariants: percentages must lie in
// (0, 100], fixed values must be positive.
func (o *Offer) Validate() error {
	switch o.DiscountType {
	case DiscountPercentage:
		if !o.Value.IsPositive() || o.Value.GreaterThan(hundred) {
			return errors.Wrapf(ErrInvalidConfiguration, "offer %s: percentage must be in (0, 100], got %s", o.ID, o.Value)
		}
	case DiscountFixed:
		if !o.Value.IsPositive() {
			return errors.Wrapf(ErrInvalidConfiguration, "offer %s: fixed value must be positive, got %s", o.ID, o.Value)
		}
	default:
		return errors.Wrapf(ErrInvalidConfiguration, "offer %s: unsupported discount type %q", o.ID, o.DiscountType)
	}
	return nil
}

// ActiveAt reports whether the offer is live at the given instant:
// flagged active and inside its [StartsAt, EndsAt] window.
func (o *Offer) ActiveAt(now time.Time) bool {
	return o.Active && !now.Before(o.StartsAt) && !now.After(o.EndsAt)
}

// Discount computes the discount this offer yields on the given line,
// clamped to [0, line amount].
//
//   - percentage: lineAmount × value / 100
//   - fixed: min(lineAmount, value × quantity)
func (o *Offer) Discount(line cart.Line) decimal.Decimal {
	amount := line.Amount()

	var d decimal.Decimal
	switch o.DiscountType {
	case DiscountPercentage:
		d = amount.Mul(o.Value).Div(hundred)
	case DiscountFixed:
		d = decimal.Min(amount, o.Value.Mul(decimal.NewFromInt(int64(line.Quantity))))
	default:
		return decimal.Zero
	}

	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(amount) {
		return amount
	}
	return d
}

// Catalog looks up the currently active offer for a product or a
// category. Both calls return (nil, nil) when no qualifying offer
// exists: that is the common case, not a failure.
type Catalog interface {
	ActiveForProduct(ctx context.Context, productID string) (*Offer, error)
	ActiveForCategory(ctx context.Context, categoryID string) (*Offer, error)
}
