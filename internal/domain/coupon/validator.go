package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator validates a coupon code against an order amount and returns
// the computed discount. The order amount is the subtotal minus the
// already-applied offer discounts: offers apply before the coupon.
type Validator interface {
	Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (*Result, error)
}

// RepoValidator implements Validator by looking up coupons from a
// Repository. It is read-only: usage counters are incremented by the
// order submission path, not during validation, so previewing a coupon
// in the cart never consumes a use.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate runs the eligibility pipeline in order, short-circuiting on
// the first failure: lookup, active window, minimum purchase, usage
// limit, record invariants. On success it returns the coupon and its
// discount, clamped to [0, orderAmount] and rounded to 2 places.
func (v *RepoValidator) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (*Result, error) {
	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	now := v.now()
	if !c.Active {
		return nil, ErrInactive
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return nil, ErrInactive
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return nil, ErrInactive
	}

	if orderAmount.LessThan(c.MinPurchase) {
		return nil, ErrBelowMinimum
	}

	if c.UsageLimit > 0 && c.Uses >= c.UsageLimit {
		return nil, ErrUsageExceeded
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &Result{
		Coupon:   c,
		Discount: discount(c, orderAmount),
	}, nil
}

// discount computes the raw coupon discount and clamps it to
// [0, orderAmount].
func discount(c *Coupon, orderAmount decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		d = orderAmount.Mul(c.Value).Div(hundred)
		if c.MaxDiscount.IsPositive() {
			d = decimal.Min(d, c.MaxDiscount)
		}
	case DiscountFixed:
		d = c.Value
	}

	if d.IsNegative() {
		d = decimal.Zero
	}
	if d.GreaterThan(orderAmount) {
		d = orderAmount
	}
	return d.Round(2)
}
