// Package coupon implements coupon eligibility checks and discount
// computation.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the order amount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the order amount.
	DiscountFixed DiscountType = "fixed"
)

// Tagged rejection reasons, in the order the validator checks them.
// Every one of them is recoverable at the caller: a rejected coupon
// simply leaves the order without a coupon discount.
var (
	// ErrNotFound is returned when no coupon exists for a code.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when a coupon is disabled or outside its valid window.
	ErrInactive = errors.New("coupon inactive")
	// ErrBelowMinimum is returned when the order amount is under the coupon's minimum purchase.
	ErrBelowMinimum = errors.New("order amount below coupon minimum purchase")
	// ErrUsageExceeded is returned when a coupon has exhausted its allowed uses.
	ErrUsageExceeded = errors.New("coupon usage limit reached")
	// ErrInvalidConfiguration is returned when a coupon record violates
	// its own invariants; the record is rejected, never applied.
	ErrInvalidConfiguration = errors.New("invalid discount configuration")
)

var hundred = decimal.NewFromInt(100)

// Coupon is an administrator-configured, code-activated discount with
// eligibility rules, applied at most once per order.
type Coupon struct {
	Code         string
	Description  string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinPurchase  decimal.Decimal
	// MaxDiscount caps percentage discounts; zero means no cap. It is
	// meaningless for fixed coupons.
	MaxDiscount decimal.Decimal
	StartsAt    *time.Time
	EndsAt      *time.Time
	// UsageLimit of 0 means unlimited. Uses is the consumed count as
	// reported by the owning collaborator.
	UsageLimit int
	Uses       int
	Active     bool
}

// Validate checks the coupon's own invariants: percentages must lie in
// (0, 100], fixed values must be positive.
func (c *Coupon) Validate() error {
	switch c.DiscountType {
	case DiscountPercentage:
		if !c.Value.IsPositive() || c.Value.GreaterThan(hundred) {
			return errors.Wrapf(ErrInvalidConfiguration, "coupon %s: percentage must be in (0, 100], got %s", c.Code, c.Value)
		}
	case DiscountFixed:
		if !c.Value.IsPositive() {
			return errors.Wrapf(ErrInvalidConfiguration, "coupon %s: fixed value must be positive, got %s", c.Code, c.Value)
		}
	default:
		return errors.Wrapf(ErrInvalidConfiguration, "coupon %s: unsupported discount type %q", c.Code, c.DiscountType)
	}
	return nil
}

// Result holds a successfully validated coupon and its discount amount.
type Result struct {
	Coupon   *Coupon
	Discount decimal.Decimal
}

// Repository provides coupon lookup and usage accounting. FindByCode is
// case-insensitive on the code and returns ErrNotFound when absent.
// Usage counting is owned by the collaborator behind this interface;
// the validator only consumes the remaining-uses fact.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	IncrementUses(ctx context.Context, code string) error
}
