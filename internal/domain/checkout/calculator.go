// Package checkout assembles the final pricing breakdown from cart
// lines, resolved offers, and an optional coupon.
package checkout

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/vkushwaha/storefront/internal/domain/cart"
	"github.com/vkushwaha/storefront/internal/domain/coupon"
	"github.com/vkushwaha/storefront/internal/domain/offer"
)

// Config holds the fixed business rules of the breakdown computation.
type Config struct {
	// TaxRate is a single flat rate applied to the pre-rounded subtotal.
	TaxRate decimal.Decimal
	// FreeShippingThreshold: shipping is free when the subtotal is
	// strictly greater than this value. At exactly the threshold the
	// flat fee is still charged.
	FreeShippingThreshold decimal.Decimal
	// ShippingFee is the flat fee charged below the threshold.
	ShippingFee decimal.Decimal
}

// DefaultConfig returns the stated business rules: 18% tax, free
// shipping above 1000, flat fee of 100.
func DefaultConfig() Config {
	return Config{
		TaxRate:               decimal.RequireFromString("0.18"),
		FreeShippingThreshold: decimal.NewFromInt(1000),
		ShippingFee:           decimal.NewFromInt(100),
	}
}

// Breakdown is the itemized result of one pricing computation. It is a
// derived, disposable value: recomputed whenever the cart, the coupon,
// or the offer catalog changes, and only persisted once frozen onto a
// submitted order.
type Breakdown struct {
	Lines          []offer.LinePricing
	Subtotal       decimal.Decimal
	OfferDiscount  decimal.Decimal
	Tax            decimal.Decimal
	Shipping       decimal.Decimal
	CouponDiscount decimal.Decimal
	GrandTotal     decimal.Decimal
	// CouponCode is the normalized applied code, empty when none.
	CouponCode string
	// Signature fingerprints the (lines, coupon) input this breakdown
	// was computed from.
	Signature string
}

// Calculator produces pricing breakdowns. It is stateless: the breakdown
// is a pure function of the cart snapshot, the offer catalog contents,
// and the coupon, never a running accumulator.
type Calculator struct {
	resolver *offer.Resolver
	coupons  coupon.Validator
	cfg      Config
}

// NewCalculator creates a Calculator from its collaborators.
func NewCalculator(resolver *offer.Resolver, coupons coupon.Validator, cfg Config) *Calculator {
	return &Calculator{resolver: resolver, coupons: coupons, cfg: cfg}
}

// Totals computes the full breakdown for the given cart snapshot and
// optional coupon code.
//
// Sequencing: offers apply per line first; the coupon is then validated
// against subtotal − offerDiscount. Tax is computed from the pre-rounded
// subtotal; shipping is free only strictly above the threshold. The
// grand total is clamped at zero.
//
// Malformed lines fail with cart.ErrInvalidLine. Coupon rejections
// propagate as the tagged coupon errors; offer lookup failures never
// fail the computation.
func (c *Calculator) Totals(ctx context.Context, lines []cart.Line, couponCode string) (*Breakdown, error) {
	if err := cart.ValidateLines(lines); err != nil {
		return nil, err
	}

	pricings := c.resolver.PriceLines(ctx, lines)

	subtotal := decimal.Zero
	offerDiscount := decimal.Zero
	for _, p := range pricings {
		subtotal = subtotal.Add(p.LineAmount)
		offerDiscount = offerDiscount.Add(p.Discount)
	}

	tax := subtotal.Mul(c.cfg.TaxRate).Round(2)

	shipping := c.cfg.ShippingFee
	if subtotal.GreaterThan(c.cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	couponDiscount := decimal.Zero
	code := strings.ToUpper(strings.TrimSpace(couponCode))
	if code != "" {
		res, err := c.coupons.Validate(ctx, code, subtotal.Sub(offerDiscount))
		if err != nil {
			return nil, errors.Wrap(err, "validate coupon")
		}
		couponDiscount = res.Discount
	}

	grand := subtotal.Add(tax).Add(shipping).Sub(offerDiscount).Sub(couponDiscount)
	if grand.IsNegative() {
		grand = decimal.Zero
	}

	return &Breakdown{
		Lines:          pricings,
		Subtotal:       subtotal.Round(2),
		OfferDiscount:  offerDiscount.Round(2),
		Tax:            tax,
		Shipping:       shipping.Round(2),
		CouponDiscount: couponDiscount.Round(2),
		GrandTotal:     grand.Round(2),
		CouponCode:     code,
		Signature:      cart.Signature(lines, code),
	}, nil
}
