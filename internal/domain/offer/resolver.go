package offer

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vkushwaha/storefront/internal/domain/cart"
)

// fetchConcurrency bounds the number of in-flight catalog lookups per
// batch resolution.
const fetchConcurrency = 8

// LinePricing is the pricing result for a single cart line.
type LinePricing struct {
	ProductID  string
	LineAmount decimal.Decimal
	// Discount is the applied offer discount, always in [0, LineAmount].
	Discount decimal.Decimal
	// AppliedOfferID identifies the winning offer, empty when no offer
	// applied.
	AppliedOfferID string
}

// Resolver computes the best applicable offer discount for cart lines.
// It holds no per-request state: resolution is a pure function of the
// lines and the catalog contents at lookup time.
type Resolver struct {
	catalog Catalog
	now     func() time.Time
}

// NewResolver creates a Resolver backed by the given catalog.
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog, now: time.Now}
}

// PriceLine resolves the discount for a single line. A catalog lookup
// failure is logged and treated as "no offer" so pricing can proceed
// without promotions.
func (r *Resolver) PriceLine(ctx context.Context, line cart.Line) LinePricing {
	product := r.lookup(ctx, line.ProductID, r.catalog.ActiveForProduct)
	var category *Offer
	if line.CategoryID != "" {
		category = r.lookup(ctx, line.CategoryID, r.catalog.ActiveForCategory)
	}
	return r.resolve(ctx, line, product, category)
}

// PriceLines resolves discounts for every line of a cart snapshot.
// Offer lookups are independent and read-only, so the distinct product
// and category ids are fetched concurrently and joined back onto the
// lines in their original order. The result always covers every input
// line; lookups that fail contribute no offer for their target.
func (r *Resolver) PriceLines(ctx context.Context, lines []cart.Line) []LinePricing {
	productIDs := distinct(lines, func(l cart.Line) string { return l.ProductID })
	categoryIDs := distinct(lines, func(l cart.Line) string { return l.CategoryID })

	byProduct := make([]*Offer, len(productIDs))
	byCategory := make([]*Offer, len(categoryIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, id := range productIDs {
		g.Go(func() error {
			byProduct[i] = r.lookup(gctx, id, r.catalog.ActiveForProduct)
			return nil
		})
	}
	for i, id := range categoryIDs {
		g.Go(func() error {
			byCategory[i] = r.lookup(gctx, id, r.catalog.ActiveForCategory)
			return nil
		})
	}
	// Lookup errors are swallowed per target, so Wait never fails; it
	// only serves as the barrier before aggregation.
	_ = g.Wait()

	productOffers := make(map[string]*Offer, len(productIDs))
	for i, id := range productIDs {
		productOffers[id] = byProduct[i]
	}
	categoryOffers := make(map[string]*Offer, len(categoryIDs))
	for i, id := range categoryIDs {
		categoryOffers[id] = byCategory[i]
	}

	out := make([]LinePricing, len(lines))
	for i, line := range lines {
		out[i] = r.resolve(ctx, line, productOffers[line.ProductID], categoryOffers[line.CategoryID])
	}
	return out
}

type lookupFunc func(ctx context.Context, id string) (*Offer, error)

// lookup fetches one offer, mapping lookup failure to "no offer".
func (r *Resolver) lookup(ctx context.Context, id string, fn lookupFunc) *Offer {
	o, err := fn(ctx, id)
	if err != nil {
		zctx.From(ctx).Warn("Offer lookup unavailable, pricing without offer",
			zap.String("target_id", id),
			zap.Error(err),
		)
		return nil
	}
	return o
}

// resolve picks the better of the product and category offer for the
// line. The product offer wins exact ties: it is the more specific
// match. Offers that are expired, inactive, or violate their own
// invariants contribute nothing.
func (r *Resolver) resolve(ctx context.Context, line cart.Line, product, category *Offer) LinePricing {
	p := LinePricing{
		ProductID:  line.ProductID,
		LineAmount: line.Amount(),
		Discount:   decimal.Zero,
	}

	productDiscount := r.usableDiscount(ctx, product, line)
	categoryDiscount := r.usableDiscount(ctx, category, line)

	switch {
	case productDiscount.IsPositive() && productDiscount.GreaterThanOrEqual(categoryDiscount):
		p.Discount = productDiscount
		p.AppliedOfferID = product.ID
	case categoryDiscount.IsPositive():
		p.Discount = categoryDiscount
		p.AppliedOfferID = category.ID
	}
	return p
}

// usableDiscount returns the offer's discount for the line, or zero when
// the offer is absent, outside its active window, or misconfigured.
func (r *Resolver) usableDiscount(ctx context.Context, o *Offer, line cart.Line) decimal.Decimal {
	if o == nil || !o.ActiveAt(r.now()) {
		return decimal.Zero
	}
	if err := o.Validate(); err != nil {
		zctx.From(ctx).Warn("Offer excluded from resolution", zap.String("offer_id", o.ID), zap.Error(err))
		return decimal.Zero
	}
	return o.Discount(line)
}

// distinct collects unique non-empty keys from lines, preserving first
// occurrence order.
func distinct(lines []cart.Line, key func(cart.Line) string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		k := key(l)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
