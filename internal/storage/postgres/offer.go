package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vkushwaha/storefront/internal/domain/offer"
)

// The active-window filter lives in SQL so every caller sees the same
// qualification rule. When several offers overlap, the most recently
// started one wins.
const activeOfferSQL = `SELECT id, scope, target_id, discount_type, value, starts_at, ends_at, active
	FROM offers
	WHERE scope = $1 AND target_id = $2 AND active = TRUE
		AND now() >= starts_at AND now() <= ends_at
	ORDER BY starts_at DESC
	LIMIT 1`

var _ offer.Catalog = (*OfferRepository)(nil)

// OfferRepository implements offer.Catalog backed by PostgreSQL.
type OfferRepository struct {
	pool *pgxpool.Pool
}

// NewOfferRepository returns an OfferRepository that uses the given pool.
func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// ActiveForProduct returns the active offer targeting the product, or
// (nil, nil) when none qualifies.
func (r *OfferRepository) ActiveForProduct(ctx context.Context, productID string) (*offer.Offer, error) {
	return r.active(ctx, offer.ScopeProduct, productID)
}

// ActiveForCategory returns the active offer targeting the category, or
// (nil, nil) when none qualifies.
func (r *OfferRepository) ActiveForCategory(ctx context.Context, categoryID string) (*offer.Offer, error) {
	return r.active(ctx, offer.ScopeCategory, categoryID)
}

func (r *OfferRepository) active(ctx context.Context, scope offer.Scope, targetID string) (*offer.Offer, error) {
	rows, err := r.pool.Query(ctx, activeOfferSQL, string(scope), targetID)
	if err != nil {
		return nil, errors.Wrapf(err, "query active offer for %s %q", scope, targetID)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOffer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "scan active offer for %s %q", scope, targetID)
	}
	return &o, nil
}

func scanOffer(row pgx.CollectableRow) (offer.Offer, error) {
	var (
		o     offer.Offer
		scope string
		dtype string
	)
	err := row.Scan(&o.ID, &scope, &o.TargetID, &dtype, &o.Value, &o.StartsAt, &o.EndsAt, &o.Active)
	o.Scope = offer.Scope(scope)
	o.DiscountType = offer.DiscountType(dtype)
	return o, err
}
