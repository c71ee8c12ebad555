package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vkushwaha/storefront/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT code, description, discount_type, value, min_purchase, max_discount,
		starts_at, ends_at, usage_limit, uses, active
		FROM coupons WHERE UPPER(code) = UPPER($1)`

	incrementCouponUsesSQL = `UPDATE coupons SET uses = uses + 1 WHERE UPPER(code) = UPPER($1)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code (case-insensitive). The
// active flag and window are returned as stored: eligibility is the
// validator's call, so an inactive coupon is reported as inactive
// rather than unknown.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "find coupon by code %q", code)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find coupon by code %q", code)
	}
	return &c, nil
}

// IncrementUses atomically increments the usage counter for the coupon.
func (r *CouponRepository) IncrementUses(ctx context.Context, code string) error {
	if _, err := r.pool.Exec(ctx, incrementCouponUsesSQL, code); err != nil {
		return errors.Wrapf(err, "increment uses for coupon %q", code)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c          coupon.Coupon
		dtype      string
		startsAt   *time.Time
		endsAt     *time.Time
		usageLimit int32
		uses       int32
	)
	err := row.Scan(
		&c.Code, &c.Description, &dtype, &c.Value, &c.MinPurchase, &c.MaxDiscount,
		&startsAt, &endsAt, &usageLimit, &uses, &c.Active,
	)
	c.DiscountType = coupon.DiscountType(dtype)
	c.StartsAt = startsAt
	c.EndsAt = endsAt
	c.UsageLimit = int(usageLimit)
	c.Uses = int(uses)
	return c, err
}
