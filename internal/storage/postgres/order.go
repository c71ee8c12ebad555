package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vkushwaha/storefront/internal/domain/order"
)

const createOrderSQL = `INSERT INTO orders
	(id, lines, subtotal, offer_discount, tax, shipping, coupon_discount, grand_total, coupon_code)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order with its frozen breakdown. Lines are
// serialized to JSON for the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return errors.Wrap(err, "marshal order lines")
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, linesJSON, o.Subtotal, o.OfferDiscount, o.Tax, o.Shipping,
		o.CouponDiscount, o.GrandTotal, o.CouponCode,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}

	return nil
}
