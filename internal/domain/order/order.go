// Package order defines the persisted order record. An order stores the
// breakdown frozen at submission time: later offer or coupon edits never
// change it.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Line is one purchased cart entry as recorded on the order.
type Line struct {
	ProductID  string          `json:"product_id"`
	CategoryID string          `json:"category_id"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	Size       string          `json:"size,omitempty"`
}

// Order is a submitted customer order with its frozen pricing breakdown.
type Order struct {
	ID             string
	Lines          []Line
	Subtotal       decimal.Decimal
	OfferDiscount  decimal.Decimal
	Tax            decimal.Decimal
	Shipping       decimal.Decimal
	CouponDiscount decimal.Decimal
	GrandTotal     decimal.Decimal
	CouponCode     string
	CreatedAt      time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
}
