package checkout

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vkushwaha/storefront/internal/domain/cart"
	"github.com/vkushwaha/storefront/internal/domain/coupon"
	"github.com/vkushwaha/storefront/internal/domain/order"
)

// State is the checkout flow state.
type State string

const (
	StateIdle            State = "idle"
	StatePricingComputed State = "pricing_computed"
	StateCouponApplied   State = "coupon_applied"
	StateCouponRejected  State = "coupon_rejected"
	StateOrderSubmitted  State = "order_submitted"
	StateOrderConfirmed  State = "order_confirmed"
	StatePaymentFailed   State = "payment_failed"
)

var (
	// ErrAlreadySubmitted is returned when the cart or coupon is mutated
	// after the order was submitted.
	ErrAlreadySubmitted = errors.New("order already submitted")
	// ErrNothingToSubmit is returned when Submit is called with no
	// computed breakdown.
	ErrNothingToSubmit = errors.New("no pricing computed for submission")
	// ErrNotSubmitted is returned when a payment outcome is reported
	// before submission.
	ErrNotSubmitted = errors.New("order not submitted")
)

// Session drives one customer's checkout flow. Every mutation
// recomputes the breakdown from scratch; submission freezes it onto the
// order record. A recomputation result that arrives for an outdated
// cart signature is discarded (last-write-wins on cart state, not on
// arrival order).
type Session struct {
	calc    *Calculator
	orders  order.Repository
	coupons coupon.Repository

	mu         sync.Mutex
	state      State
	lines      []cart.Line
	couponCode string
	breakdown  *Breakdown
	frozen     *order.Order
}

// NewSession creates an idle checkout session.
func NewSession(calc *Calculator, orders order.Repository, coupons coupon.Repository) *Session {
	return &Session{
		calc:    calc,
		orders:  orders,
		coupons: coupons,
		state:   StateIdle,
	}
}

// State returns the current flow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Breakdown returns the latest computed breakdown, nil when none.
// After submission it returns the frozen breakdown.
func (s *Session) Breakdown() *Breakdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.breakdown
}

// SetLines replaces the cart snapshot and recomputes pricing.
func (s *Session) SetLines(ctx context.Context, lines []cart.Line) (*Breakdown, error) {
	s.mu.Lock()
	if s.state == StateOrderSubmitted || s.state == StateOrderConfirmed {
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	s.lines = append([]cart.Line(nil), lines...)
	s.mu.Unlock()

	return s.recompute(ctx, StatePricingComputed)
}

// ApplyCoupon replaces any previously applied coupon with the given code
// and recomputes. Rejection reverts the session to coupon-less pricing:
// the breakdown is recomputed without a coupon and returned alongside
// the tagged rejection reason so the caller can report it.
func (s *Session) ApplyCoupon(ctx context.Context, code string) (*Breakdown, error) {
	s.mu.Lock()
	if s.state == StateOrderSubmitted || s.state == StateOrderConfirmed {
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	s.couponCode = code
	s.mu.Unlock()

	b, err := s.recompute(ctx, StateCouponApplied)
	if err == nil || !isCouponRejection(err) {
		return b, err
	}

	// Coupon rejected: drop it and reprice without, keeping the reason.
	s.mu.Lock()
	s.couponCode = ""
	s.mu.Unlock()

	b, rerr := s.recompute(ctx, StateCouponRejected)
	if rerr != nil {
		return nil, rerr
	}
	return b, err
}

// RemoveCoupon clears the applied coupon and recomputes. The offer
// discount is untouched; only the coupon discount returns to zero.
func (s *Session) RemoveCoupon(ctx context.Context) (*Breakdown, error) {
	s.mu.Lock()
	if s.state == StateOrderSubmitted || s.state == StateOrderConfirmed {
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	s.couponCode = ""
	s.mu.Unlock()

	return s.recompute(ctx, StatePricingComputed)
}

// Submit freezes the current breakdown onto a new order record,
// persists it, and consumes one coupon use when a coupon is applied.
// From this point the breakdown is immutable even if offers or coupons
// are later edited.
//
// The persisted order is authoritative: if the usage increment fails
// after the order row was written, the failure is logged and the
// submission still succeeds, so a retry can never create a duplicate
// order. At worst a near-exhausted coupon is accepted once more.
func (s *Session) Submit(ctx context.Context) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateOrderSubmitted, StateOrderConfirmed:
		return nil, ErrAlreadySubmitted
	case StateIdle:
		return nil, ErrNothingToSubmit
	}
	if s.breakdown == nil || len(s.lines) == 0 {
		return nil, ErrNothingToSubmit
	}

	b := s.breakdown
	o := &order.Order{
		ID:             uuid.New().String(),
		Lines:          orderLines(s.lines),
		Subtotal:       b.Subtotal,
		OfferDiscount:  b.OfferDiscount,
		Tax:            b.Tax,
		Shipping:       b.Shipping,
		CouponDiscount: b.CouponDiscount,
		GrandTotal:     b.GrandTotal,
		CouponCode:     b.CouponCode,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if b.CouponCode != "" {
		if err := s.coupons.IncrementUses(ctx, b.CouponCode); err != nil {
			zctx.From(ctx).Warn("Coupon usage increment failed",
				zap.String("order_id", o.ID),
				zap.String("code", b.CouponCode),
				zap.Error(err),
			)
		}
	}

	s.frozen = o
	s.state = StateOrderSubmitted
	return o, nil
}

// ConfirmPayment marks the submitted order as confirmed.
func (s *Session) ConfirmPayment() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOrderSubmitted {
		return ErrNotSubmitted
	}
	s.state = StateOrderConfirmed
	return nil
}

// FailPayment marks the submitted order's payment as failed.
func (s *Session) FailPayment() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOrderSubmitted {
		return ErrNotSubmitted
	}
	s.state = StatePaymentFailed
	return nil
}

// recompute runs the calculator against the current snapshot without
// holding the lock, then installs the result only if the snapshot is
// still current. A result computed for a superseded signature is
// discarded and the fresher breakdown returned instead.
func (s *Session) recompute(ctx context.Context, onSuccess State) (*Breakdown, error) {
	s.mu.Lock()
	lines := append([]cart.Line(nil), s.lines...)
	code := s.couponCode
	sig := cart.Signature(lines, code)
	s.mu.Unlock()

	b, err := s.calc.Totals(ctx, lines, code)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cart.Signature(s.lines, s.couponCode) != sig {
		// Superseded mid-flight; keep whatever the newer computation set.
		return s.breakdown, nil
	}
	if err != nil {
		return nil, err
	}
	s.breakdown = b
	s.state = onSuccess
	return b, nil
}

// isCouponRejection reports whether err is one of the recoverable
// coupon rejection reasons, as opposed to an infrastructure failure.
func isCouponRejection(err error) bool {
	return errors.Is(err, coupon.ErrNotFound) ||
		errors.Is(err, coupon.ErrInactive) ||
		errors.Is(err, coupon.ErrBelowMinimum) ||
		errors.Is(err, coupon.ErrUsageExceeded) ||
		errors.Is(err, coupon.ErrInvalidConfiguration)
}

func orderLines(lines []cart.Line) []order.Line {
	out := make([]order.Line, len(lines))
	for i, l := range lines {
		out[i] = order.Line{
			ProductID:  l.ProductID,
			CategoryID: l.CategoryID,
			Price:      l.Price,
			Quantity:   l.Quantity,
			Size:       l.Size,
		}
	}
	return out
}
