package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/vkushwaha/storefront/internal/domain/cart"
	"github.com/vkushwaha/storefront/internal/domain/checkout"
	"github.com/vkushwaha/storefront/internal/domain/coupon"
	"github.com/vkushwaha/storefront/internal/domain/offer"
	"github.com/vkushwaha/storefront/internal/domain/product"
)

// writeJSON streams a JSON document built by encode.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError responds with {"error": ..., "reason": ...}; reason may be
// empty and is then omitted.
func writeError(w http.ResponseWriter, status int, msg, reason string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("error")
		e.Str(msg)
		if reason != "" {
			e.FieldStart("reason")
			e.Str(reason)
		}
		e.ObjEnd()
	})
}

// writeDomainError maps domain errors to HTTP responses with their
// tagged reasons. Unknown errors are logged and become opaque 500s.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidLine):
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_cart_line")
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), "product_not_found")
	case errors.Is(err, coupon.ErrNotFound):
		writeError(w, http.StatusUnprocessableEntity, "coupon not found", "coupon_not_found")
	case errors.Is(err, coupon.ErrInactive):
		writeError(w, http.StatusUnprocessableEntity, "coupon inactive or expired", "coupon_inactive")
	case errors.Is(err, coupon.ErrBelowMinimum):
		writeError(w, http.StatusUnprocessableEntity, "order amount below coupon minimum", "coupon_below_minimum")
	case errors.Is(err, coupon.ErrUsageExceeded):
		writeError(w, http.StatusUnprocessableEntity, "coupon usage limit reached", "coupon_usage_exceeded")
	case errors.Is(err, coupon.ErrInvalidConfiguration), errors.Is(err, offer.ErrInvalidConfiguration):
		writeError(w, http.StatusUnprocessableEntity, "discount configured incorrectly", "invalid_discount_config")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", "")
	}
}

// encodeBreakdown writes a pricing breakdown object.
func encodeBreakdown(e *jx.Encoder, b *checkout.Breakdown) {
	e.ObjStart()
	e.FieldStart("subtotal")
	e.Float64(b.Subtotal.InexactFloat64())
	e.FieldStart("offerDiscount")
	e.Float64(b.OfferDiscount.InexactFloat64())
	e.FieldStart("tax")
	e.Float64(b.Tax.InexactFloat64())
	e.FieldStart("shipping")
	e.Float64(b.Shipping.InexactFloat64())
	e.FieldStart("couponDiscount")
	e.Float64(b.CouponDiscount.InexactFloat64())
	e.FieldStart("grandTotal")
	e.Float64(b.GrandTotal.InexactFloat64())
	if b.CouponCode != "" {
		e.FieldStart("couponCode")
		e.Str(b.CouponCode)
	}
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range b.Lines {
		encodeLinePricing(e, l)
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeLinePricing(e *jx.Encoder, l offer.LinePricing) {
	e.ObjStart()
	e.FieldStart("productId")
	e.Str(l.ProductID)
	e.FieldStart("lineAmount")
	e.Float64(l.LineAmount.InexactFloat64())
	e.FieldStart("discount")
	e.Float64(l.Discount.Round(2).InexactFloat64())
	if l.AppliedOfferID != "" {
		e.FieldStart("appliedOfferId")
		e.Str(l.AppliedOfferID)
	}
	e.ObjEnd()
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("categoryId")
	e.Str(p.CategoryID)
	e.FieldStart("price")
	e.Float64(p.Price.InexactFloat64())
	e.ObjEnd()
}
