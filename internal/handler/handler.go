// Package handler exposes the pricing engine over HTTP: catalog reads,
// checkout quotes, coupon validation, and order placement.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vkushwaha/storefront/internal/domain/checkout"
	"github.com/vkushwaha/storefront/internal/domain/coupon"
	"github.com/vkushwaha/storefront/internal/domain/order"
	"github.com/vkushwaha/storefront/internal/domain/product"
)

// Handler serves the storefront API, delegating business logic to the
// injected domain collaborators.
type Handler struct {
	products product.Repository
	coupons  coupon.Validator
	calc     *checkout.Calculator
	orders   order.Repository
	usage    coupon.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	coupons coupon.Validator,
	calc *checkout.Calculator,
	orders order.Repository,
	usage coupon.Repository,
) *Handler {
	return &Handler{
		products: products,
		coupons:  coupons,
		calc:     calc,
		orders:   orders,
		usage:    usage,
	}
}

// Routes mounts all API routes on a new chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{productID}", h.GetProduct)
		r.Post("/checkout/quote", h.Quote)
		r.Post("/coupons/validate", h.ValidateCoupon)
		r.Post("/orders", h.PlaceOrder)
	})
	return r
}
