package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/vkushwaha/storefront/internal/domain/cart"
	"github.com/vkushwaha/storefront/internal/domain/product"
)

type itemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
}

type quoteRequest struct {
	Items      []itemRequest `json:"items"`
	CouponCode string        `json:"couponCode,omitempty"`
}

// Quote computes a pricing breakdown for the requested items and
// optional coupon without placing an order.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", "")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items required", "")
		return
	}

	lines, err := h.buildLines(r.Context(), req.Items)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	b, err := h.calc.Totals(r.Context(), lines, req.CouponCode)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeBreakdown(e, b)
	})
}

// buildLines turns requested items into cart lines priced from the
// catalog. Prices and categories always come from the product records,
// never from the client.
func (h *Handler) buildLines(ctx context.Context, items []itemRequest) ([]cart.Line, error) {
	ids := make([]string, len(items))
	for i, item := range items {
		if item.ProductID == "" {
			return nil, errors.Wrap(cart.ErrInvalidLine, "product id required")
		}
		if item.Quantity <= 0 {
			return nil, errors.Wrapf(cart.ErrInvalidLine, "quantity must be greater than 0 for product %s", item.ProductID)
		}
		ids[i] = item.ProductID
	}

	fetched, err := h.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	lines := make([]cart.Line, len(items))
	for i, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, errors.Wrapf(product.ErrNotFound, "product %s", item.ProductID)
		}
		lines[i] = cart.Line{
			ProductID:  p.ID,
			CategoryID: p.CategoryID,
			Price:      p.Price,
			Quantity:   item.Quantity,
			Size:       item.Size,
		}
	}
	return lines, nil
}
