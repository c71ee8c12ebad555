package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkushwaha/storefront/internal/domain/checkout"
	"github.com/vkushwaha/storefront/internal/domain/coupon"
	"github.com/vkushwaha/storefront/internal/domain/offer"
	"github.com/vkushwaha/storefront/internal/domain/order"
	"github.com/vkushwaha/storefront/internal/domain/product"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type fakeProductRepo struct {
	products map[string]product.Product
}

func (f *fakeProductRepo) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeOfferCatalog struct {
	categories map[string]*offer.Offer
}

func (f *fakeOfferCatalog) ActiveForProduct(_ context.Context, _ string) (*offer.Offer, error) {
	return nil, nil
}

func (f *fakeOfferCatalog) ActiveForCategory(_ context.Context, id string) (*offer.Offer, error) {
	return f.categories[id], nil
}

type fakeCouponRepo struct {
	coupons     map[string]*coupon.Coupon
	incremented []string
}

func (f *fakeCouponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

func (f *fakeCouponRepo) IncrementUses(_ context.Context, code string) error {
	f.incremented = append(f.incremented, code)
	return nil
}

type fakeOrderRepo struct {
	created []*order.Order
}

func (f *fakeOrderRepo) Create(_ context.Context, o *order.Order) error {
	f.created = append(f.created, o)
	return nil
}

type fixture struct {
	handler *Handler
	server  *httptest.Server
	orders  *fakeOrderRepo
	usage   *fakeCouponRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	products := &fakeProductRepo{products: map[string]product.Product{
		"p1": {ID: "p1", Name: "Classic Masala Chai", CategoryID: "catA", Price: d("500")},
		"p2": {ID: "p2", Name: "Cotton Kurta", CategoryID: "apparel", Price: d("899")},
	}}

	catalog := &fakeOfferCatalog{categories: map[string]*offer.Offer{
		"catA": {
			ID:           "oA",
			Scope:        offer.ScopeCategory,
			TargetID:     "catA",
			DiscountType: offer.DiscountPercentage,
			Value:        d("10"),
			StartsAt:     time.Now().Add(-time.Hour),
			EndsAt:       time.Now().Add(time.Hour),
			Active:       true,
		},
	}}

	coupons := &fakeCouponRepo{coupons: map[string]*coupon.Coupon{
		"FLAT100": {
			Code:         "FLAT100",
			Description:  "Flat 100 off",
			DiscountType: coupon.DiscountFixed,
			Value:        d("100"),
			Active:       true,
		},
		"SAVE10": {
			Code:         "SAVE10",
			Description:  "10% off orders above 100, capped at 50",
			DiscountType: coupon.DiscountPercentage,
			Value:        d("10"),
			MinPurchase:  d("100"),
			MaxDiscount:  d("50"),
			Active:       true,
		},
	}}

	validator := coupon.NewRepoValidator(coupons)
	calc := checkout.NewCalculator(offer.NewResolver(catalog), validator, checkout.DefaultConfig())
	orders := &fakeOrderRepo{}

	h := NewHandler(products, validator, calc, orders, coupons)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return &fixture{handler: h, server: srv, orders: orders, usage: coupons}
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	return resp, decodeObject(t, resp)
}

func (f *fixture) post(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.server.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp, decodeObject(t, resp)
}

func decodeObject(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var out map[string]any
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/api/products")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var products []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Len(t, products, 2)
}

func TestGetProduct(t *testing.T) {
	f := newFixture(t)

	t.Run("found", func(t *testing.T) {
		resp, body := f.get(t, "/api/products/p1")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "p1", body["id"])
		assert.Equal(t, "Classic Masala Chai", body["name"])
		assert.Equal(t, "catA", body["categoryId"])
		assert.InDelta(t, 500, body["price"], 0.001)
	})

	t.Run("not found", func(t *testing.T) {
		resp, body := f.get(t, "/api/products/nope")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "product_not_found", body["reason"])
	})
}

func TestQuote(t *testing.T) {
	f := newFixture(t)

	t.Run("quote with offer and coupon", func(t *testing.T) {
		resp, body := f.post(t, "/api/checkout/quote", map[string]any{
			"items":      []map[string]any{{"productId": "p1", "quantity": 2}},
			"couponCode": "FLAT100",
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.InDelta(t, 1000, body["subtotal"], 0.001)
		assert.InDelta(t, 100, body["offerDiscount"], 0.001)
		assert.InDelta(t, 180, body["tax"], 0.001)
		assert.InDelta(t, 100, body["shipping"], 0.001)
		assert.InDelta(t, 100, body["couponDiscount"], 0.001)
		assert.InDelta(t, 1080, body["grandTotal"], 0.001)
		assert.Equal(t, "FLAT100", body["couponCode"])

		lines, ok := body["lines"].([]any)
		require.True(t, ok)
		require.Len(t, lines, 1)
		line := lines[0].(map[string]any)
		assert.Equal(t, "p1", line["productId"])
		assert.Equal(t, "oA", line["appliedOfferId"])
	})

	t.Run("quote without coupon", func(t *testing.T) {
		resp, body := f.post(t, "/api/checkout/quote", map[string]any{
			"items": []map[string]any{{"productId": "p2", "quantity": 1}},
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.InDelta(t, 899, body["subtotal"], 0.001)
		assert.InDelta(t, 0, body["couponDiscount"], 0.001)
		assert.Nil(t, body["couponCode"])
	})

	t.Run("lowercase coupon code accepted", func(t *testing.T) {
		resp, body := f.post(t, "/api/checkout/quote", map[string]any{
			"items":      []map[string]any{{"productId": "p1", "quantity": 2}},
			"couponCode": "flat100",
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "FLAT100", body["couponCode"])
	})

	t.Run("client cannot set prices", func(t *testing.T) {
		resp, body := f.post(t, "/api/checkout/quote", map[string]any{
			"items": []map[string]any{{"productId": "p2", "quantity": 1, "price": 1}},
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.InDelta(t, 899, body["subtotal"], 0.001, "price comes from the catalog")
	})

	t.Run("unknown product", func(t *testing.T) {
		resp, body := f.post(t, "/api/checkout/quote", map[string]any{
			"items": []map[string]any{{"productId": "ghost", "quantity": 1}},
		})

		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "product_not_found", body["reason"])
	})

	t.Run("zero quantity", func(t *testing.T) {
		resp, body := f.post(t, "/api/checkout/quote", map[string]any{
			"items": []map[string]any{{"productId": "p1", "quantity": 0}},
		})

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid_cart_line", body["reason"])
	})

	t.Run("unknown coupon", func(t *testing.T) {
		resp, body := f.post(t, "/api/checkout/quote", map[string]any{
			"items":      []map[string]any{{"productId": "p1", "quantity": 2}},
			"couponCode": "GHOST",
		})

		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "coupon_not_found", body["reason"])
	})

	t.Run("empty items", func(t *testing.T) {
		resp, _ := f.post(t, "/api/checkout/quote", map[string]any{
			"items": []map[string]any{},
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(f.server.URL+"/api/checkout/quote", "application/json",
			bytes.NewReader([]byte("{broken")))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestValidateCoupon(t *testing.T) {
	f := newFixture(t)

	t.Run("valid", func(t *testing.T) {
		resp, body := f.post(t, "/api/coupons/validate", map[string]any{
			"code":        "SAVE10",
			"orderAmount": "800",
		})

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "SAVE10", body["code"])
		assert.InDelta(t, 50, body["discount"], 0.001, "10% of 800 capped at 50")
	})

	t.Run("below minimum", func(t *testing.T) {
		resp, body := f.post(t, "/api/coupons/validate", map[string]any{
			"code":        "SAVE10",
			"orderAmount": "80",
		})

		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "coupon_below_minimum", body["reason"])
	})

	t.Run("not found", func(t *testing.T) {
		resp, body := f.post(t, "/api/coupons/validate", map[string]any{
			"code":        "GHOST",
			"orderAmount": "500",
		})

		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "coupon_not_found", body["reason"])
	})

	t.Run("missing code", func(t *testing.T) {
		resp, _ := f.post(t, "/api/coupons/validate", map[string]any{
			"orderAmount": "500",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestPlaceOrder(t *testing.T) {
	t.Run("order with coupon", func(t *testing.T) {
		f := newFixture(t)

		resp, body := f.post(t, "/api/orders", map[string]any{
			"items":      []map[string]any{{"productId": "p1", "quantity": 2}},
			"couponCode": "FLAT100",
		})

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.NotEmpty(t, body["id"])

		breakdown, ok := body["breakdown"].(map[string]any)
		require.True(t, ok)
		assert.InDelta(t, 1080, breakdown["grandTotal"], 0.001)

		require.Len(t, f.orders.created, 1)
		created := f.orders.created[0]
		assert.Equal(t, body["id"], created.ID)
		assert.True(t, d("1080").Equal(created.GrandTotal), "got %s", created.GrandTotal)
		assert.Equal(t, "FLAT100", created.CouponCode)

		assert.Equal(t, []string{"FLAT100"}, f.usage.incremented)
	})

	t.Run("order without coupon", func(t *testing.T) {
		f := newFixture(t)

		resp, _ := f.post(t, "/api/orders", map[string]any{
			"items": []map[string]any{{"productId": "p2", "quantity": 1}},
		})

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.Len(t, f.orders.created, 1)
		assert.Empty(t, f.usage.incremented)
	})

	t.Run("rejected coupon fails placement", func(t *testing.T) {
		f := newFixture(t)

		resp, body := f.post(t, "/api/orders", map[string]any{
			"items":      []map[string]any{{"productId": "p2", "quantity": 1}},
			"couponCode": "GHOST",
		})

		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "coupon_not_found", body["reason"])
		assert.Empty(t, f.orders.created)
		assert.Empty(t, f.usage.incremented)
	})

	t.Run("empty items", func(t *testing.T) {
		f := newFixture(t)

		resp, _ := f.post(t, "/api/orders", map[string]any{
			"items": []map[string]any{},
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, f.orders.created)
	})
}
