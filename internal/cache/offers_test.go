package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vkushwaha/storefront/internal/domain/offer"
)

// fakeRedis embeds redis.Cmdable and overrides only the two commands
// OfferCache issues. Anything else panics, which is what we want.
type fakeRedis struct {
	redis.Cmdable

	data   map[string]string
	getErr error
	setErr error
	sets   int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	switch {
	case f.getErr != nil:
		cmd.SetErr(f.getErr)
	default:
		v, ok := f.data[key]
		if !ok {
			cmd.SetErr(redis.Nil)
			break
		}
		cmd.SetVal(v)
	}
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.sets++
	cmd := redis.NewStatusCmd(ctx, "set", key)
	if f.setErr != nil {
		cmd.SetErr(f.setErr)
		return cmd
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	cmd.SetVal("OK")
	return cmd
}

// countingCatalog records how often each lookup reaches the underlying
// catalog.
type countingCatalog struct {
	products   map[string]*offer.Offer
	categories map[string]*offer.Offer
	err        error

	productCalls  int
	categoryCalls int
}

func (c *countingCatalog) ActiveForProduct(_ context.Context, id string) (*offer.Offer, error) {
	c.productCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.products[id], nil
}

func (c *countingCatalog) ActiveForCategory(_ context.Context, id string) (*offer.Offer, error) {
	c.categoryCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.categories[id], nil
}

func testOffer(id string) *offer.Offer {
	return &offer.Offer{
		ID:           id,
		Scope:        offer.ScopeProduct,
		TargetID:     "p1",
		DiscountType: offer.DiscountPercentage,
		Value:        decimal.NewFromInt(10),
		StartsAt:     time.Now().Add(-time.Hour),
		EndsAt:       time.Now().Add(time.Hour),
		Active:       true,
	}
}

func newTestCache(next offer.Catalog, rdb redis.Cmdable) *OfferCache {
	return NewOfferCache(next, rdb, time.Minute, zap.NewNop())
}

func TestOfferCache_ReadThrough(t *testing.T) {
	rdb := newFakeRedis()
	catalog := &countingCatalog{products: map[string]*offer.Offer{
		"p1": testOffer("o1"),
	}}
	c := newTestCache(catalog, rdb)

	o, err := c.ActiveForProduct(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "o1", o.ID)
	assert.Equal(t, 1, catalog.productCalls)

	// Second lookup is served from the cache.
	o, err = c.ActiveForProduct(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "o1", o.ID)
	assert.True(t, decimal.NewFromInt(10).Equal(o.Value))
	assert.Equal(t, 1, catalog.productCalls)
}

func TestOfferCache_NegativeLookupCached(t *testing.T) {
	rdb := newFakeRedis()
	catalog := &countingCatalog{}
	c := newTestCache(catalog, rdb)

	o, err := c.ActiveForCategory(context.Background(), "catA")
	require.NoError(t, err)
	assert.Nil(t, o)
	assert.Equal(t, 1, catalog.categoryCalls)
	assert.Equal(t, none, rdb.data["offer:category:catA"])

	// The cached no-offer answer must not reach the catalog again.
	o, err = c.ActiveForCategory(context.Background(), "catA")
	require.NoError(t, err)
	assert.Nil(t, o)
	assert.Equal(t, 1, catalog.categoryCalls)
}

func TestOfferCache_ReadErrorFallsThrough(t *testing.T) {
	rdb := newFakeRedis()
	rdb.getErr = errors.New("connection refused")
	catalog := &countingCatalog{products: map[string]*offer.Offer{
		"p1": testOffer("o1"),
	}}
	c := newTestCache(catalog, rdb)

	o, err := c.ActiveForProduct(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "o1", o.ID)
	assert.Equal(t, 1, catalog.productCalls)
}

func TestOfferCache_WriteErrorIgnored(t *testing.T) {
	rdb := newFakeRedis()
	rdb.setErr = errors.New("connection refused")
	catalog := &countingCatalog{products: map[string]*offer.Offer{
		"p1": testOffer("o1"),
	}}
	c := newTestCache(catalog, rdb)

	o, err := c.ActiveForProduct(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, o)

	// Nothing got cached, so the next lookup hits the catalog again.
	_, err = c.ActiveForProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.productCalls)
}

func TestOfferCache_CorruptEntryFallsThrough(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data["offer:product:p1"] = "{not json"
	catalog := &countingCatalog{products: map[string]*offer.Offer{
		"p1": testOffer("o1"),
	}}
	c := newTestCache(catalog, rdb)

	o, err := c.ActiveForProduct(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "o1", o.ID)
	assert.Equal(t, 1, catalog.productCalls)
}

func TestOfferCache_CatalogErrorPropagates(t *testing.T) {
	rdb := newFakeRedis()
	catalog := &countingCatalog{err: errors.New("db down")}
	c := newTestCache(catalog, rdb)

	_, err := c.ActiveForProduct(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, 0, rdb.sets, "a failed lookup must not be cached")
}

func TestOfferCache_ScopesUseDistinctKeys(t *testing.T) {
	rdb := newFakeRedis()
	catalog := &countingCatalog{
		products:   map[string]*offer.Offer{"x": testOffer("po")},
		categories: map[string]*offer.Offer{"x": testOffer("co")},
	}
	c := newTestCache(catalog, rdb)

	po, err := c.ActiveForProduct(context.Background(), "x")
	require.NoError(t, err)
	co, err := c.ActiveForCategory(context.Background(), "x")
	require.NoError(t, err)

	assert.Equal(t, "po", po.ID)
	assert.Equal(t, "co", co.ID)
	assert.Contains(t, rdb.data, "offer:product:x")
	assert.Contains(t, rdb.data, "offer:category:x")
}
