// Package cache provides a Redis read-through cache for offer lookups.
// The offer catalog is read far more often than it changes: every quote
// touches it once per distinct product and category, while admin edits
// are rare and only need to take effect on the next computation, so a
// short TTL is all the invalidation required.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vkushwaha/storefront/internal/domain/offer"
)

// none marks a cached negative lookup so the common no-offer case does
// not hammer the database.
const none = "none"

var _ offer.Catalog = (*OfferCache)(nil)

// OfferCache decorates an offer.Catalog with Redis caching. Cache
// failures are logged and fall through to the underlying catalog;
// caching never makes a lookup fail.
type OfferCache struct {
	next offer.Catalog
	rdb  redis.Cmdable
	ttl  time.Duration
	lg   *zap.Logger
}

// NewOfferCache wraps next with a Redis cache using the given TTL.
func NewOfferCache(next offer.Catalog, rdb redis.Cmdable, ttl time.Duration, lg *zap.Logger) *OfferCache {
	return &OfferCache{next: next, rdb: rdb, ttl: ttl, lg: lg}
}

// ActiveForProduct implements offer.Catalog.
func (c *OfferCache) ActiveForProduct(ctx context.Context, productID string) (*offer.Offer, error) {
	return c.lookup(ctx, "offer:product:"+productID, productID, c.next.ActiveForProduct)
}

// ActiveForCategory implements offer.Catalog.
func (c *OfferCache) ActiveForCategory(ctx context.Context, categoryID string) (*offer.Offer, error) {
	return c.lookup(ctx, "offer:category:"+categoryID, categoryID, c.next.ActiveForCategory)
}

func (c *OfferCache) lookup(
	ctx context.Context,
	key, id string,
	fetch func(context.Context, string) (*offer.Offer, error),
) (*offer.Offer, error) {
	if o, ok := c.get(ctx, key); ok {
		return o, nil
	}

	o, err := fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, o)
	return o, nil
}

// get returns the cached offer and whether the cache had an answer.
// A cached negative lookup yields (nil, true).
func (c *OfferCache) get(ctx context.Context, key string) (*offer.Offer, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.lg.Warn("Offer cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if string(raw) == none {
		return nil, true
	}

	var o offer.Offer
	if err := json.Unmarshal(raw, &o); err != nil {
		c.lg.Warn("Offer cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &o, true
}

func (c *OfferCache) set(ctx context.Context, key string, o *offer.Offer) {
	payload := []byte(none)
	if o != nil {
		b, err := json.Marshal(o)
		if err != nil {
			c.lg.Warn("Offer cache encode failed", zap.String("key", key), zap.Error(err))
			return
		}
		payload = b
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.lg.Warn("Offer cache write failed", zap.String("key", key), zap.Error(err))
	}
}
