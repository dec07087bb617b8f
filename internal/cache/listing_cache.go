package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alphaxx001/bookloop-connect-campus/internal/models"
	"github.com/redis/go-redis/v9"
)

// ActiveListingsKey is the cache key holding the browse-page listing set.
// Anything that changes a listing must invalidate it.
const ActiveListingsKey = "active-listings"

// ActiveListingsGenKey counts invalidations. A Set only lands if it still matches the
// generation read on the miss that triggered it.
const ActiveListingsGenKey = "active-listings:gen"

// ErrStaleGeneration is returned by Set when the cache was invalidated after the miss.
var ErrStaleGeneration = errors.New("listing cache invalidated since read")

// ListingCache stores the active listing set between store round trips.
type ListingCache interface {
	// Get returns the cached listings. On a miss ok is false and gen must be handed to Set.
	Get(ctx context.Context) (listings []models.Listing, gen int64, ok bool, err error)
	// Set stores listings read after the miss that returned gen.
	Set(ctx context.Context, gen int64, listings []models.Listing) error
	Invalidate(ctx context.Context) error
}

type redisListingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisListingCache keeps the active listings as one JSON value with the given TTL.
func NewRedisListingCache(rdb *redis.Client, ttl time.Duration) ListingCache {
	return &redisListingCache{rdb: rdb, ttl: ttl}
}

func (c *redisListingCache) Get(ctx context.Context) ([]models.Listing, int64, bool, error) {
	raw, err := c.rdb.Get(ctx, ActiveListingsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		gen, err := c.generation(ctx, c.rdb)
		return nil, gen, false, err
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to read listing cache: %w", err)
	}
	var listings []models.Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, 0, false, fmt.Errorf("failed to decode listing cache: %w", err)
	}
	return listings, 0, true, nil
}

func (c *redisListingCache) generation(ctx context.Context, r redis.Cmdable) (int64, error) {
	gen, err := r.Get(ctx, ActiveListingsGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read listing cache generation: %w", err)
	}
	return gen, nil
}

// Set writes under WATCH on the generation key, so an Invalidate racing with the
// store read makes the write a no-op instead of resurrecting old data.
func (c *redisListingCache) Set(ctx context.Context, gen int64, listings []models.Listing) error {
	raw, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("failed to encode listing cache: %w", err)
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx)
		if err != nil {
			return err
		}
		if current != gen {
			return ErrStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ActiveListingsKey, raw, c.ttl)
			return nil
		})
		return err
	}, ActiveListingsGenKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return ErrStaleGeneration
	case errors.Is(err, ErrStaleGeneration):
		return err
	default:
		return fmt.Errorf("failed to write listing cache: %w", err)
	}
}

// Invalidate bumps the generation before dropping the value.
func (c *redisListingCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, ActiveListingsGenKey)
		pipe.Del(ctx, ActiveListingsKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate listing cache: %w", err)
	}
	return nil
}

// NoopListingCache never hits. Used when Redis is not wanted, e.g. in tests.
type NoopListingCache struct{}

func (NoopListingCache) Get(context.Context) ([]models.Listing, int64, bool, error) {
	return nil, 0, false, nil
}
func (NoopListingCache) Set(context.Context, int64, []models.Listing) error { return nil }
func (NoopListingCache) Invalidate(context.Context) error                   { return nil }
