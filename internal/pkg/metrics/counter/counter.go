package counter

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const (
	pageViewsKey = "review:counters:views"
	redirectsKey = "review:counters:redirects"
	assistsKey   = "review:counters:assists"
)

// Funnel holds the public review page counters of a business.
type Funnel struct {
	PageViews int64 `json:"page_views"`
	Redirects int64 `json:"redirects"`
	Assists   int64 `json:"assists"`
}

// Counter keeps per-business review funnel counters in Redis hashes.
type Counter struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Counter {
	return &Counter{rdb: rdb}
}

// AddPageView increments the view counter of a business review page
func (c *Counter) AddPageView(ctx context.Context, businessID string) error {
	return c.incr(ctx, pageViewsKey, businessID)
}

// AddRedirect increments the counter of customers sent to a review platform
func (c *Counter) AddRedirect(ctx context.Context, businessID string) error {
	return c.incr(ctx, redirectsKey, businessID)
}

// AddAssist increments the counter of AI assisted review flows
func (c *Counter) AddAssist(ctx context.Context, businessID string) error {
	return c.incr(ctx, assistsKey, businessID)
}

func (c *Counter) incr(ctx context.Context, key, businessID string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.HIncrBy(ctx, key, businessID, 1).Err()
}

// Funnel reads all counters of a business in one round trip.
func (c *Counter) Funnel(ctx context.Context, businessID string) (Funnel, error) {
	if c == nil || c.rdb == nil {
		return Funnel{}, nil
	}
	pipe := c.rdb.Pipeline()
	views := pipe.HGet(ctx, pageViewsKey, businessID)
	redirects := pipe.HGet(ctx, redirectsKey, businessID)
	assists := pipe.HGet(ctx, assistsKey, businessID)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Funnel{}, err
	}
	return Funnel{
		PageViews: intOrZero(views),
		Redirects: intOrZero(redirects),
		Assists:   intOrZero(assists),
	}, nil
}

func intOrZero(cmd *redis.StringCmd) int64 {
	v, err := cmd.Int64()
	if err != nil {
		return 0
	}
	return v
}
