package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/venuelink/service-booking/internal/domain/calendar"
)

// CalendarCache is a read-through Redis cache for the vendor calendar view.
// Cache failures degrade to repository reads; they are logged, never surfaced.
type CalendarCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCalendarCache creates a cache against the given Redis address.
func NewCalendarCache(addr string, ttl time.Duration, logger *zap.Logger) *CalendarCache {
	return &CalendarCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(vendorID uuid.UUID) string {
	return "calendar:" + vendorID.String()
}

// Get returns the cached view for the vendor, or (nil, false) on a miss.
func (c *CalendarCache) Get(ctx context.Context, vendorID uuid.UUID) (*calendar.View, bool) {
	raw, err := c.client.Get(ctx, cacheKey(vendorID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("calendar cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var view calendar.View
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, false
	}
	return &view, true
}

// Set stores the view with the configured TTL.
func (c *CalendarCache) Set(ctx context.Context, vendorID uuid.UUID, view *calendar.View) {
	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(vendorID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("calendar cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached views for the given vendors. Called after any
// write that changes a vendor's timeline.
func (c *CalendarCache) Invalidate(ctx context.Context, vendorIDs ...uuid.UUID) {
	keys := make([]string, len(vendorIDs))
	for i, id := range vendorIDs {
		keys[i] = cacheKey(id)
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("calendar cache invalidation failed", zap.Error(err))
	}
}

// Close releases the Redis connection.
func (c *CalendarCache) Close() error {
	return c.client.Close()
}
