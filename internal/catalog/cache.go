package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glowupstudio/booking-platform/internal/acuity"
	"github.com/glowupstudio/booking-platform/pkg/logging"
)

const cacheKey = "catalog:appointment-types"

// Source yields the appointment-type catalog.
type Source interface {
	ListAppointmentTypes(ctx context.Context) ([]acuity.AppointmentType, error)
}

// CachedSource fronts a Source with a Redis TTL cache so the storefront does
// not hit the provider on every page load. A cache miss or a Redis outage
// falls through to the provider; failing to write back is logged, not fatal.
type CachedSource struct {
	source Source
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedSource wraps source with a Redis cache.
func NewCachedSource(source Source, rdb *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedSource {
	if source == nil {
		panic("catalog: source required")
	}
	if rdb == nil {
		panic("catalog: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedSource{source: source, redis: rdb, ttl: ttl, logger: logger.Component("catalog")}
}

// ListAppointmentTypes returns the cached catalog, refreshing from the
// underlying source when the cache is cold.
func (c *CachedSource) ListAppointmentTypes(ctx context.Context) ([]acuity.AppointmentType, error) {
	data, err := c.redis.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var types []acuity.AppointmentType
		if err := json.Unmarshal(data, &types); err == nil {
			return types, nil
		}
		c.logger.Warn("discarding undecodable catalog cache entry")
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("catalog cache read failed", "error", err)
	}

	types, err := c.source.ListAppointmentTypes(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(types); err == nil {
		if err := c.redis.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
			c.logger.Warn("catalog cache write failed", "error", err)
		}
	}
	return types, nil
}

// Invalidate drops the cached catalog so the next read refetches.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	if err := c.redis.Del(ctx, cacheKey).Err(); err != nil {
		return fmt.Errorf("catalog: invalidate cache: %w", err)
	}
	return nil
}
