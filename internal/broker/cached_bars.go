package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tacticbot/internal/md"
)

// CachedBars decorates a Platform with a Redis cache for historical bars.
// Entries expire at the next local midnight, when the windows roll over.
// A nil client bypasses the cache entirely.
type CachedBars struct {
	Platform
	rdb       *redis.Client
	namespace string
	now       func() time.Time
	logger    *zap.Logger
}

func NewCachedBars(inner Platform, rdb *redis.Client, logger *zap.Logger) *CachedBars {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedBars{
		Platform:  inner,
		rdb:       rdb,
		namespace: "bars",
		now:       time.Now,
		logger:    logger,
	}
}

func (c *CachedBars) Bars(ctx context.Context, req BarsRequest) (md.Series, error) {
	if c.rdb == nil {
		return c.Platform.Bars(ctx, req)
	}

	key := c.cacheKey(req)
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var series md.Series
		if err := json.Unmarshal(b, &series); err == nil {
			return series, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}

	series, err := c.Platform.Bars(ctx, req)
	if err != nil {
		return md.Series{}, err
	}

	if b, err := json.Marshal(series); err == nil {
		if err := c.rdb.Set(ctx, key, b, untilMidnight(c.now())).Err(); err != nil {
			c.logger.Warn("cache bars failed", zap.String("key", key), zap.Error(err))
		}
	}
	return series, nil
}

func (c *CachedBars) cacheKey(req BarsRequest) string {
	return fmt.Sprintf("%s:%s:%s:%d:%d",
		c.namespace,
		req.Symbol,
		req.TimeFrame,
		req.Start.Unix(),
		req.End.Unix(),
	)
}

func untilMidnight(now time.Time) time.Duration {
	y, m, d := now.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return next.Sub(now)
}
