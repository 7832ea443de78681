package analysis

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tacticbot/internal/asset"
	"tacticbot/internal/broker"
)

// Cache holds bar analysis for every symbol and refreshes it at most once
// per local calendar day. A refresh replaces the whole map or nothing.
//
// The network fetch happens outside the lock. Callers arriving while a
// refresh is in flight share it instead of starting their own.
type Cache struct {
	platform broker.Platform
	universe []asset.Symbol
	now      func() time.Time
	logger   *zap.Logger
	group    singleflight.Group

	mu        sync.Mutex
	results   map[asset.Symbol]Result
	refreshed time.Time
}

// NewCache builds a cache that always refreshes universe in addition to the
// symbols a caller asks for, so one daily refresh serves every tactic.
func NewCache(platform broker.Platform, universe []asset.Symbol, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		platform: platform,
		universe: universe,
		now:      time.Now,
		logger:   logger,
		results:  map[asset.Symbol]Result{},
	}
}

// Get returns the current analysis map, refreshing it first when the last
// refresh happened on an earlier day. The returned map must not be modified.
func (c *Cache) Get(ctx context.Context, symbols []asset.Symbol) (map[asset.Symbol]Result, error) {
	c.mu.Lock()
	now := c.now()
	if !c.staleLocked(now) {
		results := c.results
		c.mu.Unlock()
		return results, nil
	}
	c.mu.Unlock()

	// The shared refresh must not die with whichever caller started it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("refresh", func() (any, error) {
		return c.refresh(fetchCtx, symbols, now)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(map[asset.Symbol]Result), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) refresh(ctx context.Context, symbols []asset.Symbol, now time.Time) (map[asset.Symbol]Result, error) {
	c.mu.Lock()
	if !c.staleLocked(now) {
		results := c.results
		c.mu.Unlock()
		return results, nil
	}
	c.mu.Unlock()

	results, err := c.fetch(ctx, c.wanted(symbols), now)
	if err != nil {
		c.logger.Error("analysis refresh failed", zap.Error(err))
		return nil, err
	}

	c.mu.Lock()
	if c.staleLocked(now) {
		c.results = results
		c.refreshed = now
	}
	current := c.results
	c.mu.Unlock()

	c.logger.Info("analysis refreshed", zap.Int("symbols", len(results)))
	return current, nil
}

// LastRefresh reports when the current map was published; zero before the
// first refresh.
func (c *Cache) LastRefresh() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshed
}

func (c *Cache) staleLocked(now time.Time) bool {
	if c.refreshed.IsZero() {
		return true
	}
	y1, m1, d1 := c.refreshed.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

func (c *Cache) wanted(symbols []asset.Symbol) []asset.Symbol {
	all := make([]string, 0, len(c.universe)+len(symbols))
	all = append(all, asset.Strings(c.universe)...)
	all = append(all, asset.Strings(symbols)...)
	return asset.ParseAll(all)
}

func (c *Cache) fetch(ctx context.Context, symbols []asset.Symbol, now time.Time) (map[asset.Symbol]Result, error) {
	results := make(map[asset.Symbol]Result, len(symbols))
	for _, symbol := range symbols {
		result, err := Fetch(ctx, c.platform, symbol, now)
		if err != nil {
			return nil, err
		}
		results[symbol] = result
	}
	return results, nil
}
