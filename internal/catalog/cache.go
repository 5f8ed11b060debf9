// Package catalog caches events read from the event catalog.  Events are
// immutable for a view, so a short-lived shared copy in Redis spares the
// catalog one request per opened seat map.  Concurrent misses for the same
// event collapse into a single upstream call.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/seatflow/internal/model"
)

// Source loads an event from the authoritative catalog.
type Source interface {
	GetEvent(ctx context.Context, eventID string) (model.Event, error)
}

// Cache is a read-through event cache.  A nil Redis client disables the
// shared layer but keeps request collapsing.
type Cache struct {
	source Source
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
	group  singleflight.Group
}

// Options configure a Cache.
type Options struct {
	TTL    time.Duration
	Prefix string
	Logger *zap.Logger
}

// New wraps source.
func New(source Source, rdb *redis.Client, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = time.Minute
	}
	if opts.Prefix == "" {
		opts.Prefix = "catalog"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Cache{
		source: source,
		rdb:    rdb,
		ttl:    opts.TTL,
		prefix: opts.Prefix,
		logger: opts.Logger,
	}
}

func (c *Cache) key(eventID string) string {
	return c.prefix + ":event:" + eventID
}

// GetEvent returns the cached event or loads it from the source.  Redis
// trouble is logged and bypassed; only source errors reach the caller.
func (c *Cache) GetEvent(ctx context.Context, eventID string) (model.Event, error) {
	if ev, ok := c.lookup(ctx, eventID); ok {
		return ev, nil
	}

	// The flight outlives any one caller; one disconnecting must not fail
	// the others sharing it.
	fctx := context.WithoutCancel(ctx)
	v, err, shared := c.group.Do(eventID, func() (interface{}, error) {
		ev, err := c.source.GetEvent(fctx, eventID)
		if err != nil {
			return nil, err
		}
		c.store(fctx, ev)
		return ev, nil
	})
	if err != nil {
		return model.Event{}, err
	}
	if shared {
		c.logger.Debug("catalog fetch shared", zap.String("event_id", eventID))
	}
	return v.(model.Event), nil
}

// Invalidate drops the cached copy so the next read goes to the catalog.
func (c *Cache) Invalidate(ctx context.Context, eventID string) error {
	c.group.Forget(eventID)
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, c.key(eventID)).Err()
}

// Reload invalidates and re-reads an event.
func (c *Cache) Reload(ctx context.Context, eventID string) (model.Event, error) {
	if err := c.Invalidate(ctx, eventID); err != nil {
		c.logger.Warn("catalog cache invalidate failed", zap.String("event_id", eventID), zap.Error(err))
	}
	return c.GetEvent(ctx, eventID)
}

func (c *Cache) lookup(ctx context.Context, eventID string) (model.Event, bool) {
	if c.rdb == nil {
		return model.Event{}, false
	}
	raw, err := c.rdb.Get(ctx, c.key(eventID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog cache read failed", zap.String("event_id", eventID), zap.Error(err))
		}
		return model.Event{}, false
	}
	var ev model.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.logger.Warn("catalog cache entry corrupt", zap.String("event_id", eventID), zap.Error(err))
		return model.Event{}, false
	}
	return ev, true
}

func (c *Cache) store(ctx context.Context, ev model.Event) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(ev.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", zap.String("event_id", ev.ID), zap.Error(err))
	}
}
