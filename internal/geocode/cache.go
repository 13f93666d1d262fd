package geocode

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/heavyhaul/backend/internal/models"
)

// Store persists lookups across restarts. The database store satisfies it.
type Store interface {
	GetReverseGeocode(ctx context.Context, key string) (models.AdminArea, bool, error)
	PutReverseGeocode(ctx context.Context, key string, area models.AdminArea) error
}

// CachedGeocoder memoizes successful lookups in memory and, when Store is
// set, in the database. Store errors are logged and never fail a lookup.
type CachedGeocoder struct {
	Next  ReverseGeocoder
	Store Store
	Log   zerolog.Logger

	mu    sync.RWMutex
	cache map[string]models.AdminArea
}

func NewCached(next ReverseGeocoder, store Store, log zerolog.Logger) *CachedGeocoder {
	return &CachedGeocoder{Next: next, Store: store, Log: log, cache: map[string]models.AdminArea{}}
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (models.AdminArea, error) {
	key := CacheKey(lat, lng)

	c.mu.RLock()
	area, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return area, nil
	}

	if c.Store != nil {
		area, ok, err := c.Store.GetReverseGeocode(ctx, key)
		if err != nil {
			c.Log.Warn().Err(err).Str("key", key).Msg("geocode cache read failed")
		} else if ok {
			c.remember(key, area)
			return area, nil
		}
	}

	area, err := c.Next.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return models.AdminArea{}, err
	}
	c.remember(key, area)
	if c.Store != nil {
		if err := c.Store.PutReverseGeocode(ctx, key, area); err != nil {
			c.Log.Warn().Err(err).Str("key", key).Msg("geocode cache write failed")
		}
	}
	return area, nil
}

func (c *CachedGeocoder) remember(key string, area models.AdminArea) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		c.cache = map[string]models.AdminArea{}
	}
	c.cache[key] = area
}
