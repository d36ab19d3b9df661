package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-wallet-bridge/core"
)

const originCacheKeyPrefix = "go-wallet-bridge::origin::v1"

// CachedOriginStore caches Get reads and invalidates the cached profile on
// every write path. List always goes to the base store; the result set moves
// on every touch so caching it would serve stale counts for the whole page.
type CachedOriginStore struct {
	base  core.OriginDirectory
	cache repositorycache.CacheService
}

func NewCachedOriginStore(
	base core.OriginDirectory,
	cacheService repositorycache.CacheService,
) (*CachedOriginStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base origin store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: origin cache service is required")
	}
	return &CachedOriginStore{base: base, cache: cacheService}, nil
}

// OriginCacheKey returns the deterministic cache key for one origin profile:
// go-wallet-bridge::origin::v1::<origin> with the origin URL-path escaped.
func OriginCacheKey(origin string) (string, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return "", fmt.Errorf("sqlstore: origin is required")
	}
	return originCacheKeyPrefix + "::" + url.PathEscape(origin), nil
}

func (s *CachedOriginStore) Touch(ctx context.Context, origin string, at time.Time) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached origin store is not configured")
	}
	origin = strings.TrimSpace(origin)
	if err := s.base.Touch(ctx, origin, at); err != nil {
		return err
	}
	return s.invalidate(ctx, origin)
}

func (s *CachedOriginStore) Get(ctx context.Context, origin string) (core.OriginProfile, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.OriginProfile{}, fmt.Errorf("sqlstore: cached origin store is not configured")
	}
	origin = strings.TrimSpace(origin)
	cacheKey, err := OriginCacheKey(origin)
	if err != nil {
		return core.OriginProfile{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.OriginProfile, error) {
		return s.base.Get(ctx, origin)
	})
}

func (s *CachedOriginStore) List(ctx context.Context, filter core.OriginFilter) (core.OriginPage, error) {
	if s == nil || s.base == nil {
		return core.OriginPage{}, fmt.Errorf("sqlstore: cached origin store is not configured")
	}
	return s.base.List(ctx, filter)
}

func (s *CachedOriginStore) SetStatus(ctx context.Context, origin string, status core.OriginStatus) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached origin store is not configured")
	}
	origin = strings.TrimSpace(origin)
	if err := s.base.SetStatus(ctx, origin, status); err != nil {
		return err
	}
	return s.invalidate(ctx, origin)
}

func (s *CachedOriginStore) invalidate(ctx context.Context, origin string) error {
	cacheKey, err := OriginCacheKey(origin)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ core.OriginDirectory = (*CachedOriginStore)(nil)
