package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lumisync/internal/domain/entity"
	"lumisync/pkg/logger"
)

const profileKeyPrefix = "profile:"

type profileSource interface {
	Lookup(ctx context.Context, userID string) (entity.Profile, error)
}

// ProfileCache reads display identities through Redis. Cache errors are
// logged and bypassed; only the source's errors reach the caller.
type ProfileCache struct {
	cache *RedisCache
	next  profileSource
	ttl   time.Duration
}

func NewProfileCache(cache *RedisCache, next profileSource, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		cache: cache,
		next:  next,
		ttl:   ttl,
	}
}

func (p *ProfileCache) Lookup(ctx context.Context, userID string) (entity.Profile, error) {
	key := profileKeyPrefix + userID

	raw, err := p.cache.Get(ctx, key)
	switch {
	case err == nil:
		var profile entity.Profile
		if jsonErr := json.Unmarshal([]byte(raw), &profile); jsonErr == nil {
			return profile, nil
		}
		logger.Warn("Discarding unreadable cached profile %s", userID)
	case !errors.Is(err, ErrMiss):
		logger.Warn("Profile cache read failed for %s: %v", userID, err)
	}

	profile, err := p.next.Lookup(ctx, userID)
	if err != nil {
		return entity.Profile{}, err
	}

	if data, err := json.Marshal(profile); err == nil {
		if err := p.cache.Set(ctx, key, string(data), p.ttl); err != nil {
			logger.Warn("Profile cache write failed for %s: %v", userID, err)
		}
	}
	return profile, nil
}
