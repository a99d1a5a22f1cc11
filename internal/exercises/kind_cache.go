package exercises

import (
	"context"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	kindCacheSizeBytes = 10 * 1024 * 1024
	kindCacheExpire    = 60 * 60 // seconds
)

type kindsRepo interface {
	KindsFor(ctx context.Context, ids []string) (map[string]string, error)
}

// KindCache resolves exercise ids to their kinds, keeping resolved pairs in
// memory in front of the repo. A kind never changes after the exercise is
// created, so entries are only ever evicted by size or expiry.
type KindCache struct {
	repo  kindsRepo
	cache *freecache.Cache
}

func NewKindCache(repo kindsRepo) *KindCache {
	return &KindCache{
		repo:  repo,
		cache: freecache.NewCache(kindCacheSizeBytes),
	}
}

func (kc *KindCache) KindsFor(ctx context.Context, ids []string) (map[string]string, error) {
	kinds := make(map[string]string, len(ids))
	var missing []string
	for _, id := range ids {
		if kindBytes, err := kc.cache.Get([]byte(id)); err == nil {
			kinds[id] = string(kindBytes)
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return kinds, nil
	}

	fetched, err := kc.repo.KindsFor(ctx, missing)
	if err != nil {
		return nil, err
	}

	for id, kind := range fetched {
		kinds[id] = kind
		if err := kc.cache.Set([]byte(id), []byte(kind), kindCacheExpire); err != nil {
			log.Errorf("failed to cache kind for exercise %s: %s", id, err)
		}
	}

	return kinds, nil
}
