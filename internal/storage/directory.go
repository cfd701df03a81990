package storage

import (
	"chatdraft/backend/internal/metrics"
	"chatdraft/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Searcher is the part of Storage the directory looks candidates up in.
type Searcher interface {
	SearchUsers(ctx context.Context, query string, scope models.UserScope, limit int) ([]models.User, error)
	SearchChannels(ctx context.Context, query string, limit int) ([]models.Channel, error)
}

// Directory resolves mention candidates for drafts. Results are cached in
// Redis for ttl and identical concurrent lookups share one query.
// It implements draft.SuggestionSource.
type Directory struct {
	search Searcher
	cache  *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	log    zerolog.Logger
}

// NewDirectory creates a directory. A nil cache disables result caching.
func NewDirectory(search Searcher, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) *Directory {
	return &Directory{
		search: search,
		cache:  cache,
		ttl:    ttl,
		log:    logger.With().Str("component", "directory").Logger(),
	}
}

func (d *Directory) ResolveUserCandidates(ctx context.Context, query string, scope models.UserScope, limit int) ([]models.User, error) {
	key := fmt.Sprintf("suggest:users:%s:%s:%d:%s", scope.Kind, scope.ChannelID, limit, strings.ToLower(query))
	return lookup(ctx, d, "user", key, func(ctx context.Context) ([]models.User, error) {
		return d.search.SearchUsers(ctx, query, scope, limit)
	})
}

func (d *Directory) ResolveChannelCandidates(ctx context.Context, query string, limit int) ([]models.Channel, error) {
	key := fmt.Sprintf("suggest:channels:%d:%s", limit, strings.ToLower(query))
	return lookup(ctx, d, "channel", key, func(ctx context.Context) ([]models.Channel, error) {
		return d.search.SearchChannels(ctx, query, limit)
	})
}

func lookup[T any](ctx context.Context, d *Directory, kind, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	start := time.Now()
	defer func() {
		metrics.SuggestionLookupDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	if cached, ok := cacheGet[T](ctx, d, key); ok {
		metrics.SuggestionLookups.WithLabelValues(kind, "hit").Inc()
		return cached, nil
	}

	// The shared query must not be canceled by whichever caller started it.
	ch := d.group.DoChan(key, func() (any, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		items, err := fetch(qctx)
		if err != nil {
			return nil, err
		}
		d.cacheSet(qctx, key, items)
		return items, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			metrics.SuggestionLookups.WithLabelValues(kind, "error").Inc()
			return nil, res.Err
		}
		metrics.SuggestionLookups.WithLabelValues(kind, "miss").Inc()
		return res.Val.([]T), nil
	}
}

func cacheGet[T any](ctx context.Context, d *Directory, key string) ([]T, bool) {
	if d.cache == nil {
		return nil, false
	}
	raw, err := d.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			d.log.Warn().Err(err).Str("key", key).Msg("suggestion cache read failed")
		}
		return nil, false
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("dropping malformed suggestion cache entry")
		return nil, false
	}
	return items, true
}

func (d *Directory) cacheSet(ctx context.Context, key string, items any) {
	if d.cache == nil || d.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, key, raw, d.ttl).Err(); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("suggestion cache write failed")
	}
}
