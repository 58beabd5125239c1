package service

import (
	"context"
	"encoding/json"
	"happy-game/internal/api"
	"happy-game/internal/cache"
	"happy-game/internal/config"
	"happy-game/internal/constants"
	"happy-game/internal/domain"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Catalog is the subset of the catalog client the service depends on.
type Catalog interface {
	ListGames(ctx context.Context) api.Result[[]domain.Game]
	SearchGames(ctx context.Context, query string) api.Result[[]domain.Game]
	GetGameDetails(ctx context.Context, id string) api.Result[*domain.GameDetails]
	ListNewReleases(ctx context.Context) api.Result[[]domain.NewRelease]
}

// CatalogService serves catalog reads through a cache. Only successful
// results are cached so a failed fetch is retried on the next request.
type CatalogService struct {
	catalog Catalog
	cache   cache.Cache
	ttl     time.Duration
	logger  zerolog.Logger
}

func NewCatalogService(catalog Catalog, c cache.Cache, cfg *config.Config, logger zerolog.Logger) *CatalogService {
	// a negative TTL disables caching
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = constants.CatalogCacheTTL
	}
	return &CatalogService{catalog: catalog, cache: c, ttl: ttl, logger: logger}
}

func (s *CatalogService) ListGames(ctx context.Context) api.Result[[]domain.Game] {
	return cached(ctx, s, "games:list", s.catalog.ListGames)
}

// SearchGames with a blank query returns the unfiltered list.
func (s *CatalogService) SearchGames(ctx context.Context, query string) api.Result[[]domain.Game] {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListGames(ctx)
	}
	return cached(ctx, s, "games:search:"+strings.ToLower(query), func(ctx context.Context) api.Result[[]domain.Game] {
		return s.catalog.SearchGames(ctx, query)
	})
}

func (s *CatalogService) GetGameDetails(ctx context.Context, id string) api.Result[*domain.GameDetails] {
	return cached(ctx, s, "games:details:"+id, func(ctx context.Context) api.Result[*domain.GameDetails] {
		return s.catalog.GetGameDetails(ctx, id)
	})
}

func (s *CatalogService) ListNewReleases(ctx context.Context) api.Result[[]domain.NewRelease] {
	return cached(ctx, s, "releases", s.catalog.ListNewReleases)
}

func cached[T any](ctx context.Context, s *CatalogService, key string, fetch func(context.Context) api.Result[T]) api.Result[T] {
	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	} else if ok {
		var data T
		if err := json.Unmarshal(raw, &data); err == nil {
			s.logger.Debug().Str("key", key).Msg("catalog cache hit")
			return api.OK(data)
		}
		s.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	res := fetch(apiCtx)
	if !res.OK() {
		return res
	}

	raw, err := json.Marshal(res.Data)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to encode catalog result")
		return res
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return res
}
