package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/wardrobe/internal/adapters/cache"
	"github.com/okian/wardrobe/internal/domain/model"
	"github.com/okian/wardrobe/internal/domain/types"
	"github.com/okian/wardrobe/pkg/logger"
	"github.com/okian/wardrobe/pkg/metrics"
)

// Recommend returns the user's recommendations, served from the cache unless
// forceRefresh is set. Fresh responses are written back to the cache.
func (s *Service) Recommend(ctx context.Context, userID int64, forceRefresh bool) (types.RecommendationResponse, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRecommendationLatency(float64(time.Since(start).Milliseconds()))
	}()

	if !forceRefresh {
		resp, err := s.cache.Get(ctx, userID)
		switch {
		case err == nil:
			metrics.RecordCacheRequest(metrics.CacheHit)
			metrics.RecordRecommendation(resp.RecommendationType, "cache")
			return resp, nil
		case errors.Is(err, cache.ErrCacheMiss):
			metrics.RecordCacheRequest(metrics.CacheMiss)
		default:
			metrics.RecordCacheRequest(metrics.CacheError)
			s.logger.Warn(ctx, "recommendation cache read failed",
				logger.Int64("userID", userID), logger.Error(err))
		}
	}

	// Read before the interactions so that an invalidation racing with
	// this computation rejects its cache write.
	gen, genErr := s.cache.Generation(ctx, userID)
	if genErr != nil {
		metrics.RecordCacheRequest(metrics.CacheError)
		s.logger.Warn(ctx, "recommendation cache generation read failed",
			logger.Int64("userID", userID), logger.Error(genErr))
	}

	interactions, err := s.store.InteractionsByUser(ctx, userID)
	if err != nil {
		metrics.RecordRecommendationError()
		return types.RecommendationResponse{}, fmt.Errorf("%w: interactions: %w", ErrRecommendation, err)
	}
	products, err := s.catalog.Products(ctx)
	if err != nil {
		metrics.RecordRecommendationError()
		return types.RecommendationResponse{}, fmt.Errorf("%w: catalog: %w", ErrRecommendation, err)
	}

	res := s.engine.Recommend(products, model.GroupHistory(interactions))
	metrics.RecordCandidatesScored(res.Candidates)
	metrics.RecordRecommendation(res.Response.RecommendationType, "engine")

	s.logger.Debug(ctx, "generated recommendations",
		logger.Int64("userID", userID),
		logger.String("state", string(res.State)),
		logger.Int("candidates", res.Candidates),
		logger.Int("returned", len(res.Response.Recommendations)),
	)

	if genErr == nil {
		s.storeResponse(ctx, userID, gen, res.Response)
	}

	return res.Response, nil
}

func (s *Service) storeResponse(ctx context.Context, userID int64, gen cache.Generation, resp types.RecommendationResponse) {
	err := s.cache.Set(ctx, userID, gen, resp)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrStale):
		metrics.RecordCacheRequest(metrics.CacheStale)
		s.logger.Debug(ctx, "skipped caching recommendations invalidated mid-flight",
			logger.Int64("userID", userID))
	default:
		metrics.RecordCacheRequest(metrics.CacheError)
		s.logger.Warn(ctx, "recommendation cache write failed",
			logger.Int64("userID", userID), logger.Error(err))
	}
}
