package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/wardrobe/internal/adapters/repository"
	"github.com/okian/wardrobe/internal/domain/dedupe"
	"github.com/okian/wardrobe/internal/domain/model"
	"github.com/okian/wardrobe/pkg/logger"
	"github.com/okian/wardrobe/pkg/metrics"
)

// ResolveUser maps the user-id request header to an account. A header that
// names an existing user selects it; anything else selects the demo user,
// which is created on first use.
func (s *Service) ResolveUser(ctx context.Context, header string) (model.User, error) {
	if id, err := strconv.ParseInt(strings.TrimSpace(header), 10, 64); err == nil && id > 0 {
		u, err := s.store.GetUser(ctx, id)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return model.User{}, fmt.Errorf("resolve user %d: %w", id, err)
		}
		s.logger.Debug(ctx, "unknown user id, using demo user", logger.Int64("userID", id))
	}

	u, err := s.store.EnsureUser(ctx, s.demoUsername, s.demoUsername+"@example.com")
	if err != nil {
		return model.User{}, fmt.Errorf("ensure demo user: %w", err)
	}
	return u, nil
}

// RecordInteraction stores a like, dislike or view of productID by userID.
// Like and dislike are mutually exclusive: recording one removes the other.
// The user's cached recommendations are invalidated afterwards.
func (s *Service) RecordInteraction(ctx context.Context, userID int64, productID, interactionType string) (model.Interaction, error) {
	if productID == "" || interactionType == "" {
		return model.Interaction{}, fmt.Errorf("%w: productId and interactionType are required", ErrInvalidArgument)
	}
	t, err := model.ParseInteractionType(interactionType)
	if err != nil {
		return model.Interaction{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	var in model.Interaction
	if opposite, ok := t.Opposite(); ok {
		var removed bool
		in, removed, err = s.store.ReplaceInteraction(ctx, userID, productID, t, opposite)
		if err != nil {
			metrics.RecordErrorByComponent("service", "interaction_error")
			return model.Interaction{}, fmt.Errorf("record interaction: %w", err)
		}
		if removed {
			s.logger.Debug(ctx, "replaced opposite interaction",
				logger.Int64("userID", userID),
				logger.String("productID", productID),
				logger.String("removed", string(opposite)),
			)
		}
	} else {
		in, err = s.store.CreateInteraction(ctx, userID, productID, t)
		if err != nil {
			metrics.RecordErrorByComponent("service", "interaction_error")
			return model.Interaction{}, fmt.Errorf("record interaction: %w", err)
		}
	}
	metrics.RecordInteraction(string(t))

	s.invalidate(ctx, model.InteractionEvent{
		EventID:   s.newEventID(),
		UserID:    userID,
		ProductID: productID,
		Type:      t,
		At:        time.Now(),
	})

	return in, nil
}

// invalidate hands the event to the worker pool. A user that already has an
// invalidation pending is skipped. When the pipeline is not running or the
// queue is full the cache is invalidated inline.
func (s *Service) invalidate(ctx context.Context, ev model.InteractionEvent) {
	s.mu.RLock()
	started, q, co := s.started, s.queue, s.coalescer
	s.mu.RUnlock()

	if started {
		key := dedupe.UserKey(ev.UserID)
		if !co.Claim(ctx, key) {
			metrics.RecordQueueCoalesced()
			return
		}
		if q.Enqueue(ctx, ev) {
			return
		}
		co.Release(ctx, key)
	}

	metrics.RecordInvalidationFallback()
	if err := s.cache.Invalidate(ctx, ev.UserID); err != nil {
		metrics.RecordErrorByComponent("service", "invalidate_error")
		s.logger.Warn(ctx, "synchronous invalidation failed",
			logger.String("eventID", ev.EventID),
			logger.Int64("userID", ev.UserID),
			logger.Error(err),
		)
	}
}

// LikedProducts returns the catalog products the user liked, in catalog order.
// Liked ids missing from the catalog are skipped.
func (s *Service) LikedProducts(ctx context.Context, userID int64) ([]model.Product, error) {
	liked, err := s.store.InteractionsByUserAndType(ctx, userID, model.InteractionLike)
	if err != nil {
		return nil, fmt.Errorf("liked interactions: %w", err)
	}
	products, err := s.catalog.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	ids := make(map[string]struct{}, len(liked))
	for _, in := range liked {
		ids[in.ProductID] = struct{}{}
	}
	out := make([]model.Product, 0, len(liked))
	for _, p := range products {
		if _, ok := ids[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
