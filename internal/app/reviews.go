package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/wardrobe/internal/adapters/repository"
	"github.com/okian/wardrobe/internal/domain/model"
	"github.com/okian/wardrobe/internal/domain/types"
)

// Reviews lists a product's reviews with their authors' usernames.
// Reviews whose author no longer exists are attributed to "Anonymous".
func (s *Service) Reviews(ctx context.Context, productID string) ([]types.ReviewWithUser, error) {
	reviews, err := s.store.ReviewsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("reviews of %q: %w", productID, err)
	}

	names := make(map[int64]string)
	out := make([]types.ReviewWithUser, 0, len(reviews))
	for _, r := range reviews {
		name, ok := names[r.UserID]
		if !ok {
			u, err := s.store.GetUser(ctx, r.UserID)
			switch {
			case err == nil:
				name = u.Username
			case errors.Is(err, repository.ErrNotFound):
				name = anonymousUsername
			default:
				return nil, fmt.Errorf("review author %d: %w", r.UserID, err)
			}
			names[r.UserID] = name
		}
		out = append(out, types.ReviewWithUser{Review: r, Username: name})
	}
	return out, nil
}

// Rating returns the product's rating summary. Unrated products get a zeroed summary.
func (s *Service) Rating(ctx context.Context, productID string) (model.ProductRating, error) {
	r, err := s.store.ProductRating(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.ProductRating{ProductID: productID}, nil
	}
	if err != nil {
		return model.ProductRating{}, fmt.Errorf("rating of %q: %w", productID, err)
	}
	return r, nil
}

// CreateReview stores user's review of a catalog product, replacing any
// earlier review by the same user.
func (s *Service) CreateReview(ctx context.Context, user model.User, in types.ReviewInput) (types.ReviewWithUser, error) {
	if err := model.ValidateRating(in.Rating); err != nil {
		return types.ReviewWithUser{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if _, err := s.Product(ctx, in.ProductID); err != nil {
		return types.ReviewWithUser{}, err
	}

	r, err := s.store.CreateReview(ctx, model.Review{
		UserID:     user.ID,
		ProductID:  in.ProductID,
		Rating:     in.Rating,
		ReviewText: in.ReviewText,
		Title:      in.Title,
	})
	if err != nil {
		return types.ReviewWithUser{}, fmt.Errorf("create review: %w", err)
	}
	return types.ReviewWithUser{Review: r, Username: user.Username}, nil
}

// UpdateReview applies the non-nil fields of upd to review id.
func (s *Service) UpdateReview(ctx context.Context, user model.User, id int64, upd model.ReviewUpdate) (types.ReviewWithUser, error) {
	if upd.Rating != nil {
		if err := model.ValidateRating(*upd.Rating); err != nil {
			return types.ReviewWithUser{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
	}

	r, err := s.store.UpdateReview(ctx, id, upd)
	if errors.Is(err, repository.ErrNotFound) {
		return types.ReviewWithUser{}, fmt.Errorf("%w: review %d", ErrNotFound, id)
	}
	if err != nil {
		return types.ReviewWithUser{}, fmt.Errorf("update review %d: %w", id, err)
	}
	return types.ReviewWithUser{Review: r, Username: user.Username}, nil
}

// DeleteReview removes review id and its contribution to the product rating.
func (s *Service) DeleteReview(ctx context.Context, id int64) error {
	err := s.store.DeleteReview(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: review %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("delete review %d: %w", id, err)
	}
	return nil
}
