// Package repository persists users, interactions, reviews and rating summaries.
package repository

import (
	"context"

	"github.com/okian/wardrobe/internal/domain/model"
)

// InteractionStore records like/dislike/view signals.
type InteractionStore interface {
	// CreateInteraction records (user, product, type). Recording an existing
	// triple returns the stored row unchanged.
	CreateInteraction(ctx context.Context, userID int64, productID string, t model.InteractionType) (model.Interaction, error)
	// GetInteraction returns ErrNotFound when the triple is not recorded.
	GetInteraction(ctx context.Context, userID int64, productID string, t model.InteractionType) (model.Interaction, error)
	// ReplaceInteraction atomically removes the (user, product, opposite) row
	// and records (user, product, t). removed reports whether a row was deleted.
	ReplaceInteraction(ctx context.Context, userID int64, productID string, t, opposite model.InteractionType) (in model.Interaction, removed bool, err error)
	// DeleteInteraction reports whether a row was removed.
	DeleteInteraction(ctx context.Context, userID int64, productID string, t model.InteractionType) (bool, error)
	// InteractionsByUserAndType returns rows in recording order.
	InteractionsByUserAndType(ctx context.Context, userID int64, t model.InteractionType) ([]model.Interaction, error)
	// InteractionsByUser returns every row of the user in recording order.
	InteractionsByUser(ctx context.Context, userID int64) ([]model.Interaction, error)
}

// UserStore manages accounts.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	// CreateUser returns ErrConflict when the username or email is taken.
	CreateUser(ctx context.Context, username, email string) (model.User, error)
	// EnsureUser returns the user named username, creating it when missing.
	EnsureUser(ctx context.Context, username, email string) (model.User, error)
}

// ReviewStore manages reviews and keeps each product's rating summary in step.
type ReviewStore interface {
	// CreateReview inserts a review or replaces the user's existing review of the product.
	CreateReview(ctx context.Context, r model.Review) (model.Review, error)
	GetReview(ctx context.Context, id int64) (model.Review, error)
	ReviewsByProduct(ctx context.Context, productID string) ([]model.Review, error)
	UpdateReview(ctx context.Context, id int64, upd model.ReviewUpdate) (model.Review, error)
	DeleteReview(ctx context.Context, id int64) error
	// ProductRating returns ErrNotFound when the product was never rated.
	ProductRating(ctx context.Context, productID string) (model.ProductRating, error)
}

// Store is the full persistence surface used by the service.
type Store interface {
	InteractionStore
	UserStore
	ReviewStore

	Ping(ctx context.Context) error
	Close() error
}
