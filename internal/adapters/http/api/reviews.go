package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/wardrobe/internal/domain/model"
	"github.com/okian/wardrobe/internal/domain/types"
)

const (
	msgInvalidRating   = "Rating must be a number between 1 and 5"
	msgReviewNotFound  = "Review not found"
	msgInvalidReviewID = "Review ID is required"
)

type createReviewRequest struct {
	Rating     int     `json:"rating" validate:"required,min=1,max=5"`
	ReviewText *string `json:"reviewText"`
	Title      *string `json:"title"`
}

type updateReviewRequest struct {
	Rating     *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	ReviewText *string `json:"reviewText"`
	Title      *string `json:"title"`
}

var reviewMessages = fieldMessages{"Rating": msgInvalidRating}

type reviewsResponse struct {
	Success bool                   `json:"success"`
	Reviews []types.ReviewWithUser `json:"reviews"`
}

type reviewResponse struct {
	Success bool                 `json:"success"`
	Review  types.ReviewWithUser `json:"review"`
}

type ratingResponse struct {
	Success bool                `json:"success"`
	Rating  model.ProductRating `json:"rating"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// reviewID parses the {reviewId} path parameter.
func reviewID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "reviewId"), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New(msgInvalidReviewID)
	}
	return id, nil
}

// handleListReviews handles GET /api/products/{productId}/reviews.
func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_reviews"
	reviews, err := s.deps.Reviews(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{internal: "Failed to fetch reviews"})
		return
	}
	writeJSON(w, http.StatusOK, reviewsResponse{Success: true, Reviews: reviews})
}

// handleRating handles GET /api/products/{productId}/rating.
func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	const op = "api.rating"
	rating, err := s.deps.Rating(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{internal: "Failed to fetch rating"})
		return
	}
	writeJSON(w, http.StatusOK, ratingResponse{Success: true, Rating: rating})
}

// handleCreateReview handles POST /api/products/{productId}/reviews.
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_review"
	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, op, WrapKind(op, ErrBadRequest, err), failure{})
		return
	}
	if err := validateRequest(op, req, reviewMessages); err != nil {
		s.fail(w, r, op, err, failure{})
		return
	}

	u, err := s.user(r, "")
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{internal: "Failed to create review"})
		return
	}
	rv, err := s.deps.CreateReview(r.Context(), u, types.ReviewInput{
		ProductID:  chi.URLParam(r, "productId"),
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
		Title:      req.Title,
	})
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{notFound: "Product not found", internal: "Failed to create review"})
		return
	}
	writeJSON(w, http.StatusCreated, reviewResponse{Success: true, Review: rv})
}

// handleUpdateReview handles PUT /api/reviews/{reviewId}.
func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_review"
	id, err := reviewID(r)
	if err != nil {
		s.fail(w, r, op, WrapKind(op, ErrBadRequest, err), failure{})
		return
	}
	var req updateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, op, WrapKind(op, ErrBadRequest, err), failure{})
		return
	}
	if err := validateRequest(op, req, reviewMessages); err != nil {
		s.fail(w, r, op, err, failure{})
		return
	}

	u, err := s.user(r, "")
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{internal: "Failed to update review"})
		return
	}
	rv, err := s.deps.UpdateReview(r.Context(), u, id, model.ReviewUpdate{
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
		Title:      req.Title,
	})
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{notFound: msgReviewNotFound, internal: "Failed to update review"})
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse{Success: true, Review: rv})
}

// handleDeleteReview handles DELETE /api/reviews/{reviewId}.
func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_review"
	id, err := reviewID(r)
	if err != nil {
		s.fail(w, r, op, WrapKind(op, ErrBadRequest, err), failure{})
		return
	}
	if err := s.deps.DeleteReview(r.Context(), id); err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{notFound: msgReviewNotFound, internal: "Failed to delete review"})
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Success: true, Message: "Review deleted successfully"})
}
