package api

import (
	"net/http"
	"strconv"

	"github.com/okian/wardrobe/internal/domain/model"
)

const (
	msgMissingInteractionFields = "Missing required fields: productId and interactionType are required"
	msgInvalidInteractionType   = `Invalid interactionType. Must be "like", "dislike", or "view"`
)

type interactionRequest struct {
	ProductID       string `json:"productId" validate:"required"`
	InteractionType string `json:"interactionType" validate:"required,oneof=like dislike view"`
	UserID          *int64 `json:"userId,omitempty"`
}

var interactionMessages = fieldMessages{
	"ProductID":                msgMissingInteractionFields,
	"InteractionType.required": msgMissingInteractionFields,
	"InteractionType.oneof":    msgInvalidInteractionType,
}

type interactionResponse struct {
	Success     bool              `json:"success"`
	Interaction model.Interaction `json:"interaction"`
}

type likedResponse struct {
	Success       bool            `json:"success"`
	LikedProducts []model.Product `json:"likedProducts"`
}

// handleRecordInteraction handles POST /api/interactions.
func (s *Server) handleRecordInteraction(w http.ResponseWriter, r *http.Request) {
	const op = "api.record_interaction"
	var req interactionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, op, WrapKind(op, ErrBadRequest, err), failure{})
		return
	}
	if err := validateRequest(op, req, interactionMessages); err != nil {
		s.fail(w, r, op, err, failure{})
		return
	}

	fallback := ""
	if req.UserID != nil {
		fallback = strconv.FormatInt(*req.UserID, 10)
	}
	u, err := s.user(r, fallback)
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{internal: "Failed to record interaction"})
		return
	}

	in, err := s.deps.RecordInteraction(r.Context(), u.ID, req.ProductID, req.InteractionType)
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{internal: "Failed to record interaction"})
		return
	}
	writeJSON(w, http.StatusCreated, interactionResponse{Success: true, Interaction: in})
}

// handleLiked handles GET /api/interactions/liked.
func (s *Server) handleLiked(w http.ResponseWriter, r *http.Request) {
	const op = "api.liked_products"
	u, err := s.user(r, "")
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{internal: "Failed to fetch liked products"})
		return
	}
	products, err := s.deps.LikedProducts(r.Context(), u.ID)
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{internal: "Failed to fetch liked products"})
		return
	}
	writeJSON(w, http.StatusOK, likedResponse{Success: true, LikedProducts: products})
}
