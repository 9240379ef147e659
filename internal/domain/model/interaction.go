package model

import (
	"fmt"
	"time"
)

// InteractionType is the kind of signal a user left on a product.
type InteractionType string

// Supported interaction types.
const (
	InteractionLike    InteractionType = "like"
	InteractionDislike InteractionType = "dislike"
	InteractionView    InteractionType = "view"
)

// ParseInteractionType validates s and returns the matching type.
func ParseInteractionType(s string) (InteractionType, error) {
	switch t := InteractionType(s); t {
	case InteractionLike, InteractionDislike, InteractionView:
		return t, nil
	default:
		return "", fmt.Errorf("invalid interaction type %q: must be like, dislike or view", s)
	}
}

// Opposite returns the mutually exclusive counterpart of like/dislike.
// ok is false for types without one.
func (t InteractionType) Opposite() (InteractionType, bool) {
	switch t {
	case InteractionLike:
		return InteractionDislike, true
	case InteractionDislike:
		return InteractionLike, true
	default:
		return "", false
	}
}

// Interaction is a single recorded (user, product, type) row.
// At most one row exists per (UserID, ProductID, Type).
type Interaction struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	ProductID string          `json:"productId"`
	Type      InteractionType `json:"interactionType"`
	CreatedAt time.Time       `json:"createdAt"`
}

// History groups a user's interactions by type as product id lists.
type History struct {
	Liked    []string
	Disliked []string
	Viewed   []string
}

// Empty reports whether no interaction of any type is present.
func (h History) Empty() bool {
	return len(h.Liked) == 0 && len(h.Disliked) == 0 && len(h.Viewed) == 0
}

// InteractionEvent notifies downstream consumers that a user's history changed.
type InteractionEvent struct {
	EventID   string          // unique id, used for log correlation
	UserID    int64           // user whose history changed
	ProductID string          // product that was interacted with
	Type      InteractionType // recorded interaction type
	At        time.Time       // time the interaction was recorded
}

// GroupHistory splits interactions into per-type product id lists, keeping order.
func GroupHistory(interactions []Interaction) History {
	var h History
	for _, in := range interactions {
		switch in.Type {
		case InteractionLike:
			h.Liked = append(h.Liked, in.ProductID)
		case InteractionDislike:
			h.Disliked = append(h.Disliked, in.ProductID)
		case InteractionView:
			h.Viewed = append(h.Viewed, in.ProductID)
		}
	}
	return h
}
