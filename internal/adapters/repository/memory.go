package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/wardrobe/internal/domain/model"
)

type interactionKey struct {
	userID    int64
	productID string
	kind      model.InteractionType
}

type reviewKey struct {
	userID    int64
	productID string
}

// MemoryStore keeps everything in process memory behind one RWMutex.
type MemoryStore struct {
	settings

	mu sync.RWMutex

	nextUserID int64
	users      map[int64]model.User
	usernames  map[string]int64
	emails     map[string]int64

	nextInteractionID int64
	interactions      map[interactionKey]model.Interaction

	nextReviewID  int64
	reviews       map[int64]model.Review
	reviewsByUser map[reviewKey]int64
	ratings       map[string]model.ProductRating
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		settings:      defaultSettings(),
		users:         make(map[int64]model.User),
		usernames:     make(map[string]int64),
		emails:        make(map[string]int64),
		interactions:  make(map[interactionKey]model.Interaction),
		reviews:       make(map[int64]model.Review),
		reviewsByUser: make(map[reviewKey]int64),
		ratings:       make(map[string]model.ProductRating),
	}
	for _, opt := range opts {
		opt(&s.settings)
	}
	return s
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// CreateInteraction records the triple once.
func (s *MemoryStore) CreateInteraction(_ context.Context, userID int64, productID string, t model.InteractionType) (model.Interaction, error) {
	defer observe("create_interaction", time.Now())
	key := interactionKey{userID, productID, t}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createInteractionLocked(key), nil
}

// ReplaceInteraction swaps the opposite row for t under one lock.
func (s *MemoryStore) ReplaceInteraction(_ context.Context, userID int64, productID string, t, opposite model.InteractionType) (model.Interaction, bool, error) {
	defer observe("replace_interaction", time.Now())
	old := interactionKey{userID, productID, opposite}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, removed := s.interactions[old]
	delete(s.interactions, old)
	return s.createInteractionLocked(interactionKey{userID, productID, t}), removed, nil
}

func (s *MemoryStore) createInteractionLocked(key interactionKey) model.Interaction {
	if in, ok := s.interactions[key]; ok {
		return in
	}
	s.nextInteractionID++
	in := model.Interaction{ID: s.nextInteractionID, UserID: key.userID, ProductID: key.productID, Type: key.kind, CreatedAt: s.now()}
	s.interactions[key] = in
	return in
}

// GetInteraction looks up one triple.
func (s *MemoryStore) GetInteraction(_ context.Context, userID int64, productID string, t model.InteractionType) (model.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.interactions[interactionKey{userID, productID, t}]
	if !ok {
		return model.Interaction{}, fmt.Errorf("interaction %d/%s/%s: %w", userID, productID, t, ErrNotFound)
	}
	return in, nil
}

// DeleteInteraction removes one triple.
func (s *MemoryStore) DeleteInteraction(_ context.Context, userID int64, productID string, t model.InteractionType) (bool, error) {
	key := interactionKey{userID, productID, t}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interactions[key]; !ok {
		return false, nil
	}
	delete(s.interactions, key)
	return true, nil
}

// InteractionsByUserAndType returns the user's rows of one type.
func (s *MemoryStore) InteractionsByUserAndType(_ context.Context, userID int64, t model.InteractionType) ([]model.Interaction, error) {
	defer observe("interactions_by_type", time.Now())
	return s.collect(func(in model.Interaction) bool { return in.UserID == userID && in.Type == t }), nil
}

// InteractionsByUser returns all of the user's rows.
func (s *MemoryStore) InteractionsByUser(_ context.Context, userID int64) ([]model.Interaction, error) {
	defer observe("interactions_by_user", time.Now())
	return s.collect(func(in model.Interaction) bool { return in.UserID == userID }), nil
}

func (s *MemoryStore) collect(keep func(model.Interaction) bool) []model.Interaction {
	s.mu.RLock()
	out := make([]model.Interaction, 0)
	for _, in := range s.interactions {
		if keep(in) {
			out = append(out, in)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetUser looks up a user by id.
func (s *MemoryStore) GetUser(_ context.Context, id int64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return u, nil
}

// GetUserByUsername looks up a user by name.
func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernames[username]
	if !ok {
		return model.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return s.users[id], nil
}

// CreateUser adds a user with unique username and email.
func (s *MemoryStore) CreateUser(_ context.Context, username, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUserLocked(username, email)
}

// EnsureUser returns or creates the named user.
func (s *MemoryStore) EnsureUser(_ context.Context, username, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.usernames[username]; ok {
		return s.users[id], nil
	}
	return s.createUserLocked(username, email)
}

func (s *MemoryStore) createUserLocked(username, email string) (model.User, error) {
	if _, ok := s.usernames[username]; ok {
		return model.User{}, fmt.Errorf("username %q: %w", username, ErrConflict)
	}
	if _, ok := s.emails[email]; ok {
		return model.User{}, fmt.Errorf("email %q: %w", email, ErrConflict)
	}
	s.nextUserID++
	u := model.User{ID: s.nextUserID, Username: username, Email: email, RegistrationDate: s.now()}
	s.users[u.ID] = u
	s.usernames[username] = u.ID
	s.emails[email] = u.ID
	return u, nil
}

// CreateReview upserts the user's review of a product.
func (s *MemoryStore) CreateReview(_ context.Context, r model.Review) (model.Review, error) {
	defer observe("create_review", time.Now())
	if err := model.ValidateRating(r.Rating); err != nil {
		return model.Review{}, err
	}
	now := s.now()
	key := reviewKey{r.UserID, r.ProductID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.reviewsByUser[key]; ok {
		existing := s.reviews[id]
		old := existing.Rating
		existing.Rating = r.Rating
		existing.ReviewText = r.ReviewText
		existing.Title = r.Title
		existing.UpdatedAt = now
		s.reviews[id] = existing
		s.applyRatingLocked(existing.ProductID, old, existing.Rating, now)
		return existing, nil
	}

	s.nextReviewID++
	r.ID = s.nextReviewID
	r.CreatedAt = now
	r.UpdatedAt = now
	s.reviews[r.ID] = r
	s.reviewsByUser[key] = r.ID
	s.applyRatingLocked(r.ProductID, 0, r.Rating, now)
	return r, nil
}

// GetReview looks up a review by id.
func (s *MemoryStore) GetReview(_ context.Context, id int64) (model.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[id]
	if !ok {
		return model.Review{}, fmt.Errorf("review %d: %w", id, ErrNotFound)
	}
	return r, nil
}

// ReviewsByProduct returns a product's reviews, newest first.
func (s *MemoryStore) ReviewsByProduct(_ context.Context, productID string) ([]model.Review, error) {
	defer observe("reviews_by_product", time.Now())
	s.mu.RLock()
	out := make([]model.Review, 0)
	for _, r := range s.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// UpdateReview applies the set fields of upd.
func (s *MemoryStore) UpdateReview(_ context.Context, id int64, upd model.ReviewUpdate) (model.Review, error) {
	if upd.Rating != nil {
		if err := model.ValidateRating(*upd.Rating); err != nil {
			return model.Review{}, err
		}
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return model.Review{}, fmt.Errorf("review %d: %w", id, ErrNotFound)
	}
	old := r.Rating
	if upd.Rating != nil {
		r.Rating = *upd.Rating
	}
	if upd.ReviewText != nil {
		r.ReviewText = upd.ReviewText
	}
	if upd.Title != nil {
		r.Title = upd.Title
	}
	r.UpdatedAt = now
	s.reviews[id] = r
	if r.Rating != old {
		s.applyRatingLocked(r.ProductID, old, r.Rating, now)
	}
	return r, nil
}

// DeleteReview removes a review and its rating contribution.
func (s *MemoryStore) DeleteReview(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return fmt.Errorf("review %d: %w", id, ErrNotFound)
	}
	delete(s.reviews, id)
	delete(s.reviewsByUser, reviewKey{r.UserID, r.ProductID})
	s.applyRatingLocked(r.ProductID, r.Rating, 0, s.now())
	return nil
}

// ProductRating returns the rating summary of a product.
func (s *MemoryStore) ProductRating(_ context.Context, productID string) (model.ProductRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pr, ok := s.ratings[productID]
	if !ok {
		return model.ProductRating{}, fmt.Errorf("rating %s: %w", productID, ErrNotFound)
	}
	return pr, nil
}

func (s *MemoryStore) applyRatingLocked(productID string, oldRating, newRating int, now time.Time) {
	pr, ok := s.ratings[productID]
	if !ok {
		pr = model.ProductRating{ProductID: productID}
	}
	pr.Apply(oldRating, newRating)
	pr.UpdatedAt = now
	s.ratings[productID] = pr
}
