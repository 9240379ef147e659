package recommend

import (
	"github.com/okian/wardrobe/internal/domain/model"
	"github.com/okian/wardrobe/internal/domain/types"
)

const (
	// DefaultLimit is the maximum number of recommendations returned.
	DefaultLimit   = 8
	popularMessage = "Based on popular items"
)

// State identifies which branch of the recommendation state machine ran.
type State string

// Recommendation states, evaluated in order on every request.
const (
	StateNoInteractions State = "no_interactions" // nothing recorded: random sample
	StateNoLikes        State = "no_likes"        // dislikes/views only: sample minus dislikes
	StatePersonalized   State = "personalized"    // likes present: full pipeline
)

// Option configures an Engine.
type Option func(*Engine)

// WithLimit lowers the maximum list size. Values outside 1..DefaultLimit are ignored.
func WithLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 && n <= DefaultLimit {
			e.limit = n
		}
	}
}

// WithRandomSource sets the source used for sampling and score jitter.
func WithRandomSource(src Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.src = src
		}
	}
}

// Engine runs the recommendation state machine over a catalog snapshot.
// It holds no per-request state and is safe for concurrent use when its
// Source is.
type Engine struct {
	limit  int
	src    Source
	scorer *Scorer
}

// NewEngine creates an engine with the default limit and a clock-seeded source.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{limit: DefaultLimit}
	for _, opt := range opts {
		opt(e)
	}
	if e.src == nil {
		e.src = NewSource()
	}
	e.scorer = NewScorer(WithSource(e.src))
	return e
}

// Result is the outcome of one recommendation run.
type Result struct {
	Response   types.RecommendationResponse
	State      State
	Candidates int         // size of the pool after filtering
	Top        []Candidate // ranked candidates kept, with scores; nil for popular states
}

// Recommend picks recommendations for history from catalog.
func (e *Engine) Recommend(catalog []model.Product, history model.History) Result {
	if history.Empty() {
		recs := e.sample(catalog)
		return Result{
			Response:   popularResponse(recs),
			State:      StateNoInteractions,
			Candidates: len(catalog),
		}
	}

	if len(history.Liked) == 0 {
		pool := FilterCandidates(catalog, nil, history.Disliked, false)
		return Result{
			Response:   popularResponse(e.sample(pool)),
			State:      StateNoLikes,
			Candidates: len(pool),
		}
	}

	profile := BuildProfile(catalog, history.Liked)
	pool := FilterCandidates(catalog, history.Liked, history.Disliked, profile.FocusOnFootwear)
	disliked := ResolveProducts(catalog, history.Disliked)
	scored := e.scorer.Score(pool, profile, disliked, history.Viewed)
	top := Rank(scored, e.limit)
	exp := Explain(top, profile)

	return Result{
		Response: types.RecommendationResponse{
			Success:            true,
			Recommendations:    exp.Recommendations,
			RecommendationType: exp.RecommendationType,
			Message:            exp.Message,
			BasedOn:            exp.BasedOn,
		},
		State:      StatePersonalized,
		Candidates: len(pool),
		Top:        top,
	}
}

// sample draws up to e.limit products uniformly without replacement.
func (e *Engine) sample(pool []model.Product) []types.RecommendedProduct {
	n := min(e.limit, len(pool))
	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	out := make([]types.RecommendedProduct, n)
	for i := 0; i < n; i++ {
		j := i + e.src.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = types.RecommendedProduct{Product: pool[idx[i]]}
	}
	return out
}

func popularResponse(recs []types.RecommendedProduct) types.RecommendationResponse {
	return types.RecommendationResponse{
		Success:            true,
		Recommendations:    recs,
		RecommendationType: types.RecommendationPopular,
		Message:            popularMessage,
		BasedOn:            types.EmptyBasedOn(),
	}
}
