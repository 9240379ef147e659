package simulate

import (
	"fmt"

	"github.com/okian/wardrobe/internal/domain/model"
)

// Violation is one broken response invariant.
type Violation struct {
	User   string `json:"user"`
	Round  int    `json:"round"`
	Check  string `json:"check"`
	Detail string `json:"detail"`
}

// Invariant names reported in violations.
const (
	CheckExclusion   = "exclusion"
	CheckFootwear    = "footwear_focus"
	CheckCardinality = "cardinality"
)

// Expectation is what the client knows about a user when checking a response.
type Expectation struct {
	Liked    map[string]bool
	Disliked map[string]bool
	Catalog  map[string]model.Product
	Limit    int
}

// FootwearFocus reports whether at least half of the resolvable liked
// products are footwear, with at least one footwear like.
func (e Expectation) FootwearFocus() bool {
	var total, footwear int
	for id := range e.Liked {
		p, ok := e.Catalog[id]
		if !ok {
			continue
		}
		total++
		if model.IsFootwear(p) {
			footwear++
		}
	}
	return footwear > 0 && float64(footwear)/float64(total) >= 0.5
}

// candidates counts the products a recommendation may draw from.
func (e Expectation) candidates() int {
	focus := e.FootwearFocus()
	n := 0
	for id, p := range e.Catalog {
		if e.Liked[id] || e.Disliked[id] {
			continue
		}
		if focus && !model.IsFootwear(p) {
			continue
		}
		n++
	}
	return n
}

// Verify checks recs against the exclusion, footwear focus and cardinality
// invariants and returns every violation found.
func Verify(user string, round int, recs []model.Product, exp Expectation) []Violation {
	var out []Violation
	add := func(check, format string, args ...any) {
		out = append(out, Violation{User: user, Round: round, Check: check, Detail: fmt.Sprintf(format, args...)})
	}

	for _, p := range recs {
		if exp.Liked[p.ID] {
			add(CheckExclusion, "liked product %s recommended", p.ID)
		}
		if exp.Disliked[p.ID] {
			add(CheckExclusion, "disliked product %s recommended", p.ID)
		}
	}

	if exp.FootwearFocus() {
		for _, p := range recs {
			if !model.IsFootwear(p) {
				add(CheckFootwear, "non-footwear product %s (%s) in footwear focus", p.ID, p.ArticleType)
			}
		}
	}

	if exp.Limit > 0 && len(recs) > exp.Limit {
		add(CheckCardinality, "%d recommendations exceed limit %d", len(recs), exp.Limit)
	}
	if c := exp.candidates(); len(recs) > c {
		add(CheckCardinality, "%d recommendations exceed %d candidates", len(recs), c)
	}
	return out
}
