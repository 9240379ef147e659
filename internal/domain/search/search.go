// Package search ranks catalog products against a free-text query and pages results.
package search

import (
	"sort"
	"strings"

	"github.com/okian/wardrobe/internal/domain/model"
)

// Field weights.
const (
	weightName        = 5
	weightNameWord    = 3
	weightArticleType = 4
	weightMaster      = 3
	weightSub         = 3
	weightColour      = 2

	minTermLen = 2
)

// Hit is a matching product and its relevance score.
type Hit struct {
	Product model.Product
	Score   int
}

// Terms lowercases q, splits it on whitespace and drops single-character terms.
func Terms(q string) []string {
	fields := strings.Fields(strings.ToLower(q))
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= minTermLen {
			out = append(out, f)
		}
	}
	return out
}

// Score sums the weight of every field each term occurs in.
func Score(p model.Product, terms []string) int {
	name := strings.ToLower(p.ProductDisplayName)
	words := make(map[string]struct{})
	for _, w := range strings.Fields(name) {
		words[w] = struct{}{}
	}
	articleType := strings.ToLower(p.ArticleType)
	master := strings.ToLower(p.MasterCategory)
	sub := strings.ToLower(p.SubCategory)
	colour := strings.ToLower(p.BaseColour)

	score := 0
	for _, t := range terms {
		if strings.Contains(name, t) {
			score += weightName
			if _, ok := words[t]; ok {
				score += weightNameWord
			}
		}
		if strings.Contains(articleType, t) {
			score += weightArticleType
		}
		if strings.Contains(master, t) {
			score += weightMaster
		}
		if strings.Contains(sub, t) {
			score += weightSub
		}
		if strings.Contains(colour, t) {
			score += weightColour
		}
	}
	return score
}

// Search returns products with a positive score, best first. Equal scores keep catalog order.
func Search(catalog []model.Product, q string) ([]Hit, error) {
	if strings.TrimSpace(q) == "" {
		return nil, ErrEmptyQuery
	}
	terms := Terms(q)
	hits := make([]Hit, 0)
	for _, p := range catalog {
		if s := Score(p, terms); s > 0 {
			hits = append(hits, Hit{Product: p, Score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// Products strips scores from hits.
func Products(hits []Hit) []model.Product {
	out := make([]model.Product, len(hits))
	for i, h := range hits {
		out[i] = h.Product
	}
	return out
}
