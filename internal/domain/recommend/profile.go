// Package recommend builds taste profiles from liked products and ranks the
// catalog against them.
//
// The pipeline is Profile Builder -> Candidate Filter -> Scorer -> Ranker.
// Every stage is a pure function of its inputs; randomness is injected through
// a Source so callers control reproducibility.
package recommend

import (
	"strings"

	"github.com/okian/wardrobe/internal/domain/model"
)

// Keyword extraction thresholds.
const (
	minKeywordLen     = 4 // tokens must be longer than 3 letters
	footwearThreshold = 0.5
)

// StringSet is an insertion-ordered set of strings.
type StringSet struct {
	items []string
	index map[string]struct{}
}

func newStringSet() *StringSet {
	return &StringSet{index: make(map[string]struct{})}
}

func (s *StringSet) add(v string) {
	if _, ok := s.index[v]; ok {
		return
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
}

// Has reports whether v is a member.
func (s *StringSet) Has(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Values returns the members in insertion order. The result is never nil.
func (s *StringSet) Values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of members.
func (s *StringSet) Len() int { return len(s.items) }

// Profile is the taste profile derived from a user's liked products.
// It is recomputed on every request and never persisted.
type Profile struct {
	Categories       *StringSet // articleType values
	SubCategories    *StringSet
	MasterCategories *StringSet
	Colors           *StringSet
	Usages           *StringSet
	Genders          *StringSet
	Seasons          *StringSet
	Keywords         *StringSet

	LikedCount      int
	FootwearCount   int
	FootwearRatio   float64
	FocusOnFootwear bool
}

func newProfile() Profile {
	return Profile{
		Categories:       newStringSet(),
		SubCategories:    newStringSet(),
		MasterCategories: newStringSet(),
		Colors:           newStringSet(),
		Usages:           newStringSet(),
		Genders:          newStringSet(),
		Seasons:          newStringSet(),
		Keywords:         newStringSet(),
	}
}

// BuildProfile resolves likedIDs against catalog and aggregates the liked
// products' attributes. Ids missing from the catalog are ignored.
func BuildProfile(catalog []model.Product, likedIDs []string) Profile {
	p := newProfile()
	for _, product := range ResolveProducts(catalog, likedIDs) {
		p.Categories.add(product.ArticleType)
		p.SubCategories.add(product.SubCategory)
		p.MasterCategories.add(product.MasterCategory)
		p.Colors.add(product.BaseColour)
		p.Usages.add(product.Usage)
		p.Genders.add(product.Gender)
		p.Seasons.add(product.Season)
		for _, kw := range Tokenize(product.ProductDisplayName) {
			p.Keywords.add(kw)
		}
		if model.IsFootwear(product) {
			p.FootwearCount++
		}
		p.LikedCount++
	}

	if p.LikedCount > 0 {
		p.FootwearRatio = float64(p.FootwearCount) / float64(p.LikedCount)
	}
	p.FocusOnFootwear = p.FootwearCount > 0 && p.FootwearRatio >= footwearThreshold
	return p
}

// ResolveProducts returns the catalog products whose ids are in ids, in catalog order.
func ResolveProducts(catalog []model.Product, ids []string) []model.Product {
	if len(ids) == 0 {
		return nil
	}
	want := idSet(ids)
	var out []model.Product
	for _, p := range catalog {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Tokenize lowercases a display name, splits it on whitespace, strips every
// non a-z rune and keeps tokens longer than three letters. Duplicates are kept.
func Tokenize(name string) []string {
	fields := strings.Fields(strings.ToLower(name))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		word := strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' {
				return r
			}
			return -1
		}, f)
		if len(word) >= minKeywordLen {
			out = append(out, word)
		}
	}
	return out
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
