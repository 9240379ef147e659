package recommend

import (
	"fmt"
	"strings"

	"github.com/okian/wardrobe/internal/domain/model"
)

// Signal weights.
const (
	weightExactType      = 15.0
	weightComplementary  = 3.0
	weightColor          = 3.0
	weightMasterCategory = 8.0
	weightSubCategory    = 6.0
	weightGender         = 2.0
	weightUsage          = 2.0
	weightSeason         = 1.0
	weightKeyword        = 2.0
	weightViewed         = 0.5

	penaltyDislikedType  = 3.0
	penaltyDislikedColor = 2.0
	penaltyDislikedUsage = 1.0

	defaultJitter = 0.05
)

// Reason prefixes, also used as explanation buckets.
const (
	reasonSameType       = "Same type"
	reasonComplementary  = "Complementary item"
	reasonPreferredColor = "Preferred color"
	reasonSameCategory   = "Same category"
	reasonSameSubCat     = "Same subcategory"
	reasonSameGender     = "Same gender"
	reasonSameUsage      = "Same usage"
	reasonSameSeason     = "Same season"
	reasonKeywords       = "Style keywords"
)

var (
	topwearTypes    = []string{"Tshirts", "Shirts", "Jackets"}
	bottomwearTypes = map[string]struct{}{"Jeans": {}, "Trousers": {}}
)

// Candidate is a product annotated with its relevance score and match reasons.
type Candidate struct {
	Product  model.Product
	RawScore float64 // score before jitter
	Score    float64 // jittered score used for ranking
	Reasons  []string
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithSource sets the random source used for jitter.
func WithSource(src Source) ScorerOption {
	return func(s *Scorer) {
		if src != nil {
			s.src = src
		}
	}
}

// WithJitter sets the relative jitter bound; 0.05 means ±5%. Negative values are ignored.
func WithJitter(j float64) ScorerOption {
	return func(s *Scorer) {
		if j >= 0 {
			s.jitter = j
		}
	}
}

// Scorer assigns weighted relevance scores to candidates.
type Scorer struct {
	src    Source
	jitter float64
}

// NewScorer creates a scorer with ±5% jitter drawn from a clock-seeded source.
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{jitter: defaultJitter}
	for _, opt := range opts {
		opt(s)
	}
	if s.src == nil {
		s.src = NewSource()
	}
	return s
}

// Score evaluates every candidate against the profile, applies dislike
// penalties from the resolved disliked products and a viewed boost, then
// perturbs each score once by a factor in [1-jitter, 1+jitter].
func (s *Scorer) Score(candidates []model.Product, profile Profile, disliked []model.Product, viewedIDs []string) []Candidate {
	viewed := idSet(viewedIDs)
	likesTopwear := false
	for _, t := range topwearTypes {
		if profile.Categories.Has(t) {
			likesTopwear = true
			break
		}
	}

	out := make([]Candidate, len(candidates))
	for i, product := range candidates {
		c := scoreOne(product, profile, likesTopwear)
		if _, ok := viewed[product.ID]; ok {
			c.RawScore += weightViewed
		}
		applyDislikes(&c, disliked)

		r := s.src.Float64()*2*s.jitter - s.jitter
		c.Score = c.RawScore * (1 + r)
		out[i] = c
	}
	return out
}

func scoreOne(p model.Product, profile Profile, likesTopwear bool) Candidate {
	c := Candidate{Product: p}

	exactType := profile.Categories.Has(p.ArticleType)
	if exactType {
		c.add(weightExactType, fmt.Sprintf("%s: %s", reasonSameType, p.ArticleType))
	}
	if !exactType && likesTopwear && isBottomwear(p) {
		c.add(weightComplementary, reasonComplementary)
	}
	if profile.Colors.Has(p.BaseColour) {
		c.add(weightColor, fmt.Sprintf("%s: %s", reasonPreferredColor, p.BaseColour))
	}
	if profile.MasterCategories.Has(p.MasterCategory) {
		c.add(weightMasterCategory, fmt.Sprintf("%s: %s", reasonSameCategory, p.MasterCategory))
	}
	if profile.SubCategories.Has(p.SubCategory) {
		c.add(weightSubCategory, fmt.Sprintf("%s: %s", reasonSameSubCat, p.SubCategory))
	}
	if profile.Genders.Has(p.Gender) {
		c.add(weightGender, fmt.Sprintf("%s: %s", reasonSameGender, p.Gender))
	}
	if profile.Usages.Has(p.Usage) {
		c.add(weightUsage, fmt.Sprintf("%s: %s", reasonSameUsage, p.Usage))
	}
	if profile.Seasons.Has(p.Season) {
		c.add(weightSeason, fmt.Sprintf("%s: %s", reasonSameSeason, p.Season))
	}

	var matches []string
	for _, word := range Tokenize(p.ProductDisplayName) {
		if profile.Keywords.Has(word) {
			matches = append(matches, word)
		}
	}
	if len(matches) > 0 {
		c.add(weightKeyword*float64(len(matches)), fmt.Sprintf("%s: %s", reasonKeywords, strings.Join(matches, ", ")))
	}
	return c
}

// applyDislikes subtracts penalties for attributes shared with disliked
// products. A penalized type or colour also loses its positive reason.
func applyDislikes(c *Candidate, disliked []model.Product) {
	p := c.Product
	for _, d := range disliked {
		if d.ArticleType == p.ArticleType {
			c.RawScore -= penaltyDislikedType
			c.dropReasons(fmt.Sprintf("%s: %s", reasonSameType, p.ArticleType))
		}
		if d.BaseColour == p.BaseColour {
			c.RawScore -= penaltyDislikedColor
			c.dropReasons(fmt.Sprintf("%s: %s", reasonPreferredColor, p.BaseColour))
		}
		if d.Usage == p.Usage {
			c.RawScore -= penaltyDislikedUsage
		}
	}
}

func (c *Candidate) add(weight float64, reason string) {
	c.RawScore += weight
	c.Reasons = append(c.Reasons, reason)
}

// dropReasons removes every reason containing text.
func (c *Candidate) dropReasons(text string) {
	kept := c.Reasons[:0]
	for _, r := range c.Reasons {
		if !strings.Contains(r, text) {
			kept = append(kept, r)
		}
	}
	c.Reasons = kept
}

func isBottomwear(p model.Product) bool {
	if p.SubCategory == "Bottomwear" {
		return true
	}
	_, ok := bottomwearTypes[p.ArticleType]
	return ok
}
