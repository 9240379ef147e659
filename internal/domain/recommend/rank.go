package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/wardrobe/internal/domain/types"
)

// Explanation defaults.
const (
	fallbackReason     = "You might like this"
	maxMessageReasons  = 3
	footwearMessage    = "Footwear recommendations based on your shoe preferences"
	personalizedPrefix = "Recommendations based on "
	genericMessage     = "Personalized recommendations for you"
)

// Rank sorts candidates by jittered score, highest first, and keeps at most limit.
// The input slice is reordered in place.
func Rank(candidates []Candidate, limit int) []Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if limit >= 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// Explanation is the client-facing rendering of a ranked list.
type Explanation struct {
	Recommendations    []types.RecommendedProduct
	RecommendationType string
	Message            string
	BasedOn            types.BasedOn
}

// Explain turns ranked candidates into products with a single display reason,
// a summary message and the basedOn metadata.
func Explain(top []Candidate, profile Profile) Explanation {
	recs := make([]types.RecommendedProduct, len(top))
	var all []string
	for i, c := range top {
		reason := fallbackReason
		if len(c.Reasons) > 0 {
			reason = c.Reasons[0]
		}
		recs[i] = types.RecommendedProduct{Product: c.Product, RecommendationReason: reason}
		all = append(all, c.Reasons...)
	}

	buckets := ReasonBuckets(all)

	kind := types.RecommendationPersonalized
	var msg string
	switch {
	case profile.FocusOnFootwear:
		msg = footwearMessage
		kind = types.RecommendationFootwear
	case len(buckets) > 0:
		n := min(len(buckets), maxMessageReasons)
		msg = personalizedPrefix + strings.Join(buckets[:n], ", ")
		if len(buckets) > maxMessageReasons {
			msg += " and more"
		}
	default:
		msg = genericMessage
	}
	if profile.LikedCount > 0 && !profile.FocusOnFootwear {
		msg += fmt.Sprintf(" from your %d liked items", profile.LikedCount)
	}

	return Explanation{
		Recommendations:    recs,
		RecommendationType: kind,
		Message:            msg,
		BasedOn: types.BasedOn{
			Categories:    profile.Categories.Values(),
			SubCategories: profile.SubCategories.Values(),
			Colors:        profile.Colors.Values(),
			Usages:        profile.Usages.Values(),
			Genders:       profile.Genders.Values(),
			Seasons:       profile.Seasons.Values(),
			Keywords:      profile.Keywords.Values(),
			Reasons:       buckets,
			FootwearFocus: profile.FocusOnFootwear,
		},
	}
}

// ReasonBuckets groups reasons by the text before their first colon and
// returns bucket names by descending frequency. Equal counts keep first-seen order.
func ReasonBuckets(reasons []string) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, r := range reasons {
		bucket, _, _ := strings.Cut(r, ":")
		bucket = strings.TrimSpace(bucket)
		if _, ok := counts[bucket]; !ok {
			order = append(order, bucket)
		}
		counts[bucket]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}
