package recommend

import "github.com/okian/wardrobe/internal/domain/model"

// FilterCandidates drops liked and disliked products and, when focusOnFootwear
// is set, every product that is not footwear. A product must pass all rules.
func FilterCandidates(catalog []model.Product, likedIDs, dislikedIDs []string, focusOnFootwear bool) []model.Product {
	liked := idSet(likedIDs)
	disliked := idSet(dislikedIDs)

	out := make([]model.Product, 0, len(catalog))
	for _, p := range catalog {
		if _, ok := liked[p.ID]; ok {
			continue
		}
		if _, ok := disliked[p.ID]; ok {
			continue
		}
		if focusOnFootwear && !model.IsFootwear(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}
