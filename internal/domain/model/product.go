// Package model contains domain models passed between layers.
package model

import "strings"

// Product is one read-only catalog entry.
// JSON names mirror the catalog's column headers.
type Product struct {
	ID                 string `json:"id"`
	Gender             string `json:"gender"`
	MasterCategory     string `json:"masterCategory"`
	SubCategory        string `json:"subCategory"`
	ArticleType        string `json:"articleType"`
	BaseColour         string `json:"baseColour"`
	Season             string `json:"season"`
	Year               string `json:"year"`
	Usage              string `json:"usage"`
	ProductDisplayName string `json:"productDisplayName"`
	ImageURL           string `json:"imageUrl"`
}

// IsFootwear reports whether p counts as footwear.
// The "Shoe" substring test is kept as-is; it also matches types such as "Shoe Laces".
func IsFootwear(p Product) bool {
	return p.MasterCategory == "Footwear" ||
		p.SubCategory == "Shoes" ||
		strings.Contains(p.ArticleType, "Shoe")
}
