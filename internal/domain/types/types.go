// Package types contains the response shapes shared by the service and the HTTP layer.
package types

import "github.com/okian/wardrobe/internal/domain/model"

// Recommendation types reported to clients.
const (
	RecommendationPopular      = "popular"
	RecommendationPersonalized = "personalized"
	RecommendationFootwear     = "footwear"
)

// RecommendedProduct is a catalog product plus the reason it was picked.
type RecommendedProduct struct {
	model.Product
	RecommendationReason string `json:"recommendationReason,omitempty"`
}

// BasedOn explains which liked attributes drove a recommendation list.
type BasedOn struct {
	Categories    []string `json:"categories"`
	SubCategories []string `json:"subCategories"`
	Colors        []string `json:"colors"`
	Usages        []string `json:"usages"`
	Genders       []string `json:"genders"`
	Seasons       []string `json:"seasons"`
	Keywords      []string `json:"keywords"`
	Reasons       []string `json:"reasons"`
	FootwearFocus bool     `json:"footwearFocus"`
}

// EmptyBasedOn returns a BasedOn whose arrays encode as [] rather than null.
func EmptyBasedOn() BasedOn {
	return BasedOn{
		Categories:    []string{},
		SubCategories: []string{},
		Colors:        []string{},
		Usages:        []string{},
		Genders:       []string{},
		Seasons:       []string{},
		Keywords:      []string{},
		Reasons:       []string{},
	}
}

// RecommendationResponse is the body of GET /api/recommendations.
type RecommendationResponse struct {
	Success            bool                 `json:"success"`
	Recommendations    []RecommendedProduct `json:"recommendations"`
	RecommendationType string               `json:"recommendationType"`
	Message            string               `json:"message"`
	BasedOn            BasedOn              `json:"basedOn"`
}

// ProductPage is a page of catalog products.
type ProductPage struct {
	Products    []model.Product `json:"products"`
	TotalCount  int             `json:"totalCount"`
	TotalPages  int             `json:"totalPages,omitempty"`
	CurrentPage int             `json:"currentPage,omitempty"`
	ShowingAll  bool            `json:"showingAll"`
	Query       string          `json:"query,omitempty"`
}

// ReviewWithUser decorates a review with the author's username.
type ReviewWithUser struct {
	model.Review
	Username string `json:"username"`
}

// ReviewInput carries the fields of a new review.
type ReviewInput struct {
	ProductID  string
	Rating     int
	ReviewText *string
	Title      *string
}
