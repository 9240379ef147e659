package model

import (
	"errors"
	"math"
	"time"
)

// Rating bounds for reviews.
const (
	MinRating = 1
	MaxRating = 5
)

// ErrInvalidRating is returned for ratings outside [MinRating, MaxRating].
var ErrInvalidRating = errors.New("rating must be a number between 1 and 5")

// ValidateRating checks that r is a star rating.
func ValidateRating(r int) error {
	if r < MinRating || r > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// Review is a user's rating of a product. One review exists per (user, product).
type Review struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	ProductID  string    `json:"productId"`
	Rating     int       `json:"rating"`
	ReviewText *string   `json:"reviewText"`
	Title      *string   `json:"title"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ReviewUpdate carries the optional fields of a partial review update.
type ReviewUpdate struct {
	Rating     *int
	ReviewText *string
	Title      *string
}

// ProductRating is the aggregated star distribution for one product.
type ProductRating struct {
	ProductID      string    `json:"productId"`
	AverageRating  float64   `json:"averageRating"`
	TotalRatings   int       `json:"totalRatings"`
	FiveStarCount  int       `json:"fiveStarCount"`
	FourStarCount  int       `json:"fourStarCount"`
	ThreeStarCount int       `json:"threeStarCount"`
	TwoStarCount   int       `json:"twoStarCount"`
	OneStarCount   int       `json:"oneStarCount"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Apply moves one review from oldRating to newRating.
// oldRating == 0 adds a review, newRating == 0 removes one.
func (r *ProductRating) Apply(oldRating, newRating int) {
	if oldRating != 0 {
		r.adjust(oldRating, -1)
		if newRating == 0 {
			r.TotalRatings--
		}
	} else if newRating > 0 {
		r.TotalRatings++
	}
	if newRating > 0 {
		r.adjust(newRating, 1)
	}
	r.recompute()
}

func (r *ProductRating) adjust(stars, delta int) {
	switch stars {
	case 5:
		r.FiveStarCount += delta
	case 4:
		r.FourStarCount += delta
	case 3:
		r.ThreeStarCount += delta
	case 2:
		r.TwoStarCount += delta
	case 1:
		r.OneStarCount += delta
	}
}

func (r *ProductRating) recompute() {
	if r.TotalRatings <= 0 {
		r.AverageRating = 0
		return
	}
	total := 5*r.FiveStarCount + 4*r.FourStarCount + 3*r.ThreeStarCount + 2*r.TwoStarCount + r.OneStarCount
	avg := float64(total) / float64(r.TotalRatings)
	r.AverageRating = math.Round(avg*100) / 100
}
