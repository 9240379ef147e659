package model_test

import (
	"testing"

	model "github.com/okian/wardrobe/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestIsFootwear(t *testing.T) {
	convey.Convey("Given catalog products", t, func() {
		convey.Convey("When the master category is Footwear", func() {
			convey.So(model.IsFootwear(model.Product{MasterCategory: "Footwear", ArticleType: "Sandals"}), convey.ShouldBeTrue)
		})

		convey.Convey("When the sub category is Shoes", func() {
			convey.So(model.IsFootwear(model.Product{MasterCategory: "Apparel", SubCategory: "Shoes"}), convey.ShouldBeTrue)
		})

		convey.Convey("When the article type contains Shoe", func() {
			convey.So(model.IsFootwear(model.Product{ArticleType: "Casual Shoes"}), convey.ShouldBeTrue)
			convey.So(model.IsFootwear(model.Product{MasterCategory: "Accessories", ArticleType: "Shoe Laces"}), convey.ShouldBeTrue)
		})

		convey.Convey("When nothing matches", func() {
			convey.So(model.IsFootwear(model.Product{MasterCategory: "Apparel", SubCategory: "Topwear", ArticleType: "Shirts"}), convey.ShouldBeFalse)
			convey.So(model.IsFootwear(model.Product{ArticleType: "shoes"}), convey.ShouldBeFalse)
		})
	})
}

func TestInteractionType(t *testing.T) {
	convey.Convey("Given interaction type strings", t, func() {
		convey.Convey("When parsing valid types", func() {
			for _, s := range []string{"like", "dislike", "view"} {
				it, err := model.ParseInteractionType(s)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(it), convey.ShouldEqual, s)
			}
		})

		convey.Convey("When parsing an invalid type", func() {
			_, err := model.ParseInteractionType("share")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When asking for the opposite type", func() {
			opp, ok := model.InteractionLike.Opposite()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(opp, convey.ShouldEqual, model.InteractionDislike)

			opp, ok = model.InteractionDislike.Opposite()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(opp, convey.ShouldEqual, model.InteractionLike)

			_, ok = model.InteractionView.Opposite()
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestHistoryEmpty(t *testing.T) {
	convey.Convey("Given interaction histories", t, func() {
		convey.So(model.History{}.Empty(), convey.ShouldBeTrue)
		convey.So(model.History{Viewed: []string{"1"}}.Empty(), convey.ShouldBeFalse)
		convey.So(model.History{Disliked: []string{"1"}}.Empty(), convey.ShouldBeFalse)
	})
}

func TestProductRatingApply(t *testing.T) {
	convey.Convey("Given an empty rating summary", t, func() {
		r := &model.ProductRating{ProductID: "1163"}

		convey.Convey("When two reviews are added", func() {
			r.Apply(0, 5)
			r.Apply(0, 4)

			convey.So(r.TotalRatings, convey.ShouldEqual, 2)
			convey.So(r.FiveStarCount, convey.ShouldEqual, 1)
			convey.So(r.FourStarCount, convey.ShouldEqual, 1)
			convey.So(r.AverageRating, convey.ShouldEqual, 4.5)

			convey.Convey("And one is changed from 4 to 1", func() {
				r.Apply(4, 1)

				convey.So(r.TotalRatings, convey.ShouldEqual, 2)
				convey.So(r.FourStarCount, convey.ShouldEqual, 0)
				convey.So(r.OneStarCount, convey.ShouldEqual, 1)
				convey.So(r.AverageRating, convey.ShouldEqual, 3.0)
			})

			convey.Convey("And one is removed", func() {
				r.Apply(5, 0)

				convey.So(r.TotalRatings, convey.ShouldEqual, 1)
				convey.So(r.FiveStarCount, convey.ShouldEqual, 0)
				convey.So(r.AverageRating, convey.ShouldEqual, 4.0)
			})
		})

		convey.Convey("When the last review is removed", func() {
			r.Apply(0, 3)
			r.Apply(3, 0)

			convey.So(r.TotalRatings, convey.ShouldEqual, 0)
			convey.So(r.AverageRating, convey.ShouldEqual, 0.0)
		})

		convey.Convey("When averages need rounding", func() {
			r.Apply(0, 5)
			r.Apply(0, 5)
			r.Apply(0, 4)

			convey.So(r.AverageRating, convey.ShouldEqual, 4.67)
		})
	})
}

func TestValidateRating(t *testing.T) {
	convey.Convey("Given star ratings", t, func() {
		convey.So(model.ValidateRating(1), convey.ShouldBeNil)
		convey.So(model.ValidateRating(5), convey.ShouldBeNil)
		convey.So(model.ValidateRating(0), convey.ShouldEqual, model.ErrInvalidRating)
		convey.So(model.ValidateRating(6), convey.ShouldEqual, model.ErrInvalidRating)
	})
}

func TestGroupHistory(t *testing.T) {
	convey.Convey("Given mixed interactions", t, func() {
		h := model.GroupHistory([]model.Interaction{
			{ProductID: "1", Type: model.InteractionLike},
			{ProductID: "2", Type: model.InteractionView},
			{ProductID: "3", Type: model.InteractionDislike},
			{ProductID: "4", Type: model.InteractionLike},
		})

		convey.So(h.Liked, convey.ShouldResemble, []string{"1", "4"})
		convey.So(h.Disliked, convey.ShouldResemble, []string{"3"})
		convey.So(h.Viewed, convey.ShouldResemble, []string{"2"})
		convey.So(h.Empty(), convey.ShouldBeFalse)
	})

	convey.Convey("Given no interactions", t, func() {
		convey.So(model.GroupHistory(nil).Empty(), convey.ShouldBeTrue)
	})
}
