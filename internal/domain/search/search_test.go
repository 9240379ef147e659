package search_test

import (
	"testing"

	model "github.com/okian/wardrobe/internal/domain/model"
	search "github.com/okian/wardrobe/internal/domain/search"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTerms(t *testing.T) {
	Convey("Given raw queries", t, func() {
		So(search.Terms("  Blue  T SHIRT "), ShouldResemble, []string{"blue", "shirt"})
		So(search.Terms("a b"), ShouldBeEmpty)
	})
}

func TestScore(t *testing.T) {
	Convey("Given a product", t, func() {
		p := model.Product{
			ProductDisplayName: "Puma Men Blue Sports Shoes",
			ArticleType:        "Sports Shoes",
			MasterCategory:     "Footwear",
			SubCategory:        "Shoes",
			BaseColour:         "Blue",
		}

		Convey("When a term is a whole word of the name", func() {
			Convey("Then name, word and colour weights apply", func() {
				So(search.Score(p, []string{"blue"}), ShouldEqual, 5+3+2)
			})
		})

		Convey("When a term is a substring across fields", func() {
			Convey("Then every containing field counts", func() {
				// name 5, articleType 4, subCategory 3
				So(search.Score(p, []string{"shoe"}), ShouldEqual, 12)
			})
		})

		Convey("When nothing matches", func() {
			So(search.Score(p, []string{"dress"}), ShouldEqual, 0)
		})
	})
}

func TestSearch(t *testing.T) {
	Convey("Given a catalog", t, func() {
		catalog := []model.Product{
			{ID: "1", ProductDisplayName: "Red Cotton Shirt", ArticleType: "Shirts", BaseColour: "Red"},
			{ID: "2", ProductDisplayName: "Navy Jeans", ArticleType: "Jeans", BaseColour: "Navy Blue"},
			{ID: "3", ProductDisplayName: "Blue Denim Shirt", ArticleType: "Shirts", BaseColour: "Blue"},
			{ID: "4", ProductDisplayName: "Leather Belt", ArticleType: "Belts", BaseColour: "Brown"},
		}

		Convey("When searching for a colour and type", func() {
			hits, err := search.Search(catalog, "blue shirt")
			So(err, ShouldBeNil)

			Convey("Then the best match comes first and non-matches are dropped", func() {
				So(len(hits), ShouldEqual, 3)
				So(hits[0].Product.ID, ShouldEqual, "3")
				So(hits[1].Product.ID, ShouldEqual, "1")
				So(hits[2].Product.ID, ShouldEqual, "2")
			})
		})

		Convey("When the query is blank", func() {
			_, err := search.Search(catalog, "   ")
			So(err, ShouldEqual, search.ErrEmptyQuery)
		})

		Convey("When the query has only short terms", func() {
			hits, err := search.Search(catalog, "x")
			So(err, ShouldBeNil)
			So(hits, ShouldBeEmpty)
		})
	})
}

func TestPaginate(t *testing.T) {
	Convey("Given twenty five items", t, func() {
		items := make([]int, 25)
		for i := range items {
			items[i] = i
		}

		Convey("Then page two of ten holds items ten to nineteen", func() {
			got, b := search.Paginate(items, 2, 10)
			So(got[0], ShouldEqual, 10)
			So(len(got), ShouldEqual, 10)
			So(b.TotalPages, ShouldEqual, 3)
		})

		Convey("Then the last page is short", func() {
			got, _ := search.Paginate(items, 3, 10)
			So(len(got), ShouldEqual, 5)
		})

		Convey("Then a page past the end is empty", func() {
			got, b := search.Paginate(items, 9, 10)
			So(got, ShouldBeEmpty)
			So(b.Page, ShouldEqual, 9)
		})

		Convey("Then invalid page and limit are clamped", func() {
			got, b := search.Paginate(items, 0, 0)
			So(len(got), ShouldEqual, 1)
			So(b.Page, ShouldEqual, 1)
		})
	})
}
