package simulate

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/wardrobe/internal/adapters/cache"
	"github.com/okian/wardrobe/internal/adapters/catalog"
	"github.com/okian/wardrobe/internal/adapters/http/api"
	"github.com/okian/wardrobe/internal/adapters/repository"
	service "github.com/okian/wardrobe/internal/app"
	"github.com/okian/wardrobe/internal/domain/model"
	"github.com/okian/wardrobe/internal/domain/recommend"
)

func wardrobe() []model.Product {
	return []model.Product{
		{ID: "1", Gender: "Men", MasterCategory: "Apparel", SubCategory: "Topwear", ArticleType: "Shirts", BaseColour: "Blue", Usage: "Casual", ProductDisplayName: "Blue Casual Shirt"},
		{ID: "2", Gender: "Men", MasterCategory: "Apparel", SubCategory: "Topwear", ArticleType: "Tshirts", BaseColour: "Red", Usage: "Sports", ProductDisplayName: "Red Sports Tshirt"},
		{ID: "3", Gender: "Women", MasterCategory: "Apparel", SubCategory: "Dress", ArticleType: "Dresses", BaseColour: "Black", Usage: "Party", ProductDisplayName: "Black Party Dress"},
		{ID: "4", Gender: "Men", MasterCategory: "Apparel", SubCategory: "Bottomwear", ArticleType: "Jeans", BaseColour: "Blue", Usage: "Casual", ProductDisplayName: "Blue Slim Jeans"},
		{ID: "5", Gender: "Women", MasterCategory: "Accessories", SubCategory: "Bags", ArticleType: "Handbags", BaseColour: "Brown", Usage: "Casual", ProductDisplayName: "Brown Leather Handbag"},
		{ID: "6", Gender: "Men", MasterCategory: "Footwear", SubCategory: "Shoes", ArticleType: "Casual Shoes", BaseColour: "White", Usage: "Casual", ProductDisplayName: "White Canvas Shoes"},
		{ID: "7", Gender: "Men", MasterCategory: "Footwear", SubCategory: "Shoes", ArticleType: "Sports Shoes", BaseColour: "Black", Usage: "Sports", ProductDisplayName: "Black Running Shoes"},
		{ID: "8", Gender: "Women", MasterCategory: "Footwear", SubCategory: "Shoes", ArticleType: "Heels", BaseColour: "Red", Usage: "Party", ProductDisplayName: "Red Party Heels"},
		{ID: "9", Gender: "Women", MasterCategory: "Footwear", SubCategory: "Flip Flops", ArticleType: "Flip Flops", BaseColour: "Blue", Usage: "Casual", ProductDisplayName: "Blue Beach Flip Flops"},
		{ID: "10", Gender: "Men", MasterCategory: "Footwear", SubCategory: "Sandal", ArticleType: "Sandals", BaseColour: "Brown", Usage: "Casual", ProductDisplayName: "Brown Leather Sandals"},
		{ID: "11", Gender: "Unisex", MasterCategory: "Accessories", SubCategory: "Watches", ArticleType: "Watches", BaseColour: "Silver", Usage: "Formal", ProductDisplayName: "Silver Formal Watch"},
		{ID: "12", Gender: "Men", MasterCategory: "Apparel", SubCategory: "Topwear", ArticleType: "Jackets", BaseColour: "Grey", Usage: "Casual", ProductDisplayName: "Grey Bomber Jacket"},
	}
}

func index(products []model.Product) map[string]model.Product {
	m := make(map[string]model.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}

func ids(products []model.Product, want ...string) []model.Product {
	byID := index(products)
	out := make([]model.Product, 0, len(want))
	for _, id := range want {
		out = append(out, byID[id])
	}
	return out
}

func TestVerify(t *testing.T) {
	Convey("Given a catalog and a user with footwear likes", t, func() {
		products := wardrobe()
		exp := Expectation{
			Liked:    map[string]bool{"6": true, "7": true, "1": true},
			Disliked: map[string]bool{"8": true},
			Catalog:  index(products),
			Limit:    8,
		}

		Convey("Then the expectation is in footwear focus", func() {
			So(exp.FootwearFocus(), ShouldBeTrue)
		})

		Convey("When the response holds only unseen footwear", func() {
			v := Verify("u", 1, ids(products, "9", "10"), exp)

			Convey("Then nothing is reported", func() {
				So(v, ShouldBeEmpty)
			})
		})

		Convey("When the response recommends a liked and a disliked product", func() {
			v := Verify("u", 2, ids(products, "6", "8"), exp)

			Convey("Then both exclusion violations are reported", func() {
				So(len(v), ShouldEqual, 2)
				So(v[0].Check, ShouldEqual, CheckExclusion)
				So(v[1].Check, ShouldEqual, CheckExclusion)
				So(v[0].Round, ShouldEqual, 2)
			})
		})

		Convey("When the response contains apparel", func() {
			v := Verify("u", 1, ids(products, "9", "2"), exp)

			Convey("Then a footwear focus violation is reported", func() {
				So(len(v), ShouldEqual, 1)
				So(v[0].Check, ShouldEqual, CheckFootwear)
			})
		})

		Convey("When the response is longer than the candidate pool", func() {
			v := Verify("u", 1, ids(products, "9", "10", "9"), exp)

			Convey("Then a cardinality violation is reported", func() {
				So(len(v), ShouldEqual, 1)
				So(v[0].Check, ShouldEqual, CheckCardinality)
			})
		})
	})

	Convey("Given a user whose likes are mostly apparel", t, func() {
		exp := Expectation{
			Liked:   map[string]bool{"1": true, "2": true, "6": true},
			Catalog: index(wardrobe()),
			Limit:   2,
		}

		Convey("Then there is no footwear focus", func() {
			So(exp.FootwearFocus(), ShouldBeFalse)
		})

		Convey("Then exceeding the limit is a cardinality violation", func() {
			v := Verify("u", 1, ids(wardrobe(), "3", "4", "5"), exp)
			So(len(v), ShouldEqual, 1)
			So(v[0].Check, ShouldEqual, CheckCardinality)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running server with two registered users", t, func() {
		ctx := context.Background()
		mr := miniredis.RunT(t)
		store := repository.NewMemoryStore()
		alice, err := store.EnsureUser(ctx, "alice", "alice@example.com")
		So(err, ShouldBeNil)
		bob, err := store.EnsureUser(ctx, "bob", "bob@example.com")
		So(err, ShouldBeNil)

		svc := service.New(catalog.NewStatic(wardrobe()), store,
			service.WithCache(cache.NewRedis(cache.Config{Addr: mr.Addr()})),
			service.WithEngine(recommend.NewEngine(recommend.WithRandomSource(recommend.NewSeededSource(3)))),
			service.WithWorkerCount(2),
		)
		So(svc.Start(ctx), ShouldBeNil)
		srv := httptest.NewServer(api.NewServer(svc, api.WithRateLimit(0)).Handler(ctx))
		Reset(func() {
			srv.Close()
			_ = svc.Stop(ctx)
		})

		report := filepath.Join(t.TempDir(), "out", "report.json")
		cfg := &Config{
			BaseURL:       srv.URL,
			Users:         []string{strconv.FormatInt(alice.ID, 10), strconv.FormatInt(bob.ID, 10)},
			Rounds:        3,
			LikesPerRound: 2,
			FootwearShare: 0.5,
			Workers:       2,
			Seed:          11,
			ReportFile:    report,
		}

		Convey("When the simulation runs", func() {
			stats, err := Run(ctx, cfg, nil)

			Convey("Then every request succeeds and no invariant breaks", func() {
				So(err, ShouldBeNil)
				So(stats.Users, ShouldEqual, 2)
				So(stats.InteractionsSent, ShouldEqual, 2*3*3)
				So(stats.InteractionsFailed, ShouldEqual, 0)
				So(stats.RecommendationCalls, ShouldEqual, 2*3*2)
				So(stats.RecommendationFailed, ShouldEqual, 0)
				So(stats.Violations, ShouldBeEmpty)
				So(stats.RunID, ShouldNotBeEmpty)
			})

			Convey("Then the report is written", func() {
				data, err := os.ReadFile(report)
				So(err, ShouldBeNil)
				var saved Stats
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(saved.RunID, ShouldEqual, stats.RunID)
			})
		})
	})

	Convey("Given a server with an empty catalog", t, func() {
		ctx := context.Background()
		svc := service.New(catalog.NewStatic(nil), repository.NewMemoryStore())
		srv := httptest.NewServer(api.NewServer(svc, api.WithRateLimit(0)).Handler(ctx))
		Reset(srv.Close)

		Convey("Then the run refuses to start", func() {
			_, err := Run(ctx, &Config{BaseURL: srv.URL}, nil)
			So(err, ShouldEqual, ErrEmptyCatalog)
		})
	})
}
