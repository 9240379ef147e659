package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/wardrobe/internal/adapters/cache"
	"github.com/okian/wardrobe/internal/config"
	"github.com/okian/wardrobe/pkg/logger"
	"github.com/okian/wardrobe/pkg/metrics"
)

const stylesCSV = "id,gender,masterCategory,subCategory,articleType,baseColour,season,year,usage,productDisplayName\n" +
	"15970,Men,Apparel,Topwear,Shirts,Navy Blue,Fall,2011,Casual,Turtle Check Men Navy Blue Shirt\n" +
	"39386,Men,Apparel,Bottomwear,Jeans,Blue,Summer,2012,Casual,Peter England Men Party Blue Jeans\n"

func TestBuild(t *testing.T) {
	convey.Convey("Given a config with a catalog on disk", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		path := filepath.Join(dir, "styles.csv")
		convey.So(os.WriteFile(path, []byte(stylesCSV), 0o600), convey.ShouldBeNil)

		cfg := config.New()
		cfg.CatalogPath = path
		cfg.ImagesDir = dir
		cfg.WorkerCount = 1

		convey.Convey("When built without redis", func() {
			comps, err := build(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the catalog is loaded and the cache is a no-op", func() {
				products, err := comps.service.Products(ctx, 1, 10, true)
				convey.So(err, convey.ShouldBeNil)
				convey.So(products.TotalCount, convey.ShouldEqual, 2)
				_, isNoop := comps.cache.(cache.Noop)
				convey.So(isNoop, convey.ShouldBeTrue)
			})

			convey.Convey("Then the service starts and stops", func() {
				convey.So(comps.service.Start(ctx), convey.ShouldBeNil)
				convey.So(comps.service.Stop(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When built with a reachable redis", func() {
			mr := miniredis.RunT(t)
			cfg.RedisAddr = mr.Addr()
			comps, err := build(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the redis cache is used", func() {
				_, isRedis := comps.cache.(*cache.Redis)
				convey.So(isRedis, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the catalog file is missing", func() {
			cfg.CatalogPath = filepath.Join(dir, "missing.csv")
			comps, err := build(ctx, cfg, logger.Nop())

			convey.Convey("Then the service still builds with an empty catalog", func() {
				convey.So(err, convey.ShouldBeNil)
				page, err := comps.service.Products(ctx, 1, 10, false)
				convey.So(err, convey.ShouldBeNil)
				convey.So(page.TotalCount, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the store driver is unknown", func() {
			cfg.StoreDriver = "cassandra"
			_, err := build(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestMetricsOptions(t *testing.T) {
	convey.Convey("Given metrics settings in the config", t, func() {
		cfg := config.New()
		cfg.MetricsNamespace = "shop"
		cfg.MetricsSubsystem = "recs"
		cfg.MetricsConstLabels = map[string]string{"region": "eu"}

		convey.Convey("When the global metrics are configured from it", func() {
			metrics.Configure(metricsOptions(cfg)...)
			defer metrics.Configure()
			metrics.UpdateCatalogProducts(7)

			convey.Convey("Then exported names carry the configured prefix", func() {
				families, err := metrics.GetRegistry().Gather()
				convey.So(err, convey.ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				convey.So(names, convey.ShouldContain, "shop_recs_catalog_products")
			})
		})
	})
}
