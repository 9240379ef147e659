package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/wardrobe/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.CatalogPath, convey.ShouldEqual, "data/styles.csv")
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("WARDROBE_ADDR", ":8080")
			_ = os.Setenv("WARDROBE_QUEUE_SIZE", "500")
			_ = os.Setenv("WARDROBE_WORKER_COUNT", "3")
			_ = os.Setenv("WARDROBE_REDIS_ADDR", "localhost:6379")
			_ = os.Setenv("WARDROBE_RECOMMENDATION_LIMIT", "5")
			_ = os.Setenv("WARDROBE_CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.RecommendationLimit, convey.ShouldEqual, 5)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"http://a.test", "http://b.test"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# catalog
catalog_path: "/srv/styles.csv"
images_dir: "/srv/images"
store_driver: postgres
postgres_dsn: "postgres://wardrobe@localhost/wardrobe?sslmode=disable"
log_format: json
metrics_namespace: shop
metrics_latency_buckets: [1, 5, 25]
metrics_const_labels:
  region: eu
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("WARDROBE_CONFIG", tmpFile)
			_ = os.Setenv("WARDROBE_IMAGES_DIR", "/override/images")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env wins over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CatalogPath, convey.ShouldEqual, "/srv/styles.csv")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StorePostgres)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.ImagesDir, convey.ShouldEqual, "/override/images")
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "shop")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "recommender")
				convey.So(cfg.MetricsLatencyBuckets, convey.ShouldResemble, []float64{1, 5, 25})
				convey.So(cfg.MetricsConstLabels, convey.ShouldResemble, map[string]string{"region": "eu"})
			})
		})

		convey.Convey("When the YAML file is malformed", func() {
			tmpFile := createTempConfigFile("addr: [unclosed")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("WARDROBE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("WARDROBE_CONFIG", "/nonexistent/wardrobe.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		ctx := context.Background()

		convey.Convey("When addr is empty", func() {
			_ = os.Setenv("WARDROBE_ADDR", "")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "Addr")
		})

		convey.Convey("When the store driver is unknown", func() {
			_ = os.Setenv("WARDROBE_STORE_DRIVER", "mysql")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "StoreDriver")
		})

		convey.Convey("When postgres is selected without a DSN", func() {
			_ = os.Setenv("WARDROBE_STORE_DRIVER", "postgres")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "PostgresDSN")
		})

		convey.Convey("When the recommendation limit is not positive", func() {
			cfg := config.New()
			cfg.RecommendationLimit = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the recommendation limit exceeds eight", func() {
			_ = os.Setenv("WARDROBE_RECOMMENDATION_LIMIT", "20")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "RecommendationLimit")
		})

		convey.Convey("When the recommendation limit is exactly eight", func() {
			cfg := config.New()
			cfg.RecommendationLimit = 8
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the metrics namespace is not a valid metric name", func() {
			_ = os.Setenv("WARDROBE_METRICS_NAMESPACE", "my-shop")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "MetricsNamespace")
		})

		convey.Convey("When a latency bucket is not positive", func() {
			cfg := config.New()
			cfg.MetricsLatencyBuckets = []float64{0, 5}
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a const label name is invalid", func() {
			cfg := config.New()
			cfg.MetricsConstLabels = map[string]string{"1region": "eu"}
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the default page limit exceeds the maximum", func() {
			cfg := config.New()
			cfg.DefaultPageLimit = cfg.MaxPageLimit + 1
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func clearConfigEnvVars() {
	for _, k := range []string{
		"WARDROBE_CONFIG",
		"WARDROBE_ADDR",
		"WARDROBE_QUEUE_SIZE",
		"WARDROBE_WORKER_COUNT",
		"WARDROBE_REDIS_ADDR",
		"WARDROBE_RECOMMENDATION_LIMIT",
		"WARDROBE_CORS_ALLOWED_ORIGINS",
		"WARDROBE_IMAGES_DIR",
		"WARDROBE_STORE_DRIVER",
		"WARDROBE_METRICS_NAMESPACE",
	} {
		_ = os.Unsetenv(k)
	}
}

func createTempConfigFile(content string) string {
	f, err := os.CreateTemp("", "wardrobe-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	return f.Name()
}
