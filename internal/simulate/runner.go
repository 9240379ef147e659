package simulate

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okian/wardrobe/internal/domain/model"
	"github.com/okian/wardrobe/pkg/logger"
)

// ErrEmptyCatalog is returned when the server has no products to interact with.
var ErrEmptyCatalog = errors.New("server catalog is empty")

// Run executes a simulation against a running server and returns its stats.
// Invariant violations are reported in the stats, not as an error.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	normalize(cfg)
	if log == nil {
		log = logger.Nop()
	}

	stats := &Stats{
		RunID:     uuid.NewString(),
		Users:     len(cfg.Users),
		StartTime: time.Now(),
	}
	log.Info(ctx, "starting simulation",
		logger.String("runId", stats.RunID),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("users", len(cfg.Users)),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers))

	c := newClient(cfg)
	if err := c.do(ctx, http.MethodGet, cfg.HealthEndpoint, "", nil, nil, http.StatusOK); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	var all allProductsResponse
	if err := c.do(ctx, http.MethodGet, "/api/merged-products?all=true", "", nil, &all, http.StatusOK); err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if len(all.Products) == 0 {
		return nil, ErrEmptyCatalog
	}
	cat := newCatalogIndex(all.Products)

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		users = make(chan int, len(cfg.Users))
	)
	for i := range cfg.Users {
		users <- i
	}
	close(users)

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range users {
				if ctx.Err() != nil {
					return
				}
				u := &userSim{
					cfg:      cfg,
					client:   c,
					catalog:  cat,
					stats:    stats,
					user:     cfg.Users[i],
					rng:      rand.New(rand.NewPCG(cfg.Seed, uint64(i))),
					footwear: float64(i)/float64(len(cfg.Users)) < cfg.FootwearShare,
					liked:    map[string]bool{},
					disliked: map[string]bool{},
					log:      log,
				}
				v := u.run(ctx)
				if len(v) == 0 {
					continue
				}
				mu.Lock()
				stats.Violations = append(stats.Violations, v...)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	log.Info(ctx, "simulation finished",
		logger.String("runId", stats.RunID),
		logger.Int64("interactionsSent", stats.InteractionsSent),
		logger.Int64("interactionsFailed", stats.InteractionsFailed),
		logger.Int64("recommendationCalls", stats.RecommendationCalls),
		logger.Int64("recommendationFailed", stats.RecommendationFailed),
		logger.Int64("footwearResponses", stats.FootwearResponses),
		logger.Int("violations", len(stats.Violations)),
		logger.Duration("duration", stats.Duration))

	if cfg.ReportFile != "" {
		if err := SaveReport(cfg.ReportFile, stats); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}
	return stats, ctx.Err()
}

func normalize(cfg *Config) {
	if len(cfg.Users) == 0 {
		cfg.Users = []string{""}
	}
	if cfg.Rounds <= 0 {
		cfg.Rounds = DefaultRounds
	}
	if cfg.LikesPerRound <= 0 {
		cfg.LikesPerRound = DefaultLikesPerRound
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HealthEndpoint == "" {
		cfg.HealthEndpoint = DefaultHealthPath
	}
	if cfg.Workers <= 0 || cfg.Workers > len(cfg.Users) {
		cfg.Workers = len(cfg.Users)
	}
}

// catalogIndex is the client's view of the server catalog.
type catalogIndex struct {
	byID     map[string]model.Product
	all      []model.Product
	footwear []model.Product
}

func newCatalogIndex(products []model.Product) *catalogIndex {
	idx := &catalogIndex{byID: make(map[string]model.Product, len(products)), all: products}
	for _, p := range products {
		idx.byID[p.ID] = p
		if model.IsFootwear(p) {
			idx.footwear = append(idx.footwear, p)
		}
	}
	return idx
}

// userSim drives one user through its rounds. Each user is run by a single
// goroutine so its liked and disliked sets track the server exactly.
type userSim struct {
	cfg      *Config
	client   *client
	catalog  *catalogIndex
	stats    *Stats
	user     string
	rng      *rand.Rand
	footwear bool
	liked    map[string]bool
	disliked map[string]bool
	log      logger.Logger
}

func (u *userSim) run(ctx context.Context) []Violation {
	var out []Violation
	for round := 1; round <= u.cfg.Rounds; round++ {
		if ctx.Err() != nil {
			return out
		}
		for i := 0; i < u.cfg.LikesPerRound; i++ {
			u.interact(ctx, u.pick(u.footwear).ID, model.InteractionLike)
		}
		u.interact(ctx, u.pick(false).ID, model.InteractionDislike)

		// forceRefresh reads past any cached list the invalidation queue has
		// not dropped yet; the second call is then served from the cache.
		for _, path := range []string{"/api/recommendations?forceRefresh=true", "/api/recommendations"} {
			var resp recommendationResponse
			atomic.AddInt64(&u.stats.RecommendationCalls, 1)
			if err := u.client.do(ctx, http.MethodGet, path, u.user, nil, &resp, http.StatusOK); err != nil {
				atomic.AddInt64(&u.stats.RecommendationFailed, 1)
				u.log.Warn(ctx, "recommendation request failed", logger.String("user", u.user), logger.Error(err))
				continue
			}
			if resp.BasedOn.FootwearFocus {
				atomic.AddInt64(&u.stats.FootwearResponses, 1)
			}
			v := Verify(u.user, round, recommended(resp), Expectation{
				Liked:    u.liked,
				Disliked: u.disliked,
				Catalog:  u.catalog.byID,
				Limit:    u.cfg.Limit,
			})
			if u.cfg.Verbose {
				for _, x := range v {
					u.log.Warn(ctx, "invariant violated",
						logger.String("user", x.User),
						logger.Int("round", x.Round),
						logger.String("check", x.Check),
						logger.String("detail", x.Detail))
				}
			}
			out = append(out, v...)
		}
	}
	return out
}

// pick returns a random product, from the footwear subset when asked and available.
func (u *userSim) pick(footwear bool) model.Product {
	pool := u.catalog.all
	if footwear && len(u.catalog.footwear) > 0 {
		pool = u.catalog.footwear
	}
	return pool[u.rng.IntN(len(pool))]
}

// interact records an interaction and mirrors the server's like/dislike exclusion.
func (u *userSim) interact(ctx context.Context, productID string, t model.InteractionType) {
	atomic.AddInt64(&u.stats.InteractionsSent, 1)
	req := interactionRequest{ProductID: productID, InteractionType: string(t)}
	if err := u.client.do(ctx, http.MethodPost, "/api/interactions", u.user, req, nil, http.StatusCreated); err != nil {
		atomic.AddInt64(&u.stats.InteractionsFailed, 1)
		u.log.Warn(ctx, "interaction failed", logger.String("user", u.user), logger.Error(err))
		return
	}
	switch t {
	case model.InteractionLike:
		u.liked[productID] = true
		delete(u.disliked, productID)
	case model.InteractionDislike:
		u.disliked[productID] = true
		delete(u.liked, productID)
	}
}

func recommended(resp recommendationResponse) []model.Product {
	out := make([]model.Product, len(resp.Recommendations))
	for i, r := range resp.Recommendations {
		out[i] = r.Product
	}
	return out
}

// SaveReport writes stats as indented JSON to filename.
func SaveReport(filename string, stats *Stats) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, reportFilePermission); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
