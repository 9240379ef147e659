// Package catalog loads the product catalog and serves immutable snapshots of it.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/okian/wardrobe/internal/domain/model"
	"github.com/okian/wardrobe/pkg/logger"
	"github.com/okian/wardrobe/pkg/metrics"
)

// Provider serves the current catalog.
type Provider interface {
	Products(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, id string) (model.Product, error)
}

// Reloader is a Provider whose source can be re-read at runtime.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Snapshot is an immutable view of the catalog. Callers must not modify Products.
type Snapshot struct {
	Products []model.Product
	byID     map[string]int
	LoadedAt time.Time
}

func newSnapshot(products []model.Product) *Snapshot {
	s := &Snapshot{Products: products, byID: make(map[string]int, len(products)), LoadedAt: time.Now()}
	for i, p := range products {
		if _, dup := s.byID[p.ID]; !dup {
			s.byID[p.ID] = i
		}
	}
	return s
}

func (s *Snapshot) get(id string) (model.Product, error) {
	i, ok := s.byID[id]
	if !ok {
		return model.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return s.Products[i], nil
}

// CSVProvider reads the catalog from a styles CSV and an image directory.
// Reload swaps the snapshot atomically; readers never block.
type CSVProvider struct {
	path          string
	imagesDir     string
	fallbackImage string
	log           logger.Logger

	snapshot atomic.Pointer[Snapshot]
}

// NewCSVProvider creates a provider with an empty snapshot. Call Reload to load it.
func NewCSVProvider(path string, opts ...Option) *CSVProvider {
	p := &CSVProvider{path: path, log: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	p.snapshot.Store(newSnapshot(nil))
	return p
}

// Reload parses the CSV, resolves image URLs and publishes the result.
// On failure the previous snapshot stays in place.
func (p *CSVProvider) Reload(ctx context.Context) error {
	start := time.Now()

	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCatalogLoad, err)
	}
	defer func() { _ = f.Close() }()

	products, err := ParseStyles(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCatalogLoad, p.path, err)
	}

	images, err := scanImages(p.imagesDir, p.fallbackImage)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCatalogLoad, err)
	}
	for i := range products {
		products[i].ImageURL = images.url(products[i].ID)
	}
	if images.fallback == "" {
		p.log.Warn(ctx, "no fallback image available", logger.String("images_dir", p.imagesDir))
	}

	p.snapshot.Store(newSnapshot(products))

	elapsed := time.Since(start)
	metrics.UpdateCatalogProducts(len(products))
	metrics.RecordCatalogLoadDuration(float64(elapsed.Microseconds()) / 1000)
	p.log.Info(ctx, "catalog loaded",
		logger.Int("products", len(products)),
		logger.Int("images", len(images.ids)),
		logger.Duration("took", elapsed))
	return nil
}

// Snapshot returns the current snapshot.
func (p *CSVProvider) Snapshot() *Snapshot { return p.snapshot.Load() }

// Products returns the current catalog.
func (p *CSVProvider) Products(_ context.Context) ([]model.Product, error) {
	return p.snapshot.Load().Products, nil
}

// Get looks up a product by id.
func (p *CSVProvider) Get(_ context.Context, id string) (model.Product, error) {
	return p.snapshot.Load().get(id)
}

// Static serves a fixed product list.
type Static struct {
	snap *Snapshot
}

// NewStatic wraps products in a Provider.
func NewStatic(products []model.Product) *Static {
	return &Static{snap: newSnapshot(products)}
}

// Products returns the fixed catalog.
func (s *Static) Products(_ context.Context) ([]model.Product, error) {
	return s.snap.Products, nil
}

// Get looks up a product by id.
func (s *Static) Get(_ context.Context, id string) (model.Product, error) {
	return s.snap.get(id)
}
