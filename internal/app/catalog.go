package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/wardrobe/internal/adapters/catalog"
	"github.com/okian/wardrobe/internal/domain/model"
	"github.com/okian/wardrobe/internal/domain/search"
	"github.com/okian/wardrobe/internal/domain/types"
	"github.com/okian/wardrobe/pkg/metrics"
)

// PageLimit normalises a requested page size: non-positive means the default,
// anything above the maximum is capped.
func (s *Service) PageLimit(limit int) int {
	switch {
	case limit <= 0:
		return s.defaultPageLimit
	case limit > s.maxPageLimit:
		return s.maxPageLimit
	default:
		return limit
	}
}

// Products lists the catalog, either whole (all) or one page of it.
func (s *Service) Products(ctx context.Context, page, limit int, all bool) (types.ProductPage, error) {
	products, err := s.catalog.Products(ctx)
	if err != nil {
		return types.ProductPage{}, fmt.Errorf("catalog: %w", err)
	}

	if all {
		return types.ProductPage{
			Products:   products,
			TotalCount: len(products),
			ShowingAll: true,
		}, nil
	}

	items, b := search.Paginate(products, page, s.PageLimit(limit))
	return types.ProductPage{
		Products:    items,
		TotalCount:  len(products),
		TotalPages:  b.TotalPages,
		CurrentPage: b.Page,
	}, nil
}

// Search returns one page of catalog products matching q, best first.
func (s *Service) Search(ctx context.Context, q string, page, limit int) (types.ProductPage, error) {
	products, err := s.catalog.Products(ctx)
	if err != nil {
		return types.ProductPage{}, fmt.Errorf("catalog: %w", err)
	}

	hits, err := search.Search(products, q)
	if err != nil {
		return types.ProductPage{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	items, b := search.Paginate(search.Products(hits), page, s.PageLimit(limit))
	return types.ProductPage{
		Products:    items,
		TotalCount:  len(hits),
		TotalPages:  b.TotalPages,
		CurrentPage: b.Page,
		Query:       q,
	}, nil
}

// Product looks a catalog product up by id.
func (s *Service) Product(ctx context.Context, id string) (model.Product, error) {
	p, err := s.catalog.Get(ctx, id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		return model.Product{}, fmt.Errorf("%w: product %q", ErrNotFound, id)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("product %q: %w", id, err)
	}
	return p, nil
}

// ReloadCatalog re-reads a reloadable catalog and drops every cached
// recommendation, since those may name products that no longer exist.
// A failed reload keeps the previous catalog and the cache.
func (s *Service) ReloadCatalog(ctx context.Context) error {
	r, ok := s.catalog.(catalog.Reloader)
	if !ok {
		s.logger.Debug(ctx, "catalog is not reloadable")
		return nil
	}
	if err := r.Reload(ctx); err != nil {
		return fmt.Errorf("reload catalog: %w", err)
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		metrics.RecordCacheRequest(metrics.CacheError)
		return fmt.Errorf("invalidate cached recommendations: %w", err)
	}
	s.logger.Info(ctx, "catalog reloaded")
	return nil
}
