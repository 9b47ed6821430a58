package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopscout/catalog-api/internal/cache"
	"github.com/shopscout/catalog-api/internal/models"
	"github.com/shopscout/catalog-api/internal/repository"
	"github.com/shopscout/catalog-api/internal/utils"
)

// ListResult is one page of catalog products. It is also the value serialized
// into the listing cache.
type ListResult struct {
	Products   []models.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

// CatalogService provides catalog read and delete operations with optional
// read-through caching for listings.
type CatalogService struct {
	products   ProductStore
	searches   SearchLogStore
	cache      cache.Cache
	listingTTL time.Duration
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(products ProductStore, searches SearchLogStore, c cache.Cache, listingTTL time.Duration) *CatalogService {
	return &CatalogService{products: products, searches: searches, cache: c, listingTTL: listingTTL}
}

// List returns a page of products matching the filter. The second return
// value reports whether the result came from the cache. Listing entries are
// cached under a deterministic fingerprint of the query parameters and expire
// by TTL only; writes do not invalidate them.
func (s *CatalogService) List(ctx context.Context, f repository.ListFilter) (*ListResult, bool, error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)
	if f.SortBy == "" {
		f.SortBy = "scrapedAt"
	}
	if f.Order == "" {
		f.Order = "desc"
	}

	key := cache.ListingKey(f.Site, f.SearchQuery, f.Page, f.Limit, f.SortBy, f.Order)
	if data, ok := s.cache.Get(ctx, key); ok {
		var cached ListResult
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, true, nil
		}
	}

	products, total, err := s.products.Find(ctx, f)
	if err != nil {
		return nil, false, fmt.Errorf("find products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	result := &ListResult{
		Products:   products,
		Pagination: newPagination(total, f.Page, f.Limit),
	}

	if data, err := json.Marshal(result); err == nil {
		s.cache.Set(ctx, key, data, s.listingTTL)
	}
	return result, false, nil
}

// Search runs full-text search with the standard pagination contract. Search
// results are not cached.
func (s *CatalogService) Search(ctx context.Context, term string, page, limit int) (*ListResult, error) {
	page, limit = normalizePage(page, limit)

	products, total, err := s.products.Search(ctx, term, page, limit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	return &ListResult{
		Products:   products,
		Pagination: newPagination(total, page, limit),
	}, nil
}

// Get returns one product by ID, including its full price history.
func (s *CatalogService) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

// Delete removes one product by ID.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.products.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// Clear wipes the catalog, the search query log, and the whole cache.
func (s *CatalogService) Clear(ctx context.Context) error {
	if err := s.products.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	if err := s.searches.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear search queries: %w", err)
	}
	s.cache.FlushAll(ctx)
	return nil
}
