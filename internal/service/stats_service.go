package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopscout/catalog-api/internal/cache"
	"github.com/shopscout/catalog-api/internal/models"
)

// Stats is the on-demand statistics aggregate served to dashboards. It is a
// pure function of current store state and is also the value cached under the
// fixed stats key.
type Stats struct {
	TotalProducts            int                        `json:"totalProducts"`
	BySite                   map[string]int             `json:"bySite"`
	RecentSearches           []models.SearchQueryRecord `json:"recentSearches"`
	TotalSearches            int                        `json:"totalSearches"`
	ProductsWithPriceHistory int                        `json:"productsWithPriceHistory"`
	LastUpdated              string                     `json:"lastUpdated"`
}

// recentSearchLimit is how many log entries the aggregate includes.
const recentSearchLimit = 10

// StatsService computes the statistics aggregate with read-through caching.
type StatsService struct {
	products ProductStore
	searches SearchLogStore
	cache    cache.Cache
	ttl      time.Duration
}

// NewStatsService constructs a StatsService.
func NewStatsService(products ProductStore, searches SearchLogStore, c cache.Cache, ttl time.Duration) *StatsService {
	return &StatsService{products: products, searches: searches, cache: c, ttl: ttl}
}

// Get returns the aggregate, serving from cache when possible. The second
// return value reports a cache hit.
func (s *StatsService) Get(ctx context.Context) (*Stats, bool, error) {
	if data, ok := s.cache.Get(ctx, cache.StatsKey); ok {
		var cached Stats
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, true, nil
		}
	}

	stats, err := s.Refresh(ctx)
	if err != nil {
		return nil, false, err
	}
	return stats, false, nil
}

// Refresh recomputes the aggregate from the stores and repopulates the cache
// entry. The stats refresh worker calls this directly to keep dashboards warm.
func (s *StatsService) Refresh(ctx context.Context) (*Stats, error) {
	total, err := s.products.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	bySite := make(map[string]int, len(models.Sites))
	for _, site := range models.Sites {
		n, err := s.products.CountBySite(ctx, site)
		if err != nil {
			return nil, fmt.Errorf("count %s products: %w", site, err)
		}
		bySite[string(site)] = n
	}

	recent, err := s.searches.Recent(ctx, recentSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("recent searches: %w", err)
	}
	if recent == nil {
		recent = []models.SearchQueryRecord{}
	}

	totalSearches, err := s.searches.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count searches: %w", err)
	}

	priceChanged, err := s.products.CountPriceChanged(ctx)
	if err != nil {
		return nil, fmt.Errorf("count price changes: %w", err)
	}

	stats := &Stats{
		TotalProducts:            total,
		BySite:                   bySite,
		RecentSearches:           recent,
		TotalSearches:            totalSearches,
		ProductsWithPriceHistory: priceChanged,
		LastUpdated:              time.Now().UTC().Format(time.RFC3339),
	}

	if data, err := json.Marshal(stats); err == nil {
		s.cache.Set(ctx, cache.StatsKey, data, s.ttl)
	}
	return stats, nil
}

// ListSearches returns a page of the search query log, newest first.
func (s *StatsService) ListSearches(ctx context.Context, page, limit int) ([]models.SearchQueryRecord, Pagination, error) {
	page, limit = normalizePage(page, limit)

	records, total, err := s.searches.List(ctx, page, limit)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list searches: %w", err)
	}
	if records == nil {
		records = []models.SearchQueryRecord{}
	}
	return records, newPagination(total, page, limit), nil
}
