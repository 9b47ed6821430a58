package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shopscout/catalog-api/internal/cache"
	"github.com/shopscout/catalog-api/internal/models"
)

// Batch is one ingestion submission from a scraper: the products observed on
// a single source page plus the search that produced them.
type Batch struct {
	SearchQuery string
	Site        string
	SourceURL   string
	ScrapedAt   time.Time
	Products    []models.ProductUpsert
}

// IngestResult reports the outcome of an ingested batch.
type IngestResult struct {
	SearchQueryID int64
	ProductsCount int
	Inserted      int
	Updated       int
}

// IngestService validates batches, appends them to the search query log, and
// merges their products into the catalog.
type IngestService struct {
	products ProductStore
	searches SearchLogStore
	cache    cache.Cache
}

// NewIngestService constructs an IngestService.
func NewIngestService(products ProductStore, searches SearchLogStore, c cache.Cache) *IngestService {
	return &IngestService{products: products, searches: searches, cache: c}
}

// Ingest processes one batch: it records the search query, upserts every
// product carrying a URL, and invalidates the cached statistics aggregate.
// Listing cache entries are deliberately left to expire by TTL. The batch is
// not atomic as a whole; records committed before a failure stay committed.
func (s *IngestService) Ingest(ctx context.Context, batch Batch) (*IngestResult, error) {
	query := batch.SearchQuery
	if query == "" {
		query = "unknown"
	}
	scrapedAt := batch.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}

	rec := &models.SearchQueryRecord{
		Query:        query,
		Site:         batch.Site,
		URL:          batch.SourceURL,
		ProductCount: len(batch.Products),
		ScrapedAt:    scrapedAt,
	}
	if err := s.searches.Record(ctx, rec); err != nil {
		return nil, fmt.Errorf("record search query: %w", err)
	}

	cmds := make([]models.ProductUpsert, 0, len(batch.Products))
	for _, p := range batch.Products {
		if p.URL == "" {
			// Records without a canonical URL cannot be deduplicated; drop them.
			continue
		}
		if p.Site == "" {
			p.Site = models.Site(batch.Site)
		}
		p.SearchQuery = query
		cmds = append(cmds, p)
	}

	res, err := s.products.UpsertBatch(ctx, cmds)
	if err != nil {
		return nil, fmt.Errorf("upsert batch: %w", err)
	}

	// Only the stats aggregate is invalidated on write.
	s.cache.Delete(ctx, cache.StatsKey)

	log.Info().
		Str("site", batch.Site).
		Str("query", query).
		Int("products", len(batch.Products)).
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Msg("batch ingested")

	return &IngestResult{
		SearchQueryID: rec.ID,
		ProductsCount: len(batch.Products),
		Inserted:      res.Inserted,
		Updated:       res.Updated,
	}, nil
}
