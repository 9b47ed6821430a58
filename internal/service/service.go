package service

import (
	"context"

	"github.com/shopscout/catalog-api/internal/models"
	"github.com/shopscout/catalog-api/internal/repository"
)

// ProductStore is the catalog storage capability consumed by services.
// *repository.ProductRepository is the production implementation.
type ProductStore interface {
	UpsertBatch(ctx context.Context, cmds []models.ProductUpsert) (models.UpsertResult, error)
	Find(ctx context.Context, f repository.ListFilter) ([]models.Product, int, error)
	Search(ctx context.Context, term string, page, limit int) ([]models.Product, int, error)
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	CountAll(ctx context.Context) (int, error)
	CountBySite(ctx context.Context, site models.Site) (int, error)
	CountPriceChanged(ctx context.Context) (int, error)
}

// SearchLogStore is the append-only search log capability.
// *repository.SearchQueryRepository is the production implementation.
type SearchLogStore interface {
	Record(ctx context.Context, rec *models.SearchQueryRecord) error
	List(ctx context.Context, page, limit int) ([]models.SearchQueryRecord, int, error)
	Recent(ctx context.Context, n int) ([]models.SearchQueryRecord, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// Pagination is the metadata attached to every list response.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// newPagination computes page metadata; pages is ceil(total/limit).
func newPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}

const (
	defaultPage  = 1
	defaultLimit = 20
)

// normalizePage applies the pagination defaults: page is 1-based, limit
// defaults to 20.
func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = defaultPage
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return page, limit
}
