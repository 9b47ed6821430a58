package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/shopscout/catalog-api/internal/models"
)

// SearchQueryRepository handles the append-only search query log.
type SearchQueryRepository struct {
	db *sqlx.DB
}

// NewSearchQueryRepository creates a new SearchQueryRepository.
func NewSearchQueryRepository(db *sqlx.DB) *SearchQueryRepository {
	return &SearchQueryRepository{db: db}
}

// Record appends one log entry and fills in its generated ID and timestamps.
func (r *SearchQueryRepository) Record(ctx context.Context, rec *models.SearchQueryRecord) error {
	const q = `
		INSERT INTO search_queries (query, site, url, product_count, scraped_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.db.QueryRowxContext(ctx, q,
		rec.Query, rec.Site, rec.URL, rec.ProductCount, rec.ScrapedAt,
	).Scan(&rec.ID, &rec.CreatedAt)
}

// List returns a page of log entries, newest first, with the total count.
func (r *SearchQueryRepository) List(ctx context.Context, page, limit int) ([]models.SearchQueryRecord, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM search_queries`); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	const q = `SELECT * FROM search_queries ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	var records []models.SearchQueryRecord
	if err := r.db.SelectContext(ctx, &records, q, limit, offset); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Recent returns the n most recent log entries.
func (r *SearchQueryRepository) Recent(ctx context.Context, n int) ([]models.SearchQueryRecord, error) {
	const q = `SELECT * FROM search_queries ORDER BY created_at DESC, id DESC LIMIT $1`
	var records []models.SearchQueryRecord
	if err := r.db.SelectContext(ctx, &records, q, n); err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the total number of log entries.
func (r *SearchQueryRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM search_queries`)
	return n, err
}

// DeleteAll wipes the log.
func (r *SearchQueryRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM search_queries`)
	return err
}
