package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shopscout/catalog-api/internal/models"
)

// sortColumns whitelists the sortable Product fields and maps the JSON names
// used on the wire to their database columns. Anything else falls back to the
// default sort.
var sortColumns = map[string]string{
	"id":            "id",
	"url":           "url",
	"title":         "title",
	"price":         "price",
	"originalPrice": "original_price",
	"discount":      "discount",
	"rating":        "rating",
	"reviews":       "reviews",
	"site":          "site",
	"searchQuery":   "search_query",
	"category":      "category",
	"brand":         "brand",
	"availability":  "availability",
	"scrapedAt":     "scraped_at",
	"firstSeenAt":   "first_seen_at",
	"lastSeenAt":    "last_seen_at",
	"scrapedCount":  "scraped_count",
}

// ListFilter holds filters, sorting, and pagination for catalog listings.
type ListFilter struct {
	Site        string
	SearchQuery string
	Page        int
	Limit       int
	SortBy      string
	Order       string
}

// ProductRepository handles data access for the product catalog.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// upsertProduct is the single merge statement for one ingested record. Field
// semantics: descriptive fields are overwritten unconditionally, first_seen_at
// and scraped_at are set only on insert, last_seen_at always moves forward,
// and scraped_count increments by one per ingested occurrence. The ON CONFLICT
// clause makes the insert-or-update atomic per URL across concurrent batches;
// (xmax = 0) distinguishes a fresh insert from an update of an existing row.
const upsertProduct = `
	INSERT INTO products (
		url, title, price, original_price, discount, image, rating, reviews,
		site, search_query, category, brand, availability, scraped_count
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)
	ON CONFLICT (url) DO UPDATE SET
		title = EXCLUDED.title,
		price = EXCLUDED.price,
		original_price = EXCLUDED.original_price,
		discount = EXCLUDED.discount,
		image = EXCLUDED.image,
		rating = EXCLUDED.rating,
		reviews = EXCLUDED.reviews,
		site = EXCLUDED.site,
		search_query = EXCLUDED.search_query,
		category = EXCLUDED.category,
		brand = EXCLUDED.brand,
		availability = EXCLUDED.availability,
		last_seen_at = NOW(),
		scraped_count = products.scraped_count + 1
	RETURNING id, (xmax = 0) AS inserted`

const appendPricePoint = `
	INSERT INTO price_points (product_id, price) VALUES ($1, $2)`

// trimPriceHistory keeps only the most recent observations for a product.
const trimPriceHistory = `
	DELETE FROM price_points
	WHERE product_id = $1
	  AND id NOT IN (
		SELECT id FROM price_points
		WHERE product_id = $1
		ORDER BY observed_at DESC, id DESC
		LIMIT $2
	  )`

// UpsertBatch merges a batch of upsert commands into the catalog. Each record
// is committed in its own transaction so that a failure does not roll back
// records already written; processing stops at the first failing record and
// the partial result is returned alongside the error. Records with an empty
// URL are skipped silently.
func (r *ProductRepository) UpsertBatch(ctx context.Context, cmds []models.ProductUpsert) (models.UpsertResult, error) {
	var res models.UpsertResult
	for _, cmd := range cmds {
		if cmd.URL == "" {
			res.Skipped++
			continue
		}
		inserted, err := r.upsertOne(ctx, cmd)
		if err != nil {
			return res, fmt.Errorf("upsert %s: %w", cmd.URL, err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

// upsertOne merges a single record and appends its price observation within
// one transaction.
func (r *ProductRepository) upsertOne(ctx context.Context, cmd models.ProductUpsert) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var (
		id       int64
		inserted bool
	)
	err = tx.QueryRowxContext(ctx, upsertProduct,
		cmd.URL,
		cmd.Title,
		cmd.Price,
		cmd.OriginalPrice,
		cmd.Discount,
		cmd.Image,
		cmd.Rating,
		cmd.Reviews,
		cmd.Site,
		cmd.SearchQuery,
		cmd.Category,
		cmd.Brand,
		cmd.Availability,
	).Scan(&id, &inserted)
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx, appendPricePoint, id, cmd.Price); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, trimPriceHistory, id, models.MaxPriceHistory); err != nil {
		return false, err
	}

	return inserted, tx.Commit()
}

// Find returns a page of products matching the filter together with the total
// match count. The count and the page are read independently; under concurrent
// writes they may briefly disagree, which callers accept.
func (r *ProductRepository) Find(ctx context.Context, f ListFilter) ([]models.Product, int, error) {
	const baseWhere = `WHERE ($1 = '' OR site = $1)
		AND ($2 = '' OR search_query ILIKE '%' || $2 || '%')`

	countQuery := `SELECT COUNT(1) FROM products ` + baseWhere
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, f.Site, f.SearchQuery); err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "scraped_at"
	}
	direction := "DESC"
	if f.Order == "asc" {
		direction = "ASC"
	}
	offset := (f.Page - 1) * f.Limit

	listQuery := fmt.Sprintf(`SELECT * FROM products %s
		ORDER BY %s %s, id DESC LIMIT $3 OFFSET $4`, baseWhere, column, direction)
	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, listQuery, f.Site, f.SearchQuery, f.Limit, offset); err != nil {
		return nil, 0, err
	}

	if err := r.loadPriceHistory(ctx, products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Search runs full-text search over title and brand, ranked by relevance with
// ties broken by insertion order.
func (r *ProductRepository) Search(ctx context.Context, term string, page, limit int) ([]models.Product, int, error) {
	const baseWhere = `WHERE to_tsvector('english', title || ' ' || brand)
		@@ plainto_tsquery('english', $1)`

	countQuery := `SELECT COUNT(1) FROM products ` + baseWhere
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, term); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	listQuery := `SELECT * FROM products ` + baseWhere + `
		ORDER BY ts_rank(to_tsvector('english', title || ' ' || brand),
			plainto_tsquery('english', $1)) DESC, id ASC
		LIMIT $2 OFFSET $3`
	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, listQuery, term, limit, offset); err != nil {
		return nil, 0, err
	}

	if err := r.loadPriceHistory(ctx, products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// FindByID returns a single product with its full price history.
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE id = $1 LIMIT 1`
	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, id); err != nil {
		return nil, err
	}

	products := []models.Product{p}
	if err := r.loadPriceHistory(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// DeleteByID deletes a product. Returns sql.ErrNoRows if no row matched.
func (r *ProductRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll wipes the catalog. Price points go with their products via
// ON DELETE CASCADE.
func (r *ProductRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products`)
	return err
}

// CountAll returns the total number of products.
func (r *ProductRepository) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM products`)
	return n, err
}

// CountBySite returns the number of products for one source.
func (r *ProductRepository) CountBySite(ctx context.Context, site models.Site) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM products WHERE site = $1`, site)
	return n, err
}

// CountPriceChanged returns the number of products with more than one price
// observation, the proxy for "a price change was observed".
func (r *ProductRepository) CountPriceChanged(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(1) FROM (
		SELECT product_id FROM price_points GROUP BY product_id HAVING COUNT(1) > 1
	) changed`
	var n int
	err := r.db.GetContext(ctx, &n, q)
	return n, err
}

// loadPriceHistory attaches price observations (oldest first) to each product
// in the slice with a single query.
func (r *ProductRepository) loadPriceHistory(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	byID := make(map[int64]*models.Product, len(products))
	for i := range products {
		ids[i] = products[i].ID
		byID[products[i].ID] = &products[i]
		products[i].PriceHistory = []models.PricePoint{}
	}

	const q = `SELECT product_id, price, observed_at FROM price_points
		WHERE product_id = ANY($1)
		ORDER BY product_id, observed_at, id`
	rows, err := r.db.QueryxContext(ctx, q, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			point     models.PricePoint
		)
		if err := rows.Scan(&productID, &point.Price, &point.ObservedAt); err != nil {
			return err
		}
		if p, ok := byID[productID]; ok {
			p.PriceHistory = append(p.PriceHistory, point)
		}
	}
	return rows.Err()
}
