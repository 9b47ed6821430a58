package models

import "time"

// SearchQueryRecord is one append-only audit entry per ingested batch.
// Records are never updated or deduplicated.
type SearchQueryRecord struct {
	ID           int64     `db:"id" json:"id"`
	Query        string    `db:"query" json:"query"`
	Site         string    `db:"site" json:"site"`
	URL          string    `db:"url" json:"url"`
	ProductCount int       `db:"product_count" json:"productCount"`
	ScrapedAt    time.Time `db:"scraped_at" json:"scrapedAt"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
