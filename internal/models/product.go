package models

import "time"

// Site enumerates the retail sources products are scraped from.
type Site string

const (
	SiteAmazon   Site = "Amazon"
	SiteFlipkart Site = "Flipkart"
	SiteMyntra   Site = "Myntra"
)

// Sites lists every supported source, in stats reporting order.
var Sites = []Site{SiteAmazon, SiteFlipkart, SiteMyntra}

// Valid reports whether s is one of the supported sources.
func (s Site) Valid() bool {
	switch s {
	case SiteAmazon, SiteFlipkart, SiteMyntra:
		return true
	}
	return false
}

// MaxPriceHistory caps the number of price observations retained per product.
// The oldest entries are trimmed first.
const MaxPriceHistory = 100

// PricePoint is one observed price for a product.
type PricePoint struct {
	Price      string    `db:"price" json:"price"`
	ObservedAt time.Time `db:"observed_at" json:"observedAt"`
}

// Product is a catalog entry, keyed uniquely by URL. Display fields (price,
// rating, reviews, ...) are opaque strings as delivered by the scrapers;
// sources use inconsistent formats and no normalization is attempted here.
type Product struct {
	ID            int64     `db:"id" json:"id"`
	URL           string    `db:"url" json:"url"`
	Title         string    `db:"title" json:"title"`
	Price         string    `db:"price" json:"price"`
	OriginalPrice string    `db:"original_price" json:"originalPrice"`
	Discount      string    `db:"discount" json:"discount"`
	Image         string    `db:"image" json:"image"`
	Rating        string    `db:"rating" json:"rating"`
	Reviews       string    `db:"reviews" json:"reviews"`
	Site          Site      `db:"site" json:"site"`
	SearchQuery   string    `db:"search_query" json:"searchQuery"`
	Category      string    `db:"category" json:"category"`
	Brand         string    `db:"brand" json:"brand"`
	Availability  bool      `db:"availability" json:"availability"`
	ScrapedAt     time.Time `db:"scraped_at" json:"scrapedAt"`
	FirstSeenAt   time.Time `db:"first_seen_at" json:"firstSeenAt"`
	LastSeenAt    time.Time `db:"last_seen_at" json:"lastSeenAt"`
	ScrapedCount  int       `db:"scraped_count" json:"scrapedCount"`

	// Loaded from the price_points table, oldest first.
	PriceHistory []PricePoint `db:"-" json:"priceHistory"`
}

// ProductUpsert is one typed upsert command within an ingestion batch. Every
// field listed here is overwritten on the existing row (last write wins);
// first_seen_at is set only on insert, scraped_count is incremented, and the
// price is appended to the bounded history.
type ProductUpsert struct {
	URL           string
	Title         string
	Price         string
	OriginalPrice string
	Discount      string
	Image         string
	Rating        string
	Reviews       string
	Site          Site
	SearchQuery   string
	Category      string
	Brand         string
	Availability  bool
}

// UpsertResult aggregates the outcome of a batch upsert.
type UpsertResult struct {
	Inserted int
	Updated  int
	Skipped  int
}
