package cache

import "fmt"

// StatsKey is the single fixed key for the statistics aggregate. It is the
// only key invalidated when a batch is ingested; listing keys expire by TTL
// alone.
const StatsKey = "stats:general"

// ListingKey returns the deterministic fingerprint for a product listing
// query. Empty site and searchQuery filters collapse to "all" so that the
// unfiltered listing shares one key.
func ListingKey(site, searchQuery string, page, limit int, sortBy, order string) string {
	if site == "" {
		site = "all"
	}
	if searchQuery == "" {
		searchQuery = "all"
	}
	return fmt.Sprintf("products:%s:%s:%d:%d:%s:%s", site, searchQuery, page, limit, sortBy, order)
}
