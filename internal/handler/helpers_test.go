package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopscout/catalog-api/internal/cache"
	"github.com/shopscout/catalog-api/internal/models"
	"github.com/shopscout/catalog-api/internal/repository"
	"github.com/shopscout/catalog-api/internal/service"
	"github.com/shopscout/catalog-api/internal/utils"
)

// memStore is an in-memory ProductStore mirroring the merge rules of the SQL
// implementation: overwrite descriptive fields, set-on-insert first_seen_at,
// increment scraped_count, bounded history append.
type memStore struct {
	mu       sync.Mutex
	seq      int64
	products map[string]*models.Product
}

func newMemStore() *memStore {
	return &memStore{products: make(map[string]*models.Product)}
}

func (m *memStore) UpsertBatch(_ context.Context, cmds []models.ProductUpsert) (models.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res models.UpsertResult
	now := time.Now()
	for _, cmd := range cmds {
		if cmd.URL == "" {
			res.Skipped++
			continue
		}
		p, ok := m.products[cmd.URL]
		if !ok {
			m.seq++
			p = &models.Product{
				ID:          m.seq,
				URL:         cmd.URL,
				ScrapedAt:   now,
				FirstSeenAt: now,
			}
			m.products[cmd.URL] = p
			res.Inserted++
		} else {
			res.Updated++
		}
		p.Title = cmd.Title
		p.Price = cmd.Price
		p.OriginalPrice = cmd.OriginalPrice
		p.Discount = cmd.Discount
		p.Image = cmd.Image
		p.Rating = cmd.Rating
		p.Reviews = cmd.Reviews
		p.Site = cmd.Site
		p.SearchQuery = cmd.SearchQuery
		p.Category = cmd.Category
		p.Brand = cmd.Brand
		p.Availability = cmd.Availability
		p.LastSeenAt = now
		p.ScrapedCount++
		p.PriceHistory = append(p.PriceHistory, models.PricePoint{Price: cmd.Price, ObservedAt: now})
		if len(p.PriceHistory) > models.MaxPriceHistory {
			p.PriceHistory = p.PriceHistory[len(p.PriceHistory)-models.MaxPriceHistory:]
		}
	}
	return res, nil
}

func (m *memStore) matching(f repository.ListFilter) []models.Product {
	var out []models.Product
	for _, p := range m.products {
		if f.Site != "" && string(p.Site) != f.Site {
			continue
		}
		if f.SearchQuery != "" &&
			!strings.Contains(strings.ToLower(p.SearchQuery), strings.ToLower(f.SearchQuery)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Order == "asc" {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func page(products []models.Product, pageNum, limit int) []models.Product {
	start := (pageNum - 1) * limit
	if start > len(products) {
		start = len(products)
	}
	end := start + limit
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

func (m *memStore) Find(_ context.Context, f repository.ListFilter) ([]models.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(f)
	return page(all, f.Page, f.Limit), len(all), nil
}

func (m *memStore) Search(_ context.Context, term string, pageNum, limit int) ([]models.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	term = strings.ToLower(term)
	var out []models.Product
	for _, p := range m.products {
		if strings.Contains(strings.ToLower(p.Title), term) ||
			strings.Contains(strings.ToLower(p.Brand), term) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, pageNum, limit), len(out), nil
}

func (m *memStore) FindByID(_ context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for url, p := range m.products {
		if p.ID == id {
			delete(m.products, url)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore) DeleteAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = make(map[string]*models.Product)
	return nil
}

func (m *memStore) CountAll(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products), nil
}

func (m *memStore) CountBySite(_ context.Context, site models.Site) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.products {
		if p.Site == site {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountPriceChanged(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.products {
		if len(p.PriceHistory) > 1 {
			n++
		}
	}
	return n, nil
}

// memSearchLog is an in-memory SearchLogStore.
type memSearchLog struct {
	mu      sync.Mutex
	nextID  int64
	records []models.SearchQueryRecord
}

func (m *memSearchLog) Record(_ context.Context, rec *models.SearchQueryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec.ID = m.nextID
	rec.CreatedAt = time.Now()
	// Newest first, matching the SQL ordering.
	m.records = append([]models.SearchQueryRecord{*rec}, m.records...)
	return nil
}

func (m *memSearchLog) List(_ context.Context, pageNum, limit int) ([]models.SearchQueryRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := len(m.records)
	start := (pageNum - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return m.records[start:end], total, nil
}

func (m *memSearchLog) Recent(_ context.Context, n int) ([]models.SearchQueryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.records) {
		n = len(m.records)
	}
	return m.records[:n], nil
}

func (m *memSearchLog) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *memSearchLog) DeleteAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

// memCache is an in-memory Cache ignoring TTLs.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

func (m *memCache) Delete(_ context.Context, keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
}

func (m *memCache) FlushAll(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]byte)
}

func (m *memCache) Healthy(context.Context) bool { return true }

// newTestRouter wires handlers over the in-memory stores the same way the
// server entrypoint does.
func newTestRouter(store *memStore, logStore *memSearchLog, c cache.Cache) *gin.Engine {
	gin.SetMode(gin.TestMode)

	ingest := service.NewIngestService(store, logStore, c)
	catalog := service.NewCatalogService(store, logStore, c, 5*time.Minute)
	stats := service.NewStatsService(store, logStore, c, 2*time.Minute)

	ph := NewProductHandler(ingest, catalog)
	sh := NewStatsHandler(stats)

	r := gin.New()
	r.POST("/products", ph.SaveProducts)
	r.GET("/products", ph.GetProducts)
	r.GET("/products/search/:term", ph.SearchProducts)
	r.GET("/products/:id", ph.GetProduct)
	r.DELETE("/products/:id", ph.DeleteProduct)
	r.DELETE("/products", ph.ClearAll)
	r.GET("/stats", sh.GetStats)
	r.GET("/searches", sh.GetSearches)
	r.NoRoute(func(c *gin.Context) {
		utils.Error(c, 404, "Route not found")
	})
	return r
}

// doJSON performs a request against the router and decodes the JSON response.
func doJSON(t *testing.T, r *gin.Engine, method, target, body string) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
		}
	}
	return w.Code, decoded
}
