package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/shopscout/catalog-api/internal/models"
	"github.com/shopscout/catalog-api/internal/repository"
)

// memCache is an in-memory Cache for tests. TTLs are ignored; entries live
// until deleted or flushed.
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

func (m *memCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// fakeProductStore is a scripted ProductStore.
type fakeProductStore struct {
	products     []models.Product
	total        int
	err          error
	byID         map[int64]*models.Product
	upsertResult models.UpsertResult
	upserted     []models.ProductUpsert

	countAll     int
	countBySite  map[models.Site]int
	priceChanged int

	deletedAll bool
	findCalls  int
	lastFilter repository.ListFilter
}

func (f *fakeProductStore) UpsertBatch(_ context.Context, cmds []models.ProductUpsert) (models.UpsertResult, error) {
	f.upserted = append(f.upserted, cmds...)
	return f.upsertResult, f.err
}

func (f *fakeProductStore) Find(_ context.Context, filter repository.ListFilter) ([]models.Product, int, error) {
	f.findCalls++
	f.lastFilter = filter
	return f.products, f.total, f.err
}

func (f *fakeProductStore) Search(_ context.Context, _ string, _, _ int) ([]models.Product, int, error) {
	return f.products, f.total, f.err
}

func (f *fakeProductStore) FindByID(_ context.Context, id int64) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProductStore) DeleteByID(_ context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProductStore) DeleteAll(context.Context) error {
	f.deletedAll = true
	return f.err
}

func (f *fakeProductStore) CountAll(context.Context) (int, error) { return f.countAll, f.err }

func (f *fakeProductStore) CountBySite(_ context.Context, site models.Site) (int, error) {
	return f.countBySite[site], f.err
}

func (f *fakeProductStore) CountPriceChanged(context.Context) (int, error) {
	return f.priceChanged, f.err
}

// fakeSearchLog is a scripted SearchLogStore.
type fakeSearchLog struct {
	records    []models.SearchQueryRecord
	err        error
	nextID     int64
	deletedAll bool
}

func (f *fakeSearchLog) Record(_ context.Context, rec *models.SearchQueryRecord) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	rec.ID = f.nextID
	rec.CreatedAt = time.Now()
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeSearchLog) List(_ context.Context, page, limit int) ([]models.SearchQueryRecord, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	total := len(f.records)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return f.records[start:end], total, nil
}

func (f *fakeSearchLog) Recent(_ context.Context, n int) ([]models.SearchQueryRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if n > len(f.records) {
		n = len(f.records)
	}
	return f.records[:n], nil
}

func (f *fakeSearchLog) Count(context.Context) (int, error) { return len(f.records), f.err }

func (f *fakeSearchLog) DeleteAll(context.Context) error {
	f.deletedAll = true
	f.records = nil
	return f.err
}
