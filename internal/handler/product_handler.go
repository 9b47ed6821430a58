package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/shopscout/catalog-api/internal/models"
	"github.com/shopscout/catalog-api/internal/repository"
	"github.com/shopscout/catalog-api/internal/service"
	"github.com/shopscout/catalog-api/internal/utils"
)

// ProductHandler handles catalog ingestion and read endpoints.
type ProductHandler struct {
	ingest  *service.IngestService
	catalog *service.CatalogService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(ingest *service.IngestService, catalog *service.CatalogService) *ProductHandler {
	return &ProductHandler{ingest: ingest, catalog: catalog}
}

// incomingProduct is one scraped record as submitted by the scraper client.
// All display fields are opaque strings; availability defaults to true unless
// explicitly false.
type incomingProduct struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Price         string `json:"price"`
	OriginalPrice string `json:"originalPrice"`
	Discount      string `json:"discount"`
	Image         string `json:"image"`
	Rating        string `json:"rating"`
	Reviews       string `json:"reviews"`
	Site          string `json:"site"`
	Category      string `json:"category"`
	Brand         string `json:"brand"`
	Availability  *bool  `json:"availability"`
}

// saveProductsRequest is the POST /products body.
type saveProductsRequest struct {
	SearchQuery string            `json:"searchQuery"`
	Site        string            `json:"site"`
	URL         string            `json:"url"`
	ScrapedAt   *time.Time        `json:"scrapedAt"`
	Products    []incomingProduct `json:"products"`
}

// SaveProducts ingests one scraped batch.
func (h *ProductHandler) SaveProducts(c *gin.Context) {
	var req saveProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Products) == 0 {
		utils.Error(c, 400, "Invalid products data")
		return
	}

	batch := service.Batch{
		SearchQuery: req.SearchQuery,
		Site:        req.Site,
		SourceURL:   req.URL,
		Products:    make([]models.ProductUpsert, 0, len(req.Products)),
	}
	if req.ScrapedAt != nil {
		batch.ScrapedAt = *req.ScrapedAt
	}
	for _, p := range req.Products {
		batch.Products = append(batch.Products, models.ProductUpsert{
			URL:           p.URL,
			Title:         p.Title,
			Price:         p.Price,
			OriginalPrice: p.OriginalPrice,
			Discount:      p.Discount,
			Image:         p.Image,
			Rating:        p.Rating,
			Reviews:       p.Reviews,
			Site:          models.Site(p.Site),
			Category:      p.Category,
			Brand:         p.Brand,
			Availability:  p.Availability == nil || *p.Availability,
		})
	}

	result, err := h.ingest.Ingest(c.Request.Context(), batch)
	if err != nil {
		log.Error().Err(err).Msg("failed to save products")
		utils.ErrorWithDetails(c, 500, "Failed to save products", err.Error())
		return
	}

	c.JSON(201, gin.H{
		"success":       true,
		"message":       "Products saved successfully",
		"searchQueryId": result.SearchQueryID,
		"productsCount": result.ProductsCount,
		"inserted":      result.Inserted,
		"updated":       result.Updated,
	})
}

// listResponse is the paginated listing body; fromCache appears only on a
// cache hit.
type listResponse struct {
	Success    bool               `json:"success"`
	Products   []models.Product   `json:"products"`
	Pagination service.Pagination `json:"pagination"`
	FromCache  bool               `json:"fromCache,omitempty"`
}

// GetProducts returns the product listing with filters, sorting, and
// pagination.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	filter := repository.ListFilter{
		Site:        c.Query("site"),
		SearchQuery: c.Query("searchQuery"),
		Page:        intQuery(c, "page", 1),
		Limit:       intQuery(c, "limit", 20),
		SortBy:      c.DefaultQuery("sortBy", "scrapedAt"),
		Order:       c.DefaultQuery("order", "desc"),
	}

	result, fromCache, err := h.catalog.List(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch products")
		utils.Error(c, 500, "Failed to fetch products")
		return
	}

	c.JSON(200, listResponse{
		Success:    true,
		Products:   result.Products,
		Pagination: result.Pagination,
		FromCache:  fromCache,
	})
}

// GetProduct returns a single product by ID.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.Error(c, 404, "Product not found")
		return
	}

	product, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, utils.ErrProductNotFound) {
			utils.Error(c, 404, "Product not found")
			return
		}
		log.Error().Err(err).Int64("id", id).Msg("failed to fetch product")
		utils.Error(c, 500, "Failed to fetch product")
		return
	}

	c.JSON(200, gin.H{"success": true, "product": product})
}

// SearchProducts runs full-text search over the catalog.
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	term := c.Param("term")
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 20)

	result, err := h.catalog.Search(c.Request.Context(), term, page, limit)
	if err != nil {
		log.Error().Err(err).Str("term", term).Msg("failed to search products")
		utils.Error(c, 500, "Failed to search products")
		return
	}

	c.JSON(200, listResponse{
		Success:    true,
		Products:   result.Products,
		Pagination: result.Pagination,
	})
}

// DeleteProduct removes one product by ID.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.Error(c, 404, "Product not found")
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, utils.ErrProductNotFound) {
			utils.Error(c, 404, "Product not found")
			return
		}
		log.Error().Err(err).Int64("id", id).Msg("failed to delete product")
		utils.Error(c, 500, "Failed to delete product")
		return
	}

	c.JSON(200, gin.H{"success": true, "message": "Product deleted"})
}

// ClearAll wipes the catalog, search log, and cache. Requires confirm=yes.
func (h *ProductHandler) ClearAll(c *gin.Context) {
	if c.Query("confirm") != "yes" {
		utils.Error(c, 400, "Add ?confirm=yes to delete all products")
		return
	}

	if err := h.catalog.Clear(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("failed to clear data")
		utils.Error(c, 500, "Failed to clear data")
		return
	}

	c.JSON(200, gin.H{"success": true, "message": "All data cleared"})
}

// intQuery parses a positive integer query parameter with a default.
func intQuery(c *gin.Context, key string, def int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
