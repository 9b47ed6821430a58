package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/shopscout/catalog-api/internal/models"
	"github.com/shopscout/catalog-api/internal/service"
	"github.com/shopscout/catalog-api/internal/utils"
)

// StatsHandler serves the statistics aggregate and the search query log.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// statsResponse mirrors service.Stats with the success/fromCache envelope.
type statsResponse struct {
	Success                  bool                       `json:"success"`
	TotalProducts            int                        `json:"totalProducts"`
	BySite                   map[string]int             `json:"bySite"`
	RecentSearches           []models.SearchQueryRecord `json:"recentSearches"`
	TotalSearches            int                        `json:"totalSearches"`
	ProductsWithPriceHistory int                        `json:"productsWithPriceHistory"`
	LastUpdated              string                     `json:"lastUpdated"`
	FromCache                bool                       `json:"fromCache,omitempty"`
}

// GetStats returns the dashboard statistics aggregate.
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, fromCache, err := h.stats.Get(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch stats")
		utils.Error(c, 500, "Failed to fetch statistics")
		return
	}

	c.JSON(200, statsResponse{
		Success:                  true,
		TotalProducts:            stats.TotalProducts,
		BySite:                   stats.BySite,
		RecentSearches:           stats.RecentSearches,
		TotalSearches:            stats.TotalSearches,
		ProductsWithPriceHistory: stats.ProductsWithPriceHistory,
		LastUpdated:              stats.LastUpdated,
		FromCache:                fromCache,
	})
}

// GetSearches returns the paginated search query log.
func (h *StatsHandler) GetSearches(c *gin.Context) {
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 20)

	searches, pagination, err := h.stats.ListSearches(c.Request.Context(), page, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch searches")
		utils.Error(c, 500, "Failed to fetch searches")
		return
	}

	c.JSON(200, gin.H{
		"success":    true,
		"searches":   searches,
		"pagination": pagination,
	})
}
