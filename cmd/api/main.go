package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shopscout/catalog-api/internal/cache"
	"github.com/shopscout/catalog-api/internal/config"
	"github.com/shopscout/catalog-api/internal/database"
	"github.com/shopscout/catalog-api/internal/handler"
	"github.com/shopscout/catalog-api/internal/middleware"
	"github.com/shopscout/catalog-api/internal/repository"
	"github.com/shopscout/catalog-api/internal/service"
	"github.com/shopscout/catalog-api/internal/utils"
	"github.com/shopscout/catalog-api/internal/worker"
)

// main is the application entrypoint for the catalog tracker API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting catalog api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis. The cache is optional: if Redis is unreachable the
	// service runs with a no-op cache and every read goes to the store.
	var store cache.Cache
	redisCache, err := cache.NewRedisCache(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, running without cache")
		store = cache.Noop{}
	} else {
		defer redisCache.Close()
		store = redisCache
		log.Info().Msg("redis connected successfully")
	}

	// 4. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	searchRepo := repository.NewSearchQueryRepository(db)

	// 5. Initialize services
	ingestSvc := service.NewIngestService(productRepo, searchRepo, store)
	catalogSvc := service.NewCatalogService(productRepo, searchRepo, store, cfg.Cache.ListingTTL)
	statsSvc := service.NewStatsService(productRepo, searchRepo, store, cfg.Cache.StatsTTL)

	// 6. Initialize handlers
	handlers := &Handlers{
		Product: handler.NewProductHandler(ingestSvc, catalogSvc),
		Stats:   handler.NewStatsHandler(statsSvc),
		Health:  handler.NewHealthHandler(db, store),
	}

	// 7. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().Interface("panic", recovered).Msg("recovered from panic")
		c.AbortWithStatusJSON(500, gin.H{
			"error":   "Internal server error",
			"message": fmt.Sprint(recovered),
		})
	}))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())

	ingestLimiter := middleware.NewIngestRateLimiter(cfg.Ingest.RateLimitPerMinute)
	setupRoutes(router, handlers, ingestLimiter)

	// 8. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 9. Start workers
	if cfg.Worker.StatsRefreshInterval > 0 {
		go worker.NewStatsRefreshWorker(statsSvc, cfg.Worker.StatsRefreshInterval).Start(ctx)
	}

	// 10. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 12. Cancel context to stop workers
	cancel()

	// 13. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Product *handler.ProductHandler
	Stats   *handler.StatsHandler
	Health  *handler.HealthHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, ingestLimiter *middleware.IngestRateLimiter) {
	router.GET("/health", handlers.Health.GetHealth)

	router.POST("/products", ingestLimiter.Handle(), handlers.Product.SaveProducts)
	router.GET("/products", handlers.Product.GetProducts)
	router.GET("/products/search/:term", handlers.Product.SearchProducts)
	router.GET("/products/:id", handlers.Product.GetProduct)
	router.DELETE("/products/:id", handlers.Product.DeleteProduct)
	router.DELETE("/products", handlers.Product.ClearAll)

	router.GET("/stats", handlers.Stats.GetStats)
	router.GET("/searches", handlers.Stats.GetSearches)

	router.NoRoute(func(c *gin.Context) {
		utils.Error(c, 404, "Route not found")
	})
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
