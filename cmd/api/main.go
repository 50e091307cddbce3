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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pricegate/pricegate_api/internal/cache"
	"github.com/pricegate/pricegate_api/internal/config"
	"github.com/pricegate/pricegate_api/internal/database"
	"github.com/pricegate/pricegate_api/internal/handler"
	"github.com/pricegate/pricegate_api/internal/metrics"
	"github.com/pricegate/pricegate_api/internal/middleware"
	"github.com/pricegate/pricegate_api/internal/pricing"
	"github.com/pricegate/pricegate_api/internal/repository"
	"github.com/pricegate/pricegate_api/internal/service"
	"github.com/pricegate/pricegate_api/internal/worker"
	"github.com/pricegate/pricegate_api/pkg/searchindex"
)

// main is the application entrypoint for the PriceGate search gateway.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("provider", cfg.Provider).Msg("starting pricegate api")

	// 3. Build currency converter; an invalid rate table is fatal
	converter, err := pricing.NewConverter(cfg.ExchangeRates)
	if err != nil {
		log.Error().Err(err).Msg("exchange rate table invalid")
		fmt.Fprintf(os.Stderr, "exchange rate table invalid: %v\n", err)
		os.Exit(1)
	}

	estimator := &pricing.FlatRateEstimator{
		ShippingRate:         cfg.Estimator.ShippingRate,
		FeePoolRate:          cfg.Estimator.FeePoolRate,
		DutyShare:            cfg.Estimator.DutyShare,
		VATShare:             cfg.Estimator.VATShare,
		StandardDeliveryDays: 14,
	}
	calc := pricing.NewCalculator(estimator)

	m := metrics.New()

	// 4. Wire the provider stack
	var (
		primary     service.SearchProvider
		fallback    service.SearchProvider
		indexClient *searchindex.Client
		redisClient *cache.RedisClient
		searchCache *cache.SearchCache
		groupRepo   *repository.ProductGroupRepository
	)

	switch cfg.Provider {
	case "mock":
		primary = service.NewMockProvider()
		log.Info().Msg("mock provider active; database and redis disabled")
	default:
		// 4a. Connect database (raw-store fallback)
		db, err := database.Connect(&cfg.DB)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		// 4b. Run migrations
		if err := runMigrations(db.DB); err != nil {
			log.Error().Err(err).Msg("migration failed")
			fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
			os.Exit(1)
		}
		log.Info().Msg("migrations completed successfully")

		// 4c. Connect to Redis
		redisClient, err = cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Error().Err(err).Msg("redis connection failed")
			fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected successfully")

		searchCache = cache.NewSearchCache(redisClient, cfg.Cache.SearchTTL, cfg.Cache.DetailTTL, cfg.Cache.StatsTTL)

		indexClient = searchindex.NewClient(searchindex.Config{
			BaseURL: cfg.SearchIndex.BaseURL,
			APIKey:  cfg.SearchIndex.APIKey,
			Timeout: cfg.SearchIndex.Timeout,
		})

		listingRepo := repository.NewListingRepository(db)
		groupRepo = repository.NewProductGroupRepository(db)

		primary = service.NewIndexProvider(indexClient)
		fallback = service.NewStoreProvider(listingRepo)
	}

	// 5. Initialize services
	dealSvc := service.NewSmartDealService(primary, calc, converter, cfg.Cache.SearchTTL)

	var resultCache service.ResultCache
	var listingCache service.ListingCache
	if searchCache != nil {
		resultCache = searchCache
		listingCache = searchCache
	}

	searchSvc := service.NewSearchService(
		primary, fallback, resultCache, calc, dealSvc, m,
		cfg.SearchIndex.Timeout, cfg.SmartDeal.MinSavingsPercent,
	)
	listingSvc := service.NewListingService(primary, listingCache, calc, m)

	// 6. Initialize handlers
	handlers := &Handlers{
		Health:  handler.NewHealthHandler(indexClient, redisClient),
		Search:  handler.NewSearchHandler(searchSvc),
		Listing: handler.NewListingHandler(listingSvc),
		Stats:   handler.NewStatsHandler(searchCache),
	}

	// 7. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	rateLimiter := middleware.NewRateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	setupRoutes(router, handlers, rateLimiter, m)

	// 8. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 9. Start workers
	go worker.NewHealthCheckWorker(indexClient, redisClient, m, cfg.Worker.HealthCheckInterval).Start(ctx)
	if groupRepo != nil {
		go worker.NewDealScanWorker(
			groupRepo, primary, dealSvc, m,
			cfg.Worker.DealScanCountry,
			cfg.SmartDeal.NotifySavingsPercent,
			cfg.Worker.DealScanInterval,
		).Start(ctx)
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
	Health  *handler.HealthHandler
	Search  *handler.SearchHandler
	Listing *handler.ListingHandler
	Stats   *handler.StatsHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, rateLimiter *middleware.RateLimitMiddleware, m *metrics.Metrics) {
	router.GET("/v1/health", handlers.Health.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	v1.Use(rateLimiter.Handle())
	{
		v1.POST("/search/local", handlers.Search.SearchLocal)
		v1.POST("/search/global", handlers.Search.SearchGlobal)
		v1.GET("/listings/:id", handlers.Listing.GetListing)
		v1.GET("/cache/stats", handlers.Stats.GetStats)
	}
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
