package main

import (
	"context"
	"time"

	"bendy/config"
	"bendy/database"
	"bendy/firestore"
	"bendy/handlers"
	"bendy/locations"
	"bendy/middleware"
	"bendy/ratelimit"
	"bendy/services"
	ws "bendy/websocket"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	EndPointHealth          = "/health"
	EndPointLocations       = "/locations"
	EndPointNearestLocation = "/locations/nearest"
	EndPointReports         = "/reports"
	EndPointCurrentReports  = "/reports/current"
	EndPointReportHistory   = "/reports/history"
	EndPointLiveReports     = "/reports/live"
	EndPointMountain        = "/conditions/mountain"
	EndPointRoads           = "/conditions/roads"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	cfg := config.Load()

	log.Info("Starting the bendy backend service...")

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize report store: %v", err)
	}
	defer closeStore()

	tz, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		log.Warnf("Unknown timezone %q, using local time", cfg.ReportTimezone)
		tz = time.Local
	}

	limiter := ratelimit.NewLimiter(
		ratelimit.NewFileStorage(cfg.RateLimitPath),
		ratelimit.DefaultKey,
		cfg.RateLimitCooldown,
	)

	catalog := locations.NewCatalog()
	reportsService := services.NewReports(store, limiter, catalog, tz, cfg.StoreTimeout)
	conditionsService := services.NewConditions(cfg)

	hub := ws.NewHub()
	go hub.Run()

	reportsHandler := handlers.NewReportsHandler(reportsService, catalog, hub)
	conditionsHandler := handlers.NewConditionsHandler(conditionsService)

	router := gin.Default()

	// CORS for the SPA
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.AllowedOrigins)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET(EndPointHealth, reportsHandler.HealthHandler)
	router.GET(EndPointLocations, reportsHandler.LocationsHandler)
	router.GET(EndPointNearestLocation, reportsHandler.NearestLocationHandler)
	router.GET(EndPointCurrentReports, reportsHandler.CurrentReportsHandler)
	router.GET(EndPointReportHistory, reportsHandler.HistoryHandler)
	router.GET(EndPointLiveReports, reportsHandler.LiveReportsHandler)
	router.GET(EndPointMountain, conditionsHandler.MountainHandler)
	router.GET(EndPointRoads, conditionsHandler.RoadsHandler)

	// Submissions get the transport-level guard on top of the
	// per-location cooldown.
	submissions := router.Group("/")
	submissions.Use(middleware.RateLimit(cfg.SubmitRateLimitPerMinute, time.Minute))
	{
		submissions.POST(EndPointReports, reportsHandler.SubmitReportHandler)
	}

	log.Infof("Bendy backend starting on %s:%s (store: %s)", cfg.Host, cfg.Port, cfg.StoreBackend)

	if err := router.Run(cfg.Host + ":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openStore picks the report store backend from config.
func openStore(cfg *config.Config) (services.ReportStore, func(), error) {
	switch cfg.StoreBackend {
	case "firestore":
		ctx := context.Background()
		store, err := firestore.NewStore(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile, cfg.FirestoreCollection)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		db, err := database.NewDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		defer cancel()
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	}
}
