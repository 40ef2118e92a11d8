package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crop-analysis-service/catalog"
	"crop-analysis-service/classifier"
	"crop-analysis-service/config"
	"crop-analysis-service/extractor"
	"crop-analysis-service/gee"
	"crop-analysis-service/handlers"
	"crop-analysis-service/metrics"
	"crop-analysis-service/service"
	"crop-analysis-service/version"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	EndPointHealth          = "/health"
	EndPointRegions         = "/regions"
	EndPointCropTypes       = "/crop-types"
	EndPointAnalyze         = "/analyze"
	EndPointGenerateCropMap = "/generate-crop-map"
	EndPointExportCSV       = "/export/csv"
	EndPointExportGeoJSON   = "/export/geojson"
)

func main() {
	// Load configuration, .env first if present
	_ = godotenv.Load()
	cfg := config.Load()

	log.Info("Starting the crop analysis service...")

	// Load the region catalog
	catalogService := catalog.NewService(cfg.RegionsFile, cfg.CropsFile)
	if err := catalogService.Load(); err != nil {
		log.Fatalf("Failed to load region catalog: %v", err)
	}

	// Load the classification model; without it the service is useless
	model, err := classifier.Load(cfg.ModelFile)
	if err != nil {
		log.Fatalf("Failed to load classification model: %v", err)
	}

	// Initialize the imagery client and pipeline services
	imagery := gee.NewClient(cfg.GEEServiceAccount, cfg.GEEPrivateKey)
	if cfg.DemoMode() {
		log.Info("No Earth Engine credentials, running in demo mode with simulated data")
	} else {
		log.Info("Earth Engine credentials configured, live imagery enabled")
	}

	analysisService := service.NewAnalysisService(extractor.New(imagery), model, catalogService)

	// Initialize handlers
	analysisHandler := handlers.NewAnalysisHandler(catalogService, analysisService, imagery)

	// Register metrics
	metrics.Register()

	// Setup router
	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, version.Get("crop-analysis-service"))
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET(EndPointHealth, analysisHandler.HealthCheck)
		api.GET(EndPointRegions, analysisHandler.GetRegions)
		api.GET(EndPointCropTypes, analysisHandler.GetCropTypes)
		api.POST(EndPointAnalyze, analysisHandler.Analyze)
		api.POST(EndPointGenerateCropMap, analysisHandler.GenerateCropMap)
		api.POST(EndPointExportCSV, analysisHandler.ExportCSV)
		api.POST(EndPointExportGeoJSON, analysisHandler.ExportGeoJSON)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Crop analysis service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
