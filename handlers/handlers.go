package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"crop-analysis-service/catalog"
	"crop-analysis-service/export"
	"crop-analysis-service/gee"
	"crop-analysis-service/metrics"
	"crop-analysis-service/models"
	"crop-analysis-service/service"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	catalog  *catalog.Service
	analysis *service.AnalysisService
	imagery  *gee.Client
}

func NewAnalysisHandler(catalogService *catalog.Service, analysisService *service.AnalysisService, imagery *gee.Client) *AnalysisHandler {
	return &AnalysisHandler{
		catalog:  catalogService,
		analysis: analysisService,
		imagery:  imagery,
	}
}

// HealthCheck reports service status including the active data mode.
func (h *AnalysisHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:         "healthy",
		DemoMode:       !h.imagery.Enabled(),
		GEEInitialized: h.imagery.Enabled(),
		ModelLoaded:    true,
		Timestamp:      time.Now().Format(time.RFC3339),
	})
}

func (h *AnalysisHandler) GetRegions(c *gin.Context) {
	regions, err := h.catalog.Regions()
	if err != nil {
		log.Errorf("Error getting region catalog: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprint(err)})
		return
	}
	c.JSON(http.StatusOK, regions)
}

func (h *AnalysisHandler) GetCropTypes(c *gin.Context) {
	crops, err := h.catalog.Crops()
	if err != nil {
		log.Errorf("Error getting crop metadata: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprint(err)})
		return
	}
	c.JSON(http.StatusOK, crops)
}

func (h *AnalysisHandler) Analyze(c *gin.Context) {
	args := &models.AnalyzeRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /analyze call: %v", err)
		return
	}

	result, err := h.analysis.Analyze(c.Request.Context(), args)
	if err != nil {
		if errors.Is(err, service.ErrNoGeometry) || errors.Is(err, service.ErrInvalidDateRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Errorf("Error analyzing region %q: %v", args.RegionName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GenerateCropMap returns an NDVI tile layer reference. There is no
// simulated tile source, so this endpoint needs live credentials.
func (h *AnalysisHandler) GenerateCropMap(c *gin.Context) {
	args := &models.CropMapRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /generate-crop-map call: %v", err)
		return
	}

	if !h.imagery.Enabled() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Crop map generation requires GEE credentials",
		})
		return
	}
	if args.Geometry == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrNoGeometry.Error()})
		return
	}

	layer, err := h.imagery.NDVITileLayer(c.Request.Context(), args.Geometry, args.StartDate, args.EndDate)
	if err != nil {
		log.Errorf("Error generating crop map for %q: %v", args.RegionName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.CropMapResponse{
		RegionName:  args.RegionName,
		TileURL:     layer.TileURL,
		Attribution: layer.Attribution,
		StartDate:   args.StartDate,
		EndDate:     args.EndDate,
	})
}

func (h *AnalysisHandler) ExportCSV(c *gin.Context) {
	args := &models.ExportCSVRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /export/csv call: %v", err)
		return
	}

	data, filename, err := export.ToCSV(args.CropDistribution, args.RegionName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	metrics.ExportTotal.WithLabelValues("csv").Inc()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *AnalysisHandler) ExportGeoJSON(c *gin.Context) {
	args := &models.ExportGeoJSONRequest{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /export/geojson call: %v", err)
		return
	}

	if args.Geometry == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrNoGeometry.Error()})
		return
	}

	metrics.ExportTotal.WithLabelValues("geojson").Inc()
	c.JSON(http.StatusOK, export.ToGeoJSON(args.Geometry, args.Properties))
}
