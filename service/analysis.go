package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crop-analysis-service/aggregator"
	"crop-analysis-service/extractor"
	"crop-analysis-service/metrics"
	"crop-analysis-service/models"

	"github.com/apex/log"
	geojson "github.com/paulmach/go.geojson"
)

const (
	// DemoWarning is attached to every simulated result.
	DemoWarning = "Demo mode: Using simulated data. Configure GEE credentials for real satellite analysis."

	defaultRegionName = "Selected Region"

	dateLayout = "2006-01-02"
)

// Geographic center of India, echoed when the caller sends no center.
var defaultCenter = []float64{20.5937, 78.9629}

// Client-input errors, mapped to 400 responses by the handlers.
var (
	ErrNoGeometry       = errors.New("No geometry provided")
	ErrInvalidDateRange = errors.New("Invalid date range: start_date must not be after end_date")
)

// Classifier is the model surface the pipeline needs.
type Classifier interface {
	Classify(features models.FeatureVector) (models.ClassProbabilities, error)
}

// CenterResolver looks up a region's map center by name.
type CenterResolver interface {
	FindCenter(name string) ([2]float64, bool)
}

// AnalysisService runs the region analysis pipeline: feature
// extraction, classification, area aggregation and response shaping.
type AnalysisService struct {
	extractor  *extractor.Extractor
	classifier Classifier
	centers    CenterResolver
}

func NewAnalysisService(e *extractor.Extractor, c Classifier, centers CenterResolver) *AnalysisService {
	return &AnalysisService{
		extractor:  e,
		classifier: c,
		centers:    centers,
	}
}

// Analyze runs the full pipeline for one request. Remote imagery
// trouble degrades to simulated data instead of failing; only malformed
// input or a broken model surface as errors.
func (s *AnalysisService) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisResult, error) {
	started := time.Now()

	if emptyGeometry(req.Geometry) {
		return nil, ErrNoGeometry
	}
	if err := validateDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	regionName := req.RegionName
	if regionName == "" {
		regionName = defaultRegionName
	}
	log.Infof("Analyzing region: %s", regionName)

	extraction := s.extractor.Extract(ctx, req.Geometry, req.StartDate, req.EndDate)

	probs, err := s.classifier.Classify(extraction.Features)
	if err != nil {
		metrics.AnalyzeTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("classification failed: %w", err)
	}

	distribution, totalAreaHa, dominant := aggregator.Aggregate(req.Geometry, probs)

	allProbabilities := make(map[string]models.ClassProbability, models.NumClasses)
	confidence := 0.0
	for i := 0; i < models.NumClasses; i++ {
		allProbabilities[models.CropLabels[i]] = models.ClassProbability{
			Probability: probs[i],
			Color:       models.CropColors[i],
		}
		if models.CropLabels[i] == dominant {
			confidence = probs[i]
		}
	}

	center := req.Center
	if len(center) != 2 {
		if known, ok := s.centers.FindCenter(req.RegionName); ok {
			center = known[:]
		} else {
			center = defaultCenter
		}
	}

	stats := extraction.Stats
	result := &models.AnalysisResult{
		Success:          true,
		RegionName:       regionName,
		AnalysisDate:     time.Now().Format("2006-01-02 15:04:05"),
		NDVIData:         &stats,
		DominantCrop:     dominant,
		Confidence:       confidence,
		TotalAreaHa:      totalAreaHa,
		CropDistribution: distribution,
		AllProbabilities: allProbabilities,
		Center:           center,
		DemoMode:         extraction.Source == extractor.SourceSimulated,
	}
	if result.DemoMode {
		result.Warning = DemoWarning
		log.Infof("Region %s analyzed with simulated data: %s", regionName, extraction.Reason)
	}

	metrics.AnalyzeTotal.WithLabelValues(string(extraction.Source)).Inc()
	metrics.AnalyzeDurationSeconds.Observe(time.Since(started).Seconds())

	return result, nil
}

func emptyGeometry(g *geojson.Geometry) bool {
	if g == nil {
		return true
	}
	switch g.Type {
	case geojson.GeometryPoint:
		return len(g.Point) < 2
	case geojson.GeometryPolygon:
		return len(g.Polygon) == 0 || len(g.Polygon[0]) == 0
	case geojson.GeometryMultiPolygon:
		return len(g.MultiPolygon) == 0
	}
	return false
}

func validateDates(startDate, endDate string) error {
	if startDate == "" || endDate == "" {
		return nil
	}
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return fmt.Errorf("%w: bad start_date %q", ErrInvalidDateRange, startDate)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return fmt.Errorf("%w: bad end_date %q", ErrInvalidDateRange, endDate)
	}
	if start.After(end) {
		return ErrInvalidDateRange
	}
	return nil
}
