package extractor

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math/rand"
	"time"

	"crop-analysis-service/metrics"
	"crop-analysis-service/models"

	"github.com/apex/log"
	geojson "github.com/paulmach/go.geojson"
)

// Source tells callers whether features came from live imagery or from
// the simulated distribution, without string-matching warning text.
type Source string

const (
	SourceLive      Source = "live"
	SourceSimulated Source = "simulated"
)

const (
	// Default window when the caller omits dates.
	defaultWindowDays = 90

	dateLayout = "2006-01-02"
)

// Extraction is the typed outcome of one feature extraction. Reason is
// set only for simulated results and names why the live path was not
// taken.
type Extraction struct {
	Features models.FeatureVector
	Stats    models.NDVIStats
	Source   Source
	Reason   string
}

// ImageryClient is the remote imagery surface the extractor needs.
type ImageryClient interface {
	Enabled() bool
	NDVIStatistics(ctx context.Context, geometry *geojson.Geometry, startDate, endDate string) (*models.NDVIStats, error)
}

type Extractor struct {
	imagery ImageryClient
}

func New(imagery ImageryClient) *Extractor {
	return &Extractor{imagery: imagery}
}

// Extract produces the NDVI feature vector for a geometry and window.
// Remote failures are never surfaced: the extractor degrades to the
// simulated path and records the reason on the outcome.
func (e *Extractor) Extract(ctx context.Context, geometry *geojson.Geometry, startDate, endDate string) *Extraction {
	if endDate == "" {
		endDate = time.Now().Format(dateLayout)
	}
	if startDate == "" {
		startDate = time.Now().AddDate(0, 0, -defaultWindowDays).Format(dateLayout)
	}

	if !e.imagery.Enabled() {
		return e.simulate(geometry, startDate, endDate, "imagery credentials not configured")
	}

	stats, err := e.imagery.NDVIStatistics(ctx, geometry, startDate, endDate)
	if err != nil {
		metrics.ImageryRequestTotal.WithLabelValues("error").Inc()
		log.Errorf("Remote NDVI query failed, falling back to simulated data: %v", err)
		return e.simulate(geometry, startDate, endDate, err.Error())
	}
	metrics.ImageryRequestTotal.WithLabelValues("ok").Inc()

	return &Extraction{
		Features: featuresFromStats(stats),
		Stats:    *stats,
		Source:   SourceLive,
	}
}

// simulate draws plausible NDVI statistics from a fixed synthetic
// distribution. The seed derives from the geometry so repeated analyses
// of the same region agree with each other.
func (e *Extractor) simulate(geometry *geojson.Geometry, startDate, endDate, reason string) *Extraction {
	r := rand.New(rand.NewSource(geometrySeed(geometry)))

	base := 0.4 + r.Float64()*0.3
	stats := models.NDVIStats{
		Success:      true,
		DemoMode:     true,
		MeanNDVI:     base,
		Percentile25: clamp(base-0.15, 0.1, 1),
		Percentile50: base,
		Percentile75: clamp(base+0.15, 0, 0.9),
		ImageCount:   5 + r.Intn(11),
		StartDate:    startDate,
		EndDate:      endDate,
	}

	return &Extraction{
		Features: featuresFromStats(&stats),
		Stats:    stats,
		Source:   SourceSimulated,
		Reason:   reason,
	}
}

func featuresFromStats(stats *models.NDVIStats) models.FeatureVector {
	return models.FeatureVector{
		stats.MeanNDVI,
		stats.Percentile25,
		stats.Percentile50,
		stats.Percentile75,
		stats.Percentile75 - stats.Percentile25,
		float64(stats.ImageCount) / 10.0,
	}
}

func geometrySeed(geometry *geojson.Geometry) int64 {
	h := fnv.New32a()
	if geometry != nil {
		if data, err := json.Marshal(geometry); err == nil {
			h.Write(data)
		}
	}
	return int64(h.Sum32() % 1000)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
