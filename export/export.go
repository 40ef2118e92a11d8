package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"crop-analysis-service/models"

	geojson "github.com/paulmach/go.geojson"
)

var csvHeader = []string{"Crop Type", "Area (Hectares)", "Percentage", "Confidence"}

// ToCSV renders a crop distribution as a CSV document and returns the
// bytes together with a download filename derived from the region name.
func ToCSV(distribution map[string]models.CropShare, regionName string) ([]byte, string, error) {
	if len(distribution) == 0 {
		return nil, "", fmt.Errorf("no crop distribution to export")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, label := range orderedLabels(distribution) {
		share := distribution[label]
		record := []string{
			label,
			strconv.FormatFloat(share.AreaHa, 'f', 2, 64),
			strconv.FormatFloat(share.Percentage, 'f', 2, 64),
			strconv.FormatFloat(share.Confidence, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, "", fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), Filename(regionName), nil
}

// Filename builds the export attachment name: region with spaces
// collapsed to underscores plus a timestamp.
func Filename(regionName string) string {
	name := strings.TrimSpace(regionName)
	if name == "" {
		name = "analysis"
	}
	name = strings.ReplaceAll(name, " ", "_")
	return fmt.Sprintf("%s_%s.csv", name, time.Now().Format("20060102_150405"))
}

// orderedLabels lists distribution keys in fixed class order, with any
// unknown labels sorted at the end so output stays deterministic.
func orderedLabels(distribution map[string]models.CropShare) []string {
	known := make(map[string]bool, models.NumClasses)
	labels := make([]string, 0, len(distribution))
	for _, label := range models.CropLabels {
		known[label] = true
		if _, ok := distribution[label]; ok {
			labels = append(labels, label)
		}
	}
	var extra []string
	for label := range distribution {
		if !known[label] {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)
	return append(labels, extra...)
}

// ToGeoJSON wraps a geometry and its analysis properties into a
// downloadable GeoJSON Feature. The geometry passes through untouched.
func ToGeoJSON(geometry *geojson.Geometry, properties map[string]interface{}) *geojson.Feature {
	feature := geojson.NewFeature(geometry)
	if properties != nil {
		feature.Properties = properties
	}
	return feature
}
