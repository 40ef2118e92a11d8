package aggregator

import (
	"math"

	"crop-analysis-service/models"

	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"
	"github.com/shopspring/decimal"
)

const (
	// Substitute footprint when the geometry has no computable area
	// (point selections, degenerate polygons, missing geometry).
	NominalAreaHa = 25000.0

	earthRadiusMeters = 6371008.8
	sqMetersPerHa     = 10000.0
)

// TotalAreaHa computes the geodesic area of the geometry in hectares on
// the S2 sphere. Geometries without a computable area get the nominal
// footprint.
func TotalAreaHa(geometry *geojson.Geometry) float64 {
	if geometry == nil {
		return NominalAreaHa
	}

	var steradians float64
	switch geometry.Type {
	case geojson.GeometryPolygon:
		steradians = ringArea(outerRing(geometry.Polygon))
	case geojson.GeometryMultiPolygon:
		for _, polygon := range geometry.MultiPolygon {
			steradians += ringArea(outerRing(polygon))
		}
	default:
		return NominalAreaHa
	}

	areaHa := steradians * earthRadiusMeters * earthRadiusMeters / sqMetersPerHa
	if math.IsNaN(areaHa) || areaHa <= 0 {
		return NominalAreaHa
	}
	return areaHa
}

func outerRing(polygon [][][]float64) [][]float64 {
	if len(polygon) == 0 {
		return nil
	}
	return polygon[0]
}

// ringArea returns the spherical area of one ring in steradians.
// Coordinates are GeoJSON [lon, lat] pairs with the first vertex
// optionally repeated at the end.
func ringArea(ring [][]float64) float64 {
	if len(ring) > 1 {
		first, last := ring[0], ring[len(ring)-1]
		if len(first) >= 2 && len(last) >= 2 && first[0] == last[0] && first[1] == last[1] {
			ring = ring[:len(ring)-1]
		}
	}
	if len(ring) < 3 {
		return 0
	}

	points := make([]s2.Point, 0, len(ring))
	for _, coord := range ring {
		if len(coord) < 2 {
			return 0
		}
		points = append(points, s2.PointFromLatLng(s2.LatLngFromDegrees(coord[1], coord[0])))
	}

	loop := s2.LoopFromPoints(points)
	loop.Normalize()
	return loop.Area()
}

// Aggregate distributes the geometry's area across crop classes in
// proportion to the classifier probabilities. The last class absorbs
// the rounding remainder so areas sum to the total and percentages sum
// to 100 exactly.
func Aggregate(geometry *geojson.Geometry, probs models.ClassProbabilities) (map[string]models.CropShare, float64, string) {
	total := round2(TotalAreaHa(geometry))

	dominant := 0
	for i := 1; i < models.NumClasses; i++ {
		if probs[i] > probs[dominant] {
			dominant = i
		}
	}

	distribution := make(map[string]models.CropShare, models.NumClasses)
	var areaSoFar, pctSoFar float64
	for i := 0; i < models.NumClasses; i++ {
		var area, pct float64
		if i == models.NumClasses-1 {
			area = math.Max(0, round2(total-areaSoFar))
			pct = math.Max(0, round2(100-pctSoFar))
		} else {
			area = round2(total * probs[i])
			pct = round2(probs[i] * 100)
			areaSoFar += area
			pctSoFar += pct
		}
		distribution[models.CropLabels[i]] = models.CropShare{
			AreaHa:     area,
			Percentage: pct,
			Color:      models.CropColors[i],
			Confidence: round2(probs[i]),
		}
	}

	return distribution, total, models.CropLabels[dominant]
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
