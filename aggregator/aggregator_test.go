package aggregator

import (
	"math"
	"testing"

	"crop-analysis-service/models"

	geojson "github.com/paulmach/go.geojson"
)

// squareAtEquator is a 0.01 x 0.01 degree square, about 123.7 ha of
// geodesic area.
func squareAtEquator() *geojson.Geometry {
	return geojson.NewPolygonGeometry([][][]float64{{
		{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0},
	}})
}

func TestTotalAreaHa(t *testing.T) {
	testCases := []struct {
		name     string
		geometry *geojson.Geometry

		wantMin float64
		wantMax float64
	}{
		{
			name:     "Known square",
			geometry: squareAtEquator(),
			wantMin:  122.5,
			wantMax:  125.0,
		},
		{
			name: "Unclosed ring",
			geometry: geojson.NewPolygonGeometry([][][]float64{{
				{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01},
			}}),
			wantMin: 122.5,
			wantMax: 125.0,
		},
		{
			name:     "Point gets nominal footprint",
			geometry: geojson.NewPointGeometry([]float64{74.58, 18.15}),
			wantMin:  NominalAreaHa,
			wantMax:  NominalAreaHa,
		},
		{
			name:     "Nil geometry gets nominal footprint",
			geometry: nil,
			wantMin:  NominalAreaHa,
			wantMax:  NominalAreaHa,
		},
		{
			name: "Degenerate ring gets nominal footprint",
			geometry: geojson.NewPolygonGeometry([][][]float64{{
				{0, 0}, {0.01, 0},
			}}),
			wantMin: NominalAreaHa,
			wantMax: NominalAreaHa,
		},
		{
			name: "MultiPolygon sums parts",
			geometry: geojson.NewMultiPolygonGeometry(
				[][][]float64{{{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0}}},
				[][][]float64{{{1, 1}, {1.01, 1}, {1.01, 1.01}, {1, 1.01}, {1, 1}}},
			),
			wantMin: 245.0,
			wantMax: 250.0,
		},
	}

	for _, testCase := range testCases {
		area := TotalAreaHa(testCase.geometry)
		if area < testCase.wantMin || area > testCase.wantMax {
			t.Errorf("%s: area %v outside [%v, %v]", testCase.name, area, testCase.wantMin, testCase.wantMax)
		}
	}
}

func TestAggregate(t *testing.T) {
	probs := models.ClassProbabilities{0.5, 0.2, 0.2, 0.1}
	distribution, total, dominant := Aggregate(squareAtEquator(), probs)

	if dominant != "Paddy/Rice" {
		t.Errorf("dominant = %q, want Paddy/Rice", dominant)
	}
	if len(distribution) != models.NumClasses {
		t.Fatalf("distribution has %d classes, want %d", len(distribution), models.NumClasses)
	}

	var areaSum, pctSum float64
	for i := 0; i < models.NumClasses; i++ {
		label := models.CropLabels[i]
		share, ok := distribution[label]
		if !ok {
			t.Fatalf("distribution missing %q", label)
		}
		if share.Color != models.CropColors[i] {
			t.Errorf("%s: color %q, want %q", label, share.Color, models.CropColors[i])
		}
		if share.AreaHa < 0 {
			t.Errorf("%s: negative area %v", label, share.AreaHa)
		}
		if wantArea := total * probs[i]; math.Abs(share.AreaHa-wantArea) > 0.02 {
			t.Errorf("%s: area %v, want about %v", label, share.AreaHa, wantArea)
		}
		if wantPct := probs[i] * 100; math.Abs(share.Percentage-wantPct) > 0.02 {
			t.Errorf("%s: percentage %v, want about %v", label, share.Percentage, wantPct)
		}
		areaSum += share.AreaHa
		pctSum += share.Percentage
	}

	if math.Abs(areaSum-total) > 0.01 {
		t.Errorf("areas sum to %v, total is %v", areaSum, total)
	}
	if math.Abs(pctSum-100) > 0.1 {
		t.Errorf("percentages sum to %v, want 100", pctSum)
	}
}

func TestAggregateNominal(t *testing.T) {
	probs := models.ClassProbabilities{0.1, 0.2, 0.3, 0.4}
	distribution, total, dominant := Aggregate(nil, probs)

	if total != NominalAreaHa {
		t.Errorf("total = %v, want nominal %v", total, NominalAreaHa)
	}
	if dominant != "Fallow/Barren" {
		t.Errorf("dominant = %q, want Fallow/Barren", dominant)
	}
	if share := distribution["Fallow/Barren"]; math.Abs(share.AreaHa-10000) > 0.01 {
		t.Errorf("Fallow area = %v, want 10000", share.AreaHa)
	}
}

func TestAggregateTieBreak(t *testing.T) {
	probs := models.ClassProbabilities{0.3, 0.3, 0.2, 0.2}
	for i := 0; i < 10; i++ {
		_, _, dominant := Aggregate(nil, probs)
		if dominant != "Paddy/Rice" {
			t.Fatalf("tie-break picked %q, want first-declared Paddy/Rice", dominant)
		}
	}
}
