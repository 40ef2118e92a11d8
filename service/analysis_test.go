package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"crop-analysis-service/extractor"
	"crop-analysis-service/models"

	geojson "github.com/paulmach/go.geojson"
)

type offlineImagery struct{}

func (offlineImagery) Enabled() bool { return false }

func (offlineImagery) NDVIStatistics(context.Context, *geojson.Geometry, string, string) (*models.NDVIStats, error) {
	return nil, errors.New("not reachable")
}

type fixedClassifier struct {
	probs models.ClassProbabilities
	err   error
}

func (f fixedClassifier) Classify(models.FeatureVector) (models.ClassProbabilities, error) {
	return f.probs, f.err
}

type centerTable map[string][2]float64

func (t centerTable) FindCenter(name string) ([2]float64, bool) {
	center, ok := t[name]
	return center, ok
}

func newTestService(probs models.ClassProbabilities) *AnalysisService {
	return NewAnalysisService(extractor.New(offlineImagery{}), fixedClassifier{probs: probs}, centerTable{})
}

func squareAtEquator() *geojson.Geometry {
	return geojson.NewPolygonGeometry([][][]float64{{
		{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0},
	}})
}

func TestAnalyzeValidation(t *testing.T) {
	s := newTestService(models.ClassProbabilities{0.25, 0.25, 0.25, 0.25})

	testCases := []struct {
		name string
		req  *models.AnalyzeRequest

		wantErr error
	}{
		{
			name:    "Missing geometry",
			req:     &models.AnalyzeRequest{},
			wantErr: ErrNoGeometry,
		},
		{
			name: "Empty polygon",
			req: &models.AnalyzeRequest{
				Geometry: geojson.NewPolygonGeometry([][][]float64{}),
			},
			wantErr: ErrNoGeometry,
		},
		{
			name: "Start after end",
			req: &models.AnalyzeRequest{
				Geometry:  squareAtEquator(),
				StartDate: "2024-09-01",
				EndDate:   "2024-06-01",
			},
			wantErr: ErrInvalidDateRange,
		},
		{
			name: "Unparseable start date",
			req: &models.AnalyzeRequest{
				Geometry:  squareAtEquator(),
				StartDate: "01-06-2024",
				EndDate:   "2024-09-01",
			},
			wantErr: ErrInvalidDateRange,
		},
	}

	for _, testCase := range testCases {
		_, err := s.Analyze(context.Background(), testCase.req)
		if !errors.Is(err, testCase.wantErr) {
			t.Errorf("%s: got error %v, want %v", testCase.name, err, testCase.wantErr)
		}
	}
}

func TestAnalyzeKnownDistribution(t *testing.T) {
	probs := models.ClassProbabilities{0.5, 0.2, 0.2, 0.1}
	s := newTestService(probs)

	result, err := s.Analyze(context.Background(), &models.AnalyzeRequest{
		Geometry:   squareAtEquator(),
		StartDate:  "2024-06-01",
		EndDate:    "2024-08-30",
		RegionName: "Test Square",
	})
	if err != nil {
		t.Fatalf("Analyze: unexpected error: %v", err)
	}

	if !result.Success {
		t.Error("result not marked successful")
	}
	if result.RegionName != "Test Square" {
		t.Errorf("region name %q, want Test Square", result.RegionName)
	}
	if result.DominantCrop != "Paddy/Rice" {
		t.Errorf("dominant crop %q, want Paddy/Rice", result.DominantCrop)
	}
	if math.Abs(result.Confidence-0.5) > 1e-9 {
		t.Errorf("confidence %v, want 0.5", result.Confidence)
	}

	var areaSum float64
	for i := 0; i < models.NumClasses; i++ {
		label := models.CropLabels[i]
		share := result.CropDistribution[label]
		if want := result.TotalAreaHa * probs[i]; math.Abs(share.AreaHa-want) > 0.02 {
			t.Errorf("%s: area %v, want about %v", label, share.AreaHa, want)
		}
		areaSum += share.AreaHa
	}
	if math.Abs(areaSum-result.TotalAreaHa) > 0.01 {
		t.Errorf("areas sum to %v, total is %v", areaSum, result.TotalAreaHa)
	}

	if len(result.AllProbabilities) != models.NumClasses {
		t.Errorf("all_probabilities has %d entries, want %d",
			len(result.AllProbabilities), models.NumClasses)
	}
	if p := result.AllProbabilities["Paddy/Rice"]; p.Probability != 0.5 || p.Color != "#2ecc71" {
		t.Errorf("Paddy probability entry = %+v", p)
	}
}

func TestAnalyzeDemoModeFlags(t *testing.T) {
	s := newTestService(models.ClassProbabilities{0.25, 0.25, 0.25, 0.25})

	result, err := s.Analyze(context.Background(), &models.AnalyzeRequest{
		Geometry: squareAtEquator(),
	})
	if err != nil {
		t.Fatalf("Analyze: unexpected error: %v", err)
	}

	if !result.DemoMode {
		t.Error("demo_mode false without imagery credentials")
	}
	if result.Warning != DemoWarning {
		t.Errorf("warning = %q, want the demo warning", result.Warning)
	}
	if result.NDVIData == nil || !result.NDVIData.DemoMode {
		t.Error("NDVI stats not flagged as simulated")
	}
}

func TestAnalyzeDefaults(t *testing.T) {
	s := newTestService(models.ClassProbabilities{0.25, 0.25, 0.25, 0.25})

	result, err := s.Analyze(context.Background(), &models.AnalyzeRequest{
		Geometry: squareAtEquator(),
	})
	if err != nil {
		t.Fatalf("Analyze: unexpected error: %v", err)
	}

	if result.RegionName != "Selected Region" {
		t.Errorf("region name %q, want default Selected Region", result.RegionName)
	}
	if len(result.Center) != 2 || result.Center[0] != 20.5937 || result.Center[1] != 78.9629 {
		t.Errorf("center = %v, want India default", result.Center)
	}
}

func TestAnalyzeCenterFromCatalog(t *testing.T) {
	s := NewAnalysisService(extractor.New(offlineImagery{}),
		fixedClassifier{probs: models.ClassProbabilities{0.25, 0.25, 0.25, 0.25}},
		centerTable{"Pune": {18.5204, 73.8567}})

	result, err := s.Analyze(context.Background(), &models.AnalyzeRequest{
		Geometry:   squareAtEquator(),
		RegionName: "Pune",
	})
	if err != nil {
		t.Fatalf("Analyze: unexpected error: %v", err)
	}
	if len(result.Center) != 2 || result.Center[0] != 18.5204 || result.Center[1] != 73.8567 {
		t.Errorf("center = %v, want the Pune catalog center", result.Center)
	}

	result, err = s.Analyze(context.Background(), &models.AnalyzeRequest{
		Geometry: squareAtEquator(),
		Center:   []float64{19.0, 74.0},
	})
	if err != nil {
		t.Fatalf("Analyze: unexpected error: %v", err)
	}
	if result.Center[0] != 19.0 {
		t.Errorf("center = %v, want the request center echoed", result.Center)
	}
}

func TestAnalyzeClassifierError(t *testing.T) {
	s := NewAnalysisService(extractor.New(offlineImagery{}),
		fixedClassifier{err: errors.New("model exploded")}, centerTable{})

	_, err := s.Analyze(context.Background(), &models.AnalyzeRequest{
		Geometry: squareAtEquator(),
	})
	if err == nil {
		t.Fatal("expected error when classifier fails")
	}
	if errors.Is(err, ErrNoGeometry) || errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("classifier failure mapped to client error: %v", err)
	}
}
