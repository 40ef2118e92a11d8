package models

import (
	geojson "github.com/paulmach/go.geojson"
)

// Crop class indexes in the classifier's fixed output order.
const (
	ClassPaddy = iota
	ClassMillet
	ClassCash
	ClassFallow
	NumClasses
)

var (
	CropLabels = [NumClasses]string{"Paddy/Rice", "Millet/Pulses", "Cash Crops", "Fallow/Barren"}
	CropColors = [NumClasses]string{"#2ecc71", "#f39c12", "#8b4513", "#95a5a6"}
)

// NumFeatures is the length of the NDVI feature vector consumed by the
// classifier: mean, p25, p50, p75, range and scaled image count.
const NumFeatures = 6

type FeatureVector [NumFeatures]float64

type ClassProbabilities [NumClasses]float64

// NDVIStats summarizes the vegetation index over one analysis window.
type NDVIStats struct {
	Success      bool    `json:"success"`
	DemoMode     bool    `json:"demo_mode,omitempty"`
	MeanNDVI     float64 `json:"mean_ndvi"`
	Percentile25 float64 `json:"percentile_25"`
	Percentile50 float64 `json:"percentile_50"`
	Percentile75 float64 `json:"percentile_75"`
	ImageCount   int     `json:"image_count"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
}

type AnalyzeRequest struct {
	Geometry   *geojson.Geometry `json:"geometry"`
	Center     []float64         `json:"center"`
	StartDate  string            `json:"start_date"`
	EndDate    string            `json:"end_date"`
	RegionName string            `json:"region_name"`
}

// CropShare is one class' slice of the analyzed area.
type CropShare struct {
	AreaHa     float64 `json:"area_ha"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
	Confidence float64 `json:"confidence"`
}

type ClassProbability struct {
	Probability float64 `json:"probability"`
	Color       string  `json:"color"`
}

type AnalysisResult struct {
	Success          bool                        `json:"success"`
	RegionName       string                      `json:"region_name"`
	AnalysisDate     string                      `json:"analysis_date"`
	NDVIData         *NDVIStats                  `json:"ndvi_data"`
	DominantCrop     string                      `json:"dominant_crop"`
	Confidence       float64                     `json:"confidence"`
	TotalAreaHa      float64                     `json:"total_area_ha"`
	CropDistribution map[string]CropShare        `json:"crop_distribution"`
	AllProbabilities map[string]ClassProbability `json:"all_probabilities"`
	Center           []float64                   `json:"center"`
	DemoMode         bool                        `json:"demo_mode"`
	Warning          string                      `json:"warning,omitempty"`
}

type CropMapRequest struct {
	Geometry   *geojson.Geometry `json:"geometry"`
	StartDate  string            `json:"start_date"`
	EndDate    string            `json:"end_date"`
	RegionName string            `json:"region_name"`
}

type CropMapResponse struct {
	RegionName  string `json:"region_name"`
	TileURL     string `json:"tile_url"`
	Attribution string `json:"attribution"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type ExportCSVRequest struct {
	CropDistribution map[string]CropShare `json:"crop_distribution"`
	RegionName       string               `json:"region_name"`
}

type ExportGeoJSONRequest struct {
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	DemoMode       bool   `json:"demo_mode"`
	GEEInitialized bool   `json:"gee_initialized"`
	ModelLoaded    bool   `json:"model_loaded"`
	Timestamp      string `json:"timestamp"`
}

// Region catalog types, loaded once at startup from the regions file.

type Taluka struct {
	Name   string     `json:"name"`
	Center [2]float64 `json:"center"`
}

type District struct {
	Name    string     `json:"name"`
	Center  [2]float64 `json:"center"`
	Talukas []Taluka   `json:"talukas"`
}

type State struct {
	Name      string     `json:"name"`
	Center    [2]float64 `json:"center"`
	Districts []District `json:"districts"`
}

type RegionCatalog struct {
	States []State `json:"states"`
}

type CropInfo struct {
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

type CropMetadata struct {
	Crops []CropInfo `json:"crops"`
}
