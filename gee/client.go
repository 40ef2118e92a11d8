package gee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crop-analysis-service/models"

	geojson "github.com/paulmach/go.geojson"
)

const (
	earthEngineEndpoint = "https://earthengine.googleapis.com/v1"

	// Sentinel-2 surface reflectance, harmonized collection.
	sentinel2Collection = "COPERNICUS/S2_SR_HARMONIZED"

	// Scenes with more cloud cover than this are excluded from the window.
	maxCloudyPixelPercent = 20

	// Reduction scale in meters per pixel.
	reduceScaleMeters = 30

	// Remote calls must never stall a request indefinitely.
	requestTimeout = 30 * time.Second
)

// Client talks to the Earth Engine REST API. The zero credentials case
// is valid: Enabled reports false and callers switch to simulated data.
type Client struct {
	serviceAccount string
	privateKey     string
	client         *http.Client
}

func NewClient(serviceAccount, privateKey string) *Client {
	return &Client{
		serviceAccount: serviceAccount,
		privateKey:     privateKey,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Enabled reports whether remote imagery credentials are configured.
func (c *Client) Enabled() bool {
	return c.serviceAccount != "" && c.privateKey != ""
}

type ndviComputeRequest struct {
	Collection      string            `json:"collection"`
	StartDate       string            `json:"start_date"`
	EndDate         string            `json:"end_date"`
	MaxCloudPercent int               `json:"max_cloud_percent"`
	Bands           [2]string         `json:"bands"`
	Reducers        []string          `json:"reducers"`
	ScaleMeters     int               `json:"scale_meters"`
	Geometry        *geojson.Geometry `json:"geometry"`
}

type ndviComputeResponse struct {
	NDVI struct {
		Mean float64 `json:"mean"`
		P25  float64 `json:"p25"`
		P50  float64 `json:"p50"`
		P75  float64 `json:"p75"`
	} `json:"ndvi"`
	ImageCount int `json:"image_count"`
}

// NDVIStatistics queries the imagery service for NDVI summary
// statistics over the geometry and date window.
func (c *Client) NDVIStatistics(ctx context.Context, geometry *geojson.Geometry, startDate, endDate string) (*models.NDVIStats, error) {
	reqBody := ndviComputeRequest{
		Collection:      sentinel2Collection,
		StartDate:       startDate,
		EndDate:         endDate,
		MaxCloudPercent: maxCloudyPixelPercent,
		Bands:           [2]string{"B8", "B4"},
		Reducers:        []string{"mean", "p25", "p50", "p75"},
		ScaleMeters:     reduceScaleMeters,
		Geometry:        geometry,
	}

	var result ndviComputeResponse
	if err := c.post(ctx, "/ndvi:compute", &reqBody, &result); err != nil {
		return nil, err
	}

	return &models.NDVIStats{
		Success:      true,
		MeanNDVI:     result.NDVI.Mean,
		Percentile25: result.NDVI.P25,
		Percentile50: result.NDVI.P50,
		Percentile75: result.NDVI.P75,
		ImageCount:   result.ImageCount,
		StartDate:    startDate,
		EndDate:      endDate,
	}, nil
}

// TileLayer is a reference to a rendered NDVI map layer the frontend
// can overlay directly.
type TileLayer struct {
	TileURL     string `json:"tile_url"`
	Attribution string `json:"attribution"`
}

type mapComputeRequest struct {
	Collection      string            `json:"collection"`
	StartDate       string            `json:"start_date"`
	EndDate         string            `json:"end_date"`
	MaxCloudPercent int               `json:"max_cloud_percent"`
	Bands           [2]string         `json:"bands"`
	Palette         []string          `json:"palette"`
	Geometry        *geojson.Geometry `json:"geometry"`
}

type mapComputeResponse struct {
	Name    string `json:"name"`
	TileURL string `json:"tile_url"`
}

// NDVITileLayer requests a rendered NDVI tile layer for the geometry
// and window. Requires credentials; there is no simulated equivalent.
func (c *Client) NDVITileLayer(ctx context.Context, geometry *geojson.Geometry, startDate, endDate string) (*TileLayer, error) {
	reqBody := mapComputeRequest{
		Collection:      sentinel2Collection,
		StartDate:       startDate,
		EndDate:         endDate,
		MaxCloudPercent: maxCloudyPixelPercent,
		Bands:           [2]string{"B8", "B4"},
		Palette:         []string{"#d73027", "#fee08b", "#1a9850"},
		Geometry:        geometry,
	}

	var result mapComputeResponse
	if err := c.post(ctx, "/maps:compute", &reqBody, &result); err != nil {
		return nil, err
	}
	if result.TileURL == "" {
		return nil, fmt.Errorf("map compute returned no tile URL")
	}

	return &TileLayer{
		TileURL:     result.TileURL,
		Attribution: "Sentinel-2 imagery via Google Earth Engine",
	}, nil
}

func (c *Client) post(ctx context.Context, path string, reqBody, result interface{}) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		earthEngineEndpoint+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.privateKey)
	req.Header.Set("X-Goog-Service-Account", c.serviceAccount)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
