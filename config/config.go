package config

import (
	"os"
)

// Config holds all configuration for the crop analysis service
type Config struct {
	// Server configuration
	Port string

	// Earth Engine credentials; both must be set for live imagery,
	// otherwise the service runs in demo mode.
	GEEServiceAccount string
	GEEPrivateKey     string

	// Data files
	RegionsFile string
	CropsFile   string
	ModelFile   string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Earth Engine defaults (empty = demo mode)
		GEEServiceAccount: getEnv("GEE_SERVICE_ACCOUNT", ""),
		GEEPrivateKey:     getEnv("GEE_PRIVATE_KEY", ""),

		// Data file defaults
		RegionsFile: getEnv("REGIONS_FILE", "data/regions.json"),
		CropsFile:   getEnv("CROP_DATA_FILE", "data/crop_data.json"),
		ModelFile:   getEnv("MODEL_FILE", "data/crop_classifier.json"),
	}
}

// DemoMode reports whether the service runs without live imagery.
func (c *Config) DemoMode() bool {
	return c.GEEServiceAccount == "" || c.GEEPrivateKey == ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
