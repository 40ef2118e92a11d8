package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"crop-analysis-service/models"

	"github.com/apex/log"
)

// Service holds the static region hierarchy and crop-class metadata.
// Both are loaded once at startup and read-only afterwards, so they can
// be shared by concurrent requests without locking.
type Service struct {
	regionsFile string
	cropsFile   string

	regions *models.RegionCatalog
	crops   *models.CropMetadata
	loaded  bool
}

func NewService(regionsFile, cropsFile string) *Service {
	return &Service{
		regionsFile: regionsFile,
		cropsFile:   cropsFile,
	}
}

// Load reads and parses both catalog files.
func (s *Service) Load() error {
	regions := &models.RegionCatalog{}
	if err := readJSONFile(s.regionsFile, regions); err != nil {
		return fmt.Errorf("loading regions catalog: %w", err)
	}
	if len(regions.States) == 0 {
		return fmt.Errorf("regions catalog %s contains no states", s.regionsFile)
	}

	crops := &models.CropMetadata{}
	if err := readJSONFile(s.cropsFile, crops); err != nil {
		return fmt.Errorf("loading crop metadata: %w", err)
	}
	if len(crops.Crops) != models.NumClasses {
		return fmt.Errorf("crop metadata %s has %d classes, expected %d",
			s.cropsFile, len(crops.Crops), models.NumClasses)
	}

	s.regions = regions
	s.crops = crops
	s.loaded = true

	districts, talukas := 0, 0
	for _, st := range regions.States {
		districts += len(st.Districts)
		for _, d := range st.Districts {
			talukas += len(d.Talukas)
		}
	}
	log.Infof("Loaded region catalog: %d states, %d districts, %d talukas",
		len(regions.States), districts, talukas)

	return nil
}

func readJSONFile(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (s *Service) IsLoaded() bool {
	return s.loaded
}

func (s *Service) Regions() (*models.RegionCatalog, error) {
	if !s.loaded {
		return nil, fmt.Errorf("region catalog not loaded yet")
	}
	return s.regions, nil
}

func (s *Service) Crops() (*models.CropMetadata, error) {
	if !s.loaded {
		return nil, fmt.Errorf("crop metadata not loaded yet")
	}
	return s.crops, nil
}

// FindCenter looks a region name up across all hierarchy levels and
// returns its [lat, lon] center. The most specific level wins when
// names collide: taluka, then district, then state.
func (s *Service) FindCenter(name string) ([2]float64, bool) {
	if !s.loaded || name == "" {
		return [2]float64{}, false
	}
	for _, st := range s.regions.States {
		for _, d := range st.Districts {
			for _, t := range d.Talukas {
				if t.Name == name {
					return t.Center, true
				}
			}
		}
	}
	for _, st := range s.regions.States {
		for _, d := range st.Districts {
			if d.Name == name {
				return d.Center, true
			}
		}
	}
	for _, st := range s.regions.States {
		if st.Name == name {
			return st.Center, true
		}
	}
	return [2]float64{}, false
}
