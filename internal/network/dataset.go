package network

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nvuppala/route-planner-service/internal/models"
)

// Dataset is the static road-network configuration loaded at startup:
// city coordinates plus the directed adjacency with raw edge attributes.
type Dataset struct {
	Cities map[string]models.Coordinate                `yaml:"cities"`
	Roads  map[string]map[string]models.EdgeAttributes `yaml:"roads"`
}

// LoadDataset reads and validates the network dataset from a YAML file.
// Absent traffic_min/weather_min default to 0 and absent risk to 1.0,
// resolved here once rather than on every read.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("dataset file not found: %s", path)
		}
		return nil, fmt.Errorf("read dataset file: %w", err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset file: %w", err)
	}

	if err := ds.validate(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return &ds, nil
}

// validate enforces the load-time invariants: every edge endpoint is a known
// city, distances and delays are non-negative, and risk (after defaulting)
// is at least 1. Route requests do not re-validate these.
func (d *Dataset) validate() error {
	if len(d.Cities) == 0 {
		return fmt.Errorf("no cities defined")
	}
	for from, neighbors := range d.Roads {
		if _, ok := d.Cities[from]; !ok {
			return fmt.Errorf("edge source %q is not a known city", from)
		}
		for to, attrs := range neighbors {
			if _, ok := d.Cities[to]; !ok {
				return fmt.Errorf("edge %q -> %q references unknown city", from, to)
			}
			if attrs.DistanceKm < 0 {
				return fmt.Errorf("edge %q -> %q has negative distance_km", from, to)
			}
			if attrs.TrafficMin < 0 || attrs.WeatherMin < 0 {
				return fmt.Errorf("edge %q -> %q has negative delay", from, to)
			}
			if attrs.Risk == 0 {
				attrs.Risk = 1.0
				neighbors[to] = attrs
			}
			if attrs.Risk < 1.0 {
				return fmt.Errorf("edge %q -> %q has risk %.3f below 1.0", from, to, attrs.Risk)
			}
		}
	}
	return nil
}
