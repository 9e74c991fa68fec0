// Package config handles configuration loading and shared tunables.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can express values as "1s" or "500ms".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Fetch controls the Overpass acquisition loop.
type Fetch struct {
	// Densities maps feature categories to estimated nodes per km².
	Densities   map[string]float64 `yaml:"densities,omitempty"`
	Endpoint    string             `yaml:"endpoint,omitempty"`
	NodeLimit   int                `yaml:"node_limit,omitempty"` // server-side cap per request
	Timeout     Duration           `yaml:"timeout,omitempty"`
	RateDelay   Duration           `yaml:"rate_delay,omitempty"` // minimum delay between chunk requests
	RetryDelay  Duration           `yaml:"retry_delay,omitempty"`
	MaxAttempts int                `yaml:"max_attempts,omitempty"`
	SafetyScale float64            `yaml:"safety_scale,omitempty"` // estimate margin
}

// Geometry controls derived geometry constants.
type Geometry struct {
	// RoadWidths maps highway categories to widths in meters.
	RoadWidths     map[string]float64 `yaml:"road_widths,omitempty"`
	UnitScale      float64            `yaml:"unit_scale,omitempty"` // engine units per meter
	LevelHeight    float64            `yaml:"level_height,omitempty"`
	DefaultHeight  float64            `yaml:"default_height,omitempty"`
	DefaultWidth   float64            `yaml:"default_width,omitempty"`
	CableSagFactor float64            `yaml:"cable_sag_factor,omitempty"`
	CableSpacing   float64            `yaml:"cable_spacing,omitempty"` // meters between interpolated points
	OriginX        float64            `yaml:"origin_x,omitempty"`
	OriginY        float64            `yaml:"origin_y,omitempty"`
	OriginZ        float64            `yaml:"origin_z,omitempty"`
}

// Config represents the root configuration file structure.
type Config struct {
	Fetch    Fetch    `yaml:"fetch,omitempty"`
	Geometry Geometry `yaml:"geometry,omitempty"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Fetch: Fetch{
			Endpoint:    "https://overpass-api.de/api/interpreter",
			NodeLimit:   50000,
			Timeout:     Duration(180 * time.Second),
			RateDelay:   Duration(time.Second),
			RetryDelay:  Duration(2 * time.Second),
			MaxAttempts: 3,
			SafetyScale: 1.3,
			Densities: map[string]float64{
				"roads":            500,
				"buildings":        2000,
				"power_lines":      300,
				"railways":         100,
				"water":            200,
				"poi":              500,
				"street_furniture": 1000,
				"landuse":          300,
				"natural":          200,
				"barriers":         400,
			},
		},
		Geometry: Geometry{
			UnitScale:      100, // centimeters
			LevelHeight:    3.0,
			DefaultHeight:  3.0,
			DefaultWidth:   5.0,
			CableSagFactor: 0.03,
			CableSpacing:   10.0,
			RoadWidths: map[string]float64{
				"motorway":    12.0,
				"trunk":       10.0,
				"primary":     8.0,
				"secondary":   7.0,
				"tertiary":    6.0,
				"residential": 5.0,
				"service":     3.5,
				"track":       3.0,
				"path":        1.5,
				"footway":     1.5,
				"cycleway":    2.0,
			},
		},
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.Fetch.SafetyScale <= 0 {
		cfg.Fetch.SafetyScale = 1.3
	}
	if cfg.Fetch.NodeLimit <= 0 {
		cfg.Fetch.NodeLimit = 50000
	}
	if cfg.Geometry.UnitScale <= 0 {
		cfg.Geometry.UnitScale = 100
	}

	return cfg, nil
}
