// Package geo handles geographic data structures and coordinate conversions.
package geo

import (
	"fmt"
	"math"
)

// Meters per degree at the equator. Longitude shrinks with cos(latitude),
// latitude is treated as constant.
const (
	MetersPerDegreeLonEquator = 111320.0
	MetersPerDegreeLat        = 110540.0
)

// BoundingBox is a geodetic rectangle in WGS84 degrees.
type BoundingBox struct {
	MinLon float64 `yaml:"min_lon" json:"min_lon"`
	MinLat float64 `yaml:"min_lat" json:"min_lat"`
	MaxLon float64 `yaml:"max_lon" json:"max_lon"`
	MaxLat float64 `yaml:"max_lat" json:"max_lat"`
}

// Validate checks bounds ordering and coordinate ranges.
func (b BoundingBox) Validate() error {
	if b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("longitude out of range [-180, 180]: %g..%g", b.MinLon, b.MaxLon)
	}
	if b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("latitude out of range [-90, 90]: %g..%g", b.MinLat, b.MaxLat)
	}
	if b.MinLon >= b.MaxLon {
		return fmt.Errorf("min longitude %g must be less than max %g", b.MinLon, b.MaxLon)
	}
	if b.MinLat >= b.MaxLat {
		return fmt.Errorf("min latitude %g must be less than max %g", b.MinLat, b.MaxLat)
	}
	return nil
}

// CenterLat returns the central latitude of the box.
func (b BoundingBox) CenterLat() float64 {
	return (b.MinLat + b.MaxLat) / 2
}

// MetersPerDegreeLon returns the longitude scale at the box's central latitude.
func (b BoundingBox) MetersPerDegreeLon() float64 {
	return MetersPerDegreeLonEquator * math.Cos(b.CenterLat()*math.Pi/180)
}

// AreaKm2 returns the approximate planar area of the box in km².
func (b BoundingBox) AreaKm2() float64 {
	width := (b.MaxLon - b.MinLon) * b.MetersPerDegreeLon()
	height := (b.MaxLat - b.MinLat) * MetersPerDegreeLat
	return width * height / 1e6
}

// Contains reports whether the point lies inside the box.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}
