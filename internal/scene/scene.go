// Package scene derives renderer-ready geometry from fetched map features:
// building footprints with orientation, smooth path curves, suspended cable
// profiles and point placements, all in the local frame.
package scene

import (
	"github.com/mkungen89/rterrain/internal/geo"
	"github.com/mkungen89/rterrain/internal/osm"
)

// Building is a placed building with footprint and orientation.
type Building struct {
	Tags        osm.Tags   `json:"tags,omitempty"`
	Kind        string     `json:"kind"`
	Name        string     `json:"name,omitempty"`
	Footprint   []geo.Vec3 `json:"footprint"`
	Position    geo.Vec3   `json:"position"`
	ID          int64      `json:"id"`
	RotationDeg float64    `json:"rotation_deg"`
	Height      float64    `json:"height"`
	Levels      int        `json:"levels"`
}

// PathPoint is one control point of a Hermite-style curve.
type PathPoint struct {
	Position geo.Vec3 `json:"position"`
	Tangent  geo.Vec3 `json:"tangent"`
}

// Path is a linear feature (road, railway, trail, waterway, fence) as curve
// control data.
type Path struct {
	Tags          osm.Tags    `json:"tags,omitempty"`
	Category      string      `json:"category"`
	Kind          string      `json:"kind"`
	Name          string      `json:"name,omitempty"`
	Points        []PathPoint `json:"points"`
	ID            int64       `json:"id"`
	Width         float64     `json:"width"`
	Lanes         int         `json:"lanes"`
	PossiblySplit bool        `json:"possibly_split,omitempty"`
}

// Cable is a suspended line between towers with a sagging curve profile.
type Cable struct {
	Tags    osm.Tags    `json:"tags,omitempty"`
	Towers  []geo.Vec3  `json:"towers"`
	Points  []PathPoint `json:"points"`
	ID      int64       `json:"id"`
	Voltage float64     `json:"voltage,omitempty"`
}

// Area is a closed region (land use, natural cover, water body).
type Area struct {
	Tags     osm.Tags   `json:"tags,omitempty"`
	Category string     `json:"category"`
	Ring     []geo.Vec3 `json:"ring"`
	ID       int64      `json:"id"`
}

// PointFeature is a single placed object with a category and optional name.
type PointFeature struct {
	Tags     osm.Tags `json:"tags,omitempty"`
	Category string   `json:"category"`
	Name     string   `json:"name,omitempty"`
	Position geo.Vec3 `json:"position"`
	ID       int64    `json:"id"`
}

// Scene is the complete derived geometry for one export.
type Scene struct {
	Buildings []Building     `json:"buildings"`
	Paths     []Path         `json:"paths"`
	Cables    []Cable        `json:"cables"`
	Areas     []Area         `json:"areas"`
	Points    []PointFeature `json:"points"`
}

// Summary reports conversion diagnostics. Degenerate features are dropped
// and counted here, never surfaced as errors.
type Summary struct {
	Buildings int `json:"buildings"`
	Paths     int `json:"paths"`
	Cables    int `json:"cables"`
	Areas     int `json:"areas"`
	Points    int `json:"points"`
	Dropped   int `json:"dropped"`
}
