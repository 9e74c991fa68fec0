package scene

import (
	"math"
	"strconv"
	"strings"

	"github.com/mkungen89/rterrain/internal/config"
	"github.com/mkungen89/rterrain/internal/geo"
	"github.com/mkungen89/rterrain/internal/osm"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rs/zerolog/log"
)

// Builder converts fetched features into scene geometry. Pure over its
// inputs; safe to use from multiple goroutines on disjoint feature sets.
type Builder struct {
	tr  *geo.Transformer
	cfg config.Geometry
}

// NewBuilder creates a builder using the given transformer and constants.
func NewBuilder(tr *geo.Transformer, cfg config.Geometry) *Builder {
	return &Builder{tr: tr, cfg: cfg}
}

// Build converts a feature collection into a scene. Features with degenerate
// geometry are dropped and counted in the summary.
func (b *Builder) Build(fc *osm.FeatureCollection) (*Scene, Summary) {
	scene := &Scene{}
	var sum Summary

	for _, w := range fc.Ways {
		switch {
		case w.Tags["building"] != "":
			if bld, ok := b.building(w); ok {
				scene.Buildings = append(scene.Buildings, bld)
			} else {
				sum.Dropped++
			}
		case w.Tags["power"] == "line":
			if c, ok := b.cable(w); ok {
				scene.Cables = append(scene.Cables, c)
			} else {
				sum.Dropped++
			}
		case w.Tags["highway"] != "" || w.Tags["railway"] != "" ||
			w.Tags["waterway"] != "" || w.Tags["barrier"] != "":
			if p, ok := b.path(w); ok {
				scene.Paths = append(scene.Paths, p)
			} else {
				sum.Dropped++
			}
		case w.Tags["landuse"] != "" || w.Tags["natural"] != "":
			if a, ok := b.area(w); ok {
				scene.Areas = append(scene.Areas, a)
			} else {
				sum.Dropped++
			}
		}
	}

	for _, n := range fc.Nodes {
		if p, ok := b.pointFeature(n); ok {
			scene.Points = append(scene.Points, p)
		}
	}

	sum.Buildings = len(scene.Buildings)
	sum.Paths = len(scene.Paths)
	sum.Cables = len(scene.Cables)
	sum.Areas = len(scene.Areas)
	sum.Points = len(scene.Points)

	log.Info().
		Int("buildings", sum.Buildings).
		Int("paths", sum.Paths).
		Int("cables", sum.Cables).
		Int("areas", sum.Areas).
		Int("points", sum.Points).
		Int("dropped", sum.Dropped).
		Msg("Scene geometry built")

	return scene, sum
}

func (b *Builder) transformAll(pts []osm.LatLon) []geo.Vec3 {
	out := make([]geo.Vec3, len(pts))
	for i, p := range pts {
		out[i] = b.tr.ToLocal(p.Lat, p.Lon)
	}
	return out
}

func (b *Builder) building(w osm.Way) (Building, bool) {
	if len(w.Geometry) < 3 {
		return Building{}, false
	}

	footprint := b.transformAll(w.Geometry)

	ring := make(orb.Ring, len(footprint))
	for i, p := range footprint {
		ring[i] = orb.Point{p.X, p.Y}
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}

	centroid, _ := planar.CentroidArea(ring)
	var zSum float64
	for _, p := range footprint {
		zSum += p.Z
	}

	levels := 1
	if v, err := strconv.Atoi(w.Tags["building:levels"]); err == nil && v > 0 {
		levels = v
	}

	return Building{
		ID:          w.ID,
		Kind:        w.Tags["building"],
		Name:        w.Tags["name"],
		Footprint:   footprint,
		Position:    geo.Vec3{X: centroid[0], Y: centroid[1], Z: zSum / float64(len(footprint))},
		RotationDeg: longestEdgeBearing(footprint),
		Height:      b.buildingHeight(w.Tags, levels),
		Levels:      levels,
		Tags:        w.Tags,
	}, true
}

// longestEdgeBearing returns the bearing in degrees [0, 360) of the longest
// footprint edge. Ties keep the first edge found in vertex order.
func longestEdgeBearing(pts []geo.Vec3) float64 {
	maxLen := 0.0
	bearing := 0.0
	for i := 0; i+1 < len(pts); i++ {
		dx := pts[i+1].X - pts[i].X
		dy := pts[i+1].Y - pts[i].Y
		l := math.Hypot(dx, dy)
		if l > maxLen {
			maxLen = l
			bearing = math.Atan2(dy, dx) * 180 / math.Pi
		}
	}
	return math.Mod(bearing+360, 360)
}

// buildingHeight resolves the height in engine units: explicit tag, then
// levels times the per-level constant, then the single-story default.
func (b *Builder) buildingHeight(tags osm.Tags, levels int) float64 {
	for _, key := range []string{"building:height", "height"} {
		if v, ok := tags[key]; ok {
			s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(v, "m"), " "))
			if h, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return h * b.tr.UnitScale()
			}
		}
	}
	if _, ok := tags["building:levels"]; ok {
		return float64(levels) * b.cfg.LevelHeight * b.tr.UnitScale()
	}
	return b.cfg.DefaultHeight * b.tr.UnitScale()
}

func (b *Builder) path(w osm.Way) (Path, bool) {
	if len(w.Geometry) < 2 {
		return Path{}, false
	}

	kind, category := pathKind(w.Tags)
	pts := b.transformAll(w.Geometry)

	lanes := 2
	if v, err := strconv.Atoi(w.Tags["lanes"]); err == nil && v > 0 {
		lanes = v
	}

	return Path{
		ID:            w.ID,
		Category:      category,
		Kind:          kind,
		Name:          w.Tags["name"],
		Points:        controlPoints(pts),
		Width:         b.pathWidth(w.Tags, category),
		Lanes:         lanes,
		PossiblySplit: w.PossiblySplit,
		Tags:          w.Tags,
	}, true
}

func pathKind(tags osm.Tags) (kind, category string) {
	switch {
	case tags["highway"] != "":
		return "road", tags["highway"]
	case tags["railway"] != "":
		return "railway", tags["railway"]
	case tags["waterway"] != "":
		return "waterway", tags["waterway"]
	default:
		return "barrier", tags["barrier"]
	}
}

// pathWidth resolves the width in engine units: explicit tag, then the
// category table, then the default.
func (b *Builder) pathWidth(tags osm.Tags, category string) float64 {
	if v, ok := tags["width"]; ok {
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(v, "m"), " "))
		if w, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return w * b.tr.UnitScale()
		}
	}
	if w, ok := b.cfg.RoadWidths[category]; ok {
		return w * b.tr.UnitScale()
	}
	return b.cfg.DefaultWidth * b.tr.UnitScale()
}

// controlPoints computes Hermite control data: each tangent is the
// normalized average of the incoming and outgoing edge directions (single
// edge at endpoints), scaled by half the adjacent segment length.
func controlPoints(pts []geo.Vec3) []PathPoint {
	out := make([]PathPoint, len(pts))
	for i, p := range pts {
		var dir geo.Vec3
		switch {
		case i == 0:
			dir = normalize(sub(pts[1], pts[0]))
		case i == len(pts)-1:
			dir = normalize(sub(pts[i], pts[i-1]))
		default:
			dir = normalize(add(normalize(sub(pts[i], pts[i-1])), normalize(sub(pts[i+1], pts[i]))))
		}

		var half float64
		if i < len(pts)-1 {
			half = dist(pts[i], pts[i+1]) / 2
		} else {
			half = dist(pts[i-1], pts[i]) / 2
		}

		out[i] = PathPoint{Position: p, Tangent: scale(dir, half)}
	}
	return out
}

func (b *Builder) cable(w osm.Way) (Cable, bool) {
	if len(w.Geometry) < 2 {
		return Cable{}, false
	}

	towers := b.transformAll(w.Geometry)
	spacing := b.cfg.CableSpacing * b.tr.UnitScale()

	var pts []geo.Vec3
	for i := 0; i+1 < len(towers); i++ {
		span := SagProfile(towers[i], towers[i+1], b.cfg.CableSagFactor, spacing)
		if i > 0 {
			span = span[1:] // joint point already emitted by previous span
		}
		pts = append(pts, span...)
	}

	voltage := 0.0
	if v, err := strconv.ParseFloat(w.Tags["voltage"], 64); err == nil {
		voltage = v
	}

	return Cable{
		ID:      w.ID,
		Towers:  towers,
		Points:  controlPoints(pts),
		Voltage: voltage,
		Tags:    w.Tags,
	}, true
}

// SagProfile interpolates a hanging cable between two anchors. The sag term
// -distance × sagFactor × sin(tπ) approximates a catenary without solving
// the hyperbolic form; it is exact at the anchors and deepest mid-span.
func SagProfile(a, b geo.Vec3, sagFactor, spacing float64) []geo.Vec3 {
	d := dist(a, b)

	n := 10
	if spacing > 0 {
		if m := int(d / spacing); m > n {
			n = m
		}
	}

	pts := make([]geo.Vec3, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		p := geo.Vec3{
			X: a.X + (b.X-a.X)*t,
			Y: a.Y + (b.Y-a.Y)*t,
			Z: a.Z + (b.Z-a.Z)*t - d*sagFactor*math.Sin(t*math.Pi),
		}
		pts = append(pts, p)
	}
	return pts
}

func (b *Builder) area(w osm.Way) (Area, bool) {
	if len(w.Geometry) < 3 {
		return Area{}, false
	}

	category := w.Tags["landuse"]
	if category == "" {
		category = w.Tags["natural"]
	}

	return Area{
		ID:       w.ID,
		Category: category,
		Ring:     b.transformAll(w.Geometry),
		Tags:     w.Tags,
	}, true
}

func (b *Builder) pointFeature(n osm.Node) (PointFeature, bool) {
	category := ""
	switch {
	case n.Tags["amenity"] != "":
		category = n.Tags["amenity"]
	case n.Tags["power"] != "":
		category = "power_" + n.Tags["power"]
	case n.Tags["highway"] != "":
		category = n.Tags["highway"]
	case n.Tags["barrier"] != "":
		category = n.Tags["barrier"]
	case n.Tags["shop"] != "":
		category = n.Tags["shop"]
	default:
		return PointFeature{}, false
	}

	return PointFeature{
		ID:       n.ID,
		Category: category,
		Name:     n.Tags["name"],
		Position: b.tr.ToLocal(n.Lat, n.Lon),
		Tags:     n.Tags,
	}, true
}

func sub(a, b geo.Vec3) geo.Vec3 { return geo.Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z} }
func add(a, b geo.Vec3) geo.Vec3 { return geo.Vec3{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z} }

func scale(v geo.Vec3, s float64) geo.Vec3 { return geo.Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s} }

func dist(a, b geo.Vec3) float64 {
	dx, dy, dz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func normalize(v geo.Vec3) geo.Vec3 {
	l := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if l == 0 {
		return geo.Vec3{}
	}
	return geo.Vec3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}
