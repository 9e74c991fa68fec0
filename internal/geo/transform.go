package geo

import "math"

// Vec3 is a position in the local frame: X north, Y east, Z up,
// all in engine linear units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Transformer converts WGS84 coordinates to the local planar frame anchored
// at the bounding box's south-west corner. Elevation comes from bilinear
// sampling of the height raster. Pure and safe for concurrent use.
type Transformer struct {
	raster *HeightRaster
	bbox   BoundingBox
	origin Vec3

	unitsPerDegLon float64
	unitsPerDegLat float64
	unitScale      float64
}

// NewTransformer builds a transformer for the given box and raster.
// unitScale is engine units per meter (100 for a centimeter engine).
// origin is an optional offset added to every output position.
func NewTransformer(bbox BoundingBox, raster *HeightRaster, unitScale float64, origin Vec3) *Transformer {
	return &Transformer{
		raster:         raster,
		bbox:           bbox,
		origin:         origin,
		unitsPerDegLon: bbox.MetersPerDegreeLon() * unitScale,
		unitsPerDegLat: MetersPerDegreeLat * unitScale,
		unitScale:      unitScale,
	}
}

// UnitScale returns the configured engine units per meter.
func (t *Transformer) UnitScale() float64 { return t.unitScale }

// Bounds returns the transformer's bounding box.
func (t *Transformer) Bounds() BoundingBox { return t.bbox }

// ToLocal converts a geodetic coordinate to the local frame.
// Points outside the box are clamped before elevation sampling; use
// ClampDelta to reject points too far out.
func (t *Transformer) ToLocal(lat, lon float64) Vec3 {
	x := (lat-t.bbox.MinLat)*t.unitsPerDegLat + t.origin.X
	y := (lon-t.bbox.MinLon)*t.unitsPerDegLon + t.origin.Y
	z := t.GroundElevation(lat, lon) + t.origin.Z
	return Vec3{X: x, Y: y, Z: z}
}

// GroundElevation samples the height raster at the given coordinate and
// returns the elevation in engine units, without the origin offset.
func (t *Transformer) GroundElevation(lat, lon float64) float64 {
	u := (lat - t.bbox.MinLat) / (t.bbox.MaxLat - t.bbox.MinLat)
	v := (lon - t.bbox.MinLon) / (t.bbox.MaxLon - t.bbox.MinLon)

	elev := t.raster.SampleBilinear(u, v)
	if math.IsNaN(elev) {
		return 0
	}
	return elev * t.unitScale
}

// ClampDelta returns how far outside the box the point lies, in degrees.
// Zero means the point is inside.
func (t *Transformer) ClampDelta(lat, lon float64) float64 {
	d := 0.0
	switch {
	case lat < t.bbox.MinLat:
		d = t.bbox.MinLat - lat
	case lat > t.bbox.MaxLat:
		d = lat - t.bbox.MaxLat
	}
	switch {
	case lon < t.bbox.MinLon && t.bbox.MinLon-lon > d:
		d = t.bbox.MinLon - lon
	case lon > t.bbox.MaxLon && lon-t.bbox.MaxLon > d:
		d = lon - t.bbox.MaxLon
	}
	return d
}
