package geo

import (
	"math"
	"testing"
)

func flatRaster(rows, cols int, elev float32) *HeightRaster {
	r := NewHeightRaster(rows, cols)
	for i := range r.Data {
		r.Data[i] = elev
	}
	return r
}

// haversine returns the great-circle distance in meters.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Asin(math.Sqrt(a))
}

func TestToLocalOriginCorner(t *testing.T) {
	bbox := BoundingBox{MinLon: 14.0, MinLat: 50.0, MaxLon: 14.1, MaxLat: 50.1}
	tr := NewTransformer(bbox, flatRaster(4, 4, 250), 1, Vec3{})

	p := tr.ToLocal(bbox.MinLat, bbox.MinLon)
	if p.X != 0 || p.Y != 0 {
		t.Errorf("south-west corner = (%g, %g), want (0, 0)", p.X, p.Y)
	}
	if math.Abs(p.Z-250) > 1e-9 {
		t.Errorf("Z = %g, want 250", p.Z)
	}
}

func TestToLocalAxes(t *testing.T) {
	bbox := BoundingBox{MinLon: 14.0, MinLat: 50.0, MaxLon: 14.1, MaxLat: 50.1}
	tr := NewTransformer(bbox, flatRaster(4, 4, 0), 1, Vec3{})

	// North movement changes X only, east movement changes Y only.
	north := tr.ToLocal(50.05, 14.0)
	if north.X <= 0 || north.Y != 0 {
		t.Errorf("north point = (%g, %g), want X>0 Y=0", north.X, north.Y)
	}
	east := tr.ToLocal(50.0, 14.05)
	if east.X != 0 || east.Y <= 0 {
		t.Errorf("east point = (%g, %g), want X=0 Y>0", east.X, east.Y)
	}
}

func TestToLocalDistanceAccuracy(t *testing.T) {
	bbox := BoundingBox{MinLon: 14.0, MinLat: 50.0, MaxLon: 14.1, MaxLat: 50.1}
	tr := NewTransformer(bbox, flatRaster(4, 4, 0), 1, Vec3{})

	pairs := [][4]float64{
		{50.0, 14.0, 50.1, 14.0},   // due north
		{50.05, 14.0, 50.05, 14.1}, // due east
		{50.0, 14.0, 50.1, 14.1},   // diagonal
	}
	for _, pr := range pairs {
		a := tr.ToLocal(pr[0], pr[1])
		b := tr.ToLocal(pr[2], pr[3])
		planar := math.Hypot(b.X-a.X, b.Y-a.Y)
		truth := haversine(pr[0], pr[1], pr[2], pr[3])

		if rel := math.Abs(planar-truth) / truth; rel > 0.01 {
			t.Errorf("distance %v: planar %g vs haversine %g (%.2f%% off)",
				pr, planar, truth, rel*100)
		}
	}
}

func TestToLocalUnitScale(t *testing.T) {
	bbox := BoundingBox{MinLon: 14.0, MinLat: 50.0, MaxLon: 14.1, MaxLat: 50.1}
	meters := NewTransformer(bbox, flatRaster(2, 2, 10), 1, Vec3{})
	cm := NewTransformer(bbox, flatRaster(2, 2, 10), 100, Vec3{})

	pm := meters.ToLocal(50.05, 14.05)
	pc := cm.ToLocal(50.05, 14.05)
	if math.Abs(pc.X-pm.X*100) > 1e-6 || math.Abs(pc.Y-pm.Y*100) > 1e-6 || math.Abs(pc.Z-pm.Z*100) > 1e-6 {
		t.Errorf("centimeter frame %+v is not 100× meter frame %+v", pc, pm)
	}
}

func TestToLocalOriginOffset(t *testing.T) {
	bbox := BoundingBox{MinLon: 14.0, MinLat: 50.0, MaxLon: 14.1, MaxLat: 50.1}
	tr := NewTransformer(bbox, flatRaster(2, 2, 0), 1, Vec3{X: 100, Y: -50, Z: 7})

	p := tr.ToLocal(bbox.MinLat, bbox.MinLon)
	if p.X != 100 || p.Y != -50 || p.Z != 7 {
		t.Errorf("offset corner = %+v, want (100, -50, 7)", p)
	}
}

func TestClampDelta(t *testing.T) {
	bbox := BoundingBox{MinLon: 14.0, MinLat: 50.0, MaxLon: 14.1, MaxLat: 50.1}
	tr := NewTransformer(bbox, flatRaster(2, 2, 0), 1, Vec3{})

	if d := tr.ClampDelta(50.05, 14.05); d != 0 {
		t.Errorf("inside point delta = %g, want 0", d)
	}
	if d := tr.ClampDelta(50.2, 14.05); math.Abs(d-0.1) > 1e-12 {
		t.Errorf("north overshoot delta = %g, want 0.1", d)
	}
	if d := tr.ClampDelta(50.05, 13.7); math.Abs(d-0.3) > 1e-12 {
		t.Errorf("west overshoot delta = %g, want 0.3", d)
	}
	// Outside on both axes: the larger excursion wins.
	if d := tr.ClampDelta(50.15, 13.8); math.Abs(d-0.2) > 1e-12 {
		t.Errorf("corner overshoot delta = %g, want 0.2", d)
	}
}

func TestGroundElevationBilinear(t *testing.T) {
	bbox := BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}
	r := rampRaster(3, 3) // elevation = row index, south to north
	tr := NewTransformer(bbox, r, 1, Vec3{})

	if got := tr.GroundElevation(0, 0.5); got != 0 {
		t.Errorf("south edge elevation = %g, want 0", got)
	}
	if got := tr.GroundElevation(1, 0.5); got != 2 {
		t.Errorf("north edge elevation = %g, want 2", got)
	}
	if got := tr.GroundElevation(0.25, 0.5); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("quarter elevation = %g, want 0.5", got)
	}
}
