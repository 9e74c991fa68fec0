package osm

import (
	"math"

	"github.com/mkungen89/rterrain/internal/geo"
)

// EstimateNodeCount predicts how many feature nodes a query will return,
// based on the box area and per-category density estimates (nodes per km²),
// scaled by a safety margin.
func EstimateNodeCount(bbox geo.BoundingBox, filters Filters, densities map[string]float64, safetyScale float64) int {
	area := bbox.AreaKm2()

	estimated := 0.0
	for category, on := range filters.categories() {
		if !on {
			continue
		}
		estimated += densities[category] * area
	}

	return int(estimated * safetyScale)
}

// CreateChunks splits the box into an N×N grid of equal angular sub-boxes,
// where N = ceil(sqrt(ceil(estimate / nodeLimit))). A fit estimate yields a
// single chunk covering the whole box.
func CreateChunks(bbox geo.BoundingBox, estimate, nodeLimit int) []geo.BoundingBox {
	if estimate <= nodeLimit {
		return []geo.BoundingBox{bbox}
	}

	needed := int(math.Ceil(float64(estimate) / float64(nodeLimit)))
	n := int(math.Ceil(math.Sqrt(float64(needed))))

	lonStep := (bbox.MaxLon - bbox.MinLon) / float64(n)
	latStep := (bbox.MaxLat - bbox.MinLat) / float64(n)

	chunks := make([]geo.BoundingBox, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			chunks = append(chunks, geo.BoundingBox{
				MinLon: bbox.MinLon + float64(j)*lonStep,
				MinLat: bbox.MinLat + float64(i)*latStep,
				MaxLon: bbox.MinLon + float64(j+1)*lonStep,
				MaxLat: bbox.MinLat + float64(i+1)*latStep,
			})
		}
	}
	return chunks
}

// seamEpsilon bounds how close a way endpoint must be to an interior grid
// seam to count as touching it, in degrees.
const seamEpsilon = 1e-7

// markPossiblySplit flags ways whose first or last vertex lies on an interior
// seam of the chunk grid. Such ways may be fragments of one feature that was
// cut by the chunked fetch; they are not re-stitched.
func markPossiblySplit(fc *FeatureCollection, bbox geo.BoundingBox, chunks []geo.BoundingBox) {
	if len(chunks) < 2 {
		return
	}

	seamLons := make(map[float64]struct{})
	seamLats := make(map[float64]struct{})
	for _, c := range chunks {
		if c.MinLon > bbox.MinLon {
			seamLons[c.MinLon] = struct{}{}
		}
		if c.MinLat > bbox.MinLat {
			seamLats[c.MinLat] = struct{}{}
		}
	}

	onSeam := func(p LatLon) bool {
		for lon := range seamLons {
			if math.Abs(p.Lon-lon) < seamEpsilon {
				return true
			}
		}
		for lat := range seamLats {
			if math.Abs(p.Lat-lat) < seamEpsilon {
				return true
			}
		}
		return false
	}

	for i := range fc.Ways {
		g := fc.Ways[i].Geometry
		if len(g) == 0 {
			continue
		}
		if onSeam(g[0]) || onSeam(g[len(g)-1]) {
			fc.Ways[i].PossiblySplit = true
		}
	}
}
