package geo

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
)

// HeightRaster is a row-major grid of elevation samples in meters covering a
// bounding box. Row 0 corresponds to the southern edge (minimum latitude).
// Missing samples are NaN.
type HeightRaster struct {
	Data []float32
	Rows int
	Cols int
}

// NewHeightRaster allocates a raster filled with zeros.
func NewHeightRaster(rows, cols int) *HeightRaster {
	return &HeightRaster{
		Data: make([]float32, rows*cols),
		Rows: rows,
		Cols: cols,
	}
}

// At returns the sample at the given row and column.
func (r *HeightRaster) At(row, col int) float32 {
	return r.Data[row*r.Cols+col]
}

// Set stores a sample at the given row and column.
func (r *HeightRaster) Set(row, col int, v float32) {
	r.Data[row*r.Cols+col] = v
}

// MinMax returns the minimum and maximum elevation, skipping NaN samples.
func (r *HeightRaster) MinMax() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range r.Data {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}
	if math.IsInf(min, 1) {
		return 0, 0
	}
	return min, max
}

type fillPatch struct {
	row, col int
	value    float32
}

// FillNoData replaces NaN samples with the average of their valid neighbors,
// repeating until no holes remain. Holes with no valid neighbors anywhere
// (fully void rasters) fall back to the overall minimum elevation.
// Returns the number of samples filled.
func (r *HeightRaster) FillNoData() int {
	filled := 0
	for {
		var patches []fillPatch
		holes := 0
		for row := 0; row < r.Rows; row++ {
			for col := 0; col < r.Cols; col++ {
				if !math.IsNaN(float64(r.At(row, col))) {
					continue
				}
				holes++
				sum, n := 0.0, 0
				for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
					nr, nc := row+d[0], col+d[1]
					if nr < 0 || nr >= r.Rows || nc < 0 || nc >= r.Cols {
						continue
					}
					if v := float64(r.At(nr, nc)); !math.IsNaN(v) {
						sum += v
						n++
					}
				}
				if n > 0 {
					patches = append(patches, fillPatch{row, col, float32(sum / float64(n))})
				}
			}
		}
		if holes == 0 {
			return filled
		}
		if len(patches) == 0 {
			min, _ := r.MinMax()
			for i, v := range r.Data {
				if math.IsNaN(float64(v)) {
					r.Data[i] = float32(min)
					filled++
				}
			}
			return filled
		}
		for _, p := range patches {
			r.Set(p.row, p.col, p.value)
		}
		filled += len(patches)
	}
}

// SampleBilinear samples the raster at fractional normalized coordinates.
// u maps to rows (0 = south edge), v to columns (0 = west edge), both
// clamped to [0, 1]. NaN corners are excluded by renormalizing the weights.
func (r *HeightRaster) SampleBilinear(u, v float64) float64 {
	u = clamp01(u)
	v = clamp01(v)

	fr := u * float64(r.Rows-1)
	fc := v * float64(r.Cols-1)

	r0 := int(math.Floor(fr))
	c0 := int(math.Floor(fc))
	r1 := r0 + 1
	c1 := c0 + 1
	if r1 >= r.Rows {
		r1 = r.Rows - 1
	}
	if c1 >= r.Cols {
		c1 = r.Cols - 1
	}

	du := fr - float64(r0)
	dv := fc - float64(c0)

	corners := [4]float64{
		float64(r.At(r0, c0)),
		float64(r.At(r0, c1)),
		float64(r.At(r1, c0)),
		float64(r.At(r1, c1)),
	}
	weights := [4]float64{
		(1 - du) * (1 - dv),
		(1 - du) * dv,
		du * (1 - dv),
		du * dv,
	}

	sum, wsum := 0.0, 0.0
	for i, c := range corners {
		if math.IsNaN(c) {
			continue
		}
		sum += c * weights[i]
		wsum += weights[i]
	}
	if wsum == 0 {
		return math.NaN()
	}
	return sum / wsum
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LoadHeightRasterPNG reads a 16-bit grayscale heightmap PNG and rescales
// pixel values into the [minElev, maxElev] meter range.
func LoadHeightRasterPNG(path string, minElev, maxElev float64) (*HeightRaster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode heightmap: %w", err)
	}

	gray, ok := img.(*image.Gray16)
	if !ok {
		return nil, fmt.Errorf("heightmap must be 16-bit grayscale PNG, got %T", img)
	}

	bounds := gray.Bounds()
	raster := NewHeightRaster(bounds.Dy(), bounds.Dx())
	scale := (maxElev - minElev) / 65535.0

	// PNG row 0 is north; raster row 0 is south.
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			px := gray.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y
			row := bounds.Dy() - 1 - y
			raster.Set(row, x, float32(minElev+float64(px)*scale))
		}
	}

	return raster, nil
}
