// Package material derives terrain material weight masks from elevation
// data using slope and height heuristics. Each mask is a raster of weights
// in [0, 1]; per-cell weights across all masks sum to at most 1.
package material

import (
	"math"

	"github.com/mkungen89/rterrain/internal/geo"

	"github.com/rs/zerolog/log"
)

// Mask is one material's weight raster, same shape as the source elevation.
type Mask struct {
	Name string
	Data []float32
}

// Params tunes the classification heuristics. Thresholds are in meters and
// degrees of slope.
type Params struct {
	CellSize   float64 // meters between adjacent samples
	WaterLevel float64
	SnowLine   float64
	RockSlope  float64
	SandBand   float64 // height above water level treated as shoreline
}

// DefaultParams returns heuristics suitable for mid-latitude terrain.
func DefaultParams(cellSize float64) Params {
	return Params{
		CellSize:   cellSize,
		WaterLevel: 0.5,
		SnowLine:   2500,
		RockSlope:  35,
		SandBand:   2.0,
	}
}

// Classify produces ordered weight masks (water, snow, rock, sand, dirt,
// grass) for the raster. Grass absorbs whatever weight remains.
func Classify(r *geo.HeightRaster, p Params) []Mask {
	n := r.Rows * r.Cols
	slope := slopeDegrees(r, p.CellSize)

	water := make([]float32, n)
	snow := make([]float32, n)
	rock := make([]float32, n)
	sand := make([]float32, n)
	dirt := make([]float32, n)
	grass := make([]float32, n)

	for i, ev := range r.Data {
		elev := float64(ev)
		s := float64(slope[i])

		switch {
		case elev <= p.WaterLevel:
			water[i] = 1
		case elev >= p.SnowLine:
			snow[i] = 1
		case s >= p.RockSlope:
			rock[i] = 1
		case elev <= p.WaterLevel+p.SandBand && s < 10:
			sand[i] = 1
		case s >= 15:
			// Moderate slopes blend dirt into grass.
			w := (s - 15) / (p.RockSlope - 15)
			dirt[i] = float32(w)
			grass[i] = float32(1 - w)
		default:
			grass[i] = 1
		}
	}

	masks := []Mask{
		{Name: "water", Data: water},
		{Name: "snow", Data: snow},
		{Name: "rock", Data: rock},
		{Name: "sand", Data: sand},
		{Name: "dirt", Data: dirt},
		{Name: "grass", Data: grass},
	}

	for i := range masks {
		masks[i].Data = boxBlur(masks[i].Data, r.Rows, r.Cols)
	}
	normalize(masks)

	log.Debug().Int("masks", len(masks)).Int("cells", n).Msg("Material masks classified")
	return masks
}

// slopeDegrees estimates per-cell slope from central differences.
func slopeDegrees(r *geo.HeightRaster, cellSize float64) []float32 {
	if cellSize <= 0 {
		cellSize = 30
	}
	out := make([]float32, r.Rows*r.Cols)
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			dzdx := float64(r.At(row, clampIdx(col+1, r.Cols))-r.At(row, clampIdx(col-1, r.Cols))) / (2 * cellSize)
			dzdy := float64(r.At(clampIdx(row+1, r.Rows), col)-r.At(clampIdx(row-1, r.Rows), col)) / (2 * cellSize)
			out[row*r.Cols+col] = float32(math.Atan(math.Hypot(dzdx, dzdy)) * 180 / math.Pi)
		}
	}
	return out
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// boxBlur applies one 3×3 smoothing pass to soften mask boundaries.
func boxBlur(data []float32, rows, cols int) []float32 {
	out := make([]float32, len(data))
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			sum, n := float32(0), 0
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					nr, nc := row+dr, col+dc
					if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
						continue
					}
					sum += data[nr*cols+nc]
					n++
				}
			}
			out[row*cols+col] = sum / float32(n)
		}
	}
	return out
}

// normalize rescales per-cell weights so they sum to at most 1.
func normalize(masks []Mask) {
	if len(masks) == 0 {
		return
	}
	for i := range masks[0].Data {
		total := float32(0)
		for _, m := range masks {
			total += m.Data[i]
		}
		if total > 1 {
			for _, m := range masks {
				m.Data[i] /= total
			}
		}
	}
}
