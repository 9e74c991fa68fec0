// Package rtpack implements the .rterrain container: a single versioned,
// compressed, integrity-checked artifact holding named data blocks
// (numeric rasters, opaque binary blobs, structured JSON documents).
//
// Wire layout:
//
//	4 bytes   magic "RTER"
//	4 bytes   format version (uint32 LE)
//	4 bytes   metadata length (uint32 LE)
//	N bytes   metadata JSON
//	blocks    [4-byte header length][header JSON][compressed payload]...
//	4 bytes   index length (uint32 LE)
//	M bytes   block offset index JSON
//	32 bytes  SHA-256 over all preceding bytes
package rtpack

import (
	"github.com/mkungen89/rterrain/internal/geo"
)

// Magic identifies a .rterrain file.
const Magic = "RTER"

// Version is the current container format version.
const Version uint32 = 1

// Block type tags.
const (
	TypeNumeric = "numeric" // float32 array, little-endian
	TypeBinary  = "binary"  // opaque bytes (encoded imagery)
	TypeJSON    = "json"    // structured document
)

// Compression tags.
const (
	CompressionZlib  = "zlib"
	CompressionStore = "store"
)

// Well-known block names.
const (
	BlockHeightmap = "heightmap"
	BlockImagery   = "satellite"
	BlockScene     = "osm_data"
	BlockSummary   = "summary"
	MaterialPrefix = "material_"
)

// FormatError reports a file that is not a compatible .rterrain package.
// Fatal and never retryable.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid package format: " + e.Reason
}

// IntegrityError reports checksum mismatch, per block or whole file.
// The file must be treated as corrupt and re-exported.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return "package integrity check failed: " + e.Reason
}

// ProjectInfo describes the export provenance.
type ProjectInfo struct {
	Name     string          `json:"name"`
	Location string          `json:"location,omitempty"`
	BBox     geo.BoundingBox `json:"bbox"`
	AreaKm2  float64         `json:"area_km2"`
}

// TerrainInfo describes the elevation content.
type TerrainInfo struct {
	CoordinateSystem string  `json:"coordinate_system"`
	HeightmapSize    []int   `json:"heightmap_size,omitempty"`
	ResolutionM      float64 `json:"resolution_m"`
	MinElevation     float64 `json:"min_elevation,omitempty"`
	MaxElevation     float64 `json:"max_elevation,omitempty"`
}

// Metadata is the package's leading structured document.
type Metadata struct {
	Format  string         `json:"format"`
	Created string         `json:"created"`
	Content map[string]int `json:"content"`
	Blocks  []string       `json:"data_blocks"`
	Project ProjectInfo    `json:"project"`
	Terrain TerrainInfo    `json:"terrain"`
	Version uint32         `json:"version"`
}

// blockHeader precedes each compressed payload.
type blockHeader struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	DType            string `json:"dtype,omitempty"`
	Compression      string `json:"compression"`
	Checksum         string `json:"checksum"` // xxhash64 of compressed payload, hex
	Shape            []int  `json:"shape,omitempty"`
	UncompressedSize int    `json:"uncompressed_size"`
	CompressedSize   int    `json:"compressed_size"`
}

// indexEntry locates one block for random access.
type indexEntry struct {
	Type             string `json:"type"`
	Offset           int64  `json:"offset"`
	Size             int64  `json:"size"`
	CompressedSize   int    `json:"compressed_size"`
	UncompressedSize int    `json:"uncompressed_size"`
}
