package rtpack

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/mkungen89/rterrain/internal/geo"
)

func testMetadata() Metadata {
	return Metadata{
		Created: "2026-01-15T12:00:00Z",
		Project: ProjectInfo{
			Name:    "Test Export",
			BBox:    geo.BoundingBox{MinLon: 14.0, MinLat: 50.0, MaxLon: 14.1, MaxLat: 50.1},
			AreaKm2: 79.1,
		},
		Terrain: TerrainInfo{
			CoordinateSystem: "WGS84",
			HeightmapSize:    []int{2, 3},
			ResolutionM:      30,
		},
		Content: map[string]int{"buildings": 2},
	}
}

func writePackage(t *testing.T) []byte {
	t.Helper()

	w := NewWriter(testMetadata())
	heights := []float32{
		100.5, 101.25, 102,
		103, float32(math.NaN()), 105.75,
	}
	if err := w.AddNumeric(BlockHeightmap, []int{2, 3}, heights); err != nil {
		t.Fatal(err)
	}
	if err := w.AddBinary(BlockImagery, []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}); err != nil {
		t.Fatal(err)
	}
	if err := w.AddJSON(BlockSummary, map[string]int{"buildings": 2, "dropped": 1}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "test.rterrain")
	if err := w.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestRoundTrip(t *testing.T) {
	data := writePackage(t)

	p, err := Read(data)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if p.Meta.Format != "RealTerrain Package" || p.Meta.Version != Version {
		t.Errorf("metadata = %+v", p.Meta)
	}
	if p.Meta.Project.Name != "Test Export" {
		t.Errorf("project name = %q", p.Meta.Project.Name)
	}

	want := []string{BlockHeightmap, BlockImagery, BlockSummary}
	got := p.Blocks()
	if len(got) != len(want) {
		t.Fatalf("Blocks() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Blocks()[%d] = %q, want %q", i, got[i], want[i])
		}
		if !p.Has(want[i]) {
			t.Errorf("Has(%q) = false", want[i])
		}
	}
	if p.Has("no_such_block") {
		t.Error("Has() reports a block that was never written")
	}

	// Numeric payloads round-trip byte-exactly, NaN included.
	shape, heights, err := p.Numeric(BlockHeightmap)
	if err != nil {
		t.Fatalf("Numeric() error = %v", err)
	}
	if len(shape) != 2 || shape[0] != 2 || shape[1] != 3 {
		t.Errorf("shape = %v, want [2 3]", shape)
	}
	wantHeights := []float32{100.5, 101.25, 102, 103, float32(math.NaN()), 105.75}
	if len(heights) != len(wantHeights) {
		t.Fatalf("heights = %d values, want %d", len(heights), len(wantHeights))
	}
	for i := range heights {
		if math.Float32bits(heights[i]) != math.Float32bits(wantHeights[i]) {
			t.Errorf("heights[%d] = %v (bits %x), want %v", i, heights[i],
				math.Float32bits(heights[i]), wantHeights[i])
		}
	}

	blob, err := p.Binary(BlockImagery)
	if err != nil {
		t.Fatalf("Binary() error = %v", err)
	}
	if !bytes.Equal(blob, []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}) {
		t.Errorf("binary block = %x", blob)
	}

	var summary map[string]int
	if err := p.JSON(BlockSummary, &summary); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if summary["buildings"] != 2 || summary["dropped"] != 1 {
		t.Errorf("summary = %v", summary)
	}
}

func TestReadRejectsEveryCorruption(t *testing.T) {
	data := writePackage(t)

	// Flipping any single byte anywhere must fail verification.
	for i := range data {
		corrupt := make([]byte, len(data))
		copy(corrupt, data)
		corrupt[i] ^= 0xff

		if _, err := Read(corrupt); err == nil {
			t.Fatalf("corruption at byte %d went undetected", i)
		}
	}
}

func TestReadChecksumMismatch(t *testing.T) {
	data := writePackage(t)
	data[len(data)/2] ^= 0x01

	var ierr *IntegrityError
	if _, err := Read(data); !errors.As(err, &ierr) {
		t.Errorf("error = %v, want *IntegrityError", err)
	}
}

// reseal recomputes the trailing whole-file checksum so format-level faults
// can be tested in isolation from the integrity check.
func reseal(data []byte) []byte {
	body := data[:len(data)-sha256.Size]
	sum := sha256.Sum256(body)
	return append(append([]byte{}, body...), sum[:]...)
}

func TestReadBadMagic(t *testing.T) {
	data := writePackage(t)
	copy(data[:4], "NOPE")
	data = reseal(data)

	var ferr *FormatError
	if _, err := Read(data); !errors.As(err, &ferr) {
		t.Errorf("error = %v, want *FormatError", err)
	}
}

func TestReadUnsupportedVersion(t *testing.T) {
	data := writePackage(t)
	data[4] = 99
	data = reseal(data)

	var ferr *FormatError
	_, err := Read(data)
	if !errors.As(err, &ferr) {
		t.Fatalf("error = %v, want *FormatError", err)
	}
}

func TestReadTruncated(t *testing.T) {
	var ferr *FormatError
	if _, err := Read([]byte("RTER")); !errors.As(err, &ferr) {
		t.Errorf("error = %v, want *FormatError", err)
	}
	if _, err := Read(nil); !errors.As(err, &ferr) {
		t.Errorf("error for empty input = %v, want *FormatError", err)
	}
}

func TestExtractUnknownBlock(t *testing.T) {
	p, err := Read(writePackage(t))
	if err != nil {
		t.Fatal(err)
	}

	var ferr *FormatError
	if _, _, err := p.Extract("no_such_block"); !errors.As(err, &ferr) {
		t.Errorf("error = %v, want *FormatError", err)
	}
}

func TestTypeMismatch(t *testing.T) {
	p, err := Read(writePackage(t))
	if err != nil {
		t.Fatal(err)
	}

	var ferr *FormatError
	if _, _, err := p.Numeric(BlockImagery); !errors.As(err, &ferr) {
		t.Errorf("Numeric on binary block: error = %v, want *FormatError", err)
	}
	if _, err := p.Binary(BlockHeightmap); !errors.As(err, &ferr) {
		t.Errorf("Binary on numeric block: error = %v, want *FormatError", err)
	}
	var out any
	if err := p.JSON(BlockHeightmap, &out); !errors.As(err, &ferr) {
		t.Errorf("JSON on numeric block: error = %v, want *FormatError", err)
	}
}

func TestDuplicateBlockName(t *testing.T) {
	w := NewWriter(testMetadata())
	if err := w.AddJSON("doc", map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	if err := w.AddJSON("doc", map[string]int{"b": 2}); err == nil {
		t.Error("duplicate block name accepted")
	}
}

func TestExtract(t *testing.T) {
	p, err := Read(writePackage(t))
	if err != nil {
		t.Fatal(err)
	}

	raw, typ, err := p.Extract(BlockImagery)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if typ != TypeBinary {
		t.Errorf("type = %q, want %q", typ, TypeBinary)
	}
	if !bytes.Equal(raw, []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}) {
		t.Errorf("payload = %x", raw)
	}
}

func TestEmptyPackage(t *testing.T) {
	w := NewWriter(testMetadata())
	path := filepath.Join(t.TempDir(), "empty.rterrain")
	if err := w.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	p, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(p.Blocks()) != 0 {
		t.Errorf("Blocks() = %v, want none", p.Blocks())
	}
}
