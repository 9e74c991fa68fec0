package rtpack

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zlib"
)

// Package is a verified, read-only view of a .rterrain file. The whole-file
// checksum is validated before any block is trusted; per-block checksums are
// validated on extraction. Safe for concurrent readers.
type Package struct {
	Meta  Metadata
	data  []byte
	index map[string]indexEntry
}

// ReadFile opens and fully verifies a package.
func ReadFile(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Read(data)
}

// Read verifies a package held in memory.
func Read(data []byte) (*Package, error) {
	// Smallest possible file: magic, version, two empty length-prefixed
	// documents and the trailing checksum.
	if len(data) < 4+4+4+4+sha256.Size {
		return nil, &FormatError{Reason: "file too short"}
	}

	body := data[:len(data)-sha256.Size]
	want := data[len(data)-sha256.Size:]
	got := sha256.Sum256(body)
	if !bytes.Equal(got[:], want) {
		return nil, &IntegrityError{Reason: "whole-file checksum mismatch"}
	}

	if string(body[:4]) != Magic {
		return nil, &FormatError{Reason: fmt.Sprintf("bad magic %q", body[:4])}
	}
	version := binary.LittleEndian.Uint32(body[4:8])
	if version != Version {
		return nil, &FormatError{Reason: fmt.Sprintf("unsupported version %d (expected %d)", version, Version)}
	}

	pos := 8
	metaRaw, pos, err := readPrefixed(body, pos)
	if err != nil {
		return nil, err
	}

	p := &Package{data: data}
	if err := json.Unmarshal(metaRaw, &p.Meta); err != nil {
		return nil, &FormatError{Reason: "metadata: " + err.Error()}
	}

	// Skip over the declared blocks to reach the index.
	for range p.Meta.Blocks {
		headerRaw, next, err := readPrefixed(body, pos)
		if err != nil {
			return nil, err
		}
		var h blockHeader
		if err := json.Unmarshal(headerRaw, &h); err != nil {
			return nil, &FormatError{Reason: "block header: " + err.Error()}
		}
		if next+h.CompressedSize > len(body) {
			return nil, &FormatError{Reason: fmt.Sprintf("block %q payload overruns file", h.Name)}
		}
		pos = next + h.CompressedSize
	}

	indexRaw, _, err := readPrefixed(body, pos)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(indexRaw, &p.index); err != nil {
		return nil, &FormatError{Reason: "block index: " + err.Error()}
	}

	return p, nil
}

func readPrefixed(body []byte, pos int) ([]byte, int, error) {
	if pos+4 > len(body) {
		return nil, 0, &FormatError{Reason: "truncated length prefix"}
	}
	n := int(binary.LittleEndian.Uint32(body[pos : pos+4]))
	pos += 4
	if pos+n > len(body) {
		return nil, 0, &FormatError{Reason: "truncated document"}
	}
	return body[pos : pos+n], pos + n, nil
}

// Blocks lists the package's block names in write order.
func (p *Package) Blocks() []string {
	return p.Meta.Blocks
}

// Has reports whether a named block exists.
func (p *Package) Has(name string) bool {
	_, ok := p.index[name]
	return ok
}

// block extracts and verifies one named block's decompressed payload using
// the offset index, without touching other blocks.
func (p *Package) block(name string) (blockHeader, []byte, error) {
	entry, ok := p.index[name]
	if !ok {
		return blockHeader{}, nil, &FormatError{Reason: fmt.Sprintf("no block named %q", name)}
	}

	headerRaw, pos, err := readPrefixed(p.data, int(entry.Offset))
	if err != nil {
		return blockHeader{}, nil, err
	}
	var h blockHeader
	if err := json.Unmarshal(headerRaw, &h); err != nil {
		return blockHeader{}, nil, &FormatError{Reason: "block header: " + err.Error()}
	}
	if pos+h.CompressedSize > len(p.data) {
		return blockHeader{}, nil, &FormatError{Reason: fmt.Sprintf("block %q payload overruns file", name)}
	}

	payload := p.data[pos : pos+h.CompressedSize]
	sum := strconv.FormatUint(xxhash.Sum64(payload), 16)
	if sum != h.Checksum {
		return blockHeader{}, nil, &IntegrityError{Reason: fmt.Sprintf("block %q checksum mismatch", name)}
	}

	switch h.Compression {
	case CompressionStore:
		out := make([]byte, len(payload))
		copy(out, payload)
		return h, out, nil
	case CompressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return blockHeader{}, nil, &IntegrityError{Reason: fmt.Sprintf("block %q: %v", name, err)}
		}
		defer func() { _ = zr.Close() }()
		out, err := io.ReadAll(zr)
		if err != nil {
			return blockHeader{}, nil, &IntegrityError{Reason: fmt.Sprintf("block %q: %v", name, err)}
		}
		return h, out, nil
	default:
		return blockHeader{}, nil, &FormatError{Reason: fmt.Sprintf("block %q: unknown compression %q", name, h.Compression)}
	}
}

// Extract returns a block's decompressed payload and its type tag,
// regardless of block type. Numeric payloads stay little-endian float32.
func (p *Package) Extract(name string) ([]byte, string, error) {
	h, raw, err := p.block(name)
	if err != nil {
		return nil, "", err
	}
	return raw, h.Type, nil
}

// Numeric extracts a float32 array block and its shape.
func (p *Package) Numeric(name string) ([]int, []float32, error) {
	h, raw, err := p.block(name)
	if err != nil {
		return nil, nil, err
	}
	if h.Type != TypeNumeric {
		return nil, nil, &FormatError{Reason: fmt.Sprintf("block %q is %s, not numeric", name, h.Type)}
	}
	if len(raw)%4 != 0 {
		return nil, nil, &IntegrityError{Reason: fmt.Sprintf("block %q has odd payload length %d", name, len(raw))}
	}

	data := make([]float32, len(raw)/4)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return h.Shape, data, nil
}

// Binary extracts an opaque block's bytes.
func (p *Package) Binary(name string) ([]byte, error) {
	h, raw, err := p.block(name)
	if err != nil {
		return nil, err
	}
	if h.Type != TypeBinary {
		return nil, &FormatError{Reason: fmt.Sprintf("block %q is %s, not binary", name, h.Type)}
	}
	return raw, nil
}

// JSON decodes a structured document block into out.
func (p *Package) JSON(name string, out any) error {
	h, raw, err := p.block(name)
	if err != nil {
		return err
	}
	if h.Type != TypeJSON {
		return &FormatError{Reason: fmt.Sprintf("block %q is %s, not json", name, h.Type)}
	}
	return json.Unmarshal(raw, out)
}
