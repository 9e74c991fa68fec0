package rtpack

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zlib"
	"github.com/rs/zerolog/log"
)

// Writer accumulates blocks in memory and seals them into a package file.
// Single-writer, write-once: a file only exists after WriteFile finishes,
// so no reader can observe a half-written package as valid.
type Writer struct {
	meta   Metadata
	blocks []pendingBlock
}

type pendingBlock struct {
	header  blockHeader
	payload []byte // compressed
}

// NewWriter starts a package with the given metadata. Block names and
// content counts are filled in as blocks are added.
func NewWriter(meta Metadata) *Writer {
	meta.Format = "RealTerrain Package"
	meta.Version = Version
	if meta.Content == nil {
		meta.Content = make(map[string]int)
	}
	return &Writer{meta: meta}
}

// AddNumeric adds a float32 array block with its logical shape.
// The payload round-trips byte-exactly.
func (w *Writer) AddNumeric(name string, shape []int, data []float32) error {
	raw := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return w.add(name, TypeNumeric, "float32", shape, raw, CompressionZlib)
}

// AddBinary adds an opaque block, stored without recompression since such
// payloads (encoded imagery) are already compressed.
func (w *Writer) AddBinary(name string, data []byte) error {
	return w.add(name, TypeBinary, "", nil, data, CompressionStore)
}

// AddJSON adds a structured document block.
func (w *Writer) AddJSON(name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode block %q: %w", name, err)
	}
	return w.add(name, TypeJSON, "", nil, raw, CompressionZlib)
}

func (w *Writer) add(name, typ, dtype string, shape []int, raw []byte, compression string) error {
	for _, b := range w.blocks {
		if b.header.Name == name {
			return fmt.Errorf("duplicate block name %q", name)
		}
	}

	payload := raw
	if compression == CompressionZlib {
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return err
		}
		if _, err := zw.Write(raw); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		payload = buf.Bytes()
	}

	w.blocks = append(w.blocks, pendingBlock{
		header: blockHeader{
			Name:             name,
			Type:             typ,
			DType:            dtype,
			Shape:            shape,
			UncompressedSize: len(raw),
			CompressedSize:   len(payload),
			Compression:      compression,
			Checksum:         strconv.FormatUint(xxhash.Sum64(payload), 16),
		},
		payload: payload,
	})
	w.meta.Blocks = append(w.meta.Blocks, name)
	return nil
}

// WriteFile seals the package: metadata, blocks, offset index and the
// whole-file checksum, then writes it to path in one shot.
func (w *Writer) WriteFile(path string) error {
	var buf bytes.Buffer

	buf.WriteString(Magic)
	writeUint32(&buf, Version)

	metaRaw, err := json.Marshal(w.meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	writeUint32(&buf, uint32(len(metaRaw)))
	buf.Write(metaRaw)

	index := make(map[string]indexEntry, len(w.blocks))
	for _, b := range w.blocks {
		headerRaw, err := json.Marshal(b.header)
		if err != nil {
			return fmt.Errorf("encode header for block %q: %w", b.header.Name, err)
		}

		offset := int64(buf.Len())
		writeUint32(&buf, uint32(len(headerRaw)))
		buf.Write(headerRaw)
		buf.Write(b.payload)

		index[b.header.Name] = indexEntry{
			Offset:           offset,
			Size:             int64(buf.Len()) - offset,
			Type:             b.header.Type,
			CompressedSize:   b.header.CompressedSize,
			UncompressedSize: b.header.UncompressedSize,
		}
	}

	indexRaw, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	writeUint32(&buf, uint32(len(indexRaw)))
	buf.Write(indexRaw)

	sum := sha256.Sum256(buf.Bytes())
	buf.Write(sum[:])

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write package: %w", err)
	}

	log.Info().
		Str("path", path).
		Int("blocks", len(w.blocks)).
		Int("bytes", buf.Len()).
		Msg("Package written")

	return nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}
