package docstore

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/searchstore/internal/hash"
)

// CompressionType selects the codec applied to document blobs before
// they reach the backing store.
type CompressionType uint8

const (
	// CompressionNone stores blobs uncompressed.
	CompressionNone CompressionType = iota
	// CompressionLZ4 is fast with a modest ratio, good for hot data.
	CompressionLZ4
	// CompressionZSTD has a better ratio, good for cold data.
	CompressionZSTD
	// CompressionSnappy is a fast middle ground.
	CompressionSnappy
)

func (t CompressionType) String() string {
	switch t {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	case CompressionSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Blob frame layout, little endian:
//
//	[type u8][uncompressedLen u32][storedLen u32][crc32c u32][payload]
//
// storedLen == 0 means the payload is stored raw (incompressible or
// CompressionNone). The CRC covers the payload bytes as stored. The
// frame is self-describing so readers do not need the writer's config.
const blobHeaderSize = 13

// zstd encoder/decoder pools; construction is expensive.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compressBlob frames data for storage, compressing when the codec
// shrinks it to under 90% of the input.
func compressBlob(t CompressionType, data []byte) ([]byte, error) {
	var compressed []byte
	var err error

	switch t {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		var n int
		n, err = lz4.CompressBlock(data, buf, nil)
		if n > 0 {
			compressed = buf[:n]
		}
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	case CompressionSnappy:
		compressed = snappy.Encode(nil, data)
	default:
		return nil, fmt.Errorf("docstore: unknown compression type %d", t)
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: compress (%s): %w", t, err)
	}

	payload := data
	storedLen := uint32(0)
	if len(compressed) > 0 && float64(len(compressed)) <= float64(len(data))*0.9 {
		payload = compressed
		storedLen = uint32(len(payload))
	} else if t != CompressionNone {
		t = CompressionNone
	}

	out := make([]byte, blobHeaderSize+len(payload))
	out[0] = byte(t)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[5:], storedLen)
	binary.LittleEndian.PutUint32(out[9:], hash.CRC32C(payload))
	copy(out[blobHeaderSize:], payload)
	return out, nil
}

// decompressBlob reverses compressBlob. Empty input decodes to an
// empty document.
func decompressBlob(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	if len(blob) < blobHeaderSize {
		return nil, fmt.Errorf("docstore: blob truncated (%d bytes)", len(blob))
	}

	t := CompressionType(blob[0])
	uncompressedLen := binary.LittleEndian.Uint32(blob[1:])
	storedLen := binary.LittleEndian.Uint32(blob[5:])
	crc := binary.LittleEndian.Uint32(blob[9:])
	payload := blob[blobHeaderSize:]

	if got := hash.CRC32C(payload); got != crc {
		return nil, fmt.Errorf("docstore: blob checksum mismatch (got %08x, want %08x)", got, crc)
	}

	if storedLen == 0 {
		if uint32(len(payload)) != uncompressedLen {
			return nil, fmt.Errorf("docstore: blob length mismatch (got %d, want %d)", len(payload), uncompressedLen)
		}
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	}
	if uint32(len(payload)) != storedLen {
		return nil, fmt.Errorf("docstore: blob length mismatch (got %d, want %d)", len(payload), storedLen)
	}

	switch t {
	case CompressionLZ4:
		out := make([]byte, uncompressedLen)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("docstore: decompress (lz4): %w", err)
		}
		return out[:n], nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(payload, make([]byte, 0, uncompressedLen))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("docstore: decompress (zstd): %w", err)
		}
		return out, nil
	case CompressionSnappy:
		out, err := snappy.Decode(make([]byte, uncompressedLen), payload)
		if err != nil {
			return nil, fmt.Errorf("docstore: decompress (snappy): %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("docstore: compressed payload with codec %s", t)
	}
}
