// Package hash provides the hashing primitives used across searchstore:
// CRC32-Castagnoli for data integrity and xxHash64 for content keys.
//
// CRC32C is hardware accelerated on x86 (SSE4.2) and ARM (CRC extension)
// and is the industry standard for block checksums (iSCSI, RocksDB,
// LevelDB). xxHash64 is used where a fast, well-distributed 64-bit key
// is needed and cryptographic strength is not.
package hash

import (
	"hash"
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
)

// crc32cTable is pre-computed for the CRC32-Castagnoli polynomial.
// Computing this once avoids repeated MakeTable calls.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
// Uses hardware acceleration when available.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a new CRC32-Castagnoli hash.Hash32.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}

// Key64 computes a 64-bit content key for data.
// It is stable for the lifetime of the process and suitable for
// associative cache indexing, not for persistence.
func Key64(data []byte) uint64 {
	return xxhash.Sum64(data)
}
