// Package container assembles the linker tables and serialized object
// payloads of one build into a single relocatable binary blob, and reads
// such blobs back for inspection and round-trip verification.
//
// The blob starts with a fixed header of table offsets so a loader can map
// any table without scanning: name table, import table, export table,
// preload dependency table (per-export offset and count-per-kind headers
// over one flat edge array), then the payload region. All strings are
// stored once in the name table and referenced by index. The payload region
// is optionally zstd-compressed as a whole.
package container

const (
	// Magic identifies a coffer container file.
	Magic uint32 = 0x434F4652 // "COFR"

	// Version is the container format version written by this package.
	Version uint32 = 1

	// headerSize is the fixed byte length of the container header.
	headerSize = 96

	// flagZstdPayload marks a zstd-compressed payload region.
	flagZstdPayload uint32 = 1 << 0
)

// header mirrors the fixed on-disk header. All offsets are absolute, all
// multi-byte fields little-endian.
type header struct {
	magic   uint32
	version uint32
	flags   uint32

	containerName uint32 // name-table index of the container name

	nameCount   uint32
	nameOff     uint64
	importCount uint32
	importOff   uint64
	exportCount uint32
	exportOff   uint64

	depEdgeCount uint32
	depHeaderOff uint64
	depEdgesOff  uint64

	payloadOff    uint64
	payloadStored uint64 // bytes on disk (after compression)
	payloadRaw    uint64 // bytes after decompression
}
