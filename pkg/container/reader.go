package container

import (
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/link"
	"github.com/coffersys/coffer/pkg/object"
)

// File is the parsed form of a container blob.
type File struct {
	Container string
	Names     []string
	Tables    *link.Tables

	// Payloads is parallel to Tables.Exports, sliced out of the
	// decompressed payload region.
	Payloads [][]byte
}

// Read parses a container blob. The whole blob is buffered in memory;
// containers are written in one piece and inspected the same way.
func Read(r io.Reader) (*File, error) {
	blob, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidContainer, err, "read container")
	}
	if len(blob) < headerSize {
		return nil, errors.New(errors.ErrCodeInvalidContainer, "truncated header: %d bytes", len(blob))
	}

	h, err := parseHeader(blob)
	if err != nil {
		return nil, err
	}

	sec := func(off uint64, what string) ([]byte, error) {
		if off > uint64(len(blob)) {
			return nil, errors.New(errors.ErrCodeInvalidContainer, "%s section offset out of range", what)
		}
		return blob[off:], nil
	}

	// Name table.
	names := make([]string, 0, h.nameCount)
	nb, err := sec(h.nameOff, "name")
	if err != nil {
		return nil, err
	}
	cur := newCursor(nb)
	for i := uint32(0); i < h.nameCount; i++ {
		n := int(cur.u16())
		s := cur.bytes(n)
		cur.u64() // precomputed hash; loaders may index by it
		if cur.failed {
			return nil, errors.New(errors.ErrCodeInvalidContainer, "truncated name table at entry %d", i)
		}
		names = append(names, string(s))
	}
	nameAt := func(idx uint32) (string, error) {
		if idx >= uint32(len(names)) {
			return "", errors.New(errors.ErrCodeInvalidContainer, "name index %d out of range", idx)
		}
		return names[idx], nil
	}

	containerName, err := nameAt(h.containerName)
	if err != nil {
		return nil, err
	}
	tables := link.NewTables(containerName)

	refAt := func(cur *cursor) (object.Ref, error) {
		c, err := nameAt(cur.u32())
		if err != nil {
			return object.Ref{}, err
		}
		n, err := nameAt(cur.u32())
		if err != nil {
			return object.Ref{}, err
		}
		return object.Ref{Container: c, Name: n}, nil
	}

	// Import table.
	ib, err := sec(h.importOff, "import")
	if err != nil {
		return nil, err
	}
	cur = newCursor(ib)
	for i := uint32(0); i < h.importCount; i++ {
		var rec link.ImportRecord
		if rec.Ref, err = refAt(cur); err != nil {
			return nil, err
		}
		if rec.Class, err = refAt(cur); err != nil {
			return nil, err
		}
		rec.Outer = link.Index(cur.i32())
		if cur.failed {
			return nil, errors.New(errors.ErrCodeInvalidContainer, "truncated import table at entry %d", i)
		}
		tables.AddImport(rec)
	}

	// Export table.
	eb, err := sec(h.exportOff, "export")
	if err != nil {
		return nil, err
	}
	cur = newCursor(eb)
	for i := uint32(0); i < h.exportCount; i++ {
		var rec link.ExportRecord
		if rec.Ref, err = refAt(cur); err != nil {
			return nil, err
		}
		copy(rec.GUID[:], cur.bytes(16))
		rec.Flags = object.Flags(cur.u32())
		rec.Class = link.Index(cur.i32())
		rec.Archetype = link.Index(cur.i32())
		rec.Super = link.Index(cur.i32())
		rec.Outer = link.Index(cur.i32())
		bits := cur.u8()
		rec.AssetLike = bits&1 != 0
		rec.NotAlwaysNeeded = bits&2 != 0
		rec.PayloadOffset = cur.u64()
		rec.PayloadSize = cur.u64()
		if cur.failed {
			return nil, errors.New(errors.ErrCodeInvalidContainer, "truncated export table at entry %d", i)
		}
		tables.AddExport(rec)
	}

	// Dependency table.
	hb, err := sec(h.depHeaderOff, "dependency header")
	if err != nil {
		return nil, err
	}
	edgeB, err := sec(h.depEdgesOff, "dependency edge")
	if err != nil {
		return nil, err
	}
	if uint64(h.depEdgeCount)*4 > uint64(len(edgeB)) {
		return nil, errors.New(errors.ErrCodeInvalidContainer,
			"dependency edge count %d exceeds edge section", h.depEdgeCount)
	}
	edges := newCursor(edgeB)
	cur = newCursor(hb)
	tables.Deps = make([]link.DependencySet, h.exportCount)
	var edgeTotal uint32
	for i := uint32(0); i < h.exportCount; i++ {
		cur.u32() // flat offset; implied by the counts when reading sequentially
		for k := link.DependencyKind(0); k < link.KindCount; k++ {
			n := cur.u32()
			// Bound each count by the header's edge total before
			// allocating anything from it.
			if cur.failed || n > h.depEdgeCount-edgeTotal {
				return nil, errors.New(errors.ErrCodeInvalidContainer,
					"dependency count of export %d out of range", i)
			}
			edgeTotal += n
			for j := uint32(0); j < n; j++ {
				tables.Deps[i].Lists[k] = append(tables.Deps[i].Lists[k], link.Index(edges.i32()))
			}
		}
		if cur.failed || edges.failed {
			return nil, errors.New(errors.ErrCodeInvalidContainer, "truncated dependency table at export %d", i)
		}
	}

	// Payload region.
	if h.payloadOff+h.payloadStored > uint64(len(blob)) {
		return nil, errors.New(errors.ErrCodeInvalidContainer, "payload region out of range")
	}
	payload := blob[h.payloadOff : h.payloadOff+h.payloadStored]
	if h.flags&flagZstdPayload != 0 {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "init zstd decoder")
		}
		defer dec.Close()
		payload, err = dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidContainer, err, "decompress payload region")
		}
	}
	if uint64(len(payload)) != h.payloadRaw {
		return nil, errors.New(errors.ErrCodeInvalidContainer,
			"payload region is %d bytes, header says %d", len(payload), h.payloadRaw)
	}

	payloads := make([][]byte, h.exportCount)
	for i := range tables.Exports {
		rec := &tables.Exports[i]
		end := rec.PayloadOffset + rec.PayloadSize
		if end > uint64(len(payload)) {
			return nil, errors.New(errors.ErrCodeInvalidContainer,
				"payload range of export %d out of bounds", i)
		}
		payloads[i] = payload[rec.PayloadOffset:end]
	}

	return &File{
		Container: containerName,
		Names:     names,
		Tables:    tables,
		Payloads:  payloads,
	}, nil
}

func parseHeader(blob []byte) (*header, error) {
	cur := newCursor(blob[:headerSize])
	h := &header{
		magic:   cur.u32(),
		version: cur.u32(),
	}
	if h.magic != Magic {
		return nil, errors.New(errors.ErrCodeInvalidContainer, "bad magic 0x%08X", h.magic)
	}
	if h.version != Version {
		return nil, errors.New(errors.ErrCodeUnsupported, "container version %d (reader supports %d)", h.version, Version)
	}
	h.flags = cur.u32()
	h.containerName = cur.u32()
	h.nameCount = cur.u32()
	h.nameOff = cur.u64()
	h.importCount = cur.u32()
	h.importOff = cur.u64()
	h.exportCount = cur.u32()
	h.exportOff = cur.u64()
	h.depEdgeCount = cur.u32()
	h.depHeaderOff = cur.u64()
	h.depEdgesOff = cur.u64()
	h.payloadOff = cur.u64()
	h.payloadStored = cur.u64()
	h.payloadRaw = cur.u64()
	return h, nil
}

// cursor is a bounds-checked little-endian reader over a byte slice.
type cursor struct {
	b      []byte
	failed bool
}

func newCursor(b []byte) *cursor { return &cursor{b: b} }

func (c *cursor) take(n int) []byte {
	if c.failed || len(c.b) < n {
		c.failed = true
		return nil
	}
	out := c.b[:n]
	c.b = c.b[n:]
	return out
}

func (c *cursor) u8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) u16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (c *cursor) u32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (c *cursor) i32() int32 { return int32(c.u32()) }

func (c *cursor) u64() uint64 {
	b := c.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (c *cursor) bytes(n int) []byte { return c.take(n) }
