package container

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/link"
	"github.com/coffersys/coffer/pkg/nametable"
)

// Options configures container writing.
type Options struct {
	// Compress enables zstd compression of the payload region.
	Compress bool
}

// Write assembles tables and per-export payloads into one container blob.
//
// payloads is parallel to tables.Exports and may be nil (headers-only
// container, e.g. during a dry run); individual entries may also be nil.
// Payload byte ranges in the written export records are derived from the
// payload slice, overriding whatever the in-memory records carried.
func Write(w io.Writer, tables *link.Tables, payloads [][]byte, opts Options) error {
	if tables == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil tables")
	}
	if payloads != nil && len(payloads) != len(tables.Exports) {
		return errors.New(errors.ErrCodeInvalidInput,
			"payload count %d does not match export count %d", len(payloads), len(tables.Exports))
	}
	if len(tables.Deps) != 0 && len(tables.Deps) != len(tables.Exports) {
		return errors.New(errors.ErrCodeInvalidInput,
			"dependency set count %d does not match export count %d", len(tables.Deps), len(tables.Exports))
	}

	names := nametable.New()
	h := header{magic: Magic, version: Version}
	h.containerName = uint32(names.Intern(tables.Container))

	// Assemble the payload region first so export records carry final
	// byte ranges.
	var payloadRaw bytes.Buffer
	offsets := make([]uint64, len(tables.Exports))
	sizes := make([]uint64, len(tables.Exports))
	for i := range payloads {
		offsets[i] = uint64(payloadRaw.Len())
		sizes[i] = uint64(len(payloads[i]))
		payloadRaw.Write(payloads[i])
	}

	var importSec, exportSec, depHeadSec, depEdgeSec bytes.Buffer

	internRef := func(c, n string) (uint32, uint32) {
		return uint32(names.Intern(c)), uint32(names.Intern(n))
	}

	for _, rec := range tables.Imports {
		ci, ni := internRef(rec.Ref.Container, rec.Ref.Name)
		cci, cni := internRef(rec.Class.Container, rec.Class.Name)
		for _, v := range []uint32{ci, ni, cci, cni} {
			putU32(&importSec, v)
		}
		putI32(&importSec, int32(rec.Outer))
	}

	for i, rec := range tables.Exports {
		ci, ni := internRef(rec.Ref.Container, rec.Ref.Name)
		putU32(&exportSec, ci)
		putU32(&exportSec, ni)
		exportSec.Write(rec.GUID[:])
		putU32(&exportSec, uint32(rec.Flags))
		for _, x := range []link.Index{rec.Class, rec.Archetype, rec.Super, rec.Outer} {
			putI32(&exportSec, int32(x))
		}
		var bits uint8
		if rec.AssetLike {
			bits |= 1
		}
		if rec.NotAlwaysNeeded {
			bits |= 2
		}
		exportSec.WriteByte(bits)
		if payloads != nil {
			putU64(&exportSec, offsets[i])
			putU64(&exportSec, sizes[i])
		} else {
			putU64(&exportSec, rec.PayloadOffset)
			putU64(&exportSec, rec.PayloadSize)
		}
	}

	// Dependency table: per-export (offset, count-per-kind) headers over
	// one flat edge array.
	edgeCount := uint32(0)
	for i := range tables.Exports {
		putU32(&depHeadSec, edgeCount)
		var set link.DependencySet
		if i < len(tables.Deps) {
			set = tables.Deps[i]
		}
		for k := link.DependencyKind(0); k < link.KindCount; k++ {
			putU32(&depHeadSec, uint32(len(set.Lists[k])))
			for _, x := range set.Lists[k] {
				putI32(&depEdgeSec, int32(x))
				edgeCount++
			}
		}
	}
	h.depEdgeCount = edgeCount

	// Name section is assembled last: every string is interned by now.
	var nameSec bytes.Buffer
	for i := 0; i < names.Len(); i++ {
		s := names.Name(nametable.Index(i))
		if len(s) > math.MaxUint16 {
			return errors.New(errors.ErrCodeInvalidName, "name too long: %d bytes", len(s))
		}
		putU16(&nameSec, uint16(len(s)))
		nameSec.WriteString(s)
		putU64(&nameSec, names.Hash(nametable.Index(i)))
	}

	payload := payloadRaw.Bytes()
	h.payloadRaw = uint64(len(payload))
	if opts.Compress && len(payload) > 0 {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "init zstd encoder")
		}
		payload = enc.EncodeAll(payload, nil)
		enc.Close()
		h.flags |= flagZstdPayload
	}
	h.payloadStored = uint64(len(payload))

	h.nameCount = uint32(names.Len())
	h.importCount = uint32(len(tables.Imports))
	h.exportCount = uint32(len(tables.Exports))

	off := uint64(headerSize)
	h.nameOff = off
	off += uint64(nameSec.Len())
	h.importOff = off
	off += uint64(importSec.Len())
	h.exportOff = off
	off += uint64(exportSec.Len())
	h.depHeaderOff = off
	off += uint64(depHeadSec.Len())
	h.depEdgesOff = off
	off += uint64(depEdgeSec.Len())
	h.payloadOff = off

	var out bytes.Buffer
	writeHeader(&out, &h)
	out.Write(nameSec.Bytes())
	out.Write(importSec.Bytes())
	out.Write(exportSec.Bytes())
	out.Write(depHeadSec.Bytes())
	out.Write(depEdgeSec.Bytes())
	out.Write(payload)

	if _, err := w.Write(out.Bytes()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write container")
	}
	return nil
}

func writeHeader(b *bytes.Buffer, h *header) {
	putU32(b, h.magic)
	putU32(b, h.version)
	putU32(b, h.flags)
	putU32(b, h.containerName)
	putU32(b, h.nameCount)
	putU64(b, h.nameOff)
	putU32(b, h.importCount)
	putU64(b, h.importOff)
	putU32(b, h.exportCount)
	putU64(b, h.exportOff)
	putU32(b, h.depEdgeCount)
	putU64(b, h.depHeaderOff)
	putU64(b, h.depEdgesOff)
	putU64(b, h.payloadOff)
	putU64(b, h.payloadStored)
	putU64(b, h.payloadRaw)
}

func putU16(b *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.Write(tmp[:])
}

func putU32(b *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.Write(tmp[:])
}

func putI32(b *bytes.Buffer, v int32) { putU32(b, uint32(v)) }

func putU64(b *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.Write(tmp[:])
}
