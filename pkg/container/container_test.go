package container

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/link"
	"github.com/coffersys/coffer/pkg/object"
)

func sampleTables(t *testing.T) *link.Tables {
	t.Helper()

	tables := link.NewTables("game/props")

	tables.AddImport(link.ImportRecord{
		Ref:   object.Ref{Container: "engine/core", Name: "Object"},
		Class: object.Ref{Container: "engine/core", Name: "Type"},
		Outer: link.NullIndex,
	})
	tables.AddImport(link.ImportRecord{
		Ref:   object.Ref{Container: "engine/core", Name: "Type"},
		Class: object.Ref{Container: "engine/core", Name: "Type"},
		Outer: link.NullIndex,
	})

	tables.AddExport(link.ExportRecord{
		Ref:   object.Ref{Container: "game/props", Name: "Barrel"},
		GUID:  uuid.New(),
		Flags: object.FlagPublic,
		Class: link.FromImport(1),
		Super: link.FromImport(0),
	})
	tables.AddExport(link.ExportRecord{
		Ref:       object.Ref{Container: "game/props", Name: "Barrel.Default"},
		GUID:      uuid.New(),
		Flags:     object.FlagClassDefault,
		Class:     link.FromExport(0),
		Outer:     link.FromExport(0),
		AssetLike: true,
	})

	tables.Deps = make([]link.DependencySet, 2)
	tables.Deps[1].Lists[link.SerializeBeforeCreate] = []link.Index{link.FromExport(0)}
	tables.Deps[1].Lists[link.CreateBeforeCreate] = []link.Index{link.FromImport(0)}
	return tables
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "uncompressed"
		if compress {
			name = "compressed"
		}
		t.Run(name, func(t *testing.T) {
			tables := sampleTables(t)
			payloads := [][]byte{
				bytes.Repeat([]byte("barrel type descriptor "), 16),
				[]byte("default instance state"),
			}

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tables, payloads, Options{Compress: compress}))

			f, err := Read(&buf)
			require.NoError(t, err)

			assert.Equal(t, "game/props", f.Container)
			require.Len(t, f.Tables.Exports, 2)
			require.Len(t, f.Tables.Imports, 2)

			for i := range tables.Exports {
				want, got := tables.Exports[i], f.Tables.Exports[i]
				assert.Equal(t, want.Ref, got.Ref)
				assert.Equal(t, want.GUID, got.GUID)
				assert.Equal(t, want.Flags, got.Flags)
				assert.Equal(t, want.Class, got.Class)
				assert.Equal(t, want.Archetype, got.Archetype)
				assert.Equal(t, want.Super, got.Super)
				assert.Equal(t, want.Outer, got.Outer)
				assert.Equal(t, want.AssetLike, got.AssetLike)
				assert.Equal(t, want.NotAlwaysNeeded, got.NotAlwaysNeeded)
			}
			assert.Equal(t, tables.Imports, f.Tables.Imports)
			assert.Equal(t, tables.Deps, f.Tables.Deps)
			assert.Equal(t, payloads, f.Payloads)
		})
	}
}

func TestWriteHeadersOnly(t *testing.T) {
	tables := sampleTables(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tables, nil, Options{}))

	f, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, f.Payloads, 2)
	assert.Empty(t, f.Payloads[0])
	assert.Empty(t, f.Payloads[1])
}

func TestWritePayloadCountMismatch(t *testing.T) {
	tables := sampleTables(t)
	err := Write(&bytes.Buffer{}, tables, [][]byte{nil}, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestReadBadMagic(t *testing.T) {
	tables := sampleTables(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tables, nil, Options{}))

	blob := buf.Bytes()
	blob[0] ^= 0xFF
	_, err := Read(bytes.NewReader(blob))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidContainer, errors.GetCode(err))
}

func TestReadUnsupportedVersion(t *testing.T) {
	tables := sampleTables(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tables, nil, Options{}))

	blob := buf.Bytes()
	blob[4] = 0xFF
	_, err := Read(bytes.NewReader(blob))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnsupported, errors.GetCode(err))
}

func TestReadOversizedDepCount(t *testing.T) {
	tables := sampleTables(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tables, nil, Options{}))

	// Inflate the first per-kind count of the first export past the
	// header's edge total. Read must reject it instead of allocating.
	blob := buf.Bytes()
	depHeaderOff := binary.LittleEndian.Uint64(blob[56:64])
	binary.LittleEndian.PutUint32(blob[depHeaderOff+4:], 0xFFFFFFFF)

	_, err := Read(bytes.NewReader(blob))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidContainer, errors.GetCode(err))
}

func TestReadOversizedEdgeTotal(t *testing.T) {
	tables := sampleTables(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tables, nil, Options{}))

	// An edge total larger than the edge section can hold is rejected
	// before the dependency table is decoded.
	blob := buf.Bytes()
	binary.LittleEndian.PutUint32(blob[52:56], 0xFFFFFFFF)

	_, err := Read(bytes.NewReader(blob))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidContainer, errors.GetCode(err))
}

func TestReadTruncated(t *testing.T) {
	tables := sampleTables(t)
	payloads := [][]byte{[]byte("aa"), []byte("bb")}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tables, payloads, Options{}))

	blob := buf.Bytes()
	for _, n := range []int{0, headerSize - 1, headerSize + 3, len(blob) - 1} {
		_, err := Read(bytes.NewReader(blob[:n]))
		require.Error(t, err, "prefix of %d bytes", n)
		assert.Equal(t, errors.ErrCodeInvalidContainer, errors.GetCode(err))
	}
}
