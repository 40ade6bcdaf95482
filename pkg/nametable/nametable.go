// Package nametable deduplicates string identifiers used anywhere in the
// object graph into a single table written once into the container. Refs in
// the export/import tables are stored as name-table indices, so identical
// strings cost one entry no matter how often they appear.
package nametable

import (
	"github.com/cespare/xxhash/v2"
)

// Index identifies one interned name. Indices are dense, start at zero, and
// follow first-insertion order, which keeps repeat builds over an unchanged
// graph byte-identical.
type Index uint32

// Table interns strings. The zero value is not usable - use [New].
// Table is not safe for concurrent use.
type Table struct {
	byHash map[uint64][]Index // hash -> candidate indices (collision chain)
	names  []string
	hashes []uint64
}

// New creates an empty name table.
func New() *Table {
	return &Table{byHash: make(map[uint64][]Index)}
}

// Intern returns the index for s, adding it to the table on first sight.
func (t *Table) Intern(s string) Index {
	h := xxhash.Sum64String(s)
	for _, idx := range t.byHash[h] {
		if t.names[idx] == s {
			return idx
		}
	}
	idx := Index(len(t.names))
	t.names = append(t.names, s)
	t.hashes = append(t.hashes, h)
	t.byHash[h] = append(t.byHash[h], idx)
	return idx
}

// Lookup returns the index for s without interning it.
func (t *Table) Lookup(s string) (Index, bool) {
	for _, idx := range t.byHash[xxhash.Sum64String(s)] {
		if t.names[idx] == s {
			return idx, true
		}
	}
	return 0, false
}

// Name returns the string at idx. It panics on an out-of-range index, which
// indicates a corrupted table reference.
func (t *Table) Name(idx Index) string { return t.names[idx] }

// Hash returns the precomputed xxhash of the name at idx. The hash is
// written next to each entry so loaders can build their own lookup without
// rehashing.
func (t *Table) Hash(idx Index) uint64 { return t.hashes[idx] }

// Len returns the number of interned names.
func (t *Table) Len() int { return len(t.names) }

// Names returns all interned names in insertion order.
// The returned slice must not be modified.
func (t *Table) Names() []string { return t.names }
