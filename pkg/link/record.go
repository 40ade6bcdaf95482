package link

import (
	"github.com/google/uuid"

	"github.com/coffersys/coffer/pkg/object"
)

// ExportRecord describes one object owned by the container being written.
// Reference fields are packed indices into the export or import table, never
// raw pointers. Payload fields are filled in by the serialization pass after
// the core pipeline runs; the record is frozen once the container is written.
type ExportRecord struct {
	Ref   object.Ref
	GUID  uuid.UUID
	Flags object.Flags

	Class     Index
	Archetype Index
	Super     Index // type descriptors only
	Outer     Index

	AssetLike       bool
	NotAlwaysNeeded bool

	// Serialized payload byte range, relative to the payload section.
	// Zero until the payload serialization pass fills it in.
	PayloadOffset uint64
	PayloadSize   uint64
}

// ImportRecord describes one object referenced but owned by a different
// container. Imports carry identity only - enough to re-resolve the object
// on load - and no topological constraint.
type ImportRecord struct {
	Ref   object.Ref // Ref.Container is the owning container
	Class object.Ref
	Outer Index
}

// DependencySet holds the four per-kind preload edge lists of one export.
// Lists are indexed by [DependencyKind].
type DependencySet struct {
	Lists [KindCount][]Index
}

// Total returns the number of edges across all kinds.
func (s *DependencySet) Total() int {
	n := 0
	for _, l := range s.Lists {
		n += len(l)
	}
	return n
}

// Has reports whether an edge of the given kind to the target is recorded.
func (s *DependencySet) Has(kind DependencyKind, target Index) bool {
	for _, x := range s.Lists[kind] {
		if x == target {
			return true
		}
	}
	return false
}

// HasAny reports whether any edge to the target is recorded, regardless of
// kind, and returns the strongest (lowest) kind found.
func (s *DependencySet) HasAny(target Index) (DependencyKind, bool) {
	for k := DependencyKind(0); k < KindCount; k++ {
		if s.Has(k, target) {
			return k, true
		}
	}
	return 0, false
}
