package link

import "github.com/coffersys/coffer/pkg/object"

// Tables aggregates the linker tables of one container build: the sorted
// export list, the identity-sorted import list, and the per-export preload
// dependency sets. It is the boundary handed to the container writer.
type Tables struct {
	Container string // name of the container being written

	Exports []ExportRecord
	Imports []ImportRecord

	// Deps is parallel to Exports. Populated by the preload encoder.
	Deps []DependencySet

	byRef map[object.Ref]Index
}

// NewTables creates empty tables for the named container.
func NewTables(container string) *Tables {
	return &Tables{
		Container: container,
		byRef:     make(map[object.Ref]Index),
	}
}

// AddExport appends an export record and indexes it by identity.
// Records must be appended in final (sorted) order.
func (t *Tables) AddExport(rec ExportRecord) Index {
	idx := FromExport(len(t.Exports))
	t.Exports = append(t.Exports, rec)
	t.byRef[rec.Ref] = idx
	return idx
}

// AddImport appends an import record and indexes it by identity.
func (t *Tables) AddImport(rec ImportRecord) Index {
	idx := FromImport(len(t.Imports))
	t.Imports = append(t.Imports, rec)
	t.byRef[rec.Ref] = idx
	return idx
}

// IndexOf returns the packed index for an identity, or the null index if the
// identity is neither exported nor imported.
func (t *Tables) IndexOf(r object.Ref) Index {
	if r.IsZero() {
		return NullIndex
	}
	return t.byRef[r]
}

// RefOf returns the identity behind a packed index, or the zero ref for the
// null index.
func (t *Tables) RefOf(x Index) object.Ref {
	switch {
	case x.IsExport():
		return t.Exports[x.Export()].Ref
	case x.IsImport():
		return t.Imports[x.Import()].Ref
	default:
		return object.Ref{}
	}
}

// PositionOf returns the export table position of an identity, or -1 if the
// identity is not an export. Test helpers use this to assert ordering
// invariants.
func (t *Tables) PositionOf(r object.Ref) int {
	if x := t.IndexOf(r); x.IsExport() {
		return x.Export()
	}
	return -1
}
