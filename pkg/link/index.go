// Package link defines the linker tables shared by the build pipeline
// stages: the packed export/import index, export and import records, the
// four preload dependency kinds, and the Tables aggregate handed to the
// container writer.
package link

import "fmt"

// Index is a packed reference into either the export or the import table.
// Zero is the null index, positive values point at exports (value-1), and
// negative values point at imports (-value-1). Records store indices rather
// than raw pointers so that a written container is fully relocatable.
type Index int32

// NullIndex is the null reference.
const NullIndex Index = 0

// FromExport returns the index for export table entry i.
func FromExport(i int) Index { return Index(i + 1) }

// FromImport returns the index for import table entry i.
func FromImport(i int) Index { return Index(-i - 1) }

// IsNull reports whether the index is the null reference.
func (x Index) IsNull() bool { return x == 0 }

// IsExport reports whether the index points into the export table.
func (x Index) IsExport() bool { return x > 0 }

// IsImport reports whether the index points into the import table.
func (x Index) IsImport() bool { return x < 0 }

// Export returns the export table position. It panics if the index is not
// an export reference.
func (x Index) Export() int {
	if !x.IsExport() {
		panic(fmt.Sprintf("link: index %d is not an export", x))
	}
	return int(x) - 1
}

// Import returns the import table position. It panics if the index is not
// an import reference.
func (x Index) Import() int {
	if !x.IsImport() {
		panic(fmt.Sprintf("link: index %d is not an import", x))
	}
	return int(-x) - 1
}

// String returns "export[i]", "import[i]", or "null".
func (x Index) String() string {
	switch {
	case x.IsExport():
		return fmt.Sprintf("export[%d]", x.Export())
	case x.IsImport():
		return fmt.Sprintf("import[%d]", x.Import())
	default:
		return "null"
	}
}
