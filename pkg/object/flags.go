package object

import "strings"

// Flags is the object flag set carried through tagging into the export table.
type Flags uint32

const (
	// FlagTransient marks objects that must never be serialized. A
	// transient object force-loaded by a surviving export is a graph
	// inconsistency.
	FlagTransient Flags = 1 << iota

	// FlagNative marks intrinsic objects constructed by the runtime
	// itself rather than from container data.
	FlagNative

	// FlagClassDefault marks the canonical default instance of a type
	// descriptor.
	FlagClassDefault

	// FlagArchetypeInstance marks default sub-objects instanced under an
	// archetype or default instance.
	FlagArchetypeInstance

	// FlagPublic marks objects that may be referenced from other
	// containers. A cross-container reference to a non-public object is
	// an illegal reference.
	FlagPublic

	// FlagEditorOnly marks objects stripped from runtime-profile
	// containers by the default exclusion policy.
	FlagEditorOnly

	// FlagAssetLike marks top-level asset objects in the export table.
	FlagAssetLike

	// FlagNotAlwaysNeeded marks exports excluded from unconditional
	// preloading.
	FlagNotAlwaysNeeded
)

// Has reports whether all bits in q are set.
func (f Flags) Has(q Flags) bool { return f&q == q }

var flagNames = []struct {
	bit  Flags
	name string
}{
	{FlagTransient, "transient"},
	{FlagNative, "native"},
	{FlagClassDefault, "classDefault"},
	{FlagArchetypeInstance, "archetypeInstance"},
	{FlagPublic, "public"},
	{FlagEditorOnly, "editorOnly"},
	{FlagAssetLike, "assetLike"},
	{FlagNotAlwaysNeeded, "notAlwaysNeeded"},
}

// String returns a "|"-joined list of set flag names, or "none".
func (f Flags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.bit) {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseFlag maps a manifest flag name to its bit.
func ParseFlag(name string) (Flags, bool) {
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.bit, true
		}
	}
	return 0, false
}
