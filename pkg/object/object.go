// Package object defines the object model consumed by the container build
// pipeline: stable identities, object flags, the Provider capability
// interface, and an in-memory Graph implementation used by the manifest
// loader and by tests.
//
// The build pipeline never inspects concrete object layouts. Everything it
// needs (class, archetype, outer, super, flags, and the object's direct
// references in a stable order) is exposed through the [Object] interface,
// so any object model can drive a container build by implementing [Provider].
package object

import (
	"fmt"

	"github.com/google/uuid"
)

// Ref is the stable identity of an object: the name of its home container
// plus its name within that container. The zero value is the null reference.
type Ref struct {
	Container string // Home container name (e.g., "game/props")
	Name      string // Object name, unique within the container
}

// IsZero reports whether the reference is null.
func (r Ref) IsZero() bool { return r.Container == "" && r.Name == "" }

// String returns the "container:name" form used in diagnostics and manifests.
func (r Ref) String() string {
	if r.IsZero() {
		return "<none>"
	}
	return r.Container + ":" + r.Name
}

// ParseRef parses the "container:name" form produced by [Ref.String].
// A ref without a container separator is rejected - every object lives in
// exactly one container.
func ParseRef(s string) (Ref, error) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			if i == 0 || i == len(s)-1 {
				break
			}
			return Ref{Container: s[:i], Name: s[i+1:]}, nil
		}
	}
	return Ref{}, fmt.Errorf("invalid object reference %q: want container:name", s)
}

// StableGUID derives an object's GUID from its identity (name-based UUID,
// RFC 4122 v5). Declarative sources such as manifests and the core type
// installer use it so that rebuilding the same declarations yields the same
// GUIDs, which keeps build and render cache keys stable across processes.
func StableGUID(r Ref) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("coffer://"+r.Container+"/"+r.Name))
}

// Reference is one outgoing edge discovered while enumerating an object's
// direct references. Soft references are resolved lazily at runtime and are
// never force-loaded; they are invisible to the dependency sorter.
type Reference struct {
	Target Ref
	Soft   bool
}

// Object is the provider-facing view of a graph node.
//
// Implementations must return references in a stable, reproducible order
// (declaration order). The sorter is deterministic only if reference
// iteration is.
type Object interface {
	// Identity returns the object's stable identity.
	Identity() Ref

	// GUID returns the object's globally unique id, carried into the
	// container tables for re-resolution on load.
	GUID() uuid.UUID

	// Class returns the object's type descriptor, or the null ref.
	Class() Ref

	// Archetype returns the object whose property defaults this object
	// inherits at construction, or the null ref.
	Archetype() Ref

	// Outer returns the structural parent, or the null ref.
	Outer() Ref

	// Super returns the super-type for type descriptors, or the null ref.
	Super() Ref

	// DefaultInstance returns the canonical default instance for type
	// descriptors, or the null ref.
	DefaultInstance() Ref

	// Flags returns the object's flag set.
	Flags() Flags

	// IsType reports whether the object is a type descriptor.
	IsType() bool

	// References returns the object's direct references in declaration
	// order: everything a serialization pass of this object would touch.
	References() []Reference

	// PreloadHints returns explicit serialize-before-serialize
	// dependencies declared by the object's type.
	PreloadHints() []Ref
}

// Provider resolves identities to objects. The graph behind a Provider is
// treated as a read-only snapshot for the duration of one container build.
type Provider interface {
	Resolve(Ref) (Object, bool)
}
