package object

// Core type descriptor names. Every object ultimately depends on this small
// fixed set, which is why the sorter pins it ahead of everything else.
const (
	CoreObjectName   = "Object"
	CoreTypeName     = "Type"
	CoreStructName   = "Struct"
	CoreFunctionName = "Function"
	CoreEnumName     = "Enum"
)

// CoreTypes is the bootstrap set: the foundational type descriptors that are
// available through a side channel before a container's export sequence
// begins loading. Pinning them breaks the otherwise unbreakable cycle where
// every type descriptor is itself an instance of some type descriptor.
//
// The set is owned by the caller and built once per process (invalidated
// only on a schema reload), then shared across builds. It is immutable after
// construction and safe for concurrent use.
type CoreTypes struct {
	members map[Ref]struct{}
	order   []Ref
}

// NewCoreTypes builds a bootstrap set from an explicit member list.
// Tests inject small custom sets through this constructor.
func NewCoreTypes(members ...Ref) *CoreTypes {
	c := &CoreTypes{members: make(map[Ref]struct{}, len(members))}
	for _, m := range members {
		if _, dup := c.members[m]; dup || m.IsZero() {
			continue
		}
		c.members[m] = struct{}{}
		c.order = append(c.order, m)
	}
	return c
}

// DefaultCoreTypes returns the standard bootstrap set homed in the given
// container (conventionally the engine core container).
func DefaultCoreTypes(container string) *CoreTypes {
	return NewCoreTypes(
		Ref{Container: container, Name: CoreObjectName},
		Ref{Container: container, Name: CoreTypeName},
		Ref{Container: container, Name: CoreStructName},
		Ref{Container: container, Name: CoreFunctionName},
		Ref{Container: container, Name: CoreEnumName},
	)
}

// Contains reports whether r is a bootstrap member.
func (c *CoreTypes) Contains(r Ref) bool {
	_, ok := c.members[r]
	return ok
}

// Members returns the bootstrap members in pinned order.
// The returned slice must not be modified.
func (c *CoreTypes) Members() []Ref { return c.order }

// Len returns the number of bootstrap members.
func (c *CoreTypes) Len() int { return len(c.order) }

// InstallCoreTypes adds the standard core type descriptors to g, fully
// expanded: each descriptor's class is Type, supers chain to Object, and
// Object terminates the recursion against itself. It returns the matching
// bootstrap set.
//
// Graphs built by hand (tests, manifests) call this so that the bootstrap
// members resolve like any other object during tagging.
func InstallCoreTypes(g *Graph, container string) (*CoreTypes, error) {
	object := Ref{Container: container, Name: CoreObjectName}
	typ := Ref{Container: container, Name: CoreTypeName}

	descs := []Desc{
		{Ref: object, Class: typ, IsType: true, Flags: FlagNative | FlagPublic},
		{Ref: typ, Class: typ, Super: object, IsType: true, Flags: FlagNative | FlagPublic},
		{Ref: Ref{Container: container, Name: CoreStructName}, Class: typ, Super: object, IsType: true, Flags: FlagNative | FlagPublic},
		{Ref: Ref{Container: container, Name: CoreFunctionName}, Class: typ, Super: object, IsType: true, Flags: FlagNative | FlagPublic},
		{Ref: Ref{Container: container, Name: CoreEnumName}, Class: typ, Super: object, IsType: true, Flags: FlagNative | FlagPublic},
	}
	for _, d := range descs {
		d.GUID = StableGUID(d.Ref)
		if err := g.Add(d); err != nil {
			return nil, err
		}
	}
	return DefaultCoreTypes(container), nil
}
