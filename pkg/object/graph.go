package object

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrInvalidName is returned by [Graph.Add] when the object name or
	// container is empty. All objects must have a full identity.
	ErrInvalidName = errors.New("object identity must not be empty")

	// ErrDuplicateObject is returned by [Graph.Add] when an object with
	// the same identity already exists in the graph.
	ErrDuplicateObject = errors.New("duplicate object identity")

	// ErrUnknownObject is returned by [Graph.MustResolve] when the
	// identity is not present in the graph.
	ErrUnknownObject = errors.New("unknown object")
)

// Desc describes one object to add to a [Graph]. Only Ref is mandatory;
// everything else defaults to the zero value. GUID is assigned randomly when
// left zero so that every object carries a usable identity.
type Desc struct {
	Ref             Ref
	GUID            uuid.UUID
	Class           Ref
	Archetype       Ref
	Outer           Ref
	Super           Ref
	DefaultInstance Ref
	Flags           Flags
	IsType          bool
	References      []Reference
	PreloadHints    []Ref
}

// node is the concrete Object implementation stored in a Graph.
type node struct {
	desc Desc
}

func (n *node) Identity() Ref            { return n.desc.Ref }
func (n *node) GUID() uuid.UUID          { return n.desc.GUID }
func (n *node) Class() Ref               { return n.desc.Class }
func (n *node) Archetype() Ref           { return n.desc.Archetype }
func (n *node) Outer() Ref               { return n.desc.Outer }
func (n *node) Super() Ref               { return n.desc.Super }
func (n *node) DefaultInstance() Ref     { return n.desc.DefaultInstance }
func (n *node) Flags() Flags             { return n.desc.Flags }
func (n *node) IsType() bool             { return n.desc.IsType }
func (n *node) References() []Reference  { return n.desc.References }
func (n *node) PreloadHints() []Ref      { return n.desc.PreloadHints }

// Graph is an in-memory object graph implementing [Provider]. It is the
// object model used by the manifest loader and by tests; a production object
// system would implement Provider directly over its own runtime metadata.
//
// Objects are returned in insertion order wherever order matters, which
// keeps container builds over an unchanged graph byte-identical.
//
// The zero value is not usable - use [NewGraph]. Graph is not safe for
// concurrent mutation; a finished graph is safe for concurrent reads.
type Graph struct {
	nodes map[Ref]*node
	order []Ref
}

// NewGraph creates an empty object graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[Ref]*node)}
}

// Add adds one object described by d. Returns ErrInvalidName if the identity
// is incomplete, or ErrDuplicateObject if the identity is already present.
func (g *Graph) Add(d Desc) error {
	if d.Ref.Container == "" || d.Ref.Name == "" {
		return ErrInvalidName
	}
	if _, exists := g.nodes[d.Ref]; exists {
		return ErrDuplicateObject
	}
	if d.GUID == uuid.Nil {
		d.GUID = uuid.New()
	}
	g.nodes[d.Ref] = &node{desc: d}
	g.order = append(g.order, d.Ref)
	return nil
}

// Resolve implements [Provider].
func (g *Graph) Resolve(r Ref) (Object, bool) {
	n, ok := g.nodes[r]
	return n, ok
}

// MustResolve resolves an identity or returns ErrUnknownObject.
func (g *Graph) MustResolve(r Ref) (Object, error) {
	if n, ok := g.nodes[r]; ok {
		return n, nil
	}
	return nil, ErrUnknownObject
}

// Objects returns every object in insertion order.
func (g *Graph) Objects() []Object {
	out := make([]Object, len(g.order))
	for i, r := range g.order {
		out[i] = g.nodes[r]
	}
	return out
}

// Len returns the number of objects in the graph.
func (g *Graph) Len() int { return len(g.order) }
