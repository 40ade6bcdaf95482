// Package manifest loads declarative TOML object-graph descriptions.
//
// A manifest describes one container's worth of objects - type descriptors,
// their default instances, ordinary instances and references to objects
// homed in other containers - and is the CLI's way of feeding a graph into
// a build. Real engine integrations implement [object.Provider] directly;
// manifests exist for tooling and tests.
package manifest

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/object"
)

// DefaultSuffix is appended to a type name to form its default instance
// name when the manifest does not name one explicitly.
const DefaultSuffix = ".Default"

// Manifest is the decoded TOML form of a graph description.
type Manifest struct {
	// Container is the name of the container being described.
	Container string `toml:"container"`

	// Core optionally names the container holding the foundational type
	// descriptors. When set, the standard core set is installed there
	// and used as the bootstrap set for builds.
	Core string `toml:"core"`

	// Roots are the build roots. Bare names resolve in Container.
	Roots []string `toml:"roots"`

	Types     []TypeDecl     `toml:"types"`
	Instances []InstanceDecl `toml:"instances"`
	Externals []ExternalDecl `toml:"externals"`
}

// TypeDecl declares a type descriptor. Every type implicitly gets a default
// instance named "<name>.Default" unless Default overrides it.
type TypeDecl struct {
	Name    string      `toml:"name"`
	Super   string      `toml:"super"`
	Outer   string      `toml:"outer"`
	Flags   []string    `toml:"flags"`
	Hints   []string    `toml:"hints"`
	Default DefaultDecl `toml:"default"`
}

// DefaultDecl declares the default instance attached to a type.
type DefaultDecl struct {
	Name     string   `toml:"name"`
	Flags    []string `toml:"flags"`
	Refs     []string `toml:"refs"`
	SoftRefs []string `toml:"soft_refs"`
	Hints    []string `toml:"hints"`
}

// InstanceDecl declares an ordinary object instance.
type InstanceDecl struct {
	Name      string   `toml:"name"`
	Class     string   `toml:"class"`
	Outer     string   `toml:"outer"`
	Archetype string   `toml:"archetype"`
	Flags     []string `toml:"flags"`
	Refs      []string `toml:"refs"`
	SoftRefs  []string `toml:"soft_refs"`
	Hints     []string `toml:"hints"`
}

// ExternalDecl declares an object homed in another container so that
// references to it resolve during tagging. Externals become imports, never
// exports.
type ExternalDecl struct {
	Ref   string   `toml:"ref"` // must be container:name
	Class string   `toml:"class"`
	Super string   `toml:"super"`
	Type  bool     `toml:"type"`
	Flags []string `toml:"flags"`
	Refs  []string `toml:"refs"`
}

// Result is a manifest materialized into a graph.
type Result struct {
	Graph     *object.Graph
	Container string
	Roots     []object.Ref

	// Core is the bootstrap set, nil when the manifest declares none.
	Core *object.CoreTypes
}

// Load reads and materializes a manifest file.
func Load(path string) (*Result, error) {
	if err := errors.ValidateManifestPath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "read manifest %s", path)
	}
	return Parse(data)
}

// Parse materializes a manifest from raw TOML.
func Parse(data []byte) (*Result, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode manifest")
	}
	return m.Build()
}

// Build materializes the manifest into an object graph.
func (m *Manifest) Build() (*Result, error) {
	if err := errors.ValidateContainerName(m.Container); err != nil {
		return nil, err
	}

	g := object.NewGraph()
	res := &Result{Graph: g, Container: m.Container}

	coreType := object.Ref{}
	if m.Core != "" {
		if err := errors.ValidateContainerName(m.Core); err != nil {
			return nil, err
		}
		core, err := object.InstallCoreTypes(g, m.Core)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "install core types")
		}
		res.Core = core
		coreType = object.Ref{Container: m.Core, Name: object.CoreTypeName}
	}

	for _, ext := range m.Externals {
		if err := m.addExternal(g, ext, coreType); err != nil {
			return nil, err
		}
	}
	for _, td := range m.Types {
		if err := m.addType(g, td, coreType); err != nil {
			return nil, err
		}
	}
	for _, id := range m.Instances {
		if err := m.addInstance(g, id); err != nil {
			return nil, err
		}
	}

	for _, r := range m.Roots {
		ref, err := m.ref(r)
		if err != nil {
			return nil, err
		}
		if _, ok := g.Resolve(ref); !ok {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "root %s is not declared", ref)
		}
		res.Roots = append(res.Roots, ref)
	}
	if len(res.Roots) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "manifest declares no roots")
	}

	return res, nil
}

func (m *Manifest) addType(g *object.Graph, td TypeDecl, coreType object.Ref) error {
	if td.Name == "" {
		return errors.New(errors.ErrCodeInvalidManifest, "type with empty name")
	}
	if coreType.IsZero() {
		return errors.New(errors.ErrCodeInvalidManifest,
			"type %s declared but manifest names no core container", td.Name)
	}

	typeRef := object.Ref{Container: m.Container, Name: td.Name}
	defName := td.Default.Name
	if defName == "" {
		defName = td.Name + DefaultSuffix
	}
	defRef := object.Ref{Container: m.Container, Name: defName}

	flags, err := m.flags(td.Flags)
	if err != nil {
		return err
	}
	super, err := m.optionalRef(td.Super)
	if err != nil {
		return err
	}
	outer, err := m.optionalRef(td.Outer)
	if err != nil {
		return err
	}
	hints, err := m.refs(td.Hints)
	if err != nil {
		return err
	}

	if err := g.Add(object.Desc{
		Ref:             typeRef,
		GUID:            object.StableGUID(typeRef),
		Class:           coreType,
		Super:           super,
		Outer:           outer,
		DefaultInstance: defRef,
		Flags:           flags,
		IsType:          true,
		PreloadHints:    hints,
	}); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "type %s", typeRef)
	}

	defFlags, err := m.flags(td.Default.Flags)
	if err != nil {
		return err
	}
	defRefs, err := m.references(td.Default.Refs, td.Default.SoftRefs)
	if err != nil {
		return err
	}
	defHints, err := m.refs(td.Default.Hints)
	if err != nil {
		return err
	}

	if err := g.Add(object.Desc{
		Ref:          defRef,
		GUID:         object.StableGUID(defRef),
		Class:        typeRef,
		Outer:        typeRef,
		Flags:        defFlags | object.FlagClassDefault,
		References:   defRefs,
		PreloadHints: defHints,
	}); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "default instance %s", defRef)
	}
	return nil
}

func (m *Manifest) addInstance(g *object.Graph, id InstanceDecl) error {
	if id.Name == "" {
		return errors.New(errors.ErrCodeInvalidManifest, "instance with empty name")
	}
	if id.Class == "" {
		return errors.New(errors.ErrCodeInvalidManifest, "instance %s has no class", id.Name)
	}

	class, err := m.ref(id.Class)
	if err != nil {
		return err
	}
	outer, err := m.optionalRef(id.Outer)
	if err != nil {
		return err
	}
	archetype, err := m.optionalRef(id.Archetype)
	if err != nil {
		return err
	}
	flags, err := m.flags(id.Flags)
	if err != nil {
		return err
	}
	refs, err := m.references(id.Refs, id.SoftRefs)
	if err != nil {
		return err
	}
	hints, err := m.refs(id.Hints)
	if err != nil {
		return err
	}

	instRef := object.Ref{Container: m.Container, Name: id.Name}
	if err := g.Add(object.Desc{
		Ref:          instRef,
		GUID:         object.StableGUID(instRef),
		Class:        class,
		Outer:        outer,
		Archetype:    archetype,
		Flags:        flags,
		References:   refs,
		PreloadHints: hints,
	}); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "instance %s", id.Name)
	}
	return nil
}

func (m *Manifest) addExternal(g *object.Graph, ext ExternalDecl, coreType object.Ref) error {
	ref, err := object.ParseRef(ext.Ref)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "external")
	}
	if ref.Container == m.Container {
		return errors.New(errors.ErrCodeInvalidManifest,
			"external %s is homed in the manifest container", ref)
	}

	class := coreType
	if ext.Class != "" {
		if class, err = object.ParseRef(ext.Class); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidManifest, err, "external %s", ref)
		}
	}
	if class.IsZero() && ext.Type {
		return errors.New(errors.ErrCodeInvalidManifest,
			"external type %s needs a class or a core container", ref)
	}
	super := object.Ref{}
	if ext.Super != "" {
		if super, err = object.ParseRef(ext.Super); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidManifest, err, "external %s", ref)
		}
	}
	flags, err := m.flags(ext.Flags)
	if err != nil {
		return err
	}
	refs, err := m.references(ext.Refs, nil)
	if err != nil {
		return err
	}

	if err := g.Add(object.Desc{
		Ref:        ref,
		GUID:       object.StableGUID(ref),
		Class:      class,
		Super:      super,
		IsType:     ext.Type,
		Flags:      flags,
		References: refs,
	}); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "external %s", ref)
	}
	return nil
}

// ref resolves a manifest reference string. Bare names are homed in the
// manifest container; "container:name" is parsed as written.
func (m *Manifest) ref(s string) (object.Ref, error) {
	if s == "" {
		return object.Ref{}, errors.New(errors.ErrCodeInvalidManifest, "empty reference")
	}
	if ref, err := object.ParseRef(s); err == nil {
		return ref, nil
	}
	if err := errors.ValidateObjectName(s); err != nil {
		return object.Ref{}, err
	}
	return object.Ref{Container: m.Container, Name: s}, nil
}

func (m *Manifest) optionalRef(s string) (object.Ref, error) {
	if s == "" {
		return object.Ref{}, nil
	}
	return m.ref(s)
}

func (m *Manifest) refs(ss []string) ([]object.Ref, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	out := make([]object.Ref, 0, len(ss))
	for _, s := range ss {
		ref, err := m.ref(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

func (m *Manifest) references(hard, soft []string) ([]object.Reference, error) {
	out := make([]object.Reference, 0, len(hard)+len(soft))
	for _, s := range hard {
		ref, err := m.ref(s)
		if err != nil {
			return nil, err
		}
		out = append(out, object.Reference{Target: ref})
	}
	for _, s := range soft {
		ref, err := m.ref(s)
		if err != nil {
			return nil, err
		}
		out = append(out, object.Reference{Target: ref, Soft: true})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (m *Manifest) flags(names []string) (object.Flags, error) {
	var f object.Flags
	for _, n := range names {
		bit, ok := object.ParseFlag(n)
		if !ok {
			return 0, errors.New(errors.ErrCodeInvalidManifest, "unknown flag %q", n)
		}
		f |= bit
	}
	return f, nil
}
