package preload

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/coffersys/coffer/pkg/link"
	"github.com/coffersys/coffer/pkg/object"
)

const (
	target = "game/props"
	engine = "engine/core"
)

func ref(container, name string) object.Ref {
	return object.Ref{Container: container, Name: name}
}

func quiet() *log.Logger { return log.New(io.Discard) }

// buildTables assembles an export table in the given order from objects in g.
func buildTables(t *testing.T, g *object.Graph, order ...object.Ref) (*link.Tables, map[object.Ref]object.Object) {
	t.Helper()
	tables := link.NewTables(target)
	objects := make(map[object.Ref]object.Object)
	for _, r := range order {
		obj, ok := g.Resolve(r)
		if !ok {
			t.Fatalf("unknown fixture object %s", r.String())
		}
		objects[r] = obj
		tables.AddExport(link.ExportRecord{Ref: r, Flags: obj.Flags()})
	}
	return tables, objects
}

func mustAdd(t *testing.T, g *object.Graph, d object.Desc) {
	t.Helper()
	if err := g.Add(d); err != nil {
		t.Fatalf("Add %s: %v", d.Ref.String(), err)
	}
}

func TestEncodeOrdinaryInstance(t *testing.T) {
	// InstanceZ: class and outer already created earlier, one ordinary
	// reference to InstanceW. Expected: createBeforeCreate to class and
	// outer, createBeforeSerialize to InstanceW, and nothing serialized
	// eagerly.
	g := object.NewGraph()
	typeA := ref(target, "TypeA")
	root := ref(target, "Root")
	instW := ref(target, "InstanceW")
	instZ := ref(target, "InstanceZ")
	mustAdd(t, g, object.Desc{Ref: typeA, IsType: true})
	mustAdd(t, g, object.Desc{Ref: root})
	mustAdd(t, g, object.Desc{Ref: instW, Class: typeA})
	mustAdd(t, g, object.Desc{Ref: instZ, Class: typeA, Outer: root,
		References: []object.Reference{{Target: instW}}})

	tables, objects := buildTables(t, g, typeA, root, instW, instZ)
	core := object.NewCoreTypes()

	Encode(tables, objects, core, quiet())

	set := tables.Deps[tables.PositionOf(instZ)]
	if !set.Has(link.CreateBeforeCreate, tables.IndexOf(typeA)) {
		t.Error("missing createBeforeCreate edge to class")
	}
	if !set.Has(link.CreateBeforeCreate, tables.IndexOf(root)) {
		t.Error("missing createBeforeCreate edge to outer")
	}
	if !set.Has(link.CreateBeforeSerialize, tables.IndexOf(instW)) {
		t.Error("missing createBeforeSerialize edge to ordinary reference")
	}
	if len(set.Lists[link.SerializeBeforeCreate]) != 0 || len(set.Lists[link.SerializeBeforeSerialize]) != 0 {
		t.Errorf("unexpected serialize-gating edges: %+v", set.Lists)
	}
	if set.Total() != 3 {
		t.Errorf("Total() = %d, want 3", set.Total())
	}
}

func TestEncodeStrongerEdgeSubsumesWeaker(t *testing.T) {
	// The archetype also shows up in the ordinary reference set; only the
	// serializeBeforeSerialize edge may survive.
	g := object.NewGraph()
	typeA := ref(target, "TypeA")
	arch := ref(target, "Template")
	inst := ref(target, "Instance")
	mustAdd(t, g, object.Desc{Ref: typeA, IsType: true})
	mustAdd(t, g, object.Desc{Ref: arch, Class: typeA})
	mustAdd(t, g, object.Desc{Ref: inst, Class: typeA, Archetype: arch,
		References: []object.Reference{{Target: arch}}})

	tables, objects := buildTables(t, g, typeA, arch, inst)
	Encode(tables, objects, object.NewCoreTypes(), quiet())

	set := tables.Deps[tables.PositionOf(inst)]
	archIdx := tables.IndexOf(arch)
	if !set.Has(link.SerializeBeforeSerialize, archIdx) {
		t.Error("missing serializeBeforeSerialize edge to archetype")
	}
	if set.Has(link.CreateBeforeSerialize, archIdx) {
		t.Error("redundant createBeforeSerialize edge alongside serializeBeforeSerialize")
	}
}

func TestEncodeDefaultInstanceRequiresSerializedClass(t *testing.T) {
	g := object.NewGraph()
	typeA := ref(target, "TypeA")
	def := ref(target, "TypeA.Default")
	mustAdd(t, g, object.Desc{Ref: typeA, IsType: true, DefaultInstance: def})
	mustAdd(t, g, object.Desc{Ref: def, Class: typeA, Outer: typeA, Flags: object.FlagClassDefault})

	tables, objects := buildTables(t, g, typeA, def)
	Encode(tables, objects, object.NewCoreTypes(), quiet())

	set := tables.Deps[tables.PositionOf(def)]
	typeIdx := tables.IndexOf(typeA)
	if !set.Has(link.SerializeBeforeCreate, typeIdx) {
		t.Error("default instance missing serializeBeforeCreate edge to its type")
	}
	// The outer edge to the same type is subsumed.
	if set.Has(link.CreateBeforeCreate, typeIdx) {
		t.Error("redundant createBeforeCreate edge alongside serializeBeforeCreate")
	}
}

func TestEncodeTypeRequiresDefaultSubObjects(t *testing.T) {
	// Runtime re-linking force-loads a type's default instance when the
	// type is created, so the sub-objects that instance carries must be
	// fully serialized before the type serializes.
	g := object.NewGraph()
	typeA := ref(target, "TypeA")
	def := ref(target, "TypeA.Default")
	sub := ref(target, "TypeA.Default.Light")
	mustAdd(t, g, object.Desc{Ref: typeA, IsType: true, DefaultInstance: def})
	mustAdd(t, g, object.Desc{Ref: sub, Outer: def, Flags: object.FlagArchetypeInstance})
	mustAdd(t, g, object.Desc{Ref: def, Class: typeA, Outer: typeA, Flags: object.FlagClassDefault,
		References: []object.Reference{{Target: sub}}})

	tables, objects := buildTables(t, g, sub, typeA, def)
	Encode(tables, objects, object.NewCoreTypes(), quiet())

	set := tables.Deps[tables.PositionOf(typeA)]
	if !set.Has(link.SerializeBeforeSerialize, tables.IndexOf(sub)) {
		t.Error("type missing serializeBeforeSerialize edge to default sub-object")
	}
}

func TestEncodeBootstrapExemption(t *testing.T) {
	// Create-gating edges never point at bootstrap members, even when the
	// bootstrap types are exports of the container being written.
	g := object.NewGraph()
	core, err := object.InstallCoreTypes(g, engine)
	if err != nil {
		t.Fatal(err)
	}
	objType := ref(engine, object.CoreObjectName)
	inst := ref(engine, "Singleton")
	mustAdd(t, g, object.Desc{Ref: inst, Class: objType})

	tables := link.NewTables(engine)
	objects := make(map[object.Ref]object.Object)
	for _, r := range append(core.Members(), inst) {
		obj, _ := g.Resolve(r)
		objects[r] = obj
		tables.AddExport(link.ExportRecord{Ref: r, Flags: obj.Flags()})
	}

	Encode(tables, objects, core, quiet())

	set := tables.Deps[tables.PositionOf(inst)]
	if len(set.Lists[link.CreateBeforeCreate]) != 0 || len(set.Lists[link.SerializeBeforeCreate]) != 0 {
		t.Errorf("create-gating edges point at bootstrap members: %+v", set.Lists)
	}
}
