package tagger

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	cofferrors "github.com/coffersys/coffer/pkg/errors"
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

func mustAdd(t *testing.T, g *object.Graph, d object.Desc) {
	t.Helper()
	if err := g.Add(d); err != nil {
		t.Fatalf("Add %s: %v", d.Ref.String(), err)
	}
}

func hasRef(objs []object.Object, r object.Ref) bool {
	for _, o := range objs {
		if o.Identity() == r {
			return true
		}
	}
	return false
}

func TestRunPartitionsExportsAndImports(t *testing.T) {
	g := object.NewGraph()
	if _, err := object.InstallCoreTypes(g, engine); err != nil {
		t.Fatal(err)
	}
	crateType := ref(target, "CrateType")
	mesh := ref("engine/meshes", "Cube")
	mustAdd(t, g, object.Desc{Ref: crateType, Class: ref(engine, object.CoreTypeName), IsType: true})
	mustAdd(t, g, object.Desc{Ref: mesh, Class: ref(engine, object.CoreObjectName), Flags: object.FlagPublic})
	mustAdd(t, g, object.Desc{
		Ref:        ref(target, "Crate"),
		Class:      crateType,
		References: []object.Reference{{Target: mesh}},
	})

	res, err := Run(g, []object.Ref{ref(target, "Crate")}, Options{Container: target, Logger: quiet()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !hasRef(res.Exports, ref(target, "Crate")) || !hasRef(res.Exports, crateType) {
		t.Errorf("exports missing owned objects: %v", res.Exports)
	}
	if !hasRef(res.Imports, mesh) {
		t.Error("foreign mesh not catalogued as import")
	}
	if hasRef(res.Exports, mesh) {
		t.Error("foreign mesh catalogued as export")
	}
	// The metaclass lives in the engine container: an import.
	if !hasRef(res.Imports, ref(engine, object.CoreTypeName)) {
		t.Error("core Type descriptor not catalogued as import")
	}
}

func TestRunStripsEditorOnlyInRuntimeProfile(t *testing.T) {
	g := object.NewGraph()
	typ := ref(target, "PropType")
	mustAdd(t, g, object.Desc{Ref: typ, IsType: true})
	mustAdd(t, g, object.Desc{
		Ref:   ref(target, "DebugGizmo"),
		Class: typ,
		Flags: object.FlagEditorOnly,
	})
	mustAdd(t, g, object.Desc{
		Ref:        ref(target, "Prop"),
		Class:      typ,
		References: []object.Reference{{Target: ref(target, "DebugGizmo")}},
	})

	for _, tt := range []struct {
		profile Profile
		want    bool
	}{
		{ProfileRuntime, false},
		{ProfileEditor, true},
	} {
		t.Run(tt.profile.String(), func(t *testing.T) {
			res, err := Run(g, []object.Ref{ref(target, "Prop")}, Options{
				Container: target, Profile: tt.profile, Logger: quiet(),
			})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := hasRef(res.Exports, ref(target, "DebugGizmo")); got != tt.want {
				t.Errorf("editor-only export present = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunRescuesExcludedWhenForceLoaded(t *testing.T) {
	// An editor-only archetype force-loaded by a runtime instance changes
	// from "would be excluded" to "must be included".
	g := object.NewGraph()
	typ := ref(target, "PropType")
	arch := ref(target, "EditorArchetype")
	mustAdd(t, g, object.Desc{Ref: typ, IsType: true})
	mustAdd(t, g, object.Desc{Ref: arch, Class: typ, Flags: object.FlagEditorOnly})
	mustAdd(t, g, object.Desc{Ref: ref(target, "Prop"), Class: typ, Archetype: arch})

	res, err := Run(g, []object.Ref{ref(target, "Prop")}, Options{
		Container: target, Profile: ProfileRuntime, Logger: quiet(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !hasRef(res.Exports, arch) {
		t.Error("force-loaded editor-only archetype was not rescued")
	}
}

func TestRunRejectsForceLoadedTransient(t *testing.T) {
	g := object.NewGraph()
	typ := ref(target, "PropType")
	ghost := ref(target, "Ghost")
	mustAdd(t, g, object.Desc{Ref: typ, IsType: true})
	mustAdd(t, g, object.Desc{Ref: ghost, Class: typ, Flags: object.FlagTransient})
	mustAdd(t, g, object.Desc{Ref: ref(target, "Prop"), Class: typ, Archetype: ghost})

	_, err := Run(g, []object.Ref{ref(target, "Prop")}, Options{Container: target, Logger: quiet()})
	if !cofferrors.Is(err, cofferrors.ErrCodeGraphInconsistency) {
		t.Fatalf("Run = %v, want GRAPH_INCONSISTENCY", err)
	}
	chain := cofferrors.GetChain(err)
	if len(chain) == 0 || chain[len(chain)-1] != ghost.String() {
		t.Errorf("error chain %v does not end at the culprit %s", chain, ghost.String())
	}
}

func TestRunDropsPlainReferencedTransient(t *testing.T) {
	// A plain reference to a transient object nulls out on load; only
	// force-loading it is an authoring error.
	g := object.NewGraph()
	typ := ref(target, "PropType")
	mustAdd(t, g, object.Desc{Ref: typ, IsType: true})
	mustAdd(t, g, object.Desc{Ref: ref(target, "Scratch"), Class: typ, Flags: object.FlagTransient})
	mustAdd(t, g, object.Desc{
		Ref:        ref(target, "Prop"),
		Class:      typ,
		References: []object.Reference{{Target: ref(target, "Scratch")}},
	})

	res, err := Run(g, []object.Ref{ref(target, "Prop")}, Options{Container: target, Logger: quiet()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if hasRef(res.Exports, ref(target, "Scratch")) {
		t.Error("transient object exported through a plain reference")
	}
}

func TestRunRequiresContainerName(t *testing.T) {
	g := object.NewGraph()
	_, err := Run(g, nil, Options{Logger: quiet()})
	if !cofferrors.Is(err, cofferrors.ErrCodeInvalidOptions) {
		t.Fatalf("Run = %v, want INVALID_OPTIONS", err)
	}
}

func TestParseProfile(t *testing.T) {
	tests := []struct {
		in      string
		want    Profile
		wantErr bool
	}{
		{in: "runtime", want: ProfileRuntime},
		{in: "editor", want: ProfileEditor},
		{in: "shipping", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseProfile(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProfile(%q) error = %v", tt.in, err)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseProfile(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
