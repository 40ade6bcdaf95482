package build

import (
	"testing"

	"github.com/google/uuid"

	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/link"
	"github.com/coffersys/coffer/pkg/object"
)

type stubObject struct {
	object.Desc
}

func (s stubObject) Identity() object.Ref           { return s.Desc.Ref }
func (s stubObject) GUID() uuid.UUID                { return s.Desc.GUID }
func (s stubObject) Class() object.Ref              { return s.Desc.Class }
func (s stubObject) Archetype() object.Ref          { return s.Desc.Archetype }
func (s stubObject) Outer() object.Ref              { return s.Desc.Outer }
func (s stubObject) Super() object.Ref              { return s.Desc.Super }
func (s stubObject) DefaultInstance() object.Ref    { return s.Desc.DefaultInstance }
func (s stubObject) Flags() object.Flags            { return s.Desc.Flags }
func (s stubObject) IsType() bool                   { return s.Desc.IsType }
func (s stubObject) References() []object.Reference { return s.Desc.References }
func (s stubObject) PreloadHints() []object.Ref     { return s.Desc.PreloadHints }

func TestAssembleResolvesIndices(t *testing.T) {
	coreType := object.Ref{Container: "engine/core", Name: "Type"}
	typeRef := object.Ref{Container: "game/props", Name: "Barrel"}
	instRef := object.Ref{Container: "game/props", Name: "Barrel1"}

	seq := []object.Object{
		stubObject{object.Desc{Ref: typeRef, Class: coreType, IsType: true}},
		stubObject{object.Desc{Ref: instRef, Class: typeRef}},
	}
	imps := []link.ImportRecord{{Ref: coreType, Class: coreType}}

	tables, err := Assemble("game/props", seq, imps)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if got := tables.Exports[0].Class; got != link.FromImport(0) {
		t.Errorf("type class = %v, want import[0]", got)
	}
	if got := tables.Exports[1].Class; got != link.FromExport(0) {
		t.Errorf("instance class = %v, want export[0]", got)
	}
	if got := tables.Exports[0].Outer; !got.IsNull() {
		t.Errorf("zero outer should pack to null, got %v", got)
	}
}

func TestAssembleUnresolvableReference(t *testing.T) {
	seq := []object.Object{
		stubObject{object.Desc{
			Ref:   object.Ref{Container: "game/props", Name: "Orphan"},
			Class: object.Ref{Container: "game/props", Name: "Missing"},
		}},
	}

	_, err := Assemble("game/props", seq, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeGraphInconsistency {
		t.Errorf("code = %v", got)
	}
}
