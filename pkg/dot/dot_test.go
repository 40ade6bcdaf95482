package dot

import (
	"strings"
	"testing"

	"github.com/coffersys/coffer/pkg/link"
	"github.com/coffersys/coffer/pkg/object"
)

func sampleTables() *link.Tables {
	tables := link.NewTables("game/props")
	tables.AddImport(link.ImportRecord{
		Ref: object.Ref{Container: "engine/core", Name: "Object"},
	})
	tables.AddExport(link.ExportRecord{
		Ref:   object.Ref{Container: "game/props", Name: "Barrel"},
		Flags: object.FlagPublic,
	})
	tables.AddExport(link.ExportRecord{
		Ref:   object.Ref{Container: "game/props", Name: "Barrel.Default"},
		Flags: object.FlagClassDefault,
	})
	tables.Deps = make([]link.DependencySet, 2)
	tables.Deps[1].Lists[link.SerializeBeforeCreate] = []link.Index{link.FromExport(0)}
	tables.Deps[1].Lists[link.CreateBeforeCreate] = []link.Index{link.FromImport(0)}
	return tables
}

func TestToDOTNodesAndEdges(t *testing.T) {
	out := ToDOT(sampleTables(), Options{})

	for _, want := range []string{
		`"export[0]" [label="Barrel"]`,
		`"export[1]" [label="Barrel.Default"]`,
		`"import[0]" [label="engine/core:Object", style="rounded,filled,dashed"`,
		`"export[1]" -> "export[0]" [color=red, penwidth=2];`,
		`"export[1]" -> "import[0]" [color=black];`,
		"rankdir=TB;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	out := ToDOT(sampleTables(), Options{Detailed: true, RankDir: "LR"})

	if !strings.Contains(out, "rankdir=LR;") {
		t.Error("rankdir option not honored")
	}
	if !strings.Contains(out, "pos: 0") {
		t.Errorf("detailed label missing position:\n%s", out)
	}
	if !strings.Contains(out, "flags: public") {
		t.Errorf("detailed label missing flags:\n%s", out)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.00 200.00">`)
	out := string(normalizeViewBox(in))

	if !strings.Contains(out, `viewBox="0 0 100.00 200.00"`) {
		t.Errorf("viewBox not normalized: %s", out)
	}
	if !strings.Contains(out, `width="100" height="200"`) {
		t.Errorf("dimensions not set from viewBox: %s", out)
	}
}
