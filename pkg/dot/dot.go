// Package dot renders link tables as Graphviz node-link diagrams. Exports
// are drawn as boxes in sequence order, imports as dashed grey boxes, and
// each preload dependency kind gets its own edge style so a build can be
// inspected visually.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/link"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes sequence positions and flags in node labels.
	// When false, only the object name is shown.
	Detailed bool

	// RankDir sets the graphviz layout direction. Defaults to "TB".
	RankDir string
}

// edgeStyles maps each dependency kind to its DOT edge attributes.
var edgeStyles = [link.KindCount]string{
	link.SerializeBeforeCreate:    `color=red, penwidth=2`,
	link.SerializeBeforeSerialize: `color=blue, style=dashed`,
	link.CreateBeforeSerialize:    `color=darkgreen, style=dotted`,
	link.CreateBeforeCreate:       `color=black`,
}

// ToDOT converts link tables to Graphviz DOT format. The resulting DOT
// string can be rendered with [RenderSVG].
func ToDOT(tables *link.Tables, opts Options) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for i, rec := range tables.Exports {
		label := exportLabel(rec, i, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [label=%q];\n", nodeID(link.FromExport(i)), label)
	}
	for i, rec := range tables.Imports {
		label := rec.Ref.String()
		fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey];\n",
			nodeID(link.FromImport(i)), label)
	}

	buf.WriteString("\n")
	for i := range tables.Deps {
		from := nodeID(link.FromExport(i))
		for k := link.DependencyKind(0); k < link.KindCount; k++ {
			for _, target := range tables.Deps[i].Lists[k] {
				fmt.Fprintf(&buf, "  %q -> %q [%s];\n", from, nodeID(target), edgeStyles[k])
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(x link.Index) string {
	return x.String()
}

func exportLabel(rec link.ExportRecord, pos int, detailed bool) string {
	if !detailed {
		return rec.Ref.Name
	}
	parts := []string{
		rec.Ref.String(),
		fmt.Sprintf("pos: %d", pos),
		fmt.Sprintf("flags: %s", rec.Flags),
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
