package build

import (
	"bytes"
	"fmt"

	"github.com/coffersys/coffer/pkg/cache"
	"github.com/coffersys/coffer/pkg/object"
	"github.com/coffersys/coffer/pkg/tagger"
)

// hashResult computes a content hash over the tagged graph. Two builds with
// the same hash and the same options produce byte-identical containers, so
// the hash keys the build cache.
//
// The encoding walks exports then imports in discovery order and writes
// every field the later stages read. It is a hash input, not a wire format.
func hashResult(res *tagger.Result) string {
	var buf bytes.Buffer

	writeObj := func(obj object.Object) {
		fmt.Fprintf(&buf, "%s|%s|%d|%t|%s|%s|%s|%s|%s\n",
			obj.Identity(), obj.GUID(), obj.Flags(), obj.IsType(),
			obj.Class(), obj.Archetype(), obj.Super(), obj.Outer(),
			obj.DefaultInstance())
		for _, r := range obj.References() {
			fmt.Fprintf(&buf, "  ref %s soft=%t\n", r.Target, r.Soft)
		}
		for _, h := range obj.PreloadHints() {
			fmt.Fprintf(&buf, "  hint %s\n", h)
		}
	}

	buf.WriteString("exports\n")
	for _, obj := range res.Exports {
		writeObj(obj)
	}
	buf.WriteString("imports\n")
	for _, obj := range res.Imports {
		writeObj(obj)
	}

	return cache.Hash(buf.Bytes())
}
