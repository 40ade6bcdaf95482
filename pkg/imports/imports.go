// Package imports builds the import table of a container: one identity
// record per reachable object owned by a different container. Imports are
// never created by the container being written, so only identity matters -
// the table is sorted by a stable key purely for compact, diff-friendly
// output, never for correctness.
package imports

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/link"
	"github.com/coffersys/coffer/pkg/object"
	"github.com/coffersys/coffer/pkg/tagger"
)

// Build validates and freezes the import table from a tagging result.
//
// Every import must have a resolvable owning container and must be
// shareable across containers (public, or native and therefore addressable
// by name). A violation is a hard authoring error reported with the
// best-effort shortest reference chain from a root to the offending object.
func Build(res *tagger.Result, logger *log.Logger) ([]link.ImportRecord, error) {
	if logger == nil {
		logger = log.Default()
	}

	objs := make([]object.Object, len(res.Imports))
	copy(objs, res.Imports)

	for _, obj := range objs {
		ref := obj.Identity()
		if err := errors.ValidateContainerName(ref.Container); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIllegalReference, err,
				"import %s has no resolvable owning container", ref.String()).
				WithChain(res.Chain(ref)...)
		}
		if !obj.Flags().Has(object.FlagPublic) && !obj.Flags().Has(object.FlagNative) {
			return nil, errors.New(errors.ErrCodeIllegalReference,
				"import %s is private to container %s", ref.String(), ref.Container).
				WithChain(res.Chain(ref)...)
		}
	}

	// Stable secondary key: owning container, then name.
	sort.SliceStable(objs, func(i, j int) bool {
		a, b := objs[i].Identity(), objs[j].Identity()
		if a.Container != b.Container {
			return a.Container < b.Container
		}
		return a.Name < b.Name
	})

	byRef := make(map[object.Ref]link.Index, len(objs))
	for i, obj := range objs {
		byRef[obj.Identity()] = link.FromImport(i)
	}

	records := make([]link.ImportRecord, len(objs))
	for i, obj := range objs {
		rec := link.ImportRecord{
			Ref:   obj.Identity(),
			Class: obj.Class(),
		}
		// The outer chain of an import stays within its own container
		// context, so it resolves against the import table only.
		if out := obj.Outer(); !out.IsZero() {
			rec.Outer = byRef[out]
		}
		records[i] = rec
	}

	logger.Debug("built import table", "imports", len(records))
	return records, nil
}
