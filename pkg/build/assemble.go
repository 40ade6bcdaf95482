package build

import (
	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/link"
	"github.com/coffersys/coffer/pkg/object"
)

// Assemble materializes the link tables from a sorted export sequence and a
// finished import table. Export records are created in sequence order, so
// record positions are the load order.
func Assemble(container string, seq []object.Object, imps []link.ImportRecord) (*link.Tables, error) {
	tables := link.NewTables(container)

	index := make(map[object.Ref]link.Index, len(seq)+len(imps))
	for i, rec := range imps {
		tables.AddImport(rec)
		index[rec.Ref] = link.FromImport(i)
	}
	for i, obj := range seq {
		index[obj.Identity()] = link.FromExport(i)
	}

	resolve := func(of object.Ref, r object.Ref) (link.Index, error) {
		if r.IsZero() {
			return link.NullIndex, nil
		}
		x, ok := index[r]
		if !ok {
			return link.NullIndex, errors.New(errors.ErrCodeGraphInconsistency,
				"%s depends on %s, which is in neither table", of, r)
		}
		return x, nil
	}

	for _, obj := range seq {
		ref := obj.Identity()
		rec := link.ExportRecord{
			Ref:             ref,
			GUID:            obj.GUID(),
			Flags:           obj.Flags(),
			AssetLike:       obj.Flags().Has(object.FlagAssetLike),
			NotAlwaysNeeded: obj.Flags().Has(object.FlagNotAlwaysNeeded),
		}

		var err error
		if rec.Class, err = resolve(ref, obj.Class()); err != nil {
			return nil, err
		}
		if rec.Archetype, err = resolve(ref, obj.Archetype()); err != nil {
			return nil, err
		}
		if rec.Super, err = resolve(ref, obj.Super()); err != nil {
			return nil, err
		}
		if rec.Outer, err = resolve(ref, obj.Outer()); err != nil {
			return nil, err
		}
		tables.AddExport(rec)
	}

	return tables, nil
}
