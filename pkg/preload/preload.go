// Package preload encodes the preload dependency table: for every export in
// the sorted sequence, the minimal set of directed edges an asynchronous
// loader needs to know what must already exist or be serialized before the
// export can be created or serialized.
//
// Candidate edges are classified into the four [link.DependencyKind]
// categories in priority order; a candidate is skipped when a
// higher-priority classification for the same (export, target) pair was
// already recorded, since the stronger guarantee subsumes the weaker.
package preload

import (
	"github.com/charmbracelet/log"

	"github.com/coffersys/coffer/pkg/link"
	"github.com/coffersys/coffer/pkg/object"
)

// Encode fills tables.Deps from each export's direct reference set.
//
// objects resolves export identities to their objects; core is the
// bootstrap set, whose members never receive create-gating edges from the
// sequence - those dependencies are satisfied out-of-band before loading
// begins.
func Encode(tables *link.Tables, objects map[object.Ref]object.Object, core *object.CoreTypes, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}

	tables.Deps = make([]link.DependencySet, len(tables.Exports))
	total := 0

	for i := range tables.Exports {
		rec := &tables.Exports[i]
		obj, ok := objects[rec.Ref]
		if !ok {
			continue
		}
		set := &tables.Deps[i]
		self := link.FromExport(i)

		add := func(kind link.DependencyKind, target object.Ref) {
			if target.IsZero() {
				return
			}
			// Create-gating edges at bootstrap members are
			// satisfied out-of-band.
			if core.Contains(target) &&
				(kind == link.SerializeBeforeCreate || kind == link.CreateBeforeCreate) {
				return
			}
			idx := tables.IndexOf(target)
			if idx.IsNull() || idx == self {
				return
			}
			if _, dup := set.HasAny(idx); dup {
				return
			}
			set.Lists[kind] = append(set.Lists[kind], idx)
			total++
		}

		// Serialize-before-create: a default instance cannot even be
		// constructed until its type is fully serialized, and an
		// archetype-instanced sub-object until its archetype is.
		if rec.Flags.Has(object.FlagClassDefault) {
			add(link.SerializeBeforeCreate, obj.Class())
		}
		if rec.Flags.Has(object.FlagArchetypeInstance) {
			add(link.SerializeBeforeCreate, obj.Archetype())
		}

		// Serialize-before-serialize: explicit preload hints, the
		// owning archetype, and - for type descriptors - the default
		// sub-objects their default instance carries.
		for _, h := range obj.PreloadHints() {
			add(link.SerializeBeforeSerialize, h)
		}
		add(link.SerializeBeforeSerialize, obj.Archetype())
		if obj.IsType() {
			if def, ok := objects[obj.DefaultInstance()]; ok {
				for _, r := range def.References() {
					if r.Soft {
						continue
					}
					if sub, ok := objects[r.Target]; ok && sub.Flags().Has(object.FlagArchetypeInstance) {
						add(link.SerializeBeforeSerialize, r.Target)
					}
				}
			}
		}

		// Create-before-serialize: ordinary graph edges.
		for _, r := range obj.References() {
			if r.Soft {
				continue
			}
			add(link.CreateBeforeSerialize, r.Target)
		}

		// Create-before-create: what must exist before construction.
		add(link.CreateBeforeCreate, obj.Outer())
		add(link.CreateBeforeCreate, obj.Super())
		add(link.CreateBeforeCreate, obj.Class())
	}

	logger.Debug("encoded preload dependencies", "exports", len(tables.Exports), "edges", total)
}
