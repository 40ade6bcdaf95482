// Package sorter computes the sorted export sequence of a container build.
//
// The ordering contract is global: every export appears after everything it
// force-loads at construction time - its class, archetype, super-type, and
// outer - except for members of the bootstrap set, which are available
// through a side channel before the sequence begins loading.
//
// The sort is not a classic DFS topological sort. Type descriptors have a
// different force-load contract than instances (their default instance must
// load the moment the type is created), so the sequence is built in three
// passes: bootstrap seeding, a structural pass over type descriptors, and an
// instance pass. Each object is placed immediately after the objects
// inserted while resolving its own direct dependencies and before anything
// discovered afterward.
package sorter

import (
	"github.com/charmbracelet/log"

	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/object"
	"github.com/coffersys/coffer/pkg/tagger"
)

type placement uint8

const (
	unplaced placement = iota
	placing
	placed
)

type sorter struct {
	objects map[object.Ref]object.Object
	exports map[object.Ref]bool
	core    *object.CoreTypes
	logger  *log.Logger

	// memberOrder caches, per type descriptor, its nested member types in
	// stable export order.
	memberOrder map[object.Ref][]object.Ref

	seq   []object.Object
	state map[object.Ref]placement

	// collect gates ordinary (non-structural) reference processing. It is
	// suspended while placing a type descriptor's nested members so plain
	// instance references are not order-processed too early.
	collect bool
}

// Sort orders the tagged exports into the sorted export sequence.
//
// core is the caller-owned bootstrap set; its members are pinned first (when
// exported at all) and are exempt from the ordering invariant everywhere
// else. The result is deterministic given deterministic reference iteration
// on the provider side.
func Sort(res *tagger.Result, core *object.CoreTypes, logger *log.Logger) ([]object.Object, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &sorter{
		objects:     res.Objects,
		exports:     make(map[object.Ref]bool, len(res.Exports)),
		core:        core,
		logger:      logger,
		memberOrder: make(map[object.Ref][]object.Ref),
		seq:         make([]object.Object, 0, len(res.Exports)),
		state:       make(map[object.Ref]placement, len(res.Exports)),
		collect:     true,
	}
	for _, e := range res.Exports {
		s.exports[e.Identity()] = true
	}
	for _, e := range res.Exports {
		if out := e.Outer(); !out.IsZero() && e.IsType() {
			s.memberOrder[out] = append(s.memberOrder[out], e.Identity())
		}
	}

	// Pass 1: bootstrap seeding. Core members are fully expanded by
	// definition - their class and archetype dependencies resolve against
	// the set itself - so they are appended without dependency
	// resolution. Members not exported here are satisfied out-of-band.
	for _, m := range core.Members() {
		if s.exports[m] {
			s.place(s.objects[m])
		} else {
			s.state[m] = placed
		}
	}

	// Pass 2: structural pass over type descriptors.
	for _, e := range res.Exports {
		if e.IsType() {
			if err := s.placeType(e.Identity()); err != nil {
				return nil, err
			}
		}
	}

	// Pass 3: instance pass over everything left.
	for _, e := range res.Exports {
		if err := s.placeInstance(e.Identity()); err != nil {
			return nil, err
		}
	}

	return s.seq, nil
}

// place appends obj to the sequence and marks it placed.
func (s *sorter) place(obj object.Object) {
	s.seq = append(s.seq, obj)
	s.state[obj.Identity()] = placed
}

// resolveType looks up a class/super dependency, applying the ambiguous-type
// leniency: an unresolvable type descriptor is reported and treated as no
// dependency at all.
func (s *sorter) resolveType(of object.Ref, dep object.Ref) (object.Object, bool) {
	obj, ok := s.objects[dep]
	if !ok {
		s.logger.Warn("type dependency does not resolve, ignoring",
			"object", of.String(), "dependency", dep.String(),
			"code", errors.ErrCodeAmbiguousType)
		return nil, false
	}
	return obj, true
}

// placeType inserts a type descriptor after its super-type and nested member
// types, then appends its default instance directly after it so the two are
// load-adjacent.
func (s *sorter) placeType(ref object.Ref) error {
	switch s.state[ref] {
	case placed:
		return nil
	case placing:
		// Legal when a default instance's content reaches back to the
		// type being placed; the genuinely inconsistent cases (super
		// and metaclass cycles) are caught at the recursion sites.
		s.logger.Debug("reference back into type under placement", "ref", ref.String())
		return nil
	}
	obj, ok := s.objects[ref]
	if !ok || !s.exports[ref] {
		// Imports carry no ordering constraint; unknown refs were
		// already diagnosed during tagging.
		s.state[ref] = placed
		return nil
	}
	s.state[ref] = placing

	// Super-type first.
	if sup := obj.Super(); !sup.IsZero() && sup != ref && !s.core.Contains(sup) {
		if _, ok := s.resolveType(ref, sup); ok {
			if err := s.placeType(sup); err != nil {
				return err
			}
			if s.exports[sup] && s.state[sup] != placed {
				return errors.New(errors.ErrCodeGraphInconsistency,
					"super-type cycle between %s and %s", ref.String(), sup.String())
			}
		}
	}
	// The descriptor's own type descriptor, outside the bootstrap set.
	if cl := obj.Class(); !cl.IsZero() && cl != ref && !s.core.Contains(cl) {
		if _, ok := s.resolveType(ref, cl); ok {
			if err := s.placeType(cl); err != nil {
				return err
			}
			if s.exports[cl] && s.state[cl] != placed {
				return errors.New(errors.ErrCodeGraphInconsistency,
					"metaclass cycle between %s and %s", ref.String(), cl.String())
			}
		}
	}

	// Nested member types land immediately before their owner, with
	// ordinary reference collection suspended.
	prev := s.collect
	s.collect = false
	for _, m := range s.memberOrder[ref] {
		if err := s.placeType(m); err != nil {
			s.collect = prev
			return err
		}
	}
	s.collect = prev

	// The default instance is force-loaded the moment its type is
	// created, so everything its serialization touches must precede the
	// type itself.
	var def object.Object
	if d := obj.DefaultInstance(); !d.IsZero() && s.exports[d] {
		def = s.objects[d]
	}
	if def != nil && s.collect {
		if arch := def.Archetype(); !arch.IsZero() && arch != def.Identity() {
			if err := s.placeDependency(arch); err != nil {
				return err
			}
		}
		for _, h := range def.PreloadHints() {
			if err := s.placeDependency(h); err != nil {
				return err
			}
		}
		for _, r := range def.References() {
			if r.Soft {
				continue
			}
			if err := s.placeDependency(r.Target); err != nil {
				return err
			}
		}
	}

	s.place(obj)
	if def != nil {
		s.place(def)
	}
	return nil
}

// placeInstance inserts a plain instance after its class, outer, and
// archetype, then lets ordinary reference serialization trigger further
// insertions strictly afterward.
func (s *sorter) placeInstance(ref object.Ref) error {
	switch s.state[ref] {
	case placed:
		return nil
	case placing:
		// A reference cycle between instances is legal; the preload
		// encoder captures the remaining constraint as an edge.
		s.logger.Debug("instance reference cycle", "ref", ref.String())
		return nil
	}
	obj, ok := s.objects[ref]
	if !ok || !s.exports[ref] {
		s.state[ref] = placed
		return nil
	}
	if obj.IsType() {
		return s.placeType(ref)
	}
	s.state[ref] = placing

	cl := obj.Class()
	if !cl.IsZero() && !s.core.Contains(cl) {
		if _, ok := s.resolveType(ref, cl); ok {
			if err := s.placeType(cl); err != nil {
				return err
			}
		}
	}
	if out := obj.Outer(); !out.IsZero() && out != ref {
		if err := s.placeInstance(out); err != nil {
			return err
		}
	}
	if arch := obj.Archetype(); !arch.IsZero() && arch != ref && !s.isClassDefault(cl, arch) {
		if err := s.placeInstance(arch); err != nil {
			return err
		}
	}

	s.place(obj)

	if s.collect {
		for _, h := range obj.PreloadHints() {
			if err := s.placeDependency(h); err != nil {
				return err
			}
		}
		for _, r := range obj.References() {
			if r.Soft {
				continue
			}
			if err := s.placeDependency(r.Target); err != nil {
				return err
			}
		}
	}
	return nil
}

// placeDependency routes a discovered reference to the structural or
// instance pass.
func (s *sorter) placeDependency(ref object.Ref) error {
	if ref.IsZero() || s.core.Contains(ref) {
		return nil
	}
	if obj, ok := s.objects[ref]; ok && obj.IsType() {
		return s.placeType(ref)
	}
	return s.placeInstance(ref)
}

// isClassDefault reports whether arch is class's own default instance, in
// which case the archetype dependency is already satisfied by the
// type/default adjacency and needs no separate placement.
func (s *sorter) isClassDefault(class, arch object.Ref) bool {
	if class.IsZero() {
		return false
	}
	cl, ok := s.objects[class]
	return ok && cl.DefaultInstance() == arch
}
