package sorter

import (
	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/object"
)

// Verify checks the ordering invariant over a sorted sequence: every
// force-load dependency of an export (class, archetype, super, outer) that
// is itself in the sequence occurs strictly earlier, unless it belongs to
// the bootstrap set; and every type descriptor's default instance sits
// directly after its type.
//
// Verify exists for tests and debug tooling; production builds rely on the
// sorter upholding the invariant by construction.
func Verify(seq []object.Object, core *object.CoreTypes) error {
	pos := make(map[object.Ref]int, len(seq))
	for i, obj := range seq {
		pos[obj.Identity()] = i
	}

	check := func(i int, e object.Object, kind string, dep object.Ref) error {
		if dep.IsZero() || core.Contains(dep) {
			return nil
		}
		j, ok := pos[dep]
		if !ok {
			return nil // import or out-of-sequence; no ordering constraint
		}
		if j >= i {
			return errors.New(errors.ErrCodeInternal,
				"ordering invariant violated: %s of %s (%s at %d) does not precede position %d",
				kind, e.Identity().String(), dep.String(), j, i)
		}
		return nil
	}

	for i, e := range seq {
		if err := check(i, e, "class", e.Class()); err != nil {
			return err
		}
		if err := check(i, e, "archetype", e.Archetype()); err != nil {
			return err
		}
		if err := check(i, e, "super", e.Super()); err != nil {
			return err
		}
		if err := check(i, e, "outer", e.Outer()); err != nil {
			return err
		}
		if !e.IsType() {
			continue
		}
		if d := e.DefaultInstance(); !d.IsZero() {
			if j, ok := pos[d]; ok && j != i+1 {
				return errors.New(errors.ErrCodeInternal,
					"default instance %s at %d is not adjacent to its type %s at %d",
					d.String(), j, e.Identity().String(), i)
			}
		}
	}
	return nil
}
