// Package tagger implements the reachability pass of a container build.
//
// Starting from a set of root objects it marks every transitively reachable
// object as either an export (owned by the container being written) or an
// import (owned elsewhere, referenced only), applying the exclusion policy
// for the target profile.
//
// Exclusion is deferred: the full work list is processed before any
// filtering decision is finalized, so an object that "would be excluded" is
// still included when a surviving export force-loads it. A force-loaded
// object that fails every inclusion filter is a fatal authoring error.
package tagger

import (
	"github.com/charmbracelet/log"

	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/object"
)

// Profile selects the target build profile for the exclusion policy.
type Profile int

const (
	// ProfileRuntime builds a runtime-only container: editor-only
	// objects are stripped.
	ProfileRuntime Profile = iota

	// ProfileEditor keeps editor-only objects.
	ProfileEditor
)

// String returns the profile name.
func (p Profile) String() string {
	if p == ProfileEditor {
		return "editor"
	}
	return "runtime"
}

// ParseProfile parses a profile name.
func ParseProfile(s string) (Profile, error) {
	switch s {
	case "runtime":
		return ProfileRuntime, nil
	case "editor":
		return ProfileEditor, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidOptions, "unknown profile %q (want runtime or editor)", s)
	}
}

// Verdict is the outcome of evaluating the exclusion policy for one object.
type Verdict int

const (
	// VerdictInclude: the object is serialized normally.
	VerdictInclude Verdict = iota

	// VerdictExclude: the object is stripped unless a surviving export
	// force-loads it.
	VerdictExclude

	// VerdictReject: the object can never be serialized. Force-loading
	// it is a graph inconsistency.
	VerdictReject
)

// Policy evaluates whether an object is excluded from a build.
type Policy interface {
	Evaluate(obj object.Object, profile Profile) Verdict
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(object.Object, Profile) Verdict

// Evaluate implements Policy.
func (f PolicyFunc) Evaluate(obj object.Object, profile Profile) Verdict {
	return f(obj, profile)
}

// DefaultPolicy rejects transient objects and excludes editor-only objects
// from runtime-profile builds.
func DefaultPolicy() Policy {
	return PolicyFunc(func(obj object.Object, profile Profile) Verdict {
		switch {
		case obj.Flags().Has(object.FlagTransient):
			return VerdictReject
		case profile == ProfileRuntime && obj.Flags().Has(object.FlagEditorOnly):
			return VerdictExclude
		default:
			return VerdictInclude
		}
	})
}

// Options configures one tagging pass.
type Options struct {
	// Container is the name of the container being written. Surviving
	// objects homed there become exports; everything else imports.
	Container string

	// Profile selects the exclusion policy target.
	Profile Profile

	// Policy overrides the exclusion policy. Nil selects [DefaultPolicy].
	Policy Policy

	// Logger receives diagnostics. Nil selects log.Default().
	Logger *log.Logger
}

// Result is the partition produced by a tagging pass. Exports and Imports
// keep the deterministic discovery order; the sorter and the import table
// builder reorder their own halves.
type Result struct {
	Exports []object.Object
	Imports []object.Object

	// Objects holds every surviving object by identity.
	Objects map[object.Ref]object.Object

	// Parents maps each discovered identity to the identity it was first
	// discovered from. Used for shortest-chain culprit reporting.
	Parents map[object.Ref]object.Ref
}

// Chain returns the discovery chain from a root to r, root first.
func (res *Result) Chain(r object.Ref) []string {
	var rev []string
	for cur := r; !cur.IsZero(); cur = res.Parents[cur] {
		rev = append(rev, cur.String())
	}
	out := make([]string, len(rev))
	for i, s := range rev {
		out[len(rev)-1-i] = s
	}
	return out
}

// entry is the per-object discovery state.
type entry struct {
	obj     object.Object
	verdict Verdict
	force   []object.Ref // force-load edges: class, super, archetype, outer, default instance, hints
	plain   []object.Ref // ordinary hard references
}

// Run performs the tagging pass from the given roots.
func Run(provider object.Provider, roots []object.Ref, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	policy := opts.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	if opts.Container == "" {
		return nil, errors.New(errors.ErrCodeInvalidOptions, "target container name is empty")
	}

	t := &tagging{
		provider: provider,
		policy:   policy,
		profile:  opts.Profile,
		logger:   logger,
		entries:  make(map[object.Ref]*entry),
		parents:  make(map[object.Ref]object.Ref),
	}

	t.discover(roots)
	if err := t.survive(roots); err != nil {
		return nil, err
	}
	return t.partition(opts.Container), nil
}

type tagging struct {
	provider object.Provider
	policy   Policy
	profile  Profile
	logger   *log.Logger

	entries map[object.Ref]*entry
	order   []object.Ref // discovery order
	parents map[object.Ref]object.Ref

	survivors map[object.Ref]bool
}

// discover walks the full graph from the roots with a work list, recording
// every reachable object, its policy verdict, and its outgoing edges split
// into force-load and plain. No filtering decision is made here.
func (t *tagging) discover(roots []object.Ref) {
	queue := make([]object.Ref, 0, len(roots))
	for _, r := range roots {
		queue = append(queue, r)
	}

	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]

		if _, seen := t.entries[ref]; seen || ref.IsZero() {
			continue
		}
		obj, ok := t.provider.Resolve(ref)
		if !ok {
			// Leniency per the ambiguous-type policy: the edge is
			// treated as absent. Downstream reconstruction will
			// likely fail, so say so.
			t.logger.Warn("unresolvable object reference, treating as absent",
				"ref", ref.String(), "code", errors.ErrCodeAmbiguousType)
			continue
		}

		e := &entry{obj: obj, verdict: t.policy.Evaluate(obj, t.profile)}
		t.entries[ref] = e
		t.order = append(t.order, ref)

		addForce := func(dep object.Ref) {
			if dep.IsZero() || dep == ref {
				return
			}
			e.force = append(e.force, dep)
		}
		addForce(obj.Class())
		addForce(obj.Super())
		addForce(obj.Archetype())
		addForce(obj.Outer())
		addForce(obj.DefaultInstance())
		for _, h := range obj.PreloadHints() {
			addForce(h)
		}
		for _, r := range obj.References() {
			if r.Soft || r.Target.IsZero() || r.Target == ref {
				continue
			}
			e.plain = append(e.plain, r.Target)
		}

		for _, dep := range append(append([]object.Ref{}, e.force...), e.plain...) {
			if _, seen := t.entries[dep]; !seen {
				if _, queued := t.parents[dep]; !queued {
					t.parents[dep] = ref
				}
				queue = append(queue, dep)
			}
		}
	}
}

// survive runs the filtering fixpoint over the discovered graph. An object
// survives when it is includable and reachable from a surviving object, or
// when it is excluded but force-loaded by a survivor (rescue). A rejected
// object force-loaded by a survivor aborts the build.
func (t *tagging) survive(roots []object.Ref) error {
	t.survivors = make(map[object.Ref]bool)
	var queue []object.Ref

	for _, r := range roots {
		e, ok := t.entries[r]
		if !ok {
			continue
		}
		if e.verdict != VerdictInclude {
			t.logger.Warn("root object excluded by policy, skipping",
				"ref", r.String(), "profile", t.profile.String())
			continue
		}
		if !t.survivors[r] {
			t.survivors[r] = true
			queue = append(queue, r)
		}
	}

	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		e := t.entries[ref]

		visit := func(dep object.Ref, forced bool) error {
			de, ok := t.entries[dep]
			if !ok || t.survivors[dep] {
				return nil
			}
			switch de.verdict {
			case VerdictInclude:
				// reachable and includable
			case VerdictExclude:
				if !forced {
					return nil // stays stripped; the reference nulls out on load
				}
				t.logger.Debug("excluded object rescued by force-load",
					"ref", dep.String(), "by", ref.String())
			case VerdictReject:
				if !forced {
					return nil
				}
				return errors.New(errors.ErrCodeGraphInconsistency,
					"object %s is force-loaded by %s but can never be serialized",
					dep.String(), ref.String()).
					WithChain(append(t.chain(ref), dep.String())...)
			}
			t.survivors[dep] = true
			queue = append(queue, dep)
			return nil
		}

		for _, dep := range e.force {
			if err := visit(dep, true); err != nil {
				return err
			}
		}
		for _, dep := range e.plain {
			if err := visit(dep, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// partition splits the survivors into exports and imports in discovery
// order.
func (t *tagging) partition(container string) *Result {
	res := &Result{
		Objects: make(map[object.Ref]object.Object, len(t.survivors)),
		Parents: t.parents,
	}
	for _, ref := range t.order {
		if !t.survivors[ref] {
			continue
		}
		obj := t.entries[ref].obj
		res.Objects[ref] = obj
		if ref.Container == container {
			res.Exports = append(res.Exports, obj)
		} else {
			res.Imports = append(res.Imports, obj)
		}
	}
	t.logger.Debug("tagged object graph",
		"exports", len(res.Exports), "imports", len(res.Imports))
	return res
}

func (t *tagging) chain(r object.Ref) []string {
	var rev []string
	for cur := r; !cur.IsZero(); cur = t.parents[cur] {
		rev = append(rev, cur.String())
	}
	out := make([]string, len(rev))
	for i, s := range rev {
		out[len(rev)-1-i] = s
	}
	return out
}
