package link

// DependencyKind classifies one preload dependency edge by the loading
// guarantee it demands. An asynchronous loader uses the kind to decide how
// far a dependency must have progressed before the dependent export can be
// created or serialized.
//
// Kinds are ordered by the classification priority used for edge
// deduplication: a candidate edge is skipped when a higher-priority kind was
// already recorded for the same (export, target) pair, since the stronger
// guarantee subsumes the weaker.
type DependencyKind uint8

const (
	// SerializeBeforeCreate: the target must be fully constructed and
	// serialized before the export can even be constructed.
	SerializeBeforeCreate DependencyKind = iota

	// SerializeBeforeSerialize: the target must be fully constructed and
	// serialized before the export can be serialized.
	SerializeBeforeSerialize

	// CreateBeforeSerialize: the target must exist before the export can
	// be serialized.
	CreateBeforeSerialize

	// CreateBeforeCreate: the target must exist before the export can be
	// constructed.
	CreateBeforeCreate

	// KindCount is the number of dependency kinds.
	KindCount
)

var kindNames = [KindCount]string{
	"serializeBeforeCreate",
	"serializeBeforeSerialize",
	"createBeforeSerialize",
	"createBeforeCreate",
}

// String returns the lowerCamel kind name used in diagnostics and DOT output.
func (k DependencyKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}
