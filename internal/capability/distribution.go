package capability

import (
	"errors"
	"fmt"
)

var ErrConfigurationConflict = errors.New("capability: conflicting channel distribution")

// Distribution is a channel's declared writer policy. Values are wire
// ordinals.
type Distribution uint8

const (
	NoOpinion Distribution = iota
	MultiSend
	SingleSend
	Conflict
)

func (d Distribution) Valid() bool { return d <= Conflict }

func (d Distribution) String() string {
	switch d {
	case NoOpinion:
		return "no-opinion"
	case MultiSend:
		return "multi-send"
	case SingleSend:
		return "single-send"
	case Conflict:
		return "conflict"
	default:
		return fmt.Sprintf("distribution(%d)", uint8(d))
	}
}

// Merge combines two declarations. Rules apply in order: two MultiSend stay
// MultiSend; NoOpinion yields the other side; anything else is Conflict.
func Merge(d1, d2 Distribution) Distribution {
	if d1 == MultiSend && d2 == MultiSend {
		return MultiSend
	}
	if d2 == NoOpinion {
		return d1
	}
	if d1 == NoOpinion {
		return d2
	}
	return Conflict
}

// MergeAll folds Merge left to right starting from NoOpinion.
func MergeAll(decls ...Distribution) Distribution {
	out := NoOpinion
	for _, d := range decls {
		out = Merge(out, d)
	}
	return out
}

// Resolve folds decls and fails with ErrConfigurationConflict when the result
// is Conflict. A channel must not be created from a failed Resolve.
func Resolve(decls ...Distribution) (Distribution, error) {
	out := MergeAll(decls...)
	if out == Conflict {
		return Conflict, fmt.Errorf("%w: declarations=%v", ErrConfigurationConflict, decls)
	}
	return out, nil
}
