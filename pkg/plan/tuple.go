package plan

import (
	"strings"

	"github.com/aleksaelezovic/rotrigo/internal/encoding"
	"github.com/aleksaelezovic/rotrigo/pkg/index"
)

// Tuple is one line of an operator's output. The first element is the
// group key: tuples produced from the same focus value share it. A tuple
// with more than one element is treated as having cardinality greater than
// one.
//
// Operators never mutate a tuple after returning it from Tuple().
type Tuple []index.ID

// Equal reports whether both tuples hold the same values in the same order
func (t Tuple) Equal(other Tuple) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// SameGroup reports whether both tuples are non-empty and share their first
// element.
func (t Tuple) SameGroup(other Tuple) bool {
	return len(t) > 0 && len(other) > 0 && t[0] == other[0]
}

// Key returns a string that is equal for two tuples exactly when Equal is
// true. Every ID has the same width, so plain concatenation is unambiguous.
func (t Tuple) Key() string {
	var sb strings.Builder
	sb.Grow(len(t) * encoding.EncodedTermSize)
	for _, id := range t {
		sb.Write(id[:])
	}
	return sb.String()
}

func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, id := range t {
		parts[i] = id.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
