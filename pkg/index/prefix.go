package index

import (
	"strings"
)

// MaxArity is the number of components of the longest prefix key
const MaxArity = 3

// PrefixKey holds the leading 1, 2 or 3 sort-key components of a statement.
// Unused trailing slots are always zero, so two keys are equal exactly when
// they have the same arity and components; PrefixKey is usable as a map key.
type PrefixKey struct {
	arity uint8
	parts [MaxArity]ID
}

// NewPrefixKey builds a key from 1 to 3 components, in sort order
func NewPrefixKey(parts ...ID) PrefixKey {
	if len(parts) == 0 || len(parts) > MaxArity {
		panic("prefix key arity must be between 1 and 3")
	}
	key := PrefixKey{arity: uint8(len(parts))} // #nosec G115 - bounded above
	copy(key.parts[:], parts)
	return key
}

// Arity returns the number of components in the key
func (k PrefixKey) Arity() int {
	return int(k.arity)
}

// Parts returns the key's components
func (k PrefixKey) Parts() []ID {
	return k.parts[:k.arity]
}

func (k PrefixKey) String() string {
	parts := make([]string, 0, k.arity)
	for _, p := range k.Parts() {
		parts = append(parts, p.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Range is a half-open interval [Start, Stop) of positions in the sorted array
type Range struct {
	Start int
	Stop  int
}

// Len returns the number of positions in the range
func (r Range) Len() int {
	return r.Stop - r.Start
}
