package index

import (
	"github.com/aleksaelezovic/rotrigo/internal/encoding"
)

// Order is the sort policy of a StatementIndex: the component sorted first,
// the one sorted second and the one sorted last. Prefix keys are taken in the
// same component order, which is what keeps every prefix range contiguous.
type Order struct {
	name       string
	components [3]Component
}

var (
	// OrderSPO sorts by subject, then predicate, then object.
	OrderSPO = Order{name: "spo", components: [3]Component{Subject, Predicate, Object}}

	// OrderPSO sorts by predicate, then subject, then object.
	OrderPSO = Order{name: "pso", components: [3]Component{Predicate, Subject, Object}}
)

func (o Order) String() string {
	return o.name
}

// Components returns the components in sort order
func (o Order) Components() [3]Component {
	return o.components
}

// Compare is the three-component comparator of the order. Context never
// takes part in it.
func (o Order) Compare(a, b Statement) int {
	for _, c := range o.components {
		if cmp := encoding.Compare(a.Get(c), b.Get(c)); cmp != 0 {
			return cmp
		}
	}
	return 0
}

// Key returns the prefix key made of the first arity components of s
func (o Order) Key(s Statement, arity int) PrefixKey {
	key := PrefixKey{arity: uint8(arity)} // #nosec G115 - arity is always 1..3
	for i := 0; i < arity; i++ {
		key.parts[i] = s.Get(o.components[i])
	}
	return key
}
