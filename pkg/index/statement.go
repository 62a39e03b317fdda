package index

import (
	"fmt"

	"github.com/aleksaelezovic/rotrigo/internal/encoding"
)

// ID identifies an RDF term inside the index. It is the fixed-size encoded
// form of the term, so equality and ordering never need the lexical value.
type ID = encoding.EncodedTerm

// Any is the wildcard in lookups and the "no context" value in statements.
var Any ID

// Statement is an immutable (subject, predicate, object, context) assertion.
// Context is optional; Any means the statement carries none.
type Statement struct {
	Subject   ID
	Predicate ID
	Object    ID
	Context   ID
}

// Component names one of the three sortable positions of a statement
type Component uint8

const (
	Subject Component = iota
	Predicate
	Object
)

func (c Component) String() string {
	switch c {
	case Subject:
		return "s"
	case Predicate:
		return "p"
	case Object:
		return "o"
	default:
		return "?"
	}
}

// Get returns the statement's value for component c
func (s Statement) Get(c Component) ID {
	switch c {
	case Subject:
		return s.Subject
	case Predicate:
		return s.Predicate
	default:
		return s.Object
	}
}

func (s Statement) String() string {
	if s.Context.IsZero() {
		return fmt.Sprintf("(%s %s %s)", s.Subject, s.Predicate, s.Object)
	}
	return fmt.Sprintf("(%s %s %s %s)", s.Subject, s.Predicate, s.Object, s.Context)
}
