// Package plan evaluates query and validation plans over statement indexes
// with pull-based streaming operators.
//
// A plan is a tree of nodes (Scan, Join, Dedup, ...). An Executor checks it
// with Analyze and compiles it into a tree of Operators; the caller then
// pulls tuples from the root with Next/Tuple and finally calls Close, which
// propagates up the tree.
package plan

import (
	"strings"
)

// Shape tags the kind of tuple an operator produces
type Shape uint8

const (
	// ShapeStatement is a (subject, predicate, object) tuple
	ShapeStatement Shape = iota
	// ShapeFocus is a single focus value
	ShapeFocus
	// ShapeFocusValue is a (focus, value) pair
	ShapeFocusValue
	// ShapeRow is a tuple of any other width
	ShapeRow
)

func (s Shape) String() string {
	switch s {
	case ShapeStatement:
		return "statement"
	case ShapeFocus:
		return "focus"
	case ShapeFocusValue:
		return "focus-value"
	default:
		return "row"
	}
}

// Width returns the fixed tuple width of the shape, or 0 for ShapeRow
func (s Shape) Width() int {
	switch s {
	case ShapeStatement:
		return 3
	case ShapeFocus:
		return 1
	case ShapeFocusValue:
		return 2
	default:
		return 0
	}
}

// ShapeFor returns the shape of tuples derived by position, e.g. by a
// projection or a join. Only the index produces ShapeStatement.
func ShapeFor(width int) Shape {
	switch width {
	case 1:
		return ShapeFocus
	case 2:
		return ShapeFocusValue
	default:
		return ShapeRow
	}
}

// Layout is the static description of an operator's output
type Layout struct {
	Shape Shape
	Width int
}

// Operator is a pull-based tuple stream.
//
// Next advances to the next tuple and reports whether there is one; it
// returns false both on exhaustion and on failure, Err tells them apart.
// Tuple is only valid after Next returned true. Close may be called at any
// time, any number of times; it releases the operator's state and closes its
// upstream operators exactly once.
type Operator interface {
	Next() bool
	Tuple() Tuple
	Err() error
	Close() error

	// Depth is the operator's distance from the leaves, for diagnostics
	Depth() int
	Shape() Shape
}

// DotWriter is implemented by every operator an Executor compiles
type DotWriter interface {
	// WriteDot writes the operator and its upstream as Graphviz nodes and
	// edges. An operator is written at most once; later calls write nothing.
	WriteDot(sb *strings.Builder)
}

// Collect drains op and closes it
func Collect(op Operator) ([]Tuple, error) {
	var tuples []Tuple
	for op.Next() {
		tuples = append(tuples, op.Tuple())
	}
	err := op.Err()
	if closeErr := op.Close(); err == nil {
		err = closeErr
	}
	return tuples, err
}

// Dot renders an operator tree as a Graphviz digraph
func Dot(op Operator) string {
	var sb strings.Builder
	sb.WriteString("digraph plan {\n")
	sb.WriteString("  rankdir=BT;\n")
	if w, ok := op.(DotWriter); ok {
		w.WriteDot(&sb)
	}
	sb.WriteString("}\n")
	return sb.String()
}
