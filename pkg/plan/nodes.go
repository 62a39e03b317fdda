package plan

import (
	"github.com/aleksaelezovic/rotrigo/pkg/index"
)

// Node is a plan node. The set of node types is closed; the Executor and
// Analyze handle each of them in one type switch.
type Node interface {
	planNode()
}

// Scan reads the statements matching a pattern from the dataset
type Scan struct {
	Pattern index.Pattern
}

func (n *Scan) planNode() {}

// Values produces a fixed list of tuples
type Values struct {
	Shape  Shape
	Tuples []Tuple
}

func (n *Values) planNode() {}

// Source is a leaf backed by an operator built outside the executor. Width
// is required when the operator's shape is ShapeRow. The compiled plan owns
// the operator and closes it.
type Source struct {
	Operator Operator
	Width    int
}

func (n *Source) planNode() {}

// Filter keeps tuples whose value at Column is one of In, or with Negate,
// is none of them.
type Filter struct {
	Input  Node
	Column int
	In     []index.ID
	Negate bool
}

func (n *Filter) planNode() {}

// Project keeps the given columns, in the given order
type Project struct {
	Input   Node
	Columns []int
}

func (n *Project) planNode() {}

// Join is a merge join on column 0. Both inputs must be ascending on their
// first column; each output tuple is the left tuple followed by the right
// tuple without its first column.
type Join struct {
	Left  Node
	Right Node
}

func (n *Join) planNode() {}

// Dedup removes duplicate tuples, see dedupOperator for the exact rules
type Dedup struct {
	Input Node
}

func (n *Dedup) planNode() {}

// Limit stops after Limit tuples
type Limit struct {
	Input Node
	Limit int
}

func (n *Limit) planNode() {}

// Offset skips the first Offset tuples
type Offset struct {
	Input  Node
	Offset int
}

func (n *Offset) planNode() {}
