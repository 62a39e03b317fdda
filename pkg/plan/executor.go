package plan

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aleksaelezovic/rotrigo/internal/logging"
	"github.com/aleksaelezovic/rotrigo/pkg/index"
)

var compiledOperators = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rotrigo",
	Subsystem: "plan",
	Name:      "compiled_operators_total",
	Help:      "operators compiled from plan nodes, by kind",
}, []string{"kind"})

// Executor compiles plans into operator trees over one dataset. Operators it
// compiles are numbered in creation order; the numbers identify them in
// Graphviz output.
//
// An Executor is not safe for concurrent use.
type Executor struct {
	dataset *index.Dataset
	nextID  int
}

// NewExecutor creates an executor reading from dataset
func NewExecutor(dataset *index.Dataset) *Executor {
	return &Executor{dataset: dataset}
}

// Compile analyzes node and builds its operator tree. On error nothing is
// built and Source operators in the plan remain the caller's to close.
func (e *Executor) Compile(node Node) (Operator, error) {
	if _, err := Analyze(node); err != nil {
		return nil, err
	}
	if e.dataset == nil && readsDataset(node) {
		return nil, fmt.Errorf("%w: scan without a dataset", ErrInvalidPlan)
	}
	op, err := e.build(node)
	if err != nil {
		return nil, err
	}
	return op, nil
}

// readsDataset reports whether a plan contains a Scan. Compile checks it
// up front so that build never fails once a Source has been adopted.
func readsDataset(node Node) bool {
	switch n := node.(type) {
	case *Scan:
		return true
	case *Filter:
		return readsDataset(n.Input)
	case *Project:
		return readsDataset(n.Input)
	case *Join:
		return readsDataset(n.Left) || readsDataset(n.Right)
	case *Dedup:
		return readsDataset(n.Input)
	case *Limit:
		return readsDataset(n.Input)
	case *Offset:
		return readsDataset(n.Input)
	default:
		return false
	}
}

// operator is what every compiled operator implements
type operator interface {
	Operator
	DotWriter
	id() int
}

func (e *Executor) build(node Node) (operator, error) {
	switch n := node.(type) {
	case *Scan:
		if e.dataset == nil {
			return nil, fmt.Errorf("%w: scan without a dataset", ErrInvalidPlan)
		}
		return newScanOperator(e.base("Scan"), e.dataset, n.Pattern), nil

	case *Values:
		return &valuesOperator{base: e.base("Values"), shape: n.Shape, tuples: n.Tuples, pos: -1}, nil

	case *Source:
		return &sourceOperator{base: e.base("Source"), source: n.Operator}, nil

	case *Filter:
		input, err := e.build(n.Input)
		if err != nil {
			return nil, err
		}
		return newFilterOperator(e.base("Filter"), input, n), nil

	case *Project:
		input, err := e.build(n.Input)
		if err != nil {
			return nil, err
		}
		return newProjectOperator(e.base("Project"), input, n.Columns), nil

	case *Join:
		layout, err := Analyze(n)
		if err != nil {
			return nil, err
		}
		left, err := e.build(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.build(n.Right)
		if err != nil {
			return nil, err
		}
		return newMergeJoinOperator(e.base("MergeJoin"), left, right, layout.Shape), nil

	case *Dedup:
		input, err := e.build(n.Input)
		if err != nil {
			return nil, err
		}
		return newDedupOperator(e.base("Dedup"), input), nil

	case *Limit:
		input, err := e.build(n.Input)
		if err != nil {
			return nil, err
		}
		return newLimitOperator(e.base("Limit"), input, n.Limit), nil

	case *Offset:
		input, err := e.build(n.Input)
		if err != nil {
			return nil, err
		}
		return newOffsetOperator(e.base("Offset"), input, n.Offset), nil

	default:
		return nil, fmt.Errorf("%w: unsupported plan node %T", ErrInvalidPlan, node)
	}
}

func (e *Executor) base(kind string) base {
	b := base{opID: e.nextID, kind: kind}
	e.nextID++
	compiledOperators.WithLabelValues(kind).Inc()
	logging.Trace().Int("id", b.opID).Str("kind", kind).Msg("compiled operator")
	return b
}

// base carries what every operator shares: its executor-assigned id, its
// kind and the Graphviz printed flag.
type base struct {
	opID    int
	kind    string
	printed bool
}

func (b *base) id() int {
	return b.opID
}

// name identifies the operator in errors
func (b *base) name() string {
	return fmt.Sprintf("%s#%d", b.kind, b.opID)
}

// writeDot writes the operator's node and the edges from its inputs, then
// the inputs themselves.
func (b *base) writeDot(sb *strings.Builder, label string, inputs ...operator) {
	if b.printed {
		return
	}
	b.printed = true
	fmt.Fprintf(sb, "  op%d [label=%q];\n", b.opID, label)
	for _, input := range inputs {
		fmt.Fprintf(sb, "  op%d -> op%d;\n", input.id(), b.opID)
	}
	for _, input := range inputs {
		input.WriteDot(sb)
	}
}
