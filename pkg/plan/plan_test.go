package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aleksaelezovic/rotrigo/internal/encoding"
	"github.com/aleksaelezovic/rotrigo/pkg/index"
	"github.com/aleksaelezovic/rotrigo/pkg/rdf"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testEncoder = encoding.NewTermEncoder()

// num returns the ID of an integer literal. Integer IDs sort numerically,
// which keeps join inputs easy to write in ascending order.
func num(n int64) index.ID {
	id, _, err := testEncoder.EncodeTerm(rdf.NewIntegerLiteral(n))
	if err != nil {
		panic(err)
	}
	return id
}

func iri(name string) index.ID {
	id, _, err := testEncoder.EncodeTerm(rdf.NewNamedNode("http://example.org/" + name))
	if err != nil {
		panic(err)
	}
	return id
}

func tuple(values ...int64) Tuple {
	t := make(Tuple, len(values))
	for i, v := range values {
		t[i] = num(v)
	}
	return t
}

func tuples(rows ...[]int64) []Tuple {
	out := make([]Tuple, len(rows))
	for i, r := range rows {
		out[i] = tuple(r...)
	}
	return out
}

// fakeOperator is an upstream built outside the executor. It counts Close
// calls and can fail after its tuples are exhausted.
type fakeOperator struct {
	shape  Shape
	tuples []Tuple
	pos    int
	failAt int
	fail   error
	err    error
	closes int
}

func newFakeOperator(shape Shape, rows []Tuple) *fakeOperator {
	return &fakeOperator{shape: shape, tuples: rows, pos: -1, failAt: -1}
}

func (f *fakeOperator) failing(at int, err error) *fakeOperator {
	f.failAt = at
	f.fail = err
	return f
}

func (f *fakeOperator) Next() bool {
	if f.err != nil || f.closes > 0 {
		return false
	}
	f.pos++
	if f.pos == f.failAt {
		f.err = f.fail
		return false
	}
	return f.pos < len(f.tuples)
}

func (f *fakeOperator) Tuple() Tuple { return f.tuples[f.pos] }
func (f *fakeOperator) Err() error   { return f.err }
func (f *fakeOperator) Depth() int   { return 0 }
func (f *fakeOperator) Shape() Shape { return f.shape }

func (f *fakeOperator) Close() error {
	f.closes++
	return nil
}

func compile(t *testing.T, node Node) Operator {
	t.Helper()
	op, err := NewExecutor(nil).Compile(node)
	require.NoError(t, err)
	return op
}

func TestDedupMultiCardinality(t *testing.T) {
	op := compile(t, &Dedup{Input: &Values{
		Shape:  ShapeFocusValue,
		Tuples: tuples([]int64{1, 10}, []int64{1, 10}, []int64{1, 20}, []int64{2, 10}),
	}})

	out, err := Collect(op)
	require.NoError(t, err)
	require.Equal(t, tuples([]int64{1, 10}, []int64{1, 20}, []int64{2, 10}), out)
}

func TestDedupSingleCardinalityKeepsNonAdjacentDuplicates(t *testing.T) {
	op := compile(t, &Dedup{Input: &Values{
		Shape:  ShapeFocus,
		Tuples: tuples([]int64{1}, []int64{1}, []int64{2}, []int64{1}, []int64{1}),
	}})

	out, err := Collect(op)
	require.NoError(t, err)
	require.Equal(t, tuples([]int64{1}, []int64{2}, []int64{1}), out)
}

func TestDedupModeSwitchInsideGroup(t *testing.T) {
	op := compile(t, &Dedup{Input: &Source{
		Operator: newFakeOperator(ShapeRow, []Tuple{
			tuple(1),
			tuple(1, 5),
			tuple(1, 5),
			tuple(1),
			tuple(2),
			tuple(2),
		}),
		Width: 2,
	}})

	out, err := Collect(op)
	require.NoError(t, err)
	require.Equal(t, []Tuple{tuple(1), tuple(1, 5), tuple(2)}, out)
}

func TestDedupMultiCardinalityGroupsAreIndependent(t *testing.T) {
	op := compile(t, &Dedup{Input: &Values{
		Shape:  ShapeFocusValue,
		Tuples: tuples([]int64{1, 10}, []int64{2, 10}, []int64{1, 10}),
	}})

	// the set only spans the current group
	out, err := Collect(op)
	require.NoError(t, err)
	require.Len(t, out, 3)
}

func TestDedupCloseBeforeExhaustion(t *testing.T) {
	upstream := newFakeOperator(ShapeFocus, tuples([]int64{1}, []int64{2}, []int64{3}))
	op := compile(t, &Dedup{Input: &Source{Operator: upstream}})

	require.True(t, op.Next())
	require.Equal(t, tuple(1), op.Tuple())
	require.Equal(t, 1, op.Depth())
	require.Equal(t, ShapeFocus, op.Shape())

	require.NoError(t, op.Close())
	require.NoError(t, op.Close())
	require.Equal(t, 1, upstream.closes)
	require.False(t, op.Next())
	require.Nil(t, op.Tuple())
}

func TestUpstreamErrorPropagation(t *testing.T) {
	boom := errors.New("connection reset")
	upstream := newFakeOperator(ShapeFocus, tuples([]int64{1}, []int64{2})).failing(1, boom)
	op := compile(t, &Limit{Input: &Dedup{Input: &Source{Operator: upstream}}, Limit: 10})

	require.True(t, op.Next())
	require.False(t, op.Next())
	require.False(t, op.Next())

	err := op.Err()
	require.ErrorIs(t, err, ErrUpstream)
	require.ErrorIs(t, err, boom)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	require.Equal(t, "Source#0", upstreamErr.Op)
	require.Equal(t, boom, upstreamErr.Err)

	require.NoError(t, op.Close())
	require.Equal(t, 1, upstream.closes)
}

func TestUpstreamErrorIsNotWrappedTwice(t *testing.T) {
	inner := &UpstreamError{Op: "remote", Err: errors.New("timeout")}
	upstream := newFakeOperator(ShapeFocus, nil).failing(0, inner)
	op := compile(t, &Dedup{Input: &Source{Operator: upstream}})

	out, err := Collect(op)
	require.Empty(t, out)
	require.Same(t, inner, err)
}

func TestFilter(t *testing.T) {
	rows := tuples([]int64{1, 10}, []int64{2, 20}, []int64{3, 10})

	op := compile(t, &Filter{Input: &Values{Shape: ShapeFocusValue, Tuples: rows}, Column: 1, In: []index.ID{num(10)}})
	out, err := Collect(op)
	require.NoError(t, err)
	require.Equal(t, tuples([]int64{1, 10}, []int64{3, 10}), out)

	op = compile(t, &Filter{Input: &Values{Shape: ShapeFocusValue, Tuples: rows}, Column: 1, In: []index.ID{num(10)}, Negate: true})
	out, err = Collect(op)
	require.NoError(t, err)
	require.Equal(t, tuples([]int64{2, 20}), out)
}

func TestProject(t *testing.T) {
	op := compile(t, &Project{
		Input:   &Values{Shape: ShapeStatement, Tuples: tuples([]int64{1, 2, 3}, []int64{4, 5, 6})},
		Columns: []int{2, 0},
	})
	require.Equal(t, ShapeFocusValue, op.Shape())

	out, err := Collect(op)
	require.NoError(t, err)
	require.Equal(t, tuples([]int64{3, 1}, []int64{6, 4}), out)
}

func TestMergeJoin(t *testing.T) {
	left := &Values{Shape: ShapeFocusValue, Tuples: tuples(
		[]int64{1, 100},
		[]int64{2, 200},
		[]int64{2, 201},
		[]int64{4, 400},
		[]int64{5, 500},
	)}
	right := &Values{Shape: ShapeFocusValue, Tuples: tuples(
		[]int64{0, 0},
		[]int64{2, 7},
		[]int64{2, 8},
		[]int64{3, 9},
		[]int64{5, 5},
	)}

	op := compile(t, &Join{Left: left, Right: right})
	require.Equal(t, ShapeRow, op.Shape())
	require.Equal(t, 1, op.Depth())

	out, err := Collect(op)
	require.NoError(t, err)
	require.Equal(t, tuples(
		[]int64{2, 200, 7},
		[]int64{2, 200, 8},
		[]int64{2, 201, 7},
		[]int64{2, 201, 8},
		[]int64{5, 500, 5},
	), out)
}

func TestMergeJoinStopsWhenRightIsExhausted(t *testing.T) {
	left := newFakeOperator(ShapeFocus, tuples([]int64{1}, []int64{2}, []int64{3}))
	right := newFakeOperator(ShapeFocus, tuples([]int64{1}))
	op := compile(t, &Join{Left: &Source{Operator: left}, Right: &Source{Operator: right}})

	out, err := Collect(op)
	require.NoError(t, err)
	require.Equal(t, tuples([]int64{1}), out)
	require.Equal(t, 1, left.pos) // left tuple 3 is never pulled
	require.Equal(t, 1, left.closes)
	require.Equal(t, 1, right.closes)
}

func TestMergeJoinRightFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	left := newFakeOperator(ShapeFocus, tuples([]int64{1}, []int64{2}))
	right := newFakeOperator(ShapeFocus, tuples([]int64{1})).failing(1, boom)
	op := compile(t, &Join{Left: &Source{Operator: left}, Right: &Source{Operator: right}})

	out, err := Collect(op)
	require.ErrorIs(t, err, ErrUpstream)
	require.ErrorIs(t, err, boom)
	require.Empty(t, out)
}

func TestLimitClosesUpstreamEarly(t *testing.T) {
	upstream := newFakeOperator(ShapeFocus, tuples([]int64{1}, []int64{2}, []int64{3}))
	op := compile(t, &Limit{Input: &Source{Operator: upstream}, Limit: 2})

	require.True(t, op.Next())
	require.Equal(t, 0, upstream.closes)
	require.True(t, op.Next())
	require.Equal(t, tuple(2), op.Tuple())
	require.Equal(t, 1, upstream.closes)
	require.False(t, op.Next())

	require.NoError(t, op.Close())
	require.Equal(t, 1, upstream.closes)
}

func TestLimitZero(t *testing.T) {
	upstream := newFakeOperator(ShapeFocus, tuples([]int64{1}))
	op := compile(t, &Limit{Input: &Source{Operator: upstream}, Limit: 0})

	out, err := Collect(op)
	require.NoError(t, err)
	require.Empty(t, out)
	require.Equal(t, 0, upstream.pos+1)
	require.Equal(t, 1, upstream.closes)
}

func TestOffset(t *testing.T) {
	op := compile(t, &Offset{
		Input:  &Values{Shape: ShapeFocus, Tuples: tuples([]int64{1}, []int64{2}, []int64{3})},
		Offset: 2,
	})
	out, err := Collect(op)
	require.NoError(t, err)
	require.Equal(t, tuples([]int64{3}), out)
}

func TestAnalyze(t *testing.T) {
	values := &Values{Shape: ShapeFocusValue, Tuples: tuples([]int64{1, 2})}

	tests := []struct {
		name     string
		node     Node
		expected Layout
		wantErr  bool
	}{
		{"scan", &Scan{}, Layout{Shape: ShapeStatement, Width: 3}, false},
		{"join", &Join{Left: &Scan{}, Right: values}, Layout{Shape: ShapeRow, Width: 4}, false},
		{"project", &Project{Input: &Scan{}, Columns: []int{0}}, Layout{Shape: ShapeFocus, Width: 1}, false},
		{"dedup of row values", &Dedup{Input: &Values{Shape: ShapeRow, Tuples: tuples([]int64{1, 2, 3, 4})}}, Layout{Shape: ShapeRow, Width: 4}, false},
		{"nil input", &Dedup{}, Layout{}, true},
		{"nil node", nil, Layout{}, true},
		{"filter column out of range", &Filter{Input: values, Column: 2}, Layout{}, true},
		{"negative project column", &Project{Input: values, Columns: []int{-1}}, Layout{}, true},
		{"empty projection", &Project{Input: values}, Layout{}, true},
		{"negative limit", &Limit{Input: values, Limit: -1}, Layout{}, true},
		{"negative offset", &Offset{Input: values, Offset: -1}, Layout{}, true},
		{"ragged values", &Values{Shape: ShapeFocusValue, Tuples: tuples([]int64{1, 2}, []int64{1})}, Layout{}, true},
		{"empty row values", &Values{Shape: ShapeRow}, Layout{}, true},
		{"source without operator", &Source{}, Layout{}, true},
		{"row source without width", &Source{Operator: newFakeOperator(ShapeRow, nil)}, Layout{}, true},
		{"bad join side", &Join{Left: values, Right: &Limit{Input: values, Limit: -3}}, Layout{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := Analyze(tt.node)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPlan)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, layout)
		})
	}
}

func TestCompileRejectsInvalidPlan(t *testing.T) {
	_, err := NewExecutor(nil).Compile(&Filter{Input: &Scan{}, Column: 3})
	require.ErrorIs(t, err, ErrInvalidPlan)

	_, err = NewExecutor(nil).Compile(&Scan{})
	require.ErrorIs(t, err, ErrInvalidPlan)
}

func TestCompileFailureLeavesSourcesToCaller(t *testing.T) {
	upstream := newFakeOperator(ShapeStatement, nil)

	_, err := NewExecutor(nil).Compile(&Join{Left: &Source{Operator: upstream}, Right: &Scan{}})
	require.ErrorIs(t, err, ErrInvalidPlan)
	require.Zero(t, upstream.closes)

	require.NoError(t, upstream.Close())
	require.Equal(t, 1, upstream.closes)
}

func TestSourceStopsPullingWhenExhausted(t *testing.T) {
	upstream := newFakeOperator(ShapeFocus, []Tuple{tuple(1)})
	op := compile(t, &Source{Operator: upstream})

	require.True(t, op.Next())
	require.False(t, op.Next())
	require.False(t, op.Next())
	require.False(t, op.Next())
	require.NoError(t, op.Err())
	require.Equal(t, 1, upstream.pos)
	require.NoError(t, op.Close())
}

func TestTupleKey(t *testing.T) {
	require.Equal(t, tuple(1, 2).Key(), tuple(1, 2).Key())
	require.NotEqual(t, tuple(1, 2).Key(), tuple(2, 1).Key())
	require.NotEqual(t, tuple(1).Key(), tuple(1, 1).Key())
	require.True(t, tuple(1, 2).Equal(tuple(1, 2)))
	require.False(t, tuple(1, 2).Equal(tuple(1)))
	require.True(t, tuple(1, 2).SameGroup(tuple(1, 3)))
	require.False(t, Tuple{}.SameGroup(Tuple{}))
}
