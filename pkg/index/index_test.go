package index

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/aleksaelezovic/rotrigo/internal/encoding"
	"github.com/aleksaelezovic/rotrigo/pkg/rdf"
)

var testEncoder = encoding.NewTermEncoder()

func iri(name string) ID {
	id, _, err := testEncoder.EncodeTerm(rdf.NewNamedNode("http://example.org/" + name))
	if err != nil {
		panic(err)
	}
	return id
}

func stmt(s, p, o string) Statement {
	return Statement{Subject: iri(s), Predicate: iri(p), Object: iri(o)}
}

func stmtIn(s, p, o, g string) Statement {
	st := stmt(s, p, o)
	st.Context = iri(g)
	return st
}

func collect(v RangeView) []Statement {
	var out []Statement
	for st := range v.All() {
		out = append(out, st)
	}
	return out
}

func sampleStatements() []Statement {
	return []Statement{
		stmt("bob", "knows", "alice"),
		stmt("alice", "knows", "bob"),
		stmtIn("alice", "name", "alice-name", "g1"),
		stmt("alice", "knows", "carol"),
		stmtIn("carol", "name", "carol-name", "g2"),
		stmtIn("alice", "knows", "bob", "g1"),
	}
}

func TestBuild(t *testing.T) {
	for _, order := range []Order{OrderSPO, OrderPSO} {
		t.Run(order.String(), func(t *testing.T) {
			input := sampleStatements()
			idx, err := Build(order, input, false)
			require.NoError(t, err)
			require.Equal(t, len(input), idx.Len())
			require.Equal(t, order, idx.Order())

			sorted := collect(idx.Statements())
			for i := 1; i < len(sorted); i++ {
				require.LessOrEqual(t, order.Compare(sorted[i-1], sorted[i]), 0)
			}

			// the caller's slice is left alone
			require.Equal(t, sampleStatements(), input)
		})
	}
}

func TestBuildKeyCounts(t *testing.T) {
	idx := MustBuild(OrderSPO, sampleStatements(), false)

	require.Equal(t, 3, idx.KeyCount(1)) // alice, bob, carol
	require.Equal(t, 4, idx.KeyCount(2)) // alice knows, alice name, bob knows, carol name
	require.Equal(t, 5, idx.KeyCount(3)) // the duplicate (alice knows bob) shares one key
	require.Equal(t, 0, idx.KeyCount(0))
	require.Equal(t, 0, idx.KeyCount(4))

	r, ok := idx.RangeOf(NewPrefixKey(iri("alice"), iri("knows"), iri("bob")))
	require.True(t, ok)
	require.Equal(t, 2, r.Len())

	_, ok = idx.RangeOf(NewPrefixKey(iri("nobody")))
	require.False(t, ok)
}

func TestBuildPresorted(t *testing.T) {
	input := []Statement{
		stmt("a", "p", "x"),
		stmt("a", "q", "x"),
		stmt("b", "p", "x"),
	}
	slices.SortFunc(input, OrderSPO.Compare)
	idx, err := Build(OrderSPO, input, true)
	require.NoError(t, err)
	require.Equal(t, 3, idx.Len())

	view := idx.Lookup(iri("a"), Any, Any)
	require.Equal(t, 2, view.Len())
	require.False(t, view.NeedsFurtherFiltering())
}

func TestBuildRejectsUnsortedInput(t *testing.T) {
	input := []Statement{
		stmt("a", "p", "x"),
		stmt("b", "p", "x"),
		stmt("a", "p", "y"),
	}
	require.Panics(t, func() {
		_, _ = Build(OrderSPO, input, true)
	})
}

func TestBuildRejectsUnsetComponents(t *testing.T) {
	input := []Statement{{Subject: iri("a"), Object: iri("x")}}
	require.Panics(t, func() {
		_, _ = Build(OrderSPO, input, false)
	})
}

func TestEmptyIndex(t *testing.T) {
	for _, order := range []Order{OrderSPO, OrderPSO} {
		idx := MustBuild(order, nil, false)
		require.Equal(t, 0, idx.Len())

		for mask := range 8 {
			s, p, o := maskedPattern(mask, "a", "p", "x")
			for _, contexts := range [][]ID{nil, {iri("g")}} {
				view := idx.Lookup(s, p, o, contexts...)
				require.True(t, view.Empty())
				require.Equal(t, 0, view.Len())
				require.False(t, view.NeedsFurtherFiltering())
				require.Equal(t, EmptyView(), view)

				cursor := view.Cursor()
				require.False(t, cursor.Next())
				require.False(t, cursor.Next())
			}
		}
	}
}

func TestLookupMissReturnsEmptyView(t *testing.T) {
	idx := MustBuild(OrderPSO, sampleStatements(), false)
	view := idx.Lookup(iri("alice"), iri("unknown"), Any)
	require.Equal(t, EmptyView(), view)
	require.Empty(t, collect(view))
}

func maskedPattern(mask int, s, p, o string) (ID, ID, ID) {
	var ids [3]ID
	for i, name := range []string{s, p, o} {
		if mask&(1<<i) != 0 {
			ids[i] = iri(name)
		}
	}
	return ids[0], ids[1], ids[2]
}

func TestNeedsFurtherFiltering(t *testing.T) {
	idx := map[Order]*StatementIndex{
		OrderSPO: MustBuild(OrderSPO, sampleStatements(), false),
		OrderPSO: MustBuild(OrderPSO, sampleStatements(), false),
	}
	g1 := iri("g1")

	tests := []struct {
		name     string
		order    Order
		s, p, o  ID
		contexts []ID
		expected bool
		length   int
	}{
		{"pso exact", OrderPSO, iri("alice"), iri("knows"), iri("bob"), nil, false, 2},
		{"pso exact with context", OrderPSO, iri("alice"), iri("knows"), iri("bob"), []ID{g1}, true, 2},
		{"pso predicate and subject", OrderPSO, iri("alice"), iri("knows"), Any, nil, false, 3},
		{"pso predicate and subject with context", OrderPSO, iri("alice"), iri("knows"), Any, []ID{g1}, true, 3},
		{"pso predicate only", OrderPSO, Any, iri("knows"), Any, nil, false, 4},
		{"pso predicate only with context", OrderPSO, Any, iri("knows"), Any, []ID{g1}, true, 4},
		{"pso predicate and object", OrderPSO, Any, iri("knows"), iri("bob"), nil, true, 4},
		{"pso predicate wildcard", OrderPSO, iri("alice"), Any, iri("bob"), nil, true, 6},
		{"pso nothing bound", OrderPSO, Any, Any, Any, nil, true, 6},
		{"spo exact", OrderSPO, iri("carol"), iri("name"), iri("carol-name"), nil, false, 1},
		{"spo subject and predicate", OrderSPO, iri("alice"), iri("knows"), Any, nil, false, 3},
		{"spo subject only", OrderSPO, iri("alice"), Any, Any, nil, false, 4},
		{"spo subject and object", OrderSPO, iri("alice"), Any, iri("bob"), nil, true, 4},
		{"spo subject only with context", OrderSPO, iri("alice"), Any, Any, []ID{g1}, true, 4},
		{"spo subject wildcard", OrderSPO, Any, iri("knows"), Any, nil, true, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := idx[tt.order].Lookup(tt.s, tt.p, tt.o, tt.contexts...)
			require.Equal(t, tt.expected, view.NeedsFurtherFiltering())
			require.Equal(t, tt.length, view.Len())
		})
	}
}

func TestLookupIsDeterministic(t *testing.T) {
	idx := MustBuild(OrderPSO, sampleStatements(), false)
	first := idx.Lookup(Any, iri("knows"), Any)
	for range 10 {
		require.Equal(t, first.Bounds(), idx.Lookup(Any, iri("knows"), Any).Bounds())
	}
}

func TestRangeViewIteratesRepeatedly(t *testing.T) {
	idx := MustBuild(OrderSPO, sampleStatements(), false)
	view := idx.Lookup(iri("alice"), iri("knows"), Any)

	first := collect(view)
	require.Len(t, first, 3)
	require.Equal(t, first, collect(view))

	var pulled []Statement
	cursor := view.Cursor()
	for cursor.Next() {
		pulled = append(pulled, cursor.Statement())
	}
	require.Equal(t, first, pulled)
	require.False(t, cursor.Next())

	// early termination of one pass does not affect the next
	for range view.All() {
		break
	}
	require.Equal(t, first, collect(view))
}

var (
	universeSubjects   = []string{"s0", "s1", "s2", "s3"}
	universePredicates = []string{"p0", "p1", "p2"}
	universeObjects    = []string{"o0", "o1", "o2", "s1"}
	universeContexts   = []string{"", "g0", "g1"}
)

func statementGenerator() *rapid.Generator[Statement] {
	return rapid.Custom(func(t *rapid.T) Statement {
		st := stmt(
			rapid.SampledFrom(universeSubjects).Draw(t, "subject"),
			rapid.SampledFrom(universePredicates).Draw(t, "predicate"),
			rapid.SampledFrom(universeObjects).Draw(t, "object"),
		)
		if g := rapid.SampledFrom(universeContexts).Draw(t, "context"); g != "" {
			st.Context = iri(g)
		}
		return st
	})
}

// The lookup window, filtered when it asks for it, must be exactly the
// matching subset, and an unfiltered window must contain nothing else. Every
// position inside a prefix range must share its key and none outside may.
func TestLookupMatchesExactly(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		statements := rapid.SliceOfN(statementGenerator(), 0, 40).Draw(t, "statements")
		order := rapid.SampledFrom([]Order{OrderSPO, OrderPSO}).Draw(t, "order")
		idx := MustBuild(order, statements, false)

		mask := rapid.IntRange(0, 7).Draw(t, "mask")
		s, p, o := maskedPattern(mask,
			rapid.SampledFrom(append(universeSubjects, "missing")).Draw(t, "s"),
			rapid.SampledFrom(universePredicates).Draw(t, "p"),
			rapid.SampledFrom(universeObjects).Draw(t, "o"),
		)
		var contexts []ID
		for _, g := range rapid.SliceOfNDistinct(rapid.SampledFrom(universeContexts), 0, 2, rapid.ID[string]).Draw(t, "contexts") {
			if g == "" {
				contexts = append(contexts, Any)
			} else {
				contexts = append(contexts, iri(g))
			}
		}
		pattern := Pattern{Subject: s, Predicate: p, Object: o, Contexts: contexts}

		var expected []Statement
		for _, st := range statements {
			if pattern.Matches(st) {
				expected = append(expected, st)
			}
		}

		view := idx.Lookup(s, p, o, contexts...)
		window := collect(view)
		var actual []Statement
		for _, st := range window {
			if !view.NeedsFurtherFiltering() || pattern.Matches(st) {
				actual = append(actual, st)
			}
		}
		require.ElementsMatch(t, expected, actual, "pattern %s", pattern)
		if !view.NeedsFurtherFiltering() {
			require.ElementsMatch(t, expected, window)
		}

		all := collect(idx.Statements())
		for arity := 1; arity <= MaxArity; arity++ {
			for _, st := range all {
				key := order.Key(st, arity)
				r, ok := idx.RangeOf(key)
				require.True(t, ok, "key %s", key)
				for i, other := range all {
					inside := i >= r.Start && i < r.Stop
					require.Equal(t, inside, order.Key(other, arity) == key, fmt.Sprintf("position %d key %s", i, key))
				}
			}
		}
	})
}
