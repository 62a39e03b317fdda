package index

import (
	"slices"
	"time"

	"github.com/aleksaelezovic/rotrigo/internal/bug"
	"github.com/aleksaelezovic/rotrigo/internal/logging"
)

// StatementIndex is a read-only index over a sorted array of statements. For
// each prefix arity (1, 2 and 3 leading components of the order) it maps every
// prefix key present to the contiguous range of the array that shares it.
//
// A StatementIndex is never mutated after Build returns, so any number of
// goroutines may call Lookup concurrently without synchronization.
type StatementIndex struct {
	order      Order
	statements []Statement
	ranges     [MaxArity]map[PrefixKey]Range
	lookups    lookupCounters
}

// openRange is the range of the key currently being scanned for one arity
type openRange struct {
	key   PrefixKey
	rng   Range
	valid bool
}

// Build indexes statements under order. Unless alreadySorted is set the input
// is copied and sorted first; when it is set, the caller's slice is kept as is
// and must not be modified afterwards.
//
// Build only fails on contract violations: a statement with an unset subject,
// predicate or object, or input claimed to be sorted that is not.
func Build(order Order, statements []Statement, alreadySorted bool) (*StatementIndex, error) {
	started := time.Now()

	sorted := statements
	if !alreadySorted {
		sorted = slices.Clone(statements)
		slices.SortFunc(sorted, order.Compare)
	}

	idx := &StatementIndex{
		order:      order,
		statements: sorted,
		ranges: [MaxArity]map[PrefixKey]Range{
			make(map[PrefixKey]Range, len(sorted)/5),
			make(map[PrefixKey]Range, len(sorted)/2),
			make(map[PrefixKey]Range, len(sorted)),
		},
		lookups: newLookupCounters(order),
	}

	// One forward pass. Each arity keeps a single open range; a key that is
	// seen for the first time closes the previous range and opens its own.
	var open [MaxArity]openRange
	for i, st := range sorted {
		if st.Subject.IsZero() || st.Predicate.IsZero() || st.Object.IsZero() {
			return nil, bug.Errorf("statement at position %d has an unset component: %s", i, st)
		}

		for a := range MaxArity {
			key := order.Key(st, a+1)
			if open[a].valid && open[a].key == key {
				open[a].rng.Stop = i + 1
				continue
			}
			if err := idx.closeRange(a, open[a]); err != nil {
				return nil, err
			}
			open[a] = openRange{key: key, rng: Range{Start: i, Stop: i + 1}, valid: true}
		}
	}
	for a := range MaxArity {
		if err := idx.closeRange(a, open[a]); err != nil {
			return nil, err
		}
	}

	elapsed := time.Since(started)
	buildDuration.WithLabelValues(order.String()).Observe(elapsed.Seconds())
	indexedStatements.WithLabelValues(order.String()).Set(float64(len(sorted)))
	logging.Debug().
		Stringer("order", order).
		Int("statements", len(sorted)).
		Int("prefix1", len(idx.ranges[0])).
		Int("prefix2", len(idx.ranges[1])).
		Int("prefix3", len(idx.ranges[2])).
		Bool("presorted", alreadySorted).
		Dur("elapsed", elapsed).
		Msg("built statement index")

	return idx, nil
}

// closeRange records a finished range. Seeing its key a second time means the
// key's statements were not adjacent, i.e. the input was not sorted.
func (idx *StatementIndex) closeRange(arity int, open openRange) error {
	if !open.valid {
		return nil
	}
	if previous, ok := idx.ranges[arity][open.key]; ok {
		return bug.Errorf("statements are not sorted by %s: prefix %s occupies [%d, %d) and [%d, %d)",
			idx.order, open.key, previous.Start, previous.Stop, open.rng.Start, open.rng.Stop)
	}
	idx.ranges[arity][open.key] = open.rng
	return nil
}

// MustBuild is Build for callers that treat a contract violation as fatal
func MustBuild(order Order, statements []Statement, alreadySorted bool) *StatementIndex {
	idx, err := Build(order, statements, alreadySorted)
	if err != nil {
		panic(err)
	}
	return idx
}

// Order returns the sort policy of the index
func (idx *StatementIndex) Order() Order {
	return idx.order
}

// Len returns the number of indexed statements
func (idx *StatementIndex) Len() int {
	return len(idx.statements)
}

// KeyCount returns the number of distinct prefix keys of the given arity
func (idx *StatementIndex) KeyCount(arity int) int {
	if arity < 1 || arity > MaxArity {
		return 0
	}
	return len(idx.ranges[arity-1])
}

// RangeOf returns the range of a prefix key, if present
func (idx *StatementIndex) RangeOf(key PrefixKey) (Range, bool) {
	if key.Arity() < 1 {
		return Range{}, false
	}
	r, ok := idx.ranges[key.Arity()-1][key]
	return r, ok
}

// Statements returns a view over the whole sorted array
func (idx *StatementIndex) Statements() RangeView {
	if len(idx.statements) == 0 {
		return emptyView
	}
	return RangeView{statements: idx.statements, start: 0, stop: len(idx.statements)}
}

// Lookup narrows the sorted array to the smallest window its prefix maps can
// guarantee contains every statement matching the pattern. Any (the zero ID)
// is the wildcard. Lookup never fails; a miss returns the empty view.
//
// With (first, second, third) the components of the index order:
//
//	first, second, third bound  -> exact key;  filter iff contexts given
//	first, second bound         -> 2-key;      filter iff contexts given
//	first bound                 -> 1-key;      filter unless third is a wildcard and no contexts
//	first wildcard              -> full array; always filter
//
// The index never filters itself; see RangeView.NeedsFurtherFiltering.
func (idx *StatementIndex) Lookup(subject, predicate, object ID, contexts ...ID) RangeView {
	if len(idx.statements) == 0 {
		return emptyView
	}

	bound := Statement{Subject: subject, Predicate: predicate, Object: object}
	first := bound.Get(idx.order.components[0])
	second := bound.Get(idx.order.components[1])
	third := bound.Get(idx.order.components[2])
	withContexts := len(contexts) > 0

	if first.IsZero() {
		idx.lookups.full.Inc()
		return RangeView{statements: idx.statements, start: 0, stop: len(idx.statements), needsFurtherFiltering: true}
	}

	if second.IsZero() {
		return idx.view(PrefixKey{arity: 1, parts: [MaxArity]ID{first}}, !third.IsZero() || withContexts, idx.lookups.prefix1)
	}
	if third.IsZero() {
		return idx.view(PrefixKey{arity: 2, parts: [MaxArity]ID{first, second}}, withContexts, idx.lookups.prefix2)
	}
	return idx.view(PrefixKey{arity: 3, parts: [MaxArity]ID{first, second, third}}, withContexts, idx.lookups.exact)
}

func (idx *StatementIndex) view(key PrefixKey, needsFurtherFiltering bool, hits interface{ Inc() }) RangeView {
	r, ok := idx.ranges[key.arity-1][key]
	if !ok {
		idx.lookups.miss.Inc()
		return emptyView
	}
	hits.Inc()
	return RangeView{
		statements:            idx.statements,
		start:                 r.Start,
		stop:                  r.Stop,
		needsFurtherFiltering: needsFurtherFiltering,
	}
}
