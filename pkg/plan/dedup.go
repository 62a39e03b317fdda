package plan

import (
	"strings"
)

// dedupOperator removes duplicate tuples from a grouped stream.
//
// Until a tuple with more than one element is seen the operator works in
// single-cardinality mode and only drops a tuple equal to the one accepted
// just before it. Duplicates must therefore arrive adjacently, i.e. the
// upstream must be sorted or grouped; x, y, x keeps both x.
//
// The first tuple with more than one element switches it to
// multi-cardinality mode for good. There a set of the tuples accepted in
// the current group (tuples sharing their first element) is kept and
// replaced whenever the group changes, so memory is bounded by the largest
// group rather than by the stream.
type dedupOperator struct {
	unary
	previous         Tuple
	hasPrevious      bool
	multiCardinality bool
	dedupeSet        map[string]struct{}
	current          Tuple
}

func newDedupOperator(b base, input operator) *dedupOperator {
	return &dedupOperator{unary: unary{base: b, input: input}}
}

func (d *dedupOperator) Next() bool {
	for d.pull() {
		t := d.input.Tuple()
		if len(t) > 1 {
			d.multiCardinality = true
		}
		if d.accept(t) {
			d.previous = t
			d.hasPrevious = true
			d.current = t
			return true
		}
	}
	d.current = nil
	d.dedupeSet = nil
	return false
}

func (d *dedupOperator) accept(t Tuple) bool {
	if !d.hasPrevious {
		return true
	}
	if !d.multiCardinality {
		return !t.Equal(d.previous)
	}

	sameGroup := t.SameGroup(d.previous)
	if d.dedupeSet == nil || !sameGroup {
		d.dedupeSet = make(map[string]struct{})
		// the mode may have switched inside a group whose first tuple
		// was accepted before any set existed
		if sameGroup {
			d.dedupeSet[d.previous.Key()] = struct{}{}
		}
	}

	key := t.Key()
	if _, seen := d.dedupeSet[key]; seen {
		return false
	}
	d.dedupeSet[key] = struct{}{}
	return true
}

func (d *dedupOperator) Tuple() Tuple { return d.current }
func (d *dedupOperator) Shape() Shape { return d.input.Shape() }

func (d *dedupOperator) Close() error {
	d.dedupeSet = nil
	d.current = nil
	return d.close()
}

func (d *dedupOperator) WriteDot(sb *strings.Builder) {
	d.writeDot(sb, "Dedup", d.input)
}
