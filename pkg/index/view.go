package index

import (
	"iter"
)

// RangeView is a lazy, forward-only window [start, stop) over the sorted
// statements of an index. It borrows the array and never copies it.
//
// When NeedsFurtherFiltering is true the window is a superset of the answer:
// the caller must re-check the components that were not resolved through a
// prefix key, and any context constraint, before accepting a statement.
type RangeView struct {
	statements            []Statement
	start                 int
	stop                  int
	needsFurtherFiltering bool
}

// emptyView is returned for every miss. RangeView is a value, so handing it
// out never allocates.
var emptyView = RangeView{}

// EmptyView returns the canonical empty, already exhausted view
func EmptyView() RangeView {
	return emptyView
}

// All returns the statements of the view. Every call starts a new pass at the
// beginning of the window.
func (v RangeView) All() iter.Seq[Statement] {
	return func(yield func(Statement) bool) {
		for i := v.start; i < v.stop; i++ {
			if !yield(v.statements[i]) {
				return
			}
		}
	}
}

// Cursor returns a new pull cursor positioned before the first statement
func (v RangeView) Cursor() Cursor {
	return Cursor{statements: v.statements, pos: v.start - 1, stop: v.stop}
}

// Len returns the number of statements in the window
func (v RangeView) Len() int {
	return v.stop - v.start
}

// Empty reports whether the window holds no statements
func (v RangeView) Empty() bool {
	return v.stop <= v.start
}

// Bounds returns the window as positions in the index's sorted array
func (v RangeView) Bounds() Range {
	return Range{Start: v.start, Stop: v.stop}
}

// NeedsFurtherFiltering reports whether the caller still has to filter
func (v RangeView) NeedsFurtherFiltering() bool {
	return v.needsFurtherFiltering
}

// Cursor walks a RangeView one statement at a time. It must not be shared
// between goroutines.
type Cursor struct {
	statements []Statement
	pos        int
	stop       int
}

// Next advances the cursor, reporting whether a statement is available
func (c *Cursor) Next() bool {
	if c.pos+1 >= c.stop {
		c.pos = c.stop
		return false
	}
	c.pos++
	return true
}

// Statement returns the statement under the cursor
func (c *Cursor) Statement() Statement {
	return c.statements[c.pos]
}
