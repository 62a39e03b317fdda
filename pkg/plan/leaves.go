package plan

import (
	"fmt"
	"strings"

	"github.com/aleksaelezovic/rotrigo/pkg/index"
)

// scanOperator emits the statements matching a pattern as (s, p, o) tuples
type scanOperator struct {
	base
	pattern index.Pattern
	order   index.Order
	cursor  index.Cursor
	filter  bool
	current Tuple
}

func newScanOperator(b base, dataset *index.Dataset, pattern index.Pattern) *scanOperator {
	idx := dataset.Choose(pattern)
	view := idx.Lookup(pattern.Subject, pattern.Predicate, pattern.Object, pattern.Contexts...)
	return &scanOperator{
		base:    b,
		pattern: pattern,
		order:   idx.Order(),
		cursor:  view.Cursor(),
		filter:  view.NeedsFurtherFiltering(),
	}
}

func (s *scanOperator) Next() bool {
	for s.cursor.Next() {
		st := s.cursor.Statement()
		if s.filter && !s.pattern.Matches(st) {
			continue
		}
		s.current = Tuple{st.Subject, st.Predicate, st.Object}
		return true
	}
	s.current = nil
	return false
}

func (s *scanOperator) Tuple() Tuple { return s.current }
func (s *scanOperator) Err() error   { return nil }
func (s *scanOperator) Depth() int   { return 0 }
func (s *scanOperator) Shape() Shape { return ShapeStatement }

func (s *scanOperator) Close() error {
	s.cursor = index.EmptyView().Cursor()
	s.current = nil
	return nil
}

func (s *scanOperator) WriteDot(sb *strings.Builder) {
	s.writeDot(sb, fmt.Sprintf("Scan %s %s", s.pattern.Shape(), s.order))
}

// valuesOperator emits a fixed list of tuples
type valuesOperator struct {
	base
	shape  Shape
	tuples []Tuple
	pos    int
}

func (v *valuesOperator) Next() bool {
	if v.pos+1 >= len(v.tuples) {
		v.pos = len(v.tuples)
		return false
	}
	v.pos++
	return true
}

func (v *valuesOperator) Tuple() Tuple {
	if v.pos < 0 || v.pos >= len(v.tuples) {
		return nil
	}
	return v.tuples[v.pos]
}

func (v *valuesOperator) Err() error   { return nil }
func (v *valuesOperator) Depth() int   { return 0 }
func (v *valuesOperator) Shape() Shape { return v.shape }

func (v *valuesOperator) Close() error {
	v.pos = len(v.tuples)
	return nil
}

func (v *valuesOperator) WriteDot(sb *strings.Builder) {
	v.writeDot(sb, fmt.Sprintf("Values %s x%d", v.shape, len(v.tuples)))
}

// sourceOperator adopts an operator built outside the executor. It is where
// raw failures from outside enter a plan, so it wraps them once.
type sourceOperator struct {
	base
	source Operator
	err    error
	done   bool
	closed bool
}

func (s *sourceOperator) Next() bool {
	if s.closed || s.done {
		return false
	}
	if s.source.Next() {
		return true
	}
	s.done = true
	s.err = upstreamFailure(s.name(), s.source.Err())
	return false
}

func (s *sourceOperator) Tuple() Tuple {
	if s.closed || s.done {
		return nil
	}
	return s.source.Tuple()
}

func (s *sourceOperator) Err() error   { return s.err }
func (s *sourceOperator) Depth() int   { return 0 }
func (s *sourceOperator) Shape() Shape { return s.source.Shape() }

func (s *sourceOperator) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.source.Close()
}

func (s *sourceOperator) WriteDot(sb *strings.Builder) {
	s.writeDot(sb, fmt.Sprintf("Source %s", s.source.Shape()))
}
