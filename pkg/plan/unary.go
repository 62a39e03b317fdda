package plan

import (
	"fmt"
	"strings"

	"github.com/aleksaelezovic/rotrigo/pkg/index"
)

// unary holds the upstream bookkeeping shared by single-input operators
type unary struct {
	base
	input  operator
	err    error
	done   bool
	closed bool
}

// pull advances the upstream, recording its failure when it stops
func (u *unary) pull() bool {
	if u.done {
		return false
	}
	if u.input.Next() {
		return true
	}
	u.done = true
	u.err = upstreamFailure(u.name(), u.input.Err())
	return false
}

func (u *unary) Err() error { return u.err }
func (u *unary) Depth() int { return u.input.Depth() + 1 }

func (u *unary) close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	u.done = true
	return u.input.Close()
}

// filterOperator keeps tuples by membership of one column in a value set
type filterOperator struct {
	unary
	column int
	in     map[index.ID]struct{}
	negate bool
}

func newFilterOperator(b base, input operator, n *Filter) *filterOperator {
	in := make(map[index.ID]struct{}, len(n.In))
	for _, id := range n.In {
		in[id] = struct{}{}
	}
	return &filterOperator{
		unary:  unary{base: b, input: input},
		column: n.Column,
		in:     in,
		negate: n.Negate,
	}
}

func (f *filterOperator) Next() bool {
	for f.pull() {
		_, found := f.in[f.input.Tuple()[f.column]]
		if found != f.negate {
			return true
		}
	}
	return false
}

func (f *filterOperator) Tuple() Tuple {
	if f.done {
		return nil
	}
	return f.input.Tuple()
}

func (f *filterOperator) Shape() Shape { return f.input.Shape() }
func (f *filterOperator) Close() error { return f.close() }

func (f *filterOperator) WriteDot(sb *strings.Builder) {
	op := "in"
	if f.negate {
		op = "not in"
	}
	f.writeDot(sb, fmt.Sprintf("Filter $%d %s %d values", f.column, op, len(f.in)), f.input)
}

// projectOperator reorders and drops columns
type projectOperator struct {
	unary
	columns []int
	current Tuple
}

func newProjectOperator(b base, input operator, columns []int) *projectOperator {
	return &projectOperator{unary: unary{base: b, input: input}, columns: columns}
}

func (p *projectOperator) Next() bool {
	if !p.pull() {
		p.current = nil
		return false
	}
	in := p.input.Tuple()
	out := make(Tuple, len(p.columns))
	for i, c := range p.columns {
		out[i] = in[c]
	}
	p.current = out
	return true
}

func (p *projectOperator) Tuple() Tuple { return p.current }
func (p *projectOperator) Shape() Shape { return ShapeFor(len(p.columns)) }
func (p *projectOperator) Close() error { return p.close() }

func (p *projectOperator) WriteDot(sb *strings.Builder) {
	p.writeDot(sb, fmt.Sprintf("Project %v", p.columns), p.input)
}

// limitOperator stops after a fixed number of tuples and closes its upstream
// as soon as the last one has been handed out.
type limitOperator struct {
	unary
	limit    int
	count    int
	current  Tuple
	closeErr error
}

func newLimitOperator(b base, input operator, limit int) *limitOperator {
	return &limitOperator{unary: unary{base: b, input: input}, limit: limit}
}

func (l *limitOperator) Next() bool {
	if l.count >= l.limit {
		l.current = nil
		if err := l.close(); err != nil {
			l.closeErr = err
		}
		return false
	}
	if !l.pull() {
		l.current = nil
		return false
	}
	l.count++
	l.current = l.input.Tuple()
	if l.count == l.limit {
		l.closeErr = l.close()
	}
	return true
}

func (l *limitOperator) Tuple() Tuple { return l.current }
func (l *limitOperator) Shape() Shape { return l.input.Shape() }

func (l *limitOperator) Close() error {
	if err := l.close(); err != nil {
		return err
	}
	err := l.closeErr
	l.closeErr = nil
	return err
}

func (l *limitOperator) WriteDot(sb *strings.Builder) {
	l.writeDot(sb, fmt.Sprintf("Limit %d", l.limit), l.input)
}

// offsetOperator skips a fixed number of tuples
type offsetOperator struct {
	unary
	offset  int
	skipped int
}

func newOffsetOperator(b base, input operator, offset int) *offsetOperator {
	return &offsetOperator{unary: unary{base: b, input: input}, offset: offset}
}

func (o *offsetOperator) Next() bool {
	for o.skipped < o.offset {
		if !o.pull() {
			return false
		}
		o.skipped++
	}
	return o.pull()
}

func (o *offsetOperator) Tuple() Tuple {
	if o.done {
		return nil
	}
	return o.input.Tuple()
}

func (o *offsetOperator) Shape() Shape { return o.input.Shape() }
func (o *offsetOperator) Close() error { return o.close() }

func (o *offsetOperator) WriteDot(sb *strings.Builder) {
	o.writeDot(sb, fmt.Sprintf("Offset %d", o.offset), o.input)
}
