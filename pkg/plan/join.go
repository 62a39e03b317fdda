package plan

import (
	"errors"
	"strings"

	"github.com/aleksaelezovic/rotrigo/internal/encoding"
	"github.com/aleksaelezovic/rotrigo/pkg/index"
)

// mergeJoinOperator joins two streams that are both ascending on their first
// column. The right tuples of the current key are buffered so that every
// left tuple with that key can be paired with all of them.
type mergeJoinOperator struct {
	base
	left  operator
	right operator
	shape Shape

	leftTuple Tuple
	group     []Tuple
	groupKey  index.ID
	grouped   bool
	groupPos  int

	rightHead Tuple
	rightDone bool

	current Tuple
	err     error
	done    bool
	closed  bool
}

func newMergeJoinOperator(b base, left, right operator, shape Shape) *mergeJoinOperator {
	return &mergeJoinOperator{base: b, left: left, right: right, shape: shape}
}

func (j *mergeJoinOperator) Next() bool {
	for !j.done {
		if j.leftTuple != nil && j.groupPos < len(j.group) {
			j.current = concat(j.leftTuple, j.group[j.groupPos])
			j.groupPos++
			return true
		}

		if !j.left.Next() {
			j.finish(upstreamFailure(j.name(), j.left.Err()))
			break
		}
		l := j.left.Tuple()
		j.leftTuple = l
		j.groupPos = 0
		if j.grouped && l[0] == j.groupKey {
			continue
		}

		j.loadGroup(l[0])
		if j.err != nil {
			j.finish(j.err)
			break
		}
		if len(j.group) == 0 && j.rightDone {
			// nothing on the right can match any later left tuple
			j.finish(nil)
		}
	}
	j.current = nil
	return false
}

// loadGroup buffers the right tuples whose first column equals key, skipping
// the smaller ones.
func (j *mergeJoinOperator) loadGroup(key index.ID) {
	j.group = j.group[:0]
	j.groupKey = key
	j.grouped = true
	for {
		head, ok := j.peekRight()
		if !ok {
			return
		}
		cmp := encoding.Compare(head[0], key)
		if cmp > 0 {
			return
		}
		if cmp == 0 {
			j.group = append(j.group, head)
		}
		j.rightHead = nil
	}
}

func (j *mergeJoinOperator) peekRight() (Tuple, bool) {
	if j.rightHead == nil && !j.rightDone {
		if j.right.Next() {
			j.rightHead = j.right.Tuple()
		} else {
			j.rightDone = true
			j.err = upstreamFailure(j.name(), j.right.Err())
		}
	}
	return j.rightHead, j.rightHead != nil
}

func (j *mergeJoinOperator) finish(err error) {
	j.done = true
	j.err = err
	j.group = nil
}

func concat(left, right Tuple) Tuple {
	out := make(Tuple, 0, len(left)+len(right)-1)
	out = append(out, left...)
	return append(out, right[1:]...)
}

func (j *mergeJoinOperator) Tuple() Tuple { return j.current }
func (j *mergeJoinOperator) Err() error   { return j.err }
func (j *mergeJoinOperator) Depth() int   { return max(j.left.Depth(), j.right.Depth()) + 1 }

func (j *mergeJoinOperator) Shape() Shape { return j.shape }

func (j *mergeJoinOperator) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true
	j.done = true
	j.group = nil
	j.current = nil
	return errors.Join(j.left.Close(), j.right.Close())
}

func (j *mergeJoinOperator) WriteDot(sb *strings.Builder) {
	j.writeDot(sb, "MergeJoin $0", j.left, j.right)
}
