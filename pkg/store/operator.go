package store

import (
	"fmt"

	"github.com/aleksaelezovic/rotrigo/pkg/index"
	"github.com/aleksaelezovic/rotrigo/pkg/plan"
)

// ScanOperator streams the statements of the store matching a pattern
// directly from storage, in SPO order. It holds a read transaction until it
// is closed. Use it as a plan.Source when a snapshot is not worth building.
type ScanOperator struct {
	txn     Transaction
	it      Iterator
	pattern index.Pattern
	current plan.Tuple
	err     error
	closed  bool
}

// Scan opens a ScanOperator. When the subject is bound, only its keys are
// read; otherwise the whole quad table is.
func (s *TripleStore) Scan(pattern index.Pattern) (*ScanOperator, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}

	var prefix []byte
	if !pattern.Subject.IsZero() {
		prefix = pattern.Subject[:]
		if !pattern.Predicate.IsZero() {
			prefix = s.encoder.EncodeQuadKey(pattern.Subject, pattern.Predicate)
		}
	}

	it, err := txn.Scan(TableSPOG, prefix)
	if err != nil {
		_ = txn.Rollback() // #nosec G104 - the scan error is the one reported
		return nil, err
	}
	return &ScanOperator{txn: txn, it: it, pattern: pattern}, nil
}

func (o *ScanOperator) Next() bool {
	if o.closed || o.err != nil {
		return false
	}
	for o.it.Next() {
		st, err := statementFromKey(o.it.Key())
		if err != nil {
			o.err = fmt.Errorf("corrupt quad key: %w", err)
			o.current = nil
			return false
		}
		if o.pattern.Matches(st) {
			o.current = plan.Tuple{st.Subject, st.Predicate, st.Object}
			return true
		}
	}
	o.current = nil
	return false
}

func (o *ScanOperator) Tuple() plan.Tuple { return o.current }
func (o *ScanOperator) Err() error        { return o.err }
func (o *ScanOperator) Depth() int        { return 0 }
func (o *ScanOperator) Shape() plan.Shape { return plan.ShapeStatement }

// Close releases the iterator and the read transaction
func (o *ScanOperator) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	o.current = nil
	if err := o.it.Close(); err != nil {
		_ = o.txn.Rollback() // #nosec G104 - the close error is the one reported
		return err
	}
	return o.txn.Rollback()
}
