package index

import (
	"iter"
)

// Dataset pairs an SPO and a PSO index over the same statements and routes
// each pattern to the one that can narrow it best.
type Dataset struct {
	spo *StatementIndex
	pso *StatementIndex
}

// NewDataset indexes statements under both orders. alreadySortedSPO lets a
// caller that reads statements in SPO order (e.g. a store snapshot) skip the
// first sort; the PSO index always sorts its own copy.
func NewDataset(statements []Statement, alreadySortedSPO bool) (*Dataset, error) {
	spo, err := Build(OrderSPO, statements, alreadySortedSPO)
	if err != nil {
		return nil, err
	}
	pso, err := Build(OrderPSO, statements, false)
	if err != nil {
		return nil, err
	}
	return &Dataset{spo: spo, pso: pso}, nil
}

// Index returns the dataset's index for order
func (d *Dataset) Index(order Order) *StatementIndex {
	if order == OrderPSO {
		return d.pso
	}
	return d.spo
}

// Len returns the number of statements in the dataset
func (d *Dataset) Len() int {
	return d.spo.Len()
}

// Choose returns the index a pattern is looked up in: SPO when the subject is
// bound, PSO when only the predicate is, SPO otherwise.
func (d *Dataset) Choose(p Pattern) *StatementIndex {
	if p.Subject.IsZero() && !p.Predicate.IsZero() {
		return d.pso
	}
	return d.spo
}

// Lookup returns the narrowest window the dataset's indexes give for p
func (d *Dataset) Lookup(p Pattern) RangeView {
	return d.Choose(p).Lookup(p.Subject, p.Predicate, p.Object, p.Contexts...)
}

// Statements returns exactly the statements matching p, in the order of the
// chosen index. Matches is only evaluated when the window is a superset.
func (d *Dataset) Statements(p Pattern) iter.Seq[Statement] {
	view := d.Lookup(p)
	if !view.NeedsFurtherFiltering() {
		return view.All()
	}
	return func(yield func(Statement) bool) {
		for st := range view.All() {
			if p.Matches(st) && !yield(st) {
				return
			}
		}
	}
}
