package index

import (
	"slices"
)

// Pattern is a statement pattern. A zero component matches anything; an empty
// Contexts list matches statements in any context, otherwise a statement
// matches when its context is one of the listed ones (Any stands for "no
// context").
type Pattern struct {
	Subject   ID
	Predicate ID
	Object    ID
	Contexts  []ID
}

// Matches reports whether st satisfies every bound part of the pattern
func (p Pattern) Matches(st Statement) bool {
	if !p.Subject.IsZero() && p.Subject != st.Subject {
		return false
	}
	if !p.Predicate.IsZero() && p.Predicate != st.Predicate {
		return false
	}
	if !p.Object.IsZero() && p.Object != st.Object {
		return false
	}
	return len(p.Contexts) == 0 || slices.Contains(p.Contexts, st.Context)
}

// Shape describes which components are bound, e.g. "s?o" or "???" followed by
// "g" when contexts are constrained. It is used for logs and explain output.
func (p Pattern) Shape() string {
	shape := []byte("???")
	if !p.Subject.IsZero() {
		shape[0] = 's'
	}
	if !p.Predicate.IsZero() {
		shape[1] = 'p'
	}
	if !p.Object.IsZero() {
		shape[2] = 'o'
	}
	if len(p.Contexts) > 0 {
		shape = append(shape, 'g')
	}
	return string(shape)
}

func (p Pattern) String() string {
	term := func(id ID) string {
		if id.IsZero() {
			return "?"
		}
		return id.String()
	}
	s := "(" + term(p.Subject) + " " + term(p.Predicate) + " " + term(p.Object)
	for _, c := range p.Contexts {
		s += " " + term(c)
	}
	return s + ")"
}
