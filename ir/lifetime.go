package ir

import (
	"fmt"

	"github.com/daboross/chalk/universe"
)

// Lifetime is the lifetime analogue of Term: an inference variable, a
// skolemized placeholder, or a bound variable under a binder — the
// three variants spec.md's data model enumerates. Lifetimes carry no
// region/liveness interpretation (Non-goals): they are opaque
// identity/scope tokens related only through universe visibility.
type Lifetime interface {
	isLifetime()
	String() string
	Equals(Lifetime) bool
	SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) Lifetime
}

// LifetimeInferenceVar is an unresolved lifetime variable.
type LifetimeInferenceVar struct {
	Var VarID
}

func (LifetimeInferenceVar) isLifetime() {}
func (l LifetimeInferenceVar) String() string { return "'" + l.Var.String() }
func (l LifetimeInferenceVar) Equals(o Lifetime) bool {
	ol, ok := o.(LifetimeInferenceVar)
	return ok && l.Var == ol.Var
}
func (l LifetimeInferenceVar) SubstituteArgs([]GenericArg, DebruijnIndex) Lifetime { return l }

// LifetimePlaceholder is a skolemized `forall` lifetime.
type LifetimePlaceholder struct {
	Index universe.PlaceholderIndex
}

func (LifetimePlaceholder) isLifetime() {}
func (l LifetimePlaceholder) String() string { return "'" + l.Index.String() }
func (l LifetimePlaceholder) Equals(o Lifetime) bool {
	ol, ok := o.(LifetimePlaceholder)
	return ok && l.Index.Equals(ol.Index)
}
func (l LifetimePlaceholder) SubstituteArgs([]GenericArg, DebruijnIndex) Lifetime { return l }

// LifetimeBoundVar references a lifetime bound by an enclosing Binders.
type LifetimeBoundVar struct {
	Debruijn DebruijnIndex
	Index    int
}

func (LifetimeBoundVar) isLifetime() {}
func (l LifetimeBoundVar) String() string { return fmt.Sprintf("'^%d_%d", int(l.Debruijn), l.Index) }
func (l LifetimeBoundVar) Equals(o Lifetime) bool {
	ol, ok := o.(LifetimeBoundVar)
	return ok && l.Debruijn == ol.Debruijn && l.Index == ol.Index
}
func (l LifetimeBoundVar) SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) Lifetime {
	switch {
	case l.Debruijn == cutoff:
		return args[l.Index].Lifetime
	case l.Debruijn > cutoff:
		return LifetimeBoundVar{Debruijn: l.Debruijn - 1, Index: l.Index}
	default:
		return l
	}
}
