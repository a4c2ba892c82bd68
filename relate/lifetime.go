package relate

import (
	"github.com/daboross/chalk/infer"
	"github.com/daboross/chalk/ir"
	"github.com/daboross/chalk/universe"
)

func boundLifetime(l ir.Lifetime) infer.Value {
	return infer.Bound(ir.LifetimeArg(l))
}

// relateLifetime implements relate_lifetime_lifetime.
func (u *Unifier) relateLifetime(variance ir.Variance, a, b ir.Lifetime) error {
	if n, ok := u.table.NormalizeShallowLifetime(a); ok {
		a = n
	}
	if n, ok := u.table.NormalizeShallowLifetime(b); ok {
		b = n
	}
	if _, ok := a.(ir.LifetimeBoundVar); ok {
		panic("relate: bound lifetime at the free level (programmer error in a collaborator)")
	}
	if _, ok := b.(ir.LifetimeBoundVar); ok {
		panic("relate: bound lifetime at the free level (programmer error in a collaborator)")
	}

	av, aIsVar := a.(ir.LifetimeInferenceVar)
	bv, bIsVar := b.(ir.LifetimeInferenceVar)

	switch {
	case aIsVar && bIsVar:
		if u.table.Representative(av.Var) != u.table.Representative(bv.Var) {
			u.table.UnifyVarVar(av.Var, bv.Var)
		}
		return nil
	case aIsVar:
		return u.relateVarLifetime(variance, av, b, a, b)
	case bIsVar:
		return u.relateVarLifetime(variance, bv, a, a, b)
	}

	ap, aIsPlaceholder := a.(ir.LifetimePlaceholder)
	bp, bIsPlaceholder := b.(ir.LifetimePlaceholder)
	if !aIsPlaceholder || !bIsPlaceholder {
		panic("relate: unhandled lifetime shape")
	}
	if ap.Equals(bp) {
		return nil
	}
	u.pushLifetimeEqGoals(variance, a, b)
	return nil
}

// relateVarLifetime relates an unbound lifetime variable against a
// placeholder: if the variable's universe can already see the
// placeholder, bind directly; otherwise defer outlives goals rather
// than failing (lifetimes are opaque scope tokens, never occurs- or
// generalization-checked the way types are). origA/origB are the
// literal, un-swapped pair relateLifetime was called with — passed
// through untouched regardless of which of them turned out to be the
// variable, exactly as unify.rs's unify_lifetime_var threads its own
// a/b parameters into push_lifetime_eq_goals rather than the (var,
// value) pair, so the deferred goal's direction still reflects which
// side the caller meant as sub/super under Co/Contravariant.
func (u *Unifier) relateVarLifetime(variance ir.Variance, v ir.LifetimeInferenceVar, other, origA, origB ir.Lifetime) error {
	p, ok := other.(ir.LifetimePlaceholder)
	if !ok {
		panic("relate: unhandled lifetime shape")
	}
	val := u.table.Probe(v.Var)
	if !val.Bound && universe.CanSee(val.Universe, p.Index.Universe) {
		u.table.UnifyVarValue(v.Var, boundLifetime(p))
		return nil
	}
	u.pushLifetimeEqGoals(variance, origA, origB)
	return nil
}

// pushLifetimeEqGoals defers a lifetime relation as residual Outlives
// constraints, one direction per variance that demands it: Covariant
// only needs a to outlive b, Contravariant only needs b to outlive a,
// Invariant needs both (chalk-solve's push_lifetime_eq_goals).
func (u *Unifier) pushLifetimeEqGoals(variance ir.Variance, a, b ir.Lifetime) {
	if variance == ir.Invariant || variance == ir.Covariant {
		u.PushGoal(ir.LifetimeOutlivesGoal(a, b))
	}
	if variance == ir.Invariant || variance == ir.Contravariant {
		u.PushGoal(ir.LifetimeOutlivesGoal(b, a))
	}
}
