package relate

import (
	"go.uber.org/multierr"

	"github.com/daboross/chalk/infer"
	"github.com/daboross/chalk/ir"
	"github.com/daboross/chalk/occurs"
	"github.com/daboross/chalk/universe"
)

// bindVar implements relate_var_ty: fold t for scope safety, then
// generalize its outermost structure before committing the bind.
// Called only once checkKindCompat has already accepted t, and only
// under Invariant variance (co/contra variance defers a SubtypeGoal
// instead of binding at all).
func (u *Unifier) bindVar(v ir.VarID, t ir.Term, variance ir.Variance) error {
	// Per spec.md §4.4 step 1, the scope ceiling is the table's overall
	// max_universe, not v's own (possibly narrower) universe: the
	// original source deliberately rejected using the bound variable's
	// own universe here (chalk-solve/src/infer/unify.rs leaves the
	// rejected `universe_of_unbound_var(var)` alternative commented out
	// immediately above the `max_universe()` call it replaced it with).
	// Lifetime binds such as `forall<'a> exists<'b> { 'a = 'b }` do not
	// come through here: relateVarLifetime checks them against the
	// variable's own universe.
	scope := u.table.MaxUniverse()

	folded, err := occurs.Ty(u, v, scope, t)
	if err != nil {
		return err
	}

	generalized, err := u.generalize(folded, scope, variance)
	if err != nil {
		return err
	}

	u.table.UnifyVarValue(v, infer.Bound(ir.TyArg(generalized)))
	return nil
}

// generalize replaces t's outermost constructor's generic arguments
// with fresh inference variables in scope, relating each fresh
// variable back to the original child under the variance that child
// position propagates to. This is required for soundness: binding v
// directly to t would let v's future uses be unified against t's full
// structure even under a variance where only a supertype/subtype
// relationship was demanded, silently upgrading a covariant
// obligation into an invariant one. Relating the fresh children
// back under the correct variance keeps exactly the obligation that
// was actually asked for.
//
// Placeholder, BoundVar and InferenceVar leaves have no "outermost
// constructor" to replace — they are the whole term — and are kept
// as-is.
func (u *Unifier) generalize(t ir.Term, scope universe.Index, variance ir.Variance) (ir.Term, error) {
	switch v := t.(type) {
	case ir.Placeholder, ir.BoundVar, ir.InferenceVar:
		return t, nil

	case ir.Apply:
		sub, err := u.generalizeSubstitution(v.Name, v.Substitution, scope, variance)
		if err != nil {
			return nil, err
		}
		return ir.Apply{Name: v.Name, Substitution: sub}, nil

	case ir.Function:
		sub, err := u.generalizeSubstitution(ir.TypeName{}, v.Substitution, scope, variance)
		if err != nil {
			return nil, err
		}
		return ir.Function{NumBinders: v.NumBinders, ABI: v.ABI, Safety: v.Safety, Variadic: v.Variadic, Substitution: sub}, nil

	case ir.Dyn:
		freshLifetime := ir.LifetimeInferenceVar{Var: u.table.NewVariable(scope)}
		if err := u.relateLifetime(variance, freshLifetime, v.Lifetime); err != nil {
			return nil, err
		}
		bounds := make([]ir.QuantifiedWhereClause, len(v.Bounds))
		var errs error
		for i, b := range v.Bounds {
			gb, err := u.generalizeWhereClause(b.Value, scope, variance)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			bounds[i] = ir.QuantifiedWhereClause{VarKinds: b.VarKinds, Value: gb}
		}
		if errs != nil {
			return nil, errs
		}
		return ir.Dyn{Bounds: bounds, Lifetime: freshLifetime}, nil

	case ir.Alias:
		var sub ir.Substitution
		if v.Kind == ir.AliasProjection {
			sub = v.Projection.Substitution
		} else {
			sub = v.Opaque.Substitution
		}
		fresh, err := u.generalizeSubstitution(ir.TypeName{}, sub, scope, variance)
		if err != nil {
			return nil, err
		}
		if v.Kind == ir.AliasProjection {
			return ir.Alias{Kind: ir.AliasProjection, Projection: ir.ProjectionTy{AssocTypeID: v.Projection.AssocTypeID, Substitution: fresh}}, nil
		}
		return ir.Alias{Kind: ir.AliasOpaque, Opaque: ir.OpaqueTy{OpaqueTyID: v.Opaque.OpaqueTyID, Substitution: fresh}}, nil
	}
	panic("relate: unhandled term shape in generalize")
}

func (u *Unifier) generalizeSubstitution(name ir.TypeName, sub ir.Substitution, scope universe.Index, variance ir.Variance) (ir.Substitution, error) {
	var variances []ir.Variance
	if u.variances != nil {
		variances = u.variances.Variances(name)
	}
	out := make(ir.Substitution, len(sub))
	for i, arg := range sub {
		fv := ir.Invariant
		if i < len(variances) {
			fv = variances[i]
		}
		fresh := u.freshLike(arg, scope)
		if err := u.relateGenericArg(variance.Xform(fv), fresh, arg); err != nil {
			return nil, err
		}
		out[i] = fresh
	}
	return out, nil
}

// generalizeWhereClause generalizes one of a Dyn's bounds. A trait
// bound's whole substitution generalizes the same as an Apply's; an
// AliasEq bound only replaces its RHS with a fresh variable (the LHS
// alias names a fixed associated-type path, not a position that needs
// its own generalization).
func (u *Unifier) generalizeWhereClause(w ir.WhereClause, scope universe.Index, variance ir.Variance) (ir.WhereClause, error) {
	if w.Kind == ir.WhereClauseImplemented {
		sub, err := u.generalizeSubstitution(ir.TypeName{}, w.Implemented.Substitution, scope, variance)
		if err != nil {
			return ir.WhereClause{}, err
		}
		return ir.WhereClause{Kind: ir.WhereClauseImplemented, Implemented: ir.TraitRef{TraitID: w.Implemented.TraitID, Substitution: sub}}, nil
	}
	fresh := ir.InferenceVar{Var: u.table.NewVariable(scope), Kind: ir.TyKindGeneral}
	if err := u.relateTy(variance, fresh, w.AliasEq.Ty); err != nil {
		return ir.WhereClause{}, err
	}
	return ir.WhereClause{Kind: ir.WhereClauseAliasEq, AliasEq: ir.AliasEqClause{Alias: w.AliasEq.Alias, Ty: fresh}}, nil
}

// freshLike allocates a fresh variable of the same generic-argument
// kind as arg, in universe scope, preserving a type variable's
// Integer/Float narrowing if arg already carries it.
func (u *Unifier) freshLike(arg ir.GenericArg, scope universe.Index) ir.GenericArg {
	switch arg.Kind {
	case ir.KindTy:
		kind := ir.TyKindGeneral
		if iv, ok := arg.Ty.(ir.InferenceVar); ok {
			kind = iv.Kind
		}
		return ir.TyArg(ir.InferenceVar{Var: u.table.NewVariableOfKind(scope, kind), Kind: kind})
	case ir.KindLifetime:
		return ir.LifetimeArg(ir.LifetimeInferenceVar{Var: u.table.NewVariable(scope)})
	case ir.KindConst:
		return ir.ConstArg(ir.ConstInferenceVar{Var: u.table.NewVariable(scope), Ty: constTypeOf(arg.Const)})
	}
	panic("relate: unknown generic argument kind in freshLike")
}

// constTypeOf recovers the declared type of a const term, defaulting
// to an empty Apply if the const's own shape doesn't carry one
// (ConstBoundVar): generalization only needs a placeholder type to
// hang the fresh variable's Ty field on, since const-generic types are
// never inspected structurally by relate itself, only carried along
// for the Program layer's own const type-checking.
func constTypeOf(c ir.Const) ir.Term {
	switch v := c.(type) {
	case ir.ConstInferenceVar:
		return v.Ty
	case ir.ConcreteConst:
		return v.Ty
	case ir.ConstPlaceholder:
		return v.Ty
	default:
		return ir.Apply{}
	}
}
