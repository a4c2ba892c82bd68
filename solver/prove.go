package solver

import (
	"errors"
	"fmt"

	"github.com/daboross/chalk/infer"
	"github.com/daboross/chalk/ir"
	"github.com/daboross/chalk/program"
	"github.com/daboross/chalk/relate"
	"github.com/daboross/chalk/universe"
)

// instantiateArgs builds one fresh generic argument per kind: a
// skolemized placeholder when isForall is true, a fresh inference
// variable in universe u otherwise. Shared by GoalForall/GoalExists and by
// impl/assoc-type-value instantiation (which is always existential —
// an impl's own generics are exactly what the impl is implemented
// for, to be discovered, not held fixed).
func instantiateArgs(table *infer.Table, u universe.Index, placeholders *universe.Placeholders, kinds []ir.VariableKind, isForall bool) []ir.GenericArg {
	args := make([]ir.GenericArg, len(kinds))
	for i, k := range kinds {
		switch k.Kind {
		case ir.KindTy:
			if isForall {
				args[i] = ir.TyArg(ir.Placeholder{Index: placeholders.Next()})
			} else {
				args[i] = ir.TyArg(ir.InferenceVar{Var: table.NewVariableOfKind(u, k.TyKind), Kind: k.TyKind})
			}
		case ir.KindLifetime:
			if isForall {
				args[i] = ir.LifetimeArg(ir.LifetimePlaceholder{Index: placeholders.Next()})
			} else {
				args[i] = ir.LifetimeArg(ir.LifetimeInferenceVar{Var: table.NewVariable(u)})
			}
		case ir.KindConst:
			if isForall {
				args[i] = ir.ConstArg(ir.ConstPlaceholder{Index: placeholders.Next(), Ty: ir.Apply{}})
			} else {
				args[i] = ir.ConstArg(ir.ConstInferenceVar{Var: table.NewVariable(u), Ty: ir.Apply{}})
			}
		}
	}
	return args
}

// relateSubstitution relates a and b position-wise, invariantly,
// reporting the deferred goals and whether every position succeeded.
// A single outer snapshot covers the whole sequence (relate.Relate's
// own snapshot/commit per call is harmless nesting: Commit is a
// no-op, so only the outer RollbackTo actually undoes anything).
func relateSubstitution(table *infer.Table, universes *universe.Store, variances relate.VarianceSource, env ir.Environment, a, b ir.Substitution) ([]ir.Goal, bool) {
	if len(a) != len(b) {
		return nil, false
	}
	var goals []ir.Goal
	for i := range a {
		res, err := relate.Relate(table, universes, variances, env, ir.Invariant, a[i], b[i])
		if err != nil {
			return nil, false
		}
		goals = append(goals, res.Goals...)
	}
	return goals, true
}

func domainGoalsFor(wcs []ir.WhereClause) []ir.Goal {
	goals := make([]ir.Goal, len(wcs))
	for i, wc := range wcs {
		goals[i] = ir.DomainGoal(wc)
	}
	return goals
}

// proveAll proves every goal in sequence within the same table state,
// combining their constraints. Disproves as soon as one goal does.
func (h *Handle) proveAll(table *infer.Table, universes *universe.Store, env ir.Environment, goals []ir.Goal, depth int) (*Solution, error) {
	result := &Solution{Kind: Unique}
	for _, g := range goals {
		s, err := h.solveGoal(table, universes, env, g, depth)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, nil
		}
		result = combine(result, s)
	}
	return result, nil
}

// solveImplemented tries every impl whose head could match tr (see
// program.couldMatch), keeping only positive impls whose trait-ref
// and whose where-clause conditions both check out. Exactly one
// success is Unique (or Ambiguous if the winner's conditions are);
// more than one is Ambiguous; none falls back to solveAutoTrait, which
// disproves the goal unless the auto-trait rule applies.
func (h *Handle) solveImplemented(table *infer.Table, universes *universe.Store, env ir.Environment, tr ir.TraitRef, depth int) (*Solution, error) {
	candidates := h.db.ImplsForTrait(tr.TraitID, tr.Substitution)

	var winners []ir.ImplID
	for _, implID := range candidates {
		impl, ok := h.db.ImplDatum(implID)
		if !ok || impl.Polarity != program.PolarityPositive {
			continue
		}
		mark := table.Snapshot()
		ok2, err := h.tryImpl(table, universes, env, tr, impl, depth)
		table.RollbackTo(mark)
		if err != nil {
			return nil, err
		}
		if ok2 {
			winners = append(winners, implID)
		}
	}

	switch len(winners) {
	case 0:
		return h.solveAutoTrait(table, universes, env, tr, depth)
	case 1:
		impl, _ := h.db.ImplDatum(winners[0])
		args := instantiateArgs(table, universes.Max(), nil, impl.Binders.VarKinds, false)
		bound := impl.Binders.Instantiate(args)
		goals, ok := relateSubstitution(table, universes, h.db, env, tr.Substitution, bound.TraitRef.Substitution)
		if !ok {
			return nil, errors.New("solver: winning candidate failed on replay")
		}
		cond, err := h.proveAll(table, universes, env, domainGoalsFor(bound.WhereClauses), depth+1)
		if err != nil {
			return nil, err
		}
		if cond == nil {
			return nil, errors.New("solver: winning candidate's conditions failed on replay")
		}
		if cond.Kind == Ambiguous {
			return &Solution{Kind: Ambiguous, Guidance: cond.Guidance}, nil
		}
		allGoals := append(goals, cond.Subst.Constraints...)
		return &Solution{Kind: Unique, Subst: ConstrainedSubst{Substitution: ir.Substitution(args), Constraints: allGoals}}, nil
	default:
		return &Solution{Kind: Ambiguous, Guidance: fmt.Sprintf("%d impls of %s could match", len(winners), tr)}, nil
	}
}

func (h *Handle) tryImpl(table *infer.Table, universes *universe.Store, env ir.Environment, tr ir.TraitRef, impl program.ImplDatum, depth int) (bool, error) {
	args := instantiateArgs(table, universes.Max(), nil, impl.Binders.VarKinds, false)
	bound := impl.Binders.Instantiate(args)
	goals, ok := relateSubstitution(table, universes, h.db, env, tr.Substitution, bound.TraitRef.Substitution)
	_ = goals
	if !ok {
		return false, nil
	}
	// An ambiguous nested condition is treated as "this candidate could
	// work" for the purposes of counting winners, same as Unique — the
	// ambiguity itself only surfaces in solveImplemented if this
	// candidate turns out to be the sole winner, whose replayed
	// conditions then make the whole answer Ambiguous.
	cond, err := h.proveAll(table, universes, env, domainGoalsFor(bound.WhereClauses), depth+1)
	if err != nil {
		return false, err
	}
	return cond != nil, nil
}

// solveAutoTrait is the structural fallback for an auto trait
// (`TraitFlags.AutoTrait`) once ordinary impl search has found no
// explicit candidate: per program.Database.ImplProvidedFor, a negative
// impl naming the ADT disproves the goal; otherwise it holds iff every
// one of the ADT's own field types does, checked by recursing into them
// as an ordinary conjunction of domain goals (mirrors chalk's auto-trait leaf-type
// recursion, driven here from AdtDatum.Binders rather than repeated
// inside the database, per program/coherence.go's own doc comment on
// ImplProvidedFor). Only applies when tr's Self position names a
// concrete ADT; anything else (a variable, a placeholder, any other
// term shape) is left to ordinary search to disprove.
func (h *Handle) solveAutoTrait(table *infer.Table, universes *universe.Store, env ir.Environment, tr ir.TraitRef, depth int) (*Solution, error) {
	traitDatum, ok := h.db.TraitDatum(tr.TraitID)
	if !ok || !traitDatum.Flags.AutoTrait {
		return nil, nil
	}
	if len(tr.Substitution) == 0 || tr.Substitution[0].Kind != ir.KindTy {
		return nil, nil
	}
	apply, ok := tr.Substitution[0].Ty.(ir.Apply)
	if !ok || apply.Name.Kind != ir.TypeNameAdt {
		return nil, nil
	}
	if !h.db.ImplProvidedFor(tr.TraitID, apply.Name.Adt) {
		return nil, nil
	}
	adtDatum, ok := h.db.AdtDatum(apply.Name.Adt)
	if !ok {
		return nil, nil
	}
	if adtDatum.Flags.PhantomData {
		return &Solution{Kind: Unique}, nil
	}

	fields := adtDatum.Binders.Instantiate(apply.Substitution)
	fieldGoals := make([]ir.Goal, len(fields))
	for i, field := range fields {
		fieldGoals[i] = ir.DomainGoal(ir.WhereClause{
			Kind:        ir.WhereClauseImplemented,
			Implemented: ir.TraitRef{TraitID: tr.TraitID, Substitution: ir.Substitution{ir.TyArg(field)}},
		})
	}
	return h.proveAll(table, universes, env, fieldGoals, depth+1)
}

// solveAliasEqValue proves that alias normalizes to ty: for a
// projection, by finding the implementing impl's supplied value and
// relating it to ty; for an opaque type, by relating its declared
// hidden type the same way.
func (h *Handle) solveAliasEqValue(table *infer.Table, universes *universe.Store, env ir.Environment, alias ir.Alias, ty ir.Term) (*Solution, error) {
	if alias.Kind == ir.AliasOpaque {
		return h.solveOpaqueEq(table, universes, env, alias.Opaque, ty)
	}
	return h.solveProjectionEq(table, universes, env, alias.Projection, ty)
}

func (h *Handle) solveOpaqueEq(table *infer.Table, universes *universe.Store, env ir.Environment, opaque ir.OpaqueTy, ty ir.Term) (*Solution, error) {
	data, ok := h.db.OpaqueTyData(opaque.OpaqueTyID)
	if !ok {
		return nil, nil
	}
	mark := table.Snapshot()
	args := instantiateArgs(table, universes.Max(), nil, data.Binders.VarKinds, false)
	bound := data.Binders.Instantiate(args)
	goals, ok := relateSubstitution(table, universes, h.db, env, opaque.Substitution, ir.Substitution(args))
	if !ok {
		table.RollbackTo(mark)
		return nil, nil
	}
	res, err := relate.Relate(table, universes, h.db, env, ir.Invariant, ir.TyArg(bound.Hidden), ir.TyArg(ty))
	if err != nil {
		table.RollbackTo(mark)
		return nil, nil
	}
	allGoals := append(goals, res.Goals...)
	return &Solution{Kind: Unique, Subst: ConstrainedSubst{Constraints: allGoals}}, nil
}

func (h *Handle) solveProjectionEq(table *infer.Table, universes *universe.Store, env ir.Environment, proj ir.ProjectionTy, ty ir.Term) (*Solution, error) {
	assocData, ok := h.db.AssociatedTyData(proj.AssocTypeID)
	if !ok {
		return nil, nil
	}
	traitDatum, ok := h.db.TraitDatum(assocData.TraitID)
	if !ok {
		return nil, nil
	}
	traitArity := len(traitDatum.Binders.VarKinds)
	if traitArity > len(proj.Substitution) {
		return nil, fmt.Errorf("solver: projection substitution shorter than trait arity for assoc-type#%d", proj.AssocTypeID)
	}
	traitArgs := proj.Substitution[:traitArity]

	candidates := h.db.ImplsForTrait(assocData.TraitID, traitArgs)
	var winners []ir.ImplID
	for _, implID := range candidates {
		mark := table.Snapshot()
		ok2, err := h.tryProjectionImpl(table, universes, env, traitArgs, proj, implID, ty)
		table.RollbackTo(mark)
		if err != nil {
			return nil, err
		}
		if ok2 {
			winners = append(winners, implID)
		}
	}

	switch len(winners) {
	case 0:
		return nil, nil
	case 1:
		allGoals, ok := h.replayProjectionImpl(table, universes, env, traitArgs, proj, winners[0], ty)
		if !ok {
			return nil, errors.New("solver: winning projection candidate failed on replay")
		}
		return &Solution{Kind: Unique, Subst: ConstrainedSubst{Constraints: allGoals}}, nil
	default:
		return &Solution{Kind: Ambiguous, Guidance: fmt.Sprintf("%d impls supply assoc-type#%d", len(winners), proj.AssocTypeID)}, nil
	}
}

func (h *Handle) tryProjectionImpl(table *infer.Table, universes *universe.Store, env ir.Environment, traitArgs ir.Substitution, proj ir.ProjectionTy, implID ir.ImplID, ty ir.Term) (bool, error) {
	goals, ok := h.replayProjectionImpl(table, universes, env, traitArgs, proj, implID, ty)
	_ = goals
	return ok, nil
}

// replayProjectionImpl performs the same deterministic sequence of
// fresh-variable instantiation and relation every time it's called
// from an identical table mark, so it doubles as both the trial
// attempt and (on the sole winner) the final replay that leaves its
// bindings applied.
func (h *Handle) replayProjectionImpl(table *infer.Table, universes *universe.Store, env ir.Environment, traitArgs ir.Substitution, proj ir.ProjectionTy, implID ir.ImplID, ty ir.Term) ([]ir.Goal, bool) {
	valueID, ok := h.db.AssocTypeValueFor(implID, proj.AssocTypeID)
	if !ok {
		return nil, false
	}
	value, ok := h.db.AssociatedTyValue(valueID)
	if !ok {
		return nil, false
	}
	impl, ok := h.db.ImplDatum(implID)
	if !ok {
		return nil, false
	}

	implArgs := instantiateArgs(table, universes.Max(), nil, impl.Binders.VarKinds, false)
	bound := impl.Binders.Instantiate(implArgs)
	goals, ok := relateSubstitution(table, universes, h.db, env, traitArgs, bound.TraitRef.Substitution)
	if !ok {
		return nil, false
	}

	if len(value.Binders.VarKinds) < len(implArgs) {
		return nil, false
	}
	ownKinds := value.Binders.VarKinds[len(implArgs):]
	ownArgs := instantiateArgs(table, universes.Max(), nil, ownKinds, false)
	valueArgs := append(append([]ir.GenericArg{}, implArgs...), ownArgs...)
	concreteTy := value.Binders.Instantiate(valueArgs)

	res, err := relate.Relate(table, universes, h.db, env, ir.Invariant, ir.TyArg(concreteTy), ir.TyArg(ty))
	if err != nil {
		return nil, false
	}
	return append(goals, res.Goals...), true
}
