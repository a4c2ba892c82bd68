package program

import "github.com/daboross/chalk/ir"

// boundArgsForKinds builds the Substitution that names each of a
// binder's own variables, in order — used to restate "Self" (and any
// other parameter) as a BoundVar reference when synthesizing a clause
// closed under that same binder.
func boundArgsForKinds(kinds []ir.VariableKind) ir.Substitution {
	args := make(ir.Substitution, len(kinds))
	for i, k := range kinds {
		switch k.Kind {
		case ir.KindTy:
			args[i] = ir.TyArg(ir.BoundVar{Debruijn: ir.Innermost, Index: i})
		case ir.KindLifetime:
			args[i] = ir.LifetimeArg(ir.LifetimeBoundVar{Debruijn: ir.Innermost, Index: i})
		case ir.KindConst:
			args[i] = ir.ConstArg(ir.ConstBoundVar{Debruijn: ir.Innermost, Index: i})
		}
	}
	return args
}

// implClause turns one impl into its program clause: the trait it
// implements holds if every where-clause it's conditioned on holds,
// closed under the impl's own generics (the impl's own Binders is
// reused directly as the clause's binder).
func implClause(d ImplDatum) ir.ProgramClause {
	conditions := make([]ir.Goal, len(d.Binders.Value.WhereClauses))
	for i, wc := range d.Binders.Value.WhereClauses {
		conditions[i] = ir.DomainGoal(wc)
	}
	kind := ir.ClauseFact
	if len(conditions) > 0 {
		kind = ir.ClauseImplication
	}
	clause := ir.Clause{
		Kind:       kind,
		Consequent: ir.WhereClause{Kind: ir.WhereClauseImplemented, Implemented: d.Binders.Value.TraitRef},
		Conditions: conditions,
	}
	return ir.Binders[ir.Clause]{VarKinds: d.Binders.VarKinds, Value: clause}
}

// supertraitClauses turns one trait's declared supertraits into
// clauses of the form "Self: Super :- Self: Trait", closed under the
// trait's own generics (Self is the binder's first variable).
func supertraitClauses(d TraitDatum) []ir.ProgramClause {
	selfTraitRef := ir.TraitRef{TraitID: d.ID, Substitution: boundArgsForKinds(d.Binders.VarKinds)}
	selfGoal := ir.DomainGoal(ir.WhereClause{Kind: ir.WhereClauseImplemented, Implemented: selfTraitRef})

	out := make([]ir.ProgramClause, 0, len(d.Binders.Value))
	for _, wc := range d.Binders.Value {
		clause := ir.Clause{
			Kind:       ir.ClauseImplication,
			Consequent: wc,
			Conditions: []ir.Goal{selfGoal},
		}
		out = append(out, ir.Binders[ir.Clause]{VarKinds: d.Binders.VarKinds, Value: clause})
	}
	return out
}

// ProgramClausesForEnv derives every clause potentially relevant to
// proving a goal in env: the embedder's custom clauses, one clause per
// positive impl, one clause per trait supertrait entailment, and env's
// own where-clauses restated as unconditional facts (so hypotheses
// introduced by a surrounding Implies are usable the same way a
// top-level fact is). Idempotent and side-effect free, per spec.
func (p *Program) ProgramClausesForEnv(env ir.Environment) []ir.ProgramClause {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ir.ProgramClause, 0, len(p.custom)+len(p.impls)+len(env.Clauses))
	out = append(out, p.custom...)

	for _, d := range p.impls {
		if d.Polarity != PolarityPositive {
			continue
		}
		out = append(out, implClause(d))
	}

	for _, d := range p.traits {
		out = append(out, supertraitClauses(d)...)
	}

	for _, wc := range env.Clauses {
		out = append(out, ir.Binders[ir.Clause]{Value: ir.Clause{Kind: ir.ClauseFact, Consequent: wc}})
	}

	return out
}
