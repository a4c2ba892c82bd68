package program

import "github.com/daboross/chalk/ir"

// headName returns the top-level type constructor of t, if t names one
// directly (an Apply). Anything else — a bound variable, a
// placeholder, an inference variable, an alias — is a wildcard as far
// as the shallow could-match filter below is concerned: it might
// still unify with anything once fully related.
func headName(t ir.Term) (ir.TypeName, bool) {
	if a, ok := t.(ir.Apply); ok {
		return a.Name, true
	}
	return ir.TypeName{}, false
}

// couldMatch is the shallow, unification-free head check: two
// generic arguments "could match" unless both name a concrete
// constructor and those constructors differ. It never says yes/no
// about whether a full relate would actually succeed — only whether
// it's worth trying, the same cheap pre-filter the teacher's
// seminaive evaluator uses before attempting a real join.
func couldMatch(query, candidate ir.GenericArg) bool {
	if query.Kind != ir.KindTy || candidate.Kind != ir.KindTy {
		return true
	}
	qn, qok := headName(query.Ty)
	cn, cok := headName(candidate.Ty)
	if !qok || !cok {
		return true
	}
	return qn.Equals(cn)
}

// ImplsForTrait returns every impl of traitID whose head could
// possibly match args, local and upstream alike.
func (p *Program) ImplsForTrait(traitID ir.TraitID, args ir.Substitution) []ir.ImplID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []ir.ImplID
	for _, implID := range p.implsByTrait[traitID] {
		impl := p.impls[implID]
		sub := impl.Binders.Value.TraitRef.Substitution
		if len(sub) != len(args) {
			continue
		}
		matches := true
		for i := range args {
			if !couldMatch(args[i], sub[i]) {
				matches = false
				break
			}
		}
		if matches {
			out = append(out, implID)
		}
	}
	return out
}

// LocalImplsToCoherenceCheck returns the local impls of traitID: the
// set the orphan rule requires this crate to validate for overlap,
// since upstream impls were already checked by their own crate.
func (p *Program) LocalImplsToCoherenceCheck(traitID ir.TraitID) []ir.ImplID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []ir.ImplID
	for _, implID := range p.implsByTrait[traitID] {
		if p.impls[implID].Local {
			out = append(out, implID)
		}
	}
	return out
}

// ImplProvidedFor reports whether an auto trait holds for an ADT with
// no explicit impl written: true unless a negative impl
// (`impl !AutoTrait for Adt`) explicitly overrides it. Per-field
// recursion (every field's type must itself satisfy the auto trait,
// PhantomData fields excepted per AdtFlags.PhantomData) is the solver's
// job — it drives that check as an ordinary conjunction of domain
// goals built from AdtDatum.Binders, not repeated here.
func (p *Program) ImplProvidedFor(autoTraitID ir.TraitID, adtID ir.AdtID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, implID := range p.implsByTrait[autoTraitID] {
		impl := p.impls[implID]
		if impl.Polarity != PolarityNegative {
			continue
		}
		if len(impl.Binders.Value.TraitRef.Substitution) == 0 {
			continue
		}
		self := impl.Binders.Value.TraitRef.Substitution[0]
		if self.Kind != ir.KindTy {
			continue
		}
		if n, ok := headName(self.Ty); ok && n.Kind == ir.TypeNameAdt && n.Adt == adtID {
			return false
		}
	}
	return true
}
