package program

import (
	"fmt"

	log "github.com/golang/glog"
	"go.uber.org/multierr"

	"github.com/daboross/chalk/ir"
)

// LoweringError reports one malformed program fact discovered during
// Validate: an unknown identifier referenced by something else
// ("unknown-identifier") or an ill-kinded application
// ("ill-kinded-application"). Duplicate identifiers are not reported:
// an Add* call with an id already present replaces the earlier fact.
type LoweringError struct {
	Kind    string
	Message string
}

func (e *LoweringError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func unknownTrait(id ir.TraitID, referrer string) error {
	return &LoweringError{Kind: "unknown-identifier", Message: fmt.Sprintf("trait#%d referenced by %s is not declared", id, referrer)}
}

func unknownAssocType(id ir.AssocTypeID, referrer string) error {
	return &LoweringError{Kind: "unknown-identifier", Message: fmt.Sprintf("assoc-type#%d referenced by %s is not declared", id, referrer)}
}

func illKinded(referrer string, want, got int) error {
	return &LoweringError{Kind: "ill-kinded-application", Message: fmt.Sprintf("%s: expected %d generic arguments, found %d", referrer, want, got)}
}

// Validate checks referential integrity across the facts added so far:
// each impl's trait and the traits of its Implemented where-clauses
// must be declared, each impl's trait-ref substitution must match its
// trait's declared arity, each associated-type value's impl and
// associated type must be declared, and each associated type's trait
// must be declared. Trait supertrait clauses, where-clause arities and
// associated-type value binders are not checked. Independent
// failures are aggregated with multierr rather than stopping at the
// first one, the same way the teacher aggregates per-rule lowering
// errors before reporting a batch to the caller.
func (p *Program) Validate() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var errs error
	for implID, d := range p.impls {
		referrer := fmt.Sprintf("impl#%d", implID)
		traitID := d.Binders.Value.TraitRef.TraitID
		trait, ok := p.traits[traitID]
		if !ok {
			errs = multierr.Append(errs, unknownTrait(traitID, referrer))
			continue
		}
		if want, got := len(trait.Binders.VarKinds), len(d.Binders.Value.TraitRef.Substitution); want != got {
			errs = multierr.Append(errs, illKinded(referrer, want, got))
		}
		for _, wc := range d.Binders.Value.WhereClauses {
			if wc.Kind == ir.WhereClauseImplemented {
				if _, ok := p.traits[wc.Implemented.TraitID]; !ok {
					errs = multierr.Append(errs, unknownTrait(wc.Implemented.TraitID, referrer))
				}
			}
		}
	}

	for valueID, v := range p.assocTypeValues {
		referrer := fmt.Sprintf("assoc-type-value#%d", valueID)
		if _, ok := p.impls[v.ImplID]; !ok {
			errs = multierr.Append(errs, &LoweringError{Kind: "unknown-identifier", Message: fmt.Sprintf("%s references unknown impl#%d", referrer, v.ImplID)})
			continue
		}
		if _, ok := p.assocTypes[v.AssocTypeID]; !ok {
			errs = multierr.Append(errs, unknownAssocType(v.AssocTypeID, referrer))
		}
	}

	for assocID, a := range p.assocTypes {
		referrer := fmt.Sprintf("assoc-type#%d", assocID)
		if _, ok := p.traits[a.TraitID]; !ok {
			errs = multierr.Append(errs, unknownTrait(a.TraitID, referrer))
		}
	}

	if errs != nil {
		log.V(1).Infof("program: Validate found %d referential-integrity error(s)", len(multierr.Errors(errs)))
	} else {
		log.V(2).Infof("program: Validate ok (%d impls, %d assoc-types, %d assoc-type-values)", len(p.impls), len(p.assocTypes), len(p.assocTypeValues))
	}
	return errs
}
