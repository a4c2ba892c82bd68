package program

import (
	"fmt"
	"sync"

	"bitbucket.org/creachadair/stringset"

	"github.com/daboross/chalk/ir"
)

// Program is the concrete, mutable-during-construction fact store.
// Once built (via the Add* methods) and validated, it is used purely
// read-only and is safe for concurrent queries — a pattern borrowed
// from the teacher's InMemoryStore, scaled down from a multi-shard
// store to the single RWMutex this corpus's single-process solver
// needs.
type Program struct {
	mu sync.RWMutex

	adts            map[ir.AdtID]AdtDatum
	traits          map[ir.TraitID]TraitDatum
	impls           map[ir.ImplID]ImplDatum
	assocTypes      map[ir.AssocTypeID]AssocTypeDatum
	assocTypeValues map[ir.AssocTypeValueID]AssocTypeValue
	opaques         map[ir.OpaqueTyID]OpaqueTyDatum
	fnDefs          map[ir.FnDefID]FnDefDatum
	closures        map[ir.ClosureID]ClosureDatum

	implsByTrait    map[ir.TraitID][]ir.ImplID
	valuesByImpl    map[ir.ImplID]map[ir.AssocTypeID]ir.AssocTypeValueID
	wellKnown       map[WellKnownTrait]ir.TraitID
	// objectSafe holds the string form of every TraitID known to be
	// object-safe, per SPEC_FULL's wiring of stringset into object-
	// safety bookkeeping rather than a bare map[ir.TraitID]bool.
	objectSafe stringset.Set
	custom     []ir.ProgramClause
}

// New returns an empty Program ready for Add* calls.
func New() *Program {
	return &Program{
		adts:            map[ir.AdtID]AdtDatum{},
		traits:          map[ir.TraitID]TraitDatum{},
		impls:           map[ir.ImplID]ImplDatum{},
		assocTypes:      map[ir.AssocTypeID]AssocTypeDatum{},
		assocTypeValues: map[ir.AssocTypeValueID]AssocTypeValue{},
		opaques:         map[ir.OpaqueTyID]OpaqueTyDatum{},
		fnDefs:          map[ir.FnDefID]FnDefDatum{},
		closures:        map[ir.ClosureID]ClosureDatum{},
		implsByTrait:    map[ir.TraitID][]ir.ImplID{},
		valuesByImpl:    map[ir.ImplID]map[ir.AssocTypeID]ir.AssocTypeValueID{},
		wellKnown:       map[WellKnownTrait]ir.TraitID{},
		objectSafe:      stringset.New(),
	}
}

func traitKey(id ir.TraitID) string { return fmt.Sprintf("trait#%d", id) }

// AddAdt registers an ADT declaration.
func (p *Program) AddAdt(d AdtDatum) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.adts[d.ID] = d
}

// AddTrait registers a trait declaration. If d.WellKnown is set, it is
// also recorded in the well-known-trait index.
func (p *Program) AddTrait(d TraitDatum) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.traits[d.ID] = d
	if d.WellKnown != WellKnownNone {
		p.wellKnown[d.WellKnown] = d.ID
	}
}

// AddImpl registers an impl block, indexing it under its trait for
// ImplsForTrait.
func (p *Program) AddImpl(d ImplDatum) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.impls[d.ID] = d
	traitID := d.Binders.Value.TraitRef.TraitID
	p.implsByTrait[traitID] = append(p.implsByTrait[traitID], d.ID)
}

// AddAssocType registers an associated-type declaration.
func (p *Program) AddAssocType(d AssocTypeDatum) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assocTypes[d.ID] = d
}

// AddAssocTypeValue registers an impl's value for an associated type.
func (p *Program) AddAssocTypeValue(v AssocTypeValue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assocTypeValues[v.ID] = v
	byAssoc, ok := p.valuesByImpl[v.ImplID]
	if !ok {
		byAssoc = map[ir.AssocTypeID]ir.AssocTypeValueID{}
		p.valuesByImpl[v.ImplID] = byAssoc
	}
	byAssoc[v.AssocTypeID] = v.ID
}

// AssocTypeValueFor looks up the value implID supplies for assocTypeID.
func (p *Program) AssocTypeValueFor(implID ir.ImplID, assocTypeID ir.AssocTypeID) (ir.AssocTypeValueID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	byAssoc, ok := p.valuesByImpl[implID]
	if !ok {
		return 0, false
	}
	id, ok := byAssoc[assocTypeID]
	return id, ok
}

// AddOpaqueTy registers an `impl Trait` declaration.
func (p *Program) AddOpaqueTy(d OpaqueTyDatum) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opaques[d.ID] = d
}

// AddFnDef registers a free function's signature.
func (p *Program) AddFnDef(d FnDefDatum) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fnDefs[d.ID] = d
}

// AddClosure registers a closure's signature and capture kind.
func (p *Program) AddClosure(d ClosureDatum) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closures[d.ID] = d
}

// MarkObjectSafe records that traitID is object-safe. This package
// does not compute object safety itself (Validate does not check it);
// the caller building the Program marks each object-safe trait.
func (p *Program) MarkObjectSafe(traitID ir.TraitID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.objectSafe = p.objectSafe.Add(traitKey(traitID))
}

// AddCustomClause registers a clause supplied directly by the embedder.
func (p *Program) AddCustomClause(c ir.ProgramClause) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.custom = append(p.custom, c)
}

func (p *Program) AdtDatum(id ir.AdtID) (AdtDatum, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.adts[id]
	return d, ok
}

func (p *Program) TraitDatum(id ir.TraitID) (TraitDatum, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.traits[id]
	return d, ok
}

func (p *Program) ImplDatum(id ir.ImplID) (ImplDatum, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.impls[id]
	return d, ok
}

func (p *Program) AssociatedTyData(id ir.AssocTypeID) (AssocTypeDatum, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.assocTypes[id]
	return d, ok
}

func (p *Program) AssociatedTyValue(id ir.AssocTypeValueID) (AssocTypeValue, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.assocTypeValues[id]
	return v, ok
}

func (p *Program) OpaqueTyData(id ir.OpaqueTyID) (OpaqueTyDatum, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.opaques[id]
	return d, ok
}

func (p *Program) FnDefDatum(id ir.FnDefID) (FnDefDatum, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.fnDefs[id]
	return d, ok
}

func (p *Program) ClosureDatum(id ir.ClosureID) (ClosureDatum, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.closures[id]
	return d, ok
}

func (p *Program) WellKnownTraitID(w WellKnownTrait) (ir.TraitID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.wellKnown[w]
	return id, ok
}

func (p *Program) IsObjectSafe(traitID ir.TraitID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.objectSafe.Contains(traitKey(traitID))
}

func (p *Program) CustomClauses() []ir.ProgramClause {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ir.ProgramClause, len(p.custom))
	copy(out, p.custom)
	return out
}

// Variances implements relate.VarianceSource by looking up the
// declared variance of the named ADT (function-item and closure types
// carry no generic parameters of their own to vary, so they report
// nil — meaning "treat as invariant", always sound).
func (p *Program) Variances(name ir.TypeName) []ir.Variance {
	if name.Kind != ir.TypeNameAdt {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.adts[name.Adt]
	if !ok {
		return nil
	}
	return d.Variances
}

func (p *Program) AdtName(id ir.AdtID) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if d, ok := p.adts[id]; ok {
		return d.Name
	}
	return fmt.Sprintf("adt#%d", id)
}

func (p *Program) TraitName(id ir.TraitID) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if d, ok := p.traits[id]; ok {
		return d.Name
	}
	return fmt.Sprintf("trait#%d", id)
}
