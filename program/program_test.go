package program

import (
	"errors"
	"testing"

	"github.com/daboross/chalk/ir"
)

func traitRef(traitID ir.TraitID, args ...ir.GenericArg) ir.TraitRef {
	return ir.TraitRef{TraitID: ir.TraitID(traitID), Substitution: ir.Substitution(args)}
}

func adtArg(id uint32) ir.GenericArg {
	return ir.TyArg(ir.Apply{Name: ir.AdtName(id)})
}

// ImplsForTrait's shallow could-match filter admits an impl whose Self
// head matches the query and rejects one whose head concretely
// differs, without needing to run unification.
func TestImplsForTraitCouldMatchFilter(t *testing.T) {
	p := New()
	p.AddTrait(TraitDatum{ID: 1, Name: "Clone"})
	p.AddImpl(ImplDatum{
		ID:       10,
		Polarity: PolarityPositive,
		Binders:  ir.Binders[ImplBound]{Value: ImplBound{TraitRef: traitRef(1, adtArg(100))}},
	})
	p.AddImpl(ImplDatum{
		ID:       11,
		Polarity: PolarityPositive,
		Binders:  ir.Binders[ImplBound]{Value: ImplBound{TraitRef: traitRef(1, adtArg(200))}},
	})

	got := p.ImplsForTrait(1, ir.Substitution{adtArg(100)})
	if len(got) != 1 || got[0] != 10 {
		t.Fatalf("ImplsForTrait(head=100) = %v, want only impl#10", got)
	}
}

// A query with a non-concrete head (an inference variable) is a
// wildcard: every impl of the trait could still match.
func TestImplsForTraitWildcardQuery(t *testing.T) {
	p := New()
	p.AddTrait(TraitDatum{ID: 1, Name: "Clone"})
	p.AddImpl(ImplDatum{ID: 10, Polarity: PolarityPositive, Binders: ir.Binders[ImplBound]{Value: ImplBound{TraitRef: traitRef(1, adtArg(100))}}})
	p.AddImpl(ImplDatum{ID: 11, Polarity: PolarityPositive, Binders: ir.Binders[ImplBound]{Value: ImplBound{TraitRef: traitRef(1, adtArg(200))}}})

	query := ir.TyArg(ir.InferenceVar{Var: 1, Kind: ir.TyKindGeneral})
	got := p.ImplsForTrait(1, ir.Substitution{query})
	if len(got) != 2 {
		t.Fatalf("ImplsForTrait(wildcard query) = %v, want both impls", got)
	}
}

// LocalImplsToCoherenceCheck only returns impls marked Local.
func TestLocalImplsToCoherenceCheck(t *testing.T) {
	p := New()
	p.AddTrait(TraitDatum{ID: 1, Name: "Display"})
	p.AddImpl(ImplDatum{ID: 1, Local: true, Polarity: PolarityPositive, Binders: ir.Binders[ImplBound]{Value: ImplBound{TraitRef: traitRef(1, adtArg(1))}}})
	p.AddImpl(ImplDatum{ID: 2, Local: false, Polarity: PolarityPositive, Binders: ir.Binders[ImplBound]{Value: ImplBound{TraitRef: traitRef(1, adtArg(2))}}})

	got := p.LocalImplsToCoherenceCheck(1)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("LocalImplsToCoherenceCheck = %v, want only impl#1", got)
	}
}

// ImplProvidedFor holds for an auto trait by default, and is overridden
// by an explicit negative impl naming the ADT.
func TestImplProvidedForNegativeOverride(t *testing.T) {
	p := New()
	p.AddTrait(TraitDatum{ID: 1, Name: "Send", Flags: TraitFlags{AutoTrait: true}})

	if !p.ImplProvidedFor(1, 42) {
		t.Fatalf("expected auto trait to hold by default with no negative impl")
	}

	p.AddImpl(ImplDatum{
		ID:       5,
		Polarity: PolarityNegative,
		Binders:  ir.Binders[ImplBound]{Value: ImplBound{TraitRef: traitRef(1, adtArg(42))}},
	})

	if p.ImplProvidedFor(1, 42) {
		t.Fatalf("expected negative impl to override the auto trait for adt#42")
	}
	if !p.ImplProvidedFor(1, 43) {
		t.Fatalf("negative impl for adt#42 must not affect adt#43")
	}
}

// Validate aggregates every referential-integrity failure rather than
// stopping at the first: an impl of an unknown trait and an
// assoc-type-value referencing an unknown impl should both surface.
func TestValidateAggregatesErrors(t *testing.T) {
	p := New()
	p.AddImpl(ImplDatum{
		ID:       1,
		Polarity: PolarityPositive,
		Binders:  ir.Binders[ImplBound]{Value: ImplBound{TraitRef: traitRef(99, adtArg(1))}},
	})
	p.AddAssocTypeValue(AssocTypeValue{ID: 1, ImplID: 999, AssocTypeID: 1})

	err := p.Validate()
	if err == nil {
		t.Fatalf("Validate() = nil, want aggregated errors")
	}
	var lerr *LoweringError
	if !errors.As(err, &lerr) {
		t.Fatalf("Validate() error chain doesn't contain a *LoweringError: %v", err)
	}
	if got := len(multierrErrors(err)); got < 2 {
		t.Fatalf("Validate() aggregated %d errors, want at least 2", got)
	}
}

// Validate passes clean when every reference resolves and arities
// match.
func TestValidateClean(t *testing.T) {
	p := New()
	p.AddTrait(TraitDatum{ID: 1, Name: "Clone", Binders: ir.Binders[ir.WhereClauseList]{VarKinds: []ir.VariableKind{{Kind: ir.KindTy}}}})
	p.AddImpl(ImplDatum{
		ID:       1,
		Polarity: PolarityPositive,
		Binders:  ir.Binders[ImplBound]{Value: ImplBound{TraitRef: traitRef(1, adtArg(1))}},
	})
	p.AddAssocType(AssocTypeDatum{ID: 1, TraitID: 1, Name: "Item"})
	p.AddAssocTypeValue(AssocTypeValue{ID: 1, ImplID: 1, AssocTypeID: 1})

	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

// Validate catches an arity mismatch between a trait's declared arity
// and an impl's trait-ref substitution.
func TestValidateArityMismatch(t *testing.T) {
	p := New()
	p.AddTrait(TraitDatum{ID: 1, Name: "Clone", Binders: ir.Binders[ir.WhereClauseList]{VarKinds: []ir.VariableKind{{Kind: ir.KindTy}, {Kind: ir.KindTy}}}})
	p.AddImpl(ImplDatum{
		ID:       1,
		Polarity: PolarityPositive,
		Binders:  ir.Binders[ImplBound]{Value: ImplBound{TraitRef: traitRef(1, adtArg(1))}},
	})

	err := p.Validate()
	if err == nil {
		t.Fatalf("Validate() = nil, want an ill-kinded-application error")
	}
	var lerr *LoweringError
	if !errors.As(err, &lerr) || lerr.Kind != "ill-kinded-application" {
		t.Fatalf("Validate() = %v, want an ill-kinded-application LoweringError", err)
	}
}

func multierrErrors(err error) []error {
	type unwrapper interface{ Unwrap() []error }
	if u, ok := err.(unwrapper); ok {
		return u.Unwrap()
	}
	return []error{err}
}
