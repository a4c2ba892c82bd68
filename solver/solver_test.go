package solver

import (
	"testing"

	"github.com/daboross/chalk/ir"
	"github.com/daboross/chalk/program"
)

const cloneTrait ir.TraitID = 1

func adtArg(id uint32) ir.GenericArg {
	return ir.TyArg(ir.Apply{Name: ir.AdtName(id)})
}

func implementedGoal(traitID ir.TraitID, args ...ir.GenericArg) ir.Goal {
	return ir.DomainGoal(ir.WhereClause{
		Kind:        ir.WhereClauseImplemented,
		Implemented: ir.TraitRef{TraitID: traitID, Substitution: ir.Substitution(args)},
	})
}

func newHandle(t *testing.T, db program.Database) *Handle {
	t.Helper()
	h, err := With(db, Recursive{OverflowDepth: 64})
	if err != nil {
		t.Fatalf("With() = %v, want success", err)
	}
	return h
}

// Scenario 1 (spec.md §8): a trivial impl match. `impl Clone for Foo`
// plus a goal `Foo: Clone` solves uniquely.
func TestSolveTrivialImplMatch(t *testing.T) {
	p := program.New()
	p.AddTrait(program.TraitDatum{ID: cloneTrait, Name: "Clone"})
	p.AddImpl(program.ImplDatum{
		ID:       1,
		Polarity: program.PolarityPositive,
		Binders:  ir.Binders[program.ImplBound]{Value: program.ImplBound{TraitRef: ir.TraitRef{TraitID: cloneTrait, Substitution: ir.Substitution{adtArg(1)}}}},
	})

	h := newHandle(t, p)
	sol, err := h.Solve(implementedGoal(cloneTrait, adtArg(1)))
	if err != nil {
		t.Fatalf("Solve() = %v, want success", err)
	}
	if sol == nil {
		t.Fatalf("Solve() = nil, want a Unique solution")
	}
	if sol.Kind != Unique {
		t.Fatalf("Solve() kind = %v, want Unique", sol.Kind)
	}
}

// Scenario 2 (spec.md §8): no impl exists, so the goal is disproved —
// Solve returns (nil, nil), not an error.
func TestSolveNoImplDisproves(t *testing.T) {
	p := program.New()
	p.AddTrait(program.TraitDatum{ID: cloneTrait, Name: "Clone"})

	h := newHandle(t, p)
	sol, err := h.Solve(implementedGoal(cloneTrait, adtArg(1)))
	if err != nil {
		t.Fatalf("Solve() = %v, want no error", err)
	}
	if sol != nil {
		t.Fatalf("Solve() = %+v, want disproved (nil)", sol)
	}
}

// Ambiguity: when more than one impl could match the query under the
// shallow could-match filter and both check out fully, the goal is
// Ambiguous rather than picking a winner arbitrarily.
func TestSolveAmbiguousWhenMultipleImplsApply(t *testing.T) {
	p := program.New()
	p.AddTrait(program.TraitDatum{ID: cloneTrait, Name: "Clone"})
	wildcard := ir.TyArg(ir.BoundVar{Debruijn: ir.Innermost, Index: 0})
	oneTy := []ir.VariableKind{{Kind: ir.KindTy}}
	p.AddImpl(program.ImplDatum{ID: 1, Polarity: program.PolarityPositive, Binders: ir.Binders[program.ImplBound]{VarKinds: oneTy, Value: program.ImplBound{TraitRef: ir.TraitRef{TraitID: cloneTrait, Substitution: ir.Substitution{wildcard}}}}})
	p.AddImpl(program.ImplDatum{ID: 2, Polarity: program.PolarityPositive, Binders: ir.Binders[program.ImplBound]{VarKinds: oneTy, Value: program.ImplBound{TraitRef: ir.TraitRef{TraitID: cloneTrait, Substitution: ir.Substitution{wildcard}}}}})

	h := newHandle(t, p)
	sol, err := h.Solve(implementedGoal(cloneTrait, adtArg(1)))
	if err != nil {
		t.Fatalf("Solve() = %v, want success", err)
	}
	if sol == nil || sol.Kind != Ambiguous {
		t.Fatalf("Solve() = %+v, want Ambiguous", sol)
	}
}

// Scenario 5 (spec.md §8): auto-trait structural propagation. `impl
// !Send for S` disproves `S: Send` outright; `T { field: i32 }` with
// no impl at all (positive or negative) solves `T: Send` uniquely by
// structural recursion into its field types, with no explicit impl
// anywhere in the program.
func TestSolveAutoTraitStructuralPropagation(t *testing.T) {
	const sendTrait ir.TraitID = 3
	const sAdt ir.AdtID = 10
	const tAdt ir.AdtID = 11
	const i32Adt ir.AdtID = 20

	p := program.New()
	p.AddTrait(program.TraitDatum{ID: sendTrait, Name: "Send", Flags: program.TraitFlags{AutoTrait: true}})
	p.AddAdt(program.AdtDatum{ID: sAdt, Name: "S"})
	p.AddAdt(program.AdtDatum{ID: i32Adt, Name: "i32"})
	p.AddAdt(program.AdtDatum{ID: tAdt, Name: "T", Binders: ir.Binders[ir.TermList]{Value: ir.TermList{ir.Apply{Name: ir.AdtName(i32Adt)}}}})
	p.AddImpl(program.ImplDatum{
		ID:       1,
		Polarity: program.PolarityNegative,
		Binders:  ir.Binders[program.ImplBound]{Value: program.ImplBound{TraitRef: ir.TraitRef{TraitID: sendTrait, Substitution: ir.Substitution{adtArg(uint32(sAdt))}}}},
	})

	h := newHandle(t, p)

	sol, err := h.Solve(implementedGoal(sendTrait, adtArg(uint32(sAdt))))
	if err != nil {
		t.Fatalf("Solve(S: Send) = %v, want success", err)
	}
	if sol != nil {
		t.Fatalf("Solve(S: Send) = %+v, want disproved (negative impl overrides)", sol)
	}

	sol, err = h.Solve(implementedGoal(sendTrait, adtArg(uint32(tAdt))))
	if err != nil {
		t.Fatalf("Solve(T: Send) = %v, want success", err)
	}
	if sol == nil || sol.Kind != Unique {
		t.Fatalf("Solve(T: Send) = %+v, want Unique via structural propagation", sol)
	}
}

// Scenario 6 (spec.md §8): projection normalization. `<Foo as
// Container>::Item` with `impl Container for Foo { type Item = Bar; }`
// normalizes to Bar.
func TestSolveProjectionNormalization(t *testing.T) {
	const containerTrait ir.TraitID = 2
	const itemAssoc ir.AssocTypeID = 1
	fooArg := adtArg(1)
	barTy := ir.Apply{Name: ir.AdtName(2)}

	p := program.New()
	p.AddTrait(program.TraitDatum{ID: containerTrait, Name: "Container", Binders: ir.Binders[ir.WhereClauseList]{VarKinds: []ir.VariableKind{{Kind: ir.KindTy}}}, AssocTypeIDs: []ir.AssocTypeID{itemAssoc}})
	p.AddAssocType(program.AssocTypeDatum{ID: itemAssoc, TraitID: containerTrait, Name: "Item"})
	p.AddImpl(program.ImplDatum{
		ID:       1,
		Polarity: program.PolarityPositive,
		Binders:  ir.Binders[program.ImplBound]{Value: program.ImplBound{TraitRef: ir.TraitRef{TraitID: containerTrait, Substitution: ir.Substitution{fooArg}}}},
	})
	p.AddAssocTypeValue(program.AssocTypeValue{
		ID:          1,
		ImplID:      1,
		AssocTypeID: itemAssoc,
		Binders:     ir.Binders[ir.Term]{Value: barTy},
	})

	alias := ir.Alias{Kind: ir.AliasProjection, Projection: ir.ProjectionTy{AssocTypeID: itemAssoc, Substitution: ir.Substitution{fooArg}}}
	h := newHandle(t, p)
	sol, err := h.Solve(ir.AliasEqGoal(alias, barTy))
	if err != nil {
		t.Fatalf("Solve() = %v, want success", err)
	}
	if sol == nil || sol.Kind != Unique {
		t.Fatalf("Solve() = %+v, want Unique", sol)
	}
}

// Projection normalization disproves when the claimed RHS doesn't
// match what the impl actually supplies.
func TestSolveProjectionNormalizationMismatch(t *testing.T) {
	const containerTrait ir.TraitID = 2
	const itemAssoc ir.AssocTypeID = 1
	fooArg := adtArg(1)
	barTy := ir.Apply{Name: ir.AdtName(2)}
	bazTy := ir.Apply{Name: ir.AdtName(3)}

	p := program.New()
	p.AddTrait(program.TraitDatum{ID: containerTrait, Name: "Container", Binders: ir.Binders[ir.WhereClauseList]{VarKinds: []ir.VariableKind{{Kind: ir.KindTy}}}, AssocTypeIDs: []ir.AssocTypeID{itemAssoc}})
	p.AddAssocType(program.AssocTypeDatum{ID: itemAssoc, TraitID: containerTrait, Name: "Item"})
	p.AddImpl(program.ImplDatum{
		ID:       1,
		Polarity: program.PolarityPositive,
		Binders:  ir.Binders[program.ImplBound]{Value: program.ImplBound{TraitRef: ir.TraitRef{TraitID: containerTrait, Substitution: ir.Substitution{fooArg}}}},
	})
	p.AddAssocTypeValue(program.AssocTypeValue{ID: 1, ImplID: 1, AssocTypeID: itemAssoc, Binders: ir.Binders[ir.Term]{Value: barTy}})

	alias := ir.Alias{Kind: ir.AliasProjection, Projection: ir.ProjectionTy{AssocTypeID: itemAssoc, Substitution: ir.Substitution{fooArg}}}
	h := newHandle(t, p)
	sol, err := h.Solve(ir.AliasEqGoal(alias, bazTy))
	if err != nil {
		t.Fatalf("Solve() = %v, want success", err)
	}
	if sol != nil {
		t.Fatalf("Solve() = %+v, want disproved", sol)
	}
}

// A conjunction of two provable goals is Unique; one disproved goal
// disproves the whole conjunction.
func TestSolveAndConjunction(t *testing.T) {
	p := program.New()
	p.AddTrait(program.TraitDatum{ID: cloneTrait, Name: "Clone"})
	p.AddImpl(program.ImplDatum{ID: 1, Polarity: program.PolarityPositive, Binders: ir.Binders[program.ImplBound]{Value: program.ImplBound{TraitRef: ir.TraitRef{TraitID: cloneTrait, Substitution: ir.Substitution{adtArg(1)}}}}})

	h := newHandle(t, p)
	g1 := implementedGoal(cloneTrait, adtArg(1))
	g2 := implementedGoal(cloneTrait, adtArg(1))
	sol, err := h.Solve(ir.And(g1, g2))
	if err != nil {
		t.Fatalf("Solve(And) = %v, want success", err)
	}
	if sol == nil || sol.Kind != Unique {
		t.Fatalf("Solve(And) = %+v, want Unique", sol)
	}

	g3 := implementedGoal(cloneTrait, adtArg(2))
	sol, err = h.Solve(ir.And(g1, g3))
	if err != nil {
		t.Fatalf("Solve(And with one disproved) = %v, want success", err)
	}
	if sol != nil {
		t.Fatalf("Solve(And with one disproved) = %+v, want disproved", sol)
	}
}
