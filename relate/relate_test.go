package relate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/daboross/chalk/infer"
	"github.com/daboross/chalk/ir"
	"github.com/daboross/chalk/universe"
)

func vecAdt(arg ir.Term) ir.Apply {
	return ir.Apply{Name: ir.AdtName(100), Substitution: ir.Substitution{ir.TyArg(arg)}}
}

func concreteAdt(id uint32) ir.Apply {
	return ir.Apply{Name: ir.AdtName(id)}
}

// Two structurally identical Applys relate successfully under any
// variance: there is no variance-sensitive position for a nullary
// constructor to disagree about.
func TestRelateApplySameShapeSucceeds(t *testing.T) {
	table := infer.New()
	universes := universe.NewStore()
	env := ir.Environment{}

	a, b := concreteAdt(1), concreteAdt(1)
	_, err := Relate(table, universes, nil, env, ir.Invariant, ir.TyArg(a), ir.TyArg(b))
	if err != nil {
		t.Fatalf("Relate(identical Applys) = %v, want success", err)
	}
}

// Mismatched nominal constructors can never relate, under any variance.
func TestRelateApplyMismatchedNameFails(t *testing.T) {
	table := infer.New()
	universes := universe.NewStore()
	env := ir.Environment{}

	a, b := concreteAdt(1), concreteAdt(2)
	_, err := Relate(table, universes, nil, env, ir.Invariant, ir.TyArg(a), ir.TyArg(b))
	if !errors.Is(err, ErrNoSolution) {
		t.Fatalf("Relate(mismatched Applys) = %v, want ErrNoSolution", err)
	}
}

// Relating two fresh variables invariantly unions them in the table.
func TestRelateVarVarInvariantUnifies(t *testing.T) {
	table := infer.New()
	universes := universe.NewStore()
	env := ir.Environment{}

	av := table.NewVariable(universe.Root)
	bv := table.NewVariable(universe.Root)

	_, err := Relate(table, universes, nil, env, ir.Invariant,
		ir.TyArg(ir.InferenceVar{Var: av, Kind: ir.TyKindGeneral}),
		ir.TyArg(ir.InferenceVar{Var: bv, Kind: ir.TyKindGeneral}))
	if err != nil {
		t.Fatalf("Relate(var, var) = %v, want success", err)
	}
	if table.Representative(av) != table.Representative(bv) {
		t.Fatalf("expected av and bv to share a representative after invariant relate")
	}
}

// Relating a variable with a concrete term invariantly binds it.
func TestRelateVarConcreteInvariantBinds(t *testing.T) {
	table := infer.New()
	universes := universe.NewStore()
	env := ir.Environment{}

	v := table.NewVariable(universe.Root)
	concrete := concreteAdt(1)

	_, err := Relate(table, universes, nil, env, ir.Invariant,
		ir.TyArg(ir.InferenceVar{Var: v, Kind: ir.TyKindGeneral}), ir.TyArg(concrete))
	if err != nil {
		t.Fatalf("Relate(var, concrete) = %v, want success", err)
	}
	val := table.Probe(v)
	if !val.Bound {
		t.Fatalf("expected v to be bound after invariant relate")
	}
	if !val.Arg.Ty.Equals(concrete) {
		t.Fatalf("v bound to %v, want %v", val.Arg.Ty, concrete)
	}
}

// Relating a variable with a concrete term under non-invariant variance
// defers a SubtypeGoal instead of binding outright.
func TestRelateVarConcreteCovariantDefersSubtypeGoal(t *testing.T) {
	table := infer.New()
	universes := universe.NewStore()
	env := ir.Environment{}

	v := table.NewVariable(universe.Root)
	concrete := concreteAdt(1)
	varArg := ir.TyArg(ir.InferenceVar{Var: v, Kind: ir.TyKindGeneral})

	res, err := Relate(table, universes, nil, env, ir.Covariant, varArg, ir.TyArg(concrete))
	if err != nil {
		t.Fatalf("Relate(Covariant, var, concrete) = %v, want success", err)
	}
	if val := table.Probe(v); val.Bound {
		t.Fatalf("v should remain unbound under non-invariant variance, got bound to %v", val.Arg)
	}
	if len(res.Goals) != 1 || res.Goals[0].Kind != ir.GoalSubtype {
		t.Fatalf("expected exactly one deferred GoalSubtype, got %+v", res.Goals)
	}
	if res.Goals[0].SubtypeVariance != ir.Covariant {
		t.Fatalf("deferred goal variance = %v, want Covariant", res.Goals[0].SubtypeVariance)
	}
}

// Variance symmetry (spec.md §8 invariant 5): relating (a, b) under
// variance V defers the same obligation, transposed, as relating
// (b, a) under V's inverse.
func TestRelateVarianceSymmetry(t *testing.T) {
	table := infer.New()
	universes := universe.NewStore()
	env := ir.Environment{}

	v := table.NewVariable(universe.Root)
	concrete := concreteAdt(1)
	varArg := ir.TyArg(ir.InferenceVar{Var: v, Kind: ir.TyKindGeneral})
	concreteArg := ir.TyArg(concrete)

	forward, err := Relate(table, universes, nil, env, ir.Covariant, varArg, concreteArg)
	if err != nil {
		t.Fatalf("forward Relate = %v, want success", err)
	}
	backward, err := Relate(table, universes, nil, env, ir.Contravariant, concreteArg, varArg)
	if err != nil {
		t.Fatalf("backward Relate = %v, want success", err)
	}

	fg, bg := forward.Goals[0], backward.Goals[0]
	if !fg.SubtypeA.Equals(bg.SubtypeB) || !fg.SubtypeB.Equals(bg.SubtypeA) {
		t.Fatalf("expected swapped operands: forward=%+v backward=%+v", fg, bg)
	}
	if fg.SubtypeVariance != ir.Covariant || bg.SubtypeVariance != ir.Contravariant {
		t.Fatalf("expected inverted variances: forward=%v backward=%v", fg.SubtypeVariance, bg.SubtypeVariance)
	}
}

// A failed Relate leaves the table exactly as it found it (spec.md §8
// invariant 1, extended to relate's own snapshot/rollback).
func TestRelateRollsBackOnFailure(t *testing.T) {
	table := infer.New()
	universes := universe.NewStore()
	env := ir.Environment{}

	v := table.NewVariable(universe.Root)
	table.UnifyVarValue(v, infer.Bound(ir.TyArg(concreteAdt(1))))
	before := table.Probe(v)

	_, err := Relate(table, universes, nil, env, ir.Invariant, ir.TyArg(concreteAdt(1)), ir.TyArg(concreteAdt(2)))
	if !errors.Is(err, ErrNoSolution) {
		t.Fatalf("Relate(mismatched concretes) = %v, want ErrNoSolution", err)
	}
	if got := table.Probe(v); cmp.Diff(before, got) != "" {
		t.Fatalf("table state changed after failed Relate (-want +got):\n%s", cmp.Diff(before, got))
	}
}

// Commit determinism (spec.md §8 invariant 6): replaying an identical
// Relate call from the same starting table state produces the same
// resulting binding both times.
func TestRelateCommitDeterminism(t *testing.T) {
	run := func() ir.Term {
		table := infer.New()
		universes := universe.NewStore()
		env := ir.Environment{}
		v := table.NewVariable(universe.Root)
		_, err := Relate(table, universes, nil, env, ir.Invariant,
			ir.TyArg(ir.InferenceVar{Var: v, Kind: ir.TyKindGeneral}), ir.TyArg(vecAdt(concreteAdt(1))))
		if err != nil {
			t.Fatalf("Relate = %v, want success", err)
		}
		return table.Probe(v).Arg.Ty
	}

	first, second := run(), run()
	if !first.Equals(second) {
		t.Fatalf("replayed Relate produced different bindings: %v vs %v", first, second)
	}
}

// Generalization required (spec.md §8 scenario 7): binding a variable
// to Vec<A> introduces a fresh variable for A rather than baking A's
// concrete identity into v's binding directly, but two conflicting
// equations for that fresh variable still refute exactly as the
// direct binding would: T = Vec<i32> then T = Vec<u32> must fail.
func TestGeneralizationRequiredConflict(t *testing.T) {
	table := infer.New()
	universes := universe.NewStore()
	env := ir.Environment{}

	v := table.NewVariable(universe.Root)
	varArg := ir.TyArg(ir.InferenceVar{Var: v, Kind: ir.TyKindGeneral})

	i32, u32 := concreteAdt(10), concreteAdt(20)

	_, err := Relate(table, universes, nil, env, ir.Invariant, varArg, ir.TyArg(vecAdt(i32)))
	if err != nil {
		t.Fatalf("first equation T = Vec<i32> failed: %v", err)
	}

	_, err = Relate(table, universes, nil, env, ir.Invariant, varArg, ir.TyArg(vecAdt(u32)))
	if !errors.Is(err, ErrNoSolution) {
		t.Fatalf("second equation T = Vec<u32> = %v, want ErrNoSolution (conflicts with Vec<i32>)", err)
	}
}

// Universe violation (spec.md §8 scenario 3): binding a variable to a
// term containing a placeholder from a universe above the table's
// max_universe (no variable lives there yet) must fail.
func TestUniverseViolationOnBind(t *testing.T) {
	table := infer.New()
	universes := universe.NewStore()
	env := ir.Environment{}

	narrow := table.NewVariable(universe.Root)
	wide := universes.New()
	placeholderInWide := ir.Placeholder{Index: universe.PlaceholderIndex{Universe: wide, Slot: 0}}

	_, err := Relate(table, universes, nil, env, ir.Invariant,
		ir.TyArg(ir.InferenceVar{Var: narrow, Kind: ir.TyKindGeneral}), ir.TyArg(placeholderInWide))
	if err == nil {
		t.Fatalf("Relate(narrow var, wide placeholder) succeeded, want scope violation")
	}
}

// Higher-ranked equivalence, the type-level analogue of spec.md §8
// scenario 4 (`forall<'a> exists<'b> { 'a = 'b }`): binding a type
// variable to a placeholder must succeed, the mirror image of
// TestUniverseViolationOnBind. The variable is created in the universe
// the forall already minted, so by the time the bind runs the table's
// max_universe already covers the placeholder.
func TestRelateHigherRankedEquivalenceOnBind(t *testing.T) {
	table := infer.New()
	universes := universe.NewStore()
	env := ir.Environment{}

	uni := universes.New()
	placeholderA := ir.Placeholder{Index: universe.PlaceholderIndex{Universe: uni, Slot: 0}}
	b := table.NewVariable(uni)

	_, err := Relate(table, universes, nil, env, ir.Invariant,
		ir.TyArg(ir.InferenceVar{Var: b, Kind: ir.TyKindGeneral}), ir.TyArg(placeholderA))
	if err != nil {
		t.Fatalf("Relate('b, 'a placeholder) = %v, want success ('b |-> 'a)", err)
	}
	val := table.Probe(b)
	if !val.Bound || !val.Arg.Ty.Equals(placeholderA) {
		t.Fatalf("'b bound to %v, want placeholder 'a", val.Arg.Ty)
	}
}
