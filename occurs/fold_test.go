package occurs

import (
	"errors"
	"testing"

	"github.com/daboross/chalk/infer"
	"github.com/daboross/chalk/ir"
	"github.com/daboross/chalk/universe"
)

// fakeEnv is the minimal occurs.Env a test needs: a table to probe
// against and a sink for deferred lifetime-equality goals.
type fakeEnv struct {
	table *infer.Table
	goals []ir.Goal
}

func (e *fakeEnv) Table() *infer.Table  { return e.table }
func (e *fakeEnv) PushGoal(g ir.Goal) { e.goals = append(e.goals, g) }

// Cycle detection (spec.md §8 invariant 4, occurs soundness): binding a
// variable to a term that still contains it must fail rather than
// produce an infinite type.
func TestTyCycleDetection(t *testing.T) {
	table := infer.New()
	env := &fakeEnv{table: table}
	target := table.NewVariable(universe.Root)

	self := ir.TyArg(ir.InferenceVar{Var: target})
	cyclic := ir.Apply{Name: ir.AdtName(1), Substitution: ir.Substitution{self}}

	_, err := Ty(env, target, universe.Root, cyclic)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("Ty(cyclic term) = %v, want ErrCycle", err)
	}
}

// Cycle detection still fires through an indirection: target is unified
// with another variable, and that variable's representative is what the
// folded term names.
func TestTyCycleDetectionThroughUnion(t *testing.T) {
	table := infer.New()
	env := &fakeEnv{table: table}
	target := table.NewVariable(universe.Root)
	other := table.NewVariable(universe.Root)
	table.UnifyVarVar(target, other)

	term := ir.InferenceVar{Var: other}
	_, err := Ty(env, target, universe.Root, term)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("Ty(unified alias of target) = %v, want ErrCycle", err)
	}
}

// Scope violation (spec.md §8 invariant 3, scope safety): a type
// placeholder from a universe the bind's scope ceiling cannot see must
// be rejected outright — there is no deferral for types, unlike
// lifetimes.
func TestTyScopeViolation(t *testing.T) {
	table := infer.New()
	env := &fakeEnv{table: table}
	target := table.NewVariable(universe.Root)

	wide := ir.Placeholder{Index: universe.PlaceholderIndex{Universe: universe.Index(5), Slot: 0}}
	_, err := Ty(env, target, universe.Index(1), wide)
	if !errors.Is(err, ErrScopeViolation) {
		t.Fatalf("Ty(out-of-scope placeholder) = %v, want ErrScopeViolation", err)
	}
}

// A placeholder visible from the scope ceiling (its universe <= scope)
// folds through untouched.
func TestTyPlaceholderInScope(t *testing.T) {
	table := infer.New()
	env := &fakeEnv{table: table}
	target := table.NewVariable(universe.Root)

	visible := ir.Placeholder{Index: universe.PlaceholderIndex{Universe: universe.Index(1), Slot: 0}}
	got, err := Ty(env, target, universe.Index(3), visible)
	if err != nil {
		t.Fatalf("Ty(in-scope placeholder) = %v, want success", err)
	}
	if !got.Equals(visible) {
		t.Fatalf("Ty(in-scope placeholder) = %v, want unchanged %v", got, visible)
	}
}

// An inference variable born in a wider universe than the bind's scope
// ceiling is promoted down to it rather than rejected.
func TestTyPromotesWideVariable(t *testing.T) {
	table := infer.New()
	env := &fakeEnv{table: table}
	target := table.NewVariable(universe.Root)
	wide := table.NewVariable(universe.Index(5))

	_, err := Ty(env, target, universe.Index(1), ir.InferenceVar{Var: wide})
	if err != nil {
		t.Fatalf("Ty(wide variable) = %v, want success (promotion, not rejection)", err)
	}
	if got := table.Probe(wide).Universe; got != universe.Index(1) {
		t.Fatalf("universe after fold = %v, want 1 (promoted)", got)
	}
}

// A lifetime placeholder that escapes scope is deferred, not rejected:
// a fresh in-scope variable is substituted and a LifetimeEq goal ties
// it back to the placeholder (lifetimes carry no soundness-relevant
// structure to fail a bind over).
func TestLifetimeScopeEscapeDefers(t *testing.T) {
	table := infer.New()
	env := &fakeEnv{table: table}
	target := table.NewVariable(universe.Root)

	wide := ir.LifetimePlaceholder{Index: universe.PlaceholderIndex{Universe: universe.Index(5), Slot: 0}}
	got, err := Lifetime(env, target, universe.Index(1), wide)
	if err != nil {
		t.Fatalf("Lifetime(out-of-scope placeholder) = %v, want deferral, not error", err)
	}
	if _, ok := got.(ir.LifetimeInferenceVar); !ok {
		t.Fatalf("Lifetime(out-of-scope placeholder) = %T, want a fresh LifetimeInferenceVar", got)
	}
	if len(env.goals) != 1 {
		t.Fatalf("expected exactly one deferred goal, got %d", len(env.goals))
	}
	if env.goals[0].Kind != ir.GoalLifetimeEq {
		t.Fatalf("deferred goal kind = %v, want GoalLifetimeEq", env.goals[0].Kind)
	}
}

// Const placeholders have no deferral path: an out-of-scope const
// placeholder is a hard scope violation, same as a type placeholder.
func TestConstScopeViolation(t *testing.T) {
	table := infer.New()
	env := &fakeEnv{table: table}
	target := table.NewVariable(universe.Root)

	wide := ir.ConstPlaceholder{Index: universe.PlaceholderIndex{Universe: universe.Index(5), Slot: 0}, Ty: ir.Apply{}}
	_, err := Const(env, target, universe.Index(1), wide)
	if !errors.Is(err, ErrScopeViolation) {
		t.Fatalf("Const(out-of-scope placeholder) = %v, want ErrScopeViolation", err)
	}
}
