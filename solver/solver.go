// Package solver is the Query Glue: the external-facing Database
// handle, SolverChoice selection, and the Solve/SolveMultiple
// contracts spec.md §6 describes. Per SPEC_FULL §6.2, the SLG forest
// engine (tabling, floundering, coinduction) is out of scope — this
// package defines its contract (SolverChoice.SLG) but implements only
// a thin Recursive-style reference driver, just deep enough to
// exercise relate and program end to end for single-level goals
// (trait-implemented-for-type, alias-normalizes-to, and their
// conjunctions/quantifiers). It is not a full search with memoized
// answers across calls; that belongs to the excluded forest engine,
// mirroring chalk's own chalk-solve/chalk-engine split.
//
// Text-to-program lowering is an explicit Non-goal (spec.md / §9), so
// With takes an already-built program.Database rather than program
// text — the one place this package's contract deviates from spec.md
// §6's literal `Database::with(program_text, ...)` signature, since no
// parser/lowering package exists in this implementation to produce
// that text's Program Facts in the first place.
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

// ErrOverflow is returned when a Solve call's recursion exceeds the
// chosen Recursive.OverflowDepth — the depth-bound stand-in for the
// forest engine's floundering detection.
var ErrOverflow = errors.New("solver: recursion depth exceeded")

// SolutionKind discriminates a Solution's two success shapes.
type SolutionKind int

const (
	// Unique means exactly one way was found to satisfy the goal.
	Unique SolutionKind = iota
	// Ambiguous means more than one way was found and none could be
	// preferred; Guidance describes why.
	Ambiguous
)

// ConstrainedSubst is the substitution a successful solve committed
// to the query's free variables, plus whatever residual obligations
// (lifetime outlives/eq, subtyping) were deferred rather than
// resolved — the outer caller (outside this package's scope) is
// responsible for discharging them against real liveness data.
type ConstrainedSubst struct {
	Substitution ir.Substitution
	Constraints  []ir.Goal
}

// Solution is what Solve returns on success; a nil *Solution (with a
// nil error) means the goal was disproved.
type Solution struct {
	Kind     SolutionKind
	Subst    ConstrainedSubst
	Guidance string
}

// Handle is a solver session bound to one Database and SolverChoice.
type Handle struct {
	db     program.Database
	choice Recursive
}

// With builds a Handle over db using choice. Only Recursive is
// implemented; SLG is rejected with a descriptive error.
func With(db program.Database, choice SolverChoice) (*Handle, error) {
	if db == nil {
		return nil, errors.New("solver: nil database")
	}
	switch c := choice.(type) {
	case Recursive:
		return &Handle{db: db, choice: c}, nil
	case SLG:
		return nil, errors.New("solver: SLG forest engine is not implemented (out of scope); use Recursive")
	default:
		return nil, fmt.Errorf("solver: unrecognized SolverChoice %T", choice)
	}
}

// Solve attempts to prove goal in the universal root environment,
// starting from a fresh Inference Table (per spec.md §5: one Unifier/
// Table per solve, never shared). Returns (nil, nil) if goal was
// disproved.
func (h *Handle) Solve(goal ir.Goal) (*Solution, error) {
	table := infer.New()
	universes := universe.NewStore()
	return h.solveGoal(table, universes, ir.Environment{}, goal, 0)
}

// SolveMultiple streams every distinct way of satisfying goal,
// calling cb with each; cb returning false stops the stream early.
// Returns whether the stream was exhausted (true) or stopped early by
// cb (false). This reference driver only ever has at most one
// candidate binding to stream per goal shape it understands (a
// genuinely multi-answer stream needs the excluded forest engine's
// tabling), so it calls cb at most once.
func (h *Handle) SolveMultiple(goal ir.Goal, cb func(ConstrainedSubst) bool) bool {
	sol, err := h.Solve(goal)
	if err != nil || sol == nil || sol.Kind != Unique {
		return true
	}
	return cb(sol.Subst)
}

func (h *Handle) solveGoal(table *infer.Table, universes *universe.Store, env ir.Environment, goal ir.Goal, depth int) (*Solution, error) {
	if depth > h.choice.OverflowDepth && h.choice.OverflowDepth > 0 {
		return nil, ErrOverflow
	}

	switch goal.Kind {
	case ir.GoalDomain:
		return h.solveDomain(table, universes, env, goal.Domain, depth)

	case ir.GoalAliasEq:
		return h.solveAliasEqValue(table, universes, env, goal.AliasEqAlias, goal.AliasEqTy)

	case ir.GoalSubtype:
		mark := table.Snapshot()
		res, err := relate.Relate(table, universes, h.db, env, goal.SubtypeVariance, ir.TyArg(goal.SubtypeA), ir.TyArg(goal.SubtypeB))
		if err != nil {
			table.RollbackTo(mark)
			return nil, nil
		}
		return &Solution{Kind: Unique, Subst: ConstrainedSubst{Constraints: res.Goals}}, nil

	case ir.GoalLifetimeOutlives, ir.GoalLifetimeEq:
		// Lifetimes are opaque scope tokens (Non-goal: no region model),
		// so these are always recorded as residual constraints for the
		// outer caller rather than checked here.
		return &Solution{Kind: Unique, Subst: ConstrainedSubst{Constraints: []ir.Goal{goal}}}, nil

	case ir.GoalAnd:
		left, err := h.solveGoal(table, universes, env, *goal.Left, depth+1)
		if err != nil || left == nil {
			return nil, err
		}
		right, err := h.solveGoal(table, universes, env, *goal.Right, depth+1)
		if err != nil || right == nil {
			return nil, err
		}
		return combine(left, right), nil

	case ir.GoalOr:
		left, err := h.solveGoal(table, universes, env, *goal.Left, depth+1)
		if err != nil {
			return nil, err
		}
		right, err := h.solveGoal(table, universes, env, *goal.Right, depth+1)
		if err != nil {
			return nil, err
		}
		switch {
		case left != nil && right != nil:
			return &Solution{Kind: Ambiguous, Guidance: "both disjuncts hold"}, nil
		case left != nil:
			return left, nil
		default:
			return right, nil
		}

	case ir.GoalImplies:
		return h.solveGoal(table, universes, env.Extend(goal.ImpliesClauses...), *goal.ImpliesGoal, depth+1)

	case ir.GoalForall:
		u := universes.New()
		placeholders := universe.NewPlaceholders(u)
		args := instantiateArgs(table, u, placeholders, goal.Quantified.VarKinds, true)
		inner := goal.Quantified.Instantiate(args)
		return h.solveGoal(table, universes, env, inner, depth+1)

	case ir.GoalExists:
		args := instantiateArgs(table, universes.Max(), nil, goal.Quantified.VarKinds, false)
		inner := goal.Quantified.Instantiate(args)
		return h.solveGoal(table, universes, env, inner, depth+1)
	}
	return nil, fmt.Errorf("solver: unhandled goal kind %d", goal.Kind)
}

func combine(a, b *Solution) *Solution {
	if a.Kind == Ambiguous || b.Kind == Ambiguous {
		return &Solution{Kind: Ambiguous, Guidance: "conjunction of ambiguous goals"}
	}
	constraints := make([]ir.Goal, 0, len(a.Subst.Constraints)+len(b.Subst.Constraints))
	constraints = append(constraints, a.Subst.Constraints...)
	constraints = append(constraints, b.Subst.Constraints...)
	sub := append(append(ir.Substitution{}, a.Subst.Substitution...), b.Subst.Substitution...)
	return &Solution{Kind: Unique, Subst: ConstrainedSubst{Substitution: sub, Constraints: constraints}}
}

func (h *Handle) solveDomain(table *infer.Table, universes *universe.Store, env ir.Environment, w ir.WhereClause, depth int) (*Solution, error) {
	if w.Kind == ir.WhereClauseAliasEq {
		return h.solveAliasEqValue(table, universes, env, w.AliasEq.Alias, w.AliasEq.Ty)
	}
	return h.solveImplemented(table, universes, env, w.Implemented, depth)
}
