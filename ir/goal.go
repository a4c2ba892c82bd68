package ir

import (
	"fmt"
	"strings"
)

// TraitRef names a trait applied to its type (and const/lifetime)
// parameters, Self included as Substitution[0]: `T: Trait<Args...>`.
type TraitRef struct {
	TraitID      TraitID
	Substitution Substitution
}

// Equals compares two trait references structurally.
func (t TraitRef) Equals(o TraitRef) bool {
	return t.TraitID == o.TraitID && t.Substitution.Equals(o.Substitution)
}

func (t TraitRef) String() string {
	if len(t.Substitution) == 0 {
		return fmt.Sprintf("trait#%d", t.TraitID)
	}
	return fmt.Sprintf("trait#%d<%s>", t.TraitID, t.Substitution)
}

// SubstituteArgs substitutes through the trait reference's arguments.
func (t TraitRef) SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) TraitRef {
	return TraitRef{TraitID: t.TraitID, Substitution: t.Substitution.SubstituteArgs(args, cutoff)}
}

// AliasEqClause is the content of a WhereClause's AliasEq variant: an
// alias normalizes to a concrete type.
type AliasEqClause struct {
	Alias Alias
	Ty    Term
}

func (a AliasEqClause) equals(o AliasEqClause) bool {
	return a.Alias.Equals(o.Alias) && a.Ty.Equals(o.Ty)
}

func (a AliasEqClause) String() string { return fmt.Sprintf("%s = %s", a.Alias, a.Ty) }

func (a AliasEqClause) substituteArgs(args []GenericArg, cutoff DebruijnIndex) AliasEqClause {
	return AliasEqClause{
		Alias: a.Alias.SubstituteArgs(args, cutoff).(Alias),
		Ty:    a.Ty.SubstituteArgs(args, cutoff),
	}
}

// WhereClauseKind discriminates the two forms of an unconditional
// trait obligation.
type WhereClauseKind int

const (
	// WhereClauseImplemented marks `T: Trait`.
	WhereClauseImplemented WhereClauseKind = iota
	// WhereClauseAliasEq marks `<T as Trait>::Assoc = U`.
	WhereClauseAliasEq
)

// WhereClause is one conjunct of an impl's or trait's where-clauses:
// either a trait bound or an associated-type equality.
type WhereClause struct {
	Kind        WhereClauseKind
	Implemented TraitRef
	AliasEq     AliasEqClause
}

// Equals reports structural equality between two where-clauses of the
// same kind.
func (w WhereClause) Equals(o WhereClause) bool {
	if w.Kind != o.Kind {
		return false
	}
	if w.Kind == WhereClauseImplemented {
		return w.Implemented.Equals(o.Implemented)
	}
	return w.AliasEq.equals(o.AliasEq)
}

func (w WhereClause) String() string {
	if w.Kind == WhereClauseImplemented {
		return w.Implemented.String()
	}
	return w.AliasEq.String()
}

// SubstituteArgs lets WhereClause serve as a Binders body (see
// QuantifiedWhereClause).
func (w WhereClause) SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) WhereClause {
	if w.Kind == WhereClauseImplemented {
		return WhereClause{Kind: WhereClauseImplemented, Implemented: w.Implemented.SubstituteArgs(args, cutoff)}
	}
	return WhereClause{Kind: WhereClauseAliasEq, AliasEq: w.AliasEq.substituteArgs(args, cutoff)}
}

// WhereClauseList is a fixed sequence of where-clauses that needs to
// serve as a Binders body in its own right — a trait's supertraits, or
// an associated type's declared bounds, closed over the declaring
// item's own generics (see program.TraitDatum, program.AssocTypeDatum).
type WhereClauseList []WhereClause

// SubstituteArgs substitutes through every where-clause in the list.
func (l WhereClauseList) SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) WhereClauseList {
	out := make(WhereClauseList, len(l))
	for i, w := range l {
		out[i] = w.SubstituteArgs(args, cutoff)
	}
	return out
}

// Environment is the set of where-clauses in scope at a goal: the
// caller's bounds, plus anything added by Implies while descending
// into a nested goal.
type Environment struct {
	Clauses []WhereClause
}

// Extend returns a new Environment with additional clauses in scope.
func (e Environment) Extend(clauses ...WhereClause) Environment {
	out := make([]WhereClause, 0, len(e.Clauses)+len(clauses))
	out = append(out, e.Clauses...)
	out = append(out, clauses...)
	return Environment{Clauses: out}
}

// ClauseKind discriminates a ProgramClause's shape.
type ClauseKind int

const (
	// ClauseFact is an unconditional where-clause: `T: Trait.` with no body.
	ClauseFact ClauseKind = iota
	// ClauseImplication is `consequent :- condition1, condition2, ...`.
	ClauseImplication
)

// Clause is one program clause, universally quantified over whatever
// variables its consequent and conditions refer to by bound index
// (mirrors an impl's own generics).
type Clause struct {
	Kind       ClauseKind
	Consequent WhereClause
	Conditions []Goal
}

func (c Clause) String() string {
	if c.Kind == ClauseFact || len(c.Conditions) == 0 {
		return c.Consequent.String() + "."
	}
	parts := make([]string, len(c.Conditions))
	for i, g := range c.Conditions {
		parts[i] = g.String()
	}
	return fmt.Sprintf("%s :- %s.", c.Consequent, strings.Join(parts, ", "))
}

// SubstituteArgs lets Clause serve as a Binders body (a ProgramClause
// is a Binders[Clause]).
func (c Clause) SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) Clause {
	conds := make([]Goal, len(c.Conditions))
	for i, g := range c.Conditions {
		conds[i] = g.SubstituteArgs(args, cutoff)
	}
	return Clause{Kind: c.Kind, Consequent: c.Consequent.SubstituteArgs(args, cutoff), Conditions: conds}
}

// ProgramClause is a Clause closed under its own generics: the
// universally quantified form stored in the program facts database.
type ProgramClause = Binders[Clause]

// GoalKind discriminates the variant of a Goal.
type GoalKind int

const (
	// GoalDomain wraps a WhereClause as a leaf goal: "prove this holds".
	GoalDomain GoalKind = iota
	// GoalAliasEq is a deferred alias-normalizes-to-type obligation,
	// produced by relate when an Alias can't be resolved in place.
	GoalAliasEq
	// GoalSubtype is a deferred `a <: b` obligation, produced by relate
	// under covariance/contravariance instead of failing outright.
	GoalSubtype
	// GoalLifetimeOutlives is `'a: 'b`.
	GoalLifetimeOutlives
	// GoalLifetimeEq is `'a == 'b`, produced by the occurs fold when a
	// lifetime placeholder lies outside the scope of the variable being
	// bound: a fresh lifetime variable takes its place and this goal
	// relates the two.
	GoalLifetimeEq
	// GoalAnd is the conjunction of two goals.
	GoalAnd
	// GoalOr is the disjunction of two goals.
	GoalOr
	// GoalImplies is "if these clauses held, would the inner goal hold".
	GoalImplies
	// GoalForall is a universally quantified goal (checked by
	// instantiating its binder with fresh placeholders).
	GoalForall
	// GoalExists is an existentially quantified goal (checked by
	// instantiating its binder with fresh inference variables).
	GoalExists
)

// Goal is the solver's uniform obligation type: both what a caller
// asks the solver to prove, and what relate defers instead of failing
// outright under a permissive variance.
type Goal struct {
	Kind GoalKind

	Domain WhereClause

	AliasEqAlias Alias
	AliasEqTy    Term

	SubtypeA        Term
	SubtypeB        Term
	SubtypeVariance Variance

	LifetimeA Lifetime
	LifetimeB Lifetime

	Left  *Goal
	Right *Goal

	ImpliesClauses []WhereClause
	ImpliesGoal    *Goal

	Quantified *Binders[Goal]
}

// DomainGoal builds a leaf goal from a where-clause.
func DomainGoal(w WhereClause) Goal { return Goal{Kind: GoalDomain, Domain: w} }

// AliasEqGoal builds a deferred alias-normalization obligation.
func AliasEqGoal(a Alias, ty Term) Goal {
	return Goal{Kind: GoalAliasEq, AliasEqAlias: a, AliasEqTy: ty}
}

// SubtypeGoal builds a deferred `a <: b` obligation under the given variance.
func SubtypeGoal(a, b Term, v Variance) Goal {
	return Goal{Kind: GoalSubtype, SubtypeA: a, SubtypeB: b, SubtypeVariance: v}
}

// LifetimeOutlivesGoal builds a deferred `'a: 'b` obligation.
func LifetimeOutlivesGoal(a, b Lifetime) Goal {
	return Goal{Kind: GoalLifetimeOutlives, LifetimeA: a, LifetimeB: b}
}

// LifetimeEqGoal builds a deferred `'a == 'b` obligation.
func LifetimeEqGoal(a, b Lifetime) Goal {
	return Goal{Kind: GoalLifetimeEq, LifetimeA: a, LifetimeB: b}
}

// And builds the conjunction of two goals.
func And(a, b Goal) Goal { return Goal{Kind: GoalAnd, Left: &a, Right: &b} }

// Or builds the disjunction of two goals.
func Or(a, b Goal) Goal { return Goal{Kind: GoalOr, Left: &a, Right: &b} }

// Implies builds "assuming these clauses, does goal hold".
func Implies(clauses []WhereClause, goal Goal) Goal {
	return Goal{Kind: GoalImplies, ImpliesClauses: clauses, ImpliesGoal: &goal}
}

func (g Goal) String() string {
	switch g.Kind {
	case GoalDomain:
		return g.Domain.String()
	case GoalAliasEq:
		return fmt.Sprintf("%s = %s", g.AliasEqAlias, g.AliasEqTy)
	case GoalSubtype:
		return fmt.Sprintf("%s <:(%s) %s", g.SubtypeA, g.SubtypeVariance, g.SubtypeB)
	case GoalLifetimeOutlives:
		return fmt.Sprintf("%s: %s", g.LifetimeA, g.LifetimeB)
	case GoalLifetimeEq:
		return fmt.Sprintf("%s == %s", g.LifetimeA, g.LifetimeB)
	case GoalAnd:
		return fmt.Sprintf("(%s && %s)", g.Left, g.Right)
	case GoalOr:
		return fmt.Sprintf("(%s || %s)", g.Left, g.Right)
	case GoalImplies:
		parts := make([]string, len(g.ImpliesClauses))
		for i, c := range g.ImpliesClauses {
			parts[i] = c.String()
		}
		return fmt.Sprintf("if (%s) { %s }", strings.Join(parts, ", "), g.ImpliesGoal)
	case GoalForall:
		return fmt.Sprintf("forall<%d> { %s }", len(g.Quantified.VarKinds), g.Quantified.Value)
	case GoalExists:
		return fmt.Sprintf("exists<%d> { %s }", len(g.Quantified.VarKinds), g.Quantified.Value)
	}
	return "?goal"
}

// SubstituteArgs lets Goal serve as a Binders body (forall/exists
// quantified goals) and is used generally whenever a goal containing
// bound variables needs to be specialized.
func (g Goal) SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) Goal {
	switch g.Kind {
	case GoalDomain:
		return DomainGoal(g.Domain.SubstituteArgs(args, cutoff))
	case GoalAliasEq:
		return AliasEqGoal(g.AliasEqAlias.SubstituteArgs(args, cutoff).(Alias), g.AliasEqTy.SubstituteArgs(args, cutoff))
	case GoalSubtype:
		return SubtypeGoal(g.SubtypeA.SubstituteArgs(args, cutoff), g.SubtypeB.SubstituteArgs(args, cutoff), g.SubtypeVariance)
	case GoalLifetimeOutlives:
		return LifetimeOutlivesGoal(g.LifetimeA.SubstituteArgs(args, cutoff), g.LifetimeB.SubstituteArgs(args, cutoff))
	case GoalLifetimeEq:
		return LifetimeEqGoal(g.LifetimeA.SubstituteArgs(args, cutoff), g.LifetimeB.SubstituteArgs(args, cutoff))
	case GoalAnd:
		return And(g.Left.SubstituteArgs(args, cutoff), g.Right.SubstituteArgs(args, cutoff))
	case GoalOr:
		return Or(g.Left.SubstituteArgs(args, cutoff), g.Right.SubstituteArgs(args, cutoff))
	case GoalImplies:
		clauses := make([]WhereClause, len(g.ImpliesClauses))
		for i, c := range g.ImpliesClauses {
			clauses[i] = c.SubstituteArgs(args, cutoff)
		}
		return Implies(clauses, g.ImpliesGoal.SubstituteArgs(args, cutoff))
	case GoalForall, GoalExists:
		inner := Binders[Goal]{
			VarKinds: g.Quantified.VarKinds,
			Value:    g.Quantified.Value.SubstituteArgs(args, cutoff.Shifted()),
		}
		return Goal{Kind: g.Kind, Quantified: &inner}
	}
	return g
}
