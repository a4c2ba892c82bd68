package program

import "github.com/daboross/chalk/ir"

// Database is the read-only query surface the solver and relate see:
// a built, validated Program satisfies it. Kept as an interface
// (rather than exposing *Program directly) so solver tests can supply
// a minimal fake without constructing a full program.
type Database interface {
	AdtDatum(id ir.AdtID) (AdtDatum, bool)
	TraitDatum(id ir.TraitID) (TraitDatum, bool)
	ImplDatum(id ir.ImplID) (ImplDatum, bool)
	AssociatedTyData(id ir.AssocTypeID) (AssocTypeDatum, bool)
	AssociatedTyValue(id ir.AssocTypeValueID) (AssocTypeValue, bool)
	// AssocTypeValueFor looks up the value an impl supplies for one of
	// its trait's associated types — the join solveAliasEqValue needs
	// and the bare-by-id accessor above can't give it without an
	// impl-keyed index.
	AssocTypeValueFor(implID ir.ImplID, assocTypeID ir.AssocTypeID) (ir.AssocTypeValueID, bool)
	OpaqueTyData(id ir.OpaqueTyID) (OpaqueTyDatum, bool)
	FnDefDatum(id ir.FnDefID) (FnDefDatum, bool)
	ClosureDatum(id ir.ClosureID) (ClosureDatum, bool)

	// ImplsForTrait returns every impl (local or upstream) whose head
	// could possibly match traitID<args...> — a cheap shallow filter,
	// not a full unification attempt (see couldMatch).
	ImplsForTrait(traitID ir.TraitID, args ir.Substitution) []ir.ImplID
	// LocalImplsToCoherenceCheck returns the local impls of traitID that
	// the orphan rule requires this crate to re-validate.
	LocalImplsToCoherenceCheck(traitID ir.TraitID) []ir.ImplID
	// ImplProvidedFor reports whether an auto trait may hold for an ADT
	// without an explicit impl: true unless a negative impl names the
	// ADT. It does not look at the ADT's fields; that recursion is left
	// to the solver.
	ImplProvidedFor(autoTraitID ir.TraitID, adtID ir.AdtID) bool

	WellKnownTraitID(w WellKnownTrait) (ir.TraitID, bool)
	IsObjectSafe(traitID ir.TraitID) bool

	// CustomClauses returns clauses supplied directly by the embedder
	// (outside of any impl/trait/ADT declaration).
	CustomClauses() []ir.ProgramClause
	// ProgramClausesForEnv returns every clause potentially relevant to
	// proving a goal in env: the custom clauses, one clause per positive
	// impl, one per trait supertrait entailment, and env's own
	// where-clauses re-expressed as unconditional facts.
	ProgramClausesForEnv(env ir.Environment) []ir.ProgramClause

	// Variances satisfies relate.VarianceSource: the declared variance
	// of each of name's generic parameters.
	Variances(name ir.TypeName) []ir.Variance

	AdtName(id ir.AdtID) string
	TraitName(id ir.TraitID) string
}
