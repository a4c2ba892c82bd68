// Package program holds the program facts database: the lowered,
// already-typechecked view of ADTs, traits, impls, associated types,
// opaque types, free functions and closures that the solver consults
// while building program clauses. Mirrors the teacher's ast.Decl
// family and the chalk-integration Program struct, collapsed into a
// single read-mostly store guarded by one RWMutex (this corpus never
// shows sharded fact stores for a dataset this small).
package program

import (
	"fmt"

	"github.com/daboross/chalk/ir"
)

// AdtFlags records the nominal-type facts that change how an ADT
// participates in coherence and auto-trait reasoning.
type AdtFlags struct {
	// Upstream is true when the ADT was declared outside the local
	// crate. LocalImplsToCoherenceCheck does not consult it; it selects
	// impls by ImplDatum.Local.
	Upstream bool
	// Fundamental types (like `&T` or `Box<T>`) are exempt from the
	// overlap check's "uncovered type parameter" restriction.
	Fundamental bool
	// PhantomData marks the ADT itself as PhantomData-like: an auto
	// trait holds for it without its type parameters or fields being
	// checked, so a field of such a type never blocks the auto trait.
	PhantomData bool
}

// AdtDatum is one ADT declaration: its fields' types, closed over the
// ADT's own generic parameters, plus the declared variance of each
// parameter and the flags coherence needs.
type AdtDatum struct {
	ID       ir.AdtID
	Name     string
	Binders  ir.Binders[ir.TermList]
	Variances []ir.Variance
	Flags    AdtFlags
}

// WellKnownTrait names a trait the solver treats specially (auto-trait
// and built-in-impl reasoning), independent of whatever the user named
// it in source.
type WellKnownTrait int

const (
	// WellKnownNone marks an ordinary, non-special trait.
	WellKnownNone WellKnownTrait = iota
	WellKnownSized
	WellKnownCopy
	WellKnownClone
	WellKnownSend
	WellKnownSync
	WellKnownDrop
)

func (w WellKnownTrait) String() string {
	switch w {
	case WellKnownSized:
		return "Sized"
	case WellKnownCopy:
		return "Copy"
	case WellKnownClone:
		return "Clone"
	case WellKnownSend:
		return "Send"
	case WellKnownSync:
		return "Sync"
	case WellKnownDrop:
		return "Drop"
	default:
		return "<none>"
	}
}

// TraitFlags records the trait-level facts coherence and the clause
// builder need beyond the trait's bare signature.
type TraitFlags struct {
	AutoTrait        bool
	Marker           bool
	Upstream         bool
	Fundamental      bool
	NonEnumerable    bool
	CoinductiveTrait bool
}

// TraitDatum is one trait declaration: its supertraits (a where-clause
// list closed over the trait's own generics, Self included as the
// first bound variable), the IDs of its associated type declarations,
// and the flags above.
type TraitDatum struct {
	ID          ir.TraitID
	Name        string
	Binders     ir.Binders[ir.WhereClauseList]
	AssocTypeIDs []ir.AssocTypeID
	Flags       TraitFlags
	WellKnown   WellKnownTrait
}

// Polarity distinguishes a positive impl (`impl Trait for Ty`) from a
// negative one (`impl !Trait for Ty`, used to assert an auto trait
// does not hold).
type Polarity int

const (
	PolarityPositive Polarity = iota
	PolarityNegative
)

func (p Polarity) String() string {
	if p == PolarityNegative {
		return "negative"
	}
	return "positive"
}

// ImplBound is an ImplDatum's Binders body: the trait reference it
// implements plus its where-clauses, closed over the impl's own
// generics.
type ImplBound struct {
	TraitRef     ir.TraitRef
	WhereClauses []ir.WhereClause
}

// SubstituteArgs lets ImplBound serve as a Binders body.
func (b ImplBound) SubstituteArgs(args []ir.GenericArg, cutoff ir.DebruijnIndex) ImplBound {
	wc := make([]ir.WhereClause, len(b.WhereClauses))
	for i, w := range b.WhereClauses {
		wc[i] = w.SubstituteArgs(args, cutoff)
	}
	return ImplBound{TraitRef: b.TraitRef.SubstituteArgs(args, cutoff), WhereClauses: wc}
}

// ImplDatum is one impl block.
type ImplDatum struct {
	ID       ir.ImplID
	Binders  ir.Binders[ImplBound]
	Polarity Polarity
	// Local is true when the impl was written in the local crate: only
	// local impls for a foreign trait need coherence-checking against
	// the orphan rule (see LocalImplsToCoherenceCheck).
	Local bool
}

// AssocTypeDatum is a trait's associated-type declaration: its bounds,
// closed over the trait's generics plus the associated type's own.
type AssocTypeDatum struct {
	ID      ir.AssocTypeID
	TraitID ir.TraitID
	Name    string
	Binders ir.Binders[ir.WhereClauseList]
}

// AssocTypeValue is the concrete type an impl supplies for one of its
// trait's associated types, closed over the impl's own generics plus
// the associated type's own.
type AssocTypeValue struct {
	ID          ir.AssocTypeValueID
	ImplID      ir.ImplID
	AssocTypeID ir.AssocTypeID
	Binders     ir.Binders[ir.Term]
}

// OpaqueBound is an OpaqueTyDatum's Binders body: the trait bounds the
// hidden type must satisfy, plus (once revealed) the hidden type
// itself.
type OpaqueBound struct {
	Bounds []ir.QuantifiedWhereClause
	Hidden ir.Term
}

// SubstituteArgs lets OpaqueBound serve as a Binders body.
func (b OpaqueBound) SubstituteArgs(args []ir.GenericArg, cutoff ir.DebruijnIndex) OpaqueBound {
	bounds := make([]ir.QuantifiedWhereClause, len(b.Bounds))
	for i, qw := range b.Bounds {
		bounds[i] = ir.Binders[ir.WhereClause]{
			VarKinds: qw.VarKinds,
			Value:    qw.Value.SubstituteArgs(args, cutoff.Shifted()),
		}
	}
	return OpaqueBound{Bounds: bounds, Hidden: b.Hidden.SubstituteArgs(args, cutoff)}
}

// OpaqueTyDatum is one `impl Trait` declaration.
type OpaqueTyDatum struct {
	ID      ir.OpaqueTyID
	Binders ir.Binders[OpaqueBound]
}

// FnSig is a free function's or closure's signature: its parameter
// types and return type, closed over the item's own generics.
type FnSig struct {
	Inputs ir.TermList
	Output ir.Term
}

// SubstituteArgs lets FnSig serve as a Binders body.
func (s FnSig) SubstituteArgs(args []ir.GenericArg, cutoff ir.DebruijnIndex) FnSig {
	return FnSig{Inputs: s.Inputs.SubstituteArgs(args, cutoff), Output: s.Output.SubstituteArgs(args, cutoff)}
}

// FnDefDatum is one free function item's signature.
type FnDefDatum struct {
	ID      ir.FnDefID
	Name    string
	Binders ir.Binders[FnSig]
}

// ClosureKind distinguishes the three ways a closure may capture and
// be called, same as the three `Fn*` traits it auto-implements.
type ClosureKind int

const (
	ClosureFn ClosureKind = iota
	ClosureFnMut
	ClosureFnOnce
)

func (k ClosureKind) String() string {
	switch k {
	case ClosureFnMut:
		return "FnMut"
	case ClosureFnOnce:
		return "FnOnce"
	default:
		return "Fn"
	}
}

// ClosureDatum is one closure's signature, capture kind, and upvar
// types (closed over the enclosing generics the closure captured).
type ClosureDatum struct {
	ID      ir.ClosureID
	Kind    ClosureKind
	Binders ir.Binders[FnSig]
	Upvars  ir.TermList
}

func (d AdtDatum) String() string        { return fmt.Sprintf("adt %s (#%d)", d.Name, d.ID) }
func (d TraitDatum) String() string      { return fmt.Sprintf("trait %s (#%d)", d.Name, d.ID) }
func (d ImplDatum) String() string       { return fmt.Sprintf("impl#%d (%s)", d.ID, d.Polarity) }
