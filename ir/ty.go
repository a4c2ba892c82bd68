package ir

import (
	"fmt"
	"strings"

	"github.com/daboross/chalk/universe"
)

// Apply is a type constructor applied to a substitution: `Vec<T>`,
// `Option<String>`, a bare `i32` (empty substitution).
type Apply struct {
	Name         TypeName
	Substitution Substitution
}

func (Apply) isTerm() {}

func (a Apply) Equals(o Term) bool {
	ot, ok := o.(Apply)
	return ok && a.Name.Equals(ot.Name) && a.Substitution.Equals(ot.Substitution)
}

func (a Apply) String() string {
	if len(a.Substitution) == 0 {
		return a.Name.String()
	}
	return fmt.Sprintf("%s<%s>", a.Name, a.Substitution)
}

func (a Apply) SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) Term {
	return Apply{Name: a.Name, Substitution: a.Substitution.SubstituteArgs(args, cutoff)}
}

// Placeholder is a skolemized universal: the `forall`-bound type held
// fixed while its body is checked, univocally identified by a
// PlaceholderIndex.
type Placeholder struct {
	Index universe.PlaceholderIndex
}

func (Placeholder) isTerm() {}

func (p Placeholder) Equals(o Term) bool {
	op, ok := o.(Placeholder)
	return ok && p.Index.Equals(op.Index)
}

func (p Placeholder) String() string { return p.Index.String() }

func (p Placeholder) SubstituteArgs([]GenericArg, DebruijnIndex) Term { return p }

// InferenceVar is an as-yet-unresolved type variable, scoped to a
// universe and narrowed to a TyKind.
type InferenceVar struct {
	Var  VarID
	Kind TyKind
}

func (InferenceVar) isTerm() {}

func (v InferenceVar) Equals(o Term) bool {
	ov, ok := o.(InferenceVar)
	return ok && v.Var == ov.Var
}

func (v InferenceVar) String() string {
	if v.Kind == TyKindGeneral {
		return v.Var.String()
	}
	return fmt.Sprintf("%s:%s", v.Var, v.Kind)
}

func (v InferenceVar) SubstituteArgs([]GenericArg, DebruijnIndex) Term { return v }

// QuantifiedWhereClause is a WhereClause universally quantified over
// the implicit Self plus whatever else the clause's own binder needs;
// Dyn's bounds and a trait's supertraits are expressed this way.
type QuantifiedWhereClause = Binders[WhereClause]

// Dyn is a trait-object type: `dyn Trait + 'a`. Bounds are existential
// (there exists a hidden concrete type satisfying them all) and are
// stored as binders over the hidden Self type.
type Dyn struct {
	Bounds   []QuantifiedWhereClause
	Lifetime Lifetime
}

func (Dyn) isTerm() {}

func (d Dyn) Equals(o Term) bool {
	od, ok := o.(Dyn)
	if !ok || len(d.Bounds) != len(od.Bounds) || !d.Lifetime.Equals(od.Lifetime) {
		return false
	}
	for i := range d.Bounds {
		if !d.Bounds[i].Value.Equals(od.Bounds[i].Value) {
			return false
		}
	}
	return true
}

func (d Dyn) String() string {
	parts := make([]string, len(d.Bounds))
	for i, b := range d.Bounds {
		parts[i] = b.Value.String()
	}
	return fmt.Sprintf("dyn %s + %s", strings.Join(parts, " + "), d.Lifetime)
}

func (d Dyn) SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) Term {
	bounds := make([]QuantifiedWhereClause, len(d.Bounds))
	for i, b := range d.Bounds {
		bounds[i] = Binders[WhereClause]{
			VarKinds: b.VarKinds,
			// Dyn's bounds open one more binder (the hidden Self) than
			// the substitution being applied targets, so recurse one
			// level deeper.
			Value: b.Value.SubstituteArgs(args, cutoff.Shifted()),
		}
	}
	return Dyn{Bounds: bounds, Lifetime: d.Lifetime.SubstituteArgs(args, cutoff)}
}

// ABI names a function's calling convention (as declared, not resolved).
type ABI string

// Safety records whether a function type is declared unsafe.
type Safety int

const (
	// Safe is an ordinarily callable function type.
	Safe Safety = iota
	// Unsafe requires an unsafe block to call.
	Unsafe
)

func (s Safety) String() string {
	if s == Unsafe {
		return "unsafe "
	}
	return ""
}

// Function is a `fn(...) -> ...` type. NumBinders counts the
// higher-ranked lifetime binders introduced by the signature itself
// (e.g. `for<'a> fn(&'a u8)`); Substitution holds the argument and
// return types, themselves possibly referring to those bound
// lifetimes by De Bruijn index relative to this Function node.
type Function struct {
	NumBinders   int
	ABI          ABI
	Safety       Safety
	Variadic     bool
	Substitution Substitution
}

func (Function) isTerm() {}

func (f Function) Equals(o Term) bool {
	of, ok := o.(Function)
	return ok && f.NumBinders == of.NumBinders && f.ABI == of.ABI &&
		f.Safety == of.Safety && f.Variadic == of.Variadic &&
		f.Substitution.Equals(of.Substitution)
}

func (f Function) String() string {
	return fmt.Sprintf("%sfn<%d>(%s)", f.Safety, f.NumBinders, f.Substitution)
}

func (f Function) SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) Term {
	shifted := cutoff
	if f.NumBinders > 0 {
		shifted = cutoff.Shifted()
	}
	return Function{
		NumBinders:   f.NumBinders,
		ABI:          f.ABI,
		Safety:       f.Safety,
		Variadic:     f.Variadic,
		Substitution: f.Substitution.SubstituteArgs(args, shifted),
	}
}

// ProjectionTy names `<T as Trait>::Assoc<Args...>`: an associated
// type projection awaiting normalization.
type ProjectionTy struct {
	AssocTypeID  AssocTypeID
	Substitution Substitution
}

// OpaqueTy names `impl Trait`: an opaque type whose hidden type is
// known only to the defining item.
type OpaqueTy struct {
	OpaqueTyID   OpaqueTyID
	Substitution Substitution
}

// AliasKind discriminates the two forms an Alias term can take.
type AliasKind int

const (
	// AliasProjection marks an associated-type projection.
	AliasProjection AliasKind = iota
	// AliasOpaque marks an opaque type.
	AliasOpaque
)

// Alias is a type that normalizes to some other type via an AliasEq
// clause: either a projection or an opaque type.
type Alias struct {
	Kind       AliasKind
	Projection ProjectionTy
	Opaque     OpaqueTy
}

func (Alias) isTerm() {}

func (a Alias) Equals(o Term) bool {
	oa, ok := o.(Alias)
	if !ok || a.Kind != oa.Kind {
		return false
	}
	if a.Kind == AliasProjection {
		return a.Projection.AssocTypeID == oa.Projection.AssocTypeID &&
			a.Projection.Substitution.Equals(oa.Projection.Substitution)
	}
	return a.Opaque.OpaqueTyID == oa.Opaque.OpaqueTyID &&
		a.Opaque.Substitution.Equals(oa.Opaque.Substitution)
}

func (a Alias) String() string {
	if a.Kind == AliasProjection {
		return fmt.Sprintf("<assoc#%d<%s>>", a.Projection.AssocTypeID, a.Projection.Substitution)
	}
	return fmt.Sprintf("<opaque#%d<%s>>", a.Opaque.OpaqueTyID, a.Opaque.Substitution)
}

func (a Alias) SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) Term {
	if a.Kind == AliasProjection {
		return Alias{Kind: AliasProjection, Projection: ProjectionTy{
			AssocTypeID:  a.Projection.AssocTypeID,
			Substitution: a.Projection.Substitution.SubstituteArgs(args, cutoff),
		}}
	}
	return Alias{Kind: AliasOpaque, Opaque: OpaqueTy{
		OpaqueTyID:   a.Opaque.OpaqueTyID,
		Substitution: a.Opaque.Substitution.SubstituteArgs(args, cutoff),
	}}
}

// BoundVar is a reference to a variable introduced by an enclosing
// Binders, identified by the De Bruijn depth of that binder and the
// variable's slot within it. Only legal inside a Binders body.
type BoundVar struct {
	Debruijn DebruijnIndex
	Index    int
}

func (BoundVar) isTerm() {}

func (b BoundVar) Equals(o Term) bool {
	ob, ok := o.(BoundVar)
	return ok && b.Debruijn == ob.Debruijn && b.Index == ob.Index
}

func (b BoundVar) String() string { return fmt.Sprintf("^%d_%d", int(b.Debruijn), b.Index) }

func (b BoundVar) SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) Term {
	switch {
	case b.Debruijn == cutoff:
		return args[b.Index].Ty
	case b.Debruijn > cutoff:
		return BoundVar{Debruijn: b.Debruijn - 1, Index: b.Index}
	default:
		return b
	}
}
