// Package ir contains the internal representation of types, lifetimes,
// constants, goals and clauses that the solver reasons about: the
// Term/BaseTerm model, generic arguments, binders, and the deferred
// obligations ("goals") that relate produces.
//
// Identifiers (AdtID, TraitID, ...) are opaque numeric handles, same as
// the PredicateSym/item-id handles in the teacher's ast package: the
// name->id mapping belongs to lowering and is discarded once the
// program facts are built.
package ir

import "fmt"

// AdtID names a nominal ADT (struct/enum/union).
type AdtID uint32

// TraitID names a trait.
type TraitID uint32

// ImplID names an impl.
type ImplID uint32

// AssocTypeID names an associated-type declaration inside a trait.
type AssocTypeID uint32

// AssocTypeValueID names an associated-type value inside an impl.
type AssocTypeValueID uint32

// OpaqueTyID names an opaque type (impl Trait).
type OpaqueTyID uint32

// FnDefID names a free function definition.
type FnDefID uint32

// ClosureID names a closure.
type ClosureID uint32

// TypeName is the callee of an Apply term: a nominal type constructor.
// Exactly one of the fields is meaningful, selected by Kind.
type TypeName struct {
	Kind TypeNameKind
	Adt  AdtID
	Fn   FnDefID
	Clo  ClosureID
}

// TypeNameKind discriminates the variant of a TypeName.
type TypeNameKind int

const (
	// TypeNameAdt names a struct/enum/union.
	TypeNameAdt TypeNameKind = iota
	// TypeNameFnDef names a function item type (the type of a specific fn, not its signature).
	TypeNameFnDef
	// TypeNameClosure names a closure type.
	TypeNameClosure
)

// Equals reports whether two type names refer to the same constructor.
func (n TypeName) Equals(o TypeName) bool {
	if n.Kind != o.Kind {
		return false
	}
	switch n.Kind {
	case TypeNameAdt:
		return n.Adt == o.Adt
	case TypeNameFnDef:
		return n.Fn == o.Fn
	case TypeNameClosure:
		return n.Clo == o.Clo
	}
	return false
}

func (n TypeName) String() string {
	switch n.Kind {
	case TypeNameAdt:
		return fmt.Sprintf("adt#%d", n.Adt)
	case TypeNameFnDef:
		return fmt.Sprintf("fndef#%d", n.Fn)
	case TypeNameClosure:
		return fmt.Sprintf("closure#%d", n.Clo)
	}
	return "?"
}

// AdtName is a convenience constructor for an ADT TypeName.
func AdtName(id AdtID) TypeName { return TypeName{Kind: TypeNameAdt, Adt: id} }

// FnDefName is a convenience constructor for a function-item TypeName.
func FnDefName(id FnDefID) TypeName { return TypeName{Kind: TypeNameFnDef, Fn: id} }

// ClosureName is a convenience constructor for a closure TypeName.
func ClosureName(id ClosureID) TypeName { return TypeName{Kind: TypeNameClosure, Clo: id} }
