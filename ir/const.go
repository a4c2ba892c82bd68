package ir

import (
	"bytes"
	"fmt"

	"github.com/daboross/chalk/universe"
)

// Const is the const-generic analogue of Term: an inference variable,
// a concrete value of some const-generic type, a skolemized
// placeholder, or a bound variable under a binder.
type Const interface {
	isConst()
	String() string
	Equals(Const) bool
	SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) Const
}

// ConstInferenceVar is an unresolved const-generic variable.
type ConstInferenceVar struct {
	Var VarID
	Ty  Term
}

func (ConstInferenceVar) isConst() {}
func (c ConstInferenceVar) String() string { return c.Var.String() }
func (c ConstInferenceVar) Equals(o Const) bool {
	oc, ok := o.(ConstInferenceVar)
	return ok && c.Var == oc.Var
}
func (c ConstInferenceVar) SubstituteArgs([]GenericArg, DebruijnIndex) Const { return c }

// ConcreteConst is a fully evaluated const-generic value: an opaque
// byte encoding plus the type it was evaluated at, compared by value.
type ConcreteConst struct {
	Ty    Term
	Value []byte
}

func (ConcreteConst) isConst() {}
func (c ConcreteConst) String() string { return fmt.Sprintf("const<%s>(%x)", c.Ty, c.Value) }
func (c ConcreteConst) Equals(o Const) bool {
	oc, ok := o.(ConcreteConst)
	return ok && c.Ty.Equals(oc.Ty) && bytes.Equal(c.Value, oc.Value)
}
func (c ConcreteConst) SubstituteArgs([]GenericArg, DebruijnIndex) Const { return c }

// ConstPlaceholder is a skolemized `forall` const-generic.
type ConstPlaceholder struct {
	Index universe.PlaceholderIndex
	Ty    Term
}

func (ConstPlaceholder) isConst() {}
func (c ConstPlaceholder) String() string { return c.Index.String() }
func (c ConstPlaceholder) Equals(o Const) bool {
	oc, ok := o.(ConstPlaceholder)
	return ok && c.Index.Equals(oc.Index)
}
func (c ConstPlaceholder) SubstituteArgs([]GenericArg, DebruijnIndex) Const { return c }

// ConstBoundVar references a const-generic bound by an enclosing Binders.
type ConstBoundVar struct {
	Debruijn DebruijnIndex
	Index    int
}

func (ConstBoundVar) isConst() {}
func (c ConstBoundVar) String() string { return fmt.Sprintf("#^%d_%d", int(c.Debruijn), c.Index) }
func (c ConstBoundVar) Equals(o Const) bool {
	oc, ok := o.(ConstBoundVar)
	return ok && c.Debruijn == oc.Debruijn && c.Index == oc.Index
}
func (c ConstBoundVar) SubstituteArgs(args []GenericArg, cutoff DebruijnIndex) Const {
	switch {
	case c.Debruijn == cutoff:
		return args[c.Index].Const
	case c.Debruijn > cutoff:
		return ConstBoundVar{Debruijn: c.Debruijn - 1, Index: c.Index}
	default:
		return c
	}
}
