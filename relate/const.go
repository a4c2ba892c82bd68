package relate

import (
	"bytes"

	"github.com/daboross/chalk/infer"
	"github.com/daboross/chalk/ir"
)

// relateConst implements relate_const_const: declared types relate
// invariantly first, then values are related per the usual var/bind/
// concrete rules. Concrete-vs-concrete equality is byte equality on
// the opaque evaluated representation (this system's const_eq; there
// is no const-evaluation layer).
func (u *Unifier) relateConst(a, b ir.Const) error {
	if n, ok := u.table.NormalizeShallowConst(a); ok {
		a = n
	}
	if n, ok := u.table.NormalizeShallowConst(b); ok {
		b = n
	}
	if _, ok := a.(ir.ConstBoundVar); ok {
		panic("relate: bound const at the free level (programmer error in a collaborator)")
	}
	if _, ok := b.(ir.ConstBoundVar); ok {
		panic("relate: bound const at the free level (programmer error in a collaborator)")
	}

	if err := u.relateTy(ir.Invariant, constTypeOf(a), constTypeOf(b)); err != nil {
		return err
	}

	av, aIsVar := a.(ir.ConstInferenceVar)
	bv, bIsVar := b.(ir.ConstInferenceVar)
	switch {
	case aIsVar && bIsVar:
		if u.table.Representative(av.Var) != u.table.Representative(bv.Var) {
			u.table.UnifyVarVar(av.Var, bv.Var)
		}
		return nil
	case aIsVar:
		u.table.UnifyVarValue(av.Var, infer.Bound(ir.ConstArg(b)))
		return nil
	case bIsVar:
		u.table.UnifyVarValue(bv.Var, infer.Bound(ir.ConstArg(a)))
		return nil
	}

	if ac, ok := a.(ir.ConcreteConst); ok {
		if bc, ok := b.(ir.ConcreteConst); ok {
			if !bytes.Equal(ac.Value, bc.Value) {
				return noSolution(a, b)
			}
			return nil
		}
		return noSolution(a, b)
	}
	if ap, ok := a.(ir.ConstPlaceholder); ok {
		if bp, ok := b.(ir.ConstPlaceholder); ok {
			if !ap.Index.Equals(bp.Index) {
				return noSolution(a, b)
			}
			return nil
		}
		return noSolution(a, b)
	}
	return noSolution(a, b)
}
