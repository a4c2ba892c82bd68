package relate

import (
	"github.com/daboross/chalk/ir"
	"github.com/daboross/chalk/universe"
)

// relateBinders performs chalk's double-instantiation protocol for
// relating two n-ary binders for equivalence: instantiate a
// universally (fresh placeholders in a new universe) and b
// existentially (fresh inference variables), relate; then swap and
// relate again. Both passes must succeed. Instantiating only
// universally on one side would admit unsound proofs (see spec's
// design notes on higher-ranked types), which is why this always runs
// both passes rather than picking one based on variance.
//
// Every bound variable introduced by one of these n-ary binders is
// treated as a lifetime: both Function's higher-ranked binders and a
// Dyn bound's implicit Self binder are lifetime-only quantification in
// this system (no higher-ranked type or const binders are modeled).
func relateBinders[T any](u *Unifier, n int, instA, instB func(args []ir.GenericArg) T, relateBody func(a, b T) error) error {
	if n == 0 {
		return relateBody(instA(nil), instB(nil))
	}

	pass := func(universalIsA bool) error {
		uni := u.universes.New()
		placeholders := universe.NewPlaceholders(uni)
		argsUniversal := make([]ir.GenericArg, n)
		for i := range argsUniversal {
			argsUniversal[i] = ir.LifetimeArg(ir.LifetimePlaceholder{Index: placeholders.Next()})
		}
		// The existential side is instantiated in the same universe as
		// the universal side's placeholders, not the table's pre-existing
		// ceiling: creating each variable here via Table.NewVariable(uni)
		// raises the table's own max_universe to uni as a side effect,
		// which is exactly what lets a later relate_var_ty bind (spec.md
		// §4.4 step 1) see these sibling placeholders as in scope.
		argsExistential := make([]ir.GenericArg, n)
		for i := range argsExistential {
			argsExistential[i] = ir.LifetimeArg(ir.LifetimeInferenceVar{Var: u.table.NewVariable(uni)})
		}
		if universalIsA {
			return relateBody(instA(argsUniversal), instB(argsExistential))
		}
		return relateBody(instA(argsExistential), instB(argsUniversal))
	}

	if err := pass(true); err != nil {
		return err
	}
	return pass(false)
}
