// Package occurs implements the Occurs/Generalization Folder's scope
// half: walking a term that is about to be bound to an inference
// variable, refusing placeholders the variable's universe cannot see,
// promoting inference variables born in too-wide a universe, and
// failing if the term still contains the variable being bound.
//
// The other half of chalk's "Occurs/Generalization Folder" — replacing
// the folded term's outermost constructor arguments with fresh
// variables related back to the originals — needs to call relate
// recursively, so it lives in package relate instead (see the
// Unifier's generalize method) to keep this package's dependency on
// relate at zero.
package occurs

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/daboross/chalk/infer"
	"github.com/daboross/chalk/ir"
	"github.com/daboross/chalk/universe"
)

// ErrCycle is returned when the folded term still contains the
// variable being bound.
var ErrCycle = errors.New("occurs: cycle")

// ErrScopeViolation is returned when a placeholder outlives the scope
// universe the folded term is being bound into.
var ErrScopeViolation = errors.New("occurs: placeholder escapes scope")

// Env is the slice of a relate.Unifier the folder needs: the table to
// probe/promote against, and somewhere to push deferred goals when a
// lifetime placeholder can be resolved by deferral instead of failure.
type Env interface {
	Table() *infer.Table
	PushGoal(ir.Goal)
}

// Ty folds t for a bind of `target` with scope ceiling `scope`: every
// placeholder must have universe <= scope, every inference variable
// wider than scope is promoted down to it, and target itself must not
// occur (directly, or through an already-bound variable).
func Ty(env Env, target ir.VarID, scope universe.Index, t ir.Term) (ir.Term, error) {
	switch v := t.(type) {
	case ir.InferenceVar:
		rep := env.Table().Representative(v.Var)
		if rep == env.Table().Representative(target) {
			return nil, fmt.Errorf("%w: variable %s occurs in the term being bound", ErrCycle, v)
		}
		val := env.Table().Probe(v.Var)
		if val.Bound {
			return Ty(env, target, scope, val.Arg.Ty)
		}
		if val.Universe > scope {
			env.Table().Promote(v.Var, scope)
		}
		return v, nil

	case ir.Placeholder:
		if v.Index.Universe > scope {
			return nil, fmt.Errorf("%w: %s not visible in %s", ErrScopeViolation, v, scope)
		}
		return v, nil

	case ir.Apply:
		sub, err := Substitution(env, target, scope, v.Substitution)
		if err != nil {
			return nil, err
		}
		return ir.Apply{Name: v.Name, Substitution: sub}, nil

	case ir.Dyn:
		lifetime, err := Lifetime(env, target, scope, v.Lifetime)
		if err != nil {
			return nil, err
		}
		bounds := make([]ir.QuantifiedWhereClause, len(v.Bounds))
		var errs error
		for i, b := range v.Bounds {
			folded, err := whereClause(env, target, scope, b.Value)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("dyn bound %d: %w", i, err))
				continue
			}
			bounds[i] = ir.QuantifiedWhereClause{VarKinds: b.VarKinds, Value: folded}
		}
		if errs != nil {
			return nil, errs
		}
		return ir.Dyn{Bounds: bounds, Lifetime: lifetime}, nil

	case ir.Function:
		sub, err := Substitution(env, target, scope, v.Substitution)
		if err != nil {
			return nil, err
		}
		return ir.Function{NumBinders: v.NumBinders, ABI: v.ABI, Safety: v.Safety, Variadic: v.Variadic, Substitution: sub}, nil

	case ir.Alias:
		if v.Kind == ir.AliasProjection {
			sub, err := Substitution(env, target, scope, v.Projection.Substitution)
			if err != nil {
				return nil, err
			}
			return ir.Alias{Kind: ir.AliasProjection, Projection: ir.ProjectionTy{AssocTypeID: v.Projection.AssocTypeID, Substitution: sub}}, nil
		}
		sub, err := Substitution(env, target, scope, v.Opaque.Substitution)
		if err != nil {
			return nil, err
		}
		return ir.Alias{Kind: ir.AliasOpaque, Opaque: ir.OpaqueTy{OpaqueTyID: v.Opaque.OpaqueTyID, Substitution: sub}}, nil

	case ir.BoundVar:
		// Legitimately refers to a binder somewhere in scope of the
		// original term (either within it, for a nested Function/Dyn
		// binder, or further out); nothing to scope-check.
		return v, nil
	}
	panic(fmt.Sprintf("occurs.Ty: unhandled term %T", t))
}

// Lifetime is Ty's counterpart for lifetimes. Unlike a type
// placeholder, a lifetime placeholder that escapes scope is not a hard
// failure: a fresh lifetime variable is allocated in scope and a
// deferred LifetimeEq goal ties it back to the placeholder, since
// lifetimes carry no soundness-relevant structure to generalize over.
func Lifetime(env Env, target ir.VarID, scope universe.Index, l ir.Lifetime) (ir.Lifetime, error) {
	switch v := l.(type) {
	case ir.LifetimeInferenceVar:
		val := env.Table().Probe(v.Var)
		if val.Bound {
			return Lifetime(env, target, scope, val.Arg.Lifetime)
		}
		if val.Universe > scope {
			env.Table().Promote(v.Var, scope)
		}
		return v, nil

	case ir.LifetimePlaceholder:
		if v.Index.Universe > scope {
			fresh := env.Table().NewVariable(scope)
			env.PushGoal(ir.LifetimeEqGoal(ir.LifetimeInferenceVar{Var: fresh}, v))
			return ir.LifetimeInferenceVar{Var: fresh}, nil
		}
		return v, nil

	case ir.LifetimeBoundVar:
		return l, nil
	}
	panic(fmt.Sprintf("occurs.Lifetime: unhandled lifetime %T", l))
}

// Const is Ty's counterpart for const-generics. No deferral exists for
// an out-of-scope const placeholder: constants carry no region-style
// approximation to fall back to, so it is a hard scope violation same
// as a type placeholder.
func Const(env Env, target ir.VarID, scope universe.Index, c ir.Const) (ir.Const, error) {
	switch v := c.(type) {
	case ir.ConstInferenceVar:
		val := env.Table().Probe(v.Var)
		if val.Bound {
			return Const(env, target, scope, val.Arg.Const)
		}
		if val.Universe > scope {
			env.Table().Promote(v.Var, scope)
		}
		return v, nil

	case ir.ConstPlaceholder:
		if v.Index.Universe > scope {
			return nil, fmt.Errorf("%w: %s not visible in %s", ErrScopeViolation, v, scope)
		}
		return v, nil

	case ir.ConstBoundVar:
		return v, nil
	}
	panic(fmt.Sprintf("occurs.Const: unhandled const %T", c))
}

// Substitution folds every generic argument in s.
func Substitution(env Env, target ir.VarID, scope universe.Index, s ir.Substitution) (ir.Substitution, error) {
	out := make(ir.Substitution, len(s))
	var errs error
	for i, a := range s {
		folded, err := genericArg(env, target, scope, a)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("arg %d: %w", i, err))
			continue
		}
		out[i] = folded
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

func genericArg(env Env, target ir.VarID, scope universe.Index, a ir.GenericArg) (ir.GenericArg, error) {
	switch a.Kind {
	case ir.KindTy:
		t, err := Ty(env, target, scope, a.Ty)
		return ir.TyArg(t), err
	case ir.KindLifetime:
		l, err := Lifetime(env, target, scope, a.Lifetime)
		return ir.LifetimeArg(l), err
	case ir.KindConst:
		c, err := Const(env, target, scope, a.Const)
		return ir.ConstArg(c), err
	}
	return a, nil
}

func whereClause(env Env, target ir.VarID, scope universe.Index, w ir.WhereClause) (ir.WhereClause, error) {
	if w.Kind == ir.WhereClauseImplemented {
		sub, err := Substitution(env, target, scope, w.Implemented.Substitution)
		if err != nil {
			return ir.WhereClause{}, err
		}
		return ir.WhereClause{Kind: ir.WhereClauseImplemented, Implemented: ir.TraitRef{TraitID: w.Implemented.TraitID, Substitution: sub}}, nil
	}
	aliasTy, err := Ty(env, target, scope, w.AliasEq.Alias)
	if err != nil {
		return ir.WhereClause{}, err
	}
	rhs, err := Ty(env, target, scope, w.AliasEq.Ty)
	if err != nil {
		return ir.WhereClause{}, err
	}
	return ir.WhereClause{Kind: ir.WhereClauseAliasEq, AliasEq: ir.AliasEqClause{Alias: aliasTy.(ir.Alias), Ty: rhs}}, nil
}
