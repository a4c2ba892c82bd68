// Package relate implements the variance-aware Unifier/Relater: the
// single entry point, Relate, structurally zips two terms under a
// declared variance, consulting the inference table for variable
// bindings and deferring obligations it cannot resolve in place as
// Goals.
package relate

import (
	log "github.com/golang/glog"

	"github.com/daboross/chalk/infer"
	"github.com/daboross/chalk/ir"
	"github.com/daboross/chalk/universe"
)

// VarianceSource supplies the per-parameter declared variance for a
// nominal type constructor's substitution, so Apply's generic
// arguments zip under the Program's variance declarations rather than
// always invariantly. A nil source (or one returning nil) makes every
// position invariant, which is always sound, just more conservative.
type VarianceSource interface {
	Variances(name ir.TypeName) []ir.Variance
}

// Unifier carries the state one Relate call threads through its
// recursion: the table mutations go through, the universe allocator
// for minting fresh universes when instantiating a binder
// universally, the variance source, and the goals accumulated so far.
type Unifier struct {
	table     *infer.Table
	universes *universe.Store
	variances VarianceSource
	goals     []ir.Goal
}

// Table implements occurs.Env.
func (u *Unifier) Table() *infer.Table { return u.table }

// PushGoal implements occurs.Env.
func (u *Unifier) PushGoal(g ir.Goal) { u.goals = append(u.goals, g) }

// RelationResult is what a successful Relate returns: every obligation
// deferred instead of resolved in place, in the order they were
// generated.
type RelationResult struct {
	Goals []ir.Goal
}

// Relate structurally relates a and b under variance, inside env
// (consulted read-only; relate itself never adds clauses to it).
// Every mutation to table happens inside one snapshot: on error, table
// is rolled back to exactly its pre-call state; on success, it is
// committed and the accumulated goals are returned.
func Relate(table *infer.Table, universes *universe.Store, variances VarianceSource, env ir.Environment, variance ir.Variance, a, b ir.GenericArg) (RelationResult, error) {
	mark := table.Snapshot()
	u := &Unifier{table: table, universes: universes, variances: variances}
	if err := u.relateGenericArg(variance, a, b); err != nil {
		table.RollbackTo(mark)
		log.V(1).Infof("relate: %s %s %s failed: %v", a, variance, b, err)
		return RelationResult{}, err
	}
	table.Commit(mark)
	log.V(2).Infof("relate: %s %s %s ok, %d deferred goals", a, variance, b, len(u.goals))
	_ = env
	return RelationResult{Goals: u.goals}, nil
}

func (u *Unifier) relateGenericArg(variance ir.Variance, a, b ir.GenericArg) error {
	if a.Kind != b.Kind {
		panic("relate: generic argument kind mismatch (ill-kinded application from a malformed program)")
	}
	switch a.Kind {
	case ir.KindTy:
		return u.relateTy(variance, a.Ty, b.Ty)
	case ir.KindLifetime:
		return u.relateLifetime(variance, a.Lifetime, b.Lifetime)
	case ir.KindConst:
		return u.relateConst(a.Const, b.Const)
	}
	panic("relate: unknown generic argument kind")
}
