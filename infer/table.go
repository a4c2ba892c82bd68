// Package infer owns inference variables: allocation, the union-find
// over them, and snapshot/commit/rollback. It never fails — every
// fallible semantic check (occurs, universe scope, variance) lives one
// layer up, in occurs and relate.
package infer

import (
	"sync"

	"github.com/daboross/chalk/ir"
	"github.com/daboross/chalk/universe"
)

// Value is the stored state of one inference variable's union-find
// representative: either still open (Unbound, carrying the universe it
// was born in) or resolved to a concrete generic argument.
type Value struct {
	Bound    bool
	Universe universe.Index
	// Kind narrows an unbound type variable from General to Integer or
	// Float (chalk's unify_general_var_specific_ty); meaningless for
	// lifetime/const variables, which leave it at its zero value.
	Kind ir.TyKind
	Arg  ir.GenericArg
}

// Unbound builds an open Value living in universe u.
func Unbound(u universe.Index) Value { return Value{Universe: u} }

// Bound builds a resolved Value.
func Bound(arg ir.GenericArg) Value { return Value{Bound: true, Arg: arg} }

type slot struct {
	parent ir.VarID
	value  Value
}

// Mark is an opaque snapshot handle returned by Table.Snapshot.
type Mark int

// Table is the disjoint-set union-find over inference variables. A
// Table is not safe to share across a solve running on another Table;
// per-solve ownership is the caller's responsibility (see spec's
// single-threaded-per-solve concurrency model).
//
// Undo is implemented as a log of compensating actions rather than a
// copy-on-snapshot map (contrast google-mangle/unionfind.UnionFind,
// which snapshots by rebuilding the whole substitution): each mutation
// pushes a closure that reverses it, Snapshot records the log length,
// and RollbackTo replays the tail of the log in reverse. This matches
// the approach chalk-solve's InferenceTable itself uses (see the `ena`
// crate it wraps) and keeps rollback O(mutations since snapshot)
// rather than O(table size).
type Table struct {
	mu          sync.Mutex
	slots       []slot
	maxUniverse universe.Index
	log         []func()
}

// New returns an empty Table.
func New() *Table {
	return &Table{}
}

// NewVariable adds an Unbound slot in universe u and returns its id.
func (t *Table) NewVariable(u universe.Index) ir.VarID {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := ir.VarID(len(t.slots))
	t.slots = append(t.slots, slot{parent: id, value: Unbound(u)})
	if u > t.maxUniverse {
		t.maxUniverse = u
	}
	t.log = append(t.log, func() {
		t.slots = t.slots[:id]
	})
	return id
}

// NewVariableOfKind is NewVariable for a type variable narrowed to
// Integer or Float from birth (used for integer/float literal
// inference variables, which never start out General).
func (t *Table) NewVariableOfKind(u universe.Index, kind ir.TyKind) ir.VarID {
	id := t.NewVariable(u)
	if kind != ir.TyKindGeneral {
		t.NarrowKind(id, kind)
	}
	return id
}

// NarrowKind narrows a still-unbound type variable's Kind (General ->
// Integer/Float). Idempotent if kind already matches.
func (t *Table) NarrowKind(v ir.VarID, kind ir.TyKind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.find(v)
	old := t.slots[r].value
	if old.Kind == kind {
		return
	}
	next := old
	next.Kind = kind
	t.slots[r].value = next
	t.log = append(t.log, func() {
		t.slots[r].value = old
	})
}

// MaxUniverse returns the highest universe any variable in this table
// has ever been allocated or promoted into. Monotonic for the table's
// lifetime: unlike bound/unbound state, it is not undone by rollback,
// matching how a fresh-variable ceiling is treated as append-only
// bookkeeping rather than observable union-find state (invariant 5).
//
// Note this tracks variable creation, not raw universe allocation: a
// universe.Store.New() minted for a forall's placeholders does not by
// itself move this ceiling until some variable is actually created in
// it (e.g. an existential sibling in the same relate_binders pass via
// NewVariable(uni)). That distinction is what makes the scope check in
// bindVar correctly refuse `exists<T> forall<U> { T = U }` (no variable
// has been created in U's universe, so the ceiling stays below it).
// The lifetime case `forall<'a> exists<'b> { 'a = 'b }` does not use
// this ceiling: relateVarLifetime checks 'a against 'b's own universe.
func (t *Table) MaxUniverse() universe.Index {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxUniverse
}

// Snapshot records the current log length. Snapshots nest freely
// (LIFO); each must be matched by exactly one Commit or RollbackTo.
func (t *Table) Snapshot() Mark {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Mark(len(t.log))
}

// Commit discards a snapshot marker without undoing anything: the
// mutations since the marker become permanent (or, if an enclosing
// snapshot is later rolled back, are undone along with everything
// else since that outer marker).
func (t *Table) Commit(Mark) {}

// RollbackTo undoes every mutation recorded since mark, restoring the
// table to exactly the state Snapshot observed.
func (t *Table) RollbackTo(mark Mark) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for Mark(len(t.log)) > mark {
		undo := t.log[len(t.log)-1]
		t.log = t.log[:len(t.log)-1]
		undo()
	}
}

// find returns v's current union-find representative. Callers must
// hold t.mu. No path compression: compressing would mutate parent
// pointers outside of the undo log's view, which would survive a
// rollback that should have reverted the union that produced them.
func (t *Table) find(v ir.VarID) ir.VarID {
	for t.slots[v].parent != v {
		v = t.slots[v].parent
	}
	return v
}

// Representative returns v's current union-find representative.
func (t *Table) Representative(v ir.VarID) ir.VarID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.find(v)
}

// UnifyVarVar merges two (assumed-Unbound) variables' equivalence
// classes and returns the survivor. Per invariant 2, the survivor is
// whichever side has the lower universe, so it stays visible to
// everything the other side was visible to; ties keep the first
// argument's root as survivor.
func (t *Table) UnifyVarVar(a, b ir.VarID) ir.VarID {
	t.mu.Lock()
	defer t.mu.Unlock()
	ra, rb := t.find(a), t.find(b)
	if ra == rb {
		return ra
	}
	survivor, absorbed := ra, rb
	if t.slots[rb].value.Universe < t.slots[ra].value.Universe {
		survivor, absorbed = rb, ra
	}
	oldParent := t.slots[absorbed].parent
	t.slots[absorbed].parent = survivor
	t.log = append(t.log, func() {
		t.slots[absorbed].parent = oldParent
	})
	return survivor
}

// UnifyVarValue overwrites v's representative's value directly:
// binding it (Bound) or narrowing its universe while it stays
// Unbound (used for promotion).
func (t *Table) UnifyVarValue(v ir.VarID, val Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.find(v)
	old := t.slots[r].value
	t.slots[r].value = val
	if !val.Bound && val.Universe > t.maxUniverse {
		t.maxUniverse = val.Universe
	}
	t.log = append(t.log, func() {
		t.slots[r].value = old
	})
}

// Probe reads v's representative's current value.
func (t *Table) Probe(v ir.VarID) Value {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slots[t.find(v)].value
}

// Promote narrows v's universe to min(v's current universe, u) if v
// is still Unbound and its universe exceeds u. Reports whether it
// changed anything. Binding a variable never widens its universe
// (invariant 3); Promote is the only operation that narrows it.
func (t *Table) Promote(v ir.VarID, u universe.Index) bool {
	val := t.Probe(v)
	if val.Bound || val.Universe <= u {
		return false
	}
	t.UnifyVarValue(v, Unbound(u))
	return true
}

// NormalizeShallowTy returns (bound value, true) if t is an
// InferenceVar whose representative is Bound; otherwise (t, false).
// Idempotent: a second call on the result either isn't an
// InferenceVar (returns false immediately) or, if it were, would
// already be fully resolved, since UnifyVarValue only ever stores a
// value produced by generalization (never another unresolved var).
func (t *Table) NormalizeShallowTy(term ir.Term) (ir.Term, bool) {
	iv, ok := term.(ir.InferenceVar)
	if !ok {
		return term, false
	}
	val := t.Probe(iv.Var)
	if !val.Bound {
		return term, false
	}
	return val.Arg.Ty, true
}

// NormalizeShallowLifetime is NormalizeShallowTy for lifetimes.
func (t *Table) NormalizeShallowLifetime(l ir.Lifetime) (ir.Lifetime, bool) {
	iv, ok := l.(ir.LifetimeInferenceVar)
	if !ok {
		return l, false
	}
	val := t.Probe(iv.Var)
	if !val.Bound {
		return l, false
	}
	return val.Arg.Lifetime, true
}

// NormalizeShallowConst is NormalizeShallowTy for consts.
func (t *Table) NormalizeShallowConst(c ir.Const) (ir.Const, bool) {
	iv, ok := c.(ir.ConstInferenceVar)
	if !ok {
		return c, false
	}
	val := t.Probe(iv.Var)
	if !val.Bound {
		return c, false
	}
	return val.Arg.Const, true
}
