// Package debugctx implements the scoped Debug Context: installing a
// program's name accessors as "the active one" for the duration of a
// thunk, so diagnostic rendering elsewhere in the process can resolve
// opaque ids to names without threading a Database handle through
// every String() call. Mirrors the teacher's habit of keeping
// pretty-printing context out of the core data types themselves.
//
// Per spec.md §5's concurrency model, the active context is
// conceptually thread-local (one solve, one goroutine, at a time);
// this package models that as a single mutex-guarded package-level
// slot rather than a goroutine-local map, since nothing in this
// system's scheduling model runs two solves on one goroutine
// concurrently. Installation is scoped acquisition with guaranteed
// release via defer, including on panic.
package debugctx

import (
	"fmt"
	"sync"

	"github.com/daboross/chalk/ir"
)

// DebugContext supplies the name accessors pretty-printing consults.
// program.Program satisfies this structurally (it exposes AdtName and
// TraitName with matching signatures) without debugctx importing
// program, and program does not import debugctx either.
type DebugContext interface {
	AdtName(id ir.AdtID) string
	TraitName(id ir.TraitID) string
}

var (
	mu      sync.Mutex
	current DebugContext
)

// WithProgram installs ctx as the active DebugContext for the
// duration of thunk, restoring whatever was active before on every
// exit path, including a panic unwinding through thunk.
func WithProgram(ctx DebugContext, thunk func()) {
	mu.Lock()
	previous := current
	current = ctx
	mu.Unlock()

	defer func() {
		mu.Lock()
		current = previous
		mu.Unlock()
	}()

	thunk()
}

func active() DebugContext {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// AdtName renders id's name if a DebugContext is currently installed,
// or its opaque numeric handle otherwise.
func AdtName(id ir.AdtID) string {
	if ctx := active(); ctx != nil {
		return ctx.AdtName(id)
	}
	return fmt.Sprintf("adt#%d", id)
}

// TraitName renders id's name if a DebugContext is currently
// installed, or its opaque numeric handle otherwise.
func TraitName(id ir.TraitID) string {
	if ctx := active(); ctx != nil {
		return ctx.TraitName(id)
	}
	return fmt.Sprintf("trait#%d", id)
}
