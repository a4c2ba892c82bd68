package relate

import (
	"errors"
	"fmt"
)

// ErrNoSolution is returned whenever two terms cannot be related under
// any variance: mismatched constructors, incompatible inference-var
// kinds, or concrete values that simply differ.
var ErrNoSolution = errors.New("relate: no solution")

func noSolution(a, b fmt.Stringer) error {
	return fmt.Errorf("%w: %s vs %s", ErrNoSolution, a, b)
}

func noSolutionf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNoSolution}, args...)...)
}
