package typecheck

import (
	"fmt"

	"github.com/kantu-lang/corecheck/internal/term"
)

// Warning is a diagnostic that doesn't block type checking from
// succeeding. Unlike the error types in errors.go, a program may carry any
// number of these.
type Warning interface{ isWarning() }

// TodoExpression reports a `todo` placeholder the checker accepted by
// coercing it to an expected type, per spec.md §4.9.
type TodoExpression struct{ Handle term.Handle }

func (TodoExpression) isWarning() {}

func (w TodoExpression) String() string {
	return fmt.Sprintf("todo expression %d", w.Handle)
}

// GoalAssertionFailed reports a declared goal assertion (SPEC_FULL.md
// §4.2) whose two sides didn't normalize to α-equivalent terms. It's
// diagnostic only — goal assertions document an author's expectation, they
// don't gate TypeChecked status.
type GoalAssertionFailed struct{ Lhs, Rhs term.Handle }

func (GoalAssertionFailed) isWarning() {}

func (w GoalAssertionFailed) String() string {
	return fmt.Sprintf("goal assertion failed: %d is not equivalent to %d", w.Lhs, w.Rhs)
}
