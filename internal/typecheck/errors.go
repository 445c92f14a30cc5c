package typecheck

import (
	"fmt"
	"strings"

	"github.com/kantu-lang/corecheck/internal/term"
)

// IllegalType reports a term that was required, by some other rule, to
// classify at a universe (Type0 or Type1) but whose inferred type doesn't
// normalize to one. This also covers the one case with no other rule to
// blame it on: Type1 itself has no type, so inferring it directly is
// always illegal.
type IllegalType struct{ Expression term.Handle }

func (e *IllegalType) Error() string {
	return fmt.Sprintf("expression %d is required to be a type but isn't", e.Expression)
}

// IllegalCallee reports an application whose callee's type, after weak-head
// normalization, is neither a Pi nor an inductive type applied to fewer
// than all of its parameters.
type IllegalCallee struct {
	Callee     term.Handle
	CalleeType term.Handle
}

func (e *IllegalCallee) Error() string {
	return fmt.Sprintf("callee %d has type %d, which is not a function type", e.Callee, e.CalleeType)
}

// TypeMismatch reports an expression whose inferred type is not
// α-equivalent to the type it was checked against.
type TypeMismatch struct {
	Expression       term.Handle
	Expected, Actual term.Handle
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("expression %d has type %d, expected %d", e.Expression, e.Actual, e.Expected)
}

// WrongNumberOfArguments reports a positional call whose argument count
// doesn't match the callee's parameter count.
type WrongNumberOfArguments struct {
	Call             term.Handle
	Expected, Actual int
}

func (e *WrongNumberOfArguments) Error() string {
	return fmt.Sprintf("call %d passes %d argument(s), expected %d", e.Call, e.Actual, e.Expected)
}

// CallLabelednessMismatch reports a call that mixes labeled and positional
// arguments, or whose labeling convention doesn't match the callee's
// parameter convention at all.
type CallLabelednessMismatch struct{ Call term.Handle }

func (e *CallLabelednessMismatch) Error() string {
	return fmt.Sprintf("call %d mixes labeled and positional arguments", e.Call)
}

// ExtraneousLabeledCallArg reports a labeled call argument whose label
// names no parameter of the callee.
type ExtraneousLabeledCallArg struct {
	Call  term.Handle
	Label string
}

func (e *ExtraneousLabeledCallArg) Error() string {
	return fmt.Sprintf("call %d has no parameter labeled %q", e.Call, e.Label)
}

// MissingLabeledCallArgs reports a labeled call that omits one or more of
// the callee's labeled parameters.
type MissingLabeledCallArgs struct {
	Call   term.Handle
	Labels []string
}

func (e *MissingLabeledCallArgs) Error() string {
	return fmt.Sprintf("call %d is missing labeled argument(s): %s", e.Call, strings.Join(e.Labels, ", "))
}

// MatchCaseLabelednessMismatch reports a match case whose parameter
// bindings mix labeled and positional conventions, or whose labels don't
// line up with the matched variant's own parameter labels.
type MatchCaseLabelednessMismatch struct {
	Match     term.Handle
	CaseIndex int
}

func (e *MatchCaseLabelednessMismatch) Error() string {
	return fmt.Sprintf("match %d case %d: parameter labels don't match the variant's", e.Match, e.CaseIndex)
}

// WrongNumberOfMatchCaseParams reports a case whose bound-parameter count
// doesn't match its variant's constructor arity.
type WrongNumberOfMatchCaseParams struct {
	Match            term.Handle
	CaseIndex        int
	Expected, Actual int
}

func (e *WrongNumberOfMatchCaseParams) Error() string {
	return fmt.Sprintf("match %d case %d binds %d parameter(s), expected %d", e.Match, e.CaseIndex, e.Actual, e.Expected)
}

// MissingMatchCases reports a match that doesn't cover every variant of
// its matchee's inductive type.
type MissingMatchCases struct {
	Match        term.Handle
	VariantNames []string
}

func (e *MissingMatchCases) Error() string {
	return fmt.Sprintf("match %d is missing case(s) for: %s", e.Match, strings.Join(e.VariantNames, ", "))
}

// ExtraneousMatchCase reports a case naming a variant that doesn't belong
// to the matchee's inductive type.
type ExtraneousMatchCase struct {
	Match     term.Handle
	CaseIndex int
}

func (e *ExtraneousMatchCase) Error() string {
	return fmt.Sprintf("match %d case %d names a variant outside the matchee's type", e.Match, e.CaseIndex)
}

// DuplicateMatchCase reports a case naming a variant an earlier case in
// the same match already covers.
type DuplicateMatchCase struct {
	Match                          term.Handle
	ExistingCaseIndex, NewCaseIndex int
}

func (e *DuplicateMatchCase) Error() string {
	return fmt.Sprintf("match %d case %d duplicates case %d's variant", e.Match, e.NewCaseIndex, e.ExistingCaseIndex)
}

// AllegedlyImpossibleMatchCaseWasNotObviouslyImpossible reports a case
// marked impossible whose bound parameters the checker can't prove
// uninhabited (none of them resolves, in weak head normal form, to a
// zero-variant inductive type).
type AllegedlyImpossibleMatchCaseWasNotObviouslyImpossible struct {
	Match     term.Handle
	CaseIndex int
}

func (e *AllegedlyImpossibleMatchCaseWasNotObviouslyImpossible) Error() string {
	return fmt.Sprintf("match %d case %d is marked impossible but isn't obviously so", e.Match, e.CaseIndex)
}

// AmbiguousMatchCaseOutputType reports a match whose case output types
// can't be reconciled into one result type: either a later case disagrees
// with the type established by an earlier one, or a case's inferred type
// depends on its own bound parameters and so can't escape the match at
// all.
type AmbiguousMatchCaseOutputType struct {
	Match      term.Handle
	CaseIndex  int
	OutputType term.Handle
}

func (e *AmbiguousMatchCaseOutputType) Error() string {
	return fmt.Sprintf("match %d case %d's output type is ambiguous", e.Match, e.CaseIndex)
}

// NonAdtMatchee reports a match whose scrutinee's type doesn't resolve, in
// weak head normal form, to an inductive type.
type NonAdtMatchee struct {
	Matchee term.Handle
	Type    term.Handle
}

func (e *NonAdtMatchee) Error() string {
	return fmt.Sprintf("matchee %d has type %d, which is not an inductive type", e.Matchee, e.Type)
}

// CannotInferTypeOfEmptyMatch reports a match that yields no case output
// to infer a result type from (it has no cases, its matchee's type having
// no variants, or every case is marked impossible) and no expected type
// was supplied. A case-less match over a type with variants is reported
// as MissingMatchCases instead.
type CannotInferTypeOfEmptyMatch struct{ Match term.Handle }

func (e *CannotInferTypeOfEmptyMatch) Error() string {
	return fmt.Sprintf("match %d has no cases and no expected type to infer from", e.Match)
}

// CannotInferTypeOfTodoExpression reports a `todo` expression encountered
// in a position with no expected type to fall back on.
type CannotInferTypeOfTodoExpression struct{ Todo term.Handle }

func (e *CannotInferTypeOfTodoExpression) Error() string {
	return fmt.Sprintf("todo expression %d has no expected type to stand in for", e.Todo)
}

// UnreachableExpression is reserved for an expression in a position the
// checker can prove is never reached. Nothing in this core (which has no
// indexed/GADT-style inductives) currently proves reachability false
// without the author's own `impossible` marker, so no rule raises this
// today; it's kept in the taxonomy for the indexed types a future version
// of the surface language might add.
type UnreachableExpression struct{ Expression term.Handle }

func (e *UnreachableExpression) Error() string {
	return fmt.Sprintf("expression %d is unreachable", e.Expression)
}
