// Package diagnostic provides the structured diagnostic layer wrapped
// around the core passes: a flat error-code taxonomy, a registry mapping
// each code to its pass and description, a JSON encoder for the single
// failure record the pipeline surfaces (spec.md §6.2), and a human-readable
// renderer.
package diagnostic

// Error codes, one per error kind in spec.md §7, grouped by the pass that
// raises them. The numbering is stable: tools downstream of the CLI key off
// these strings, never off Go type names.
const (
	// Variant-return validation (C5)
	TC101 = "TC101" // IllegalVariantReturnType

	// Recursion validation (C6)
	TC201 = "TC201" // IllegalFunRecursion

	// Positivity validation (C7)
	TC301 = "TC301" // NegativeOccurrence

	// Type checking (C9)
	TC401 = "TC401" // IllegalType
	TC402 = "TC402" // IllegalCallee
	TC403 = "TC403" // TypeMismatch
	TC404 = "TC404" // WrongNumberOfArguments
	TC405 = "TC405" // CallLabelednessMismatch
	TC406 = "TC406" // ExtraneousLabeledCallArg
	TC407 = "TC407" // MissingLabeledCallArgs
	TC408 = "TC408" // MatchCaseLabelednessMismatch
	TC409 = "TC409" // WrongNumberOfMatchCaseParams
	TC410 = "TC410" // MissingMatchCases
	TC411 = "TC411" // ExtraneousMatchCase
	TC412 = "TC412" // DuplicateMatchCase
	TC413 = "TC413" // AllegedlyImpossibleMatchCaseWasNotObviouslyImpossible
	TC414 = "TC414" // AmbiguousMatchCaseOutputType
	TC415 = "TC415" // NonAdtMatchee
	TC416 = "TC416" // CannotInferTypeOfEmptyMatch
	TC417 = "TC417" // CannotInferTypeOfTodoExpression
	TC418 = "TC418" // UnreachableExpression

	// Warnings promoted to errors by configuration
	WRN001 = "WRN001" // TodoExpression under warnings_as_errors
	WRN002 = "WRN002" // GoalAssertionFailed under warnings_as_errors

	// Engineering limits (any pass)
	ENG001 = "ENG001" // term arena handle space exhausted
	ENG002 = "ENG002" // De Bruijn index underflow on downshift

	// Driver-level problems (input decoding, configuration)
	DRV001 = "DRV001" // resolved-AST decode failure
	DRV002 = "DRV002" // invalid run configuration
)

// Info describes one registered code.
type Info struct {
	Code        string
	Phase       string
	Description string
}

// Phases, matching the pipeline's stage names.
const (
	PhaseVariantReturn = "variant-return"
	PhaseRecursion     = "recursion"
	PhasePositivity    = "positivity"
	PhaseTypecheck     = "typecheck"
	PhaseEngineering   = "engineering"
	PhaseDriver        = "driver"
)

var registry = map[string]Info{
	TC101: {TC101, PhaseVariantReturn, "variant's declared return type is not its inductive applied to the type parameters in order"},
	TC201: {TC201, PhaseRecursion, "recursive reference violates the structural-decrease policy"},
	TC301: {TC301, PhasePositivity, "inductive type occurs negatively in one of its own constructors"},

	TC401: {TC401, PhaseTypecheck, "expression required to be a type does not classify at a universe"},
	TC402: {TC402, PhaseTypecheck, "callee's type is not a function type"},
	TC403: {TC403, PhaseTypecheck, "inferred type is not equivalent to the expected type"},
	TC404: {TC404, PhaseTypecheck, "call passes the wrong number of positional arguments"},
	TC405: {TC405, PhaseTypecheck, "call mixes labeled and positional arguments, or its convention contradicts the callee's"},
	TC406: {TC406, PhaseTypecheck, "labeled call argument names no parameter of the callee"},
	TC407: {TC407, PhaseTypecheck, "labeled call omits one or more of the callee's parameters"},
	TC408: {TC408, PhaseTypecheck, "match case parameter labels do not line up with the variant's"},
	TC409: {TC409, PhaseTypecheck, "match case binds the wrong number of parameters for its variant"},
	TC410: {TC410, PhaseTypecheck, "match does not cover every variant of the matchee's type"},
	TC411: {TC411, PhaseTypecheck, "match case names a variant outside the matchee's type"},
	TC412: {TC412, PhaseTypecheck, "match case duplicates a variant an earlier case covers"},
	TC413: {TC413, PhaseTypecheck, "case marked impossible cannot be proven uninhabited"},
	TC414: {TC414, PhaseTypecheck, "match case output types cannot be reconciled into one result type"},
	TC415: {TC415, PhaseTypecheck, "matchee's type is not an inductive type"},
	TC416: {TC416, PhaseTypecheck, "empty match has no expected type to infer from"},
	TC417: {TC417, PhaseTypecheck, "todo expression has no expected type to stand in for"},
	TC418: {TC418, PhaseTypecheck, "expression is unreachable"},

	WRN001: {WRN001, PhaseTypecheck, "todo expression rejected because warnings are promoted to errors"},
	WRN002: {WRN002, PhaseTypecheck, "failed goal assertion rejected because warnings are promoted to errors"},

	ENG001: {ENG001, PhaseEngineering, "term arena handle space exhausted"},
	ENG002: {ENG002, PhaseEngineering, "De Bruijn index underflow on downshift"},

	DRV001: {DRV001, PhaseDriver, "resolved AST could not be decoded"},
	DRV002: {DRV002, PhaseDriver, "run configuration is invalid"},
}

// Lookup returns the registered Info for a code. Unknown codes get a
// synthetic entry rather than a failure, so rendering never compounds one
// error with another.
func Lookup(code string) Info {
	if info, ok := registry[code]; ok {
		return info
	}
	return Info{Code: code, Phase: "unknown", Description: "unregistered diagnostic code"}
}
