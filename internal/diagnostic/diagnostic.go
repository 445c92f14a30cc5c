package diagnostic

import (
	"encoding/json"
	"errors"

	"github.com/kantu-lang/corecheck/internal/positivity"
	"github.com/kantu-lang/corecheck/internal/recursion"
	"github.com/kantu-lang/corecheck/internal/shift"
	"github.com/kantu-lang/corecheck/internal/term"
	"github.com/kantu-lang/corecheck/internal/typecheck"
	"github.com/kantu-lang/corecheck/internal/varreturn"
)

// SchemaV1 versions the JSON shape of a Diagnostic, so downstream tools
// can detect incompatible changes.
const SchemaV1 = "corecheck.diagnostic/v1"

// Diagnostic is the single failure record the pipeline surfaces on error
// (spec.md §6.2): the code, the pass that raised it, a rendered message,
// the offending term handle, and optional expected/actual handles.
type Diagnostic struct {
	Schema  string `json:"schema"`
	Code    string `json:"code"`
	Phase   string `json:"phase"`
	Message string `json:"message"`

	// Term is the offending term handle, 0 when the failure isn't anchored
	// to a specific term (decode and configuration errors).
	Term     term.Handle `json:"term,omitempty"`
	Expected term.Handle `json:"expected,omitempty"`
	Actual   term.Handle `json:"actual,omitempty"`

	// Data carries per-code structured fields (variant index, missing
	// labels, ...) so tools don't have to re-parse Message.
	Data map[string]any `json:"data,omitempty"`
}

// Error makes a Diagnostic usable as a plain error at the driver boundary.
func (d *Diagnostic) Error() string {
	return d.Code + ": " + d.Message
}

// ToJSON renders the diagnostic as indented JSON with deterministic key
// order (encoding/json sorts map keys, struct fields keep declaration
// order), satisfying spec.md §8.4's byte-identical-failure requirement.
func (d *Diagnostic) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

func base(code string, err error) *Diagnostic {
	return &Diagnostic{
		Schema:  SchemaV1,
		Code:    code,
		Phase:   Lookup(code).Phase,
		Message: err.Error(),
	}
}

// FromError maps any error raised by the core passes to its Diagnostic.
// Unrecognized errors get the engineering phase and no code-specific data;
// they indicate a bug in the mapping, not in the input.
func FromError(err error) *Diagnostic {
	var (
		vr       *varreturn.IllegalVariantReturnType
		rec      *recursion.IllegalFunRecursion
		pos      *positivity.NegativeOccurrence
		under    *shift.ErrIndexUnderflow
		arenaErr *term.ErrHandleSpaceExhausted
	)
	switch {
	case errors.As(err, &vr):
		d := base(TC101, err)
		d.Data = map[string]any{
			"inductive": vr.Inductive,
			"variant":   vr.VariantIndex,
			"reason":    vr.Reason.String(),
		}
		if vr.Reason == varreturn.WrongParameter {
			d.Data["parameter"] = vr.ParamIndex
		}
		return d

	case errors.As(err, &rec):
		d := base(TC201, err)
		d.Term = rec.Handle
		d.Data = map[string]any{"kind": rec.Kind.String()}
		return d

	case errors.As(err, &pos):
		d := base(TC301, err)
		d.Term = pos.Handle
		d.Data = map[string]any{
			"inductive": pos.Inductive,
			"variant":   pos.VariantIndex,
			"parameter": pos.ParamIndex,
		}
		return d

	case errors.As(err, &under):
		return base(ENG002, err)

	case errors.As(err, &arenaErr):
		return base(ENG001, err)
	}

	if d := fromTypecheckError(err); d != nil {
		return d
	}

	d := base("ERR000", err)
	d.Phase = PhaseEngineering
	return d
}

func fromTypecheckError(err error) *Diagnostic {
	var (
		illegalType   *typecheck.IllegalType
		illegalCallee *typecheck.IllegalCallee
		mismatch      *typecheck.TypeMismatch
		wrongArgs     *typecheck.WrongNumberOfArguments
		callLabels    *typecheck.CallLabelednessMismatch
		extraLabel    *typecheck.ExtraneousLabeledCallArg
		missingLabels *typecheck.MissingLabeledCallArgs
		caseLabels    *typecheck.MatchCaseLabelednessMismatch
		wrongParams   *typecheck.WrongNumberOfMatchCaseParams
		missingCases  *typecheck.MissingMatchCases
		extraCase     *typecheck.ExtraneousMatchCase
		dupCase       *typecheck.DuplicateMatchCase
		notImpossible *typecheck.AllegedlyImpossibleMatchCaseWasNotObviouslyImpossible
		ambiguous     *typecheck.AmbiguousMatchCaseOutputType
		nonAdt        *typecheck.NonAdtMatchee
		emptyMatch    *typecheck.CannotInferTypeOfEmptyMatch
		todo          *typecheck.CannotInferTypeOfTodoExpression
		unreachable   *typecheck.UnreachableExpression
	)
	switch {
	case errors.As(err, &illegalType):
		d := base(TC401, err)
		d.Term = illegalType.Expression
		return d
	case errors.As(err, &illegalCallee):
		d := base(TC402, err)
		d.Term = illegalCallee.Callee
		d.Actual = illegalCallee.CalleeType
		return d
	case errors.As(err, &mismatch):
		d := base(TC403, err)
		d.Term = mismatch.Expression
		d.Expected = mismatch.Expected
		d.Actual = mismatch.Actual
		return d
	case errors.As(err, &wrongArgs):
		d := base(TC404, err)
		d.Term = wrongArgs.Call
		d.Data = map[string]any{"expected": wrongArgs.Expected, "actual": wrongArgs.Actual}
		return d
	case errors.As(err, &callLabels):
		d := base(TC405, err)
		d.Term = callLabels.Call
		return d
	case errors.As(err, &extraLabel):
		d := base(TC406, err)
		d.Term = extraLabel.Call
		d.Data = map[string]any{"label": extraLabel.Label}
		return d
	case errors.As(err, &missingLabels):
		d := base(TC407, err)
		d.Term = missingLabels.Call
		d.Data = map[string]any{"labels": missingLabels.Labels}
		return d
	case errors.As(err, &caseLabels):
		d := base(TC408, err)
		d.Term = caseLabels.Match
		d.Data = map[string]any{"case": caseLabels.CaseIndex}
		return d
	case errors.As(err, &wrongParams):
		d := base(TC409, err)
		d.Term = wrongParams.Match
		d.Data = map[string]any{"case": wrongParams.CaseIndex, "expected": wrongParams.Expected, "actual": wrongParams.Actual}
		return d
	case errors.As(err, &missingCases):
		d := base(TC410, err)
		d.Term = missingCases.Match
		d.Data = map[string]any{"variant_names": missingCases.VariantNames}
		return d
	case errors.As(err, &extraCase):
		d := base(TC411, err)
		d.Term = extraCase.Match
		d.Data = map[string]any{"case": extraCase.CaseIndex}
		return d
	case errors.As(err, &dupCase):
		d := base(TC412, err)
		d.Term = dupCase.Match
		d.Data = map[string]any{"existing": dupCase.ExistingCaseIndex, "new": dupCase.NewCaseIndex}
		return d
	case errors.As(err, &notImpossible):
		d := base(TC413, err)
		d.Term = notImpossible.Match
		d.Data = map[string]any{"case": notImpossible.CaseIndex}
		return d
	case errors.As(err, &ambiguous):
		d := base(TC414, err)
		d.Term = ambiguous.Match
		d.Actual = ambiguous.OutputType
		d.Data = map[string]any{"case": ambiguous.CaseIndex}
		return d
	case errors.As(err, &nonAdt):
		d := base(TC415, err)
		d.Term = nonAdt.Matchee
		d.Actual = nonAdt.Type
		return d
	case errors.As(err, &emptyMatch):
		d := base(TC416, err)
		d.Term = emptyMatch.Match
		return d
	case errors.As(err, &todo):
		d := base(TC417, err)
		d.Term = todo.Todo
		return d
	case errors.As(err, &unreachable):
		d := base(TC418, err)
		d.Term = unreachable.Expression
		return d
	}
	return nil
}

// NewDriver wraps a decode or configuration failure that happened before
// any core pass ran.
func NewDriver(code string, err error) *Diagnostic {
	return base(code, err)
}
