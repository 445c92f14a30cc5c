// Package pipeline drives the four core passes over one resolved program,
// in the fixed order spec.md §4.9 prescribes: Ingested → VariantReturnsOk →
// RecursionOk → PositivityOk → TypeChecked. The first error of the first
// failing pass terminates the run; warnings accumulate across passes and
// never abort one.
package pipeline

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/kantu-lang/corecheck/internal/bindctx"
	"github.com/kantu-lang/corecheck/internal/config"
	"github.com/kantu-lang/corecheck/internal/diagnostic"
	"github.com/kantu-lang/corecheck/internal/equality"
	"github.com/kantu-lang/corecheck/internal/normalize"
	"github.com/kantu-lang/corecheck/internal/positivity"
	"github.com/kantu-lang/corecheck/internal/recursion"
	"github.com/kantu-lang/corecheck/internal/resolved"
	"github.com/kantu-lang/corecheck/internal/shift"
	"github.com/kantu-lang/corecheck/internal/typecheck"
	"github.com/kantu-lang/corecheck/internal/varreturn"
)

// Stage names how far a run got. On success the final stage is
// StageTypeChecked; on failure it is the last stage that completed.
type Stage int

const (
	StageIngested Stage = iota
	StageVariantReturnsOk
	StageRecursionOk
	StagePositivityOk
	StageTypeChecked
)

func (s Stage) String() string {
	switch s {
	case StageIngested:
		return "Ingested"
	case StageVariantReturnsOk:
		return "VariantReturnsOk"
	case StageRecursionOk:
		return "RecursionOk"
	case StagePositivityOk:
		return "PositivityOk"
	case StageTypeChecked:
		return "TypeChecked"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Result is one run's outcome: either Diagnostic is nil and Table holds the
// typed output (spec.md §6.2 success shape), or Diagnostic describes the
// single failure and Table/Warnings hold whatever was produced before it.
type Result struct {
	RunID      string
	Stage      Stage
	Table      *typecheck.Table
	Warnings   []typecheck.Warning
	Diagnostic *diagnostic.Diagnostic
}

// Ok reports whether the run reached TypeChecked without a diagnostic.
func (r *Result) Ok() bool { return r.Diagnostic == nil }

var tracePass = color.New(color.FgCyan).SprintFunc()

// Run executes the full pass sequence over program. trace receives
// per-stage progress lines when cfg.TraceStages is set; pass io.Discard (or
// leave TraceStages off) to keep the core I/O-free.
func Run(program *resolved.Program, cfg *config.RunConfig, trace io.Writer) *Result {
	if cfg == nil {
		cfg = config.Default()
	}
	res := &Result{RunID: uuid.NewString(), Stage: StageIngested}

	if cfg.MaxArenaHandles > 0 && program.Arena.HandleCount() > cfg.MaxArenaHandles {
		err := fmt.Errorf("term arena holds %d handles, configured cap is %d", program.Arena.HandleCount(), cfg.MaxArenaHandles)
		res.Diagnostic = diagnostic.NewDriver(diagnostic.ENG001, err)
		return res
	}

	shifter := shift.New(program.Arena)
	ctx, err := program.BaseContext(shifter)
	if err != nil {
		res.Diagnostic = diagnostic.FromError(err)
		return res
	}
	baseLen := ctx.Len()
	nz := normalize.New(program, shifter)
	eq := equality.New(program.Arena)

	stage := func(name string) {
		if cfg.TraceStages && trace != nil {
			fmt.Fprintf(trace, "  %s %s\n", tracePass("pass"), name)
		}
	}
	balanced := func(pass string) {
		if ctx.Len() != baseLen {
			panic(fmt.Sprintf("pipeline: %s left the context at depth %d, entered at %d", pass, ctx.Len(), baseLen))
		}
	}

	stage("variant-return")
	vrErrs, err := varreturn.Validate(program, ctx, nz)
	balanced("variant-return")
	if err != nil {
		res.Diagnostic = diagnostic.FromError(err)
		return res
	}
	if len(vrErrs) > 0 {
		res.Diagnostic = diagnostic.FromError(vrErrs[0])
		return res
	}
	res.Stage = StageVariantReturnsOk

	stage("recursion")
	recErrs, err := recursion.Validate(program, ctx)
	balanced("recursion")
	if err != nil {
		res.Diagnostic = diagnostic.FromError(err)
		return res
	}
	if len(recErrs) > 0 {
		res.Diagnostic = diagnostic.FromError(recErrs[0])
		return res
	}
	res.Stage = StageRecursionOk

	stage("positivity")
	posErrs, err := positivity.Validate(program, ctx)
	balanced("positivity")
	if err != nil {
		res.Diagnostic = diagnostic.FromError(err)
		return res
	}
	for _, pe := range posErrs {
		name, _, _, _, _ := program.Arena.Inductive(pe.Inductive)
		if cfg.Allowlisted(name) {
			continue
		}
		res.Diagnostic = diagnostic.FromError(pe)
		return res
	}
	res.Stage = StagePositivityOk

	stage("typecheck")
	checker := typecheck.New(program, shifter, nz, eq)
	table, warnings, err := checker.CheckProgram(ctx)
	balanced("typecheck")
	res.Table = table
	res.Warnings = warnings
	if err != nil {
		res.Diagnostic = diagnostic.FromError(err)
		return res
	}
	res.Stage = StageTypeChecked

	stage("goals")
	goalWarnings, err := checker.CheckGoals(ctx)
	balanced("goals")
	if err != nil {
		res.Diagnostic = diagnostic.FromError(err)
		return res
	}
	res.Warnings = append(res.Warnings, goalWarnings...)

	if cfg.WarningsAsErrors && len(res.Warnings) > 0 {
		res.Diagnostic = promoteWarning(res.Warnings[0])
	}
	return res
}

// promoteWarning turns the first warning into the run's failure diagnostic
// under warnings_as_errors.
func promoteWarning(w typecheck.Warning) *diagnostic.Diagnostic {
	switch w := w.(type) {
	case typecheck.TodoExpression:
		d := diagnostic.NewDriver(diagnostic.WRN001, fmt.Errorf("%s", w.String()))
		d.Term = w.Handle
		return d
	case typecheck.GoalAssertionFailed:
		d := diagnostic.NewDriver(diagnostic.WRN002, fmt.Errorf("%s", w.String()))
		d.Expected = w.Lhs
		d.Actual = w.Rhs
		return d
	default:
		return diagnostic.NewDriver(diagnostic.WRN001, fmt.Errorf("warning promoted to error"))
	}
}

// BaseContext re-derives the context a Result's table entries are keyed
// under, for callers (the REPL's :type command) that want to keep checking
// expressions against an already verified program.
func BaseContext(program *resolved.Program) (*bindctx.Context, *shift.Shifter, error) {
	shifter := shift.New(program.Arena)
	ctx, err := program.BaseContext(shifter)
	if err != nil {
		return nil, nil, err
	}
	return ctx, shifter, nil
}
