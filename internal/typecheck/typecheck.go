// Package typecheck implements bidirectional type checking with
// normalization-by-evaluation (C9): the last stage of the pipeline, run
// only once C5 (variant returns), C6 (recursion) and C7 (positivity) have
// all passed. It checks every declared definition's body against its
// declared type, infers the type of every other expression it encounters
// along the way, and records both outcomes (plus any warnings) in a Table.
package typecheck

import (
	"sort"

	"github.com/kantu-lang/corecheck/internal/bindctx"
	"github.com/kantu-lang/corecheck/internal/equality"
	"github.com/kantu-lang/corecheck/internal/normalize"
	"github.com/kantu-lang/corecheck/internal/resolved"
	"github.com/kantu-lang/corecheck/internal/shift"
	"github.com/kantu-lang/corecheck/internal/term"
)

// ExprKey identifies one typed sub-expression: a term handle together with
// the context depth it was checked under, since the same interned handle
// can denote different bound variables at different depths.
type ExprKey struct {
	Handle term.Handle
	CtxLen int
}

// Table is the output of a successful (or partially successful, up to the
// first error) run: the normal-form type of every definition and every
// sub-expression the checker assigned a type to, plus each definition's
// carried visibility.
type Table struct {
	Definitions map[term.DeclHandle]term.Handle
	Visibility  map[term.DeclHandle]term.Visibility
	Expressions map[ExprKey]term.Handle
}

func newTable() *Table {
	return &Table{
		Definitions: make(map[term.DeclHandle]term.Handle),
		Visibility:  make(map[term.DeclHandle]term.Visibility),
		Expressions: make(map[ExprKey]term.Handle),
	}
}

// Checker holds the C3-C8 components C9 coordinates.
type Checker struct {
	program *resolved.Program
	arena   *term.Arena
	shifter *shift.Shifter
	nz      *normalize.Normalizer
	eq      *equality.Checker

	table    *Table
	warnings []Warning
}

// New creates a Checker over a fully assembled program, sharing the
// shifter, normalizer and equality checker the rest of the pipeline
// already built (so their memoization caches carry over).
func New(program *resolved.Program, shifter *shift.Shifter, nz *normalize.Normalizer, eq *equality.Checker) *Checker {
	return &Checker{program: program, arena: program.Arena, shifter: shifter, nz: nz, eq: eq}
}

// CheckProgram type-checks every inductive declaration's own
// well-formedness (its parameter and variant types must all classify at a
// universe) and every definition's body against its declared type, in
// file/declaration order. It stops at the first error, per spec.md §4.9's
// failure semantics, returning whatever partial Table and warnings were
// produced up to that point alongside the error.
//
// ctx must be the program's base context; CheckProgram pushes and pops its
// own working entries on top of it and leaves it exactly as found on both
// success and failure.
func (c *Checker) CheckProgram(ctx *bindctx.Context) (*Table, []Warning, error) {
	c.table = newTable()
	c.warnings = nil

	for i := 0; i < c.arena.NumInductives(); i++ {
		if err := c.checkInductive(ctx, term.DeclHandle(i)); err != nil {
			return c.table, c.warnings, err
		}
	}

	for _, f := range c.program.Files {
		for _, d := range f.Decls {
			if d.Kind != term.DeclDefinition {
				continue
			}
			if err := c.checkDefinition(ctx, d.Handle); err != nil {
				return c.table, c.warnings, err
			}
		}
	}

	return c.table, c.warnings, nil
}

// CheckGoals evaluates every definition's declared goal assertions
// (SPEC_FULL.md §4.2) and returns one GoalAssertionFailed warning per goal
// whose two sides don't normalize to α-equivalent terms. It's meant to run
// after CheckProgram has succeeded, since it relies on every definition
// already being well-typed for its goals to even make sense.
func (c *Checker) CheckGoals(ctx *bindctx.Context) ([]Warning, error) {
	var warnings []Warning
	for i := 0; i < c.arena.NumDefinitions(); i++ {
		_, _, _, _, goals := c.arena.Definition(term.DeclHandle(i))
		for _, g := range goals {
			lhs, err := c.nz.Normalize(ctx, g.Lhs)
			if err != nil {
				return warnings, err
			}
			rhs, err := c.nz.Normalize(ctx, g.Rhs)
			if err != nil {
				return warnings, err
			}
			if !c.eq.Equal(lhs, rhs, ctx.Len()) {
				warnings = append(warnings, GoalAssertionFailed{Lhs: g.Lhs, Rhs: g.Rhs})
			}
		}
	}
	return warnings, nil
}

// declaredType fetches a prelude slot's own installed type, re-shifted to
// the current depth via ctx.TypeOf rather than read raw off the arena, so
// the result stays valid however deep the checker currently is.
func (c *Checker) declaredType(ctx *bindctx.Context, level int) (term.Handle, error) {
	return ctx.TypeOf(ctx.LevelToIndex(level))
}

// checkInductive verifies an inductive declaration's own well-formedness:
// every parameter annotation of the type constructor, and every parameter
// annotation plus the return type of each value constructor, must classify
// at a universe. The constructor slot types BaseContext installed already
// bundle the inductive's parameters ahead of the variant's own, so each
// slot is checked as one self-contained telescope.
func (c *Checker) checkInductive(ctx *bindctx.Context, h term.DeclHandle) error {
	_, _, _, variants, _ := c.arena.Inductive(h)

	indLevel, ok := c.program.LevelOfInductive(h)
	if !ok {
		panic("typecheck: inductive has no prelude slot")
	}
	indType, err := c.declaredType(ctx, indLevel)
	if err != nil {
		return err
	}
	// The type constructor's output is Type1 by construction, which nothing
	// classifies; only its parameter annotations are checked.
	if node := c.arena.Get(indType); node.Kind == term.KindPi {
		if err := c.checkTelescope(ctx, node.Params, 0); err != nil {
			return err
		}
	}

	for vi := range variants {
		vLevel, _ := c.program.LevelOfVariant(h, vi)
		vType, err := c.declaredType(ctx, vLevel)
		if err != nil {
			return err
		}
		node := c.arena.Get(vType)
		if node.Kind != term.KindPi {
			if _, err := c.sortOf(ctx, vType); err != nil {
				return err
			}
			continue
		}
		if err := c.checkTelescope(ctx, node.Params, node.Output); err != nil {
			return err
		}
	}
	return nil
}

// checkTelescope pushes a parameter list one entry at a time, requiring
// each annotation (and finally output, when nonzero) to classify at a
// universe, and pops everything before returning.
func (c *Checker) checkTelescope(ctx *bindctx.Context, pl term.ParamList, output term.Handle) error {
	pushed := 0
	for _, pt := range c.arena.Params(pl) {
		if _, err := c.sortOf(ctx, pt.Type); err != nil {
			ctx.Pop(pushed)
			return err
		}
		ctx.Push(pt.Type, false, 0, bindctx.Uninterpreted{})
		pushed++
	}
	var err error
	if output != 0 {
		_, err = c.sortOf(ctx, output)
	}
	ctx.Pop(pushed)
	return err
}

func (c *Checker) checkDefinition(ctx *bindctx.Context, h term.DeclHandle) error {
	_, _, _, vis, _ := c.arena.Definition(h)

	defLevel, ok := c.program.LevelOfDefinition(h)
	if !ok {
		panic("typecheck: definition has no prelude slot")
	}
	idx := ctx.LevelToIndex(defLevel)

	typ, err := ctx.TypeOf(idx)
	if err != nil {
		return err
	}
	if _, err := c.sortOf(ctx, typ); err != nil {
		return err
	}
	normalizedType, err := c.nz.Normalize(ctx, typ)
	if err != nil {
		return err
	}

	body, _, err := ctx.DefinitionOf(idx)
	if err != nil {
		return err
	}
	if err := c.Check(ctx, body, normalizedType); err != nil {
		return err
	}
	c.table.Definitions[h] = normalizedType
	c.table.Visibility[h] = vis
	return nil
}

// sortOf infers h's type and requires it to normalize to a universe
// literal, returning which one. Used wherever a rule requires a term to
// itself be a type (a Pi/Lambda parameter annotation, a declared return
// type, a declared definition type).
func (c *Checker) sortOf(ctx *bindctx.Context, h term.Handle) (term.Universe, error) {
	t, err := c.Infer(ctx, h)
	if err != nil {
		return 0, err
	}
	wh, err := c.nz.WeakHeadNormalize(ctx, t)
	if err != nil {
		return 0, err
	}
	n := c.arena.Get(wh)
	if n.Kind != term.KindUniverse {
		return 0, &IllegalType{Expression: h}
	}
	return n.Universe, nil
}

// Infer synthesizes h's type under ctx, recording the result in the
// current Table (if any) before returning it.
func (c *Checker) Infer(ctx *bindctx.Context, h term.Handle) (term.Handle, error) {
	n := c.arena.Get(h)

	var result term.Handle
	var err error
	switch n.Kind {
	case term.KindUniverse:
		result, err = c.inferUniverse(h, n)
	case term.KindName:
		result, err = c.inferName(ctx, n)
	case term.KindPi:
		result, err = c.inferPi(ctx, n)
	case term.KindLambda:
		result, err = c.inferLambda(ctx, h, n)
	case term.KindApp:
		result, err = c.inferApp(ctx, h, n)
	case term.KindMatch:
		result, err = c.inferMatch(ctx, h, n, nil)
	case term.KindTodo:
		return 0, &CannotInferTypeOfTodoExpression{Todo: h}
	default:
		panic("typecheck: unhandled term kind")
	}
	if err != nil {
		return 0, err
	}
	c.record(ctx, h, result)
	return result, nil
}

// Check verifies h against expected (already a normal-form type under
// ctx). `todo` and `match` get bespoke treatment so that an expected type
// can flow down into them; everything else falls back to inferring h and
// requiring the result be α-equivalent to expected.
func (c *Checker) Check(ctx *bindctx.Context, h, expected term.Handle) error {
	n := c.arena.Get(h)
	switch n.Kind {
	case term.KindTodo:
		c.warnings = append(c.warnings, TodoExpression{Handle: h})
		c.record(ctx, h, expected)
		return nil

	case term.KindMatch:
		_, err := c.inferMatch(ctx, h, n, &expected)
		return err

	default:
		actual, err := c.Infer(ctx, h)
		if err != nil {
			return err
		}
		if !c.eq.Equal(actual, expected, ctx.Len()) {
			return &TypeMismatch{Expression: h, Expected: expected, Actual: actual}
		}
		return nil
	}
}

func (c *Checker) record(ctx *bindctx.Context, h, typ term.Handle) {
	if c.table == nil {
		return
	}
	c.table.Expressions[ExprKey{Handle: h, CtxLen: ctx.Len()}] = typ
}

func (c *Checker) inferUniverse(h term.Handle, n term.Node) (term.Handle, error) {
	if n.Universe == term.Type1 {
		return 0, &IllegalType{Expression: h}
	}
	return c.arena.InternUniverse(term.Type1)
}

func (c *Checker) inferName(ctx *bindctx.Context, n term.Node) (term.Handle, error) {
	typ, err := ctx.TypeOf(n.Index)
	if err != nil {
		return 0, err
	}
	return c.nz.Normalize(ctx, typ)
}

// inferPi requires each parameter's annotation, and the output, to
// classify at a universe; the Pi's own type is Type0 if every one of those
// components does, else Type1.
func (c *Checker) inferPi(ctx *bindctx.Context, n term.Node) (term.Handle, error) {
	params := c.arena.Params(n.Params)
	allType0 := true

	pushed := 0
	for _, p := range params {
		sort, err := c.sortOf(ctx, p.Type)
		if err != nil {
			ctx.Pop(pushed)
			return 0, err
		}
		if sort != term.Type0 {
			allType0 = false
		}
		ctx.Push(p.Type, false, 0, bindctx.Uninterpreted{})
		pushed++
	}

	outSort, err := c.sortOf(ctx, n.Output)
	ctx.Pop(pushed)
	if err != nil {
		return 0, err
	}
	if outSort != term.Type0 {
		allType0 = false
	}

	u := term.Type1
	if allType0 {
		u = term.Type0
	}
	return c.arena.InternUniverse(u)
}

// inferLambda requires each parameter's annotation and the declared return
// type to classify at a universe, then checks the body (under the
// implicit self-reference binder spec.md §9 describes) against the
// declared return type. The Lambda's own type is the Pi built from the
// same parameters and the (normalized) declared return type.
func (c *Checker) inferLambda(ctx *bindctx.Context, h term.Handle, n term.Node) (term.Handle, error) {
	params := c.arena.Params(n.Params)

	pushed := 0
	for _, p := range params {
		if _, err := c.sortOf(ctx, p.Type); err != nil {
			ctx.Pop(pushed)
			return 0, err
		}
		ctx.Push(p.Type, false, 0, bindctx.Uninterpreted{})
		pushed++
	}

	if _, err := c.sortOf(ctx, n.Output); err != nil {
		ctx.Pop(pushed)
		return 0, err
	}
	normalizedReturn, err := c.nz.Normalize(ctx, n.Output)
	if err != nil {
		ctx.Pop(pushed)
		return 0, err
	}

	selfType, err := c.arena.InternPi(append([]term.Param(nil), params...), normalizedReturn)
	if err != nil {
		ctx.Pop(pushed)
		return 0, err
	}
	// The Pi just built is valid at the depth the lambda itself sits at;
	// the self binder goes in above the parameters, so its stored type has
	// to be re-based past them.
	selfType, err = c.shifter.Upshift(selfType, pushed, 0)
	if err != nil {
		ctx.Pop(pushed)
		return 0, err
	}

	restriction := c.restrictionFor(ctx, n, pushed)
	ctx.Push(selfType, false, 0, bindctx.FunSelf{Restriction: restriction})

	expectedBody, err := c.shifter.Upshift(normalizedReturn, 1, 0)
	if err != nil {
		ctx.Pop(pushed + 1)
		return 0, err
	}

	if err := c.Check(ctx, n.Body, expectedBody); err != nil {
		ctx.Pop(pushed + 1)
		return 0, err
	}
	ctx.Pop(pushed + 1)

	return c.arena.InternPi(append([]term.Param(nil), params...), normalizedReturn)
}

// restrictionFor derives the self-binder restriction C6 would have used,
// purely so the classifier pushed here is consistent with the rest of the
// codebase's convention (C9 doesn't re-validate recursion; C6 already did,
// as an earlier pipeline stage over the same declarations).
func (c *Checker) restrictionFor(ctx *bindctx.Context, n term.Node, arity int) bindctx.Restriction {
	if n.DecreasingParam == term.NoDecreasingParam {
		return bindctx.CannotCall{}
	}
	index := arity - 1 - n.DecreasingParam
	level := ctx.IndexToLevel(index)
	return bindctx.MustCallWithSubstruct{ParentLevel: level, ArgPosition: n.DecreasingParam}
}

// inferApp requires the callee's type to weak-head-normalize to a Pi, then
// matches and progressively substitutes call arguments into each
// remaining parameter type before checking the corresponding argument
// against it, finally substituting every argument into the Pi's output.
func (c *Checker) inferApp(ctx *bindctx.Context, h term.Handle, n term.Node) (term.Handle, error) {
	calleeType, err := c.Infer(ctx, n.Callee)
	if err != nil {
		return 0, err
	}
	wh, err := c.nz.WeakHeadNormalize(ctx, calleeType)
	if err != nil {
		return 0, err
	}
	piNode := c.arena.Get(wh)
	if piNode.Kind != term.KindPi {
		return 0, &IllegalCallee{Callee: n.Callee, CalleeType: calleeType}
	}

	params := c.arena.Params(piNode.Params)
	args := c.arena.ArgsOf(n.Args)

	ordered, err := c.orderCallArgs(h, params, args)
	if err != nil {
		return 0, err
	}

	values := make([]term.Handle, len(ordered))
	for i, p := range params {
		paramType := p.Type
		if i > 0 {
			paramType, err = c.nz.Subst(paramType, reversed(values[:i]))
			if err != nil {
				return 0, err
			}
		}
		paramType, err = c.nz.Normalize(ctx, paramType)
		if err != nil {
			return 0, err
		}
		if err := c.Check(ctx, ordered[i], paramType); err != nil {
			return 0, err
		}
		values[i] = ordered[i]
	}

	outputType := piNode.Output
	if len(values) > 0 {
		outputType, err = c.nz.Subst(outputType, reversed(values))
		if err != nil {
			return 0, err
		}
	}
	return c.nz.Normalize(ctx, outputType)
}

// orderCallArgs validates a call's labeling convention against the
// callee's parameters and returns the argument values reordered into
// parameter-positional order.
func (c *Checker) orderCallArgs(call term.Handle, params []term.Param, args []term.Arg) ([]term.Handle, error) {
	if len(args) == 0 {
		if len(params) != 0 && params[0].Label.Set {
			var missing []string
			for _, p := range params {
				missing = append(missing, p.Label.Name)
			}
			return nil, &MissingLabeledCallArgs{Call: call, Labels: missing}
		}
		if len(params) != 0 {
			return nil, &WrongNumberOfArguments{Call: call, Expected: len(params), Actual: 0}
		}
		return nil, nil
	}

	labeled := args[0].Label.Set
	for _, a := range args {
		if a.Label.Set != labeled {
			return nil, &CallLabelednessMismatch{Call: call}
		}
	}

	if !labeled {
		if len(args) != len(params) {
			return nil, &WrongNumberOfArguments{Call: call, Expected: len(params), Actual: len(args)}
		}
		out := make([]term.Handle, len(args))
		for i, a := range args {
			out[i] = a.Value
		}
		return out, nil
	}

	byLabel := make(map[string]term.Handle, len(args))
	for _, a := range args {
		byLabel[a.Label.Name] = a.Value
	}

	out := make([]term.Handle, len(params))
	var missing []string
	consumed := make(map[string]bool, len(params))
	for i, p := range params {
		if !p.Label.Set {
			return nil, &CallLabelednessMismatch{Call: call}
		}
		v, ok := byLabel[p.Label.Name]
		if !ok {
			missing = append(missing, p.Label.Name)
			continue
		}
		out[i] = v
		consumed[p.Label.Name] = true
	}
	if len(missing) > 0 {
		return nil, &MissingLabeledCallArgs{Call: call, Labels: missing}
	}
	for _, a := range args {
		if !consumed[a.Label.Name] {
			return nil, &ExtraneousLabeledCallArg{Call: call, Label: a.Label.Name}
		}
	}
	return out, nil
}

// inferMatch checks a match's scrutinee resolves to an inductive type,
// validates its cases cover that type's variants exactly once, and infers
// (or, when expected is non-nil, checks) each case's output, reconciling
// them into one result type.
func (c *Checker) inferMatch(ctx *bindctx.Context, h term.Handle, n term.Node, expected *term.Handle) (term.Handle, error) {
	scrutineeType, err := c.Infer(ctx, n.Scrutinee)
	if err != nil {
		return 0, err
	}
	wh, err := c.nz.WeakHeadNormalize(ctx, scrutineeType)
	if err != nil {
		return 0, err
	}
	ind, typeArgs, ok := c.nz.InductiveHeadOf(ctx, wh)
	if !ok {
		return 0, &NonAdtMatchee{Matchee: n.Scrutinee, Type: scrutineeType}
	}
	_, numParams, _, variants, _ := c.arena.Inductive(ind)
	if len(typeArgs) != numParams {
		// A partially applied inductive head is not a matchable type.
		return 0, &NonAdtMatchee{Matchee: n.Scrutinee, Type: scrutineeType}
	}

	cases := c.arena.CasesOf(n.Cases)
	if len(cases) == 0 {
		if len(variants) == 0 {
			if expected != nil {
				return *expected, nil
			}
			return 0, &CannotInferTypeOfEmptyMatch{Match: h}
		}
		return 0, &MissingMatchCases{Match: h, VariantNames: variantNames(variants, nil)}
	}

	seen := make(map[int]int, len(cases))
	haveOutput := expected != nil
	var outputType term.Handle
	if haveOutput {
		outputType = *expected
	}

	for ci, cs := range cases {
		if cs.Variant.Inductive != ind || cs.Variant.VariantIndex < 0 || cs.Variant.VariantIndex >= len(variants) {
			return 0, &ExtraneousMatchCase{Match: h, CaseIndex: ci}
		}
		if prior, dup := seen[cs.Variant.VariantIndex]; dup {
			return 0, &DuplicateMatchCase{Match: h, ExistingCaseIndex: prior, NewCaseIndex: ci}
		}
		seen[cs.Variant.VariantIndex] = ci

		variant := variants[cs.Variant.VariantIndex]
		variantParams := c.arena.Params(variant.Params)
		caseParams := c.arena.Params(cs.Params)
		if len(caseParams) != len(variantParams) {
			return 0, &WrongNumberOfMatchCaseParams{Match: h, CaseIndex: ci, Expected: len(variantParams), Actual: len(caseParams)}
		}
		if err := c.checkCaseLabels(h, ci, variantParams, caseParams); err != nil {
			return 0, err
		}

		pushed, perr := c.pushSpecializedCaseParams(ctx, cs.Variant, len(variantParams), typeArgs)
		if perr != nil {
			return 0, perr
		}

		if cs.Impossible {
			possible, perr := c.caseObviouslyImpossible(ctx, pushed)
			ctx.Pop(pushed)
			if perr != nil {
				return 0, perr
			}
			if !possible {
				return 0, &AllegedlyImpossibleMatchCaseWasNotObviouslyImpossible{Match: h, CaseIndex: ci}
			}
			continue
		}

		if haveOutput {
			shiftedExpected, serr := c.shifter.Upshift(outputType, pushed, 0)
			if serr != nil {
				ctx.Pop(pushed)
				return 0, serr
			}
			cerr := c.Check(ctx, cs.Output, shiftedExpected)
			ctx.Pop(pushed)
			if cerr != nil {
				if tm, ok := cerr.(*TypeMismatch); ok && expected == nil && tm.Expression == cs.Output {
					return 0, &AmbiguousMatchCaseOutputType{Match: h, CaseIndex: ci, OutputType: tm.Actual}
				}
				return 0, cerr
			}
			continue
		}

		caseType, ierr := c.Infer(ctx, cs.Output)
		if ierr != nil {
			ctx.Pop(pushed)
			return 0, ierr
		}
		downshifted, derr := c.shifter.Downshift(caseType, pushed, 0)
		ctx.Pop(pushed)
		if derr != nil {
			return 0, &AmbiguousMatchCaseOutputType{Match: h, CaseIndex: ci, OutputType: caseType}
		}
		outputType = downshifted
		haveOutput = true
	}

	if len(seen) != len(variants) {
		return 0, &MissingMatchCases{Match: h, VariantNames: variantNames(variants, seen)}
	}

	if !haveOutput {
		return 0, &CannotInferTypeOfEmptyMatch{Match: h}
	}
	return outputType, nil
}

func (c *Checker) checkCaseLabels(h term.Handle, ci int, variantParams, caseParams []term.Param) error {
	if len(caseParams) == 0 {
		return nil
	}
	labeled := caseParams[0].Label.Set
	for _, cp := range caseParams {
		if cp.Label.Set != labeled {
			return &MatchCaseLabelednessMismatch{Match: h, CaseIndex: ci}
		}
	}
	if !labeled {
		for _, vp := range variantParams {
			if vp.Label.Set {
				return &MatchCaseLabelednessMismatch{Match: h, CaseIndex: ci}
			}
		}
		return nil
	}
	for i, cp := range caseParams {
		if !variantParams[i].Label.Set || cp.Label.Name != variantParams[i].Label.Name {
			return &MatchCaseLabelednessMismatch{Match: h, CaseIndex: ci}
		}
	}
	return nil
}

// pushSpecializedCaseParams enters a match case's constructor-parameter
// bindings. The constructor slot's telescope binds the inductive's
// parameters ahead of the variant's own, so each variant-parameter type is
// rebased to the current depth and has the scrutinee's type arguments (and
// the already-pushed case binders) substituted for the telescope prefix
// before being pushed — the "specialized by the scrutinee's type arguments"
// step of the match rule.
func (c *Checker) pushSpecializedCaseParams(ctx *bindctx.Context, ref term.VariantRef, q int, typeArgs []term.Handle) (int, error) {
	if q == 0 {
		return 0, nil
	}
	level, ok := c.program.LevelOfVariant(ref.Inductive, ref.VariantIndex)
	if !ok {
		panic("typecheck: variant has no prelude slot")
	}
	slotType, err := c.declaredType(ctx, level)
	if err != nil {
		return 0, err
	}
	slotParams := c.arena.Params(c.arena.Get(slotType).Params)
	p := len(slotParams) - q

	pushed := 0
	fail := func(err error) (int, error) {
		ctx.Pop(pushed)
		return 0, err
	}
	for j := 0; j < q; j++ {
		// slotParams[p+j].Type sits under p+j telescope binders above the
		// depth slotType was read at; rebase it past the j case binders
		// pushed so far, then substitute the telescope prefix away.
		rebased, err := c.shifter.Upshift(slotParams[p+j].Type, j, p+j)
		if err != nil {
			return fail(err)
		}
		replacements := make([]term.Handle, 0, p+j)
		for m := 0; m < j; m++ {
			nm, err := c.arena.InternName(m)
			if err != nil {
				return fail(err)
			}
			replacements = append(replacements, nm)
		}
		for i := p - 1; i >= 0; i-- {
			shifted, err := c.shifter.Upshift(typeArgs[i], j, 0)
			if err != nil {
				return fail(err)
			}
			replacements = append(replacements, shifted)
		}
		specialized := rebased
		if len(replacements) > 0 {
			specialized, err = c.nz.Subst(rebased, replacements)
			if err != nil {
				return fail(err)
			}
		}
		ctx.Push(specialized, false, 0, bindctx.Uninterpreted{})
		pushed++
	}
	return pushed, nil
}

// caseObviouslyImpossible reports whether any of a case's (already pushed)
// constructor parameter types resolves, in weak head normal form, to an
// inductive type with no variants at all — the one shape of vacuousness
// this non-indexed core can detect without a general unification oracle.
func (c *Checker) caseObviouslyImpossible(ctx *bindctx.Context, pushed int) (bool, error) {
	for i := 0; i < pushed; i++ {
		typ, err := ctx.TypeOf(i)
		if err != nil {
			return false, err
		}
		wh, err := c.nz.WeakHeadNormalize(ctx, typ)
		if err != nil {
			return false, err
		}
		ind, _, ok := c.nz.InductiveHeadOf(ctx, wh)
		if !ok {
			continue
		}
		_, _, _, variants, _ := c.arena.Inductive(ind)
		if len(variants) == 0 {
			return true, nil
		}
	}
	return false, nil
}

// variantNames lists the variants of an inductive not covered by seen (or
// all of them, if seen is nil), sorted for deterministic diagnostics.
func variantNames(variants []term.Variant, seen map[int]int) []string {
	var names []string
	for vi, v := range variants {
		if seen != nil {
			if _, ok := seen[vi]; ok {
				continue
			}
		}
		names = append(names, v.Name)
	}
	sort.Strings(names)
	return names
}

// reversed returns a fresh copy of vs in reverse order, matching subst's
// convention that replacements[0] stands for the innermost binder (the
// last-supplied argument value).
func reversed(vs []term.Handle) []term.Handle {
	out := make([]term.Handle, len(vs))
	for i, v := range vs {
		out[len(vs)-1-i] = v
	}
	return out
}
