package typecheck

import (
	"testing"

	"github.com/kantu-lang/corecheck/internal/bindctx"
	"github.com/kantu-lang/corecheck/internal/equality"
	"github.com/kantu-lang/corecheck/internal/normalize"
	"github.com/kantu-lang/corecheck/internal/resolved"
	"github.com/kantu-lang/corecheck/internal/shift"
	"github.com/kantu-lang/corecheck/internal/term"
	"github.com/stretchr/testify/require"
)

// harness bundles everything a test needs to drive a Checker over one
// hand-built program, mirroring resolved.Program's own test style.
type harness struct {
	t       *testing.T
	a       *term.Arena
	p       *resolved.Program
	s       *shift.Shifter
	nz      *normalize.Normalizer
	eq      *equality.Checker
	checker *Checker
	ctx     *bindctx.Context
}

func newHarness(t *testing.T, a *term.Arena, files []resolved.File) *harness {
	t.Helper()
	p := resolved.Build(a, files)
	s := shift.New(a)
	ctx, err := p.BaseContext(s)
	require.NoError(t, err)
	nz := normalize.New(p, s)
	eq := equality.New(a)
	return &harness{t: t, a: a, p: p, s: s, nz: nz, eq: eq, checker: New(p, s, nz, eq), ctx: ctx}
}

func (h *harness) checkProgram() (*Table, []Warning, error) {
	return h.checker.CheckProgram(h.ctx)
}

// natAndIdentity declares:
//
//	inductive Nat { O : Nat, S : (n : Nat) -> Nat }
//	def two : Nat = S(S(O))
//	def identity : (x : Nat) -> Nat = \x -> x
//
// Declaration records are authored under the full prelude (spec.md §6.1):
// 2 universe slots plus one slot per prelude entry in declaration order —
// Nat (level 2), O (3), S (4), two (5), identity (6) — so the base depth
// is 7 and every record's indices are relative to that, plus whatever
// local binders the record itself introduces.
func natAndIdentity(t *testing.T) (*term.Arena, []resolved.File) {
	t.Helper()
	a := term.NewArena()

	nat := a.DeclareInductive("Nat", nil, term.VisibilityUnmarked)

	// O : Nat. Nat (level 2) from depth 7 is index 4.
	oReturn, err := a.InternName(4)
	require.NoError(t, err)

	// S : (n : Nat) -> Nat. n's type sees depth 7 (index 4 = Nat); the
	// return sees depth 8 once n itself is pushed (index 5 = Nat).
	sParamType, err := a.InternName(4)
	require.NoError(t, err)
	sReturn, err := a.InternName(5)
	require.NoError(t, err)
	sParams, err := a.InternPi([]term.Param{{Type: sParamType}}, sReturn)
	require.NoError(t, err)

	a.SetVariants(nat, []term.Variant{
		{Name: "O", ReturnType: oReturn},
		{Name: "S", Params: a.Get(sParams).Params, ReturnType: a.Get(sParams).Output},
	})

	// two : Nat = S(S(O)). From depth 7, O (level 3) is index 3 and S
	// (level 4) is index 2.
	twoDefType, err := a.InternName(4)
	require.NoError(t, err)
	oRef, err := a.InternName(3)
	require.NoError(t, err)
	sRef, err := a.InternName(2)
	require.NoError(t, err)
	sOnce, err := a.InternApp(sRef, []term.Arg{{Value: oRef}})
	require.NoError(t, err)
	sTwice, err := a.InternApp(sRef, []term.Arg{{Value: sOnce}})
	require.NoError(t, err)
	twoHandle := a.DeclareDefinition("two", twoDefType, sTwice, term.VisibilityUnmarked, nil)

	// identity : (x : Nat) -> Nat = \x -> x. Nat is at level 2: index 4
	// from the base depth, index 5 once x is pushed (for the Pi/Lambda
	// output); x itself is index 1 once the Lambda's implicit self-binder
	// is also pushed.
	identParamType, err := a.InternName(4)
	require.NoError(t, err)
	identOutput, err := a.InternName(5)
	require.NoError(t, err)
	identDefType, err := a.InternPi([]term.Param{{Type: identParamType}}, identOutput)
	require.NoError(t, err)

	lamParamType, err := a.InternName(4)
	require.NoError(t, err)
	lamOutput, err := a.InternName(5)
	require.NoError(t, err)
	xRef, err := a.InternName(1)
	require.NoError(t, err)
	lambda, err := a.InternLambda([]term.Param{{Type: lamParamType}}, lamOutput, xRef, term.NoDecreasingParam)
	require.NoError(t, err)
	identHandle := a.DeclareDefinition("identity", identDefType, lambda, term.VisibilityUnmarked, nil)

	files := []resolved.File{{ID: "nat.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclInductiveType, Handle: nat},
		{Kind: term.DeclDefinition, Handle: twoHandle},
		{Kind: term.DeclDefinition, Handle: identHandle},
	}}}
	return a, files
}

func TestCheckProgramAcceptsNatAndIdentity(t *testing.T) {
	a, files := natAndIdentity(t)
	h := newHarness(t, a, files)
	table, warnings, err := h.checkProgram()
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, table.Definitions, 2)
}

func TestInferAppSubstitutesArgumentIntoOutput(t *testing.T) {
	a, files := natAndIdentity(t)
	h := newHarness(t, a, files)
	_, _, err := h.checkProgram()
	require.NoError(t, err)

	// identity(two) : Nat, called from a fresh top-level expression so the
	// context is exactly BaseContext (identity is at level 6, two at level
	// 5; both referenced at depth 7, the base context's full length).
	identRef, err := a.InternName(0)
	require.NoError(t, err)
	twoRef, err := a.InternName(1)
	require.NoError(t, err)
	call, err := a.InternApp(identRef, []term.Arg{{Value: twoRef}})
	require.NoError(t, err)

	typ, err := h.checker.Infer(h.ctx, call)
	require.NoError(t, err)
	require.Equal(t, term.KindName, a.Get(typ).Kind, "identity(two) should infer to Nat's own prelude slot")
}

// genericProgram declares nothing but the two universe slots, for tests
// whose fixtures don't need any inductive type at all.
func genericProgram(t *testing.T) (*term.Arena, []resolved.File) {
	t.Helper()
	a := term.NewArena()
	return a, nil
}

func TestCheckRejectsTypeMismatch(t *testing.T) {
	a, files := genericProgram(t)
	h := newHarness(t, a, files)

	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)

	// Type0's type is Type1, not Type0 itself.
	err = h.checker.Check(h.ctx, t0, t0)
	var mismatch *TypeMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestInferUniverseRejectsType1(t *testing.T) {
	a, files := genericProgram(t)
	h := newHarness(t, a, files)

	t1, err := a.InternUniverse(term.Type1)
	require.NoError(t, err)

	_, err = h.checker.Infer(h.ctx, t1)
	var illegal *IllegalType
	require.ErrorAs(t, err, &illegal)
}

func TestInferAppRejectsNonFunctionCallee(t *testing.T) {
	a, files := genericProgram(t)
	h := newHarness(t, a, files)

	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	call, err := a.InternApp(t0, nil)
	require.NoError(t, err)

	_, err = h.checker.Infer(h.ctx, call)
	var illegal *IllegalCallee
	require.ErrorAs(t, err, &illegal)
}

func TestInferAppRejectsWrongNumberOfArguments(t *testing.T) {
	a, files := genericProgram(t)
	h := newHarness(t, a, files)

	// (x : Type0) -> Type0, applied to zero arguments.
	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	pi, err := a.InternPi([]term.Param{{Type: t0}}, t0)
	require.NoError(t, err)
	lambda, err := a.InternLambda([]term.Param{{Type: t0}}, t0, func() term.Handle {
		xRef, _ := a.InternName(1) // x, beneath the implicit self-binder
		return xRef
	}(), term.NoDecreasingParam)
	require.NoError(t, err)
	_ = pi

	call, err := a.InternApp(lambda, nil)
	require.NoError(t, err)

	_, err = h.checker.Infer(h.ctx, call)
	var wrong *WrongNumberOfArguments
	require.ErrorAs(t, err, &wrong)
}

func TestInferAppRejectsMixedCallLabeling(t *testing.T) {
	a, files := genericProgram(t)
	h := newHarness(t, a, files)

	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	xRef, err := a.InternName(1)
	require.NoError(t, err)
	lambda, err := a.InternLambda(
		[]term.Param{{Label: term.SomeLabel("a"), Type: t0}, {Type: t0}},
		t0, xRef, term.NoDecreasingParam,
	)
	require.NoError(t, err)

	call, err := a.InternApp(lambda, []term.Arg{
		{Label: term.SomeLabel("a"), Value: t0},
		{Value: t0},
	})
	require.NoError(t, err)

	_, err = h.checker.Infer(h.ctx, call)
	var mismatch *CallLabelednessMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestInferAppRejectsMissingLabeledArg(t *testing.T) {
	a, files := genericProgram(t)
	h := newHarness(t, a, files)

	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	xRef, err := a.InternName(1)
	require.NoError(t, err)
	lambda, err := a.InternLambda(
		[]term.Param{{Label: term.SomeLabel("a"), Type: t0}},
		t0, xRef, term.NoDecreasingParam,
	)
	require.NoError(t, err)

	call, err := a.InternApp(lambda, nil)
	require.NoError(t, err)

	_, err = h.checker.Infer(h.ctx, call)
	var missing *MissingLabeledCallArgs
	require.ErrorAs(t, err, &missing)
	require.Equal(t, []string{"a"}, missing.Labels)
}

func TestInferAppRejectsExtraneousLabeledArg(t *testing.T) {
	a, files := genericProgram(t)
	h := newHarness(t, a, files)

	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	xRef, err := a.InternName(1)
	require.NoError(t, err)
	lambda, err := a.InternLambda(
		[]term.Param{{Label: term.SomeLabel("a"), Type: t0}},
		t0, xRef, term.NoDecreasingParam,
	)
	require.NoError(t, err)

	call, err := a.InternApp(lambda, []term.Arg{
		{Label: term.SomeLabel("a"), Value: t0},
		{Label: term.SomeLabel("b"), Value: t0},
	})
	require.NoError(t, err)

	_, err = h.checker.Infer(h.ctx, call)
	var extra *ExtraneousLabeledCallArg
	require.ErrorAs(t, err, &extra)
}

// boolProgram declares just `inductive Bool { True : Bool, False : Bool }`,
// for match-exhaustiveness tests that don't need Nat's recursive shape.
// Prelude slots end up as Bool (level 2), True (level 3), False (level 4);
// BaseContext's full length is 5.
func boolProgram(t *testing.T) (*term.Arena, []resolved.File, term.DeclHandle) {
	t.Helper()
	a := term.NewArena()
	b := a.DeclareInductive("Bool", nil, term.VisibilityUnmarked)
	boolRef, err := a.InternName(2) // Bool (level 2) from the base depth of 5
	require.NoError(t, err)
	a.SetVariants(b, []term.Variant{
		{Name: "True", ReturnType: boolRef},
		{Name: "False", ReturnType: boolRef},
	})
	files := []resolved.File{{ID: "bool.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclInductiveType, Handle: b},
	}}}
	return a, files, b
}

func TestInferMatchAcceptsExhaustiveCases(t *testing.T) {
	a := term.NewArena()
	b := a.DeclareInductive("Bool", nil, term.VisibilityUnmarked)

	// def flip : Bool -> Bool = \x -> match x { True -> False, False -> True }
	// The base prelude here is Bool (2), True (3), False (4), flip (5):
	// base depth 6, which is what every record below is authored against —
	// boolProgram's fixtures can't be reused, they assume no definition
	// slot after False.
	boolForVariants, err := a.InternName(3) // Bool (level 2), depth 6
	require.NoError(t, err)
	a.SetVariants(b, []term.Variant{
		{Name: "True", ReturnType: boolForVariants},
		{Name: "False", ReturnType: boolForVariants},
	})
	boolAtParamDepth, err := a.InternName(3) // Bool (level 2), depth 6
	require.NoError(t, err)
	boolAtOutputDepth, err := a.InternName(4) // Bool (level 2), depth 7 (x pushed)
	require.NoError(t, err)

	// Inside the body: x (depth 8, level 6) is index 1; True (level 3) and
	// False (level 4) are indices 4 and 3 respectively.
	scrutinee, err := a.InternName(1)
	require.NoError(t, err)
	falseRef, err := a.InternName(3)
	require.NoError(t, err)
	trueRef, err := a.InternName(4)
	require.NoError(t, err)
	match, err := a.InternMatch(scrutinee, []term.Case{
		{Variant: term.VariantRef{Inductive: b, VariantIndex: 0}, Output: falseRef},
		{Variant: term.VariantRef{Inductive: b, VariantIndex: 1}, Output: trueRef},
	})
	require.NoError(t, err)
	lambda, err := a.InternLambda([]term.Param{{Type: boolAtParamDepth}}, boolAtOutputDepth, match, term.NoDecreasingParam)
	require.NoError(t, err)
	defType, err := a.InternPi([]term.Param{{Type: boolAtParamDepth}}, boolAtOutputDepth)
	require.NoError(t, err)
	flip := a.DeclareDefinition("flip", defType, lambda, term.VisibilityUnmarked, nil)

	files := []resolved.File{{ID: "bool.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclInductiveType, Handle: b},
		{Kind: term.DeclDefinition, Handle: flip},
	}}}
	h := newHarness(t, a, files)
	_, _, err = h.checkProgram()
	require.NoError(t, err)
}

func TestInferMatchRejectsMissingCase(t *testing.T) {
	a, files, b := boolProgram(t)
	h := newHarness(t, a, files)

	// True (level 3), referenced as a Bool-typed scrutinee at top-level
	// depth 5: index 1.
	trueAsValue, err := a.InternName(1)
	require.NoError(t, err)
	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	match, err := a.InternMatch(trueAsValue, []term.Case{
		{Variant: term.VariantRef{Inductive: b, VariantIndex: 0}, Output: t0},
	})
	require.NoError(t, err)

	_, err = h.checker.Infer(h.ctx, match)
	var missing *MissingMatchCases
	require.ErrorAs(t, err, &missing)
	require.Equal(t, []string{"False"}, missing.VariantNames)
}

func TestInferMatchRejectsDuplicateCase(t *testing.T) {
	a, files, b := boolProgram(t)
	h := newHarness(t, a, files)

	trueAsValue, err := a.InternName(1)
	require.NoError(t, err)
	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	match, err := a.InternMatch(trueAsValue, []term.Case{
		{Variant: term.VariantRef{Inductive: b, VariantIndex: 0}, Output: t0},
		{Variant: term.VariantRef{Inductive: b, VariantIndex: 0}, Output: t0},
	})
	require.NoError(t, err)

	_, err = h.checker.Infer(h.ctx, match)
	var dup *DuplicateMatchCase
	require.ErrorAs(t, err, &dup)
}

func TestInferMatchRejectsExtraneousCase(t *testing.T) {
	a, files, b := boolProgram(t)
	h := newHarness(t, a, files)

	trueAsValue, err := a.InternName(1)
	require.NoError(t, err)
	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	match, err := a.InternMatch(trueAsValue, []term.Case{
		{Variant: term.VariantRef{Inductive: b, VariantIndex: 0}, Output: t0},
		{Variant: term.VariantRef{Inductive: b, VariantIndex: 7}, Output: t0},
	})
	require.NoError(t, err)

	_, err = h.checker.Infer(h.ctx, match)
	var extra *ExtraneousMatchCase
	require.ErrorAs(t, err, &extra)
}

func TestInferMatchRejectsNonAdtMatchee(t *testing.T) {
	a, files := genericProgram(t)
	h := newHarness(t, a, files)

	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	match, err := a.InternMatch(t0, nil)
	require.NoError(t, err)

	_, err = h.checker.Infer(h.ctx, match)
	var nonAdt *NonAdtMatchee
	require.ErrorAs(t, err, &nonAdt)
}

func TestInferMatchRejectsLabelMismatch(t *testing.T) {
	a, files := term.NewArena(), []resolved.File(nil)
	nat := a.DeclareInductive("Nat", nil, term.VisibilityUnmarked)
	// Base prelude: Nat (2), O (3), S (4); base depth 5.
	sParamType, err := a.InternName(2)
	require.NoError(t, err)
	sReturn, err := a.InternName(3)
	require.NoError(t, err)
	sParams, err := a.InternPi([]term.Param{{Label: term.SomeLabel("pred"), Type: sParamType}}, sReturn)
	require.NoError(t, err)
	oReturn, err := a.InternName(2)
	require.NoError(t, err)
	a.SetVariants(nat, []term.Variant{
		{Name: "O", ReturnType: oReturn},
		{Name: "S", Params: a.Get(sParams).Params, ReturnType: a.Get(sParams).Output},
	})
	files = []resolved.File{{ID: "nat.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclInductiveType, Handle: nat},
	}}}
	h := newHarness(t, a, files)

	// O is at level 3; at the full base-context depth (5: 2 universes + Nat,
	// O, S), referencing it as a Nat-typed scrutinee value is index 1.
	oAsValue, err := a.InternName(1)
	require.NoError(t, err)
	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	match, err := a.InternMatch(oAsValue, []term.Case{
		{Variant: term.VariantRef{Inductive: nat, VariantIndex: 0}, Output: t0},
		{
			Variant: term.VariantRef{Inductive: nat, VariantIndex: 1},
			// unlabeled binding against a labeled variant parameter.
			Params: func() term.ParamList {
				pi, _ := a.InternPi([]term.Param{{Type: 0}}, t0)
				return a.Get(pi).Params
			}(),
			Output: t0,
		},
	})
	require.NoError(t, err)

	_, err = h.checker.Infer(h.ctx, match)
	var mismatch *MatchCaseLabelednessMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestCheckGoalsReportsFailedAssertion(t *testing.T) {
	a := term.NewArena()

	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	t1, err := a.InternUniverse(term.Type1)
	require.NoError(t, err)
	body, err := a.InternTodo()
	require.NoError(t, err)
	bogus := a.DeclareDefinition("bogus", t1, body, term.VisibilityUnmarked, []term.GoalAssertion{
		{Lhs: t0, Rhs: t1},
	})

	files := []resolved.File{{ID: "goal.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclDefinition, Handle: bogus},
	}}}
	h := newHarness(t, a, files)
	warnings, err := h.checker.CheckGoals(h.ctx)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.IsType(t, GoalAssertionFailed{}, warnings[0])
}

func TestCheckAcceptsTodoAgainstAnyExpectedType(t *testing.T) {
	a, files := genericProgram(t)
	h := newHarness(t, a, files)

	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	todo, err := a.InternTodo()
	require.NoError(t, err)

	err = h.checker.Check(h.ctx, todo, t0)
	require.NoError(t, err)
	require.Len(t, h.checker.warnings, 1)
	require.IsType(t, TodoExpression{}, h.checker.warnings[0])
}
