package recursion

import (
	"testing"

	"github.com/kantu-lang/corecheck/internal/resolved"
	"github.com/kantu-lang/corecheck/internal/shift"
	"github.com/kantu-lang/corecheck/internal/term"
	"github.com/stretchr/testify/require"
)

// caseParamList builds a ParamList of n case-parameter placeholders (Type
// left at its zero value, per the "borrows the variant's types" convention
// documented on term.Param). The validator only needs the right arity; the
// throwaway Pi used to mint the list is discarded.
func caseParamList(t *testing.T, a *term.Arena, n int) term.ParamList {
	t.Helper()
	pi, err := a.InternPi(make([]term.Param, n), 0)
	require.NoError(t, err)
	return a.Get(pi).Params
}

// buildDefProgram wraps a single top-level definition in a one-file resolved
// program and returns it with a shifter, from which runValidate builds the
// base context Validate needs. Since recursion
// validation only inspects the shape of Lambda/Match/App nodes (never
// resolving a Name against the inductive/variant it's supposed to name), no
// inductive declarations are needed to exercise it.
func buildDefProgram(t *testing.T, a *term.Arena, def term.DeclHandle) (*resolved.Program, *shift.Shifter) {
	t.Helper()
	files := []resolved.File{{ID: "f.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclDefinition, Handle: def},
	}}}
	p := resolved.Build(a, files)
	s := shift.New(a)
	return p, s
}

func runValidate(t *testing.T, p *resolved.Program, s *shift.Shifter) []*IllegalFunRecursion {
	t.Helper()
	ctx, err := p.BaseContext(s)
	require.NoError(t, err)
	baseLen := ctx.Len()

	errs, err := Validate(p, ctx)
	require.NoError(t, err)
	require.Equal(t, baseLen, ctx.Len(), "Validate must leave the context balanced")
	return errs
}

// TestValidateAcceptsStructurallyDecreasingRecursion builds:
//
//	fun loop(n : todo) : todo [decreasing 0] {
//	  match n { case0 => todo, case1(m) => loop(m) }
//	}
//
// The recursive call passes m, the case's own constructor parameter (a
// strict substruct of the matchee n), at the declared decreasing position —
// exactly what MustCallWithSubstruct requires.
func TestValidateAcceptsStructurallyDecreasingRecursion(t *testing.T) {
	a := term.NewArena()
	todo, err := a.InternTodo()
	require.NoError(t, err)

	// Body context, innermost out: self(0), n(1). The self-binder itself is
	// never referenced bare in this test, only via selfRefInCase below.
	nRef, err := a.InternName(1)
	require.NoError(t, err)

	// Inside the one-param recursive case: self(1), n(2), m(0).
	selfRefInCase, err := a.InternName(1)
	require.NoError(t, err)
	mRef, err := a.InternName(0)
	require.NoError(t, err)
	recCall, err := a.InternApp(selfRefInCase, []term.Arg{{Value: mRef}})
	require.NoError(t, err)

	body, err := a.InternMatch(nRef, []term.Case{
		{Params: caseParamList(t, a, 0), Output: todo},
		{Params: caseParamList(t, a, 1), Output: recCall},
	})
	require.NoError(t, err)

	lam, err := a.InternLambda([]term.Param{{Type: todo}}, todo, body, 0)
	require.NoError(t, err)

	def := a.DeclareDefinition("loop", todo, lam, term.VisibilityUnmarked, nil)
	p, s := buildDefProgram(t, a, def)

	require.Empty(t, runValidate(t, p, s))
}

// TestValidateRejectsCallOnNonRecursiveBinder builds:
//
//	fun f(n : todo) : todo { f(n) }
//
// f declares no decreasing parameter, so its self-binder carries
// CannotCall; calling it at all is illegal regardless of the argument.
func TestValidateRejectsCallOnNonRecursiveBinder(t *testing.T) {
	a := term.NewArena()
	todo, err := a.InternTodo()
	require.NoError(t, err)

	selfRef, err := a.InternName(0)
	require.NoError(t, err)
	nRef, err := a.InternName(1)
	require.NoError(t, err)
	body, err := a.InternApp(selfRef, []term.Arg{{Value: nRef}})
	require.NoError(t, err)

	lam, err := a.InternLambda([]term.Param{{Type: todo}}, todo, body, term.NoDecreasingParam)
	require.NoError(t, err)

	def := a.DeclareDefinition("f", todo, lam, term.VisibilityUnmarked, nil)
	p, s := buildDefProgram(t, a, def)

	errs := runValidate(t, p, s)
	require.Len(t, errs, 1)
	require.Equal(t, CallOnNonRecursiveBinder, errs[0].Kind)
}

// TestValidateRejectsSelfReferenceOutsideCallee builds:
//
//	fun f(n : todo) : todo [decreasing 0] { n(f) }
//
// f's self-binder is passed as a plain argument, never called, which is
// illegal no matter what restriction it carries.
func TestValidateRejectsSelfReferenceOutsideCallee(t *testing.T) {
	a := term.NewArena()
	todo, err := a.InternTodo()
	require.NoError(t, err)

	selfRef, err := a.InternName(0)
	require.NoError(t, err)
	nRef, err := a.InternName(1)
	require.NoError(t, err)
	body, err := a.InternApp(nRef, []term.Arg{{Value: selfRef}})
	require.NoError(t, err)

	lam, err := a.InternLambda([]term.Param{{Type: todo}}, todo, body, 0)
	require.NoError(t, err)

	def := a.DeclareDefinition("f", todo, lam, term.VisibilityUnmarked, nil)
	p, s := buildDefProgram(t, a, def)

	errs := runValidate(t, p, s)
	require.Len(t, errs, 1)
	require.Equal(t, SelfReferenceOutsideCallee, errs[0].Kind)
}
