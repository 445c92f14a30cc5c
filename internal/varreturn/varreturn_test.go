package varreturn

import (
	"testing"

	"github.com/kantu-lang/corecheck/internal/normalize"
	"github.com/kantu-lang/corecheck/internal/resolved"
	"github.com/kantu-lang/corecheck/internal/shift"
	"github.com/kantu-lang/corecheck/internal/term"
	"github.com/stretchr/testify/require"
)

// buildBoxProgram declares:
//
//	inductive Box(A : Type0) { MkBox : (x : A) -> Box(A) }
//
// with the variant's return type supplied by the caller, so different tests
// can exercise different (valid or invalid) declared return shapes. At the
// point the variant's return type and its own parameter's type are
// evaluated, the context is: 2 universe slots, Box's own inductive slot
// (level 2), MkBox's constructor slot (level 3), A (level 4, Box's own
// parameter), x (level 5, MkBox's own parameter) — so depth while checking
// the return type is 6, and the reference to Box from there is index 3
// (6-2-1) and the reference to A is index 1 (6-4-1).
func buildBoxProgram(t *testing.T, mkReturnType func(a *term.Arena) term.Handle) (*term.Arena, *resolved.Program, *shift.Shifter) {
	t.Helper()
	a := term.NewArena()
	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)

	box := a.DeclareInductive("Box", []term.Param{{Type: t0}}, term.VisibilityUnmarked)

	xParamType, err := a.InternName(0) // A, seen from inside MkBox's own param list
	require.NoError(t, err)
	paramsCarrier, err := a.InternPi([]term.Param{{Type: xParamType}}, xParamType)
	require.NoError(t, err)
	variantParams := a.Get(paramsCarrier).Params

	a.SetVariants(box, []term.Variant{
		{Name: "MkBox", Params: variantParams, ReturnType: mkReturnType(a)},
	})

	files := []resolved.File{{ID: "box.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclInductiveType, Handle: box},
	}}}
	p := resolved.Build(a, files)
	s := shift.New(a)
	return a, p, s
}

func runValidate(t *testing.T, a *term.Arena, p *resolved.Program, s *shift.Shifter) []*IllegalVariantReturnType {
	t.Helper()
	ctx, err := p.BaseContext(s)
	require.NoError(t, err)
	baseLen := ctx.Len()
	nz := normalize.New(p, s)

	errs, err := Validate(p, ctx, nz)
	require.NoError(t, err)
	require.Equal(t, baseLen, ctx.Len(), "Validate must leave the context balanced")
	return errs
}

func TestValidateAcceptsWellFormedVariantReturnType(t *testing.T) {
	a, p, s := buildBoxProgram(t, func(a *term.Arena) term.Handle {
		boxRef, _ := a.InternName(3)
		aRef, _ := a.InternName(1)
		h, _ := a.InternApp(boxRef, []term.Arg{{Value: aRef}})
		return h
	})
	errs := runValidate(t, a, p, s)
	require.Empty(t, errs)
}

func TestValidateRejectsBareReferenceWhenApplicationExpected(t *testing.T) {
	a, p, s := buildBoxProgram(t, func(a *term.Arena) term.Handle {
		boxRef, _ := a.InternName(3)
		return boxRef // not applied at all, but Box takes one parameter
	})
	errs := runValidate(t, a, p, s)
	require.Len(t, errs, 1)
	require.Equal(t, NotAnApplication, errs[0].Reason)
}

func TestValidateRejectsWrongArity(t *testing.T) {
	a, p, s := buildBoxProgram(t, func(a *term.Arena) term.Handle {
		boxRef, _ := a.InternName(3)
		h, _ := a.InternApp(boxRef, nil) // Box applied to zero args, needs one
		return h
	})
	errs := runValidate(t, a, p, s)
	require.Len(t, errs, 1)
	require.Equal(t, WrongArity, errs[0].Reason)
}

func TestValidateRejectsWrongHead(t *testing.T) {
	a, p, s := buildBoxProgram(t, func(a *term.Arena) term.Handle {
		aRef, _ := a.InternName(1) // A, not Box, used as the callee
		otherArg, _ := a.InternName(1)
		h, _ := a.InternApp(aRef, []term.Arg{{Value: otherArg}})
		return h
	})
	errs := runValidate(t, a, p, s)
	require.Len(t, errs, 1)
	require.Equal(t, WrongHead, errs[0].Reason)
}

func TestValidateRejectsWrongParameterReference(t *testing.T) {
	a, p, s := buildBoxProgram(t, func(a *term.Arena) term.Handle {
		boxRef, _ := a.InternName(3)
		wrongArg, _ := a.InternName(0) // x itself, not A
		h, _ := a.InternApp(boxRef, []term.Arg{{Value: wrongArg}})
		return h
	})
	errs := runValidate(t, a, p, s)
	require.Len(t, errs, 1)
	require.Equal(t, WrongParameter, errs[0].Reason)
	require.Equal(t, 0, errs[0].ParamIndex)
}
