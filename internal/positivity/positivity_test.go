package positivity

import (
	"testing"

	"github.com/kantu-lang/corecheck/internal/resolved"
	"github.com/kantu-lang/corecheck/internal/shift"
	"github.com/kantu-lang/corecheck/internal/term"
	"github.com/stretchr/testify/require"
)

func runValidate(t *testing.T, a *term.Arena, files []resolved.File) []*NegativeOccurrence {
	t.Helper()
	p := resolved.Build(a, files)
	s := shift.New(a)
	ctx, err := p.BaseContext(s)
	require.NoError(t, err)
	baseLen := ctx.Len()

	errs, err := Validate(p, ctx)
	require.NoError(t, err)
	require.Equal(t, baseLen, ctx.Len(), "Validate must leave the context balanced")
	return errs
}

// TestValidateAcceptsPlainRecursion builds:
//
//	inductive Nat { O : Nat, S : (pred : Nat) -> Nat }
//
// S's parameter mentions Nat, but never to the left of an arrow. Prelude:
// Nat (level 2), O (3), S (4); base depth 5.
func TestValidateAcceptsPlainRecursion(t *testing.T) {
	a := term.NewArena()
	nat := a.DeclareInductive("Nat", nil, term.VisibilityUnmarked)

	natAtBase, err := a.InternName(2)
	require.NoError(t, err)
	natUnderOne, err := a.InternName(3)
	require.NoError(t, err)
	sPi, err := a.InternPi([]term.Param{{Label: term.SomeLabel("pred"), Type: natAtBase}}, natUnderOne)
	require.NoError(t, err)
	a.SetVariants(nat, []term.Variant{
		{Name: "O", ReturnType: natAtBase},
		{Name: "S", Params: a.Get(sPi).Params, ReturnType: a.Get(sPi).Output},
	})

	files := []resolved.File{{ID: "nat.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclInductiveType, Handle: nat},
	}}}
	require.Empty(t, runValidate(t, a, files))
}

// TestValidateAcceptsOccurrenceRightOfArrow builds:
//
//	inductive Stream { Mk : (f : Type0 -> Stream) -> Stream }
//
// Stream occurs inside a function parameter's type, but only in the
// codomain — a strictly positive position.
func TestValidateAcceptsOccurrenceRightOfArrow(t *testing.T) {
	a := term.NewArena()
	stream := a.DeclareInductive("Stream", nil, term.VisibilityUnmarked)

	// Prelude: Stream (2), Mk (3); base depth 4.
	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	streamUnderOne, err := a.InternName(2) // Stream from depth 5 (one binder in)
	require.NoError(t, err)
	arrow, err := a.InternPi([]term.Param{{Type: t0}}, streamUnderOne)
	require.NoError(t, err)
	mkPi, err := a.InternPi([]term.Param{{Label: term.SomeLabel("f"), Type: arrow}}, streamUnderOne)
	require.NoError(t, err)
	a.SetVariants(stream, []term.Variant{
		{Name: "Mk", Params: a.Get(mkPi).Params, ReturnType: a.Get(mkPi).Output},
	})

	files := []resolved.File{{ID: "stream.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclInductiveType, Handle: stream},
	}}}
	require.Empty(t, runValidate(t, a, files))
}

// TestValidateRejectsOccurrenceLeftOfArrow builds spec.md §8's S3:
//
//	inductive Bad { B : (x : Bad -> Bad) -> Bad }
func TestValidateRejectsOccurrenceLeftOfArrow(t *testing.T) {
	a := term.NewArena()
	bad := a.DeclareInductive("Bad", nil, term.VisibilityUnmarked)

	// Prelude: Bad (2), B (3); base depth 4.
	badAtBase, err := a.InternName(1)
	require.NoError(t, err)
	badUnderOne, err := a.InternName(2)
	require.NoError(t, err)
	arrow, err := a.InternPi([]term.Param{{Type: badAtBase}}, badUnderOne)
	require.NoError(t, err)
	bPi, err := a.InternPi([]term.Param{{Label: term.SomeLabel("x"), Type: arrow}}, badUnderOne)
	require.NoError(t, err)
	a.SetVariants(bad, []term.Variant{
		{Name: "B", Params: a.Get(bPi).Params, ReturnType: a.Get(bPi).Output},
	})

	files := []resolved.File{{ID: "bad.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclInductiveType, Handle: bad},
	}}}
	errs := runValidate(t, a, files)
	require.Len(t, errs, 1)
	require.Equal(t, term.DeclHandle(0), errs[0].Inductive)
	require.Equal(t, 0, errs[0].VariantIndex)
	require.Equal(t, 0, errs[0].ParamIndex)
}

// TestValidateRejectsNestedNegativeOccurrence puts the offending arrow one
// level deeper, inside the codomain of an outer arrow:
//
//	inductive Worse { W : (x : Type0 -> (Worse -> Worse)) -> Worse }
func TestValidateRejectsNestedNegativeOccurrence(t *testing.T) {
	a := term.NewArena()
	worse := a.DeclareInductive("Worse", nil, term.VisibilityUnmarked)

	// Prelude: Worse (2), W (3); base depth 4.
	t0, err := a.InternUniverse(term.Type0)
	require.NoError(t, err)
	worseDepth5, err := a.InternName(2) // Worse from depth 5
	require.NoError(t, err)
	worseDepth6, err := a.InternName(3) // Worse from depth 6
	require.NoError(t, err)
	inner, err := a.InternPi([]term.Param{{Type: worseDepth5}}, worseDepth6)
	require.NoError(t, err)
	outer, err := a.InternPi([]term.Param{{Type: t0}}, inner)
	require.NoError(t, err)
	worseUnderOne, err := a.InternName(2)
	require.NoError(t, err)
	wPi, err := a.InternPi([]term.Param{{Label: term.SomeLabel("x"), Type: outer}}, worseUnderOne)
	require.NoError(t, err)
	a.SetVariants(worse, []term.Variant{
		{Name: "W", Params: a.Get(wPi).Params, ReturnType: a.Get(wPi).Output},
	})

	files := []resolved.File{{ID: "worse.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclInductiveType, Handle: worse},
	}}}
	errs := runValidate(t, a, files)
	require.Len(t, errs, 1)
}