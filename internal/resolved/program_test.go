package resolved

import (
	"testing"

	"github.com/kantu-lang/corecheck/internal/shift"
	"github.com/kantu-lang/corecheck/internal/term"
	"github.com/stretchr/testify/require"
)

// buildNatProgram declares:
//
//	inductive Nat { O : Nat }
//	def two : Nat = todo
func buildNatProgram(t *testing.T) (*term.Arena, *Program) {
	t.Helper()
	a := term.NewArena()

	nat := a.DeclareInductive("Nat", nil, term.VisibilityUnmarked)
	// Base prelude: Nat (level 2), O (3), two (4); base depth 5. Nat from
	// there is index 2, both as O's return type and as two's declared type.
	natRef, err := a.InternName(2)
	require.NoError(t, err)

	a.SetVariants(nat, []term.Variant{
		{Name: "O", ReturnType: natRef},
	})

	two, err := a.InternTodo()
	require.NoError(t, err)
	defHandle := a.DeclareDefinition("two", natRef, two, term.VisibilityUnmarked, nil)

	files := []File{
		{ID: "nat.ka", Decls: []DeclRef{
			{Kind: term.DeclInductiveType, Handle: nat},
			{Kind: term.DeclDefinition, Handle: defHandle},
		}},
	}
	return a, Build(a, files)
}

func TestBuildAssignsOnePreludeSlotPerInductiveVariantAndDefinition(t *testing.T) {
	_, p := buildNatProgram(t)
	// Nat (1) + O (1) + two (1) = 3 slots.
	require.Len(t, p.Prelude, 3)
	require.Equal(t, PreludeInductive, p.Prelude[0].Kind)
	require.Equal(t, PreludeVariant, p.Prelude[1].Kind)
	require.Equal(t, PreludeDefinition, p.Prelude[2].Kind)
}

func TestLevelLookupsRoundTripThroughEntryAtLevel(t *testing.T) {
	a, p := buildNatProgram(t)
	nat := term.DeclHandle(0)

	level, ok := p.LevelOfInductive(nat)
	require.True(t, ok)
	entry, ok := p.EntryAtLevel(level)
	require.True(t, ok)
	require.Equal(t, PreludeInductive, entry.Kind)
	require.Equal(t, nat, entry.Inductive)

	vLevel, ok := p.LevelOfVariant(nat, 0)
	require.True(t, ok)
	require.Equal(t, level+1, vLevel)

	_, numParams, _, _, _ := a.Inductive(nat)
	require.Equal(t, 0, numParams)
}

func TestBaseContextLengthCoversUniverseSlotsPlusPrelude(t *testing.T) {
	a, p := buildNatProgram(t)
	s := shift.New(a)
	ctx, err := p.BaseContext(s)
	require.NoError(t, err)
	require.Equal(t, 2+len(p.Prelude), ctx.Len())
}

func TestBaseContextGivesNullaryVariantItsReturnTypeDirectly(t *testing.T) {
	a, p := buildNatProgram(t)
	s := shift.New(a)
	ctx, err := p.BaseContext(s)
	require.NoError(t, err)

	vLevel, ok := p.LevelOfVariant(term.DeclHandle(0), 0)
	require.True(t, ok)
	index := ctx.LevelToIndex(vLevel)
	typ, err := ctx.TypeOf(index)
	require.NoError(t, err)
	// O's type, read back at full context depth, should be a Name (Nat's
	// own prelude slot), not a Pi, since O takes no parameters.
	require.Equal(t, term.KindName, a.Get(typ).Kind)
}

func TestBaseContextGivesDefinitionItsBodyAsDefinition(t *testing.T) {
	a, p := buildNatProgram(t)
	s := shift.New(a)
	ctx, err := p.BaseContext(s)
	require.NoError(t, err)

	defLevel, ok := p.LevelOfDefinition(term.DeclHandle(0))
	require.True(t, ok)
	index := ctx.LevelToIndex(defLevel)
	def, has, err := ctx.DefinitionOf(index)
	require.NoError(t, err)
	require.True(t, has)
	require.Equal(t, term.KindTodo, a.Get(def).Kind)
}
