// Package resolved assembles the interned term arena (C1) into the "resolved
// AST" the external interface (spec.md §6.1) takes as input: an ordered list
// of files, each a list of inductive-type and definition declarations, plus
// the synthetic global prelude those declarations are addressed through.
//
// Every identifier in the resolved AST is already either a De Bruijn index
// into the current binder list or a reference into this prelude (spec.md
// §6.1). Rather than invent a dedicated Term kind for top-level references,
// the prelude is modeled as ordinary context entries: BaseContext pushes one
// binder per inductive type, one per variant, and one per definition, in
// declaration order, directly beneath whatever local binders a pass
// introduces. A Name's index then resolves into the prelude exactly the way
// it resolves into any other binder.
package resolved

import (
	"fmt"

	"github.com/kantu-lang/corecheck/internal/bindctx"
	"github.com/kantu-lang/corecheck/internal/shift"
	"github.com/kantu-lang/corecheck/internal/term"
)

// DeclRef names one file-scope declaration by kind and handle.
type DeclRef struct {
	Kind   term.DeclKind
	Handle term.DeclHandle
}

// File is one source file's ordered list of declarations.
type File struct {
	ID    string
	Decls []DeclRef
}

// PreludeKind distinguishes the three things a prelude slot can stand for.
type PreludeKind uint8

const (
	PreludeInductive PreludeKind = iota
	PreludeVariant
	PreludeDefinition
)

// PreludeEntry is one synthetic global binder.
type PreludeEntry struct {
	Kind         PreludeKind
	Inductive    term.DeclHandle // PreludeInductive, PreludeVariant
	VariantIndex int             // PreludeVariant only
	Definition   term.DeclHandle // PreludeDefinition only
}

type variantKey struct {
	inductive term.DeclHandle
	index     int
}

// Program is the fully assembled resolved AST: the arena it was built in,
// the file/declaration structure, and the derived prelude ordering.
type Program struct {
	Arena   *term.Arena
	Files   []File
	Prelude []PreludeEntry

	byInductive  map[term.DeclHandle]int
	byVariant    map[variantKey]int
	byDefinition map[term.DeclHandle]int
}

// Build walks files in order, assigning each inductive type one prelude slot
// followed by one slot per variant (in declaration order), and each
// definition one slot.
func Build(arena *term.Arena, files []File) *Program {
	p := &Program{
		Arena:        arena,
		Files:        files,
		byInductive:  make(map[term.DeclHandle]int),
		byVariant:    make(map[variantKey]int),
		byDefinition: make(map[term.DeclHandle]int),
	}
	for _, f := range files {
		for _, d := range f.Decls {
			switch d.Kind {
			case term.DeclInductiveType:
				p.byInductive[d.Handle] = len(p.Prelude)
				p.Prelude = append(p.Prelude, PreludeEntry{Kind: PreludeInductive, Inductive: d.Handle})
				_, _, _, variants, _ := arena.Inductive(d.Handle)
				for vi := range variants {
					p.byVariant[variantKey{d.Handle, vi}] = len(p.Prelude)
					p.Prelude = append(p.Prelude, PreludeEntry{Kind: PreludeVariant, Inductive: d.Handle, VariantIndex: vi})
				}
			case term.DeclDefinition:
				p.byDefinition[d.Handle] = len(p.Prelude)
				p.Prelude = append(p.Prelude, PreludeEntry{Kind: PreludeDefinition, Definition: d.Handle})
			default:
				panic(fmt.Sprintf("resolved: unknown decl kind %d", d.Kind))
			}
		}
	}
	return p
}

// preludeBaseLevel is the number of reserved universe slots every context
// starts with (spec.md §4.3), beneath which the prelude sits.
const preludeBaseLevel = 2

// LevelOfInductive returns the absolute context level of an inductive type's
// own prelude slot.
func (p *Program) LevelOfInductive(h term.DeclHandle) (int, bool) {
	i, ok := p.byInductive[h]
	return preludeBaseLevel + i, ok
}

// LevelOfVariant returns the absolute context level of a variant's
// constructor slot.
func (p *Program) LevelOfVariant(inductive term.DeclHandle, variantIndex int) (int, bool) {
	i, ok := p.byVariant[variantKey{inductive, variantIndex}]
	return preludeBaseLevel + i, ok
}

// LevelOfDefinition returns the absolute context level of a definition's
// slot.
func (p *Program) LevelOfDefinition(h term.DeclHandle) (int, bool) {
	i, ok := p.byDefinition[h]
	return preludeBaseLevel + i, ok
}

// EntryAtLevel is the inverse of the Level-of-* lookups: given an absolute
// level, report which declaration (if any) it names.
func (p *Program) EntryAtLevel(level int) (PreludeEntry, bool) {
	i := level - preludeBaseLevel
	if i < 0 || i >= len(p.Prelude) {
		return PreludeEntry{}, false
	}
	return p.Prelude[i], true
}

func cloneParams(ps []term.Param) []term.Param {
	out := make([]term.Param, len(ps))
	copy(out, ps)
	return out
}

// BaseContext builds the context every pass starts from: the two
// universe-prelude slots (bindctx.New) followed by one entry per program
// declaration, in prelude order. An inductive's slot carries the type of its
// type constructor (a Pi from its own parameters to Type1, or Type1 directly
// if it takes none); a variant's slot carries the type of its constructor (a
// Pi from the inductive's parameters followed by its own parameters to its
// declared return type, or that return type directly if both lists are
// empty); a definition's slot carries its declared type and its body, so the
// normalizer can δ-unfold it.
//
// Declaration records are authored under the full prelude (every slot in
// scope, forward references included), so each slot is pushed with its
// authoring depth pinned to the prelude's final length rather than its own
// position.
func (p *Program) BaseContext(s *shift.Shifter) (*bindctx.Context, error) {
	ctx := bindctx.New(s)
	arena := p.Arena
	baseLen := preludeBaseLevel + len(p.Prelude)

	for _, e := range p.Prelude {
		switch e.Kind {
		case PreludeInductive:
			_, numParams, paramTypes, _, _ := arena.Inductive(e.Inductive)
			t1, err := arena.InternUniverse(term.Type1)
			if err != nil {
				return nil, err
			}
			typ := t1
			if numParams > 0 {
				typ, err = arena.InternPi(cloneParams(arena.Params(paramTypes)), t1)
				if err != nil {
					return nil, err
				}
			}
			ctx.PushAuthoredAt(typ, false, 0, bindctx.Uninterpreted{}, baseLen)

		case PreludeVariant:
			_, _, indParamTypes, variants, _ := arena.Inductive(e.Inductive)
			v := variants[e.VariantIndex]
			combined := cloneParams(arena.Params(indParamTypes))
			combined = append(combined, arena.Params(v.Params)...)
			typ := v.ReturnType
			if len(combined) > 0 {
				var err error
				typ, err = arena.InternPi(combined, v.ReturnType)
				if err != nil {
					return nil, err
				}
			}
			ctx.PushAuthoredAt(typ, false, 0, bindctx.Uninterpreted{}, baseLen)

		case PreludeDefinition:
			_, typ, body, _, _ := arena.Definition(e.Definition)
			ctx.PushAuthoredAt(typ, true, body, bindctx.Uninterpreted{}, baseLen)
		}
	}

	return ctx, nil
}
