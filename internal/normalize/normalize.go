// Package normalize implements normalization-by-evaluation (C8): weak-head
// reduction (β, δ, ι) driving full normalization (+ ξ, recursing under
// binders). It assumes call arguments have already been reordered to match
// parameter position by the type checker (C9's infer/check), so β- and
// ι-reduction here only ever see positionally-aligned argument lists.
package normalize

import (
	"github.com/kantu-lang/corecheck/internal/bindctx"
	"github.com/kantu-lang/corecheck/internal/dtree"
	"github.com/kantu-lang/corecheck/internal/resolved"
	"github.com/kantu-lang/corecheck/internal/shift"
	"github.com/kantu-lang/corecheck/internal/term"
)

type cacheKey struct {
	h      term.Handle
	ctxLen int
}

// Normalizer reduces terms under a Program's prelude, using a Context to
// resolve δ-unfoldable definitions and to recognize which Name nodes denote
// inductive/variant prelude slots for ι-reduction.
type Normalizer struct {
	arena   *term.Arena
	shifter *shift.Shifter
	program *resolved.Program

	whCache map[cacheKey]term.Handle
	nfCache map[cacheKey]term.Handle

	// dispatch caches each Match's compiled case-dispatch tree, keyed by
	// the match term's own handle (a handle's case list never changes once
	// interned).
	dispatch map[term.Handle]*dtree.Tree
}

// New creates a Normalizer bound to a resolved program.
func New(program *resolved.Program, shifter *shift.Shifter) *Normalizer {
	return &Normalizer{
		arena:    program.Arena,
		shifter:  shifter,
		program:  program,
		whCache:  make(map[cacheKey]term.Handle),
		nfCache:  make(map[cacheKey]term.Handle),
		dispatch: make(map[term.Handle]*dtree.Tree),
	}
}

// dispatchTreeFor returns the compiled dispatch tree for a match term,
// compiling and caching it on first use.
func (nz *Normalizer) dispatchTreeFor(h term.Handle, n term.Node) *dtree.Tree {
	if t, ok := nz.dispatch[h]; ok {
		return t
	}
	t := dtree.Compile(nz.arena.CasesOf(n.Cases))
	nz.dispatch[h] = t
	return t
}

// WeakHeadNormalize repeatedly applies β, δ and ι reduction at the head of h
// until no rule applies, returning a weak head normal form: the head is
// irreducible, but subterms (argument values, case outputs, Pi/Lambda
// bodies) are not necessarily normalized.
func (nz *Normalizer) WeakHeadNormalize(ctx *bindctx.Context, h term.Handle) (term.Handle, error) {
	key := cacheKey{h, ctx.Len()}
	if cached, ok := nz.whCache[key]; ok {
		return cached, nil
	}
	result, err := nz.weakHeadUncached(ctx, h)
	if err != nil {
		return 0, err
	}
	nz.whCache[key] = result
	return result, nil
}

func (nz *Normalizer) weakHeadUncached(ctx *bindctx.Context, h term.Handle) (term.Handle, error) {
	cur := h
	for {
		n := nz.arena.Get(cur)
		switch n.Kind {
		case term.KindName:
			def, ok, err := ctx.DefinitionOf(n.Index)
			if err != nil {
				return 0, err
			}
			if !ok {
				return cur, nil
			}
			cur = def
			continue

		case term.KindApp:
			newCallee, err := nz.WeakHeadNormalize(ctx, n.Callee)
			if err != nil {
				return 0, err
			}
			calleeNode := nz.arena.Get(newCallee)
			if calleeNode.Kind == term.KindLambda {
				reduced, did, err := nz.betaReduce(calleeNode, newCallee, nz.arena.ArgsOf(n.Args))
				if err != nil {
					return 0, err
				}
				if did {
					cur = reduced
					continue
				}
			}
			if newCallee == n.Callee {
				return cur, nil
			}
			rebuilt, err := nz.arena.InternApp(newCallee, append([]term.Arg(nil), nz.arena.ArgsOf(n.Args)...))
			if err != nil {
				return 0, err
			}
			return rebuilt, nil

		case term.KindMatch:
			newScrutinee, err := nz.WeakHeadNormalize(ctx, n.Scrutinee)
			if err != nil {
				return 0, err
			}
			ref, args, ok := nz.headVariant(ctx, newScrutinee)
			if ok {
				leaf, covered := nz.dispatchTreeFor(cur, n).Select(ref)
				if !covered {
					return cur, nil // stuck: no matching case (should not happen post-typecheck)
				}
				if leaf.Case.Impossible {
					return cur, nil // stuck: matched an impossible arm
				}
				reduced, err := nz.iotaReduce(leaf.Case, args)
				if err != nil {
					return 0, err
				}
				cur = reduced
				continue
			}
			if newScrutinee == n.Scrutinee {
				return cur, nil
			}
			rebuilt, err := nz.arena.InternMatch(newScrutinee, append([]term.Case(nil), nz.arena.CasesOf(n.Cases)...))
			if err != nil {
				return 0, err
			}
			return rebuilt, nil

		default:
			return cur, nil
		}
	}
}

func (nz *Normalizer) betaReduce(lambda term.Node, lambdaHandle term.Handle, args []term.Arg) (term.Handle, bool, error) {
	paramCount := int(lambda.Params.Len)
	if len(args) != paramCount {
		return 0, false, nil
	}
	replacements := make([]term.Handle, paramCount+1)
	replacements[0] = lambdaHandle // self-binder, innermost
	for i := 0; i < paramCount; i++ {
		replacements[i+1] = args[paramCount-1-i].Value
	}
	result, err := subst(nz.arena, nz.shifter, lambda.Body, replacements)
	return result, true, err
}

func (nz *Normalizer) iotaReduce(c term.Case, args []term.Handle) (term.Handle, error) {
	arity := int(c.Params.Len)
	replacements := make([]term.Handle, arity)
	for i := 0; i < arity; i++ {
		replacements[i] = args[len(args)-1-i]
	}
	return subst(nz.arena, nz.shifter, c.Output, replacements)
}

// headVariant reports whether h (already in weak head normal form) is
// headed by a constructor reference: either bare (a nullary constructor) or
// applied to arguments.
func (nz *Normalizer) headVariant(ctx *bindctx.Context, h term.Handle) (term.VariantRef, []term.Handle, bool) {
	n := nz.arena.Get(h)
	switch n.Kind {
	case term.KindName:
		level := ctx.LevelOfIndex(n.Index)
		entry, ok := nz.program.EntryAtLevel(level)
		if !ok || entry.Kind != resolved.PreludeVariant {
			return term.VariantRef{}, nil, false
		}
		return term.VariantRef{Inductive: entry.Inductive, VariantIndex: entry.VariantIndex}, nil, true

	case term.KindApp:
		calleeNode := nz.arena.Get(n.Callee)
		if calleeNode.Kind != term.KindName {
			return term.VariantRef{}, nil, false
		}
		level := ctx.LevelOfIndex(calleeNode.Index)
		entry, ok := nz.program.EntryAtLevel(level)
		if !ok || entry.Kind != resolved.PreludeVariant {
			return term.VariantRef{}, nil, false
		}
		args := nz.arena.ArgsOf(n.Args)
		vals := make([]term.Handle, len(args))
		for i, a := range args {
			vals[i] = a.Value
		}
		return term.VariantRef{Inductive: entry.Inductive, VariantIndex: entry.VariantIndex}, vals, true

	default:
		return term.VariantRef{}, nil, false
	}
}

// InductiveHeadOf reports whether h (already in weak head normal form) is
// headed by an inductive type's own prelude slot, returning its declared
// parameter arguments. Used by the type checker (C9): its match-scrutinee
// rule and its obviously-impossible case test.
func (nz *Normalizer) InductiveHeadOf(ctx *bindctx.Context, h term.Handle) (term.DeclHandle, []term.Handle, bool) {
	n := nz.arena.Get(h)
	switch n.Kind {
	case term.KindName:
		level := ctx.LevelOfIndex(n.Index)
		entry, ok := nz.program.EntryAtLevel(level)
		if !ok || entry.Kind != resolved.PreludeInductive {
			return 0, nil, false
		}
		return entry.Inductive, nil, true

	case term.KindApp:
		calleeNode := nz.arena.Get(n.Callee)
		if calleeNode.Kind != term.KindName {
			return 0, nil, false
		}
		level := ctx.LevelOfIndex(calleeNode.Index)
		entry, ok := nz.program.EntryAtLevel(level)
		if !ok || entry.Kind != resolved.PreludeInductive {
			return 0, nil, false
		}
		args := nz.arena.ArgsOf(n.Args)
		vals := make([]term.Handle, len(args))
		for i, a := range args {
			vals[i] = a.Value
		}
		return entry.Inductive, vals, true

	default:
		return 0, nil, false
	}
}

// Normalize computes h's full normal form (ξ): weak-head reduction at every
// level, including under Pi/Lambda binders and Match case bodies.
func (nz *Normalizer) Normalize(ctx *bindctx.Context, h term.Handle) (term.Handle, error) {
	key := cacheKey{h, ctx.Len()}
	if cached, ok := nz.nfCache[key]; ok {
		return cached, nil
	}
	result, err := nz.normalizeUncached(ctx, h)
	if err != nil {
		return 0, err
	}
	nz.nfCache[key] = result
	return result, nil
}

func (nz *Normalizer) normalizeUncached(ctx *bindctx.Context, h term.Handle) (term.Handle, error) {
	wh, err := nz.WeakHeadNormalize(ctx, h)
	if err != nil {
		return 0, err
	}
	n := nz.arena.Get(wh)

	switch n.Kind {
	case term.KindUniverse, term.KindTodo, term.KindName:
		return wh, nil

	case term.KindPi:
		newParams, err := nz.normalizeParamsPushed(ctx, n.Params)
		if err != nil {
			return 0, err
		}
		arity := int(n.Params.Len)
		newOutput, err := nz.Normalize(ctx, n.Output)
		ctx.Pop(arity)
		if err != nil {
			return 0, err
		}
		return nz.arena.InternPi(newParams, newOutput)

	case term.KindLambda:
		arity := int(n.Params.Len)
		newParams, err := nz.normalizeParamsPushed(ctx, n.Params)
		if err != nil {
			return 0, err
		}
		newReturnType, err := nz.Normalize(ctx, n.Output)
		if err != nil {
			ctx.Pop(arity)
			return 0, err
		}
		selfType, err := nz.arena.InternPi(append([]term.Param(nil), newParams...), newReturnType)
		if err != nil {
			ctx.Pop(arity)
			return 0, err
		}
		ctx.Push(selfType, false, 0, bindctx.FunSelf{Restriction: bindctx.CannotCall{}})
		newBody, err := nz.Normalize(ctx, n.Body)
		ctx.Pop(arity + 1)
		if err != nil {
			return 0, err
		}
		return nz.arena.InternLambda(newParams, newReturnType, newBody, n.DecreasingParam)

	case term.KindApp:
		newCallee, err := nz.Normalize(ctx, n.Callee)
		if err != nil {
			return 0, err
		}
		args := nz.arena.ArgsOf(n.Args)
		newArgs := make([]term.Arg, len(args))
		for i, a := range args {
			nv, err := nz.Normalize(ctx, a.Value)
			if err != nil {
				return 0, err
			}
			newArgs[i] = term.Arg{Label: a.Label, Value: nv}
		}
		return nz.arena.InternApp(newCallee, newArgs)

	case term.KindMatch:
		newScrutinee, err := nz.Normalize(ctx, n.Scrutinee)
		if err != nil {
			return 0, err
		}
		cases := nz.arena.CasesOf(n.Cases)
		newCases := make([]term.Case, len(cases))
		for i, c := range cases {
			newCases[i] = c
			if c.Impossible {
				continue
			}
			// Case binders are opaque here: they carry no definition to
			// δ-unfold, so only their count matters for index bookkeeping.
			arity := int(c.Params.Len)
			for j := 0; j < arity; j++ {
				ctx.Push(0, false, 0, bindctx.Uninterpreted{})
			}
			newOutput, err := nz.Normalize(ctx, c.Output)
			ctx.Pop(arity)
			if err != nil {
				return 0, err
			}
			newCases[i].Output = newOutput
		}
		return nz.arena.InternMatch(newScrutinee, newCases)

	default:
		return wh, nil
	}
}

func (nz *Normalizer) normalizeParamsPushed(ctx *bindctx.Context, pl term.ParamList) ([]term.Param, error) {
	params := nz.arena.Params(pl)
	out := make([]term.Param, len(params))
	for i, p := range params {
		out[i] = p
		if p.Type != 0 {
			nt, err := nz.Normalize(ctx, p.Type)
			if err != nil {
				return nil, err
			}
			out[i].Type = nt
		}
		ctx.Push(out[i].Type, false, 0, bindctx.Uninterpreted{})
	}
	return out, nil
}

