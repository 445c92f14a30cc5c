// Package positivity implements the strict positivity validator (C7): every
// inductive type may only occur in its own constructors' parameter types in
// a strictly positive way, so that the normalizer's unfolding of recursive
// values always terminates.
package positivity

import (
	"fmt"

	"github.com/kantu-lang/corecheck/internal/bindctx"
	"github.com/kantu-lang/corecheck/internal/resolved"
	"github.com/kantu-lang/corecheck/internal/term"
)

// NegativeOccurrence reports one variant parameter type in which its own
// inductive type occurs somewhere left of an arrow.
type NegativeOccurrence struct {
	Inductive    term.DeclHandle
	VariantIndex int
	ParamIndex   int
	// Handle is the offending Name occurrence, for diagnostics.
	Handle term.Handle
}

func (e *NegativeOccurrence) Error() string {
	return fmt.Sprintf("negative occurrence of inductive %d in variant %d parameter %d", e.Inductive, e.VariantIndex, e.ParamIndex)
}

type cacheKey struct {
	h              term.Handle
	ctxLen         int
	target         term.DeclHandle
	underArrowLeft bool
}

type validator struct {
	program *resolved.Program
	ctx     *bindctx.Context
	cache   map[cacheKey]bool

	target       term.DeclHandle
	variantIndex int
	paramIndex   int
	errs         []*NegativeOccurrence
}

// Validate checks every variant parameter type of every inductive type
// registered in the program, in declaration order. ctx must be the
// program's base context (or a context with the same prelude prefix);
// Validate pushes and pops its own working entries on top of it and leaves
// it exactly as found.
func Validate(program *resolved.Program, ctx *bindctx.Context) ([]*NegativeOccurrence, error) {
	v := &validator{program: program, ctx: ctx, cache: make(map[cacheKey]bool)}
	arena := program.Arena

	for i := 0; i < arena.NumInductives(); i++ {
		ind := term.DeclHandle(i)
		_, numParams, paramTypesList, variants, _ := arena.Inductive(ind)
		paramTypes := arena.Params(paramTypesList)

		for _, pt := range paramTypes {
			ctx.Push(pt.Type, false, 0, bindctx.Uninterpreted{})
		}

		v.target = ind
		for vi, variant := range variants {
			v.variantIndex = vi
			vParams := arena.Params(variant.Params)
			for pi, pt := range vParams {
				v.paramIndex = pi
				if pt.Type != 0 {
					v.walk(pt.Type, false)
				}
				ctx.Push(pt.Type, false, 0, bindctx.Uninterpreted{})
			}
			ctx.Pop(len(vParams))
		}

		ctx.Pop(numParams)
	}

	return v.errs, nil
}

func (v *validator) record(h term.Handle) {
	v.errs = append(v.errs, &NegativeOccurrence{
		Inductive:    v.target,
		VariantIndex: v.variantIndex,
		ParamIndex:   v.paramIndex,
		Handle:       h,
	})
}

// walk visits h, tracking whether the current position is to the left of an
// arrow (a Pi parameter type, or anything nested inside one) relative to
// the variant parameter type being checked. Only Pi flips the flag — for
// its own parameter types, unconditionally to true, since a Pi's domain is
// always a negative position regardless of the incoming flag; its output
// inherits whatever flag was already in force. Every other node kind
// (App's callee/args, Match's scrutinee/case outputs, Lambda's
// params/output/body) is not itself an arrow and so simply inherits the
// incoming flag unchanged — nesting inside another type's application
// (e.g. `List(T)`) does not flip polarity.
func (v *validator) walk(h term.Handle, underArrowLeft bool) {
	key := cacheKey{h: h, ctxLen: v.ctx.Len(), target: v.target, underArrowLeft: underArrowLeft}
	if _, ok := v.cache[key]; ok {
		return
	}
	v.cache[key] = true

	arena := v.program.Arena
	n := arena.Get(h)

	switch n.Kind {
	case term.KindName:
		if !underArrowLeft {
			return
		}
		level := v.ctx.LevelOfIndex(n.Index)
		entry, ok := v.program.EntryAtLevel(level)
		if ok && entry.Kind == resolved.PreludeInductive && entry.Inductive == v.target {
			v.record(h)
		}

	case term.KindUniverse, term.KindTodo:
		// no children

	case term.KindPi:
		params := arena.Params(n.Params)
		for _, p := range params {
			if p.Type != 0 {
				v.walk(p.Type, true)
			}
			v.ctx.Push(p.Type, false, 0, bindctx.Uninterpreted{})
		}
		v.walk(n.Output, underArrowLeft)
		v.ctx.Pop(len(params))

	case term.KindLambda:
		params := arena.Params(n.Params)
		for _, p := range params {
			if p.Type != 0 {
				v.walk(p.Type, underArrowLeft)
			}
			v.ctx.Push(p.Type, false, 0, bindctx.Uninterpreted{})
		}
		v.walk(n.Output, underArrowLeft)
		selfType, _ := arena.InternPi(append([]term.Param(nil), params...), n.Output)
		v.ctx.Push(selfType, false, 0, bindctx.Uninterpreted{})
		v.walk(n.Body, underArrowLeft)
		v.ctx.Pop(len(params) + 1)

	case term.KindApp:
		v.walk(n.Callee, underArrowLeft)
		for _, a := range arena.ArgsOf(n.Args) {
			v.walk(a.Value, underArrowLeft)
		}

	case term.KindMatch:
		v.walk(n.Scrutinee, underArrowLeft)
		for _, c := range arena.CasesOf(n.Cases) {
			if c.Impossible {
				continue
			}
			arity := int(c.Params.Len)
			for i := 0; i < arity; i++ {
				v.ctx.Push(0, false, 0, bindctx.Uninterpreted{})
			}
			v.walk(c.Output, underArrowLeft)
			v.ctx.Pop(arity)
		}

	default:
		panic(fmt.Sprintf("positivity: unhandled kind %s", n.Kind))
	}
}
