// Package varreturn implements the variant-return validator (C5): every
// constructor of an inductive type must return that same inductive type
// applied to exactly its own parameters, in order, once the variant's own
// parameters are accounted for.
package varreturn

import (
	"fmt"

	"github.com/kantu-lang/corecheck/internal/bindctx"
	"github.com/kantu-lang/corecheck/internal/normalize"
	"github.com/kantu-lang/corecheck/internal/resolved"
	"github.com/kantu-lang/corecheck/internal/term"
)

// Reason distinguishes the ways a variant's declared return type can fail
// to be its inductive applied to that inductive's own parameters.
type Reason int

const (
	NotAnApplication Reason = iota
	WrongHead
	WrongArity
	WrongParameter
)

func (r Reason) String() string {
	switch r {
	case NotAnApplication:
		return "NotAnApplication"
	case WrongHead:
		return "WrongHead"
	case WrongArity:
		return "WrongArity"
	case WrongParameter:
		return "WrongParameter"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// IllegalVariantReturnType reports a variant whose declared return type, in
// normal form, isn't its inductive applied to exactly that inductive's own
// parameters in declaration order.
type IllegalVariantReturnType struct {
	Inductive    term.DeclHandle
	VariantIndex int
	Reason       Reason
	// ParamIndex is meaningful only when Reason == WrongParameter: the
	// position (within the inductive's own parameter list) whose reference
	// didn't match.
	ParamIndex int
}

func (e *IllegalVariantReturnType) Error() string {
	if e.Reason == WrongParameter {
		return fmt.Sprintf("illegal variant return type: inductive %d variant %d: wrong parameter at position %d", e.Inductive, e.VariantIndex, e.ParamIndex)
	}
	return fmt.Sprintf("illegal variant return type: inductive %d variant %d: %s", e.Inductive, e.VariantIndex, e.Reason)
}

// Validate checks every variant of every inductive type registered in the
// program, in declaration order, returning one IllegalVariantReturnType per
// offending variant. ctx must be the program's base context (or a context
// with the same prelude prefix); Validate pushes and pops its own working
// entries on top of it and leaves it exactly as found.
func Validate(program *resolved.Program, ctx *bindctx.Context, nz *normalize.Normalizer) ([]*IllegalVariantReturnType, error) {
	arena := program.Arena
	var errs []*IllegalVariantReturnType

	for i := 0; i < arena.NumInductives(); i++ {
		h := term.DeclHandle(i)
		_, numParams, paramTypesList, variants, _ := arena.Inductive(h)
		paramTypes := arena.Params(paramTypesList)

		for _, pt := range paramTypes {
			ctx.Push(pt.Type, false, 0, bindctx.Uninterpreted{})
		}

		for vi, v := range variants {
			variantParams := arena.Params(v.Params)
			q := len(variantParams)
			for _, pt := range variantParams {
				ctx.Push(pt.Type, false, 0, bindctx.Uninterpreted{})
			}

			normalized, err := nz.Normalize(ctx, v.ReturnType)
			if err != nil {
				ctx.Pop(q)
				ctx.Pop(numParams)
				return nil, err
			}

			if e := checkReturnType(arena, program, ctx, h, vi, numParams, q, normalized); e != nil {
				errs = append(errs, e)
			}

			ctx.Pop(q)
		}

		ctx.Pop(numParams)
	}

	return errs, nil
}

func checkReturnType(arena *term.Arena, program *resolved.Program, ctx *bindctx.Context, ind term.DeclHandle, variantIndex, p, q int, normalized term.Handle) *IllegalVariantReturnType {
	fail := func(reason Reason, paramIndex int) *IllegalVariantReturnType {
		return &IllegalVariantReturnType{Inductive: ind, VariantIndex: variantIndex, Reason: reason, ParamIndex: paramIndex}
	}

	n := arena.Get(normalized)

	var headHandle term.Handle
	var argVals []term.Handle

	if p == 0 {
		if n.Kind != term.KindName {
			return fail(NotAnApplication, 0)
		}
		headHandle = normalized
	} else {
		if n.Kind != term.KindApp {
			return fail(NotAnApplication, 0)
		}
		headHandle = n.Callee
		args := arena.ArgsOf(n.Args)
		argVals = make([]term.Handle, len(args))
		for i, a := range args {
			argVals[i] = a.Value
		}
	}

	headNode := arena.Get(headHandle)
	if headNode.Kind != term.KindName {
		return fail(WrongHead, 0)
	}
	level := ctx.LevelOfIndex(headNode.Index)
	entry, ok := program.EntryAtLevel(level)
	if !ok || entry.Kind != resolved.PreludeInductive || entry.Inductive != ind {
		return fail(WrongHead, 0)
	}

	if len(argVals) != p {
		return fail(WrongArity, 0)
	}

	for i, av := range argVals {
		expectedIndex := q + (p - 1 - i)
		avNode := arena.Get(av)
		if avNode.Kind != term.KindName || avNode.Index != expectedIndex {
			return fail(WrongParameter, i)
		}
	}

	return nil
}
