// Package recursion implements the recursion validator (C6): every
// recursive self-call must pass, at the function's declared decreasing
// parameter position, a term that is a strict structural substruct of that
// parameter, guaranteeing termination without a general-purpose
// termination oracle.
package recursion

import (
	"fmt"

	"github.com/kantu-lang/corecheck/internal/bindctx"
	"github.com/kantu-lang/corecheck/internal/resolved"
	"github.com/kantu-lang/corecheck/internal/term"
)

// Kind distinguishes the ways a self-reference can go wrong.
type Kind int

const (
	NonStructuralCall Kind = iota
	CallOnNonRecursiveBinder
	SelfReferenceOutsideCallee
)

func (k Kind) String() string {
	switch k {
	case NonStructuralCall:
		return "NonStructuralCall"
	case CallOnNonRecursiveBinder:
		return "CallOnNonRecursiveBinder"
	case SelfReferenceOutsideCallee:
		return "SelfReferenceOutsideCallee"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IllegalFunRecursion reports one rejected self-reference.
type IllegalFunRecursion struct {
	Kind Kind
	// Handle is the offending Name occurrence (the self-reference itself,
	// or the App whose callee is the self-reference), for diagnostics.
	Handle term.Handle
}

func (e *IllegalFunRecursion) Error() string {
	return fmt.Sprintf("illegal recursion at handle %d: %s", e.Handle, e.Kind)
}

type validator struct {
	program *resolved.Program
	ctx     *bindctx.Context
	errs    []*IllegalFunRecursion
}

// Validate walks every definition and every inductive declaration's
// parameter/variant types in the program, checking every Lambda's
// recursive self-calls. ctx must be the program's base context; Validate
// pushes and pops its own working entries on top of it and leaves it
// exactly as found.
func Validate(program *resolved.Program, ctx *bindctx.Context) ([]*IllegalFunRecursion, error) {
	v := &validator{program: program, ctx: ctx}
	arena := program.Arena

	for i := 0; i < arena.NumInductives(); i++ {
		h := term.DeclHandle(i)
		_, numParams, paramTypesList, variants, _ := arena.Inductive(h)
		paramTypes := arena.Params(paramTypesList)

		for _, pt := range paramTypes {
			if pt.Type != 0 {
				v.walk(pt.Type)
			}
			ctx.Push(pt.Type, false, 0, bindctx.Uninterpreted{})
		}

		for _, vr := range variants {
			vParams := arena.Params(vr.Params)
			for _, pt := range vParams {
				if pt.Type != 0 {
					v.walk(pt.Type)
				}
				ctx.Push(pt.Type, false, 0, bindctx.Uninterpreted{})
			}
			v.walk(vr.ReturnType)
			ctx.Pop(len(vParams))
		}

		ctx.Pop(numParams)
	}

	for i := 0; i < arena.NumDefinitions(); i++ {
		_, typ, body, _, _ := arena.Definition(term.DeclHandle(i))
		v.walk(typ)
		v.walk(body)
	}

	return v.errs, nil
}

func (v *validator) record(kind Kind, h term.Handle) {
	v.errs = append(v.errs, &IllegalFunRecursion{Kind: kind, Handle: h})
}

// walk visits h generically, treating every occurrence as "not a direct
// call": App handles its own callee specially (checking it against the
// self-binder's restriction) before this function ever sees it, so any
// FunSelf-classified Name reaching walk is necessarily a disallowed
// non-callee use.
func (v *validator) walk(h term.Handle) {
	arena := v.program.Arena
	n := arena.Get(h)

	switch n.Kind {
	case term.KindName:
		if _, ok := v.ctx.ClassifierOf(n.Index).(bindctx.FunSelf); ok {
			v.record(SelfReferenceOutsideCallee, h)
		}

	case term.KindUniverse, term.KindTodo:
		// no children

	case term.KindPi:
		arity := v.pushParams(n.Params)
		v.walk(n.Output)
		v.ctx.Pop(arity)

	case term.KindLambda:
		arity := v.pushParams(n.Params)
		v.walk(n.Output)

		restriction := v.restrictionFor(n)
		selfType, _ := arena.InternPi(append([]term.Param(nil), arena.Params(n.Params)...), n.Output)
		v.ctx.Push(selfType, false, 0, bindctx.FunSelf{Restriction: restriction})
		v.walk(n.Body)
		v.ctx.Pop(arity + 1)

	case term.KindApp:
		v.walkApp(h, n)

	case term.KindMatch:
		v.walkMatch(n)

	default:
		panic(fmt.Sprintf("recursion: unhandled kind %s", n.Kind))
	}
}

func (v *validator) pushParams(pl term.ParamList) int {
	arena := v.program.Arena
	params := arena.Params(pl)
	for _, p := range params {
		if p.Type != 0 {
			v.walk(p.Type)
		}
		v.ctx.Push(p.Type, false, 0, bindctx.Uninterpreted{})
	}
	return len(params)
}

// restrictionFor derives the self-binder restriction for a Lambda, using
// the level its decreasing parameter occupies (the parameters were just
// pushed directly beneath where the self-binder is about to go, so that
// level is ctx.Len()-1-(arity-1-k) for decreasing position k... computed
// directly below via IndexToLevel before the self push).
func (v *validator) restrictionFor(n term.Node) bindctx.Restriction {
	if n.DecreasingParam == term.NoDecreasingParam {
		return bindctx.CannotCall{}
	}
	arity := int(n.Params.Len)
	// Params were pushed in order; position k's binder is (arity-1-k)
	// entries back from the top, i.e. index (arity-1-k).
	index := arity - 1 - n.DecreasingParam
	level := v.ctx.IndexToLevel(index)
	return bindctx.MustCallWithSubstruct{ParentLevel: level, ArgPosition: n.DecreasingParam}
}

func (v *validator) walkApp(h term.Handle, n term.Node) {
	arena := v.program.Arena
	args := arena.ArgsOf(n.Args)

	calleeNode := arena.Get(n.Callee)
	if calleeNode.Kind == term.KindName {
		if fs, ok := v.ctx.ClassifierOf(calleeNode.Index).(bindctx.FunSelf); ok {
			v.checkRestrictedCall(h, fs, args)
			for _, a := range args {
				v.walk(a.Value)
			}
			return
		}
	}

	v.walk(n.Callee)
	for _, a := range args {
		v.walk(a.Value)
	}
}

func (v *validator) checkRestrictedCall(h term.Handle, fs bindctx.FunSelf, args []term.Arg) {
	arena := v.program.Arena
	switch r := fs.Restriction.(type) {
	case bindctx.CannotCall:
		v.record(CallOnNonRecursiveBinder, h)

	case bindctx.MustCallWithSubstruct:
		if r.ArgPosition < 0 || r.ArgPosition >= len(args) {
			v.record(NonStructuralCall, h)
			return
		}
		argNode := arena.Get(args[r.ArgPosition].Value)
		if argNode.Kind != term.KindName {
			v.record(NonStructuralCall, h)
			return
		}
		argLevel := v.ctx.LevelOfIndex(argNode.Index)
		if !v.isStrictSubstructOf(argLevel, r.ParentLevel) {
			v.record(NonStructuralCall, h)
		}

	default:
		v.record(NonStructuralCall, h)
	}
}

// isStrictSubstructOf reports whether there is a non-empty chain of
// SubstructOf edges from level to ancestor. ParentLevel always strictly
// precedes the level that names it, so the chain strictly decreases and
// the walk terminates without needing an explicit bound.
func (v *validator) isStrictSubstructOf(level, ancestor int) bool {
	cur := level
	for {
		index := v.ctx.LevelToIndex(cur)
		sub, ok := v.ctx.ClassifierOf(index).(bindctx.SubstructOf)
		if !ok {
			return false
		}
		if sub.ParentLevel == ancestor {
			return true
		}
		cur = sub.ParentLevel
	}
}

func (v *validator) walkMatch(n term.Node) {
	arena := v.program.Arena
	v.walk(n.Scrutinee)

	scrutineeNode := arena.Get(n.Scrutinee)
	matcheeLevel := -1
	if scrutineeNode.Kind == term.KindName {
		matcheeLevel = v.ctx.LevelOfIndex(scrutineeNode.Index)
	}

	for _, c := range arena.CasesOf(n.Cases) {
		if c.Impossible {
			continue
		}
		arity := int(c.Params.Len)
		for i := 0; i < arity; i++ {
			var classifier bindctx.Classifier = bindctx.Uninterpreted{}
			if matcheeLevel >= 0 {
				classifier = bindctx.SubstructOf{ParentLevel: matcheeLevel}
			}
			v.ctx.Push(0, false, 0, classifier)
		}
		v.walk(c.Output)
		v.ctx.Pop(arity)
	}
}
