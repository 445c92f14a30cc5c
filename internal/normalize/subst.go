package normalize

import (
	"github.com/kantu-lang/corecheck/internal/shift"
	"github.com/kantu-lang/corecheck/internal/term"
)

// subst performs simultaneous, capture-avoiding substitution of replacements
// for the outermost len(replacements) binders of h: replacements[0] stands
// for the innermost of those binders (De Bruijn index 0 at the point where
// substitution begins), replacements[1] for the next, and so on. Each
// replacement is expressed relative to the context with those binders
// already removed; subst re-shifts it as needed to land under whatever
// local binders the walk has crossed by the time it's used.
//
// This mirrors shift.shiftUncached's structure, but rather than adjusting a
// Name's index it may splice in a whole replacement subterm.
func subst(arena *term.Arena, shifter *shift.Shifter, h term.Handle, replacements []term.Handle) (term.Handle, error) {
	return substWalk(arena, shifter, h, 0, replacements)
}

// Subst exposes simultaneous substitution to callers outside this package
// (C9's progressive parameter-type instantiation while checking an App:
// each argument's value is substituted into the remaining parameter types
// before they're checked against).
func (nz *Normalizer) Subst(h term.Handle, replacements []term.Handle) (term.Handle, error) {
	return subst(nz.arena, nz.shifter, h, replacements)
}

func substWalk(arena *term.Arena, shifter *shift.Shifter, h term.Handle, depth int, replacements []term.Handle) (term.Handle, error) {
	n := arena.Get(h)
	count := len(replacements)

	switch n.Kind {
	case term.KindName:
		if n.Index < depth {
			return h, nil
		}
		rel := n.Index - depth
		if rel < count {
			return shifter.Upshift(replacements[rel], depth, 0)
		}
		return arena.InternName(n.Index - count)

	case term.KindUniverse, term.KindTodo:
		return h, nil

	case term.KindPi:
		newParams, err := substParams(arena, shifter, n.Params, depth, replacements)
		if err != nil {
			return 0, err
		}
		newOutput, err := substWalk(arena, shifter, n.Output, depth+int(n.Params.Len), replacements)
		if err != nil {
			return 0, err
		}
		return arena.InternPi(newParams, newOutput)

	case term.KindLambda:
		arity := int(n.Params.Len)
		newParams, err := substParams(arena, shifter, n.Params, depth, replacements)
		if err != nil {
			return 0, err
		}
		newReturnType, err := substWalk(arena, shifter, n.Output, depth+arity, replacements)
		if err != nil {
			return 0, err
		}
		newBody, err := substWalk(arena, shifter, n.Body, depth+arity+1, replacements)
		if err != nil {
			return 0, err
		}
		return arena.InternLambda(newParams, newReturnType, newBody, n.DecreasingParam)

	case term.KindApp:
		newCallee, err := substWalk(arena, shifter, n.Callee, depth, replacements)
		if err != nil {
			return 0, err
		}
		args := arena.ArgsOf(n.Args)
		newArgs := make([]term.Arg, len(args))
		for i, a := range args {
			nv, err := substWalk(arena, shifter, a.Value, depth, replacements)
			if err != nil {
				return 0, err
			}
			newArgs[i] = term.Arg{Label: a.Label, Value: nv}
		}
		return arena.InternApp(newCallee, newArgs)

	case term.KindMatch:
		newScrutinee, err := substWalk(arena, shifter, n.Scrutinee, depth, replacements)
		if err != nil {
			return 0, err
		}
		cases := arena.CasesOf(n.Cases)
		newCases := make([]term.Case, len(cases))
		for i, c := range cases {
			newCases[i] = c
			if c.Impossible {
				continue
			}
			arity := int(c.Params.Len)
			newOutput, err := substWalk(arena, shifter, c.Output, depth+arity, replacements)
			if err != nil {
				return 0, err
			}
			newCases[i].Output = newOutput
		}
		return arena.InternMatch(newScrutinee, newCases)

	default:
		return h, nil
	}
}

func substParams(arena *term.Arena, shifter *shift.Shifter, pl term.ParamList, depth int, replacements []term.Handle) ([]term.Param, error) {
	params := arena.Params(pl)
	out := make([]term.Param, len(params))
	for i, p := range params {
		out[i] = p
		if p.Type == 0 {
			continue // case-param placeholder; borrows the variant's types
		}
		nt, err := substWalk(arena, shifter, p.Type, depth+i, replacements)
		if err != nil {
			return nil, err
		}
		out[i].Type = nt
	}
	return out, nil
}
