// Package shift implements the De Bruijn shift engine (C2): adjusting free
// indices in a term by ±amount above a cutoff, with a cache keyed on
// (term, amount, cutoff) since the same subterms are shifted repeatedly
// during normalization and substitution.
package shift

import (
	"fmt"

	"github.com/kantu-lang/corecheck/internal/term"
)

// ErrIndexUnderflow is returned when a downshift would drive a free index
// negative.
type ErrIndexUnderflow struct {
	Index, Amount, Cutoff int
}

func (e *ErrIndexUnderflow) Error() string {
	return fmt.Sprintf("shift: index %d would underflow shifting by %d above cutoff %d", e.Index, e.Amount, e.Cutoff)
}

type cacheKey struct {
	h      term.Handle
	amount int
	cutoff int
}

// Shifter shifts terms in a single arena, memoizing results.
type Shifter struct {
	arena *term.Arena
	cache map[cacheKey]term.Handle
}

// New creates a Shifter bound to an arena. A Shifter must only be used with
// the arena it was created for.
func New(a *term.Arena) *Shifter {
	return &Shifter{arena: a, cache: make(map[cacheKey]term.Handle)}
}

// Upshift increases every free index at or above cutoff by amount. It is
// total: it never fails.
func (s *Shifter) Upshift(h term.Handle, amount, cutoff int) (term.Handle, error) {
	if amount < 0 {
		panic("shift: Upshift called with a negative amount")
	}
	return s.Shift(h, amount, cutoff)
}

// Downshift decreases every free index at or above cutoff by amount. It
// fails with ErrIndexUnderflow if any targeted index would become negative.
func (s *Shifter) Downshift(h term.Handle, amount, cutoff int) (term.Handle, error) {
	if amount < 0 {
		panic("shift: Downshift called with a negative amount")
	}
	return s.Shift(h, -amount, cutoff)
}

// Shift applies a signed shift (positive = up, negative = down). Exported
// for composition sites (e.g. substitution, which shifts by negative
// amounts after substituting).
func (s *Shifter) Shift(h term.Handle, amount, cutoff int) (term.Handle, error) {
	if amount == 0 {
		return h, nil
	}
	key := cacheKey{h: h, amount: amount, cutoff: cutoff}
	if cached, ok := s.cache[key]; ok {
		return cached, nil
	}

	result, err := s.shiftUncached(h, amount, cutoff)
	if err != nil {
		return 0, err
	}
	s.cache[key] = result
	return result, nil
}

func (s *Shifter) shiftUncached(h term.Handle, amount, cutoff int) (term.Handle, error) {
	n := s.arena.Get(h)
	switch n.Kind {
	case term.KindName:
		if n.Index < cutoff {
			return h, nil
		}
		newIndex := n.Index + amount
		if newIndex < 0 {
			return 0, &ErrIndexUnderflow{Index: n.Index, Amount: amount, Cutoff: cutoff}
		}
		return s.arena.InternName(newIndex)

	case term.KindUniverse:
		return h, nil

	case term.KindPi:
		params, err := s.shiftParams(n.Params, cutoff, amount)
		if err != nil {
			return 0, err
		}
		output, err := s.Shift(n.Output, amount, cutoff+int(n.Params.Len))
		if err != nil {
			return 0, err
		}
		return s.arena.InternPi(params, output)

	case term.KindLambda:
		params, err := s.shiftParams(n.Params, cutoff, amount)
		if err != nil {
			return 0, err
		}
		returnType, err := s.Shift(n.Output, amount, cutoff+int(n.Params.Len))
		if err != nil {
			return 0, err
		}
		// +1 for the implicit self-reference binder introduced in the body
		// (spec.md §9).
		body, err := s.Shift(n.Body, amount, cutoff+int(n.Params.Len)+1)
		if err != nil {
			return 0, err
		}
		return s.arena.InternLambda(params, returnType, body, n.DecreasingParam)

	case term.KindApp:
		callee, err := s.Shift(n.Callee, amount, cutoff)
		if err != nil {
			return 0, err
		}
		origArgs := s.arena.ArgsOf(n.Args)
		newArgs := make([]term.Arg, len(origArgs))
		for i, arg := range origArgs {
			v, err := s.Shift(arg.Value, amount, cutoff)
			if err != nil {
				return 0, err
			}
			newArgs[i] = term.Arg{Label: arg.Label, Value: v}
		}
		return s.arena.InternApp(callee, newArgs)

	case term.KindMatch:
		scrutinee, err := s.Shift(n.Scrutinee, amount, cutoff)
		if err != nil {
			return 0, err
		}
		origCases := s.arena.CasesOf(n.Cases)
		newCases := make([]term.Case, len(origCases))
		for i, c := range origCases {
			arity := int(c.Params.Len)
			newCase := term.Case{Variant: c.Variant, Params: c.Params, Impossible: c.Impossible}
			if !c.Impossible {
				out, err := s.Shift(c.Output, amount, cutoff+arity)
				if err != nil {
					return 0, err
				}
				newCase.Output = out
			}
			newCases[i] = newCase
		}
		return s.arena.InternMatch(scrutinee, newCases)

	case term.KindTodo:
		return h, nil

	default:
		panic(fmt.Sprintf("shift: unhandled kind %s", n.Kind))
	}
}

// shiftParams shifts a telescope of parameter types, treating each
// parameter's type as bound under the parameters preceding it.
func (s *Shifter) shiftParams(pl term.ParamList, cutoff, amount int) ([]term.Param, error) {
	orig := s.arena.Params(pl)
	out := make([]term.Param, len(orig))
	for i, p := range orig {
		var typ term.Handle
		var err error
		if p.Type != 0 {
			typ, err = s.Shift(p.Type, amount, cutoff+i)
			if err != nil {
				return nil, err
			}
		}
		out[i] = term.Param{Label: p.Label, Type: typ}
	}
	return out, nil
}
