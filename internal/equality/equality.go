// Package equality implements structural equality (C4): canonical
// α-equivalence of two terms up to index-level translation under a shared
// context length.
package equality

import "github.com/kantu-lang/corecheck/internal/term"

type cacheKey struct {
	h1, h2 term.Handle
	ctxLen int
}

// Checker decides α-equivalence of terms in one arena, memoizing results
// on (h1, h2, context-length) so checking stays quadratic in AST size
// rather than exponential (spec.md §4.4).
type Checker struct {
	arena *term.Arena
	cache map[cacheKey]bool
}

// New creates a Checker bound to an arena.
func New(a *term.Arena) *Checker {
	return &Checker{arena: a, cache: make(map[cacheKey]bool)}
}

// Equal reports whether h1 and h2 are α-equivalent when both are read under
// a context of the given length. Two terms are equal iff they have the
// same variant and corresponding children are equal; for binders, children
// are compared under an extended context; for Name nodes, equality is
// equality of De Bruijn *levels* (derived from ctxLen), not raw indices.
func (c *Checker) Equal(h1, h2 term.Handle, ctxLen int) bool {
	if h1 == h2 {
		// Arena interning guarantees structurally identical subterms share a
		// handle, so same-handle-same-depth is always α-equivalent
		// (invariant 2, spec.md §3).
		return true
	}

	key := cacheKey{h1: h1, h2: h2, ctxLen: ctxLen}
	if cached, ok := c.cache[key]; ok {
		return cached
	}

	result := c.equalUncached(h1, h2, ctxLen)
	c.cache[key] = result
	return result
}

func (c *Checker) equalUncached(h1, h2 term.Handle, ctxLen int) bool {
	n1 := c.arena.Get(h1)
	n2 := c.arena.Get(h2)
	if n1.Kind != n2.Kind {
		return false
	}

	switch n1.Kind {
	case term.KindName:
		level1 := ctxLen - n1.Index - 1
		level2 := ctxLen - n2.Index - 1
		return level1 == level2

	case term.KindUniverse:
		return n1.Universe == n2.Universe

	case term.KindPi:
		return c.equalParams(n1.Params, n2.Params, ctxLen) &&
			c.Equal(n1.Output, n2.Output, ctxLen+int(n1.Params.Len))

	case term.KindLambda:
		if n1.Params.Len != n2.Params.Len || n1.DecreasingParam != n2.DecreasingParam {
			return false
		}
		arity := int(n1.Params.Len)
		return c.equalParams(n1.Params, n2.Params, ctxLen) &&
			c.Equal(n1.Output, n2.Output, ctxLen+arity) &&
			c.Equal(n1.Body, n2.Body, ctxLen+arity+1)

	case term.KindApp:
		args1 := c.arena.ArgsOf(n1.Args)
		args2 := c.arena.ArgsOf(n2.Args)
		if len(args1) != len(args2) {
			return false
		}
		if !c.Equal(n1.Callee, n2.Callee, ctxLen) {
			return false
		}
		for i := range args1 {
			if args1[i].Label != args2[i].Label {
				return false
			}
			if !c.Equal(args1[i].Value, args2[i].Value, ctxLen) {
				return false
			}
		}
		return true

	case term.KindMatch:
		if !c.Equal(n1.Scrutinee, n2.Scrutinee, ctxLen) {
			return false
		}
		cases1 := c.arena.CasesOf(n1.Cases)
		cases2 := c.arena.CasesOf(n2.Cases)
		if len(cases1) != len(cases2) {
			return false
		}
		byVariant := make(map[term.VariantRef]term.Case, len(cases2))
		for _, cs := range cases2 {
			byVariant[cs.Variant] = cs
		}
		for _, cs1 := range cases1 {
			cs2, ok := byVariant[cs1.Variant]
			if !ok {
				return false
			}
			if cs1.Impossible != cs2.Impossible {
				return false
			}
			if cs1.Impossible {
				continue
			}
			if cs1.Params.Len != cs2.Params.Len {
				return false
			}
			if !c.Equal(cs1.Output, cs2.Output, ctxLen+int(cs1.Params.Len)) {
				return false
			}
		}
		return true

	case term.KindTodo:
		return true

	default:
		return false
	}
}

func (c *Checker) equalParams(p1, p2 term.ParamList, ctxLen int) bool {
	if p1.Len != p2.Len {
		return false
	}
	params1 := c.arena.Params(p1)
	params2 := c.arena.Params(p2)
	for i := range params1 {
		if params1[i].Type == 0 && params2[i].Type == 0 {
			continue
		}
		if !c.Equal(params1[i].Type, params2[i].Type, ctxLen+i) {
			return false
		}
	}
	return true
}
