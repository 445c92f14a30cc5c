package term

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxHandle bounds the dense handle space. Spec.md §4.1 treats overflow of
// this space as a fatal engineering-limit error, not a recoverable one.
const maxHandle = 1<<32 - 2

// ErrHandleSpaceExhausted is returned by intern when the arena cannot mint
// another handle.
type ErrHandleSpaceExhausted struct{ Requested Kind }

func (e *ErrHandleSpaceExhausted) Error() string {
	return fmt.Sprintf("term arena: handle space exhausted interning a %s node", e.Requested)
}

// Arena is the immutable, append-only interned store of every node of the
// resolved AST (C1). Nothing removes or mutates a node once interned.
type Arena struct {
	nodes []Node // nodes[0] is a sentinel; real handles are >= 1
	index map[string]Handle

	params []Param
	args   []Arg
	cases  []Case

	inductives  []inductiveRec
	definitions []definitionRec
}

// NewArena creates an empty term arena.
func NewArena() *Arena {
	return &Arena{
		nodes: make([]Node, 1), // index 0 reserved as the invalid handle
		index: make(map[string]Handle),
	}
}

// Get dereferences a handle to its node. Panics on an invalid handle, since
// every handle in circulation was minted by this same arena and invariant 1
// (spec.md §3) guarantees it stays resolvable for the arena's lifetime.
func (a *Arena) Get(h Handle) Node {
	if h == 0 || int(h) >= len(a.nodes) {
		panic(fmt.Sprintf("term arena: invalid handle %d", h))
	}
	return a.nodes[h]
}

// Params returns the slice backing a ParamList.
func (a *Arena) Params(pl ParamList) []Param {
	return a.params[pl.Start : pl.Start+pl.Len]
}

// ArgsOf returns the slice backing an ArgList.
func (a *Arena) ArgsOf(al ArgList) []Arg {
	return a.args[al.Start : al.Start+al.Len]
}

// CasesOf returns the slice backing a CaseList.
func (a *Arena) CasesOf(cl CaseList) []Case {
	return a.cases[cl.Start : cl.Start+cl.Len]
}

func (a *Arena) addParams(ps []Param) ParamList {
	for i := range ps {
		ps[i].Label = normalizeLabel(ps[i].Label)
	}
	start := uint32(len(a.params))
	a.params = append(a.params, ps...)
	return ParamList{Start: start, Len: uint32(len(ps))}
}

func (a *Arena) addArgs(as []Arg) ArgList {
	for i := range as {
		as[i].Label = normalizeLabel(as[i].Label)
	}
	start := uint32(len(a.args))
	a.args = append(a.args, as...)
	return ArgList{Start: start, Len: uint32(len(as))}
}

func (a *Arena) addCases(cs []Case) CaseList {
	start := uint32(len(a.cases))
	a.cases = append(a.cases, cs...)
	return CaseList{Start: start, Len: uint32(len(cs))}
}

// normalizeLabel NFC-normalizes a label's text so that two labels spelled
// with different Unicode decompositions (e.g. "café" NFC vs NFD) intern
// identically, matching the normalization the upstream lexer performs on
// source identifiers.
func normalizeLabel(l Label) Label {
	if !l.Set {
		return l
	}
	b := []byte(l.Name)
	if !norm.NFC.IsNormal(b) {
		l.Name = string(norm.NFC.Bytes(b))
	}
	return l
}

func (a *Arena) intern(n Node, key string) (Handle, error) {
	if h, ok := a.index[key]; ok {
		return h, nil
	}
	if len(a.nodes) > maxHandle {
		return 0, &ErrHandleSpaceExhausted{Requested: n.Kind}
	}
	h := Handle(len(a.nodes))
	a.nodes = append(a.nodes, n)
	a.index[key] = h
	return h, nil
}

func paramKey(sb *strings.Builder, p Param) {
	if p.Label.Set {
		sb.WriteString(normalizeLabel(p.Label).Name)
	}
	sb.WriteByte(':')
	fmt.Fprintf(sb, "%d", p.Type)
	sb.WriteByte(';')
}

// InternParams stores a parameter list in the arena's flat param vector,
// for callers (the resolved-AST decoder, match-case construction) that need
// a ParamList without an enclosing Pi or Lambda node.
func (a *Arena) InternParams(ps []Param) ParamList {
	return a.addParams(append([]Param(nil), ps...))
}

// InternName interns a De Bruijn index reference.
func (a *Arena) InternName(index int) (Handle, error) {
	key := fmt.Sprintf("N:%d", index)
	return a.intern(Node{Kind: KindName, Index: index}, key)
}

// InternUniverse interns a universe literal.
func (a *Arena) InternUniverse(u Universe) (Handle, error) {
	key := fmt.Sprintf("U:%d", u)
	return a.intern(Node{Kind: KindUniverse, Universe: u}, key)
}

// InternPi interns a dependent function type.
func (a *Arena) InternPi(params []Param, output Handle) (Handle, error) {
	var sb strings.Builder
	sb.WriteString("Pi:")
	for _, p := range params {
		paramKey(&sb, p)
	}
	fmt.Fprintf(&sb, "->%d", output)
	pl := a.addParams(append([]Param(nil), params...))
	return a.intern(Node{Kind: KindPi, Params: pl, Output: output}, sb.String())
}

// InternLambda interns a function value. The body is expected to already
// account for the implicit self-reference binder described in spec.md §9.
// decreasingParam is the declared structurally-decreasing parameter
// position C6 enforces on recursive self-calls, or NoDecreasingParam if
// the function declares none.
func (a *Arena) InternLambda(params []Param, returnType, body Handle, decreasingParam int) (Handle, error) {
	var sb strings.Builder
	sb.WriteString("Lam:")
	for _, p := range params {
		paramKey(&sb, p)
	}
	fmt.Fprintf(&sb, "->%d{%d}dec%d", returnType, body, decreasingParam)
	pl := a.addParams(append([]Param(nil), params...))
	return a.intern(Node{Kind: KindLambda, Params: pl, Output: returnType, Body: body, DecreasingParam: decreasingParam}, sb.String())
}

// InternApp interns a function application. Args must be entirely
// positional or entirely labeled; mixed conventions are a type-checker
// concern (CallLabelednessMismatch), not an arena-level restriction.
func (a *Arena) InternApp(callee Handle, args []Arg) (Handle, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "App:%d(", callee)
	for _, arg := range args {
		if arg.Label.Set {
			sb.WriteString(normalizeLabel(arg.Label).Name)
		}
		fmt.Fprintf(&sb, ":%d,", arg.Value)
	}
	sb.WriteByte(')')
	al := a.addArgs(append([]Arg(nil), args...))
	return a.intern(Node{Kind: KindApp, Callee: callee, Args: al}, sb.String())
}

// InternMatch interns a pattern match. Cases are stored in the order
// given; callers (the type checker) are responsible for detecting
// duplicates and gaps against the matchee's variant set.
func (a *Arena) InternMatch(scrutinee Handle, cases []Case) (Handle, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Match:%d[", scrutinee)
	for _, c := range cases {
		if c.Impossible {
			fmt.Fprintf(&sb, "%d.%d!,", c.Variant.Inductive, c.Variant.VariantIndex)
		} else {
			fmt.Fprintf(&sb, "%d.%d=%d,", c.Variant.Inductive, c.Variant.VariantIndex, c.Output)
		}
	}
	sb.WriteByte(']')
	cl := a.addCases(append([]Case(nil), cases...))
	return a.intern(Node{Kind: KindMatch, Scrutinee: scrutinee, Cases: cl}, sb.String())
}

// InternTodo interns the `todo` placeholder. Every occurrence of `todo` in
// the source is structurally identical, so this always returns the same
// handle.
func (a *Arena) InternTodo() (Handle, error) {
	return a.intern(Node{Kind: KindTodo}, "Todo")
}

// HandleCount reports how many real (non-sentinel) handles have been
// minted so far, mostly useful for tests and for the MaxArenaHandles
// guard internal/pipeline applies (the cap itself lives in internal/config).
func (a *Arena) HandleCount() int { return len(a.nodes) - 1 }
