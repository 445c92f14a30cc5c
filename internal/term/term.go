// Package term implements the interned term arena (C1) for the resolved
// AST: terms, parameters, call arguments and match cases, all addressed by
// small dense handles instead of pointers.
package term

import "fmt"

// Handle addresses one interned Term node. The zero Handle is never valid;
// real handles start at 1 so a zero value reliably means "absent".
type Handle uint32

// Kind tags the variant of a Term node.
type Kind uint8

const (
	KindName Kind = iota
	KindUniverse
	KindPi
	KindLambda
	KindApp
	KindMatch
	KindTodo
)

func (k Kind) String() string {
	switch k {
	case KindName:
		return "Name"
	case KindUniverse:
		return "Universe"
	case KindPi:
		return "Pi"
	case KindLambda:
		return "Lambda"
	case KindApp:
		return "App"
	case KindMatch:
		return "Match"
	case KindTodo:
		return "Todo"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Universe distinguishes Type0 from Type1 (spec.md §3).
type Universe uint8

const (
	Type0 Universe = iota
	Type1
)

func (u Universe) String() string {
	if u == Type0 {
		return "Type0"
	}
	return "Type1"
}

// Label is an optional identifier attached to a parameter or a call/match
// argument. The zero value (Set=false) means positional.
type Label struct {
	Name string
	Set  bool
}

func NoLabel() Label           { return Label{} }
func SomeLabel(name string) Label { return Label{Name: name, Set: true} }

// NoDecreasingParam marks a Lambda whose self-binder carries the CannotCall
// restriction (spec.md §4.6): it declares no decreasing parameter, so any
// reference to its own self-binder is rejected outright.
const NoDecreasingParam = -1

// Param is one entry of a Pi or Lambda parameter list, or a Match case's
// constructor-parameter list.
type Param struct {
	Label Label
	Type  Handle // invalid (0) for case parameters, which borrow the variant's types
}

// ParamList is a (start, length) slice into the arena's flat param vector.
type ParamList struct {
	Start, Len uint32
}

// Arg is one entry of an App's argument list.
type Arg struct {
	Label Label
	Value Handle
}

// ArgList is a (start, length) slice into the arena's flat arg vector.
type ArgList struct {
	Start, Len uint32
}

// VariantRef identifies a constructor by its declaring inductive and
// position within that inductive's variant list.
type VariantRef struct {
	Inductive    DeclHandle
	VariantIndex int
}

// Case is one arm of a Match.
type Case struct {
	Variant     VariantRef
	Params      ParamList // constructor-parameter bindings introduced by this case
	Impossible  bool
	Output      Handle // invalid (0) when Impossible is true
}

// CaseList is a (start, length) slice into the arena's flat case vector.
type CaseList struct {
	Start, Len uint32
}

// Node is the tagged-union representation of one interned Term. Only the
// fields relevant to Kind are meaningful; this mirrors a single sum type
// via field-per-variant rather than an interface, since every pass
// pattern-matches on Kind rather than dispatching through a method set.
type Node struct {
	Kind Kind

	// KindName
	Index int

	// KindUniverse
	Universe Universe

	// KindPi, KindLambda
	Params     ParamList
	Output     Handle // Pi's result type, or Lambda's declared return type
	Body       Handle // KindLambda only

	// DecreasingParam is KindLambda only: the position of the parameter the
	// recursion validator (C6) must see strictly decrease on every
	// self-call, or NoDecreasingParam if the function is non-recursive (or
	// its self-binder must never be called).
	DecreasingParam int

	// KindApp
	Callee Handle
	Args   ArgList

	// KindMatch
	Scrutinee Handle
	Cases     CaseList
}
