package term

import "fmt"

// DeclKind distinguishes the two declaration forms spec.md §3 allows at
// file scope.
type DeclKind uint8

const (
	DeclInductiveType DeclKind = iota
	DeclDefinition
)

// DeclHandle addresses an InductiveType or a Definition. Declarations are
// not structurally interned like terms (two inductives with the same shape
// but different names are still distinct declarations), so DeclHandle is
// simply a dense position in the arena's declaration list.
type DeclHandle uint32

// Visibility is carried from the resolved AST and exposed in the output
// table (spec.md §6.1, §4.3 of SPEC_FULL.md); the core never computes it.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityUnmarked  Visibility = ""
)

// Variant is one constructor of an InductiveType.
type Variant struct {
	Name       string
	Params     ParamList
	ReturnType Handle
}

type inductiveRec struct {
	Name       string
	NumParams  int
	ParamTypes ParamList
	Variants   []Variant
	Visibility Visibility
}

// GoalAssertion is the optional "goal" debug assertion described in
// SPEC_FULL.md §4.2: a pair of terms a Definition's author expects to be
// α-equivalent after normalization. It is purely diagnostic.
type GoalAssertion struct {
	Lhs, Rhs Handle
}

type definitionRec struct {
	Name       string
	Type       Handle
	Body       Handle
	Visibility Visibility
	Goals      []GoalAssertion
}

// DeclareInductive registers a new inductive type declaration. paramTypes
// are the types of the inductive's own parameters, each evaluated under the
// binders introduced by the preceding parameters (so paramTypes[i] may
// reference indices 0..i-1). Variants are filled in afterwards via
// SetVariants, since a variant's return type often needs to reference the
// inductive being declared (recursive types).
func (a *Arena) DeclareInductive(name string, paramTypes []Param, visibility Visibility) DeclHandle {
	pl := a.addParams(append([]Param(nil), paramTypes...))
	a.inductives = append(a.inductives, inductiveRec{
		Name:       name,
		NumParams:  len(paramTypes),
		ParamTypes: pl,
		Visibility: visibility,
	})
	return DeclHandle(len(a.inductives) - 1)
}

// SetVariants finalizes the variant list of a previously declared
// inductive.
func (a *Arena) SetVariants(h DeclHandle, variants []Variant) {
	a.inductives[h].Variants = variants
}

// Inductive looks up an inductive type's declaration by handle.
func (a *Arena) Inductive(h DeclHandle) (name string, numParams int, paramTypes ParamList, variants []Variant, vis Visibility) {
	rec := a.inductives[h]
	return rec.Name, rec.NumParams, rec.ParamTypes, rec.Variants, rec.Visibility
}

// DeclareDefinition registers a top-level value definition.
func (a *Arena) DeclareDefinition(name string, typ, body Handle, visibility Visibility, goals []GoalAssertion) DeclHandle {
	a.definitions = append(a.definitions, definitionRec{
		Name:       name,
		Type:       typ,
		Body:       body,
		Visibility: visibility,
		Goals:      goals,
	})
	return DeclHandle(len(a.definitions) - 1)
}

// Definition looks up a value definition's declaration by handle.
func (a *Arena) Definition(h DeclHandle) (name string, typ, body Handle, vis Visibility, goals []GoalAssertion) {
	rec := a.definitions[h]
	return rec.Name, rec.Type, rec.Body, rec.Visibility, rec.Goals
}

// NumInductives and NumDefinitions support deterministic declaration-order
// traversal (spec.md §4.9 "Failure semantics").
func (a *Arena) NumInductives() int  { return len(a.inductives) }
func (a *Arena) NumDefinitions() int { return len(a.definitions) }

func (a *Arena) String() string {
	return fmt.Sprintf("Arena{terms=%d inductives=%d definitions=%d}", a.HandleCount(), len(a.inductives), len(a.definitions))
}
