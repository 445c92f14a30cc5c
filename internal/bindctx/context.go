// Package bindctx implements the evaluation context (C3): a stack of typed
// bindings, each optionally carrying a definition and a classifier tag
// consumed by the recursion validator (C6).
package bindctx

import (
	"fmt"

	"github.com/kantu-lang/corecheck/internal/shift"
	"github.com/kantu-lang/corecheck/internal/term"
)

// Restriction is the reference restriction C6 attaches to a function's own
// self-binder.
type Restriction interface{ isRestriction() }

// CannotCall marks a binder that must never be referenced in callee
// position (e.g. a non-recursive lambda's self-binder).
type CannotCall struct{}

func (CannotCall) isRestriction() {}

// MustCallWithSubstruct marks a recursive function's self-binder: any call
// to it must pass, at ArgPosition, a Name that is a strict structural
// substruct of ParentLevel.
type MustCallWithSubstruct struct {
	ParentLevel int
	ArgPosition int
}

func (MustCallWithSubstruct) isRestriction() {}

// Classifier tags a binding for C6's purposes.
type Classifier interface{ isClassifier() }

// SubstructOf marks a binder introduced by deconstructing ParentLevel via
// match (a constructor parameter).
type SubstructOf struct{ ParentLevel int }

func (SubstructOf) isClassifier() {}

// FunSelf marks a lambda's implicit self-reference binder.
type FunSelf struct{ Restriction Restriction }

func (FunSelf) isClassifier() {}

// Uninterpreted marks any other binding (ordinary function parameters,
// Pi parameters, the two universe-prelude slots).
type Uninterpreted struct{}

func (Uninterpreted) isClassifier() {}

// Entry is one binding in the context.
type Entry struct {
	// Type is the binding's type, expressed with free indices relative to
	// the context as it existed immediately before this entry was pushed
	// (i.e. a context of length Level).
	Type term.Handle

	// HasDefinition and Definition mirror Type's shifting convention for an
	// optional let-bound or recursive-placeholder definition.
	HasDefinition bool
	Definition    term.Handle

	Classifier Classifier

	// Level is the depth Type and Definition are expressed under. For an
	// ordinary Push that is the context length immediately before the push;
	// prelude slots are instead authored under the full prelude (spec.md
	// §6.1's synthetic global prelude allows forward references), so
	// PushAuthoredAt records the prelude's final depth here instead.
	Level int
}

// Context is the single mutable binding stack described by spec.md §4.3.
// It is not safe for concurrent use; each pass invocation owns its own
// Context for the duration of that invocation (spec.md §5).
type Context struct {
	entries []Entry
	shifter *shift.Shifter
}

// New creates a context seeded with the two Uninterpreted entries
// representing Type1 and Type0 (spec.md §4.3), using s to re-shift stored
// types on lookup.
func New(s *shift.Shifter) *Context {
	c := &Context{shifter: s}
	c.entries = append(c.entries,
		Entry{Classifier: Uninterpreted{}, Level: 0}, // represents Type1
		Entry{Classifier: Uninterpreted{}, Level: 1}, // represents Type0
	)
	return c
}

// Len returns the current context depth.
func (c *Context) Len() int { return len(c.entries) }

// Push appends a new binding. typ and (if present) definition must be
// expressed relative to the context as it exists right now, before the
// push.
func (c *Context) Push(typ term.Handle, hasDefinition bool, definition term.Handle, classifier Classifier) {
	c.entries = append(c.entries, Entry{
		Type:          typ,
		HasDefinition: hasDefinition,
		Definition:    definition,
		Classifier:    classifier,
		Level:         len(c.entries),
	})
}

// PushAuthoredAt appends a binding whose stored terms are expressed
// relative to a context of the given depth rather than the current length.
// The resolved-AST prelude builder uses it: declaration records reference
// the whole prelude, later slots included, so they are only valid once
// every slot is in place.
func (c *Context) PushAuthoredAt(typ term.Handle, hasDefinition bool, definition term.Handle, classifier Classifier, depth int) {
	c.entries = append(c.entries, Entry{
		Type:          typ,
		HasDefinition: hasDefinition,
		Definition:    definition,
		Classifier:    classifier,
		Level:         depth,
	})
}

// Pop removes the n most recently pushed entries. It panics if asked to pop
// below the two reserved universe slots, since that would violate the
// context-balance invariant (spec.md §8.1) that every push is matched by a
// pop on every exit path.
func (c *Context) Pop(n int) {
	if len(c.entries)-n < 2 {
		panic(fmt.Sprintf("bindctx: pop(%d) would underflow below the reserved universe prelude (len=%d)", n, len(c.entries)))
	}
	c.entries = c.entries[:len(c.entries)-n]
}

// Truncate sets the context length directly. It is used by error-handling
// paths that need to restore a known-good depth in one step rather than via
// a computed Pop count.
func (c *Context) Truncate(length int) {
	if length < 2 {
		panic(fmt.Sprintf("bindctx: truncate(%d) would underflow below the reserved universe prelude", length))
	}
	c.entries = c.entries[:length]
}

// IndexToLevel converts a De Bruijn index to its absolute level.
func (c *Context) IndexToLevel(index int) int { return len(c.entries) - index - 1 }

// LevelToIndex converts an absolute level to the De Bruijn index that
// currently refers to it.
func (c *Context) LevelToIndex(level int) int { return len(c.entries) - level - 1 }

// entryAt returns the entry at the given index along with the shift amount
// needed to bring its stored terms up to the current depth.
func (c *Context) entryAt(index int) (Entry, int) {
	level := c.IndexToLevel(index)
	entry := c.entries[level]
	shiftAmount := len(c.entries) - entry.Level
	return entry, shiftAmount
}

// TypeOf returns the type bound to index, re-shifted to be valid under the
// current depth.
func (c *Context) TypeOf(index int) (term.Handle, error) {
	entry, amount := c.entryAt(index)
	if amount == 0 {
		return entry.Type, nil
	}
	return c.shifter.Upshift(entry.Type, amount, 0)
}

// DefinitionOf returns index's optional definition, re-shifted to be valid
// under the current depth.
func (c *Context) DefinitionOf(index int) (term.Handle, bool, error) {
	entry, amount := c.entryAt(index)
	if !entry.HasDefinition {
		return 0, false, nil
	}
	if amount == 0 {
		return entry.Definition, true, nil
	}
	h, err := c.shifter.Upshift(entry.Definition, amount, 0)
	return h, true, err
}

// ClassifierOf returns index's classifier tag.
func (c *Context) ClassifierOf(index int) Classifier {
	entry, _ := c.entryAt(index)
	return entry.Classifier
}

// LevelOfIndex is a convenience wrapper used by the recursion validator to
// read off a Name's absolute level directly.
func (c *Context) LevelOfIndex(index int) int { return c.IndexToLevel(index) }
