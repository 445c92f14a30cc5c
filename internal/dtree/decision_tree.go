// Package dtree compiles a Match's case list into a dispatch tree. The
// language's matches are single-level (a case names one constructor, never
// a nested pattern), so the tree is one switch over the scrutinee's head
// constructor; compiling it once per match still pays off because the
// normalizer re-enters the same match on every ι-step of an unfolding
// recursive definition.
package dtree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kantu-lang/corecheck/internal/term"
)

// Leaf is the outcome of dispatching to one covered variant.
type Leaf struct {
	// CaseIndex is the arm's position in the source case list, preserved so
	// diagnostics and tests can refer back to the author's ordering.
	CaseIndex int
	Case      term.Case
}

// Tree is the compiled dispatch structure for one Match.
type Tree struct {
	leaves map[term.VariantRef]Leaf
}

// Compile builds the dispatch tree for a case list. A duplicate variant
// keeps the earliest arm: the type checker rejects duplicates before the
// normalizer ever dispatches through the tree, and keeping the first
// preserves deterministic behavior if dispatch happens anyway.
func Compile(cases []term.Case) *Tree {
	t := &Tree{leaves: make(map[term.VariantRef]Leaf, len(cases))}
	for i, c := range cases {
		if _, dup := t.leaves[c.Variant]; dup {
			continue
		}
		t.leaves[c.Variant] = Leaf{CaseIndex: i, Case: c}
	}
	return t
}

// Select returns the arm covering the given constructor.
func (t *Tree) Select(ref term.VariantRef) (Leaf, bool) {
	l, ok := t.leaves[ref]
	return l, ok
}

// Len reports how many distinct variants the tree covers.
func (t *Tree) Len() int { return len(t.leaves) }

// Uncovered lists the variant indices of an inductive with numVariants
// variants that no arm covers, in ascending order. The type checker's
// exhaustiveness rule reports missing variants by name; this is the
// handle-level view tests assert against.
func (t *Tree) Uncovered(inductive term.DeclHandle, numVariants int) []int {
	var missing []int
	for vi := 0; vi < numVariants; vi++ {
		if _, ok := t.leaves[term.VariantRef{Inductive: inductive, VariantIndex: vi}]; !ok {
			missing = append(missing, vi)
		}
	}
	return missing
}

func (t *Tree) String() string {
	type row struct {
		ref  term.VariantRef
		leaf Leaf
	}
	rows := make([]row, 0, len(t.leaves))
	for ref, leaf := range t.leaves {
		rows = append(rows, row{ref, leaf})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ref.Inductive != rows[j].ref.Inductive {
			return rows[i].ref.Inductive < rows[j].ref.Inductive
		}
		return rows[i].ref.VariantIndex < rows[j].ref.VariantIndex
	})

	var parts []string
	for _, r := range rows {
		if r.leaf.Case.Impossible {
			parts = append(parts, fmt.Sprintf("%d.%d=>impossible", r.ref.Inductive, r.ref.VariantIndex))
		} else {
			parts = append(parts, fmt.Sprintf("%d.%d=>arm%d", r.ref.Inductive, r.ref.VariantIndex, r.leaf.CaseIndex))
		}
	}
	return "Switch{" + strings.Join(parts, ", ") + "}"
}
