package resolved

import (
	"encoding/json"
	"fmt"

	"github.com/kantu-lang/corecheck/internal/term"
)

// This file decodes the JSON form of the resolved AST the upstream
// parser+resolver hands over (spec.md §6.1). The format is deliberately
// literal: every identifier is already a De Bruijn index, every variant
// reference is already an (inductive ordinal, variant ordinal) pair, so the
// decoder interns nodes without doing any name resolution of its own.
//
// Document shape (indices are De Bruijn references into the full prelude —
// here Type1, Type0, Nat, O, S, one, depth 6 — plus local binders):
//
//	{"files": [{"id": "main", "decls": [
//	  {"inductive": {"name": "Nat", "visibility": "public", "params": [],
//	    "variants": [
//	      {"name": "O", "params": [], "return": {"name": 3}},
//	      {"name": "S", "params": [{"label": "pred", "type": {"name": 3}}],
//	       "return": {"name": 4}}]}},
//	  {"definition": {"name": "one", "type": {"name": 3},
//	    "body": {"call": {"callee": {"name": 1},
//	                      "args": [{"value": {"name": 2}}]}}}}]}]}
//
// Term shape, one discriminating key per kind:
//
//	{"name": i}
//	{"universe": "Type0" | "Type1"}
//	{"pi": {"params": [param], "output": term}}
//	{"fun": {"params": [param], "return": term, "body": term,
//	         "decreasing": k}}        // "decreasing" absent: not recursive
//	{"call": {"callee": term, "args": [{"label": l?, "value": term}]}}
//	{"match": {"scrutinee": term, "cases": [
//	   {"inductive": n, "variant": v, "params": [{"label": l?}],
//	    "impossible": bool, "output": term}]}}
//	{"todo": true}

type docJSON struct {
	Files []fileJSON `json:"files"`
}

type fileJSON struct {
	ID    string     `json:"id"`
	Decls []declJSON `json:"decls"`
}

type declJSON struct {
	Inductive  *inductiveJSON  `json:"inductive,omitempty"`
	Definition *definitionJSON `json:"definition,omitempty"`
}

type inductiveJSON struct {
	Name       string        `json:"name"`
	Visibility string        `json:"visibility,omitempty"`
	Params     []paramJSON   `json:"params"`
	Variants   []variantJSON `json:"variants"`
}

type variantJSON struct {
	Name   string      `json:"name"`
	Params []paramJSON `json:"params"`
	Return termJSON    `json:"return"`
}

type definitionJSON struct {
	Name       string     `json:"name"`
	Visibility string     `json:"visibility,omitempty"`
	Type       termJSON   `json:"type"`
	Body       termJSON   `json:"body"`
	Goals      []goalJSON `json:"goals,omitempty"`
}

type goalJSON struct {
	Lhs termJSON `json:"lhs"`
	Rhs termJSON `json:"rhs"`
}

type paramJSON struct {
	Label string    `json:"label,omitempty"`
	Type  *termJSON `json:"type,omitempty"` // absent on match-case params
}

type termJSON struct {
	Name     *int       `json:"name,omitempty"`
	Universe *string    `json:"universe,omitempty"`
	Pi       *piJSON    `json:"pi,omitempty"`
	Fun      *funJSON   `json:"fun,omitempty"`
	Call     *callJSON  `json:"call,omitempty"`
	Match    *matchJSON `json:"match,omitempty"`
	Todo     bool       `json:"todo,omitempty"`
}

type piJSON struct {
	Params []paramJSON `json:"params"`
	Output termJSON    `json:"output"`
}

type funJSON struct {
	Params     []paramJSON `json:"params"`
	Return     termJSON    `json:"return"`
	Body       termJSON    `json:"body"`
	Decreasing *int        `json:"decreasing,omitempty"`
}

type callJSON struct {
	Callee termJSON  `json:"callee"`
	Args   []argJSON `json:"args"`
}

type argJSON struct {
	Label string   `json:"label,omitempty"`
	Value termJSON `json:"value"`
}

type matchJSON struct {
	Scrutinee termJSON   `json:"scrutinee"`
	Cases     []caseJSON `json:"cases"`
}

type caseJSON struct {
	Inductive  int         `json:"inductive"`
	Variant    int         `json:"variant"`
	Params     []paramJSON `json:"params"`
	Impossible bool        `json:"impossible,omitempty"`
	Output     *termJSON   `json:"output,omitempty"`
}

// DecodeProgram decodes a resolved-AST document into a fresh arena and
// assembles the Program over it.
func DecodeProgram(data []byte) (*Program, error) {
	var doc docJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("resolved: decode: %w", err)
	}
	arena := term.NewArena()
	files, err := decodeFiles(arena, doc.Files)
	if err != nil {
		return nil, err
	}
	return Build(arena, files), nil
}

// DecodeTerm decodes a single term document into an existing arena, for
// callers (the REPL) that check ad-hoc expressions against an already
// assembled program.
func DecodeTerm(arena *term.Arena, data []byte) (term.Handle, error) {
	var tj termJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return 0, fmt.Errorf("resolved: decode term: %w", err)
	}
	return internTerm(arena, &tj)
}

func decodeFiles(arena *term.Arena, files []fileJSON) ([]File, error) {
	out := make([]File, 0, len(files))
	for _, fj := range files {
		f := File{ID: fj.ID}
		for di, dj := range fj.Decls {
			switch {
			case dj.Inductive != nil && dj.Definition == nil:
				h, err := internInductive(arena, dj.Inductive)
				if err != nil {
					return nil, fmt.Errorf("file %q decl %d: %w", fj.ID, di, err)
				}
				f.Decls = append(f.Decls, DeclRef{Kind: term.DeclInductiveType, Handle: h})

			case dj.Definition != nil && dj.Inductive == nil:
				h, err := internDefinition(arena, dj.Definition)
				if err != nil {
					return nil, fmt.Errorf("file %q decl %d: %w", fj.ID, di, err)
				}
				f.Decls = append(f.Decls, DeclRef{Kind: term.DeclDefinition, Handle: h})

			default:
				return nil, fmt.Errorf("file %q decl %d: exactly one of \"inductive\" or \"definition\" must be set", fj.ID, di)
			}
		}
		out = append(out, f)
	}
	return out, nil
}

func internInductive(arena *term.Arena, ij *inductiveJSON) (term.DeclHandle, error) {
	if ij.Name == "" {
		return 0, fmt.Errorf("inductive missing name")
	}
	params, err := internParams(arena, ij.Params, true)
	if err != nil {
		return 0, fmt.Errorf("inductive %q: %w", ij.Name, err)
	}
	h := arena.DeclareInductive(ij.Name, params, term.Visibility(ij.Visibility))

	variants := make([]term.Variant, 0, len(ij.Variants))
	seen := make(map[string]bool, len(ij.Variants))
	for _, vj := range ij.Variants {
		if vj.Name == "" {
			return 0, fmt.Errorf("inductive %q: variant missing name", ij.Name)
		}
		if seen[vj.Name] {
			return 0, fmt.Errorf("inductive %q: duplicate variant %q", ij.Name, vj.Name)
		}
		seen[vj.Name] = true

		vParams, err := internParams(arena, vj.Params, true)
		if err != nil {
			return 0, fmt.Errorf("inductive %q variant %q: %w", ij.Name, vj.Name, err)
		}
		ret, err := internTerm(arena, &vj.Return)
		if err != nil {
			return 0, fmt.Errorf("inductive %q variant %q return: %w", ij.Name, vj.Name, err)
		}
		pl := arena.InternParams(vParams)
		variants = append(variants, term.Variant{Name: vj.Name, Params: pl, ReturnType: ret})
	}
	arena.SetVariants(h, variants)
	return h, nil
}

func internDefinition(arena *term.Arena, dj *definitionJSON) (term.DeclHandle, error) {
	if dj.Name == "" {
		return 0, fmt.Errorf("definition missing name")
	}
	typ, err := internTerm(arena, &dj.Type)
	if err != nil {
		return 0, fmt.Errorf("definition %q type: %w", dj.Name, err)
	}
	body, err := internTerm(arena, &dj.Body)
	if err != nil {
		return 0, fmt.Errorf("definition %q body: %w", dj.Name, err)
	}
	var goals []term.GoalAssertion
	for gi, gj := range dj.Goals {
		lhs, err := internTerm(arena, &gj.Lhs)
		if err != nil {
			return 0, fmt.Errorf("definition %q goal %d lhs: %w", dj.Name, gi, err)
		}
		rhs, err := internTerm(arena, &gj.Rhs)
		if err != nil {
			return 0, fmt.Errorf("definition %q goal %d rhs: %w", dj.Name, gi, err)
		}
		goals = append(goals, term.GoalAssertion{Lhs: lhs, Rhs: rhs})
	}
	return arena.DeclareDefinition(dj.Name, typ, body, term.Visibility(dj.Visibility), goals), nil
}

func internParams(arena *term.Arena, pjs []paramJSON, typed bool) ([]term.Param, error) {
	out := make([]term.Param, 0, len(pjs))
	for i, pj := range pjs {
		p := term.Param{}
		if pj.Label != "" {
			p.Label = term.SomeLabel(pj.Label)
		}
		if typed {
			if pj.Type == nil {
				return nil, fmt.Errorf("param %d: missing type", i)
			}
			h, err := internTerm(arena, pj.Type)
			if err != nil {
				return nil, fmt.Errorf("param %d: %w", i, err)
			}
			p.Type = h
		} else if pj.Type != nil {
			return nil, fmt.Errorf("param %d: case params carry no type", i)
		}
		out = append(out, p)
	}
	return out, nil
}

func internTerm(arena *term.Arena, tj *termJSON) (term.Handle, error) {
	switch {
	case tj.Name != nil:
		if *tj.Name < 0 {
			return 0, fmt.Errorf("negative De Bruijn index %d", *tj.Name)
		}
		return arena.InternName(*tj.Name)

	case tj.Universe != nil:
		switch *tj.Universe {
		case "Type0":
			return arena.InternUniverse(term.Type0)
		case "Type1":
			return arena.InternUniverse(term.Type1)
		default:
			return 0, fmt.Errorf("unknown universe %q", *tj.Universe)
		}

	case tj.Pi != nil:
		params, err := internParams(arena, tj.Pi.Params, true)
		if err != nil {
			return 0, err
		}
		output, err := internTerm(arena, &tj.Pi.Output)
		if err != nil {
			return 0, err
		}
		return arena.InternPi(params, output)

	case tj.Fun != nil:
		params, err := internParams(arena, tj.Fun.Params, true)
		if err != nil {
			return 0, err
		}
		ret, err := internTerm(arena, &tj.Fun.Return)
		if err != nil {
			return 0, err
		}
		body, err := internTerm(arena, &tj.Fun.Body)
		if err != nil {
			return 0, err
		}
		dec := term.NoDecreasingParam
		if tj.Fun.Decreasing != nil {
			dec = *tj.Fun.Decreasing
			if dec < 0 || dec >= len(params) {
				return 0, fmt.Errorf("decreasing parameter %d out of range for arity %d", dec, len(params))
			}
		}
		return arena.InternLambda(params, ret, body, dec)

	case tj.Call != nil:
		callee, err := internTerm(arena, &tj.Call.Callee)
		if err != nil {
			return 0, err
		}
		args := make([]term.Arg, 0, len(tj.Call.Args))
		for _, aj := range tj.Call.Args {
			v, err := internTerm(arena, &aj.Value)
			if err != nil {
				return 0, err
			}
			a := term.Arg{Value: v}
			if aj.Label != "" {
				a.Label = term.SomeLabel(aj.Label)
			}
			args = append(args, a)
		}
		return arena.InternApp(callee, args)

	case tj.Match != nil:
		scrutinee, err := internTerm(arena, &tj.Match.Scrutinee)
		if err != nil {
			return 0, err
		}
		cases := make([]term.Case, 0, len(tj.Match.Cases))
		for ci, cj := range tj.Match.Cases {
			if cj.Inductive < 0 || cj.Variant < 0 {
				return 0, fmt.Errorf("case %d: negative variant reference", ci)
			}
			params, err := internParams(arena, cj.Params, false)
			if err != nil {
				return 0, fmt.Errorf("case %d: %w", ci, err)
			}
			c := term.Case{
				Variant:    term.VariantRef{Inductive: term.DeclHandle(cj.Inductive), VariantIndex: cj.Variant},
				Params:     arena.InternParams(params),
				Impossible: cj.Impossible,
			}
			if cj.Impossible {
				if cj.Output != nil {
					return 0, fmt.Errorf("case %d: impossible case carries an output", ci)
				}
			} else {
				if cj.Output == nil {
					return 0, fmt.Errorf("case %d: missing output", ci)
				}
				out, err := internTerm(arena, cj.Output)
				if err != nil {
					return 0, fmt.Errorf("case %d: %w", ci, err)
				}
				c.Output = out
			}
			cases = append(cases, c)
		}
		return arena.InternMatch(scrutinee, cases)

	case tj.Todo:
		return arena.InternTodo()

	default:
		return 0, fmt.Errorf("term has no recognized kind key")
	}
}
