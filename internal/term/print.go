package term

import (
	"fmt"
	"strings"
)

// Print renders a term as a compact debug string, used by diagnostics and
// the REPL. It is deliberately minimal: full pretty-printing (operator
// precedence, line wrapping, source-faithful surface syntax) is the
// upstream parser's concern and out of scope here (spec.md §1 Non-goals).
func (a *Arena) Print(h Handle) string {
	n := a.Get(h)
	switch n.Kind {
	case KindName:
		return fmt.Sprintf("#%d", n.Index)
	case KindUniverse:
		return n.Universe.String()
	case KindPi:
		return fmt.Sprintf("forall(%s) {%s}", a.printParams(n.Params), a.Print(n.Output))
	case KindLambda:
		if n.DecreasingParam == NoDecreasingParam {
			return fmt.Sprintf("fun(%s): %s {%s}", a.printParams(n.Params), a.Print(n.Output), a.Print(n.Body))
		}
		return fmt.Sprintf("fun[decreasing=%d](%s): %s {%s}", n.DecreasingParam, a.printParams(n.Params), a.Print(n.Output), a.Print(n.Body))
	case KindApp:
		return fmt.Sprintf("%s(%s)", a.Print(n.Callee), a.printArgs(n.Args))
	case KindMatch:
		return fmt.Sprintf("match %s {%s}", a.Print(n.Scrutinee), a.printCases(n.Cases))
	case KindTodo:
		return "todo"
	default:
		return fmt.Sprintf("<?%s>", n.Kind)
	}
}

func (a *Arena) printParams(pl ParamList) string {
	var parts []string
	for _, p := range a.Params(pl) {
		if p.Label.Set {
			parts = append(parts, fmt.Sprintf("%s: %s", p.Label.Name, a.Print(p.Type)))
		} else {
			parts = append(parts, a.Print(p.Type))
		}
	}
	return strings.Join(parts, ", ") + ","
}

func (a *Arena) printArgs(al ArgList) string {
	var parts []string
	for _, arg := range a.ArgsOf(al) {
		if arg.Label.Set {
			parts = append(parts, fmt.Sprintf("%s: %s", arg.Label.Name, a.Print(arg.Value)))
		} else {
			parts = append(parts, a.Print(arg.Value))
		}
	}
	return strings.Join(parts, ", ")
}

func (a *Arena) printCases(cl CaseList) string {
	var parts []string
	for _, c := range a.CasesOf(cl) {
		if c.Impossible {
			parts = append(parts, fmt.Sprintf(".%d.%d => impossible", c.Variant.Inductive, c.Variant.VariantIndex))
		} else {
			parts = append(parts, fmt.Sprintf(".%d.%d => %s", c.Variant.Inductive, c.Variant.VariantIndex, a.Print(c.Output)))
		}
	}
	return strings.Join(parts, ", ")
}
