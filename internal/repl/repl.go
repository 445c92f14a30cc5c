// Package repl implements an interactive checking loop: paste or load a
// JSON resolved-AST document, run it through the full pass pipeline, and
// query the types the checker assigned. There is no evaluator behind it —
// the "eval" step of this REPL's read-eval-print is "check".
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/kantu-lang/corecheck/internal/config"
	"github.com/kantu-lang/corecheck/internal/diagnostic"
	"github.com/kantu-lang/corecheck/internal/equality"
	"github.com/kantu-lang/corecheck/internal/normalize"
	"github.com/kantu-lang/corecheck/internal/pipeline"
	"github.com/kantu-lang/corecheck/internal/resolved"
	"github.com/kantu-lang/corecheck/internal/term"
	"github.com/kantu-lang/corecheck/internal/typecheck"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

const historyFile = ".corecheck_history"

// REPL holds the session state: the run configuration, the last loaded
// program and the last pipeline result over it.
type REPL struct {
	cfg     *config.RunConfig
	program *resolved.Program
	result  *pipeline.Result
	history []string
	version string
}

// New creates a REPL session. cfg may be nil for defaults.
func New(cfg *config.RunConfig, version string) *REPL {
	if cfg == nil {
		cfg = config.Default()
	}
	return &REPL{cfg: cfg, version: version}
}

// Run drives the interactive loop on the terminal until :quit or EOF.
func (r *REPL) Run() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := filepath.Join(os.TempDir(), historyFile)
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
	}
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Printf("%s %s — dependent core checker\n", bold("corecheck"), r.version)
	fmt.Printf("Type %s for help, %s to exit\n\n", cyan(":help"), cyan(":quit"))

	for {
		input, err := line.Prompt(green("λ> "))
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("input error"), err)
			return
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)
		if quit := r.handleLine(input, os.Stdout); quit {
			fmt.Println("Goodbye!")
			return
		}
	}
}

// handleLine processes one line of input and reports whether the session
// should end. Split out from Run so tests can drive the REPL without a
// terminal.
func (r *REPL) handleLine(input string, out io.Writer) bool {
	input = strings.TrimSpace(input)
	r.history = append(r.history, input)

	switch {
	case input == ":quit" || input == ":q" || input == ":exit":
		return true

	case input == ":help" || input == ":h":
		r.printHelp(out)

	case input == ":history":
		for i, h := range r.history {
			fmt.Fprintf(out, "%3d. %s\n", i+1, h)
		}

	case input == ":stage":
		if r.result == nil {
			fmt.Fprintln(out, yellow("no program checked yet"))
			break
		}
		fmt.Fprintf(out, "%s %s  %s %s\n", cyan("stage:"), r.result.Stage, dim("run"), dim(r.result.RunID))

	case input == ":warnings":
		if r.result == nil {
			fmt.Fprintln(out, yellow("no program checked yet"))
			break
		}
		if len(r.result.Warnings) == 0 {
			fmt.Fprintln(out, green("no warnings"))
			break
		}
		for _, w := range r.result.Warnings {
			fmt.Fprintf(out, "%s %v\n", yellow("warning:"), w)
		}

	case input == ":decls":
		r.printDecls(out)

	case strings.HasPrefix(input, ":load "):
		path := strings.TrimSpace(strings.TrimPrefix(input, ":load "))
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("error"), err)
			break
		}
		r.checkDocument(data, out)

	case strings.HasPrefix(input, ":type "):
		r.inferTerm(strings.TrimSpace(strings.TrimPrefix(input, ":type ")), out)

	case strings.HasPrefix(input, "{"):
		// A pasted resolved-AST document.
		r.checkDocument([]byte(input), out)

	case strings.HasPrefix(input, ":"):
		fmt.Fprintf(out, "%s: unknown command %s (try %s)\n", red("error"), input, cyan(":help"))

	default:
		fmt.Fprintf(out, "%s: input must be a JSON document or a %s command\n", red("error"), cyan(":"))
	}
	return false
}

func (r *REPL) printHelp(out io.Writer) {
	fmt.Fprintln(out, bold("Commands:"))
	fmt.Fprintf(out, "  %s <file>   check a resolved-AST JSON file\n", cyan(":load"))
	fmt.Fprintf(out, "  %s <json>   infer a term's type against the loaded program\n", cyan(":type"))
	fmt.Fprintf(out, "  %s          list the loaded declarations and their types\n", cyan(":decls"))
	fmt.Fprintf(out, "  %s       list the last run's warnings\n", cyan(":warnings"))
	fmt.Fprintf(out, "  %s          show the last run's pipeline stage\n", cyan(":stage"))
	fmt.Fprintf(out, "  %s        show input history\n", cyan(":history"))
	fmt.Fprintf(out, "  %s           quit\n", cyan(":quit"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "A line starting with '{' is checked as a pasted resolved-AST document.")
}

func (r *REPL) checkDocument(data []byte, out io.Writer) {
	program, err := resolved.DecodeProgram(data)
	if err != nil {
		d := diagnostic.NewDriver(diagnostic.DRV001, err)
		fmt.Fprint(out, diagnostic.Format(d))
		return
	}
	result := pipeline.Run(program, r.cfg, out)
	r.program = program
	r.result = result

	if !result.Ok() {
		fmt.Fprint(out, diagnostic.Format(result.Diagnostic))
		return
	}
	fmt.Fprintf(out, "%s %s  %s %s\n", green("ok"), result.Stage, dim("run"), dim(result.RunID))
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "%s %v\n", yellow("warning:"), w)
	}
	r.printDecls(out)
}

func (r *REPL) printDecls(out io.Writer) {
	if r.program == nil || r.result == nil || r.result.Table == nil {
		fmt.Fprintln(out, yellow("no program checked yet"))
		return
	}
	arena := r.program.Arena
	for i := 0; i < arena.NumInductives(); i++ {
		name, numParams, _, variants, _ := arena.Inductive(term.DeclHandle(i))
		fmt.Fprintf(out, "%s %s %s\n", cyan("type"), bold(name), dim(fmt.Sprintf("(%d param(s), %d variant(s))", numParams, len(variants))))
	}
	for i := 0; i < arena.NumDefinitions(); i++ {
		h := term.DeclHandle(i)
		name, _, _, _, _ := arena.Definition(h)
		typ, ok := r.result.Table.Definitions[h]
		if !ok {
			fmt.Fprintf(out, "%s %s : %s\n", cyan("let"), bold(name), dim("(unchecked)"))
			continue
		}
		fmt.Fprintf(out, "%s %s : %s\n", cyan("let"), bold(name), arena.Print(typ))
	}
}

// inferTerm type-checks one ad-hoc term against the loaded program's base
// context.
func (r *REPL) inferTerm(src string, out io.Writer) {
	if r.program == nil {
		fmt.Fprintf(out, "%s: load a program first (%s)\n", red("error"), cyan(":load <file>"))
		return
	}
	h, err := resolved.DecodeTerm(r.program.Arena, []byte(src))
	if err != nil {
		d := diagnostic.NewDriver(diagnostic.DRV001, err)
		fmt.Fprint(out, diagnostic.Format(d))
		return
	}

	ctx, shifter, err := pipeline.BaseContext(r.program)
	if err != nil {
		fmt.Fprint(out, diagnostic.Format(diagnostic.FromError(err)))
		return
	}
	nz := normalize.New(r.program, shifter)
	eq := equality.New(r.program.Arena)
	checker := typecheck.New(r.program, shifter, nz, eq)

	typ, err := checker.Infer(ctx, h)
	if err != nil {
		fmt.Fprint(out, diagnostic.Format(diagnostic.FromError(err)))
		return
	}
	fmt.Fprintf(out, "%s : %s\n", r.program.Arena.Print(h), bold(r.program.Arena.Print(typ)))
}
