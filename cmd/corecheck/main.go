package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/kantu-lang/corecheck/internal/config"
	"github.com/kantu-lang/corecheck/internal/diagnostic"
	"github.com/kantu-lang/corecheck/internal/pipeline"
	"github.com/kantu-lang/corecheck/internal/repl"
	"github.com/kantu-lang/corecheck/internal/resolved"
	"github.com/kantu-lang/corecheck/internal/term"
)

var (
	// Version info - set by ldflags during build
	Version = "dev"
	Commit  = "unknown"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "Print version information")
		helpFlag    = flag.Bool("help", false, "Show help")
		configPath  = flag.String("config", "", "Path to a run-configuration YAML file")
		explainFlag = flag.Bool("explain", false, "On success, print every definition's inferred type")
		jsonFlag    = flag.Bool("json", false, "Print diagnostics as JSON instead of human-readable text")
		traceFlag   = flag.Bool("trace", false, "Print each pipeline pass as it runs")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
	)
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}
	if *versionFlag {
		printVersion()
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		exitWithDiagnostic(diagnostic.NewDriver(diagnostic.DRV002, err), *jsonFlag)
	}
	if *traceFlag {
		cfg.TraceStages = true
	}

	switch command := flag.Arg(0); command {
	case "check":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
			fmt.Println("Usage: corecheck check <resolved-ast.json>")
			os.Exit(1)
		}
		checkFile(flag.Arg(1), cfg, *explainFlag, *jsonFlag)

	case "repl":
		repl.New(cfg, Version).Run()

	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command '%s'\n", red("Error"), command)
		printHelp()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.RunConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func checkFile(path string, cfg *config.RunConfig, explain, asJSON bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		exitWithDiagnostic(diagnostic.NewDriver(diagnostic.DRV001, err), asJSON)
	}
	program, err := resolved.DecodeProgram(data)
	if err != nil {
		exitWithDiagnostic(diagnostic.NewDriver(diagnostic.DRV001, err), asJSON)
	}

	var trace io.Writer = os.Stdout
	result := pipeline.Run(program, cfg, trace)

	if !result.Ok() {
		for _, w := range result.Warnings {
			fmt.Printf("%s %v\n", yellow("warning:"), w)
		}
		exitWithDiagnostic(result.Diagnostic, asJSON)
	}

	fmt.Printf("%s %s  %s %s\n", green("ok"), result.Stage, dim("run"), dim(result.RunID))
	for _, w := range result.Warnings {
		fmt.Printf("%s %v\n", yellow("warning:"), w)
	}
	if explain {
		explainResult(program, result)
	}
}

// explainResult prints each definition's inferred normal-form type and
// carried visibility, in declaration order.
func explainResult(program *resolved.Program, result *pipeline.Result) {
	arena := program.Arena
	for i := 0; i < arena.NumInductives(); i++ {
		name, numParams, _, variants, vis := arena.Inductive(term.DeclHandle(i))
		fmt.Printf("%s %s %s\n", cyan("type"), bold(name), dim(describeInductive(numParams, len(variants), vis)))
	}
	for i := 0; i < arena.NumDefinitions(); i++ {
		h := term.DeclHandle(i)
		name, _, _, _, _ := arena.Definition(h)
		typ, ok := result.Table.Definitions[h]
		if !ok {
			continue
		}
		line := fmt.Sprintf("%s %s : %s", cyan("let"), bold(name), arena.Print(typ))
		if vis := result.Table.Visibility[h]; vis != term.VisibilityUnmarked {
			line += " " + dim("["+string(vis)+"]")
		}
		fmt.Println(line)
	}
}

func describeInductive(numParams, numVariants int, vis term.Visibility) string {
	s := fmt.Sprintf("(%d param(s), %d variant(s))", numParams, numVariants)
	if vis != term.VisibilityUnmarked {
		s += " [" + string(vis) + "]"
	}
	return s
}

func exitWithDiagnostic(d *diagnostic.Diagnostic, asJSON bool) {
	if asJSON {
		data, err := d.ToJSON()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	} else {
		fmt.Print(diagnostic.Format(d))
	}
	os.Exit(1)
}

func printVersion() {
	fmt.Printf("corecheck %s\n", bold(Version))
	if Commit != "unknown" {
		fmt.Printf("Commit: %s\n", Commit)
	}
}

func printHelp() {
	fmt.Println(bold("corecheck - dependent-core checking pipeline"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  corecheck <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s <file>    Run the full pass pipeline over a resolved-AST JSON file\n", cyan("check"))
	fmt.Printf("  %s            Start the interactive checking loop\n", cyan("repl"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --version        Print version information")
	fmt.Println("  --help           Show this help message")
	fmt.Println("  --config <file>  Load a run-configuration YAML file")
	fmt.Println("  --explain        On success, print every definition's inferred type")
	fmt.Println("  --json           Print diagnostics as JSON")
	fmt.Println("  --trace          Print each pipeline pass as it runs")
	fmt.Println("  --no-color       Disable colored output")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s   # check a file and show each definition's type\n", cyan("corecheck --explain check main.json"))
	fmt.Printf("  %s                        # interactive session\n", cyan("corecheck repl"))
}
