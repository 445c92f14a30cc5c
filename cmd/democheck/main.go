// Command democheck hand-builds a few small resolved programs in Go and
// runs them through the full pass pipeline, as a worked example of the
// arena/prelude authoring conventions that doesn't need an upstream parser.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kantu-lang/corecheck/internal/pipeline"
	"github.com/kantu-lang/corecheck/internal/resolved"
	"github.com/kantu-lang/corecheck/internal/term"
)

func main() {
	fmt.Println("corecheck pipeline demo")
	fmt.Println("=======================")
	fmt.Println()

	demoAccept()
	demoTodoWarning()
	demoNegativeOccurrence()
}

func must(h term.Handle, err error) term.Handle {
	if err != nil {
		fmt.Fprintf(os.Stderr, "demo: %v\n", err)
		os.Exit(1)
	}
	return h
}

// demoAccept builds and checks:
//
//	type Nat { O : Nat, S(pred: Nat): Nat }
//	let one : Nat = Nat.S(Nat.O)
//
// The prelude is Nat (level 2), O (3), S (4), one (5); every record below
// is authored against that base depth of 6.
func demoAccept() {
	fmt.Println("Demo 1: Nat and a checked definition")
	fmt.Println("------------------------------------")

	a := term.NewArena()
	nat := a.DeclareInductive("Nat", nil, term.VisibilityPublic)

	natAtBase := must(a.InternName(3))   // Nat from depth 6
	natUnderOne := must(a.InternName(4)) // Nat from depth 7 (one binder in)
	a.SetVariants(nat, []term.Variant{
		{Name: "O", ReturnType: natAtBase},
		{Name: "S", Params: sParams(a, natAtBase, natUnderOne), ReturnType: natUnderOne},
	})

	sRef := must(a.InternName(1))
	oRef := must(a.InternName(2))
	body := must(a.InternApp(sRef, []term.Arg{{Value: oRef}}))
	one := a.DeclareDefinition("one", natAtBase, body, term.VisibilityPublic, nil)

	program := resolved.Build(a, []resolved.File{{ID: "nat.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclInductiveType, Handle: nat},
		{Kind: term.DeclDefinition, Handle: one},
	}}})
	report(program, pipeline.Run(program, nil, io.Discard))
}

func sParams(a *term.Arena, paramType, returnType term.Handle) term.ParamList {
	pi := must(a.InternPi([]term.Param{{Label: term.SomeLabel("pred"), Type: paramType}}, returnType))
	return a.Get(pi).Params
}

// demoTodoWarning builds and checks:
//
//	type Unit { Mk : Unit }
//	let x : Unit = todo
//
// which succeeds with a TodoExpression warning.
func demoTodoWarning() {
	fmt.Println("Demo 2: todo checks against the expected type, with a warning")
	fmt.Println("-------------------------------------------------------------")

	a := term.NewArena()
	unit := a.DeclareInductive("Unit", nil, term.VisibilityUnmarked)

	// Prelude: Unit (2), Mk (3), x (4); base depth 5.
	unitRef := must(a.InternName(2))
	a.SetVariants(unit, []term.Variant{{Name: "Mk", ReturnType: unitRef}})

	todo := must(a.InternTodo())
	x := a.DeclareDefinition("x", unitRef, todo, term.VisibilityUnmarked, nil)

	program := resolved.Build(a, []resolved.File{{ID: "unit.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclInductiveType, Handle: unit},
		{Kind: term.DeclDefinition, Handle: x},
	}}})
	report(program, pipeline.Run(program, nil, io.Discard))
}

// demoNegativeOccurrence builds and rejects:
//
//	type Bad { B(x: Bad -> Bad): Bad }
//
// whose constructor parameter puts Bad to the left of an arrow.
func demoNegativeOccurrence() {
	fmt.Println("Demo 3: strict positivity rejects Bad -> Bad in a constructor")
	fmt.Println("-------------------------------------------------------------")

	a := term.NewArena()
	bad := a.DeclareInductive("Bad", nil, term.VisibilityUnmarked)

	// Prelude: Bad (2), B (3); base depth 4.
	badAtBase := must(a.InternName(1))
	badUnderOne := must(a.InternName(2))
	arrow := must(a.InternPi([]term.Param{{Type: badAtBase}}, badUnderOne))
	bParams := must(a.InternPi([]term.Param{{Label: term.SomeLabel("x"), Type: arrow}}, badUnderOne))
	a.SetVariants(bad, []term.Variant{
		{Name: "B", Params: a.Get(bParams).Params, ReturnType: a.Get(bParams).Output},
	})

	program := resolved.Build(a, []resolved.File{{ID: "bad.ka", Decls: []resolved.DeclRef{
		{Kind: term.DeclInductiveType, Handle: bad},
	}}})
	report(program, pipeline.Run(program, nil, io.Discard))
}

func report(program *resolved.Program, result *pipeline.Result) {
	if !result.Ok() {
		fmt.Printf("rejected: %s (%s)\n", result.Diagnostic.Code, result.Diagnostic.Message)
		fmt.Println()
		return
	}
	fmt.Printf("accepted at stage %s\n", result.Stage)
	for _, w := range result.Warnings {
		fmt.Printf("warning: %v\n", w)
	}
	arena := program.Arena
	for i := 0; i < arena.NumDefinitions(); i++ {
		h := term.DeclHandle(i)
		name, _, _, _, _ := arena.Definition(h)
		if typ, ok := result.Table.Definitions[h]; ok {
			fmt.Printf("%s : %s\n", name, arena.Print(typ))
		}
	}
	fmt.Println()
}
