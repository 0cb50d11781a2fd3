// Command hoteval exercises the whole compilation pipeline from the command
// line: compiling and evaluating a single expression, running the
// JIT-vs-native-closure micro-benchmark, or serving the compile-as-a-service
// websocket front door.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"hoteval/internal/analysis"
	"hoteval/internal/binding"
	"hoteval/internal/jit"
	"hoteval/internal/parser"
	"hoteval/internal/remote"
	"hoteval/internal/slab"
	"hoteval/internal/value"
)

var commandAliases = map[string]string{
	"r": "run",
	"b": "bench",
	"s": "serve",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "help", "--help", "-h":
		showUsage()
	case "run":
		if len(args) < 2 {
			log.Fatal("run requires an expression, e.g. hoteval run \"1 + 2\"")
		}
		runExpression(args[1])
	case "bench":
		runBenchmark()
	case "serve":
		addr := ":8787"
		if len(args) >= 2 {
			addr = args[1]
		}
		runServe(addr)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmd)
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println("hoteval - hot-path expression JIT")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  hoteval run <expr>     Compile and evaluate an expression   (alias: r)")
	fmt.Println("  hoteval bench          Run the JIT vs AOT-closure benchmark (alias: b)")
	fmt.Println("  hoteval serve [addr]   Serve the compile-as-a-service API   (alias: s, default :8787)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  hoteval run \"1 + 2 * 3\"")
	fmt.Println("  hoteval bench")
	fmt.Println("  hoteval serve :9000")
}

func runExpression(source string) {
	jitCtx := jit.NewJITContext()
	defer jitCtx.Dispose()
	compCtx := jitCtx.MakeCompilationContext()

	table := binding.New()
	expr, err := compCtx.CompileSource(source, table)
	if err != nil {
		log.Fatal(errors.Wrapf(err, "compiling %q", source))
	}
	defer expr.Dispose()

	result := expr.Run()
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Printf("%s => %s\n", source, result)
	} else {
		fmt.Println(result)
	}
}

func runServe(addr string) {
	server := remote.NewServer(addr)
	fmt.Printf("serving compile-as-a-service on %s/compile\n", addr)
	if err := server.Serve(); err != nil {
		log.Fatalf("serve error: %v", err)
	}
}

const benchIterations = 100_000_000

// getWantedX mirrors original_source's get_wanted_x: a host function the
// benchmark expression calls through a baked function pointer.
func getWantedX(seed1, seed2, seed3 uint32) uint32 {
	return (seed1*123-45)/seed2 + seed3
}

func runBenchmark() {
	jitCtx := jit.NewJITContext()
	defer jitCtx.Dispose()
	compCtx := jitCtx.MakeCompilationContext()

	table := binding.New()
	seed3Idx := table.AddHiddenState(value.U32)
	if err := table.AddVariable("x", value.U32); err != nil {
		log.Fatalf("table setup failed: %v", err)
	}
	err := binding.AddFunction3Map[uint32, uint32, uint32, uint32](
		table, "get_wanted_x", getWantedX,
		binding.ConstArg(value.New(uint32(3))),
		binding.Param[uint32](),
		binding.HiddenStateArg(seed3Idx),
	)
	if err != nil {
		log.Fatalf("table setup failed: %v", err)
	}

	root, err := parser.Parse("x == get_wanted_x(2)")
	if err != nil {
		log.Fatalf("parse failed: %v", err)
	}
	tree, err := analysis.FromAST(root, table)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}
	sl := slab.FromTable(table)
	compiled, err := compCtx.CompileAnalysedAST(tree, table, sl)
	if err != nil {
		log.Fatalf("compile failed: %v", err)
	}
	defer compiled.Dispose()

	xIdx, _ := sl.GetBindingIndex("x")

	start := time.Now()
	matches := 0
	for x := uint32(0); x < benchIterations; x++ {
		slab.SetValue(sl, xIdx, x)
		slab.SetValue(sl, seed3Idx, uint32(42))
		if compiled.Run().Bool() {
			matches++
		}
	}
	jitElapsed := time.Since(start)
	fmt.Printf("                  [jit] found %s matches in %s\n", humanize.Comma(int64(matches)), jitElapsed)

	start = time.Now()
	matches = 0
	for x := uint32(0); x < benchIterations; x++ {
		if x == getWantedX(3, 2, 42) {
			matches++
		}
	}
	aotElapsed := time.Since(start)
	fmt.Printf("           [aot_inline] found %s matches in %s\n", humanize.Comma(int64(matches)), aotElapsed)

	predicate := func(x uint32) bool { return x == getWantedX(3, 2, 42) }
	start = time.Now()
	matches = 0
	for x := uint32(0); x < benchIterations; x++ {
		if predicate(x) {
			matches++
		}
	}
	closureElapsed := time.Since(start)
	fmt.Printf("          [aot_closure] found %s matches in %s\n", humanize.Comma(int64(matches)), closureElapsed)
}
