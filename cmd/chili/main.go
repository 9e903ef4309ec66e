// Command chili is the CLI front end (spec §6): `build <file>` and
// `run <file>`, a `--verbose` bytecode dump, and exit codes 0/1/2.
// Grounded on the teacher's cmd/ailang/main.go flag-based dispatch and
// fatih/color-driven diagnostic coloring, trimmed of AILANG's
// learning-mode, watch, and training-export flags that have no
// counterpart here.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	isatty "github.com/mattn/go-isatty"

	"github.com/chili-lang/chili/internal/config"
	"github.com/chili-lang/chili/internal/diag"
	"github.com/chili-lang/chili/internal/pipeline"
	"github.com/chili-lang/chili/internal/repl"
)

var (
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

func main() {
	color.NoColor = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())

	verbose := flag.Bool("verbose", false, "dump lowered bytecode to bytecode.txt")
	manifestPath := flag.String("config", "chili.yaml", "workspace manifest path")
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(2)
	}

	switch flag.Arg(0) {
	case "build":
		os.Exit(cmdBuild(flag.Arg(1), *manifestPath, *verbose))
	case "run":
		os.Exit(cmdRun(flag.Arg(1), *manifestPath, *verbose))
	case "repl":
		os.Exit(cmdRepl(*manifestPath))
	default:
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: chili [--verbose] [--config chili.yaml] <build|run|repl> [file]")
}

func loadManifest(path string) config.Manifest {
	m, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("config error"), err)
	}
	return m
}

func cmdBuild(file, manifestPath string, verbose bool) int {
	if file == "" {
		printUsage()
		return 2
	}
	m := loadManifest(manifestPath)
	m.Verbose = m.Verbose || verbose

	res, sink := pipeline.Compile(context.Background(), file, m, slog.Default())
	if len(sink.Diagnostics()) > 0 {
		printDiagnostics(sink)
	}
	if sink.HasErrors() {
		return 1
	}
	if res == nil || res.Lowered == nil {
		fmt.Fprintln(os.Stderr, red("internal error: compile succeeded with no lowered output"))
		return 2
	}
	if m.Verbose {
		if err := pipeline.DumpBytecode(res.Lowered, "bytecode.txt"); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("internal error"), err)
			return 2
		}
	}
	return 0
}

func cmdRun(file, manifestPath string, verbose bool) int {
	if file == "" {
		printUsage()
		return 2
	}
	m := loadManifest(manifestPath)
	m.Verbose = m.Verbose || verbose

	res, sink := pipeline.Compile(context.Background(), file, m, slog.Default())
	if len(sink.Diagnostics()) > 0 {
		printDiagnostics(sink)
	}
	if sink.HasErrors() {
		return 1
	}
	if m.Verbose {
		_ = pipeline.DumpBytecode(res.Lowered, "bytecode.txt")
	}

	if _, err := pipeline.RunVM(res); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("trap"), err)
		return 1
	}
	return 0
}

func cmdRepl(manifestPath string) int {
	m := loadManifest(manifestPath)
	if err := repl.Run(m); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("repl error"), err)
		return 2
	}
	return 0
}

func printDiagnostics(sink *diag.SliceSink) {
	for _, d := range sink.Diagnostics() {
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", red(d.Kind.String()), cyan(d.Code), d.Message)
		for _, l := range d.Labels {
			fmt.Fprintf(os.Stderr, "  %s %d:%d: %s\n", yellow("-->"), l.Span.Start.Line, l.Span.Start.Column, l.Message)
		}
		for _, n := range d.Notes {
			fmt.Fprintf(os.Stderr, "  note: %s\n", n)
		}
	}
}
