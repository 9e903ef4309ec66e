// Package repl is the interactive front end spec §B (SPEC_FULL.md)
// names: a liner-backed line editor that appends each line to a session
// buffer and compiles and runs the whole buffer through the same
// check→lower→vm path as a file-based run, rather than a separate
// evaluator. Top-level `run` expressions are not checked or lowered, so
// they add nothing to the printed value. Grounded on the teacher's
// internal/repl/repl.go (liner setup, history file, color-coded
// prompt/output helpers), trimmed of AILANG's type-class/instance
// machinery and dump-core/dump-typed commands this language has no
// counterpart for.
package repl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/chili-lang/chili/internal/config"
	"github.com/chili-lang/chili/internal/pipeline"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

const prompt = "chili> "
const contPrompt = "   ... "

// REPL accumulates every accepted line of source so each new
// evaluation recompiles the whole session buffer — the same strategy
// as running the file fresh on each keystroke, without a standalone
// incremental evaluator.
type REPL struct {
	manifest config.Manifest
	lines    []string
	log      *slog.Logger
}

// Run starts an interactive session on stdin/stdout and blocks until
// the user quits or sends EOF.
func Run(m config.Manifest) error {
	r := &REPL{manifest: m, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	return r.start(os.Stdin, os.Stdout)
}

func (r *REPL) start(in io.Reader, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(true)

	historyFile := filepath.Join(os.TempDir(), ".chili_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintln(out, dim("Type :quit to exit, :reset to clear the session."))

	for {
		input, err := line.Prompt(prompt)
		if err == io.EOF {
			fmt.Fprintln(out, green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("error"), err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch {
		case input == ":quit" || input == ":q":
			fmt.Fprintln(out, green("Goodbye!"))
			goto done
		case input == ":reset":
			r.lines = nil
			fmt.Fprintln(out, yellow("session cleared"))
			continue
		case strings.HasPrefix(input, ":"):
			fmt.Fprintf(out, "%s: unknown command %q\n", yellow("warn"), input)
			continue
		}

		r.eval(input, out)
	}

done:
	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
	return nil
}

// eval appends input to the session buffer, writes it to a scratch
// file (the parse driver reads from disk, same as a file-based build),
// runs the full pipeline, and reports either a value or diagnostics.
// A failed compile rolls input back out of the session buffer so a
// typo doesn't poison every subsequent evaluation.
func (r *REPL) eval(input string, out io.Writer) {
	r.lines = append(r.lines, input)
	src := strings.Join(r.lines, "\n")

	scratch, err := os.CreateTemp("", "chili-repl-*.ch")
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("error"), err)
		r.lines = r.lines[:len(r.lines)-1]
		return
	}
	defer os.Remove(scratch.Name())
	if _, err := scratch.WriteString(src); err != nil {
		scratch.Close()
		fmt.Fprintf(out, "%s: %v\n", red("error"), err)
		r.lines = r.lines[:len(r.lines)-1]
		return
	}
	scratch.Close()

	res, sink := pipeline.Compile(context.Background(), scratch.Name(), r.manifest, r.log)
	if sink.HasErrors() {
		for _, d := range sink.Diagnostics() {
			fmt.Fprintf(out, "%s %s: %s\n", red(d.Kind.String()), d.Code, d.Message)
		}
		r.lines = r.lines[:len(r.lines)-1]
		return
	}

	v, err := pipeline.RunVM(res)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("trap"), err)
		r.lines = r.lines[:len(r.lines)-1]
		return
	}
	fmt.Fprintf(out, "%s %v\n", dim("=>"), v)
}
