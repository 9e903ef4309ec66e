// Package pipeline wires the whole compilation: config, parsedrv, resolve,
// check, lower and vm, in the order spec §5 fixes. It exists so cmd/chili
// and internal/repl share one implementation of "compile this file and
// hand me back either a diagnostic batch or a runnable Result", rather
// than duplicating the wiring in both front ends — the same layering
// discipline as the teacher's own cmd/<tool> thin-wrapper-over-internal
// pattern.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/check"
	"github.com/chili-lang/chili/internal/config"
	"github.com/chili-lang/chili/internal/diag"
	"github.com/chili-lang/chili/internal/lexsyn"
	"github.com/chili-lang/chili/internal/lower"
	"github.com/chili-lang/chili/internal/parsedrv"
	"github.com/chili-lang/chili/internal/resolve"
	"github.com/chili-lang/chili/internal/types"
	"github.com/chili-lang/chili/internal/vm"
	"github.com/chili-lang/chili/internal/workspace"
)

// Result is everything a front end needs after a successful compile.
type Result struct {
	WS       *workspace.Workspace
	Lowered  *lower.Result
	Files    []*ast.Ast
}

// Compile runs the full pipeline over rootFile under manifest m, logging
// through log. It always returns whatever diagnostics were raised,
// whether or not compilation ultimately succeeded. It stops before check
// when parsing or resolve raised errors, and before lowering when check
// did (Result.Lowered is then nil); callers decide whether to run.
func Compile(ctx context.Context, rootFile string, m config.Manifest, log *slog.Logger) (*Result, *diag.SliceSink) {
	sink := diag.NewSliceSink()
	ws := workspace.New(m.BuildOptions(), log)

	rootDir := filepath.Dir(rootFile)
	resolver := lexsyn.NewPathResolver(rootDir, m.StdDir)
	cache := parsedrv.NewParserCache(rootFile, rootDir, m.StdDir)

	driver := parsedrv.NewDriver(cache, resolver,
		func(path string) (string, error) {
			b, err := os.ReadFile(path)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
		func(file, src string, s diag.Sink) *ast.Ast {
			return lexsyn.NewParser(file, src, s).ParseFile()
		},
		log,
	)
	driver.MaxWorkers = int64(m.ParseWorkers)

	files, err := driver.Run(ctx, ws)
	for _, d := range cache.Diagnostics() {
		sink.Emit(d)
	}
	if err != nil {
		sink.Emit(diag.New(diag.Internal, ast.Span{}, fmt.Sprintf("parse driver: %v", err)))
		return nil, sink
	}

	for _, d := range resolve.Run(ws, files) {
		sink.Emit(d)
	}
	if sink.HasErrors() {
		return &Result{WS: ws, Files: files}, sink
	}

	tyctx := types.NewTyCtx()
	check.Run(ws, tyctx, sink, files)
	if sink.HasErrors() {
		return &Result{WS: ws, Files: files}, sink
	}

	lowered := lower.Run(ws, tyctx, files)
	return &Result{WS: ws, Lowered: lowered, Files: files}, sink
}

// RunVM executes a lowered Result's start function to completion.
func RunVM(res *Result) (vm.Value, error) {
	machine := vm.New(res.Lowered.Constants, res.Lowered.NGlobals)
	return machine.Run(res.Lowered.Start)
}
