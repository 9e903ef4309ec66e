package parsedrv

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/diag"
	"github.com/chili-lang/chili/internal/workspace"
)

// Resolver maps a module path to a file on disk (internal/lexsyn.PathResolver
// satisfies this).
type Resolver interface {
	Resolve(modulePath string) (string, error)
}

// ParseFunc parses one file's source into an ast.Ast, emitting diagnostics
// into sink rather than returning an error — this is the shape
// internal/lexsyn.Parser.ParseFile is adapted to.
type ParseFunc func(file, src string, sink diag.Sink) *ast.Ast

// ReadFunc reads a file's contents; tests substitute an in-memory map.
type ReadFunc func(path string) (string, error)

// Driver runs the parallel parse stage (spec §4.3, §5). It owns no state
// of its own beyond configuration: all shared mutable state lives in the
// ParserCache it is given.
type Driver struct {
	Cache      *ParserCache
	Resolver   Resolver
	Read       ReadFunc
	Parse      ParseFunc
	MaxWorkers int64 // weight passed to the semaphore; <=0 means 4
	FailFast   bool  // cancel sibling workers on the first Failed outcome

	log *slog.Logger
}

// NewDriver returns a Driver over cache, reading files with read and
// parsing them with parse.
func NewDriver(cache *ParserCache, resolver Resolver, read ReadFunc, parse ParseFunc, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	return &Driver{Cache: cache, Resolver: resolver, Read: read, Parse: parse, log: log.With("component", "parsedrv")}
}

func (d *Driver) maxWorkers() int64 {
	if d.MaxWorkers <= 0 {
		return 4
	}
	return d.MaxWorkers
}

type workItem struct {
	modulePath string
	rootFile   string // non-empty only for the initial root item
}

// Run parses the root file and every module it (transitively) imports,
// registers each into ws in the order the collector drains them, and
// returns the resulting Asts in that same (non-deterministic-discovery,
// deterministic-registration) order. Resolve (spec §4.4) only requires
// that every module has been parsed before it runs — not a particular
// parse order — so collector-registration order is all downstream stages
// need.
func (d *Driver) Run(ctx context.Context, ws *workspace.Workspace) ([]*ast.Ast, error) {
	start := time.Now()
	results := make(chan WorkerResult, d.maxWorkers()*2)
	sem := semaphore.NewWeighted(d.maxWorkers())
	g, gctx := errgroup.WithContext(ctx)

	var spawn func(workItem)
	spawn = func(item workItem) {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			res := d.parseOne(item)
			sem.Release(1)

			select {
			case results <- res:
			case <-gctx.Done():
				return gctx.Err()
			}

			if res.Outcome == NewAst {
				for _, imp := range res.File.Imports {
					spawn(workItem{modulePath: imp.ModulePath})
				}
			}
			if res.Outcome == Failed && d.FailFast {
				return fmt.Errorf("parsedrv: %s", res.Diagnostic.Message)
			}
			return nil
		})
	}
	spawn(workItem{rootFile: d.Cache.RootFile})

	go func() {
		_ = g.Wait()
		close(results)
	}()

	// Single collector goroutine: the only place module registration
	// happens, so workspace.AddModule never races (spec §5: resolve,
	// check, lower and the VM are single-threaded; this keeps the
	// registry write single-threaded too, even though parsing itself
	// fans out).
	var asts []*ast.Ast
	for res := range results {
		switch res.Outcome {
		case NewAst:
			id := ws.AddModule(workspace.ModuleInfo{Path: res.ModulePath, File: res.File.SourcePath})
			res.File.ModuleID = int(id)
			res.File.FileID = int(id)
			asts = append(asts, res.File)
		case Failed:
			if res.Diagnostic != nil {
				ws.Log().Error("parse failed", "module", res.ModulePath, "error", res.Diagnostic.Message)
			}
		case AlreadyParsed:
			// no-op: another worker already registered this module.
		}
	}

	if err := g.Wait(); err != nil {
		return asts, err
	}

	d.log.Info("parse complete",
		"modules", len(asts),
		"lines", humanize.Comma(int64(d.Cache.TotalLines())),
		"elapsed", time.Since(start).String(),
	)
	return asts, nil
}

func (d *Driver) parseOne(item workItem) WorkerResult {
	var (
		file       string
		modulePath = item.modulePath
	)
	if item.rootFile != "" {
		file = item.rootFile
		modulePath = item.rootFile
	} else {
		resolved, err := d.Resolver.Resolve(item.modulePath)
		if err != nil {
			return WorkerResult{
				ModulePath: item.modulePath,
				Outcome:    Failed,
				Diagnostic: &diag.Diagnostic{Kind: diag.UnresolvedSymbol, Code: diag.UnresolvedSymbol.Code(), Message: err.Error()},
			}
		}
		file = resolved
	}

	if !d.Cache.ClaimModule(modulePath) {
		return WorkerResult{ModulePath: modulePath, Outcome: AlreadyParsed}
	}

	src, err := d.Read(file)
	if err != nil {
		return WorkerResult{
			ModulePath: modulePath,
			Outcome:    Failed,
			Diagnostic: &diag.Diagnostic{Kind: diag.Internal, Code: diag.Internal.Code(), Message: err.Error()},
		}
	}
	d.Cache.AddLines(strings.Count(src, "\n") + 1)

	sink := diag.NewSliceSink()
	parsed := d.Parse(file, src, sink)
	for _, dd := range sink.Diagnostics() {
		d.Cache.AddDiagnostic(dd)
	}
	parsed.SourcePath = file
	return WorkerResult{ModulePath: modulePath, Outcome: NewAst, File: parsed}
}
