// Package parsedrv implements the parse stage's parallel fan-out (spec
// §4.3, §5): a work-stealing-flavored pool of parser workers coordinated
// through a single shared ParserCache, with discovered imports spawning
// further workers and results funnelled through one channel to a
// collector. Grounded on kralicky-protocompile's compiler.go executor,
// which bounds concurrent compilation with golang.org/x/sync/semaphore
// and fans work out with goroutines joined through
// golang.org/x/sync/errgroup.
package parsedrv

import (
	"sync"

	"github.com/chili-lang/chili/internal/ast"
	"github.com/chili-lang/chili/internal/diag"
)

// ParserCache is the only shared mutable state of the parse stage (spec
// §4.3, §5): a single lock, held briefly, dedupes modules, appends
// diagnostics, and accumulates a line count for the --verbose summary.
// No worker holds the lock during I/O or parsing.
type ParserCache struct {
	RootFile string
	RootDir  string
	StdDir   string

	mu            sync.Mutex
	diagnostics   []*diag.Diagnostic
	parsedModules map[string]bool // module path -> true once claimed
	totalLines    int
}

// NewParserCache returns an empty cache rooted at rootFile.
func NewParserCache(rootFile, rootDir, stdDir string) *ParserCache {
	return &ParserCache{
		RootFile:      rootFile,
		RootDir:       rootDir,
		StdDir:        stdDir,
		parsedModules: make(map[string]bool),
	}
}

// ClaimModule inserts modulePath into the parsed set under the cache lock
// and reports whether this call was the one that claimed it — i.e. the
// caller should actually read and parse the file only when claimed is
// true; a false return means another worker already claimed (or is
// claiming) it, so this worker reports AlreadyParsed instead (spec §4.3).
func (c *ParserCache) ClaimModule(modulePath string) (claimed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.parsedModules[modulePath] {
		return false
	}
	c.parsedModules[modulePath] = true
	return true
}

// AddDiagnostic appends d to the cache under lock.
func (c *ParserCache) AddDiagnostic(d *diag.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnostics = append(c.diagnostics, d)
}

// AddLines adds n to the running total-lines counter under lock.
func (c *ParserCache) AddLines(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalLines += n
}

// Diagnostics returns a snapshot of diagnostics collected so far.
func (c *ParserCache) Diagnostics() []*diag.Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*diag.Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}

// TotalLines returns the running line count.
func (c *ParserCache) TotalLines() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalLines
}

// Outcome is one worker's per-module result (spec §4.3).
type Outcome int

const (
	NewAst Outcome = iota
	AlreadyParsed
	Failed
)

// WorkerResult is funnelled through the collector channel.
type WorkerResult struct {
	ModulePath string
	Outcome    Outcome
	File       *ast.Ast
	Diagnostic *diag.Diagnostic
}
