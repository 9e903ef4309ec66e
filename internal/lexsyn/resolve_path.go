package lexsyn

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathResolver turns a module path (as written in a `use` or `module`
// declaration) into a file on disk. Grounded on the teacher's
// internal/module.Resolver, trimmed to the two root kinds chili's parse
// driver needs: the workspace root and an optional standard-library
// directory (spec §4.3's ParserCache.std_dir).
type PathResolver struct {
	RootDir string
	StdDir  string
}

// NewPathResolver returns a PathResolver rooted at rootDir, with an
// optional stdDir for "std/..." imports.
func NewPathResolver(rootDir, stdDir string) *PathResolver {
	return &PathResolver{RootDir: rootDir, StdDir: stdDir}
}

// Resolve maps modulePath (slash-separated, no extension) to an existing
// source file, trying the workspace root first and falling back to the
// standard-library directory.
func (r *PathResolver) Resolve(modulePath string) (string, error) {
	candidate := filepath.Join(r.RootDir, filepath.FromSlash(modulePath)+".ch")
	if fileExists(candidate) {
		return candidate, nil
	}
	if r.StdDir != "" {
		candidate = filepath.Join(r.StdDir, filepath.FromSlash(modulePath)+".ch")
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("lexsyn: module %q not found under %q", modulePath, r.RootDir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
