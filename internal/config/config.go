// Package config loads the chili.yaml workspace manifest: the file-backed
// form of spec §3's BuildOptions plus settings the core pipeline consumes
// but spec.md left as bare fields (parse driver worker count, stdlib
// directory). Grounded on the teacher's internal/eval_harness/spec.go,
// which is the one place in the teacher that reads gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chili-lang/chili/internal/workspace"
)

// Manifest is the on-disk shape of chili.yaml.
type Manifest struct {
	TargetWordSize int    `yaml:"target_word_size"`
	Verbose        bool   `yaml:"verbose"`
	StdDir         string `yaml:"std_dir"`
	ParseWorkers   int    `yaml:"parse_workers"`
}

// Default returns the manifest chili uses when no chili.yaml is present:
// a 64-bit target, non-verbose, no stdlib directory, and 4 parse workers.
func Default() Manifest {
	return Manifest{
		TargetWordSize: 64,
		Verbose:        false,
		ParseWorkers:   4,
	}
}

// Load reads and parses path. A missing file is not an error: Load returns
// Default() so a bare `chili build foo.ch` works with no manifest at all.
func Load(path string) (Manifest, error) {
	m := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return m, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return m, nil
}

// BuildOptions projects the manifest down to the workspace.BuildOptions
// spec §3 names.
func (m Manifest) BuildOptions() workspace.BuildOptions {
	return workspace.BuildOptions{
		TargetWordSize: m.TargetWordSize,
		Verbose:        m.Verbose,
	}
}
