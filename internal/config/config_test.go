package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for a missing manifest", err)
	}
	if m != Default() {
		t.Errorf("Load() = %+v, want Default() = %+v", m, Default())
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chili.yaml")
	content := "target_word_size: 32\nverbose: true\nstd_dir: /std\nparse_workers: 8\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.TargetWordSize != 32 || !m.Verbose || m.StdDir != "/std" || m.ParseWorkers != 8 {
		t.Errorf("Load() = %+v, want {32 true /std 8}", m)
	}
}

func TestBuildOptionsProjection(t *testing.T) {
	m := Manifest{TargetWordSize: 32, Verbose: true}
	opts := m.BuildOptions()
	if opts.TargetWordSize != 32 || !opts.Verbose {
		t.Errorf("BuildOptions() = %+v, want {32 true}", opts)
	}
}
