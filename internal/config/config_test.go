package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// -----------------------------------------------------------------------------
// Decoding tests
// -----------------------------------------------------------------------------
//
// These tests validate that YAML and JSON documents decode into the intended
// Go struct graph. Documents are inlined to keep tests hermetic.

func TestParse_YAML(t *testing.T) {
	t.Parallel()

	const doc = `
job: nightly
log_level: debug
generator:
  output_path: /data/in.txt
  target_size: 10GB
  workers: 8
  buffer_size: 64KiB
  strict_budget: true
sorter:
  input_path: /data/in.txt
  output_path: /data/out.txt
  temp_dir: /data/chunks
  chunk_lines: 1000000
  buffer_size: 1048576
  parallelism: 4
  keep_chunks: true
metrics:
  backend: pushgateway
  pushgateway_url: http://localhost:9091
`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if c.Job != "nightly" || c.LogLevel != "debug" {
		t.Fatalf("job/log_level = %q/%q", c.Job, c.LogLevel)
	}
	g := c.Generator
	if g.OutputPath != "/data/in.txt" || g.Workers != 8 || !g.StrictBudget {
		t.Fatalf("generator = %+v", g)
	}
	if g.TargetSize != 10_000_000_000 {
		t.Fatalf("target_size = %d; want 10e9", g.TargetSize)
	}
	if g.BufferSize != 64*1024 {
		t.Fatalf("buffer_size = %d; want 65536", g.BufferSize)
	}
	s := c.Sorter
	if s.ChunkLines != 1_000_000 || s.BufferSize != 1<<20 || s.Parallelism != 4 || !s.KeepChunks {
		t.Fatalf("sorter = %+v", s)
	}
	if c.Metrics.Backend != "pushgateway" {
		t.Fatalf("metrics.backend = %q", c.Metrics.Backend)
	}
}

func TestParse_JSONAndDefaultJob(t *testing.T) {
	t.Parallel()

	const doc = `{
	  "generator": { "output_path": "in.txt", "target_size": 1024, "workers": 2, "buffer_size": "4 KiB" },
	  "sorter": { "input_path": "in.txt", "output_path": "out.txt", "temp_dir": "tmp", "chunk_lines": 10, "buffer_size": 4096 }
	}`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Job != "linesort" {
		t.Fatalf("default job = %q; want linesort", c.Job)
	}
	if c.Generator.TargetSize != 1024 || c.Generator.BufferSize != 4096 {
		t.Fatalf("sizes = %d/%d", c.Generator.TargetSize, c.Generator.BufferSize)
	}
}

func TestParse_BadByteSize(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("generator:\n  target_size: lots\n"))
	if err == nil {
		t.Fatal("expected error for unparsable target_size")
	}
}

func TestByteSize_String(t *testing.T) {
	if got := ByteSize(64 * 1024).String(); got != "64 KiB" {
		t.Fatalf("String() = %q; want 64 KiB", got)
	}
}

// Not parallel: mutates the process environment.
func TestLoad_AppliesEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yml")
	doc := "generator:\n  workers: 2\nsorter:\n  chunk_lines: 5\n  temp_dir: a\n"
	if err := os.WriteFile(p, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("LINESORT_WORKERS", "6")
	t.Setenv("LINESORT_CHUNK_LINES", "not-a-number")
	t.Setenv("LINESORT_PARALLELISM", "3")
	t.Setenv("LINESORT_TEMP_DIR", "/tmp/chunks")

	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Generator.Workers != 6 {
		t.Fatalf("workers = %d; want 6 from env", c.Generator.Workers)
	}
	if c.Sorter.ChunkLines != 5 {
		t.Fatalf("chunk_lines = %d; want file value 5 when env is invalid", c.Sorter.ChunkLines)
	}
	if c.Sorter.Parallelism != 3 || c.Sorter.TempDir != "/tmp/chunks" {
		t.Fatalf("sorter = %+v", c.Sorter)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v; want os.ErrNotExist", err)
	}
}

func TestRequire(t *testing.T) {
	t.Parallel()

	if err := RequirePath("output_path", "  "); !errors.Is(err, ErrInvalid) {
		t.Fatalf("RequirePath blank: err = %v; want ErrInvalid", err)
	}
	if err := RequirePath("output_path", "x"); err != nil {
		t.Fatalf("RequirePath: %v", err)
	}
	if err := RequirePositive("workers", 0); !errors.Is(err, ErrInvalid) {
		t.Fatalf("RequirePositive(0): err = %v; want ErrInvalid", err)
	}
	if err := RequirePositive("target", ByteSize(0)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("RequirePositive(ByteSize 0): err = %v; want ErrInvalid", err)
	}
	if err := RequirePositive("chunk_lines", int64(3)); err != nil {
		t.Fatalf("RequirePositive: %v", err)
	}
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	c := Default()
	if issues := Validate(c); HasErrors(issues) {
		t.Fatalf("Default() has errors: %v", issues)
	}
	if c.Generator.Workers < 1 || c.Generator.Workers > MaxWorkers {
		t.Fatalf("Default().Generator.Workers = %d", c.Generator.Workers)
	}
}
