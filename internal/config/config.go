// Package config defines the configuration model for the linesort binary:
// one section for the generator, one for the external sorter, plus logging
// and metrics settings.
//
// Files are YAML. Because YAML is a superset of JSON, a JSON file with the
// same keys loads too.
//
// Example:
//
//	job: linesort
//	log_level: info
//	generator:
//	  output_path: /data/input.txt
//	  target_size: 10GB
//	  workers: 8
//	  buffer_size: 64KiB
//	sorter:
//	  input_path: /data/input.txt
//	  output_path: /data/sorted.txt
//	  temp_dir: /data/chunks
//	  chunk_lines: 1000000
//	  buffer_size: 1MiB
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v2"
)

// Config is the top-level object decoded from a config file.
type Config struct {
	// Job labels metrics and log lines for this run.
	Job string `yaml:"job"`

	// LogLevel is one of debug, info, warn, error. Empty means info.
	LogLevel string `yaml:"log_level"`

	Generator Generator `yaml:"generator"`
	Sorter    Sorter    `yaml:"sorter"`
	Metrics   Metrics   `yaml:"metrics"`
}

// Generator configures the random line file generator.
type Generator struct {
	// OutputPath is the file the generator creates (truncating any existing one).
	OutputPath string `yaml:"output_path"`

	// TargetSize is the exact size of the generated file in bytes.
	TargetSize ByteSize `yaml:"target_size"`

	// Workers is the number of concurrent producers (1..255).
	Workers int `yaml:"workers"`

	// BufferSize is the size of every pooled buffer and of the file writer.
	BufferSize ByteSize `yaml:"buffer_size"`

	// PhrasesPath optionally replaces the built-in dictionary.
	PhrasesPath string `yaml:"phrases_path"`

	// StrictBudget refuses byte reservations once the target is reached
	// instead of letting concurrent producers overshoot.
	StrictBudget bool `yaml:"strict_budget"`
}

// Sorter configures the external merge sort.
type Sorter struct {
	InputPath  string `yaml:"input_path"`
	OutputPath string `yaml:"output_path"`

	// TempDir holds chunk_<N>.txt files. Existing chunks are reused.
	TempDir string `yaml:"temp_dir"`

	// ChunkLines is the number of input lines sorted in memory per chunk.
	ChunkLines int `yaml:"chunk_lines"`

	// BufferSize sizes every file reader and writer.
	BufferSize ByteSize `yaml:"buffer_size"`

	// Parallelism is the number of partitions sorted concurrently per chunk.
	// Zero means GOMAXPROCS.
	Parallelism int `yaml:"parallelism"`

	// KeepChunks leaves TempDir in place after a successful merge.
	KeepChunks bool `yaml:"keep_chunks"`
}

// Metrics selects an optional metrics backend.
type Metrics struct {
	// Backend is one of "", "none", "pushgateway", "datadog".
	Backend        string `yaml:"backend"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	DatadogAddr    string `yaml:"datadog_addr"`
	Namespace      string `yaml:"namespace"`
}

// ByteSize is a byte count that decodes from either a plain integer or a
// human-readable string such as "64KiB" or "10 GB".
type ByteSize uint64

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(unmarshal func(any) error) error {
	var n uint64
	if err := unmarshal(&n); err == nil {
		*b = ByteSize(n)
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("byte size: %w", err)
	}
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return fmt.Errorf("byte size %q: %w", s, err)
	}
	*b = ByteSize(v)
	return nil
}

// String renders the size with binary units, e.g. "64 KiB".
func (b ByteSize) String() string { return humanize.IBytes(uint64(b)) }

// Default returns the settings used when no config file is given. Paths
// are relative to the working directory.
func Default() Config {
	return Config{
		Job:      "linesort",
		LogLevel: "info",
		Generator: Generator{
			OutputPath: "input.txt",
			TargetSize: 1 << 30,
			Workers:    min(runtime.NumCPU(), MaxWorkers),
			BufferSize: 64 << 10,
		},
		Sorter: Sorter{
			InputPath:  "input.txt",
			OutputPath: "sorted.txt",
			TempDir:    "chunks",
			ChunkLines: 1_000_000,
			BufferSize: 1 << 20,
		},
	}
}

// Load reads and decodes the config file at path, then applies environment
// overrides.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	ApplyEnv(&cfg)
	return cfg, nil
}

// Parse decodes a YAML (or JSON) document.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Job == "" {
		cfg.Job = "linesort"
	}
	return cfg, nil
}

// ApplyEnv overrides selected knobs from the environment (12-factor style):
//
//	LINESORT_WORKERS      generator.workers
//	LINESORT_CHUNK_LINES  sorter.chunk_lines
//	LINESORT_PARALLELISM  sorter.parallelism
//	LINESORT_TEMP_DIR     sorter.temp_dir
//
// Unset or unparsable integer variables leave the value unchanged.
func ApplyEnv(cfg *Config) {
	cfg.Generator.Workers = getenvInt("LINESORT_WORKERS", cfg.Generator.Workers)
	cfg.Sorter.ChunkLines = getenvInt("LINESORT_CHUNK_LINES", cfg.Sorter.ChunkLines)
	cfg.Sorter.Parallelism = getenvInt("LINESORT_PARALLELISM", cfg.Sorter.Parallelism)
	if v := os.Getenv("LINESORT_TEMP_DIR"); v != "" {
		cfg.Sorter.TempDir = v
	}
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
