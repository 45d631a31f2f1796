// Package config provides configuration models and helpers.
//
// This file adds a lightweight linter for Config values. It performs static
// checks and returns a list of issues (errors and warnings) that callers can
// surface in a CLI or tests. Constructors still re-check their own required
// options (see RequirePath / RequirePositive).
package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// MaxWorkers is the upper bound for generator.workers.
const MaxWorkers = 255

// MinBufferSize is the smallest accepted buffer size for the generator and
// the sorter.
const MinBufferSize = 128

// Issue describes a single validation/lint finding.
//
// Path is a dotted path into the config (e.g. "generator.workers").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate lints the whole config, as needed by a full generate+sort run.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, ValidateGenerator(c.Generator)...)
	issues = append(issues, ValidateSorter(c.Sorter)...)
	issues = append(issues, ValidateMetrics(c.Metrics)...)

	if c.Generator.OutputPath != "" && c.Sorter.InputPath != "" &&
		filepath.Clean(c.Generator.OutputPath) != filepath.Clean(c.Sorter.InputPath) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "sorter.input_path",
			Message:  "sorter.input_path differs from generator.output_path; a full run will not sort the generated file",
		})
	}
	return issues
}

// ValidateGenerator lints the generator section.
func ValidateGenerator(g Generator) []Issue {
	var issues []Issue

	if strings.TrimSpace(g.OutputPath) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generator.output_path",
			Message:  "generator.output_path must not be empty",
		})
	}
	if g.TargetSize == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generator.target_size",
			Message:  "generator.target_size must be positive",
		})
	}
	if g.Workers <= 0 || g.Workers > MaxWorkers {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generator.workers",
			Message:  fmt.Sprintf("generator.workers=%d; must be in 1..%d", g.Workers, MaxWorkers),
		})
	}
	if g.BufferSize < MinBufferSize {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generator.buffer_size",
			Message:  fmt.Sprintf("generator.buffer_size=%d; must be at least %d bytes", g.BufferSize, MinBufferSize),
		})
	}
	if g.TargetSize > 0 && g.BufferSize > g.TargetSize {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "generator.buffer_size",
			Message:  "buffer_size exceeds target_size; a single buffer will hold the whole file",
		})
	}
	return issues
}

// ValidateSorter lints the sorter section.
func ValidateSorter(s Sorter) []Issue {
	var issues []Issue

	for _, p := range []struct{ path, v string }{
		{"sorter.input_path", s.InputPath},
		{"sorter.output_path", s.OutputPath},
		{"sorter.temp_dir", s.TempDir},
	} {
		if strings.TrimSpace(p.v) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     p.path,
				Message:  p.path + " must not be empty",
			})
		}
	}
	if s.ChunkLines <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sorter.chunk_lines",
			Message:  fmt.Sprintf("sorter.chunk_lines=%d; must be positive", s.ChunkLines),
		})
	}
	if s.BufferSize < MinBufferSize {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sorter.buffer_size",
			Message:  fmt.Sprintf("sorter.buffer_size=%d; must be at least %d bytes", s.BufferSize, MinBufferSize),
		})
	}
	if s.Parallelism < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sorter.parallelism",
			Message:  "sorter.parallelism must not be negative",
		})
	}
	if s.TempDir != "" && s.OutputPath != "" &&
		filepath.Clean(filepath.Dir(s.OutputPath)) == filepath.Clean(s.TempDir) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sorter.output_path",
			Message:  "sorter.output_path must not live inside sorter.temp_dir; the temp dir is removed after merging",
		})
	}
	return issues
}

// ValidateMetrics lints the metrics section.
func ValidateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend without url; PUSHGATEWAY_URL or the default will be used",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires metrics.datadog_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
		})
	}
	return issues
}
