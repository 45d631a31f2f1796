package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validConfig() Config {
	return Config{
		Job: "test",
		Generator: Generator{
			OutputPath: "/data/in.txt",
			TargetSize: 1 << 20,
			Workers:    4,
			BufferSize: 4096,
		},
		Sorter: Sorter{
			InputPath:  "/data/in.txt",
			OutputPath: "/data/out.txt",
			TempDir:    "/data/chunks",
			ChunkLines: 1000,
			BufferSize: 4096,
		},
	}
}

/*
TestValidate_ValidMinimal verifies that a well-formed config produces no
issues (errors or warnings).
*/
func TestValidate_ValidMinimal(t *testing.T) {
	if issues := Validate(validConfig()); len(issues) != 0 {
		t.Fatalf("expected no issues; got %+v", issues)
	}
}

/*
TestValidate_MissingJob verifies that an empty job produces a SeverityError
with path "job".
*/
func TestValidate_MissingJob(t *testing.T) {
	c := validConfig()
	c.Job = " "
	issues := Validate(c)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected job error; got %+v", issues)
	}
	if !HasErrors(issues) {
		t.Fatal("HasErrors = false; want true")
	}
}

func TestValidateGenerator(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Generator)
		sev    IssueSeverity
		path   string
		substr string
	}{
		{"empty_output", func(g *Generator) { g.OutputPath = "" }, SeverityError, "generator.output_path", "must not be empty"},
		{"zero_target", func(g *Generator) { g.TargetSize = 0 }, SeverityError, "generator.target_size", "positive"},
		{"zero_workers", func(g *Generator) { g.Workers = 0 }, SeverityError, "generator.workers", "1..255"},
		{"too_many_workers", func(g *Generator) { g.Workers = 256 }, SeverityError, "generator.workers", "1..255"},
		{"small_buffer", func(g *Generator) { g.BufferSize = 64 }, SeverityError, "generator.buffer_size", "at least 128"},
		{"buffer_over_target", func(g *Generator) { g.TargetSize = 200; g.BufferSize = 4096 }, SeverityWarning, "generator.buffer_size", "exceeds target_size"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			g := validConfig().Generator
			c.mutate(&g)
			issues := ValidateGenerator(g)
			if !hasIssue(t, issues, c.sev, c.path, c.substr) {
				t.Fatalf("expected %s at %s containing %q; got %+v", c.sev, c.path, c.substr, issues)
			}
		})
	}
}

func TestValidateSorter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Sorter)
		path   string
		substr string
	}{
		{"empty_input", func(s *Sorter) { s.InputPath = "" }, "sorter.input_path", "must not be empty"},
		{"empty_output", func(s *Sorter) { s.OutputPath = "" }, "sorter.output_path", "must not be empty"},
		{"empty_temp", func(s *Sorter) { s.TempDir = "" }, "sorter.temp_dir", "must not be empty"},
		{"zero_chunk_lines", func(s *Sorter) { s.ChunkLines = 0 }, "sorter.chunk_lines", "must be positive"},
		{"small_buffer", func(s *Sorter) { s.BufferSize = 1 }, "sorter.buffer_size", "at least 128"},
		{"negative_parallelism", func(s *Sorter) { s.Parallelism = -1 }, "sorter.parallelism", "negative"},
		{"output_in_temp", func(s *Sorter) { s.OutputPath = "/data/chunks/out.txt" }, "sorter.output_path", "inside sorter.temp_dir"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			s := validConfig().Sorter
			c.mutate(&s)
			issues := ValidateSorter(s)
			if !hasIssue(t, issues, SeverityError, c.path, c.substr) {
				t.Fatalf("expected error at %s containing %q; got %+v", c.path, c.substr, issues)
			}
		})
	}
}

func TestValidate_InputMismatchWarns(t *testing.T) {
	c := validConfig()
	c.Sorter.InputPath = "/elsewhere.txt"
	issues := Validate(c)
	if !hasIssue(t, issues, SeverityWarning, "sorter.input_path", "differs") {
		t.Fatalf("expected mismatch warning; got %+v", issues)
	}
	if HasErrors(issues) {
		t.Fatalf("mismatch must only warn; got %+v", issues)
	}
}

func TestValidateMetrics(t *testing.T) {
	t.Parallel()

	if issues := ValidateMetrics(Metrics{Backend: "none"}); len(issues) != 0 {
		t.Fatalf("none: %+v", issues)
	}
	if issues := ValidateMetrics(Metrics{Backend: "datadog"}); !hasIssue(t, issues, SeverityError, "metrics.datadog_addr", "requires") {
		t.Fatalf("datadog without addr: %+v", issues)
	}
	if issues := ValidateMetrics(Metrics{Backend: "graphite"}); !hasIssue(t, issues, SeverityWarning, "metrics.backend", "unknown") {
		t.Fatalf("unknown backend: %+v", issues)
	}
	if issues := ValidateMetrics(Metrics{Backend: "pushgateway"}); !hasIssue(t, issues, SeverityWarning, "metrics.pushgateway_url", "without url") {
		t.Fatalf("pushgateway without url: %+v", issues)
	}
}

func TestIssue_Error(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "generator.workers", Message: "bad"}
	if got := iss.Error(); got != "error at generator.workers: bad" {
		t.Fatalf("Error() = %q", got)
	}
}
