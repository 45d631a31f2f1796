package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"linesort/internal/config"
	"linesort/internal/logging"
	"linesort/internal/verify"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	ro := &rootOptions{}
	c := &cobra.Command{
		Use:          "linesort",
		Short:        "Generate and externally sort large line files",
		SilenceUsage: true,
	}
	c.PersistentFlags().StringVarP(&ro.configPath, "config", "c", "", "path to a YAML or JSON config file (built-in defaults when empty)")
	c.PersistentFlags().StringVar(&ro.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	c.PersistentFlags().BoolVarP(&ro.verbose, "verbose", "v", false, "enable debug logs")

	c.AddCommand(
		newGenerateCmd(ro),
		newSortCmd(ro),
		newRunCmd(ro),
		newVerifyCmd(),
		newValidateCmd(ro),
	)
	return c
}

// load resolves the config file (or defaults), environment overrides and
// the log level.
func (ro *rootOptions) load() (config.Config, error) {
	var cfg config.Config
	if ro.configPath == "" {
		cfg = config.Default()
		config.ApplyEnv(&cfg)
	} else {
		var err error
		if cfg, err = config.Load(ro.configPath); err != nil {
			return config.Config{}, err
		}
	}

	level := cfg.LogLevel
	if ro.logLevel != "" {
		level = ro.logLevel
	}
	if ro.verbose {
		level = "debug"
	}
	if err := logging.SetLevel(level); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// check prints every issue and fails when any is an error.
func check(issues []config.Issue) error {
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("%w: %d issue(s)", config.ErrInvalid, len(issues))
	}
	return nil
}

func newGenerateCmd(ro *rootOptions) *cobra.Command {
	var (
		output, size, buffer, phrasesPath string
		workers                           int
		strict                            bool
	)
	c := &cobra.Command{
		Use:     "generate",
		Short:   "Write a file of random numbered phrases of an exact size",
		Aliases: []string{"gen"},
		Example: "linesort generate --size 1GB --workers 8 --output input.txt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ro.load()
			if err != nil {
				return err
			}
			g := &cfg.Generator
			f := cmd.Flags()
			if f.Changed("output") {
				g.OutputPath = output
			}
			if f.Changed("size") {
				if g.TargetSize, err = parseSize(size); err != nil {
					return err
				}
			}
			if f.Changed("buffer") {
				if g.BufferSize, err = parseSize(buffer); err != nil {
					return err
				}
			}
			if f.Changed("workers") {
				g.Workers = workers
			}
			if f.Changed("phrases") {
				g.PhrasesPath = phrasesPath
			}
			if f.Changed("strict") {
				g.StrictBudget = strict
			}
			if err := check(append(config.ValidateGenerator(*g), config.ValidateMetrics(cfg.Metrics)...)); err != nil {
				return err
			}
			flush := setupMetrics(cfg)
			defer flush()
			return runGenerate(cmd.Context(), cfg)
		},
	}
	c.Flags().StringVarP(&output, "output", "o", "", "output file")
	c.Flags().StringVarP(&size, "size", "s", "", "exact output size, e.g. 10GB or 512MiB")
	c.Flags().StringVar(&buffer, "buffer", "", "producer buffer size, e.g. 64KiB")
	c.Flags().IntVarP(&workers, "workers", "w", 0, "number of concurrent producers (1..255)")
	c.Flags().StringVar(&phrasesPath, "phrases", "", "phrase dictionary, one phrase per line")
	c.Flags().BoolVar(&strict, "strict", false, "never reserve bytes past the target size")
	return c
}

func newSortCmd(ro *rootOptions) *cobra.Command {
	var (
		input, output, tempDir string
		chunkLines, parallel   int
		keep                   bool
	)
	c := &cobra.Command{
		Use:     "sort",
		Short:   "Sort a line file by text, then number, using temp chunk files",
		Example: "linesort sort --input input.txt --output sorted.txt --temp-dir chunks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ro.load()
			if err != nil {
				return err
			}
			s := &cfg.Sorter
			f := cmd.Flags()
			if f.Changed("input") {
				s.InputPath = input
			}
			if f.Changed("output") {
				s.OutputPath = output
			}
			if f.Changed("temp-dir") {
				s.TempDir = tempDir
			}
			if f.Changed("chunk-lines") {
				s.ChunkLines = chunkLines
			}
			if f.Changed("parallelism") {
				s.Parallelism = parallel
			}
			if f.Changed("keep-chunks") {
				s.KeepChunks = keep
			}
			if err := check(append(config.ValidateSorter(*s), config.ValidateMetrics(cfg.Metrics)...)); err != nil {
				return err
			}
			flush := setupMetrics(cfg)
			defer flush()
			return runSort(cmd.Context(), cfg)
		},
	}
	c.Flags().StringVarP(&input, "input", "i", "", "file to sort")
	c.Flags().StringVarP(&output, "output", "o", "", "sorted output file")
	c.Flags().StringVar(&tempDir, "temp-dir", "", "directory for chunk files; existing chunks are reused")
	c.Flags().IntVar(&chunkLines, "chunk-lines", 0, "lines sorted in memory per chunk")
	c.Flags().IntVarP(&parallel, "parallelism", "p", 0, "partitions sorted concurrently per chunk (0 = GOMAXPROCS)")
	c.Flags().BoolVar(&keep, "keep-chunks", false, "leave the temp directory in place after merging")
	return c
}

func newRunCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate, then sort the generated file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ro.load()
			if err != nil {
				return err
			}
			if err := check(config.Validate(cfg)); err != nil {
				return err
			}
			flush := setupMetrics(cfg)
			defer flush()
			return runAll(cmd.Context(), cfg)
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Check that a file is sorted with unique numbers; print its line count and digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := verify.File(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "file=%s size=%s lines=%d xxhash64=%016x sorted=%t duplicates=%d\n",
				args[0], humanize.IBytes(uint64(r.Size)), r.Lines, r.Digest, r.Sorted(), r.Duplicates)
			return r.Err()
		},
	}
}

func newValidateCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Lint the configuration and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ro.load()
			if err != nil {
				return err
			}
			if err := check(config.Validate(cfg)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}
}

func parseSize(s string) (config.ByteSize, error) {
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: size %q: %v", config.ErrInvalid, s, err)
	}
	return config.ByteSize(v), nil
}
