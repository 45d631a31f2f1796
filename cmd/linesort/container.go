package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"linesort/internal/bufpool"
	"linesort/internal/config"
	"linesort/internal/extsort"
	"linesort/internal/generator"
	"linesort/internal/logging"
	"linesort/internal/metrics"
	"linesort/internal/metrics/datadog"
	"linesort/internal/metrics/prompush"
	"linesort/internal/phrases"
)

const defaultPushgatewayURL = "http://localhost:9091"

// runAll is the whole batch: generate, then chunk and merge. A failing
// phase aborts the rest; chunk files already on disk are reused by the
// next run.
func runAll(ctx context.Context, cfg config.Config) error {
	start := time.Now()
	if err := runGenerate(ctx, cfg); err != nil {
		return err
	}
	if err := runSort(ctx, cfg); err != nil {
		return err
	}
	logging.Infof("run: completed in %s", time.Since(start).Truncate(time.Millisecond))
	return nil
}

// runGenerate wires the pool, channel, shared state, producer, consumer and
// coordinator for one generation run.
func runGenerate(ctx context.Context, cfg config.Config) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(cfg.Job, "generate", err, time.Since(start)) }()

	g := cfg.Generator
	table, err := loadPhrases(g.PhrasesPath)
	if err != nil {
		return err
	}
	opts := generator.Options{
		OutputPath: g.OutputPath,
		TargetSize: uint64(g.TargetSize),
		Workers:    g.Workers,
		BufferSize: int(g.BufferSize),
		Strict:     g.StrictBudget,
	}

	pool := bufpool.New(max(opts.BufferSize, 1))
	ch := generator.NewChannel(opts.Workers)
	state := generator.NewState()
	producer, err := generator.NewProducer(ch, pool, state, table, opts)
	if err != nil {
		return err
	}
	consumer, err := generator.NewConsumer(ch, opts)
	if err != nil {
		return err
	}
	gen, err := generator.New(ch, consumer, producer, opts.Workers)
	if err != nil {
		return err
	}

	logging.Infof("generate: output=%s target=%s workers=%d buffer=%s slots=%d phrases=%d strict=%t",
		opts.OutputPath, humanize.IBytes(opts.TargetSize), opts.Workers, g.BufferSize, ch.Cap(), table.Len(), opts.Strict)
	if err := gen.Generate(ctx); err != nil {
		return err
	}

	logging.Infof("generate: written=%s committed=%s sequences=%d buffers=%d elapsed=%s",
		humanize.IBytes(consumer.Written()), humanize.IBytes(state.Committed()), state.Issued(),
		consumer.Received(), time.Since(start).Truncate(time.Millisecond))
	if n := pool.Outstanding(); n != 0 {
		logging.Warnf("generate: %d buffers not returned to the pool", n)
	}
	metrics.RecordRecords(cfg.Job, metrics.KindGeneratedBytes, int64(consumer.Written()))
	metrics.RecordRecords(cfg.Job, metrics.KindSequences, int64(state.Issued()))
	return nil
}

// runSort builds (or resumes) the chunk files and merges them.
func runSort(ctx context.Context, cfg config.Config) error {
	s := cfg.Sorter
	merger, err := extsort.NewMerger(int(s.BufferSize))
	if err != nil {
		return err
	}
	sorter, err := extsort.NewSorter(extsort.Options{
		InputPath:   s.InputPath,
		OutputPath:  s.OutputPath,
		TempDir:     s.TempDir,
		ChunkLines:  s.ChunkLines,
		BufferSize:  int(s.BufferSize),
		Parallelism: s.Parallelism,
		KeepChunks:  s.KeepChunks,
	}, merger)
	if err != nil {
		return err
	}

	logging.Infof("sort: input=%s output=%s temp=%s chunk_lines=%d buffer=%s",
		s.InputPath, s.OutputPath, s.TempDir, s.ChunkLines, s.BufferSize)

	start := time.Now()
	chunks, err := sorter.BuildChunks(ctx)
	metrics.RecordStep(cfg.Job, "chunk", err, time.Since(start))
	if err != nil {
		return err
	}
	st := sorter.Stats()
	logging.Infof("chunk: chunks=%d lines=%d resumed=%t elapsed=%s",
		len(chunks), st.ChunkLines, st.Resumed, time.Since(start).Truncate(time.Millisecond))
	metrics.RecordChunks(cfg.Job, int64(len(chunks)))
	metrics.RecordRecords(cfg.Job, metrics.KindChunkLines, st.ChunkLines)

	start = time.Now()
	err = sorter.MergeAll(ctx, chunks)
	metrics.RecordStep(cfg.Job, "merge", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordRecords(cfg.Job, metrics.KindMergedLines, sorter.Stats().MergedLines)
	return nil
}

func loadPhrases(path string) (*phrases.Table, error) {
	if path == "" {
		return phrases.Default(), nil
	}
	t, err := phrases.Load(path)
	if err != nil {
		return nil, fmt.Errorf("phrases: %w", err)
	}
	return t, nil
}

// setupMetrics installs the configured backend. The returned func flushes it
// and must run once the command is done. Backend failures only disable
// metrics; they never fail the run.
func setupMetrics(cfg config.Config) (flush func()) {
	m := cfg.Metrics
	noop := func() {}

	var (
		b       metrics.Backend
		err     error
		closeFn func() error
	)
	switch m.Backend {
	case "", "none":
		logging.Debugf("metrics: disabled")
		return noop
	case "pushgateway":
		url := m.PushgatewayURL
		if url == "" {
			url = os.Getenv("PUSHGATEWAY_URL")
		}
		if url == "" {
			url = defaultPushgatewayURL
		}
		b, err = prompush.NewBackend(cfg.Job, url)
		logging.Debugf("metrics: backend=pushgateway url=%s job=%s", url, cfg.Job)
	case "datadog":
		var dd *datadog.Backend
		dd, err = datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  m.Namespace,
			GlobalTags: []string{"job:" + cfg.Job},
		})
		if err == nil {
			b, closeFn = dd, dd.Close
		}
		logging.Debugf("metrics: backend=datadog addr=%s", m.DatadogAddr)
	default:
		logging.Warnf("metrics: unknown backend %q; metrics disabled", m.Backend)
		return noop
	}
	if err != nil {
		logging.Warnf("metrics: %v; metrics disabled", err)
		return noop
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logging.Warnf("metrics: flush: %v", err)
		}
		if closeFn != nil {
			_ = closeFn()
		}
	}
}
