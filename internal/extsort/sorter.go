package extsort

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"linesort/internal/config"
	"linesort/internal/datasource"
	"linesort/internal/datasource/file"
	"linesort/internal/fsutil"
	"linesort/internal/logging"
	"linesort/internal/record"
)

const partialSuffix = ".partial"

var chunkName = regexp.MustCompile(`^chunk_(\d+)\.txt$`)

// ChunkName is the file name of chunk index.
func ChunkName(index int) string { return "chunk_" + strconv.Itoa(index) + ".txt" }

// Options mirrors the sorter configuration section.
type Options struct {
	InputPath  string
	OutputPath string
	TempDir    string
	ChunkLines int
	BufferSize int

	// Parallelism is the number of partitions sorted concurrently per chunk.
	// Zero means runtime.GOMAXPROCS(0).
	Parallelism int

	// KeepChunks skips removing TempDir after a successful merge.
	KeepChunks bool
}

// Stats describes the work done by a Sorter.
type Stats struct {
	Resumed     bool
	Chunks      int
	ChunkLines  int64
	MergedLines int64
}

// Sorter runs both phases of the external sort.
type Sorter struct {
	opts   Options
	merger *Merger
	stats  Stats
}

// NewSorter validates opts and returns a Sorter using merger for both phases.
func NewSorter(opts Options, merger *Merger) (*Sorter, error) {
	for _, p := range []struct{ name, v string }{
		{"input_path", opts.InputPath},
		{"output_path", opts.OutputPath},
		{"temp_dir", opts.TempDir},
	} {
		if err := config.RequirePath(p.name, p.v); err != nil {
			return nil, err
		}
	}
	if err := config.RequirePositive("chunk_lines", opts.ChunkLines); err != nil {
		return nil, err
	}
	if err := config.RequirePositive("buffer_size", opts.BufferSize); err != nil {
		return nil, err
	}
	if opts.Parallelism < 0 {
		return nil, fmt.Errorf("%w: parallelism must not be negative", config.ErrInvalid)
	}
	if opts.Parallelism == 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	if merger == nil {
		return nil, fmt.Errorf("%w: sorter needs a merger", config.ErrInvalid)
	}
	if within(opts.OutputPath, opts.TempDir) {
		return nil, fmt.Errorf("%w: output_path %s is inside temp_dir %s", config.ErrInvalid, opts.OutputPath, opts.TempDir)
	}
	return &Sorter{opts: opts, merger: merger}, nil
}

// Stats returns counters for the phases run so far.
func (s *Sorter) Stats() Stats { return s.stats }

// Sort runs BuildChunks then MergeAll.
func (s *Sorter) Sort(ctx context.Context) error {
	chunks, err := s.BuildChunks(ctx)
	if err != nil {
		return err
	}
	return s.MergeAll(ctx, chunks)
}

// ListChunks returns the complete chunk files in TempDir ordered by numeric
// index. A missing TempDir is created and reported as no chunks.
func (s *Sorter) ListChunks() ([]string, error) {
	entries, err := os.ReadDir(s.opts.TempDir)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(s.opts.TempDir, 0o755); err != nil {
			return nil, fmt.Errorf("chunks: create %s: %w", s.opts.TempDir, err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chunks: list %s: %w", s.opts.TempDir, err)
	}

	type indexed struct {
		n    uint64
		path string
	}
	var found []indexed
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := chunkName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			continue
		}
		found = append(found, indexed{n: n, path: filepath.Join(s.opts.TempDir, e.Name())})
	}
	slices.SortFunc(found, func(a, b indexed) int {
		if a.n != b.n {
			if a.n < b.n {
				return -1
			}
			return 1
		}
		return strings.Compare(a.path, b.path)
	})

	paths := make([]string, len(found))
	for i, c := range found {
		paths[i] = c.path
	}
	return paths, nil
}

// BuildChunks sorts InputPath into chunk files. When TempDir already holds
// chunk files they are returned as-is and the input is not read.
func (s *Sorter) BuildChunks(ctx context.Context) ([]string, error) {
	return s.BuildChunksFrom(ctx, file.NewLocal(s.opts.InputPath))
}

// BuildChunksFrom is BuildChunks reading from src instead of InputPath.
func (s *Sorter) BuildChunksFrom(ctx context.Context, src datasource.Source) ([]string, error) {
	existing, err := s.ListChunks()
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		logging.Infof("chunk: resume dir=%s chunks=%d", s.opts.TempDir, len(existing))
		s.stats.Resumed = true
		s.stats.Chunks = len(existing)
		return existing, nil
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	defer rc.Close()

	in := NewReaderSource(src.Name(), rc, s.opts.BufferSize)
	batch := make([]record.Line, 0, s.opts.ChunkLines)
	var chunks []string
	flush := func() error {
		path, err := s.writeChunk(ctx, len(chunks), batch)
		if err != nil {
			return err
		}
		chunks = append(chunks, path)
		s.stats.Chunks = len(chunks)
		s.stats.ChunkLines += int64(len(batch))
		batch = make([]record.Line, 0, s.opts.ChunkLines)
		return nil
	}

	for {
		l, ok, err := in.Next()
		if err != nil {
			return nil, fmt.Errorf("chunk: %w", err)
		}
		if !ok {
			break
		}
		batch = append(batch, l)
		if len(batch) == s.opts.ChunkLines {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

// writeChunk sorts batch as contiguous partitions in parallel, then merges
// the partitions into chunk file index.
func (s *Sorter) writeChunk(ctx context.Context, index int, batch []record.Line) (string, error) {
	start := time.Now()
	parts := partition(batch, s.opts.Parallelism)

	g, gctx := errgroup.WithContext(ctx)
	for _, part := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slices.SortFunc(part, s.merger.compare)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("chunk %d: sort: %w", index, err)
	}

	sources := make([]Source, len(parts))
	for i, part := range parts {
		sources[i] = NewSliceSource(part)
	}

	path := filepath.Join(s.opts.TempDir, ChunkName(index))
	if _, err := s.publish(ctx, path, sources); err != nil {
		return "", fmt.Errorf("chunk %d: %w", index, err)
	}
	logging.Debugf("chunk: index=%d lines=%d partitions=%d elapsed=%s", index, len(batch), len(parts), time.Since(start))
	return path, nil
}

// MergeAll merges chunk files into OutputPath. Every chunk is closed whether
// or not the merge succeeds. TempDir is removed only after a successful
// merge, unless KeepChunks is set.
func (s *Sorter) MergeAll(ctx context.Context, chunks []string) error {
	start := time.Now()
	files := make([]*FileSource, 0, len(chunks))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	sources := make([]Source, 0, len(chunks))
	for _, path := range chunks {
		f, err := OpenFile(path, s.opts.BufferSize)
		if err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		files = append(files, f)
		sources = append(sources, f)
	}

	n, err := s.publish(ctx, s.opts.OutputPath, sources)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	s.stats.MergedLines = n
	logging.Infof("merge: chunks=%d lines=%d output=%s elapsed=%s", len(chunks), n, s.opts.OutputPath, time.Since(start))

	if s.opts.KeepChunks {
		return nil
	}
	return s.RemoveChunks()
}

// RemoveChunks deletes TempDir and everything in it.
func (s *Sorter) RemoveChunks() error {
	if err := os.RemoveAll(s.opts.TempDir); err != nil {
		return fmt.Errorf("chunks: remove %s: %w", s.opts.TempDir, err)
	}
	return nil
}

// publish merges sources into path+".partial" and renames it to path.
func (s *Sorter) publish(ctx context.Context, path string, sources []Source) (n int64, err error) {
	tmp := path + partialSuffix
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if n, err = s.merger.Merge(ctx, sources, f); err != nil {
		return n, err
	}
	if err = f.Sync(); err != nil {
		return n, fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err = f.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", tmp, err)
	}
	if err = fsutil.Replace(tmp, path); err != nil {
		return n, err
	}
	return n, nil
}

// partition splits lines into p contiguous parts; the last part absorbs the
// remainder. Fewer parts are returned when lines is shorter than p.
func partition(lines []record.Line, p int) [][]record.Line {
	p = max(1, min(p, len(lines)))
	size := len(lines) / p
	parts := make([][]record.Line, p)
	for i := range p {
		lo := i * size
		hi := lo + size
		if i == p-1 {
			hi = len(lines)
		}
		parts[i] = lines[lo:hi]
	}
	return parts
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
