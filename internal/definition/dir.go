package definition

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/leaplineage/pkg/parser"
	"golang.org/x/sync/errgroup"
)

// batchSeparator matches a GO line, optionally with a repeat count.
var batchSeparator = regexp.MustCompile(`(?im)^[ \t]*GO(?:[ \t]+\d+)?[ \t]*;?[ \t]*\r?$`)

// Batch is one GO-separated part of a script.
type Batch struct {
	Text string
	Line int // 1-based line of the file where Text starts
}

// SplitBatches splits script text on GO separator lines. Blank batches are
// dropped.
func SplitBatches(text string) []Batch {
	var (
		batches []Batch
		start   int
	)
	add := func(end int) {
		part := text[start:end]
		trimmed := strings.TrimLeft(part, "\r\n")
		if strings.TrimSpace(trimmed) == "" {
			return
		}
		offset := start + len(part) - len(trimmed)
		batches = append(batches, Batch{
			Text: strings.TrimRight(trimmed, " \t\r\n"),
			Line: strings.Count(text[:offset], "\n") + 1,
		})
	}
	for _, loc := range batchSeparator.FindAllStringIndex(text, -1) {
		add(loc[0])
		start = loc[1]
	}
	add(len(text))
	return batches
}

// LoadOptions configures LoadDir.
type LoadOptions struct {
	Concurrency int // files parsed in parallel, defaults to GOMAXPROCS
	Logger      *slog.Logger
}

// LoadResult contains statistics about a directory load.
type LoadResult struct {
	Files    int
	Objects  int
	Errors   []FileError // non-fatal
	Duration time.Duration
}

// FileError is a non-fatal problem with one definition file.
type FileError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e FileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// HasErrors returns true if any file had problems.
func (r *LoadResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// LoadDir walks root for .sql files and indexes every CREATE VIEW and
// CREATE PROCEDURE batch by object name. Parse errors are reported in the
// result and do not stop the load.
func LoadDir(ctx context.Context, root string, opts LoadOptions) (*Index, *LoadResult, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	paths, err := sqlFiles(root)
	if err != nil {
		return nil, nil, err
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var (
		mu      sync.Mutex
		entries = make([][]Entry, len(paths))
		result  = &LoadResult{Files: len(paths)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found, problems, err := loadFile(path)
			if err != nil {
				return err
			}
			entries[i] = found

			if len(problems) > 0 {
				mu.Lock()
				result.Errors = append(result.Errors, problems...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to load definitions from %s: %w", root, err)
	}

	// Files are indexed in walk order so duplicate names resolve the same
	// way on every load.
	idx := NewIndex()
	for _, found := range entries {
		for _, e := range found {
			idx.Add(e)
			result.Objects++
		}
	}
	sort.Slice(result.Errors, func(a, b int) bool {
		if result.Errors[a].Path != result.Errors[b].Path {
			return result.Errors[a].Path < result.Errors[b].Path
		}
		return result.Errors[a].Line < result.Errors[b].Line
	})
	result.Duration = time.Since(start)

	logger.Debug("loaded definitions",
		"root", root,
		"files", result.Files,
		"objects", result.Objects,
		"errors", len(result.Errors),
		"duration", result.Duration)
	return idx, result, nil
}

// sqlFiles returns the .sql files under root in lexical order, skipping
// hidden files and directories.
func sqlFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".sql") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}
	return paths, nil
}

// loadFile parses each batch of a file and returns its view and procedure
// definitions.
func loadFile(path string) ([]Entry, []FileError, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from filepath.WalkDir
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var (
		entries  []Entry
		problems []FileError
	)
	for _, batch := range SplitBatches(string(content)) {
		script, errs := parser.Parse(batch.Text)
		for _, e := range errs {
			problems = append(problems, FileError{
				Path:    path,
				Line:    batch.Line + e.Line - 1,
				Column:  e.Column,
				Message: e.Message,
			})
		}
		if script == nil {
			continue
		}
		for _, stmt := range script.Statements {
			if e, ok := entryFor(stmt); ok {
				e.Path = path
				e.Text = batch.Text
				entries = append(entries, e)
			}
		}
	}
	return entries, problems, nil
}

func entryFor(stmt parser.Statement) (Entry, bool) {
	switch s := stmt.(type) {
	case *parser.CreateViewStatement:
		if s.Name != nil {
			return Entry{Name: s.Name.String(), Kind: KindView}, true
		}
	case *parser.CreateProcedureStatement:
		if s.Name != nil {
			return Entry{Name: s.Name.String(), Kind: KindProcedure}, true
		}
	}
	return Entry{}, false
}

// DirProvider serves definitions from a directory and can be reloaded when
// the directory changes.
type DirProvider struct {
	root  string
	opts  LoadOptions
	index *Index
}

// NewDirProvider loads root and returns a provider over it.
func NewDirProvider(ctx context.Context, root string, opts LoadOptions) (*DirProvider, *LoadResult, error) {
	idx, result, err := LoadDir(ctx, root, opts)
	if err != nil {
		return nil, nil, err
	}
	return &DirProvider{root: root, opts: opts, index: idx}, result, nil
}

// Root returns the directory the provider serves.
func (p *DirProvider) Root() string {
	return p.root
}

// Index returns the current index.
func (p *DirProvider) Index() *Index {
	return p.index
}

// Reload re-reads the directory. On error the previous definitions stay
// in place.
func (p *DirProvider) Reload(ctx context.Context) (*LoadResult, error) {
	idx, result, err := LoadDir(ctx, p.root, p.opts)
	if err != nil {
		return nil, err
	}
	p.index.Replace(idx)
	return result, nil
}

// TryGetDefinition implements Provider.
func (p *DirProvider) TryGetDefinition(name string) (string, bool) {
	return p.index.TryGetDefinition(name)
}
