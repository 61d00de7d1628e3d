package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leaplineage/internal/cli/config"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-analyze scripts when they change",
		Long: `Watch a directory tree and analyze every changed script.

Changes are debounced per file (watch_debounce, default 100ms). When a
changed file lies in --definitions-dir, the definitions are reloaded before
the file is analyzed so dependent scripts pick up the new view text.`,
		Example: `  leaplineage watch ./etl --definitions-dir ./Database`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfig()
			logger := config.GetLogger(ctx)

			sess, err := openSession(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			w := newWatcher(sess, cmd.OutOrStdout(), resolveFormat(cfg.OutputFormat, cmd.OutOrStdout()), cfg)
			w.onReady = func() {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)\n", args[0])
			}
			return w.run(ctx, args[0])
		},
	}
}

// watcher analyzes files as fsnotify reports changes to them.
type watcher struct {
	sess       *session
	out        io.Writer
	format     string
	extensions []string
	debounce   time.Duration
	logger     *slog.Logger

	// onReady is called once every directory is being watched.
	onReady func()

	mu      sync.Mutex
	pending map[string]*time.Timer
	changed chan string
}

func newWatcher(sess *session, out io.Writer, format string, cfg *config.Config) *watcher {
	return &watcher{
		sess:       sess,
		out:        out,
		format:     format,
		extensions: cfg.WatchExtensions,
		debounce:   cfg.WatchDebounce,
		logger:     sess.logger,
		pending:    make(map[string]*time.Timer),
		changed:    make(chan string, 16),
	}
}

// run watches dir until ctx is cancelled.
func (w *watcher) run(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := addTree(fw, dir); err != nil {
		return err
	}
	if w.onReady != nil {
		w.onReady()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.watchEvents(gctx, fw) })
	g.Go(func() error { return w.process(gctx) })

	err = g.Wait()
	w.stopPending()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// addTree watches dir and every non-hidden directory below it.
func addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *watcher) watchEvents(ctx context.Context, fw *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(fw, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", slog.String("path", event.Name), slog.String("error", err.Error()))
					}
					continue
				}
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if w.watched(event.Name) {
					w.schedule(ctx, event.Name)
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// watched reports whether path has one of the watched extensions.
func (w *watcher) watched(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	return slices.ContainsFunc(w.extensions, func(e string) bool {
		return strings.ToLower(e) == ext
	})
}

// schedule queues path once no further events arrive for the debounce window.
func (w *watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case w.changed <- path:
		case <-ctx.Done():
		}
	})
}

func (w *watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *watcher) process(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path := <-w.changed:
			if err := w.handle(ctx, path); err != nil {
				return err
			}
		}
	}
}

// handle reloads definitions if needed and analyzes path. Failures to read
// or analyze one file are logged; only output errors stop the watcher.
func (w *watcher) handle(ctx context.Context, path string) error {
	if w.inDefinitions(path) {
		res, err := w.sess.defs.Reload(ctx)
		if err != nil {
			w.logger.Warn("failed to reload definitions", slog.String("error", err.Error()))
		} else {
			logLoadResult(w.logger, res)
			w.logger.Info("reloaded definitions", slog.String("path", path), slog.Int("objects", res.Objects))
		}
	}

	text, err := readScript(nil, path)
	if err != nil {
		w.logger.Warn("failed to read changed file", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	result, err := w.sess.analyzer.Analyze(text)
	if err != nil {
		w.logger.Warn("failed to analyze changed file", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}

	w.logger.Info("analyzed changed file", slog.String("path", path), slog.Int("edges", len(result.Edges)))
	return renderResults(w.out, w.format, []fileResult{{Source: path, Result: result}})
}

func (w *watcher) inDefinitions(path string) bool {
	if w.sess.defs == nil {
		return false
	}
	root, err := filepath.Abs(w.sess.defs.Root())
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
