package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leaplineage/internal/cli/config"
	"github.com/leapstack-labs/leaplineage/internal/definition"
	"github.com/leapstack-labs/leaplineage/internal/lineage"
	"github.com/leapstack-labs/leaplineage/internal/state"
)

// getConfig returns the loaded configuration, or defaults when the command
// runs without the root command.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// session holds the analyzer and the definition sources behind it.
type session struct {
	analyzer *lineage.Analyzer
	defs     *definition.DirProvider
	server   *definition.SQLServerProvider
	logger   *slog.Logger
}

// openSession builds an analyzer from the configured definition sources
// and schema catalog.
func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*session, error) {
	s := &session{logger: logger}
	var chain definition.Chain

	if cfg.DefinitionsDir != "" {
		defs, res, err := definition.NewDirProvider(ctx, cfg.DefinitionsDir, definition.LoadOptions{
			Concurrency: cfg.Concurrency,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		logLoadResult(logger, res)
		s.defs = defs
		chain = append(chain, defs)
	}

	var catalog *lineage.Catalog
	if cfg.SchemaFile != "" {
		c, err := definition.LoadSchemaFile(cfg.SchemaFile)
		if err != nil {
			return nil, err
		}
		catalog = c
	}

	if cfg.MSSQLDSN != "" {
		server, err := definition.OpenSQLServer(ctx, cfg.MSSQLDSN, definition.WithSQLServerLogger(logger))
		if err != nil {
			return nil, err
		}
		s.server = server
		chain = append(chain, server)

		if catalog == nil {
			c, err := server.LoadSchema(ctx)
			if err != nil {
				_ = s.Close()
				return nil, err
			}
			catalog = c
		}
	}

	opts := []lineage.Option{
		lineage.WithLogger(logger),
		lineage.WithMaxDepth(cfg.MaxDepth),
	}
	if len(chain) > 0 {
		opts = append(opts, lineage.WithDefinitionProvider(chain))
	}
	if catalog != nil {
		logger.Debug("using schema catalog", slog.Int("tables", catalog.Len()))
		opts = append(opts, lineage.WithCatalog(catalog))
	}
	s.analyzer = lineage.NewAnalyzer(opts...)
	return s, nil
}

// Close releases the SQL Server connection, if any.
func (s *session) Close() error {
	if s.server == nil {
		return nil
	}
	return s.server.Close()
}

func logLoadResult(logger *slog.Logger, res *definition.LoadResult) {
	logger.Debug("loaded definitions",
		slog.Int("files", res.Files),
		slog.Int("objects", res.Objects),
		slog.Duration("duration", res.Duration))
	for _, fe := range res.Errors {
		logger.Warn("definition file has parse errors",
			slog.String("file", fe.Path),
			slog.Int("line", fe.Line),
			slog.Int("column", fe.Column),
			slog.String("error", fe.Message))
	}
}

// readScript reads a script from path, or from in when path is "-".
func readScript(in io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // path comes from the command line
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// openStore opens and migrates the state database.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	if cfg.StatePath != ":memory:" {
		if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
