package definition

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	"github.com/leapstack-labs/leaplineage/internal/lineage"
)

// DefaultQueryTimeout bounds a single definition lookup.
const DefaultQueryTimeout = 10 * time.Second

const definitionQuery = `SELECT OBJECT_DEFINITION(OBJECT_ID(@p1))`

const columnsQuery = `SELECT TABLE_SCHEMA, TABLE_NAME, COLUMN_NAME, ORDINAL_POSITION
	FROM INFORMATION_SCHEMA.COLUMNS
	ORDER BY TABLE_SCHEMA, TABLE_NAME, ORDINAL_POSITION`

// columnRow holds one row of INFORMATION_SCHEMA.COLUMNS.
type columnRow struct {
	Schema   string `db:"TABLE_SCHEMA"`
	Table    string `db:"TABLE_NAME"`
	Column   string `db:"COLUMN_NAME"`
	Position int    `db:"ORDINAL_POSITION"`
}

// SQLServerProvider looks up definitions in a live SQL Server database.
// Results, including misses, are cached for the provider's lifetime.
type SQLServerProvider struct {
	db      *sqlx.DB
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]sql.NullString
}

// SQLServerOption configures a SQLServerProvider.
type SQLServerOption func(*SQLServerProvider)

// WithQueryTimeout sets the timeout of each lookup.
func WithQueryTimeout(d time.Duration) SQLServerOption {
	return func(p *SQLServerProvider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithSQLServerLogger sets the provider's logger.
func WithSQLServerLogger(logger *slog.Logger) SQLServerOption {
	return func(p *SQLServerProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// OpenSQLServer connects to the database at dsn.
func OpenSQLServer(ctx context.Context, dsn string, opts ...SQLServerOption) (*SQLServerProvider, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql connect: %w", err)
	}
	return NewSQLServerProvider(db, opts...), nil
}

// NewSQLServerProvider wraps an existing connection pool.
func NewSQLServerProvider(db *sqlx.DB, opts ...SQLServerOption) *SQLServerProvider {
	p := &SQLServerProvider{
		db:      db,
		timeout: DefaultQueryTimeout,
		logger:  slog.New(slog.DiscardHandler),
		cache:   make(map[string]sql.NullString),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Close closes the connection pool.
func (p *SQLServerProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// TryGetDefinition implements Provider. Lookup failures are logged and
// reported as a miss.
func (p *SQLServerProvider) TryGetDefinition(name string) (string, bool) {
	key := normalize(name)
	if key == "" {
		return "", false
	}

	p.mu.Lock()
	cached, ok := p.cache[key]
	p.mu.Unlock()
	if ok {
		return cached.String, cached.Valid
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	def, err := p.Definition(ctx, name)
	if err != nil {
		p.logger.Warn("definition lookup failed", "object", name, "error", err)
		return "", false
	}

	p.mu.Lock()
	p.cache[key] = def
	p.mu.Unlock()
	return def.String, def.Valid
}

// Definition queries the definition of name. The result is invalid when
// the object does not exist or is not a module.
func (p *SQLServerProvider) Definition(ctx context.Context, name string) (sql.NullString, error) {
	var def sql.NullString
	if err := p.db.GetContext(ctx, &def, definitionQuery, name); err != nil {
		return sql.NullString{}, fmt.Errorf("query definition of %q: %w", name, err)
	}
	if strings.TrimSpace(def.String) == "" {
		def.Valid = false
	}
	return def, nil
}

// LoadSchema reads the column lists of every table and view visible to the
// connection into a catalog keyed by schema.table.
func (p *SQLServerProvider) LoadSchema(ctx context.Context) (*lineage.Catalog, error) {
	var rows []columnRow
	if err := p.db.SelectContext(ctx, &rows, columnsQuery); err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}

	tables := make(map[string][]string)
	for _, r := range rows {
		name := r.Table
		if r.Schema != "" {
			name = r.Schema + "." + r.Table
		}
		tables[name] = append(tables[name], r.Column)
	}

	p.logger.Debug("loaded schema", "tables", len(tables), "columns", len(rows))
	return lineage.NewCatalog(tables), nil
}
