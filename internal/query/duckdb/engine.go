package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/datawhisper/datawhisper/internal/query"
)

// Table loads a Parquet file into the database under Name when the engine
// opens, replacing any table of the same name.
type Table struct {
	Name string
	Path string
}

type Options struct {
	// Path is the database file; empty means an in-memory database.
	Path    string
	Tables  []Table
	Timeout time.Duration
}

// Engine serves queries from DuckDB. DuckDB has no read-only transactions,
// so every statement is validated before it runs. Once the snapshot tables
// are loaded, file and network access is switched off and the setting is
// locked, so a SELECT cannot reach table functions such as read_text.
type Engine struct {
	db      *sql.DB
	timeout time.Duration
}

var lockdownStatements = []string{
	"SET enable_external_access = false",
	"SET lock_configuration = true",
}

func Open(ctx context.Context, opts Options) (*Engine, error) {
	db, err := sql.Open("duckdb", strings.TrimSpace(opts.Path))
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	for _, table := range opts.Tables {
		loadSQL := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT * FROM read_parquet(%s)`, quoteIdent(table.Name), quoteString(table.Path))
		if _, err := db.ExecContext(ctx, loadSQL); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("load table %q: %w", table.Name, err)
		}
	}
	for _, stmt := range lockdownStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("restrict duckdb: %w", err)
		}
	}

	return &Engine{db: db, timeout: opts.Timeout}, nil
}

func (e *Engine) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	if strings.TrimSpace(request.SQL) == "" {
		return query.Result{}, fmt.Errorf("sql is required")
	}
	if err := query.ValidateReadOnly(request.SQL); err != nil {
		return query.Result{}, err
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, query.WrapLimit(request.SQL, request.RowLimit))
	if err != nil {
		return query.Result{}, err
	}
	defer func() { _ = rows.Close() }()

	return query.Collect(rows, request.RowLimit, start)
}

func (e *Engine) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *Engine) Close() error {
	return e.db.Close()
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}
