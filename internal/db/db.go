// Package db executes configured searches against a SQL database and maps
// result columns into value rows.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/oakwood-commons/dbdrill/internal/value"
	"github.com/oakwood-commons/dbdrill/pkg/logger"
)

// Executor runs one query with positional arguments.
type Executor interface {
	Execute(ctx context.Context, query string, args []value.Value) ([]value.Row, error)
}

// ExecutionError is a database-level failure: connectivity, SQL error or timeout.
type ExecutionError struct {
	Query string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was the per-query deadline.
func (e *ExecutionError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// DefaultTimeout bounds a single query when no other timeout is configured.
const DefaultTimeout = 30 * time.Second

// DB is an Executor backed by database/sql.
type DB struct {
	db      *sql.DB
	dialect Dialect
	timeout time.Duration
}

// Compile-time check that DB implements Executor.
var _ Executor = (*DB)(nil)

// Option configures a DB.
type Option func(*DB)

// WithTimeout sets the per-query timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(db *DB) { db.timeout = d }
}

// Open connects to the database named by dsn and verifies the connection.
func Open(ctx context.Context, dsn string, opts ...Option) (*DB, error) {
	dialect, driverDSN, err := DetectDialect(dsn)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open(dialect.Driver(), driverDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	switch dialect {
	case SQLite:
		sqlDB.SetMaxOpenConns(1)
	default:
		sqlDB.SetMaxOpenConns(4)
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.FromContext(ctx).V(1).Info("connected to database", "dialect", dialect.String())
	return New(sqlDB, dialect, opts...), nil
}

// New wraps an open *sql.DB.
func New(sqlDB *sql.DB, dialect Dialect, opts ...Option) *DB {
	d := &DB{db: sqlDB, dialect: dialect, timeout: DefaultTimeout}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Dialect returns the SQL dialect of the connection.
func (d *DB) Dialect() Dialect { return d.dialect }

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Execute runs query with args bound positionally and returns the decoded rows.
// Every failure is an *ExecutionError.
func (d *DB) Execute(ctx context.Context, query string, args []value.Value) ([]value.Row, error) {
	lgr := logger.FromContext(ctx)
	start := time.Now()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	bound := make([]any, len(args))
	for i, a := range args {
		b, err := d.dialect.bind(a)
		if err != nil {
			return nil, &ExecutionError{Query: query, Err: fmt.Errorf("bind arg %d: %w", i+1, err)}
		}
		bound[i] = b
	}

	rows, err := d.db.QueryContext(ctx, query, bound...)
	if err != nil {
		lgr.Info("query failed", "args", len(args), "error", err.Error())
		return nil, &ExecutionError{Query: query, Err: withContextErr(ctx, err)}
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		lgr.Info("reading rows failed", "error", err.Error())
		return nil, &ExecutionError{Query: query, Err: withContextErr(ctx, err)}
	}

	lgr.V(1).Info("executed query",
		"query", compact(query),
		"args", len(args),
		"rows", len(out),
		"duration", time.Since(start).String())
	return out, nil
}

// withContextErr attaches a context deadline or cancellation that drivers may report with their own error.
func withContextErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil && !errors.Is(err, cerr) {
		return fmt.Errorf("%w: %w", cerr, err)
	}
	return err
}

// compact collapses whitespace so multi-line queries log on one line.
func compact(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
