package driver

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/manojoshi/paramsearch/scan"
)

// Querier runs a compiled, parameterized SELECT.
type Querier interface {
	Query(ctx context.Context, stmt string, args ...any) ([]scan.Row, error)
}

var _ Querier = (*SQLConn)(nil)

// SQLConn runs compiled statements over database/sql.
type SQLConn struct {
	db     *sql.DB
	driver string
}

// NewSQLConn wraps an open handle. driverName is recorded on spans only.
func NewSQLConn(db *sql.DB, driverName string) *SQLConn {
	return &SQLConn{db: db, driver: driverName}
}

// OpenSQL opens and pings a database. The driver must be registered by the
// caller (blank import of go-sql-driver/mysql or mattn/go-sqlite3).
func OpenSQL(ctx context.Context, driverName, dsn string) (*SQLConn, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("driver: open %s: %w", driverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("driver: connect %s: %w", driverName, err)
	}
	if driverName == "sqlite3" {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	}
	return &SQLConn{db: db, driver: driverName}, nil
}

// DB returns the underlying handle.
func (c *SQLConn) DB() *sql.DB { return c.db }

// Query executes stmt and drains the result set.
func (c *SQLConn) Query(ctx context.Context, stmt string, args ...any) ([]scan.Row, error) {
	ctx, done := startSpan(ctx, "db", "query", c.attrs(stmt, args)...)
	rows, err := c.db.QueryContext(ctx, stmt, args...)
	var out []scan.Row
	if err == nil {
		out, err = scan.Rows(rows)
	}
	if done(err) != nil {
		return nil, sqlError(err)
	}
	return out, nil
}

// Count executes a COUNT(*) statement and returns its single value.
func (c *SQLConn) Count(ctx context.Context, stmt string, args ...any) (int64, error) {
	ctx, done := startSpan(ctx, "db", "count", c.attrs(stmt, args)...)
	var n int64
	err := c.db.QueryRowContext(ctx, stmt, args...).Scan(&n)
	if done(err) != nil {
		return 0, sqlError(err)
	}
	return n, nil
}

func (c *SQLConn) attrs(stmt string, args []any) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("db.system", c.driver),
		attribute.String("db.statement", stmt),
		attribute.Int("db.args", len(args)),
	}
}

// Close closes the underlying handle.
func (c *SQLConn) Close() error { return c.db.Close() }
