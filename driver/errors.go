package driver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// Sentinel errors for backend failures.
var (
	ErrIndexNotFound  = errors.New("driver: index not found")
	ErrIndexExists    = errors.New("driver: index already exists")
	ErrSchemaMismatch = errors.New("driver: table or column does not exist")
)

// Op names used for error context.
const (
	OpSearch    = "FT.SEARCH"
	OpAggregate = "FT.AGGREGATE"
	OpCreate    = "FT.CREATE"
	OpQuery     = "QUERY"
)

// MySQL server error numbers.
const (
	mysqlBadField    = 1054
	mysqlNoSuchTable = 1146
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// redisError names the command and maps well-known server replies onto the
// sentinels.
func redisError(args []interface{}, err error) error {
	op := "redis"
	if len(args) > 0 {
		op = strings.ToUpper(toString(args[0]))
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such index"), strings.Contains(msg, "unknown index name"):
		err = fmt.Errorf("%w: %w", ErrIndexNotFound, err)
	case strings.Contains(msg, "index already exists"):
		err = fmt.Errorf("%w: %w", ErrIndexExists, err)
	}
	return &Error{Op: op, Err: err}
}

// sqlError maps missing-table and missing-column failures from MySQL and
// SQLite onto ErrSchemaMismatch.
func sqlError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && (me.Number == mysqlNoSuchTable || me.Number == mysqlBadField) {
		err = fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrError && strings.Contains(se.Error(), "no such ") {
		err = fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	return &Error{Op: OpQuery, Err: err}
}
