package repository

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/manojoshi/paramsearch/driver"
	"github.com/manojoshi/paramsearch/index"
	"github.com/manojoshi/paramsearch/internal"
	q "github.com/manojoshi/paramsearch/query"
	"github.com/manojoshi/paramsearch/scan"
	"github.com/manojoshi/paramsearch/schema"
)

// Page is one executed search.
type Page struct {
	Rows      []scan.Row
	Total     int64 // matches before paging
	Statement string
	Args      []any
}

// Backend executes built queries.
type Backend interface {
	Name() string
	// Index names the RediSearch index of entity; SQL backends return "".
	Index(entity string) string
	Explain(b *q.Builder) (string, []any, error)
	Find(ctx context.Context, b *q.Builder) (Page, error)
	Aggregate(ctx context.Context, ab *q.AggregateBuilder) ([]scan.Row, error)
}

/*───────────────────────────────────────────────────────────────
|  SQL                                                           |
└───────────────────────────────────────────────────────────────*/

// SQLExecutor is what the SQL backend needs from a connection.
type SQLExecutor interface {
	driver.Querier
	Count(ctx context.Context, stmt string, args ...any) (int64, error)
}

type sqlBackend struct {
	conn    SQLExecutor
	dialect q.Dialect
}

// SQL runs queries through conn, compiled for dialect.
func SQL(conn SQLExecutor, d q.Dialect) Backend {
	return &sqlBackend{conn: conn, dialect: d}
}

func (s *sqlBackend) Name() string        { return s.dialect.String() }
func (s *sqlBackend) Index(string) string { return "" }

func (s *sqlBackend) Explain(b *q.Builder) (string, []any, error) {
	return b.SQL(s.dialect)
}

func (s *sqlBackend) Find(ctx context.Context, b *q.Builder) (Page, error) {
	stmt, args, err := b.SQL(s.dialect)
	if err != nil {
		return Page{}, err
	}
	rows, err := s.conn.Query(ctx, stmt, args...)
	if err != nil {
		return Page{}, err
	}

	total := int64(len(rows))
	if off, lim := b.Paging(); off > 0 || (lim >= 0 && len(rows) >= lim) {
		countStmt, countArgs, err := b.CountSQL(s.dialect)
		if err != nil {
			return Page{}, err
		}
		if total, err = s.conn.Count(ctx, countStmt, countArgs...); err != nil {
			return Page{}, err
		}
	}
	return Page{Rows: rows, Total: total, Statement: stmt, Args: args}, nil
}

func (s *sqlBackend) Aggregate(ctx context.Context, ab *q.AggregateBuilder) ([]scan.Row, error) {
	stmt, args, err := ab.SQL(s.dialect)
	if err != nil {
		return nil, err
	}
	return s.conn.Query(ctx, stmt, args...)
}

/*───────────────────────────────────────────────────────────────
|  RediSearch                                                    |
└───────────────────────────────────────────────────────────────*/

type redisBackend struct {
	exec  driver.Executor
	index func(entity string) string
}

// Redis runs queries as FT.SEARCH / FT.AGGREGATE through exec. indexName
// maps an entity to its index; nil means "<entity>_idx".
func Redis(exec driver.Executor, indexName func(entity string) string) Backend {
	if indexName == nil {
		indexName = func(e string) string { return e + "_idx" }
	}
	return &redisBackend{exec: exec, index: indexName}
}

func (r *redisBackend) Name() string               { return "redisearch" }
func (r *redisBackend) Index(entity string) string { return r.index(entity) }

func (r *redisBackend) Explain(b *q.Builder) (string, []any, error) {
	if err := b.Err(); err != nil {
		return "", nil, err
	}
	args, err := b.Search(r.index(b.Entity().Name)).RawArgs()
	if err != nil {
		return "", nil, err
	}
	return joinArgs(args), nil, nil
}

func (r *redisBackend) Find(ctx context.Context, b *q.Builder) (Page, error) {
	if err := b.Err(); err != nil {
		return Page{}, err
	}
	sb := b.Search(r.index(b.Entity().Name)).Using(r.exec)
	args, err := sb.RawArgs()
	if err != nil {
		return Page{}, err
	}
	rows, total, err := sb.Run(ctx)
	if err != nil {
		return Page{}, err
	}
	return Page{Rows: rows, Total: total, Statement: joinArgs(args)}, nil
}

func (r *redisBackend) Aggregate(ctx context.Context, ab *q.AggregateBuilder) ([]scan.Row, error) {
	return ab.Using(r.exec).Run(ctx)
}

func joinArgs(args []interface{}) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, " ")
}

/*───────────────────────────────────────────────────────────────
|  RediSearch administrative & data-loading helpers              |
└───────────────────────────────────────────────────────────────*/

// Store pairs the FT executor with a raw client for HSET / DEL.
type Store struct {
	exec driver.Executor
	raw  redis.UniversalClient // optional: can be nil
	reg  *schema.Registry
}

// NewStore constructs a Store from the two handles.
func NewStore(exec driver.Executor, raw redis.UniversalClient, reg *schema.Registry) *Store {
	return &Store{exec: exec, raw: raw, reg: reg}
}

// EnsureIndex creates the index of entity, denormalizing its relations.
func (s *Store) EnsureIndex(ctx context.Context, entity string, opts ...index.CreateOpt) error {
	e, ok := s.reg.Entity(entity)
	if !ok {
		return fmt.Errorf("repository: unknown entity %q", entity)
	}
	return index.AutoCreate(ctx, s.exec, e, s.reg, opts...)
}

// DropIndex drops the FT index and optionally deletes keys with the given
// prefix(es).
func (s *Store) DropIndex(ctx context.Context, indexName string, prefixes ...string) error {
	_, _ = s.exec.Do(ctx, "FT.DROPINDEX", indexName, "DD") // ignore if missing
	if s.raw == nil {
		return nil
	}
	for _, p := range prefixes {
		iter := s.raw.Scan(ctx, 0, p+"*", 0).Iterator()
		for iter.Next(ctx) {
			if err := s.raw.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("repository: delete %s: %w", iter.Val(), err)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("repository: scan %s*: %w", p, err)
		}
	}
	return nil
}

// LoadHash writes one record into a HASH. Struct fields are named by their
// `search` tags; related records are flattened under "<relation>_" keys by
// passing them through Flatten first.
func (s *Store) LoadHash(ctx context.Context, key string, record any) error {
	if s.raw == nil {
		return fmt.Errorf("repository: raw Redis client not configured")
	}
	return s.raw.HSet(ctx, key, structToMap(record)).Err()
}

// LoadBulk writes many records; prefix is prepended when keyFn returns a
// bare ID. When the executor can pipeline, all HSETs go out in one round
// trip and the first failed key is reported.
func (s *Store) LoadBulk(
	ctx context.Context,
	prefix string,
	records []any,
	keyFn func(any) string,
) error {
	keys := make([]string, len(records))
	for i, rec := range records {
		keys[i] = keyFn(rec)
		if !strings.HasPrefix(keys[i], prefix) {
			keys[i] = prefix + keys[i]
		}
	}

	p, ok := s.exec.(driver.Pipeliner)
	if !ok {
		for i, rec := range records {
			if err := s.LoadHash(ctx, keys[i], rec); err != nil {
				return err
			}
		}
		return nil
	}
	if len(records) == 0 {
		return nil
	}

	cmds := make([][]interface{}, len(records))
	for i, rec := range records {
		cmds[i] = hsetArgs(keys[i], structToMap(rec))
	}
	replies, err := p.Pipeline(ctx, cmds)
	if err != nil {
		return err
	}
	for i, r := range replies {
		if err, ok := r.(error); ok {
			return fmt.Errorf("repository: load %s: %w", keys[i], err)
		}
	}
	return nil
}

func hsetArgs(key string, m map[string]any) []interface{} {
	args := make([]interface{}, 0, 2+2*len(m))
	args = append(args, "HSET", key)
	for _, k := range internal.SortedKeys(m) {
		args = append(args, k, m[k])
	}
	return args
}

// Flatten merges related records into parent under "<relation>_<field>"
// keys, the layout index.AutoCreate declares.
func Flatten(parent any, related map[string]any) map[string]any {
	out := structToMap(parent)
	for rel, rec := range related {
		for k, v := range structToMap(rec) {
			out[rel+"_"+k] = v
		}
	}
	return out
}

// structToMap converts a struct or map to a map[string]any.
func structToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	// map[string]any passed straight through
	if rv.Kind() == reflect.Map {
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key())] = iter.Value().Interface()
		}
		return out
	}

	// struct: use search tags
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		if name, ok := schema.FieldName(rt.Field(i)); ok && rt.Field(i).IsExported() {
			out[name] = rv.Field(i).Interface()
		}
	}
	return out
}
