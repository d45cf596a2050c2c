package query

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manojoshi/paramsearch/driver"
	"github.com/manojoshi/paramsearch/scan"
)

// -------------------------------------------------------------------
// SearchBuilder – fluent builder for FT.SEARCH
// -------------------------------------------------------------------

type SearchBuilder struct {
	idx           string
	from          *Builder
	where         Expr
	returnFields  []string
	sortField     string
	dir           Dir
	offset, limit int
	executor      driver.Executor
}

// NewSearch starts a builder. Executor must be provided before Run.
func NewSearch(index string) *SearchBuilder {
	return &SearchBuilder{idx: index, limit: 10_000}
}

// Search seeds an FT.SEARCH over index from the recorded predicate, columns
// and paging. RediSearch sorts on one attribute, so only the first recorded
// sort is kept.
func (b *Builder) Search(index string) *SearchBuilder {
	sb := NewSearch(index).Where(b.Expr()).Select(b.columns...)
	sb.from = b
	if len(b.sorts) > 0 {
		sb.SortBy(b.sorts[0].Field, b.sorts[0].Dir)
	}
	if b.limit >= 0 {
		sb.Limit(b.offset, b.limit)
	}
	return sb
}

func (b *SearchBuilder) Where(e Expr) *SearchBuilder { b.where = e; return b }
func (b *SearchBuilder) Select(fs ...string) *SearchBuilder {
	b.returnFields = append([]string{}, fs...)
	return b
}
func (b *SearchBuilder) SortBy(f string, d Dir) *SearchBuilder {
	b.sortField, b.dir = f, d
	return b
}
func (b *SearchBuilder) Limit(off, lim int) *SearchBuilder {
	b.offset, b.limit = off, lim
	return b
}
func (b *SearchBuilder) Using(ex driver.Executor) *SearchBuilder {
	b.executor = ex
	return b
}

// RawArgs gives you the complete arg slice for logging / pipeline use.
func (b *SearchBuilder) RawArgs() ([]interface{}, error) {
	if b.idx == "" {
		return nil, errors.New("query: index name is required")
	}
	args := []interface{}{"FT.SEARCH", b.idx, whereClause(b.where, b.from)}

	if len(b.returnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(b.returnFields)))
		for _, f := range b.returnFields {
			args = append(args, f)
		}
	}

	if b.sortField != "" {
		args = append(args, "SORTBY", b.sortField, string(b.dir))
	}

	args = append(args, "LIMIT", strconv.Itoa(b.offset), strconv.Itoa(b.limit))
	args = append(args, "DIALECT", "2")

	return args, nil
}

// Run executes the command and decodes the page of hits plus the total
// match count.
func (b *SearchBuilder) Run(ctx context.Context) ([]scan.Row, int64, error) {
	if b.executor == nil {
		return nil, 0, errors.New("query: executor not set (call Using())")
	}
	args, err := b.RawArgs()
	if err != nil {
		return nil, 0, err
	}

	raw, err := b.executor.Do(ctx, args...)
	if err != nil {
		return nil, 0, err
	}

	return scan.DecodeSearch(raw)
}

// -------------------------------------------------------------------
// AggregateBuilder – fluent builder for FT.AGGREGATE, also compilable to
// GROUP BY SQL when built from a Builder.
// -------------------------------------------------------------------

type AggregateBuilder struct {
	idx           string
	from          *Builder
	where         Expr
	groups        []GroupKey
	reducers      []Reducer
	offset, limit int
	executor      driver.Executor
}

func NewAggregate(index string) *AggregateBuilder {
	return &AggregateBuilder{idx: index, limit: 10_000}
}

// Aggregate seeds an aggregate over index (RediSearch) or the builder's
// entity table (SQL) with the recorded predicate.
func (b *Builder) Aggregate(index string) *AggregateBuilder {
	ab := NewAggregate(index).Where(b.Expr())
	ab.from = b
	return ab
}

func (b *AggregateBuilder) Where(e Expr) *AggregateBuilder { b.where = e; return b }
func (b *AggregateBuilder) GroupBy(keys ...GroupKey) *AggregateBuilder {
	b.groups = keys
	return b
}
func (b *AggregateBuilder) Reduce(fn, field, as string) *AggregateBuilder {
	b.reducers = append(b.reducers, Reducer{Fn: strings.ToUpper(fn), Field: field, Alias: as})
	return b
}
func (b *AggregateBuilder) With(rs ...Reducer) *AggregateBuilder {
	b.reducers = append(b.reducers, rs...)
	return b
}
func (b *AggregateBuilder) Limit(off, lim int) *AggregateBuilder {
	b.offset, b.limit = off, lim
	return b
}
func (b *AggregateBuilder) Using(ex driver.Executor) *AggregateBuilder {
	b.executor = ex
	return b
}

func (b *AggregateBuilder) RawArgs() ([]interface{}, error) {
	if b.idx == "" {
		return nil, errors.New("query: index name is required")
	}
	if err := b.validate(); err != nil {
		return nil, err
	}

	args := []interface{}{"FT.AGGREGATE", b.idx, whereClause(b.where, b.from)}

	// buckets are materialized with APPLY before GROUPBY can see them
	for _, g := range b.groups {
		if g.bucket != "" {
			args = append(args, "APPLY", g.bucket.redisApply(g.field), "AS", g.name())
		}
	}

	args = append(args, "GROUPBY", strconv.Itoa(len(b.groups)))
	for _, g := range b.groups {
		if g.bucket != "" {
			args = append(args, "@"+g.name())
			continue
		}
		args = append(args, g.raw)
	}

	for _, r := range b.reducers {
		if strings.EqualFold(r.Fn, "COUNT") {
			args = append(args, "REDUCE", "COUNT", "0", "AS", r.Alias)
			continue
		}
		args = append(args, "REDUCE", strings.ToUpper(r.Fn), "1", field(r.Field), "AS", r.Alias)
	}

	args = append(args, "LIMIT", strconv.Itoa(b.offset), strconv.Itoa(b.limit))
	args = append(args, "DIALECT", "2")

	return args, nil
}

// SQL compiles the aggregate to a GROUP BY statement over the source
// builder's entity table.
func (b *AggregateBuilder) SQL(d Dialect) (string, []any, error) {
	if b.from == nil || b.from.entity == nil {
		return "", nil, errors.New("query: SQL aggregate needs a source builder (use Builder.Aggregate)")
	}
	if b.from.err != nil {
		return "", nil, b.from.err
	}
	if err := b.validate(); err != nil {
		return "", nil, err
	}

	c := newSQLCompiler(d)
	root := c.alias()

	var cols, keys []string
	for _, g := range b.groups {
		if g.field == "" {
			return "", nil, fmt.Errorf("query: group key %q has no SQL form", g.raw)
		}
		expr := c.column(root, g.field)
		if g.bucket != "" {
			expr = g.bucket.sqlBucket(d, expr)
		}
		cols = append(cols, expr+" AS "+c.ident(g.name()))
		keys = append(keys, expr)
	}
	for _, r := range b.reducers {
		arg := "*"
		if !strings.EqualFold(r.Fn, "COUNT") {
			arg = c.column(root, r.Field)
		}
		cols = append(cols, fmt.Sprintf("%s(%s) AS %s", strings.ToUpper(r.Fn), arg, c.ident(r.Alias)))
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s AS %s", strings.Join(cols, ", "), c.ident(b.from.entity.Table), root)
	if b.where != nil {
		where, err := c.predicate(b.where, root)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		stmt += " WHERE " + where
	}
	if len(keys) > 0 {
		stmt += " GROUP BY " + strings.Join(keys, ", ") + " ORDER BY " + strings.Join(keys, ", ")
	}
	stmt += " LIMIT " + c.bind(b.limit) + " OFFSET " + c.bind(b.offset)
	return stmt, c.args, nil
}

func (b *AggregateBuilder) Run(ctx context.Context) ([]scan.Row, error) {
	if b.executor == nil {
		return nil, errors.New("query: executor not set (call Using())")
	}
	args, err := b.RawArgs()
	if err != nil {
		return nil, err
	}

	raw, err := b.executor.Do(ctx, args...)
	if err != nil {
		return nil, err
	}
	return scan.DecodeAggregate(raw)
}

func (b *AggregateBuilder) validate() error {
	if len(b.groups) == 0 && len(b.reducers) == 0 {
		return errors.New("query: aggregate needs a group key or a reducer")
	}
	for _, r := range b.reducers {
		if err := r.validate(); err != nil {
			return err
		}
	}
	return nil
}

// whereClause types attributes against from's entity when there is one.
func whereClause(e Expr, from *Builder) string {
	if e == nil {
		return "*"
	}
	if _, ok := e.(matchAll); ok {
		return "*"
	}
	if from == nil {
		return "(" + Compile(e) + ")"
	}
	return "(" + CompileFor(e, from.entity, from.resolver) + ")"
}
