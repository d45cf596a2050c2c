package repository

import (
	q "github.com/manojoshi/paramsearch/query"
	"github.com/manojoshi/paramsearch/search"
)

// Opt is applied to whichever call is in play. If the helper doesn’t make
// sense for that call the method is left nil and becomes a no-op.
type Opt interface {
	applyFind(*findCall)
	applyAgg(*q.AggregateBuilder)
}

// findCall collects what Find and Aggregate need before and after the
// search pipeline runs.
type findCall struct {
	relations bool
	search    []search.Option
	builder   []func(*q.Builder)
}

// optFunc is a concrete Opt implementation that holds functions for
// either call.
type optFunc struct {
	find func(*findCall)
	agg  func(*q.AggregateBuilder)
}

func (o optFunc) applyFind(c *findCall) {
	if o.find != nil {
		o.find(c)
	}
}

func (o optFunc) applyAgg(b *q.AggregateBuilder) {
	if o.agg != nil {
		o.agg(b)
	}
}

func onBuilder(fn func(*q.Builder)) func(*findCall) {
	return func(c *findCall) { c.builder = append(c.builder, fn) }
}

// ---------- search pipeline ----------

// SearchOptions passes per-call options (WithPrefix, WithCombine, ...) to
// the Searcher.
func SearchOptions(opts ...search.Option) Opt {
	return optFunc{
		find: func(c *findCall) { c.search = append(c.search, opts...) },
	}
}

// WithoutRelations skips the relation cascade.
func WithoutRelations() Opt {
	return optFunc{
		find: func(c *findCall) { c.relations = false },
	}
}

// ---------- COMMON helpers ----------

// Select restricts the returned columns / document fields.
func Select(fields ...string) Opt {
	return optFunc{
		find: onBuilder(func(b *q.Builder) { b.Select(fields...) }),
	}
}

// Limit pages the result rows or groups.
func Limit(offset, limit int) Opt {
	return optFunc{
		find: onBuilder(func(b *q.Builder) { b.Limit(offset, limit) }),
		agg:  func(b *q.AggregateBuilder) { b.Limit(offset, limit) },
	}
}

// SortAsc / SortDesc add an ordering after any sortBy / sortByDesc from
// the params.
func SortAsc(field string) Opt  { return sortOpt(field, q.Asc) }
func SortDesc(field string) Opt { return sortOpt(field, q.Desc) }

func sortOpt(f string, dir q.Dir) Opt {
	return optFunc{
		find: onBuilder(func(b *q.Builder) { b.OrderBy(f, dir) }),
	}
}

// Where ANDs an extra predicate onto the translated query.
func Where(x q.Expr) Opt {
	return optFunc{
		find: onBuilder(func(b *q.Builder) { b.WhereExpr(x) }),
	}
}

// Between ANDs an inclusive range on field.
func Between(field string, lo, hi any) Opt {
	return optFunc{
		find: onBuilder(func(b *q.Builder) { b.WhereBetween(field, lo, hi) }),
	}
}

// AGGREGATE-only helpers

func Group(keys ...q.GroupKey) Opt {
	return optFunc{
		agg: func(b *q.AggregateBuilder) { b.GroupBy(keys...) },
	}
}

func Count(alias string) Opt {
	return optFunc{
		agg: func(b *q.AggregateBuilder) { b.With(q.Count(alias)) },
	}
}

func Sum(field, alias string) Opt {
	return optFunc{
		agg: func(b *q.AggregateBuilder) { b.With(q.Sum(field, alias)) },
	}
}

func Avg(field, alias string) Opt {
	return optFunc{
		agg: func(b *q.AggregateBuilder) { b.With(q.Avg(field, alias)) },
	}
}

func Min(field, alias string) Opt {
	return optFunc{
		agg: func(b *q.AggregateBuilder) { b.With(q.Min(field, alias)) },
	}
}

func Max(field, alias string) Opt {
	return optFunc{
		agg: func(b *q.AggregateBuilder) { b.With(q.Max(field, alias)) },
	}
}
