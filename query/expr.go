// Package query provides the predicate AST the search pipeline produces, a
// recording Builder that assembles it, and compilers that turn it into a
// RediSearch query string or a parameterized SQL statement.
//
//	import q "github.com/manojoshi/paramsearch/query"
//
//	filter := q.And(
//	    q.Eq("status", "PENDING"),
//	    q.In("warehouse_id", 12, 15, 18),
//	    q.Like("title", q.Pattern("cat", q.PatternSubstring)),
//	    q.Not(q.Eq("is_deleted", 1)),
//	)
package query

import (
	"strings"

	"github.com/manojoshi/paramsearch/schema"
)

// -------------------------------------------------------------------
// Expr – the root interface. Every node knows how to write itself as a
// RediSearch clause; the SQL compiler and the formatter switch on the
// concrete types instead, so nodes stay dumb data containers.
// -------------------------------------------------------------------

type Expr interface {
	compile(*redisCompiler)
}

// ------------
// Leaf nodes
// ------------

// Eq("status", "open")  ➜  status = ?
func Eq(field string, v any) Expr { return &eq{field, v} }

// In("tags", "a", "b") ➜ tags IN (?, ?)
func In(field string, vs ...any) Expr { return &in{field, vs} }

// Like("title", "%c%a%t%") ➜ title LIKE ?   (pattern built with Pattern)
func Like(field, pattern string) Expr { return &like{field, pattern} }

// Range("price", 10, 100, true) ➜ price >= ? AND price <= ?
// A nil bound leaves that side open.
func Range(field string, min, max any, inclusive bool) Expr {
	return &rng{field, min, max, inclusive}
}

// Has restricts to rows with at least one related row matching x
// (x == nil: at least one related row).
func Has(rel schema.Relation, table string, x Expr) Expr {
	return &has{rel, table, x}
}

// ------------
// Combinators
// ------------

func And(xs ...Expr) Expr { return &and{xs} }
func Or(xs ...Expr) Expr  { return &or{xs} }
func Not(x Expr) Expr     { return &not{x} }

// -------------------------------------------------------------------
// internal node types
// -------------------------------------------------------------------

type (
	eq struct {
		f string
		v any
	}
	in struct {
		f  string
		vs []any
	}
	like struct {
		f       string
		pattern string
	}
	rng struct {
		f      string
		lo, hi any
		inc    bool
	}
	has struct {
		rel   schema.Relation
		table string
		x     Expr
	}
	and struct{ xs []Expr }
	or  struct{ xs []Expr }
	not struct{ x Expr }
)

func field(f string) string {
	if strings.HasPrefix(f, "@") {
		return f
	}
	return "@" + f
}

func MatchAll() Expr { return matchAll{} }

type matchAll struct{}

func (matchAll) compile(c *redisCompiler) { c.sb.WriteByte('*') }

// allOf / anyOf collapse single-element groups so trees stay shallow.
func allOf(xs []Expr) Expr {
	if len(xs) == 1 {
		return xs[0]
	}
	return And(xs...)
}

func anyOf(xs []Expr) Expr {
	if len(xs) == 1 {
		return xs[0]
	}
	return Or(xs...)
}
