package query

import (
	"fmt"

	"github.com/manojoshi/paramsearch/schema"
)

// -------------------------------------------------------------------
// Clauses – the condition surface the search pipeline drives.
// *Builder is the recording implementation; anything that can follow the
// same precedence rules (an ORM adapter, a test spy) can stand in.
// -------------------------------------------------------------------

type Clauses interface {
	WhereEqual(field string, v any)
	OrWhereEqual(field string, v any)
	WhereIn(field string, vs []any)
	OrWhereIn(field string, vs []any)
	WhereLike(field, pattern string)
	OrWhereLike(field, pattern string)

	// Where / OrWhere open a parenthesized group joined with AND / OR.
	Where(fn func(Clauses))
	OrWhere(fn func(Clauses))

	// WhereHas joins an existence test over a relation with the given
	// Boolean; fn receives clauses scoped to the related entity.
	WhereHas(relation string, boolean Boolean, fn func(Clauses))

	// WhereExpr appends a prebuilt expression with AND.
	WhereExpr(x Expr)

	OrderBy(field string, dir Dir)
}

// Boolean is the connector that joins a clause to the ones before it.
type Boolean int

const (
	BooleanAnd Boolean = iota
	BooleanOr
)

func (b Boolean) String() string {
	if b == BooleanOr {
		return "OR"
	}
	return "AND"
}

// ParseBoolean accepts "and" (also the empty string) or "or".
func ParseBoolean(s string) (Boolean, error) {
	switch s {
	case "", "and", "AND":
		return BooleanAnd, nil
	case "or", "OR":
		return BooleanOr, nil
	}
	return BooleanAnd, fmt.Errorf("query: unknown boolean %q", s)
}

type Dir string

const (
	Asc  Dir = "ASC"
	Desc Dir = "DESC"
)

// Sort is one ORDER BY term in application order.
type Sort struct {
	Field string
	Dir   Dir
}

// Resolver finds the related entity behind a relation name.
// *schema.Registry implements it.
type Resolver interface {
	Resolve(entity, relation string) (schema.Relation, *schema.Entity, bool)
}

// -------------------------------------------------------------------
// Builder – records clauses and folds them into an Expr.
//
// Clauses combine with SQL precedence: AND binds tighter than OR, so
//
//	WhereEqual(a) OrWhereEqual(b) WhereEqual(c)  ➜  a OR (b AND c)
//
// Groups that end up empty are dropped and never constrain the result.
// A Builder is not safe for concurrent use.
// -------------------------------------------------------------------

type Builder struct {
	entity   *schema.Entity
	resolver Resolver

	clauses       []clause
	sorts         []Sort
	columns       []string
	offset, limit int
	err           error
}

type clause struct {
	boolean Boolean
	x       Expr
}

var _ Clauses = (*Builder)(nil)

// NewBuilder starts an empty builder over entity. resolver may be nil when
// no WhereHas calls are expected.
func NewBuilder(entity *schema.Entity, resolver Resolver) *Builder {
	return &Builder{entity: entity, resolver: resolver, limit: -1}
}

func (b *Builder) Entity() *schema.Entity { return b.entity }

func (b *Builder) WhereEqual(f string, v any)   { b.add(BooleanAnd, Eq(f, v)) }
func (b *Builder) OrWhereEqual(f string, v any) { b.add(BooleanOr, Eq(f, v)) }
func (b *Builder) WhereIn(f string, vs []any)   { b.add(BooleanAnd, In(f, vs...)) }
func (b *Builder) OrWhereIn(f string, vs []any) { b.add(BooleanOr, In(f, vs...)) }
func (b *Builder) WhereLike(f, p string)        { b.add(BooleanAnd, Like(f, p)) }
func (b *Builder) OrWhereLike(f, p string)      { b.add(BooleanOr, Like(f, p)) }

// WhereBetween adds an inclusive range; a nil bound leaves that side open.
func (b *Builder) WhereBetween(f string, lo, hi any) { b.add(BooleanAnd, Range(f, lo, hi, true)) }

// WhereExpr appends a prebuilt expression with AND.
func (b *Builder) WhereExpr(x Expr) { b.add(BooleanAnd, x) }

func (b *Builder) Where(fn func(Clauses))   { b.nest(BooleanAnd, fn) }
func (b *Builder) OrWhere(fn func(Clauses)) { b.nest(BooleanOr, fn) }

func (b *Builder) WhereHas(relation string, boolean Boolean, fn func(Clauses)) {
	if b.resolver == nil || b.entity == nil {
		b.fail(fmt.Errorf("query: WhereHas(%q) needs a resolver and an entity", relation))
		return
	}
	rel, target, ok := b.resolver.Resolve(b.entity.Name, relation)
	if !ok {
		b.fail(fmt.Errorf("query: %q has no relation %q", b.entity.Name, relation))
		return
	}
	child := NewBuilder(target, b.resolver)
	if fn != nil {
		fn(child)
	}
	if child.err != nil {
		b.fail(child.err)
		return
	}
	b.add(boolean, Has(rel, target.Table, child.Expr()))
}

// OrderBy records a sort term. Sorts recorded inside nested groups are
// discarded with the group.
func (b *Builder) OrderBy(f string, dir Dir) {
	b.sorts = append(b.sorts, Sort{Field: f, Dir: dir})
}

// Select narrows the returned columns (default: all).
func (b *Builder) Select(cols ...string) *Builder {
	b.columns = append([]string{}, cols...)
	return b
}

// Limit sets paging; a negative lim means unbounded.
func (b *Builder) Limit(off, lim int) *Builder {
	b.offset, b.limit = off, lim
	return b
}

// Expr folds the recorded clauses. nil means no constraint.
func (b *Builder) Expr() Expr {
	if len(b.clauses) == 0 {
		return nil
	}
	var groups [][]Expr
	for i, c := range b.clauses {
		if i == 0 || c.boolean == BooleanOr {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], c.x)
	}
	ors := make([]Expr, 0, len(groups))
	for _, g := range groups {
		ors = append(ors, allOf(g))
	}
	return anyOf(ors)
}

func (b *Builder) Sorts() []Sort      { return append([]Sort(nil), b.sorts...) }
func (b *Builder) Columns() []string  { return append([]string(nil), b.columns...) }
func (b *Builder) Paging() (int, int) { return b.offset, b.limit }
func (b *Builder) Err() error         { return b.err }

// String renders the folded predicate and sorts for logs and explain output.
func (b *Builder) String() string {
	s := Format(b.Expr())
	for i, o := range b.sorts {
		if i == 0 {
			s += " ORDER BY "
		} else {
			s += ", "
		}
		s += o.Field + " " + string(o.Dir)
	}
	return s
}

func (b *Builder) add(boolean Boolean, x Expr) {
	b.clauses = append(b.clauses, clause{boolean, x})
}

func (b *Builder) nest(boolean Boolean, fn func(Clauses)) {
	child := NewBuilder(b.entity, b.resolver)
	fn(child)
	if child.err != nil {
		b.fail(child.err)
		return
	}
	if x := child.Expr(); x != nil {
		b.add(boolean, x)
	}
}

// fail keeps the first error.
func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
