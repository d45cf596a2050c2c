package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects identifier quoting, placeholder style and the few
// functions that differ between SQL engines.
type Dialect int

const (
	SQLite Dialect = iota
	MySQL
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case Postgres:
		return "postgres"
	default:
		return "sqlite3"
	}
}

// ParseDialect maps a database/sql driver name to its Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return SQLite, fmt.Errorf("query: unsupported SQL dialect %q", driver)
}

// SQL compiles the builder into a parameterized SELECT for d.
// Returns (sql, params, error).
//
// Every statement ends with an ORDER BY on the primary key so paging is
// deterministic; recorded sorts come first.
func (b *Builder) SQL(d Dialect) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if b.entity == nil {
		return "", nil, fmt.Errorf("query: builder has no entity")
	}
	c := newSQLCompiler(d)
	root := c.alias()

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(b.columns) == 0 {
		sb.WriteString(root + ".*")
	} else {
		for i, col := range b.columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(c.column(root, col))
		}
	}
	fmt.Fprintf(&sb, " FROM %s AS %s", c.ident(b.entity.Table), root)

	if x := b.Expr(); x != nil {
		where, err := c.predicate(x, root)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" WHERE " + where)
	}

	order := make([]string, 0, len(b.sorts)+1)
	pkSorted := false
	for _, s := range b.sorts {
		order = append(order, c.column(root, s.Field)+" "+string(s.Dir))
		pkSorted = pkSorted || s.Field == b.entity.PrimaryKey
	}
	if !pkSorted && b.entity.PrimaryKey != "" {
		order = append(order, c.column(root, b.entity.PrimaryKey)+" ASC")
	}
	if len(order) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}

	if b.limit >= 0 {
		sb.WriteString(" LIMIT " + c.bind(b.limit) + " OFFSET " + c.bind(b.offset))
	}
	return sb.String(), c.args, nil
}

// CountSQL compiles SELECT COUNT(*) over the same predicate, ignoring
// sorts and paging.
func (b *Builder) CountSQL(d Dialect) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if b.entity == nil {
		return "", nil, fmt.Errorf("query: builder has no entity")
	}
	c := newSQLCompiler(d)
	root := c.alias()
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s AS %s", c.ident(b.entity.Table), root)
	if x := b.Expr(); x != nil {
		where, err := c.predicate(x, root)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		stmt += " WHERE " + where
	}
	return stmt, c.args, nil
}

// -------------------------------------------------------------------
// sqlCompiler – one per statement; owns the argument list and the
// table alias counter used by nested EXISTS subqueries.
// -------------------------------------------------------------------

type sqlCompiler struct {
	dialect Dialect
	args    []any
	aliases int
}

func newSQLCompiler(d Dialect) *sqlCompiler { return &sqlCompiler{dialect: d} }

func (c *sqlCompiler) alias() string {
	a := "t" + strconv.Itoa(c.aliases)
	c.aliases++
	return a
}

// bind appends v and returns its placeholder.
func (c *sqlCompiler) bind(v any) string {
	c.args = append(c.args, v)
	if c.dialect == Postgres {
		return "$" + strconv.Itoa(len(c.args))
	}
	return "?"
}

func (c *sqlCompiler) ident(name string) string {
	q := `"`
	if c.dialect == MySQL {
		q = "`"
	}
	return q + strings.ReplaceAll(name, q, q+q) + q
}

func (c *sqlCompiler) column(alias, name string) string {
	return alias + "." + c.ident(name)
}

// compilePredicate-style walk: values are never interpolated.
func (c *sqlCompiler) predicate(e Expr, alias string) (string, error) {
	switch n := e.(type) {
	case nil, matchAll:
		return "1 = 1", nil
	case *eq:
		if n.v == nil {
			return c.column(alias, n.f) + " IS NULL", nil
		}
		return c.column(alias, n.f) + " = " + c.bind(n.v), nil
	case *in:
		if len(n.vs) == 0 {
			return "1 = 0", nil
		}
		ps := make([]string, len(n.vs))
		for i, v := range n.vs {
			ps[i] = c.bind(v)
		}
		return fmt.Sprintf("%s IN (%s)", c.column(alias, n.f), strings.Join(ps, ", ")), nil
	case *like:
		return c.like(c.column(alias, n.f), n.pattern), nil
	case *rng:
		return c.rng(c.column(alias, n.f), n), nil
	case *has:
		return c.exists(n, alias)
	case *and:
		return c.group(n.xs, " AND ", "1 = 1", alias)
	case *or:
		return c.group(n.xs, " OR ", "1 = 0", alias)
	case *not:
		inner, err := c.predicate(n.x, alias)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", e)
	}
}

func (c *sqlCompiler) like(col, pattern string) string {
	switch c.dialect {
	case MySQL:
		return col + " LIKE " + c.bind(pattern) + ` ESCAPE '\\'`
	case Postgres:
		// LIKE is case-sensitive in Postgres; the other engines fold case.
		return col + " ILIKE " + c.bind(pattern) + ` ESCAPE '\'`
	default:
		return col + " LIKE " + c.bind(pattern) + ` ESCAPE '\'`
	}
}

func (c *sqlCompiler) rng(col string, n *rng) string {
	lo, hi := ">", "<"
	if n.inc {
		lo, hi = ">=", "<="
	}
	switch {
	case n.lo != nil && n.hi != nil:
		return fmt.Sprintf("(%s %s %s AND %s %s %s)", col, lo, c.bind(n.lo), col, hi, c.bind(n.hi))
	case n.lo != nil:
		return fmt.Sprintf("%s %s %s", col, lo, c.bind(n.lo))
	case n.hi != nil:
		return fmt.Sprintf("%s %s %s", col, hi, c.bind(n.hi))
	default:
		return "1 = 1"
	}
}

// exists renders a correlated subquery:
//
//	EXISTS (SELECT 1 FROM "authors" AS t1 WHERE t1."id" = t0."author_id" AND (...))
func (c *sqlCompiler) exists(n *has, parent string) (string, error) {
	child := c.alias()
	join := fmt.Sprintf("%s = %s", c.column(child, n.rel.RemoteKey), c.column(parent, n.rel.LocalKey))
	stmt := fmt.Sprintf("EXISTS (SELECT 1 FROM %s AS %s WHERE %s", c.ident(n.table), child, join)
	if n.x != nil {
		inner, err := c.predicate(n.x, child)
		if err != nil {
			return "", err
		}
		stmt += " AND (" + inner + ")"
	}
	return stmt + ")", nil
}

func (c *sqlCompiler) group(xs []Expr, sep, empty, alias string) (string, error) {
	if len(xs) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(xs))
	for _, x := range xs {
		p, err := c.predicate(x, alias)
		if err != nil {
			return "", err
		}
		parts = append(parts, p)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}
