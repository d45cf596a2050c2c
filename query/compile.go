package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/manojoshi/paramsearch/internal"
	"github.com/manojoshi/paramsearch/schema"
)

// Compile turns an Expr tree into a RediSearch query string (DIALECT 2).
// Exported so callers can preview the query for logging or explain output.
//
// Related-entity predicates under a Has node address the denormalized
// "<relation>_<field>" attributes that index.FromEntity declares.
//
// Without an entity every attribute is treated as TAG; use CompileFor to
// pick the clause syntax from the declared field types.
func Compile(e Expr) string {
	return CompileFor(e, nil, nil)
}

// CompileFor is Compile with field types looked up on entity. Predicates
// under a Has node are typed against the relation target found through r.
func CompileFor(e Expr, entity *schema.Entity, r Resolver) string {
	if e == nil {
		return "*"
	}
	return internal.BuildString(func(sb *strings.Builder) {
		e.compile(&redisCompiler{sb: sb, entity: entity, resolver: r})
	})
}

type redisCompiler struct {
	sb       *strings.Builder
	prefix   string
	entity   *schema.Entity
	resolver Resolver
}

func (c *redisCompiler) field(f string) string {
	return field(c.prefix + strings.TrimPrefix(f, "@"))
}

// kind reports the declared type of f, TAG when it is unknown.
func (c *redisCompiler) kind(f string) schema.FieldType {
	if c.entity == nil {
		return schema.Tag
	}
	if fd, ok := c.entity.Field(strings.TrimPrefix(f, "@")); ok {
		return fd.Type
	}
	return schema.Tag
}

// nothing writes a clause no document satisfies.
func (c *redisCompiler) nothing(f string) {
	fmt.Fprintf(c.sb, "(%[1]s:[-inf +inf] -%[1]s:[-inf +inf])", c.field(f))
}

// -------------------------------------------------------------------
// node writers
// -------------------------------------------------------------------

func (n *eq) compile(c *redisCompiler) {
	switch c.kind(n.f) {
	case schema.Numeric:
		v, ok := number(n.v)
		if !ok {
			c.nothing(n.f)
			return
		}
		fmt.Fprintf(c.sb, "%s:[%s %s]", c.field(n.f), v, v)
	case schema.Text:
		fmt.Fprintf(c.sb, "%s:%s", c.field(n.f), phrase(toStr(n.v)))
	default:
		fmt.Fprintf(c.sb, "%s:{%s}", c.field(n.f), escapeTag(toStr(n.v)))
	}
}

func (n *in) compile(c *redisCompiler) {
	if len(n.vs) == 0 {
		// an empty set matches nothing
		fmt.Fprintf(c.sb, "-%s:{*}", c.field(n.f))
		return
	}
	switch c.kind(n.f) {
	case schema.Numeric:
		var nums []string
		for _, v := range n.vs {
			if s, ok := number(v); ok {
				nums = append(nums, s)
			}
		}
		if len(nums) == 0 {
			c.nothing(n.f)
			return
		}
		c.sb.WriteByte('(')
		for i, s := range nums {
			if i > 0 {
				c.sb.WriteByte('|')
			}
			fmt.Fprintf(c.sb, "%s:[%s %s]", c.field(n.f), s, s)
		}
		c.sb.WriteByte(')')
	case schema.Text:
		c.sb.WriteString(c.field(n.f) + ":(")
		for i, v := range n.vs {
			if i > 0 {
				c.sb.WriteByte('|')
			}
			c.sb.WriteString(phrase(toStr(v)))
		}
		c.sb.WriteByte(')')
	default:
		c.sb.WriteString(c.field(n.f) + ":{")
		for i, v := range n.vs {
			if i > 0 {
				c.sb.WriteByte('|')
			}
			c.sb.WriteString(escapeTag(toStr(v)))
		}
		c.sb.WriteByte('}')
	}
}

func (n *like) compile(c *redisCompiler) {
	switch c.kind(n.f) {
	case schema.Numeric:
		c.nothing(n.f)
	case schema.Text:
		fmt.Fprintf(c.sb, "%s:(w'%s')", c.field(n.f), wildcard(n.pattern))
	default:
		fmt.Fprintf(c.sb, "%s:{w'%s'}", c.field(n.f), wildcard(n.pattern))
	}
}

func (n *rng) compile(c *redisCompiler) {
	lo, hi := "-inf", "+inf"
	if n.lo != nil {
		lo = toStr(n.lo)
		if !n.inc {
			lo = "(" + lo
		}
	}
	if n.hi != nil {
		hi = toStr(n.hi)
		if !n.inc {
			hi = "(" + hi
		}
	}
	fmt.Fprintf(c.sb, "%s:[%s %s]", c.field(n.f), lo, hi)
}

func (n *has) compile(c *redisCompiler) {
	inner := &redisCompiler{sb: c.sb, prefix: c.prefix + n.rel.Name + "_", resolver: c.resolver}
	if c.entity != nil && c.resolver != nil {
		if _, target, ok := c.resolver.Resolve(c.entity.Name, n.rel.Name); ok {
			inner.entity = target
		}
	}
	if n.x == nil {
		// existence: the denormalized join key is present (INDEXMISSING)
		fmt.Fprintf(c.sb, "-ismissing(%s)", inner.field(n.rel.RemoteKey))
		return
	}
	c.sb.WriteByte('(')
	n.x.compile(inner)
	c.sb.WriteByte(')')
}

func (n *and) compile(c *redisCompiler) { group(c, n.xs, " ") }
func (n *or) compile(c *redisCompiler)  { group(c, n.xs, "|") }

func (n *not) compile(c *redisCompiler) {
	c.sb.WriteString("-(")
	n.x.compile(c)
	c.sb.WriteByte(')')
}

// group helper for (a b) / (a|b)
func group(c *redisCompiler, xs []Expr, sep string) {
	if len(xs) == 0 {
		c.sb.WriteByte('*')
		return
	}
	c.sb.WriteByte('(')
	for i, x := range xs {
		if i > 0 {
			c.sb.WriteString(sep)
		}
		x.compile(c)
	}
	c.sb.WriteByte(')')
}

// -------------------------------------------------------------------
// escaping
// -------------------------------------------------------------------

// escapeTag backslash-escapes the punctuation RediSearch treats as syntax
// inside a {tag} clause.
func escapeTag(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(",.<>{}[]\"':;!@#$%^&*()-+=~|/\\ ", r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// phrase quotes s as an exact TEXT phrase.
func phrase(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String()
}

// wildcard rewrites a LIKE pattern for w'...': % ➜ *, _ ➜ ?, and
// backslash-escaped characters become literals.
func wildcard(pattern string) string {
	var sb strings.Builder
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			if r == '\'' || r == '\\' || r == '*' || r == '?' {
				sb.WriteByte('\\')
			}
			sb.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			sb.WriteByte('*')
		case r == '_':
			sb.WriteByte('?')
		case r == '\'' || r == '*' || r == '?':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// -------------------------------------------------------------------
// Small utility: convert scalar values to their query text without
// reflection. Times are unix seconds, matching NUMERIC date attributes.
// -------------------------------------------------------------------

func toStr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return strconv.FormatInt(t.Unix(), 10)
	default:
		return fmt.Sprint(t)
	}
}

// number renders v as a NUMERIC bound; ok is false when v is not numeric.
func number(v any) (string, bool) {
	switch t := v.(type) {
	case int, int64, float64, time.Time:
		return toStr(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}
