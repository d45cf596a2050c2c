package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/manojoshi/paramsearch/internal"
)

// Format renders e as a readable, backend-neutral predicate:
//
//	(status = "open" AND (title LIKE "%c%a%t%" OR author HAS (name = "ann")))
//
// nil renders as "*".
func Format(e Expr) string {
	return internal.BuildString(func(sb *strings.Builder) { format(sb, e) })
}

func format(sb *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil, matchAll:
		sb.WriteByte('*')
	case *eq:
		fmt.Fprintf(sb, "%s = %s", n.f, literal(n.v))
	case *in:
		sb.WriteString(n.f + " IN (")
		for i, v := range n.vs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(literal(v))
		}
		sb.WriteByte(')')
	case *like:
		fmt.Fprintf(sb, "%s LIKE %q", n.f, n.pattern)
	case *rng:
		op := map[bool][2]string{true: {">=", "<="}, false: {">", "<"}}[n.inc]
		switch {
		case n.lo != nil && n.hi != nil:
			fmt.Fprintf(sb, "(%s %s %s AND %s %s %s)", n.f, op[0], literal(n.lo), n.f, op[1], literal(n.hi))
		case n.lo != nil:
			fmt.Fprintf(sb, "%s %s %s", n.f, op[0], literal(n.lo))
		case n.hi != nil:
			fmt.Fprintf(sb, "%s %s %s", n.f, op[1], literal(n.hi))
		default:
			sb.WriteByte('*')
		}
	case *has:
		sb.WriteString(n.rel.Name + " HAS ")
		if n.x == nil {
			sb.WriteString("ANY")
			return
		}
		sb.WriteByte('(')
		format(sb, n.x)
		sb.WriteByte(')')
	case *and:
		join(sb, n.xs, " AND ")
	case *or:
		join(sb, n.xs, " OR ")
	case *not:
		sb.WriteString("NOT ")
		format(sb, n.x)
	default:
		fmt.Fprintf(sb, "%v", n)
	}
}

func join(sb *strings.Builder, xs []Expr, sep string) {
	if len(xs) == 0 {
		sb.WriteByte('*')
		return
	}
	sb.WriteByte('(')
	for i, x := range xs {
		if i > 0 {
			sb.WriteString(sep)
		}
		format(sb, x)
	}
	sb.WriteByte(')')
}

func literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return fmt.Sprintf("%q", t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return toStr(t)
	}
}
