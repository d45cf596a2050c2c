package query

import (
	"fmt"
	"strings"
)

// GroupKey is one GROUP BY term: a plain field, a time bucket over a field,
// or (RediSearch only) a raw expression.
type GroupKey struct {
	raw    string
	field  string
	bucket Unit
	alias  string
}

func By(field string) GroupKey {
	field = strings.TrimPrefix(field, "@")
	return GroupKey{raw: "@" + field, field: field}
}

// ByExpr groups on a raw RediSearch expression; SQL compilation rejects it.
func ByExpr(expr string) GroupKey { return GroupKey{raw: expr} }

// Bucket groups a date field by calendar unit. The default alias is
// "<field>_<unit>".
func Bucket(field string, unit Unit) GroupKey {
	field = strings.TrimPrefix(field, "@")
	return GroupKey{field: field, bucket: unit, alias: field + "_" + string(unit)}
}

func (g GroupKey) As(alias string) GroupKey { g.alias = alias; return g }

// name is the output column of the key.
func (g GroupKey) name() string {
	if g.alias != "" {
		return g.alias
	}
	return g.field
}

// Unit is a calendar bucket width.
type Unit string

const (
	Hour  Unit = "hour"
	Day   Unit = "day"
	Month Unit = "month"
	Year  Unit = "year"
)

// ParseUnit accepts hour, day, month or year.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToLower(s)); u {
	case Hour, Day, Month, Year:
		return u, nil
	}
	return "", fmt.Errorf("query: unknown bucket unit %q", s)
}

// redisApply is the FT.AGGREGATE APPLY expression rounding a unix
// timestamp down to the bucket start.
func (u Unit) redisApply(field string) string {
	return fmt.Sprintf("%s(@%s)", u, field)
}

// sqlBucket renders the bucket label as text for each dialect.
func (u Unit) sqlBucket(d Dialect, col string) string {
	layouts := map[Unit][3]string{ // strftime, DATE_FORMAT, to_char
		Hour:  {"%Y-%m-%d %H:00", "%Y-%m-%d %H:00", "YYYY-MM-DD HH24:00"},
		Day:   {"%Y-%m-%d", "%Y-%m-%d", "YYYY-MM-DD"},
		Month: {"%Y-%m", "%Y-%m", "YYYY-MM"},
		Year:  {"%Y", "%Y", "YYYY"},
	}
	l := layouts[u]
	switch d {
	case MySQL:
		return fmt.Sprintf("DATE_FORMAT(%s, '%s')", col, l[1])
	case Postgres:
		return fmt.Sprintf("to_char(%s, '%s')", col, l[2])
	default:
		return fmt.Sprintf("strftime('%s', %s)", l[0], col)
	}
}

// -------------------------------------------------------------------
// Reducers
// -------------------------------------------------------------------

// Reducer is one aggregate output column. Fn is COUNT, SUM, AVG, MIN or
// MAX; Field is ignored for COUNT.
type Reducer struct {
	Fn    string
	Field string
	Alias string
}

func Count(alias string) Reducer      { return Reducer{Fn: "COUNT", Alias: alias} }
func Sum(field, alias string) Reducer { return Reducer{Fn: "SUM", Field: field, Alias: alias} }
func Avg(field, alias string) Reducer { return Reducer{Fn: "AVG", Field: field, Alias: alias} }
func Min(field, alias string) Reducer { return Reducer{Fn: "MIN", Field: field, Alias: alias} }
func Max(field, alias string) Reducer { return Reducer{Fn: "MAX", Field: field, Alias: alias} }

func (r Reducer) validate() error {
	switch strings.ToUpper(r.Fn) {
	case "COUNT":
	case "SUM", "AVG", "MIN", "MAX":
		if r.Field == "" {
			return fmt.Errorf("query: reducer %s needs a field", r.Fn)
		}
	default:
		return fmt.Errorf("query: unsupported reducer %q", r.Fn)
	}
	if r.Alias == "" {
		return fmt.Errorf("query: reducer %s needs an alias", r.Fn)
	}
	return nil
}
