package search

import (
	"fmt"

	"github.com/manojoshi/paramsearch/query"
)

// Builder is the query-builder surface the pipeline drives.
// *query.Builder implements it.
type Builder = query.Clauses

// BuildPredicates emits one comparison per classified field into b.
//
// Free-text: each field compares against its own value when present, else
// the "q" value, and all fields are OR-joined. Otherwise fields are joined
// with combine (AND unless the caller forces OR). Within one field a list
// value always means "any of": IN for exact fields, an OR-group of LIKEs for
// fuzzy ones.
func BuildPredicates(b Builder, params Params, c Classification, combine query.Boolean, mode query.PatternMode) {
	if c.FreeText {
		combine = query.BooleanOr
	}
	value := func(f string) any {
		if v, ok := params[f]; ok || !c.FreeText {
			return v
		}
		return params[KeyFreeText]
	}

	for _, f := range c.Fuzzy {
		fuzzy(b, f, value(f), combine, mode)
	}
	for _, f := range c.Exact {
		exact(b, f, value(f), combine)
	}
}

func exact(b Builder, f string, v any, combine query.Boolean) {
	l, isList := v.([]any)
	switch {
	case isList && combine == query.BooleanOr:
		b.OrWhereIn(f, l)
	case isList:
		b.WhereIn(f, l)
	case combine == query.BooleanOr:
		b.OrWhereEqual(f, v)
	default:
		b.WhereEqual(f, v)
	}
}

func fuzzy(b Builder, f string, v any, combine query.Boolean, mode query.PatternMode) {
	l, isList := v.([]any)
	if !isList {
		p := query.Pattern(fmt.Sprint(v), mode)
		if combine == query.BooleanOr {
			b.OrWhereLike(f, p)
		} else {
			b.WhereLike(f, p)
		}
		return
	}

	anyOf := func(g Builder) {
		for _, x := range l {
			g.OrWhereLike(f, query.Pattern(fmt.Sprint(x), mode))
		}
	}
	if combine == query.BooleanOr {
		b.OrWhere(anyOf)
	} else {
		b.Where(anyOf)
	}
}
