package search

import (
	"github.com/manojoshi/paramsearch/internal"
)

// Classification partitions the fields a search will probe.
type Classification struct {
	Exact    []string
	Fuzzy    []string
	FreeText bool
}

// Fields returns Fuzzy followed by Exact.
func (c Classification) Fields() []string {
	return append(append([]string(nil), c.Fuzzy...), c.Exact...)
}

// Classify splits tableFields into exact and fuzzy groups.
//
// In free-text mode ("q" present and non-empty, freeText true) every table
// field is probed: the fuzzy group is tableFields ∩ fuzzyFields and the rest
// are exact. Otherwise only fields named by a parameter key take part.
// Reserved keys never name fields; output order follows tableFields.
func Classify(params Params, tableFields, fuzzyFields []string, freeText bool) Classification {
	table := internal.Filter(tableFields, func(f string) bool { return !isReserved(f) })
	c := Classification{FreeText: freeText && !isEmpty(params[KeyFreeText])}

	if c.FreeText {
		c.Fuzzy = internal.Intersect(table, fuzzyFields)
		c.Exact = internal.Difference(internal.Unique(table), c.Fuzzy)
		return c
	}

	present := internal.Intersect(table, internal.SortedKeys(params))
	c.Fuzzy = internal.Intersect(present, fuzzyFields)
	c.Exact = internal.Difference(present, c.Fuzzy)
	return c
}
