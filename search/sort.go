package search

import (
	"github.com/manojoshi/paramsearch/internal"
	"github.com/manojoshi/paramsearch/query"
)

// ApplySort turns sortBy (ascending) or, failing that, sortByDesc
// (descending) into OrderBy calls in list order. Names outside knownFields
// are skipped.
func ApplySort(b Builder, params Params, knownFields []string) {
	keys, dir := params.Strings(KeySortBy), query.Asc
	if !params.Has(KeySortBy) {
		keys, dir = params.Strings(KeySortByDesc), query.Desc
	}
	known := internal.Set(knownFields)
	for _, f := range keys {
		if _, ok := known[f]; ok {
			b.OrderBy(f, dir)
		}
	}
}
