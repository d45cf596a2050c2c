package search

import (
	"strings"

	"github.com/manojoshi/paramsearch/internal"
)

// Extract normalizes params for one entity:
//
//   - excluded keys are removed (before and after prefix stripping);
//   - with a prefix, only "<prefix>_<suffix>" keys survive, renamed to
//     <suffix>, unless free-text is allowed and "q" is present, in which
//     case keys pass through unchanged;
//   - "q" survives only when freeText is true;
//   - empty values (nil, "", lists without a non-empty element) are dropped
//     and empty elements are removed from lists.
//
// The input is never modified.
func Extract(params Params, excluded []string, prefix string, freeText bool) Params {
	skip := internal.Set(excluded)
	shortCircuit := freeText && !isEmpty(params[KeyFreeText])

	out := make(Params, len(params))
	for k, v := range params {
		if _, ok := skip[k]; ok {
			continue
		}
		if prefix != "" && !shortCircuit {
			suffix, ok := strings.CutPrefix(k, prefix+"_")
			if !ok || suffix == "" {
				continue
			}
			if _, ok := skip[suffix]; ok {
				continue
			}
			k = suffix
		}
		if k == KeyFreeText && !freeText {
			continue
		}
		v = compact(v)
		if isEmpty(v) {
			continue
		}
		out[k] = v
	}
	return out
}
