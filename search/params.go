package search

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/manojoshi/paramsearch/internal"
)

// Reserved parameter keys. They never name fields.
const (
	KeyFreeText   = "q"
	KeySortBy     = "sortBy"
	KeySortByDesc = "sortByDesc"
)

func isReserved(key string) bool {
	return key == KeyFreeText || key == KeySortBy || key == KeySortByDesc
}

// Params is a flat parameter mapping: key → scalar or []any of scalars.
// Build it with NewParams, FromValues, FromRequest or FromJSON; every
// pipeline stage returns a fresh copy and never mutates its input.
type Params map[string]any

// NewParams validates and copies m. Scalars are strings, bools, numbers and
// json.Number; lists may be any slice or array of scalars and are
// normalized to []any.
func NewParams(m map[string]any) (Params, error) {
	out := make(Params, len(m))
	for k, v := range m {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, newError(ErrInvalidInput, "", "key %q: %v", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

// FromValues converts URL values. A repeated key, or one written with the
// "key[]" suffix, becomes a list; a single value stays a scalar.
func FromValues(v url.Values) Params {
	out := make(Params, len(v))
	for _, k := range internal.SortedKeys(v) {
		vals := v[k]
		name, forced := strings.CutSuffix(k, "[]")
		if prev, ok := out[name].([]any); ok {
			out[name] = append(prev, toAny(vals)...)
			continue
		}
		if prev, ok := out[name]; ok {
			out[name] = append([]any{prev}, toAny(vals)...)
			continue
		}
		if len(vals) == 1 && !forced {
			out[name] = vals[0]
			continue
		}
		out[name] = toAny(vals)
	}
	return out
}

// FromRequest reads the URL query and, for form posts, the parsed form.
func FromRequest(r *http.Request) (Params, error) {
	if err := r.ParseForm(); err != nil {
		return nil, newError(ErrInvalidInput, "", "parse form: %v", err)
	}
	return FromValues(r.Form), nil
}

// FromJSON decodes a JSON object body. Numbers stay json.Number so large
// identifiers keep their precision.
func FromJSON(r io.Reader) (Params, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, newError(ErrInvalidInput, "", "decode body: %v", err)
	}
	return NewParams(m)
}

// Clone returns a shallow copy; list values are copied too.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if l, ok := v.([]any); ok {
			v = append([]any(nil), l...)
		}
		out[k] = v
	}
	return out
}

// Keys returns the keys in ascending order.
func (p Params) Keys() []string { return internal.SortedKeys(p) }

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Strings returns the value of key as a list of strings (a scalar becomes a
// one-element list).
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case nil:
		return nil
	case []any:
		return internal.Map(v, func(x any) string { return fmt.Sprint(x) })
	default:
		return []string{fmt.Sprint(v)}
	}
}

func toAny(vals []string) []any {
	return internal.Map(vals, func(s string) any { return s })
}

func normalizeValue(v any) (any, error) {
	if isScalar(v) {
		return v, nil
	}
	if l, ok := v.([]any); ok {
		out := make([]any, len(l))
		for i, x := range l {
			if !isScalar(x) {
				return nil, fmt.Errorf("list element %d has type %T", i, x)
			}
			out[i] = x
		}
		return out, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			x := rv.Index(i).Interface()
			if !isScalar(x) {
				return nil, fmt.Errorf("list element %d has type %T", i, x)
			}
			out[i] = x
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// isEmpty reports the "not provided" values: nil, "", and lists with no
// non-empty element.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		for _, x := range t {
			if !isEmpty(x) {
				return false
			}
		}
		return true
	}
	return false
}

// compact drops empty elements from a list value.
func compact(v any) any {
	l, ok := v.([]any)
	if !ok {
		return v
	}
	return internal.Filter(l, func(x any) bool { return !isEmpty(x) })
}
