package scan

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/manojoshi/paramsearch/schema"
)

// DecodeSlice binds rows onto []T. T is either map[string]string or a
// struct whose fields carry `search` tags; columns without a tagged field
// are ignored.
func DecodeSlice[T any](rows []Row) ([]T, error) {
	out := make([]T, len(rows))
	if maps, ok := any(out).([]map[string]string); ok {
		copy(maps, rows)
		return out, nil
	}

	rt := reflect.TypeOf(out).Elem()
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("scan: cannot decode into %s", rt)
	}
	bs := bindingsOf(rt)
	for i, r := range rows {
		v := reflect.ValueOf(&out[i]).Elem()
		for _, b := range bs {
			s, ok := r[b.column]
			if !ok {
				continue
			}
			if err := b.set(v.FieldByIndex(b.index), s); err != nil {
				return nil, fmt.Errorf("scan: field %q: %w", b.column, err)
			}
		}
	}
	return out, nil
}

// binding ties a column to a struct field.
type binding struct {
	column string
	index  []int
}

var bindingCache sync.Map // reflect.Type → []binding

func bindingsOf(rt reflect.Type) []binding {
	if cached, ok := bindingCache.Load(rt); ok {
		return cached.([]binding)
	}
	var bs []binding
	for _, f := range reflect.VisibleFields(rt) {
		if !f.IsExported() {
			continue
		}
		if name, ok := schema.FieldName(f); ok {
			bs = append(bs, binding{column: name, index: f.Index})
		}
	}
	bindingCache.Store(rt, bs)
	return bs
}

var timeType = reflect.TypeOf(time.Time{})

func (b binding) set(f reflect.Value, s string) error {
	s = strings.TrimSpace(s)
	if f.Type() == timeType {
		if s == "" {
			return nil
		}
		t, err := parseTime(s)
		if err != nil {
			return err
		}
		f.Set(reflect.ValueOf(t))
		return nil
	}

	switch f.Kind() {
	case reflect.String:
		f.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetFloat(n)
	case reflect.Bool:
		f.SetBool(s == "1" || strings.EqualFold(s, "true"))
	default:
		return fmt.Errorf("unsupported kind %s", f.Kind())
	}
	return nil
}

// parseTime accepts RFC 3339 text, as Rows renders it, or unix seconds, as
// NUMERIC index attributes hold it.
func parseTime(s string) (time.Time, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}
