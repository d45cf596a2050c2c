// Package scan decodes backend replies into Rows: FT.SEARCH and
// FT.AGGREGATE replies (RESP-2 arrays or RESP-3 maps) and database/sql
// result sets. Rows can be bound onto structs tagged `search:"@field"`.
package scan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Row is one decoded record, attribute name → text value.
type Row = map[string]string

// reply is an FT.SEARCH / FT.AGGREGATE reply reduced to its documents.
type reply struct {
	total int64
	docs  []any // one field payload per document
}

// DecodeSearch decodes an FT.SEARCH reply into its page of hits and the
// total number of matching documents.
func DecodeSearch(raw any) ([]Row, int64, error) {
	r, err := parseReply(raw, true)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.rows()
	return rows, r.total, err
}

// DecodeAggregate decodes an FT.AGGREGATE reply; RESP-2 aggregate rows
// carry no document ids.
func DecodeAggregate(raw any) ([]Row, error) {
	r, err := parseReply(raw, false)
	if err != nil {
		return nil, err
	}
	return r.rows()
}

// parseReply accepts the shapes go-redis and rueidis hand back. withIDs
// selects the FT.SEARCH RESP-2 layout [total, id, fields, id, fields, ...].
func parseReply(raw any, withIDs bool) (reply, error) {
	switch v := raw.(type) {
	case *redis.SliceCmd:
		return parseReply(v.Val(), withIDs)
	case []interface{}:
		return parseArray(v, withIDs)
	}
	if top, ok := stringKeyed(raw); ok {
		return parseMap(top)
	}
	return reply{}, fmt.Errorf("scan: unsupported reply type %T", raw)
}

func parseArray(arr []interface{}, withIDs bool) (reply, error) {
	if len(arr) == 0 {
		return reply{}, nil
	}
	total, ok := integer(arr[0])
	if !ok {
		return reply{}, errors.New("scan: first array element is not an integer")
	}
	stride := 1
	if withIDs {
		stride = 2
	}
	r := reply{total: total, docs: make([]any, 0, (len(arr)-1)/stride)}
	for i := stride; i < len(arr); i += stride {
		r.docs = append(r.docs, arr[i])
	}
	return r, nil
}

// parseMap reads the RESP-3 form {total_results, results: [{id,
// extra_attributes}...]}. Aggregate results use "values" instead.
func parseMap(top map[string]any) (reply, error) {
	results, ok := top["results"].([]interface{})
	if !ok {
		return reply{}, errors.New("scan: missing results array")
	}
	r := reply{total: int64(len(results)), docs: make([]any, len(results))}
	if n, ok := integer(top["total_results"]); ok {
		r.total = n
	}
	for i, res := range results {
		hit, ok := stringKeyed(res)
		if !ok {
			return reply{}, fmt.Errorf("scan: unknown hit type %T", res)
		}
		switch {
		case hit["extra_attributes"] != nil:
			r.docs[i] = hit["extra_attributes"]
		case hit["values"] != nil:
			r.docs[i] = hit["values"]
		default:
			r.docs[i] = hit
		}
	}
	return r, nil
}

func (r reply) rows() ([]Row, error) {
	out := make([]Row, len(r.docs))
	for i, d := range r.docs {
		row, err := fields(d)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// fields turns one document payload, a flat [k, v, k, v] list or a map,
// into a Row.
func fields(doc any) (Row, error) {
	if kv, ok := doc.([]interface{}); ok {
		row := make(Row, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			row[text(kv[i])] = text(kv[i+1])
		}
		return row, nil
	}
	m, ok := stringKeyed(doc)
	if !ok {
		return nil, fmt.Errorf("scan: unsupported kv type %T", doc)
	}
	row := make(Row, len(m))
	for k, v := range m {
		row[k] = text(v)
	}
	return row, nil
}

func stringKeyed(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[text(k)] = val
		}
		return out, true
	}
	return nil, false
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func integer(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	}
	return 0, false
}
