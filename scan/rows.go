package scan

import (
	"database/sql"
	"fmt"
	"time"
)

// Rows drains a database/sql result set into Rows. Times are rendered as
// RFC 3339 and NULL as the empty string, matching what a hash-backed index
// would return for the same record.
func Rows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("scan: columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: row: %w", err)
		}
		r := make(Row, len(cols))
		for i, c := range cols {
			r[c] = sqlText(vals[i])
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan: rows: %w", err)
	}
	return out, nil
}

func sqlText(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return text(t)
	}
}
