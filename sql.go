package rowexport

import (
	"context"
	"database/sql"
	"fmt"
)

// QueryRecords runs query against db and returns one record per result
// row, with keys in column order.
func QueryRecords(ctx context.Context, db *sql.DB, query string, args ...any) (RecordSet, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

type rowScanner interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows rowScanner) (RecordSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var rs RecordSet
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("row %d: %w", len(rs), err)
		}
		var rec Record
		for i, col := range cols {
			rec.Set(col, driverValue(vals[i]))
		}
		rs = append(rs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// driverValue converts a scanned column value to a Value. Drivers hand
// back numeric columns as text bytes, so those are number-inferred.
func driverValue(v any) Value {
	if bs, ok := v.([]byte); ok {
		return inferValue(string(bs))
	}
	return v
}
