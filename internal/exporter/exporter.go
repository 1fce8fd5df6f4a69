package exporter

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Result contains the result of a query export operation.
type Result struct {
	RowCount int
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Execute executes a SQL query and exports results to the specified output file.
// If outputFile is empty, outputs to stdout.
func Execute(ctx context.Context, db Querier, query, outputFile string, delimiter rune) (result *Result, err error) {
	output, err := OpenOutputFile(outputFile)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := output.Close(); cerr != nil && err == nil {
			result, err = nil, fmt.Errorf("failed to close output: %w", cerr)
		}
	}()

	return Write(ctx, db, query, output, delimiter)
}

// Write executes query and writes a header line plus one record per row to w.
// NULL is written as an empty field.
func Write(ctx context.Context, db Querier, query string, w io.Writer, delimiter rune) (*Result, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	writer := csv.NewWriter(w)
	writer.Comma = delimiter

	if err := writer.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	rowCount := 0
	record := make([]string, len(columns))
	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, val := range values {
			record[i] = formatValue(val)
		}

		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
		rowCount++
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush output: %w", err)
	}

	return &Result{RowCount: rowCount}, nil
}

func formatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", v)
	}
}
