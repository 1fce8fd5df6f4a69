package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const (
	// BatchSize is the number of rows bound through one prepared statement
	// before progress is reported.
	BatchSize = 10000
)

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// CreateTable creates the described table.
// With overwrite set, an existing table of that name is dropped first;
// otherwise creation fails if it exists.
func CreateTable(ctx context.Context, ex Execer, table TableSpec, overwrite bool) error {
	if overwrite {
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", QuoteIdentifier(table.Name))
		if _, err := ex.ExecContext(ctx, dropSQL); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}

	columns := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		columns[i] = fmt.Sprintf("%s %s", QuoteIdentifier(col.Name), col.Type)
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdentifier(table.Name), strings.Join(columns, ", "))
	if _, err := ex.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// InsertBatch inserts a batch of rows into the described table.
// Each row holds one bound value per column; short rows are padded with NULL.
// Callers own the transaction.
func InsertBatch(ctx context.Context, ex Execer, table TableSpec, batch [][]any) error {
	if len(batch) == 0 {
		return nil
	}

	placeholders := make([]string, len(table.Columns))
	quoted := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		placeholders[i] = "?"
		quoted[i] = QuoteIdentifier(col.Name)
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdentifier(table.Name),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))

	stmt, err := ex.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	values := make([]any, len(table.Columns))
	for _, row := range batch {
		for i := range values {
			if i < len(row) {
				values[i] = row[i]
			} else {
				values[i] = nil
			}
		}

		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	return nil
}

// TableExists reports whether a table or view named name exists.
// SQLite identifiers are case-insensitive, so the comparison is too.
func TableExists(ctx context.Context, ex Execer, name string) (bool, error) {
	var count int
	err := ex.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ? COLLATE NOCASE",
		name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", name, err)
	}
	return count > 0, nil
}

// ListTables returns the user tables in the database, sorted by name.
func ListTables(ctx context.Context, ex Execer) ([]string, error) {
	rows, err := ex.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading tables: %w", err)
	}
	return tables, nil
}

// GetTableColumnTypes returns the columns of a table with their declared types.
func GetTableColumnTypes(ctx context.Context, ex Execer, tableName string) ([]Column, error) {
	rows, err := ex.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", QuoteIdentifier(tableName)))
	if err != nil {
		return nil, fmt.Errorf("failed to get table info: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		columns = append(columns, Column{Name: name, Type: StorageType(strings.ToUpper(ctype))})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading columns: %w", err)
	}

	return columns, nil
}

// GetTableColumns returns the column names for a table.
func GetTableColumns(ctx context.Context, ex Execer, tableName string) ([]string, error) {
	columns, err := GetTableColumnTypes(ctx, ex, tableName)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names, nil
}

// ValidateColumns checks if all specified columns exist in the table.
// Requested names are sanitized before comparison.
// Returns an error listing any missing columns.
func ValidateColumns(ctx context.Context, ex Execer, tableName string, columns []string) error {
	tableColumns, err := GetTableColumns(ctx, ex, tableName)
	if err != nil {
		return err
	}

	// Build a set of existing columns (case-insensitive)
	existing := make(map[string]bool)
	for _, col := range tableColumns {
		existing[strings.ToLower(col)] = true
	}

	// Check for missing columns
	var missing []string
	for _, col := range columns {
		sanitized := SanitizeColumnName(col, false)
		if !existing[strings.ToLower(sanitized)] {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("columns not found in table '%s': %s", tableName, strings.Join(missing, ", "))
	}

	return nil
}

// CreateIndex creates an index on the specified column for a table.
// Returns an error if the column doesn't exist.
func CreateIndex(ctx context.Context, ex Execer, tableName, column string) error {
	// Validate column exists first
	if err := ValidateColumns(ctx, ex, tableName, []string{column}); err != nil {
		return err
	}

	sanitizedColumn := SanitizeColumnName(column, false)
	indexName := fmt.Sprintf("idx_%s_%s", tableName, sanitizedColumn)

	createSQL := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		QuoteIdentifier(indexName), QuoteIdentifier(tableName), QuoteIdentifier(sanitizedColumn))
	if _, err := ex.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create index on %s.%s: %w", tableName, column, err)
	}

	return nil
}

// CreateIndexes creates indexes on multiple columns for a table.
// Validates all columns exist before creating any indexes.
func CreateIndexes(ctx context.Context, ex Execer, tableName string, columns []string) error {
	if len(columns) == 0 {
		return nil
	}

	// Validate all columns exist first (fail early)
	if err := ValidateColumns(ctx, ex, tableName, columns); err != nil {
		return err
	}

	for _, column := range columns {
		if err := CreateIndex(ctx, ex, tableName, column); err != nil {
			return err
		}
	}

	return nil
}
