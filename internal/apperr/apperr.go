// Package apperr defines the failure kinds reported by xlsql and maps them
// to process exit codes.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes returned by the xlsql binary.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitUsage        = 2
	ExitNotFound     = 10
	ExitFormat       = 11
	ExitSelection    = 12
	ExitTableExists  = 13
	ExitNameConflict = 14
	ExitWrite        = 15
)

// NotFoundError indicates the input workbook path does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("workbook not found: %s", e.Path)
}

// FormatError indicates the input is not a readable workbook.
type FormatError struct {
	Path  string
	Sheet string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("cannot read sheet %q of %s: %v", e.Sheet, e.Path, e.Err)
	}
	return fmt.Sprintf("cannot read workbook %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// SelectionError indicates a requested sheet or column is absent.
// Sheets lists missing sheet names; Columns lists missing columns of Sheet.
type SelectionError struct {
	Sheet   string
	Sheets  []string
	Columns []string
}

func (e *SelectionError) Error() string {
	if len(e.Sheets) > 0 {
		return fmt.Sprintf("sheet(s) not found in workbook: %s", quoteAll(e.Sheets))
	}
	if len(e.Columns) == 0 {
		return fmt.Sprintf("sheet %q has no header row", e.Sheet)
	}
	if e.Sheet == "" {
		return fmt.Sprintf("column(s) not found: %s", quoteAll(e.Columns))
	}
	return fmt.Sprintf("sheet %q: column(s) not found in header: %s", e.Sheet, quoteAll(e.Columns))
}

// TableExistsError indicates the output database file or a target table in
// it already exists and overwriting was not permitted. Path alone names an
// existing output file.
type TableExistsError struct {
	Path  string
	Table string
	Sheet string
}

func (e *TableExistsError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("output database %s already exists; use --overwrite to replace its tables", e.Path)
	}
	return fmt.Sprintf("table %q (from sheet %q) already exists; use --overwrite to replace it", e.Table, e.Sheet)
}

// NameConflictError indicates two sheets sanitize to the same table name.
type NameConflictError struct {
	Name   string
	Sheets []string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("sheets %s all map to table %q", quoteAll(e.Sheets), e.Name)
}

// WriteError indicates a storage failure while opening the output database
// or creating or populating a table. Path is set for database-level failures.
type WriteError struct {
	Path  string
	Sheet string
	Table string
	Op    string
	Err   error
}

func (e *WriteError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("failed to %s database %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s table %q (sheet %q): %v", e.Op, e.Table, e.Sheet, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// UsageError wraps invalid command-line usage.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// Kind returns the name of the failure kind carried by err, or "" if err is
// not one of the kinds above.
func Kind(err error) string {
	var (
		notFound     *NotFoundError
		format       *FormatError
		selection    *SelectionError
		tableExists  *TableExistsError
		nameConflict *NameConflictError
		write        *WriteError
		usage        *UsageError
	)
	switch {
	case errors.As(err, &notFound):
		return "NotFoundError"
	case errors.As(err, &format):
		return "FormatError"
	case errors.As(err, &selection):
		return "SelectionError"
	case errors.As(err, &tableExists):
		return "TableExistsError"
	case errors.As(err, &nameConflict):
		return "NameConflictError"
	case errors.As(err, &write):
		return "WriteError"
	case errors.As(err, &usage):
		return "UsageError"
	}
	return ""
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch Kind(err) {
	case "NotFoundError":
		return ExitNotFound
	case "FormatError":
		return ExitFormat
	case "SelectionError":
		return ExitSelection
	case "TableExistsError":
		return ExitTableExists
	case "NameConflictError":
		return ExitNameConflict
	case "WriteError":
		return ExitWrite
	case "UsageError":
		return ExitUsage
	}
	return ExitFailure
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}
