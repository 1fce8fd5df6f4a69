// Package selector decides which sheets and columns of a workbook are
// converted.
package selector

import (
	"strings"

	"github.com/xlsql/xlsql-go/internal/apperr"
)

// Selection is either every name (All) or an explicit set of names.
// The zero value selects everything.
type Selection struct {
	names []string
	set   map[string]struct{}
}

// All selects every sheet or column.
func All() Selection {
	return Selection{}
}

// Named selects the given names. Duplicates are ignored and an empty list
// selects everything.
func Named(names ...string) Selection {
	var s Selection
	for _, n := range names {
		if _, dup := s.set[n]; dup {
			continue
		}
		if s.set == nil {
			s.set = make(map[string]struct{})
		}
		s.set[n] = struct{}{}
		s.names = append(s.names, n)
	}
	return s
}

// IsAll reports whether the selection keeps everything.
func (s Selection) IsAll() bool {
	return len(s.names) == 0
}

// Names returns the requested names in the order they were given.
func (s Selection) Names() []string {
	return append([]string(nil), s.names...)
}

// Contains reports whether name is selected.
func (s Selection) Contains(name string) bool {
	if s.IsAll() {
		return true
	}
	_, ok := s.set[name]
	return ok
}

// Column is a selected header position.
type Column struct {
	Index int
	Name  string
}

// Sheets returns the sheets to process in workbook order.
// Any requested sheet missing from available is a *apperr.SelectionError.
func Sheets(req Selection, available []string) ([]string, error) {
	if req.IsAll() {
		return append([]string(nil), available...), nil
	}

	present := make(map[string]bool, len(available))
	for _, name := range available {
		present[name] = true
	}
	var missing []string
	for _, name := range req.names {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &apperr.SelectionError{Sheets: missing}
	}

	selected := make([]string, 0, len(req.names))
	for _, name := range available {
		if req.Contains(name) {
			selected = append(selected, name)
		}
	}
	return selected, nil
}

// Columns returns the header positions of sheet to extract, in header order.
// Header entries are compared with surrounding whitespace trimmed. A
// requested column missing from header is a *apperr.SelectionError naming
// the sheet.
func Columns(sheet string, req Selection, header []string) ([]Column, error) {
	want := make(map[string]bool, len(req.names))
	for _, name := range req.names {
		want[strings.TrimSpace(name)] = true
	}

	var columns []Column
	found := make(map[string]bool)
	for i, h := range header {
		name := strings.TrimSpace(h)
		if !req.IsAll() && !want[name] {
			continue
		}
		found[name] = true
		columns = append(columns, Column{Index: i, Name: name})
	}

	var missing []string
	for _, name := range req.names {
		if !found[strings.TrimSpace(name)] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &apperr.SelectionError{Sheet: sheet, Columns: missing}
	}
	return columns, nil
}
