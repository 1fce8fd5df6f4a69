// Package testutil builds workbook fixtures for tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet describes one sheet of a fixture workbook. Nil values leave the
// cell unset.
type Sheet struct {
	Name string
	Rows [][]any
}

// People is the sheet used throughout the tests: a header and two rows.
func People() Sheet {
	return Sheet{
		Name: "People",
		Rows: [][]any{
			{"name", "id", "address"},
			{"Ann", 1, "X St"},
			{"Bo", 2, "Y Ave"},
		},
	}
}

// WorkbookBytes renders sheets as an .xlsx document.
func WorkbookBytes(tb testing.TB, sheets ...Sheet) []byte {
	tb.Helper()

	f := build(tb, sheets)
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		tb.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteWorkbook writes sheets to dir/name and returns the full path.
func WriteWorkbook(tb testing.TB, dir, name string, sheets ...Sheet) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, WorkbookBytes(tb, sheets...), 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

func build(tb testing.TB, sheets []Sheet) *excelize.File {
	tb.Helper()

	f := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			if s.Name != "Sheet1" {
				if err := f.SetSheetName("Sheet1", s.Name); err != nil {
					tb.Fatalf("rename sheet: %v", err)
				}
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			tb.Fatalf("new sheet %q: %v", s.Name, err)
		}

		for r, row := range s.Rows {
			for c, v := range row {
				if v == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					tb.Fatalf("cell name: %v", err)
				}
				if err := f.SetCellValue(s.Name, cell, v); err != nil {
					tb.Fatalf("set %s!%s: %v", s.Name, cell, err)
				}
			}
		}
	}
	return f
}
