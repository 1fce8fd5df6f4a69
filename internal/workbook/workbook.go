// Package workbook reads .xlsx workbooks into typed rows for xlsql.
package workbook

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/xlsql/xlsql-go/internal/apperr"
)

// Workbook is an open, read-only spreadsheet.
type Workbook struct {
	Path string

	file       *excelize.File
	date1904   bool
	dateStyles map[int]bool
}

// Open opens the workbook at path. Compressed workbooks (see OpenFile) are
// decompressed into memory first.
// Returns *apperr.NotFoundError when path does not exist and
// *apperr.FormatError when it cannot be parsed as a workbook.
func Open(path string) (*Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &apperr.NotFoundError{Path: path}
		}
		return nil, &apperr.FormatError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &apperr.FormatError{Path: path, Err: errors.New("is a directory")}
	}
	if strings.EqualFold(filepath.Ext(StripCompressionExt(path)), ".xls") {
		return nil, &apperr.FormatError{Path: path, Err: errors.New("legacy .xls workbooks are not supported, save as .xlsx")}
	}

	var f *excelize.File
	if IsCompressed(path) {
		rc, err := OpenFile(path)
		if err != nil {
			return nil, &apperr.FormatError{Path: path, Err: err}
		}
		defer rc.Close()
		f, err = excelize.OpenReader(rc)
		if err != nil {
			return nil, &apperr.FormatError{Path: path, Err: err}
		}
	} else {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return nil, &apperr.FormatError{Path: path, Err: err}
		}
	}

	wb := &Workbook{
		Path:       path,
		file:       f,
		dateStyles: make(map[int]bool),
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}
	return wb, nil
}

// Close releases the workbook.
func (wb *Workbook) Close() error {
	return wb.file.Close()
}

// SheetNames returns the sheet names in workbook order.
func (wb *Workbook) SheetNames() []string {
	return wb.file.GetSheetList()
}

// Header returns the first non-blank row of sheet as trimmed display text,
// padded with empty headings to the width of the widest row so that no data
// cell falls outside the header. A sheet without any non-blank row has a nil
// header. The scan streams the sheet XML and never loads the worksheet.
func (wb *Workbook) Header(sheet string) ([]string, error) {
	rows, err := wb.file.Rows(sheet)
	if err != nil {
		return nil, &apperr.FormatError{Path: wb.Path, Sheet: sheet, Err: err}
	}
	defer rows.Close()

	var header []string
	width := 0
	for rows.Next() {
		values, err := rows.Columns()
		if err != nil {
			return nil, &apperr.FormatError{Path: wb.Path, Sheet: sheet, Err: err}
		}
		n := usedWidth(values)
		if n == 0 {
			continue
		}
		if header == nil {
			header = make([]string, n)
			for i, v := range values[:n] {
				header[i] = strings.TrimSpace(v)
			}
		}
		width = max(width, n)
	}
	if err := rows.Error(); err != nil {
		return nil, &apperr.FormatError{Path: wb.Path, Sheet: sheet, Err: err}
	}
	for len(header) < width {
		header = append(header, "")
	}
	return header, nil
}

// usedWidth returns the number of leading values up to the last non-empty one.
func usedWidth(values []string) int {
	for n := len(values); n > 0; n-- {
		if values[n-1] != "" {
			return n
		}
	}
	return 0
}

// RowIterator is a lazy, single-pass sequence of the non-blank rows of a
// sheet. The first row it yields is the header. It is not restartable; call
// Workbook.Rows again for a second pass.
type RowIterator struct {
	wb     *Workbook
	sheet  string
	rows   *excelize.Rows
	text   bool
	rowNum int
	cur    Row
	err    error
}

// Rows opens a row iterator over sheet yielding typed cells. Typing looks up
// each cell's type and number format, which makes excelize load the whole
// worksheet on the first row.
func (wb *Workbook) Rows(sheet string) (*RowIterator, error) {
	return wb.rows(sheet, false)
}

// TextRows opens a row iterator over sheet yielding every non-empty cell as
// Text holding its displayed value. It streams the sheet XML without loading
// the worksheet.
func (wb *Workbook) TextRows(sheet string) (*RowIterator, error) {
	return wb.rows(sheet, true)
}

func (wb *Workbook) rows(sheet string, text bool) (*RowIterator, error) {
	rows, err := wb.file.Rows(sheet)
	if err != nil {
		return nil, &apperr.FormatError{Path: wb.Path, Sheet: sheet, Err: err}
	}
	return &RowIterator{wb: wb, sheet: sheet, rows: rows, text: text}, nil
}

// Next advances to the next non-blank row.
func (it *RowIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for it.rows.Next() {
		it.rowNum++
		row, err := it.read()
		if err != nil {
			it.err = &apperr.FormatError{Path: it.wb.Path, Sheet: it.sheet, Err: err}
			return false
		}
		if row.IsBlank() {
			continue
		}
		it.cur = row
		return true
	}
	if err := it.rows.Error(); err != nil {
		it.err = &apperr.FormatError{Path: it.wb.Path, Sheet: it.sheet, Err: err}
	}
	it.cur = nil
	return false
}

func (it *RowIterator) read() (Row, error) {
	if it.text {
		values, err := it.rows.Columns()
		if err != nil {
			return nil, err
		}
		row := make(Row, len(values))
		for i, v := range values {
			if v != "" {
				row[i] = NewText(v)
			}
		}
		return row, nil
	}

	raw, err := it.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	row := make(Row, len(raw))
	for i, v := range raw {
		if row[i], err = it.wb.cell(it.sheet, i+1, it.rowNum, v); err != nil {
			return nil, err
		}
	}
	return row, nil
}

// Row returns the current row.
func (it *RowIterator) Row() Row { return it.cur }

// RowNumber returns the 1-based sheet row number of the current row.
func (it *RowIterator) RowNumber() int { return it.rowNum }

// Err returns the error that stopped iteration, if any.
func (it *RowIterator) Err() error { return it.err }

// Close releases the iterator.
func (it *RowIterator) Close() error {
	return it.rows.Close()
}

// cell types the raw value of the cell at (col, row).
func (wb *Workbook) cell(sheet string, col, row int, raw string) (Cell, error) {
	if raw == "" {
		return Cell{}, nil
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return Cell{}, err
	}
	typ, err := wb.file.GetCellType(sheet, name)
	if err != nil {
		return Cell{}, err
	}

	switch typ {
	case excelize.CellTypeBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return NewBool(b), nil
		}
		return NewText(raw), nil
	case excelize.CellTypeDate:
		if t, ok := parseISOTime(raw); ok {
			return NewTime(t), nil
		}
		return NewText(raw), nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return NewText(raw), nil
	}
	return wb.numeric(sheet, name, raw)
}

// numeric types a cell stored as a number: a date when its number format is
// a date format, otherwise an integer or a real.
func (wb *Workbook) numeric(sheet, cell, raw string) (Cell, error) {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if wb.isDateCell(sheet, cell) {
			return wb.serialToTime(float64(i), raw), nil
		}
		return NewInt(i), nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return NewText(raw), nil
	}
	if wb.isDateCell(sheet, cell) {
		return wb.serialToTime(f, raw), nil
	}
	return NewReal(f), nil
}

func (wb *Workbook) serialToTime(serial float64, raw string) Cell {
	t, err := excelize.ExcelDateToTime(serial, wb.date1904)
	if err != nil {
		return NewText(raw)
	}
	return NewTime(t)
}

func (wb *Workbook) isDateCell(sheet, cell string) bool {
	idx, err := wb.file.GetCellStyle(sheet, cell)
	if err != nil || idx == 0 {
		return false
	}
	if isDate, ok := wb.dateStyles[idx]; ok {
		return isDate
	}
	isDate := false
	if style, err := wb.file.GetStyle(idx); err == nil && style != nil {
		isDate = isDateNumFmt(style.NumFmt, style.CustomNumFmt)
	}
	wb.dateStyles[idx] = isDate
	return isDate
}

// isDateNumFmt reports whether a number format renders a date or time.
// Built-in ids 14-22 and 45-47 are the standard date/time formats; 27-36
// and 50-58 are the East Asian date formats.
func isDateNumFmt(id int, custom *string) bool {
	if custom != nil && *custom != "" {
		return isDateFormatCode(*custom)
	}
	switch {
	case id >= 14 && id <= 22, id >= 45 && id <= 47:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code contains date or
// time tokens outside quoted literals, escapes and bracketed sections.
// Elapsed-time brackets such as [h] count as time tokens.
func isDateFormatCode(code string) bool {
	code = strings.ToLower(code)
	// Only the first (positive) section decides.
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	inQuote := false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			if c == '"' {
				inQuote = false
			}
		case c == '"':
			inQuote = true
		case c == '\\', c == '_', c == '*':
			i++
		case c == '[':
			end := strings.IndexByte(code[i:], ']')
			if end < 0 {
				return false
			}
			inner := code[i+1 : i+end]
			if strings.Trim(inner, "hms") == "" && inner != "" {
				return true
			}
			i += end
		case strings.IndexByte("ymdhs", c) >= 0:
			return true
		}
	}
	return false
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseISOTime(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
