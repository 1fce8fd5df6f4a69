package workbook

import (
	"strconv"
	"time"
)

// Kind is the primitive type carried by a Cell.
type Kind int

const (
	Empty Kind = iota
	Text
	Integer
	Real
	Bool
	Time
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Bool:
		return "boolean"
	case Time:
		return "datetime"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Cell is a typed spreadsheet value. Only the field matching Kind is set.
type Cell struct {
	Kind Kind
	Text string
	Int  int64
	Real float64
	Bool bool
	Time time.Time
}

// Row is one sheet row; the Nth cell lines up with the Nth header entry.
type Row []Cell

func NewText(s string) Cell    { return Cell{Kind: Text, Text: s} }
func NewInt(i int64) Cell      { return Cell{Kind: Integer, Int: i} }
func NewReal(f float64) Cell   { return Cell{Kind: Real, Real: f} }
func NewBool(b bool) Cell      { return Cell{Kind: Bool, Bool: b} }
func NewTime(t time.Time) Cell { return Cell{Kind: Time, Time: t} }

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool { return c.Kind == Empty }

// At returns the cell at position i, or an empty cell when the row is shorter.
func (r Row) At(i int) Cell {
	if i >= 0 && i < len(r) {
		return r[i]
	}
	return Cell{}
}

// IsBlank reports whether every cell in the row is empty.
func (r Row) IsBlank() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Value returns the Go value of the cell, or nil when it is empty.
func (c Cell) Value() any {
	switch c.Kind {
	case Text:
		return c.Text
	case Integer:
		return c.Int
	case Real:
		return c.Real
	case Bool:
		return c.Bool
	case Time:
		return c.Time
	}
	return nil
}

// String renders the cell as text. Booleans render the way Excel shows them.
func (c Cell) String() string {
	switch c.Kind {
	case Text:
		return c.Text
	case Integer:
		return strconv.FormatInt(c.Int, 10)
	case Real:
		return strconv.FormatFloat(c.Real, 'f', -1, 64)
	case Bool:
		if c.Bool {
			return "TRUE"
		}
		return "FALSE"
	case Time:
		if c.Time.Hour() == 0 && c.Time.Minute() == 0 && c.Time.Second() == 0 && c.Time.Nanosecond() == 0 {
			return c.Time.Format("2006-01-02")
		}
		return c.Time.Format("2006-01-02 15:04:05")
	}
	return ""
}
