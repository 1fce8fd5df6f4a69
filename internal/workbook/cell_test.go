package workbook

import (
	"testing"
	"time"
)

func TestCellString(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"empty", Cell{}, ""},
		{"text", NewText("X St"), "X St"},
		{"integer", NewInt(42), "42"},
		{"negative", NewInt(-3), "-3"},
		{"real", NewReal(2.5), "2.5"},
		{"real no exponent", NewReal(1e21), "1000000000000000000000"},
		{"true", NewBool(true), "TRUE"},
		{"false", NewBool(false), "FALSE"},
		{"date", NewTime(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), "2024-03-01"},
		{"datetime", NewTime(time.Date(2024, 3, 1, 13, 5, 9, 0, time.UTC)), "2024-03-01 13:05:09"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cell.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCellValue(t *testing.T) {
	if v := (Cell{}).Value(); v != nil {
		t.Errorf("empty Value() = %v, want nil", v)
	}
	if v := NewInt(42).Value(); v != int64(42) {
		t.Errorf("integer Value() = %#v, want int64(42)", v)
	}
	if v := NewBool(true).Value(); v != true {
		t.Errorf("bool Value() = %#v, want true", v)
	}
}

func TestRowAt(t *testing.T) {
	row := Row{NewText("a")}
	if got := row.At(0); got != NewText("a") {
		t.Errorf("At(0) = %v", got)
	}
	if !row.At(3).IsEmpty() {
		t.Error("At beyond the row should be empty")
	}
	if !(Row{{}, {}}).IsBlank() {
		t.Error("row of empty cells should be blank")
	}
}
