package importer

import (
	"github.com/xlsql/xlsql-go/internal/database"
	"github.com/xlsql/xlsql-go/internal/workbook"
)

// InferColumnType picks the narrowest storage type holding every non-empty
// value: INTEGER, then REAL for mixed integers and reals, BOOLEAN, DATETIME,
// and TEXT for anything else. A column with no values at all is TEXT.
func InferColumnType(values []workbook.Cell) database.StorageType {
	var ints, reals, bools, times, other int
	for _, v := range values {
		switch v.Kind {
		case workbook.Empty:
		case workbook.Integer:
			ints++
		case workbook.Real:
			reals++
		case workbook.Bool:
			bools++
		case workbook.Time:
			times++
		default:
			other++
		}
	}

	switch {
	case other > 0:
		return database.TypeText
	case ints > 0 && reals == 0 && bools == 0 && times == 0:
		return database.TypeInteger
	case ints+reals > 0 && bools == 0 && times == 0:
		return database.TypeReal
	case bools > 0 && ints+reals == 0 && times == 0:
		return database.TypeBoolean
	case times > 0 && ints+reals+bools == 0:
		return database.TypeDatetime
	}
	return database.TypeText
}

// Coerce converts a cell to the value bound for a column of type typ.
// Empty cells are NULL in every column. Datetimes are bound as text in
// DatetimeLayout so every driver stores the same value.
func Coerce(c workbook.Cell, typ database.StorageType) any {
	if c.IsEmpty() {
		return nil
	}
	switch typ {
	case database.TypeInteger:
		if c.Kind == workbook.Integer {
			return c.Int
		}
	case database.TypeReal:
		switch c.Kind {
		case workbook.Integer:
			return float64(c.Int)
		case workbook.Real:
			return c.Real
		}
	case database.TypeBoolean:
		if c.Kind == workbook.Bool {
			return c.Bool
		}
	case database.TypeDatetime:
		if c.Kind == workbook.Time {
			return c.Time.Format(database.DatetimeLayout)
		}
	}
	return c.String()
}
