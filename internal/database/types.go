package database

// StorageType is the declared SQLite type of a column.
type StorageType string

const (
	TypeText     StorageType = "TEXT"
	TypeInteger  StorageType = "INTEGER"
	TypeReal     StorageType = "REAL"
	TypeBoolean  StorageType = "BOOLEAN"
	TypeDatetime StorageType = "DATETIME"
)

// DatetimeLayout is the text form of DATETIME values. SQLite's date and
// time functions parse it, and fractional seconds appear only when set.
const DatetimeLayout = "2006-01-02 15:04:05.999999999"

// Column is a target column: its sanitized name and storage type.
type Column struct {
	Name string
	Type StorageType
}

// TableSpec describes a table to create.
type TableSpec struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in order.
func (s TableSpec) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}
