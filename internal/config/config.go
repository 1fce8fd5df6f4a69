// Package config provides configuration types and parsing for xlsql.
package config

import (
	"fmt"
	"strings"

	"github.com/xlsql/xlsql-go/internal/database"
	"github.com/xlsql/xlsql-go/internal/selector"
)

// Config holds all configuration options for xlsql.
type Config struct {
	InputFile    string
	DBPath       string
	Sheets       []string
	Columns      []string
	IndexColumns []string // Columns to create indexes on
	Overwrite    bool
	Lowercase    bool
	TextOnly     bool
	Driver       string
	SQLQuery     string
	OutputFile   string
	Delimiter    rune // 0 means detect from OutputFile
	Verbose      bool
	Debug        bool
}

// ParseDelimiter converts a delimiter string to a rune.
// Valid values: "comma", "csv", "tab", "tsv", "auto".
// Returns 0 for auto-detection.
func ParseDelimiter(delimiterStr string) (rune, error) {
	switch strings.ToLower(delimiterStr) {
	case "comma", "csv":
		return ',', nil
	case "tab", "tsv":
		return '\t', nil
	case "auto":
		return 0, nil
	default:
		return 0, fmt.Errorf("invalid delimiter: %s (use 'comma', 'tab', or 'auto')", delimiterStr)
	}
}

// ParseDriver resolves a driver name or alias to a database/sql driver name.
// An empty string selects the default driver.
func ParseDriver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return database.DefaultDriver, nil
	case "sqlite3", "mattn", "cgo":
		return database.DriverCGO, nil
	case "sqlite", "modernc", "pure":
		return database.DriverPure, nil
	default:
		return "", fmt.Errorf("invalid driver: %s (use 'sqlite3' or 'sqlite')", name)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("must specify a workbook")
	}
	if c.DBPath == "" {
		return fmt.Errorf("must specify a database path")
	}
	if c.OutputFile != "" && c.SQLQuery == "" {
		return fmt.Errorf("--output requires --query")
	}
	if _, err := ParseDriver(c.Driver); err != nil {
		return err
	}
	return nil
}

// SheetSelection returns the requested sheets; none means every sheet.
func (c *Config) SheetSelection() selector.Selection {
	return selector.Named(nonEmpty(c.Sheets)...)
}

// ColumnSelection returns the requested columns; none means every column.
func (c *Config) ColumnSelection() selector.Selection {
	return selector.Named(nonEmpty(c.Columns)...)
}

// nonEmpty drops blank entries, such as those left by a trailing comma.
func nonEmpty(names []string) []string {
	var out []string
	for _, n := range names {
		if strings.TrimSpace(n) != "" {
			out = append(out, n)
		}
	}
	return out
}
