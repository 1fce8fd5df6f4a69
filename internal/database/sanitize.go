package database

import (
	"strconv"
	"strings"
	"unicode"
)

// SanitizeColumnName sanitizes a column name for SQL compatibility.
//   - Trims surrounding whitespace and optionally lowercases
//   - Replaces every character that is not a letter, digit or underscore with
//     an underscore, collapses runs of underscores and strips them from the ends
//   - Prefixes with "col_" if the name starts with a digit
//   - Appends "_" to SQLite keywords
//   - Returns "EMPTY" for names with nothing left
func SanitizeColumnName(name string, lowercase bool) string {
	s := sanitize(name, lowercase)
	switch {
	case s == "":
		return "EMPTY"
	case startsWithDigit(s):
		return "col_" + s
	case IsReserved(s):
		return s + "_"
	}
	return s
}

// SanitizeTableName applies the column rules to a sheet name, with "t_" as
// the digit prefix and "sheet" for names with nothing left. Names in SQLite's
// reserved "sqlite_" namespace are prefixed too.
func SanitizeTableName(name string, lowercase bool) string {
	s := sanitize(name, lowercase)
	switch {
	case s == "":
		return "sheet"
	case startsWithDigit(s), strings.HasPrefix(strings.ToLower(s), "sqlite_"):
		return "t_" + s
	case IsReserved(s):
		return s + "_"
	}
	return s
}

// SanitizeColumnNames sanitizes a header. Names that collide after
// sanitization (case-insensitively, as SQLite compares identifiers) get
// "_2", "_3", ... appended in header order.
func SanitizeColumnNames(names []string, lowercase bool) []string {
	result := make([]string, len(names))
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		base := SanitizeColumnName(name, lowercase)
		candidate := base
		for n := 2; seen[strings.ToLower(candidate)]; n++ {
			candidate = base + "_" + strconv.Itoa(n)
		}
		seen[strings.ToLower(candidate)] = true
		result[i] = candidate
	}
	return result
}

// QuoteIdentifier double-quotes name for use in SQL.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sanitize(name string, lowercase bool) string {
	name = strings.TrimSpace(name)
	if lowercase {
		name = strings.ToLower(name)
	}

	var b strings.Builder
	underscore := false
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore {
			b.WriteRune('_')
			underscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

func startsWithDigit(s string) bool {
	for _, r := range s {
		return unicode.IsDigit(r)
	}
	return false
}
