package importer

import (
	"context"
	"strings"

	"github.com/xlsql/xlsql-go/internal/apperr"
	"github.com/xlsql/xlsql-go/internal/database"
	"github.com/xlsql/xlsql-go/internal/selector"
	"github.com/xlsql/xlsql-go/internal/workbook"
)

// SheetPlan describes how one sheet becomes one table.
type SheetPlan struct {
	Sheet string
	// Source holds the selected header positions, parallel to Table.Columns.
	Source []selector.Column
	// Table column types are TEXT until the sheet has been read.
	Table database.TableSpec
	// Indexes lists the sanitized columns to index.
	Indexes []string
}

// PlanOptions controls how sheets are mapped to tables.
type PlanOptions struct {
	// Sheets is the sheet selection the plan was asked for. A sheet named
	// in it must have a header row.
	Sheets    selector.Selection
	Columns   selector.Selection
	Indexes   []string
	Lowercase bool
}

// Plan reads the header of every sheet and derives its target table.
// Sheets without a header row are returned in skipped, unless the sheet was
// named explicitly or specific columns were requested, in which case they
// fail selection.
// Selection failures across all sheets are reported before name conflicts.
func Plan(wb *workbook.Workbook, sheets []string, opts PlanOptions) (plans []SheetPlan, skipped []string, err error) {
	for _, sheet := range sheets {
		header, err := wb.Header(sheet)
		if err != nil {
			return nil, nil, err
		}
		if len(header) == 0 {
			if !opts.Columns.IsAll() {
				return nil, nil, &apperr.SelectionError{Sheet: sheet, Columns: opts.Columns.Names()}
			}
			if !opts.Sheets.IsAll() {
				return nil, nil, &apperr.SelectionError{Sheet: sheet}
			}
			skipped = append(skipped, sheet)
			continue
		}

		source, err := selector.Columns(sheet, opts.Columns, header)
		if err != nil {
			return nil, nil, err
		}
		plans = append(plans, newSheetPlan(sheet, source, opts))
	}

	if err := checkNameConflicts(plans); err != nil {
		return nil, nil, err
	}
	return plans, skipped, nil
}

func newSheetPlan(sheet string, source []selector.Column, opts PlanOptions) SheetPlan {
	names := make([]string, len(source))
	for i, c := range source {
		names[i] = c.Name
	}
	sanitized := database.SanitizeColumnNames(names, opts.Lowercase)

	plan := SheetPlan{
		Sheet:  sheet,
		Source: source,
		Table: database.TableSpec{
			Name:    database.SanitizeTableName(sheet, opts.Lowercase),
			Columns: make([]database.Column, len(source)),
		},
	}
	for i, name := range sanitized {
		plan.Table.Columns[i] = database.Column{Name: name, Type: database.TypeText}
	}

	// An index column matches either its header text or its table column name.
	for _, want := range opts.Indexes {
		want = strings.TrimSpace(want)
		for i, c := range source {
			if c.Name == want || strings.EqualFold(sanitized[i], want) {
				plan.Indexes = appendUnique(plan.Indexes, sanitized[i])
			}
		}
	}
	return plan
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func checkNameConflicts(plans []SheetPlan) error {
	owner := make(map[string]string, len(plans))
	for _, p := range plans {
		key := strings.ToLower(p.Table.Name)
		if first, ok := owner[key]; ok {
			return &apperr.NameConflictError{Name: p.Table.Name, Sheets: []string{first, p.Sheet}}
		}
		owner[key] = p.Sheet
	}
	return nil
}

// CheckExisting fails with *apperr.TableExistsError when a planned table is
// already present and overwrite is false. Nothing is written either way.
func CheckExisting(ctx context.Context, ex database.Execer, plans []SheetPlan, overwrite bool) error {
	if overwrite {
		return nil
	}
	for _, p := range plans {
		exists, err := database.TableExists(ctx, ex, p.Table.Name)
		if err != nil {
			return &apperr.WriteError{Sheet: p.Sheet, Table: p.Table.Name, Op: "inspect", Err: err}
		}
		if exists {
			return &apperr.TableExistsError{Table: p.Table.Name, Sheet: p.Sheet}
		}
	}
	return nil
}
