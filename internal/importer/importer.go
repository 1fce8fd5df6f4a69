// Package importer turns workbook sheets into typed SQLite tables.
package importer

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xlsql/xlsql-go/internal/apperr"
	"github.com/xlsql/xlsql-go/internal/database"
	"github.com/xlsql/xlsql-go/internal/workbook"
)

// Result contains the result of importing one sheet.
type Result struct {
	Sheet     string
	TableName string
	Columns   []database.Column
	RowCount  int
	Indexes   int
	Duration  time.Duration
}

// Options controls a sheet import.
type Options struct {
	// Overwrite drops an existing table of the same name.
	Overwrite bool
	// TextOnly declares every column TEXT and streams the displayed text of
	// each cell without buffering the sheet for inference.
	TextOnly bool
	Debug    bool
}

// ReadProgressCallback is called periodically while a sheet is read.
type ReadProgressCallback func(sheet string, rowsRead int64)

// WriteProgressCallback is called after each batch is written.
type WriteProgressCallback func(sheet string, rowsWritten int64)

// readProgressEvery is the number of rows between read progress reports.
const readProgressEvery = 1000

// ImportSheet creates the table of plan and fills it from the sheet.
// Dropping, creating, inserting and indexing share one transaction: on any
// failure the sheet leaves no trace in the database.
// Storage failures are returned as *apperr.WriteError; read failures keep
// their *apperr.FormatError.
func ImportSheet(ctx context.Context, db *sql.DB, wb *workbook.Workbook, plan SheetPlan, opts Options, readProgress ReadProgressCallback, writeProgress WriteProgressCallback) (*Result, error) {
	start := time.Now()
	if opts.Debug {
		log.Printf("[XLSQL] Importing sheet %q into table %q (%s)", plan.Sheet, plan.Table.Name, strings.Join(plan.Table.ColumnNames(), ", "))
	}

	open := wb.Rows
	if opts.TextOnly {
		open = wb.TextRows
	}
	it, err := open(plan.Sheet)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	// The first non-blank row is the header.
	if !it.Next() {
		if err := it.Err(); err != nil {
			return nil, err
		}
	}

	var (
		spec = plan.Table
		rows []workbook.Row
	)
	spec.Columns = append([]database.Column(nil), plan.Table.Columns...)

	if !opts.TextOnly {
		rows, err = readRows(ctx, it, plan, readProgress)
		if err != nil {
			return nil, err
		}
		inferTypes(spec, rows)
		if opts.Debug {
			for _, c := range spec.Columns {
				log.Printf("[XLSQL]   %s.%s: %s", spec.Name, c.Name, c.Type)
			}
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &apperr.WriteError{Sheet: plan.Sheet, Table: spec.Name, Op: "begin writing", Err: err}
	}
	defer tx.Rollback()

	if err := database.CreateTable(ctx, tx, spec, opts.Overwrite); err != nil {
		return nil, &apperr.WriteError{Sheet: plan.Sheet, Table: spec.Name, Op: "create", Err: err}
	}

	w := &batchWriter{
		ctx:      ctx,
		tx:       tx,
		plan:     plan,
		spec:     spec,
		progress: writeProgress,
		batch:    make([][]any, 0, database.BatchSize),
	}
	if opts.TextOnly {
		err = streamRows(ctx, it, plan, w, readProgress)
	} else {
		for _, row := range rows {
			if err = w.add(row); err != nil {
				break
			}
		}
	}
	if err == nil {
		err = w.flush()
	}
	if err != nil {
		return nil, err
	}

	if len(plan.Indexes) > 0 {
		if err := database.CreateIndexes(ctx, tx, spec.Name, plan.Indexes); err != nil {
			return nil, &apperr.WriteError{Sheet: plan.Sheet, Table: spec.Name, Op: "index", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &apperr.WriteError{Sheet: plan.Sheet, Table: spec.Name, Op: "commit", Err: err}
	}

	result := &Result{
		Sheet:     plan.Sheet,
		TableName: spec.Name,
		Columns:   spec.Columns,
		RowCount:  w.written,
		Indexes:   len(plan.Indexes),
		Duration:  time.Since(start),
	}
	if opts.Debug {
		log.Printf("[XLSQL] Imported %d rows from sheet %q in %v", result.RowCount, plan.Sheet, result.Duration)
	}
	return result, nil
}

// project extracts the selected cells of row. A row whose selected cells
// are all empty still yields a row of NULLs, so the row count does not
// depend on the column selection.
func project(row workbook.Row, plan SheetPlan) workbook.Row {
	out := make(workbook.Row, len(plan.Source))
	for i, c := range plan.Source {
		out[i] = row.At(c.Index)
	}
	return out
}

// readRows buffers the selected cells of every remaining row of the sheet.
func readRows(ctx context.Context, it *workbook.RowIterator, plan SheetPlan, progress ReadProgressCallback) ([]workbook.Row, error) {
	var rows []workbook.Row
	var read int64
	for it.Next() {
		read++
		rows = append(rows, project(it.Row(), plan))
		if read%readProgressEvery == 0 {
			if err := interrupted(ctx, plan); err != nil {
				return nil, err
			}
			if progress != nil {
				progress(plan.Sheet, read)
			}
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	if progress != nil {
		progress(plan.Sheet, read)
	}
	return rows, nil
}

// streamRows feeds rows straight from the iterator into w.
func streamRows(ctx context.Context, it *workbook.RowIterator, plan SheetPlan, w *batchWriter, progress ReadProgressCallback) error {
	var read int64
	for it.Next() {
		read++
		if err := w.add(project(it.Row(), plan)); err != nil {
			return err
		}
		if progress != nil && read%readProgressEvery == 0 {
			progress(plan.Sheet, read)
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	if progress != nil {
		progress(plan.Sheet, read)
	}
	return nil
}

func inferTypes(spec database.TableSpec, rows []workbook.Row) {
	column := make([]workbook.Cell, len(rows))
	for i := range spec.Columns {
		for r, row := range rows {
			column[r] = row[i]
		}
		spec.Columns[i].Type = InferColumnType(column)
	}
}

func interrupted(ctx context.Context, plan SheetPlan) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("import of sheet %q interrupted: %w", plan.Sheet, err)
	}
	return nil
}

// batchWriter accumulates coerced rows and inserts them BatchSize at a time.
type batchWriter struct {
	ctx      context.Context
	tx       *sql.Tx
	plan     SheetPlan
	spec     database.TableSpec
	progress WriteProgressCallback
	batch    [][]any
	written  int
}

func (w *batchWriter) add(row workbook.Row) error {
	values := make([]any, len(w.spec.Columns))
	for i, col := range w.spec.Columns {
		values[i] = Coerce(row.At(i), col.Type)
	}
	w.batch = append(w.batch, values)
	if len(w.batch) >= database.BatchSize {
		return w.flush()
	}
	return nil
}

func (w *batchWriter) flush() error {
	if err := interrupted(w.ctx, w.plan); err != nil {
		return err
	}
	if len(w.batch) == 0 {
		return nil
	}
	if err := database.InsertBatch(w.ctx, w.tx, w.spec, w.batch); err != nil {
		return &apperr.WriteError{Sheet: w.plan.Sheet, Table: w.spec.Name, Op: "insert into", Err: err}
	}
	w.written += len(w.batch)
	w.batch = w.batch[:0]

	if w.progress != nil {
		w.progress(w.plan.Sheet, int64(w.written))
	}
	return nil
}
