package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xlsql/xlsql-go/internal/apperr"
	"github.com/xlsql/xlsql-go/internal/database"
	"github.com/xlsql/xlsql-go/internal/selector"
	"github.com/xlsql/xlsql-go/internal/testutil"
	"github.com/xlsql/xlsql-go/internal/workbook"
)

func openWorkbook(t *testing.T, sheets ...testutil.Sheet) *workbook.Workbook {
	t.Helper()
	path := testutil.WriteWorkbook(t, t.TempDir(), "book.xlsx", sheets...)
	wb, err := workbook.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { wb.Close() })
	return wb
}

func openDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open("", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// convert plans every sheet of wb and imports them in order.
func convert(t *testing.T, db *database.DB, wb *workbook.Workbook, popts PlanOptions, opts Options) []*Result {
	t.Helper()
	ctx := context.Background()

	plans, _, err := Plan(wb, wb.SheetNames(), popts)
	require.NoError(t, err)
	require.NoError(t, CheckExisting(ctx, db, plans, opts.Overwrite))

	var results []*Result
	for _, p := range plans {
		res, err := ImportSheet(ctx, db.DB, wb, p, opts, nil, nil)
		require.NoError(t, err)
		results = append(results, res)
	}
	return results
}

func queryRows(t *testing.T, db *database.DB, query string) [][]any {
	t.Helper()
	rows, err := db.Query(query)
	require.NoError(t, err)
	defer rows.Close()

	cols, err := rows.Columns()
	require.NoError(t, err)

	var out [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		require.NoError(t, rows.Scan(ptrs...))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}
	require.NoError(t, rows.Err())
	return out
}

func columnTypes(t *testing.T, db *database.DB, table string) []database.Column {
	t.Helper()
	cols, err := database.GetTableColumnTypes(context.Background(), db, table)
	require.NoError(t, err)
	return cols
}

func TestPeopleColumnSelection(t *testing.T) {
	wb := openWorkbook(t, testutil.People())
	db := openDB(t)

	results := convert(t, db, wb, PlanOptions{Columns: selector.Named("name", "id")}, Options{})
	require.Len(t, results, 1)
	assert.Equal(t, "People", results[0].TableName)
	assert.Equal(t, 2, results[0].RowCount)

	assert.Equal(t, []database.Column{
		{Name: "name", Type: database.TypeText},
		{Name: "id", Type: database.TypeInteger},
	}, columnTypes(t, db, "People"))

	assert.Equal(t, [][]any{
		{"Ann", int64(1)},
		{"Bo", int64(2)},
	}, queryRows(t, db, `SELECT name, id FROM "People" ORDER BY id`))
}

func TestAllColumnsInHeaderOrder(t *testing.T) {
	wb := openWorkbook(t, testutil.People())
	db := openDB(t)

	convert(t, db, wb, PlanOptions{}, Options{})

	cols, err := database.GetTableColumns(context.Background(), db, "People")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "id", "address"}, cols)
}

func TestMissingColumnIsSelectionError(t *testing.T) {
	wb := openWorkbook(t, testutil.People())

	_, _, err := Plan(wb, wb.SheetNames(), PlanOptions{Columns: selector.Named("name", "zip")})
	require.Error(t, err)

	var se *apperr.SelectionError
	require.True(t, errors.As(err, &se), "want SelectionError, got %T", err)
	assert.Contains(t, err.Error(), "People")
	assert.Contains(t, err.Error(), "zip")
}

func TestMissingColumnInSecondSheet(t *testing.T) {
	wb := openWorkbook(t,
		testutil.People(),
		testutil.Sheet{Name: "Orders", Rows: [][]any{{"id", "total"}, {1, 9.5}}},
	)

	_, _, err := Plan(wb, wb.SheetNames(), PlanOptions{Columns: selector.Named("name")})
	var se *apperr.SelectionError
	require.True(t, errors.As(err, &se), "want SelectionError, got %T", err)
	assert.Equal(t, "Orders", se.Sheet)
}

func TestOverwriteIsIdempotent(t *testing.T) {
	wb := openWorkbook(t, testutil.People())
	db := openDB(t)
	opts := Options{Overwrite: true}

	convert(t, db, wb, PlanOptions{}, opts)
	first := queryRows(t, db, `SELECT * FROM "People" ORDER BY id`)
	firstCols := columnTypes(t, db, "People")

	convert(t, db, wb, PlanOptions{}, opts)
	assert.Equal(t, first, queryRows(t, db, `SELECT * FROM "People" ORDER BY id`))
	assert.Equal(t, firstCols, columnTypes(t, db, "People"))

	tables, err := database.ListTables(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"People"}, tables)
}

func TestExistingTableWithoutOverwrite(t *testing.T) {
	wb := openWorkbook(t, testutil.People())
	db := openDB(t)
	ctx := context.Background()

	convert(t, db, wb, PlanOptions{}, Options{})

	plans, _, err := Plan(wb, wb.SheetNames(), PlanOptions{})
	require.NoError(t, err)

	err = CheckExisting(ctx, db, plans, false)
	var te *apperr.TableExistsError
	require.True(t, errors.As(err, &te), "want TableExistsError, got %T", err)
	assert.Equal(t, "People", te.Table)
	assert.Equal(t, "People", te.Sheet)

	// The existing table is untouched.
	assert.Len(t, queryRows(t, db, `SELECT * FROM "People"`), 2)

	assert.NoError(t, CheckExisting(ctx, db, plans, true))
}

func TestExistingDatabaseKeepsOtherTables(t *testing.T) {
	wb := openWorkbook(t, testutil.People())
	db := openDB(t)

	_, err := db.Exec(`CREATE TABLE notes (body TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO notes VALUES ('keep me')`)
	require.NoError(t, err)

	convert(t, db, wb, PlanOptions{}, Options{Overwrite: true})
	convert(t, db, wb, PlanOptions{}, Options{Overwrite: true})

	assert.Equal(t, [][]any{{"keep me"}}, queryRows(t, db, `SELECT body FROM notes`))
	assert.Len(t, queryRows(t, db, `SELECT * FROM "People"`), 2)
}

func TestHeaderOnlySheet(t *testing.T) {
	wb := openWorkbook(t, testutil.Sheet{Name: "Empty", Rows: [][]any{{"a", "b"}}})
	db := openDB(t)

	results := convert(t, db, wb, PlanOptions{}, Options{})
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].RowCount)

	assert.Equal(t, []database.Column{
		{Name: "a", Type: database.TypeText},
		{Name: "b", Type: database.TypeText},
	}, columnTypes(t, db, "Empty"))
	assert.Empty(t, queryRows(t, db, `SELECT * FROM "Empty"`))
}

func TestSheetWithoutHeaderIsSkipped(t *testing.T) {
	wb := openWorkbook(t, testutil.People(), testutil.Sheet{Name: "Blank"})

	plans, skipped, err := Plan(wb, wb.SheetNames(), PlanOptions{})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "People", plans[0].Sheet)
	assert.Equal(t, []string{"Blank"}, skipped)

	_, _, err = Plan(wb, []string{"Blank"}, PlanOptions{Columns: selector.Named("id")})
	var se *apperr.SelectionError
	assert.True(t, errors.As(err, &se), "want SelectionError, got %T", err)
}

func TestNamedSheetWithoutHeaderFails(t *testing.T) {
	wb := openWorkbook(t, testutil.People(), testutil.Sheet{Name: "Blank"})

	_, _, err := Plan(wb, []string{"People", "Blank"}, PlanOptions{Sheets: selector.Named("People", "Blank")})
	var se *apperr.SelectionError
	require.True(t, errors.As(err, &se), "want SelectionError, got %T", err)
	assert.Equal(t, "Blank", se.Sheet)
	assert.Contains(t, err.Error(), "no header row")
}

func TestCellsBeyondHeaderKept(t *testing.T) {
	wb := openWorkbook(t, testutil.Sheet{
		Name: "Wide",
		Rows: [][]any{
			{"a", "b"},
			{1, 2, "extra"},
			{nil, nil, "only here"},
		},
	})
	db := openDB(t)

	results := convert(t, db, wb, PlanOptions{}, Options{})
	assert.Equal(t, 2, results[0].RowCount)

	assert.Equal(t, []database.Column{
		{Name: "a", Type: database.TypeInteger},
		{Name: "b", Type: database.TypeInteger},
		{Name: "EMPTY", Type: database.TypeText},
	}, columnTypes(t, db, "Wide"))
	assert.Equal(t, [][]any{{int64(1), int64(2), "extra"}, {nil, nil, "only here"}},
		queryRows(t, db, `SELECT a, b, "EMPTY" FROM "Wide" ORDER BY rowid`))
}

func TestDatetimeStoredAlikeOnEveryDriver(t *testing.T) {
	when := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, driver := range []string{database.DriverCGO, database.DriverPure} {
		t.Run(driver, func(t *testing.T) {
			wb := openWorkbook(t, testutil.Sheet{
				Name: "Events",
				Rows: [][]any{{"stamp"}, {when}, {when.Add(36 * time.Hour)}},
			})
			db, err := database.Open("", driver)
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })

			convert(t, db, wb, PlanOptions{}, Options{})

			assert.Equal(t, [][]any{
				{"2024-01-02 00:00:00", "text", "2024-01-02"},
				{"2024-01-03 12:00:00", "text", "2024-01-03"},
			}, queryRows(t, db, `SELECT CAST(stamp AS TEXT), typeof(stamp), date(stamp) FROM "Events" ORDER BY rowid`))
		})
	}
}

func TestTypedRoundTrip(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	wb := openWorkbook(t, testutil.Sheet{
		Name: "Data",
		Rows: [][]any{
			{"name", "count", "ratio", "active", "joined", "mixed"},
			{"Ann", 42, 2.5, true, day, 1},
			{"Bo", 7, 3, false, nil, "two"},
			{"Cy", nil, nil, nil, day, nil},
		},
	})
	db := openDB(t)

	convert(t, db, wb, PlanOptions{}, Options{})

	assert.Equal(t, []database.Column{
		{Name: "name", Type: database.TypeText},
		{Name: "count", Type: database.TypeInteger},
		{Name: "ratio", Type: database.TypeReal},
		{Name: "active", Type: database.TypeBoolean},
		{Name: "joined", Type: database.TypeDatetime},
		{Name: "mixed", Type: database.TypeText},
	}, columnTypes(t, db, "Data"))

	var (
		count  int64
		ratio  float64
		active bool
		joined time.Time
		mixed  string
	)
	row := db.QueryRow(`SELECT count, ratio, active, joined, mixed FROM "Data" WHERE name = 'Ann'`)
	require.NoError(t, row.Scan(&count, &ratio, &active, &joined, &mixed))
	assert.Equal(t, int64(42), count)
	assert.Equal(t, 2.5, ratio)
	assert.True(t, active)
	assert.True(t, day.Equal(joined), "joined = %v", joined)
	assert.Equal(t, "1", mixed)

	assert.Equal(t, [][]any{{nil, nil, nil}},
		queryRows(t, db, `SELECT count, ratio, active FROM "Data" WHERE name = 'Cy'`))
}

func TestTextOnlyStreams(t *testing.T) {
	wb := openWorkbook(t, testutil.People())
	db := openDB(t)

	results := convert(t, db, wb, PlanOptions{}, Options{TextOnly: true})
	assert.Equal(t, 2, results[0].RowCount)

	for _, c := range columnTypes(t, db, "People") {
		assert.Equal(t, database.TypeText, c.Type, c.Name)
	}
	assert.Equal(t, [][]any{{"1"}, {"2"}}, queryRows(t, db, `SELECT id FROM "People" ORDER BY id`))
}

func TestSanitizedNames(t *testing.T) {
	wb := openWorkbook(t, testutil.Sheet{
		Name: "Q1 Sales",
		Rows: [][]any{
			{"Test Name", "ID (SECRET)", "order", "1st", "", "Test-Name"},
			{"a", "b", "c", "d", "e", "f"},
		},
	})

	plans, _, err := Plan(wb, wb.SheetNames(), PlanOptions{Lowercase: true})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "q1_sales", plans[0].Table.Name)
	assert.Equal(t,
		[]string{"test_name", "id_secret", "order_", "col_1st", "EMPTY", "test_name_2"},
		plans[0].Table.ColumnNames())
}

func TestNameConflict(t *testing.T) {
	wb := openWorkbook(t,
		testutil.Sheet{Name: "Q1 Sales", Rows: [][]any{{"a"}}},
		testutil.Sheet{Name: "Q1-Sales", Rows: [][]any{{"a"}}},
	)

	_, _, err := Plan(wb, wb.SheetNames(), PlanOptions{})
	var nc *apperr.NameConflictError
	require.True(t, errors.As(err, &nc), "want NameConflictError, got %T", err)
	assert.Equal(t, "Q1_Sales", nc.Name)
	assert.Equal(t, []string{"Q1 Sales", "Q1-Sales"}, nc.Sheets)
}

func TestSelectionReportedBeforeNameConflict(t *testing.T) {
	wb := openWorkbook(t,
		testutil.Sheet{Name: "A B", Rows: [][]any{{"x"}}},
		testutil.Sheet{Name: "A-B", Rows: [][]any{{"y"}}},
	)

	_, _, err := Plan(wb, wb.SheetNames(), PlanOptions{Columns: selector.Named("x")})
	var se *apperr.SelectionError
	assert.True(t, errors.As(err, &se), "want SelectionError, got %T", err)
}

func TestMultipleSheetsInWorkbookOrder(t *testing.T) {
	wb := openWorkbook(t,
		testutil.Sheet{Name: "Zeta", Rows: [][]any{{"v"}, {1}}},
		testutil.Sheet{Name: "Alpha", Rows: [][]any{{"v"}, {2}, {3}}},
	)
	db := openDB(t)

	results := convert(t, db, wb, PlanOptions{}, Options{})
	require.Len(t, results, 2)
	assert.Equal(t, "Zeta", results[0].Sheet)
	assert.Equal(t, 1, results[0].RowCount)
	assert.Equal(t, "Alpha", results[1].Sheet)
	assert.Equal(t, 2, results[1].RowCount)
}

func TestRowCountIndependentOfSelection(t *testing.T) {
	wb := openWorkbook(t, testutil.Sheet{
		Name: "Gaps",
		Rows: [][]any{
			nil,
			{"name", "id", "note"},
			{"Ann", 1},
			nil,
			{nil, nil, "only note"},
			{"Bo", 2},
		},
	})
	db := openDB(t)

	// Blank sheet rows are skipped; a row with no value in the selected
	// columns is kept as NULLs.
	results := convert(t, db, wb, PlanOptions{Columns: selector.Named("name", "id")}, Options{})
	assert.Equal(t, 3, results[0].RowCount)
	assert.Equal(t, [][]any{{"Ann", int64(1)}, {nil, nil}, {"Bo", int64(2)}},
		queryRows(t, db, `SELECT name, id FROM "Gaps" ORDER BY rowid`))

	all := openDB(t)
	results = convert(t, all, wb, PlanOptions{}, Options{})
	assert.Equal(t, 3, results[0].RowCount)
}

func TestIndexes(t *testing.T) {
	wb := openWorkbook(t,
		testutil.People(),
		testutil.Sheet{Name: "Orders", Rows: [][]any{{"total"}, {9.5}}},
	)
	db := openDB(t)

	results := convert(t, db, wb, PlanOptions{Indexes: []string{"id"}}, Options{})
	assert.Equal(t, 1, results[0].Indexes)
	assert.Equal(t, 0, results[1].Indexes)

	assert.Equal(t, [][]any{{"idx_People_id"}},
		queryRows(t, db, `SELECT name FROM sqlite_master WHERE type = 'index'`))
}

func TestCancelledImportLeavesNoTable(t *testing.T) {
	wb := openWorkbook(t, testutil.People())
	db := openDB(t)

	plans, _, err := Plan(wb, wb.SheetNames(), PlanOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ImportSheet(ctx, db.DB, wb, plans[0], Options{}, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	exists, err := database.TableExists(context.Background(), db, "People")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProgressCallbacks(t *testing.T) {
	wb := openWorkbook(t, testutil.People())
	db := openDB(t)

	plans, _, err := Plan(wb, wb.SheetNames(), PlanOptions{})
	require.NoError(t, err)

	var read, written int64
	_, err = ImportSheet(context.Background(), db.DB, wb, plans[0], Options{},
		func(sheet string, n int64) { read = n },
		func(sheet string, n int64) { written = n })
	require.NoError(t, err)
	assert.Equal(t, int64(2), read)
	assert.Equal(t, int64(2), written)
}
