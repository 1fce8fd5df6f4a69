// Package cli provides the command-line interface for xlsql.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xlsql/xlsql-go/internal/apperr"
	"github.com/xlsql/xlsql-go/internal/config"
	"github.com/xlsql/xlsql-go/internal/database"
	"github.com/xlsql/xlsql-go/internal/exporter"
	"github.com/xlsql/xlsql-go/internal/importer"
	"github.com/xlsql/xlsql-go/internal/selector"
	"github.com/xlsql/xlsql-go/internal/workbook"
)

var (
	// Colors for output
	successColor = color.New(color.FgGreen, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xlsql [flags] WORKBOOK DATABASE",
		Short: "Convert Excel workbooks into SQLite tables",
		Long: `xlsql - spreadsheet to SQL

Reads an .xlsx workbook and writes every selected sheet into its own typed
table of a SQLite database file.

Features:
  • One table per sheet, columns named after the header row
  • Column types inferred from the data (INTEGER, REAL, BOOLEAN, DATETIME, TEXT)
  • Select sheets and columns, optionally overwrite an existing database
  • Compressed workbooks (.gz, .bz2, .xz, .zst)
  • Query the result and export it as CSV/TSV

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error
  10 - Workbook not found
  11 - Workbook could not be read
  12 - Requested sheet or column not found
  13 - Output database or table already exists (use --overwrite)
  14 - Two sheets map to the same table name
  15 - Database write failed`,
		Example: `  # Convert every sheet
  xlsql book.xlsx book.db

  # Convert two columns of one sheet, replacing the existing table
  xlsql -s People -c name,id --overwrite book.xlsx book.db

  # Convert and query in one command
  xlsql book.xlsx book.db -q "SELECT name FROM People WHERE id > 1" -o names.tsv`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return &apperr.UsageError{Err: err}
			}
			return nil
		},
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCommand,
	}

	cmd.Flags().StringSliceP("sheet", "s", []string{}, "Sheet(s) to convert, comma-separated (default: all sheets)")
	cmd.Flags().StringSliceP("column", "c", []string{}, "Column(s) to convert in every selected sheet, comma-separated (default: all columns)")
	cmd.Flags().StringSliceP("index", "i", []string{}, "Column(s) to index in every table that has them, comma-separated")
	cmd.Flags().BoolP("overwrite", "f", false, "Write into an existing database, replacing tables that already exist")
	cmd.Flags().BoolP("lowercase", "l", false, "Lowercase table and column names")
	cmd.Flags().Bool("text-only", false, "Declare every column TEXT and stream rows without type inference")
	cmd.Flags().String("driver", database.DefaultDriver, "SQLite driver: 'sqlite3' (cgo) or 'sqlite' (pure Go)")
	cmd.Flags().StringP("query", "q", "", "SQL query to execute after conversion")
	cmd.Flags().StringP("output", "o", "", "Query output CSV/TSV file path (default: stdout)")
	cmd.Flags().String("delimiter", "auto", "Query output delimiter: 'comma', 'tab', or 'auto' (default: auto)")
	cmd.Flags().String("config", config.ConfigFileName, "YAML config file")
	cmd.Flags().BoolP("verbose", "v", false, "Show per-sheet progress and column types")
	cmd.Flags().Bool("debug", false, "Log import details")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &apperr.UsageError{Err: err}
	})
	cmd.SetVersionTemplate("xlsql {{.Version}}\n")
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg := &config.Config{
		InputFile: args[0],
		DBPath:    args[1],
	}

	// Get flags
	cfg.Sheets, _ = cmd.Flags().GetStringSlice("sheet")
	cfg.Columns, _ = cmd.Flags().GetStringSlice("column")
	cfg.IndexColumns, _ = cmd.Flags().GetStringSlice("index")
	cfg.Overwrite, _ = cmd.Flags().GetBool("overwrite")
	cfg.Lowercase, _ = cmd.Flags().GetBool("lowercase")
	cfg.TextOnly, _ = cmd.Flags().GetBool("text-only")
	cfg.Driver, _ = cmd.Flags().GetString("driver")
	cfg.SQLQuery, _ = cmd.Flags().GetString("query")
	cfg.OutputFile, _ = cmd.Flags().GetString("output")
	cfg.Verbose, _ = cmd.Flags().GetBool("verbose")
	cfg.Debug, _ = cmd.Flags().GetBool("debug")
	delimiterStr, _ := cmd.Flags().GetString("delimiter")
	configPath, _ := cmd.Flags().GetString("config")

	// Environment first, then the config file; explicit flags win over both.
	changed := cmd.Flags().Changed
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg, changed); err != nil {
		return &apperr.UsageError{Err: err}
	}
	fileCfg, err := config.LoadFile(configPath)
	switch {
	case err == nil:
		fileCfg.Apply(cfg, changed)
	case errors.Is(err, config.ErrConfigNotFound) && !changed("config"):
		// The default config file is optional.
	default:
		return &apperr.UsageError{Err: fmt.Errorf("failed to load %s: %w", configPath, err)}
	}

	driver, err := config.ParseDriver(cfg.Driver)
	if err != nil {
		return &apperr.UsageError{Err: err}
	}
	cfg.Driver = driver

	delimiter, err := config.ParseDelimiter(delimiterStr)
	if err != nil {
		return &apperr.UsageError{Err: err}
	}
	cfg.Delimiter = delimiter

	// Validate inputs
	if err := cfg.Validate(); err != nil {
		return &apperr.UsageError{Err: err}
	}

	return run(cmd.Context(), cfg, cmd.ErrOrStderr())
}

// run converts the workbook, then runs the optional query. Status lines go
// to out; query results go to cfg.OutputFile or stdout.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if cfg.Debug {
		log.Printf("[XLSQL] Converting %s into %s (driver %s)", cfg.InputFile, cfg.DBPath, cfg.Driver)
	}

	wb, err := workbook.Open(cfg.InputFile)
	if err != nil {
		return err
	}
	defer wb.Close()

	infoColor.Fprintf(out, "Reading workbook: %s\n", cfg.InputFile)

	// Every selection and naming check happens before the database is touched.
	sheets, err := selector.Sheets(cfg.SheetSelection(), wb.SheetNames())
	if err != nil {
		return err
	}
	plans, skipped, err := importer.Plan(wb, sheets, importer.PlanOptions{
		Sheets:    cfg.SheetSelection(),
		Columns:   cfg.ColumnSelection(),
		Indexes:   cfg.IndexColumns,
		Lowercase: cfg.Lowercase,
	})
	if err != nil {
		return err
	}
	for _, sheet := range skipped {
		warnColor.Fprintf(out, "Warning: sheet '%s' has no header row, skipped\n", sheet)
	}

	if err := checkOutput(cfg.DBPath, cfg.Overwrite); err != nil {
		return err
	}

	db, err := database.Open(cfg.DBPath, cfg.Driver)
	if err != nil {
		return &apperr.WriteError{Path: cfg.DBPath, Op: "open", Err: err}
	}
	defer db.Close()

	if err := importer.CheckExisting(ctx, db, plans, cfg.Overwrite); err != nil {
		return err
	}

	infoColor.Fprintf(out, "Opening database: %s\n", db.Path)

	progress := NewProgressTracker(out, cfg.Verbose && isTerminal(out))
	defer progress.Stop()

	opts := importer.Options{
		Overwrite: cfg.Overwrite,
		TextOnly:  cfg.TextOnly,
		Debug:     cfg.Debug,
	}
	var results []*importer.Result
	for _, plan := range plans {
		progress.StartSheet(plan.Sheet, plan.Table.Name)

		result, err := importer.ImportSheet(ctx, db.DB, wb, plan, opts, progress.UpdateRead, progress.UpdateWrite)
		if err != nil {
			progress.Error(plan.Sheet, err)
			return err
		}
		progress.FinishSheet(result)

		if !progress.Enabled() {
			infoColor.Fprintf(out, "  Imported %d rows from sheet '%s' into table '%s'\n", result.RowCount, result.Sheet, result.TableName)
		}
		results = append(results, result)
	}
	progress.Stop()

	if cfg.Verbose {
		for _, result := range results {
			infoColor.Fprintf(out, "Table '%s':\n", result.TableName)
			for _, c := range result.Columns {
				infoColor.Fprintf(out, "    %s %s\n", c.Name, c.Type)
			}
		}
		tables, err := database.ListTables(ctx, db)
		if err != nil {
			return err
		}
		infoColor.Fprintf(out, "Database tables: %s\n", strings.Join(tables, ", "))
	}

	successColor.Fprintf(out, "✓ Converted %d sheet(s) into %s\n", len(plans), cfg.DBPath)

	// Execute SQL query and export results
	if cfg.SQLQuery != "" {
		outputDelimiter := cfg.Delimiter
		if outputDelimiter == 0 {
			outputDelimiter = exporter.DetectOutputDelimiter(cfg.OutputFile)
		}

		infoColor.Fprintf(out, "Executing query...\n")
		result, err := exporter.Execute(ctx, db, cfg.SQLQuery, cfg.OutputFile, outputDelimiter)
		if err != nil {
			return err
		}
		infoColor.Fprintf(out, "  Exported %d rows\n", result.RowCount)
		if cfg.OutputFile != "" {
			successColor.Fprintf(out, "✓ Query results exported to %s\n", cfg.OutputFile)
		}
	}

	return nil
}

// checkOutput refuses an existing output database unless overwrite is set.
// With overwrite, conflicting tables are replaced and the rest are kept.
func checkOutput(path string, overwrite bool) error {
	if path == "" || overwrite {
		return nil
	}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return &apperr.TableExistsError{Path: path}
	case errors.Is(err, fs.ErrNotExist):
		return nil
	}
	return &apperr.WriteError{Path: path, Op: "inspect", Err: err}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
