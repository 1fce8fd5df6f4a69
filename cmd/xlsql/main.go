// xlsql - spreadsheet to SQL
//
// A Go CLI tool that converts the sheets of an Excel workbook into typed
// tables of a SQLite database.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"github.com/xlsql/xlsql-go/internal/apperr"
	"github.com/xlsql/xlsql-go/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx)
	stop()

	if err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		if kind := apperr.Kind(err); kind != "" {
			_, _ = errorColor.Fprintf(os.Stderr, "Error [%s]: %v\n", kind, err)
		} else {
			_, _ = errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(apperr.ExitCode(err))
	}
}
