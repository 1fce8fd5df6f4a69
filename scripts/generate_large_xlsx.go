package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/xuri/excelize/v2"
)

func main() {
	var (
		rows       = flag.Int("rows", 100000, "Number of rows to generate")
		cols       = flag.Int("cols", 10, "Number of columns")
		sheets     = flag.Int("sheets", 1, "Number of sheets")
		output     = flag.String("output", "large_data.xlsx", "Output file path (.gz compresses)")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		flushEvery = flag.Int("flush-every", 100000, "Print progress every N rows")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	f := excelize.NewFile()
	defer f.Close()

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		fatalf("Error creating date style: %v\n", err)
	}

	for s := 0; s < *sheets; s++ {
		name := fmt.Sprintf("Data %d", s+1)
		if s == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				fatalf("Error renaming sheet: %v\n", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			fatalf("Error creating sheet: %v\n", err)
		}

		sw, err := f.NewStreamWriter(name)
		if err != nil {
			fatalf("Error creating stream writer: %v\n", err)
		}

		// Generate header
		header := make([]interface{}, *cols)
		for i := 0; i < *cols; i++ {
			header[i] = fmt.Sprintf("col%d", i+1)
		}
		if err := sw.SetRow("A1", header); err != nil {
			fatalf("Error writing header: %v\n", err)
		}

		// Generate rows
		base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < *rows; i++ {
			row := make([]interface{}, *cols)
			for j := 0; j < *cols; j++ {
				// Generate varied data types
				switch j % 5 {
				case 0: // Integer
					row[j] = rng.Intn(1000000)
				case 1: // Float
					row[j] = float64(rng.Intn(100000)) / 100
				case 2: // String
					row[j] = fmt.Sprintf("value_%d_%d", i, j)
				case 3: // Boolean
					row[j] = rng.Intn(2) == 1
				case 4: // Date
					row[j] = excelize.Cell{StyleID: dateStyle, Value: base.AddDate(0, 0, rng.Intn(2000))}
				}
			}

			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				fatalf("Error naming cell: %v\n", err)
			}
			if err := sw.SetRow(cell, row); err != nil {
				fatalf("Error writing row: %v\n", err)
			}
			if (i+1)%*flushEvery == 0 {
				fmt.Fprintf(os.Stderr, "Generated %d rows in '%s'...\n", i+1, name)
			}
		}

		if err := sw.Flush(); err != nil {
			fatalf("Error flushing sheet: %v\n", err)
		}
	}

	file, err := os.Create(*output)
	if err != nil {
		fatalf("Error creating file: %v\n", err)
	}
	defer file.Close()

	var w io.Writer = file
	var gzWriter *gzip.Writer
	if strings.HasSuffix(strings.ToLower(*output), ".gz") {
		gzWriter = gzip.NewWriter(file)
		w = gzWriter
	}
	if _, err := f.WriteTo(w); err != nil {
		fatalf("Error writing workbook: %v\n", err)
	}
	if gzWriter != nil {
		if err := gzWriter.Close(); err != nil {
			fatalf("Error closing gzip: %v\n", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Successfully generated %d sheet(s) of %d rows with %d columns in %s\n", *sheets, *rows, *cols, *output)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
