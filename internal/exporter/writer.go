// Package exporter runs a SQL query against the converted database and
// writes the result set as CSV or TSV.
package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// OpenOutputFile opens an output file, handling compression automatically based on extension.
// If filePath is empty, returns a writer on os.Stdout that is not closed.
func OpenOutputFile(filePath string) (io.WriteCloser, error) {
	if filePath == "" {
		return nopCloser{os.Stdout}, nil
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == ".bz2" {
		return nil, fmt.Errorf("bzip2 output compression is not supported, use .gz, .zst or .xz instead")
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	switch ext {
	case ".gz":
		return &compressedWriter{file: file, writer: gzip.NewWriter(file)}, nil
	case ".zst":
		zw, err := zstd.NewWriter(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return &compressedWriter{file: file, writer: zw}, nil
	case ".xz":
		xw, err := xz.NewWriter(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return &compressedWriter{file: file, writer: xw}, nil
	default:
		return file, nil
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// compressedWriter wraps a compressing writer and its file to close both properly.
type compressedWriter struct {
	file   *os.File
	writer io.WriteCloser
}

func (c *compressedWriter) Write(p []byte) (int, error) {
	return c.writer.Write(p)
}

func (c *compressedWriter) Close() error {
	if err := c.writer.Close(); err != nil {
		c.file.Close()
		return err
	}
	return c.file.Close()
}

var compressionExts = map[string]bool{".gz": true, ".bz2": true, ".xz": true, ".zst": true}

// DetectOutputDelimiter detects the output delimiter based on file extension.
// Returns ',' for CSV files and '\t' for TSV files.
func DetectOutputDelimiter(filePath string) rune {
	if filePath == "" {
		return ','
	}

	// Strip compression extensions first
	path := filePath
	for compressionExts[strings.ToLower(filepath.Ext(path))] {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}

	if strings.ToLower(filepath.Ext(path)) == ".tsv" {
		return '\t'
	}
	return ','
}
