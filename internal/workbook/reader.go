package workbook

import (
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// compressionExts lists the trailing extensions OpenFile decompresses.
var compressionExts = map[string]bool{
	".gz":  true,
	".bz2": true,
	".xz":  true,
	".zst": true,
}

// IsCompressed reports whether filePath ends in a supported compression extension.
func IsCompressed(filePath string) bool {
	return compressionExts[strings.ToLower(filepath.Ext(filePath))]
}

// StripCompressionExt removes compression extensions, so "book.xlsx.gz"
// becomes "book.xlsx".
func StripCompressionExt(filePath string) string {
	path := filePath
	for IsCompressed(path) {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}
	return path
}

// OpenFile opens a file, handling compression automatically based on extension.
// Supports .gz (gzip), .bz2 (bzip2), .xz and .zst (zstandard).
func OpenFile(filePath string) (io.ReadCloser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".gz":
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return &compressedFile{file: file, reader: gzReader, close: gzReader.Close}, nil
	case ".bz2":
		return &compressedFile{file: file, reader: bzip2.NewReader(file)}, nil
	case ".xz":
		xzReader, err := xz.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return &compressedFile{file: file, reader: xzReader}, nil
	case ".zst":
		zstdReader, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return &compressedFile{file: file, reader: zstdReader, close: func() error {
			zstdReader.Close()
			return nil
		}}, nil
	default:
		return file, nil
	}
}

// compressedFile wraps a decompressing reader and its file to close both.
type compressedFile struct {
	file   *os.File
	reader io.Reader
	close  func() error
}

func (c *compressedFile) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

func (c *compressedFile) Close() error {
	if c.close != nil {
		c.close()
	}
	return c.file.Close()
}
