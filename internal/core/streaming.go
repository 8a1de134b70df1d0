package core

// streaming.go reads uploaded files into text.
//
// Uploads are read whole: the parsers work on complete text. The reader
// stack handles the encoding issues browsers and spreadsheet exports produce:
//
//   - UTF-8 BOM (0xEF 0xBB 0xBF) from Windows tools is stripped
//   - UTF-16 LE/BE files with a BOM are transcoded to UTF-8
//   - invalid UTF-8 sequences become U+FFFD
//
// Use ReadFileContent to apply all transforms with a size limit.

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxFileSize is the default upload size limit (100MB).
var MaxFileSize int64 = 100 * 1024 * 1024

// extensionTypes resolves content types that the system MIME table may lack.
var extensionTypes = map[string]string{
	".csv":  "text/csv",
	".json": "application/json",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// StreamingCountingReader tracks bytes read and fails once limit is passed.
type StreamingCountingReader struct {
	reader io.Reader
	limit  int64
	read   int64
}

// NewStreamingCountingReader wraps r. A limit <= 0 disables the check.
func NewStreamingCountingReader(r io.Reader, limit int64) *StreamingCountingReader {
	return &StreamingCountingReader{reader: r, limit: limit}
}

// Read implements io.Reader.
func (c *StreamingCountingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.read += int64(n)
	if c.limit > 0 && c.read > c.limit {
		return n, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, c.limit)
	}
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (c *StreamingCountingReader) BytesRead() int64 {
	return c.read
}

// WrapForStreaming returns a reader that decodes r to UTF-8 text.
// The BOM, if any, selects the source encoding; UTF-8 is assumed otherwise.
func WrapForStreaming(r io.Reader) io.Reader {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return transform.NewReader(r, decoder)
}

// ReadFileContent reads the entire upload as UTF-8 text.
// Any read failure is fatal for the file; maxBytes <= 0 means no limit.
func ReadFileContent(r io.Reader, maxBytes int64) (string, error) {
	if r == nil {
		return "", fmt.Errorf("%w: no content", ErrFileRead)
	}

	counting := NewStreamingCountingReader(r, maxBytes)
	data, err := io.ReadAll(WrapForStreaming(counting))
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrFileRead, err)
	}
	return string(data), nil
}

// DetectContentType resolves a content type from a filename extension.
// Returns "" for unknown extensions.
func DetectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ""
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}
