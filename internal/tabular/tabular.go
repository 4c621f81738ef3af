// Package tabular decodes uploaded spreadsheets into a header and ordered records.
//
// Two formats are supported: comma (or semicolon) separated text and Excel
// workbooks. The whole file is decoded before any record is returned, so a
// corrupt file is always reported before the first row is processed.
package tabular

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyFile is returned when the file has no header row.
	ErrEmptyFile = errors.New("empty file: no header row found")

	// ErrInvalidEncoding is returned when a text file is not valid UTF-8.
	ErrInvalidEncoding = errors.New("encoding error: file is not valid UTF-8")
)

// Format identifies a supported file format.
type Format int

const (
	FormatCSV Format = iota
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	default:
		return "csv"
	}
}

// Sheet is a fully decoded file.
type Sheet struct {
	Header  []string
	Records []Record
}

// Record is one data line with its 1-based line number in the source file.
type Record struct {
	Line   int
	Values []string
}

// DetectFormat picks the decoder from the file name. Unknown extensions are read as CSV.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Read decodes r according to the format implied by name.
func Read(name string, r io.Reader) (*Sheet, error) {
	switch DetectFormat(name) {
	case FormatXLSX:
		return ReadXLSX(r)
	default:
		return ReadCSV(r)
	}
}

// CleanHeader removes spreadsheet export artifacts from a header cell:
// surrounding whitespace, an Excel formula prefix (="...") and stray quotes.
func CleanHeader(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

func cleanHeaders(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = CleanHeader(h)
	}
	return out
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
