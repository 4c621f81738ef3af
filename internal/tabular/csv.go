package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV decodes a delimited text file. A UTF-8 BOM is skipped, and the
// delimiter is ';' when the header line contains semicolons but no commas.
// Invalid UTF-8 anywhere in the file fails the whole read with ErrInvalidEncoding.
func ReadCSV(r io.Reader) (*Sheet, error) {
	br := bufio.NewReaderSize(newUTF8Reader(r), 64*1024)

	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	cr := csv.NewReader(br)
	cr.Comma = detectDelimiter(head)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	sheet := &Sheet{}
	for {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, ErrInvalidEncoding) {
				return nil, err
			}
			return nil, fmt.Errorf("invalid csv: %w", err)
		}

		if sheet.Header == nil {
			if isBlank(values) {
				continue
			}
			sheet.Header = cleanHeaders(values)
			continue
		}

		line, _ := cr.FieldPos(0)
		sheet.Records = append(sheet.Records, Record{Line: line, Values: values})
	}

	if sheet.Header == nil {
		return nil, ErrEmptyFile
	}
	return sheet, nil
}

// detectDelimiter inspects the first line of the file.
func detectDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.IndexByte(head, ',') < 0 && bytes.IndexByte(head, ';') >= 0 {
		return ';'
	}
	return ','
}
