package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX decodes the first worksheet of an Excel workbook.
func ReadXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet: %w", err)
	}

	sheet := &Sheet{}
	for i, values := range rows {
		if sheet.Header == nil {
			if isBlank(values) {
				continue
			}
			sheet.Header = cleanHeaders(values)
			continue
		}
		sheet.Records = append(sheet.Records, Record{Line: i + 1, Values: values})
	}

	if sheet.Header == nil {
		return nil, ErrEmptyFile
	}
	return sheet, nil
}
