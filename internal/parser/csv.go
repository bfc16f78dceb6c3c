package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// rowsPerPage groups data rows so long sheets read as several pages.
const rowsPerPage = 20

// CSVParser handles CSV files. Each page lists up to rowsPerPage rows as
// "header: value" pairs.
type CSVParser struct{}

func (p *CSVParser) Open(path string) (Document, error) {
	return readPages(path, parseCSV)
}

func parseCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := records[0]
	dataRows := records[1:]

	var out []string
	for i := 0; i < len(dataRows); i += rowsPerPage {
		end := min(i+rowsPerPage, len(dataRows))

		var text strings.Builder
		for _, row := range dataRows[i:end] {
			for j, cell := range row {
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
				if j < len(row)-1 {
					text.WriteString(", ")
				}
			}
			text.WriteString(".\n")
		}
		out = append(out, text.String())
	}
	return out, nil
}
