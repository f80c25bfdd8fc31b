package parser

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var spreadsheetContentTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel":                                          true,
}

// SpreadsheetParser renders every sheet as a markdown table.
type SpreadsheetParser struct{}

func (SpreadsheetParser) CanParse(contentType string) bool {
	return spreadsheetContentTypes[contentType]
}

func (SpreadsheetParser) Parse(ctx context.Context, filename string, data []byte) (Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	sheetNames := []string{}
	rowCounts := []string{}

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", sheet)
		for i, row := range rows {
			b.WriteString("| " + strings.Join(row, " | ") + " |\n")
			if i == 0 {
				b.WriteString(strings.Repeat("| --- ", len(row)) + "|\n")
			}
		}
		b.WriteString("\n")
		sheetNames = append(sheetNames, sheet)
		rowCounts = append(rowCounts, strconv.Itoa(len(rows)))
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		return Result{}, fmt.Errorf("no data found in spreadsheet")
	}

	return Result{
		Content: content,
		Metadata: map[string]string{
			"sheets":            strings.Join(sheetNames, ","),
			"rowsPerSheet":      strings.Join(rowCounts, ","),
			"extraction_method": "structured",
		},
		ExtractMode: "structured",
	}, nil
}
