package parser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXLSX flattens every sheet into pipe-delimited rows. Spreadsheet
// uploads are typically case or citation lists; cell layout is not
// preserved beyond row grouping.
func extractXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		for _, row := range rows {
			buf.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
	}

	if buf.Len() == 0 {
		return "", fmt.Errorf("no data found in XLSX")
	}
	return buf.String(), nil
}
