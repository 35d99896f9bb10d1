package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel renders spreadsheet schedules (rate cards, pricing annexes) as
// tab-separated lines. Blank rows and trailing empty cells are dropped; a sheet
// that cannot be read is skipped with a warning. Units is the sheet count.
func extractExcel(content []byte) Result {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return failed(fmt.Errorf("open spreadsheet: %w", err))
	}
	defer f.Close()

	var (
		lines    []string
		warnings []string
	)
	sheets := f.GetSheetList()
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("sheet %q: %v", sheet, err))
			continue
		}
		for _, row := range rows {
			if line := rowText(row); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return finish(strings.Join(lines, "\n"), len(sheets), warnings)
}

func rowText(cells []string) string {
	end := len(cells)
	for end > 0 && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}
	return strings.TrimSpace(strings.Join(cells[:end], "\t"))
}
