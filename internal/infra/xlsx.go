package infra

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of generated workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet is one tab of an exported workbook.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// BuildWorkbook renders sheets in order into an xlsx document. Each sheet
// gets a bold header row, an autofilter and a frozen first row.
func BuildWorkbook(sheets []Sheet) (*bytes.Buffer, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx: no sheets")
	}
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E8EEF7"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx: header style: %w", err)
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return nil, err
		}

		for c, h := range sh.Headers {
			cell, _ := excelize.CoordinatesToCellName(c+1, 1)
			if err := f.SetCellValue(sh.Name, cell, h); err != nil {
				return nil, err
			}
		}
		for r, row := range sh.Rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sh.Name, cell, &row); err != nil {
				return nil, err
			}
		}

		if n := len(sh.Headers); n > 0 {
			last, _ := excelize.CoordinatesToCellName(n, 1)
			lastCol, _ := excelize.ColumnNumberToName(n)
			_ = f.SetCellStyle(sh.Name, "A1", last, headerStyle)
			_ = f.SetColWidth(sh.Name, "A", lastCol, 18)
			_ = f.AutoFilter(sh.Name, "A1:"+last, []excelize.AutoFilterOptions{})
			_ = f.SetPanes(sh.Name, &excelize.Panes{Freeze: true, Split: false, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
		}
	}
	f.SetActiveSheet(0)

	return f.WriteToBuffer()
}
