package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// xlsxSheet 导出工作簿的 Sheet 名
const xlsxSheet = "Data"

// 考勤状态填充色
var statusFills = map[string]string{
	"P":  "#D1FAE5",
	"L":  "#FEE2E2",
	"HD": "#FEF3C7",
}

// BuildXLSX 生成工作簿：表头、数据行、空行、合计行
func BuildXLSX(t Table) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := fillWorkbook(f, t); err != nil {
		_ = f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteXLSX 生成工作簿并写出
func WriteXLSX(w io.Writer, t Table) error {
	f, err := BuildXLSX(t)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func fillWorkbook(f *excelize.File, t Table) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#8B5CF6"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create totals style: %w", err)
	}
	fills := make(map[string]int, len(statusFills))
	for code, color := range statusFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			return fmt.Errorf("create status style: %w", err)
		}
		fills[code] = id
	}

	if len(t.Headers) == 0 {
		return nil
	}

	if err := writeRow(f, 1, toAny(t.Headers)); err != nil {
		return err
	}
	if err := styleRow(f, 1, len(t.Headers), headerStyle); err != nil {
		return err
	}

	rowIdx := 2
	for _, row := range t.Rows {
		values := make([]any, len(t.Headers))
		for i, h := range t.Headers {
			v := StatusCode(row[h])
			values[i] = cellValue(v)
			if id, ok := fills[v]; ok {
				cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx)
				if err := f.SetCellStyle(xlsxSheet, cell, cell, id); err != nil {
					return fmt.Errorf("set status style: %w", err)
				}
			}
		}
		if err := writeRow(f, rowIdx, values); err != nil {
			return err
		}
		rowIdx++
	}

	// 空一行后写合计
	rowIdx++
	totals := totalsRow(t.Headers, ComputeTotals(t.Headers, t.Rows))
	if err := writeRow(f, rowIdx, toAny(totals)); err != nil {
		return err
	}
	if err := styleRow(f, rowIdx, len(t.Headers), totalStyle); err != nil {
		return err
	}

	last, _ := excelize.ColumnNumberToName(len(t.Headers))
	if err := f.SetColWidth(xlsxSheet, "A", last, 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func styleRow(f *excelize.File, row, cols, style int) error {
	start, _ := excelize.CoordinatesToCellName(1, row)
	end, _ := excelize.CoordinatesToCellName(cols, row)
	return f.SetCellStyle(xlsxSheet, start, end, style)
}

// cellValue 纯数字写为数值单元格，其余写文本
func cellValue(v string) any {
	if v == "" {
		return ""
	}
	if n, ok := strictNumber(v); ok {
		return n
	}
	return v
}

func toAny(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
