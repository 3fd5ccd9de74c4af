package export

import (
	"bufio"
	"io"
	"strings"

	"userperf/internal/aggregate"
)

// GrandTotalsLabel 合计行首列文本
const GrandTotalsLabel = "GRAND TOTALS"

// statusCodes 考勤状态在导出文件中的缩写
var statusCodes = map[string]string{
	aggregate.StatusPresent: "P",
	aggregate.StatusAbsent:  "L",
	aggregate.StatusHalfDay: "HD",
}

// StatusCode 考勤状态缩写，非考勤值原样返回
func StatusCode(v string) string {
	if code, ok := statusCodes[v]; ok {
		return code
	}
	return v
}

// WriteCSV 写出 CSV：表头、数据行、空行、合计行；每个字段都加引号
func WriteCSV(w io.Writer, t Table) error {
	bw := bufio.NewWriter(w)
	totals := ComputeTotals(t.Headers, t.Rows)

	lines := make([][]string, 0, len(t.Rows)+3)
	lines = append(lines, t.Headers)
	for _, row := range t.Rows {
		cells := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			cells[i] = StatusCode(row[h])
		}
		lines = append(lines, cells)
	}
	lines = append(lines, make([]string, len(t.Headers)))
	lines = append(lines, totalsRow(t.Headers, totals))

	for i, cells := range lines {
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(quoteRecord(cells)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func totalsRow(headers []string, totals Totals) []string {
	cells := make([]string, len(headers))
	for i, h := range headers {
		if i == 0 {
			cells[i] = GrandTotalsLabel
			continue
		}
		if tot, ok := totals.Columns[h]; ok {
			cells[i] = tot.Text()
		}
	}
	return cells
}

func quoteRecord(cells []string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
