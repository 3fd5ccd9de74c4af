package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"userperf/internal/model"
)

// ReservedPrefix 保留的列名前缀，表头使用该前缀视为非法输入
const ReservedPrefix = "__"

// ParseCSV 解析 CSV 文本为有序行列表，第一行为表头
// 支持引号包裹、双引号转义、引号内换行；短行缺失的尾部值补空字符串
// 解析失败不返回错误：保留已成功解析的行
func ParseCSV(text string) []model.Row {
	headers, records := readRecords(text)
	if len(headers) == 0 {
		return nil
	}

	rows := make([]model.Row, 0, len(records))
	for _, rec := range records {
		row := model.NewRow()
		for i, h := range headers {
			val := ""
			if i < len(rec) {
				val = strings.TrimSpace(rec[i])
			}
			row.Set(h, model.ParseValue(val))
		}
		rows = append(rows, row)
	}
	return rows
}

func readRecords(text string) ([]string, [][]string) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var all [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// 格式异常：停止读取，保留已解析部分
			break
		}
		all = append(all, rec)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return buildHeaders(all[0]), all[1:]
}

// buildHeaders 表头去空白；空表头或使用保留前缀的表头替换为占位名，保证列位置不变
func buildHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" || strings.HasPrefix(h, ReservedPrefix) {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		headers[i] = h
	}
	return headers
}
