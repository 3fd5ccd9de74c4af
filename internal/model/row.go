package model

import (
	"math"
	"strconv"
	"strings"
)

// ValueKind 单元格值类型
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindString
	KindNumber
)

// Value 单元格值（带类型标记的标量）
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
}

// EmptyValue 空值
func EmptyValue() Value {
	return Value{Kind: KindEmpty}
}

// StringValue 文本值
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NumberValue 数值
func NumberValue(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

// ParseValue 根据文本内容推断类型：空白为 Empty，可解析为数字为 Number，其余为 String
func ParseValue(text string) Value {
	if text == "" {
		return EmptyValue()
	}
	if n, err := strconv.ParseFloat(text, 64); err == nil && finite(n) && !strings.ContainsAny(text, "xXpP_") {
		return Value{Kind: KindNumber, Num: n, Str: text}
	}
	return StringValue(text)
}

// IsEmpty 是否为空
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty
}

// String 返回单元格文本；数值保留原始文本，没有原始文本时按最短形式输出
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		if v.Str != "" {
			return v.Str
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// Float 数值视图，非数字按 0 处理
func (v Value) Float() float64 {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindString:
		return ParseNumber(v.Str)
	default:
		return 0
	}
}

// ParseNumber 宽松解析数字：取最长的合法数字前缀，失败返回 0
func ParseNumber(text string) float64 {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		if !finite(n) {
			return 0
		}
		return n
	}
	end := 0
	seenDigit, seenDot := false, false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
			end = i + 1
		case r == '.' && !seenDot:
			seenDot = true
		case (r == '-' || r == '+') && i == 0:
		default:
			if !seenDigit {
				return 0
			}
			n, _ := strconv.ParseFloat(s[:end], 64)
			return n
		}
	}
	if !seenDigit {
		return 0
	}
	n, _ := strconv.ParseFloat(s[:end], 64)
	return n
}

func finite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}

// Row 一行数据：保持列顺序的 列名 -> 值 映射
type Row struct {
	headers []string
	values  map[string]Value
}

// NewRow 创建空行
func NewRow() Row {
	return Row{values: make(map[string]Value)}
}

// Set 设置列值；新列追加到末尾，已有列原位覆盖
func (r *Row) Set(header string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[header]; !ok {
		r.headers = append(r.headers, header)
	}
	r.values[header] = v
}

// Get 读取列值，列不存在时返回空值
func (r Row) Get(header string) Value {
	if v, ok := r.values[header]; ok {
		return v
	}
	return EmptyValue()
}

// Has 列是否存在
func (r Row) Has(header string) bool {
	_, ok := r.values[header]
	return ok
}

// Text 读取列文本并去除首尾空白
func (r Row) Text(header string) string {
	if header == "" {
		return ""
	}
	return strings.TrimSpace(r.Get(header).String())
}

// Headers 按原始顺序返回列名
func (r Row) Headers() []string {
	out := make([]string, len(r.headers))
	copy(out, r.headers)
	return out
}

// Len 列数
func (r Row) Len() int {
	return len(r.headers)
}

// At 按位置读取（列名, 值），越界返回空
func (r Row) At(i int) (string, Value) {
	if i < 0 || i >= len(r.headers) {
		return "", EmptyValue()
	}
	h := r.headers[i]
	return h, r.values[h]
}

// TextAt 按位置读取文本
func (r Row) TextAt(i int) string {
	_, v := r.At(i)
	return strings.TrimSpace(v.String())
}

// Map 导出为普通 map（用于 JSON 输出）
func (r Row) Map() map[string]string {
	out := make(map[string]string, len(r.headers))
	for _, h := range r.headers {
		out[h] = r.values[h].String()
	}
	return out
}

// Provenance 行来源信息（项目、类别、Sheet）
type Provenance struct {
	ProjectID   string   `json:"projectId"`
	ProjectName string   `json:"projectName"`
	Category    Category `json:"category"`
	SheetName   string   `json:"sheetName"`
}

// Record 带来源信息的一行数据
type Record struct {
	Provenance Provenance
	Row        Row
}

// RowSet 合并后的统一行集合
type RowSet []Record

// Headers 所有行列名的并集（按首次出现顺序）
func (s RowSet) Headers() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range s {
		for _, h := range rec.Row.headers {
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	return out
}

// Filter 按类别过滤
func (s RowSet) Filter(category Category) RowSet {
	var out RowSet
	for _, rec := range s {
		if rec.Provenance.Category == category {
			out = append(out, rec)
		}
	}
	return out
}
