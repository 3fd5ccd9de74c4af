package parser

import (
	"strings"

	"userperf/internal/model"
)

// categoryKeywords 各类别 Sheet 名关键词（小写，子串匹配）
var categoryKeywords = map[model.Category][]string{
	model.CategoryProduction: {"production", "qc"},
	model.CategoryHourly:     {"login", "attendance"},
}

// SheetRecognitionResult Sheet 识别结果
type SheetRecognitionResult struct {
	SheetName string         `json:"sheetName"`
	Category  model.Category `json:"category"`
	Matched   bool           `json:"matched"`
	Keyword   string         `json:"keyword,omitempty"`
}

// SheetRecognizer 按类别关键词识别 Sheet
type SheetRecognizer struct {
	keywords map[model.Category][]string
}

// NewSheetRecognizer 创建识别器
func NewSheetRecognizer() *SheetRecognizer {
	return &SheetRecognizer{keywords: categoryKeywords}
}

// Recognize 判断 Sheet 名是否属于指定类别
func (r *SheetRecognizer) Recognize(sheetName string, category model.Category) SheetRecognitionResult {
	result := SheetRecognitionResult{
		SheetName: sheetName,
		Category:  category,
	}
	if sheetName == "" || strings.HasPrefix(sheetName, ReservedPrefix) {
		return result
	}

	lower := strings.ToLower(sheetName)
	for _, kw := range r.keywords[category] {
		if strings.Contains(lower, kw) {
			result.Matched = true
			result.Keyword = kw
			return result
		}
	}
	return result
}

// Filter 过滤出属于指定类别的 Sheet 名（保持顺序、去重）
func (r *SheetRecognizer) Filter(names []string, category model.Category) []string {
	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		if r.Recognize(name, category).Matched {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
