package parser

import (
	"regexp"
	"strings"
)

var (
	keySeparatorRe  = regexp.MustCompile(`[\s\-_]+`)
	spreadsheetIDRe = regexp.MustCompile(`/d/([a-zA-Z0-9\-_]+)`)
)

// NormalizeKey 规范化列名用于模糊匹配：转小写，去除空白、连字符、下划线
func NormalizeKey(name string) string {
	return strings.TrimSpace(keySeparatorRe.ReplaceAllString(strings.ToLower(name), ""))
}

// ExtractSpreadsheetID 从完整 URL 中提取表格 ID（/d/<ID>/），否则原样返回去空白后的输入
func ExtractSpreadsheetID(input string) string {
	if m := spreadsheetIDRe.FindStringSubmatch(input); len(m) >= 2 && m[1] != "" {
		return m[1]
	}
	return strings.TrimSpace(input)
}

// ContainsFold 大小写不敏感的子串判断
func ContainsFold(text, sub string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(sub))
}

// isSentinel 判断是否为占位值（大小写不敏感）
func isSentinel(s string, sentinels ...string) bool {
	for _, v := range sentinels {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
