package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultIdentityDomain 默认组织域名（用于补全裸用户名）
const DefaultIdentityDomain = "rprocess.in"

// ReferenceYear Sheet 名中只有日和月，排序时使用的固定年份
const ReferenceYear = 2025

// dateLayouts 支持的日期格式，按常见程度排序
var dateLayouts = []string{
	"2006/01/02",
	"2006-01-02",
	"2006/1/2",
	"2006-1-2",
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"January 2 2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"2-Jan-06",
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"Mon Jan _2 15:04:05 2006",
}

// gviz 导出的日期单元格形如 Date(2025,9,15)，月份从 0 开始
var gvizDateRe = regexp.MustCompile(`^Date\((\d{4}),\s*(\d{1,2}),\s*(\d{1,2})`)

// IsDateHeader 表头是否为日期列（包含 date，大小写不敏感）
func IsDateHeader(header string) bool {
	return ContainsFold(header, "date")
}

// NormalizeDate 日期规范化
// 占位值（空、NIL、-、undefined）返回空字符串；可解析时输出 YYYY/MM/DD；否则原样返回
func NormalizeDate(value string) string {
	s := strings.TrimSpace(value)
	if s == "" || s == "-" || isSentinel(s, "nil", "undefined") {
		return ""
	}
	if t, ok := ParseCalendarDate(s); ok {
		return t.Format("2006/01/02")
	}
	return s
}

// ParseCalendarDate 尝试按已知格式解析日期
func ParseCalendarDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if m := gvizDateRe.FindStringSubmatch(s); len(m) == 4 {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return time.Date(y, time.Month(mo+1), d, 0, 0, 0, 0, time.UTC), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeIdentity 身份规范化：去空白；占位值返回空；不含 @ 时补全组织域名
func NormalizeIdentity(value, domain string) string {
	s := strings.TrimSpace(value)
	if s == "" || isSentinel(s, "undefined", "nil") {
		return ""
	}
	if strings.Contains(s, "@") {
		return s
	}
	if domain == "" {
		domain = DefaultIdentityDomain
	}
	return fmt.Sprintf("%s@%s", s, strings.TrimPrefix(domain, "@"))
}

// LocalPart 去掉身份中的域名部分（用于展示）
func LocalPart(identity string) string {
	local, _, _ := strings.Cut(identity, "@")
	return local
}

var sheetDateRe = regexp.MustCompile(`(\d+)(?:ST|ND|RD|TH)?\s+([A-Z]{3})`)

var monthAbbr = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March, "APR": time.April,
	"MAY": time.May, "JUN": time.June, "JUL": time.July, "AUG": time.August,
	"SEP": time.September, "OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// ParseSheetDate 从 Sheet 名中提取“日 + 月”，例如 "15th OCT Login" -> 2025-10-15
// 无法识别时返回 Unix 纪元（排序最靠前）；未知月份缩写按一月处理
func ParseSheetDate(sheetName string) time.Time {
	m := sheetDateRe.FindStringSubmatch(strings.ToUpper(sheetName))
	if len(m) < 3 {
		return time.Unix(0, 0).UTC()
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	month, ok := monthAbbr[m[2]]
	if !ok {
		month = time.January
	}
	return time.Date(ReferenceYear, month, day, 0, 0, 0, 0, time.UTC)
}
