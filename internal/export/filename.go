package export

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	spaceRunsRe  = regexp.MustCompile(`\s+`)
	nonASCIIName = regexp.MustCompile(`[^a-zA-Z0-9_.()\-]`)
)

// FileName 导出文件名，如 annotator_summary_2025-10-15.csv
func FileName(title, ext string, now time.Time) string {
	base := spaceRunsRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "_")
	if base == "" {
		base = "export"
	}
	return fmt.Sprintf("%s_%s.%s", base, now.Format("2006-01-02"), ext)
}

// ContentDisposition 下载响应头：ASCII 文件名 + UTF-8 编码文件名
func ContentDisposition(filename string) string {
	ascii := nonASCIIName.ReplaceAllString(filename, "_")
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", ascii, url.PathEscape(filename))
}
