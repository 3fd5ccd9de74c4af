package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"userperf/internal/aggregate"
	"userperf/internal/model"
)

// 可导出的视图
const (
	ViewAnnotator   = "annotator"
	ViewUsername    = "username"
	ViewQCAnnotator = "qc-annotator"
	ViewQCUser      = "qc-user"
	ViewAttendance  = "attendance"
	ViewRaw         = "raw"
)

// 汇总表固定列
const (
	ColumnName        = "NAME"
	ColumnFrameCount  = "FRAMECOUNT"
	ColumnObjectCount = "OBJECTCOUNT"
	ColumnErrorCount  = "ERRORCOUNT"
)

// ErrUnknownView 未知视图
var ErrUnknownView = errors.New("unknown view")

// Table 通用二维表：表头 + 按表头取值的行
type Table struct {
	Title   string              `json:"title"`
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
}

// Views 所有视图名
func Views() []string {
	return []string{ViewAnnotator, ViewUsername, ViewQCAnnotator, ViewQCUser, ViewAttendance, ViewRaw}
}

// BuildTable 根据视图名构建导出表
func BuildTable(view string, s aggregate.Summaries, rows model.RowSet) (Table, error) {
	switch view {
	case ViewAnnotator:
		return personTable("Annotator Summary", s.Annotators), nil
	case ViewUsername:
		return personTable("UserName Summary", s.Users), nil
	case ViewQCAnnotator:
		return qcTable("QC (Annotator)", s.QCAnnotators), nil
	case ViewQCUser:
		return qcTable("QC (UserName)", s.QCUsers), nil
	case ViewAttendance:
		return attendanceTable(s.Attendance), nil
	case ViewRaw:
		return RawTable(rows), nil
	default:
		return Table{}, fmt.Errorf("%w: %s (want one of %s)", ErrUnknownView, view, strings.Join(Views(), ", "))
	}
}

func personTable(title string, list []aggregate.PersonSummary) Table {
	t := Table{Title: title, Headers: []string{ColumnName, ColumnFrameCount, ColumnObjectCount}}
	for _, p := range list {
		t.Rows = append(t.Rows, map[string]string{
			ColumnName:        p.Name,
			ColumnFrameCount:  strconv.Itoa(p.FrameCount),
			ColumnObjectCount: formatNumber(p.ObjectCount),
		})
	}
	return t
}

func qcTable(title string, list []aggregate.QCSummary) Table {
	t := Table{Title: title, Headers: []string{ColumnName, ColumnObjectCount, ColumnErrorCount}}
	for _, q := range list {
		t.Rows = append(t.Rows, map[string]string{
			ColumnName:        q.Name,
			ColumnObjectCount: formatNumber(q.ObjectCount),
			ColumnErrorCount:  formatNumber(q.ErrorCount),
		})
	}
	return t
}

func attendanceTable(a aggregate.AttendanceTable) Table {
	t := Table{Title: "Attendance Summary", Headers: a.Headers}
	for _, r := range a.Rows {
		cells := r.Cells(a.Sheets)
		row := make(map[string]string, len(a.Headers))
		for i, h := range a.Headers {
			if i < len(cells) {
				row[h] = cells[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// RawTable 生产原始数据表：表头为所有生产行列名的并集
func RawTable(rows model.RowSet) Table {
	prod := rows.Filter(model.CategoryProduction)
	t := Table{Title: "Raw Intelligence", Headers: prod.Headers()}
	for _, rec := range prod {
		t.Rows = append(t.Rows, rec.Row.Map())
	}
	return t
}

// Filter 表格筛选：全文搜索 + 按列取值
type Filter struct {
	Search  string
	Columns map[string][]string
}

// Apply 返回满足条件的新表（不修改原表）
func (f Filter) Apply(t Table) Table {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := Table{Title: t.Title, Headers: t.Headers}
	for _, row := range t.Rows {
		if search != "" && !rowContains(t.Headers, row, search) {
			continue
		}
		if !f.matchColumns(row) {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func rowContains(headers []string, row map[string]string, search string) bool {
	for _, h := range headers {
		if strings.Contains(strings.ToLower(row[h]), search) {
			return true
		}
	}
	return false
}

func (f Filter) matchColumns(row map[string]string) bool {
	for col, values := range f.Columns {
		if len(values) == 0 {
			continue
		}
		hit := false
		for _, v := range values {
			if row[col] == v {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
