package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"userperf/internal/aggregate"
	"userperf/internal/parser"
)

// TotalKind 合计类型
type TotalKind string

const (
	TotalCount      TotalKind = "count"
	TotalSum        TotalKind = "sum"
	TotalAttendance TotalKind = "attendance"
)

// sumKeys 始终求和的列（规范化列名）
var sumKeys = map[string]struct{}{
	"framecount":              {},
	"objectcount":             {},
	"errorcount":              {},
	"numberofobjectannotated": {},
}

// AttendanceCount 考勤状态计数
type AttendanceCount struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Half    int `json:"half"`
}

// Total 单列合计
type Total struct {
	Kind       TotalKind       `json:"kind"`
	Value      float64         `json:"value"`
	Attendance AttendanceCount `json:"attendance"`
}

// Text 合计的展示文本
func (t Total) Text() string {
	if t.Kind == TotalAttendance {
		return fmt.Sprintf("P: %d | L: %d | HD: %d", t.Attendance.Present, t.Attendance.Absent, t.Attendance.Half)
	}
	return formatNumber(t.Value)
}

// Totals 表格合计
type Totals struct {
	Columns map[string]Total `json:"columns"`
	Overall *AttendanceCount `json:"overall,omitempty"`
}

// ComputeTotals 计算各列合计
// frameid 计非空个数；videoid 不计；考勤列分状态计数；sumKeys 及数值列求和
func ComputeTotals(headers []string, rows []map[string]string) Totals {
	totals := Totals{Columns: make(map[string]Total)}
	var overall AttendanceCount
	hasAttendance := false

	for _, h := range headers {
		norm := parser.NormalizeKey(h)
		switch norm {
		case "videoid":
			continue
		case "frameid":
			n := 0
			for _, r := range rows {
				if strings.TrimSpace(r[h]) != "" {
					n++
				}
			}
			totals.Columns[h] = Total{Kind: TotalCount, Value: float64(n)}
			continue
		}

		if ac, ok := attendanceCount(h, rows); ok {
			totals.Columns[h] = Total{Kind: TotalAttendance, Attendance: ac}
			overall.Present += ac.Present
			overall.Absent += ac.Absent
			overall.Half += ac.Half
			hasAttendance = true
			continue
		}

		if _, ok := sumKeys[norm]; ok || numericSample(h, rows) {
			totals.Columns[h] = Total{Kind: TotalSum, Value: sumColumn(h, rows)}
		}
	}
	if hasAttendance {
		totals.Overall = &overall
	}
	return totals
}

// attendanceCount 列中出现考勤状态且至少有一个非 NIL 状态时按考勤统计
func attendanceCount(h string, rows []map[string]string) (AttendanceCount, bool) {
	var ac AttendanceCount
	isAttendance := false
	for _, r := range rows {
		switch strings.ToUpper(r[h]) {
		case strings.ToUpper(aggregate.StatusPresent):
			ac.Present++
			isAttendance = true
		case strings.ToUpper(aggregate.StatusAbsent):
			ac.Absent++
			isAttendance = true
		case strings.ToUpper(aggregate.StatusHalfDay):
			ac.Half++
			isAttendance = true
		}
	}
	return ac, isAttendance
}

// numericSample 第一个非空值是否为数字
func numericSample(h string, rows []map[string]string) bool {
	for _, r := range rows {
		v := r[h]
		if v == "" {
			continue
		}
		_, ok := strictNumber(v)
		return ok
	}
	return false
}

func sumColumn(h string, rows []map[string]string) float64 {
	var sum float64
	for _, r := range rows {
		if n, ok := strictNumber(r[h]); ok {
			sum += n
		}
	}
	return sum
}

// strictNumber 整个字符串为数字时才成功；空白按 0 处理
func strictNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
