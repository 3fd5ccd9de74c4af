package aggregate

import (
	"sort"
	"strings"

	"userperf/internal/model"
	"userperf/internal/parser"
)

// 考勤 Sheet 没有稳定表头，按列位置取值
const (
	colSNo     = 0
	colName    = 1
	colEmpCode = 2
	colHours   = 3
	colLogin   = 5
)

type employee struct {
	sno      string
	name     string
	empCode  string
	statuses map[string]string
}

type attendanceBuilder struct {
	resolver  *parser.KeyResolver
	employees map[string]*employee
	order     []string
	sheets    []string
	seenSheet map[string]struct{}
}

func newAttendanceBuilder(resolver *parser.KeyResolver) *attendanceBuilder {
	return &attendanceBuilder{
		resolver:  resolver,
		employees: make(map[string]*employee),
		seenSheet: make(map[string]struct{}),
	}
}

// DeriveStatus 由登录时间和工时推导考勤状态
func DeriveStatus(loginTime string, hours float64) string {
	login := strings.TrimSpace(loginTime)
	if login == "" || strings.EqualFold(login, "nil") {
		return StatusAbsent
	}
	if hours < HalfDayHours {
		return StatusHalfDay
	}
	return StatusPresent
}

func (b *attendanceBuilder) add(rec model.Record) {
	sheet := rec.Provenance.SheetName
	if _, ok := b.seenSheet[sheet]; !ok {
		b.seenSheet[sheet] = struct{}{}
		b.sheets = append(b.sheets, sheet)
	}

	row := rec.Row
	name := row.TextAt(colName)
	if name == "" {
		return
	}

	emp, ok := b.employees[name]
	if !ok {
		emp = &employee{
			sno:      row.TextAt(colSNo),
			name:     name,
			empCode:  b.employeeCode(row),
			statuses: make(map[string]string),
		}
		b.employees[name] = emp
		b.order = append(b.order, name)
	}
	hours := model.ParseNumber(row.TextAt(colHours))
	emp.statuses[sheet] = DeriveStatus(row.TextAt(colLogin), hours)
}

// employeeCode 员工编号：按别名匹配，找不到时取第三列
func (b *attendanceBuilder) employeeCode(row model.Row) string {
	headers := row.Headers()
	if key, ok := b.resolver.ResolveFirst(headers, parser.FieldEmployeeCode, parser.FieldEmpCode, parser.FieldEmpID); ok {
		return row.Text(key)
	}
	return row.TextAt(colEmpCode)
}

func (b *attendanceBuilder) build() AttendanceTable {
	sheets := OrderSheets(b.sheets)

	table := AttendanceTable{
		Headers: append([]string{ColumnSNo, ColumnName, ColumnEmpCode}, sheets...),
		Sheets:  sheets,
		Rows:    make([]AttendanceRow, 0, len(b.order)),
	}
	for _, name := range b.order {
		emp := b.employees[name]
		statuses := make(map[string]string, len(sheets))
		for _, s := range sheets {
			st, ok := emp.statuses[s]
			if !ok {
				st = StatusNIL
			}
			statuses[s] = st
		}
		table.Rows = append(table.Rows, AttendanceRow{
			SNo:      emp.sno,
			Name:     emp.name,
			EmpCode:  emp.empCode,
			Statuses: statuses,
		})
	}
	return table
}

// OrderSheets 按 Sheet 名中的日期排序；无法识别的排在最前，同日期保持原顺序
func OrderSheets(sheets []string) []string {
	out := make([]string, len(sheets))
	copy(out, sheets)
	sort.SliceStable(out, func(i, j int) bool {
		return parser.ParseSheetDate(out[i]).Before(parser.ParseSheetDate(out[j]))
	})
	return out
}

// Cells 考勤行按表头展开为单元格
func (r AttendanceRow) Cells(sheets []string) []string {
	cells := []string{r.SNo, r.Name, r.EmpCode}
	for _, s := range sheets {
		cells = append(cells, r.Statuses[s])
	}
	return cells
}
