package aggregate

// 考勤状态
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
	StatusHalfDay = "P(1/2)"
	StatusNIL     = "NIL"
)

// HalfDayHours 工时低于该值记为半天
const HalfDayHours = 5

// 考勤表固定列
const (
	ColumnSNo     = "SNO"
	ColumnName    = "NAME"
	ColumnEmpCode = "EMP CODE"
)

// PersonSummary 按人汇总：去重帧数 + 对象数
type PersonSummary struct {
	Name        string  `json:"name"`
	FrameCount  int     `json:"frameCount"`
	ObjectCount float64 `json:"objectCount"`
}

// QCSummary 质检汇总
type QCSummary struct {
	Name        string  `json:"name"`
	ObjectCount float64 `json:"objectCount"`
	ErrorCount  float64 `json:"errorCount"`
}

// Performance 综合产出排名项
type Performance struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// AttendanceRow 员工考勤行：每个 Sheet 一个状态
type AttendanceRow struct {
	SNo      string            `json:"sno"`
	Name     string            `json:"name"`
	EmpCode  string            `json:"empCode"`
	Statuses map[string]string `json:"statuses"`
}

// AttendanceTable 考勤矩阵
type AttendanceTable struct {
	Headers []string        `json:"headers"`
	Sheets  []string        `json:"sheets"`
	Rows    []AttendanceRow `json:"rows"`
}

// Summaries 全部汇总视图
type Summaries struct {
	Annotators   []PersonSummary `json:"annotators"`
	Users        []PersonSummary `json:"users"`
	QCAnnotators []QCSummary     `json:"qcAnnotators"`
	QCUsers      []QCSummary     `json:"qcUsers"`
	Combined     []Performance   `json:"combined"`
	Attendance   AttendanceTable `json:"attendance"`
}
