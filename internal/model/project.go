package model

import (
	"context"
	"strings"
	"time"
)

// Category 项目类别
type Category string

const (
	CategoryProduction Category = "production" // 生产数据
	CategoryHourly     Category = "hourly"     // 考勤/登录数据
)

// Valid 是否为已知类别
func (c Category) Valid() bool {
	return c == CategoryProduction || c == CategoryHourly
}

// Project 项目：一个电子表格 + 类别 + 可选的 Sheet 列表
type Project struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SpreadsheetID string    `json:"spreadsheetId"`
	Category      Category  `json:"category"`
	CustomSheets  string    `json:"customSheets,omitempty"` // 逗号分隔
	Color         string    `json:"color"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CustomSheetNames 拆分手工指定的 Sheet 列表（去空白、去空项）
func (p Project) CustomSheetNames() []string {
	if p.CustomSheets == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(p.CustomSheets, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ProjectStore 项目持久化接口（整体替换语义）
type ProjectStore interface {
	Load(ctx context.Context) ([]Project, error)
	Save(ctx context.Context, projects []Project) error
}

// sheetRefSep SheetRef 复合 ID 分隔符
const sheetRefSep = "|"

// SheetRef 项目下的一个 Sheet
type SheetRef struct {
	ProjectID string `json:"projectId"`
	SheetName string `json:"sheetName"`
}

// ID 复合标识 projectId|sheetName
func (r SheetRef) ID() string {
	return r.ProjectID + sheetRefSep + r.SheetName
}

// ParseSheetRefID 解析复合标识，按第一个分隔符拆分
func ParseSheetRefID(id string) (SheetRef, bool) {
	pid, name, ok := strings.Cut(id, sheetRefSep)
	if !ok || pid == "" || name == "" {
		return SheetRef{}, false
	}
	return SheetRef{ProjectID: pid, SheetName: name}, true
}

// SheetRefPrefix 某项目下所有 SheetRef ID 的公共前缀
func SheetRefPrefix(projectID string) string {
	return projectID + sheetRefSep
}

// Selection 仪表盘选择状态
type Selection struct {
	ProductionProjects []string `json:"productionProjects"`
	HourlyProjects     []string `json:"hourlyProjects"`
	Sheets             []string `json:"sheets"`
}

// ProjectIDs 所有选中的项目（生产在前）
func (s Selection) ProjectIDs() []string {
	out := make([]string, 0, len(s.ProductionProjects)+len(s.HourlyProjects))
	out = append(out, s.ProductionProjects...)
	return append(out, s.HourlyProjects...)
}

// SelectionStore 选择状态持久化接口
type SelectionStore interface {
	LoadSelection(ctx context.Context) (Selection, error)
	SaveSelection(ctx context.Context, sel Selection) error
}
