package project

import (
	"errors"

	"userperf/internal/model"
)

var (
	// ErrInvalidProject 项目字段缺失或非法
	ErrInvalidProject = errors.New("invalid project")
	// ErrCategoryImmutable 类别创建后不可修改
	ErrCategoryImmutable = errors.New("project category cannot be changed")
	// ErrProjectNotFound 项目不存在
	ErrProjectNotFound = errors.New("project not found")
)

// Palette 新项目颜色候选
var Palette = []string{"#8B5CF6", "#EC4899", "#06B6D4"}

// CreateInput 创建项目参数；Spreadsheet 可以是完整 URL 或裸 ID
type CreateInput struct {
	Name         string         `json:"name"`
	Spreadsheet  string         `json:"spreadsheet"`
	Category     model.Category `json:"category"`
	CustomSheets string         `json:"customSheets"`
}

// UpdateInput 更新项目参数；nil 字段保持不变
type UpdateInput struct {
	Name         *string         `json:"name"`
	Spreadsheet  *string         `json:"spreadsheet"`
	Category     *model.Category `json:"category"`
	CustomSheets *string         `json:"customSheets"`
}
