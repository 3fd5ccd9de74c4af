package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userperf/internal/model"
	"userperf/internal/service/dashboard"
	"userperf/internal/service/project"
)

// ListProjects 获取项目列表，可按 category 过滤
// GET /api/projects?category=production
func (h *Handler) ListProjects(c *gin.Context) {
	if raw := c.Query("category"); raw != "" {
		category := model.Category(raw)
		if !category.Valid() {
			errorResponse(c, http.StatusBadRequest, "invalid category")
			return
		}
		success(c, h.svc.Projects().ListByCategory(category))
		return
	}
	success(c, h.svc.Projects().List())
}

// CreateProject 创建项目
// POST /api/projects
func (h *Handler) CreateProject(c *gin.Context) {
	var req project.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.svc.Projects().Create(c.Request.Context(), req)
	if err != nil {
		failWith(c, err)
		return
	}
	h.logger.Info("创建项目", zap.String("id", p.ID), zap.String("name", p.Name), zap.String("category", string(p.Category)))
	success(c, p)
}

// UpdateProject 更新项目（类别不可修改）
// PATCH /api/projects/:id
func (h *Handler) UpdateProject(c *gin.Context) {
	var req project.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.svc.UpdateProject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		failWith(c, err)
		return
	}
	success(c, p)
}

// DeleteProject 删除项目
// DELETE /api/projects/:id
func (h *Handler) DeleteProject(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.DeleteProject(c.Request.Context(), id); err != nil {
		failWith(c, err)
		return
	}
	h.logger.Info("删除项目", zap.String("id", id))
	success(c, gin.H{"id": id})
}

type selectProjectsRequest struct {
	Production []string `json:"production"`
	Hourly     []string `json:"hourly"`
}

type selectSheetsRequest struct {
	Sheets []string `json:"sheets"`
}

// SelectionResponse 选择状态 + 可选 Sheet
type SelectionResponse struct {
	Selection model.Selection         `json:"selection"`
	Sheets    []dashboard.SheetOption `json:"sheets"`
	Published bool                    `json:"published"`
}

// GetSelection 当前选择状态
// GET /api/selection
func (h *Handler) GetSelection(c *gin.Context) {
	success(c, SelectionResponse{
		Selection: h.svc.Selection(),
		Sheets:    h.svc.AvailableSheets(),
		Published: true,
	})
}

// SelectProjects 设置选中的生产/考勤项目
// PUT /api/selection/projects
func (h *Handler) SelectProjects(c *gin.Context) {
	var req selectProjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.svc.SelectProjects(c.Request.Context(), req.Production, req.Hourly); err != nil {
		failWith(c, err)
		return
	}
	h.GetSelection(c)
}

// SelectSheets 设置选中的 Sheet 并重新合并
// PUT /api/selection/sheets
func (h *Handler) SelectSheets(c *gin.Context) {
	var req selectSheetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid json")
		return
	}
	published, err := h.svc.SelectSheets(c.Request.Context(), req.Sheets)
	if err != nil {
		failWith(c, err)
		return
	}
	success(c, SelectionResponse{
		Selection: h.svc.Selection(),
		Sheets:    h.svc.AvailableSheets(),
		Published: published,
	})
}

// Refresh 重新发现 Sheet 并重新拉取数据
// POST /api/refresh
func (h *Handler) Refresh(c *gin.Context) {
	if err := h.svc.Refresh(c.Request.Context()); err != nil {
		failWith(c, err)
		return
	}
	h.GetStatus(c)
}
