package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userperf/internal/config"
	"userperf/internal/service/dashboard"
)

// Version 构建版本（由 -ldflags 注入）
var Version = "dev"

// Handler API 处理器
type Handler struct {
	svc         *dashboard.Service
	cfg         *config.AppConfig
	sessions    *sessionStore
	logger      *zap.Logger
	now         func() time.Time
	requireAuth bool
}

// NewHandler 创建 API 处理器；未配置用户时不启用登录校验
func NewHandler(svc *dashboard.Service, cfg *config.AppConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:         svc,
		cfg:         cfg,
		sessions:    newSessionStore(sessionTTL),
		logger:      logger,
		now:         time.Now,
		requireAuth: len(cfg.Auth.Users) > 0,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 登录与系统状态（无需鉴权）
	router.POST("/login", h.Login)
	router.GET("/status", h.GetStatus)

	authed := router.Group("")
	authed.Use(h.authMiddleware())

	authed.POST("/logout", h.Logout)
	authed.GET("/birthdays/today", h.TodayBirthdays)

	// 项目管理
	authed.GET("/projects", h.ListProjects)
	authed.POST("/projects", h.CreateProject)
	authed.PATCH("/projects/:id", h.UpdateProject)
	authed.DELETE("/projects/:id", h.DeleteProject)

	// 选择状态
	authed.GET("/selection", h.GetSelection)
	authed.PUT("/selection/projects", h.SelectProjects)
	authed.PUT("/selection/sheets", h.SelectSheets)
	authed.POST("/refresh", h.Refresh)

	// 数据视图
	authed.GET("/sheets", h.ListSheets)
	authed.GET("/summaries", h.GetSummaries)
	authed.GET("/metrics", h.GetMetrics)
	authed.GET("/rows", h.ListRows)

	// 数据导出
	authed.GET("/export/:view", h.Export)
}
