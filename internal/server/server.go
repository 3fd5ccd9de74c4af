package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userperf/internal/api"
	"userperf/internal/config"
	"userperf/internal/service/dashboard"
	"userperf/internal/store"
)

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	backend store.Backend
	api     *api.Handler
	logger  *zap.Logger
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, svc *dashboard.Service, backend store.Backend, logger *zap.Logger) *Server {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		router:  gin.Default(),
		backend: backend,
		api:     api.NewHandler(svc, cfg, logger),
		logger:  logger,
	}

	s.setupRoutes(devMode)

	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// API 路由
	group := s.router.Group("/api")
	{
		s.api.RegisterRoutes(group)
	}

	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
	} else {
		s.router.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, api.Response{Code: http.StatusNotFound, Message: "not found"})
		})
	}
}

// Handler 底层 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 关闭存储
func (s *Server) Close() error {
	if s.backend == nil {
		return nil
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Warn("关闭存储失败", zap.Error(err))
		return err
	}
	return nil
}
