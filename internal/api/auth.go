package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ctxUserKey = "username"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Login 用户登录
// POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid json")
		return
	}
	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	want, ok := h.cfg.Auth.Users[username]
	if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(password)) != 1 {
		h.logger.Info("登录失败", zap.String("username", username))
		errorResponse(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := h.sessions.put(username)
	h.logger.Info("用户登录", zap.String("username", username))
	success(c, loginResponse{Token: token, Username: username})
}

// Logout 退出登录
// POST /api/logout
func (h *Handler) Logout(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		h.sessions.delete(token)
	}
	success(c, nil)
}

// authMiddleware 校验 Authorization: Bearer <token>
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.requireAuth {
			c.Next()
			return
		}
		username, ok := h.sessions.get(bearerToken(c))
		if !ok {
			errorResponse(c, http.StatusUnauthorized, "login required")
			return
		}
		c.Set(ctxUserKey, username)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
