package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"userperf/internal/export"
	"userperf/internal/service/dashboard"
	"userperf/internal/service/project"
)

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// success 成功响应
func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// errorResponse 错误响应；业务码与 HTTP 状态码一致
func errorResponse(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:    status,
		Message: message,
	})
}

// failWith 按错误类型映射 HTTP 状态码
func failWith(c *gin.Context, err error) {
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		errorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, project.ErrInvalidProject),
		errors.Is(err, project.ErrCategoryImmutable),
		errors.Is(err, dashboard.ErrCategoryMismatch),
		errors.Is(err, dashboard.ErrUnknownSheet),
		errors.Is(err, export.ErrUnknownView):
		errorResponse(c, http.StatusBadRequest, err.Error())
	default:
		errorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
