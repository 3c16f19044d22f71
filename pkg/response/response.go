package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/vidtube/pkg/apperror"
	"github.com/d60-Lab/vidtube/pkg/logger"
)

// Response 统一响应结构
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// Success 200
func Success(c *gin.Context, data any) {
	SuccessMsg(c, data, "success")
}

// SuccessMsg 200 + 自定义 message
func SuccessMsg(c *gin.Context, data any, message string) {
	write(c, http.StatusOK, data, message)
}

// Created 201
func Created(c *gin.Context, data any, message string) {
	write(c, http.StatusCreated, data, message)
}

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	fail(c, http.StatusUnauthorized, message)
}

// TooManyRequests 429
func TooManyRequests(c *gin.Context) {
	fail(c, http.StatusTooManyRequests, "too many requests")
}

// InternalError 500，原始错误只写日志
func InternalError(c *gin.Context, err error) {
	logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
	fail(c, http.StatusInternalServerError, "internal server error")
}

// Error 按 apperror 分类输出错误
func Error(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	switch kind {
	case apperror.KindInternal:
		InternalError(c, err)
		return
	case apperror.KindDependency:
		logger.Error("dependency failure", zap.String("path", c.FullPath()), zap.Error(err))
	}
	fail(c, kind.Status(), apperror.Message(err))
}

func write(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{StatusCode: status, Data: data, Message: message, Success: status < http.StatusBadRequest})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{StatusCode: status, Message: message, Success: false})
}
