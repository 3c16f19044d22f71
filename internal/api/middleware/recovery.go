package middleware

import (
	"fmt"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/vidtube/pkg/logger"
	"github.com/d60-Lab/vidtube/pkg/response"
)

// Sentry 上报 panic 后重新抛出，必须注册在 Recovery 之后。
// 未初始化 sentry 时上报是空操作。
func Sentry() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

// Recovery 捕获 panic，记录日志并返回统一的 500 响应
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.String("request_id", GetRequestID(c)),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				response.InternalError(c, fmt.Errorf("panic: %v", r))
			}
		}()
		c.Next()
	}
}
