package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/vidtube/internal/auth"
	"github.com/d60-Lab/vidtube/pkg/response"
)

const (
	// AccessTokenCookie 登录后写入的访问令牌 cookie
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie 登录后写入的刷新令牌 cookie
	RefreshTokenCookie = "refreshToken"

	ctxUserID   = "auth.user_id"
	ctxUsername = "auth.username"
)

// extractToken Authorization: Bearer 优先，其次 cookie
func extractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if v, err := c.Cookie(AccessTokenCookie); err == nil {
		return v
	}
	return ""
}

// Auth 要求有效的访问令牌
func Auth(tokens *auth.TokenCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "unauthorized request")
			return
		}
		claims, err := tokens.VerifyAccess(token)
		if err != nil {
			response.Unauthorized(c, "invalid access token")
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUsername, claims.Username)
		c.Next()
	}
}

// OptionalAuth 有令牌时解析身份，没有或无效时按匿名处理
func OptionalAuth(tokens *auth.TokenCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if claims, err := tokens.VerifyAccess(token); err == nil {
				c.Set(ctxUserID, claims.UserID)
				c.Set(ctxUsername, claims.Username)
			}
		}
		c.Next()
	}
}

// UserID 当前请求的身份，匿名时为空
func UserID(c *gin.Context) string { return c.GetString(ctxUserID) }
