// Package handler exposes the services over HTTP.
package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/vidtube/internal/api/middleware"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/service"
	"github.com/d60-Lab/vidtube/pkg/response"
)

// Services 各业务服务
type Services struct {
	Identity     service.IdentityService
	Videos       service.VideoService
	Comments     service.CommentService
	Tweets       service.TweetService
	Likes        service.LikeService
	Subscription service.SubscriptionService
	Playlists    service.PlaylistService
	Dashboard    service.DashboardService
}

// CookieOptions 会话 cookie
type CookieOptions struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Handler 所有 HTTP 处理函数的接收者
type Handler struct {
	svc     Services
	cookies CookieOptions
}

func New(svc Services, cookies CookieOptions) *Handler {
	return &Handler{svc: svc, cookies: cookies}
}

// Healthz 存活检查
// @Summary 存活检查
// @Tags 系统
// @Produce json
// @Success 200 {object} response.Response
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// pageRequest 读取 page/limit 查询参数
func pageRequest(c *gin.Context) (query.PageRequest, bool) {
	var req query.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return req, false
	}
	return req, true
}

// bindError 把绑定/校验错误转成 400
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		response.BadRequest(c, strings.Join(msgs, "; "))
		return
	}
	response.BadRequest(c, err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email", name)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "username":
		return fmt.Sprintf("%s may contain only letters, digits, '.' and '_' (3-30)", name)
	case "otp":
		return fmt.Sprintf("%s must be a 6 digit code", name)
	}
	return fmt.Sprintf("%s is invalid", name)
}

// formUpload 打开 multipart 文件字段；未提供且非必填时返回 nil
func formUpload(c *gin.Context, field string, required bool) (*service.Upload, io.Closer, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) && !required {
			return nil, nopCloser{}, nil
		}
		return nil, nil, fmt.Errorf("%s file is required", field)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s file", field)
	}
	return &service.Upload{Filename: fh.Filename, Body: f}, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func (h *Handler) setSessionCookies(c *gin.Context, access, refresh string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, access, int(h.cookies.AccessTTL.Seconds()), "/", "", h.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, refresh, int(h.cookies.RefreshTTL.Seconds()), "/", "", h.cookies.Secure, true)
}

func (h *Handler) clearSessionCookies(c *gin.Context) {
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", "", h.cookies.Secure, true)
}
