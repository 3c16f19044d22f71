package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/vidtube/internal/api/middleware"
	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/service"
	"github.com/d60-Lab/vidtube/pkg/response"
)

type registerRequest struct {
	FullName string `form:"fullName" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Username string `form:"username" binding:"required,username"`
	Password string `form:"password" binding:"required"`
}

// Register 注册
// @Summary 注册账号（multipart，avatar 必填，coverImage 可选）
// @Tags 用户
// @Accept multipart/form-data
// @Produce json
// @Param fullName formData string true "姓名"
// @Param email formData string true "邮箱"
// @Param username formData string true "用户名"
// @Param password formData string true "密码"
// @Param avatar formData file true "头像"
// @Param coverImage formData file false "封面"
// @Success 201 {object} response.Response{data=model.User}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/users/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	avatar, closeAvatar, err := formUpload(c, "avatar", true)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer closeAvatar.Close()
	cover, closeCover, err := formUpload(c, "coverImage", false)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer closeCover.Close()

	u, err := h.svc.Identity.Register(c.Request.Context(), service.RegisterInput{
		FullName:   req.FullName,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, u, "User registered successfully")
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
}

// Login 登录，同时写入 http-only cookie
// @Summary 登录
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body loginRequest true "用户名或邮箱 + 密码"
// @Success 200 {object} response.Response{data=service.Session}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	sess, err := h.svc.Identity.Login(c.Request.Context(), service.LoginInput{
		Username: req.Username, Email: req.Email, Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSessionCookies(c, sess.AccessToken, sess.RefreshToken)
	response.SuccessMsg(c, sess, "User logged in successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken 轮换会话
// @Summary 刷新访问令牌（cookie 或 body）
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body refreshRequest false "刷新令牌"
// @Success 200 {object} response.Response{data=service.Session}
// @Failure 401 {object} response.Response
// @Router /api/v1/users/refresh-token [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(middleware.RefreshTokenCookie)
	if token == "" {
		var req refreshRequest
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}
	sess, err := h.svc.Identity.Refresh(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setSessionCookies(c, sess.AccessToken, sess.RefreshToken)
	response.SuccessMsg(c, sess, "Access token refreshed")
}

// Logout 注销
// @Summary 注销
// @Tags 用户
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/users/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Identity.Logout(c.Request.Context(), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	h.clearSessionCookies(c)
	response.SuccessMsg(c, gin.H{}, "User logged out")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags 用户
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body changePasswordRequest true "旧密码与新密码"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/users/change-password [post]
func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.svc.Identity.ChangePassword(c.Request.Context(), middleware.UserID(c), req.OldPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, gin.H{}, "Password changed successfully")
}

// CurrentUser 当前用户
// @Summary 当前登录用户
// @Tags 用户
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=model.User}
// @Router /api/v1/users/current-user [get]
func (h *Handler) CurrentUser(c *gin.Context) {
	u, err := h.svc.Identity.CurrentUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, u, "Current user fetched successfully")
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// UpdateAccount 修改姓名/邮箱
// @Summary 修改账号信息
// @Tags 用户
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body updateAccountRequest true "姓名、邮箱"
// @Success 200 {object} response.Response{data=model.User}
// @Failure 409 {object} response.Response
// @Router /api/v1/users/update-account [patch]
func (h *Handler) UpdateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.svc.Identity.UpdateAccount(c.Request.Context(), middleware.UserID(c), req.FullName, req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, u, "Account details updated successfully")
}

// UpdateAvatar 更换头像
// @Summary 更换头像
// @Tags 用户
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "头像"
// @Success 200 {object} response.Response{data=model.User}
// @Router /api/v1/users/avatar [patch]
func (h *Handler) UpdateAvatar(c *gin.Context) {
	h.replaceImage(c, "avatar", h.svc.Identity.UpdateAvatar, "Avatar updated successfully")
}

// UpdateCoverImage 更换封面
// @Summary 更换封面
// @Tags 用户
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param coverImage formData file true "封面"
// @Success 200 {object} response.Response{data=model.User}
// @Router /api/v1/users/cover-image [patch]
func (h *Handler) UpdateCoverImage(c *gin.Context) {
	h.replaceImage(c, "coverImage", h.svc.Identity.UpdateCoverImage, "Cover image updated successfully")
}

func (h *Handler) replaceImage(c *gin.Context, field string,
	update func(ctx context.Context, userID string, up *service.Upload) (*model.User, error), msg string) {
	up, closer, err := formUpload(c, field, true)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer closer.Close()
	u, err := update(c.Request.Context(), middleware.UserID(c), up)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, u, msg)
}

// ChannelProfile 频道主页
// @Summary 频道主页（订阅数、是否已订阅）
// @Tags 用户
// @Produce json
// @Param username path string true "用户名"
// @Success 200 {object} response.Response{data=service.ChannelProfile}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/c/{username} [get]
func (h *Handler) ChannelProfile(c *gin.Context) {
	p, err := h.svc.Identity.ChannelProfile(c.Request.Context(), c.Param("username"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, p, "User channel fetched successfully")
}

// WatchHistory 观看历史
// @Summary 观看历史（最近在前）
// @Tags 用户
// @Security BearerAuth
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=query.Page[model.Video]}
// @Router /api/v1/users/history [get]
func (h *Handler) WatchHistory(c *gin.Context) {
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	page, err := h.svc.Identity.WatchHistory(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, page, "Watch history fetched successfully")
}

// SendOTP 发送邮箱验证码
// @Summary 发送邮箱验证码
// @Tags 用户
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/users/send-otp [post]
func (h *Handler) SendOTP(c *gin.Context) {
	if err := h.svc.Identity.SendVerificationOTP(c.Request.Context(), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, gin.H{}, "OTP sent successfully")
}

type verifyOTPRequest struct {
	OTP string `json:"otp" binding:"required,otp"`
}

// VerifyOTP 校验邮箱验证码
// @Summary 校验邮箱验证码
// @Tags 用户
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body verifyOTPRequest true "6 位验证码"
// @Success 200 {object} response.Response{data=model.User}
// @Failure 400 {object} response.Response
// @Router /api/v1/users/verify-otp [post]
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.svc.Identity.VerifyEmailOTP(c.Request.Context(), middleware.UserID(c), req.OTP)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, u, "Email verified successfully")
}
