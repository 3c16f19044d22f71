package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/vidtube/internal/api/middleware"
	"github.com/d60-Lab/vidtube/pkg/response"
)

// CreateTweet 发布动态
// @Summary 发布动态
// @Tags 动态
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body contentRequest true "内容"
// @Success 201 {object} response.Response{data=model.Tweet}
// @Router /api/v1/tweets [post]
func (h *Handler) CreateTweet(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	t, err := h.svc.Tweets.Create(c.Request.Context(), middleware.UserID(c), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, t, "Tweet created successfully")
}

// ListUserTweets 用户动态
// @Summary 用户动态
// @Tags 动态
// @Produce json
// @Param userId path string true "用户 id"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=query.Page[model.Tweet]}
// @Router /api/v1/tweets/user/{userId} [get]
func (h *Handler) ListUserTweets(c *gin.Context) {
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	page, err := h.svc.Tweets.ListByUser(c.Request.Context(), c.Param("userId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, page, "Tweets fetched successfully")
}

// UpdateTweet 修改动态
// @Summary 修改动态
// @Tags 动态
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param tweetId path string true "动态 id"
// @Param request body contentRequest true "内容"
// @Success 200 {object} response.Response{data=model.Tweet}
// @Router /api/v1/tweets/{tweetId} [patch]
func (h *Handler) UpdateTweet(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	t, err := h.svc.Tweets.Update(c.Request.Context(), c.Param("tweetId"), middleware.UserID(c), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, t, "Tweet updated successfully")
}

// DeleteTweet 删除动态
// @Summary 删除动态
// @Tags 动态
// @Security BearerAuth
// @Produce json
// @Param tweetId path string true "动态 id"
// @Success 200 {object} response.Response
// @Router /api/v1/tweets/{tweetId} [delete]
func (h *Handler) DeleteTweet(c *gin.Context) {
	if err := h.svc.Tweets.Delete(c.Request.Context(), c.Param("tweetId"), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, gin.H{}, "Tweet deleted successfully")
}
