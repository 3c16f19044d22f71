package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/vidtube/internal/api/middleware"
	"github.com/d60-Lab/vidtube/internal/service"
	"github.com/d60-Lab/vidtube/pkg/response"
)

func toggleMessage(res *service.ToggleResult, added, removed string) string {
	if res.State == service.StateAdded {
		return added
	}
	return removed
}

// ToggleVideoLike 点赞/取消点赞视频
// @Summary 切换视频点赞
// @Tags 点赞
// @Security BearerAuth
// @Produce json
// @Param videoId path string true "视频 id"
// @Success 200 {object} response.Response{data=service.ToggleResult}
// @Failure 404 {object} response.Response
// @Router /api/v1/likes/toggle/v/{videoId} [post]
func (h *Handler) ToggleVideoLike(c *gin.Context) {
	res, err := h.svc.Likes.ToggleVideoLike(c.Request.Context(), middleware.UserID(c), c.Param("videoId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, res, toggleMessage(res, "Video liked", "Video unliked"))
}

// ToggleCommentLike 点赞/取消点赞评论
// @Summary 切换评论点赞
// @Tags 点赞
// @Security BearerAuth
// @Produce json
// @Param commentId path string true "评论 id"
// @Success 200 {object} response.Response{data=service.ToggleResult}
// @Router /api/v1/likes/toggle/c/{commentId} [post]
func (h *Handler) ToggleCommentLike(c *gin.Context) {
	res, err := h.svc.Likes.ToggleCommentLike(c.Request.Context(), middleware.UserID(c), c.Param("commentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, res, toggleMessage(res, "Comment liked", "Comment unliked"))
}

// ToggleTweetLike 点赞/取消点赞动态
// @Summary 切换动态点赞
// @Tags 点赞
// @Security BearerAuth
// @Produce json
// @Param tweetId path string true "动态 id"
// @Success 200 {object} response.Response{data=service.ToggleResult}
// @Router /api/v1/likes/toggle/t/{tweetId} [post]
func (h *Handler) ToggleTweetLike(c *gin.Context) {
	res, err := h.svc.Likes.ToggleTweetLike(c.Request.Context(), middleware.UserID(c), c.Param("tweetId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, res, toggleMessage(res, "Tweet liked", "Tweet unliked"))
}

// LikedVideos 点赞过的视频
// @Summary 点赞过的视频
// @Tags 点赞
// @Security BearerAuth
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=query.Page[model.Video]}
// @Router /api/v1/likes/videos [get]
func (h *Handler) LikedVideos(c *gin.Context) {
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	page, err := h.svc.Likes.LikedVideos(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, page, "Liked videos fetched successfully")
}

// ToggleSubscription 订阅/取消订阅
// @Summary 切换频道订阅
// @Tags 订阅
// @Security BearerAuth
// @Produce json
// @Param channelId path string true "频道 id"
// @Success 200 {object} response.Response{data=service.ToggleResult}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/subscriptions/c/{channelId} [post]
func (h *Handler) ToggleSubscription(c *gin.Context) {
	res, err := h.svc.Subscription.ToggleSubscription(c.Request.Context(), middleware.UserID(c), c.Param("channelId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, res, toggleMessage(res, "Subscribed", "Unsubscribed"))
}

// ChannelSubscribers 频道订阅者
// @Summary 频道订阅者（最近订阅在前）
// @Tags 订阅
// @Produce json
// @Param channelId path string true "频道 id"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=query.Page[model.OwnerProfile]}
// @Router /api/v1/subscriptions/c/{channelId} [get]
func (h *Handler) ChannelSubscribers(c *gin.Context) {
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	page, err := h.svc.Subscription.ChannelSubscribers(c.Request.Context(), c.Param("channelId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, page, "Subscribers fetched successfully")
}

// SubscribedChannels 用户订阅的频道
// @Summary 用户订阅的频道
// @Tags 订阅
// @Produce json
// @Param subscriberId path string true "用户 id"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=query.Page[model.OwnerProfile]}
// @Router /api/v1/subscriptions/u/{subscriberId} [get]
func (h *Handler) SubscribedChannels(c *gin.Context) {
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	page, err := h.svc.Subscription.SubscribedChannels(c.Request.Context(), c.Param("subscriberId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, page, "Subscribed channels fetched successfully")
}
