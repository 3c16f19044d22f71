package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/vidtube/internal/api/middleware"
	"github.com/d60-Lab/vidtube/pkg/response"
)

// ChannelStats 频道统计
// @Summary 频道统计
// @Tags 面板
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=service.ChannelStats}
// @Router /api/v1/dashboard/stats [get]
func (h *Handler) ChannelStats(c *gin.Context) {
	st, err := h.svc.Dashboard.Stats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, st, "Channel stats fetched successfully")
}

// ChannelVideos 频道全部视频（含未发布）
// @Summary 频道全部视频
// @Tags 面板
// @Security BearerAuth
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=query.Page[model.Video]}
// @Router /api/v1/dashboard/videos [get]
func (h *Handler) ChannelVideos(c *gin.Context) {
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	page, err := h.svc.Dashboard.ChannelVideos(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, page, "Channel videos fetched successfully")
}
