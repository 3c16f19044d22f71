package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/vidtube/internal/api/middleware"
	"github.com/d60-Lab/vidtube/pkg/response"
)

type contentRequest struct {
	Content string `json:"content" binding:"required"`
}

// ListComments 视频评论
// @Summary 视频评论（最新在前）
// @Tags 评论
// @Produce json
// @Param videoId path string true "视频 id"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=query.Page[model.Comment]}
// @Router /api/v1/comments/{videoId} [get]
func (h *Handler) ListComments(c *gin.Context) {
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	page, err := h.svc.Comments.ListForVideo(c.Request.Context(), c.Param("videoId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, page, "Comments fetched successfully")
}

// AddComment 发表评论
// @Summary 发表评论
// @Tags 评论
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param videoId path string true "视频 id"
// @Param request body contentRequest true "内容"
// @Success 201 {object} response.Response{data=model.Comment}
// @Router /api/v1/comments/{videoId} [post]
func (h *Handler) AddComment(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	cm, err := h.svc.Comments.Add(c.Request.Context(), c.Param("videoId"), middleware.UserID(c), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cm, "Comment added successfully")
}

// UpdateComment 修改评论
// @Summary 修改评论
// @Tags 评论
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param commentId path string true "评论 id"
// @Param request body contentRequest true "内容"
// @Success 200 {object} response.Response{data=model.Comment}
// @Failure 403 {object} response.Response
// @Router /api/v1/comments/c/{commentId} [patch]
func (h *Handler) UpdateComment(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	cm, err := h.svc.Comments.Update(c.Request.Context(), c.Param("commentId"), middleware.UserID(c), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, cm, "Comment updated successfully")
}

// DeleteComment 删除评论
// @Summary 删除评论
// @Tags 评论
// @Security BearerAuth
// @Produce json
// @Param commentId path string true "评论 id"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/comments/c/{commentId} [delete]
func (h *Handler) DeleteComment(c *gin.Context) {
	if err := h.svc.Comments.Delete(c.Request.Context(), c.Param("commentId"), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, gin.H{}, "Comment deleted successfully")
}
