package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/vidtube/internal/api/middleware"
	"github.com/d60-Lab/vidtube/internal/service"
	"github.com/d60-Lab/vidtube/pkg/response"
)

// ListVideos 已发布视频
// @Summary 视频列表（标题搜索、按频道过滤、排序）
// @Tags 视频
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Param query query string false "标题关键字"
// @Param userId query string false "频道 id"
// @Param sortBy query string false "createdAt|views|duration|title"
// @Param sortType query string false "asc|desc"
// @Success 200 {object} response.Response{data=query.Page[model.Video]}
// @Router /api/v1/videos [get]
func (h *Handler) ListVideos(c *gin.Context) {
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	var f service.VideoFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		bindError(c, err)
		return
	}
	page, err := h.svc.Videos.List(c.Request.Context(), f, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, page, "Videos fetched successfully")
}

// PublishVideo 发布视频
// @Summary 发布视频
// @Tags 视频
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "标题"
// @Param description formData string true "描述"
// @Param duration formData number false "时长（秒）"
// @Param videoFile formData file true "视频文件"
// @Param thumbnail formData file true "缩略图"
// @Success 201 {object} response.Response{data=model.Video}
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/videos [post]
func (h *Handler) PublishVideo(c *gin.Context) {
	video, closeVideo, err := formUpload(c, "videoFile", true)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer closeVideo.Close()
	thumb, closeThumb, err := formUpload(c, "thumbnail", true)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer closeThumb.Close()

	duration, _ := strconv.ParseFloat(c.PostForm("duration"), 64)
	v, err := h.svc.Videos.Publish(c.Request.Context(), middleware.UserID(c), service.PublishInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Duration:    duration,
		VideoFile:   video,
		Thumbnail:   thumb,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, v, "Video published successfully")
}

// GetVideo 播放视频（计数并写入观看历史）
// @Summary 获取视频
// @Tags 视频
// @Produce json
// @Param videoId path string true "视频 id"
// @Success 200 {object} response.Response{data=model.Video}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/videos/{videoId} [get]
func (h *Handler) GetVideo(c *gin.Context) {
	v, err := h.svc.Videos.Get(c.Request.Context(), c.Param("videoId"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, v, "Video fetched successfully")
}

// UpdateVideo 修改标题/描述/缩略图
// @Summary 修改视频
// @Tags 视频
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param videoId path string true "视频 id"
// @Param title formData string false "标题"
// @Param description formData string false "描述"
// @Param thumbnail formData file false "缩略图"
// @Success 200 {object} response.Response{data=model.Video}
// @Failure 403 {object} response.Response
// @Router /api/v1/videos/{videoId} [patch]
func (h *Handler) UpdateVideo(c *gin.Context) {
	thumb, closeThumb, err := formUpload(c, "thumbnail", false)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer closeThumb.Close()

	v, err := h.svc.Videos.Update(c.Request.Context(), c.Param("videoId"), middleware.UserID(c), service.UpdateVideoInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Thumbnail:   thumb,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, v, "Video updated successfully")
}

// DeleteVideo 删除视频
// @Summary 删除视频
// @Tags 视频
// @Security BearerAuth
// @Produce json
// @Param videoId path string true "视频 id"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/videos/{videoId} [delete]
func (h *Handler) DeleteVideo(c *gin.Context) {
	if err := h.svc.Videos.Delete(c.Request.Context(), c.Param("videoId"), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, gin.H{}, "Video deleted successfully")
}

// TogglePublish 切换发布状态
// @Summary 切换发布状态
// @Tags 视频
// @Security BearerAuth
// @Produce json
// @Param videoId path string true "视频 id"
// @Success 200 {object} response.Response{data=model.Video}
// @Router /api/v1/videos/toggle/publish/{videoId} [patch]
func (h *Handler) TogglePublish(c *gin.Context) {
	v, err := h.svc.Videos.TogglePublish(c.Request.Context(), c.Param("videoId"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, v, "Publish status toggled")
}
