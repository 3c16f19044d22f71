package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/vidtube/internal/api/middleware"
	"github.com/d60-Lab/vidtube/pkg/response"
)

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreatePlaylist 创建播放列表
// @Summary 创建播放列表
// @Tags 播放列表
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body playlistRequest true "名称与描述"
// @Success 201 {object} response.Response{data=model.Playlist}
// @Router /api/v1/playlist [post]
func (h *Handler) CreatePlaylist(c *gin.Context) {
	var req playlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := h.svc.Playlists.Create(c.Request.Context(), middleware.UserID(c), req.Name, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p, "Playlist created successfully")
}

// ListUserPlaylists 用户的播放列表
// @Summary 用户的播放列表（非本人只返回公开列表）
// @Tags 播放列表
// @Produce json
// @Param userId path string true "用户 id"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=query.Page[model.Playlist]}
// @Router /api/v1/playlist/user/{userId} [get]
func (h *Handler) ListUserPlaylists(c *gin.Context) {
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	page, err := h.svc.Playlists.ListUserPlaylists(c.Request.Context(), c.Param("userId"), middleware.UserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, page, "Playlists fetched successfully")
}

// GetPlaylist 播放列表详情
// @Summary 播放列表详情（视频分页）
// @Tags 播放列表
// @Produce json
// @Param playlistId path string true "播放列表 id"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=service.PlaylistDetail}
// @Failure 403 {object} response.Response
// @Router /api/v1/playlist/{playlistId} [get]
func (h *Handler) GetPlaylist(c *gin.Context) {
	req, ok := pageRequest(c)
	if !ok {
		return
	}
	d, err := h.svc.Playlists.Get(c.Request.Context(), c.Param("playlistId"), middleware.UserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, d, "Playlist fetched successfully")
}

// AddVideoToPlaylist 添加视频
// @Summary 添加视频到播放列表
// @Tags 播放列表
// @Security BearerAuth
// @Produce json
// @Param videoId path string true "视频 id"
// @Param playlistId path string true "播放列表 id"
// @Success 200 {object} response.Response{data=model.Playlist}
// @Router /api/v1/playlist/add/{videoId}/{playlistId} [patch]
func (h *Handler) AddVideoToPlaylist(c *gin.Context) {
	p, err := h.svc.Playlists.AddVideo(c.Request.Context(), c.Param("playlistId"), c.Param("videoId"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, p, "Video added to playlist")
}

// RemoveVideoFromPlaylist 移除视频（该视频的所有条目）
// @Summary 从播放列表移除视频
// @Tags 播放列表
// @Security BearerAuth
// @Produce json
// @Param videoId path string true "视频 id"
// @Param playlistId path string true "播放列表 id"
// @Success 200 {object} response.Response{data=model.Playlist}
// @Failure 403 {object} response.Response
// @Router /api/v1/playlist/remove/{videoId}/{playlistId} [patch]
func (h *Handler) RemoveVideoFromPlaylist(c *gin.Context) {
	p, err := h.svc.Playlists.RemoveVideo(c.Request.Context(), c.Param("playlistId"), c.Param("videoId"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, p, "Video removed from playlist")
}

// UpdatePlaylist 修改名称/描述
// @Summary 修改播放列表
// @Tags 播放列表
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param playlistId path string true "播放列表 id"
// @Param request body playlistRequest true "名称与描述"
// @Success 200 {object} response.Response{data=model.Playlist}
// @Failure 403 {object} response.Response
// @Router /api/v1/playlist/{playlistId} [patch]
func (h *Handler) UpdatePlaylist(c *gin.Context) {
	var req playlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := h.svc.Playlists.Rename(c.Request.Context(), c.Param("playlistId"), middleware.UserID(c), req.Name, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, p, "Playlist updated successfully")
}

// TogglePlaylistVisibility 切换公开/私有
// @Summary 切换播放列表可见性
// @Tags 播放列表
// @Security BearerAuth
// @Produce json
// @Param playlistId path string true "播放列表 id"
// @Success 200 {object} response.Response{data=model.Playlist}
// @Router /api/v1/playlist/toggle/{playlistId} [patch]
func (h *Handler) TogglePlaylistVisibility(c *gin.Context) {
	p, err := h.svc.Playlists.ToggleVisibility(c.Request.Context(), c.Param("playlistId"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, p, "Playlist visibility toggled")
}

// DeletePlaylist 删除播放列表
// @Summary 删除播放列表
// @Tags 播放列表
// @Security BearerAuth
// @Produce json
// @Param playlistId path string true "播放列表 id"
// @Success 200 {object} response.Response
// @Router /api/v1/playlist/{playlistId} [delete]
func (h *Handler) DeletePlaylist(c *gin.Context) {
	if err := h.svc.Playlists.Delete(c.Request.Context(), c.Param("playlistId"), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, gin.H{}, "Playlist deleted successfully")
}

// SavePlaylist 收藏
// @Summary 收藏播放列表
// @Tags 播放列表
// @Security BearerAuth
// @Produce json
// @Param playlistId path string true "播放列表 id"
// @Success 200 {object} response.Response
// @Router /api/v1/playlist/save/{playlistId} [post]
func (h *Handler) SavePlaylist(c *gin.Context) {
	if err := h.svc.Playlists.Save(c.Request.Context(), c.Param("playlistId"), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, gin.H{}, "Playlist saved")
}

// UnsavePlaylist 取消收藏
// @Summary 取消收藏播放列表
// @Tags 播放列表
// @Security BearerAuth
// @Produce json
// @Param playlistId path string true "播放列表 id"
// @Success 200 {object} response.Response
// @Router /api/v1/playlist/save/{playlistId} [delete]
func (h *Handler) UnsavePlaylist(c *gin.Context) {
	if err := h.svc.Playlists.Unsave(c.Request.Context(), c.Param("playlistId"), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, gin.H{}, "Playlist removed from saved")
}
