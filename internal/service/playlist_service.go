package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/repository"
	"github.com/d60-Lab/vidtube/pkg/apperror"
)

// PlaylistDetail 播放列表及其视频（已删除的视频不出现）
type PlaylistDetail struct {
	*model.Playlist
	TotalVideos int64                    `json:"totalVideos"`
	Videos      *query.Page[model.Video] `json:"videos"`
}

// PlaylistService 播放列表
type PlaylistService interface {
	Create(ctx context.Context, actorID, name, description string) (*model.Playlist, error)
	ListUserPlaylists(ctx context.Context, ownerID, viewerID string, req query.PageRequest) (*query.Page[model.Playlist], error)
	Get(ctx context.Context, playlistID, viewerID string, req query.PageRequest) (*PlaylistDetail, error)
	AddVideo(ctx context.Context, playlistID, videoID, actorID string) (*model.Playlist, error)
	RemoveVideo(ctx context.Context, playlistID, videoID, actorID string) (*model.Playlist, error)
	Rename(ctx context.Context, playlistID, actorID, name, description string) (*model.Playlist, error)
	ToggleVisibility(ctx context.Context, playlistID, actorID string) (*model.Playlist, error)
	Delete(ctx context.Context, playlistID, actorID string) error
	Save(ctx context.Context, playlistID, actorID string) error
	Unsave(ctx context.Context, playlistID, actorID string) error
}

type playlistService struct {
	playlists   repository.PlaylistRepository
	videos      repository.VideoRepository
	users       repository.UserRepository
	provisioner *Provisioner
}

func NewPlaylistService(playlists repository.PlaylistRepository, videos repository.VideoRepository, users repository.UserRepository, provisioner *Provisioner) PlaylistService {
	return &playlistService{playlists: playlists, videos: videos, users: users, provisioner: provisioner}
}

func (s *playlistService) Create(ctx context.Context, actorID, name, description string) (*model.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("playlist name is required")
	}
	p := &model.Playlist{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		OwnerID:     actorID,
		IsPublic:    true,
	}
	if err := s.playlists.Create(ctx, p); err != nil {
		return nil, storeErr(err, "playlist")
	}
	return s.load(ctx, p.ID)
}

func (s *playlistService) ListUserPlaylists(ctx context.Context, ownerID, viewerID string, req query.PageRequest) (*query.Page[model.Playlist], error) {
	ok, err := s.users.Exists(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	if !ok {
		return nil, apperror.NotFound("user not found")
	}
	if ownerID == viewerID {
		// 所有者查看自己的列表时顺带补齐默认播放列表
		if _, err := s.provisioner.EnsureDefaultPlaylists(ctx, ownerID); err != nil {
			return nil, err
		}
	}
	page, err := s.playlists.Page(ctx, userPlaylistsSpec(ownerID, ownerID == viewerID), req)
	if err != nil {
		return nil, storeErr(err, "playlist")
	}
	return page, nil
}

func (s *playlistService) Get(ctx context.Context, playlistID, viewerID string, req query.PageRequest) (*PlaylistDetail, error) {
	p, err := s.load(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	owner := canMutate(viewerID, p)
	if !p.IsPublic && !owner {
		return nil, apperror.Forbidden("this playlist is private")
	}
	videos, err := s.videos.Page(ctx, playlistVideosSpec(p.ID, !owner, p.DefaultKind != nil && *p.DefaultKind == model.DefaultWatchHistory), req)
	if err != nil {
		return nil, storeErr(err, "video")
	}
	// 与 Videos 同一查询：已删除或对访客不可见的条目不计入
	return &PlaylistDetail{Playlist: p, TotalVideos: videos.TotalDocs, Videos: videos}, nil
}

func (s *playlistService) load(ctx context.Context, playlistID string) (*model.Playlist, error) {
	p, err := s.playlists.GetByID(ctx, playlistID)
	if err != nil {
		return nil, storeErr(err, "playlist")
	}
	return p, nil
}

// loadOwned 读取并校验所有权
func (s *playlistService) loadOwned(ctx context.Context, playlistID, actorID, action string) (*model.Playlist, error) {
	p, err := s.load(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actorID, p, action); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *playlistService) AddVideo(ctx context.Context, playlistID, videoID, actorID string) (*model.Playlist, error) {
	if _, err := s.loadOwned(ctx, playlistID, actorID, "modify this playlist"); err != nil {
		return nil, err
	}
	ok, err := s.videos.Exists(ctx, videoID)
	if err != nil {
		return nil, storeErr(err, "video")
	}
	if !ok {
		return nil, apperror.NotFound("video not found")
	}
	if err := s.playlists.AppendVideo(ctx, playlistID, videoID); err != nil {
		return nil, storeErr(err, "playlist")
	}
	return s.load(ctx, playlistID)
}

func (s *playlistService) RemoveVideo(ctx context.Context, playlistID, videoID, actorID string) (*model.Playlist, error) {
	if _, err := s.loadOwned(ctx, playlistID, actorID, "modify this playlist"); err != nil {
		return nil, err
	}
	ok, err := s.videos.Exists(ctx, videoID)
	if err != nil {
		return nil, storeErr(err, "video")
	}
	if !ok {
		// 视频已删除但列表仍引用时允许清理悬挂条目
		referenced, err := s.playlists.ContainsVideo(ctx, playlistID, videoID)
		if err != nil {
			return nil, storeErr(err, "playlist")
		}
		if !referenced {
			return nil, apperror.NotFound("video not found")
		}
	}
	if _, err := s.playlists.RemoveVideo(ctx, playlistID, videoID); err != nil {
		return nil, storeErr(err, "playlist")
	}
	return s.load(ctx, playlistID)
}

// mutableOwned 默认播放列表只能通过增删视频修改
func (s *playlistService) mutableOwned(ctx context.Context, playlistID, actorID, action string) (*model.Playlist, error) {
	p, err := s.loadOwned(ctx, playlistID, actorID, action)
	if err != nil {
		return nil, err
	}
	if p.IsDefault {
		return nil, apperror.Forbidden("default playlists cannot be changed")
	}
	return p, nil
}

func (s *playlistService) Rename(ctx context.Context, playlistID, actorID, name, description string) (*model.Playlist, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" && description == "" {
		return nil, apperror.Validation("name or description is required")
	}
	if _, err := s.mutableOwned(ctx, playlistID, actorID, "update this playlist"); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if name != "" {
		fields["name"] = name
	}
	if description != "" {
		fields["description"] = description
	}
	if err := s.playlists.Update(ctx, playlistID, fields); err != nil {
		return nil, storeErr(err, "playlist")
	}
	return s.load(ctx, playlistID)
}

func (s *playlistService) ToggleVisibility(ctx context.Context, playlistID, actorID string) (*model.Playlist, error) {
	p, err := s.mutableOwned(ctx, playlistID, actorID, "update this playlist")
	if err != nil {
		return nil, err
	}
	if err := s.playlists.Update(ctx, playlistID, map[string]any{"is_public": !p.IsPublic}); err != nil {
		return nil, storeErr(err, "playlist")
	}
	return s.load(ctx, playlistID)
}

func (s *playlistService) Delete(ctx context.Context, playlistID, actorID string) error {
	if _, err := s.mutableOwned(ctx, playlistID, actorID, "delete this playlist"); err != nil {
		return err
	}
	return storeErr(s.playlists.Delete(ctx, playlistID), "playlist")
}

func (s *playlistService) Save(ctx context.Context, playlistID, actorID string) error {
	p, err := s.load(ctx, playlistID)
	if err != nil {
		return err
	}
	if !p.IsPublic && !canMutate(actorID, p) {
		return apperror.Forbidden("this playlist is private")
	}
	_, err = s.playlists.Save(ctx, actorID, playlistID)
	return storeErr(err, "playlist")
}

func (s *playlistService) Unsave(ctx context.Context, playlistID, actorID string) error {
	_, err := s.playlists.Unsave(ctx, actorID, playlistID)
	return storeErr(err, "playlist")
}
