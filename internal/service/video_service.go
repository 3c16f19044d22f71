package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/repository"
	"github.com/d60-Lab/vidtube/pkg/apperror"
	"github.com/d60-Lab/vidtube/pkg/logger"
	"github.com/d60-Lab/vidtube/pkg/objectstore"
)

// PublishInput 发布视频
type PublishInput struct {
	Title       string
	Description string
	Duration    float64
	VideoFile   *Upload
	Thumbnail   *Upload
}

// UpdateVideoInput 字段为空表示不修改
type UpdateVideoInput struct {
	Title       string
	Description string
	Thumbnail   *Upload
}

// VideoService 视频
type VideoService interface {
	List(ctx context.Context, f VideoFilter, req query.PageRequest) (*query.Page[model.Video], error)
	Publish(ctx context.Context, actorID string, in PublishInput) (*model.Video, error)
	Get(ctx context.Context, videoID, viewerID string) (*model.Video, error)
	Update(ctx context.Context, videoID, actorID string, in UpdateVideoInput) (*model.Video, error)
	Delete(ctx context.Context, videoID, actorID string) error
	TogglePublish(ctx context.Context, videoID, actorID string) (*model.Video, error)
}

type videoService struct {
	videos      repository.VideoRepository
	playlists   repository.PlaylistRepository
	provisioner *Provisioner
	store       objectstore.Store
	janitor     *MediaJanitor
}

func NewVideoService(videos repository.VideoRepository, playlists repository.PlaylistRepository, provisioner *Provisioner, store objectstore.Store, janitor *MediaJanitor) VideoService {
	return &videoService{videos: videos, playlists: playlists, provisioner: provisioner, store: store, janitor: janitor}
}

func (s *videoService) List(ctx context.Context, f VideoFilter, req query.PageRequest) (*query.Page[model.Video], error) {
	spec, err := publishedVideosSpec(f)
	if err != nil {
		return nil, err
	}
	page, err := s.videos.Page(ctx, spec, req)
	if err != nil {
		return nil, storeErr(err, "video")
	}
	return page, nil
}

func (s *videoService) Publish(ctx context.Context, actorID string, in PublishInput) (*model.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		return nil, apperror.Validation("title and description are required")
	}
	if in.VideoFile == nil {
		return nil, apperror.Validation("video file is required")
	}
	if in.Thumbnail == nil {
		return nil, apperror.Validation("thumbnail is required")
	}

	videoURL, err := putUpload(ctx, s.store, objectstore.KindVideo, in.VideoFile)
	if err != nil {
		return nil, err
	}
	thumbURL, err := putUpload(ctx, s.store, objectstore.KindImage, in.Thumbnail)
	if err != nil {
		s.discard(videoURL)
		return nil, err
	}

	v := &model.Video{
		ID:          uuid.New().String(),
		OwnerID:     actorID,
		VideoFile:   videoURL,
		Thumbnail:   thumbURL,
		Title:       in.Title,
		Description: in.Description,
		Duration:    in.Duration,
		IsPublished: true,
	}
	if err := s.videos.Create(ctx, v); err != nil {
		s.discard(videoURL, thumbURL)
		return nil, storeErr(err, "video")
	}
	return s.load(ctx, v.ID)
}

func (s *videoService) discard(urls ...string) {
	if s.janitor != nil {
		s.janitor.Enqueue(urls...)
	}
}

func (s *videoService) load(ctx context.Context, videoID string) (*model.Video, error) {
	v, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, storeErr(err, "video")
	}
	return v, nil
}

func (s *videoService) Get(ctx context.Context, videoID, viewerID string) (*model.Video, error) {
	v, err := s.load(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !v.IsPublished && !canMutate(viewerID, v) {
		return nil, apperror.Forbidden("this video is not published")
	}
	if err := s.videos.IncrementViews(ctx, videoID); err != nil {
		return nil, storeErr(err, "video")
	}
	v.Views++

	if viewerID != "" {
		s.recordHistory(ctx, viewerID, videoID)
	}
	return v, nil
}

// recordHistory 追加到观看历史；失败不影响本次播放
func (s *videoService) recordHistory(ctx context.Context, viewerID, videoID string) {
	u, err := s.provisioner.EnsureDefaultPlaylists(ctx, viewerID)
	if err != nil {
		logger.Warn("watch history unavailable", zap.String("user", viewerID), zap.Error(err))
		return
	}
	historyID := u.DefaultPlaylistID(model.DefaultWatchHistory)
	if err := s.playlists.AppendVideo(ctx, historyID, videoID); err != nil {
		logger.Warn("append watch history failed", zap.String("user", viewerID), zap.Error(err))
	}
}

func (s *videoService) loadOwned(ctx context.Context, videoID, actorID, action string) (*model.Video, error) {
	v, err := s.load(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actorID, v, action); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *videoService) Update(ctx context.Context, videoID, actorID string, in UpdateVideoInput) (*model.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" && in.Description == "" && in.Thumbnail == nil {
		return nil, apperror.Validation("at least title, description or thumbnail is required")
	}
	v, err := s.loadOwned(ctx, videoID, actorID, "update this video")
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Title != "" {
		fields["title"] = in.Title
	}
	if in.Description != "" {
		fields["description"] = in.Description
	}
	if in.Thumbnail != nil {
		url, err := putUpload(ctx, s.store, objectstore.KindImage, in.Thumbnail)
		if err != nil {
			return nil, err
		}
		fields["thumbnail"] = url
	}
	if err := s.videos.Update(ctx, videoID, fields); err != nil {
		if url, ok := fields["thumbnail"].(string); ok {
			s.discard(url)
		}
		return nil, storeErr(err, "video")
	}
	if _, ok := fields["thumbnail"]; ok {
		s.discard(v.Thumbnail)
	}
	return s.load(ctx, videoID)
}

func (s *videoService) Delete(ctx context.Context, videoID, actorID string) error {
	v, err := s.loadOwned(ctx, videoID, actorID, "delete this video")
	if err != nil {
		return err
	}
	if err := s.videos.Delete(ctx, videoID); err != nil {
		return storeErr(err, "video")
	}
	// 播放列表中的引用保留，读取时自动忽略
	s.discard(v.VideoFile, v.Thumbnail)
	return nil
}

func (s *videoService) TogglePublish(ctx context.Context, videoID, actorID string) (*model.Video, error) {
	v, err := s.loadOwned(ctx, videoID, actorID, "update this video")
	if err != nil {
		return nil, err
	}
	if err := s.videos.Update(ctx, videoID, map[string]any{"is_published": !v.IsPublished}); err != nil {
		return nil, storeErr(err, "video")
	}
	return s.load(ctx, videoID)
}
