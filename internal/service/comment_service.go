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

// CommentService 视频评论
type CommentService interface {
	ListForVideo(ctx context.Context, videoID string, req query.PageRequest) (*query.Page[model.Comment], error)
	Add(ctx context.Context, videoID, actorID, content string) (*model.Comment, error)
	Update(ctx context.Context, commentID, actorID, content string) (*model.Comment, error)
	Delete(ctx context.Context, commentID, actorID string) error
}

type commentService struct {
	comments repository.CommentRepository
	videos   repository.VideoRepository
}

func NewCommentService(comments repository.CommentRepository, videos repository.VideoRepository) CommentService {
	return &commentService{comments: comments, videos: videos}
}

func (s *commentService) requireVideo(ctx context.Context, videoID string) error {
	ok, err := s.videos.Exists(ctx, videoID)
	if err != nil {
		return storeErr(err, "video")
	}
	if !ok {
		return apperror.NotFound("video not found")
	}
	return nil
}

func (s *commentService) ListForVideo(ctx context.Context, videoID string, req query.PageRequest) (*query.Page[model.Comment], error) {
	if err := s.requireVideo(ctx, videoID); err != nil {
		return nil, err
	}
	page, err := s.comments.Page(ctx, videoCommentsSpec(videoID), req)
	if err != nil {
		return nil, storeErr(err, "comment")
	}
	return page, nil
}

func (s *commentService) Add(ctx context.Context, videoID, actorID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.Validation("comment content is required")
	}
	if err := s.requireVideo(ctx, videoID); err != nil {
		return nil, err
	}
	c := &model.Comment{ID: uuid.New().String(), VideoID: videoID, OwnerID: actorID, Content: content}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, storeErr(err, "comment")
	}
	return s.load(ctx, c.ID)
}

func (s *commentService) load(ctx context.Context, id string) (*model.Comment, error) {
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "comment")
	}
	return c, nil
}

func (s *commentService) Update(ctx context.Context, commentID, actorID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.Validation("comment content is required")
	}
	c, err := s.load(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actorID, c, "edit this comment"); err != nil {
		return nil, err
	}
	if err := s.comments.Update(ctx, commentID, map[string]any{"content": content}); err != nil {
		return nil, storeErr(err, "comment")
	}
	return s.load(ctx, commentID)
}

func (s *commentService) Delete(ctx context.Context, commentID, actorID string) error {
	c, err := s.load(ctx, commentID)
	if err != nil {
		return err
	}
	if err := requireOwner(actorID, c, "delete this comment"); err != nil {
		return err
	}
	return storeErr(s.comments.Delete(ctx, commentID), "comment")
}
