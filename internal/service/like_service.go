package service

import (
	"context"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/repository"
	"github.com/d60-Lab/vidtube/pkg/apperror"
)

// LikeService 点赞切换
type LikeService interface {
	ToggleVideoLike(ctx context.Context, actorID, videoID string) (*ToggleResult, error)
	ToggleCommentLike(ctx context.Context, actorID, commentID string) (*ToggleResult, error)
	ToggleTweetLike(ctx context.Context, actorID, tweetID string) (*ToggleResult, error)
	LikedVideos(ctx context.Context, actorID string, req query.PageRequest) (*query.Page[model.Video], error)
}

type likeService struct {
	likes    repository.LikeRepository
	videos   repository.VideoRepository
	comments repository.CommentRepository
	tweets   repository.TweetRepository
}

func NewLikeService(likes repository.LikeRepository, videos repository.VideoRepository, comments repository.CommentRepository, tweets repository.TweetRepository) LikeService {
	return &likeService{likes: likes, videos: videos, comments: comments, tweets: tweets}
}

func (s *likeService) ToggleVideoLike(ctx context.Context, actorID, videoID string) (*ToggleResult, error) {
	return s.toggle(ctx, actorID, model.LikeTargetVideo, videoID, s.videos.Exists)
}

func (s *likeService) ToggleCommentLike(ctx context.Context, actorID, commentID string) (*ToggleResult, error) {
	return s.toggle(ctx, actorID, model.LikeTargetComment, commentID, s.comments.Exists)
}

func (s *likeService) ToggleTweetLike(ctx context.Context, actorID, tweetID string) (*ToggleResult, error) {
	return s.toggle(ctx, actorID, model.LikeTargetTweet, tweetID, s.tweets.Exists)
}

func (s *likeService) toggle(ctx context.Context, actorID string, target model.LikeTarget, targetID string,
	targetExists func(context.Context, string) (bool, error)) (*ToggleResult, error) {
	ok, err := targetExists(ctx, targetID)
	if err != nil {
		return nil, storeErr(err, string(target))
	}
	if !ok {
		return nil, apperror.NotFound("%s not found", target)
	}

	return toggle(ctx, relation[*model.Like]{
		exists: func(ctx context.Context) (bool, error) {
			return s.likes.Exists(ctx, actorID, target, targetID)
		},
		remove: func(ctx context.Context) (int64, error) {
			return s.likes.Delete(ctx, actorID, target, targetID)
		},
		insert: func(ctx context.Context) (*model.Like, bool, error) {
			return s.likes.Create(ctx, actorID, target, targetID)
		},
	}, "like")
}

func (s *likeService) LikedVideos(ctx context.Context, actorID string, req query.PageRequest) (*query.Page[model.Video], error) {
	page, err := s.videos.Page(ctx, likedVideosSpec(actorID), req)
	if err != nil {
		return nil, storeErr(err, "video")
	}
	return page, nil
}
