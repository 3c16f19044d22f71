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

// TweetService 频道动态
type TweetService interface {
	Create(ctx context.Context, actorID, content string) (*model.Tweet, error)
	ListByUser(ctx context.Context, ownerID string, req query.PageRequest) (*query.Page[model.Tweet], error)
	Update(ctx context.Context, tweetID, actorID, content string) (*model.Tweet, error)
	Delete(ctx context.Context, tweetID, actorID string) error
}

type tweetService struct {
	tweets repository.TweetRepository
	users  repository.UserRepository
}

func NewTweetService(tweets repository.TweetRepository, users repository.UserRepository) TweetService {
	return &tweetService{tweets: tweets, users: users}
}

func (s *tweetService) Create(ctx context.Context, actorID, content string) (*model.Tweet, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.Validation("tweet content is required")
	}
	t := &model.Tweet{ID: uuid.New().String(), OwnerID: actorID, Content: content}
	if err := s.tweets.Create(ctx, t); err != nil {
		return nil, storeErr(err, "tweet")
	}
	return s.load(ctx, t.ID)
}

func (s *tweetService) load(ctx context.Context, id string) (*model.Tweet, error) {
	t, err := s.tweets.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "tweet")
	}
	return t, nil
}

func (s *tweetService) ListByUser(ctx context.Context, ownerID string, req query.PageRequest) (*query.Page[model.Tweet], error) {
	ok, err := s.users.Exists(ctx, ownerID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	if !ok {
		return nil, apperror.NotFound("user not found")
	}
	page, err := s.tweets.Page(ctx, userTweetsSpec(ownerID), req)
	if err != nil {
		return nil, storeErr(err, "tweet")
	}
	return page, nil
}

func (s *tweetService) Update(ctx context.Context, tweetID, actorID, content string) (*model.Tweet, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.Validation("tweet content is required")
	}
	t, err := s.load(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actorID, t, "edit this tweet"); err != nil {
		return nil, err
	}
	if err := s.tweets.Update(ctx, tweetID, map[string]any{"content": content}); err != nil {
		return nil, storeErr(err, "tweet")
	}
	return s.load(ctx, tweetID)
}

func (s *tweetService) Delete(ctx context.Context, tweetID, actorID string) error {
	t, err := s.load(ctx, tweetID)
	if err != nil {
		return err
	}
	if err := requireOwner(actorID, t, "delete this tweet"); err != nil {
		return err
	}
	return storeErr(s.tweets.Delete(ctx, tweetID), "tweet")
}
