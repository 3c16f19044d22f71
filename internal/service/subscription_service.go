package service

import (
	"context"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/repository"
	"github.com/d60-Lab/vidtube/pkg/apperror"
)

// SubscriberIndex 频道订阅者的读缓存（Redis 未启用时为 nil）
type SubscriberIndex interface {
	Page(ctx context.Context, channelID string, req query.PageRequest) (*query.Page[model.OwnerProfile], error)
	Invalidate(ctx context.Context, channelID string)
}

// SubscriptionService 频道订阅
type SubscriptionService interface {
	ToggleSubscription(ctx context.Context, actorID, channelID string) (*ToggleResult, error)
	ChannelSubscribers(ctx context.Context, channelID string, req query.PageRequest) (*query.Page[model.OwnerProfile], error)
	SubscribedChannels(ctx context.Context, subscriberID string, req query.PageRequest) (*query.Page[model.OwnerProfile], error)
}

type subscriptionService struct {
	subs  repository.SubscriptionRepository
	users repository.UserRepository
	index SubscriberIndex
}

func NewSubscriptionService(subs repository.SubscriptionRepository, users repository.UserRepository, index SubscriberIndex) SubscriptionService {
	return &subscriptionService{subs: subs, users: users, index: index}
}

func (s *subscriptionService) requireUser(ctx context.Context, id, what string) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return storeErr(err, what)
	}
	if !ok {
		return apperror.NotFound("%s not found", what)
	}
	return nil
}

func (s *subscriptionService) ToggleSubscription(ctx context.Context, actorID, channelID string) (*ToggleResult, error) {
	if actorID == channelID {
		return nil, apperror.Validation("you cannot subscribe to your own channel")
	}
	if err := s.requireUser(ctx, channelID, "channel"); err != nil {
		return nil, err
	}

	res, err := toggle(ctx, relation[*model.Subscription]{
		exists: func(ctx context.Context) (bool, error) {
			return s.subs.Exists(ctx, actorID, channelID)
		},
		remove: func(ctx context.Context) (int64, error) {
			return s.subs.Delete(ctx, actorID, channelID)
		},
		insert: func(ctx context.Context) (*model.Subscription, bool, error) {
			return s.subs.Create(ctx, actorID, channelID)
		},
	}, "subscription")
	if err != nil {
		return nil, err
	}
	if s.index != nil {
		s.index.Invalidate(ctx, channelID)
	}
	return res, nil
}

func (s *subscriptionService) ChannelSubscribers(ctx context.Context, channelID string, req query.PageRequest) (*query.Page[model.OwnerProfile], error) {
	if err := s.requireUser(ctx, channelID, "channel"); err != nil {
		return nil, err
	}
	if s.index != nil {
		page, err := s.index.Page(ctx, channelID, req)
		if err != nil {
			return nil, storeErr(err, "subscription")
		}
		return page, nil
	}
	page, err := s.users.PageProfiles(ctx, channelSubscribersSpec(channelID), req)
	if err != nil {
		return nil, storeErr(err, "subscription")
	}
	return page, nil
}

func (s *subscriptionService) SubscribedChannels(ctx context.Context, subscriberID string, req query.PageRequest) (*query.Page[model.OwnerProfile], error) {
	if err := s.requireUser(ctx, subscriberID, "user"); err != nil {
		return nil, err
	}
	page, err := s.users.PageProfiles(ctx, subscribedChannelsSpec(subscriberID), req)
	if err != nil {
		return nil, storeErr(err, "subscription")
	}
	return page, nil
}
