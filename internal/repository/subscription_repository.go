package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/vidtube/internal/model"
)

type SubscriptionRepository interface {
	// Create 返回是否真正插入（false 表示关系已存在）
	Create(ctx context.Context, subscriberID, channelID string) (*model.Subscription, bool, error)
	Delete(ctx context.Context, subscriberID, channelID string) (int64, error)
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
	CountSubscribers(ctx context.Context, channelID string) (int64, error)
	CountSubscribed(ctx context.Context, subscriberID string) (int64, error)
	ListSubscriberIDs(ctx context.Context, channelID string) ([]string, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, subscriberID, channelID string) (*model.Subscription, bool, error) {
	s := &model.Subscription{ID: uuid.New().String(), SubscriberID: subscriberID, ChannelID: channelID}
	// 幂等：(subscriber_id, channel_id) 唯一，重复订阅不报错
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(s)
	if res.Error != nil {
		return nil, false, res.Error
	}
	return s, res.RowsAffected > 0, nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Delete(&model.Subscription{})
	return res.RowsAffected, res.Error
}

func (r *subscriptionRepository) Exists(ctx context.Context, subscriberID, channelID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *subscriptionRepository) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).Where("channel_id = ?", channelID).Count(&cnt).Error
	return cnt, err
}

func (r *subscriptionRepository) CountSubscribed(ctx context.Context, subscriberID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).Where("subscriber_id = ?", subscriberID).Count(&cnt).Error
	return cnt, err
}

// ListSubscriberIDs 按订阅时间倒序返回频道的全部订阅者 id（用于构建缓存索引），
// 已删除的用户不在结果中
func (r *subscriptionRepository) ListSubscriberIDs(ctx context.Context, channelID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Joins("JOIN users ON users.id = subscriptions.subscriber_id").
		Where("subscriptions.channel_id = ?", channelID).
		Order("subscriptions.created_at DESC").
		Pluck("subscriptions.subscriber_id", &ids).Error
	return ids, err
}
