package model

import (
	"time"
)

// Subscription 订阅关系（subscriber 订阅 channel）
type Subscription struct {
	ID           string `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	SubscriberID string `json:"subscriberId" gorm:"type:varchar(36);index:idx_sub_subscriber;index:idx_sub_pair,unique;not null"`
	ChannelID    string `json:"channelId" gorm:"type:varchar(36);not null;index:idx_sub_channel;index:idx_sub_pair,unique"`
	// 复合唯一键，避免重复订阅
	// idx_sub_pair = (subscriber_id, channel_id)
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Subscription) TableName() string { return "subscriptions" }
