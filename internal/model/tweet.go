package model

import "time"

// Tweet 频道动态（仅示例所需字段）
type Tweet struct {
	ID        string        `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	OwnerID   string        `json:"ownerId" gorm:"type:varchar(36);not null;index:idx_tweet_owner"`
	Owner     *OwnerProfile `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Content   string        `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (Tweet) TableName() string { return "tweets" }

func (t *Tweet) OwnerOf() string { return t.OwnerID }
