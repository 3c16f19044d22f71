package model

import "time"

// LikeTarget 点赞目标类型
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

// Like 点赞关系（actor -> 视频/评论/动态 三选一）
type Like struct {
	ID         string     `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	LikedBy    string     `json:"likedBy" gorm:"type:varchar(36);not null;index:idx_like_pair,unique"`
	TargetType LikeTarget `json:"targetType" gorm:"type:varchar(16);not null;index:idx_like_pair,unique;index:idx_like_target,priority:1"`
	TargetID   string     `json:"targetId" gorm:"type:varchar(36);not null;index:idx_like_pair,unique;index:idx_like_target,priority:2"`
	// 复合唯一键，避免重复点赞
	// idx_like_pair = (liked_by, target_type, target_id)
	CreatedAt time.Time `json:"createdAt"`
}

func (Like) TableName() string { return "likes" }
