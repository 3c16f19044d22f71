package model

import "time"

// Comment 视频评论
type Comment struct {
	ID        string        `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	VideoID   string        `json:"video" gorm:"type:varchar(36);not null;index:idx_comment_video_created,priority:1"`
	OwnerID   string        `json:"ownerId" gorm:"type:varchar(36);not null;index"`
	Owner     *OwnerProfile `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Content   string        `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time     `json:"createdAt" gorm:"index:idx_comment_video_created,priority:2"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (Comment) TableName() string { return "comments" }

func (c *Comment) OwnerOf() string { return c.OwnerID }
