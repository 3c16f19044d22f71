package model

import "time"

// Video 视频
type Video struct {
	ID          string        `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	OwnerID     string        `json:"ownerId" gorm:"type:varchar(36);not null;index:idx_video_owner_created,priority:1"`
	Owner       *OwnerProfile `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	VideoFile   string        `json:"videoFile" gorm:"type:text;not null"`
	Thumbnail   string        `json:"thumbnail" gorm:"type:text;not null"`
	Title       string        `json:"title" gorm:"type:varchar(255);not null;index"`
	Description string        `json:"description" gorm:"type:text"`
	Duration    float64       `json:"duration" gorm:"not null;default:0"`
	Views       int64         `json:"views" gorm:"not null;default:0"`
	IsPublished bool          `json:"isPublished" gorm:"not null;index"`
	CreatedAt   time.Time     `json:"createdAt" gorm:"index:idx_video_owner_created,priority:2"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func (Video) TableName() string { return "videos" }

func (v *Video) OwnerOf() string { return v.OwnerID }
