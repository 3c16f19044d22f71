package model

import "time"

// DefaultKind 系统自动创建的播放列表类型
type DefaultKind string

const (
	DefaultWatchHistory DefaultKind = "watch_history"
	DefaultWatchLater   DefaultKind = "watch_later"
	DefaultLikedVideos  DefaultKind = "liked_videos"
)

// DefaultKinds 创建顺序
var DefaultKinds = []DefaultKind{DefaultWatchHistory, DefaultWatchLater, DefaultLikedVideos}

// Title 默认播放列表名称
func (k DefaultKind) Title() string {
	switch k {
	case DefaultWatchHistory:
		return "Watch History"
	case DefaultWatchLater:
		return "Watch Later"
	case DefaultLikedVideos:
		return "Liked Videos"
	}
	return string(k)
}

// Playlist 播放列表
type Playlist struct {
	ID          string        `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name        string        `json:"name" gorm:"type:varchar(255);not null"`
	Description string        `json:"description" gorm:"type:text"`
	OwnerID     string        `json:"ownerId" gorm:"type:varchar(36);not null;index;uniqueIndex:ux_playlist_owner_default"`
	Owner       *OwnerProfile `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	IsPublic    bool          `json:"isPublic" gorm:"not null"`
	IsDefault   bool          `json:"isDefault" gorm:"not null;default:false"`
	// 每个用户每种默认列表至多一个；用户自建列表为 NULL
	DefaultKind *DefaultKind `json:"defaultKind,omitempty" gorm:"type:varchar(32);uniqueIndex:ux_playlist_owner_default"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (Playlist) TableName() string { return "playlists" }

func (p *Playlist) OwnerOf() string { return p.OwnerID }

// PlaylistVideo 播放列表条目，按 position 升序；同一视频允许重复出现。
// position 由数据库自增分配，多实例写入时顺序一致
type PlaylistVideo struct {
	Position   int64     `gorm:"primaryKey;autoIncrement;index:idx_playlist_video_pos,priority:2"`
	PlaylistID string    `gorm:"type:varchar(36);not null;index:idx_playlist_video_pos,priority:1;index:idx_playlist_video_vid,priority:1"`
	VideoID    string    `gorm:"type:varchar(36);not null;index:idx_playlist_video_vid,priority:2;index"`
	CreatedAt  time.Time
}

func (PlaylistVideo) TableName() string { return "playlist_videos" }
