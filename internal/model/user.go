package model

import "time"

// User 账号 / 频道
type User struct {
	ID             string    `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	Username       string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	Email          string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName       string    `json:"fullName" gorm:"type:varchar(128);index;not null"`
	Avatar         string    `json:"avatar" gorm:"type:text"`
	CoverImage     string    `json:"coverImage" gorm:"type:text"`
	Password       string    `json:"-" gorm:"type:varchar(72);not null"` // bcrypt hash
	EmailVerified  bool      `json:"isEmailVerified" gorm:"not null;default:false"`
	WatchHistoryID *string   `json:"watchHistory" gorm:"type:varchar(36)"`
	WatchLaterID   *string   `json:"watchLater" gorm:"type:varchar(36)"`
	LikedVideosID  *string   `json:"likedVideos" gorm:"type:varchar(36)"`
	RefreshToken   string    `json:"-" gorm:"type:text"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// DefaultPlaylistID 返回某类默认播放列表的引用（未创建时为空）
func (u *User) DefaultPlaylistID(kind DefaultKind) string {
	var p *string
	switch kind {
	case DefaultWatchHistory:
		p = u.WatchHistoryID
	case DefaultWatchLater:
		p = u.WatchLaterID
	case DefaultLikedVideos:
		p = u.LikedVideosID
	}
	if p == nil {
		return ""
	}
	return *p
}

// HasDefaultPlaylists 三个默认播放列表引用是否都已写入
func (u *User) HasDefaultPlaylists() bool {
	for _, k := range DefaultKinds {
		if u.DefaultPlaylistID(k) == "" {
			return false
		}
	}
	return true
}

// OwnerProfile 内容条目上附带的作者信息（users 表的受限投影）
type OwnerProfile struct {
	ID       string `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

func (OwnerProfile) TableName() string { return "users" }

// OwnerProfileColumns 投影列
var OwnerProfileColumns = []string{"id", "username", "full_name", "avatar"}

// SavedPlaylist 用户收藏的播放列表（集合语义）
type SavedPlaylist struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_saved_user_playlist"`
	PlaylistID string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_saved_user_playlist;index"`
	CreatedAt  time.Time
}

func (SavedPlaylist) TableName() string { return "saved_playlists" }
