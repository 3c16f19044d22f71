package model

// All 需要迁移的表
func All() []any {
	return []any{
		&User{},
		&SavedPlaylist{},
		&Playlist{},
		&PlaylistVideo{},
		&Video{},
		&Comment{},
		&Tweet{},
		&Like{},
		&Subscription{},
		&ProvisionTask{},
		&OTP{},
	}
}
