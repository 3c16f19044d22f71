package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// FindByUsernameOrEmail 任一匹配即返回（两者都按小写比较）
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	// ListProfiles 批量读取用户投影，不存在的 id 被忽略
	ListProfiles(ctx context.Context, ids []string) ([]model.OwnerProfile, error)
	PageProfiles(ctx context.Context, spec query.Spec, req query.PageRequest) (*query.Page[model.OwnerProfile], error)
	Update(ctx context.Context, id string, fields map[string]any) error
	// SetDefaultPlaylist 仅在引用为空时写入，返回是否写入
	SetDefaultPlaylist(ctx context.Context, userID string, kind model.DefaultKind, playlistID string) (bool, error)
	// ListIncomplete 按 id 顺序返回 afterID 之后缺少默认播放列表引用的用户
	ListIncomplete(ctx context.Context, afterID string, limit int) ([]*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).
		Where("username = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = ? OR LOWER(email) = ?",
			strings.ToLower(strings.TrimSpace(username)),
			strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *userRepository) ListProfiles(ctx context.Context, ids []string) ([]model.OwnerProfile, error) {
	res := []model.OwnerProfile{}
	if len(ids) == 0 {
		return res, nil
	}
	err := r.db.WithContext(ctx).Select(model.OwnerProfileColumns).Where("id IN ?", ids).Find(&res).Error
	return res, err
}

func (r *userRepository) PageProfiles(ctx context.Context, spec query.Spec, req query.PageRequest) (*query.Page[model.OwnerProfile], error) {
	return query.Paginate[model.OwnerProfile](ctx, r.db, spec, req)
}

func (r *userRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func defaultColumn(kind model.DefaultKind) (string, error) {
	switch kind {
	case model.DefaultWatchHistory:
		return "watch_history_id", nil
	case model.DefaultWatchLater:
		return "watch_later_id", nil
	case model.DefaultLikedVideos:
		return "liked_videos_id", nil
	}
	return "", fmt.Errorf("unknown default playlist kind %q", kind)
}

func (r *userRepository) SetDefaultPlaylist(ctx context.Context, userID string, kind model.DefaultKind, playlistID string) (bool, error) {
	col, err := defaultColumn(kind)
	if err != nil {
		return false, err
	}
	// 条件更新：已有引用时不覆盖
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND "+col+" IS NULL", userID).
		Update(col, playlistID)
	return res.RowsAffected > 0, res.Error
}

func (r *userRepository) ListIncomplete(ctx context.Context, afterID string, limit int) ([]*model.User, error) {
	if limit <= 0 {
		limit = 100
	}
	var res []*model.User
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Where("watch_history_id IS NULL OR watch_later_id IS NULL OR liked_videos_id IS NULL").
		Order("id").
		Limit(limit).
		Find(&res).Error
	return res, err
}
