package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
)

type PlaylistRepository interface {
	Create(ctx context.Context, p *model.Playlist) error
	GetByID(ctx context.Context, id string) (*model.Playlist, error)
	FindDefault(ctx context.Context, ownerID string, kind model.DefaultKind) (*model.Playlist, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	// Delete 删除播放列表及其条目、收藏记录
	Delete(ctx context.Context, id string) error
	Page(ctx context.Context, spec query.Spec, req query.PageRequest) (*query.Page[model.Playlist], error)

	// AppendVideo 追加到末尾（允许重复）
	AppendVideo(ctx context.Context, playlistID, videoID string) error
	// RemoveVideo 删除该视频的全部出现，返回删除条数
	RemoveVideo(ctx context.Context, playlistID, videoID string) (int64, error)
	ContainsVideo(ctx context.Context, playlistID, videoID string) (bool, error)

	// Save / Unsave 收藏集合，返回是否有变化
	Save(ctx context.Context, userID, playlistID string) (bool, error)
	Unsave(ctx context.Context, userID, playlistID string) (bool, error)
}

type playlistRepository struct {
	db *gorm.DB
}

func NewPlaylistRepository(db *gorm.DB) PlaylistRepository { return &playlistRepository{db: db} }

func (r *playlistRepository) Create(ctx context.Context, p *model.Playlist) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *playlistRepository) GetByID(ctx context.Context, id string) (*model.Playlist, error) {
	var p model.Playlist
	err := r.db.WithContext(ctx).
		Preload("Owner", func(tx *gorm.DB) *gorm.DB { return tx.Select(model.OwnerProfileColumns) }).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *playlistRepository) FindDefault(ctx context.Context, ownerID string, kind model.DefaultKind) (*model.Playlist, error) {
	var p model.Playlist
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND default_kind = ?", ownerID, kind).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *playlistRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Playlist{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *playlistRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&model.PlaylistVideo{}).Error; err != nil {
			return err
		}
		if err := tx.Where("playlist_id = ?", id).Delete(&model.SavedPlaylist{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Playlist{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *playlistRepository) Page(ctx context.Context, spec query.Spec, req query.PageRequest) (*query.Page[model.Playlist], error) {
	return query.Paginate[model.Playlist](ctx, r.db, spec, req)
}

func (r *playlistRepository) AppendVideo(ctx context.Context, playlistID, videoID string) error {
	// 单条 INSERT，position 由自增主键分配，并发追加互不覆盖
	e := &model.PlaylistVideo{PlaylistID: playlistID, VideoID: videoID}
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *playlistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("playlist_id = ? AND video_id = ?", playlistID, videoID).
		Delete(&model.PlaylistVideo{})
	return res.RowsAffected, res.Error
}

func (r *playlistRepository) ContainsVideo(ctx context.Context, playlistID, videoID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.PlaylistVideo{}).
		Where("playlist_id = ? AND video_id = ?", playlistID, videoID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *playlistRepository) Save(ctx context.Context, userID, playlistID string) (bool, error) {
	s := &model.SavedPlaylist{ID: uuid.New().String(), UserID: userID, PlaylistID: playlistID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(s)
	return res.RowsAffected > 0, res.Error
}

func (r *playlistRepository) Unsave(ctx context.Context, userID, playlistID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND playlist_id = ?", userID, playlistID).
		Delete(&model.SavedPlaylist{})
	return res.RowsAffected > 0, res.Error
}
