package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
)

type VideoRepository interface {
	Create(ctx context.Context, v *model.Video) error
	// GetByID 附带作者投影（作者不存在时 Owner 为 nil）
	GetByID(ctx context.Context, id string) (*model.Video, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	IncrementViews(ctx context.Context, id string) error
	// Delete 在一个事务内删除视频、其评论以及指向它们的点赞
	Delete(ctx context.Context, id string) error
	Page(ctx context.Context, spec query.Spec, req query.PageRequest) (*query.Page[model.Video], error)

	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	SumViewsByOwner(ctx context.Context, ownerID string) (int64, error)
}

type videoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) VideoRepository { return &videoRepository{db: db} }

func (r *videoRepository) Create(ctx context.Context, v *model.Video) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error
}

func (r *videoRepository) GetByID(ctx context.Context, id string) (*model.Video, error) {
	var v model.Video
	err := r.db.WithContext(ctx).
		Preload("Owner", func(tx *gorm.DB) *gorm.DB { return tx.Select(model.OwnerProfileColumns) }).
		Where("id = ?", id).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *videoRepository) Exists(ctx context.Context, id string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *videoRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *videoRepository) IncrementViews(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Video{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *videoRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var commentIDs []string
		if err := tx.Model(&model.Comment{}).Where("video_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		likes := NewLikeRepository(tx)
		if err := likes.DeleteByTargets(ctx, model.LikeTargetComment, commentIDs); err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := likes.DeleteByTargets(ctx, model.LikeTargetVideo, []string{id}); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Video{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *videoRepository) Page(ctx context.Context, spec query.Spec, req query.PageRequest) (*query.Page[model.Video], error) {
	return query.Paginate[model.Video](ctx, r.db, spec, req)
}

func (r *videoRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Video{}).Where("owner_id = ?", ownerID).Count(&cnt).Error
	return cnt, err
}

func (r *videoRepository) SumViewsByOwner(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Video{}).
		Select("COALESCE(SUM(views), 0)").
		Where("owner_id = ?", ownerID).
		Scan(&total).Error
	return total, err
}
