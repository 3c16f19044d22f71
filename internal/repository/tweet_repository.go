package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
)

type TweetRepository interface {
	Create(ctx context.Context, t *model.Tweet) error
	GetByID(ctx context.Context, id string) (*model.Tweet, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	Page(ctx context.Context, spec query.Spec, req query.PageRequest) (*query.Page[model.Tweet], error)
}

type tweetRepository struct {
	db *gorm.DB
}

func NewTweetRepository(db *gorm.DB) TweetRepository { return &tweetRepository{db: db} }

func (r *tweetRepository) Create(ctx context.Context, t *model.Tweet) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

func (r *tweetRepository) GetByID(ctx context.Context, id string) (*model.Tweet, error) {
	var t model.Tweet
	err := r.db.WithContext(ctx).
		Preload("Owner", func(tx *gorm.DB) *gorm.DB { return tx.Select(model.OwnerProfileColumns) }).
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tweetRepository) Exists(ctx context.Context, id string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.Tweet{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *tweetRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Tweet{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *tweetRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := NewLikeRepository(tx).DeleteByTargets(ctx, model.LikeTargetTweet, []string{id}); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Tweet{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *tweetRepository) Page(ctx context.Context, spec query.Spec, req query.PageRequest) (*query.Page[model.Tweet], error) {
	return query.Paginate[model.Tweet](ctx, r.db, spec, req)
}
