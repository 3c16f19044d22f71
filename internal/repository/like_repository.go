package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/vidtube/internal/model"
)

type LikeRepository interface {
	// Create 返回是否真正插入（false 表示已点赞）
	Create(ctx context.Context, actorID string, target model.LikeTarget, targetID string) (*model.Like, bool, error)
	Delete(ctx context.Context, actorID string, target model.LikeTarget, targetID string) (int64, error)
	Exists(ctx context.Context, actorID string, target model.LikeTarget, targetID string) (bool, error)
	DeleteByTargets(ctx context.Context, target model.LikeTarget, targetIDs []string) error
	// CountForOwnerVideos 某频道所有视频获得的点赞总数
	CountForOwnerVideos(ctx context.Context, ownerID string) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository { return &likeRepository{db: db} }

func (r *likeRepository) Create(ctx context.Context, actorID string, target model.LikeTarget, targetID string) (*model.Like, bool, error) {
	l := &model.Like{ID: uuid.New().String(), LikedBy: actorID, TargetType: target, TargetID: targetID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(l)
	if res.Error != nil {
		return nil, false, res.Error
	}
	return l, res.RowsAffected > 0, nil
}

func (r *likeRepository) Delete(ctx context.Context, actorID string, target model.LikeTarget, targetID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("liked_by = ? AND target_type = ? AND target_id = ?", actorID, target, targetID).
		Delete(&model.Like{})
	return res.RowsAffected, res.Error
}

func (r *likeRepository) Exists(ctx context.Context, actorID string, target model.LikeTarget, targetID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Like{}).
		Where("liked_by = ? AND target_type = ? AND target_id = ?", actorID, target, targetID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *likeRepository) DeleteByTargets(ctx context.Context, target model.LikeTarget, targetIDs []string) error {
	if len(targetIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ?", target, targetIDs).
		Delete(&model.Like{}).Error
}

func (r *likeRepository) CountForOwnerVideos(ctx context.Context, ownerID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Like{}).
		Joins("JOIN videos ON videos.id = likes.target_id").
		Where("likes.target_type = ? AND videos.owner_id = ?", model.LikeTargetVideo, ownerID).
		Count(&cnt).Error
	return cnt, err
}
