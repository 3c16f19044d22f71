package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/vidtube/internal/model"
)

type ProvisionTaskRepository interface {
	Create(ctx context.Context, userID string) (*model.ProvisionTask, error)
	// Claim 将最多 limit 个 pending 任务（以及租约超过 lease 的 processing 任务）
	// 原子地置为 processing 并返回；lease <= 0 时只领取 pending
	Claim(ctx context.Context, limit int, lease time.Duration) ([]model.ProvisionTask, error)
	MarkDone(ctx context.Context, userID string) error
	// MarkFailed 记录错误并退回 pending，等待下一轮
	MarkFailed(ctx context.Context, userID string, cause error) error
	Get(ctx context.Context, userID string) (*model.ProvisionTask, error)
}

type provisionTaskRepository struct {
	db *gorm.DB
}

func NewProvisionTaskRepository(db *gorm.DB) ProvisionTaskRepository {
	return &provisionTaskRepository{db: db}
}

func (r *provisionTaskRepository) Create(ctx context.Context, userID string) (*model.ProvisionTask, error) {
	t := &model.ProvisionTask{
		ID:     uuid.New().String(),
		UserID: userID,
		Status: model.ProvisionPending,
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// claimable 可领取条件：pending，或 processing 且租约已过期
func claimable(db *gorm.DB, lease time.Duration, now time.Time) *gorm.DB {
	if lease <= 0 {
		return db.Where("status = ?", model.ProvisionPending)
	}
	return db.Where("(status = ? OR (status = ? AND (claimed_at IS NULL OR claimed_at < ?)))",
		model.ProvisionPending, model.ProvisionProcessing, now.Add(-lease))
}

func (r *provisionTaskRepository) Claim(ctx context.Context, limit int, lease time.Duration) ([]model.ProvisionTask, error) {
	now := time.Now()
	var candidates []model.ProvisionTask
	if err := claimable(r.db.WithContext(ctx), lease, now).
		Order("created_at").
		Limit(limit).
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	claimed := make([]model.ProvisionTask, 0, len(candidates))
	for _, t := range candidates {
		// 条件更新代替 FOR UPDATE SKIP LOCKED：同一时刻只有一个 worker 能领到
		res := claimable(r.db.WithContext(ctx).Model(&model.ProvisionTask{}).Where("id = ?", t.ID), lease, now).
			Updates(map[string]any{
				"status":     model.ProvisionProcessing,
				"attempts":   gorm.Expr("attempts + 1"),
				"claimed_at": now,
			})
		if res.Error != nil {
			return claimed, res.Error
		}
		if res.RowsAffected == 1 {
			t.Status = model.ProvisionProcessing
			t.Attempts++
			t.ClaimedAt = &now
			claimed = append(claimed, t)
		}
	}
	return claimed, nil
}

func (r *provisionTaskRepository) MarkDone(ctx context.Context, userID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.ProvisionTask{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"status": model.ProvisionDone, "processed_at": now, "last_error": "", "claimed_at": nil}).Error
}

func (r *provisionTaskRepository) MarkFailed(ctx context.Context, userID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.db.WithContext(ctx).
		Model(&model.ProvisionTask{}).
		Where("user_id = ? AND status <> ?", userID, model.ProvisionDone).
		Updates(map[string]any{"status": model.ProvisionPending, "last_error": msg, "claimed_at": nil}).Error
}

func (r *provisionTaskRepository) Get(ctx context.Context, userID string) (*model.ProvisionTask, error) {
	var t model.ProvisionTask
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}
