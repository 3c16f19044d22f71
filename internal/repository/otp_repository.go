package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/vidtube/internal/model"
)

type OTPRepository interface {
	Create(ctx context.Context, email, code string, expiresAt time.Time) error
	// Latest 返回该邮箱最近一条未过期的验证码
	Latest(ctx context.Context, email string, now time.Time) (*model.OTP, error)
	DeleteByEmail(ctx context.Context, email string) error
}

type otpRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) OTPRepository { return &otpRepository{db: db} }

func (r *otpRepository) Create(ctx context.Context, email, code string, expiresAt time.Time) error {
	o := &model.OTP{ID: uuid.New().String(), Email: email, Code: code, ExpiresAt: expiresAt.UTC()}
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *otpRepository) Latest(ctx context.Context, email string, now time.Time) (*model.OTP, error) {
	var o model.OTP
	err := r.db.WithContext(ctx).
		Where("email = ? AND expires_at > ?", email, now.UTC()).
		Order("created_at DESC").
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *otpRepository) DeleteByEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("email = ?", email).Delete(&model.OTP{}).Error
}
