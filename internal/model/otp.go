package model

import "time"

// OTP 邮箱验证码，过期后不再参与校验
type OTP struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Email     string    `gorm:"type:varchar(255);not null;index:idx_otp_email_created,priority:1"`
	Code      string    `gorm:"type:varchar(16);not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"index:idx_otp_email_created,priority:2"`
}

func (OTP) TableName() string { return "otps" }
