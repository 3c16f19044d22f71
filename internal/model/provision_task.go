package model

import "time"

// ProvisionTask 默认播放列表的创建任务，与 User 同一事务写入
type ProvisionTask struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)"`
	UserID      string     `gorm:"type:varchar(36);uniqueIndex"`
	Status      string     `gorm:"type:varchar(16);index"` // pending, processing, done
	Attempts    int        `gorm:"not null;default:0"`
	LastError   string     `gorm:"type:text"`
	CreatedAt   time.Time  `gorm:"index"`
	// ClaimedAt processing 状态的租约起点；租约过期的任务可被重新领取
	ClaimedAt   *time.Time `gorm:"index"`
	ProcessedAt *time.Time
}

func (ProvisionTask) TableName() string { return "provision_tasks" }

const (
	ProvisionPending    = "pending"
	ProvisionProcessing = "processing"
	ProvisionDone       = "done"
)
