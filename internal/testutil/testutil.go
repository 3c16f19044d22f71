// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/pkg/database"
)

// NewDB 创建一个独立的内存 SQLite 库并完成迁移
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("silent"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// 单连接：内存库在连接间共享，同时避免 SQLite 写锁冲突
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedUser 直接写入一个用户（不创建默认播放列表）
func SeedUser(t testing.TB, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@example.com",
		FullName: username,
		Password: "x",
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedVideo 写入一个视频
func SeedVideo(t testing.TB, db *gorm.DB, ownerID, title string, published bool) *model.Video {
	t.Helper()
	v := &model.Video{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		VideoFile:   "http://media.local/video/" + title + ".mp4",
		Thumbnail:   "http://media.local/image/" + title + ".jpg",
		Title:       title,
		Description: title,
		IsPublished: published,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed video: %v", err)
	}
	return v
}

// Ctx 测试用 context
func Ctx() context.Context { return context.Background() }
