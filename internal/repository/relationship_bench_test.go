package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/testutil"
)

func BenchmarkSubscriptionWrite(b *testing.B) {
	db := testutil.NewDB(b)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	// 预创建部分用户
	users := make([]model.User, 1000)
	for i := range users {
		users[i] = model.User{ID: fmt.Sprintf("u%04d", i), Username: fmt.Sprintf("u%04d", i), Email: fmt.Sprintf("u%04d@example.com", i), Password: "p"}
	}
	if err := db.CreateInBatches(&users, 200).Error; err != nil {
		b.Fatalf("seed users: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := users[rng.Intn(len(users))].ID
		to := users[rng.Intn(len(users))].ID
		if from == to {
			continue
		}
		_, _, _ = repo.Create(ctx, from, to)
	}
}

func BenchmarkLikeToggle(b *testing.B) {
	db := testutil.NewDB(b)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		target := fmt.Sprintf("v%d", i%64)
		ok, _ := repo.Exists(ctx, "actor", model.LikeTargetVideo, target)
		if ok {
			_, _ = repo.Delete(ctx, "actor", model.LikeTargetVideo, target)
			continue
		}
		_, _, _ = repo.Create(ctx, "actor", model.LikeTargetVideo, target)
	}
}

func BenchmarkSubscriberCounts(b *testing.B) {
	db := testutil.NewDB(b)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	// 构造：频道 c0 有 N 个订阅者，同时 c0 也订阅了 N 个频道
	const N = 5000
	for i := 1; i <= N; i++ {
		uid := fmt.Sprintf("u%d", i)
		_, _, _ = repo.Create(ctx, uid, "c0")
		_, _, _ = repo.Create(ctx, "c0", uid)
	}

	b.ResetTimer()
	b.Run("CountSubscribers", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = repo.CountSubscribers(ctx, "c0")
		}
	})

	b.Run("ListSubscriberIDs", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = repo.ListSubscriberIDs(ctx, "c0")
		}
	})
}
